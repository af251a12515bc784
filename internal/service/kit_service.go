package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"backend/internal/model"
	"backend/internal/repository"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// --- DTOs ---

type KitComponentInput struct {
	ComponentProductID uuid.UUID       `json:"component_product_id" binding:"required"`
	QuantityPerUnit    decimal.Decimal `json:"quantity_per_unit" binding:"required"`
}

// --- Interface ---

// KitService owns the static BOM registry. Component lists are replaced
// whole; there is no partial diff.
type KitService interface {
	SetComponents(ctx context.Context, tenantID uuid.UUID, userID *uuid.UUID, kitProductID uuid.UUID, components []KitComponentInput) ([]model.ProductKitItem, error)
	GetComponents(ctx context.Context, tenantID, kitProductID uuid.UUID) ([]model.ProductKitItem, error)
}

type kitService struct {
	kitRepo     repository.KitRepository
	productRepo repository.ProductRepository
	auditRepo   repository.AuditRepository
	txManager   repository.TransactionManager
}

func NewKitService(
	kitRepo repository.KitRepository,
	productRepo repository.ProductRepository,
	auditRepo repository.AuditRepository,
	txManager repository.TransactionManager,
) KitService {
	return &kitService{
		kitRepo:     kitRepo,
		productRepo: productRepo,
		auditRepo:   auditRepo,
		txManager:   txManager,
	}
}

// --- Implementation ---

func (s *kitService) SetComponents(ctx context.Context, tenantID uuid.UUID, userID *uuid.UUID, kitProductID uuid.UUID, components []KitComponentInput) ([]model.ProductKitItem, error) {
	kit, err := s.productRepo.FindByID(ctx, tenantID, kitProductID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: kit product", ErrNotFound)
		}
		return nil, err
	}

	items := make([]model.ProductKitItem, 0, len(components))
	for _, component := range components {
		if component.QuantityPerUnit.LessThanOrEqual(decimal.Zero) {
			return nil, fmt.Errorf("%w: component quantity per unit must be positive", ErrInvalidState)
		}
		if component.ComponentProductID == kitProductID {
			return nil, fmt.Errorf("%w: a kit cannot contain itself", ErrInvalidState)
		}
		items = append(items, model.ProductKitItem{
			ComponentProductID: component.ComponentProductID,
			QuantityPerUnit:    component.QuantityPerUnit,
		})
	}

	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		if err := s.kitRepo.Replace(txCtx, tenantID, kitProductID, items); err != nil {
			return fmt.Errorf("failed to replace kit components: %w", err)
		}

		if !kit.IsKit {
			kit.IsKit = true
			if err := s.productRepo.Update(txCtx, kit); err != nil {
				return fmt.Errorf("failed to flag kit product: %w", err)
			}
		}

		details, _ := json.Marshal(map[string]interface{}{"components": len(items)})
		audit := &model.AuditLog{
			TenantID:   tenantID,
			UserID:     userID,
			Action:     model.ActionSetKitComponents,
			EntityID:   kitProductID.String(),
			EntityName: kit.Name,
			Details:    string(details),
		}
		return s.auditRepo.Log(txCtx, audit)
	})
	if err != nil {
		return nil, err
	}

	return items, nil
}

func (s *kitService) GetComponents(ctx context.Context, tenantID, kitProductID uuid.UUID) ([]model.ProductKitItem, error) {
	return s.kitRepo.FindByKit(ctx, tenantID, kitProductID)
}
