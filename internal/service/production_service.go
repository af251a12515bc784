package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"backend/internal/model"
	"backend/internal/repository"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// --- DTOs ---

type CreateProductionOrderInput struct {
	ProductID   uuid.UUID       `json:"product_id" binding:"required"`
	WarehouseID uuid.UUID       `json:"warehouse_id" binding:"required"`
	Quantity    decimal.Decimal `json:"quantity" binding:"required"`
}

// --- Interface ---

// ProductionService expands kit definitions into component requirements and
// drives the pending → in_progress → finished lifecycle. Component
// consumption on start is all-or-nothing.
type ProductionService interface {
	Create(ctx context.Context, tenantID uuid.UUID, userID *uuid.UUID, input CreateProductionOrderInput) (*model.ProductionOrder, error)
	Start(ctx context.Context, tenantID uuid.UUID, userID *uuid.UUID, id uuid.UUID) (*model.ProductionOrder, error)
	Finish(ctx context.Context, tenantID uuid.UUID, userID *uuid.UUID, id uuid.UUID) (*model.ProductionOrder, error)
	Cancel(ctx context.Context, tenantID uuid.UUID, userID *uuid.UUID, id uuid.UUID) (*model.ProductionOrder, error)
	Get(ctx context.Context, tenantID, id uuid.UUID) (*model.ProductionOrder, error)
	List(ctx context.Context, tenantID uuid.UUID, status string, page, limit int) ([]model.ProductionOrder, int64, error)
}

type productionService struct {
	productionRepo repository.ProductionRepository
	kitRepo        repository.KitRepository
	sequenceRepo   repository.SequenceRepository
	movementRepo   repository.StockMovementRepository
	stockService   StockService
	auditRepo      repository.AuditRepository
	txManager      repository.TransactionManager
}

func NewProductionService(
	productionRepo repository.ProductionRepository,
	kitRepo repository.KitRepository,
	sequenceRepo repository.SequenceRepository,
	movementRepo repository.StockMovementRepository,
	stockService StockService,
	auditRepo repository.AuditRepository,
	txManager repository.TransactionManager,
) ProductionService {
	return &productionService{
		productionRepo: productionRepo,
		kitRepo:        kitRepo,
		sequenceRepo:   sequenceRepo,
		movementRepo:   movementRepo,
		stockService:   stockService,
		auditRepo:      auditRepo,
		txManager:      txManager,
	}
}

// --- Implementation ---

func (s *productionService) Create(ctx context.Context, tenantID uuid.UUID, userID *uuid.UUID, input CreateProductionOrderInput) (*model.ProductionOrder, error) {
	if input.Quantity.LessThanOrEqual(decimal.Zero) {
		return nil, fmt.Errorf("%w: production quantity must be positive", ErrInvalidState)
	}

	components, err := s.kitRepo.FindByKit(ctx, tenantID, input.ProductID)
	if err != nil {
		return nil, fmt.Errorf("failed to load kit definition: %w", err)
	}
	if len(components) == 0 {
		return nil, fmt.Errorf("%w: product has no kit definition", ErrInvalidState)
	}

	order := &model.ProductionOrder{
		TenantID:    tenantID,
		ProductID:   input.ProductID,
		WarehouseID: input.WarehouseID,
		Quantity:    input.Quantity,
		Status:      model.ProductionPending,
		CreatedBy:   userID,
	}

	err = s.txManager.RunInTxRetry(ctx, func(txCtx context.Context) error {
		number, err := s.sequenceRepo.NextNumber(txCtx, tenantID, model.SequenceProductionOrder)
		if err != nil {
			return fmt.Errorf("failed to allocate production number: %w", err)
		}
		order.Number = number

		if err := s.productionRepo.Create(txCtx, order); err != nil {
			return fmt.Errorf("failed to create production order: %w", err)
		}

		// No stock moves at creation; items only record requirements.
		for _, component := range components {
			item := &model.ProductionOrderItem{
				ProductionOrderID: order.ID,
				ProductID:         component.ComponentProductID,
				QuantityRequired:  component.QuantityPerUnit.Mul(input.Quantity),
			}
			if err := s.productionRepo.CreateItem(txCtx, item); err != nil {
				return fmt.Errorf("failed to create production item: %w", err)
			}
			order.Items = append(order.Items, *item)
		}

		details, _ := json.Marshal(map[string]interface{}{
			"number":     order.Number,
			"quantity":   input.Quantity,
			"components": len(components),
		})
		audit := &model.AuditLog{
			TenantID:   tenantID,
			UserID:     userID,
			Action:     model.ActionCreateProduction,
			EntityID:   order.ID.String(),
			EntityName: order.Number,
			Details:    string(details),
		}
		return s.auditRepo.Log(txCtx, audit)
	})
	if err != nil {
		return nil, err
	}

	return order, nil
}

// Start consumes every component inside one transaction. Any component with
// insufficient stock fails the whole transition; a rolled-back start leaves
// no partial consumption behind.
func (s *productionService) Start(ctx context.Context, tenantID uuid.UUID, userID *uuid.UUID, id uuid.UUID) (*model.ProductionOrder, error) {
	var order *model.ProductionOrder
	err := s.txManager.RunInTxRetry(ctx, func(txCtx context.Context) error {
		var err error
		order, err = s.findForTransition(txCtx, tenantID, id)
		if err != nil {
			return err
		}
		if order.Status != model.ProductionPending {
			return fmt.Errorf("%w: cannot start a %s production order", ErrInvalidState, order.Status)
		}

		for i := range order.Items {
			item := &order.Items[i]
			if _, err := s.stockService.RecordMovementInTx(txCtx, tenantID, userID, MovementInput{
				ProductID:       item.ProductID,
				WarehouseID:     order.WarehouseID,
				Type:            model.MovementAdjustmentOut,
				Quantity:        item.QuantityRequired,
				ReferenceType:   model.ReferenceProductionOrder,
				ReferenceID:     &order.ID,
				ReferenceNumber: order.Number,
				Reason:          "component consumption",
			}); err != nil {
				return err
			}
			item.QuantityConsumed = item.QuantityRequired
			if err := s.productionRepo.SaveItem(txCtx, item); err != nil {
				return fmt.Errorf("failed to update production item: %w", err)
			}
		}

		now := time.Now()
		order.Status = model.ProductionInProgress
		order.StartedAt = &now
		if err := s.productionRepo.Save(txCtx, order); err != nil {
			return fmt.Errorf("failed to update production order: %w", err)
		}

		return s.logTransition(txCtx, tenantID, userID, order, model.ActionStartProduction)
	})
	if err != nil {
		return nil, err
	}

	return order, nil
}

func (s *productionService) Finish(ctx context.Context, tenantID uuid.UUID, userID *uuid.UUID, id uuid.UUID) (*model.ProductionOrder, error) {
	var order *model.ProductionOrder
	err := s.txManager.RunInTxRetry(ctx, func(txCtx context.Context) error {
		var err error
		order, err = s.findForTransition(txCtx, tenantID, id)
		if err != nil {
			return err
		}
		if order.Status != model.ProductionInProgress {
			return fmt.Errorf("%w: cannot finish a %s production order", ErrInvalidState, order.Status)
		}

		// The produced units enter at the cost actually consumed, read back
		// from the order's component exit movements.
		unitCost := decimal.Zero
		consumptions, err := s.movementRepo.ListByReference(txCtx, tenantID, model.ReferenceProductionOrder, order.ID)
		if err != nil {
			return fmt.Errorf("failed to load consumption movements: %w", err)
		}
		totalCost := decimal.Zero
		for _, movement := range consumptions {
			if !model.IsEntryMovement(movement.Type) {
				totalCost = totalCost.Add(movement.TotalCost)
			}
		}
		if order.Quantity.IsPositive() {
			unitCost = totalCost.Div(order.Quantity)
		}

		if _, err := s.stockService.RecordMovementInTx(txCtx, tenantID, userID, MovementInput{
			ProductID:       order.ProductID,
			WarehouseID:     order.WarehouseID,
			Type:            model.MovementProduction,
			Quantity:        order.Quantity,
			UnitCost:        unitCost,
			ReferenceType:   model.ReferenceProductionOrder,
			ReferenceID:     &order.ID,
			ReferenceNumber: order.Number,
		}); err != nil {
			return err
		}

		now := time.Now()
		order.Status = model.ProductionFinished
		order.FinishedAt = &now
		if err := s.productionRepo.Save(txCtx, order); err != nil {
			return fmt.Errorf("failed to update production order: %w", err)
		}

		return s.logTransition(txCtx, tenantID, userID, order, model.ActionFinishProduction)
	})
	if err != nil {
		return nil, err
	}

	return order, nil
}

// Cancel is only permitted while nothing has been consumed. Once components
// left the warehouse the order must be finished; reversals happen through
// explicit adjustment movements, never implicitly.
func (s *productionService) Cancel(ctx context.Context, tenantID uuid.UUID, userID *uuid.UUID, id uuid.UUID) (*model.ProductionOrder, error) {
	var order *model.ProductionOrder
	err := s.txManager.RunInTxRetry(ctx, func(txCtx context.Context) error {
		var err error
		order, err = s.findForTransition(txCtx, tenantID, id)
		if err != nil {
			return err
		}
		if order.Status != model.ProductionPending && order.Status != model.ProductionInProgress {
			return fmt.Errorf("%w: cannot cancel a %s production order", ErrInvalidState, order.Status)
		}
		for _, item := range order.Items {
			if item.QuantityConsumed.IsPositive() {
				return fmt.Errorf("%w: components already consumed", ErrInvalidState)
			}
		}

		order.Status = model.ProductionCancelled
		if err := s.productionRepo.Save(txCtx, order); err != nil {
			return fmt.Errorf("failed to update production order: %w", err)
		}

		return s.logTransition(txCtx, tenantID, userID, order, model.ActionCancelProduction)
	})
	if err != nil {
		return nil, err
	}

	return order, nil
}

func (s *productionService) findForTransition(txCtx context.Context, tenantID, id uuid.UUID) (*model.ProductionOrder, error) {
	order, err := s.productionRepo.FindByIDForUpdate(txCtx, tenantID, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: production order", ErrNotFound)
		}
		return nil, err
	}
	return order, nil
}

func (s *productionService) logTransition(txCtx context.Context, tenantID uuid.UUID, userID *uuid.UUID, order *model.ProductionOrder, action string) error {
	details, _ := json.Marshal(map[string]interface{}{"status": order.Status})
	audit := &model.AuditLog{
		TenantID:   tenantID,
		UserID:     userID,
		Action:     action,
		EntityID:   order.ID.String(),
		EntityName: order.Number,
		Details:    string(details),
	}
	return s.auditRepo.Log(txCtx, audit)
}

func (s *productionService) Get(ctx context.Context, tenantID, id uuid.UUID) (*model.ProductionOrder, error) {
	order, err := s.productionRepo.FindByID(ctx, tenantID, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: production order", ErrNotFound)
		}
		return nil, err
	}
	return order, nil
}

func (s *productionService) List(ctx context.Context, tenantID uuid.UUID, status string, page, limit int) ([]model.ProductionOrder, int64, error) {
	if page <= 0 {
		page = 1
	}
	if limit <= 0 {
		limit = 20
	}
	return s.productionRepo.List(ctx, tenantID, status, page, limit)
}
