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

type CreateCountInput struct {
	WarehouseID uuid.UUID   `json:"warehouse_id" binding:"required"`
	Type        string      `json:"type" binding:"required,oneof=full partial"`
	ProductIDs  []uuid.UUID `json:"product_ids"`
	BlindCount  bool        `json:"blind_count"`
	Notes       string      `json:"notes"`
}

type RegisterCountItemInput struct {
	ProductID       uuid.UUID       `json:"product_id" binding:"required"`
	CountedQuantity decimal.Decimal `json:"counted_quantity"`
	Notes           string          `json:"notes"`
}

// CountItemView is the read model for count items. SystemQuantity and
// Difference are withheld on pending items of a blind count so the counter
// cannot anchor on the expected value.
type CountItemView struct {
	ID              uuid.UUID        `json:"id"`
	ProductID       uuid.UUID        `json:"product_id"`
	ProductSKU      string           `json:"product_sku,omitempty"`
	ProductName     string           `json:"product_name,omitempty"`
	SystemQuantity  *decimal.Decimal `json:"system_quantity,omitempty"`
	CountedQuantity *decimal.Decimal `json:"counted_quantity,omitempty"`
	Difference      *decimal.Decimal `json:"difference,omitempty"`
	Status          string           `json:"status"`
	Notes           string           `json:"notes,omitempty"`
	CountedAt       *time.Time       `json:"counted_at,omitempty"`
}

type CountView struct {
	ID          uuid.UUID       `json:"id"`
	Number      string          `json:"number"`
	WarehouseID uuid.UUID       `json:"warehouse_id"`
	Type        string          `json:"type"`
	Status      string          `json:"status"`
	BlindCount  bool            `json:"blind_count"`
	Notes       string          `json:"notes,omitempty"`
	Items       []CountItemView `json:"items"`
	ApprovedAt  *time.Time      `json:"approved_at,omitempty"`
	CreatedAt   time.Time       `json:"created_at"`
}

// --- Interface ---

// CountService runs the physical-count workflow: seed a frozen snapshot,
// collect counted quantities, then reconcile every discrepancy into a
// corrective ledger movement on approval.
type CountService interface {
	Create(ctx context.Context, tenantID uuid.UUID, userID *uuid.UUID, input CreateCountInput) (*CountView, error)
	RegisterItem(ctx context.Context, tenantID uuid.UUID, userID *uuid.UUID, countID uuid.UUID, input RegisterCountItemInput) (*CountItemView, error)
	Approve(ctx context.Context, tenantID uuid.UUID, userID *uuid.UUID, id uuid.UUID) (*CountView, error)
	Get(ctx context.Context, tenantID, id uuid.UUID) (*CountView, error)
	List(ctx context.Context, tenantID uuid.UUID, status string, page, limit int) ([]model.InventoryCount, int64, error)
}

type countService struct {
	countRepo    repository.CountRepository
	levelRepo    repository.StockLevelRepository
	productRepo  repository.ProductRepository
	sequenceRepo repository.SequenceRepository
	stockService StockService
	auditRepo    repository.AuditRepository
	txManager    repository.TransactionManager
}

func NewCountService(
	countRepo repository.CountRepository,
	levelRepo repository.StockLevelRepository,
	productRepo repository.ProductRepository,
	sequenceRepo repository.SequenceRepository,
	stockService StockService,
	auditRepo repository.AuditRepository,
	txManager repository.TransactionManager,
) CountService {
	return &countService{
		countRepo:    countRepo,
		levelRepo:    levelRepo,
		productRepo:  productRepo,
		sequenceRepo: sequenceRepo,
		stockService: stockService,
		auditRepo:    auditRepo,
		txManager:    txManager,
	}
}

// --- Implementation ---

func (s *countService) Create(ctx context.Context, tenantID uuid.UUID, userID *uuid.UUID, input CreateCountInput) (*CountView, error) {
	if input.Type == model.CountTypePartial && len(input.ProductIDs) == 0 {
		return nil, fmt.Errorf("%w: a partial count needs product ids", ErrInvalidState)
	}

	count := &model.InventoryCount{
		TenantID:    tenantID,
		WarehouseID: input.WarehouseID,
		Type:        input.Type,
		Status:      model.CountStatusCounting,
		BlindCount:  input.BlindCount,
		Notes:       input.Notes,
		CreatedBy:   userID,
	}

	err := s.txManager.RunInTxRetry(ctx, func(txCtx context.Context) error {
		number, err := s.sequenceRepo.NextNumber(txCtx, tenantID, model.SequenceInventoryCount)
		if err != nil {
			return fmt.Errorf("failed to allocate count number: %w", err)
		}
		count.Number = number

		if err := s.countRepo.Create(txCtx, count); err != nil {
			return fmt.Errorf("failed to create count: %w", err)
		}

		// The snapshot freezes here; later movements do not change
		// SystemQuantity.
		snapshots, err := s.seedSnapshots(txCtx, tenantID, input)
		if err != nil {
			return err
		}
		for productID, systemQuantity := range snapshots {
			item := &model.InventoryCountItem{
				CountID:        count.ID,
				ProductID:      productID,
				SystemQuantity: systemQuantity,
				Status:         model.CountItemPending,
			}
			if err := s.countRepo.CreateItem(txCtx, item); err != nil {
				return fmt.Errorf("failed to create count item: %w", err)
			}
			count.Items = append(count.Items, *item)
		}

		details, _ := json.Marshal(map[string]interface{}{
			"number": count.Number,
			"type":   input.Type,
			"blind":  input.BlindCount,
			"items":  len(count.Items),
		})
		audit := &model.AuditLog{
			TenantID:   tenantID,
			UserID:     userID,
			Action:     model.ActionCreateCount,
			EntityID:   count.ID.String(),
			EntityName: count.Number,
			Details:    string(details),
		}
		return s.auditRepo.Log(txCtx, audit)
	})
	if err != nil {
		return nil, err
	}

	view := buildCountView(count)
	return &view, nil
}

// seedSnapshots resolves the product set and its frozen system quantities.
// Full counts take the union of levels in the warehouse and all active
// products (defaulted to zero), so never-moved products are still counted.
func (s *countService) seedSnapshots(txCtx context.Context, tenantID uuid.UUID, input CreateCountInput) (map[uuid.UUID]decimal.Decimal, error) {
	snapshots := make(map[uuid.UUID]decimal.Decimal)

	if input.Type == model.CountTypeFull {
		levels, err := s.levelRepo.ListByWarehouse(txCtx, tenantID, input.WarehouseID)
		if err != nil {
			return nil, fmt.Errorf("failed to load stock levels: %w", err)
		}
		for _, level := range levels {
			snapshots[level.ProductID] = level.Quantity
		}

		products, err := s.productRepo.ListActive(txCtx, tenantID)
		if err != nil {
			return nil, fmt.Errorf("failed to load active products: %w", err)
		}
		for _, product := range products {
			if _, seen := snapshots[product.ID]; !seen {
				snapshots[product.ID] = decimal.Zero
			}
		}
		return snapshots, nil
	}

	for _, productID := range input.ProductIDs {
		level, err := s.levelRepo.Find(txCtx, tenantID, productID, input.WarehouseID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				snapshots[productID] = decimal.Zero
				continue
			}
			return nil, fmt.Errorf("failed to load stock level: %w", err)
		}
		snapshots[productID] = level.Quantity
	}
	return snapshots, nil
}

func (s *countService) RegisterItem(ctx context.Context, tenantID uuid.UUID, userID *uuid.UUID, countID uuid.UUID, input RegisterCountItemInput) (*CountItemView, error) {
	if input.CountedQuantity.IsNegative() {
		return nil, fmt.Errorf("%w: counted quantity cannot be negative", ErrInvalidState)
	}

	var item *model.InventoryCountItem
	var blind bool
	err := s.txManager.RunInTxRetry(ctx, func(txCtx context.Context) error {
		count, err := s.countRepo.FindByIDForUpdate(txCtx, tenantID, countID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("%w: inventory count", ErrNotFound)
			}
			return err
		}
		if count.Status != model.CountStatusCounting {
			return fmt.Errorf("%w: count is %s, not counting", ErrInvalidState, count.Status)
		}
		blind = count.BlindCount

		item, err = s.countRepo.FindItem(txCtx, countID, input.ProductID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("%w: product not part of this count", ErrNotFound)
			}
			return err
		}

		now := time.Now()
		counted := input.CountedQuantity
		item.CountedQuantity = &counted
		item.Difference = counted.Sub(item.SystemQuantity)
		item.Status = model.CountItemCounted
		item.Notes = input.Notes
		item.CountedBy = userID
		item.CountedAt = &now
		if err := s.countRepo.SaveItem(txCtx, item); err != nil {
			return fmt.Errorf("failed to save count item: %w", err)
		}

		// All items counted moves the session into review.
		pending, err := s.countRepo.CountPendingItems(txCtx, countID)
		if err != nil {
			return err
		}
		if pending == 0 && count.Status == model.CountStatusCounting {
			count.Status = model.CountStatusReview
			if err := s.countRepo.Save(txCtx, count); err != nil {
				return fmt.Errorf("failed to update count: %w", err)
			}
		}

		details, _ := json.Marshal(map[string]interface{}{
			"product_id": input.ProductID.String(),
			"counted":    counted,
			"difference": item.Difference,
		})
		audit := &model.AuditLog{
			TenantID: tenantID,
			UserID:   userID,
			Action:   model.ActionRegisterCountItem,
			EntityID: countID.String(),
			Details:  string(details),
		}
		return s.auditRepo.Log(txCtx, audit)
	})
	if err != nil {
		return nil, err
	}

	view := buildCountItemView(*item, blind)
	return &view, nil
}

func (s *countService) Approve(ctx context.Context, tenantID uuid.UUID, userID *uuid.UUID, id uuid.UUID) (*CountView, error) {
	var count *model.InventoryCount
	err := s.txManager.RunInTxRetry(ctx, func(txCtx context.Context) error {
		var err error
		count, err = s.countRepo.FindByIDForUpdate(txCtx, tenantID, id)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("%w: inventory count", ErrNotFound)
			}
			return err
		}
		if count.Status != model.CountStatusCounting && count.Status != model.CountStatusReview {
			return fmt.Errorf("%w: count already %s", ErrInvalidState, count.Status)
		}
		for _, item := range count.Items {
			if item.Status == model.CountItemPending {
				return ErrIncompleteCount
			}
		}

		for i := range count.Items {
			item := &count.Items[i]
			if item.Status != model.CountItemCounted {
				continue
			}
			if !item.Difference.IsZero() {
				movementType := model.MovementAdjustmentIn
				if item.Difference.IsNegative() {
					movementType = model.MovementAdjustmentOut
				}
				// A count approval is ground truth; it must never be
				// blocked by the negative-stock policy.
				if _, err := s.stockService.RecordMovementInTx(txCtx, tenantID, userID, MovementInput{
					ProductID:       item.ProductID,
					WarehouseID:     count.WarehouseID,
					Type:            movementType,
					Quantity:        item.Difference.Abs(),
					ReferenceType:   model.ReferenceInventoryCount,
					ReferenceID:     &count.ID,
					ReferenceNumber: count.Number,
					Reason:          "inventory count adjustment",
					AllowNegative:   true,
				}); err != nil {
					return err
				}
			}
			item.Status = model.CountItemAdjusted
			if err := s.countRepo.SaveItem(txCtx, item); err != nil {
				return fmt.Errorf("failed to update count item: %w", err)
			}
		}

		now := time.Now()
		count.Status = model.CountStatusApproved
		count.ApprovedBy = userID
		count.ApprovedAt = &now
		if err := s.countRepo.Save(txCtx, count); err != nil {
			return fmt.Errorf("failed to update count: %w", err)
		}

		details, _ := json.Marshal(map[string]interface{}{"number": count.Number})
		audit := &model.AuditLog{
			TenantID:   tenantID,
			UserID:     userID,
			Action:     model.ActionApproveCount,
			EntityID:   count.ID.String(),
			EntityName: count.Number,
			Details:    string(details),
		}
		return s.auditRepo.Log(txCtx, audit)
	})
	if err != nil {
		return nil, err
	}

	view := buildCountView(count)
	return &view, nil
}

func (s *countService) Get(ctx context.Context, tenantID, id uuid.UUID) (*CountView, error) {
	count, err := s.countRepo.FindByID(ctx, tenantID, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: inventory count", ErrNotFound)
		}
		return nil, err
	}
	view := buildCountView(count)
	return &view, nil
}

func (s *countService) List(ctx context.Context, tenantID uuid.UUID, status string, page, limit int) ([]model.InventoryCount, int64, error) {
	if page <= 0 {
		page = 1
	}
	if limit <= 0 {
		limit = 20
	}
	return s.countRepo.List(ctx, tenantID, status, page, limit)
}

// --- View building ---

func buildCountView(count *model.InventoryCount) CountView {
	view := CountView{
		ID:          count.ID,
		Number:      count.Number,
		WarehouseID: count.WarehouseID,
		Type:        count.Type,
		Status:      count.Status,
		BlindCount:  count.BlindCount,
		Notes:       count.Notes,
		ApprovedAt:  count.ApprovedAt,
		CreatedAt:   count.CreatedAt,
		Items:       make([]CountItemView, 0, len(count.Items)),
	}
	for _, item := range count.Items {
		view.Items = append(view.Items, buildCountItemView(item, count.BlindCount))
	}
	return view
}

// buildCountItemView masks the system quantity (and the derived difference)
// on pending items of a blind count. Counted and adjusted items reveal it.
func buildCountItemView(item model.InventoryCountItem, blind bool) CountItemView {
	view := CountItemView{
		ID:              item.ID,
		ProductID:       item.ProductID,
		CountedQuantity: item.CountedQuantity,
		Status:          item.Status,
		Notes:           item.Notes,
		CountedAt:       item.CountedAt,
	}
	if item.Product != nil {
		view.ProductSKU = item.Product.SKU
		view.ProductName = item.Product.Name
	}
	if !blind || item.Status != model.CountItemPending {
		systemQuantity := item.SystemQuantity
		difference := item.Difference
		view.SystemQuantity = &systemQuantity
		view.Difference = &difference
	}
	return view
}
