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

type CreateBatchInput struct {
	ProductID      uuid.UUID       `json:"product_id" binding:"required"`
	WarehouseID    uuid.UUID       `json:"warehouse_id" binding:"required"`
	BatchCode      string          `json:"batch_code" binding:"required"`
	ExpirationDate *time.Time      `json:"expiration_date"`
	Quantity       decimal.Decimal `json:"quantity" binding:"required"`
	UnitCost       decimal.Decimal `json:"unit_cost"`
}

// BatchAllocation is one lot drained by a FIFO allocation.
type BatchAllocation struct {
	BatchID   uuid.UUID       `json:"batch_id"`
	BatchCode string          `json:"batch_code"`
	Quantity  decimal.Decimal `json:"quantity"`
	UnitCost  decimal.Decimal `json:"unit_cost"`
}

// --- Interface ---

// BatchService tracks lot-coded sub-quantities and serves FIFO-by-expiry
// allocation. Lots describe composition only; the authoritative balance
// stays on StockLevel.
type BatchService interface {
	Create(ctx context.Context, tenantID uuid.UUID, userID *uuid.UUID, input CreateBatchInput) (*model.StockBatch, error)
	GetFifo(ctx context.Context, tenantID, productID, warehouseID uuid.UUID) ([]model.StockBatch, error)
	// AllocateFifo drains lots front-to-back until quantity is satisfied,
	// decrementing each drained lot. A lot never goes negative; when the
	// lots cannot cover the request the whole allocation fails with
	// ErrInsufficientBatchStock and nothing is consumed.
	AllocateFifo(ctx context.Context, tenantID uuid.UUID, productID, warehouseID uuid.UUID, quantity decimal.Decimal) ([]BatchAllocation, error)
	GetBatch(ctx context.Context, tenantID, id uuid.UUID) (*model.StockBatch, error)
	List(ctx context.Context, tenantID uuid.UUID, productID, warehouseID *uuid.UUID, page, limit int) ([]model.StockBatch, int64, error)
}

type batchService struct {
	batchRepo repository.StockBatchRepository
	auditRepo repository.AuditRepository
	txManager repository.TransactionManager
}

func NewBatchService(
	batchRepo repository.StockBatchRepository,
	auditRepo repository.AuditRepository,
	txManager repository.TransactionManager,
) BatchService {
	return &batchService{
		batchRepo: batchRepo,
		auditRepo: auditRepo,
		txManager: txManager,
	}
}

// --- Implementation ---

func (s *batchService) Create(ctx context.Context, tenantID uuid.UUID, userID *uuid.UUID, input CreateBatchInput) (*model.StockBatch, error) {
	if input.Quantity.LessThanOrEqual(decimal.Zero) {
		return nil, fmt.Errorf("%w: batch quantity must be positive", ErrInvalidState)
	}

	batch := &model.StockBatch{
		TenantID:       tenantID,
		ProductID:      input.ProductID,
		WarehouseID:    input.WarehouseID,
		BatchCode:      input.BatchCode,
		ExpirationDate: input.ExpirationDate,
		Quantity:       input.Quantity,
		UnitCost:       input.UnitCost,
	}

	err := s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		if err := s.batchRepo.Create(txCtx, batch); err != nil {
			return fmt.Errorf("failed to create batch: %w", err)
		}

		details, _ := json.Marshal(map[string]interface{}{
			"batch_code": input.BatchCode,
			"quantity":   input.Quantity,
		})
		audit := &model.AuditLog{
			TenantID:   tenantID,
			UserID:     userID,
			Action:     model.ActionCreateBatch,
			EntityID:   batch.ID.String(),
			EntityName: input.BatchCode,
			Details:    string(details),
		}
		return s.auditRepo.Log(txCtx, audit)
	})
	if err != nil {
		return nil, err
	}

	return batch, nil
}

func (s *batchService) GetFifo(ctx context.Context, tenantID, productID, warehouseID uuid.UUID) ([]model.StockBatch, error) {
	return s.batchRepo.FindFifo(ctx, tenantID, productID, warehouseID)
}

func (s *batchService) AllocateFifo(ctx context.Context, tenantID uuid.UUID, productID, warehouseID uuid.UUID, quantity decimal.Decimal) ([]BatchAllocation, error) {
	if quantity.LessThanOrEqual(decimal.Zero) {
		return nil, fmt.Errorf("%w: allocation quantity must be positive", ErrInvalidState)
	}

	var allocations []BatchAllocation
	err := s.txManager.RunInTxRetry(ctx, func(txCtx context.Context) error {
		allocations = allocations[:0]

		batches, err := s.batchRepo.FindFifo(txCtx, tenantID, productID, warehouseID)
		if err != nil {
			return fmt.Errorf("failed to load batches: %w", err)
		}

		remaining := quantity
		for _, batch := range batches {
			if !remaining.IsPositive() {
				break
			}
			take := decimal.Min(batch.Quantity, remaining)
			allocations = append(allocations, BatchAllocation{
				BatchID:   batch.ID,
				BatchCode: batch.BatchCode,
				Quantity:  take,
				UnitCost:  batch.UnitCost,
			})
			remaining = remaining.Sub(take)
		}

		if remaining.IsPositive() {
			return fmt.Errorf("%w: short by %s", ErrInsufficientBatchStock, remaining)
		}

		for _, allocation := range allocations {
			if err := s.batchRepo.AddQuantity(txCtx, allocation.BatchID, allocation.Quantity.Neg()); err != nil {
				return fmt.Errorf("failed to drain batch %s: %w", allocation.BatchCode, err)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return allocations, nil
}

func (s *batchService) List(ctx context.Context, tenantID uuid.UUID, productID, warehouseID *uuid.UUID, page, limit int) ([]model.StockBatch, int64, error) {
	if page <= 0 {
		page = 1
	}
	if limit <= 0 {
		limit = 20
	}
	return s.batchRepo.List(ctx, tenantID, productID, warehouseID, page, limit)
}

// GetBatch is a tenant-scoped single-lot read.
func (s *batchService) GetBatch(ctx context.Context, tenantID, id uuid.UUID) (*model.StockBatch, error) {
	batch, err := s.batchRepo.FindByID(ctx, tenantID, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: batch", ErrNotFound)
		}
		return nil, err
	}
	return batch, nil
}
