package repository

import (
	"context"

	"backend/internal/model"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// StockBatchRepository tracks lot-coded sub-quantities. FIFO ordering is
// nearest expiry first, lots without expiry last, created_at as tie-break.
type StockBatchRepository interface {
	Create(ctx context.Context, batch *model.StockBatch) error
	FindByID(ctx context.Context, tenantID, id uuid.UUID) (*model.StockBatch, error)
	FindFifo(ctx context.Context, tenantID, productID, warehouseID uuid.UUID) ([]model.StockBatch, error)
	// AddQuantity applies a signed delta to a lot. Callers must have
	// verified the lot cannot go negative under the level row lock.
	AddQuantity(ctx context.Context, id uuid.UUID, delta decimal.Decimal) error
	List(ctx context.Context, tenantID uuid.UUID, productID, warehouseID *uuid.UUID, page, limit int) ([]model.StockBatch, int64, error)
}

type stockBatchRepository struct {
	db *gorm.DB
}

func NewStockBatchRepository(db *gorm.DB) StockBatchRepository {
	return &stockBatchRepository{db: db}
}

func (r *stockBatchRepository) Create(ctx context.Context, batch *model.StockBatch) error {
	return GetDB(ctx, r.db).Create(batch).Error
}

func (r *stockBatchRepository) FindByID(ctx context.Context, tenantID, id uuid.UUID) (*model.StockBatch, error) {
	var batch model.StockBatch
	if err := GetDB(ctx, r.db).
		Where("tenant_id = ? AND id = ?", tenantID, id).
		First(&batch).Error; err != nil {
		return nil, err
	}
	return &batch, nil
}

func (r *stockBatchRepository) FindFifo(ctx context.Context, tenantID, productID, warehouseID uuid.UUID) ([]model.StockBatch, error) {
	var batches []model.StockBatch
	if err := lockForUpdate(GetDB(ctx, r.db)).
		Where("tenant_id = ? AND product_id = ? AND warehouse_id = ? AND quantity > 0", tenantID, productID, warehouseID).
		Order("expiration_date ASC NULLS LAST, created_at ASC").
		Find(&batches).Error; err != nil {
		return nil, err
	}
	return batches, nil
}

func (r *stockBatchRepository) AddQuantity(ctx context.Context, id uuid.UUID, delta decimal.Decimal) error {
	return GetDB(ctx, r.db).Model(&model.StockBatch{}).
		Where("id = ?", id).
		Update("quantity", gorm.Expr("quantity + ?", delta)).Error
}

func (r *stockBatchRepository) List(ctx context.Context, tenantID uuid.UUID, productID, warehouseID *uuid.UUID, page, limit int) ([]model.StockBatch, int64, error) {
	var batches []model.StockBatch
	var total int64

	db := GetDB(ctx, r.db).Model(&model.StockBatch{}).Where("tenant_id = ?", tenantID)
	if productID != nil {
		db = db.Where("product_id = ?", *productID)
	}
	if warehouseID != nil {
		db = db.Where("warehouse_id = ?", *warehouseID)
	}

	if err := db.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * limit
	if err := db.Order("expiration_date ASC NULLS LAST, created_at ASC").
		Offset(offset).Limit(limit).Find(&batches).Error; err != nil {
		return nil, 0, err
	}

	return batches, total, nil
}
