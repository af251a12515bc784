package repository

import (
	"context"
	"errors"

	"backend/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// StockLevelRepository owns the per-(tenant, product, warehouse) aggregate
// rows. All balance mutation goes through FindForUpdate + Save inside a
// transaction so concurrent writers on the same key serialize.
type StockLevelRepository interface {
	// FindForUpdate loads the level row under a row lock, creating a zeroed
	// row first if none exists yet.
	FindForUpdate(ctx context.Context, tenantID, productID, warehouseID uuid.UUID) (*model.StockLevel, error)
	Find(ctx context.Context, tenantID, productID, warehouseID uuid.UUID) (*model.StockLevel, error)
	Save(ctx context.Context, level *model.StockLevel) error
	List(ctx context.Context, tenantID uuid.UUID, warehouseID, productID *uuid.UUID, page, limit int) ([]model.StockLevel, int64, error)
	ListByWarehouse(ctx context.Context, tenantID, warehouseID uuid.UUID) ([]model.StockLevel, error)
}

type stockLevelRepository struct {
	db *gorm.DB
}

func NewStockLevelRepository(db *gorm.DB) StockLevelRepository {
	return &stockLevelRepository{db: db}
}

// lockForUpdate applies a pessimistic row lock where the dialect supports it.
// sqlite (tests) has a single writer and no FOR UPDATE syntax.
func lockForUpdate(db *gorm.DB) *gorm.DB {
	if db.Dialector.Name() == "postgres" {
		return db.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	return db
}

func (r *stockLevelRepository) FindForUpdate(ctx context.Context, tenantID, productID, warehouseID uuid.UUID) (*model.StockLevel, error) {
	db := GetDB(ctx, r.db)

	var level model.StockLevel
	err := lockForUpdate(db).
		Where("tenant_id = ? AND product_id = ? AND warehouse_id = ?", tenantID, productID, warehouseID).
		First(&level).Error
	if err == nil {
		return &level, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	// Lazy creation: a conflicting concurrent insert loses via the unique
	// index, then the locked re-read returns the winner's row.
	level = model.StockLevel{
		TenantID:    tenantID,
		ProductID:   productID,
		WarehouseID: warehouseID,
	}
	if createErr := db.Clauses(clause.OnConflict{DoNothing: true}).Create(&level).Error; createErr != nil {
		return nil, createErr
	}

	var locked model.StockLevel
	if err := lockForUpdate(db).
		Where("tenant_id = ? AND product_id = ? AND warehouse_id = ?", tenantID, productID, warehouseID).
		First(&locked).Error; err != nil {
		return nil, err
	}
	return &locked, nil
}

func (r *stockLevelRepository) Find(ctx context.Context, tenantID, productID, warehouseID uuid.UUID) (*model.StockLevel, error) {
	var level model.StockLevel
	if err := GetDB(ctx, r.db).
		Where("tenant_id = ? AND product_id = ? AND warehouse_id = ?", tenantID, productID, warehouseID).
		First(&level).Error; err != nil {
		return nil, err
	}
	return &level, nil
}

func (r *stockLevelRepository) Save(ctx context.Context, level *model.StockLevel) error {
	return GetDB(ctx, r.db).Save(level).Error
}

func (r *stockLevelRepository) List(ctx context.Context, tenantID uuid.UUID, warehouseID, productID *uuid.UUID, page, limit int) ([]model.StockLevel, int64, error) {
	var levels []model.StockLevel
	var total int64

	db := GetDB(ctx, r.db).Model(&model.StockLevel{}).Where("tenant_id = ?", tenantID)
	if warehouseID != nil {
		db = db.Where("warehouse_id = ?", *warehouseID)
	}
	if productID != nil {
		db = db.Where("product_id = ?", *productID)
	}

	if err := db.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * limit
	if err := db.Preload("Product").Preload("Warehouse").
		Order("updated_at desc").Offset(offset).Limit(limit).Find(&levels).Error; err != nil {
		return nil, 0, err
	}

	return levels, total, nil
}

func (r *stockLevelRepository) ListByWarehouse(ctx context.Context, tenantID, warehouseID uuid.UUID) ([]model.StockLevel, error) {
	var levels []model.StockLevel
	if err := GetDB(ctx, r.db).
		Where("tenant_id = ? AND warehouse_id = ?", tenantID, warehouseID).
		Find(&levels).Error; err != nil {
		return nil, err
	}
	return levels, nil
}
