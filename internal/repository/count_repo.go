package repository

import (
	"context"

	"backend/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type CountRepository interface {
	Create(ctx context.Context, count *model.InventoryCount) error
	CreateItem(ctx context.Context, item *model.InventoryCountItem) error
	FindByID(ctx context.Context, tenantID, id uuid.UUID) (*model.InventoryCount, error)
	FindByIDForUpdate(ctx context.Context, tenantID, id uuid.UUID) (*model.InventoryCount, error)
	FindItem(ctx context.Context, countID, productID uuid.UUID) (*model.InventoryCountItem, error)
	Save(ctx context.Context, count *model.InventoryCount) error
	SaveItem(ctx context.Context, item *model.InventoryCountItem) error
	CountPendingItems(ctx context.Context, countID uuid.UUID) (int64, error)
	List(ctx context.Context, tenantID uuid.UUID, status string, page, limit int) ([]model.InventoryCount, int64, error)
}

type countRepository struct {
	db *gorm.DB
}

func NewCountRepository(db *gorm.DB) CountRepository {
	return &countRepository{db: db}
}

func (r *countRepository) Create(ctx context.Context, count *model.InventoryCount) error {
	return GetDB(ctx, r.db).Create(count).Error
}

func (r *countRepository) CreateItem(ctx context.Context, item *model.InventoryCountItem) error {
	return GetDB(ctx, r.db).Create(item).Error
}

func (r *countRepository) FindByID(ctx context.Context, tenantID, id uuid.UUID) (*model.InventoryCount, error) {
	var count model.InventoryCount
	if err := GetDB(ctx, r.db).Preload("Items").Preload("Items.Product").
		Where("tenant_id = ? AND id = ?", tenantID, id).
		First(&count).Error; err != nil {
		return nil, err
	}
	return &count, nil
}

func (r *countRepository) FindByIDForUpdate(ctx context.Context, tenantID, id uuid.UUID) (*model.InventoryCount, error) {
	var count model.InventoryCount
	if err := lockForUpdate(GetDB(ctx, r.db)).
		Where("tenant_id = ? AND id = ?", tenantID, id).
		First(&count).Error; err != nil {
		return nil, err
	}
	if err := GetDB(ctx, r.db).
		Where("count_id = ?", count.ID).
		Find(&count.Items).Error; err != nil {
		return nil, err
	}
	return &count, nil
}

func (r *countRepository) FindItem(ctx context.Context, countID, productID uuid.UUID) (*model.InventoryCountItem, error) {
	var item model.InventoryCountItem
	if err := GetDB(ctx, r.db).
		Where("count_id = ? AND product_id = ?", countID, productID).
		First(&item).Error; err != nil {
		return nil, err
	}
	return &item, nil
}

func (r *countRepository) Save(ctx context.Context, count *model.InventoryCount) error {
	return GetDB(ctx, r.db).Omit("Items", "Warehouse").Save(count).Error
}

func (r *countRepository) SaveItem(ctx context.Context, item *model.InventoryCountItem) error {
	return GetDB(ctx, r.db).Omit("Product").Save(item).Error
}

func (r *countRepository) CountPendingItems(ctx context.Context, countID uuid.UUID) (int64, error) {
	var pending int64
	err := GetDB(ctx, r.db).Model(&model.InventoryCountItem{}).
		Where("count_id = ? AND status = ?", countID, model.CountItemPending).
		Count(&pending).Error
	return pending, err
}

func (r *countRepository) List(ctx context.Context, tenantID uuid.UUID, status string, page, limit int) ([]model.InventoryCount, int64, error) {
	var counts []model.InventoryCount
	var total int64

	db := GetDB(ctx, r.db).Model(&model.InventoryCount{}).Where("tenant_id = ?", tenantID)
	if status != "" {
		db = db.Where("status = ?", status)
	}

	if err := db.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * limit
	if err := db.Order("created_at desc").Offset(offset).Limit(limit).Find(&counts).Error; err != nil {
		return nil, 0, err
	}

	return counts, total, nil
}
