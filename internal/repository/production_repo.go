package repository

import (
	"context"

	"backend/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type ProductionRepository interface {
	Create(ctx context.Context, order *model.ProductionOrder) error
	CreateItem(ctx context.Context, item *model.ProductionOrderItem) error
	FindByID(ctx context.Context, tenantID, id uuid.UUID) (*model.ProductionOrder, error)
	FindByIDForUpdate(ctx context.Context, tenantID, id uuid.UUID) (*model.ProductionOrder, error)
	Save(ctx context.Context, order *model.ProductionOrder) error
	SaveItem(ctx context.Context, item *model.ProductionOrderItem) error
	List(ctx context.Context, tenantID uuid.UUID, status string, page, limit int) ([]model.ProductionOrder, int64, error)
}

type productionRepository struct {
	db *gorm.DB
}

func NewProductionRepository(db *gorm.DB) ProductionRepository {
	return &productionRepository{db: db}
}

func (r *productionRepository) Create(ctx context.Context, order *model.ProductionOrder) error {
	return GetDB(ctx, r.db).Create(order).Error
}

func (r *productionRepository) CreateItem(ctx context.Context, item *model.ProductionOrderItem) error {
	return GetDB(ctx, r.db).Create(item).Error
}

func (r *productionRepository) FindByID(ctx context.Context, tenantID, id uuid.UUID) (*model.ProductionOrder, error) {
	var order model.ProductionOrder
	if err := GetDB(ctx, r.db).Preload("Items").Preload("Product").
		Where("tenant_id = ? AND id = ?", tenantID, id).
		First(&order).Error; err != nil {
		return nil, err
	}
	return &order, nil
}

func (r *productionRepository) FindByIDForUpdate(ctx context.Context, tenantID, id uuid.UUID) (*model.ProductionOrder, error) {
	var order model.ProductionOrder
	if err := lockForUpdate(GetDB(ctx, r.db)).
		Where("tenant_id = ? AND id = ?", tenantID, id).
		First(&order).Error; err != nil {
		return nil, err
	}
	if err := GetDB(ctx, r.db).
		Where("production_order_id = ?", order.ID).
		Find(&order.Items).Error; err != nil {
		return nil, err
	}
	return &order, nil
}

func (r *productionRepository) Save(ctx context.Context, order *model.ProductionOrder) error {
	return GetDB(ctx, r.db).Omit("Items", "Product").Save(order).Error
}

func (r *productionRepository) SaveItem(ctx context.Context, item *model.ProductionOrderItem) error {
	return GetDB(ctx, r.db).Omit("Product").Save(item).Error
}

func (r *productionRepository) List(ctx context.Context, tenantID uuid.UUID, status string, page, limit int) ([]model.ProductionOrder, int64, error) {
	var orders []model.ProductionOrder
	var total int64

	db := GetDB(ctx, r.db).Model(&model.ProductionOrder{}).Where("tenant_id = ?", tenantID)
	if status != "" {
		db = db.Where("status = ?", status)
	}

	if err := db.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * limit
	if err := db.Preload("Items").Order("created_at desc").
		Offset(offset).Limit(limit).Find(&orders).Error; err != nil {
		return nil, 0, err
	}

	return orders, total, nil
}
