package repository

import (
	"context"

	"backend/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// KitRepository stores BOM definitions. Replace is a full delete-then-insert;
// there is no partial diffing of component lists.
type KitRepository interface {
	Replace(ctx context.Context, tenantID, kitProductID uuid.UUID, items []model.ProductKitItem) error
	FindByKit(ctx context.Context, tenantID, kitProductID uuid.UUID) ([]model.ProductKitItem, error)
}

type kitRepository struct {
	db *gorm.DB
}

func NewKitRepository(db *gorm.DB) KitRepository {
	return &kitRepository{db: db}
}

func (r *kitRepository) Replace(ctx context.Context, tenantID, kitProductID uuid.UUID, items []model.ProductKitItem) error {
	db := GetDB(ctx, r.db)
	if err := db.Where("tenant_id = ? AND kit_product_id = ?", tenantID, kitProductID).
		Delete(&model.ProductKitItem{}).Error; err != nil {
		return err
	}
	for i := range items {
		items[i].TenantID = tenantID
		items[i].KitProductID = kitProductID
		if err := db.Create(&items[i]).Error; err != nil {
			return err
		}
	}
	return nil
}

func (r *kitRepository) FindByKit(ctx context.Context, tenantID, kitProductID uuid.UUID) ([]model.ProductKitItem, error) {
	var items []model.ProductKitItem
	if err := GetDB(ctx, r.db).
		Where("tenant_id = ? AND kit_product_id = ?", tenantID, kitProductID).
		Order("created_at asc").
		Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}
