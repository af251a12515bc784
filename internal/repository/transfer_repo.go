package repository

import (
	"context"

	"backend/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type TransferRepository interface {
	Create(ctx context.Context, transfer *model.StockTransfer) error
	CreateItem(ctx context.Context, item *model.StockTransferItem) error
	FindByID(ctx context.Context, tenantID, id uuid.UUID) (*model.StockTransfer, error)
	FindByIDForUpdate(ctx context.Context, tenantID, id uuid.UUID) (*model.StockTransfer, error)
	Save(ctx context.Context, transfer *model.StockTransfer) error
	List(ctx context.Context, tenantID uuid.UUID, status string, page, limit int) ([]model.StockTransfer, int64, error)
}

type transferRepository struct {
	db *gorm.DB
}

func NewTransferRepository(db *gorm.DB) TransferRepository {
	return &transferRepository{db: db}
}

func (r *transferRepository) Create(ctx context.Context, transfer *model.StockTransfer) error {
	return GetDB(ctx, r.db).Create(transfer).Error
}

func (r *transferRepository) CreateItem(ctx context.Context, item *model.StockTransferItem) error {
	return GetDB(ctx, r.db).Create(item).Error
}

func (r *transferRepository) FindByID(ctx context.Context, tenantID, id uuid.UUID) (*model.StockTransfer, error) {
	var transfer model.StockTransfer
	if err := GetDB(ctx, r.db).Preload("Items").
		Where("tenant_id = ? AND id = ?", tenantID, id).
		First(&transfer).Error; err != nil {
		return nil, err
	}
	return &transfer, nil
}

func (r *transferRepository) FindByIDForUpdate(ctx context.Context, tenantID, id uuid.UUID) (*model.StockTransfer, error) {
	var transfer model.StockTransfer
	if err := lockForUpdate(GetDB(ctx, r.db)).
		Where("tenant_id = ? AND id = ?", tenantID, id).
		First(&transfer).Error; err != nil {
		return nil, err
	}
	// Items are loaded outside the locking clause; FOR UPDATE with a join
	// would lock unrelated rows.
	if err := GetDB(ctx, r.db).
		Where("transfer_id = ?", transfer.ID).
		Find(&transfer.Items).Error; err != nil {
		return nil, err
	}
	return &transfer, nil
}

func (r *transferRepository) Save(ctx context.Context, transfer *model.StockTransfer) error {
	return GetDB(ctx, r.db).Omit("Items").Save(transfer).Error
}

func (r *transferRepository) List(ctx context.Context, tenantID uuid.UUID, status string, page, limit int) ([]model.StockTransfer, int64, error) {
	var transfers []model.StockTransfer
	var total int64

	db := GetDB(ctx, r.db).Model(&model.StockTransfer{}).Where("tenant_id = ?", tenantID)
	if status != "" {
		db = db.Where("status = ?", status)
	}

	if err := db.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * limit
	if err := db.Preload("Items").Order("created_at desc").
		Offset(offset).Limit(limit).Find(&transfers).Error; err != nil {
		return nil, 0, err
	}

	return transfers, total, nil
}
