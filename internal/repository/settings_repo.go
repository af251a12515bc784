package repository

import (
	"context"
	"errors"

	"backend/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// SettingsRepository reads per-tenant policy switches. A missing row yields
// defaults (negative stock disallowed).
type SettingsRepository interface {
	Get(ctx context.Context, tenantID uuid.UUID) (*model.TenantSettings, error)
	Save(ctx context.Context, settings *model.TenantSettings) error
}

type settingsRepository struct {
	db *gorm.DB
}

func NewSettingsRepository(db *gorm.DB) SettingsRepository {
	return &settingsRepository{db: db}
}

func (r *settingsRepository) Get(ctx context.Context, tenantID uuid.UUID) (*model.TenantSettings, error) {
	var settings model.TenantSettings
	err := GetDB(ctx, r.db).Where("tenant_id = ?", tenantID).First(&settings).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return &model.TenantSettings{TenantID: tenantID}, nil
	}
	if err != nil {
		return nil, err
	}
	return &settings, nil
}

func (r *settingsRepository) Save(ctx context.Context, settings *model.TenantSettings) error {
	return GetDB(ctx, r.db).Save(settings).Error
}
