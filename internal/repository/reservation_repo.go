package repository

import (
	"context"
	"time"

	"backend/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type ReservationRepository interface {
	Create(ctx context.Context, reservation *model.StockReservation) error
	FindByID(ctx context.Context, tenantID, id uuid.UUID) (*model.StockReservation, error)
	// FindByIDForUpdate locks the reservation row so the terminal-state
	// guard cannot race with a concurrent transition.
	FindByIDForUpdate(ctx context.Context, tenantID, id uuid.UUID) (*model.StockReservation, error)
	Save(ctx context.Context, reservation *model.StockReservation) error
	ListByOrder(ctx context.Context, tenantID, orderID uuid.UUID) ([]model.StockReservation, error)
	// ListDue returns active reservations whose expires_at has passed.
	ListDue(ctx context.Context, tenantID uuid.UUID, now time.Time) ([]model.StockReservation, error)
	List(ctx context.Context, tenantID uuid.UUID, status string, page, limit int) ([]model.StockReservation, int64, error)
}

type reservationRepository struct {
	db *gorm.DB
}

func NewReservationRepository(db *gorm.DB) ReservationRepository {
	return &reservationRepository{db: db}
}

func (r *reservationRepository) Create(ctx context.Context, reservation *model.StockReservation) error {
	return GetDB(ctx, r.db).Create(reservation).Error
}

func (r *reservationRepository) FindByID(ctx context.Context, tenantID, id uuid.UUID) (*model.StockReservation, error) {
	var reservation model.StockReservation
	if err := GetDB(ctx, r.db).
		Where("tenant_id = ? AND id = ?", tenantID, id).
		First(&reservation).Error; err != nil {
		return nil, err
	}
	return &reservation, nil
}

func (r *reservationRepository) FindByIDForUpdate(ctx context.Context, tenantID, id uuid.UUID) (*model.StockReservation, error) {
	var reservation model.StockReservation
	if err := lockForUpdate(GetDB(ctx, r.db)).
		Where("tenant_id = ? AND id = ?", tenantID, id).
		First(&reservation).Error; err != nil {
		return nil, err
	}
	return &reservation, nil
}

func (r *reservationRepository) Save(ctx context.Context, reservation *model.StockReservation) error {
	return GetDB(ctx, r.db).Save(reservation).Error
}

func (r *reservationRepository) ListByOrder(ctx context.Context, tenantID, orderID uuid.UUID) ([]model.StockReservation, error) {
	var reservations []model.StockReservation
	if err := GetDB(ctx, r.db).
		Where("tenant_id = ? AND order_id = ?", tenantID, orderID).
		Order("created_at asc").
		Find(&reservations).Error; err != nil {
		return nil, err
	}
	return reservations, nil
}

func (r *reservationRepository) ListDue(ctx context.Context, tenantID uuid.UUID, now time.Time) ([]model.StockReservation, error) {
	var reservations []model.StockReservation
	if err := GetDB(ctx, r.db).
		Where("tenant_id = ? AND status = ? AND expires_at IS NOT NULL AND expires_at <= ?",
			tenantID, model.ReservationReserved, now).
		Find(&reservations).Error; err != nil {
		return nil, err
	}
	return reservations, nil
}

func (r *reservationRepository) List(ctx context.Context, tenantID uuid.UUID, status string, page, limit int) ([]model.StockReservation, int64, error) {
	var reservations []model.StockReservation
	var total int64

	db := GetDB(ctx, r.db).Model(&model.StockReservation{}).Where("tenant_id = ?", tenantID)
	if status != "" {
		db = db.Where("status = ?", status)
	}

	if err := db.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * limit
	if err := db.Order("created_at desc").Offset(offset).Limit(limit).Find(&reservations).Error; err != nil {
		return nil, 0, err
	}

	return reservations, total, nil
}
