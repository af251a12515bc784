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

type ReserveInput struct {
	OrderID     uuid.UUID       `json:"order_id" binding:"required"`
	OrderType   string          `json:"order_type" binding:"required"`
	ProductID   uuid.UUID       `json:"product_id" binding:"required"`
	WarehouseID uuid.UUID       `json:"warehouse_id" binding:"required"`
	Quantity    decimal.Decimal `json:"quantity" binding:"required"`
	ExpiresAt   *time.Time      `json:"expires_at"`
}

// --- Interface ---

// ReservationService earmarks quantity for an order without moving physical
// stock. Over-reserving is not rejected; callers that need a guarantee
// check AvailableQuantity first.
type ReservationService interface {
	Reserve(ctx context.Context, tenantID uuid.UUID, userID *uuid.UUID, input ReserveInput) (*model.StockReservation, error)
	UpdateStatus(ctx context.Context, tenantID uuid.UUID, userID *uuid.UUID, id uuid.UUID, status string) (*model.StockReservation, error)
	Get(ctx context.Context, tenantID, id uuid.UUID) (*model.StockReservation, error)
	ListByOrder(ctx context.Context, tenantID, orderID uuid.UUID) ([]model.StockReservation, error)
	List(ctx context.Context, tenantID uuid.UUID, status string, page, limit int) ([]model.StockReservation, int64, error)
	// ExpireDue transitions every due reservation to expired. Meant to be
	// driven by an external sweeper; nothing expires on its own.
	ExpireDue(ctx context.Context, tenantID uuid.UUID) (int, error)
}

type reservationService struct {
	reservationRepo repository.ReservationRepository
	levelRepo       repository.StockLevelRepository
	auditRepo       repository.AuditRepository
	txManager       repository.TransactionManager
}

func NewReservationService(
	reservationRepo repository.ReservationRepository,
	levelRepo repository.StockLevelRepository,
	auditRepo repository.AuditRepository,
	txManager repository.TransactionManager,
) ReservationService {
	return &reservationService{
		reservationRepo: reservationRepo,
		levelRepo:       levelRepo,
		auditRepo:       auditRepo,
		txManager:       txManager,
	}
}

// --- Implementation ---

func (s *reservationService) Reserve(ctx context.Context, tenantID uuid.UUID, userID *uuid.UUID, input ReserveInput) (*model.StockReservation, error) {
	if input.Quantity.LessThanOrEqual(decimal.Zero) {
		return nil, fmt.Errorf("%w: reservation quantity must be positive", ErrInvalidState)
	}
	if !model.ValidReferenceType(input.OrderType) {
		return nil, fmt.Errorf("%w: unknown order type %q", ErrInvalidState, input.OrderType)
	}

	reservation := &model.StockReservation{
		TenantID:    tenantID,
		OrderID:     input.OrderID,
		OrderType:   input.OrderType,
		ProductID:   input.ProductID,
		WarehouseID: input.WarehouseID,
		Quantity:    input.Quantity,
		Status:      model.ReservationReserved,
		ExpiresAt:   input.ExpiresAt,
	}

	err := s.txManager.RunInTxRetry(ctx, func(txCtx context.Context) error {
		// Shares the per-key lock with movements; both touch the same row.
		level, err := s.levelRepo.FindForUpdate(txCtx, tenantID, input.ProductID, input.WarehouseID)
		if err != nil {
			return fmt.Errorf("failed to load stock level: %w", err)
		}

		if err := s.reservationRepo.Create(txCtx, reservation); err != nil {
			return fmt.Errorf("failed to create reservation: %w", err)
		}

		level.ReservedQuantity = level.ReservedQuantity.Add(input.Quantity)
		level.AvailableQuantity = level.Quantity.Sub(level.ReservedQuantity)
		if err := s.levelRepo.Save(txCtx, level); err != nil {
			return fmt.Errorf("failed to update stock level: %w", err)
		}

		details, _ := json.Marshal(map[string]interface{}{
			"order_id":   input.OrderID.String(),
			"order_type": input.OrderType,
			"quantity":   input.Quantity,
		})
		audit := &model.AuditLog{
			TenantID: tenantID,
			UserID:   userID,
			Action:   model.ActionCreateReservation,
			EntityID: reservation.ID.String(),
			Details:  string(details),
		}
		return s.auditRepo.Log(txCtx, audit)
	})
	if err != nil {
		return nil, err
	}

	return reservation, nil
}

func (s *reservationService) UpdateStatus(ctx context.Context, tenantID uuid.UUID, userID *uuid.UUID, id uuid.UUID, status string) (*model.StockReservation, error) {
	if !model.TerminalReservationStatus(status) {
		return nil, fmt.Errorf("%w: %q is not a valid reservation transition", ErrInvalidState, status)
	}

	var reservation *model.StockReservation
	err := s.txManager.RunInTxRetry(ctx, func(txCtx context.Context) error {
		var err error
		reservation, err = s.reservationRepo.FindByIDForUpdate(txCtx, tenantID, id)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("%w: reservation", ErrNotFound)
			}
			return err
		}

		// Terminal states are final; a second transition must not
		// double-apply the reversal.
		if model.TerminalReservationStatus(reservation.Status) {
			return fmt.Errorf("%w: reservation already %s", ErrInvalidState, reservation.Status)
		}

		level, err := s.levelRepo.FindForUpdate(txCtx, tenantID, reservation.ProductID, reservation.WarehouseID)
		if err != nil {
			return fmt.Errorf("failed to load stock level: %w", err)
		}

		// Every terminal transition frees the hold. The physical quantity
		// reduction on consume arrives via a separate exit movement driven
		// by the fulfilling order.
		level.ReservedQuantity = level.ReservedQuantity.Sub(reservation.Quantity)
		level.AvailableQuantity = level.Quantity.Sub(level.ReservedQuantity)
		if err := s.levelRepo.Save(txCtx, level); err != nil {
			return fmt.Errorf("failed to update stock level: %w", err)
		}

		reservation.Status = status
		if err := s.reservationRepo.Save(txCtx, reservation); err != nil {
			return fmt.Errorf("failed to update reservation: %w", err)
		}

		details, _ := json.Marshal(map[string]interface{}{"status": status})
		audit := &model.AuditLog{
			TenantID: tenantID,
			UserID:   userID,
			Action:   model.ActionUpdateReservation,
			EntityID: reservation.ID.String(),
			Details:  string(details),
		}
		return s.auditRepo.Log(txCtx, audit)
	})
	if err != nil {
		return nil, err
	}

	return reservation, nil
}

func (s *reservationService) Get(ctx context.Context, tenantID, id uuid.UUID) (*model.StockReservation, error) {
	reservation, err := s.reservationRepo.FindByID(ctx, tenantID, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: reservation", ErrNotFound)
		}
		return nil, err
	}
	return reservation, nil
}

func (s *reservationService) ListByOrder(ctx context.Context, tenantID, orderID uuid.UUID) ([]model.StockReservation, error) {
	return s.reservationRepo.ListByOrder(ctx, tenantID, orderID)
}

func (s *reservationService) List(ctx context.Context, tenantID uuid.UUID, status string, page, limit int) ([]model.StockReservation, int64, error) {
	if page <= 0 {
		page = 1
	}
	if limit <= 0 {
		limit = 20
	}
	return s.reservationRepo.List(ctx, tenantID, status, page, limit)
}

func (s *reservationService) ExpireDue(ctx context.Context, tenantID uuid.UUID) (int, error) {
	due, err := s.reservationRepo.ListDue(ctx, tenantID, time.Now())
	if err != nil {
		return 0, err
	}

	expired := 0
	for _, reservation := range due {
		// One transaction per reservation; partial progress is resumable
		// on the sweeper's next pass.
		if _, err := s.UpdateStatus(ctx, tenantID, nil, reservation.ID, model.ReservationExpired); err != nil {
			if errors.Is(err, ErrInvalidState) {
				continue // raced with another transition
			}
			return expired, err
		}
		expired++
	}
	return expired, nil
}
