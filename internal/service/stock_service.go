package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"backend/internal/model"
	"backend/internal/repository"
	ws "backend/internal/websocket"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// --- DTOs ---

// MovementInput describes one quantity change to record against the ledger.
type MovementInput struct {
	ProductID       uuid.UUID       `json:"product_id" binding:"required"`
	WarehouseID     uuid.UUID       `json:"warehouse_id" binding:"required"`
	Type            string          `json:"type" binding:"required"`
	Quantity        decimal.Decimal `json:"quantity" binding:"required"`
	UnitCost        decimal.Decimal `json:"unit_cost"`
	ReferenceType   string          `json:"reference_type"`
	ReferenceID     *uuid.UUID      `json:"reference_id"`
	ReferenceNumber string          `json:"reference_number"`
	Reason          string          `json:"reason"`
	// AllowNegative bypasses the tenant negative-stock policy. Only
	// ground-truth corrections (inventory count approvals) set it.
	AllowNegative bool `json:"-"`
}

// StockEvent is the websocket payload broadcast after a committed movement.
type StockEvent struct {
	Event string                 `json:"event"`
	Data  map[string]interface{} `json:"data"`
}

// --- Interface ---

// StockService is the single entry point for balance mutation. Every
// quantity change in the system becomes exactly one immutable movement row
// plus one aggregate update, serialized per (tenant, product, warehouse).
type StockService interface {
	RecordMovement(ctx context.Context, tenantID uuid.UUID, userID *uuid.UUID, input MovementInput) (*model.StockMovement, error)
	// RecordMovementInTx is RecordMovement without the surrounding
	// transaction; callers must already be inside TransactionManager.RunInTx.
	RecordMovementInTx(txCtx context.Context, tenantID uuid.UUID, userID *uuid.UUID, input MovementInput) (*model.StockMovement, error)
	GetLevel(ctx context.Context, tenantID, productID, warehouseID uuid.UUID) (*model.StockLevel, error)
	GetLevels(ctx context.Context, tenantID uuid.UUID, warehouseID, productID *uuid.UUID, page, limit int) ([]model.StockLevel, int64, error)
	GetMovements(ctx context.Context, tenantID, productID, warehouseID uuid.UUID, page, limit int) ([]model.StockMovement, int64, error)
}

type stockService struct {
	levelRepo    repository.StockLevelRepository
	movementRepo repository.StockMovementRepository
	settingsRepo repository.SettingsRepository
	auditRepo    repository.AuditRepository
	txManager    repository.TransactionManager
	hub          *ws.Hub
}

func NewStockService(
	levelRepo repository.StockLevelRepository,
	movementRepo repository.StockMovementRepository,
	settingsRepo repository.SettingsRepository,
	auditRepo repository.AuditRepository,
	txManager repository.TransactionManager,
	hub *ws.Hub,
) StockService {
	return &stockService{
		levelRepo:    levelRepo,
		movementRepo: movementRepo,
		settingsRepo: settingsRepo,
		auditRepo:    auditRepo,
		txManager:    txManager,
		hub:          hub,
	}
}

// --- Implementation ---

func validateMovementInput(input MovementInput) error {
	if !model.ValidMovementType(input.Type) {
		return fmt.Errorf("%w: unknown movement type %q", ErrInvalidState, input.Type)
	}
	if input.Quantity.LessThanOrEqual(decimal.Zero) {
		return fmt.Errorf("%w: movement quantity must be positive", ErrInvalidState)
	}
	if input.UnitCost.IsNegative() {
		return fmt.Errorf("%w: unit cost cannot be negative", ErrInvalidState)
	}
	if input.ReferenceType != "" && !model.ValidReferenceType(input.ReferenceType) {
		return fmt.Errorf("%w: unknown reference type %q", ErrInvalidState, input.ReferenceType)
	}
	return nil
}

func (s *stockService) RecordMovement(ctx context.Context, tenantID uuid.UUID, userID *uuid.UUID, input MovementInput) (*model.StockMovement, error) {
	var movement *model.StockMovement
	err := s.txManager.RunInTxRetry(ctx, func(txCtx context.Context) error {
		var txErr error
		movement, txErr = s.RecordMovementInTx(txCtx, tenantID, userID, input)
		return txErr
	})
	if err != nil {
		return nil, err
	}

	s.broadcastLevel(tenantID, movement)
	return movement, nil
}

func (s *stockService) RecordMovementInTx(txCtx context.Context, tenantID uuid.UUID, userID *uuid.UUID, input MovementInput) (*model.StockMovement, error) {
	if err := validateMovementInput(input); err != nil {
		return nil, err
	}

	// Locks the aggregate row (creating it zeroed on first contact), so
	// concurrent movements on the same key serialize here.
	level, err := s.levelRepo.FindForUpdate(txCtx, tenantID, input.ProductID, input.WarehouseID)
	if err != nil {
		return nil, fmt.Errorf("failed to load stock level: %w", err)
	}

	isEntry := model.IsEntryMovement(input.Type)

	previousQuantity := level.Quantity
	previousAverageCost := level.AverageCost

	var newQuantity decimal.Decimal
	if isEntry {
		newQuantity = previousQuantity.Add(input.Quantity)
	} else {
		newQuantity = previousQuantity.Sub(input.Quantity)
	}

	// Validate-then-commit: the negative-stock check happens before any
	// write, never as an after-the-fact warning.
	if newQuantity.IsNegative() && !input.AllowNegative {
		settings, settingsErr := s.settingsRepo.Get(txCtx, tenantID)
		if settingsErr != nil {
			return nil, fmt.Errorf("failed to load tenant settings: %w", settingsErr)
		}
		if !settings.AllowNegativeStock {
			return nil, fmt.Errorf("%w: movement would leave %s on hand", ErrNegativeStockRejected, newQuantity)
		}
	}

	// Moving weighted average, recomputed only on costed entries that leave
	// a positive balance. Exits never touch the average.
	newAverageCost := previousAverageCost
	if isEntry && input.UnitCost.IsPositive() && newQuantity.IsPositive() {
		existingValue := previousQuantity.Mul(previousAverageCost)
		incomingValue := input.Quantity.Mul(input.UnitCost)
		newAverageCost = existingValue.Add(incomingValue).Div(newQuantity)
	}

	// Exits default to the current average for valuation.
	unitCost := input.UnitCost
	if !isEntry && unitCost.IsZero() {
		unitCost = previousAverageCost
	}

	now := time.Now()
	movement := &model.StockMovement{
		TenantID:            tenantID,
		ProductID:           input.ProductID,
		WarehouseID:         input.WarehouseID,
		Type:                input.Type,
		Quantity:            input.Quantity,
		UnitCost:            unitCost,
		TotalCost:           input.Quantity.Mul(unitCost),
		PreviousQuantity:    previousQuantity,
		NewQuantity:         newQuantity,
		PreviousAverageCost: previousAverageCost,
		NewAverageCost:      newAverageCost,
		ReferenceType:       input.ReferenceType,
		ReferenceID:         input.ReferenceID,
		ReferenceNumber:     input.ReferenceNumber,
		Reason:              input.Reason,
		UserID:              userID,
	}
	if err := s.movementRepo.Create(txCtx, movement); err != nil {
		return nil, fmt.Errorf("failed to write movement: %w", err)
	}

	level.Quantity = newQuantity
	level.AvailableQuantity = newQuantity.Sub(level.ReservedQuantity)
	level.AverageCost = newAverageCost
	level.LastMovementAt = &now
	if err := s.levelRepo.Save(txCtx, level); err != nil {
		return nil, fmt.Errorf("failed to update stock level: %w", err)
	}

	details, _ := json.Marshal(map[string]interface{}{
		"type":         input.Type,
		"quantity":     input.Quantity,
		"unit_cost":    unitCost,
		"new_quantity": newQuantity,
		"reference":    input.ReferenceNumber,
	})
	audit := &model.AuditLog{
		TenantID: tenantID,
		UserID:   userID,
		Action:   model.ActionRecordMovement,
		EntityID: movement.ID.String(),
		Details:  string(details),
	}
	if err := s.auditRepo.Log(txCtx, audit); err != nil {
		return nil, fmt.Errorf("failed to write audit log: %w", err)
	}

	return movement, nil
}

func (s *stockService) broadcastLevel(tenantID uuid.UUID, movement *model.StockMovement) {
	if s.hub == nil || movement == nil {
		return
	}
	payload, err := json.Marshal(StockEvent{
		Event: "stock.level.updated",
		Data: map[string]interface{}{
			"tenant_id":    tenantID.String(),
			"product_id":   movement.ProductID.String(),
			"warehouse_id": movement.WarehouseID.String(),
			"quantity":     movement.NewQuantity,
			"average_cost": movement.NewAverageCost,
			"type":         movement.Type,
		},
	})
	if err != nil {
		return
	}
	select {
	case s.hub.Broadcast <- payload:
	default:
		// Never block a committed movement on slow websocket consumers.
	}
}

func (s *stockService) GetLevel(ctx context.Context, tenantID, productID, warehouseID uuid.UUID) (*model.StockLevel, error) {
	level, err := s.levelRepo.Find(ctx, tenantID, productID, warehouseID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: stock level", ErrNotFound)
		}
		return nil, err
	}
	return level, nil
}

func (s *stockService) GetLevels(ctx context.Context, tenantID uuid.UUID, warehouseID, productID *uuid.UUID, page, limit int) ([]model.StockLevel, int64, error) {
	if page <= 0 {
		page = 1
	}
	if limit <= 0 {
		limit = 20
	}
	return s.levelRepo.List(ctx, tenantID, warehouseID, productID, page, limit)
}

func (s *stockService) GetMovements(ctx context.Context, tenantID, productID, warehouseID uuid.UUID, page, limit int) ([]model.StockMovement, int64, error) {
	if page <= 0 {
		page = 1
	}
	if limit <= 0 {
		limit = 20
	}
	return s.movementRepo.ListByKey(ctx, tenantID, productID, warehouseID, page, limit)
}
