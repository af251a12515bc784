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

type TransferItemInput struct {
	ProductID uuid.UUID       `json:"product_id" binding:"required"`
	Quantity  decimal.Decimal `json:"quantity" binding:"required"`
	UnitCost  decimal.Decimal `json:"unit_cost"`
}

type CreateTransferInput struct {
	SourceWarehouseID      uuid.UUID           `json:"source_warehouse_id" binding:"required"`
	DestinationWarehouseID uuid.UUID           `json:"destination_warehouse_id" binding:"required"`
	Notes                  string              `json:"notes"`
	Items                  []TransferItemInput `json:"items" binding:"required,min=1,dive"`
}

// --- Interface ---

// TransferService coordinates the two-sided warehouse movement:
// draft → in_transit (exit at source) → received (entry at destination).
// Destination entries use the unit cost frozen at draft time.
type TransferService interface {
	Create(ctx context.Context, tenantID uuid.UUID, userID *uuid.UUID, input CreateTransferInput) (*model.StockTransfer, error)
	Ship(ctx context.Context, tenantID uuid.UUID, userID *uuid.UUID, id uuid.UUID) (*model.StockTransfer, error)
	Receive(ctx context.Context, tenantID uuid.UUID, userID *uuid.UUID, id uuid.UUID) (*model.StockTransfer, error)
	Cancel(ctx context.Context, tenantID uuid.UUID, userID *uuid.UUID, id uuid.UUID) (*model.StockTransfer, error)
	Get(ctx context.Context, tenantID, id uuid.UUID) (*model.StockTransfer, error)
	List(ctx context.Context, tenantID uuid.UUID, status string, page, limit int) ([]model.StockTransfer, int64, error)
}

type transferService struct {
	transferRepo repository.TransferRepository
	sequenceRepo repository.SequenceRepository
	stockService StockService
	auditRepo    repository.AuditRepository
	txManager    repository.TransactionManager
}

func NewTransferService(
	transferRepo repository.TransferRepository,
	sequenceRepo repository.SequenceRepository,
	stockService StockService,
	auditRepo repository.AuditRepository,
	txManager repository.TransactionManager,
) TransferService {
	return &transferService{
		transferRepo: transferRepo,
		sequenceRepo: sequenceRepo,
		stockService: stockService,
		auditRepo:    auditRepo,
		txManager:    txManager,
	}
}

// --- Implementation ---

func (s *transferService) Create(ctx context.Context, tenantID uuid.UUID, userID *uuid.UUID, input CreateTransferInput) (*model.StockTransfer, error) {
	if input.SourceWarehouseID == input.DestinationWarehouseID {
		return nil, fmt.Errorf("%w: source and destination warehouses must differ", ErrInvalidState)
	}
	for _, item := range input.Items {
		if item.Quantity.LessThanOrEqual(decimal.Zero) {
			return nil, fmt.Errorf("%w: transfer item quantity must be positive", ErrInvalidState)
		}
	}

	transfer := &model.StockTransfer{
		TenantID:               tenantID,
		SourceWarehouseID:      input.SourceWarehouseID,
		DestinationWarehouseID: input.DestinationWarehouseID,
		Status:                 model.TransferDraft,
		Notes:                  input.Notes,
		CreatedBy:              userID,
	}

	err := s.txManager.RunInTxRetry(ctx, func(txCtx context.Context) error {
		number, err := s.sequenceRepo.NextNumber(txCtx, tenantID, model.SequenceTransfer)
		if err != nil {
			return fmt.Errorf("failed to allocate transfer number: %w", err)
		}
		transfer.Number = number

		if err := s.transferRepo.Create(txCtx, transfer); err != nil {
			return fmt.Errorf("failed to create transfer: %w", err)
		}

		for _, itemInput := range input.Items {
			item := &model.StockTransferItem{
				TransferID: transfer.ID,
				ProductID:  itemInput.ProductID,
				Quantity:   itemInput.Quantity,
				UnitCost:   itemInput.UnitCost,
			}
			if err := s.transferRepo.CreateItem(txCtx, item); err != nil {
				return fmt.Errorf("failed to create transfer item: %w", err)
			}
			transfer.Items = append(transfer.Items, *item)
		}

		details, _ := json.Marshal(map[string]interface{}{
			"number":      transfer.Number,
			"source":      input.SourceWarehouseID.String(),
			"destination": input.DestinationWarehouseID.String(),
			"items":       len(input.Items),
		})
		audit := &model.AuditLog{
			TenantID:   tenantID,
			UserID:     userID,
			Action:     model.ActionCreateTransfer,
			EntityID:   transfer.ID.String(),
			EntityName: transfer.Number,
			Details:    string(details),
		}
		return s.auditRepo.Log(txCtx, audit)
	})
	if err != nil {
		return nil, err
	}

	return transfer, nil
}

func (s *transferService) Ship(ctx context.Context, tenantID uuid.UUID, userID *uuid.UUID, id uuid.UUID) (*model.StockTransfer, error) {
	var transfer *model.StockTransfer
	err := s.txManager.RunInTxRetry(ctx, func(txCtx context.Context) error {
		var err error
		transfer, err = s.findForTransition(txCtx, tenantID, id)
		if err != nil {
			return err
		}
		if transfer.Status != model.TransferDraft {
			return fmt.Errorf("%w: cannot ship a %s transfer", ErrInvalidState, transfer.Status)
		}

		for _, item := range transfer.Items {
			if _, err := s.stockService.RecordMovementInTx(txCtx, tenantID, userID, MovementInput{
				ProductID:       item.ProductID,
				WarehouseID:     transfer.SourceWarehouseID,
				Type:            model.MovementTransferOut,
				Quantity:        item.Quantity,
				ReferenceType:   model.ReferenceTransfer,
				ReferenceID:     &transfer.ID,
				ReferenceNumber: transfer.Number,
			}); err != nil {
				return err
			}
		}

		now := time.Now()
		transfer.Status = model.TransferInTransit
		transfer.ShippedAt = &now
		if err := s.transferRepo.Save(txCtx, transfer); err != nil {
			return fmt.Errorf("failed to update transfer: %w", err)
		}

		return s.logTransition(txCtx, tenantID, userID, transfer, model.ActionShipTransfer)
	})
	if err != nil {
		return nil, err
	}

	return transfer, nil
}

func (s *transferService) Receive(ctx context.Context, tenantID uuid.UUID, userID *uuid.UUID, id uuid.UUID) (*model.StockTransfer, error) {
	var transfer *model.StockTransfer
	err := s.txManager.RunInTxRetry(ctx, func(txCtx context.Context) error {
		var err error
		transfer, err = s.findForTransition(txCtx, tenantID, id)
		if err != nil {
			return err
		}
		if transfer.Status != model.TransferInTransit {
			return fmt.Errorf("%w: cannot receive a %s transfer", ErrInvalidState, transfer.Status)
		}

		// Entries priced at the cost captured at draft time, so the
		// destination average reflects the transfer, not a re-priced value.
		for _, item := range transfer.Items {
			if _, err := s.stockService.RecordMovementInTx(txCtx, tenantID, userID, MovementInput{
				ProductID:       item.ProductID,
				WarehouseID:     transfer.DestinationWarehouseID,
				Type:            model.MovementTransferIn,
				Quantity:        item.Quantity,
				UnitCost:        item.UnitCost,
				ReferenceType:   model.ReferenceTransfer,
				ReferenceID:     &transfer.ID,
				ReferenceNumber: transfer.Number,
			}); err != nil {
				return err
			}
		}

		now := time.Now()
		transfer.Status = model.TransferReceived
		transfer.ReceivedAt = &now
		if err := s.transferRepo.Save(txCtx, transfer); err != nil {
			return fmt.Errorf("failed to update transfer: %w", err)
		}

		return s.logTransition(txCtx, tenantID, userID, transfer, model.ActionReceiveTransfer)
	})
	if err != nil {
		return nil, err
	}

	return transfer, nil
}

func (s *transferService) Cancel(ctx context.Context, tenantID uuid.UUID, userID *uuid.UUID, id uuid.UUID) (*model.StockTransfer, error) {
	var transfer *model.StockTransfer
	err := s.txManager.RunInTxRetry(ctx, func(txCtx context.Context) error {
		var err error
		transfer, err = s.findForTransition(txCtx, tenantID, id)
		if err != nil {
			return err
		}
		if transfer.Status != model.TransferDraft && transfer.Status != model.TransferInTransit {
			return fmt.Errorf("%w: cannot cancel a %s transfer", ErrInvalidState, transfer.Status)
		}

		// Cancelling after shipping restores the source balance with
		// compensating entries; the original exits stay in the ledger.
		if transfer.Status == model.TransferInTransit {
			for _, item := range transfer.Items {
				if _, err := s.stockService.RecordMovementInTx(txCtx, tenantID, userID, MovementInput{
					ProductID:       item.ProductID,
					WarehouseID:     transfer.SourceWarehouseID,
					Type:            model.MovementTransferIn,
					Quantity:        item.Quantity,
					UnitCost:        item.UnitCost,
					ReferenceType:   model.ReferenceTransfer,
					ReferenceID:     &transfer.ID,
					ReferenceNumber: transfer.Number,
					Reason:          "transfer cancelled in transit",
				}); err != nil {
					return err
				}
			}
		}

		transfer.Status = model.TransferCancelled
		if err := s.transferRepo.Save(txCtx, transfer); err != nil {
			return fmt.Errorf("failed to update transfer: %w", err)
		}

		return s.logTransition(txCtx, tenantID, userID, transfer, model.ActionCancelTransfer)
	})
	if err != nil {
		return nil, err
	}

	return transfer, nil
}

func (s *transferService) findForTransition(txCtx context.Context, tenantID, id uuid.UUID) (*model.StockTransfer, error) {
	transfer, err := s.transferRepo.FindByIDForUpdate(txCtx, tenantID, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: transfer", ErrNotFound)
		}
		return nil, err
	}
	return transfer, nil
}

func (s *transferService) logTransition(txCtx context.Context, tenantID uuid.UUID, userID *uuid.UUID, transfer *model.StockTransfer, action string) error {
	details, _ := json.Marshal(map[string]interface{}{"status": transfer.Status})
	audit := &model.AuditLog{
		TenantID:   tenantID,
		UserID:     userID,
		Action:     action,
		EntityID:   transfer.ID.String(),
		EntityName: transfer.Number,
		Details:    string(details),
	}
	return s.auditRepo.Log(txCtx, audit)
}

func (s *transferService) Get(ctx context.Context, tenantID, id uuid.UUID) (*model.StockTransfer, error) {
	transfer, err := s.transferRepo.FindByID(ctx, tenantID, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: transfer", ErrNotFound)
		}
		return nil, err
	}
	return transfer, nil
}

func (s *transferService) List(ctx context.Context, tenantID uuid.UUID, status string, page, limit int) ([]model.StockTransfer, int64, error) {
	if page <= 0 {
		page = 1
	}
	if limit <= 0 {
		limit = 20
	}
	return s.transferRepo.List(ctx, tenantID, status, page, limit)
}
