package service

import (
	"context"
	"errors"
	"testing"

	"backend/internal/model"

	"github.com/google/uuid"
)

func draftTransfer(t *testing.T, env *testEnv, productID, source, destination uuid.UUID, quantity, unitCost string) *model.StockTransfer {
	t.Helper()
	transfer, err := env.transfers.Create(context.Background(), env.tenant, nil, CreateTransferInput{
		SourceWarehouseID:      source,
		DestinationWarehouseID: destination,
		Items: []TransferItemInput{
			{ProductID: productID, Quantity: dec(t, quantity), UnitCost: dec(t, unitCost)},
		},
	})
	if err != nil {
		t.Fatalf("create transfer failed: %v", err)
	}
	return transfer
}

func TestTransferNumbersAreSequential(t *testing.T) {
	env := newTestEnv(t)
	product := env.createProduct(t, "SKU-1")
	source := env.createWarehouse(t, "Source")
	destination := env.createWarehouse(t, "Destination")

	first := draftTransfer(t, env, product.ID, source.ID, destination.ID, "1", "5")
	second := draftTransfer(t, env, product.ID, source.ID, destination.ID, "1", "5")

	if first.Number != "TRF-00001" {
		t.Fatalf("first number = %s, want TRF-00001", first.Number)
	}
	if second.Number != "TRF-00002" {
		t.Fatalf("second number = %s, want TRF-00002", second.Number)
	}
	if first.Status != model.TransferDraft {
		t.Fatalf("status = %s, want draft", first.Status)
	}
}

func TestTransferLifecycleMovesStock(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	product := env.createProduct(t, "SKU-1")
	source := env.createWarehouse(t, "Source")
	destination := env.createWarehouse(t, "Destination")
	env.seedStock(t, product.ID, source.ID, "10", "8")

	transfer := draftTransfer(t, env, product.ID, source.ID, destination.ID, "6", "8")

	// Drafting moves nothing.
	assertDecimal(t, env.level(t, product.ID, source.ID).Quantity, "10", "source after draft")

	shipped, err := env.transfers.Ship(ctx, env.tenant, nil, transfer.ID)
	if err != nil {
		t.Fatalf("ship failed: %v", err)
	}
	if shipped.Status != model.TransferInTransit || shipped.ShippedAt == nil {
		t.Fatalf("shipped status = %s, shippedAt = %v", shipped.Status, shipped.ShippedAt)
	}
	assertDecimal(t, env.level(t, product.ID, source.ID).Quantity, "4", "source after ship")

	received, err := env.transfers.Receive(ctx, env.tenant, nil, transfer.ID)
	if err != nil {
		t.Fatalf("receive failed: %v", err)
	}
	if received.Status != model.TransferReceived || received.ReceivedAt == nil {
		t.Fatalf("received status = %s, receivedAt = %v", received.Status, received.ReceivedAt)
	}

	destLevel := env.level(t, product.ID, destination.ID)
	assertDecimal(t, destLevel.Quantity, "6", "destination after receive")
	// Destination priced at the draft cost, not a re-priced value.
	assertDecimal(t, destLevel.AverageCost, "8", "destination average cost")
}

func TestShipRejectsInsufficientSourceStock(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	product := env.createProduct(t, "SKU-1")
	source := env.createWarehouse(t, "Source")
	destination := env.createWarehouse(t, "Destination")
	env.seedStock(t, product.ID, source.ID, "2", "8")

	transfer := draftTransfer(t, env, product.ID, source.ID, destination.ID, "6", "8")

	_, err := env.transfers.Ship(ctx, env.tenant, nil, transfer.ID)
	if !errors.Is(err, ErrNegativeStockRejected) {
		t.Fatalf("expected ErrNegativeStockRejected, got %v", err)
	}

	// Whole ship rolled back; transfer stays draft, stock untouched.
	unchanged, err := env.transfers.Get(ctx, env.tenant, transfer.ID)
	if err != nil {
		t.Fatalf("load transfer failed: %v", err)
	}
	if unchanged.Status != model.TransferDraft {
		t.Fatalf("status after failed ship = %s, want draft", unchanged.Status)
	}
	assertDecimal(t, env.level(t, product.ID, source.ID).Quantity, "2", "source after failed ship")
}

func TestCancelInTransitCompensatesSource(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	product := env.createProduct(t, "SKU-1")
	source := env.createWarehouse(t, "Source")
	destination := env.createWarehouse(t, "Destination")
	env.seedStock(t, product.ID, source.ID, "10", "8")

	transfer := draftTransfer(t, env, product.ID, source.ID, destination.ID, "6", "8")
	if _, err := env.transfers.Ship(ctx, env.tenant, nil, transfer.ID); err != nil {
		t.Fatalf("ship failed: %v", err)
	}

	cancelled, err := env.transfers.Cancel(ctx, env.tenant, nil, transfer.ID)
	if err != nil {
		t.Fatalf("cancel failed: %v", err)
	}
	if cancelled.Status != model.TransferCancelled {
		t.Fatalf("status = %s, want cancelled", cancelled.Status)
	}

	// Source restored; the exit and the compensating entry both stay in the
	// ledger.
	assertDecimal(t, env.level(t, product.ID, source.ID).Quantity, "10", "source after cancel")
	movements, total, err := env.stock.GetMovements(ctx, env.tenant, product.ID, source.ID, 1, 50)
	if err != nil {
		t.Fatalf("list movements failed: %v", err)
	}
	if total != 3 {
		t.Fatalf("ledger rows = %d, want 3 (seed, exit, compensation)", total)
	}
	if movements[0].Type != model.MovementTransferIn {
		t.Fatalf("latest movement = %s, want transfer_in compensation", movements[0].Type)
	}
}

func TestTransferStateMachineGuards(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	product := env.createProduct(t, "SKU-1")
	source := env.createWarehouse(t, "Source")
	destination := env.createWarehouse(t, "Destination")
	env.seedStock(t, product.ID, source.ID, "10", "8")

	transfer := draftTransfer(t, env, product.ID, source.ID, destination.ID, "2", "8")

	// Receiving a draft is out of order.
	if _, err := env.transfers.Receive(ctx, env.tenant, nil, transfer.ID); !errors.Is(err, ErrInvalidState) {
		t.Fatalf("expected ErrInvalidState receiving draft, got %v", err)
	}

	if _, err := env.transfers.Ship(ctx, env.tenant, nil, transfer.ID); err != nil {
		t.Fatalf("ship failed: %v", err)
	}
	if _, err := env.transfers.Ship(ctx, env.tenant, nil, transfer.ID); !errors.Is(err, ErrInvalidState) {
		t.Fatalf("expected ErrInvalidState shipping twice, got %v", err)
	}

	if _, err := env.transfers.Receive(ctx, env.tenant, nil, transfer.ID); err != nil {
		t.Fatalf("receive failed: %v", err)
	}
	if _, err := env.transfers.Cancel(ctx, env.tenant, nil, transfer.ID); !errors.Is(err, ErrInvalidState) {
		t.Fatalf("expected ErrInvalidState cancelling received, got %v", err)
	}
}

func TestCreateTransferValidation(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	product := env.createProduct(t, "SKU-1")
	warehouse := env.createWarehouse(t, "Main")
	other := env.createWarehouse(t, "Other")

	_, err := env.transfers.Create(ctx, env.tenant, nil, CreateTransferInput{
		SourceWarehouseID:      warehouse.ID,
		DestinationWarehouseID: warehouse.ID,
		Items:                  []TransferItemInput{{ProductID: product.ID, Quantity: dec(t, "1")}},
	})
	if !errors.Is(err, ErrInvalidState) {
		t.Fatalf("expected ErrInvalidState for same warehouse, got %v", err)
	}

	_, err = env.transfers.Create(ctx, env.tenant, nil, CreateTransferInput{
		SourceWarehouseID:      warehouse.ID,
		DestinationWarehouseID: other.ID,
		Items:                  []TransferItemInput{{ProductID: product.ID, Quantity: dec(t, "-1")}},
	})
	if !errors.Is(err, ErrInvalidState) {
		t.Fatalf("expected ErrInvalidState for negative item, got %v", err)
	}
}

func TestTransferNumbersAreScopedPerTenant(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	product := env.createProduct(t, "SKU-1")
	source := env.createWarehouse(t, "Source")
	destination := env.createWarehouse(t, "Destination")

	first := draftTransfer(t, env, product.ID, source.ID, destination.ID, "1", "5")

	otherTenant := uuid.New()
	otherSource := &model.Warehouse{TenantID: otherTenant, Name: "Other Source", Active: true}
	otherDestination := &model.Warehouse{TenantID: otherTenant, Name: "Other Destination", Active: true}
	otherProduct := &model.Product{TenantID: otherTenant, SKU: "SKU-1", Name: "product SKU-1", Active: true}
	for _, row := range []interface{}{otherSource, otherDestination, otherProduct} {
		if err := env.db.Create(row).Error; err != nil {
			t.Fatalf("failed to seed other tenant: %v", err)
		}
	}

	second, err := env.transfers.Create(ctx, otherTenant, nil, CreateTransferInput{
		SourceWarehouseID:      otherSource.ID,
		DestinationWarehouseID: otherDestination.ID,
		Items: []TransferItemInput{
			{ProductID: otherProduct.ID, Quantity: dec(t, "1"), UnitCost: dec(t, "5")},
		},
	})
	if err != nil {
		t.Fatalf("first transfer of the other tenant failed: %v", err)
	}

	// Each tenant runs its own sequence; both start at TRF-00001.
	if first.Number != "TRF-00001" {
		t.Fatalf("first tenant number = %s, want TRF-00001", first.Number)
	}
	if second.Number != "TRF-00001" {
		t.Fatalf("other tenant number = %s, want TRF-00001", second.Number)
	}
}
