package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"backend/internal/model"

	"github.com/google/uuid"
)

func TestReserveAdjustsBalances(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	product := env.createProduct(t, "SKU-1")
	warehouse := env.createWarehouse(t, "Main")
	env.seedStock(t, product.ID, warehouse.ID, "10", "5")

	reservation, err := env.reservation.Reserve(ctx, env.tenant, nil, ReserveInput{
		OrderID:     uuid.New(),
		OrderType:   model.ReferenceOrder,
		ProductID:   product.ID,
		WarehouseID: warehouse.ID,
		Quantity:    dec(t, "4"),
	})
	if err != nil {
		t.Fatalf("reserve failed: %v", err)
	}
	if reservation.Status != model.ReservationReserved {
		t.Fatalf("status = %s, want reserved", reservation.Status)
	}

	level := env.level(t, product.ID, warehouse.ID)
	assertDecimal(t, level.Quantity, "10", "physical quantity unchanged")
	assertDecimal(t, level.ReservedQuantity, "4", "reserved quantity")
	assertDecimal(t, level.AvailableQuantity, "6", "available quantity")
}

func TestReserveBeyondAvailableIsPermitted(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	product := env.createProduct(t, "SKU-1")
	warehouse := env.createWarehouse(t, "Main")
	env.seedStock(t, product.ID, warehouse.ID, "3", "5")

	_, err := env.reservation.Reserve(ctx, env.tenant, nil, ReserveInput{
		OrderID:     uuid.New(),
		OrderType:   model.ReferenceOrder,
		ProductID:   product.ID,
		WarehouseID: warehouse.ID,
		Quantity:    dec(t, "5"),
	})
	if err != nil {
		t.Fatalf("over-reserve failed: %v", err)
	}

	level := env.level(t, product.ID, warehouse.ID)
	assertDecimal(t, level.AvailableQuantity, "-2", "available goes negative")
}

func TestTerminalTransitionFreesHoldOnce(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	product := env.createProduct(t, "SKU-1")
	warehouse := env.createWarehouse(t, "Main")
	env.seedStock(t, product.ID, warehouse.ID, "10", "5")

	reservation, err := env.reservation.Reserve(ctx, env.tenant, nil, ReserveInput{
		OrderID:     uuid.New(),
		OrderType:   model.ReferenceOrder,
		ProductID:   product.ID,
		WarehouseID: warehouse.ID,
		Quantity:    dec(t, "4"),
	})
	if err != nil {
		t.Fatalf("reserve failed: %v", err)
	}

	released, err := env.reservation.UpdateStatus(ctx, env.tenant, nil, reservation.ID, model.ReservationReleased)
	if err != nil {
		t.Fatalf("release failed: %v", err)
	}
	if released.Status != model.ReservationReleased {
		t.Fatalf("status = %s, want released", released.Status)
	}

	level := env.level(t, product.ID, warehouse.ID)
	assertDecimal(t, level.ReservedQuantity, "0", "reserved after release")
	assertDecimal(t, level.AvailableQuantity, "10", "available after release")

	// A second transition must not double-apply the reversal.
	if _, err := env.reservation.UpdateStatus(ctx, env.tenant, nil, reservation.ID, model.ReservationCancelled); !errors.Is(err, ErrInvalidState) {
		t.Fatalf("expected ErrInvalidState on double transition, got %v", err)
	}
	level = env.level(t, product.ID, warehouse.ID)
	assertDecimal(t, level.ReservedQuantity, "0", "reserved unchanged after rejected transition")
	assertDecimal(t, level.AvailableQuantity, "10", "available unchanged after rejected transition")
}

func TestConsumeFreesHoldWithoutMovingStock(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	product := env.createProduct(t, "SKU-1")
	warehouse := env.createWarehouse(t, "Main")
	env.seedStock(t, product.ID, warehouse.ID, "10", "5")

	reservation, err := env.reservation.Reserve(ctx, env.tenant, nil, ReserveInput{
		OrderID:     uuid.New(),
		OrderType:   model.ReferenceOrder,
		ProductID:   product.ID,
		WarehouseID: warehouse.ID,
		Quantity:    dec(t, "4"),
	})
	if err != nil {
		t.Fatalf("reserve failed: %v", err)
	}

	if _, err := env.reservation.UpdateStatus(ctx, env.tenant, nil, reservation.ID, model.ReservationConsumed); err != nil {
		t.Fatalf("consume failed: %v", err)
	}

	// Physical reduction arrives via a separate exit movement; consume only
	// frees the hold.
	level := env.level(t, product.ID, warehouse.ID)
	assertDecimal(t, level.Quantity, "10", "physical quantity after consume")
	assertDecimal(t, level.ReservedQuantity, "0", "reserved after consume")
	assertDecimal(t, level.AvailableQuantity, "10", "available after consume")
}

func TestUpdateStatusRejectsNonTerminalTarget(t *testing.T) {
	env := newTestEnv(t)
	if _, err := env.reservation.UpdateStatus(context.Background(), env.tenant, nil, uuid.New(), model.ReservationReserved); !errors.Is(err, ErrInvalidState) {
		t.Fatalf("expected ErrInvalidState, got %v", err)
	}
}

func TestExpireDueSweepsOnlyDueReservations(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	product := env.createProduct(t, "SKU-1")
	warehouse := env.createWarehouse(t, "Main")
	env.seedStock(t, product.ID, warehouse.ID, "10", "5")

	past := time.Now().Add(-time.Hour)
	future := time.Now().Add(time.Hour)

	due, err := env.reservation.Reserve(ctx, env.tenant, nil, ReserveInput{
		OrderID:     uuid.New(),
		OrderType:   model.ReferenceOrder,
		ProductID:   product.ID,
		WarehouseID: warehouse.ID,
		Quantity:    dec(t, "2"),
		ExpiresAt:   &past,
	})
	if err != nil {
		t.Fatalf("reserve due failed: %v", err)
	}
	notDue, err := env.reservation.Reserve(ctx, env.tenant, nil, ReserveInput{
		OrderID:     uuid.New(),
		OrderType:   model.ReferenceOrder,
		ProductID:   product.ID,
		WarehouseID: warehouse.ID,
		Quantity:    dec(t, "3"),
		ExpiresAt:   &future,
	})
	if err != nil {
		t.Fatalf("reserve not-due failed: %v", err)
	}

	expired, err := env.reservation.ExpireDue(ctx, env.tenant)
	if err != nil {
		t.Fatalf("expire sweep failed: %v", err)
	}
	if expired != 1 {
		t.Fatalf("expired = %d, want 1", expired)
	}

	swept, err := env.reservation.Get(ctx, env.tenant, due.ID)
	if err != nil {
		t.Fatalf("failed to load swept reservation: %v", err)
	}
	if swept.Status != model.ReservationExpired {
		t.Fatalf("swept status = %s, want expired", swept.Status)
	}
	kept, err := env.reservation.Get(ctx, env.tenant, notDue.ID)
	if err != nil {
		t.Fatalf("failed to load kept reservation: %v", err)
	}
	if kept.Status != model.ReservationReserved {
		t.Fatalf("kept status = %s, want reserved", kept.Status)
	}

	level := env.level(t, product.ID, warehouse.ID)
	assertDecimal(t, level.ReservedQuantity, "3", "only the due hold freed")
}

func TestListByOrderReturnsOnlyThatOrder(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	product := env.createProduct(t, "SKU-1")
	warehouse := env.createWarehouse(t, "Main")
	env.seedStock(t, product.ID, warehouse.ID, "20", "5")

	orderID := uuid.New()
	for _, qty := range []string{"2", "3"} {
		if _, err := env.reservation.Reserve(ctx, env.tenant, nil, ReserveInput{
			OrderID:     orderID,
			OrderType:   model.ReferenceOrder,
			ProductID:   product.ID,
			WarehouseID: warehouse.ID,
			Quantity:    dec(t, qty),
		}); err != nil {
			t.Fatalf("reserve failed: %v", err)
		}
	}
	if _, err := env.reservation.Reserve(ctx, env.tenant, nil, ReserveInput{
		OrderID:     uuid.New(),
		OrderType:   model.ReferenceOrder,
		ProductID:   product.ID,
		WarehouseID: warehouse.ID,
		Quantity:    dec(t, "1"),
	}); err != nil {
		t.Fatalf("reserve other order failed: %v", err)
	}

	holds, err := env.reservation.ListByOrder(ctx, env.tenant, orderID)
	if err != nil {
		t.Fatalf("list by order failed: %v", err)
	}
	if len(holds) != 2 {
		t.Fatalf("holds = %d, want 2", len(holds))
	}
	for _, hold := range holds {
		if hold.OrderID != orderID {
			t.Fatalf("hold %s belongs to order %s", hold.ID, hold.OrderID)
		}
	}
}
