package service

import (
	"context"
	"errors"
	"testing"

	"backend/internal/model"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

func findItem(t *testing.T, view *CountView, productID uuid.UUID) CountItemView {
	t.Helper()
	for _, item := range view.Items {
		if item.ProductID == productID {
			return item
		}
	}
	t.Fatalf("product %s not part of the count", productID)
	return CountItemView{}
}

func TestFullCountSeedsLevelsAndActiveProducts(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	p1 := env.createProduct(t, "P1")
	p2 := env.createProduct(t, "P2")
	warehouse := env.createWarehouse(t, "Main")
	env.seedStock(t, p1.ID, warehouse.ID, "10", "5")
	// P2 never moved; a full count still includes it at zero.

	count, err := env.counts.Create(ctx, env.tenant, nil, CreateCountInput{
		WarehouseID: warehouse.ID,
		Type:        model.CountTypeFull,
	})
	if err != nil {
		t.Fatalf("create count failed: %v", err)
	}
	if count.Number != "INV-00001" {
		t.Fatalf("count number = %s, want INV-00001", count.Number)
	}
	if count.Status != model.CountStatusCounting {
		t.Fatalf("status = %s, want counting", count.Status)
	}
	if len(count.Items) != 2 {
		t.Fatalf("items = %d, want 2", len(count.Items))
	}

	item1 := findItem(t, count, p1.ID)
	if item1.SystemQuantity == nil {
		t.Fatal("system quantity hidden on a non-blind count")
	}
	assertDecimal(t, *item1.SystemQuantity, "10", "P1 system quantity")

	item2 := findItem(t, count, p2.ID)
	if item2.SystemQuantity == nil {
		t.Fatal("system quantity hidden on a non-blind count")
	}
	assertDecimal(t, *item2.SystemQuantity, "0", "P2 system quantity")
}

func TestPartialCountNeedsProductIDs(t *testing.T) {
	env := newTestEnv(t)
	warehouse := env.createWarehouse(t, "Main")

	_, err := env.counts.Create(context.Background(), env.tenant, nil, CreateCountInput{
		WarehouseID: warehouse.ID,
		Type:        model.CountTypePartial,
	})
	if !errors.Is(err, ErrInvalidState) {
		t.Fatalf("expected ErrInvalidState, got %v", err)
	}
}

func TestSnapshotFrozenAtCreation(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	p1 := env.createProduct(t, "P1")
	warehouse := env.createWarehouse(t, "Main")
	env.seedStock(t, p1.ID, warehouse.ID, "10", "5")

	count, err := env.counts.Create(ctx, env.tenant, nil, CreateCountInput{
		WarehouseID: warehouse.ID,
		Type:        model.CountTypeFull,
	})
	if err != nil {
		t.Fatalf("create count failed: %v", err)
	}

	// A later movement must not change the frozen snapshot.
	env.seedStock(t, p1.ID, warehouse.ID, "5", "5")

	reloaded, err := env.counts.Get(ctx, env.tenant, count.ID)
	if err != nil {
		t.Fatalf("reload count failed: %v", err)
	}
	item := findItem(t, reloaded, p1.ID)
	assertDecimal(t, *item.SystemQuantity, "10", "frozen system quantity")
}

func TestBlindCountMasksPendingItems(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	p1 := env.createProduct(t, "P1")
	p2 := env.createProduct(t, "P2")
	warehouse := env.createWarehouse(t, "Main")
	env.seedStock(t, p1.ID, warehouse.ID, "10", "5")

	count, err := env.counts.Create(ctx, env.tenant, nil, CreateCountInput{
		WarehouseID: warehouse.ID,
		Type:        model.CountTypeFull,
		BlindCount:  true,
	})
	if err != nil {
		t.Fatalf("create count failed: %v", err)
	}

	for _, item := range count.Items {
		if item.SystemQuantity != nil || item.Difference != nil {
			t.Fatalf("blind count leaked system quantity for %s", item.ProductID)
		}
	}

	// Registering P1 reveals its own system quantity; P2 stays hidden.
	if _, err := env.counts.RegisterItem(ctx, env.tenant, nil, count.ID, RegisterCountItemInput{
		ProductID:       p1.ID,
		CountedQuantity: dec(t, "9"),
	}); err != nil {
		t.Fatalf("register item failed: %v", err)
	}

	reloaded, err := env.counts.Get(ctx, env.tenant, count.ID)
	if err != nil {
		t.Fatalf("reload count failed: %v", err)
	}
	item1 := findItem(t, reloaded, p1.ID)
	if item1.SystemQuantity == nil || item1.Difference == nil {
		t.Fatal("counted item still masked")
	}
	assertDecimal(t, *item1.SystemQuantity, "10", "revealed system quantity")
	assertDecimal(t, *item1.Difference, "-1", "revealed difference")
	item2 := findItem(t, reloaded, p2.ID)
	if item2.SystemQuantity != nil {
		t.Fatal("pending item revealed on blind count")
	}
}

func TestApproveReconcilesDifferences(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	p1 := env.createProduct(t, "P1")
	p2 := env.createProduct(t, "P2")
	warehouse := env.createWarehouse(t, "Main")
	env.seedStock(t, p1.ID, warehouse.ID, "10", "5")

	count, err := env.counts.Create(ctx, env.tenant, nil, CreateCountInput{
		WarehouseID: warehouse.ID,
		Type:        model.CountTypeFull,
	})
	if err != nil {
		t.Fatalf("create count failed: %v", err)
	}

	if _, err := env.counts.RegisterItem(ctx, env.tenant, nil, count.ID, RegisterCountItemInput{
		ProductID:       p1.ID,
		CountedQuantity: dec(t, "8"),
	}); err != nil {
		t.Fatalf("register P1 failed: %v", err)
	}
	if _, err := env.counts.RegisterItem(ctx, env.tenant, nil, count.ID, RegisterCountItemInput{
		ProductID:       p2.ID,
		CountedQuantity: dec(t, "0"),
	}); err != nil {
		t.Fatalf("register P2 failed: %v", err)
	}

	// All items counted moved the session into review.
	inReview, err := env.counts.Get(ctx, env.tenant, count.ID)
	if err != nil {
		t.Fatalf("reload count failed: %v", err)
	}
	if inReview.Status != model.CountStatusReview {
		t.Fatalf("status = %s, want review", inReview.Status)
	}

	approved, err := env.counts.Approve(ctx, env.tenant, nil, count.ID)
	if err != nil {
		t.Fatalf("approve failed: %v", err)
	}
	if approved.Status != model.CountStatusApproved || approved.ApprovedAt == nil {
		t.Fatalf("approved status = %s, approvedAt = %v", approved.Status, approved.ApprovedAt)
	}
	for _, item := range approved.Items {
		if item.Status != model.CountItemAdjusted {
			t.Fatalf("item %s status = %s, want adjusted", item.ProductID, item.Status)
		}
	}

	// One adjustment_out of quantity 2 corrected the level.
	assertDecimal(t, env.level(t, p1.ID, warehouse.ID).Quantity, "8", "P1 level after approval")
	movements, total, err := env.stock.GetMovements(ctx, env.tenant, p1.ID, warehouse.ID, 1, 50)
	if err != nil {
		t.Fatalf("list movements failed: %v", err)
	}
	if total != 2 {
		t.Fatalf("P1 ledger rows = %d, want 2 (seed + adjustment)", total)
	}
	if movements[0].Type != model.MovementAdjustmentOut {
		t.Fatalf("correction type = %s, want adjustment_out", movements[0].Type)
	}
	assertDecimal(t, movements[0].Quantity, "2", "correction quantity")

	// Zero difference on P2 produced no movement.
	_, p2Total, err := env.stock.GetMovements(ctx, env.tenant, p2.ID, warehouse.ID, 1, 50)
	if err != nil {
		t.Fatalf("list P2 movements failed: %v", err)
	}
	if p2Total != 0 {
		t.Fatalf("P2 ledger rows = %d, want 0", p2Total)
	}
}

func TestApproveRejectsPendingItems(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	p1 := env.createProduct(t, "P1")
	warehouse := env.createWarehouse(t, "Main")
	env.seedStock(t, p1.ID, warehouse.ID, "10", "5")

	count, err := env.counts.Create(ctx, env.tenant, nil, CreateCountInput{
		WarehouseID: warehouse.ID,
		Type:        model.CountTypeFull,
	})
	if err != nil {
		t.Fatalf("create count failed: %v", err)
	}

	if _, err := env.counts.Approve(ctx, env.tenant, nil, count.ID); !errors.Is(err, ErrIncompleteCount) {
		t.Fatalf("expected ErrIncompleteCount, got %v", err)
	}
}

func TestApprovalBypassesNegativeStockPolicy(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	p1 := env.createProduct(t, "P1")
	warehouse := env.createWarehouse(t, "Main")
	env.seedStock(t, p1.ID, warehouse.ID, "10", "5")

	// Reserve more than counted so available would go negative on the
	// correction; ground truth still wins.
	if _, err := env.reservation.Reserve(ctx, env.tenant, nil, ReserveInput{
		OrderID:     uuid.New(),
		OrderType:   model.ReferenceOrder,
		ProductID:   p1.ID,
		WarehouseID: warehouse.ID,
		Quantity:    dec(t, "10"),
	}); err != nil {
		t.Fatalf("reserve failed: %v", err)
	}

	count, err := env.counts.Create(ctx, env.tenant, nil, CreateCountInput{
		WarehouseID: warehouse.ID,
		Type:        model.CountTypePartial,
		ProductIDs:  []uuid.UUID{p1.ID},
	})
	if err != nil {
		t.Fatalf("create count failed: %v", err)
	}
	if _, err := env.counts.RegisterItem(ctx, env.tenant, nil, count.ID, RegisterCountItemInput{
		ProductID:       p1.ID,
		CountedQuantity: decimal.Zero,
	}); err != nil {
		t.Fatalf("register item failed: %v", err)
	}
	if _, err := env.counts.Approve(ctx, env.tenant, nil, count.ID); err != nil {
		t.Fatalf("approve failed: %v", err)
	}

	level := env.level(t, p1.ID, warehouse.ID)
	assertDecimal(t, level.Quantity, "0", "corrected quantity")
	assertDecimal(t, level.AvailableQuantity, "-10", "available reflects the open hold")
}

func TestRegisterItemGuards(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	p1 := env.createProduct(t, "P1")
	stranger := env.createProduct(t, "STRANGER")
	warehouse := env.createWarehouse(t, "Main")
	env.seedStock(t, p1.ID, warehouse.ID, "10", "5")

	count, err := env.counts.Create(ctx, env.tenant, nil, CreateCountInput{
		WarehouseID: warehouse.ID,
		Type:        model.CountTypePartial,
		ProductIDs:  []uuid.UUID{p1.ID},
	})
	if err != nil {
		t.Fatalf("create count failed: %v", err)
	}

	if _, err := env.counts.RegisterItem(ctx, env.tenant, nil, count.ID, RegisterCountItemInput{
		ProductID:       stranger.ID,
		CountedQuantity: dec(t, "1"),
	}); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound for product outside the count, got %v", err)
	}

	if _, err := env.counts.RegisterItem(ctx, env.tenant, nil, count.ID, RegisterCountItemInput{
		ProductID:       p1.ID,
		CountedQuantity: dec(t, "-1"),
	}); !errors.Is(err, ErrInvalidState) {
		t.Fatalf("expected ErrInvalidState for negative count, got %v", err)
	}

	if _, err := env.counts.RegisterItem(ctx, env.tenant, nil, count.ID, RegisterCountItemInput{
		ProductID:       p1.ID,
		CountedQuantity: dec(t, "10"),
	}); err != nil {
		t.Fatalf("register failed: %v", err)
	}
	if _, err := env.counts.Approve(ctx, env.tenant, nil, count.ID); err != nil {
		t.Fatalf("approve failed: %v", err)
	}

	// Registering into an approved count is rejected.
	if _, err := env.counts.RegisterItem(ctx, env.tenant, nil, count.ID, RegisterCountItemInput{
		ProductID:       p1.ID,
		CountedQuantity: dec(t, "10"),
	}); !errors.Is(err, ErrInvalidState) {
		t.Fatalf("expected ErrInvalidState on approved count, got %v", err)
	}
}

func TestCountNumbersAreScopedPerTenant(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	warehouse := env.createWarehouse(t, "Main")

	first, err := env.counts.Create(ctx, env.tenant, nil, CreateCountInput{
		WarehouseID: warehouse.ID,
		Type:        model.CountTypeFull,
	})
	if err != nil {
		t.Fatalf("create count failed: %v", err)
	}

	otherTenant := uuid.New()
	otherWarehouse := &model.Warehouse{TenantID: otherTenant, Name: "Main", Active: true}
	if err := env.db.Create(otherWarehouse).Error; err != nil {
		t.Fatalf("failed to seed other tenant: %v", err)
	}
	second, err := env.counts.Create(ctx, otherTenant, nil, CreateCountInput{
		WarehouseID: otherWarehouse.ID,
		Type:        model.CountTypeFull,
	})
	if err != nil {
		t.Fatalf("first count of the other tenant failed: %v", err)
	}

	if first.Number != "INV-00001" {
		t.Fatalf("first tenant number = %s, want INV-00001", first.Number)
	}
	if second.Number != "INV-00001" {
		t.Fatalf("other tenant number = %s, want INV-00001", second.Number)
	}
}
