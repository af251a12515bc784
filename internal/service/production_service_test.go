package service

import (
	"context"
	"errors"
	"testing"

	"backend/internal/model"

	"github.com/google/uuid"
)

func TestKitComponentsReplaceAndFlag(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	kit := env.createProduct(t, "KIT-1")
	c1 := env.createProduct(t, "C1")
	c2 := env.createProduct(t, "C2")

	components, err := env.kits.SetComponents(ctx, env.tenant, nil, kit.ID, []KitComponentInput{
		{ComponentProductID: c1.ID, QuantityPerUnit: dec(t, "3")},
		{ComponentProductID: c2.ID, QuantityPerUnit: dec(t, "1")},
	})
	if err != nil {
		t.Fatalf("set components failed: %v", err)
	}
	if len(components) != 2 {
		t.Fatalf("components = %d, want 2", len(components))
	}

	var reloaded model.Product
	if err := env.db.First(&reloaded, "id = ?", kit.ID).Error; err != nil {
		t.Fatalf("reload kit failed: %v", err)
	}
	if !reloaded.IsKit {
		t.Fatal("kit flag not set after defining components")
	}

	// Replacement is whole, not a diff.
	components, err = env.kits.SetComponents(ctx, env.tenant, nil, kit.ID, []KitComponentInput{
		{ComponentProductID: c1.ID, QuantityPerUnit: dec(t, "5")},
	})
	if err != nil {
		t.Fatalf("replace components failed: %v", err)
	}
	if len(components) != 1 {
		t.Fatalf("components after replace = %d, want 1", len(components))
	}
	assertDecimal(t, components[0].QuantityPerUnit, "5", "replaced quantity per unit")
}

func TestSetComponentsRejectsSelfReference(t *testing.T) {
	env := newTestEnv(t)
	kit := env.createProduct(t, "KIT-1")

	_, err := env.kits.SetComponents(context.Background(), env.tenant, nil, kit.ID, []KitComponentInput{
		{ComponentProductID: kit.ID, QuantityPerUnit: dec(t, "1")},
	})
	if !errors.Is(err, ErrInvalidState) {
		t.Fatalf("expected ErrInvalidState, got %v", err)
	}
}

func TestProductionOrderScalesBom(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	kit := env.createProduct(t, "KIT-1")
	c1 := env.createProduct(t, "C1")
	warehouse := env.createWarehouse(t, "Plant")

	if _, err := env.kits.SetComponents(ctx, env.tenant, nil, kit.ID, []KitComponentInput{
		{ComponentProductID: c1.ID, QuantityPerUnit: dec(t, "3")},
	}); err != nil {
		t.Fatalf("set components failed: %v", err)
	}

	order, err := env.production.Create(ctx, env.tenant, nil, CreateProductionOrderInput{
		ProductID:   kit.ID,
		WarehouseID: warehouse.ID,
		Quantity:    dec(t, "4"),
	})
	if err != nil {
		t.Fatalf("create order failed: %v", err)
	}
	if order.Number != "OP-00001" {
		t.Fatalf("order number = %s, want OP-00001", order.Number)
	}
	if len(order.Items) != 1 {
		t.Fatalf("order items = %d, want 1", len(order.Items))
	}
	assertDecimal(t, order.Items[0].QuantityRequired, "12", "scaled component requirement")
	assertDecimal(t, order.Items[0].QuantityConsumed, "0", "nothing consumed at creation")
}

func TestCreateOrderRequiresKitDefinition(t *testing.T) {
	env := newTestEnv(t)
	plain := env.createProduct(t, "PLAIN")
	warehouse := env.createWarehouse(t, "Plant")

	_, err := env.production.Create(context.Background(), env.tenant, nil, CreateProductionOrderInput{
		ProductID:   plain.ID,
		WarehouseID: warehouse.ID,
		Quantity:    dec(t, "1"),
	})
	if !errors.Is(err, ErrInvalidState) {
		t.Fatalf("expected ErrInvalidState, got %v", err)
	}
}

func TestStartConsumptionIsAllOrNothing(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	kit := env.createProduct(t, "KIT-1")
	c1 := env.createProduct(t, "C1")
	c2 := env.createProduct(t, "C2")
	warehouse := env.createWarehouse(t, "Plant")

	if _, err := env.kits.SetComponents(ctx, env.tenant, nil, kit.ID, []KitComponentInput{
		{ComponentProductID: c1.ID, QuantityPerUnit: dec(t, "2")},
		{ComponentProductID: c2.ID, QuantityPerUnit: dec(t, "2")},
	}); err != nil {
		t.Fatalf("set components failed: %v", err)
	}

	// Enough of C1, nothing of C2.
	env.seedStock(t, c1.ID, warehouse.ID, "10", "3")

	order, err := env.production.Create(ctx, env.tenant, nil, CreateProductionOrderInput{
		ProductID:   kit.ID,
		WarehouseID: warehouse.ID,
		Quantity:    dec(t, "2"),
	})
	if err != nil {
		t.Fatalf("create order failed: %v", err)
	}

	if _, err := env.production.Start(ctx, env.tenant, nil, order.ID); !errors.Is(err, ErrNegativeStockRejected) {
		t.Fatalf("expected ErrNegativeStockRejected, got %v", err)
	}

	// The whole start rolled back: C1 untouched, order still pending.
	assertDecimal(t, env.level(t, c1.ID, warehouse.ID).Quantity, "10", "C1 after failed start")
	reloaded, err := env.production.Get(ctx, env.tenant, order.ID)
	if err != nil {
		t.Fatalf("reload order failed: %v", err)
	}
	if reloaded.Status != model.ProductionPending {
		t.Fatalf("status after failed start = %s, want pending", reloaded.Status)
	}
	assertDecimal(t, reloaded.Items[0].QuantityConsumed, "0", "no partial consumption")
}

func TestFinishBooksProductionAtConsumedCost(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	kit := env.createProduct(t, "KIT-1")
	c1 := env.createProduct(t, "C1")
	warehouse := env.createWarehouse(t, "Plant")

	if _, err := env.kits.SetComponents(ctx, env.tenant, nil, kit.ID, []KitComponentInput{
		{ComponentProductID: c1.ID, QuantityPerUnit: dec(t, "3")},
	}); err != nil {
		t.Fatalf("set components failed: %v", err)
	}
	env.seedStock(t, c1.ID, warehouse.ID, "20", "5")

	order, err := env.production.Create(ctx, env.tenant, nil, CreateProductionOrderInput{
		ProductID:   kit.ID,
		WarehouseID: warehouse.ID,
		Quantity:    dec(t, "4"),
	})
	if err != nil {
		t.Fatalf("create order failed: %v", err)
	}

	started, err := env.production.Start(ctx, env.tenant, nil, order.ID)
	if err != nil {
		t.Fatalf("start failed: %v", err)
	}
	if started.Status != model.ProductionInProgress || started.StartedAt == nil {
		t.Fatalf("started status = %s, startedAt = %v", started.Status, started.StartedAt)
	}
	// 12 units of C1 at average 5 left the warehouse.
	assertDecimal(t, env.level(t, c1.ID, warehouse.ID).Quantity, "8", "C1 after consumption")

	finished, err := env.production.Finish(ctx, env.tenant, nil, order.ID)
	if err != nil {
		t.Fatalf("finish failed: %v", err)
	}
	if finished.Status != model.ProductionFinished || finished.FinishedAt == nil {
		t.Fatalf("finished status = %s, finishedAt = %v", finished.Status, finished.FinishedAt)
	}

	// Consumed value 12 x 5 = 60, spread over 4 produced units.
	kitLevel := env.level(t, kit.ID, warehouse.ID)
	assertDecimal(t, kitLevel.Quantity, "4", "produced quantity on hand")
	assertDecimal(t, kitLevel.AverageCost, "15", "produced unit cost")
}

func TestCancelForbiddenAfterConsumption(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	kit := env.createProduct(t, "KIT-1")
	c1 := env.createProduct(t, "C1")
	warehouse := env.createWarehouse(t, "Plant")

	if _, err := env.kits.SetComponents(ctx, env.tenant, nil, kit.ID, []KitComponentInput{
		{ComponentProductID: c1.ID, QuantityPerUnit: dec(t, "1")},
	}); err != nil {
		t.Fatalf("set components failed: %v", err)
	}
	env.seedStock(t, c1.ID, warehouse.ID, "5", "2")

	order, err := env.production.Create(ctx, env.tenant, nil, CreateProductionOrderInput{
		ProductID:   kit.ID,
		WarehouseID: warehouse.ID,
		Quantity:    dec(t, "2"),
	})
	if err != nil {
		t.Fatalf("create order failed: %v", err)
	}

	// A pending order cancels cleanly.
	cancelled, err := env.production.Cancel(ctx, env.tenant, nil, order.ID)
	if err != nil {
		t.Fatalf("cancel pending failed: %v", err)
	}
	if cancelled.Status != model.ProductionCancelled {
		t.Fatalf("status = %s, want cancelled", cancelled.Status)
	}

	// Once components are consumed, cancellation is rejected.
	second, err := env.production.Create(ctx, env.tenant, nil, CreateProductionOrderInput{
		ProductID:   kit.ID,
		WarehouseID: warehouse.ID,
		Quantity:    dec(t, "2"),
	})
	if err != nil {
		t.Fatalf("create second order failed: %v", err)
	}
	if _, err := env.production.Start(ctx, env.tenant, nil, second.ID); err != nil {
		t.Fatalf("start failed: %v", err)
	}
	if _, err := env.production.Cancel(ctx, env.tenant, nil, second.ID); !errors.Is(err, ErrInvalidState) {
		t.Fatalf("expected ErrInvalidState cancelling after consumption, got %v", err)
	}
}

func TestOrderNumbersAreScopedPerTenant(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	kit := env.createProduct(t, "KIT-1")
	component := env.createProduct(t, "C1")
	warehouse := env.createWarehouse(t, "Plant")
	if _, err := env.kits.SetComponents(ctx, env.tenant, nil, kit.ID, []KitComponentInput{
		{ComponentProductID: component.ID, QuantityPerUnit: dec(t, "1")},
	}); err != nil {
		t.Fatalf("set components failed: %v", err)
	}

	first, err := env.production.Create(ctx, env.tenant, nil, CreateProductionOrderInput{
		ProductID:   kit.ID,
		WarehouseID: warehouse.ID,
		Quantity:    dec(t, "1"),
	})
	if err != nil {
		t.Fatalf("create order failed: %v", err)
	}

	otherTenant := uuid.New()
	otherKit := &model.Product{TenantID: otherTenant, SKU: "KIT-1", Name: "product KIT-1", Active: true}
	otherComponent := &model.Product{TenantID: otherTenant, SKU: "C1", Name: "product C1", Active: true}
	otherWarehouse := &model.Warehouse{TenantID: otherTenant, Name: "Plant", Active: true}
	for _, row := range []interface{}{otherKit, otherComponent, otherWarehouse} {
		if err := env.db.Create(row).Error; err != nil {
			t.Fatalf("failed to seed other tenant: %v", err)
		}
	}
	if _, err := env.kits.SetComponents(ctx, otherTenant, nil, otherKit.ID, []KitComponentInput{
		{ComponentProductID: otherComponent.ID, QuantityPerUnit: dec(t, "1")},
	}); err != nil {
		t.Fatalf("set components for other tenant failed: %v", err)
	}
	second, err := env.production.Create(ctx, otherTenant, nil, CreateProductionOrderInput{
		ProductID:   otherKit.ID,
		WarehouseID: otherWarehouse.ID,
		Quantity:    dec(t, "1"),
	})
	if err != nil {
		t.Fatalf("first order of the other tenant failed: %v", err)
	}

	if first.Number != "OP-00001" {
		t.Fatalf("first tenant number = %s, want OP-00001", first.Number)
	}
	if second.Number != "OP-00001" {
		t.Fatalf("other tenant number = %s, want OP-00001", second.Number)
	}
}
