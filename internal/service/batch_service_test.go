package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"backend/internal/model"
)

func TestAllocateFifoDrainsByExpiry(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	product := env.createProduct(t, "SKU-1")
	warehouse := env.createWarehouse(t, "Main")

	jan := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	feb := time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC)

	// Created out of order on purpose; expiry drives consumption order.
	b2, err := env.batches.Create(ctx, env.tenant, nil, CreateBatchInput{
		ProductID: product.ID, WarehouseID: warehouse.ID,
		BatchCode: "B2", ExpirationDate: &feb, Quantity: dec(t, "5"), UnitCost: dec(t, "11"),
	})
	if err != nil {
		t.Fatalf("create B2 failed: %v", err)
	}
	b1, err := env.batches.Create(ctx, env.tenant, nil, CreateBatchInput{
		ProductID: product.ID, WarehouseID: warehouse.ID,
		BatchCode: "B1", ExpirationDate: &jan, Quantity: dec(t, "5"), UnitCost: dec(t, "10"),
	})
	if err != nil {
		t.Fatalf("create B1 failed: %v", err)
	}

	allocations, err := env.batches.AllocateFifo(ctx, env.tenant, product.ID, warehouse.ID, dec(t, "7"))
	if err != nil {
		t.Fatalf("allocate failed: %v", err)
	}
	if len(allocations) != 2 {
		t.Fatalf("allocations = %d, want 2", len(allocations))
	}
	if allocations[0].BatchCode != "B1" {
		t.Fatalf("first drained batch = %s, want B1", allocations[0].BatchCode)
	}
	assertDecimal(t, allocations[0].Quantity, "5", "all of B1")
	if allocations[1].BatchCode != "B2" {
		t.Fatalf("second drained batch = %s, want B2", allocations[1].BatchCode)
	}
	assertDecimal(t, allocations[1].Quantity, "2", "partial B2")

	drained1, err := env.batches.GetBatch(ctx, env.tenant, b1.ID)
	if err != nil {
		t.Fatalf("load B1 failed: %v", err)
	}
	assertDecimal(t, drained1.Quantity, "0", "B1 remaining")
	drained2, err := env.batches.GetBatch(ctx, env.tenant, b2.ID)
	if err != nil {
		t.Fatalf("load B2 failed: %v", err)
	}
	assertDecimal(t, drained2.Quantity, "3", "B2 remaining")
}

func TestFifoOrderPutsUndatedBatchesLast(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	product := env.createProduct(t, "SKU-1")
	warehouse := env.createWarehouse(t, "Main")

	mar := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)

	if _, err := env.batches.Create(ctx, env.tenant, nil, CreateBatchInput{
		ProductID: product.ID, WarehouseID: warehouse.ID,
		BatchCode: "NODATE", Quantity: dec(t, "5"),
	}); err != nil {
		t.Fatalf("create undated batch failed: %v", err)
	}
	if _, err := env.batches.Create(ctx, env.tenant, nil, CreateBatchInput{
		ProductID: product.ID, WarehouseID: warehouse.ID,
		BatchCode: "DATED", ExpirationDate: &mar, Quantity: dec(t, "5"),
	}); err != nil {
		t.Fatalf("create dated batch failed: %v", err)
	}

	fifo, err := env.batches.GetFifo(ctx, env.tenant, product.ID, warehouse.ID)
	if err != nil {
		t.Fatalf("fifo read failed: %v", err)
	}
	if len(fifo) != 2 {
		t.Fatalf("fifo batches = %d, want 2", len(fifo))
	}
	if fifo[0].BatchCode != "DATED" || fifo[1].BatchCode != "NODATE" {
		t.Fatalf("fifo order = %s, %s; want DATED, NODATE", fifo[0].BatchCode, fifo[1].BatchCode)
	}
}

func TestAllocateFifoInsufficientConsumesNothing(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	product := env.createProduct(t, "SKU-1")
	warehouse := env.createWarehouse(t, "Main")

	batch, err := env.batches.Create(ctx, env.tenant, nil, CreateBatchInput{
		ProductID: product.ID, WarehouseID: warehouse.ID,
		BatchCode: "ONLY", Quantity: dec(t, "4"),
	})
	if err != nil {
		t.Fatalf("create batch failed: %v", err)
	}

	_, err = env.batches.AllocateFifo(ctx, env.tenant, product.ID, warehouse.ID, dec(t, "9"))
	if !errors.Is(err, ErrInsufficientBatchStock) {
		t.Fatalf("expected ErrInsufficientBatchStock, got %v", err)
	}

	untouched, err := env.batches.GetBatch(ctx, env.tenant, batch.ID)
	if err != nil {
		t.Fatalf("load batch failed: %v", err)
	}
	assertDecimal(t, untouched.Quantity, "4", "batch untouched after failed allocation")
}

func TestCreateBatchRejectsNonPositiveQuantity(t *testing.T) {
	env := newTestEnv(t)
	product := env.createProduct(t, "SKU-1")
	warehouse := env.createWarehouse(t, "Main")

	_, err := env.batches.Create(context.Background(), env.tenant, nil, CreateBatchInput{
		ProductID: product.ID, WarehouseID: warehouse.ID,
		BatchCode: "BAD", Quantity: dec(t, "0"),
	})
	if !errors.Is(err, ErrInvalidState) {
		t.Fatalf("expected ErrInvalidState, got %v", err)
	}
}

func TestFifoSkipsDrainedBatches(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	product := env.createProduct(t, "SKU-1")
	warehouse := env.createWarehouse(t, "Main")

	if _, err := env.batches.Create(ctx, env.tenant, nil, CreateBatchInput{
		ProductID: product.ID, WarehouseID: warehouse.ID,
		BatchCode: "B1", Quantity: dec(t, "2"),
	}); err != nil {
		t.Fatalf("create batch failed: %v", err)
	}
	if _, err := env.batches.AllocateFifo(ctx, env.tenant, product.ID, warehouse.ID, dec(t, "2")); err != nil {
		t.Fatalf("allocate failed: %v", err)
	}

	fifo, err := env.batches.GetFifo(ctx, env.tenant, product.ID, warehouse.ID)
	if err != nil {
		t.Fatalf("fifo read failed: %v", err)
	}
	if len(fifo) != 0 {
		t.Fatalf("drained batch still listed: %v", fifo[0].BatchCode)
	}

	var all []model.StockBatch
	if err := env.db.Where("tenant_id = ?", env.tenant).Find(&all).Error; err != nil {
		t.Fatalf("raw batch read failed: %v", err)
	}
	if len(all) != 1 {
		t.Fatalf("drained batch row deleted, want it kept as history")
	}
}
