package service

import (
	"context"
	"testing"

	"backend/internal/database"
	"backend/internal/model"
	"backend/internal/repository"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// testEnv wires the full service stack against an isolated in-memory database.
type testEnv struct {
	db     *gorm.DB
	tenant uuid.UUID

	levelRepo repository.StockLevelRepository
	auditRepo repository.AuditRepository

	stock       StockService
	batches     BatchService
	reservation ReservationService
	transfers   TransferService
	kits        KitService
	production  ProductionService
	counts      CountService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	db := database.NewTestDB(t)

	txManager := repository.NewTransactionManager(db)
	levelRepo := repository.NewStockLevelRepository(db)
	movementRepo := repository.NewStockMovementRepository(db)
	batchRepo := repository.NewStockBatchRepository(db)
	reservationRepo := repository.NewReservationRepository(db)
	transferRepo := repository.NewTransferRepository(db)
	productionRepo := repository.NewProductionRepository(db)
	kitRepo := repository.NewKitRepository(db)
	countRepo := repository.NewCountRepository(db)
	productRepo := repository.NewProductRepository(db)
	settingsRepo := repository.NewSettingsRepository(db)
	sequenceRepo := repository.NewSequenceRepository(db)
	auditRepo := repository.NewAuditRepository(db)

	stock := NewStockService(levelRepo, movementRepo, settingsRepo, auditRepo, txManager, nil)

	return &testEnv{
		db:          db,
		tenant:      uuid.New(),
		levelRepo:   levelRepo,
		auditRepo:   auditRepo,
		stock:       stock,
		batches:     NewBatchService(batchRepo, auditRepo, txManager),
		reservation: NewReservationService(reservationRepo, levelRepo, auditRepo, txManager),
		transfers:   NewTransferService(transferRepo, sequenceRepo, stock, auditRepo, txManager),
		kits:        NewKitService(kitRepo, productRepo, auditRepo, txManager),
		production:  NewProductionService(productionRepo, kitRepo, sequenceRepo, movementRepo, stock, auditRepo, txManager),
		counts:      NewCountService(countRepo, levelRepo, productRepo, sequenceRepo, stock, auditRepo, txManager),
	}
}

func (e *testEnv) createProduct(t *testing.T, sku string) *model.Product {
	t.Helper()
	product := &model.Product{
		TenantID: e.tenant,
		SKU:      sku,
		Name:     "product " + sku,
		Active:   true,
	}
	if err := e.db.Create(product).Error; err != nil {
		t.Fatalf("failed to create product %s: %v", sku, err)
	}
	return product
}

func (e *testEnv) createWarehouse(t *testing.T, name string) *model.Warehouse {
	t.Helper()
	warehouse := &model.Warehouse{
		TenantID: e.tenant,
		Name:     name,
		Active:   true,
	}
	if err := e.db.Create(warehouse).Error; err != nil {
		t.Fatalf("failed to create warehouse %s: %v", name, err)
	}
	return warehouse
}

// seedStock books an entry movement so the level carries quantity and cost.
func (e *testEnv) seedStock(t *testing.T, productID, warehouseID uuid.UUID, quantity, unitCost string) {
	t.Helper()
	_, err := e.stock.RecordMovement(context.Background(), e.tenant, nil, MovementInput{
		ProductID:   productID,
		WarehouseID: warehouseID,
		Type:        model.MovementPurchaseEntry,
		Quantity:    dec(t, quantity),
		UnitCost:    dec(t, unitCost),
	})
	if err != nil {
		t.Fatalf("failed to seed stock: %v", err)
	}
}

func (e *testEnv) level(t *testing.T, productID, warehouseID uuid.UUID) *model.StockLevel {
	t.Helper()
	level, err := e.levelRepo.Find(context.Background(), e.tenant, productID, warehouseID)
	if err != nil {
		t.Fatalf("failed to load stock level: %v", err)
	}
	return level
}

func dec(t *testing.T, value string) decimal.Decimal {
	t.Helper()
	d, err := decimal.NewFromString(value)
	if err != nil {
		t.Fatalf("bad decimal literal %q: %v", value, err)
	}
	return d
}

func assertDecimal(t *testing.T, got decimal.Decimal, want string, label string) {
	t.Helper()
	if !got.Equal(dec(t, want)) {
		t.Fatalf("%s = %s, want %s", label, got, want)
	}
}
