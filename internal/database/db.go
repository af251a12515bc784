package database

import (
	"log"

	"backend/internal/model"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

// NewConnection initializes a new connection pool using GORM
func NewConnection(dsn string) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		return nil, err
	}

	if err := Migrate(db); err != nil {
		log.Println("WARNING: Failed to auto-migrate models:", err)
	}

	return db, nil
}

// Migrate auto-migrates every core model
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&model.Product{},
		&model.Warehouse{},
		&model.StockLevel{},
		&model.StockMovement{},
		&model.StockBatch{},
		&model.StockReservation{},
		&model.StockTransfer{},
		&model.StockTransferItem{},
		&model.ProductKitItem{},
		&model.ProductionOrder{},
		&model.ProductionOrderItem{},
		&model.InventoryCount{},
		&model.InventoryCountItem{},
		&model.TenantSettings{},
		&model.DocumentSequence{},
		&model.AuditLog{},
	)
}
