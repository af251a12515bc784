package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// MovementType Enum Simulation
const (
	MovementPurchaseEntry = "purchase_entry"
	MovementSaleExit      = "sale_exit"
	MovementTransferIn    = "transfer_in"
	MovementTransferOut   = "transfer_out"
	MovementAdjustmentIn  = "adjustment_in"
	MovementAdjustmentOut = "adjustment_out"
	MovementReturnIn      = "return_in"
	MovementReturnOut     = "return_out"
	MovementProduction    = "production"
)

var entryMovementTypes = map[string]bool{
	MovementPurchaseEntry: true,
	MovementTransferIn:    true,
	MovementAdjustmentIn:  true,
	MovementReturnIn:      true,
	MovementProduction:    true,
}

// IsEntryMovement classifies a movement type as an entry (stock increases).
// Every other known type is an exit.
func IsEntryMovement(movementType string) bool {
	return entryMovementTypes[movementType]
}

// ValidMovementType reports whether the given type belongs to the closed set.
func ValidMovementType(movementType string) bool {
	switch movementType {
	case MovementPurchaseEntry, MovementSaleExit,
		MovementTransferIn, MovementTransferOut,
		MovementAdjustmentIn, MovementAdjustmentOut,
		MovementReturnIn, MovementReturnOut,
		MovementProduction:
		return true
	}
	return false
}

// ReferenceType Enum Simulation: the closed set of document kinds a movement
// or reservation may point back to.
const (
	ReferenceOrder           = "order"
	ReferenceTransfer        = "transfer"
	ReferenceProductionOrder = "production_order"
	ReferenceInventoryCount  = "inventory_count"
	ReferenceManual          = "manual"
)

// ValidReferenceType reports whether the given reference kind is known.
func ValidReferenceType(referenceType string) bool {
	switch referenceType {
	case ReferenceOrder, ReferenceTransfer, ReferenceProductionOrder,
		ReferenceInventoryCount, ReferenceManual:
		return true
	}
	return false
}

// StockLevel is the derived current state per (tenant, product, warehouse):
// physical quantity, soft-reserved quantity, and the moving weighted-average
// cost. Only the stock service writes quantity/average cost; reservations
// touch reserved/available only. Rows are created lazily and never deleted.
type StockLevel struct {
	ID                uuid.UUID       `gorm:"type:uuid;primaryKey" json:"id"`
	TenantID          uuid.UUID       `gorm:"type:uuid;not null;index:idx_stock_levels_key,unique" json:"tenant_id"`
	ProductID         uuid.UUID       `gorm:"type:uuid;not null;index:idx_stock_levels_key,unique" json:"product_id"`
	Product           *Product        `gorm:"foreignKey:ProductID" json:"product,omitempty"`
	WarehouseID       uuid.UUID       `gorm:"type:uuid;not null;index:idx_stock_levels_key,unique" json:"warehouse_id"`
	Warehouse         *Warehouse      `gorm:"foreignKey:WarehouseID" json:"warehouse,omitempty"`
	Quantity          decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"quantity"`
	ReservedQuantity  decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"reserved_quantity"`
	AvailableQuantity decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"available_quantity"`
	AverageCost       decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"average_cost"`
	LastMovementAt    *time.Time      `json:"last_movement_at"`
	CreatedAt         time.Time       `json:"created_at"`
	UpdatedAt         time.Time       `json:"updated_at"`
}

func (l *StockLevel) BeforeCreate(tx *gorm.DB) error {
	if l.ID == uuid.Nil {
		l.ID = uuid.New()
	}
	return nil
}

// StockMovement (Kardex) is the append-only ledger entry for a single
// quantity change. Rows are immutable once written; corrections are new
// movements. Previous/new snapshots are captured at write time so history
// never has to be recomputed.
type StockMovement struct {
	ID                  uuid.UUID       `gorm:"type:uuid;primaryKey" json:"id"`
	TenantID            uuid.UUID       `gorm:"type:uuid;not null;index" json:"tenant_id"`
	ProductID           uuid.UUID       `gorm:"type:uuid;not null;index:idx_stock_movements_key" json:"product_id"`
	WarehouseID         uuid.UUID       `gorm:"type:uuid;not null;index:idx_stock_movements_key" json:"warehouse_id"`
	Type                string          `gorm:"type:varchar(30);not null;index" json:"type"`
	Quantity            decimal.Decimal `gorm:"type:decimal(20,4);not null" json:"quantity"`
	UnitCost            decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"unit_cost"`
	TotalCost           decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"total_cost"`
	PreviousQuantity    decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"previous_quantity"`
	NewQuantity         decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"new_quantity"`
	PreviousAverageCost decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"previous_average_cost"`
	NewAverageCost      decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"new_average_cost"`
	ReferenceType       string          `gorm:"type:varchar(30)" json:"reference_type,omitempty"`
	ReferenceID         *uuid.UUID      `gorm:"type:uuid;index" json:"reference_id,omitempty"`
	ReferenceNumber     string          `gorm:"type:varchar(50)" json:"reference_number,omitempty"`
	Reason              string          `gorm:"type:text" json:"reason,omitempty"`
	UserID              *uuid.UUID      `gorm:"type:uuid;index" json:"user_id,omitempty"`
	CreatedAt           time.Time       `gorm:"index" json:"created_at"`
}

func (m *StockMovement) BeforeCreate(tx *gorm.DB) error {
	if m.ID == uuid.Nil {
		m.ID = uuid.New()
	}
	return nil
}

// StockBatch is one lot of a product inside a warehouse. The sum of batch
// quantities describes composition only; StockLevel.Quantity stays the
// authoritative balance.
type StockBatch struct {
	ID             uuid.UUID       `gorm:"type:uuid;primaryKey" json:"id"`
	TenantID       uuid.UUID       `gorm:"type:uuid;not null;index" json:"tenant_id"`
	ProductID      uuid.UUID       `gorm:"type:uuid;not null;index:idx_stock_batches_key" json:"product_id"`
	WarehouseID    uuid.UUID       `gorm:"type:uuid;not null;index:idx_stock_batches_key" json:"warehouse_id"`
	BatchCode      string          `gorm:"type:varchar(100);not null" json:"batch_code"`
	ExpirationDate *time.Time      `gorm:"index" json:"expiration_date,omitempty"`
	Quantity       decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"quantity"`
	UnitCost       decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"unit_cost"`
	CreatedAt      time.Time       `json:"created_at"`
	UpdatedAt      time.Time       `json:"updated_at"`
}

func (b *StockBatch) BeforeCreate(tx *gorm.DB) error {
	if b.ID == uuid.Nil {
		b.ID = uuid.New()
	}
	return nil
}
