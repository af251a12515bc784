package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// TransferStatus constants
const (
	TransferDraft     = "draft"
	TransferInTransit = "in_transit"
	TransferReceived  = "received"
	TransferCancelled = "cancelled"
)

// StockTransfer moves stock between two warehouses of the same tenant with an
// intermediate in-transit state. Item unit costs are frozen at draft time so
// the destination inherits the transfer's cost, not a re-priced value.
type StockTransfer struct {
	ID                     uuid.UUID           `gorm:"type:uuid;primaryKey" json:"id"`
	TenantID               uuid.UUID           `gorm:"type:uuid;not null;index:idx_stock_transfers_number,unique" json:"tenant_id"`
	Number                 string              `gorm:"type:varchar(20);not null;index:idx_stock_transfers_number,unique" json:"number"`
	SourceWarehouseID      uuid.UUID           `gorm:"type:uuid;not null;index" json:"source_warehouse_id"`
	SourceWarehouse        *Warehouse          `gorm:"foreignKey:SourceWarehouseID" json:"source_warehouse,omitempty"`
	DestinationWarehouseID uuid.UUID           `gorm:"type:uuid;not null;index" json:"destination_warehouse_id"`
	DestinationWarehouse   *Warehouse          `gorm:"foreignKey:DestinationWarehouseID" json:"destination_warehouse,omitempty"`
	Status                 string              `gorm:"type:varchar(20);not null;default:'draft';index" json:"status"`
	Notes                  string              `gorm:"type:text" json:"notes,omitempty"`
	Items                  []StockTransferItem `gorm:"foreignKey:TransferID" json:"items"`
	CreatedBy              *uuid.UUID          `gorm:"type:uuid" json:"created_by,omitempty"`
	ShippedAt              *time.Time          `json:"shipped_at,omitempty"`
	ReceivedAt             *time.Time          `json:"received_at,omitempty"`
	CreatedAt              time.Time           `json:"created_at"`
	UpdatedAt              time.Time           `json:"updated_at"`
}

func (t *StockTransfer) BeforeCreate(tx *gorm.DB) error {
	if t.ID == uuid.Nil {
		t.ID = uuid.New()
	}
	return nil
}

// StockTransferItem is one product line inside a transfer.
type StockTransferItem struct {
	ID         uuid.UUID       `gorm:"type:uuid;primaryKey" json:"id"`
	TransferID uuid.UUID       `gorm:"type:uuid;not null;index" json:"transfer_id"`
	ProductID  uuid.UUID       `gorm:"type:uuid;not null;index" json:"product_id"`
	Product    *Product        `gorm:"foreignKey:ProductID" json:"product,omitempty"`
	Quantity   decimal.Decimal `gorm:"type:decimal(20,4);not null" json:"quantity"`
	UnitCost   decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"unit_cost"`
}

func (i *StockTransferItem) BeforeCreate(tx *gorm.DB) error {
	if i.ID == uuid.Nil {
		i.ID = uuid.New()
	}
	return nil
}
