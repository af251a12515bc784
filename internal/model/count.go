package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// InventoryCountStatus constants
const (
	CountStatusCounting = "counting"
	CountStatusReview   = "review"
	CountStatusApproved = "approved"
)

// CountItemStatus constants
const (
	CountItemPending  = "pending"
	CountItemCounted  = "counted"
	CountItemAdjusted = "adjusted"
)

// CountType constants
const (
	CountTypeFull    = "full"
	CountTypePartial = "partial"
)

// InventoryCount is a physical count session for one warehouse. With
// BlindCount set, system quantities are withheld from API reads while an
// item is still pending.
type InventoryCount struct {
	ID          uuid.UUID            `gorm:"type:uuid;primaryKey" json:"id"`
	TenantID    uuid.UUID            `gorm:"type:uuid;not null;index:idx_inventory_counts_number,unique" json:"tenant_id"`
	Number      string               `gorm:"type:varchar(20);not null;index:idx_inventory_counts_number,unique" json:"number"`
	WarehouseID uuid.UUID            `gorm:"type:uuid;not null;index" json:"warehouse_id"`
	Warehouse   *Warehouse           `gorm:"foreignKey:WarehouseID" json:"warehouse,omitempty"`
	Type        string               `gorm:"type:varchar(10);not null" json:"type"`
	Status      string               `gorm:"type:varchar(20);not null;default:'counting';index" json:"status"`
	BlindCount  bool                 `gorm:"default:false" json:"blind_count"`
	Notes       string               `gorm:"type:text" json:"notes,omitempty"`
	Items       []InventoryCountItem `gorm:"foreignKey:CountID" json:"items"`
	CreatedBy   *uuid.UUID           `gorm:"type:uuid" json:"created_by,omitempty"`
	ApprovedBy  *uuid.UUID           `gorm:"type:uuid" json:"approved_by,omitempty"`
	ApprovedAt  *time.Time           `json:"approved_at,omitempty"`
	CreatedAt   time.Time            `json:"created_at"`
	UpdatedAt   time.Time            `json:"updated_at"`
}

func (c *InventoryCount) BeforeCreate(tx *gorm.DB) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	return nil
}

// InventoryCountItem freezes the system quantity of one product at count
// creation. CountedQuantity stays nil until the counter registers a value.
type InventoryCountItem struct {
	ID              uuid.UUID        `gorm:"type:uuid;primaryKey" json:"id"`
	CountID         uuid.UUID        `gorm:"type:uuid;not null;index:idx_count_items_product,unique" json:"count_id"`
	ProductID       uuid.UUID        `gorm:"type:uuid;not null;index:idx_count_items_product,unique" json:"product_id"`
	Product         *Product         `gorm:"foreignKey:ProductID" json:"product,omitempty"`
	SystemQuantity  decimal.Decimal  `gorm:"type:decimal(20,4);default:0" json:"system_quantity"`
	CountedQuantity *decimal.Decimal `gorm:"type:decimal(20,4)" json:"counted_quantity,omitempty"`
	Difference      decimal.Decimal  `gorm:"type:decimal(20,4);default:0" json:"difference"`
	Status          string           `gorm:"type:varchar(20);not null;default:'pending'" json:"status"`
	Notes           string           `gorm:"type:text" json:"notes,omitempty"`
	CountedBy       *uuid.UUID       `gorm:"type:uuid" json:"counted_by,omitempty"`
	CountedAt       *time.Time       `json:"counted_at,omitempty"`
}

func (i *InventoryCountItem) BeforeCreate(tx *gorm.DB) error {
	if i.ID == uuid.Nil {
		i.ID = uuid.New()
	}
	return nil
}
