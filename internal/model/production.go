package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// ProductionStatus constants
const (
	ProductionPending    = "pending"
	ProductionInProgress = "in_progress"
	ProductionFinished   = "finished"
	ProductionCancelled  = "cancelled"
)

// ProductKitItem is one BOM line: the kit product consumes QuantityPerUnit of
// the component for every unit produced. Replacing a kit's components is a
// full delete-then-insert.
type ProductKitItem struct {
	ID                 uuid.UUID       `gorm:"type:uuid;primaryKey" json:"id"`
	TenantID           uuid.UUID       `gorm:"type:uuid;not null;index" json:"tenant_id"`
	KitProductID       uuid.UUID       `gorm:"type:uuid;not null;index" json:"kit_product_id"`
	ComponentProductID uuid.UUID       `gorm:"type:uuid;not null;index" json:"component_product_id"`
	ComponentProduct   *Product        `gorm:"foreignKey:ComponentProductID" json:"component_product,omitempty"`
	QuantityPerUnit    decimal.Decimal `gorm:"type:decimal(20,4);not null" json:"quantity_per_unit"`
	CreatedAt          time.Time       `json:"created_at"`
}

func (k *ProductKitItem) BeforeCreate(tx *gorm.DB) error {
	if k.ID == uuid.Nil {
		k.ID = uuid.New()
	}
	return nil
}

// ProductionOrder produces a kit product from its components. Items are
// expanded from the BOM at creation; nothing moves until the order starts.
type ProductionOrder struct {
	ID          uuid.UUID             `gorm:"type:uuid;primaryKey" json:"id"`
	TenantID    uuid.UUID             `gorm:"type:uuid;not null;index:idx_production_orders_number,unique" json:"tenant_id"`
	Number      string                `gorm:"type:varchar(20);not null;index:idx_production_orders_number,unique" json:"number"`
	ProductID   uuid.UUID             `gorm:"type:uuid;not null;index" json:"product_id"`
	Product     *Product              `gorm:"foreignKey:ProductID" json:"product,omitempty"`
	WarehouseID uuid.UUID             `gorm:"type:uuid;not null;index" json:"warehouse_id"`
	Quantity    decimal.Decimal       `gorm:"type:decimal(20,4);not null" json:"quantity"`
	Status      string                `gorm:"type:varchar(20);not null;default:'pending';index" json:"status"`
	Items       []ProductionOrderItem `gorm:"foreignKey:ProductionOrderID" json:"items"`
	CreatedBy   *uuid.UUID            `gorm:"type:uuid" json:"created_by,omitempty"`
	StartedAt   *time.Time            `json:"started_at,omitempty"`
	FinishedAt  *time.Time            `json:"finished_at,omitempty"`
	CreatedAt   time.Time             `json:"created_at"`
	UpdatedAt   time.Time             `json:"updated_at"`
}

func (o *ProductionOrder) BeforeCreate(tx *gorm.DB) error {
	if o.ID == uuid.Nil {
		o.ID = uuid.New()
	}
	return nil
}

// ProductionOrderItem tracks one component requirement of a production order.
type ProductionOrderItem struct {
	ID                uuid.UUID       `gorm:"type:uuid;primaryKey" json:"id"`
	ProductionOrderID uuid.UUID       `gorm:"type:uuid;not null;index" json:"production_order_id"`
	ProductID         uuid.UUID       `gorm:"type:uuid;not null;index" json:"product_id"`
	Product           *Product        `gorm:"foreignKey:ProductID" json:"product,omitempty"`
	QuantityRequired  decimal.Decimal `gorm:"type:decimal(20,4);not null" json:"quantity_required"`
	QuantityConsumed  decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"quantity_consumed"`
}

func (i *ProductionOrderItem) BeforeCreate(tx *gorm.DB) error {
	if i.ID == uuid.Nil {
		i.ID = uuid.New()
	}
	return nil
}
