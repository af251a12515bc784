package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Product represents a sellable or consumable item. Kits additionally carry
// component definitions in ProductKitItem.
type Product struct {
	ID        uuid.UUID       `gorm:"type:uuid;primaryKey" json:"id"`
	TenantID  uuid.UUID       `gorm:"type:uuid;not null;index:idx_products_tenant_sku,unique" json:"tenant_id"`
	SKU       string          `gorm:"type:varchar(100);not null;index:idx_products_tenant_sku,unique" json:"sku"`
	Name      string          `gorm:"type:varchar(255);not null" json:"name"`
	IsKit     bool            `gorm:"default:false" json:"is_kit"`
	Active    bool            `gorm:"default:true;index" json:"active"`
	CostPrice decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"cost_price"`
	SalePrice decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"sale_price"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
	DeletedAt gorm.DeletedAt  `gorm:"index" json:"-"`
}

func (p *Product) BeforeCreate(tx *gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return nil
}

// Warehouse is a physical or logical stock location within a tenant.
type Warehouse struct {
	ID        uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	TenantID  uuid.UUID      `gorm:"type:uuid;not null;index" json:"tenant_id"`
	Name      string         `gorm:"type:varchar(255);not null" json:"name"`
	Code      string         `gorm:"type:varchar(50)" json:"code"`
	Active    bool           `gorm:"default:true" json:"active"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

func (w *Warehouse) BeforeCreate(tx *gorm.DB) error {
	if w.ID == uuid.Nil {
		w.ID = uuid.New()
	}
	return nil
}
