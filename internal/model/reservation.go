package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// ReservationStatus constants
const (
	ReservationReserved  = "reserved"
	ReservationReleased  = "released"
	ReservationCancelled = "cancelled"
	ReservationExpired   = "expired"
	ReservationConsumed  = "consumed"
)

// TerminalReservationStatus reports whether a status admits no further
// transition. Everything except "reserved" is terminal.
func TerminalReservationStatus(status string) bool {
	switch status {
	case ReservationReleased, ReservationCancelled, ReservationExpired, ReservationConsumed:
		return true
	}
	return false
}

// StockReservation is a soft hold against available quantity for a pending
// order. It never changes the physical balance; consumption happens through
// a separate exit movement.
type StockReservation struct {
	ID          uuid.UUID       `gorm:"type:uuid;primaryKey" json:"id"`
	TenantID    uuid.UUID       `gorm:"type:uuid;not null;index" json:"tenant_id"`
	OrderID     uuid.UUID       `gorm:"type:uuid;not null;index" json:"order_id"`
	OrderType   string          `gorm:"type:varchar(30);not null" json:"order_type"`
	ProductID   uuid.UUID       `gorm:"type:uuid;not null;index" json:"product_id"`
	WarehouseID uuid.UUID       `gorm:"type:uuid;not null;index" json:"warehouse_id"`
	Quantity    decimal.Decimal `gorm:"type:decimal(20,4);not null" json:"quantity"`
	Status      string          `gorm:"type:varchar(20);not null;default:'reserved';index" json:"status"`
	ExpiresAt   *time.Time      `gorm:"index" json:"expires_at,omitempty"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
}

func (r *StockReservation) BeforeCreate(tx *gorm.DB) error {
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	return nil
}
