package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	ActionRecordMovement    = "RECORD_MOVEMENT"
	ActionCreateReservation = "CREATE_RESERVATION"
	ActionUpdateReservation = "UPDATE_RESERVATION"
	ActionCreateBatch       = "CREATE_BATCH"
	ActionCreateTransfer    = "CREATE_TRANSFER"
	ActionShipTransfer      = "SHIP_TRANSFER"
	ActionReceiveTransfer   = "RECEIVE_TRANSFER"
	ActionCancelTransfer    = "CANCEL_TRANSFER"
	ActionCreateProduction  = "CREATE_PRODUCTION_ORDER"
	ActionStartProduction   = "START_PRODUCTION_ORDER"
	ActionFinishProduction  = "FINISH_PRODUCTION_ORDER"
	ActionCancelProduction  = "CANCEL_PRODUCTION_ORDER"
	ActionCreateCount       = "CREATE_INVENTORY_COUNT"
	ActionRegisterCountItem = "REGISTER_COUNT_ITEM"
	ActionApproveCount      = "APPROVE_INVENTORY_COUNT"
	ActionSetKitComponents  = "SET_KIT_COMPONENTS"
	ActionCreateProduct     = "CREATE_PRODUCT"
	ActionUpdateProduct     = "UPDATE_PRODUCT"
	ActionDeleteProduct     = "DELETE_PRODUCT"
	ActionCreateWarehouse   = "CREATE_WAREHOUSE"
)

// AuditLog tracks Who, What, and When for critical system changes
type AuditLog struct {
	ID         uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	TenantID   uuid.UUID  `gorm:"type:uuid;not null;index" json:"tenant_id"`
	UserID     *uuid.UUID `gorm:"type:uuid;index" json:"user_id"` // Nullable gracefully if automated job
	Action     string     `gorm:"type:varchar(50);not null;index" json:"action"`
	EntityID   string     `gorm:"type:varchar(50);index" json:"entity_id"`        // Reference string (uuid/number)
	EntityName string     `gorm:"type:varchar(255)" json:"entity_name,omitempty"` // Human readable name
	Details    string     `gorm:"type:text" json:"details"`                       // Serialized JSON payload of the action
	CreatedAt  time.Time  `gorm:"index" json:"created_at"`
}

func (a *AuditLog) BeforeCreate(tx *gorm.DB) error {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	return nil
}
