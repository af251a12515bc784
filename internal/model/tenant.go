package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// TenantSettings holds per-tenant policy switches consulted by the stock
// services. Missing row means all defaults.
type TenantSettings struct {
	ID                 uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	TenantID           uuid.UUID `gorm:"type:uuid;not null;uniqueIndex" json:"tenant_id"`
	AllowNegativeStock bool      `gorm:"default:false" json:"allow_negative_stock"`
	CreatedAt          time.Time `json:"created_at"`
	UpdatedAt          time.Time `json:"updated_at"`
}

func (s *TenantSettings) BeforeCreate(tx *gorm.DB) error {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	return nil
}

// SequenceEntity constants for DocumentSequence.Entity
const (
	SequenceTransfer        = "transfer"
	SequenceProductionOrder = "production_order"
	SequenceInventoryCount  = "inventory_count"
)

// DocumentSequence backs human-facing numbers (TRF-00001, OP-00001,
// INV-00001). The row is incremented under a row lock so concurrent creates
// never hand out the same number.
type DocumentSequence struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	TenantID  uuid.UUID `gorm:"type:uuid;not null;index:idx_document_sequences_key,unique" json:"tenant_id"`
	Entity    string    `gorm:"type:varchar(30);not null;index:idx_document_sequences_key,unique" json:"entity"`
	Next      int64     `gorm:"not null;default:1" json:"next"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (s *DocumentSequence) BeforeCreate(tx *gorm.DB) error {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	return nil
}
