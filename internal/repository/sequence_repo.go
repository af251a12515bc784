package repository

import (
	"context"
	"errors"
	"fmt"

	"backend/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// sequencePrefixes maps sequence entities to their human-facing prefixes.
var sequencePrefixes = map[string]string{
	model.SequenceTransfer:        "TRF",
	model.SequenceProductionOrder: "OP",
	model.SequenceInventoryCount:  "INV",
}

// SequenceRepository hands out sequential document numbers (TRF-00001,
// OP-00001, INV-00001). The counter row is locked for the duration of the
// surrounding transaction, so two concurrent creates never share a number.
type SequenceRepository interface {
	NextNumber(ctx context.Context, tenantID uuid.UUID, entity string) (string, error)
}

type sequenceRepository struct {
	db *gorm.DB
}

func NewSequenceRepository(db *gorm.DB) SequenceRepository {
	return &sequenceRepository{db: db}
}

func (r *sequenceRepository) NextNumber(ctx context.Context, tenantID uuid.UUID, entity string) (string, error) {
	prefix, ok := sequencePrefixes[entity]
	if !ok {
		return "", fmt.Errorf("unknown sequence entity: %s", entity)
	}

	db := GetDB(ctx, r.db)

	var seq model.DocumentSequence
	err := lockForUpdate(db).
		Where("tenant_id = ? AND entity = ?", tenantID, entity).
		First(&seq).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		seq = model.DocumentSequence{TenantID: tenantID, Entity: entity, Next: 1}
		if createErr := db.Clauses(clause.OnConflict{DoNothing: true}).Create(&seq).Error; createErr != nil {
			return "", createErr
		}
		if err := lockForUpdate(db).
			Where("tenant_id = ? AND entity = ?", tenantID, entity).
			First(&seq).Error; err != nil {
			return "", err
		}
	} else if err != nil {
		return "", err
	}

	number := fmt.Sprintf("%s-%05d", prefix, seq.Next)
	seq.Next++
	if err := db.Save(&seq).Error; err != nil {
		return "", err
	}
	return number, nil
}
