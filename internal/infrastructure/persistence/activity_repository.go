package persistence

import (
	"context"

	"github.com/dealer/backend/internal/domain/activity"
	"github.com/dealer/backend/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormActivityRepository stores the deal activity timeline
type GormActivityRepository struct {
	db *gorm.DB
}

// NewGormActivityRepository creates a new GormActivityRepository
func NewGormActivityRepository(db *gorm.DB) *GormActivityRepository {
	return &GormActivityRepository{db: db}
}

// Append stores an entry. Redelivering the same event is a no-op.
func (r *GormActivityRepository) Append(ctx context.Context, e *activity.Entry) error {
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "event_id"}}, DoNothing: true}).
		Create(models.DealActivityModelFromDomain(e)).Error
}

// ListByDeal returns a deal's activity oldest first
func (r *GormActivityRepository) ListByDeal(ctx context.Context, tenantID, dealID uuid.UUID) ([]activity.Entry, error) {
	var entryModels []models.DealActivityModel
	if err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND deal_id = ?", tenantID, dealID).
		Order("occurred_at ASC").
		Find(&entryModels).Error; err != nil {
		return nil, err
	}
	entries := make([]activity.Entry, len(entryModels))
	for i := range entryModels {
		entries[i] = entryModels[i].ToDomain()
	}
	return entries, nil
}

var _ activity.Repository = (*GormActivityRepository)(nil)
