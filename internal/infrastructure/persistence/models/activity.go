package models

import (
	"time"

	"github.com/dealer/backend/internal/domain/activity"
	"github.com/google/uuid"
)

// DealActivityModel is one entry on a deal's activity timeline
type DealActivityModel struct {
	ID         uuid.UUID `gorm:"type:uuid;primaryKey"`
	TenantID   uuid.UUID `gorm:"type:uuid;not null;index:idx_deal_activities_deal,priority:1"`
	DealID     uuid.UUID `gorm:"type:uuid;not null;index:idx_deal_activities_deal,priority:2"`
	EventID    uuid.UUID `gorm:"type:uuid;not null;uniqueIndex"`
	EventType  string    `gorm:"type:varchar(50);not null"`
	Summary    string    `gorm:"type:text"`
	Payload    string    `gorm:"type:jsonb"`
	OccurredAt time.Time `gorm:"not null"`
}

// TableName returns the table name for GORM
func (DealActivityModel) TableName() string {
	return "deal_activities"
}

// ToDomain converts the persistence model to a domain Entry
func (m *DealActivityModel) ToDomain() activity.Entry {
	return activity.Entry{
		ID:         m.ID,
		TenantID:   m.TenantID,
		DealID:     m.DealID,
		EventID:    m.EventID,
		EventType:  m.EventType,
		Summary:    m.Summary,
		Payload:    []byte(m.Payload),
		OccurredAt: m.OccurredAt,
	}
}

// DealActivityModelFromDomain creates a persistence model from a domain Entry
func DealActivityModelFromDomain(e *activity.Entry) *DealActivityModel {
	return &DealActivityModel{
		ID:         e.ID,
		TenantID:   e.TenantID,
		DealID:     e.DealID,
		EventID:    e.EventID,
		EventType:  e.EventType,
		Summary:    e.Summary,
		Payload:    string(e.Payload),
		OccurredAt: e.OccurredAt,
	}
}
