// Package activity records the timeline of what happened on a deal.
package activity

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Entry is one line on a deal's timeline
type Entry struct {
	ID         uuid.UUID
	TenantID   uuid.UUID
	DealID     uuid.UUID
	EventID    uuid.UUID
	EventType  string
	Summary    string
	Payload    []byte
	OccurredAt time.Time
}

// Repository persists timeline entries
type Repository interface {
	// Append stores an entry. Re-appending the same event id is a no-op.
	Append(ctx context.Context, e *Entry) error

	// ListByDeal returns a deal's entries oldest first
	ListByDeal(ctx context.Context, tenantID, dealID uuid.UUID) ([]Entry, error)
}
