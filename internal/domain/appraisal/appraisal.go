// Package appraisal is the read model of dealer appraisals of trade-in vehicles.
package appraisal

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Issue categories and statuses as recorded by appraisers
const (
	StatusOutstanding = "outstanding"
	StatusInProgress  = "in_progress"
	StatusResolved    = "resolved"
)

// Appraisal is an inspection of a vehicle offered in part-exchange
type Appraisal struct {
	ID          uuid.UUID
	TenantID    uuid.UUID
	VRM         string
	AppraisedBy string
	AppraisedAt time.Time
	Issues      []Issue
}

// Issue is a defect noted during appraisal
type Issue struct {
	ID          uuid.UUID
	AppraisalID uuid.UUID
	Category    string
	Description string
	Status      string
	Notes       string
}

// Repository is a read-only lookup of appraisals
type Repository interface {
	// FindByIDForTenant returns the appraisal with its issues
	FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*Appraisal, error)
}
