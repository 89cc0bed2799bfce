package document

import (
	"context"

	"github.com/google/uuid"
)

// Counter allocates document numbers. Allocation must be atomic per
// tenant and type: two callers never receive the same sequence.
type Counter interface {
	Allocate(ctx context.Context, tenantID uuid.UUID, docType Type, prefix string) (Number, error)
}

// Repository defines persistence for sales documents
type Repository interface {
	// Create stores a newly issued document
	Create(ctx context.Context, doc *SalesDocument) error

	// Update stores a regenerated document, guarded by its version
	Update(ctx context.Context, doc *SalesDocument) error

	// FindByIDForTenant finds a document within a tenant
	FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*SalesDocument, error)

	// FindByDeal lists a deal's documents, oldest first
	FindByDeal(ctx context.Context, tenantID, dealID uuid.UUID) ([]SalesDocument, error)

	// MaxSequence returns the highest issued sequence for tenant and type, 0 if none
	MaxSequence(ctx context.Context, tenantID uuid.UUID, docType Type) (int64, error)
}
