package deal

import (
	"context"

	"github.com/dealer/backend/internal/domain/shared"
	"github.com/google/uuid"
)

// ListFilter narrows a deal listing
type ListFilter struct {
	shared.Filter
	Status    *Status
	VehicleID *uuid.UUID
}

// Repository defines persistence for deals
type Repository interface {
	// FindByIDForTenant finds a deal within a tenant
	FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*Deal, error)

	// FindByIDForUpdate loads a deal and holds a row lock until the surrounding
	// transaction ends
	FindByIDForUpdate(ctx context.Context, tenantID, id uuid.UUID) (*Deal, error)

	// FindOpenByVehicle returns the open deal holding the vehicle, or ErrNotFound
	FindOpenByVehicle(ctx context.Context, tenantID, vehicleID uuid.UUID) (*Deal, error)

	// List returns a page of deals and the total count
	List(ctx context.Context, tenantID uuid.UUID, filter ListFilter) ([]Deal, int64, error)

	// Create inserts a new deal. A second open deal on the same vehicle is a CONFLICT.
	Create(ctx context.Context, d *Deal) error

	// SaveWithLock saves the deal if its version is unchanged since it was
	// loaded, and increments the version. Otherwise returns ErrConcurrencyConflict.
	SaveWithLock(ctx context.Context, d *Deal) error
}
