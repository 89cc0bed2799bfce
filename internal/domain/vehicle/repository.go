package vehicle

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Repository defines persistence for stock vehicles. Each call is atomic on
// its own and joins the caller's transaction when one is open.
type Repository interface {
	// FindByIDForTenant finds a vehicle within a tenant
	FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*Vehicle, error)

	// ExistsByVRM reports whether the tenant already stocks a vehicle with this registration
	ExistsByVRM(ctx context.Context, tenantID uuid.UUID, vrm string) (bool, error)

	// Create inserts a new vehicle. A duplicate registration is a CONFLICT.
	Create(ctx context.Context, v *Vehicle) error

	// UpdateStatus writes only the sales/stock status fields
	UpdateStatus(ctx context.Context, v *Vehicle) error

	// Delete removes a vehicle with its issues and preparation tasks
	Delete(ctx context.Context, tenantID, id uuid.UUID) error
}

// IssueRepository defines persistence for vehicle issues
type IssueRepository interface {
	// CreateBatch inserts issues
	CreateBatch(ctx context.Context, issues []Issue) error

	// FindByVehicle lists a vehicle's issues
	FindByVehicle(ctx context.Context, tenantID, vehicleID uuid.UUID) ([]Issue, error)

	// ResolveWontFix closes the given issues as won't fix and returns how many changed
	ResolveWontFix(ctx context.Context, tenantID uuid.UUID, ids []uuid.UUID, at time.Time) (int64, error)
}

// PrepTaskRepository defines persistence for preparation tasks
type PrepTaskRepository interface {
	// CreateBatch inserts tasks
	CreateBatch(ctx context.Context, tasks []PrepTask) error

	// FindByVehicle lists a vehicle's tasks in order
	FindByVehicle(ctx context.Context, tenantID, vehicleID uuid.UUID) ([]PrepTask, error)
}
