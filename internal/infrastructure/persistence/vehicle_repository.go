package persistence

import (
	"context"
	"fmt"
	"time"

	"github.com/dealer/backend/internal/domain/shared"
	"github.com/dealer/backend/internal/domain/shared/valueobject"
	"github.com/dealer/backend/internal/domain/vehicle"
	"github.com/dealer/backend/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GormVehicleRepository implements vehicle.Repository using GORM
type GormVehicleRepository struct {
	db *gorm.DB
}

// NewGormVehicleRepository creates a new GormVehicleRepository
func NewGormVehicleRepository(db *gorm.DB) *GormVehicleRepository {
	return &GormVehicleRepository{db: db}
}

// FindByIDForTenant finds a vehicle by ID within a tenant
func (r *GormVehicleRepository) FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*vehicle.Vehicle, error) {
	var model models.VehicleModel
	if err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND id = ?", tenantID, id).
		First(&model).Error; err != nil {
		return nil, notFound(err, "vehicle", id)
	}
	return model.ToDomain(), nil
}

// ExistsByVRM reports whether the tenant already stocks the registration
func (r *GormVehicleRepository) ExistsByVRM(ctx context.Context, tenantID uuid.UUID, vrm string) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).
		Model(&models.VehicleModel{}).
		Where("tenant_id = ? AND vrm = ?", tenantID, valueobject.NormalizeVRM(vrm)).
		Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// Create inserts a vehicle. The insert runs in a nested transaction so a
// duplicate registration rolls back to a savepoint and leaves the caller's
// transaction usable.
func (r *GormVehicleRepository) Create(ctx context.Context, v *vehicle.Vehicle) error {
	model := models.VehicleModelFromDomain(v)
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return tx.Create(model).Error
	})
	if err != nil {
		if isUniqueViolation(err) {
			return shared.NewConflictError("Vehicle %s already exists", v.VRM).WithDetail("vrm", v.VRM)
		}
		return err
	}
	return nil
}

// UpdateStatus writes only the sales and stock status fields
func (r *GormVehicleRepository) UpdateStatus(ctx context.Context, v *vehicle.Vehicle) error {
	result := r.db.WithContext(ctx).
		Model(&models.VehicleModel{}).
		Where("tenant_id = ? AND id = ?", v.TenantID, v.ID).
		Updates(map[string]any{
			"sales_status": v.SalesStatus,
			"status":       v.Status,
			"sold_deal_id": v.SoldDealID,
			"sold_at":      v.SoldAt,
			"updated_at":   time.Now(),
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.NewNotFoundError("vehicle", v.ID)
	}
	return nil
}

// Delete removes a vehicle with its issues and preparation tasks
func (r *GormVehicleRepository) Delete(ctx context.Context, tenantID, id uuid.UUID) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("tenant_id = ? AND vehicle_id = ?", tenantID, id).
			Delete(&models.VehicleIssueModel{}).Error; err != nil {
			return fmt.Errorf("delete vehicle issues: %w", err)
		}
		if err := tx.Where("tenant_id = ? AND vehicle_id = ?", tenantID, id).
			Delete(&models.PrepTaskModel{}).Error; err != nil {
			return fmt.Errorf("delete prep tasks: %w", err)
		}
		result := tx.Where("tenant_id = ? AND id = ?", tenantID, id).Delete(&models.VehicleModel{})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return shared.NewNotFoundError("vehicle", id)
		}
		return nil
	})
}

// GormIssueRepository implements vehicle.IssueRepository using GORM
type GormIssueRepository struct {
	db *gorm.DB
}

// NewGormIssueRepository creates a new GormIssueRepository
func NewGormIssueRepository(db *gorm.DB) *GormIssueRepository {
	return &GormIssueRepository{db: db}
}

// CreateBatch inserts issues
func (r *GormIssueRepository) CreateBatch(ctx context.Context, issues []vehicle.Issue) error {
	if len(issues) == 0 {
		return nil
	}
	issueModels := make([]*models.VehicleIssueModel, len(issues))
	for i := range issues {
		issueModels[i] = models.VehicleIssueModelFromDomain(issues[i])
	}
	return r.db.WithContext(ctx).Create(issueModels).Error
}

// FindByVehicle lists a vehicle's issues oldest first
func (r *GormIssueRepository) FindByVehicle(ctx context.Context, tenantID, vehicleID uuid.UUID) ([]vehicle.Issue, error) {
	var issueModels []models.VehicleIssueModel
	if err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND vehicle_id = ?", tenantID, vehicleID).
		Order("created_at ASC, description ASC").
		Find(&issueModels).Error; err != nil {
		return nil, err
	}
	issues := make([]vehicle.Issue, len(issueModels))
	for i := range issueModels {
		issues[i] = issueModels[i].ToDomain()
	}
	return issues, nil
}

// ResolveWontFix closes the open issues among ids as Won't Fix
func (r *GormIssueRepository) ResolveWontFix(ctx context.Context, tenantID uuid.UUID, ids []uuid.UUID, at time.Time) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	result := r.db.WithContext(ctx).
		Model(&models.VehicleIssueModel{}).
		Where("tenant_id = ? AND id IN ? AND status IN ?", tenantID, ids,
			[]string{vehicle.IssueStatusOutstanding, vehicle.IssueStatusInProgress}).
		Updates(map[string]any{
			"status":      vehicle.IssueStatusWontFix,
			"resolved_at": at,
			"updated_at":  at,
		})
	if result.Error != nil {
		return 0, result.Error
	}
	return result.RowsAffected, nil
}

// GormPrepTaskRepository implements vehicle.PrepTaskRepository using GORM
type GormPrepTaskRepository struct {
	db *gorm.DB
}

// NewGormPrepTaskRepository creates a new GormPrepTaskRepository
func NewGormPrepTaskRepository(db *gorm.DB) *GormPrepTaskRepository {
	return &GormPrepTaskRepository{db: db}
}

// CreateBatch inserts tasks
func (r *GormPrepTaskRepository) CreateBatch(ctx context.Context, tasks []vehicle.PrepTask) error {
	if len(tasks) == 0 {
		return nil
	}
	taskModels := make([]*models.PrepTaskModel, len(tasks))
	for i := range tasks {
		taskModels[i] = models.PrepTaskModelFromDomain(tasks[i])
	}
	return r.db.WithContext(ctx).Create(taskModels).Error
}

// FindByVehicle lists a vehicle's tasks in order
func (r *GormPrepTaskRepository) FindByVehicle(ctx context.Context, tenantID, vehicleID uuid.UUID) ([]vehicle.PrepTask, error) {
	var taskModels []models.PrepTaskModel
	if err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND vehicle_id = ?", tenantID, vehicleID).
		Order("sort_order ASC").
		Find(&taskModels).Error; err != nil {
		return nil, err
	}
	tasks := make([]vehicle.PrepTask, len(taskModels))
	for i := range taskModels {
		tasks[i] = taskModels[i].ToDomain()
	}
	return tasks, nil
}

var (
	_ vehicle.Repository         = (*GormVehicleRepository)(nil)
	_ vehicle.IssueRepository    = (*GormIssueRepository)(nil)
	_ vehicle.PrepTaskRepository = (*GormPrepTaskRepository)(nil)
)
