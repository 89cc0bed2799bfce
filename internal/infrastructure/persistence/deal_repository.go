package persistence

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/dealer/backend/internal/domain/deal"
	"github.com/dealer/backend/internal/domain/shared"
	"github.com/dealer/backend/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var terminalDealStatuses = []string{string(deal.StatusCompleted), string(deal.StatusCancelled)}

// GormDealRepository implements deal.Repository using GORM
type GormDealRepository struct {
	db *gorm.DB
}

// NewGormDealRepository creates a new GormDealRepository
func NewGormDealRepository(db *gorm.DB) *GormDealRepository {
	return &GormDealRepository{db: db}
}

// FindByIDForTenant finds a deal by ID within a tenant
func (r *GormDealRepository) FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*deal.Deal, error) {
	var model models.DealModel
	if err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND id = ?", tenantID, id).
		First(&model).Error; err != nil {
		return nil, notFound(err, "deal", id)
	}
	return model.ToDomain(), nil
}

// FindByIDForUpdate loads the deal with SELECT ... FOR UPDATE. The row stays
// locked until the surrounding transaction commits or rolls back.
func (r *GormDealRepository) FindByIDForUpdate(ctx context.Context, tenantID, id uuid.UUID) (*deal.Deal, error) {
	var model models.DealModel
	if err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("tenant_id = ? AND id = ?", tenantID, id).
		First(&model).Error; err != nil {
		return nil, notFound(err, "deal", id)
	}
	return model.ToDomain(), nil
}

// FindOpenByVehicle returns the non-terminal deal holding the vehicle
func (r *GormDealRepository) FindOpenByVehicle(ctx context.Context, tenantID, vehicleID uuid.UUID) (*deal.Deal, error) {
	var model models.DealModel
	if err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND vehicle_id = ? AND status NOT IN ?", tenantID, vehicleID, terminalDealStatuses).
		First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// List returns a page of deals and the total matching count
func (r *GormDealRepository) List(ctx context.Context, tenantID uuid.UUID, filter deal.ListFilter) ([]deal.Deal, int64, error) {
	query := r.db.WithContext(ctx).Model(&models.DealModel{}).Where("tenant_id = ?", tenantID)
	if filter.Status != nil {
		query = query.Where("status = ?", *filter.Status)
	}
	if filter.VehicleID != nil {
		query = query.Where("vehicle_id = ?", *filter.VehicleID)
	}
	if search := strings.TrimSpace(filter.Search); search != "" {
		like := "%" + strings.ToLower(search) + "%"
		query = query.Where("LOWER(notes) LIKE ? OR LOWER(taken_by) LIKE ?", like, like)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("count deals: %w", err)
	}

	orderBy := ValidateSortField(filter.OrderBy, DealSortFields, "created_at")
	orderDir := ValidateSortOrder(filter.OrderDir)

	var dealModels []models.DealModel
	if err := query.
		Order(fmt.Sprintf("%s %s", orderBy, orderDir)).
		Offset(filter.Offset()).
		Limit(filter.Limit()).
		Find(&dealModels).Error; err != nil {
		return nil, 0, fmt.Errorf("list deals: %w", err)
	}

	deals := make([]deal.Deal, len(dealModels))
	for i := range dealModels {
		deals[i] = *dealModels[i].ToDomain()
	}
	return deals, total, nil
}

// Create inserts a new deal. The open-deal index turns a second open deal on
// the same vehicle into a CONFLICT.
func (r *GormDealRepository) Create(ctx context.Context, d *deal.Deal) error {
	model := models.DealModelFromDomain(d)
	if err := r.db.WithContext(ctx).Create(model).Error; err != nil {
		if isUniqueViolation(err) {
			return shared.NewConflictError("Vehicle already has an open deal").
				WithDetail("vehicleId", d.VehicleID.String())
		}
		return err
	}
	return nil
}

// SaveWithLock writes every column if the stored version still matches the
// loaded one, then bumps the version on d
func (r *GormDealRepository) SaveWithLock(ctx context.Context, d *deal.Deal) error {
	model := models.DealModelFromDomain(d)
	next := d.Version + 1
	now := time.Now()
	model.Version = next
	model.UpdatedAt = now

	result := r.db.WithContext(ctx).
		Model(model).
		Where("tenant_id = ? AND version = ?", d.TenantID, d.Version).
		Select("*").
		Omit("id", "tenant_id", "created_at").
		Updates(model)
	if result.Error != nil {
		if isUniqueViolation(result.Error) {
			return shared.NewConflictError("Vehicle already has an open deal")
		}
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrConcurrencyConflict
	}

	d.Version = next
	d.UpdatedAt = now
	return nil
}

var _ deal.Repository = (*GormDealRepository)(nil)
