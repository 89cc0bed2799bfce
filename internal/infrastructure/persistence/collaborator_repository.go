package persistence

import (
	"context"

	"github.com/dealer/backend/internal/domain/appraisal"
	"github.com/dealer/backend/internal/domain/contact"
	"github.com/dealer/backend/internal/domain/dealer"
	"github.com/dealer/backend/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GormContactRepository reads customers and finance companies
type GormContactRepository struct {
	db *gorm.DB
}

// NewGormContactRepository creates a new GormContactRepository
func NewGormContactRepository(db *gorm.DB) *GormContactRepository {
	return &GormContactRepository{db: db}
}

// FindByIDForTenant finds a contact by ID within a tenant
func (r *GormContactRepository) FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*contact.Contact, error) {
	var model models.ContactModel
	if err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND id = ?", tenantID, id).
		First(&model).Error; err != nil {
		return nil, notFound(err, "contact", id)
	}
	return model.ToDomain(), nil
}

// GormAppraisalRepository reads trade-in appraisals with their issues
type GormAppraisalRepository struct {
	db *gorm.DB
}

// NewGormAppraisalRepository creates a new GormAppraisalRepository
func NewGormAppraisalRepository(db *gorm.DB) *GormAppraisalRepository {
	return &GormAppraisalRepository{db: db}
}

// FindByIDForTenant finds an appraisal by ID within a tenant
func (r *GormAppraisalRepository) FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*appraisal.Appraisal, error) {
	var model models.AppraisalModel
	if err := r.db.WithContext(ctx).
		Preload("Issues", func(db *gorm.DB) *gorm.DB {
			return db.Order("created_at ASC")
		}).
		Where("tenant_id = ? AND id = ?", tenantID, id).
		First(&model).Error; err != nil {
		return nil, notFound(err, "appraisal", id)
	}
	return model.ToDomain(), nil
}

// GormDealerRepository reads the dealership profile
type GormDealerRepository struct {
	db *gorm.DB
}

// NewGormDealerRepository creates a new GormDealerRepository
func NewGormDealerRepository(db *gorm.DB) *GormDealerRepository {
	return &GormDealerRepository{db: db}
}

// FindByTenant returns the tenant's dealer profile
func (r *GormDealerRepository) FindByTenant(ctx context.Context, tenantID uuid.UUID) (*dealer.Profile, error) {
	var model models.DealerProfileModel
	if err := r.db.WithContext(ctx).
		Where("tenant_id = ?", tenantID).
		First(&model).Error; err != nil {
		return nil, notFound(err, "dealer profile", tenantID)
	}
	return model.ToDomain(), nil
}

var (
	_ contact.Repository   = (*GormContactRepository)(nil)
	_ appraisal.Repository = (*GormAppraisalRepository)(nil)
	_ dealer.Repository    = (*GormDealerRepository)(nil)
)
