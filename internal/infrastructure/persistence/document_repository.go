package persistence

import (
	"context"
	"fmt"
	"time"

	"github.com/dealer/backend/internal/domain/document"
	"github.com/dealer/backend/internal/domain/shared"
	"github.com/dealer/backend/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormDocumentRepository implements document.Repository using GORM
type GormDocumentRepository struct {
	db *gorm.DB
}

// NewGormDocumentRepository creates a new GormDocumentRepository
func NewGormDocumentRepository(db *gorm.DB) *GormDocumentRepository {
	return &GormDocumentRepository{db: db}
}

// Create stores a newly issued document. A reused number is a CONFLICT.
func (r *GormDocumentRepository) Create(ctx context.Context, doc *document.SalesDocument) error {
	if err := r.db.WithContext(ctx).Create(models.SalesDocumentModelFromDomain(doc)).Error; err != nil {
		if isUniqueViolation(err) {
			return shared.NewConflictError("Document number %s already issued", doc.DocumentNumber)
		}
		return err
	}
	return nil
}

// Update stores a regenerated document if nobody regenerated it first.
// doc.Version is expected to be one ahead of the stored row.
func (r *GormDocumentRepository) Update(ctx context.Context, doc *document.SalesDocument) error {
	model := models.SalesDocumentModelFromDomain(doc)
	result := r.db.WithContext(ctx).
		Model(model).
		Where("tenant_id = ? AND version = ?", doc.TenantID, doc.Version-1).
		Select("snapshot", "share_token", "regenerated_at", "version").
		Updates(model)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrConcurrencyConflict
	}
	return nil
}

// FindByIDForTenant finds a document by ID within a tenant
func (r *GormDocumentRepository) FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*document.SalesDocument, error) {
	var model models.SalesDocumentModel
	if err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND id = ?", tenantID, id).
		First(&model).Error; err != nil {
		return nil, notFound(err, "document", id)
	}
	return model.ToDomain(), nil
}

// FindByDeal lists a deal's documents in issue order
func (r *GormDocumentRepository) FindByDeal(ctx context.Context, tenantID, dealID uuid.UUID) ([]document.SalesDocument, error) {
	var docModels []models.SalesDocumentModel
	if err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND deal_id = ?", tenantID, dealID).
		Order("issued_at ASC, sequence ASC").
		Find(&docModels).Error; err != nil {
		return nil, err
	}
	docs := make([]document.SalesDocument, len(docModels))
	for i := range docModels {
		docs[i] = *docModels[i].ToDomain()
	}
	return docs, nil
}

// MaxSequence returns the highest issued sequence for the tenant and type
func (r *GormDocumentRepository) MaxSequence(ctx context.Context, tenantID uuid.UUID, docType document.Type) (int64, error) {
	var highest int64
	if err := r.db.WithContext(ctx).
		Model(&models.SalesDocumentModel{}).
		Where("tenant_id = ? AND type = ?", tenantID, docType).
		Select("COALESCE(MAX(sequence), 0)").
		Scan(&highest).Error; err != nil {
		return 0, err
	}
	return highest, nil
}

// GormDocumentCounter allocates document numbers from the document_counters
// table. The increment takes a row lock that is held until the caller's
// transaction ends, so concurrent issues of the same type are serialised and
// a rolled-back issue never leaves a gap that another caller reuses.
type GormDocumentCounter struct {
	db *gorm.DB
}

// NewGormDocumentCounter creates a new GormDocumentCounter
func NewGormDocumentCounter(db *gorm.DB) *GormDocumentCounter {
	return &GormDocumentCounter{db: db}
}

// Allocate returns the next number for the tenant and type
func (c *GormDocumentCounter) Allocate(ctx context.Context, tenantID uuid.UUID, docType document.Type, prefix string) (document.Number, error) {
	var seq int64
	err := c.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		seed, err := NewGormDocumentRepository(tx).MaxSequence(ctx, tenantID, docType)
		if err != nil {
			return fmt.Errorf("read highest document number: %w", err)
		}
		now := time.Now()
		if err := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&models.DocumentCounterModel{
			TenantID:  tenantID,
			DocType:   string(docType),
			LastValue: seed,
			UpdatedAt: now,
		}).Error; err != nil {
			return fmt.Errorf("seed document counter: %w", err)
		}

		if err := tx.Model(&models.DocumentCounterModel{}).
			Where("tenant_id = ? AND doc_type = ?", tenantID, string(docType)).
			Updates(map[string]any{
				"last_value": gorm.Expr("last_value + 1"),
				"updated_at": now,
			}).Error; err != nil {
			return fmt.Errorf("increment document counter: %w", err)
		}

		return tx.Model(&models.DocumentCounterModel{}).
			Where("tenant_id = ? AND doc_type = ?", tenantID, string(docType)).
			Select("last_value").
			Scan(&seq).Error
	})
	if err != nil {
		return document.Number{}, err
	}
	return document.Number{Sequence: seq, Value: document.FormatNumber(prefix, seq)}, nil
}

var (
	_ document.Repository = (*GormDocumentRepository)(nil)
	_ document.Counter    = (*GormDocumentCounter)(nil)
)
