package document

import (
	"context"
	"errors"
	"fmt"

	"github.com/dealer/backend/internal/application/transaction"
	"github.com/dealer/backend/internal/domain/deal"
	"github.com/dealer/backend/internal/domain/document"
	"github.com/dealer/backend/internal/domain/shared"
	"github.com/dealer/backend/internal/infrastructure/logger"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// DocumentService issues and serves sales documents on demand
type DocumentService struct {
	scope       transaction.Scope
	snapshotter *Snapshotter
	tokens      ShareTokens
}

// NewDocumentService creates a new DocumentService
func NewDocumentService(scope transaction.Scope, snapshotter *Snapshotter, tokens ShareTokens) *DocumentService {
	return &DocumentService{scope: scope, snapshotter: snapshotter, tokens: tokens}
}

// Issue snapshots a deal into a new document of the given type
func (s *DocumentService) Issue(ctx context.Context, tenantID, dealID uuid.UUID, docType document.Type, issuedBy string) (*document.SalesDocument, error) {
	if !docType.IsValid() {
		return nil, shared.NewValidationError("Unknown document type %q", docType).WithDetail("field", "type")
	}
	var doc *document.SalesDocument
	err := s.scope.Execute(ctx, func(repos transaction.Repositories) error {
		d, err := repos.Deals().FindByIDForTenant(ctx, tenantID, dealID)
		if err != nil {
			return err
		}
		if d.Status == deal.StatusCancelled {
			return shared.NewInvalidStateError("Cannot issue documents for a cancelled deal")
		}
		if docType != document.TypeInvoice && len(d.Payments) == 0 {
			return shared.NewValidationError("Deal has no payments to receipt")
		}
		if issuedBy == "" {
			issuedBy = d.TakenBy
		}
		doc, err = s.snapshotter.Issue(ctx, repos, d, docType, issuedBy)
		return err
	})
	if err != nil {
		return nil, err
	}
	return doc, nil
}

// Regenerate refreshes a regenerable document from the deal's current state
func (s *DocumentService) Regenerate(ctx context.Context, tenantID, documentID uuid.UUID) (*document.SalesDocument, error) {
	var doc *document.SalesDocument
	err := s.scope.Execute(ctx, func(repos transaction.Repositories) error {
		var err error
		doc, err = repos.Documents().FindByIDForTenant(ctx, tenantID, documentID)
		if err != nil {
			return err
		}
		if !doc.Type.Regenerable() {
			return shared.NewInvalidStateError("%s documents cannot be regenerated", doc.Type)
		}
		d, err := repos.Deals().FindByIDForTenant(ctx, tenantID, doc.DealID)
		if err != nil {
			return err
		}
		return s.snapshotter.Regenerate(ctx, repos, doc, d)
	})
	if err != nil {
		return nil, err
	}
	logger.L(ctx).Info("Document regenerated",
		zap.String("document_id", doc.ID.String()),
		zap.String("document_number", doc.DocumentNumber),
		zap.Int("version", doc.Version),
	)
	return doc, nil
}

// Get returns a document
func (s *DocumentService) Get(ctx context.Context, tenantID, documentID uuid.UUID) (*document.SalesDocument, error) {
	var doc *document.SalesDocument
	err := s.scope.Execute(ctx, func(repos transaction.Repositories) error {
		var err error
		doc, err = repos.Documents().FindByIDForTenant(ctx, tenantID, documentID)
		return err
	})
	return doc, err
}

// ListForDeal returns a deal's documents, oldest first
func (s *DocumentService) ListForDeal(ctx context.Context, tenantID, dealID uuid.UUID) ([]document.SalesDocument, error) {
	var docs []document.SalesDocument
	err := s.scope.Execute(ctx, func(repos transaction.Repositories) error {
		if _, err := repos.Deals().FindByIDForTenant(ctx, tenantID, dealID); err != nil {
			return err
		}
		var err error
		docs, err = repos.Documents().FindByDeal(ctx, tenantID, dealID)
		return err
	})
	return docs, err
}

// GetShared resolves a public share token. Any token problem reads as not found.
func (s *DocumentService) GetShared(ctx context.Context, token string) (*document.SalesDocument, error) {
	if s.tokens == nil {
		return nil, shared.ErrNotFound
	}
	tenantID, documentID, err := s.tokens.Parse(token)
	if err != nil {
		logger.L(ctx).Debug("Rejected share token", zap.Error(err))
		return nil, shared.ErrNotFound
	}
	doc, err := s.Get(ctx, tenantID, documentID)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, fmt.Errorf("load shared document: %w", err)
	}
	if doc.ShareToken != token {
		return nil, shared.ErrNotFound
	}
	return doc, nil
}
