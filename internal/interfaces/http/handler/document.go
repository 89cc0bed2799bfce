package handler

import (
	"context"
	"time"

	docapp "github.com/dealer/backend/internal/application/document"
	"github.com/dealer/backend/internal/domain/document"
	"github.com/dealer/backend/internal/interfaces/http/middleware"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// PublicDocumentPath is where share tokens resolve, relative to the API root
const PublicDocumentPath = "/public/documents/"

// DocumentService issues and serves sales documents
type DocumentService interface {
	Issue(ctx context.Context, tenantID, dealID uuid.UUID, docType document.Type, issuedBy string) (*document.SalesDocument, error)
	Regenerate(ctx context.Context, tenantID, documentID uuid.UUID) (*document.SalesDocument, error)
	Get(ctx context.Context, tenantID, documentID uuid.UUID) (*document.SalesDocument, error)
	ListForDeal(ctx context.Context, tenantID, dealID uuid.UUID) ([]document.SalesDocument, error)
	GetShared(ctx context.Context, token string) (*document.SalesDocument, error)
}

var _ DocumentService = (*docapp.DocumentService)(nil)

// IssueDocumentRequest asks for a new document on a deal
type IssueDocumentRequest struct {
	Type string `json:"type" binding:"required,oneof=DEPOSIT_RECEIPT INVOICE PAYMENT_RECEIPT"`
}

// DocumentResponse is an issued document with its frozen snapshot
type DocumentResponse struct {
	ID             uuid.UUID         `json:"id"`
	DealID         uuid.UUID         `json:"dealId"`
	Type           document.Type     `json:"type"`
	DocumentNumber string            `json:"documentNumber"`
	Sequence       int64             `json:"sequence"`
	Snapshot       document.Snapshot `json:"snapshot"`
	SharePath      string            `json:"sharePath,omitempty"`
	IssuedBy       string            `json:"issuedBy,omitempty"`
	IssuedAt       time.Time         `json:"issuedAt"`
	RegeneratedAt  *time.Time        `json:"regeneratedAt,omitempty"`
	Version        int               `json:"version"`
}

// SharedDocumentResponse is the customer-facing view behind a share link
type SharedDocumentResponse struct {
	Type           document.Type     `json:"type"`
	DocumentNumber string            `json:"documentNumber"`
	Snapshot       document.Snapshot `json:"snapshot"`
	IssuedAt       time.Time         `json:"issuedAt"`
}

func toDocumentResponse(doc *document.SalesDocument) DocumentResponse {
	resp := DocumentResponse{
		ID:             doc.ID,
		DealID:         doc.DealID,
		Type:           doc.Type,
		DocumentNumber: doc.DocumentNumber,
		Sequence:       doc.Sequence,
		Snapshot:       doc.Snapshot,
		IssuedBy:       doc.IssuedBy,
		IssuedAt:       doc.IssuedAt,
		RegeneratedAt:  doc.RegeneratedAt,
		Version:        doc.Version,
	}
	if doc.ShareToken != "" {
		resp.SharePath = PublicDocumentPath + doc.ShareToken
	}
	return resp
}

func toDocumentResponsePtr(doc *document.SalesDocument) *DocumentResponse {
	if doc == nil {
		return nil
	}
	resp := toDocumentResponse(doc)
	return &resp
}

// DocumentHandler handles sales document endpoints
type DocumentHandler struct {
	BaseHandler
	documents DocumentService
}

// NewDocumentHandler creates a new DocumentHandler
func NewDocumentHandler(documents DocumentService) *DocumentHandler {
	return &DocumentHandler{documents: documents}
}

// ListForDeal returns a deal's documents.
// GET /deals/:id/documents
func (h *DocumentHandler) ListForDeal(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.Unauthorized(c, "Tenant is required")
		return
	}
	dealID, err := parseIDParam(c, "id")
	if err != nil {
		h.BadRequest(c, "Invalid deal ID format")
		return
	}

	docs, err := h.documents.ListForDeal(c.Request.Context(), tenantID, dealID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	out := make([]DocumentResponse, 0, len(docs))
	for i := range docs {
		out = append(out, toDocumentResponse(&docs[i]))
	}
	h.Success(c, out)
}

// Issue snapshots the deal into a new numbered document.
// POST /deals/:id/documents
func (h *DocumentHandler) Issue(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.Unauthorized(c, "Tenant is required")
		return
	}
	dealID, err := parseIDParam(c, "id")
	if err != nil {
		h.BadRequest(c, "Invalid deal ID format")
		return
	}

	var req IssueDocumentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.HandleBindError(c, err)
		return
	}

	doc, err := h.documents.Issue(c.Request.Context(), tenantID, dealID, document.Type(req.Type), middleware.GetUserName(c))
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, toDocumentResponse(doc))
}

// Get returns one document.
// GET /documents/:id
func (h *DocumentHandler) Get(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.Unauthorized(c, "Tenant is required")
		return
	}
	docID, err := parseIDParam(c, "id")
	if err != nil {
		h.BadRequest(c, "Invalid document ID format")
		return
	}

	doc, err := h.documents.Get(c.Request.Context(), tenantID, docID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, toDocumentResponse(doc))
}

// Regenerate refreshes a deposit receipt from the deal's current state,
// keeping its number.
// POST /documents/:id/regenerate
func (h *DocumentHandler) Regenerate(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.Unauthorized(c, "Tenant is required")
		return
	}
	docID, err := parseIDParam(c, "id")
	if err != nil {
		h.BadRequest(c, "Invalid document ID format")
		return
	}

	doc, err := h.documents.Regenerate(c.Request.Context(), tenantID, docID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, toDocumentResponse(doc))
}

// GetShared serves a document behind a share link. No tenant header is
// needed; the token carries it.
// GET /public/documents/:token
func (h *DocumentHandler) GetShared(c *gin.Context) {
	doc, err := h.documents.GetShared(c.Request.Context(), c.Param("token"))
	if err != nil {
		h.HandleError(c, err)
		return
	}
	c.Header("Cache-Control", "private, no-store")
	h.Success(c, SharedDocumentResponse{
		Type:           doc.Type,
		DocumentNumber: doc.DocumentNumber,
		Snapshot:       doc.Snapshot,
		IssuedAt:       doc.IssuedAt,
	})
}
