package handler

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/dealer/backend/internal/domain/document"
	"github.com/dealer/backend/internal/domain/shared"
	"github.com/dealer/backend/internal/interfaces/http/middleware"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// MockDocumentService implements DocumentService for testing
type MockDocumentService struct {
	mock.Mock
}

func (m *MockDocumentService) Issue(ctx context.Context, tenantID, dealID uuid.UUID, docType document.Type, issuedBy string) (*document.SalesDocument, error) {
	args := m.Called(ctx, tenantID, dealID, docType, issuedBy)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*document.SalesDocument), args.Error(1)
}

func (m *MockDocumentService) Regenerate(ctx context.Context, tenantID, documentID uuid.UUID) (*document.SalesDocument, error) {
	args := m.Called(ctx, tenantID, documentID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*document.SalesDocument), args.Error(1)
}

func (m *MockDocumentService) Get(ctx context.Context, tenantID, documentID uuid.UUID) (*document.SalesDocument, error) {
	args := m.Called(ctx, tenantID, documentID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*document.SalesDocument), args.Error(1)
}

func (m *MockDocumentService) ListForDeal(ctx context.Context, tenantID, dealID uuid.UUID) ([]document.SalesDocument, error) {
	args := m.Called(ctx, tenantID, dealID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]document.SalesDocument), args.Error(1)
}

func (m *MockDocumentService) GetShared(ctx context.Context, token string) (*document.SalesDocument, error) {
	args := m.Called(ctx, token)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*document.SalesDocument), args.Error(1)
}

var _ DocumentService = (*MockDocumentService)(nil)

func setupDocumentTestRouter() (*gin.Engine, *MockDocumentService) {
	svc := new(MockDocumentService)
	h := NewDocumentHandler(svc)

	router := gin.New()
	router.Use(middleware.RequestID(), middleware.TenantMiddleware())
	api := router.Group("/api/v1")
	api.GET("/deals/:id/documents", h.ListForDeal)
	api.POST("/deals/:id/documents", h.Issue)
	api.GET("/documents/:id", h.Get)
	api.POST("/documents/:id/regenerate", h.Regenerate)
	api.GET("/public/documents/:token", h.GetShared)
	return router, svc
}

func createTestDocument(tenantID, dealID uuid.UUID, docType document.Type, seq int64) *document.SalesDocument {
	return &document.SalesDocument{
		ID:             uuid.New(),
		TenantID:       tenantID,
		DealID:         dealID,
		Type:           docType,
		DocumentNumber: document.FormatNumber(document.DefaultPrefixes[docType], seq),
		Sequence:       seq,
		Snapshot:       document.Snapshot{DealID: dealID, DealStatus: "DEPOSIT_TAKEN", TakenBy: "Sam"},
		ShareToken:     "share-" + string(docType),
		IssuedBy:       "Sam",
		IssuedAt:       time.Now().UTC(),
		Version:        1,
	}
}

func TestDocumentHandler_Issue(t *testing.T) {
	tenantID := uuid.New()
	dealID := uuid.New()

	t.Run("issues a payment receipt", func(t *testing.T) {
		router, svc := setupDocumentTestRouter()
		doc := createTestDocument(tenantID, dealID, document.TypePaymentReceipt, 3)
		svc.On("Issue", mock.Anything, tenantID, dealID, document.TypePaymentReceipt, "Alex").Return(doc, nil)

		w := doRequest(router, http.MethodPost, "/api/v1/deals/"+dealID.String()+"/documents", tenantID,
			map[string]any{"type": "PAYMENT_RECEIPT"}, middleware.UserNameHeaderKey, "Alex")

		assert.Equal(t, http.StatusCreated, w.Code)
		data := decodeResponse(t, w).Data.(map[string]any)
		assert.Equal(t, "RC-000003", data["documentNumber"])
		assert.Equal(t, "DEPOSIT_TAKEN", data["snapshot"].(map[string]any)["dealStatus"])
	})

	t.Run("rejects unknown type", func(t *testing.T) {
		router, svc := setupDocumentTestRouter()
		w := doRequest(router, http.MethodPost, "/api/v1/deals/"+dealID.String()+"/documents", tenantID,
			map[string]any{"type": "QUOTE"})

		assert.Equal(t, http.StatusBadRequest, w.Code)
		svc.AssertNotCalled(t, "Issue")
	})

	t.Run("cancelled deal", func(t *testing.T) {
		router, svc := setupDocumentTestRouter()
		svc.On("Issue", mock.Anything, tenantID, dealID, document.TypeInvoice, "").
			Return(nil, shared.NewInvalidStateError("Cannot issue documents for a cancelled deal"))

		w := doRequest(router, http.MethodPost, "/api/v1/deals/"+dealID.String()+"/documents", tenantID,
			map[string]any{"type": "INVOICE"})

		assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	})
}

func TestDocumentHandler_ListAndGet(t *testing.T) {
	tenantID := uuid.New()
	dealID := uuid.New()
	router, svc := setupDocumentTestRouter()

	receipt := createTestDocument(tenantID, dealID, document.TypeDepositReceipt, 1)
	invoice := createTestDocument(tenantID, dealID, document.TypeInvoice, 1)
	svc.On("ListForDeal", mock.Anything, tenantID, dealID).Return([]document.SalesDocument{*receipt, *invoice}, nil)
	svc.On("Get", mock.Anything, tenantID, invoice.ID).Return(invoice, nil)

	w := doRequest(router, http.MethodGet, "/api/v1/deals/"+dealID.String()+"/documents", tenantID, nil)
	assert.Equal(t, http.StatusOK, w.Code)
	docs := decodeResponse(t, w).Data.([]any)
	require.Len(t, docs, 2)
	assert.Equal(t, "DR-000001", docs[0].(map[string]any)["documentNumber"])

	w = doRequest(router, http.MethodGet, "/api/v1/documents/"+invoice.ID.String(), tenantID, nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "INV-000001", decodeResponse(t, w).Data.(map[string]any)["documentNumber"])

	w = doRequest(router, http.MethodGet, "/api/v1/documents/bad", tenantID, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestDocumentHandler_Regenerate(t *testing.T) {
	tenantID := uuid.New()
	router, svc := setupDocumentTestRouter()

	receipt := createTestDocument(tenantID, uuid.New(), document.TypeDepositReceipt, 4)
	receipt.Version = 2
	invoiceID := uuid.New()
	svc.On("Regenerate", mock.Anything, tenantID, receipt.ID).Return(receipt, nil)
	svc.On("Regenerate", mock.Anything, tenantID, invoiceID).
		Return(nil, shared.NewInvalidStateError("INVOICE documents cannot be regenerated"))

	w := doRequest(router, http.MethodPost, "/api/v1/documents/"+receipt.ID.String()+"/regenerate", tenantID, nil)
	assert.Equal(t, http.StatusOK, w.Code)
	data := decodeResponse(t, w).Data.(map[string]any)
	assert.Equal(t, "DR-000004", data["documentNumber"])
	assert.Equal(t, float64(2), data["version"])

	w = doRequest(router, http.MethodPost, "/api/v1/documents/"+invoiceID.String()+"/regenerate", tenantID, nil)
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
}

func TestDocumentHandler_GetShared(t *testing.T) {
	router, svc := setupDocumentTestRouter()
	doc := createTestDocument(uuid.New(), uuid.New(), document.TypeInvoice, 9)
	svc.On("GetShared", mock.Anything, "good-token").Return(doc, nil)
	svc.On("GetShared", mock.Anything, "bad-token").Return(nil, shared.ErrNotFound)

	w := doRequest(router, http.MethodGet, "/api/v1/public/documents/good-token", uuid.Nil, nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "private, no-store", w.Header().Get("Cache-Control"))
	data := decodeResponse(t, w).Data.(map[string]any)
	assert.Equal(t, "INV-000009", data["documentNumber"])
	assert.NotContains(t, data, "sharePath")

	w = doRequest(router, http.MethodGet, "/api/v1/public/documents/bad-token", uuid.Nil, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}
