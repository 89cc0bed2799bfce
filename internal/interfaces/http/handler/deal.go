package handler

import (
	"context"
	"errors"
	"io"
	"strings"

	dealapp "github.com/dealer/backend/internal/application/deal"
	"github.com/dealer/backend/internal/domain/deal"
	"github.com/dealer/backend/internal/domain/shared"
	"github.com/dealer/backend/internal/interfaces/http/dto"
	"github.com/dealer/backend/internal/interfaces/http/middleware"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// IdempotencyKeyHeader lets clients retry a payment without recording it twice
const IdempotencyKeyHeader = "Idempotency-Key"

// DealService is the deal lifecycle as seen by the HTTP layer
type DealService interface {
	CreateDeal(ctx context.Context, tenantID uuid.UUID, in dealapp.CreateDealInput) (*deal.Deal, error)
	Get(ctx context.Context, tenantID, dealID uuid.UUID) (*deal.Deal, error)
	List(ctx context.Context, tenantID uuid.UUID, filter deal.ListFilter) ([]deal.Deal, int64, error)
	Update(ctx context.Context, tenantID, dealID uuid.UUID, u deal.Update) (*deal.Deal, error)
	TakeDeposit(ctx context.Context, tenantID, dealID uuid.UUID, in dealapp.TakeDepositInput) (*dealapp.DepositResult, error)
	RefundPayment(ctx context.Context, tenantID, dealID, paymentID uuid.UUID) (*deal.Deal, error)
	RecordSignature(ctx context.Context, tenantID, dealID uuid.UUID, party deal.SignatureParty, name string) (*deal.Deal, error)
	MarkInvoiced(ctx context.Context, tenantID, dealID uuid.UUID, issuedBy string) (*dealapp.TransitionResult, error)
	MarkDelivered(ctx context.Context, tenantID, dealID uuid.UUID) (*deal.Deal, error)
	CompleteDeal(ctx context.Context, tenantID, dealID uuid.UUID, in dealapp.CompleteDealInput) (*dealapp.CompletionResult, error)
	CancelDeal(ctx context.Context, tenantID, dealID uuid.UUID, reason string) (*dealapp.CancellationResult, error)
}

var _ DealService = (*dealapp.DealService)(nil)

// DealHandler handles deal lifecycle endpoints
type DealHandler struct {
	BaseHandler
	deals DealService
}

// NewDealHandler creates a new DealHandler
func NewDealHandler(deals DealService) *DealHandler {
	return &DealHandler{deals: deals}
}

// actor names the staff member making the request
func actor(c *gin.Context, fromBody string) string {
	if name := strings.TrimSpace(fromBody); name != "" {
		return name
	}
	return middleware.GetUserName(c)
}

// scope resolves the tenant and the :id deal parameter, writing the error
// response itself when either is missing
func (h *DealHandler) scope(c *gin.Context) (uuid.UUID, uuid.UUID, bool) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.Unauthorized(c, "Tenant is required")
		return uuid.Nil, uuid.Nil, false
	}
	dealID, err := parseIDParam(c, "id")
	if err != nil {
		h.BadRequest(c, "Invalid deal ID format")
		return uuid.Nil, uuid.Nil, false
	}
	return tenantID, dealID, true
}

// Create opens a draft deal.
// POST /deals
func (h *DealHandler) Create(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.Unauthorized(c, "Tenant is required")
		return
	}

	var req CreateDealRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.HandleBindError(c, err)
		return
	}

	in := dealapp.CreateDealInput{
		VehicleID:         uuid.MustParse(req.VehicleID),
		VATScheme:         deal.VATScheme(req.VATScheme),
		VehiclePriceGross: *req.VehiclePriceGross,
		TakenBy:           actor(c, req.TakenBy),
		Notes:             req.Notes,
	}
	if req.CustomerID != nil {
		id := uuid.MustParse(*req.CustomerID)
		in.CustomerID = &id
	}

	d, err := h.deals.CreateDeal(c.Request.Context(), tenantID, in)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, toDealResponse(d))
}

// Get returns one deal with its totals.
// GET /deals/:id
func (h *DealHandler) Get(c *gin.Context) {
	tenantID, dealID, ok := h.scope(c)
	if !ok {
		return
	}
	d, err := h.deals.Get(c.Request.Context(), tenantID, dealID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, toDealResponse(d))
}

// List returns a page of deals.
// GET /deals
func (h *DealHandler) List(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.Unauthorized(c, "Tenant is required")
		return
	}

	q := ListDealsQuery{ListRequest: dto.DefaultListRequest()}
	if err := c.ShouldBindQuery(&q); err != nil {
		h.HandleBindError(c, err)
		return
	}

	filter := deal.ListFilter{
		Filter: shared.Filter{
			Page:     q.Page,
			PageSize: q.PageSize,
			OrderBy:  q.OrderBy,
			OrderDir: q.OrderDir,
			Search:   q.Search,
		},
	}
	if q.Status != "" {
		status := deal.Status(q.Status)
		filter.Status = &status
	}
	if q.VehicleID != "" {
		id := uuid.MustParse(q.VehicleID)
		filter.VehicleID = &id
	}

	deals, total, err := h.deals.List(c.Request.Context(), tenantID, filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.SuccessWithMeta(c, toDealResponses(deals), total, filter.Page, filter.PageSize)
}

// Update applies a partial edit.
// PATCH /deals/:id
func (h *DealHandler) Update(c *gin.Context) {
	tenantID, dealID, ok := h.scope(c)
	if !ok {
		return
	}

	var req UpdateDealRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.HandleBindError(c, err)
		return
	}
	u, err := req.toUpdate()
	if err != nil {
		h.BadRequest(c, "Invalid customer ID format")
		return
	}

	d, err := h.deals.Update(c.Request.Context(), tenantID, dealID, u)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, toDealResponse(d))
}

// TakePayment records a deposit or later payment. A replayed
// Idempotency-Key returns the original payment with 200 instead of 201.
// POST /deals/:id/payments
func (h *DealHandler) TakePayment(c *gin.Context) {
	tenantID, dealID, ok := h.scope(c)
	if !ok {
		return
	}

	var req TakePaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.HandleBindError(c, err)
		return
	}
	key := strings.TrimSpace(c.GetHeader(IdempotencyKeyHeader))
	if key == "" {
		key = strings.TrimSpace(req.IdempotencyKey)
	}

	res, err := h.deals.TakeDeposit(c.Request.Context(), tenantID, dealID, dealapp.TakeDepositInput{
		Amount:         *req.Amount,
		Method:         deal.PaymentMethod(req.Method),
		Type:           deal.PaymentType(req.Type),
		PaidAt:         req.PaidAt,
		Reference:      req.Reference,
		TakenBy:        actor(c, req.TakenBy),
		IdempotencyKey: key,
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}

	resp := PaymentResponse{
		Deal:      toDealResponse(res.Deal),
		Payment:   res.Payment,
		Receipt:   toDocumentResponsePtr(res.Receipt),
		Duplicate: res.Duplicate,
	}
	if res.Duplicate {
		h.Success(c, resp)
		return
	}
	h.Created(c, resp)
}

// RefundPayment marks a ledger entry refunded.
// POST /deals/:id/payments/:paymentId/refund
func (h *DealHandler) RefundPayment(c *gin.Context) {
	tenantID, dealID, ok := h.scope(c)
	if !ok {
		return
	}
	paymentID, err := parseIDParam(c, "paymentId")
	if err != nil {
		h.BadRequest(c, "Invalid payment ID format")
		return
	}

	d, err := h.deals.RefundPayment(c.Request.Context(), tenantID, dealID, paymentID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, toDealResponse(d))
}

// RecordSignature records the customer or dealer signing.
// POST /deals/:id/signatures
func (h *DealHandler) RecordSignature(c *gin.Context) {
	tenantID, dealID, ok := h.scope(c)
	if !ok {
		return
	}

	var req SignatureRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.HandleBindError(c, err)
		return
	}

	d, err := h.deals.RecordSignature(c.Request.Context(), tenantID, dealID, deal.SignatureParty(req.Party), req.Name)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, toDealResponse(d))
}

// Invoice moves the deal to INVOICED and issues the invoice.
// POST /deals/:id/invoice
func (h *DealHandler) Invoice(c *gin.Context) {
	tenantID, dealID, ok := h.scope(c)
	if !ok {
		return
	}

	res, err := h.deals.MarkInvoiced(c.Request.Context(), tenantID, dealID, middleware.GetUserName(c))
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, InvoiceResponse{
		Deal:    toDealResponse(res.Deal),
		Invoice: toDocumentResponsePtr(res.Document),
	})
}

// Deliver moves the deal to DELIVERED.
// POST /deals/:id/deliver
func (h *DealHandler) Deliver(c *gin.Context) {
	tenantID, dealID, ok := h.scope(c)
	if !ok {
		return
	}

	d, err := h.deals.MarkDelivered(c.Request.Context(), tenantID, dealID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, toDealResponse(d))
}

// Complete finishes the sale. Unsettled financed part-exchanges answer 428
// until the request is repeated with confirmWithoutSettlement.
// POST /deals/:id/complete
func (h *DealHandler) Complete(c *gin.Context) {
	tenantID, dealID, ok := h.scope(c)
	if !ok {
		return
	}

	var req CompleteDealRequest
	if err := bindOptionalJSON(c, &req); err != nil {
		h.HandleBindError(c, err)
		return
	}

	res, err := h.deals.CompleteDeal(c.Request.Context(), tenantID, dealID, dealapp.CompleteDealInput{
		ConfirmWithoutSettlement: req.ConfirmWithoutSettlement,
		IssuedBy:                 middleware.GetUserName(c),
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}

	conversion := res.Conversion
	conversion.Converted = nonNil(conversion.Converted)
	conversion.Skipped = nonNil(conversion.Skipped)
	h.Success(c, CompletionResponse{
		Deal:       toDealResponse(res.Deal),
		BalanceDue: res.BalanceDue,
		FullyPaid:  res.FullyPaid,
		Conversion: conversion,
		Invoice:    toDocumentResponsePtr(res.Invoice),
	})
}

// Cancel cancels the deal and undoes its side effects.
// POST /deals/:id/cancel
func (h *DealHandler) Cancel(c *gin.Context) {
	tenantID, dealID, ok := h.scope(c)
	if !ok {
		return
	}

	var req CancelDealRequest
	if err := bindOptionalJSON(c, &req); err != nil {
		h.HandleBindError(c, err)
		return
	}

	res, err := h.deals.CancelDeal(c.Request.Context(), tenantID, dealID, req.Reason)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	reversal := res.Reversal
	reversal.Removed = nonNil(reversal.Removed)
	reversal.Retained = nonNil(reversal.Retained)
	h.Success(c, CancellationResponse{
		Deal:              toDealResponse(res.Deal),
		PreviousStatus:    res.PreviousStatus,
		CancelledRequests: nonNil(res.CancelledRequests),
		IssuesResolved:    res.IssuesResolved,
		VehicleRestored:   res.VehicleRestored,
		Reversal:          reversal,
	})
}

// bindOptionalJSON binds a body that may be absent
func bindOptionalJSON(c *gin.Context, obj any) error {
	if c.Request.Body == nil || c.Request.ContentLength == 0 {
		return nil
	}
	if err := c.ShouldBindJSON(obj); err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	return nil
}
