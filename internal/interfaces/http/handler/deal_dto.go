package handler

import (
	"time"

	dealapp "github.com/dealer/backend/internal/application/deal"
	"github.com/dealer/backend/internal/domain/deal"
	"github.com/dealer/backend/internal/domain/shared/valueobject"
	"github.com/dealer/backend/internal/interfaces/http/dto"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// CreateDealRequest opens a draft deal on a stock vehicle
type CreateDealRequest struct {
	VehicleID         string           `json:"vehicleId" binding:"required,uuid"`
	CustomerID        *string          `json:"customerId" binding:"omitempty,uuid"`
	VATScheme         string           `json:"vatScheme" binding:"required,oneof=MARGIN VAT_QUALIFYING"`
	VehiclePriceGross *decimal.Decimal `json:"vehiclePriceGross" binding:"required"`
	TakenBy           string           `json:"takenBy" binding:"max=100"`
	Notes             string           `json:"notes" binding:"max=2000"`
}

// AddOnRequest is an extra sold with the vehicle
type AddOnRequest struct {
	ID           *uuid.UUID      `json:"id"`
	Name         string          `json:"name" binding:"required,max=200"`
	Quantity     int             `json:"quantity" binding:"min=1"`
	UnitPriceNet decimal.Decimal `json:"unitPriceNet"`
	VATTreatment string          `json:"vatTreatment" binding:"omitempty,oneof=STANDARD EXEMPT"`
}

// DeliveryRequest sets the delivery charge
type DeliveryRequest struct {
	Amount       decimal.Decimal `json:"amount"`
	IsFree       bool            `json:"isFree"`
	Notes        string          `json:"notes" binding:"max=500"`
	ScheduledFor *time.Time      `json:"scheduledFor"`
}

// WarrantyRequest sets the warranty product
type WarrantyRequest struct {
	Included       bool            `json:"included"`
	Name           string          `json:"name" binding:"max=200"`
	PriceGross     decimal.Decimal `json:"priceGross"`
	VATTreatment   string          `json:"vatTreatment" binding:"omitempty,oneof=STANDARD EXEMPT"`
	DurationMonths int             `json:"durationMonths" binding:"min=0"`
}

// FinanceSelectionRequest names the finance company funding the deal
type FinanceSelectionRequest struct {
	FinanceCompanyContactID *uuid.UUID `json:"financeCompanyContactId"`
	ToBeConfirmed           bool       `json:"toBeConfirmed"`
	Notes                   string     `json:"notes" binding:"max=500"`
}

// PartExchangeRequest is a trade-in vehicle. Send the id of an existing
// entry to keep it; entries without an id are new.
type PartExchangeRequest struct {
	ID                      *uuid.UUID      `json:"id"`
	VRM                     string          `json:"vrm" binding:"required,vrm"`
	Make                    string          `json:"make" binding:"max=100"`
	Model                   string          `json:"model" binding:"max=100"`
	Year                    int             `json:"year" binding:"omitempty,min=1900,max=2100"`
	Mileage                 int             `json:"mileage" binding:"min=0"`
	Colour                  string          `json:"colour" binding:"max=50"`
	Allowance               decimal.Decimal `json:"allowance"`
	Settlement              decimal.Decimal `json:"settlement"`
	VATQualifying           bool            `json:"vatQualifying"`
	HasFinance              bool            `json:"hasFinance"`
	FinanceCompanyContactID *uuid.UUID      `json:"financeCompanyContactId"`
	HasSettlementInWriting  bool            `json:"hasSettlementInWriting"`
	Disposition             string          `json:"disposition" binding:"omitempty,oneof=UNDECIDED RETAIL_STOCK TRADE_SALE AUCTION"`
	AppraisalID             *uuid.UUID      `json:"appraisalId"`
}

// DealRequestItem is a work item agreed with the customer
type DealRequestItem struct {
	ID             *uuid.UUID `json:"id"`
	Description    string     `json:"description" binding:"required,max=500"`
	Status         string     `json:"status" binding:"omitempty,oneof=REQUESTED IN_PROGRESS DONE CANCELLED"`
	VehicleIssueID *uuid.UUID `json:"vehicleIssueId"`
}

// CostAdjustmentRequest amends the cost basis
type CostAdjustmentRequest struct {
	ID          *uuid.UUID      `json:"id"`
	Description string          `json:"description" binding:"required,max=200"`
	AmountNet   decimal.Decimal `json:"amountNet"`
}

// UpdateDealRequest is a partial edit. Omitted fields are left alone; lists
// replace the existing list.
type UpdateDealRequest struct {
	CustomerID        *string                  `json:"customerId" binding:"omitempty,uuid"`
	VATScheme         *string                  `json:"vatScheme" binding:"omitempty,oneof=MARGIN VAT_QUALIFYING"`
	VehiclePriceGross *decimal.Decimal         `json:"vehiclePriceGross"`
	AddOns            *[]AddOnRequest          `json:"addOns" binding:"omitempty,dive"`
	Delivery          *DeliveryRequest         `json:"delivery"`
	Warranty          *WarrantyRequest         `json:"warranty"`
	FinanceSelection  *FinanceSelectionRequest `json:"financeSelection"`
	PartExchanges     *[]PartExchangeRequest   `json:"partExchanges" binding:"omitempty,dive"`
	Requests          *[]DealRequestItem       `json:"requests" binding:"omitempty,dive"`
	Notes             *string                  `json:"notes" binding:"omitempty,max=2000"`
	VehicleCostNet    *decimal.Decimal         `json:"vehicleCostNet"`
	CostAdjustments   *[]CostAdjustmentRequest `json:"costAdjustments" binding:"omitempty,dive"`
}

// TakePaymentRequest records money received
type TakePaymentRequest struct {
	Amount         *decimal.Decimal `json:"amount" binding:"required"`
	Method         string           `json:"method" binding:"required,oneof=CASH CARD BANK_TRANSFER FINANCE OTHER"`
	Type           string           `json:"type" binding:"omitempty,oneof=DEPOSIT PART_PAYMENT BALANCE"`
	PaidAt         *time.Time       `json:"paidAt"`
	Reference      string           `json:"reference" binding:"max=200"`
	TakenBy        string           `json:"takenBy" binding:"max=100"`
	IdempotencyKey string           `json:"idempotencyKey" binding:"max=128"`
}

// SignatureRequest records one party signing the deal
type SignatureRequest struct {
	Party string `json:"party" binding:"required,oneof=CUSTOMER DEALER"`
	Name  string `json:"name" binding:"required,max=200"`
}

// CompleteDealRequest controls completion
type CompleteDealRequest struct {
	ConfirmWithoutSettlement bool `json:"confirmWithoutSettlement"`
}

// CancelDealRequest carries the cancellation reason
type CancelDealRequest struct {
	Reason string `json:"reason" binding:"max=500"`
}

// ListDealsQuery filters the deal listing
type ListDealsQuery struct {
	dto.ListRequest
	Status    string `form:"status" binding:"omitempty,oneof=DRAFT DEPOSIT_TAKEN INVOICED DELIVERED COMPLETED CANCELLED"`
	VehicleID string `form:"vehicleId" binding:"omitempty,uuid"`
}

// DealResponse is a deal with its computed totals
type DealResponse struct {
	ID                 uuid.UUID             `json:"id"`
	TenantID           uuid.UUID             `json:"tenantId"`
	VehicleID          uuid.UUID             `json:"vehicleId"`
	CustomerID         *uuid.UUID            `json:"customerId,omitempty"`
	Status             deal.Status           `json:"status"`
	AllowedTransitions []deal.Status         `json:"allowedTransitions"`
	VATScheme          deal.VATScheme        `json:"vatScheme"`
	VehiclePrice       valueobject.Breakdown `json:"vehiclePrice"`
	VehicleCostNet     decimal.Decimal       `json:"vehicleCostNet"`
	AddOns             []deal.AddOn          `json:"addOns"`
	Delivery           deal.Delivery         `json:"delivery"`
	Warranty           deal.Warranty         `json:"warranty"`
	FinanceSelection   deal.FinanceSelection `json:"financeSelection"`
	PartExchanges      []deal.PartExchange   `json:"partExchanges"`
	Payments           []deal.Payment        `json:"payments"`
	Signature          deal.Signature        `json:"signature"`
	Requests           []deal.Request        `json:"requests"`
	CostAdjustments    []deal.CostAdjustment `json:"costAdjustments"`
	Totals             deal.Totals           `json:"totals"`
	Notes              string                `json:"notes,omitempty"`
	TakenBy            string                `json:"takenBy,omitempty"`
	DepositTakenAt     *time.Time            `json:"depositTakenAt,omitempty"`
	InvoicedAt         *time.Time            `json:"invoicedAt,omitempty"`
	DeliveredAt        *time.Time            `json:"deliveredAt,omitempty"`
	CompletedAt        *time.Time            `json:"completedAt,omitempty"`
	CancelledAt        *time.Time            `json:"cancelledAt,omitempty"`
	CancelReason       string                `json:"cancelReason,omitempty"`
	CreatedAt          time.Time             `json:"createdAt"`
	UpdatedAt          time.Time             `json:"updatedAt"`
	Version            int                   `json:"version"`
}

// PaymentResponse is returned after taking a payment
type PaymentResponse struct {
	Deal      DealResponse      `json:"deal"`
	Payment   deal.Payment      `json:"payment"`
	Receipt   *DocumentResponse `json:"receipt,omitempty"`
	Duplicate bool              `json:"duplicate"`
}

// InvoiceResponse is returned after invoicing a deal
type InvoiceResponse struct {
	Deal    DealResponse      `json:"deal"`
	Invoice *DocumentResponse `json:"invoice,omitempty"`
}

// CompletionResponse reports a completed deal
type CompletionResponse struct {
	Deal       DealResponse             `json:"deal"`
	BalanceDue decimal.Decimal          `json:"balanceDue"`
	FullyPaid  bool                     `json:"fullyPaid"`
	Conversion dealapp.ConversionReport `json:"conversion"`
	Invoice    *DocumentResponse        `json:"invoice,omitempty"`
}

// CancellationResponse reports what cancelling undid
type CancellationResponse struct {
	Deal              DealResponse           `json:"deal"`
	PreviousStatus    deal.Status            `json:"previousStatus"`
	CancelledRequests []uuid.UUID            `json:"cancelledRequests"`
	IssuesResolved    int64                  `json:"issuesResolved"`
	VehicleRestored   bool                   `json:"vehicleRestored"`
	Reversal          dealapp.ReversalReport `json:"reversal"`
}

func toDealResponse(d *deal.Deal) DealResponse {
	transitions := d.Status.AllowedTransitions()
	if transitions == nil {
		transitions = []deal.Status{}
	}
	return DealResponse{
		ID:                 d.ID,
		TenantID:           d.TenantID,
		VehicleID:          d.VehicleID,
		CustomerID:         d.CustomerID,
		Status:             d.Status,
		AllowedTransitions: transitions,
		VATScheme:          d.VATScheme,
		VehiclePrice:       d.VehiclePrice,
		VehicleCostNet:     d.VehicleCostNet,
		AddOns:             nonNil(d.AddOns),
		Delivery:           d.Delivery,
		Warranty:           d.Warranty,
		FinanceSelection:   d.FinanceSelection,
		PartExchanges:      nonNil(d.PartExchanges),
		Payments:           nonNil(d.Payments),
		Signature:          d.Signature,
		Requests:           nonNil(d.Requests),
		CostAdjustments:    nonNil(d.CostAdjustments),
		Totals:             d.Totals(),
		Notes:              d.Notes,
		TakenBy:            d.TakenBy,
		DepositTakenAt:     d.DepositTakenAt,
		InvoicedAt:         d.InvoicedAt,
		DeliveredAt:        d.DeliveredAt,
		CompletedAt:        d.CompletedAt,
		CancelledAt:        d.CancelledAt,
		CancelReason:       d.CancelReason,
		CreatedAt:          d.CreatedAt,
		UpdatedAt:          d.UpdatedAt,
		Version:            d.Version,
	}
}

func toDealResponses(deals []deal.Deal) []DealResponse {
	out := make([]DealResponse, 0, len(deals))
	for i := range deals {
		out = append(out, toDealResponse(&deals[i]))
	}
	return out
}

func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}

func optionalID(id *uuid.UUID) uuid.UUID {
	if id == nil {
		return uuid.Nil
	}
	return *id
}

// toUpdate converts the request into a domain edit
func (r UpdateDealRequest) toUpdate() (deal.Update, error) {
	var u deal.Update
	if r.CustomerID != nil {
		id, err := uuid.Parse(*r.CustomerID)
		if err != nil {
			return u, err
		}
		u.CustomerID = &id
	}
	if r.VATScheme != nil {
		scheme := deal.VATScheme(*r.VATScheme)
		u.VATScheme = &scheme
	}
	u.VehiclePriceGross = r.VehiclePriceGross
	if r.AddOns != nil {
		addOns := make([]deal.AddOn, 0, len(*r.AddOns))
		for _, a := range *r.AddOns {
			addOns = append(addOns, deal.AddOn{
				ID:           optionalID(a.ID),
				Name:         a.Name,
				Quantity:     a.Quantity,
				UnitPriceNet: a.UnitPriceNet,
				VATTreatment: deal.VATTreatment(a.VATTreatment),
			})
		}
		u.AddOns = &addOns
	}
	if r.Delivery != nil {
		u.Delivery = &deal.Delivery{
			Amount:       r.Delivery.Amount,
			IsFree:       r.Delivery.IsFree,
			Notes:        r.Delivery.Notes,
			ScheduledFor: r.Delivery.ScheduledFor,
		}
	}
	if r.Warranty != nil {
		u.Warranty = &deal.Warranty{
			Included:       r.Warranty.Included,
			Name:           r.Warranty.Name,
			PriceGross:     r.Warranty.PriceGross,
			VATTreatment:   deal.VATTreatment(r.Warranty.VATTreatment),
			DurationMonths: r.Warranty.DurationMonths,
		}
	}
	if r.FinanceSelection != nil {
		u.FinanceSelection = &deal.FinanceSelection{
			FinanceCompanyContactID: r.FinanceSelection.FinanceCompanyContactID,
			ToBeConfirmed:           r.FinanceSelection.ToBeConfirmed,
			Notes:                   r.FinanceSelection.Notes,
		}
	}
	if r.PartExchanges != nil {
		pxs := make([]deal.PartExchange, 0, len(*r.PartExchanges))
		for _, px := range *r.PartExchanges {
			pxs = append(pxs, deal.PartExchange{
				ID:                      optionalID(px.ID),
				VRM:                     px.VRM,
				Make:                    px.Make,
				Model:                   px.Model,
				Year:                    px.Year,
				Mileage:                 px.Mileage,
				Colour:                  px.Colour,
				Allowance:               px.Allowance,
				Settlement:              px.Settlement,
				VATQualifying:           px.VATQualifying,
				HasFinance:              px.HasFinance,
				FinanceCompanyContactID: px.FinanceCompanyContactID,
				HasSettlementInWriting:  px.HasSettlementInWriting,
				Disposition:             deal.Disposition(px.Disposition),
				AppraisalID:             px.AppraisalID,
			})
		}
		u.PartExchanges = &pxs
	}
	if r.Requests != nil {
		requests := make([]deal.Request, 0, len(*r.Requests))
		for _, req := range *r.Requests {
			requests = append(requests, deal.Request{
				ID:             optionalID(req.ID),
				Description:    req.Description,
				Status:         deal.RequestStatus(req.Status),
				VehicleIssueID: req.VehicleIssueID,
			})
		}
		u.Requests = &requests
	}
	u.Notes = r.Notes
	u.VehicleCostNet = r.VehicleCostNet
	if r.CostAdjustments != nil {
		adjustments := make([]deal.CostAdjustment, 0, len(*r.CostAdjustments))
		for _, c := range *r.CostAdjustments {
			adjustments = append(adjustments, deal.CostAdjustment{
				ID:          optionalID(c.ID),
				Description: c.Description,
				AmountNet:   c.AmountNet,
			})
		}
		u.CostAdjustments = &adjustments
	}
	return u, nil
}
