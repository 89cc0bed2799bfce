package deal

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// VATScheme is the VAT treatment of the vehicle sale
type VATScheme string

const (
	VATSchemeMargin        VATScheme = "MARGIN"
	VATSchemeVATQualifying VATScheme = "VAT_QUALIFYING"
)

// IsValid checks if the scheme is known
func (s VATScheme) IsValid() bool {
	return s == VATSchemeMargin || s == VATSchemeVATQualifying
}

// VATTreatment is the per-line VAT rate choice for add-ons and warranties
type VATTreatment string

const (
	VATStandard VATTreatment = "STANDARD"
	VATExempt   VATTreatment = "EXEMPT"
)

// IsValid checks if the treatment is known
func (t VATTreatment) IsValid() bool {
	return t == VATStandard || t == VATExempt
}

// AddOn is an extra sold with the vehicle, priced net of VAT
type AddOn struct {
	ID           uuid.UUID       `json:"id"`
	Name         string          `json:"name"`
	Quantity     int             `json:"quantity"`
	UnitPriceNet decimal.Decimal `json:"unitPriceNet"`
	VATTreatment VATTreatment    `json:"vatTreatment"`
}

// Delivery holds the delivery terms. Amount is VAT-inclusive.
type Delivery struct {
	Amount       decimal.Decimal `json:"amount"`
	IsFree       bool            `json:"isFree"`
	Notes        string          `json:"notes,omitempty"`
	ScheduledFor *time.Time      `json:"scheduledFor,omitempty"`
}

// Equal compares delivery terms by value
func (d Delivery) Equal(other Delivery) bool {
	sameDate := (d.ScheduledFor == nil && other.ScheduledFor == nil) ||
		(d.ScheduledFor != nil && other.ScheduledFor != nil && d.ScheduledFor.Equal(*other.ScheduledFor))
	return d.Amount.Equal(other.Amount) && d.IsFree == other.IsFree && d.Notes == other.Notes && sameDate
}

// Warranty is an optional warranty product sold with the vehicle
type Warranty struct {
	Included       bool            `json:"included"`
	Name           string          `json:"name,omitempty"`
	PriceGross     decimal.Decimal `json:"priceGross"`
	VATTreatment   VATTreatment    `json:"vatTreatment,omitempty"`
	DurationMonths int             `json:"durationMonths,omitempty"`
}

// FinanceSelection records how the customer is funding the purchase
type FinanceSelection struct {
	FinanceCompanyContactID *uuid.UUID `json:"financeCompanyContactId,omitempty"`
	ToBeConfirmed           bool       `json:"toBeConfirmed"`
	Notes                   string     `json:"notes,omitempty"`
}

// Equal compares finance selections by value
func (f FinanceSelection) Equal(other FinanceSelection) bool {
	sameCompany := (f.FinanceCompanyContactID == nil && other.FinanceCompanyContactID == nil) ||
		(f.FinanceCompanyContactID != nil && other.FinanceCompanyContactID != nil &&
			*f.FinanceCompanyContactID == *other.FinanceCompanyContactID)
	return sameCompany && f.ToBeConfirmed == other.ToBeConfirmed && f.Notes == other.Notes
}

// IsSet reports whether any finance has been selected
func (f FinanceSelection) IsSet() bool {
	return f.FinanceCompanyContactID != nil || f.ToBeConfirmed
}

// Signature captures both parties signing the deal
type Signature struct {
	CustomerSignedAt *time.Time `json:"customerSignedAt,omitempty"`
	CustomerName     string     `json:"customerName,omitempty"`
	DealerSignedAt   *time.Time `json:"dealerSignedAt,omitempty"`
	DealerName       string     `json:"dealerName,omitempty"`
}

// SignatureParty identifies who is signing
type SignatureParty string

const (
	PartyCustomer SignatureParty = "CUSTOMER"
	PartyDealer   SignatureParty = "DEALER"
)

// RequestStatus tracks an agreed work item
type RequestStatus string

const (
	RequestRequested  RequestStatus = "REQUESTED"
	RequestInProgress RequestStatus = "IN_PROGRESS"
	RequestDone       RequestStatus = "DONE"
	RequestCancelled  RequestStatus = "CANCELLED"
)

// IsValid checks if the request status is known
func (s RequestStatus) IsValid() bool {
	switch s {
	case RequestRequested, RequestInProgress, RequestDone, RequestCancelled:
		return true
	}
	return false
}

// Request is work the dealer agreed to do before handover
type Request struct {
	ID             uuid.UUID     `json:"id"`
	Description    string        `json:"description"`
	Status         RequestStatus `json:"status"`
	VehicleIssueID *uuid.UUID    `json:"vehicleIssueId,omitempty"`
}

// CostAdjustment is an extra cost against the sale (prep, repairs) used for profit
type CostAdjustment struct {
	ID          uuid.UUID       `json:"id"`
	Description string          `json:"description"`
	AmountNet   decimal.Decimal `json:"amountNet"`
}
