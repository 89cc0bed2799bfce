package document

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Snapshot is the frozen view of a deal printed on a document
type Snapshot struct {
	DealID        uuid.UUID          `json:"dealId"`
	DealStatus    string             `json:"dealStatus"`
	VATScheme     string             `json:"vatScheme"`
	Vehicle       VehicleInfo        `json:"vehicle"`
	Customer      CustomerInfo       `json:"customer"`
	VehiclePrice  Amounts            `json:"vehiclePrice"`
	AddOns        []AddOnInfo        `json:"addOns"`
	Delivery      DeliveryInfo       `json:"delivery"`
	Warranty      *WarrantyInfo      `json:"warranty,omitempty"`
	Finance       *FinanceInfo       `json:"finance,omitempty"`
	PartExchanges []PartExchangeInfo `json:"partExchanges"`
	Payments      []PaymentInfo      `json:"payments"`
	Totals        TotalsInfo         `json:"totals"`
	Notes         string             `json:"notes,omitempty"`
	TakenBy       string             `json:"takenBy"`
	Dealer        DealerInfo         `json:"dealer"`
	GeneratedAt   time.Time          `json:"generatedAt"`
}

// Amounts is a net/VAT/gross triple
type Amounts struct {
	Net   decimal.Decimal `json:"net"`
	VAT   decimal.Decimal `json:"vat"`
	Gross decimal.Decimal `json:"gross"`
}

// VehicleInfo identifies the vehicle being sold
type VehicleInfo struct {
	ID      uuid.UUID `json:"id"`
	VRM     string    `json:"vrm"`
	Make    string    `json:"make"`
	Model   string    `json:"model"`
	Year    int       `json:"year,omitempty"`
	Mileage int       `json:"mileage,omitempty"`
	Colour  string    `json:"colour,omitempty"`
}

// CustomerInfo identifies the buyer
type CustomerInfo struct {
	ID      *uuid.UUID `json:"id,omitempty"`
	Name    string     `json:"name"`
	Email   string     `json:"email,omitempty"`
	Phone   string     `json:"phone,omitempty"`
	Address []string   `json:"address,omitempty"`
}

// AddOnInfo is a priced add-on line
type AddOnInfo struct {
	Name         string `json:"name"`
	Quantity     int    `json:"quantity"`
	VATTreatment string `json:"vatTreatment"`
	Amounts
}

// DeliveryInfo is the delivery terms and price
type DeliveryInfo struct {
	IsFree bool   `json:"isFree"`
	Notes  string `json:"notes,omitempty"`
	Amounts
}

// WarrantyInfo describes an included warranty
type WarrantyInfo struct {
	Name           string `json:"name,omitempty"`
	DurationMonths int    `json:"durationMonths,omitempty"`
	VATTreatment   string `json:"vatTreatment"`
	Amounts
}

// FinanceInfo summarises the finance selection
type FinanceInfo struct {
	CompanyName   string `json:"companyName,omitempty"`
	ToBeConfirmed bool   `json:"toBeConfirmed"`
}

// PartExchangeInfo summarises a trade-in
type PartExchangeInfo struct {
	VRM        string          `json:"vrm"`
	Make       string          `json:"make,omitempty"`
	Model      string          `json:"model,omitempty"`
	Year       int             `json:"year,omitempty"`
	Allowance  decimal.Decimal `json:"allowance"`
	Settlement decimal.Decimal `json:"settlement"`
	Net        decimal.Decimal `json:"net"`
}

// PaymentInfo is one payment as it stood when the document was issued
type PaymentInfo struct {
	ID         uuid.UUID       `json:"id"`
	Type       string          `json:"type"`
	Amount     decimal.Decimal `json:"amount"`
	Method     string          `json:"method"`
	PaidAt     time.Time       `json:"paidAt"`
	Reference  string          `json:"reference,omitempty"`
	TakenBy    string          `json:"takenBy,omitempty"`
	IsRefunded bool            `json:"isRefunded"`
}

// TotalsInfo is the money summary
type TotalsInfo struct {
	Net             decimal.Decimal `json:"net"`
	VAT             decimal.Decimal `json:"vat"`
	GrandTotal      decimal.Decimal `json:"grandTotal"`
	TotalPaid       decimal.Decimal `json:"totalPaid"`
	PartExchangeNet decimal.Decimal `json:"partExchangeNet"`
	BalanceDue      decimal.Decimal `json:"balanceDue"`
}

// DealerInfo is the dealership branding block
type DealerInfo struct {
	Name      string   `json:"name"`
	Address   []string `json:"address,omitempty"`
	Phone     string   `json:"phone,omitempty"`
	Email     string   `json:"email,omitempty"`
	VATNumber string   `json:"vatNumber,omitempty"`
	LogoURL   string   `json:"logoUrl,omitempty"`
}
