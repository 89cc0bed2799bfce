package vehicle

import (
	"strings"
	"time"

	"github.com/dealer/backend/internal/domain/shared"
	"github.com/dealer/backend/internal/domain/shared/valueobject"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// SalesStatus tracks the vehicle against deals
type SalesStatus string

const (
	SalesStatusAvailable SalesStatus = "AVAILABLE"
	SalesStatusInDeal    SalesStatus = "IN_DEAL"
	SalesStatusCompleted SalesStatus = "COMPLETED"
)

// StockStatus is the stock book status
type StockStatus string

const (
	StockStatusInStock StockStatus = "in_stock"
	StockStatusSold    StockStatus = "SOLD"
)

// Purchase is the cost basis (SIV) of a vehicle
type Purchase struct {
	PurchasePriceNet   decimal.Decimal
	PurchaseVAT        decimal.Decimal
	PurchasePriceGross decimal.Decimal
	PurchasedAt        *time.Time
	Source             string
}

// Vehicle is a stock unit
type Vehicle struct {
	shared.TenantAggregateRoot
	VRM           string
	Make          string
	Model         string
	Year          int
	Mileage       int
	Colour        string
	VATQualifying bool
	SalesStatus   SalesStatus
	Status        StockStatus
	SoldDealID    *uuid.UUID
	SoldAt        *time.Time
	SourceDealID  *uuid.UUID
	SourcePxVRM   string
	Purchase      Purchase
}

// NewVehicle creates an available stock vehicle
func NewVehicle(tenantID uuid.UUID, vrm, manufacturer, model string, year int) (*Vehicle, error) {
	vrm = valueobject.NormalizeVRM(vrm)
	if !valueobject.IsValidVRM(vrm) {
		return nil, shared.NewValidationError("Registration %q is not valid", vrm).WithDetail("field", "vrm")
	}
	return &Vehicle{
		TenantAggregateRoot: shared.NewTenantAggregateRoot(tenantID),
		VRM:                 vrm,
		Make:                strings.TrimSpace(manufacturer),
		Model:               strings.TrimSpace(model),
		Year:                year,
		SalesStatus:         SalesStatusAvailable,
		Status:              StockStatusInStock,
		Purchase: Purchase{
			PurchasePriceNet:   decimal.Zero,
			PurchaseVAT:        decimal.Zero,
			PurchasePriceGross: decimal.Zero,
		},
	}, nil
}

// SetPurchase records the cost basis
func (v *Vehicle) SetPurchase(b valueobject.Breakdown, at time.Time, source string) {
	v.Purchase = Purchase{
		PurchasePriceNet:   b.Net,
		PurchaseVAT:        b.VAT,
		PurchasePriceGross: b.Gross,
		PurchasedAt:        &at,
		Source:             source,
	}
}

// LinkSourceDeal records that the vehicle came in as a part-exchange on dealID
func (v *Vehicle) LinkSourceDeal(dealID uuid.UUID, pxVRM string) {
	v.SourceDealID = &dealID
	v.SourcePxVRM = valueobject.NormalizeVRM(pxVRM)
}

// IsAvailable reports whether nothing downstream depends on the vehicle
func (v *Vehicle) IsAvailable() bool {
	return v.SalesStatus == SalesStatusAvailable
}

// Reasons a converted vehicle is kept when its deal is cancelled
const (
	ReasonSold   = "already sold"
	ReasonInDeal = "already in a deal"
)

// ProgressReason explains why a vehicle can no longer be removed automatically
func (v *Vehicle) ProgressReason() string {
	switch {
	case v.SalesStatus == SalesStatusCompleted || v.Status == StockStatusSold:
		return ReasonSold
	case v.SalesStatus == SalesStatusInDeal:
		return ReasonInDeal
	}
	return ""
}
