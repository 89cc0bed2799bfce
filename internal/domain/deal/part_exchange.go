package deal

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Disposition is what the dealer intends to do with a trade-in
type Disposition string

const (
	DispositionUndecided   Disposition = "UNDECIDED"
	DispositionRetailStock Disposition = "RETAIL_STOCK"
	DispositionTradeSale   Disposition = "TRADE_SALE"
	DispositionAuction     Disposition = "AUCTION"
)

// IsValid checks if the disposition is known. Empty means undecided.
func (d Disposition) IsValid() bool {
	switch d {
	case "", DispositionUndecided, DispositionRetailStock, DispositionTradeSale, DispositionAuction:
		return true
	}
	return false
}

// LeavesStock reports whether the trade-in is disposed of outside the stock book
func (d Disposition) LeavesStock() bool {
	return d == DispositionTradeSale || d == DispositionAuction
}

// NeedsPreparation reports whether the converted vehicle gets the default prep tasks
func (d Disposition) NeedsPreparation() bool {
	return d == "" || d == DispositionUndecided || d == DispositionRetailStock
}

// PartExchange is a trade-in taken against the deal
type PartExchange struct {
	ID                      uuid.UUID       `json:"id"`
	VRM                     string          `json:"vrm"`
	Make                    string          `json:"make,omitempty"`
	Model                   string          `json:"model,omitempty"`
	Year                    int             `json:"year,omitempty"`
	Mileage                 int             `json:"mileage,omitempty"`
	Colour                  string          `json:"colour,omitempty"`
	Allowance               decimal.Decimal `json:"allowance"`
	Settlement              decimal.Decimal `json:"settlement"`
	VATQualifying           bool            `json:"vatQualifying"`
	HasFinance              bool            `json:"hasFinance"`
	FinanceCompanyContactID *uuid.UUID      `json:"financeCompanyContactId,omitempty"`
	HasSettlementInWriting  bool            `json:"hasSettlementInWriting"`
	Disposition             Disposition     `json:"disposition,omitempty"`
	AppraisalID             *uuid.UUID      `json:"appraisalId,omitempty"`
	ConvertedToVehicleID    *uuid.UUID      `json:"convertedToVehicleId,omitempty"`
	ConvertedAt             *time.Time      `json:"convertedAt,omitempty"`
}

// NetValue is what the trade-in is worth against the deal
func (p PartExchange) NetValue() decimal.Decimal {
	return p.Allowance.Sub(p.Settlement)
}

// IsConverted reports whether a stock vehicle was created from this entry
func (p PartExchange) IsConverted() bool {
	return p.ConvertedToVehicleID != nil
}
