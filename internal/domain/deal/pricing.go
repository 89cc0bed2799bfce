package deal

import (
	"github.com/dealer/backend/internal/domain/shared/valueobject"
	"github.com/shopspring/decimal"
)

// BalanceTolerance absorbs pence rounding when deciding whether a deal is paid up
var BalanceTolerance = decimal.RequireFromString("0.01")

// PricingInput is everything the calculator needs. It is built from a Deal
// but kept separate so the arithmetic stays free of aggregate state.
type PricingInput struct {
	Scheme            VATScheme
	VehiclePriceGross decimal.Decimal
	AddOns            []AddOn
	Delivery          Delivery
	Warranty          Warranty
	PartExchanges     []PartExchange
	Payments          []Payment
	VehicleCostNet    decimal.Decimal
	CostAdjustments   []CostAdjustment
}

// AddOnLine is a priced add-on
type AddOnLine struct {
	Name         string       `json:"name"`
	Quantity     int          `json:"quantity"`
	VATTreatment VATTreatment `json:"vatTreatment"`
	valueobject.Breakdown
}

// Totals is the full money picture of a deal
type Totals struct {
	Vehicle                valueobject.Breakdown `json:"vehicle"`
	AddOns                 []AddOnLine           `json:"addOns"`
	Delivery               valueobject.Breakdown `json:"delivery"`
	Warranty               valueobject.Breakdown `json:"warranty"`
	Net                    decimal.Decimal       `json:"net"`
	VAT                    decimal.Decimal       `json:"vat"`
	GrandTotal             decimal.Decimal       `json:"grandTotal"`
	TotalPaid              decimal.Decimal       `json:"totalPaid"`
	PartExchangeAllowance  decimal.Decimal       `json:"partExchangeAllowance"`
	PartExchangeSettlement decimal.Decimal       `json:"partExchangeSettlement"`
	PartExchangeNet        decimal.Decimal       `json:"partExchangeNet"`
	BalanceDue             decimal.Decimal       `json:"balanceDue"`
	FullyPaid              bool                  `json:"fullyPaid"`
	GrossProfit            decimal.Decimal       `json:"grossProfit"`
}

// VehicleBreakdown prices the vehicle itself. Under the margin scheme no VAT
// is itemised.
func VehicleBreakdown(scheme VATScheme, gross decimal.Decimal) valueobject.Breakdown {
	if scheme == VATSchemeVATQualifying {
		return valueobject.FromGross(gross, valueobject.StandardRate)
	}
	return valueobject.NoVAT(gross)
}

// AddOnBreakdown prices an add-on. The treatment is chosen per line and does
// not follow the deal's scheme.
func AddOnBreakdown(a AddOn) valueobject.Breakdown {
	net := a.UnitPriceNet.Mul(decimal.NewFromInt(int64(a.Quantity)))
	if a.VATTreatment == VATExempt {
		return valueobject.NoVAT(net)
	}
	return valueobject.FromNet(net, valueobject.StandardRate)
}

// DeliveryBreakdown prices delivery. The amount is entered gross and follows
// the deal's scheme.
func DeliveryBreakdown(scheme VATScheme, d Delivery) valueobject.Breakdown {
	if d.IsFree || d.Amount.IsZero() {
		return valueobject.ZeroBreakdown()
	}
	return VehicleBreakdown(scheme, d.Amount)
}

// WarrantyBreakdown prices an included warranty from its gross price
func WarrantyBreakdown(w Warranty) valueobject.Breakdown {
	if !w.Included || w.PriceGross.IsZero() {
		return valueobject.ZeroBreakdown()
	}
	if w.VATTreatment == VATStandard {
		return valueobject.FromGross(w.PriceGross, valueobject.StandardRate)
	}
	return valueobject.NoVAT(w.PriceGross)
}

// TotalPaid sums payments that have not been refunded
func TotalPaid(payments []Payment) decimal.Decimal {
	total := decimal.Zero
	for _, p := range payments {
		if p.Counts() {
			total = total.Add(p.Amount)
		}
	}
	return total
}

// PartExchangeNet is the sum of allowances less the sum of settlements
func PartExchangeNet(entries []PartExchange) (allowance, settlement, net decimal.Decimal) {
	allowance, settlement = decimal.Zero, decimal.Zero
	for _, px := range entries {
		allowance = allowance.Add(px.Allowance)
		settlement = settlement.Add(px.Settlement)
	}
	return allowance, settlement, allowance.Sub(settlement)
}

// Calculate produces the totals for a deal. It has no side effects and gives
// the same answer however often it is called with the same input.
func Calculate(in PricingInput) Totals {
	t := Totals{
		Vehicle:  VehicleBreakdown(in.Scheme, in.VehiclePriceGross),
		AddOns:   make([]AddOnLine, 0, len(in.AddOns)),
		Delivery: DeliveryBreakdown(in.Scheme, in.Delivery),
		Warranty: WarrantyBreakdown(in.Warranty),
	}

	sum := t.Vehicle.Add(t.Delivery).Add(t.Warranty)
	for _, a := range in.AddOns {
		line := AddOnLine{
			Name:         a.Name,
			Quantity:     a.Quantity,
			VATTreatment: a.VATTreatment,
			Breakdown:    AddOnBreakdown(a),
		}
		t.AddOns = append(t.AddOns, line)
		sum = sum.Add(line.Breakdown)
	}

	t.Net = sum.Net
	t.VAT = sum.VAT
	t.GrandTotal = sum.Gross
	t.TotalPaid = TotalPaid(in.Payments)
	t.PartExchangeAllowance, t.PartExchangeSettlement, t.PartExchangeNet = PartExchangeNet(in.PartExchanges)
	t.BalanceDue = t.GrandTotal.Sub(t.TotalPaid).Sub(t.PartExchangeNet)
	t.FullyPaid = t.BalanceDue.LessThanOrEqual(BalanceTolerance)

	costs := in.VehicleCostNet
	for _, c := range in.CostAdjustments {
		costs = costs.Add(c.AmountNet)
	}
	t.GrossProfit = t.Net.Sub(costs)

	return t
}
