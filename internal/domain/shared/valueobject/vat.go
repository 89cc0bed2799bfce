package valueobject

import (
	"github.com/shopspring/decimal"
)

// StandardRate is the UK standard VAT rate
var StandardRate = decimal.RequireFromString("0.20")

// MoneyPlaces is the number of decimal places kept for pounds and pence
const MoneyPlaces int32 = 2

// Breakdown is an immutable net/VAT/gross triple. Net + VAT always equals Gross.
type Breakdown struct {
	Net   decimal.Decimal `json:"net"`
	VAT   decimal.Decimal `json:"vat"`
	Gross decimal.Decimal `json:"gross"`
}

// ZeroBreakdown returns a breakdown of zero
func ZeroBreakdown() Breakdown {
	return Breakdown{Net: decimal.Zero, VAT: decimal.Zero, Gross: decimal.Zero}
}

// RoundMoney rounds half away from zero to whole pence
func RoundMoney(d decimal.Decimal) decimal.Decimal {
	return d.Round(MoneyPlaces)
}

// FromGross splits a VAT-inclusive amount at rate. Net is rounded first and
// VAT takes the remainder.
func FromGross(gross, rate decimal.Decimal) Breakdown {
	gross = RoundMoney(gross)
	net := RoundMoney(gross.Div(decimal.NewFromInt(1).Add(rate)))
	return Breakdown{Net: net, VAT: gross.Sub(net), Gross: gross}
}

// FromNet adds VAT at rate to a VAT-exclusive amount
func FromNet(net, rate decimal.Decimal) Breakdown {
	net = RoundMoney(net)
	vat := RoundMoney(net.Mul(rate))
	return Breakdown{Net: net, VAT: vat, Gross: net.Add(vat)}
}

// NoVAT treats amount as both net and gross
func NoVAT(amount decimal.Decimal) Breakdown {
	amount = RoundMoney(amount)
	return Breakdown{Net: amount, VAT: decimal.Zero, Gross: amount}
}

// Add sums two breakdowns component-wise
func (b Breakdown) Add(other Breakdown) Breakdown {
	return Breakdown{
		Net:   b.Net.Add(other.Net),
		VAT:   b.VAT.Add(other.VAT),
		Gross: b.Gross.Add(other.Gross),
	}
}

// IsZero reports whether the gross amount is zero
func (b Breakdown) IsZero() bool {
	return b.Gross.IsZero()
}
