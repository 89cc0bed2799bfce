package deal

import (
	"sort"
	"strings"

	"github.com/dealer/backend/internal/domain/shared"
	"github.com/dealer/backend/internal/domain/shared/valueobject"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Field names used in edit payloads and error details
const (
	FieldCustomerID        = "customerId"
	FieldVATScheme         = "vatScheme"
	FieldVehiclePriceGross = "vehiclePriceGross"
	FieldAddOns            = "addOns"
	FieldDelivery          = "delivery"
	FieldWarranty          = "warranty"
	FieldFinanceSelection  = "financeSelection"
	FieldPartExchanges     = "partExchanges"
	FieldRequests          = "requests"
	FieldNotes             = "notes"
	FieldVehicleCostNet    = "vehicleCostNet"
	FieldCostAdjustments   = "costAdjustments"
)

// completedEditable are the cost-basis fields that may still change after completion
var completedEditable = map[string]bool{
	FieldVehicleCostNet:  true,
	FieldCostAdjustments: true,
}

// Update is a partial edit. Nil fields are left alone.
type Update struct {
	CustomerID        *uuid.UUID
	VATScheme         *VATScheme
	VehiclePriceGross *decimal.Decimal
	AddOns            *[]AddOn
	Delivery          *Delivery
	Warranty          *Warranty
	FinanceSelection  *FinanceSelection
	PartExchanges     *[]PartExchange
	Requests          *[]Request
	Notes             *string
	VehicleCostNet    *decimal.Decimal
	CostAdjustments   *[]CostAdjustment
}

// Fields lists the fields present in the update, sorted
func (u Update) Fields() []string {
	present := map[string]bool{
		FieldCustomerID:        u.CustomerID != nil,
		FieldVATScheme:         u.VATScheme != nil,
		FieldVehiclePriceGross: u.VehiclePriceGross != nil,
		FieldAddOns:            u.AddOns != nil,
		FieldDelivery:          u.Delivery != nil,
		FieldWarranty:          u.Warranty != nil,
		FieldFinanceSelection:  u.FinanceSelection != nil,
		FieldPartExchanges:     u.PartExchanges != nil,
		FieldRequests:          u.Requests != nil,
		FieldNotes:             u.Notes != nil,
		FieldVehicleCostNet:    u.VehicleCostNet != nil,
		FieldCostAdjustments:   u.CostAdjustments != nil,
	}
	fields := make([]string, 0, len(present))
	for name, ok := range present {
		if ok {
			fields = append(fields, name)
		}
	}
	sort.Strings(fields)
	return fields
}

// ApplyUpdate validates the edit against the deal's status and applies it.
// Nothing is changed if any part of the update is rejected.
func (d *Deal) ApplyUpdate(u Update) error {
	if d.Status == StatusCancelled {
		return shared.NewInvalidStateError("Cancelled deals cannot be edited")
	}
	if err := d.checkLockedFields(u); err != nil {
		return err
	}

	next := *d
	if err := next.apply(u); err != nil {
		return err
	}
	d.CustomerID = next.CustomerID
	d.VATScheme = next.VATScheme
	d.VehiclePrice = next.VehiclePrice
	d.AddOns = next.AddOns
	d.Delivery = next.Delivery
	d.Warranty = next.Warranty
	d.FinanceSelection = next.FinanceSelection
	d.PartExchanges = next.PartExchanges
	d.Requests = next.Requests
	d.Notes = next.Notes
	d.VehicleCostNet = next.VehicleCostNet
	d.CostAdjustments = next.CostAdjustments
	return nil
}

func (d *Deal) checkLockedFields(u Update) error {
	if d.Status == StatusCompleted {
		var rejected []string
		for _, f := range u.Fields() {
			if !completedEditable[f] {
				rejected = append(rejected, f)
			}
		}
		if len(rejected) > 0 {
			return shared.NewInvalidStateError("Completed deals only accept cost amendments; cannot change %s", strings.Join(rejected, ", ")).
				WithDetail("fields", rejected)
		}
		return nil
	}

	if d.Status.AtLeast(StatusInvoiced) {
		if u.FinanceSelection != nil && !u.FinanceSelection.Equal(d.FinanceSelection) {
			return shared.NewInvalidStateError("Finance selection is locked once the deal is %s", d.Status).
				WithDetail("fields", []string{FieldFinanceSelection})
		}
		if u.Delivery != nil && !u.Delivery.Equal(d.Delivery) {
			return shared.NewInvalidStateError("Delivery is locked once the deal is %s", d.Status).
				WithDetail("fields", []string{FieldDelivery})
		}
	}
	return nil
}

func (d *Deal) apply(u Update) error {
	if u.CustomerID != nil {
		if *u.CustomerID == uuid.Nil {
			return shared.NewValidationError("Customer ID is required").WithDetail("field", FieldCustomerID)
		}
		id := *u.CustomerID
		d.CustomerID = &id
	}
	if u.VATScheme != nil {
		if !u.VATScheme.IsValid() {
			return shared.NewValidationError("Unknown VAT scheme %q", *u.VATScheme).WithDetail("field", FieldVATScheme)
		}
		d.VATScheme = *u.VATScheme
	}
	gross := d.VehiclePrice.Gross
	if u.VehiclePriceGross != nil {
		if u.VehiclePriceGross.IsNegative() {
			return shared.NewValidationError("Vehicle price cannot be negative").WithDetail("field", FieldVehiclePriceGross)
		}
		gross = *u.VehiclePriceGross
	}
	d.VehiclePrice = VehicleBreakdown(d.VATScheme, gross)

	if u.AddOns != nil {
		addOns, err := normalizeAddOns(*u.AddOns)
		if err != nil {
			return err
		}
		d.AddOns = addOns
	}
	if u.Delivery != nil {
		if u.Delivery.Amount.IsNegative() {
			return shared.NewValidationError("Delivery amount cannot be negative").WithDetail("field", FieldDelivery)
		}
		delivery := *u.Delivery
		delivery.Amount = valueobject.RoundMoney(delivery.Amount)
		d.Delivery = delivery
	}
	if u.Warranty != nil {
		w := *u.Warranty
		if w.PriceGross.IsNegative() {
			return shared.NewValidationError("Warranty price cannot be negative").WithDetail("field", FieldWarranty)
		}
		if w.VATTreatment == "" {
			w.VATTreatment = VATExempt
		}
		if !w.VATTreatment.IsValid() {
			return shared.NewValidationError("Unknown VAT treatment %q", w.VATTreatment).WithDetail("field", FieldWarranty)
		}
		d.Warranty = w
	}
	if u.FinanceSelection != nil {
		d.FinanceSelection = *u.FinanceSelection
	}
	if u.PartExchanges != nil {
		entries, err := mergePartExchanges(d.PartExchanges, *u.PartExchanges)
		if err != nil {
			return err
		}
		d.PartExchanges = entries
	}
	if u.Requests != nil {
		requests, err := normalizeRequests(*u.Requests)
		if err != nil {
			return err
		}
		d.Requests = requests
	}
	if u.Notes != nil {
		d.Notes = strings.TrimSpace(*u.Notes)
	}
	if u.VehicleCostNet != nil {
		if u.VehicleCostNet.IsNegative() {
			return shared.NewValidationError("Vehicle cost cannot be negative").WithDetail("field", FieldVehicleCostNet)
		}
		d.VehicleCostNet = valueobject.RoundMoney(*u.VehicleCostNet)
	}
	if u.CostAdjustments != nil {
		adjustments := make([]CostAdjustment, 0, len(*u.CostAdjustments))
		for _, c := range *u.CostAdjustments {
			if strings.TrimSpace(c.Description) == "" {
				return shared.NewValidationError("Cost adjustment description is required").WithDetail("field", FieldCostAdjustments)
			}
			if c.ID == uuid.Nil {
				c.ID = uuid.New()
			}
			c.AmountNet = valueobject.RoundMoney(c.AmountNet)
			adjustments = append(adjustments, c)
		}
		d.CostAdjustments = adjustments
	}
	return nil
}

func normalizeAddOns(in []AddOn) ([]AddOn, error) {
	out := make([]AddOn, 0, len(in))
	for _, a := range in {
		a.Name = strings.TrimSpace(a.Name)
		if a.Name == "" {
			return nil, shared.NewValidationError("Add-on name is required").WithDetail("field", FieldAddOns)
		}
		if a.Quantity < 1 {
			return nil, shared.NewValidationError("Add-on %s must have a quantity of at least 1", a.Name).WithDetail("field", FieldAddOns)
		}
		if a.UnitPriceNet.IsNegative() {
			return nil, shared.NewValidationError("Add-on %s cannot have a negative price", a.Name).WithDetail("field", FieldAddOns)
		}
		if a.VATTreatment == "" {
			a.VATTreatment = VATStandard
		}
		if !a.VATTreatment.IsValid() {
			return nil, shared.NewValidationError("Unknown VAT treatment %q", a.VATTreatment).WithDetail("field", FieldAddOns)
		}
		if a.ID == uuid.Nil {
			a.ID = uuid.New()
		}
		out = append(out, a)
	}
	return out, nil
}

// mergePartExchanges replaces the trade-in list. Conversion markers are
// owned by the deal, so they are carried over from the existing entry with
// the same id and cannot be set or cleared through an edit.
func mergePartExchanges(existing, in []PartExchange) ([]PartExchange, error) {
	byID := make(map[uuid.UUID]PartExchange, len(existing))
	for _, px := range existing {
		byID[px.ID] = px
	}

	seen := make(map[string]bool, len(in))
	out := make([]PartExchange, 0, len(in))
	for _, px := range in {
		px.VRM = valueobject.NormalizeVRM(px.VRM)
		if !valueobject.IsValidVRM(px.VRM) {
			return nil, shared.NewValidationError("Part-exchange registration %q is not valid", px.VRM).WithDetail("field", FieldPartExchanges)
		}
		if seen[px.VRM] {
			return nil, shared.NewValidationError("Part-exchange %s is listed twice", px.VRM).WithDetail("field", FieldPartExchanges)
		}
		seen[px.VRM] = true
		if px.Allowance.IsNegative() || px.Settlement.IsNegative() {
			return nil, shared.NewValidationError("Part-exchange %s amounts cannot be negative", px.VRM).WithDetail("field", FieldPartExchanges)
		}
		if !px.Disposition.IsValid() {
			return nil, shared.NewValidationError("Unknown disposition %q", px.Disposition).WithDetail("field", FieldPartExchanges)
		}
		if !px.HasFinance {
			px.FinanceCompanyContactID = nil
			px.HasSettlementInWriting = false
		}
		px.Allowance = valueobject.RoundMoney(px.Allowance)
		px.Settlement = valueobject.RoundMoney(px.Settlement)

		if prior, ok := byID[px.ID]; ok && px.ID != uuid.Nil {
			px.ConvertedToVehicleID = prior.ConvertedToVehicleID
			px.ConvertedAt = prior.ConvertedAt
		} else {
			px.ID = uuid.New()
			px.ConvertedToVehicleID = nil
			px.ConvertedAt = nil
		}
		out = append(out, px)
	}

	for _, prior := range existing {
		if !prior.IsConverted() {
			continue
		}
		kept := false
		for _, px := range out {
			if px.ID == prior.ID {
				kept = true
				break
			}
		}
		if !kept {
			return nil, shared.NewInvalidStateError("Part-exchange %s has already been taken into stock", prior.VRM).
				WithDetail("field", FieldPartExchanges)
		}
	}
	return out, nil
}

func normalizeRequests(in []Request) ([]Request, error) {
	out := make([]Request, 0, len(in))
	for _, r := range in {
		r.Description = strings.TrimSpace(r.Description)
		if r.Description == "" {
			return nil, shared.NewValidationError("Request description is required").WithDetail("field", FieldRequests)
		}
		if r.Status == "" {
			r.Status = RequestRequested
		}
		if !r.Status.IsValid() {
			return nil, shared.NewValidationError("Unknown request status %q", r.Status).WithDetail("field", FieldRequests)
		}
		if r.ID == uuid.Nil {
			r.ID = uuid.New()
		}
		out = append(out, r)
	}
	return out, nil
}
