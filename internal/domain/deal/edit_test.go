package deal

import (
	"testing"
	"time"

	"github.com/dealer/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ptr[T any](v T) *T { return &v }

func completedDeal(t *testing.T) *Deal {
	t.Helper()
	d := newTestDeal(t)
	_, _, err := d.TakeDeposit(deposit("100"))
	require.NoError(t, err)
	signBoth(t, d)
	require.NoError(t, d.Complete(testNow, false))
	return d
}

func TestUpdate_Fields(t *testing.T) {
	u := Update{Notes: ptr("x"), AddOns: &[]AddOn{}}
	assert.Equal(t, []string{FieldAddOns, FieldNotes}, u.Fields())
	assert.Empty(t, Update{}.Fields())
}

func TestDeal_ApplyUpdate(t *testing.T) {
	t.Run("reprices on scheme change", func(t *testing.T) {
		d := newTestDeal(t)
		require.NoError(t, d.ApplyUpdate(Update{
			VATScheme:         ptr(VATSchemeVATQualifying),
			VehiclePriceGross: ptr(dec("12000")),
		}))
		assertMoney(t, "10000", d.VehiclePrice.Net)
		assertMoney(t, "2000", d.VehiclePrice.VAT)
	})

	t.Run("normalizes add-ons and part-exchanges", func(t *testing.T) {
		d := newTestDeal(t)
		require.NoError(t, d.ApplyUpdate(Update{
			AddOns:        &[]AddOn{{Name: " Mats ", Quantity: 1, UnitPriceNet: dec("20")}},
			PartExchanges: &[]PartExchange{{VRM: "ab12 cde", Allowance: dec("2000"), Settlement: dec("500")}},
		}))
		assert.Equal(t, "Mats", d.AddOns[0].Name)
		assert.Equal(t, VATStandard, d.AddOns[0].VATTreatment)
		assert.NotEqual(t, uuid.Nil, d.AddOns[0].ID)
		assert.Equal(t, "AB12CDE", d.PartExchanges[0].VRM)
		assertMoney(t, "1500", d.Totals().PartExchangeNet)
	})

	t.Run("invalid edit changes nothing", func(t *testing.T) {
		d := newTestDeal(t)
		err := d.ApplyUpdate(Update{
			Notes:  ptr("should not stick"),
			AddOns: &[]AddOn{{Name: "Bad", Quantity: 0, UnitPriceNet: dec("1")}},
		})
		requireCode(t, err, shared.CodeValidation)
		assert.Empty(t, d.Notes)
		assert.Empty(t, d.AddOns)
	})

	t.Run("duplicate part-exchange rejected", func(t *testing.T) {
		d := newTestDeal(t)
		err := d.ApplyUpdate(Update{PartExchanges: &[]PartExchange{{VRM: "AB12CDE"}, {VRM: "ab12-cde"}}})
		requireCode(t, err, shared.CodeValidation)
	})

	t.Run("cancelled deal rejects all edits", func(t *testing.T) {
		d := newTestDeal(t)
		_, err := d.Cancel("", testNow)
		require.NoError(t, err)
		requireCode(t, d.ApplyUpdate(Update{VehicleCostNet: ptr(dec("1"))}), shared.CodeInvalidState)
	})

	t.Run("completed deal accepts only cost fields", func(t *testing.T) {
		d := completedDeal(t)
		require.NoError(t, d.ApplyUpdate(Update{
			VehicleCostNet:  ptr(dec("7600")),
			CostAdjustments: &[]CostAdjustment{{Description: "Valet", AmountNet: dec("45")}},
		}))
		assertMoney(t, "7600", d.VehicleCostNet)
		require.Len(t, d.CostAdjustments, 1)

		err := d.ApplyUpdate(Update{VehicleCostNet: ptr(dec("7700")), Notes: ptr("late note")})
		requireCode(t, err, shared.CodeInvalidState)
		assert.Contains(t, err.Error(), FieldNotes)
		assertMoney(t, "7600", d.VehicleCostNet)
	})

	t.Run("finance and delivery locked once invoiced", func(t *testing.T) {
		d := newTestDeal(t)
		require.NoError(t, d.ApplyUpdate(Update{Delivery: &Delivery{Amount: dec("99")}}))
		require.NoError(t, d.MarkInvoiced(testNow))

		requireCode(t, d.ApplyUpdate(Update{Delivery: &Delivery{Amount: dec("0"), IsFree: true}}), shared.CodeInvalidState)
		company := uuid.New()
		requireCode(t, d.ApplyUpdate(Update{FinanceSelection: &FinanceSelection{FinanceCompanyContactID: &company}}), shared.CodeInvalidState)

		// resubmitting identical terms is not a change
		require.NoError(t, d.ApplyUpdate(Update{Delivery: &Delivery{Amount: decimal.NewFromInt(99)}, Notes: ptr("ok")}))
		assert.Equal(t, "ok", d.Notes)
	})

	t.Run("converted part-exchange keeps its marker", func(t *testing.T) {
		d := newTestDeal(t)
		require.NoError(t, d.ApplyUpdate(Update{PartExchanges: &[]PartExchange{{VRM: "AB12CDE", Allowance: dec("100")}}}))
		vehicleID := uuid.New()
		d.MarkPartExchangeConverted(0, vehicleID, time.Now())

		edited := d.PartExchanges[0]
		edited.ConvertedToVehicleID = nil
		edited.Allowance = dec("150")
		require.NoError(t, d.ApplyUpdate(Update{PartExchanges: &[]PartExchange{edited}}))
		assert.Equal(t, vehicleID, *d.PartExchanges[0].ConvertedToVehicleID)

		requireCode(t, d.ApplyUpdate(Update{PartExchanges: &[]PartExchange{}}), shared.CodeInvalidState)
	})

	t.Run("no-op edits keep balance stable", func(t *testing.T) {
		d := newTestDeal(t)
		_, _, err := d.TakeDeposit(deposit("1000"))
		require.NoError(t, err)
		before := d.Totals().BalanceDue
		for i := 0; i < 3; i++ {
			require.NoError(t, d.ApplyUpdate(Update{}))
			require.NoError(t, d.ApplyUpdate(Update{VehiclePriceGross: ptr(d.VehiclePrice.Gross)}))
		}
		assert.True(t, before.Equal(d.Totals().BalanceDue))
	})
}
