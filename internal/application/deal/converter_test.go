package deal

import (
	"context"
	"testing"

	"github.com/dealer/backend/internal/application/transaction"
	"github.com/dealer/backend/internal/domain/appraisal"
	"github.com/dealer/backend/internal/domain/deal"
	"github.com/dealer/backend/internal/domain/vehicle"
	"github.com/dealer/backend/tests/testutil"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func dealWithPartExchanges(t *testing.T, tenantID uuid.UUID, entries ...deal.PartExchange) *deal.Deal {
	t.Helper()
	d, err := deal.NewDeal(tenantID, uuid.New(), deal.VATSchemeMargin, dec("8000"), dec("6000"), "Sam Sales")
	require.NoError(t, err)
	require.NoError(t, d.ApplyUpdate(deal.Update{PartExchanges: &entries}))
	return d
}

func convert(t *testing.T, store *testutil.MemoryStore, c *PartExchangeConverter, d *deal.Deal) ConversionReport {
	t.Helper()
	var report ConversionReport
	err := store.Execute(context.Background(), func(repos transaction.Repositories) error {
		var err error
		report, err = c.Convert(context.Background(), repos, d, testNow)
		return err
	})
	require.NoError(t, err)
	return report
}

func TestPartExchangeConverter_Convert(t *testing.T) {
	store := testutil.NewMemoryStore()
	tenantID := uuid.New()
	appraisalID := uuid.New()
	store.Appraisals[appraisalID] = appraisal.Appraisal{
		ID:       appraisalID,
		TenantID: tenantID,
		VRM:      "VQ01ABC",
		Issues: []appraisal.Issue{
			{ID: uuid.New(), Category: "bodywork", Description: "Dent rear door", Status: appraisal.StatusOutstanding},
			{ID: uuid.New(), Category: "paintwork", Description: "Stone chips", Status: appraisal.StatusResolved},
		},
	}

	existing, err := vehicle.NewVehicle(tenantID, "DUP01AB", "Ford", "Ka", 2015)
	require.NoError(t, err)
	store.AddVehicle(existing)

	d := dealWithPartExchanges(t, tenantID,
		deal.PartExchange{VRM: "VQ01 ABC", Make: "BMW", Model: "320d", Allowance: dec("12000"), VATQualifying: true, AppraisalID: &appraisalID},
		deal.PartExchange{VRM: "TS01ABC", Allowance: dec("500"), Disposition: deal.DispositionTradeSale},
		deal.PartExchange{VRM: "AU01ABC", Allowance: dec("700"), Disposition: deal.DispositionAuction},
		deal.PartExchange{VRM: "DUP01AB", Allowance: dec("900")},
	)

	c := NewPartExchangeConverter([]string{"Valet", "Photos"})
	report := convert(t, store, c, d)

	require.Len(t, report.Converted, 1)
	assert.Equal(t, "VQ01ABC", report.Converted[0].VRM)
	assert.Equal(t, 2, report.Converted[0].PrepTasks)
	assert.Equal(t, 2, report.Converted[0].IssuesCopied)
	assert.ElementsMatch(t, []SkippedPartExchange{
		{VRM: "TS01ABC", Reason: SkipReasonDisposed},
		{VRM: "AU01ABC", Reason: SkipReasonDisposed},
		{VRM: "DUP01AB", Reason: SkipReasonDuplicateVRM},
	}, report.Skipped)

	v := store.VehicleByVRM("VQ01ABC")
	require.NotNil(t, v)
	assert.True(t, v.VATQualifying)
	assert.True(t, dec("10000").Equal(v.Purchase.PurchasePriceNet))
	assert.True(t, dec("2000").Equal(v.Purchase.PurchaseVAT))
	assert.True(t, dec("12000").Equal(v.Purchase.PurchasePriceGross))
	assert.Equal(t, PurchaseSourcePartExchange, v.Purchase.Source)
	assert.Equal(t, d.ID, *v.SourceDealID)
	assert.Equal(t, "VQ01ABC", v.SourcePxVRM)
	assert.Equal(t, vehicle.SalesStatusAvailable, v.SalesStatus)

	tasks := store.PrepTasks(v.ID)
	require.Len(t, tasks, 2)
	assert.Equal(t, "Valet", tasks[0].Name)

	issues := store.Issues(v.ID)
	require.Len(t, issues, 2)
	assert.Equal(t, "Dent rear door", issues[0].Description)
	assert.Equal(t, "Bodywork", issues[0].Category)
	assert.Equal(t, vehicle.IssueStatusOutstanding, issues[0].Status)
	assert.Equal(t, vehicle.IssueCategoryOther, issues[1].Category)
	assert.Equal(t, vehicle.IssueStatusComplete, issues[1].Status)
	assert.True(t, issues[0].Transferred)

	assert.True(t, d.PartExchanges[0].IsConverted())
	assert.False(t, d.PartExchanges[1].IsConverted())

	again := convert(t, store, c, d)
	assert.Empty(t, again.Converted)
	assert.Len(t, store.PrepTasks(v.ID), 2)
}

func TestPartExchangeConverter_DealerPrepTasksWin(t *testing.T) {
	store := testutil.NewMemoryStore()
	tenantID := uuid.New()
	store.Dealers[tenantID] = testDealerProfile(tenantID, "Full valet")

	d := dealWithPartExchanges(t, tenantID,
		deal.PartExchange{VRM: "RS01ABC", Allowance: dec("3000"), Disposition: deal.DispositionRetailStock},
	)
	report := convert(t, store, NewPartExchangeConverter([]string{"Inspect", "Photos"}), d)

	require.Len(t, report.Converted, 1)
	tasks := store.PrepTasks(report.Converted[0].VehicleID)
	require.Len(t, tasks, 1)
	assert.Equal(t, "Full valet", tasks[0].Name)
	assert.True(t, dec("3000").Equal(store.Vehicle(report.Converted[0].VehicleID).Purchase.PurchasePriceNet))
}

func TestPartExchangeConverter_Reverse(t *testing.T) {
	store := testutil.NewMemoryStore()
	tenantID := uuid.New()
	d := dealWithPartExchanges(t, tenantID,
		deal.PartExchange{VRM: "AV01ABC", Allowance: dec("1000")},
		deal.PartExchange{VRM: "SD01ABC", Allowance: dec("1000")},
		deal.PartExchange{VRM: "GN01ABC", Allowance: dec("1000")},
	)
	c := NewPartExchangeConverter([]string{"Valet"})
	report := convert(t, store, c, d)
	require.Len(t, report.Converted, 3)

	sold := store.VehicleByVRM("SD01ABC")
	sold.SalesStatus = vehicle.SalesStatusCompleted
	sold.Status = vehicle.StockStatusSold
	store.UpdateVehicle(sold)
	require.NoError(t, store.Execute(context.Background(), func(repos transaction.Repositories) error {
		return repos.Vehicles().Delete(context.Background(), tenantID, store.VehicleByVRM("GN01ABC").ID)
	}))

	var reversal ReversalReport
	require.NoError(t, store.Execute(context.Background(), func(repos transaction.Repositories) error {
		var err error
		reversal, err = c.Reverse(context.Background(), repos, d)
		return err
	}))

	require.Len(t, reversal.Removed, 1)
	assert.Nil(t, store.VehicleByVRM("AV01ABC"))
	assert.Empty(t, store.PrepTasks(report.Converted[0].VehicleID))
	require.Len(t, reversal.Retained, 1)
	assert.Equal(t, RetainedVehicle{VRM: "SD01ABC", VehicleID: sold.ID, Reason: "already sold"}, reversal.Retained[0])

	assert.False(t, d.PartExchanges[0].IsConverted())
	assert.True(t, d.PartExchanges[1].IsConverted())
	assert.False(t, d.PartExchanges[2].IsConverted())
}

func TestPartExchangeConverter_Reverse_KeepsVehicleWithOpenDeal(t *testing.T) {
	store := testutil.NewMemoryStore()
	tenantID := uuid.New()
	d := dealWithPartExchanges(t, tenantID, deal.PartExchange{VRM: "OD01ABC", Allowance: dec("1000")})
	c := NewPartExchangeConverter(nil)
	report := convert(t, store, c, d)
	require.Len(t, report.Converted, 1)

	vehicleID := report.Converted[0].VehicleID
	draft, err := deal.NewDeal(tenantID, vehicleID, deal.VATSchemeMargin, dec("2500"), dec("1000"), "Sam Sales")
	require.NoError(t, err)
	store.AddDeal(draft)

	var reversal ReversalReport
	require.NoError(t, store.Execute(context.Background(), func(repos transaction.Repositories) error {
		var err error
		reversal, err = c.Reverse(context.Background(), repos, d)
		return err
	}))

	assert.Empty(t, reversal.Removed)
	require.Len(t, reversal.Retained, 1)
	assert.Equal(t, vehicle.ReasonInDeal, reversal.Retained[0].Reason)
	assert.NotNil(t, store.Vehicle(vehicleID))
	assert.True(t, d.PartExchanges[0].IsConverted())
}
