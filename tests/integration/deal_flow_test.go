package integration

import (
	"context"
	"errors"
	"sort"
	"sync"
	"testing"
	"time"

	activityapp "github.com/dealer/backend/internal/application/activity"
	dealapp "github.com/dealer/backend/internal/application/deal"
	docapp "github.com/dealer/backend/internal/application/document"
	"github.com/dealer/backend/internal/domain/contact"
	"github.com/dealer/backend/internal/domain/deal"
	"github.com/dealer/backend/internal/domain/document"
	"github.com/dealer/backend/internal/domain/shared"
	"github.com/dealer/backend/internal/domain/vehicle"
	"github.com/dealer/backend/internal/infrastructure/event"
	"github.com/dealer/backend/internal/infrastructure/persistence"
	"github.com/dealer/backend/internal/infrastructure/persistence/models"
	"github.com/dealer/backend/internal/infrastructure/token"
	"github.com/dealer/backend/tests/testutil"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type engine struct {
	db         *TestDB
	deals      *dealapp.DealService
	documents  *docapp.DocumentService
	bus        *event.InMemoryEventBus
	events     *testutil.EventRecorder
	tenantID   uuid.UUID
	customerID uuid.UUID
}

func newEngine(t *testing.T) *engine {
	t.Helper()
	testDB := NewTestDB(t)
	ctx := context.Background()

	tokens, err := token.NewShareTokenService("integration-share-secret", time.Hour, "dealer-test")
	require.NoError(t, err)

	bus := event.NewInMemoryEventBus(zap.NewNop())
	activity := activityapp.NewDealActivityHandler(persistence.NewGormActivityRepository(testDB.DB), zap.NewNop())
	bus.Subscribe(activity, activity.EventTypes()...)
	recorder := testutil.NewEventRecorder()
	bus.Subscribe(recorder)
	require.NoError(t, bus.Start(ctx))
	t.Cleanup(func() { _ = bus.Stop(context.Background()) })

	scope := persistence.NewGormTransactionScope(testDB.DB)
	snapshotter := docapp.NewSnapshotter(docapp.SnapshotterConfig{Prefixes: document.DefaultPrefixes}, nil, tokens)

	e := &engine{
		db:         testDB,
		deals:      dealapp.NewDealService(scope, dealapp.NewPartExchangeConverter([]string{"PDI", "Valet"}), snapshotter, dealapp.WithEventPublisher(bus)),
		documents:  docapp.NewDocumentService(scope, snapshotter, tokens),
		bus:        bus,
		events:     recorder,
		tenantID:   uuid.New(),
		customerID: uuid.New(),
	}

	now := time.Now().UTC()
	require.NoError(t, testDB.DB.Create(&models.ContactModel{
		BaseModel:   models.BaseModel{ID: e.customerID, CreatedAt: now, UpdatedAt: now},
		TenantID:    e.tenantID,
		Kind:        contact.KindCustomer,
		DisplayName: "Jane Buyer",
	}).Error)
	return e
}

func (e *engine) stockVehicle(t *testing.T, vrm string) *vehicle.Vehicle {
	t.Helper()
	v, err := vehicle.NewVehicle(e.tenantID, vrm, "Ford", "Focus", 2019)
	require.NoError(t, err)
	require.NoError(t, persistence.NewGormVehicleRepository(e.db.DB).Create(context.Background(), v))
	return v
}

func (e *engine) readyDeal(t *testing.T, v *vehicle.Vehicle, px ...deal.PartExchange) *deal.Deal {
	t.Helper()
	ctx := context.Background()
	d, err := e.deals.CreateDeal(ctx, e.tenantID, dealapp.CreateDealInput{
		VehicleID:         v.ID,
		CustomerID:        &e.customerID,
		VATScheme:         deal.VATSchemeMargin,
		VehiclePriceGross: decimal.NewFromInt(10000),
		TakenBy:           "Sam Sales",
	})
	require.NoError(t, err)
	if len(px) > 0 {
		_, err = e.deals.Update(ctx, e.tenantID, d.ID, deal.Update{PartExchanges: &px})
		require.NoError(t, err)
	}
	_, err = e.deals.TakeDeposit(ctx, e.tenantID, d.ID, dealapp.TakeDepositInput{
		Amount: decimal.NewFromInt(1000),
		Method: deal.PaymentMethodCard,
	})
	require.NoError(t, err)
	_, err = e.deals.RecordSignature(ctx, e.tenantID, d.ID, deal.PartyCustomer, "Jane Buyer")
	require.NoError(t, err)
	_, err = e.deals.RecordSignature(ctx, e.tenantID, d.ID, deal.PartyDealer, "Sam Sales")
	require.NoError(t, err)
	return d
}

func (e *engine) vehicle(t *testing.T, id uuid.UUID) *vehicle.Vehicle {
	t.Helper()
	v, err := persistence.NewGormVehicleRepository(e.db.DB).FindByIDForTenant(context.Background(), e.tenantID, id)
	require.NoError(t, err)
	return v
}

func (e *engine) countVRM(t *testing.T, vrm string) int64 {
	t.Helper()
	var n int64
	require.NoError(t, e.db.DB.Table("vehicles").Where("tenant_id = ? AND vrm = ?", e.tenantID, vrm).Count(&n).Error)
	return n
}

func TestDealLifecycle_CompleteAndCancel(t *testing.T) {
	e := newEngine(t)
	ctx := context.Background()
	v := e.stockVehicle(t, "AB12CDE")

	d := e.readyDeal(t, v, deal.PartExchange{VRM: "PX01ABC", Make: "Vauxhall", Model: "Corsa", Allowance: decimal.NewFromInt(2000)})
	assert.Equal(t, vehicle.SalesStatusInDeal, e.vehicle(t, v.ID).SalesStatus)

	docs, err := e.documents.ListForDeal(ctx, e.tenantID, d.ID)
	require.NoError(t, err)
	require.Len(t, docs, 1)
	assert.Equal(t, "DR-000001", docs[0].DocumentNumber)

	res, err := e.deals.CompleteDeal(ctx, e.tenantID, d.ID, dealapp.CompleteDealInput{})
	require.NoError(t, err)
	assert.Equal(t, deal.StatusCompleted, res.Deal.Status)
	require.NotNil(t, res.Invoice)
	assert.Equal(t, "INV-000001", res.Invoice.DocumentNumber)
	require.Len(t, res.Conversion.Converted, 1)

	sold := e.vehicle(t, v.ID)
	assert.Equal(t, vehicle.SalesStatusCompleted, sold.SalesStatus)
	assert.Equal(t, vehicle.StockStatusSold, sold.Status)
	assert.Equal(t, int64(1), e.countVRM(t, "PX01ABC"))

	t.Run("invoice snapshot survives later edits", func(t *testing.T) {
		cost := decimal.NewFromInt(6500)
		_, err := e.deals.Update(ctx, e.tenantID, d.ID, deal.Update{VehicleCostNet: &cost})
		require.NoError(t, err)

		inv, err := e.documents.Get(ctx, e.tenantID, res.Invoice.ID)
		require.NoError(t, err)
		assert.True(t, res.Invoice.Snapshot.Totals.GrandTotal.Equal(inv.Snapshot.Totals.GrandTotal))
		assert.Equal(t, string(deal.StatusCompleted), inv.Snapshot.DealStatus)
	})

	cancelled, err := e.deals.CancelDeal(ctx, e.tenantID, d.ID, "Customer changed their mind")
	require.NoError(t, err)
	assert.Equal(t, deal.StatusCompleted, cancelled.PreviousStatus)
	assert.True(t, cancelled.VehicleRestored)
	require.Len(t, cancelled.Reversal.Removed, 1)

	restored := e.vehicle(t, v.ID)
	assert.Equal(t, vehicle.SalesStatusAvailable, restored.SalesStatus)
	assert.Equal(t, vehicle.StockStatusInStock, restored.Status)
	assert.Nil(t, restored.SoldDealID)
	assert.Equal(t, int64(0), e.countVRM(t, "PX01ABC"))

	t.Run("timeline records every transition", func(t *testing.T) {
		ok := testutil.WaitForCondition(t, func() bool {
			var n int64
			_ = e.db.DB.Table("deal_activities").Where("tenant_id = ? AND deal_id = ?", e.tenantID, d.ID).Count(&n).Error
			// created, deposit taken, completed, cancelled
			return n >= 4
		}, 5*time.Second, 50*time.Millisecond)
		assert.True(t, ok, "deal activity entries were not written")
	})

	t.Run("bus delivered the deal events in order", func(t *testing.T) {
		require.True(t, testutil.WaitForEvents(t, e.events, 4, 5*time.Second))
		var types []string
		for _, evt := range e.events.ForAggregate(d.ID) {
			types = append(types, evt.EventType())
		}
		assert.Equal(t, []string{
			deal.EventTypeDealCreated,
			deal.EventTypeDealDepositTaken,
			deal.EventTypeDealCompleted,
			deal.EventTypeDealCancelled,
		}, types)
	})
}

func TestDealLifecycle_VehicleFreedForNextDeal(t *testing.T) {
	e := newEngine(t)
	ctx := context.Background()
	v := e.stockVehicle(t, "CD34EFG")

	first := e.readyDeal(t, v)
	_, err := e.deals.CreateDeal(ctx, e.tenantID, dealapp.CreateDealInput{
		VehicleID:         v.ID,
		VATScheme:         deal.VATSchemeMargin,
		VehiclePriceGross: decimal.NewFromInt(9000),
	})
	require.Error(t, err)

	_, err = e.deals.CancelDeal(ctx, e.tenantID, first.ID, "Finance declined")
	require.NoError(t, err)

	second, err := e.deals.CreateDeal(ctx, e.tenantID, dealapp.CreateDealInput{
		VehicleID:         v.ID,
		VATScheme:         deal.VATSchemeMargin,
		VehiclePriceGross: decimal.NewFromInt(9000),
	})
	require.NoError(t, err)
	assert.Equal(t, deal.StatusDraft, second.Status)
}

func TestDocumentNumbers_ConcurrentIssue(t *testing.T) {
	e := newEngine(t)
	ctx := context.Background()
	d := e.readyDeal(t, e.stockVehicle(t, "EF56GHI"))

	const workers = 8
	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		numbers []string
		errs    []error
	)
	for range workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			doc, err := e.documents.Issue(ctx, e.tenantID, d.ID, document.TypePaymentReceipt, "Office")
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				errs = append(errs, err)
				return
			}
			numbers = append(numbers, doc.DocumentNumber)
		}()
	}
	wg.Wait()

	require.Empty(t, errs)
	sort.Strings(numbers)
	expected := make([]string, 0, workers)
	for i := int64(1); i <= workers; i++ {
		expected = append(expected, document.FormatNumber("RC", i))
	}
	assert.Equal(t, expected, numbers)
}

func TestDealLifecycle_ConcurrentCompletion(t *testing.T) {
	e := newEngine(t)
	ctx := context.Background()
	d := e.readyDeal(t, e.stockVehicle(t, "GH78IJK"), deal.PartExchange{VRM: "PX09XYZ", Allowance: decimal.NewFromInt(1500)})

	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		successes int
		failures  []error
	)
	for range 2 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := e.deals.CompleteDeal(ctx, e.tenantID, d.ID, dealapp.CompleteDealInput{})
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				failures = append(failures, err)
				return
			}
			successes++
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, successes)
	require.Len(t, failures, 1)
	var de *shared.DomainError
	require.True(t, errors.As(failures[0], &de))
	assert.Contains(t, []string{shared.CodeInvalidState, shared.CodeConcurrentUpdate}, de.Code)
	assert.Equal(t, int64(1), e.countVRM(t, "PX09XYZ"))

	docs, err := e.documents.ListForDeal(ctx, e.tenantID, d.ID)
	require.NoError(t, err)
	invoices := 0
	for _, doc := range docs {
		if doc.Type == document.TypeInvoice {
			invoices++
		}
	}
	assert.Equal(t, 1, invoices)
}
