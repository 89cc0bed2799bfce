package document

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/dealer/backend/internal/domain/contact"
	"github.com/dealer/backend/internal/domain/deal"
	"github.com/dealer/backend/internal/domain/dealer"
	"github.com/dealer/backend/internal/domain/document"
	"github.com/dealer/backend/internal/domain/shared"
	"github.com/dealer/backend/internal/domain/vehicle"
	"github.com/dealer/backend/tests/testutil"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

var testNow = time.Date(2026, 5, 2, 9, 0, 0, 0, time.UTC)

type docFixture struct {
	store    *testutil.MemoryStore
	signer   *testutil.MockLogoSigner
	tokens   *testutil.MockShareTokens
	svc      *DocumentService
	tenantID uuid.UUID
	deal     *deal.Deal
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func newDocFixture(t *testing.T) *docFixture {
	t.Helper()
	f := &docFixture{
		store:    testutil.NewMemoryStore(),
		signer:   new(testutil.MockLogoSigner),
		tokens:   new(testutil.MockShareTokens),
		tenantID: uuid.New(),
	}
	f.tokens.On("Issue", mock.Anything, mock.Anything).Return("share-token", nil)

	v, err := vehicle.NewVehicle(f.tenantID, "AB12CDE", "Ford", "Focus", 2019)
	require.NoError(t, err)
	f.store.AddVehicle(v)

	customerID := uuid.New()
	f.store.Contacts[customerID] = contact.Contact{ID: customerID, TenantID: f.tenantID, DisplayName: "Jane Buyer", Email: "jane@example.com"}
	f.store.Dealers[f.tenantID] = dealer.Profile{
		TenantID:      f.tenantID,
		TradingName:   "Acme Motors",
		VATRegistered: true,
		VATNumber:     "GB123456789",
		LogoKey:       "logos/acme.png",
		LogoURL:       "https://cdn.example.com/acme.png",
	}

	d, err := deal.NewDeal(f.tenantID, v.ID, deal.VATSchemeVATQualifying, dec("12000"), dec("9000"), "Sam Sales")
	require.NoError(t, err)
	require.NoError(t, d.SetCustomer(customerID))
	_, _, err = d.TakeDeposit(deal.DepositInput{Amount: dec("500"), Method: deal.PaymentMethodCard, PaidAt: testNow})
	require.NoError(t, err)
	f.deal = d
	f.store.AddDeal(d)

	snapshotter := NewSnapshotter(SnapshotterConfig{Prefixes: map[document.Type]string{document.TypeInvoice: "SI"}}, f.signer, f.tokens,
		WithClock(func() time.Time { return testNow }),
	)
	f.svc = NewDocumentService(f.store, snapshotter, f.tokens)
	return f
}

func TestDocumentService_Issue(t *testing.T) {
	f := newDocFixture(t)
	f.signer.On("GenerateDownloadURL", mock.Anything, "logos/acme.png", 7*24*time.Hour).
		Return("https://s3.example.com/signed", testNow.Add(time.Hour), nil)

	doc, err := f.svc.Issue(context.Background(), f.tenantID, f.deal.ID, document.TypeDepositReceipt, "")
	require.NoError(t, err)

	assert.Equal(t, "DR-000001", doc.DocumentNumber)
	assert.Equal(t, "Sam Sales", doc.IssuedBy)
	assert.Equal(t, "share-token", doc.ShareToken)

	snap := doc.Snapshot
	assert.Equal(t, "AB12CDE", snap.Vehicle.VRM)
	assert.Equal(t, "Jane Buyer", snap.Customer.Name)
	assert.True(t, dec("10000").Equal(snap.VehiclePrice.Net))
	assert.True(t, dec("2000").Equal(snap.VehiclePrice.VAT))
	assert.True(t, dec("11500").Equal(snap.Totals.BalanceDue))
	require.Len(t, snap.Payments, 1)
	assert.Equal(t, "Acme Motors", snap.Dealer.Name)
	assert.Equal(t, "GB123456789", snap.Dealer.VATNumber)
	assert.Equal(t, "https://s3.example.com/signed", snap.Dealer.LogoURL)

	invoice, err := f.svc.Issue(context.Background(), f.tenantID, f.deal.ID, document.TypeInvoice, "Office")
	require.NoError(t, err)
	assert.Equal(t, "SI-000001", invoice.DocumentNumber)
}

func TestDocumentService_Issue_LogoSigningFallsBack(t *testing.T) {
	f := newDocFixture(t)
	f.signer.On("GenerateDownloadURL", mock.Anything, mock.Anything, mock.Anything).
		Return("", time.Time{}, errors.New("s3 unavailable"))

	doc, err := f.svc.Issue(context.Background(), f.tenantID, f.deal.ID, document.TypeDepositReceipt, "")
	require.NoError(t, err)
	assert.Equal(t, "https://cdn.example.com/acme.png", doc.Snapshot.Dealer.LogoURL)
}

func TestDocumentService_Issue_UnknownFinanceCompanyIsToBeConfirmed(t *testing.T) {
	f := newDocFixture(t)
	f.signer.On("GenerateDownloadURL", mock.Anything, mock.Anything, mock.Anything).Return("u", testNow, nil)
	missing := uuid.New()
	f.deal.FinanceSelection = deal.FinanceSelection{FinanceCompanyContactID: &missing}
	f.store.AddDeal(f.deal)

	doc, err := f.svc.Issue(context.Background(), f.tenantID, f.deal.ID, document.TypeInvoice, "")
	require.NoError(t, err)
	require.NotNil(t, doc.Snapshot.Finance)
	assert.True(t, doc.Snapshot.Finance.ToBeConfirmed)
	assert.Empty(t, doc.Snapshot.Finance.CompanyName)
}

func TestDocumentService_Issue_Rejections(t *testing.T) {
	f := newDocFixture(t)
	ctx := context.Background()

	_, err := f.svc.Issue(ctx, f.tenantID, f.deal.ID, document.Type("QUOTE"), "")
	assert.True(t, errors.Is(err, shared.ErrInvalidInput))

	_, err = f.svc.Issue(ctx, f.tenantID, uuid.New(), document.TypeInvoice, "")
	assert.True(t, errors.Is(err, shared.ErrNotFound))

	_, err = f.deal.Cancel("", testNow)
	require.NoError(t, err)
	f.store.AddDeal(f.deal)
	_, err = f.svc.Issue(ctx, f.tenantID, f.deal.ID, document.TypeInvoice, "")
	assert.True(t, errors.Is(err, shared.ErrInvalidState))
}

func TestDocumentService_Regenerate(t *testing.T) {
	f := newDocFixture(t)
	ctx := context.Background()
	f.signer.On("GenerateDownloadURL", mock.Anything, mock.Anything, mock.Anything).Return("u", testNow, nil)

	original, err := f.svc.Issue(ctx, f.tenantID, f.deal.ID, document.TypeDepositReceipt, "")
	require.NoError(t, err)

	notes := "Collect Saturday"
	delivery := deal.Delivery{Amount: dec("120")}
	warranty := deal.Warranty{Included: true, Name: "Gold", PriceGross: dec("300"), VATTreatment: deal.VATExempt, DurationMonths: 12}
	require.NoError(t, f.deal.ApplyUpdate(deal.Update{Notes: &notes, Delivery: &delivery, Warranty: &warranty}))
	_, _, err = f.deal.TakeDeposit(deal.DepositInput{Amount: dec("250"), Method: deal.PaymentMethodCash, TakenBy: "Other Person", PaidAt: testNow})
	require.NoError(t, err)
	f.deal.TakenBy = "Someone Else"
	f.store.AddDeal(f.deal)

	regenerated, err := f.svc.Regenerate(ctx, f.tenantID, original.ID)
	require.NoError(t, err)

	assert.Equal(t, original.DocumentNumber, regenerated.DocumentNumber)
	assert.Equal(t, 2, regenerated.Version)
	assert.NotNil(t, regenerated.RegeneratedAt)
	assert.Equal(t, original.Snapshot.Payments, regenerated.Snapshot.Payments)
	assert.Equal(t, original.Snapshot.TakenBy, regenerated.Snapshot.TakenBy)
	assert.Equal(t, "Collect Saturday", regenerated.Snapshot.Notes)
	require.NotNil(t, regenerated.Snapshot.Warranty)
	assert.False(t, original.Snapshot.Totals.GrandTotal.Equal(regenerated.Snapshot.Totals.GrandTotal))
	assert.True(t, dec("12420").Equal(regenerated.Snapshot.Totals.GrandTotal))

	stored, err := f.svc.Get(ctx, f.tenantID, original.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, stored.Version)
}

func TestDocumentService_ReceiptAttributedToPaymentTaker(t *testing.T) {
	f := newDocFixture(t)
	ctx := context.Background()
	f.signer.On("GenerateDownloadURL", mock.Anything, mock.Anything, mock.Anything).Return("u", testNow, nil)

	receipt, err := f.svc.Issue(ctx, f.tenantID, f.deal.ID, document.TypeDepositReceipt, "Pat Cashier")
	require.NoError(t, err)
	assert.Equal(t, "Pat Cashier", receipt.IssuedBy)
	assert.Equal(t, "Pat Cashier", receipt.Snapshot.TakenBy)

	regenerated, err := f.svc.Regenerate(ctx, f.tenantID, receipt.ID)
	require.NoError(t, err)
	assert.Equal(t, "Pat Cashier", regenerated.Snapshot.TakenBy)

	invoice, err := f.svc.Issue(ctx, f.tenantID, f.deal.ID, document.TypeInvoice, "")
	require.NoError(t, err)
	assert.Equal(t, "Sam Sales", invoice.Snapshot.TakenBy)
}

func TestDocumentService_RegenerateInvoiceRejected(t *testing.T) {
	f := newDocFixture(t)
	f.signer.On("GenerateDownloadURL", mock.Anything, mock.Anything, mock.Anything).Return("u", testNow, nil)

	invoice, err := f.svc.Issue(context.Background(), f.tenantID, f.deal.ID, document.TypeInvoice, "")
	require.NoError(t, err)

	_, err = f.svc.Regenerate(context.Background(), f.tenantID, invoice.ID)
	assert.True(t, errors.Is(err, shared.ErrInvalidState))
}

func TestDocumentService_GetShared(t *testing.T) {
	f := newDocFixture(t)
	ctx := context.Background()
	f.signer.On("GenerateDownloadURL", mock.Anything, mock.Anything, mock.Anything).Return("u", testNow, nil)

	doc, err := f.svc.Issue(ctx, f.tenantID, f.deal.ID, document.TypeDepositReceipt, "")
	require.NoError(t, err)

	f.tokens.On("Parse", "share-token").Return(f.tenantID, doc.ID, nil)
	f.tokens.On("Parse", "forged").Return(uuid.Nil, uuid.Nil, errors.New("bad signature"))

	got, err := f.svc.GetShared(ctx, "share-token")
	require.NoError(t, err)
	assert.Equal(t, doc.ID, got.ID)

	_, err = f.svc.GetShared(ctx, "forged")
	assert.True(t, errors.Is(err, shared.ErrNotFound))

	docs, err := f.svc.ListForDeal(ctx, f.tenantID, f.deal.ID)
	require.NoError(t, err)
	assert.Len(t, docs, 1)
}
