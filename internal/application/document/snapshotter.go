package document

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dealer/backend/internal/application/transaction"
	"github.com/dealer/backend/internal/domain/deal"
	"github.com/dealer/backend/internal/domain/document"
	"github.com/dealer/backend/internal/domain/shared"
	"github.com/dealer/backend/internal/domain/shared/valueobject"
	"github.com/dealer/backend/internal/infrastructure/logger"
	"github.com/dealer/backend/internal/infrastructure/telemetry"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// LogoSigner produces a time-limited URL for a stored object
type LogoSigner interface {
	GenerateDownloadURL(ctx context.Context, key string, expiresIn time.Duration) (string, time.Time, error)
}

// ShareTokens signs and verifies public document links
type ShareTokens interface {
	Issue(tenantID, documentID uuid.UUID) (string, error)
	Parse(token string) (tenantID, documentID uuid.UUID, err error)
}

// IssueRecorder is told about every document issued
type IssueRecorder interface {
	RecordDocumentIssued(ctx context.Context, docType string)
}

// SnapshotterConfig configures numbering and branding
type SnapshotterConfig struct {
	Prefixes      map[document.Type]string
	LogoURLExpiry time.Duration
}

// Snapshotter freezes deals into sales documents
type Snapshotter struct {
	cfg       SnapshotterConfig
	signer    LogoSigner
	tokens    ShareTokens
	allocator document.Counter
	recorder  IssueRecorder
	now       func() time.Time
}

// SnapshotterOption configures a Snapshotter
type SnapshotterOption func(*Snapshotter)

// WithCounter replaces the transactional counter, e.g. with the Redis one
func WithCounter(c document.Counter) SnapshotterOption {
	return func(s *Snapshotter) { s.allocator = c }
}

// WithIssueRecorder sets the metrics sink
func WithIssueRecorder(r IssueRecorder) SnapshotterOption {
	return func(s *Snapshotter) { s.recorder = r }
}

// WithClock overrides time.Now
func WithClock(now func() time.Time) SnapshotterOption {
	return func(s *Snapshotter) { s.now = now }
}

// NewSnapshotter creates a Snapshotter
func NewSnapshotter(cfg SnapshotterConfig, signer LogoSigner, tokens ShareTokens, opts ...SnapshotterOption) *Snapshotter {
	if cfg.LogoURLExpiry <= 0 {
		cfg.LogoURLExpiry = 7 * 24 * time.Hour
	}
	s := &Snapshotter{
		cfg:    cfg,
		signer: signer,
		tokens: tokens,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Snapshotter) prefix(t document.Type) string {
	if p, ok := s.cfg.Prefixes[t]; ok && p != "" {
		return p
	}
	return document.DefaultPrefixes[t]
}

func (s *Snapshotter) counter(repos transaction.Repositories) document.Counter {
	if s.allocator != nil {
		return s.allocator
	}
	return repos.Counter()
}

// Issue snapshots the deal and stores it as a new numbered document. The
// snapshot is attributed to issuedBy when given, else to the deal's taker.
func (s *Snapshotter) Issue(ctx context.Context, repos transaction.Repositories, d *deal.Deal, docType document.Type, issuedBy string) (*document.SalesDocument, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "document", "issue")
	defer span.End()

	snap, err := s.Build(ctx, repos, d)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	if issuedBy != "" {
		snap.TakenBy = issuedBy
	}

	number, err := s.counter(repos).Allocate(ctx, d.TenantID, docType, s.prefix(docType))
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, fmt.Errorf("allocate %s number: %w", docType, err)
	}

	doc, err := document.NewSalesDocument(d.TenantID, d.ID, docType, number, snap, issuedBy, s.now())
	if err != nil {
		return nil, err
	}
	if s.tokens != nil {
		token, err := s.tokens.Issue(doc.TenantID, doc.ID)
		if err != nil {
			return nil, fmt.Errorf("sign share token: %w", err)
		}
		doc.ShareToken = token
	}

	if err := repos.Documents().Create(ctx, doc); err != nil {
		telemetry.RecordError(span, err)
		return nil, fmt.Errorf("store %s: %w", docType, err)
	}
	if s.recorder != nil {
		s.recorder.RecordDocumentIssued(ctx, string(docType))
	}

	logger.L(ctx).Info("Document issued",
		zap.String("document_id", doc.ID.String()),
		zap.String("document_number", doc.DocumentNumber),
		zap.String("type", string(docType)),
		zap.String("deal_id", d.ID.String()),
	)
	return doc, nil
}

// Regenerate refreshes a previously issued document from the deal's current
// state, keeping its payments and attribution
func (s *Snapshotter) Regenerate(ctx context.Context, repos transaction.Repositories, doc *document.SalesDocument, d *deal.Deal) error {
	fresh, err := s.Build(ctx, repos, d)
	if err != nil {
		return err
	}
	if err := doc.Regenerate(fresh, s.now()); err != nil {
		return err
	}
	if err := repos.Documents().Update(ctx, doc); err != nil {
		return fmt.Errorf("store regenerated %s: %w", doc.Type, err)
	}
	return nil
}

// Build assembles a snapshot of the deal as it stands now
func (s *Snapshotter) Build(ctx context.Context, repos transaction.Repositories, d *deal.Deal) (document.Snapshot, error) {
	v, err := repos.Vehicles().FindByIDForTenant(ctx, d.TenantID, d.VehicleID)
	if err != nil {
		return document.Snapshot{}, fmt.Errorf("load vehicle: %w", err)
	}

	totals := d.Totals()
	snap := document.Snapshot{
		DealID:     d.ID,
		DealStatus: d.Status.String(),
		VATScheme:  string(d.VATScheme),
		Vehicle: document.VehicleInfo{
			ID:      v.ID,
			VRM:     v.VRM,
			Make:    v.Make,
			Model:   v.Model,
			Year:    v.Year,
			Mileage: v.Mileage,
			Colour:  v.Colour,
		},
		VehiclePrice:  amounts(totals.Vehicle),
		AddOns:        make([]document.AddOnInfo, 0, len(totals.AddOns)),
		PartExchanges: make([]document.PartExchangeInfo, 0, len(d.PartExchanges)),
		Payments:      make([]document.PaymentInfo, 0, len(d.Payments)),
		Delivery: document.DeliveryInfo{
			IsFree:  d.Delivery.IsFree,
			Notes:   d.Delivery.Notes,
			Amounts: amounts(totals.Delivery),
		},
		Totals: document.TotalsInfo{
			Net:             totals.Net,
			VAT:             totals.VAT,
			GrandTotal:      totals.GrandTotal,
			TotalPaid:       totals.TotalPaid,
			PartExchangeNet: totals.PartExchangeNet,
			BalanceDue:      totals.BalanceDue,
		},
		Notes:       d.Notes,
		TakenBy:     d.TakenBy,
		GeneratedAt: s.now(),
	}

	if d.CustomerID != nil {
		c, err := repos.Contacts().FindByIDForTenant(ctx, d.TenantID, *d.CustomerID)
		if err != nil {
			return document.Snapshot{}, fmt.Errorf("load customer: %w", err)
		}
		snap.Customer = document.CustomerInfo{
			ID:      d.CustomerID,
			Name:    c.Name(),
			Email:   c.Email,
			Phone:   c.Phone,
			Address: c.Address.Lines(),
		}
	}

	for _, line := range totals.AddOns {
		snap.AddOns = append(snap.AddOns, document.AddOnInfo{
			Name:         line.Name,
			Quantity:     line.Quantity,
			VATTreatment: string(line.VATTreatment),
			Amounts:      amounts(line.Breakdown),
		})
	}
	if d.Warranty.Included {
		snap.Warranty = &document.WarrantyInfo{
			Name:           d.Warranty.Name,
			DurationMonths: d.Warranty.DurationMonths,
			VATTreatment:   string(d.Warranty.VATTreatment),
			Amounts:        amounts(totals.Warranty),
		}
	}
	if d.FinanceSelection.IsSet() {
		snap.Finance, err = s.financeInfo(ctx, repos, d)
		if err != nil {
			return document.Snapshot{}, err
		}
	}
	for _, px := range d.PartExchanges {
		snap.PartExchanges = append(snap.PartExchanges, document.PartExchangeInfo{
			VRM:        px.VRM,
			Make:       px.Make,
			Model:      px.Model,
			Year:       px.Year,
			Allowance:  px.Allowance,
			Settlement: px.Settlement,
			Net:        px.NetValue(),
		})
	}
	for _, p := range d.Payments {
		snap.Payments = append(snap.Payments, document.PaymentInfo{
			ID:         p.ID,
			Type:       string(p.Type),
			Amount:     p.Amount,
			Method:     string(p.Method),
			PaidAt:     p.PaidAt,
			Reference:  p.Reference,
			TakenBy:    p.TakenBy,
			IsRefunded: p.IsRefunded,
		})
	}

	snap.Dealer = s.dealerInfo(ctx, repos, d.TenantID)
	return snap, nil
}

func (s *Snapshotter) financeInfo(ctx context.Context, repos transaction.Repositories, d *deal.Deal) (*document.FinanceInfo, error) {
	info := &document.FinanceInfo{ToBeConfirmed: d.FinanceSelection.ToBeConfirmed}
	if d.FinanceSelection.FinanceCompanyContactID == nil {
		return info, nil
	}
	c, err := repos.Contacts().FindByIDForTenant(ctx, d.TenantID, *d.FinanceSelection.FinanceCompanyContactID)
	switch {
	case errors.Is(err, shared.ErrNotFound):
		info.ToBeConfirmed = true
	case err != nil:
		return nil, fmt.Errorf("load finance company: %w", err)
	default:
		info.CompanyName = c.Name()
	}
	return info, nil
}

// dealerInfo never fails the snapshot: missing branding prints blank and a
// signing failure falls back to the stored logo URL
func (s *Snapshotter) dealerInfo(ctx context.Context, repos transaction.Repositories, tenantID uuid.UUID) document.DealerInfo {
	log := logger.L(ctx)
	profile, err := repos.Dealers().FindByTenant(ctx, tenantID)
	if err != nil {
		log.Warn("Dealer profile unavailable for snapshot", zap.Error(err))
		return document.DealerInfo{}
	}

	info := document.DealerInfo{
		Name:      profile.TradingName,
		Address:   profile.Address.Lines(),
		Phone:     profile.Phone,
		Email:     profile.Email,
		VATNumber: profile.PrintableVATNumber(),
		LogoURL:   profile.LogoURL,
	}
	if profile.LogoKey == "" || s.signer == nil {
		return info
	}
	url, _, err := s.signer.GenerateDownloadURL(ctx, profile.LogoKey, s.cfg.LogoURLExpiry)
	if err != nil {
		log.Warn("Logo URL signing failed, using stored URL",
			zap.String("logo_key", profile.LogoKey),
			zap.Error(err),
		)
		return info
	}
	info.LogoURL = url
	return info
}

func amounts(b valueobject.Breakdown) document.Amounts {
	return document.Amounts{Net: b.Net, VAT: b.VAT, Gross: b.Gross}
}
