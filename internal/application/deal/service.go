package deal

import (
	"context"
	"errors"
	"fmt"
	"time"

	docapp "github.com/dealer/backend/internal/application/document"
	"github.com/dealer/backend/internal/application/transaction"
	"github.com/dealer/backend/internal/domain/deal"
	"github.com/dealer/backend/internal/domain/document"
	"github.com/dealer/backend/internal/domain/shared"
	"github.com/dealer/backend/internal/domain/vehicle"
	"github.com/dealer/backend/internal/infrastructure/logger"
	"github.com/dealer/backend/internal/infrastructure/telemetry"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// TransitionRecorder receives deal lifecycle counts
type TransitionRecorder interface {
	RecordTransition(ctx context.Context, to string)
	RecordPartExchangeConverted(ctx context.Context, n int)
	RecordPartExchangeReverted(ctx context.Context, n int)
}

// DealService runs deal transitions. Each transition is one transaction
// covering the deal, its vehicle, converted part-exchange vehicles and any
// document issued.
type DealService struct {
	scope       transaction.Scope
	converter   *PartExchangeConverter
	snapshotter *docapp.Snapshotter
	publisher   shared.EventPublisher
	recorder    TransitionRecorder
	now         func() time.Time
}

// Option configures a DealService
type Option func(*DealService)

// WithEventPublisher sets where deal events go after commit
func WithEventPublisher(p shared.EventPublisher) Option {
	return func(s *DealService) { s.publisher = p }
}

// WithTransitionRecorder sets the metrics sink
func WithTransitionRecorder(r TransitionRecorder) Option {
	return func(s *DealService) { s.recorder = r }
}

// WithClock overrides time.Now
func WithClock(now func() time.Time) Option {
	return func(s *DealService) { s.now = now }
}

// NewDealService creates a new DealService
func NewDealService(scope transaction.Scope, converter *PartExchangeConverter, snapshotter *docapp.Snapshotter, opts ...Option) *DealService {
	s := &DealService{
		scope:       scope,
		converter:   converter,
		snapshotter: snapshotter,
		now:         time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// CreateDeal opens a draft deal. A vehicle can only have one open deal.
func (s *DealService) CreateDeal(ctx context.Context, tenantID uuid.UUID, in CreateDealInput) (*deal.Deal, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "deal", "create",
		telemetry.WithAttribute(telemetry.SpanAttrTenantID, tenantID.String()),
		telemetry.WithAttribute(telemetry.SpanAttrVehicleID, in.VehicleID.String()),
	)
	defer span.End()

	var created *deal.Deal
	err := s.scope.Execute(ctx, func(repos transaction.Repositories) error {
		v, err := repos.Vehicles().FindByIDForTenant(ctx, tenantID, in.VehicleID)
		if err != nil {
			return err
		}
		if v.SalesStatus == vehicle.SalesStatusCompleted {
			return shared.NewInvalidStateError("Vehicle %s is already sold", v.VRM).
				WithDetail("vehicleId", v.ID.String())
		}
		open, err := repos.Deals().FindOpenByVehicle(ctx, tenantID, in.VehicleID)
		if err != nil && !errors.Is(err, shared.ErrNotFound) {
			return err
		}
		if open != nil {
			return shared.NewConflictError("Vehicle %s already has an open deal", v.VRM).
				WithDetail("dealId", open.ID.String())
		}

		d, err := deal.NewDeal(tenantID, in.VehicleID, in.VATScheme, in.VehiclePriceGross, v.Purchase.PurchasePriceNet, in.TakenBy)
		if err != nil {
			return err
		}
		if in.CustomerID != nil {
			if _, err := repos.Contacts().FindByIDForTenant(ctx, tenantID, *in.CustomerID); err != nil {
				return err
			}
			if err := d.SetCustomer(*in.CustomerID); err != nil {
				return err
			}
		}
		d.Notes = in.Notes
		if err := repos.Deals().Create(ctx, d); err != nil {
			return err
		}
		created = d
		return nil
	})
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	s.logTransition(ctx, created, "", created.Status)
	s.afterCommit(ctx, created)
	return created, nil
}

// Get returns a deal
func (s *DealService) Get(ctx context.Context, tenantID, dealID uuid.UUID) (*deal.Deal, error) {
	var d *deal.Deal
	err := s.scope.Execute(ctx, func(repos transaction.Repositories) error {
		var err error
		d, err = repos.Deals().FindByIDForTenant(ctx, tenantID, dealID)
		return err
	})
	return d, err
}

// List returns a page of deals
func (s *DealService) List(ctx context.Context, tenantID uuid.UUID, filter deal.ListFilter) ([]deal.Deal, int64, error) {
	var (
		deals []deal.Deal
		total int64
	)
	err := s.scope.Execute(ctx, func(repos transaction.Repositories) error {
		var err error
		deals, total, err = repos.Deals().List(ctx, tenantID, filter)
		return err
	})
	return deals, total, err
}

// Update applies a partial edit
func (s *DealService) Update(ctx context.Context, tenantID, dealID uuid.UUID, u deal.Update) (*deal.Deal, error) {
	return s.mutate(ctx, tenantID, dealID, "update", func(repos transaction.Repositories, d *deal.Deal) error {
		if u.CustomerID != nil {
			if _, err := repos.Contacts().FindByIDForTenant(ctx, tenantID, *u.CustomerID); err != nil {
				return err
			}
		}
		return d.ApplyUpdate(u)
	})
}

// TakeDeposit records a payment, moves the vehicle into the deal and issues
// a receipt. The first payment gets a deposit receipt, later ones a payment
// receipt.
func (s *DealService) TakeDeposit(ctx context.Context, tenantID, dealID uuid.UUID, in TakeDepositInput) (*DepositResult, error) {
	result := &DepositResult{}
	d, err := s.mutate(ctx, tenantID, dealID, "take_deposit", func(repos transaction.Repositories, d *deal.Deal) error {
		input := deal.DepositInput{
			Amount:         in.Amount,
			Method:         in.Method,
			Type:           in.Type,
			PaidAt:         s.now(),
			Reference:      in.Reference,
			TakenBy:        in.TakenBy,
			IdempotencyKey: in.IdempotencyKey,
		}
		if in.PaidAt != nil {
			input.PaidAt = *in.PaidAt
		}
		hadReceipt := d.DepositTakenAt != nil

		p, duplicate, err := d.TakeDeposit(input)
		if err != nil {
			return err
		}
		result.Payment = *p
		if duplicate {
			result.Duplicate = true
			return errNoChange
		}

		if err := s.syncVehicle(ctx, repos, d, vehicle.DealEventDeposit); err != nil {
			return err
		}

		docType := document.TypeDepositReceipt
		if hadReceipt {
			docType = document.TypePaymentReceipt
		}
		receipt, err := s.snapshotter.Issue(ctx, repos, d, docType, p.TakenBy)
		if err != nil {
			return err
		}
		result.Receipt = receipt
		return nil
	})
	if err != nil {
		return nil, err
	}
	result.Deal = d
	return result, nil
}

// RefundPayment flags a payment as refunded
func (s *DealService) RefundPayment(ctx context.Context, tenantID, dealID, paymentID uuid.UUID) (*deal.Deal, error) {
	return s.mutate(ctx, tenantID, dealID, "refund_payment", func(_ transaction.Repositories, d *deal.Deal) error {
		return d.RefundPayment(paymentID, s.now())
	})
}

// RecordSignature records the customer's or dealer's signature
func (s *DealService) RecordSignature(ctx context.Context, tenantID, dealID uuid.UUID, party deal.SignatureParty, name string) (*deal.Deal, error) {
	return s.mutate(ctx, tenantID, dealID, "sign", func(_ transaction.Repositories, d *deal.Deal) error {
		return d.Sign(party, name, s.now())
	})
}

// MarkInvoiced moves the deal to INVOICED and issues the invoice. A deal
// invoiced straight from DRAFT takes the vehicle into the deal here.
func (s *DealService) MarkInvoiced(ctx context.Context, tenantID, dealID uuid.UUID, issuedBy string) (*TransitionResult, error) {
	result := &TransitionResult{}
	d, err := s.mutate(ctx, tenantID, dealID, "invoice", func(repos transaction.Repositories, d *deal.Deal) error {
		if err := d.MarkInvoiced(s.now()); err != nil {
			return err
		}
		if err := s.syncVehicle(ctx, repos, d, vehicle.DealEventDeposit); err != nil {
			return err
		}
		invoice, err := s.snapshotter.Issue(ctx, repos, d, document.TypeInvoice, issuedByOr(issuedBy, d.TakenBy))
		if err != nil {
			return err
		}
		result.Document = invoice
		return nil
	})
	if err != nil {
		return nil, err
	}
	result.Deal = d
	return result, nil
}

// MarkDelivered moves the deal to DELIVERED
func (s *DealService) MarkDelivered(ctx context.Context, tenantID, dealID uuid.UUID) (*deal.Deal, error) {
	return s.mutate(ctx, tenantID, dealID, "deliver", func(_ transaction.Repositories, d *deal.Deal) error {
		return d.MarkDelivered(s.now())
	})
}

// CompleteDeal completes the sale. Unsettled part-exchange finance without
// confirmation returns *shared.ConfirmationRequiredError and nothing is saved.
func (s *DealService) CompleteDeal(ctx context.Context, tenantID, dealID uuid.UUID, in CompleteDealInput) (*CompletionResult, error) {
	result := &CompletionResult{}
	d, err := s.mutate(ctx, tenantID, dealID, "complete", func(repos transaction.Repositories, d *deal.Deal) error {
		at := s.now()
		if err := d.Complete(at, in.ConfirmWithoutSettlement); err != nil {
			return err
		}
		if err := s.syncVehicle(ctx, repos, d, vehicle.DealEventCompleted); err != nil {
			return err
		}

		report, err := s.converter.Convert(ctx, repos, d, at)
		if err != nil {
			return err
		}
		result.Conversion = report

		invoice, err := s.ensureInvoice(ctx, repos, d, issuedByOr(in.IssuedBy, d.TakenBy))
		if err != nil {
			return err
		}
		result.Invoice = invoice
		return nil
	})
	if err != nil {
		return nil, err
	}

	totals := d.Totals()
	result.Deal = d
	result.BalanceDue = totals.BalanceDue
	result.FullyPaid = totals.FullyPaid
	if s.recorder != nil {
		s.recorder.RecordPartExchangeConverted(ctx, len(result.Conversion.Converted))
	}
	if !totals.FullyPaid {
		logger.L(ctx).Info("Deal completed with balance outstanding",
			zap.String("deal_id", d.ID.String()),
			zap.String("balance_due", totals.BalanceDue.StringFixed(2)),
		)
	}
	return result, nil
}

// CancelDeal cancels the deal and undoes what it did to stock
func (s *DealService) CancelDeal(ctx context.Context, tenantID, dealID uuid.UUID, reason string) (*CancellationResult, error) {
	result := &CancellationResult{}
	d, err := s.mutate(ctx, tenantID, dealID, "cancel", func(repos transaction.Repositories, d *deal.Deal) error {
		at := s.now()
		out, err := d.Cancel(reason, at)
		if err != nil {
			return err
		}
		result.PreviousStatus = out.PreviousStatus
		result.CancelledRequests = out.CancelledRequest

		if len(out.IssuesToResolve) > 0 {
			n, err := repos.Issues().ResolveWontFix(ctx, tenantID, out.IssuesToResolve, at)
			if err != nil {
				return fmt.Errorf("resolve linked issues: %w", err)
			}
			result.IssuesResolved = n
		}

		event := vehicle.DealEventCancelledOpen
		if out.WasCompleted {
			event = vehicle.DealEventCancelledSettled
		}
		restored, err := s.restoreVehicle(ctx, repos, d, event)
		if err != nil {
			return err
		}
		result.VehicleRestored = restored

		if out.WasCompleted {
			reversal, err := s.converter.Reverse(ctx, repos, d)
			if err != nil {
				return err
			}
			result.Reversal = reversal
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	result.Deal = d
	if s.recorder != nil {
		s.recorder.RecordPartExchangeReverted(ctx, len(result.Reversal.Removed))
	}
	return result, nil
}

// errNoChange ends a mutation without saving
var errNoChange = errors.New("no change")

// mutate loads the deal under a row lock, applies fn and saves it with a
// version check, all in one transaction. Events are published after commit.
func (s *DealService) mutate(ctx context.Context, tenantID, dealID uuid.UUID, op string, fn func(repos transaction.Repositories, d *deal.Deal) error) (*deal.Deal, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "deal", op,
		telemetry.WithAttribute(telemetry.SpanAttrDealID, dealID.String()),
		telemetry.WithAttribute(telemetry.SpanAttrTenantID, tenantID.String()),
	)
	defer span.End()

	var (
		d    *deal.Deal
		from deal.Status
	)
	err := s.scope.Execute(ctx, func(repos transaction.Repositories) error {
		var err error
		d, err = repos.Deals().FindByIDForUpdate(ctx, tenantID, dealID)
		if err != nil {
			return err
		}
		from = d.Status
		if err := fn(repos, d); err != nil {
			return err
		}
		return repos.Deals().SaveWithLock(ctx, d)
	})

	switch {
	case errors.Is(err, errNoChange):
		d.ClearDomainEvents()
		return d, nil
	case errors.Is(err, shared.ErrConcurrencyConflict):
		err = s.concurrentChange(ctx, tenantID, dealID)
	}
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	telemetry.SetAttributes(span,
		telemetry.SpanAttrFromStatus, from.String(),
		telemetry.SpanAttrToStatus, d.Status.String(),
	)
	if d.Status != from {
		s.logTransition(ctx, d, from, d.Status)
	}
	s.afterCommit(ctx, d)
	return d, nil
}

// concurrentChange turns a lost version race into an invalid state error
// naming the status the other writer left behind
func (s *DealService) concurrentChange(ctx context.Context, tenantID, dealID uuid.UUID) error {
	current, err := s.Get(ctx, tenantID, dealID)
	if err != nil {
		return err
	}
	return shared.NewInvalidStateError("Deal was changed by another request and is now %s", current.Status).
		WithDetail("status", current.Status.String())
}

func (s *DealService) syncVehicle(ctx context.Context, repos transaction.Repositories, d *deal.Deal, event vehicle.DealEvent) error {
	v, err := repos.Vehicles().FindByIDForTenant(ctx, d.TenantID, d.VehicleID)
	if err != nil {
		return fmt.Errorf("load vehicle: %w", err)
	}
	changed, err := vehicle.Synchronize(v, event, d.ID, s.now())
	if err != nil || !changed {
		return err
	}
	return repos.Vehicles().UpdateStatus(ctx, v)
}

// restoreVehicle puts the vehicle back on sale. A vehicle sold under a
// different deal is left alone.
func (s *DealService) restoreVehicle(ctx context.Context, repos transaction.Repositories, d *deal.Deal, event vehicle.DealEvent) (bool, error) {
	v, err := repos.Vehicles().FindByIDForTenant(ctx, d.TenantID, d.VehicleID)
	if errors.Is(err, shared.ErrNotFound) {
		logger.L(ctx).Warn("Deal vehicle missing on cancel", zap.String("vehicle_id", d.VehicleID.String()))
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("load vehicle: %w", err)
	}
	if v.SoldDealID != nil && *v.SoldDealID != d.ID {
		return false, nil
	}
	changed, err := vehicle.Synchronize(v, event, d.ID, s.now())
	if err != nil || !changed {
		return false, err
	}
	if err := repos.Vehicles().UpdateStatus(ctx, v); err != nil {
		return false, err
	}
	return true, nil
}

func (s *DealService) ensureInvoice(ctx context.Context, repos transaction.Repositories, d *deal.Deal, issuedBy string) (*document.SalesDocument, error) {
	docs, err := repos.Documents().FindByDeal(ctx, d.TenantID, d.ID)
	if err != nil {
		return nil, fmt.Errorf("list documents: %w", err)
	}
	for i := range docs {
		if docs[i].Type == document.TypeInvoice {
			return &docs[i], nil
		}
	}
	return s.snapshotter.Issue(ctx, repos, d, document.TypeInvoice, issuedBy)
}

func (s *DealService) logTransition(ctx context.Context, d *deal.Deal, from, to deal.Status) {
	logger.L(ctx).Info("Deal transition",
		zap.String("deal_id", d.ID.String()),
		zap.String("tenant_id", d.TenantID.String()),
		zap.String("from", from.String()),
		zap.String("to", to.String()),
	)
	if s.recorder != nil {
		s.recorder.RecordTransition(ctx, to.String())
	}
}

// afterCommit publishes the deal's events. Failures are logged only; the
// transaction has already committed.
func (s *DealService) afterCommit(ctx context.Context, d *deal.Deal) {
	events := d.GetDomainEvents()
	d.ClearDomainEvents()
	if s.publisher == nil || len(events) == 0 {
		return
	}
	if err := s.publisher.Publish(ctx, events...); err != nil {
		logger.L(ctx).Warn("Failed to publish deal events",
			zap.String("deal_id", d.ID.String()),
			zap.Int("events", len(events)),
			zap.Error(err),
		)
	}
}

func issuedByOr(issuedBy, fallback string) string {
	if issuedBy != "" {
		return issuedBy
	}
	return fallback
}
