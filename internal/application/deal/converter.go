package deal

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dealer/backend/internal/application/transaction"
	"github.com/dealer/backend/internal/domain/deal"
	"github.com/dealer/backend/internal/domain/shared"
	"github.com/dealer/backend/internal/domain/shared/valueobject"
	"github.com/dealer/backend/internal/domain/vehicle"
	"github.com/dealer/backend/internal/infrastructure/logger"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// PurchaseSourcePartExchange marks the cost basis of a converted trade-in
const PurchaseSourcePartExchange = "PART_EXCHANGE"

// Skip reasons reported for part-exchanges that did not become stock
const (
	SkipReasonDisposed     = "disposed of outside stock"
	SkipReasonDuplicateVRM = "registration already in stock"
	SkipReasonInvalidVRM   = "registration is not valid"
)

// ConvertedVehicle is a stock vehicle created from a part-exchange
type ConvertedVehicle struct {
	VRM          string    `json:"vrm"`
	VehicleID    uuid.UUID `json:"vehicleId"`
	PrepTasks    int       `json:"prepTasks"`
	IssuesCopied int       `json:"issuesCopied"`
}

// SkippedPartExchange is a part-exchange left out of stock
type SkippedPartExchange struct {
	VRM    string `json:"vrm"`
	Reason string `json:"reason"`
}

// RetainedVehicle is a converted vehicle that could not be removed
type RetainedVehicle struct {
	VRM       string    `json:"vrm"`
	VehicleID uuid.UUID `json:"vehicleId"`
	Reason    string    `json:"reason"`
}

// ConversionReport lists what Convert did
type ConversionReport struct {
	Converted []ConvertedVehicle    `json:"converted"`
	Skipped   []SkippedPartExchange `json:"skipped"`
}

// ReversalReport lists what Reverse did
type ReversalReport struct {
	Removed  []uuid.UUID       `json:"removed"`
	Retained []RetainedVehicle `json:"retained"`
}

// PartExchangeConverter turns trade-ins into stock on completion and takes
// them back out when a completed deal is cancelled
type PartExchangeConverter struct {
	defaultPrepTasks []string
}

// NewPartExchangeConverter creates a converter. defaultPrepTasks is used when
// the dealer profile has no task list of its own.
func NewPartExchangeConverter(defaultPrepTasks []string) *PartExchangeConverter {
	return &PartExchangeConverter{defaultPrepTasks: defaultPrepTasks}
}

// Convert creates a stock vehicle for every part-exchange not yet converted.
// Entries already converted are left alone, so calling it twice is harmless.
func (c *PartExchangeConverter) Convert(ctx context.Context, repos transaction.Repositories, d *deal.Deal, at time.Time) (ConversionReport, error) {
	report := ConversionReport{
		Converted: make([]ConvertedVehicle, 0),
		Skipped:   make([]SkippedPartExchange, 0),
	}
	pending := d.PendingConversions()
	if len(pending) == 0 {
		return report, nil
	}

	log := logger.L(ctx).With(zap.String("deal_id", d.ID.String()))
	taskNames := c.prepTaskNames(ctx, repos, d.TenantID)

	for _, idx := range pending {
		px := d.PartExchanges[idx]
		vrm := valueobject.NormalizeVRM(px.VRM)

		if px.Disposition.LeavesStock() {
			report.Skipped = append(report.Skipped, SkippedPartExchange{VRM: vrm, Reason: SkipReasonDisposed})
			continue
		}
		if !valueobject.IsValidVRM(vrm) {
			report.Skipped = append(report.Skipped, SkippedPartExchange{VRM: vrm, Reason: SkipReasonInvalidVRM})
			continue
		}
		exists, err := repos.Vehicles().ExistsByVRM(ctx, d.TenantID, vrm)
		if err != nil {
			return report, fmt.Errorf("check registration %s: %w", vrm, err)
		}
		if exists {
			log.Info("Part-exchange already in stock, not converting", zap.String("vrm", vrm))
			report.Skipped = append(report.Skipped, SkippedPartExchange{VRM: vrm, Reason: SkipReasonDuplicateVRM})
			continue
		}

		v, err := newStockVehicle(d, px, vrm, at)
		if err != nil {
			return report, err
		}
		if err := repos.Vehicles().Create(ctx, v); err != nil {
			if errors.Is(err, shared.ErrConflict) {
				report.Skipped = append(report.Skipped, SkippedPartExchange{VRM: vrm, Reason: SkipReasonDuplicateVRM})
				continue
			}
			return report, fmt.Errorf("create vehicle %s: %w", vrm, err)
		}

		converted := ConvertedVehicle{VRM: vrm, VehicleID: v.ID}
		if px.Disposition.NeedsPreparation() {
			tasks := vehicle.DefaultPrepTasks(d.TenantID, v.ID, taskNames, at)
			if len(tasks) > 0 {
				if err := repos.PrepTasks().CreateBatch(ctx, tasks); err != nil {
					return report, fmt.Errorf("seed preparation tasks for %s: %w", vrm, err)
				}
			}
			converted.PrepTasks = len(tasks)
		}
		if px.AppraisalID != nil {
			n, err := c.copyAppraisalIssues(ctx, repos, d.TenantID, v.ID, *px.AppraisalID, at)
			if err != nil {
				return report, err
			}
			converted.IssuesCopied = n
		}

		d.MarkPartExchangeConverted(idx, v.ID, at)
		report.Converted = append(report.Converted, converted)
		log.Info("Part-exchange converted to stock",
			zap.String("vrm", vrm),
			zap.String("vehicle_id", v.ID.String()),
			zap.Int("prep_tasks", converted.PrepTasks),
			zap.Int("issues_copied", converted.IssuesCopied),
		)
	}
	return report, nil
}

// Reverse removes converted vehicles nobody has touched since. Vehicles that
// have been sold or entered into another deal stay and are reported.
func (c *PartExchangeConverter) Reverse(ctx context.Context, repos transaction.Repositories, d *deal.Deal) (ReversalReport, error) {
	report := ReversalReport{
		Removed:  make([]uuid.UUID, 0),
		Retained: make([]RetainedVehicle, 0),
	}
	log := logger.L(ctx).With(zap.String("deal_id", d.ID.String()))

	for i, px := range d.PartExchanges {
		if !px.IsConverted() {
			continue
		}
		vehicleID := *px.ConvertedToVehicleID
		v, err := repos.Vehicles().FindByIDForTenant(ctx, d.TenantID, vehicleID)
		if errors.Is(err, shared.ErrNotFound) {
			log.Warn("Converted part-exchange vehicle already gone", zap.String("vehicle_id", vehicleID.String()))
			d.ClearPartExchangeConversion(i)
			continue
		}
		if err != nil {
			return report, fmt.Errorf("load converted vehicle %s: %w", vehicleID, err)
		}

		reason, err := retainReason(ctx, repos, v)
		if err != nil {
			return report, err
		}
		if reason != "" {
			report.Retained = append(report.Retained, RetainedVehicle{
				VRM:       v.VRM,
				VehicleID: v.ID,
				Reason:    reason,
			})
			log.Warn("Converted part-exchange vehicle kept",
				zap.String("vehicle_id", v.ID.String()),
				zap.String("reason", reason),
			)
			continue
		}

		if err := repos.Vehicles().Delete(ctx, d.TenantID, v.ID); err != nil {
			return report, fmt.Errorf("delete converted vehicle %s: %w", v.VRM, err)
		}
		d.ClearPartExchangeConversion(i)
		report.Removed = append(report.Removed, v.ID)
	}
	return report, nil
}

// retainReason says why a converted vehicle must stay, or "" when it can go.
// A draft deal does not move the vehicle out of AVAILABLE, so open deals are
// looked up as well.
func retainReason(ctx context.Context, repos transaction.Repositories, v *vehicle.Vehicle) (string, error) {
	if !v.IsAvailable() {
		return v.ProgressReason(), nil
	}
	_, err := repos.Deals().FindOpenByVehicle(ctx, v.TenantID, v.ID)
	switch {
	case err == nil:
		return vehicle.ReasonInDeal, nil
	case errors.Is(err, shared.ErrNotFound):
		return "", nil
	default:
		return "", fmt.Errorf("find open deal for vehicle %s: %w", v.VRM, err)
	}
}

func newStockVehicle(d *deal.Deal, px deal.PartExchange, vrm string, at time.Time) (*vehicle.Vehicle, error) {
	v, err := vehicle.NewVehicle(d.TenantID, vrm, px.Make, px.Model, px.Year)
	if err != nil {
		return nil, err
	}
	v.Mileage = px.Mileage
	v.Colour = px.Colour
	v.VATQualifying = px.VATQualifying

	cost := valueobject.NoVAT(px.Allowance)
	if px.VATQualifying {
		cost = valueobject.FromGross(px.Allowance, valueobject.StandardRate)
	}
	v.SetPurchase(cost, at, PurchaseSourcePartExchange)
	v.LinkSourceDeal(d.ID, vrm)
	return v, nil
}

func (c *PartExchangeConverter) prepTaskNames(ctx context.Context, repos transaction.Repositories, tenantID uuid.UUID) []string {
	profile, err := repos.Dealers().FindByTenant(ctx, tenantID)
	if err != nil {
		if !errors.Is(err, shared.ErrNotFound) {
			logger.L(ctx).Warn("Dealer profile unavailable, using default preparation tasks", zap.Error(err))
		}
		return c.defaultPrepTasks
	}
	if len(profile.DefaultPrepTasks) == 0 {
		return c.defaultPrepTasks
	}
	return profile.DefaultPrepTasks
}

func (c *PartExchangeConverter) copyAppraisalIssues(ctx context.Context, repos transaction.Repositories, tenantID, vehicleID, appraisalID uuid.UUID, at time.Time) (int, error) {
	a, err := repos.Appraisals().FindByIDForTenant(ctx, tenantID, appraisalID)
	if errors.Is(err, shared.ErrNotFound) {
		logger.L(ctx).Warn("Appraisal not found, no issues copied", zap.String("appraisal_id", appraisalID.String()))
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("load appraisal %s: %w", appraisalID, err)
	}
	if len(a.Issues) == 0 {
		return 0, nil
	}
	issues := make([]vehicle.Issue, 0, len(a.Issues))
	for _, src := range a.Issues {
		issues = append(issues, vehicle.IssueFromAppraisal(tenantID, vehicleID, src, at))
	}
	if err := repos.Issues().CreateBatch(ctx, issues); err != nil {
		return 0, fmt.Errorf("copy appraisal issues: %w", err)
	}
	return len(issues), nil
}
