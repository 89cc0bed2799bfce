package deal

import (
	"strings"

	"github.com/dealer/backend/internal/domain/shared"
)

func checkCompletable(s Status) error {
	switch s {
	case StatusCancelled:
		return shared.NewInvalidStateError("Cannot complete a cancelled deal")
	case StatusCompleted:
		return shared.NewInvalidStateError("Deal is already completed")
	case StatusDraft:
		return shared.NewInvalidStateError("Deal must take a deposit, be invoiced or be delivered before completion")
	}
	return ValidateTransition(s, StatusCompleted)
}

func checkSignatures(sig Signature) error {
	var missing []string
	if sig.DealerSignedAt == nil {
		missing = append(missing, "dealer")
	}
	if sig.CustomerSignedAt == nil {
		missing = append(missing, "customer")
	}
	if len(missing) == 0 {
		return nil
	}
	return shared.NewInvalidStateError("Deal must be signed by the %s before completion", strings.Join(missing, " and ")).
		WithDetail("missingSignatures", missing)
}

// checkPartExchangeFinance returns a hard error for financed trade-ins with no
// finance company, and a confirmation request for unwritten settlements.
func checkPartExchangeFinance(entries []PartExchange, confirmed bool) error {
	var unsettled []string
	for _, px := range entries {
		if !px.HasFinance {
			continue
		}
		if px.FinanceCompanyContactID == nil {
			return shared.NewValidationError("Part-exchange %s has outstanding finance but no finance company", px.VRM).
				WithDetail("vrm", px.VRM)
		}
		if !px.HasSettlementInWriting {
			unsettled = append(unsettled, px.VRM)
		}
	}
	if len(unsettled) == 0 || confirmed {
		return nil
	}
	return &shared.ConfirmationRequiredError{
		Reason: "Finance settlement not confirmed in writing for part-exchange",
		VRMs:   unsettled,
	}
}
