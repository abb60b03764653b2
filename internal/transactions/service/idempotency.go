package service

import (
	"context"

	"pasbridge/internal/transactions/domain"
	"pasbridge/platform/apperr"
)

type bindPath int

const (
	bindNewBusiness bindPath = iota
	bindRebind
)

// guardBind classifies a bind by its opportunity id. A bound quote is a
// conflict; an unbound one is rebound in place; no quote is new business.
func (o *Orchestrator) guardBind(ctx context.Context, req *domain.BindRequest, wf *workflow) (bindPath, domain.QuoteReference, error) {
	if req.Keys.OpportunityID == nil {
		return bindNewBusiness, domain.QuoteReference{}, nil
	}
	opportunityID := *req.Keys.OpportunityID

	existing, err := o.lookup.FindByOpportunityID(ctx, opportunityID)
	switch {
	case err == nil:
	case isNotFound(err):
		return bindNewBusiness, domain.QuoteReference{}, nil
	default:
		// Unknown remote state must not fall through to creating a second quote.
		return 0, domain.QuoteReference{}, apperr.Wrap(apperr.KindRemote, "Existing quote lookup failed: "+err.Error(), err).WithOp("bind guard")
	}

	bound := existing.IsBound
	if !bound {
		if bound, err = o.lookup.IsBound(ctx, existing.QuoteGUID); err != nil {
			return 0, domain.QuoteReference{}, apperr.Wrap(apperr.KindRemote, "Bound status check failed: "+err.Error(), err).WithOp("bind guard")
		}
	}
	if bound {
		wf.log.Info("orchestrator: opportunity already bound", "opportunityId", opportunityID, "policyNumber", existing.PolicyNumber)
		return 0, existing, apperr.Conflict(alreadyBoundMsg).WithDetails(map[string]any{
			"opportunityId": opportunityID,
			"policyNumber":  existing.PolicyNumber,
			"quoteGuid":     existing.QuoteGUID,
		})
	}

	wf.log.Info("orchestrator: unbound quote exists, rebinding", "opportunityId", opportunityID, "quoteGuid", existing.QuoteGUID)
	return bindRebind, existing, nil
}
