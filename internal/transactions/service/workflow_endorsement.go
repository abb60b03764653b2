package service

import (
	"context"
	"fmt"

	"pasbridge/internal/transactions/domain"
	"pasbridge/platform/apperr"
)

// endorse attaches a flat premium endorsement to the latest version of the
// policy. An unbound endorsement left by an earlier failed attempt is resumed
// instead of creating a second one; any other unbound version blocks it.
func (o *Orchestrator) endorse(ctx context.Context, req *domain.EndorsementRequest, wf *workflow) error {
	opportunityID, err := o.opportunityFor(ctx, req.Keys, lookupAnyKey, wf)
	if err != nil {
		return err
	}

	chain, err := o.resolveChain(ctx, opportunityID, *req.Premium, wf)
	if err != nil {
		return err
	}
	latest := chain.latest
	resume, err := o.endorsementTarget(ctx, latest, opportunityID, wf)
	if err != nil {
		return err
	}

	endorsementNumber := latest.ChainLevel + 1
	if resume {
		endorsementNumber = latest.ChainLevel
	}
	effective := o.effectiveDate(req.EffectiveFrom, req.TransactionDate, wf)

	wf.result.Set(domain.FieldEndorsementNumber, endorsementNumber)
	wf.result.Set(domain.FieldExistingPremium, chain.ledger.Existing)
	wf.result.Set(domain.FieldPremiumChange, chain.ledger.Delta)
	wf.result.Set(domain.FieldNewTotalPremium, chain.ledger.NewTotal)

	target := latest
	if !resume {
		guid, err := o.policies.CreateEndorsement(ctx, domain.EndorsementInput{
			QuoteGUID:     latest.QuoteGUID,
			OpportunityID: opportunityID,
			PremiumDelta:  chain.ledger.Delta,
			EffectiveDate: effective,
			Comment:       firstNonEmpty(req.Description, req.Comment),
		})
		if err != nil {
			return remoteFailure("create endorsement", err)
		}
		target = domain.QuoteReference{QuoteGUID: guid, ControlNumber: latest.ControlNumber, ChainLevel: endorsementNumber}
	}
	wf.result.Set(domain.FieldEndorsementQuoteGUID, target.QuoteGUID)

	optionGUID, _, err := o.ensureOption(ctx, target, wf)
	if err != nil {
		return err
	}

	if err := o.quotes.Rate(ctx, domain.RateInput{
		QuoteGUID:       target.QuoteGUID,
		QuoteOptionGUID: optionGUID,
		Premium:         chain.ledger.NewTotal,
	}); err != nil {
		return remoteFailure("rate", err)
	}

	return o.registerBindAndInvoice(ctx, target.QuoteGUID, optionGUID, wf)
}

// endorsementTarget decides whether the latest version can take a new
// endorsement (false) or is an unbound endorsement to resume (true).
func (o *Orchestrator) endorsementTarget(ctx context.Context, latest domain.QuoteReference, opportunityID int64, wf *workflow) (bool, error) {
	if latest.ChainLevel == 0 {
		return false, o.requireBound(ctx, latest, "endorse")
	}
	if latest.IsBound {
		return false, nil
	}
	bound, err := o.lookup.IsBound(ctx, latest.QuoteGUID)
	if err != nil {
		return false, apperr.Wrap(apperr.KindRemote, fmt.Sprintf("Bound status check failed: %v", err), err).WithOp("endorse")
	}
	if bound {
		return false, nil
	}
	if latest.Kind != domain.QuoteKindEndorsement {
		kind := string(latest.Kind)
		if kind == "" {
			kind = "unknown"
		}
		return false, apperr.Conflict(fmt.Sprintf(
			"Cannot endorse: latest version of opportunityId %d is an unbound %s quote", opportunityID, kind)).
			WithDetails(map[string]any{"quoteGuid": latest.QuoteGUID, "chainLevel": latest.ChainLevel, "kind": kind})
	}
	wf.log.Info("orchestrator: resuming unbound endorsement", "quoteGuid", latest.QuoteGUID, "chainLevel", latest.ChainLevel)
	wf.result.Warn("resumed unbound endorsement quote %s", latest.QuoteGUID)
	return true, nil
}
