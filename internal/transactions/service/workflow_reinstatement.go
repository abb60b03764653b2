package service

import (
	"context"

	"pasbridge/internal/transactions/domain"
)

// reinstate works on a known lineage only: the opportunity comes from the
// request or from an option id lookup, never from a bare policy number.
func (o *Orchestrator) reinstate(ctx context.Context, req *domain.ReinstatementRequest, wf *workflow) error {
	opportunityID, err := o.opportunityFor(ctx, req.Keys, lookupOptionOnly, wf)
	if err != nil {
		return err
	}

	chain, err := o.resolveChain(ctx, opportunityID, req.Premium, wf)
	if err != nil {
		return err
	}
	wf.result.Set(domain.FieldQuoteGUID, chain.latest.QuoteGUID)

	effective := o.effectiveDate(req.EffectiveDate, req.TransactionDate, wf)
	wf.result.Set(domain.FieldExistingPremium, chain.ledger.Existing)
	wf.result.Set(domain.FieldNewTotalPremium, chain.ledger.NewTotal)

	guid, err := o.policies.CreateReinstatement(ctx, domain.ReinstatementInput{
		QuoteGUID:     chain.latest.QuoteGUID,
		OpportunityID: opportunityID,
		Premium:       req.Premium,
		EffectiveDate: effective,
		Comment:       req.Comment,
	})
	if err != nil {
		return remoteFailure("create reinstatement", err)
	}
	wf.result.Set(domain.FieldReinstatementQuoteGUID, guid)

	optionGUID, _, err := o.ensureOption(ctx, domain.QuoteReference{QuoteGUID: guid}, wf)
	if err != nil {
		return err
	}

	if err := o.quotes.Rate(ctx, domain.RateInput{
		QuoteGUID:       guid,
		QuoteOptionGUID: optionGUID,
		Premium:         chain.ledger.NewTotal,
	}); err != nil {
		return remoteFailure("rate", err)
	}

	if err := o.registerBindAndInvoice(ctx, guid, optionGUID, wf); err != nil {
		return err
	}
	wf.result.Set(domain.FieldNetPremiumChange, chain.ledger.NewTotal-chain.ledger.Existing)
	return nil
}
