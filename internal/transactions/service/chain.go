package service

import (
	"context"
	"fmt"
	"time"

	"pasbridge/internal/transactions/domain"
	"pasbridge/platform/apperr"
)

// chainState is the resolved lineage of one opportunity.
type chainState struct {
	opportunityID int64
	latest        domain.QuoteReference
	ledger        domain.PremiumLedger
}

// opportunityFor returns the opportunity id of a chain transaction, resolving
// it through a quote lookup when the request did not carry one.
func (o *Orchestrator) opportunityFor(ctx context.Context, keys domain.LookupKeys, policy lookupPolicy, wf *workflow) (int64, error) {
	if keys.OpportunityID != nil {
		return *keys.OpportunityID, nil
	}
	ref, err := o.resolveQuote(ctx, keys, policy, wf)
	if err != nil {
		return 0, err
	}
	if ref.OpportunityID == nil {
		return 0, apperr.Unprocessable("Quote " + ref.QuoteGUID + " has no opportunity id; cannot resolve its chain")
	}
	return *ref.OpportunityID, nil
}

// resolveChain finds the latest quote version for the opportunity and sums
// the premium already invoiced on its control number.
func (o *Orchestrator) resolveChain(ctx context.Context, opportunityID int64, delta domain.Money, wf *workflow) (chainState, error) {
	latest, err := o.lookup.FindLatestInChain(ctx, opportunityID)
	if err != nil {
		if isNotFound(err) {
			return chainState{}, apperr.Wrap(apperr.KindNotFound,
				fmt.Sprintf("No quote chain found for opportunityId %d", opportunityID), err).WithOp("chain")
		}
		return chainState{}, apperr.Wrap(apperr.KindRemote, fmt.Sprintf("Quote chain lookup failed: %v", err), err).WithOp("chain")
	}

	existing, err := o.lookup.CumulativePremium(ctx, latest.ControlNumber)
	switch {
	case isNotFound(err):
		wf.log.Info("orchestrator: no premium recorded for chain, treating as zero", "controlNumber", latest.ControlNumber)
		existing = 0
	case err != nil:
		return chainState{}, apperr.Wrap(apperr.KindRemote, fmt.Sprintf("Cumulative premium lookup failed: %v", err), err).WithOp("chain")
	}

	ledger, err := domain.NewPremiumLedger(existing, delta)
	if err != nil {
		return chainState{}, apperr.Wrap(apperr.KindUnprocessable,
			fmt.Sprintf("Premium change %s on existing premium %s is out of range", delta.String(), existing.String()), err).WithOp("chain")
	}

	state := chainState{
		opportunityID: opportunityID,
		latest:        latest,
		ledger:        ledger,
	}
	wf.log.Info("orchestrator: chain resolved",
		"opportunityId", opportunityID,
		"controlNumber", latest.ControlNumber,
		"chainLevel", latest.ChainLevel,
		"existingPremium", state.ledger.Existing.String(),
		"newTotal", state.ledger.NewTotal.String())
	return state, nil
}

// effectiveDate applies the type date, transaction date, today fallback and
// records the chosen date on the result.
func (o *Orchestrator) effectiveDate(specific, transactionDate string, wf *workflow) time.Time {
	date, source := domain.ResolveEffectiveDate(specific, transactionDate, o.now())
	if source != domain.DateFromSpecific && specific != "" {
		wf.result.Warn("effective date %q is not a valid date; used %s", specific, source)
	}
	if source == domain.DateFromClock && transactionDate != "" {
		wf.result.Warn("transaction date %q is not a valid date; used current date", transactionDate)
	}
	wf.log.Debug("orchestrator: effective date resolved", "date", domain.FormatDate(date), "source", string(source))
	wf.result.Set(domain.FieldEffectiveDate, domain.FormatDate(date))
	return date
}
