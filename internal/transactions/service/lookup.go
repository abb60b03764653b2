package service

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"pasbridge/internal/transactions/domain"
	"pasbridge/platform/apperr"
)

// lookupPolicy controls which keys resolveQuote may use.
type lookupPolicy struct {
	allowPolicyNumber bool
	allowOpportunity  bool
}

var (
	lookupAnyKey     = lookupPolicy{allowPolicyNumber: true, allowOpportunity: true}
	lookupOptionOnly = lookupPolicy{}
)

// resolveQuote tries optionId, then policyNumber, then opportunityId. Each
// failure falls through to the next key. Nothing here mutates remote state.
func (o *Orchestrator) resolveQuote(ctx context.Context, keys domain.LookupKeys, policy lookupPolicy, wf *workflow) (domain.QuoteReference, error) {
	var (
		tried   []string
		lastErr error
	)

	if keys.OptionID != nil {
		ref, err := o.lookup.FindByOptionID(ctx, *keys.OptionID)
		if err == nil {
			return ref, nil
		}
		wf.log.Info("orchestrator: option id lookup failed, trying next key", "optionId", *keys.OptionID, "error", err)
		tried = append(tried, "optionId "+strconv.FormatInt(*keys.OptionID, 10))
		lastErr = err
	}

	if policy.allowPolicyNumber && strings.TrimSpace(keys.PolicyNumber) != "" {
		ref, err := o.lookup.FindByPolicyNumber(ctx, keys.PolicyNumber)
		if err == nil {
			return ref, nil
		}
		wf.log.Info("orchestrator: policy number lookup failed, trying next key", "policyNumber", keys.PolicyNumber, "error", err)
		tried = append(tried, "policyNumber "+keys.PolicyNumber)
		lastErr = err
	}

	if policy.allowOpportunity && keys.OpportunityID != nil {
		ref, err := o.lookup.FindByOpportunityID(ctx, *keys.OpportunityID)
		if err == nil {
			return ref, nil
		}
		tried = append(tried, "opportunityId "+strconv.FormatInt(*keys.OpportunityID, 10))
		lastErr = err
	}

	return domain.QuoteReference{}, lookupFailure(tried, lastErr)
}

func lookupFailure(tried []string, lastErr error) error {
	if len(tried) == 0 {
		return apperr.NotFound("No usable lookup key for this transaction type").WithOp("lookup")
	}
	msg := "No quote found for " + strings.Join(tried, ", ")
	if lastErr != nil && !isNotFound(lastErr) {
		return apperr.Wrap(apperr.KindRemote, fmt.Sprintf("Quote lookup failed: %v", lastErr), lastErr).WithOp("lookup")
	}
	return apperr.Wrap(apperr.KindNotFound, msg, lastErr).WithOp("lookup")
}

// requireBound fails with KindUnprocessable unless the quote is bound. A
// lookup row that says unbound is re-checked against the live quote status.
func (o *Orchestrator) requireBound(ctx context.Context, ref domain.QuoteReference, action string) error {
	bound := ref.IsBound
	if !bound {
		live, err := o.lookup.IsBound(ctx, ref.QuoteGUID)
		if err != nil {
			return apperr.Wrap(apperr.KindRemote, fmt.Sprintf("Bound status check failed: %v", err), err).WithOp(action)
		}
		bound = live
	}
	if !bound {
		return apperr.Unprocessable(fmt.Sprintf("Cannot %s: policy is not bound", action)).
			WithDetails(map[string]string{"quoteGuid": ref.QuoteGUID})
	}
	return nil
}
