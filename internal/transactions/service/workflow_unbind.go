package service

import (
	"context"

	"pasbridge/internal/transactions/domain"
)

func (o *Orchestrator) unbind(ctx context.Context, req *domain.UnbindRequest, wf *workflow) error {
	ref, err := o.resolveQuote(ctx, req.Keys, lookupAnyKey, wf)
	if err != nil {
		return err
	}
	wf.result.Set(domain.FieldQuoteGUID, ref.QuoteGUID)
	if ref.PolicyNumber != "" {
		wf.result.Set(domain.FieldBoundPolicyNumber, ref.PolicyNumber)
	}

	if err := o.requireBound(ctx, ref, "unbind"); err != nil {
		return err
	}

	if err := o.policies.Unbind(ctx, ref.QuoteGUID); err != nil {
		return remoteFailure("unbind", err)
	}
	wf.result.Set(domain.FieldUnbound, true)
	wf.log.Info("orchestrator: policy unbound", "quoteGuid", ref.QuoteGUID, "reason", req.Reason)
	return nil
}
