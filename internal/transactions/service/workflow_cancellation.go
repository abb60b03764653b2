package service

import (
	"context"

	"pasbridge/internal/transactions/domain"
)

func (o *Orchestrator) cancel(ctx context.Context, req *domain.CancellationRequest, wf *workflow) error {
	ref, err := o.resolveQuote(ctx, req.Keys, lookupAnyKey, wf)
	if err != nil {
		return err
	}
	wf.result.Set(domain.FieldQuoteGUID, ref.QuoteGUID)

	if err := o.requireBound(ctx, ref, "cancel"); err != nil {
		return err
	}

	effective := o.effectiveDate(req.EffectiveDate, req.TransactionDate, wf)
	wf.result.Set(domain.FieldRefundAmount, req.RefundAmount)

	guid, err := o.policies.CreateCancellation(ctx, domain.CancellationInput{
		QuoteGUID:     ref.QuoteGUID,
		PolicyNumber:  firstNonEmpty(ref.PolicyNumber, req.Keys.PolicyNumber),
		EffectiveDate: effective,
		ReasonCode:    req.ReasonCode,
		RefundAmount:  req.RefundAmount,
		Comment:       req.Comment,
	})
	if err != nil {
		return remoteFailure("create cancellation", err)
	}
	wf.result.Set(domain.FieldCancellationQuoteGUID, guid)

	optionGUID, _, err := o.ensureOption(ctx, domain.QuoteReference{QuoteGUID: guid}, wf)
	if err != nil {
		return err
	}

	return o.registerBindAndInvoice(ctx, guid, optionGUID, wf)
}
