package service

import (
	"context"
	"strconv"
	"strings"

	"pasbridge/internal/transactions/domain"
	"pasbridge/platform/apperr"
	"pasbridge/platform/phone"
	"pasbridge/platform/sanitize"
)

func (o *Orchestrator) bind(ctx context.Context, req *domain.BindRequest, wf *workflow) error {
	path, existing, err := o.guardBind(ctx, req, wf)
	if err != nil {
		return err
	}
	if path == bindRebind {
		return o.rebind(ctx, req, existing, wf)
	}
	return o.bindNewBusiness(ctx, req, wf)
}

func (o *Orchestrator) bindNewBusiness(ctx context.Context, req *domain.BindRequest, wf *workflow) error {
	insuredGUID, err := o.resolveInsured(ctx, req.Insured, wf)
	if err != nil {
		return err
	}
	wf.result.Set(domain.FieldInsuredGUID, insuredGUID)

	producer, err := o.producers.FindProducer(ctx, req.ProducerName, req.ProducerCode)
	if err != nil {
		return referenceFailure("producer", firstNonEmpty(req.ProducerCode, req.ProducerName), err)
	}

	var underwriterGUID string
	if strings.TrimSpace(req.UnderwriterName) != "" {
		underwriterGUID, err = o.producers.FindUnderwriter(ctx, req.UnderwriterName)
		if err != nil {
			return referenceFailure("underwriter", req.UnderwriterName, err)
		}
	}

	effective, _ := domain.ParseDate(req.EffectiveDate)
	expiration, ok := domain.ParseDate(req.ExpirationDate)
	if !ok {
		expiration = effective.AddDate(1, 0, 0)
	}

	submissionGUID, err := o.quotes.CreateSubmission(ctx, domain.SubmissionInput{
		InsuredGUID:     insuredGUID,
		Producer:        producer,
		UnderwriterGUID: underwriterGUID,
		SubmissionDate:  o.now(),
	})
	if err != nil {
		return remoteFailure("create submission", err)
	}
	wf.result.Set(domain.FieldSubmissionGUID, submissionGUID)

	quoteGUID, err := o.quotes.CreateQuote(ctx, domain.QuoteInput{
		SubmissionGUID:  submissionGUID,
		Producer:        producer,
		UnderwriterGUID: underwriterGUID,
		LineOfBusiness:  req.LineOfBusiness,
		State:           strings.ToUpper(req.State),
		EffectiveDate:   effective,
		ExpirationDate:  expiration,
	})
	if err != nil {
		return remoteFailure("create quote", err)
	}
	wf.result.Set(domain.FieldQuoteGUID, quoteGUID)

	if req.Keys.OpportunityID != nil {
		externalID := strconv.FormatInt(*req.Keys.OpportunityID, 10)
		if err := o.quotes.UpdateExternalQuoteID(ctx, quoteGUID, externalID); err != nil {
			wf.log.Warn("orchestrator: external quote id update failed", "quoteGuid", quoteGUID, "error", err)
			wf.result.Warn("external quote id not set: %v", err)
		}
	}

	optionGUID, err := o.quotes.AddQuoteOption(ctx, quoteGUID)
	if err != nil {
		return remoteFailure("add quote option", err)
	}
	wf.result.Set(domain.FieldQuoteOptionGUID, optionGUID)

	if err := o.quotes.Rate(ctx, domain.RateInput{
		QuoteGUID:       quoteGUID,
		QuoteOptionGUID: optionGUID,
		Premium:         *req.GrossPremium,
		PolicyFee:       req.PolicyFee,
	}); err != nil {
		return remoteFailure("rate", err)
	}

	return o.registerBindAndInvoice(ctx, quoteGUID, optionGUID, wf)
}

// rebind reuses the existing quote and option; it never creates a quote.
func (o *Orchestrator) rebind(ctx context.Context, req *domain.BindRequest, existing domain.QuoteReference, wf *workflow) error {
	wf.result.Set(domain.FieldRebind, true)
	wf.result.Set(domain.FieldQuoteGUID, existing.QuoteGUID)

	optionGUID, created, err := o.ensureOption(ctx, existing, wf)
	if err != nil {
		return err
	}
	if created {
		if err := o.quotes.Rate(ctx, domain.RateInput{
			QuoteGUID:       existing.QuoteGUID,
			QuoteOptionGUID: optionGUID,
			Premium:         *req.GrossPremium,
			PolicyFee:       req.PolicyFee,
		}); err != nil {
			return remoteFailure("rate", err)
		}
	}

	return o.registerBindAndInvoice(ctx, existing.QuoteGUID, optionGUID, wf)
}

// ensureOption returns the quote's option, adding one when it has none.
func (o *Orchestrator) ensureOption(ctx context.Context, ref domain.QuoteReference, wf *workflow) (string, bool, error) {
	if ref.HasOption() {
		wf.result.Set(domain.FieldQuoteOptionGUID, ref.QuoteOptionGUID)
		return ref.QuoteOptionGUID, false, nil
	}
	optionGUID, err := o.quotes.AddQuoteOption(ctx, ref.QuoteGUID)
	if err != nil {
		return "", false, remoteFailure("add quote option", err)
	}
	wf.result.Set(domain.FieldQuoteOptionGUID, optionGUID)
	return optionGUID, true, nil
}

// registerBindAndInvoice is the tail shared by every binding workflow.
func (o *Orchestrator) registerBindAndInvoice(ctx context.Context, quoteGUID, optionGUID string, wf *workflow) error {
	if err := o.payloads.RegisterTransactionPayload(ctx, wf.raw, quoteGUID, optionGUID); err != nil {
		return remoteFailure("register payload", err)
	}

	policyNumber, err := o.policies.Bind(ctx, optionGUID)
	if err != nil {
		return remoteFailure("bind", err)
	}
	wf.result.Set(domain.FieldBoundPolicyNumber, policyNumber)
	wf.log.Info("orchestrator: quote bound", "quoteGuid", quoteGUID, "policyNumber", policyNumber)

	o.attachInvoice(ctx, quoteGUID, wf)
	return nil
}

func (o *Orchestrator) resolveInsured(ctx context.Context, in domain.Insured, wf *workflow) (string, error) {
	in.Name = sanitize.Text(in.Name)
	in.DBA = sanitize.Text(in.DBA)
	in.Phone = phone.NormalizeE164(in.Phone, o.phoneRegion)
	in.Email = strings.ToLower(strings.TrimSpace(in.Email))

	guid, found, err := o.insureds.FindInsured(ctx, in)
	if err != nil {
		return "", remoteFailure("find insured", err)
	}
	if found {
		wf.log.Info("orchestrator: reusing existing insured", "insuredGuid", guid)
		return guid, nil
	}

	guid, err = o.insureds.CreateInsured(ctx, in)
	if err != nil {
		return "", remoteFailure("create insured", err)
	}
	return guid, nil
}

func referenceFailure(what, key string, err error) error {
	if isNotFound(err) {
		return apperr.Wrap(apperr.KindNotFound, "No "+what+" found for "+strconv.Quote(key), err).WithOp("find " + what)
	}
	return remoteFailure("find "+what, err)
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
