package service

import (
	"context"

	"pasbridge/internal/transactions/domain"
	"pasbridge/platform/apperr"
)

func (o *Orchestrator) issue(ctx context.Context, req *domain.IssueRequest, wf *workflow) error {
	ref, err := o.resolveQuote(ctx, req.Keys, lookupAnyKey, wf)
	if err != nil {
		return err
	}
	wf.result.Set(domain.FieldQuoteGUID, ref.QuoteGUID)

	if err := o.requireBound(ctx, ref, "issue"); err != nil {
		return err
	}

	policyNumber := firstNonEmpty(ref.PolicyNumber, req.Keys.PolicyNumber)
	if policyNumber == "" {
		return apperr.Unprocessable("Cannot issue: bound quote has no policy number")
	}
	wf.result.Set(domain.FieldBoundPolicyNumber, policyNumber)

	issueDate, err := o.policies.Issue(ctx, policyNumber)
	if err != nil {
		return remoteFailure("issue", err)
	}
	wf.result.Set(domain.FieldIssueDate, domain.FormatDate(issueDate))

	doc, err := o.documents.GeneratePolicyDocument(ctx, policyNumber)
	if err != nil {
		wf.log.Warn("orchestrator: policy document generation failed", "policyNumber", policyNumber, "error", err)
		wf.result.Warn("policy document not generated: %v", err)
		return nil
	}
	wf.result.Set(domain.FieldDocumentGUID, doc.DocumentGUID)
	return nil
}
