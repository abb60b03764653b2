package service

import (
	"context"

	"pasbridge/internal/transactions/domain"
)

// attachInvoice polls for the invoice of a freshly bound quote. Running out
// of attempts only adds a warning.
func (o *Orchestrator) attachInvoice(ctx context.Context, quoteGUID string, wf *workflow) {
	for attempt := 1; attempt <= o.invoiceAttempts; attempt++ {
		inv, found, err := o.invoices.GetInvoice(ctx, quoteGUID)
		switch {
		case err != nil:
			o.metrics.IncrementInvoiceAttempt("error")
			wf.log.Warn("orchestrator: invoice retrieval failed", "quoteGuid", quoteGUID, "attempt", attempt, "error", err)
		case found:
			o.metrics.IncrementInvoiceAttempt("found")
			wf.result.Set(domain.FieldInvoiceData, inv)
			return
		default:
			o.metrics.IncrementInvoiceAttempt("missing")
			wf.log.Debug("orchestrator: invoice not visible yet", "quoteGuid", quoteGUID, "attempt", attempt)
		}

		if attempt == o.invoiceAttempts {
			break
		}
		if err := o.sleep(ctx, o.invoiceDelay); err != nil {
			wf.result.Warn("invoice retrieval interrupted after %d attempts: %v", attempt, err)
			return
		}
	}
	wf.result.Warn("invoice data not available after %d attempts", o.invoiceAttempts)
}
