package service

import (
	"fmt"
	"strings"

	"pasbridge/internal/transactions/domain"
)

// Summarize renders a one-line, pipe-delimited summary of an outcome. The
// fields shown depend on the transaction type.
func Summarize(t domain.TransactionType, out domain.Outcome) string {
	r := out.Result
	if r == nil {
		r = domain.NewWorkflowResult()
	}

	parts := []string{
		strings.ToUpper(string(t)),
		"txn " + out.TransactionID,
	}

	if !out.Success {
		kind := "internal"
		msg := "unknown failure"
		if out.Err != nil {
			kind = out.Err.Kind.String()
			msg = out.Err.Message
		}
		parts = append(parts, "FAILED ("+kind+")", msg)
		if guid := firstNonEmpty(
			r.Text(domain.FieldEndorsementQuoteGUID),
			r.Text(domain.FieldCancellationQuoteGUID),
			r.Text(domain.FieldReinstatementQuoteGUID),
			r.Text(domain.FieldQuoteGUID),
		); guid != "" {
			parts = append(parts, "quote "+guid)
		}
		return strings.Join(parts, " | ")
	}

	parts = append(parts, "COMPLETED")
	switch t {
	case domain.TypeBind:
		parts = appendField(parts, "policy", r.Text(domain.FieldBoundPolicyNumber))
		if r.Has(domain.FieldRebind) {
			parts = append(parts, "rebind")
		}
	case domain.TypeUnbind:
		parts = appendField(parts, "unbound quote", r.Text(domain.FieldQuoteGUID))
		parts = appendField(parts, "policy", r.Text(domain.FieldBoundPolicyNumber))
	case domain.TypeIssue:
		parts = appendField(parts, "policy", r.Text(domain.FieldBoundPolicyNumber))
		parts = appendField(parts, "issued", r.Text(domain.FieldIssueDate))
	case domain.TypeMidtermEndorsement:
		parts = appendField(parts, "endorsement #", r.Text(domain.FieldEndorsementNumber))
		parts = appendField(parts, "premium change", moneyText(r, domain.FieldPremiumChange))
		parts = appendField(parts, "new total", moneyText(r, domain.FieldNewTotalPremium))
		parts = appendField(parts, "policy", r.Text(domain.FieldBoundPolicyNumber))
	case domain.TypeCancellation:
		parts = appendField(parts, "refund", moneyText(r, domain.FieldRefundAmount))
		parts = appendField(parts, "policy", r.Text(domain.FieldBoundPolicyNumber))
	case domain.TypeReinstatement:
		parts = appendField(parts, "net change", moneyText(r, domain.FieldNetPremiumChange))
		parts = appendField(parts, "policy", r.Text(domain.FieldBoundPolicyNumber))
	}

	if v, ok := r.Get(domain.FieldInvoiceData); ok {
		if inv, ok := v.(domain.Invoice); ok {
			parts = appendField(parts, "invoice", inv.InvoiceNumber)
		}
	}
	if n := len(r.Warnings); n > 0 {
		parts = append(parts, fmt.Sprintf("warnings %d", n))
	}
	return strings.Join(parts, " | ")
}

func appendField(parts []string, label, value string) []string {
	if value == "" {
		return parts
	}
	if strings.HasSuffix(label, "#") {
		return append(parts, label+value)
	}
	return append(parts, label+" "+value)
}

func moneyText(r *domain.WorkflowResult, key string) string {
	v, ok := r.Get(key)
	if !ok {
		return ""
	}
	if m, ok := v.(domain.Money); ok {
		return m.Display()
	}
	return fmt.Sprint(v)
}
