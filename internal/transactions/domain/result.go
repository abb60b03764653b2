package domain

import (
	"bytes"
	"encoding/json"
	"fmt"

	"pasbridge/platform/apperr"
)

// Result field names.
const (
	FieldInsuredGUID            = "insuredGuid"
	FieldSubmissionGUID         = "submissionGuid"
	FieldQuoteGUID              = "quoteGuid"
	FieldQuoteOptionGUID        = "quoteOptionGuid"
	FieldRebind                 = "rebind"
	FieldBoundPolicyNumber      = "boundPolicyNumber"
	FieldIssueDate              = "issueDate"
	FieldDocumentGUID           = "documentGuid"
	FieldEndorsementNumber      = "endorsementNumber"
	FieldEndorsementQuoteGUID   = "endorsementQuoteGuid"
	FieldCancellationQuoteGUID  = "cancellationQuoteGuid"
	FieldReinstatementQuoteGUID = "reinstatementQuoteGuid"
	FieldEffectiveDate          = "effectiveDate"
	FieldExistingPremium        = "existingPremium"
	FieldPremiumChange          = "premiumChange"
	FieldNewTotalPremium        = "newTotalPremium"
	FieldNetPremiumChange       = "netPremiumChange"
	FieldRefundAmount           = "refundAmount"
	FieldUnbound                = "unbound"
	FieldInvoiceData            = "invoiceData"
	FieldStatus                 = "status"
)

// Status values.
const (
	StatusCompleted = "completed"
	StatusFailed    = "failed"
)

type field struct {
	key   string
	value any
}

// WorkflowResult accumulates named fields in insertion order. A field, once
// set, keeps its first value for the rest of the attempt.
type WorkflowResult struct {
	fields   []field
	index    map[string]int
	Warnings []string
}

// NewWorkflowResult returns an empty result.
func NewWorkflowResult() *WorkflowResult {
	return &WorkflowResult{index: make(map[string]int)}
}

// Set records value under key unless key is already present.
// It reports whether the write happened.
func (r *WorkflowResult) Set(key string, value any) bool {
	if _, exists := r.index[key]; exists {
		return false
	}
	r.index[key] = len(r.fields)
	r.fields = append(r.fields, field{key: key, value: value})
	return true
}

// Get returns the value stored under key.
func (r *WorkflowResult) Get(key string) (any, bool) {
	i, ok := r.index[key]
	if !ok {
		return nil, false
	}
	return r.fields[i].value, true
}

// Text returns the value under key formatted as a string, or "".
func (r *WorkflowResult) Text(key string) string {
	v, ok := r.Get(key)
	if !ok || v == nil {
		return ""
	}
	if s, ok := v.(fmt.Stringer); ok {
		return s.String()
	}
	return fmt.Sprint(v)
}

// Has reports whether key was set.
func (r *WorkflowResult) Has(key string) bool {
	_, ok := r.index[key]
	return ok
}

// Keys returns field names in insertion order.
func (r *WorkflowResult) Keys() []string {
	keys := make([]string, len(r.fields))
	for i, f := range r.fields {
		keys[i] = f.key
	}
	return keys
}

// Warn appends a non-fatal warning.
func (r *WorkflowResult) Warn(format string, args ...any) {
	r.Warnings = append(r.Warnings, fmt.Sprintf(format, args...))
}

// Status returns the terminal status, or "" while the workflow is running.
func (r *WorkflowResult) Status() string {
	return r.Text(FieldStatus)
}

// MarshalJSON writes fields in insertion order followed by warnings.
func (r *WorkflowResult) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, f := range r.fields {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, _ := json.Marshal(f.key)
		val, err := json.Marshal(f.value)
		if err != nil {
			return nil, fmt.Errorf("marshal result field %s: %w", f.key, err)
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(val)
	}
	if len(r.Warnings) > 0 {
		if len(r.fields) > 0 {
			buf.WriteByte(',')
		}
		warnings, _ := json.Marshal(r.Warnings)
		buf.WriteString(`"warnings":`)
		buf.Write(warnings)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// Outcome is the terminal result of one orchestration attempt.
type Outcome struct {
	TransactionID string
	Type          TransactionType
	Success       bool
	Result        *WorkflowResult
	Message       string
	Err           *apperr.Error
}

// ErrorKind returns the error kind name, or "" on success.
func (o Outcome) ErrorKind() string {
	if o.Err == nil {
		return ""
	}
	return o.Err.Kind.String()
}
