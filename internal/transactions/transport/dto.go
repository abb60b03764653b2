// Package transport holds the wire format of inbound transactions and the
// HTTP response bodies.
package transport

import (
	"encoding/json"
	"time"

	"pasbridge/internal/transactions/domain"
	"pasbridge/internal/transactions/repository"
)

// TransactionRequest is the inbound payload. The envelope is camelCase; the
// type-specific section under "data" keeps the field names of the upstream
// policy source.
type TransactionRequest struct {
	TransactionID   string          `json:"transactionId" validate:"required,max=100"`
	TransactionType string          `json:"transactionType" validate:"required"`
	OpportunityID   *int64          `json:"opportunityId" validate:"omitempty,gt=0"`
	OptionID        *int64          `json:"optionId" validate:"omitempty,gt=0"`
	PolicyNumber    string          `json:"policyNumber" validate:"omitempty,max=50,policynumber"`
	TransactionDate string          `json:"transactionDate" validate:"max=40"`
	Comment         string          `json:"comment"`
	Data            TransactionData `json:"data"`
}

// TransactionData carries every type-specific field. Fields that do not apply
// to the transaction type are ignored.
type TransactionData struct {
	// bind
	InsuredName     string        `json:"insured_name" validate:"max=200"`
	InsuredDBA      string        `json:"insured_dba" validate:"max=200"`
	BusinessType    string        `json:"business_type" validate:"max=50"`
	AddressLine1    string        `json:"address_line1" validate:"max=200"`
	AddressLine2    string        `json:"address_line2" validate:"max=200"`
	City            string        `json:"city" validate:"max=100"`
	AddressState    string        `json:"address_state" validate:"omitempty,statecode"`
	Zip             string        `json:"zip" validate:"max=10"`
	Phone           string        `json:"phone" validate:"max=40"`
	Email           string        `json:"email" validate:"omitempty,email"`
	ProducerName    string        `json:"producer_name" validate:"max=200"`
	ProducerCode    string        `json:"producer_code" validate:"max=50"`
	UnderwriterName string        `json:"underwriter_name" validate:"max=200"`
	LineOfBusiness  string        `json:"line_of_business" validate:"max=100"`
	State           string        `json:"state" validate:"omitempty,statecode"`
	EffectiveDate   string        `json:"effective_date"`
	ExpirationDate  string        `json:"expiration_date"`
	GrossPremium    *domain.Money `json:"gross_premium"`
	PolicyFee       *domain.Money `json:"policy_fee"`

	// unbind
	UnbindReason string `json:"unbind_reason" validate:"max=500"`

	// midterm_endorsement
	MidtermEndtPremium       *domain.Money `json:"midterm_endt_premium"`
	MidtermEndtEffectiveFrom string        `json:"midterm_endt_effective_from"`
	MidtermEndtDescription   string        `json:"midterm_endt_description" validate:"max=2000"`

	// cancellation
	CancellationDate       string        `json:"cancellation_date"`
	CancellationReasonCode int           `json:"cancellation_reason_code" validate:"min=0"`
	RefundAmount           *domain.Money `json:"refund_amount"`

	// reinstatement
	ReinstatementDate    string        `json:"reinstatement_date"`
	ReinstatementPremium *domain.Money `json:"reinstatement_premium"`
}

// TransactionResponse is returned by the synchronous endpoint.
type TransactionResponse struct {
	TransactionID   string                 `json:"transactionId"`
	TransactionType string                 `json:"transactionType"`
	Success         bool                   `json:"success"`
	Message         string                 `json:"message"`
	Kind            string                 `json:"kind,omitempty"`
	Details         any                    `json:"details,omitempty"`
	Result          *domain.WorkflowResult `json:"result,omitempty"`
}

// AcceptedResponse is returned when a transaction was queued.
type AcceptedResponse struct {
	TransactionID string `json:"transactionId"`
	TaskID        string `json:"taskId"`
	Status        string `json:"status"`
}

// FromOutcome builds the response body for an outcome.
func FromOutcome(o domain.Outcome) TransactionResponse {
	resp := TransactionResponse{
		TransactionID:   o.TransactionID,
		TransactionType: string(o.Type),
		Success:         o.Success,
		Message:         o.Message,
		Result:          o.Result,
	}
	if o.Err != nil {
		resp.Kind = o.Err.Kind.String()
		resp.Details = o.Err.Details
	}
	return resp
}

// AuditRecordResponse is one recorded processing attempt.
type AuditRecordResponse struct {
	ID              string          `json:"id"`
	TransactionID   string          `json:"transactionId"`
	TransactionType string          `json:"transactionType"`
	OpportunityID   *int64          `json:"opportunityId,omitempty"`
	OptionID        *int64          `json:"optionId,omitempty"`
	PolicyNumber    *string         `json:"policyNumber,omitempty"`
	ReceivedAt      time.Time       `json:"receivedAt"`
	CompletedAt     *time.Time      `json:"completedAt,omitempty"`
	Success         *bool           `json:"success,omitempty"`
	ErrorKind       *string         `json:"errorKind,omitempty"`
	Message         *string         `json:"message,omitempty"`
	ArchiveKey      *string         `json:"archiveKey,omitempty"`
	Payload         json.RawMessage `json:"payload"`
	Result          json.RawMessage `json:"result,omitempty"`
}

// FromAuditRecord maps an audit row to its response body.
func FromAuditRecord(rec repository.AuditRecord) AuditRecordResponse {
	return AuditRecordResponse{
		ID:              rec.ID.String(),
		TransactionID:   rec.TransactionID,
		TransactionType: rec.TransactionType,
		OpportunityID:   rec.OpportunityID,
		OptionID:        rec.OptionID,
		PolicyNumber:    rec.PolicyNumber,
		ReceivedAt:      rec.ReceivedAt,
		CompletedAt:     rec.CompletedAt,
		Success:         rec.Success,
		ErrorKind:       rec.ErrorKind,
		Message:         rec.Message,
		ArchiveKey:      rec.ArchiveKey,
		Payload:         rec.RawPayload,
		Result:          rec.Result,
	}
}
