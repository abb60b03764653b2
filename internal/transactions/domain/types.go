// Package domain holds the transaction request variants, PAS quote handles and
// the result record shared by the orchestrator, the PAS adapters and the
// HTTP/queue edges.
package domain

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"
)

// TransactionType is the closed set of supported transaction kinds.
type TransactionType string

const (
	TypeBind               TransactionType = "bind"
	TypeUnbind             TransactionType = "unbind"
	TypeIssue              TransactionType = "issue"
	TypeMidtermEndorsement TransactionType = "midterm_endorsement"
	TypeCancellation       TransactionType = "cancellation"
	TypeReinstatement      TransactionType = "reinstatement"
)

// AllTypes lists every transaction type in dispatch order.
var AllTypes = []TransactionType{
	TypeBind, TypeUnbind, TypeIssue, TypeMidtermEndorsement, TypeCancellation, TypeReinstatement,
}

// ParseTransactionType normalizes and validates a raw type string.
func ParseTransactionType(raw string) (TransactionType, error) {
	candidate := TransactionType(strings.ToLower(strings.TrimSpace(raw)))
	for _, t := range AllTypes {
		if t == candidate {
			return t, nil
		}
	}
	return "", fmt.Errorf("unsupported transaction type %q", raw)
}

var (
	// ErrNotFound is wrapped by every remote lookup that matched nothing.
	ErrNotFound = errors.New("not found")
	// ErrQuoteNotFound is returned by quote lookups that match nothing.
	ErrQuoteNotFound = fmt.Errorf("quote %w", ErrNotFound)
)

// LookupKeys are the identifying fields used to find remote quote records.
type LookupKeys struct {
	OpportunityID *int64
	OptionID      *int64
	PolicyNumber  string
}

// Any reports whether at least one key is present.
func (k LookupKeys) Any() bool {
	return k.OpportunityID != nil || k.OptionID != nil || strings.TrimSpace(k.PolicyNumber) != ""
}

// Envelope carries the fields common to every transaction type.
type Envelope struct {
	TransactionID   string
	Type            TransactionType
	Keys            LookupKeys
	TransactionDate string
	Comment         string
	ReceivedAt      time.Time
	Raw             json.RawMessage
}

// Request is implemented by exactly the six request variants in this package.
type Request interface {
	Meta() *Envelope
	Validate() error
	sealed()
}

func (e *Envelope) Meta() *Envelope { return e }
func (*Envelope) sealed() {}

// Address is a postal address as the PAS stores it.
type Address struct {
	Line1 string
	Line2 string
	City  string
	State string
	Zip   string
}

// Insured is the named insured of a new business submission.
type Insured struct {
	Name         string
	DBA          string
	Address      Address
	Phone        string
	Email        string
	BusinessType string
}

// BindRequest binds new business, or rebinds an existing unbound quote.
type BindRequest struct {
	Envelope
	Insured         Insured
	ProducerName    string
	ProducerCode    string
	UnderwriterName string
	LineOfBusiness  string
	State           string
	EffectiveDate   string
	ExpirationDate  string
	GrossPremium    *Money
	PolicyFee       Money
}

// UnbindRequest reverses a bind.
type UnbindRequest struct {
	Envelope
	Reason string
}

// IssueRequest issues a bound policy.
type IssueRequest struct {
	Envelope
}

// EndorsementRequest applies a flat midterm premium change.
type EndorsementRequest struct {
	Envelope
	EffectiveFrom string
	Premium       *Money
	Description   string
}

// CancellationRequest cancels a bound policy with an optional refund.
type CancellationRequest struct {
	Envelope
	EffectiveDate string
	ReasonCode    int
	RefundAmount  Money
}

// ReinstatementRequest reinstates a cancelled policy.
type ReinstatementRequest struct {
	Envelope
	EffectiveDate string
	Premium       Money
}

// ProducerRef identifies a producer contact at a producer location.
type ProducerRef struct {
	ContactGUID  string
	LocationGUID string
}

// SubmissionInput creates a new PAS submission.
type SubmissionInput struct {
	InsuredGUID     string
	Producer        ProducerRef
	UnderwriterGUID string
	SubmissionDate  time.Time
}

// QuoteInput creates a new PAS quote under a submission.
type QuoteInput struct {
	SubmissionGUID  string
	Producer        ProducerRef
	UnderwriterGUID string
	LineOfBusiness  string
	State           string
	EffectiveDate   time.Time
	ExpirationDate  time.Time
}

// RateInput prices one quote option.
type RateInput struct {
	QuoteGUID       string
	QuoteOptionGUID string
	Premium         Money
	PolicyFee       Money
}

// EndorsementInput creates an endorsement quote on top of the latest bound quote.
type EndorsementInput struct {
	QuoteGUID     string
	OpportunityID int64
	PremiumDelta  Money
	EffectiveDate time.Time
	Comment       string
}

// CancellationInput creates a cancellation quote.
type CancellationInput struct {
	QuoteGUID     string
	PolicyNumber  string
	EffectiveDate time.Time
	ReasonCode    int
	RefundAmount  Money
	Comment       string
}

// ReinstatementInput creates a reinstatement quote.
type ReinstatementInput struct {
	QuoteGUID     string
	OpportunityID int64
	Premium       Money
	EffectiveDate time.Time
	Comment       string
}

// InvoiceLine is one charge on an invoice.
type InvoiceLine struct {
	Description string `json:"description"`
	Amount      Money  `json:"amount"`
}

// Invoice is the typed invoice data returned by the PAS.
type Invoice struct {
	InvoiceNumber string        `json:"invoiceNumber"`
	InvoiceDate   string        `json:"invoiceDate,omitempty"`
	DueDate       string        `json:"dueDate,omitempty"`
	Total         Money         `json:"total"`
	Lines         []InvoiceLine `json:"lines,omitempty"`
}

// PolicyDocument is a generated policy document reference.
type PolicyDocument struct {
	DocumentGUID string `json:"documentGuid"`
	FileName     string `json:"fileName,omitempty"`
}
