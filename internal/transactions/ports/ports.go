// Package ports defines the collaborators the transaction orchestrator depends
// on. PAS-backed implementations live in internal/pas; audit and event
// implementations live in the repository and adapters packages.
package ports

import (
	"context"
	"encoding/json"
	"time"

	"pasbridge/internal/transactions/domain"
	"pasbridge/platform/events"
)

// Authenticator establishes (or reuses) a PAS session.
type Authenticator interface {
	Authenticate(ctx context.Context) error
}

// InsuredService resolves or creates the named insured.
type InsuredService interface {
	// FindInsured reports found=false when no existing insured matches.
	FindInsured(ctx context.Context, insured domain.Insured) (guid string, found bool, err error)
	CreateInsured(ctx context.Context, insured domain.Insured) (string, error)
}

// ProducerService resolves producers and underwriters by name.
type ProducerService interface {
	FindProducer(ctx context.Context, name, code string) (domain.ProducerRef, error)
	FindUnderwriter(ctx context.Context, name string) (string, error)
}

// QuoteService creates and prices quotes.
type QuoteService interface {
	CreateSubmission(ctx context.Context, in domain.SubmissionInput) (string, error)
	CreateQuote(ctx context.Context, in domain.QuoteInput) (string, error)
	AddQuoteOption(ctx context.Context, quoteGUID string) (string, error)
	Rate(ctx context.Context, in domain.RateInput) error
	UpdateExternalQuoteID(ctx context.Context, quoteGUID, externalID string) error
}

// PolicyService drives the policy lifecycle.
type PolicyService interface {
	Bind(ctx context.Context, quoteOptionGUID string) (policyNumber string, err error)
	Issue(ctx context.Context, policyNumber string) (issueDate time.Time, err error)
	Unbind(ctx context.Context, quoteGUID string) error
	CreateEndorsement(ctx context.Context, in domain.EndorsementInput) (string, error)
	CreateCancellation(ctx context.Context, in domain.CancellationInput) (string, error)
	CreateReinstatement(ctx context.Context, in domain.ReinstatementInput) (string, error)
}

// InvoiceService reads invoice data for a bound quote.
type InvoiceService interface {
	// GetInvoice reports found=false while the invoice is not yet visible.
	GetInvoice(ctx context.Context, quoteGUID string) (inv domain.Invoice, found bool, err error)
}

// DocumentService renders policy documents.
type DocumentService interface {
	GeneratePolicyDocument(ctx context.Context, policyNumber string) (domain.PolicyDocument, error)
}

// PayloadRegistrar attaches the raw upstream payload to a quote in the PAS.
type PayloadRegistrar interface {
	RegisterTransactionPayload(ctx context.Context, raw json.RawMessage, quoteGUID, quoteOptionGUID string) error
}

// QuoteLookup answers read-only questions about remote quote records.
// Lookups that match nothing return an error wrapping domain.ErrQuoteNotFound.
type QuoteLookup interface {
	FindByOpportunityID(ctx context.Context, opportunityID int64) (domain.QuoteReference, error)
	FindByOptionID(ctx context.Context, optionID int64) (domain.QuoteReference, error)
	FindByPolicyNumber(ctx context.Context, policyNumber string) (domain.QuoteReference, error)
	FindLatestInChain(ctx context.Context, opportunityID int64) (domain.QuoteReference, error)
	CumulativePremium(ctx context.Context, controlNumber int64) (domain.Money, error)
	IsBound(ctx context.Context, quoteGUID string) (bool, error)
}

// AuditStore persists inbound payloads and their outcomes. Both calls are
// best effort from the orchestrator's point of view.
type AuditStore interface {
	SavePayload(ctx context.Context, req domain.Request) error
	RecordOutcome(ctx context.Context, req domain.Request, outcome domain.Outcome) error
}

// EventPublisher publishes domain events.
type EventPublisher interface {
	Publish(ctx context.Context, event events.Event)
}

// Clock returns the current time.
type Clock func() time.Time
