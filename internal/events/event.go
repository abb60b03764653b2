package events

import (
	"encoding/json"
	"time"

	"pasbridge/platform/events"
)

// Re-export platform types for convenience
type (
	Event       = events.Event
	Bus         = events.Bus
	Handler     = events.Handler
	HandlerFunc = events.HandlerFunc
	BaseEvent   = events.BaseEvent
)

// Re-export platform functions
var (
	NewBaseEvent   = events.NewBaseEvent
	NewBaseEventAt = events.NewBaseEventAt
)

// TransactionProcessedName is the event name of TransactionProcessed.
const TransactionProcessedName = "transactions.processed"

// TransactionProcessed is published once per orchestration attempt.
type TransactionProcessed struct {
	BaseEvent
	TransactionID   string          `json:"transactionId"`
	TransactionType string          `json:"transactionType"`
	Success         bool            `json:"success"`
	ErrorKind       string          `json:"errorKind,omitempty"`
	Message         string          `json:"message"`
	Duration        time.Duration   `json:"duration"`
	OpportunityID   *int64          `json:"opportunityId,omitempty"`
	PolicyNumber    string          `json:"policyNumber,omitempty"`
	Result          json.RawMessage `json:"result,omitempty"`
	Warnings        []string        `json:"warnings,omitempty"`
	// PartialState is set when a remote mutation failed after earlier steps
	// had already created records in the PAS.
	PartialState bool `json:"partialState"`
}

func (e TransactionProcessed) EventName() string { return TransactionProcessedName }
