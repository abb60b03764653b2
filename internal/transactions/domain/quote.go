package domain

import (
	"errors"
	"math"
	"strings"
)

// ErrPremiumOverflow means a premium total does not fit in Money.
var ErrPremiumOverflow = errors.New("premium total out of range")

// QuoteKind is the PAS transaction type a quote version was created for.
type QuoteKind string

const (
	QuoteKindNewBusiness   QuoteKind = "new_business"
	QuoteKindEndorsement   QuoteKind = "endorsement"
	QuoteKindCancellation  QuoteKind = "cancellation"
	QuoteKindReinstatement QuoteKind = "reinstatement"
)

// ParseQuoteKind maps a PAS transaction type label onto a QuoteKind.
// Unrecognised labels come back lower-cased so callers can log them.
func ParseQuoteKind(s string) QuoteKind {
	norm := strings.ToLower(strings.TrimSpace(s))
	norm = strings.NewReplacer(" ", "_", "-", "_").Replace(norm)
	switch norm {
	case "new_business", "newbusiness", "new":
		return QuoteKindNewBusiness
	case "endorsement", "endt":
		return QuoteKindEndorsement
	case "cancellation", "cancel":
		return QuoteKindCancellation
	case "reinstatement", "reinstate":
		return QuoteKindReinstatement
	}
	return QuoteKind(norm)
}

// QuoteReference is a read-only handle on a PAS quote record.
// It lives for one transaction only.
type QuoteReference struct {
	QuoteGUID       string
	QuoteOptionGUID string
	ControlNumber   int64
	ChainLevel      int
	IsBound         bool
	Kind            QuoteKind
	PolicyNumber    string
	OpportunityID   *int64
}

// HasOption reports whether the quote already has an option to bind.
func (q QuoteReference) HasOption() bool {
	return q.QuoteOptionGUID != ""
}

// PremiumLedger is the premium arithmetic for one chain transaction.
type PremiumLedger struct {
	Existing Money
	Delta    Money
	NewTotal Money
}

// NewPremiumLedger computes NewTotal = Existing + Delta. It fails with
// ErrPremiumOverflow when the sum does not fit in int64 cents.
func NewPremiumLedger(existing, delta Money) (PremiumLedger, error) {
	if (delta > 0 && existing > math.MaxInt64-delta) || (delta < 0 && existing < math.MinInt64-delta) {
		return PremiumLedger{}, ErrPremiumOverflow
	}
	return PremiumLedger{
		Existing: existing,
		Delta:    delta,
		NewTotal: existing + delta,
	}, nil
}
