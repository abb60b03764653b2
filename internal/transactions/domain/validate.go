package domain

import (
	"strings"

	"pasbridge/platform/apperr"
)

type problems []string

func (p *problems) require(ok bool, msg string) {
	if !ok {
		*p = append(*p, msg)
	}
}

func (p problems) err(t TransactionType) error {
	if len(p) == 0 {
		return nil
	}
	return apperr.Validation("invalid "+string(t)+" request: "+strings.Join(p, "; ")).WithDetails([]string(p))
}

func (e *Envelope) check(p *problems) {
	p.require(strings.TrimSpace(e.TransactionID) != "", "transactionId is required")
	if e.Keys.OpportunityID != nil {
		p.require(*e.Keys.OpportunityID > 0, "opportunityId must be positive")
	}
	if e.Keys.OptionID != nil {
		p.require(*e.Keys.OptionID > 0, "optionId must be positive")
	}
}

func (e *Envelope) checkKeys(p *problems) {
	p.require(e.Keys.Any(), "one of opportunityId, optionId or policyNumber is required")
}

// Validate checks that a new business submission can be built from scratch.
func (r *BindRequest) Validate() error {
	var p problems
	r.check(&p)
	p.require(strings.TrimSpace(r.Insured.Name) != "", "insured name is required")
	p.require(strings.TrimSpace(r.ProducerName) != "" || strings.TrimSpace(r.ProducerCode) != "", "producer is required")
	p.require(strings.TrimSpace(r.LineOfBusiness) != "", "line of business is required")
	p.require(len(strings.TrimSpace(r.State)) == 2, "state must be a two-letter code")
	_, ok := ParseDate(r.EffectiveDate)
	p.require(ok, "effective date is required")
	if r.ExpirationDate != "" {
		_, ok := ParseDate(r.ExpirationDate)
		p.require(ok, "expiration date is not a valid date")
	}
	p.require(r.GrossPremium != nil, "premium is required")
	if r.GrossPremium != nil {
		p.require(*r.GrossPremium >= 0, "premium cannot be negative")
	}
	p.require(r.PolicyFee >= 0, "policy fee cannot be negative")
	return p.err(TypeBind)
}

func (r *UnbindRequest) Validate() error {
	var p problems
	r.check(&p)
	r.checkKeys(&p)
	return p.err(TypeUnbind)
}

func (r *IssueRequest) Validate() error {
	var p problems
	r.check(&p)
	r.checkKeys(&p)
	return p.err(TypeIssue)
}

func (r *EndorsementRequest) Validate() error {
	var p problems
	r.check(&p)
	r.checkKeys(&p)
	p.require(r.Premium != nil, "midterm_endt_premium is required")
	return p.err(TypeMidtermEndorsement)
}

func (r *CancellationRequest) Validate() error {
	var p problems
	r.check(&p)
	r.checkKeys(&p)
	p.require(r.RefundAmount >= 0, "refund amount cannot be negative")
	p.require(r.ReasonCode >= 0, "reason code cannot be negative")
	return p.err(TypeCancellation)
}

// Validate requires a lineage key; a bare policy number is not enough.
func (r *ReinstatementRequest) Validate() error {
	var p problems
	r.check(&p)
	p.require(r.Keys.OpportunityID != nil || r.Keys.OptionID != nil, "reinstatement requires opportunityId or optionId")
	return p.err(TypeReinstatement)
}
