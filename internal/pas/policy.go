package pas

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"pasbridge/internal/transactions/domain"
)

// PolicyService implements ports.PolicyService.
type PolicyService struct {
	rpc invoker
}

type bindRequest struct {
	QuoteOptionGUID string `xml:"quoteOptionGuid"`
}

type bindResponse struct {
	Result string `xml:"BindQuoteOptionResult"`
}

type issueRequest struct {
	PolicyNumber string `xml:"policyNumber"`
}

type issueResponse struct {
	Result string `xml:"IssuePolicyResult"`
}

type endorsementRequest struct {
	QuoteGUID       string `xml:"quoteGuid"`
	EffectiveDate   string `xml:"endorsementEffectiveDate"`
	PremiumChange   string `xml:"premiumChange"`
	Comment         string `xml:"comment"`
	ExternalQuoteID string `xml:"externalQuoteId,omitempty"`
}

type endorsementResponse struct {
	Result string `xml:"CreateEndorsementQuoteResult"`
}

type cancellationRequest struct {
	QuoteGUID        string `xml:"quoteGuid"`
	PolicyNumber     string `xml:"policyNumber"`
	CancellationDate string `xml:"cancellationDate"`
	ReasonCode       int    `xml:"cancellationReasonId"`
	RefundAmount     string `xml:"refundAmount"`
	Comment          string `xml:"comment"`
}

type cancellationResponse struct {
	Result string `xml:"CreateCancellationQuoteResult"`
}

type reinstatementRequest struct {
	QuoteGUID       string `xml:"quoteGuid"`
	EffectiveDate   string `xml:"reinstatementEffectiveDate"`
	Premium         string `xml:"premium"`
	Comment         string `xml:"comment"`
	ExternalQuoteID string `xml:"externalQuoteId,omitempty"`
}

type reinstatementResponse struct {
	Result string `xml:"CreateReinstatementQuoteResult"`
}

func (s *PolicyService) Bind(ctx context.Context, quoteOptionGUID string) (string, error) {
	var resp bindResponse
	if err := s.rpc.Invoke(ctx, quoteService, "BindQuoteOption", bindRequest{QuoteOptionGUID: quoteOptionGUID}, &resp); err != nil {
		return "", err
	}
	policyNumber := strings.TrimSpace(resp.Result)
	if policyNumber == "" {
		return "", errors.New("PAS bound the option but returned no policy number")
	}
	return policyNumber, nil
}

func (s *PolicyService) Issue(ctx context.Context, policyNumber string) (time.Time, error) {
	var resp issueResponse
	if err := s.rpc.Invoke(ctx, quoteService, "IssuePolicy", issueRequest{PolicyNumber: policyNumber}, &resp); err != nil {
		return time.Time{}, err
	}
	issued, ok := domain.ParseDate(resp.Result)
	if !ok {
		return time.Time{}, fmt.Errorf("PAS returned unparseable issue date %q", resp.Result)
	}
	return issued, nil
}

func (s *PolicyService) Unbind(ctx context.Context, quoteGUID string) error {
	return s.rpc.Invoke(ctx, quoteService, "UnbindQuote", quoteGUIDRequest{QuoteGUID: quoteGUID}, nil)
}

func (s *PolicyService) CreateEndorsement(ctx context.Context, in domain.EndorsementInput) (string, error) {
	var resp endorsementResponse
	err := s.rpc.Invoke(ctx, quoteService, "CreateEndorsementQuote", endorsementRequest{
		QuoteGUID:       in.QuoteGUID,
		EffectiveDate:   domain.FormatDate(in.EffectiveDate),
		PremiumChange:   in.PremiumDelta.String(),
		Comment:         in.Comment,
		ExternalQuoteID: externalID(in.OpportunityID),
	}, &resp)
	if err != nil {
		return "", err
	}
	return requireGUID(resp.Result, "endorsement quote")
}

func (s *PolicyService) CreateCancellation(ctx context.Context, in domain.CancellationInput) (string, error) {
	var resp cancellationResponse
	err := s.rpc.Invoke(ctx, quoteService, "CreateCancellationQuote", cancellationRequest{
		QuoteGUID:        in.QuoteGUID,
		PolicyNumber:     in.PolicyNumber,
		CancellationDate: domain.FormatDate(in.EffectiveDate),
		ReasonCode:       in.ReasonCode,
		RefundAmount:     in.RefundAmount.String(),
		Comment:          in.Comment,
	}, &resp)
	if err != nil {
		return "", err
	}
	return requireGUID(resp.Result, "cancellation quote")
}

func (s *PolicyService) CreateReinstatement(ctx context.Context, in domain.ReinstatementInput) (string, error) {
	var resp reinstatementResponse
	err := s.rpc.Invoke(ctx, quoteService, "CreateReinstatementQuote", reinstatementRequest{
		QuoteGUID:       in.QuoteGUID,
		EffectiveDate:   domain.FormatDate(in.EffectiveDate),
		Premium:         in.Premium.String(),
		Comment:         in.Comment,
		ExternalQuoteID: externalID(in.OpportunityID),
	}, &resp)
	if err != nil {
		return "", err
	}
	return requireGUID(resp.Result, "reinstatement quote")
}

func externalID(opportunityID int64) string {
	if opportunityID == 0 {
		return ""
	}
	return strconv.FormatInt(opportunityID, 10)
}
