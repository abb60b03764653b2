package pas

import (
	"context"
	"errors"

	"pasbridge/internal/transactions/domain"
)

// QuoteService implements ports.QuoteService.
type QuoteService struct {
	rpc invoker
}

type submissionXML struct {
	Insured          string `xml:"Insured"`
	ProducerContact  string `xml:"ProducerContact"`
	ProducerLocation string `xml:"ProducerLocation"`
	Underwriter      string `xml:"Underwriter,omitempty"`
	SubmissionDate   string `xml:"SubmissionDate"`
}

type addSubmissionRequest struct {
	Submission submissionXML `xml:"submission"`
}

type addSubmissionResponse struct {
	Result string `xml:"AddSubmissionResult"`
}

type quoteXML struct {
	Submission       string `xml:"Submission"`
	ProducerContact  string `xml:"ProducerContact"`
	ProducerLocation string `xml:"ProducerLocation"`
	Underwriter      string `xml:"Underwriter,omitempty"`
	LineOfBusiness   string `xml:"LineOfBusiness"`
	StateID          string `xml:"StateID"`
	Effective        string `xml:"Effective"`
	Expiration       string `xml:"Expiration"`
}

type addQuoteRequest struct {
	Quote quoteXML `xml:"quote"`
}

type addQuoteResponse struct {
	Result string `xml:"AddQuoteResult"`
}

type quoteGUIDRequest struct {
	QuoteGUID string `xml:"quoteGuid"`
}

type addQuoteOptionResponse struct {
	Result string `xml:"AddQuoteOptionResult"`
}

type rateOptionRequest struct {
	QuoteGUID       string `xml:"quoteGuid"`
	QuoteOptionGUID string `xml:"quoteOptionGuid"`
	Premium         string `xml:"premium"`
	PolicyFee       string `xml:"policyFee"`
}

type externalQuoteIDRequest struct {
	QuoteGUID        string `xml:"quoteGuid"`
	ExternalQuoteID  string `xml:"externalQuoteId"`
	ExternalSystemID string `xml:"externalSystemId"`
}

func (s *QuoteService) CreateSubmission(ctx context.Context, in domain.SubmissionInput) (string, error) {
	var resp addSubmissionResponse
	err := s.rpc.Invoke(ctx, quoteService, "AddSubmission", addSubmissionRequest{Submission: submissionXML{
		Insured:          in.InsuredGUID,
		ProducerContact:  in.Producer.ContactGUID,
		ProducerLocation: in.Producer.LocationGUID,
		Underwriter:      in.UnderwriterGUID,
		SubmissionDate:   domain.FormatDate(in.SubmissionDate),
	}}, &resp)
	if err != nil {
		return "", err
	}
	return requireGUID(resp.Result, "submission")
}

func (s *QuoteService) CreateQuote(ctx context.Context, in domain.QuoteInput) (string, error) {
	var resp addQuoteResponse
	err := s.rpc.Invoke(ctx, quoteService, "AddQuote", addQuoteRequest{Quote: quoteXML{
		Submission:       in.SubmissionGUID,
		ProducerContact:  in.Producer.ContactGUID,
		ProducerLocation: in.Producer.LocationGUID,
		Underwriter:      in.UnderwriterGUID,
		LineOfBusiness:   in.LineOfBusiness,
		StateID:          in.State,
		Effective:        domain.FormatDate(in.EffectiveDate),
		Expiration:       domain.FormatDate(in.ExpirationDate),
	}}, &resp)
	if err != nil {
		return "", err
	}
	return requireGUID(resp.Result, "quote")
}

func (s *QuoteService) AddQuoteOption(ctx context.Context, quoteGUID string) (string, error) {
	var resp addQuoteOptionResponse
	if err := s.rpc.Invoke(ctx, quoteService, "AddQuoteOption", quoteGUIDRequest{QuoteGUID: quoteGUID}, &resp); err != nil {
		return "", err
	}
	return requireGUID(resp.Result, "quote option")
}

func (s *QuoteService) Rate(ctx context.Context, in domain.RateInput) error {
	return s.rpc.Invoke(ctx, quoteService, "RateQuoteOption", rateOptionRequest{
		QuoteGUID:       in.QuoteGUID,
		QuoteOptionGUID: in.QuoteOptionGUID,
		Premium:         in.Premium.String(),
		PolicyFee:       in.PolicyFee.String(),
	}, nil)
}

func (s *QuoteService) UpdateExternalQuoteID(ctx context.Context, quoteGUID, externalID string) error {
	return s.rpc.Invoke(ctx, quoteService, "UpdateExternalQuoteId", externalQuoteIDRequest{
		QuoteGUID:        quoteGUID,
		ExternalQuoteID:  externalID,
		ExternalSystemID: externalSystemID,
	}, nil)
}

func requireGUID(raw, what string) (string, error) {
	guid := normalizeGUID(raw)
	if guid == "" {
		return "", errors.New("PAS returned no " + what + " guid")
	}
	return guid, nil
}
