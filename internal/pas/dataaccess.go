package pas

import (
	"context"
	"encoding/json"
	"encoding/xml"
	"fmt"
	"strconv"
	"strings"

	"pasbridge/internal/transactions/domain"
)

// Stored procedures exposed through the DataAccess service.
const (
	procQuoteByOpportunity   = "Bridge_QuoteByOpportunityID"
	procQuoteByOption        = "Bridge_QuoteByOptionID"
	procQuoteByPolicyNumber  = "Bridge_QuoteByPolicyNumber"
	procLatestQuoteInChain   = "Bridge_LatestQuoteInChain"
	procCumulativePremium    = "Bridge_CumulativePremium"
	procQuoteBoundStatus     = "Bridge_QuoteBoundStatus"
	procRegisterTransPayload = "Bridge_RegisterTransactionPayload"
)

// DataAccess implements ports.QuoteLookup and ports.PayloadRegistrar on top
// of the PAS stored procedure gateway.
type DataAccess struct {
	rpc invoker
}

// procedureRequest passes parameters as alternating name/value strings.
type procedureRequest struct {
	ProcedureName string   `xml:"procedureName"`
	Parameters    []string `xml:"parameters>string"`
}

type dataSetResponse struct {
	Result string `xml:"ExecuteDataSetResult"`
}

type quoteRow struct {
	QuoteGUID       string `xml:"QuoteGuid"`
	QuoteOptionGUID string `xml:"QuoteOptionGuid"`
	ControlNo       int64  `xml:"ControlNo"`
	ChainLevel      int    `xml:"ChainLevel"`
	Bound           bool   `xml:"Bound"`
	TransactionType string `xml:"TransactionType"`
	PolicyNumber    string `xml:"PolicyNumber"`
	OpportunityID   string `xml:"OpportunityID"`
}

type premiumRow struct {
	TotalPremium string `xml:"TotalPremium"`
}

type boundRow struct {
	Bound bool `xml:"Bound"`
}

// dataSet runs procedure and decodes every <Table> row into T.
func dataSet[T any](ctx context.Context, rpc invoker, procedure string, parameters []string) ([]T, error) {
	var resp dataSetResponse
	if err := rpc.Invoke(ctx, dataAccessService, "ExecuteDataSet", procedureRequest{
		ProcedureName: procedure,
		Parameters:    parameters,
	}, &resp); err != nil {
		return nil, err
	}
	if strings.TrimSpace(resp.Result) == "" {
		return nil, nil
	}
	var set struct {
		Rows []T `xml:"Table"`
	}
	if err := xml.Unmarshal([]byte(resp.Result), &set); err != nil {
		return nil, fmt.Errorf("decode %s result: %w", procedure, err)
	}
	return set.Rows, nil
}

func (d *DataAccess) quote(ctx context.Context, procedure, key string, parameters []string) (domain.QuoteReference, error) {
	rows, err := dataSet[quoteRow](ctx, d.rpc, procedure, parameters)
	if err != nil {
		return domain.QuoteReference{}, err
	}
	for _, row := range rows {
		if ref, ok := row.toReference(); ok {
			return ref, nil
		}
	}
	return domain.QuoteReference{}, fmt.Errorf("%s: %w", key, domain.ErrQuoteNotFound)
}

func (r quoteRow) toReference() (domain.QuoteReference, bool) {
	guid := normalizeGUID(r.QuoteGUID)
	if guid == "" {
		return domain.QuoteReference{}, false
	}
	ref := domain.QuoteReference{
		QuoteGUID:       guid,
		QuoteOptionGUID: normalizeGUID(r.QuoteOptionGUID),
		ControlNumber:   r.ControlNo,
		ChainLevel:      r.ChainLevel,
		IsBound:         r.Bound,
		Kind:            domain.ParseQuoteKind(r.TransactionType),
		PolicyNumber:    strings.TrimSpace(r.PolicyNumber),
	}
	if id, err := strconv.ParseInt(strings.TrimSpace(r.OpportunityID), 10, 64); err == nil {
		ref.OpportunityID = &id
	}
	return ref, true
}

func (d *DataAccess) FindByOpportunityID(ctx context.Context, opportunityID int64) (domain.QuoteReference, error) {
	id := strconv.FormatInt(opportunityID, 10)
	return d.quote(ctx, procQuoteByOpportunity, "opportunity id "+id, []string{"@OpportunityID", id})
}

func (d *DataAccess) FindByOptionID(ctx context.Context, optionID int64) (domain.QuoteReference, error) {
	id := strconv.FormatInt(optionID, 10)
	return d.quote(ctx, procQuoteByOption, "option id "+id, []string{"@OptionID", id})
}

func (d *DataAccess) FindByPolicyNumber(ctx context.Context, policyNumber string) (domain.QuoteReference, error) {
	policyNumber = strings.TrimSpace(policyNumber)
	return d.quote(ctx, procQuoteByPolicyNumber, "policy number "+policyNumber, []string{"@PolicyNumber", policyNumber})
}

// FindLatestInChain returns the highest chain level quote for the opportunity.
func (d *DataAccess) FindLatestInChain(ctx context.Context, opportunityID int64) (domain.QuoteReference, error) {
	id := strconv.FormatInt(opportunityID, 10)
	return d.quote(ctx, procLatestQuoteInChain, "latest quote for opportunity id "+id, []string{"@OpportunityID", id})
}

// CumulativePremium sums the written premium of every bound quote in a chain.
// A chain with no premium rows, or a NULL total, sums to zero.
func (d *DataAccess) CumulativePremium(ctx context.Context, controlNumber int64) (domain.Money, error) {
	ctrl := strconv.FormatInt(controlNumber, 10)
	rows, err := dataSet[premiumRow](ctx, d.rpc, procCumulativePremium, []string{"@ControlNo", ctrl})
	if err != nil {
		return 0, err
	}
	if len(rows) == 0 {
		return 0, nil
	}
	total, err := parseAmount(rows[0].TotalPremium)
	if err != nil {
		return 0, fmt.Errorf("premium for control number %s: %w", ctrl, err)
	}
	return total, nil
}

func (d *DataAccess) IsBound(ctx context.Context, quoteGUID string) (bool, error) {
	rows, err := dataSet[boundRow](ctx, d.rpc, procQuoteBoundStatus, []string{"@QuoteGuid", quoteGUID})
	if err != nil {
		return false, err
	}
	if len(rows) == 0 {
		return false, fmt.Errorf("quote guid %s: %w", quoteGUID, domain.ErrQuoteNotFound)
	}
	return rows[0].Bound, nil
}

func (d *DataAccess) RegisterTransactionPayload(ctx context.Context, raw json.RawMessage, quoteGUID, quoteOptionGUID string) error {
	return d.rpc.Invoke(ctx, dataAccessService, "ExecuteCommand", procedureRequest{
		ProcedureName: procRegisterTransPayload,
		Parameters: []string{
			"@QuoteGuid", quoteGUID,
			"@QuoteOptionGuid", quoteOptionGUID,
			"@Payload", string(raw),
		},
	}, nil)
}
