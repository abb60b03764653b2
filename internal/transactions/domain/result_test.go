package domain

import (
	"encoding/json"
	"testing"

	"pasbridge/platform/apperr"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWorkflowResultIsWriteOnce(t *testing.T) {
	r := NewWorkflowResult()
	assert.True(t, r.Set(FieldQuoteGUID, "q-1"))
	assert.False(t, r.Set(FieldQuoteGUID, "q-2"))
	assert.Equal(t, "q-1", r.Text(FieldQuoteGUID))
}

func TestWorkflowResultJSONKeepsInsertionOrder(t *testing.T) {
	r := NewWorkflowResult()
	r.Set(FieldQuoteGUID, "q-1")
	r.Set(FieldBoundPolicyNumber, "GL-1001")
	r.Set(FieldRefundAmount, Dollars(25))
	r.Warn("invoice not available after %d attempts", 3)

	out, err := json.Marshal(r)
	require.NoError(t, err)
	assert.Equal(t,
		`{"quoteGuid":"q-1","boundPolicyNumber":"GL-1001","refundAmount":25.00,"warnings":["invoice not available after 3 attempts"]}`,
		string(out))
	assert.Equal(t, []string{FieldQuoteGUID, FieldBoundPolicyNumber, FieldRefundAmount}, r.Keys())
}

func TestValidateBindRequiresInsuredName(t *testing.T) {
	premium := Dollars(1000)
	req := &BindRequest{
		Envelope:       Envelope{TransactionID: "t-1", Type: TypeBind},
		ProducerName:   "Acme Brokerage",
		LineOfBusiness: "GL",
		State:          "TX",
		EffectiveDate:  "2025-01-01",
		GrossPremium:   &premium,
	}

	err := req.Validate()
	require.Error(t, err)
	assert.True(t, apperr.Is(err, apperr.KindValidation))
	assert.Contains(t, err.Error(), "insured name is required")
}

func TestValidateReinstatementRejectsBarePolicyNumber(t *testing.T) {
	req := &ReinstatementRequest{
		Envelope: Envelope{TransactionID: "t-2", Type: TypeReinstatement, Keys: LookupKeys{PolicyNumber: "GL-1001"}},
	}
	assert.Error(t, req.Validate())

	opp := int64(42)
	req.Keys.OpportunityID = &opp
	assert.NoError(t, req.Validate())
}

func TestValidateRequiresAKey(t *testing.T) {
	req := &IssueRequest{Envelope: Envelope{TransactionID: "t-3", Type: TypeIssue}}
	assert.Error(t, req.Validate())
}
