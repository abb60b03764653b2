package transport

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pasbridge/internal/transactions/domain"
	"pasbridge/platform/apperr"
	"pasbridge/platform/validator"
)

var receivedAt = time.Date(2025, 6, 15, 9, 30, 0, 0, time.UTC)

func TestDecodeBindRequest(t *testing.T) {
	raw := []byte(`{
		"transactionId": " txn-1 ",
		"transactionType": "BIND",
		"opportunityId": 42,
		"comment": "<b>rush</b>   please",
		"data": {
			"insured_name": "Acme Roofing LLC",
			"address_state": "tx",
			"producer_name": "Summit Insurance",
			"producer_code": "SUM-1",
			"line_of_business": "General Liability",
			"state": "tx",
			"effective_date": "2025-07-01",
			"gross_premium": "1,200.00",
			"policy_fee": 150
		}
	}`)

	req, err := Decode(raw, validator.New(), receivedAt)
	require.NoError(t, err)

	bind, ok := req.(*domain.BindRequest)
	require.True(t, ok, "expected *domain.BindRequest, got %T", req)
	assert.Equal(t, "txn-1", bind.TransactionID)
	assert.Equal(t, domain.TypeBind, bind.Type)
	require.NotNil(t, bind.Keys.OpportunityID)
	assert.Equal(t, int64(42), *bind.Keys.OpportunityID)
	assert.Equal(t, "rush please", bind.Comment)
	assert.Equal(t, "TX", bind.State)
	assert.Equal(t, "TX", bind.Insured.Address.State)
	require.NotNil(t, bind.GrossPremium)
	assert.Equal(t, domain.Dollars(1200), *bind.GrossPremium)
	assert.Equal(t, domain.Dollars(150), bind.PolicyFee)
	assert.NotContains(t, string(bind.Raw), "\n")
	assert.NoError(t, bind.Validate())
}

func TestDecodeEndorsementPrefersTypeSpecificPremium(t *testing.T) {
	raw := []byte(`{"transactionId":"t","transactionType":"midterm_endorsement","opportunityId":7,
		"data":{"midterm_endt_premium":300,"gross_premium":999,"effective_date":"2025-08-01"}}`)

	req, err := Decode(raw, validator.New(), receivedAt)
	require.NoError(t, err)

	endt := req.(*domain.EndorsementRequest)
	require.NotNil(t, endt.Premium)
	assert.Equal(t, domain.Dollars(300), *endt.Premium)
	assert.Equal(t, "2025-08-01", endt.EffectiveFrom)
}

func TestDecodeEndorsementFallsBackToGrossPremiumAlias(t *testing.T) {
	raw := []byte(`{"transactionId":"t","transactionType":"midterm_endorsement","opportunityId":7,
		"data":{"gross_premium":-125.5}}`)

	req, err := Decode(raw, validator.New(), receivedAt)
	require.NoError(t, err)

	endt := req.(*domain.EndorsementRequest)
	require.NotNil(t, endt.Premium)
	assert.Equal(t, domain.Cents(-12550), *endt.Premium)
}

func TestDecodeReinstatementAndCancellation(t *testing.T) {
	val := validator.New()

	req, err := Decode([]byte(`{"transactionId":"t","transactionType":"reinstatement","optionId":5,
		"data":{"reinstatement_premium":250,"gross_premium":1,"reinstatement_date":"07/04/2025"}}`), val, receivedAt)
	require.NoError(t, err)
	reinstate := req.(*domain.ReinstatementRequest)
	assert.Equal(t, domain.Dollars(250), reinstate.Premium)
	assert.Equal(t, "07/04/2025", reinstate.EffectiveDate)

	req, err = Decode([]byte(`{"transactionId":"t","transactionType":"cancellation","policyNumber":"GL-1001",
		"data":{"cancellation_reason_code":3,"refund_amount":"410.25"}}`), val, receivedAt)
	require.NoError(t, err)
	cancel := req.(*domain.CancellationRequest)
	assert.Equal(t, 3, cancel.ReasonCode)
	assert.Equal(t, domain.Cents(41025), cancel.RefundAmount)
	assert.Equal(t, "GL-1001", cancel.Keys.PolicyNumber)
}

func TestDecodeRejectsUnknownType(t *testing.T) {
	_, err := Decode([]byte(`{"transactionId":"t","transactionType":"renewal"}`), validator.New(), receivedAt)
	require.Error(t, err)
	assert.True(t, apperr.Is(err, apperr.KindValidation))
}

func TestDecodeRejectsMalformedJSONAndBadFields(t *testing.T) {
	val := validator.New()

	_, err := Decode([]byte(`{"transactionId":`), val, receivedAt)
	require.Error(t, err)
	assert.True(t, apperr.Is(err, apperr.KindValidation))

	_, err = Decode([]byte(`{"transactionId":"t","transactionType":"bind","opportunityId":-3,"data":{"email":"nope"}}`), val, receivedAt)
	require.Error(t, err)
	appErr, ok := apperr.As(err)
	require.True(t, ok)
	assert.Equal(t, apperr.KindValidation, appErr.Kind)
	assert.Len(t, appErr.Details, 2)
}

func TestDecodeSkipsMalformedTypeSpecificDate(t *testing.T) {
	val := validator.New()
	cases := map[string]struct {
		raw  string
		want func(domain.Request) string
		date string
	}{
		"endorsement": {
			raw:  `{"transactionId":"t","transactionType":"midterm_endorsement","opportunityId":7,"data":{"midterm_endt_premium":10,"midterm_endt_effective_from":"next week","effective_date":"2025-08-01"}}`,
			want: func(r domain.Request) string { return r.(*domain.EndorsementRequest).EffectiveFrom },
			date: "2025-08-01",
		},
		"cancellation": {
			raw:  `{"transactionId":"t","transactionType":"cancellation","optionId":5,"data":{"cancellation_date":"13/45/2025","effective_date":"09/01/2025"}}`,
			want: func(r domain.Request) string { return r.(*domain.CancellationRequest).EffectiveDate },
			date: "09/01/2025",
		},
		"reinstatement": {
			raw:  `{"transactionId":"t","transactionType":"reinstatement","optionId":5,"data":{"reinstatement_premium":1,"reinstatement_date":"tbd","effective_date":"2025-10-01"}}`,
			want: func(r domain.Request) string { return r.(*domain.ReinstatementRequest).EffectiveDate },
			date: "2025-10-01",
		},
		"nothing valid keeps specific": {
			raw:  `{"transactionId":"t","transactionType":"cancellation","optionId":5,"data":{"cancellation_date":"soon","effective_date":"later"}}`,
			want: func(r domain.Request) string { return r.(*domain.CancellationRequest).EffectiveDate },
			date: "soon",
		},
	}

	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			req, err := Decode([]byte(tc.raw), val, receivedAt)
			require.NoError(t, err)
			assert.Equal(t, tc.date, tc.want(req))
		})
	}
}
