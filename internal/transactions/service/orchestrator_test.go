package service

import (
	"context"
	"errors"
	"math"
	"testing"
	"time"

	"pasbridge/internal/events"
	"pasbridge/internal/transactions/domain"
	"pasbridge/platform/apperr"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBindNewBusinessRunsFullSequence(t *testing.T) {
	h := newHarness(newFakePAS())

	out := h.orch.Process(context.Background(), newBindRequest(int64p(501)))

	require.True(t, out.Success, out.Message)
	assert.Equal(t, domain.StatusCompleted, out.Result.Status())
	assert.NotEmpty(t, out.Result.Text(domain.FieldInsuredGUID))
	assert.NotEmpty(t, out.Result.Text(domain.FieldBoundPolicyNumber))
	assert.True(t, out.Result.Has(domain.FieldInvoiceData))

	for _, call := range []string{"FindInsured", "CreateInsured", "FindProducer", "FindUnderwriter",
		"CreateSubmission", "CreateQuote", "UpdateExternalQuoteID", "AddQuoteOption", "Rate",
		"RegisterTransactionPayload", "Bind", "GetInvoice"} {
		assert.Equal(t, 1, h.pas.count(call), call)
	}
	require.Len(t, h.pas.rated, 1)
	assert.Equal(t, domain.Dollars(1200), h.pas.rated[0].Premium)
	assert.Equal(t, domain.Dollars(150), h.pas.rated[0].PolicyFee)
	require.Len(t, h.pas.createdInsured, 1)
	assert.Equal(t, "+12015550123", h.pas.createdInsured[0].Phone)
	assert.Contains(t, out.Message, "policy "+out.Result.Text(domain.FieldBoundPolicyNumber))
}

func TestSecondBindForSameOpportunityIsConflict(t *testing.T) {
	h := newHarness(newFakePAS())

	first := h.orch.Process(context.Background(), newBindRequest(int64p(42)))
	require.True(t, first.Success, first.Message)

	second := h.orch.Process(context.Background(), newBindRequest(int64p(42)))

	require.False(t, second.Success)
	require.NotNil(t, second.Err)
	assert.Equal(t, apperr.KindConflict, second.Err.Kind)
	assert.Contains(t, second.Message, "Policy Already Bound")
	assert.Equal(t, 1, h.pas.count("CreateQuote"))
	assert.Equal(t, 1, h.pas.count("Bind"))
	assert.Equal(t, domain.StatusFailed, second.Result.Status())
}

func TestRebindReusesExistingUnboundQuote(t *testing.T) {
	pas := newFakePAS()
	pas.seedQuote(domain.QuoteReference{
		QuoteGUID:       "quote-existing",
		QuoteOptionGUID: "option-existing",
		ControlNumber:   77,
		OpportunityID:   int64p(9),
	}, 0)
	h := newHarness(pas)

	out := h.orch.Process(context.Background(), newBindRequest(int64p(9)))

	require.True(t, out.Success, out.Message)
	assert.Equal(t, "quote-existing", out.Result.Text(domain.FieldQuoteGUID))
	assert.Equal(t, "option-existing", out.Result.Text(domain.FieldQuoteOptionGUID))
	assert.True(t, out.Result.Has(domain.FieldRebind))
	assert.Zero(t, pas.count("CreateQuote"))
	assert.Zero(t, pas.count("CreateSubmission"))
	assert.Zero(t, pas.count("AddQuoteOption"))
	assert.Equal(t, []string{"quote-existing/option-existing"}, pas.registered)
	assert.Equal(t, 1, pas.count("Bind"))
	assert.Contains(t, out.Message, "rebind")
}

func TestRebindAddsAndRatesOptionWhenMissing(t *testing.T) {
	pas := newFakePAS()
	pas.seedQuote(domain.QuoteReference{QuoteGUID: "quote-bare", OpportunityID: int64p(10)}, 0)
	h := newHarness(pas)

	out := h.orch.Process(context.Background(), newBindRequest(int64p(10)))

	require.True(t, out.Success, out.Message)
	assert.Zero(t, pas.count("CreateQuote"))
	assert.Equal(t, 1, pas.count("AddQuoteOption"))
	require.Len(t, pas.rated, 1)
	assert.Equal(t, "quote-bare", pas.rated[0].QuoteGUID)
}

func TestBindGuardLookupFailureDoesNotCreateQuote(t *testing.T) {
	pas := newFakePAS()
	pas.failOn["FindByOpportunityID"] = errors.New("connection reset")
	h := newHarness(pas)

	out := h.orch.Process(context.Background(), newBindRequest(int64p(11)))

	require.False(t, out.Success)
	assert.Equal(t, apperr.KindRemote, out.Err.Kind)
	assert.Zero(t, pas.count("CreateQuote"))
}

func TestLookupFallsBackToPolicyNumber(t *testing.T) {
	pas := newFakePAS()
	pas.seedQuote(domain.QuoteReference{QuoteGUID: "quote-1", QuoteOptionGUID: "opt-1", IsBound: true, PolicyNumber: "GL-1001"}, 0)
	h := newHarness(pas)

	req := &domain.IssueRequest{Envelope: domain.Envelope{
		TransactionID: "txn-issue",
		Type:          domain.TypeIssue,
		Keys:          domain.LookupKeys{OptionID: int64p(999), PolicyNumber: "GL-1001"},
	}}
	out := h.orch.Process(context.Background(), req)

	require.True(t, out.Success, out.Message)
	assert.Equal(t, 1, pas.count("FindByOptionID"))
	assert.Equal(t, 1, pas.count("FindByPolicyNumber"))
	assert.Equal(t, "2025-03-01", out.Result.Text(domain.FieldIssueDate))
	assert.Equal(t, "doc-GL-1001", out.Result.Text(domain.FieldDocumentGUID))
}

func TestLookupFailureIsNotFoundBeforeMutation(t *testing.T) {
	h := newHarness(newFakePAS())

	req := &domain.UnbindRequest{Envelope: domain.Envelope{
		TransactionID: "txn-unbind",
		Type:          domain.TypeUnbind,
		Keys:          domain.LookupKeys{OptionID: int64p(1), PolicyNumber: "NOPE"},
	}}
	out := h.orch.Process(context.Background(), req)

	require.False(t, out.Success)
	assert.Equal(t, apperr.KindNotFound, out.Err.Kind)
	assert.Zero(t, h.pas.count("Unbind"))
}

func TestUnbindRequiresBoundPolicy(t *testing.T) {
	pas := newFakePAS()
	pas.seedQuote(domain.QuoteReference{QuoteGUID: "quote-unbound", QuoteOptionGUID: "opt"}, 5)
	h := newHarness(pas)

	req := &domain.UnbindRequest{Envelope: domain.Envelope{
		TransactionID: "txn-unbind",
		Type:          domain.TypeUnbind,
		Keys:          domain.LookupKeys{OptionID: int64p(5)},
	}}
	out := h.orch.Process(context.Background(), req)

	require.False(t, out.Success)
	assert.Equal(t, apperr.KindUnprocessable, out.Err.Kind)
	assert.Equal(t, 1, pas.count("IsBound"))
	assert.Zero(t, pas.count("Unbind"))
}

func TestUnbindBoundPolicy(t *testing.T) {
	pas := newFakePAS()
	pas.seedQuote(domain.QuoteReference{QuoteGUID: "quote-b", IsBound: true, PolicyNumber: "GL-7"}, 5)
	h := newHarness(pas)

	req := &domain.UnbindRequest{Envelope: domain.Envelope{
		TransactionID: "txn-unbind",
		Type:          domain.TypeUnbind,
		Keys:          domain.LookupKeys{OptionID: int64p(5)},
	}, Reason: "duplicate"}
	out := h.orch.Process(context.Background(), req)

	require.True(t, out.Success, out.Message)
	assert.Equal(t, 1, pas.count("Unbind"))
	assert.Equal(t, true, mustGet(t, out.Result, domain.FieldUnbound))
}

func seedChain(pas *fakePAS, opportunityID int64) {
	opp := int64p(opportunityID)
	pas.seedQuote(domain.QuoteReference{QuoteGUID: "q-l0", QuoteOptionGUID: "o-l0", ControlNumber: 500, ChainLevel: 0, IsBound: true, PolicyNumber: "GL-500", OpportunityID: opp}, 0)
	pas.seedQuote(domain.QuoteReference{QuoteGUID: "q-l1", QuoteOptionGUID: "o-l1", ControlNumber: 500, ChainLevel: 1, IsBound: true, PolicyNumber: "GL-500", OpportunityID: opp}, 0)
	pas.seedQuote(domain.QuoteReference{QuoteGUID: "q-l2", QuoteOptionGUID: "o-l2", ControlNumber: 500, ChainLevel: 2, IsBound: true, PolicyNumber: "GL-500", OpportunityID: opp}, 0)
	pas.cumulative[500] = domain.Dollars(1200)
}

func newEndorsement(opportunityID int64, premium domain.Money) *domain.EndorsementRequest {
	return &domain.EndorsementRequest{
		Envelope: domain.Envelope{
			TransactionID: "txn-endt",
			Type:          domain.TypeMidtermEndorsement,
			Keys:          domain.LookupKeys{OpportunityID: int64p(opportunityID)},
		},
		EffectiveFrom: "2025-05-01",
		Premium:       moneyp(premium),
		Description:   "Add additional insured",
	}
}

func TestEndorsementAttachesToLatestChainLevel(t *testing.T) {
	pas := newFakePAS()
	seedChain(pas, 300)
	h := newHarness(pas)

	out := h.orch.Process(context.Background(), newEndorsement(300, domain.Dollars(300)))

	require.True(t, out.Success, out.Message)
	require.Len(t, pas.endorsements, 1)
	assert.Equal(t, "q-l2", pas.endorsements[0].QuoteGUID)
	assert.Equal(t, 3, mustGet(t, out.Result, domain.FieldEndorsementNumber))
	assert.Equal(t, "Add additional insured", pas.endorsements[0].Comment)
	assert.Contains(t, out.Message, "endorsement #3")
}

func TestEndorsementPremiumAggregation(t *testing.T) {
	cases := map[string]struct {
		delta domain.Money
		want  domain.Money
	}{
		"charge": {delta: domain.Dollars(300), want: domain.Dollars(1500)},
		"credit": {delta: domain.Dollars(-200), want: domain.Dollars(1000)},
		"credit beyond existing": {delta: domain.Dollars(-1500), want: domain.Dollars(-300)},
	}

	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			pas := newFakePAS()
			seedChain(pas, 300)
			h := newHarness(pas)

			out := h.orch.Process(context.Background(), newEndorsement(300, tc.delta))

			require.True(t, out.Success, out.Message)
			require.Len(t, pas.rated, 1)
			assert.Equal(t, tc.want, pas.rated[0].Premium)
			assert.Equal(t, tc.delta, pas.endorsements[0].PremiumDelta)
			assert.Equal(t, tc.want, mustGet(t, out.Result, domain.FieldNewTotalPremium))
		})
	}
}

func TestEndorsementResumesUnboundEndorsement(t *testing.T) {
	pas := newFakePAS()
	opp := int64p(301)
	pas.seedQuote(domain.QuoteReference{QuoteGUID: "q-l0", QuoteOptionGUID: "o-l0", ControlNumber: 600, IsBound: true, PolicyNumber: "GL-600", OpportunityID: opp}, 0)
	pas.seedQuote(domain.QuoteReference{QuoteGUID: "q-l1", QuoteOptionGUID: "o-l1", ControlNumber: 600, ChainLevel: 1, Kind: domain.QuoteKindEndorsement, OpportunityID: opp}, 0)
	h := newHarness(pas)

	out := h.orch.Process(context.Background(), newEndorsement(301, domain.Dollars(50)))

	require.True(t, out.Success, out.Message)
	assert.Zero(t, pas.count("CreateEndorsement"))
	assert.Equal(t, "q-l1", out.Result.Text(domain.FieldEndorsementQuoteGUID))
	assert.Equal(t, 1, mustGet(t, out.Result, domain.FieldEndorsementNumber))
	assert.Equal(t, []string{"q-l1/o-l1"}, pas.registered)
}

func TestEndorsementRefusesUnboundNonEndorsementVersion(t *testing.T) {
	cases := map[string]domain.QuoteKind{
		"cancellation left":  domain.QuoteKindCancellation,
		"reinstatement left": domain.QuoteKindReinstatement,
		"unknown kind":       "",
	}

	for name, kind := range cases {
		t.Run(name, func(t *testing.T) {
			pas := newFakePAS()
			opp := int64p(900)
			pas.seedQuote(domain.QuoteReference{QuoteGUID: "q-l0", QuoteOptionGUID: "o-l0", ControlNumber: 900, IsBound: true, PolicyNumber: "GL-900", OpportunityID: opp}, 0)
			pas.seedQuote(domain.QuoteReference{QuoteGUID: "q-left", QuoteOptionGUID: "o-left", ControlNumber: 900, ChainLevel: 1, Kind: kind, OpportunityID: opp}, 0)
			pas.cumulative[900] = domain.Dollars(1000)
			h := newHarness(pas)

			out := h.orch.Process(context.Background(), newEndorsement(900, domain.Dollars(75)))

			require.False(t, out.Success)
			assert.Equal(t, apperr.KindConflict, out.Err.Kind)
			assert.Contains(t, out.Message, "unbound")
			for _, call := range []string{"CreateEndorsement", "AddQuoteOption", "Rate", "RegisterTransactionPayload", "Bind"} {
				assert.Zero(t, pas.count(call), call)
			}
			assert.Empty(t, pas.registered)
		})
	}
}

func TestEndorsementOnUnboundOriginalIsUnprocessable(t *testing.T) {
	pas := newFakePAS()
	pas.seedQuote(domain.QuoteReference{QuoteGUID: "q-l0", ControlNumber: 700, OpportunityID: int64p(302)}, 0)
	h := newHarness(pas)

	out := h.orch.Process(context.Background(), newEndorsement(302, domain.Dollars(50)))

	require.False(t, out.Success)
	assert.Equal(t, apperr.KindUnprocessable, out.Err.Kind)
	assert.Equal(t, 1, pas.count("IsBound"))
	assert.Zero(t, pas.count("CreateEndorsement"))
}

func TestEndorsementRechecksStaleUnboundRow(t *testing.T) {
	pas := newFakePAS()
	opp := int64p(304)
	pas.seedQuote(domain.QuoteReference{QuoteGUID: "q-l0", QuoteOptionGUID: "o-l0", ControlNumber: 710, PolicyNumber: "GL-710", OpportunityID: opp}, 0)
	pas.liveBound["q-l0"] = true
	h := newHarness(pas)

	out := h.orch.Process(context.Background(), newEndorsement(304, domain.Dollars(50)))

	require.True(t, out.Success, out.Message)
	assert.Equal(t, 1, pas.count("IsBound"))
	require.Len(t, pas.endorsements, 1)
	assert.Equal(t, "q-l0", pas.endorsements[0].QuoteGUID)
	assert.Equal(t, 1, mustGet(t, out.Result, domain.FieldEndorsementNumber))
}

func TestEndorsementWithNoRecordedPremiumStartsFromZero(t *testing.T) {
	pas := newFakePAS()
	pas.seedQuote(domain.QuoteReference{QuoteGUID: "q-l0", QuoteOptionGUID: "o-l0", ControlNumber: 720, IsBound: true, PolicyNumber: "GL-720", OpportunityID: int64p(305)}, 0)
	h := newHarness(pas)

	out := h.orch.Process(context.Background(), newEndorsement(305, domain.Dollars(250)))

	require.True(t, out.Success, out.Message)
	assert.Equal(t, domain.Money(0), mustGet(t, out.Result, domain.FieldExistingPremium))
	assert.Equal(t, domain.Dollars(250), mustGet(t, out.Result, domain.FieldNewTotalPremium))
	require.Len(t, pas.rated, 1)
	assert.Equal(t, domain.Dollars(250), pas.rated[0].Premium)
}

func TestEndorsementPremiumOverflowIsUnprocessable(t *testing.T) {
	pas := newFakePAS()
	seedChain(pas, 306)
	pas.cumulative[500] = domain.Cents(math.MaxInt64 - 100)
	h := newHarness(pas)

	out := h.orch.Process(context.Background(), newEndorsement(306, domain.Dollars(5)))

	require.False(t, out.Success)
	assert.Equal(t, apperr.KindUnprocessable, out.Err.Kind)
	assert.Zero(t, pas.count("CreateEndorsement"))
}

func TestEndorsementResolvesOpportunityThroughPolicyNumber(t *testing.T) {
	pas := newFakePAS()
	seedChain(pas, 303)
	h := newHarness(pas)

	req := newEndorsement(303, domain.Dollars(10))
	req.Keys = domain.LookupKeys{PolicyNumber: "GL-500"}
	out := h.orch.Process(context.Background(), req)

	require.True(t, out.Success, out.Message)
	assert.Equal(t, "q-l2", pas.endorsements[0].QuoteGUID)
}

func TestEffectiveDateFallback(t *testing.T) {
	cases := map[string]struct {
		specific, generic string
		want              string
		warnings          int
	}{
		"type specific":           {specific: "2025-04-10", generic: "2025-04-01", want: "2025-04-10"},
		"falls back to txn date":  {generic: "04/01/2025", want: "2025-04-01"},
		"malformed specific":      {specific: "soon", generic: "2025-04-01", want: "2025-04-01", warnings: 1},
		"falls back to clock":     {want: "2025-06-15"},
		"both malformed to clock": {specific: "x", generic: "y", want: "2025-06-15", warnings: 2},
	}

	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			pas := newFakePAS()
			pas.seedQuote(domain.QuoteReference{QuoteGUID: "q-c", IsBound: true, PolicyNumber: "GL-9"}, 0)
			h := newHarness(pas)

			req := &domain.CancellationRequest{
				Envelope: domain.Envelope{
					TransactionID:   "txn-cancel",
					Type:            domain.TypeCancellation,
					Keys:            domain.LookupKeys{PolicyNumber: "GL-9"},
					TransactionDate: tc.generic,
				},
				EffectiveDate: tc.specific,
				ReasonCode:    2,
				RefundAmount:  domain.Dollars(80),
			}
			out := h.orch.Process(context.Background(), req)

			require.True(t, out.Success, out.Message)
			require.Len(t, pas.cancellations, 1)
			assert.Equal(t, tc.want, domain.FormatDate(pas.cancellations[0].EffectiveDate))
			assert.Len(t, out.Result.Warnings, tc.warnings)
		})
	}
}

func TestCancellationFlow(t *testing.T) {
	pas := newFakePAS()
	pas.seedQuote(domain.QuoteReference{QuoteGUID: "q-c", QuoteOptionGUID: "o-c", IsBound: true, PolicyNumber: "GL-9"}, 12)
	h := newHarness(pas)

	req := &domain.CancellationRequest{
		Envelope: domain.Envelope{
			TransactionID: "txn-cancel",
			Type:          domain.TypeCancellation,
			Keys:          domain.LookupKeys{OptionID: int64p(12), PolicyNumber: "GL-other"},
		},
		EffectiveDate: "2025-08-01",
		ReasonCode:    3,
		RefundAmount:  domain.Cents(12345),
	}
	out := h.orch.Process(context.Background(), req)

	require.True(t, out.Success, out.Message)
	assert.Zero(t, pas.count("FindByPolicyNumber"))
	assert.Equal(t, "GL-9", pas.cancellations[0].PolicyNumber)
	assert.Equal(t, 3, pas.cancellations[0].ReasonCode)
	assert.NotEmpty(t, out.Result.Text(domain.FieldCancellationQuoteGUID))
	assert.Contains(t, out.Message, "refund $123.45")
}

func TestReinstatementUsesOptionIDToFindChain(t *testing.T) {
	pas := newFakePAS()
	opp := int64p(400)
	pas.seedQuote(domain.QuoteReference{QuoteGUID: "q-r0", QuoteOptionGUID: "o-r0", ControlNumber: 800, IsBound: true, PolicyNumber: "GL-800", OpportunityID: opp}, 21)
	pas.seedQuote(domain.QuoteReference{QuoteGUID: "q-r1", QuoteOptionGUID: "o-r1", ControlNumber: 800, ChainLevel: 1, IsBound: true, PolicyNumber: "GL-800", OpportunityID: opp}, 0)
	pas.cumulative[800] = domain.Dollars(200)
	h := newHarness(pas)

	req := &domain.ReinstatementRequest{
		Envelope: domain.Envelope{
			TransactionID:   "txn-reinstate",
			Type:            domain.TypeReinstatement,
			Keys:            domain.LookupKeys{OptionID: int64p(21)},
			TransactionDate: "2025-09-01",
		},
		Premium: domain.Dollars(950),
	}
	out := h.orch.Process(context.Background(), req)

	require.True(t, out.Success, out.Message)
	require.Len(t, pas.reinstatements, 1)
	assert.Equal(t, "q-r1", pas.reinstatements[0].QuoteGUID)
	assert.Equal(t, int64(400), pas.reinstatements[0].OpportunityID)
	assert.Equal(t, "2025-09-01", domain.FormatDate(pas.reinstatements[0].EffectiveDate))
	require.Len(t, pas.rated, 1)
	assert.Equal(t, domain.Dollars(1150), pas.rated[0].Premium)
	assert.Equal(t, domain.Dollars(950), mustGet(t, out.Result, domain.FieldNetPremiumChange))
	assert.Contains(t, out.Message, "net change $950.00")
}

func TestReinstatementNeverFallsBackToPolicyNumber(t *testing.T) {
	pas := newFakePAS()
	seedChain(pas, 401)
	h := newHarness(pas)

	req := &domain.ReinstatementRequest{
		Envelope: domain.Envelope{
			TransactionID: "txn-reinstate",
			Type:          domain.TypeReinstatement,
			Keys:          domain.LookupKeys{OptionID: int64p(404), PolicyNumber: "GL-500"},
		},
	}
	out := h.orch.Process(context.Background(), req)

	require.False(t, out.Success)
	assert.Equal(t, apperr.KindNotFound, out.Err.Kind)
	assert.Zero(t, pas.count("FindByPolicyNumber"))
	assert.Zero(t, pas.count("CreateReinstatement"))
}

func TestInvoiceExhaustionIsNonFatal(t *testing.T) {
	pas := newFakePAS()
	pas.invoiceFoundAt = 0
	h := newHarness(pas)

	out := h.orch.Process(context.Background(), newBindRequest(int64p(600)))

	require.True(t, out.Success, out.Message)
	assert.Equal(t, 3, pas.count("GetInvoice"))
	assert.Equal(t, []time.Duration{2 * time.Second, 2 * time.Second}, h.sleeps)
	assert.False(t, out.Result.Has(domain.FieldInvoiceData))
	require.Len(t, out.Result.Warnings, 1)
	assert.Contains(t, out.Result.Warnings[0], "invoice data not available after 3 attempts")
	assert.Contains(t, out.Message, "warnings 1")
}

func TestInvoiceFoundOnRetry(t *testing.T) {
	pas := newFakePAS()
	pas.invoiceFoundAt = 2
	h := newHarness(pas)

	out := h.orch.Process(context.Background(), newBindRequest(int64p(601)))

	require.True(t, out.Success, out.Message)
	assert.Equal(t, 2, pas.count("GetInvoice"))
	assert.Len(t, h.sleeps, 1)
	assert.True(t, out.Result.Has(domain.FieldInvoiceData))
	assert.Empty(t, out.Result.Warnings)
}

func TestInvoiceWaitCancelledDegradesToWarning(t *testing.T) {
	pas := newFakePAS()
	pas.invoiceFoundAt = 0
	h := newHarness(pas)

	ctx, cancel := context.WithCancel(context.Background())
	h.orch.sleep = func(context.Context, time.Duration) error {
		cancel()
		return context.Canceled
	}

	out := h.orch.Process(ctx, newBindRequest(int64p(602)))

	require.True(t, out.Success, out.Message)
	assert.Equal(t, 1, pas.count("GetInvoice"))
	require.Len(t, out.Result.Warnings, 1)
	assert.Contains(t, out.Result.Warnings[0], "interrupted")
}

func TestValidationPrecedesRemoteCalls(t *testing.T) {
	h := newHarness(newFakePAS())
	req := newBindRequest(int64p(700))
	req.Insured.Name = ""

	out := h.orch.Process(context.Background(), req)

	require.False(t, out.Success)
	assert.Equal(t, apperr.KindValidation, out.Err.Kind)
	assert.Zero(t, h.pas.totalCalls())
	assert.Zero(t, h.audit.saved)
	assert.Contains(t, out.Message, "insured name is required")
}

func TestAuthenticationFailureIsUnauthorized(t *testing.T) {
	pas := newFakePAS()
	pas.failOn["Authenticate"] = errors.New("bad credentials")
	h := newHarness(pas)

	out := h.orch.Process(context.Background(), newBindRequest(int64p(701)))

	require.False(t, out.Success)
	assert.Equal(t, apperr.KindUnauthorized, out.Err.Kind)
	assert.Equal(t, 1, pas.totalCalls())
}

func TestAuditFailureDoesNotAbort(t *testing.T) {
	h := newHarness(newFakePAS())
	h.audit.saveErr = errors.New("db down")

	out := h.orch.Process(context.Background(), newBindRequest(int64p(702)))

	require.True(t, out.Success, out.Message)
	assert.Equal(t, 1, h.audit.saved)
	require.Len(t, h.audit.outcomes, 1)
	assert.True(t, h.audit.outcomes[0].Success)
}

func TestRemoteFailureAbortsWithVerbatimMessage(t *testing.T) {
	pas := newFakePAS()
	pas.failOn["Bind"] = errors.New("Quote is locked by user jdoe")
	h := newHarness(pas)

	out := h.orch.Process(context.Background(), newBindRequest(int64p(703)))

	require.False(t, out.Success)
	assert.Equal(t, apperr.KindRemote, out.Err.Kind)
	assert.Equal(t, "Quote is locked by user jdoe", out.Err.Message)
	assert.Contains(t, out.Message, "Quote is locked by user jdoe")
	assert.Zero(t, pas.count("GetInvoice"))
	assert.Zero(t, pas.count("Unbind"))

	require.Len(t, h.events.events, 1)
	evt, ok := h.events.events[0].(events.TransactionProcessed)
	require.True(t, ok)
	assert.True(t, evt.PartialState)
	assert.Equal(t, "remote_operation", evt.ErrorKind)
}

func TestExternalIDFailureIsWarningOnly(t *testing.T) {
	pas := newFakePAS()
	pas.failOn["UpdateExternalQuoteID"] = errors.New("field is read-only")
	h := newHarness(pas)

	out := h.orch.Process(context.Background(), newBindRequest(int64p(704)))

	require.True(t, out.Success, out.Message)
	require.Len(t, out.Result.Warnings, 1)
	assert.Contains(t, out.Result.Warnings[0], "external quote id")
}

func TestIssueDocumentFailureIsWarningOnly(t *testing.T) {
	pas := newFakePAS()
	pas.seedQuote(domain.QuoteReference{QuoteGUID: "q-i", IsBound: true, PolicyNumber: "GL-55"}, 0)
	pas.failOn["GeneratePolicyDocument"] = errors.New("template missing")
	h := newHarness(pas)

	req := &domain.IssueRequest{Envelope: domain.Envelope{
		TransactionID: "txn-issue",
		Type:          domain.TypeIssue,
		Keys:          domain.LookupKeys{PolicyNumber: "GL-55"},
	}}
	out := h.orch.Process(context.Background(), req)

	require.True(t, out.Success, out.Message)
	assert.Len(t, out.Result.Warnings, 1)
}

func TestPanicIsRecoveredAsInternal(t *testing.T) {
	pas := newFakePAS()
	pas.panicOn = "CreateQuote"
	h := newHarness(pas)

	out := h.orch.Process(context.Background(), newBindRequest(int64p(705)))

	require.False(t, out.Success)
	assert.Equal(t, apperr.KindInternal, out.Err.Kind)
	assert.Equal(t, domain.StatusFailed, out.Result.Status())
	assert.NotEmpty(t, out.Message)
	assert.Len(t, h.events.events, 1)
}

func TestNewRejectsMissingPorts(t *testing.T) {
	_, err := New(Deps{}, Options{}, nil, nil)
	assert.Error(t, err)
}

func mustGet(t *testing.T, r *domain.WorkflowResult, key string) any {
	t.Helper()
	v, ok := r.Get(key)
	require.True(t, ok, "missing result field %s", key)
	return v
}
