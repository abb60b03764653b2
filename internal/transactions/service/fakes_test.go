package service

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"sync"
	"time"

	"pasbridge/internal/transactions/domain"
	"pasbridge/platform/events"
	"pasbridge/platform/logger"
)

// fakePAS is an in-memory PAS that implements every orchestrator port and
// counts calls per method.
type fakePAS struct {
	mu    sync.Mutex
	calls []string
	seq   int

	quotes        map[string]*domain.QuoteReference
	byOpportunity map[int64]string
	byOption      map[int64]string
	latest        map[int64]string
	cumulative    map[int64]domain.Money
	optionToQuote map[string]string
	liveBound     map[string]bool // IsBound answers that differ from the lookup rows

	insuredFound    bool
	failOn          map[string]error
	panicOn         string
	invoiceFoundAt  int // attempt number the invoice becomes visible; 0 = never
	invoiceAttempts int

	rated          []domain.RateInput
	endorsements   []domain.EndorsementInput
	cancellations  []domain.CancellationInput
	reinstatements []domain.ReinstatementInput
	registered     []string
	createdInsured []domain.Insured
}

func newFakePAS() *fakePAS {
	return &fakePAS{
		quotes:         make(map[string]*domain.QuoteReference),
		byOpportunity:  make(map[int64]string),
		byOption:       make(map[int64]string),
		latest:         make(map[int64]string),
		cumulative:     make(map[int64]domain.Money),
		optionToQuote:  make(map[string]string),
		liveBound:      make(map[string]bool),
		failOn:         make(map[string]error),
		invoiceFoundAt: 1,
	}
}

func (f *fakePAS) record(name string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, name)
	if f.panicOn == name {
		panic("fake PAS blew up in " + name)
	}
	return f.failOn[name]
}

func (f *fakePAS) count(name string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, c := range f.calls {
		if c == name {
			n++
		}
	}
	return n
}

func (f *fakePAS) totalCalls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

func (f *fakePAS) nextGUID(prefix string) string {
	f.seq++
	return fmt.Sprintf("%s-%d", prefix, f.seq)
}

// seedQuote stores a quote and indexes it by opportunity and option id.
func (f *fakePAS) seedQuote(ref domain.QuoteReference, optionID int64) {
	copyRef := ref
	f.quotes[ref.QuoteGUID] = &copyRef
	if ref.OpportunityID != nil {
		if _, exists := f.byOpportunity[*ref.OpportunityID]; !exists {
			f.byOpportunity[*ref.OpportunityID] = ref.QuoteGUID
		}
		current, ok := f.latest[*ref.OpportunityID]
		if !ok || f.quotes[current].ChainLevel <= ref.ChainLevel {
			f.latest[*ref.OpportunityID] = ref.QuoteGUID
		}
	}
	if optionID != 0 {
		f.byOption[optionID] = ref.QuoteGUID
	}
	if ref.QuoteOptionGUID != "" {
		f.optionToQuote[ref.QuoteOptionGUID] = ref.QuoteGUID
	}
}

func (f *fakePAS) get(guid string) (domain.QuoteReference, error) {
	if ref, ok := f.quotes[guid]; ok {
		return *ref, nil
	}
	return domain.QuoteReference{}, domain.ErrQuoteNotFound
}

// Authenticator

func (f *fakePAS) Authenticate(ctx context.Context) error { return f.record("Authenticate") }

// InsuredService

func (f *fakePAS) FindInsured(ctx context.Context, in domain.Insured) (string, bool, error) {
	if err := f.record("FindInsured"); err != nil {
		return "", false, err
	}
	if f.insuredFound {
		return "insured-existing", true, nil
	}
	return "", false, nil
}

func (f *fakePAS) CreateInsured(ctx context.Context, in domain.Insured) (string, error) {
	if err := f.record("CreateInsured"); err != nil {
		return "", err
	}
	f.createdInsured = append(f.createdInsured, in)
	return f.nextGUID("insured"), nil
}

// ProducerService

func (f *fakePAS) FindProducer(ctx context.Context, name, code string) (domain.ProducerRef, error) {
	if err := f.record("FindProducer"); err != nil {
		return domain.ProducerRef{}, err
	}
	return domain.ProducerRef{ContactGUID: "producer-contact", LocationGUID: "producer-location"}, nil
}

func (f *fakePAS) FindUnderwriter(ctx context.Context, name string) (string, error) {
	if err := f.record("FindUnderwriter"); err != nil {
		return "", err
	}
	return "underwriter-1", nil
}

// QuoteService

func (f *fakePAS) CreateSubmission(ctx context.Context, in domain.SubmissionInput) (string, error) {
	if err := f.record("CreateSubmission"); err != nil {
		return "", err
	}
	return f.nextGUID("submission"), nil
}

func (f *fakePAS) CreateQuote(ctx context.Context, in domain.QuoteInput) (string, error) {
	if err := f.record("CreateQuote"); err != nil {
		return "", err
	}
	guid := f.nextGUID("quote")
	f.quotes[guid] = &domain.QuoteReference{QuoteGUID: guid, ControlNumber: int64(1000 + f.seq)}
	return guid, nil
}

func (f *fakePAS) AddQuoteOption(ctx context.Context, quoteGUID string) (string, error) {
	if err := f.record("AddQuoteOption"); err != nil {
		return "", err
	}
	option := f.nextGUID("option")
	if ref, ok := f.quotes[quoteGUID]; ok {
		ref.QuoteOptionGUID = option
	}
	f.optionToQuote[option] = quoteGUID
	return option, nil
}

func (f *fakePAS) Rate(ctx context.Context, in domain.RateInput) error {
	if err := f.record("Rate"); err != nil {
		return err
	}
	f.rated = append(f.rated, in)
	return nil
}

func (f *fakePAS) UpdateExternalQuoteID(ctx context.Context, quoteGUID, externalID string) error {
	if err := f.record("UpdateExternalQuoteID"); err != nil {
		return err
	}
	id, err := strconv.ParseInt(externalID, 10, 64)
	if err != nil {
		return err
	}
	f.byOpportunity[id] = quoteGUID
	if ref, ok := f.quotes[quoteGUID]; ok {
		ref.OpportunityID = &id
	}
	return nil
}

// PolicyService

func (f *fakePAS) Bind(ctx context.Context, quoteOptionGUID string) (string, error) {
	if err := f.record("Bind"); err != nil {
		return "", err
	}
	policyNumber := "POL-" + strconv.Itoa(f.seq)
	if ref, ok := f.quotes[f.optionToQuote[quoteOptionGUID]]; ok {
		ref.IsBound = true
		ref.PolicyNumber = policyNumber
	}
	return policyNumber, nil
}

func (f *fakePAS) Issue(ctx context.Context, policyNumber string) (time.Time, error) {
	if err := f.record("Issue"); err != nil {
		return time.Time{}, err
	}
	return time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC), nil
}

func (f *fakePAS) Unbind(ctx context.Context, quoteGUID string) error {
	if err := f.record("Unbind"); err != nil {
		return err
	}
	if ref, ok := f.quotes[quoteGUID]; ok {
		ref.IsBound = false
	}
	return nil
}

func (f *fakePAS) CreateEndorsement(ctx context.Context, in domain.EndorsementInput) (string, error) {
	if err := f.record("CreateEndorsement"); err != nil {
		return "", err
	}
	f.endorsements = append(f.endorsements, in)
	guid := f.nextGUID("endorsement")
	f.quotes[guid] = &domain.QuoteReference{QuoteGUID: guid, Kind: domain.QuoteKindEndorsement}
	return guid, nil
}

func (f *fakePAS) CreateCancellation(ctx context.Context, in domain.CancellationInput) (string, error) {
	if err := f.record("CreateCancellation"); err != nil {
		return "", err
	}
	f.cancellations = append(f.cancellations, in)
	guid := f.nextGUID("cancellation")
	f.quotes[guid] = &domain.QuoteReference{QuoteGUID: guid, Kind: domain.QuoteKindCancellation}
	return guid, nil
}

func (f *fakePAS) CreateReinstatement(ctx context.Context, in domain.ReinstatementInput) (string, error) {
	if err := f.record("CreateReinstatement"); err != nil {
		return "", err
	}
	f.reinstatements = append(f.reinstatements, in)
	guid := f.nextGUID("reinstatement")
	f.quotes[guid] = &domain.QuoteReference{QuoteGUID: guid, Kind: domain.QuoteKindReinstatement}
	return guid, nil
}

// InvoiceService

func (f *fakePAS) GetInvoice(ctx context.Context, quoteGUID string) (domain.Invoice, bool, error) {
	if err := f.record("GetInvoice"); err != nil {
		return domain.Invoice{}, false, err
	}
	f.invoiceAttempts++
	if f.invoiceFoundAt == 0 || f.invoiceAttempts < f.invoiceFoundAt {
		return domain.Invoice{}, false, nil
	}
	return domain.Invoice{InvoiceNumber: "INV-" + quoteGUID, Total: domain.Dollars(100)}, true, nil
}

// DocumentService

func (f *fakePAS) GeneratePolicyDocument(ctx context.Context, policyNumber string) (domain.PolicyDocument, error) {
	if err := f.record("GeneratePolicyDocument"); err != nil {
		return domain.PolicyDocument{}, err
	}
	return domain.PolicyDocument{DocumentGUID: "doc-" + policyNumber}, nil
}

// PayloadRegistrar

func (f *fakePAS) RegisterTransactionPayload(ctx context.Context, raw json.RawMessage, quoteGUID, quoteOptionGUID string) error {
	if err := f.record("RegisterTransactionPayload"); err != nil {
		return err
	}
	f.registered = append(f.registered, quoteGUID+"/"+quoteOptionGUID)
	return nil
}

// QuoteLookup

func (f *fakePAS) FindByOpportunityID(ctx context.Context, id int64) (domain.QuoteReference, error) {
	if err := f.record("FindByOpportunityID"); err != nil {
		return domain.QuoteReference{}, err
	}
	guid, ok := f.byOpportunity[id]
	if !ok {
		return domain.QuoteReference{}, domain.ErrQuoteNotFound
	}
	return f.get(guid)
}

func (f *fakePAS) FindByOptionID(ctx context.Context, id int64) (domain.QuoteReference, error) {
	if err := f.record("FindByOptionID"); err != nil {
		return domain.QuoteReference{}, err
	}
	guid, ok := f.byOption[id]
	if !ok {
		return domain.QuoteReference{}, domain.ErrQuoteNotFound
	}
	return f.get(guid)
}

func (f *fakePAS) FindByPolicyNumber(ctx context.Context, policyNumber string) (domain.QuoteReference, error) {
	if err := f.record("FindByPolicyNumber"); err != nil {
		return domain.QuoteReference{}, err
	}
	for _, ref := range f.quotes {
		if ref.PolicyNumber == policyNumber && ref.ChainLevel == 0 {
			return *ref, nil
		}
	}
	return domain.QuoteReference{}, domain.ErrQuoteNotFound
}

func (f *fakePAS) FindLatestInChain(ctx context.Context, id int64) (domain.QuoteReference, error) {
	if err := f.record("FindLatestInChain"); err != nil {
		return domain.QuoteReference{}, err
	}
	guid, ok := f.latest[id]
	if !ok {
		return domain.QuoteReference{}, domain.ErrQuoteNotFound
	}
	return f.get(guid)
}

func (f *fakePAS) CumulativePremium(ctx context.Context, controlNumber int64) (domain.Money, error) {
	if err := f.record("CumulativePremium"); err != nil {
		return 0, err
	}
	total, ok := f.cumulative[controlNumber]
	if !ok {
		return 0, fmt.Errorf("premium for control number %d: %w", controlNumber, domain.ErrNotFound)
	}
	return total, nil
}

func (f *fakePAS) IsBound(ctx context.Context, quoteGUID string) (bool, error) {
	if err := f.record("IsBound"); err != nil {
		return false, err
	}
	if live, ok := f.liveBound[quoteGUID]; ok {
		return live, nil
	}
	ref, err := f.get(quoteGUID)
	if err != nil {
		return false, err
	}
	return ref.IsBound, nil
}

type fakeAudit struct {
	saveErr  error
	saved    int
	outcomes []domain.Outcome
}

func (a *fakeAudit) SavePayload(ctx context.Context, req domain.Request) error {
	a.saved++
	return a.saveErr
}

func (a *fakeAudit) RecordOutcome(ctx context.Context, req domain.Request, out domain.Outcome) error {
	a.outcomes = append(a.outcomes, out)
	return nil
}

type fakePublisher struct {
	mu     sync.Mutex
	events []events.Event
}

func (p *fakePublisher) Publish(ctx context.Context, e events.Event) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, e)
}

var fixedNow = time.Date(2025, 6, 15, 9, 30, 0, 0, time.UTC)

type harness struct {
	pas    *fakePAS
	audit  *fakeAudit
	events *fakePublisher
	sleeps []time.Duration
	orch   *Orchestrator
}

func newHarness(pas *fakePAS) *harness {
	h := &harness{pas: pas, audit: &fakeAudit{}, events: &fakePublisher{}}
	orch, err := New(Deps{
		Auth:      pas,
		Insureds:  pas,
		Producers: pas,
		Quotes:    pas,
		Policies:  pas,
		Invoices:  pas,
		Documents: pas,
		Payloads:  pas,
		Lookup:    pas,
		Audit:     h.audit,
		Events:    h.events,
	}, Options{
		InvoiceAttempts: 3,
		InvoiceDelay:    2 * time.Second,
		PhoneRegion:     "US",
		Clock:           func() time.Time { return fixedNow },
		Sleep: func(ctx context.Context, d time.Duration) error {
			h.sleeps = append(h.sleeps, d)
			return ctx.Err()
		},
	}, logger.Discard(), nil)
	if err != nil {
		panic(err)
	}
	h.orch = orch
	return h
}

func int64p(v int64) *int64 { return &v }

func moneyp(m domain.Money) *domain.Money { return &m }

func newBindRequest(opportunityID *int64) *domain.BindRequest {
	return &domain.BindRequest{
		Envelope: domain.Envelope{
			TransactionID: "txn-bind",
			Type:          domain.TypeBind,
			Keys:          domain.LookupKeys{OpportunityID: opportunityID},
			Raw:           json.RawMessage(`{"transaction_type":"bind"}`),
		},
		Insured: domain.Insured{
			Name:  "Acme Roofing LLC",
			Phone: "(201) 555-0123",
		},
		ProducerName:    "Summit Brokerage",
		UnderwriterName: "Dana Lee",
		LineOfBusiness:  "GL",
		State:           "TX",
		EffectiveDate:   "2025-07-01",
		GrossPremium:    moneyp(domain.Dollars(1200)),
		PolicyFee:       domain.Dollars(150),
	}
}
