// Package service implements the transaction orchestrator: it validates an
// inbound transaction, resolves the remote quote state it applies to and
// drives the fixed sequence of PAS calls for its type.
package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"runtime/debug"
	"time"

	"pasbridge/internal/events"
	"pasbridge/internal/transactions/domain"
	"pasbridge/internal/transactions/ports"
	"pasbridge/platform/apperr"
	"pasbridge/platform/logger"
	"pasbridge/platform/metrics"
)

const (
	defaultInvoiceAttempts = 3
	defaultInvoiceDelay    = 2 * time.Second

	msgAuditSaveFailed   = "orchestrator: audit payload save failed, continuing"
	msgAuditRecordFailed = "orchestrator: audit outcome record failed"
	msgRecoveredPanic    = "orchestrator: recovered panic"
	internalFailureMsg   = "Internal error while processing transaction"
	authFailureMsg       = "PAS authentication failed"
	alreadyBoundMsg      = "Policy Already Bound"
)

// Deps are the collaborators the orchestrator calls. Audit and Events are
// optional; every other field is required.
type Deps struct {
	Auth      ports.Authenticator
	Insureds  ports.InsuredService
	Producers ports.ProducerService
	Quotes    ports.QuoteService
	Policies  ports.PolicyService
	Invoices  ports.InvoiceService
	Documents ports.DocumentService
	Payloads  ports.PayloadRegistrar
	Lookup    ports.QuoteLookup
	Audit     ports.AuditStore
	Events    ports.EventPublisher
}

// Options tune retry behaviour and inject time for tests.
type Options struct {
	InvoiceAttempts int
	InvoiceDelay    time.Duration
	PhoneRegion     string
	Clock           ports.Clock
	// Sleep waits d or returns ctx.Err(); defaults to a timer.
	Sleep func(ctx context.Context, d time.Duration) error
}

// Orchestrator processes one transaction per Process call. It keeps no
// mutable state between calls and is safe for concurrent use.
type Orchestrator struct {
	auth      ports.Authenticator
	insureds  ports.InsuredService
	producers ports.ProducerService
	quotes    ports.QuoteService
	policies  ports.PolicyService
	invoices  ports.InvoiceService
	documents ports.DocumentService
	payloads  ports.PayloadRegistrar
	lookup    ports.QuoteLookup
	audit     ports.AuditStore
	events    ports.EventPublisher

	invoiceAttempts int
	invoiceDelay    time.Duration
	phoneRegion     string
	now             ports.Clock
	sleep           func(ctx context.Context, d time.Duration) error

	log     *logger.Logger
	metrics *metrics.Metrics
}

// New wires an orchestrator. It returns an error when a required port is nil.
func New(deps Deps, opts Options, log *logger.Logger, m *metrics.Metrics) (*Orchestrator, error) {
	required := map[string]any{
		"Auth": deps.Auth, "Insureds": deps.Insureds, "Producers": deps.Producers,
		"Quotes": deps.Quotes, "Policies": deps.Policies, "Invoices": deps.Invoices,
		"Documents": deps.Documents, "Payloads": deps.Payloads, "Lookup": deps.Lookup,
	}
	for name, dep := range required {
		if dep == nil {
			return nil, fmt.Errorf("orchestrator: missing dependency %s", name)
		}
	}

	o := &Orchestrator{
		auth:            deps.Auth,
		insureds:        deps.Insureds,
		producers:       deps.Producers,
		quotes:          deps.Quotes,
		policies:        deps.Policies,
		invoices:        deps.Invoices,
		documents:       deps.Documents,
		payloads:        deps.Payloads,
		lookup:          deps.Lookup,
		audit:           deps.Audit,
		events:          deps.Events,
		invoiceAttempts: opts.InvoiceAttempts,
		invoiceDelay:    opts.InvoiceDelay,
		phoneRegion:     opts.PhoneRegion,
		now:             opts.Clock,
		sleep:           opts.Sleep,
		log:             log,
		metrics:         m,
	}
	if o.invoiceAttempts < 1 {
		o.invoiceAttempts = defaultInvoiceAttempts
	}
	if o.invoiceDelay < 0 {
		o.invoiceDelay = defaultInvoiceDelay
	}
	if o.now == nil {
		o.now = time.Now
	}
	if o.sleep == nil {
		o.sleep = sleepContext
	}
	if o.log == nil {
		o.log = logger.Discard()
	}
	return o, nil
}

// workflow is the per-attempt state handed to workflow bodies.
type workflow struct {
	result *domain.WorkflowResult
	log    *logger.Logger
	raw    json.RawMessage
}

// Process runs one transaction to a terminal outcome. It never panics and
// never returns a nil Result.
func (o *Orchestrator) Process(ctx context.Context, req domain.Request) (out domain.Outcome) {
	start := o.now()
	meta := req.Meta()
	wf := &workflow{
		result: domain.NewWorkflowResult(),
		log:    o.log.WithContext(ctx).WithTransaction(meta.TransactionID, string(meta.Type)),
		raw:    meta.Raw,
	}

	defer func() {
		if r := recover(); r != nil {
			wf.log.Error(msgRecoveredPanic, "panic", fmt.Sprint(r), "stack", string(debug.Stack()))
			out = o.finish(ctx, req, wf, apperr.Internal(internalFailureMsg), start)
		}
	}()

	err := o.run(ctx, req, wf)
	return o.finish(ctx, req, wf, err, start)
}

func (o *Orchestrator) run(ctx context.Context, req domain.Request, wf *workflow) error {
	if err := req.Validate(); err != nil {
		return err
	}

	if err := o.auth.Authenticate(ctx); err != nil {
		return apperr.Wrap(apperr.KindUnauthorized, authFailureMsg, err).WithOp("authenticate")
	}

	if o.audit != nil {
		if err := o.audit.SavePayload(ctx, req); err != nil {
			wf.log.Warn(msgAuditSaveFailed, "error", err)
			o.metrics.IncrementAuditFailure("payload")
		}
	}

	return o.dispatch(ctx, req, wf)
}

func (o *Orchestrator) dispatch(ctx context.Context, req domain.Request, wf *workflow) error {
	switch r := req.(type) {
	case *domain.BindRequest:
		return o.bind(ctx, r, wf)
	case *domain.UnbindRequest:
		return o.unbind(ctx, r, wf)
	case *domain.IssueRequest:
		return o.issue(ctx, r, wf)
	case *domain.EndorsementRequest:
		return o.endorse(ctx, r, wf)
	case *domain.CancellationRequest:
		return o.cancel(ctx, r, wf)
	case *domain.ReinstatementRequest:
		return o.reinstate(ctx, r, wf)
	default:
		return apperr.Validation(fmt.Sprintf("unsupported transaction type %q", req.Meta().Type))
	}
}

func (o *Orchestrator) finish(ctx context.Context, req domain.Request, wf *workflow, err error, start time.Time) domain.Outcome {
	meta := req.Meta()
	out := domain.Outcome{
		TransactionID: meta.TransactionID,
		Type:          meta.Type,
		Result:        wf.result,
	}

	if err != nil {
		out.Err = asAppError(err)
		wf.result.Set(domain.FieldStatus, domain.StatusFailed)
	} else {
		out.Success = true
		wf.result.Set(domain.FieldStatus, domain.StatusCompleted)
	}
	out.Message = Summarize(meta.Type, out)

	elapsed := o.now().Sub(start)
	wf.log.TransactionOutcome(out.Success, out.ErrorKind(), out.Message)
	o.metrics.ObserveTransaction(string(meta.Type), out.Success, out.ErrorKind(), elapsed)

	detached := context.WithoutCancel(ctx)
	if o.audit != nil {
		if auditErr := o.audit.RecordOutcome(detached, req, out); auditErr != nil {
			wf.log.Warn(msgAuditRecordFailed, "error", auditErr)
			o.metrics.IncrementAuditFailure("outcome")
		}
	}
	if o.events != nil {
		o.events.Publish(detached, processedEvent(meta, out, elapsed, o.now()))
	}
	return out
}

func processedEvent(meta *domain.Envelope, out domain.Outcome, elapsed time.Duration, at time.Time) events.TransactionProcessed {
	raw, _ := json.Marshal(out.Result)
	policyNumber := out.Result.Text(domain.FieldBoundPolicyNumber)
	if policyNumber == "" {
		policyNumber = meta.Keys.PolicyNumber
	}
	return events.TransactionProcessed{
		BaseEvent:       events.NewBaseEventAt(at),
		TransactionID:   meta.TransactionID,
		TransactionType: string(meta.Type),
		Success:         out.Success,
		ErrorKind:       out.ErrorKind(),
		Message:         out.Message,
		Duration:        elapsed,
		OpportunityID:   meta.Keys.OpportunityID,
		PolicyNumber:    policyNumber,
		Result:          raw,
		Warnings:        out.Result.Warnings,
		PartialState:    hasPartialState(out),
	}
}

// hasPartialState reports a remote failure after the PAS already holds
// records created by this attempt.
func hasPartialState(out domain.Outcome) bool {
	if out.Success || out.Err == nil || out.Err.Kind != apperr.KindRemote {
		return false
	}
	for _, key := range []string{
		domain.FieldInsuredGUID,
		domain.FieldQuoteGUID,
		domain.FieldEndorsementQuoteGUID,
		domain.FieldCancellationQuoteGUID,
		domain.FieldReinstatementQuoteGUID,
	} {
		if out.Result.Has(key) {
			return true
		}
	}
	return false
}

// asAppError keeps typed errors and treats anything else as internal.
func asAppError(err error) *apperr.Error {
	if appErr, ok := apperr.As(err); ok {
		return appErr
	}
	return apperr.Wrap(apperr.KindInternal, internalFailureMsg, err)
}

// remoteFailure wraps a failed mutating PAS call. The PAS message is kept
// verbatim; op only shows up in logs.
func remoteFailure(op string, err error) error {
	if appErr, ok := apperr.As(err); ok {
		return appErr
	}
	return apperr.Remote(err.Error(), err).WithOp(op)
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

func isNotFound(err error) bool {
	return errors.Is(err, domain.ErrNotFound)
}
