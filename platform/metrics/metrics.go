// Package metrics holds the Prometheus collectors for the bridge.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for transaction processing and PAS traffic.
type Metrics struct {
	// Terminal outcomes by transaction type, result and error kind
	TransactionOutcome *prometheus.CounterVec

	// End-to-end orchestration latency by transaction type
	TransactionLatency *prometheus.HistogramVec

	// Individual PAS RPC latency by service, method and result
	PASCallLatency *prometheus.HistogramVec

	PASLogins       prometheus.Counter
	InvoiceAttempts *prometheus.CounterVec
	AuditFailures   *prometheus.CounterVec
	AsyncEnqueued   *prometheus.CounterVec
}

// New registers all collectors on reg. Pass prometheus.DefaultRegisterer in
// binaries and a fresh registry in tests.
func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		TransactionOutcome: f.NewCounterVec(prometheus.CounterOpts{
			Name: "pasbridge_transaction_outcomes_total",
			Help: "Total processed transactions by type, result and error kind",
		}, []string{"type", "result", "kind"}),

		TransactionLatency: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "pasbridge_transaction_duration_seconds",
			Help:    "Duration of a full transaction orchestration",
			Buckets: []float64{0.25, 0.5, 1, 2.5, 5, 10, 20, 40, 80},
		}, []string{"type"}),

		PASCallLatency: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "pasbridge_pas_call_duration_seconds",
			Help:    "Duration of PAS remote procedure calls",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		}, []string{"service", "method", "result"}),

		PASLogins: f.NewCounter(prometheus.CounterOpts{
			Name: "pasbridge_pas_logins_total",
			Help: "Total PAS login round trips",
		}),

		InvoiceAttempts: f.NewCounterVec(prometheus.CounterOpts{
			Name: "pasbridge_invoice_attempts_total",
			Help: "Invoice retrieval attempts by result",
		}, []string{"result"}), // result: "found", "missing", "error"

		AuditFailures: f.NewCounterVec(prometheus.CounterOpts{
			Name: "pasbridge_audit_failures_total",
			Help: "Best-effort audit writes that failed, by sink",
		}, []string{"sink"}),

		AsyncEnqueued: f.NewCounterVec(prometheus.CounterOpts{
			Name: "pasbridge_async_enqueued_total",
			Help: "Transactions handed to the async queue by type",
		}, []string{"type"}),
	}
}

// ObserveTransaction records one terminal outcome and its latency.
func (m *Metrics) ObserveTransaction(txType string, success bool, kind string, d time.Duration) {
	if m == nil {
		return
	}
	result := "failure"
	if success {
		result = "success"
		kind = ""
	}
	m.TransactionOutcome.WithLabelValues(txType, result, kind).Inc()
	m.TransactionLatency.WithLabelValues(txType).Observe(d.Seconds())
}

// ObservePASCall records the duration of a PAS RPC.
func (m *Metrics) ObservePASCall(service, method string, d time.Duration, err error) {
	if m == nil {
		return
	}
	result := "ok"
	if err != nil {
		result = "error"
	}
	m.PASCallLatency.WithLabelValues(service, method, result).Observe(d.Seconds())
}

// IncrementPASLogins counts one login round trip.
func (m *Metrics) IncrementPASLogins() {
	if m != nil {
		m.PASLogins.Inc()
	}
}

// IncrementInvoiceAttempt counts one invoice lookup.
func (m *Metrics) IncrementInvoiceAttempt(result string) {
	if m != nil {
		m.InvoiceAttempts.WithLabelValues(result).Inc()
	}
}

// IncrementAuditFailure counts a failed best-effort audit write.
func (m *Metrics) IncrementAuditFailure(sink string) {
	if m != nil {
		m.AuditFailures.WithLabelValues(sink).Inc()
	}
}

// IncrementAsyncEnqueued counts a transaction accepted for background processing.
func (m *Metrics) IncrementAsyncEnqueued(txType string) {
	if m != nil {
		m.AsyncEnqueued.WithLabelValues(txType).Inc()
	}
}
