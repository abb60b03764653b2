package transactions

import (
	"time"

	"pasbridge/internal/pas"
	"pasbridge/internal/scheduler"
	"pasbridge/internal/transactions/domain"
	"pasbridge/internal/transactions/ports"
	"pasbridge/internal/transactions/service"
	"pasbridge/internal/transactions/transport"
	"pasbridge/platform/config"
	"pasbridge/platform/logger"
	"pasbridge/platform/metrics"
	"pasbridge/platform/validator"
)

// NewOrchestrator binds the orchestrator to the PAS adapters. audit and
// publisher may be nil.
func NewOrchestrator(svcs *pas.Services, audit ports.AuditStore, publisher ports.EventPublisher, cfg config.WorkflowConfig, log *logger.Logger, m *metrics.Metrics) (*service.Orchestrator, error) {
	return service.New(service.Deps{
		Auth:      svcs.Session,
		Insureds:  svcs.Insureds,
		Producers: svcs.Producers,
		Quotes:    svcs.Quotes,
		Policies:  svcs.Policies,
		Invoices:  svcs.Invoices,
		Documents: svcs.Documents,
		Payloads:  svcs.Data,
		Lookup:    svcs.Data,
		Audit:     audit,
		Events:    publisher,
	}, service.Options{
		InvoiceAttempts: cfg.GetInvoiceAttempts(),
		InvoiceDelay:    cfg.GetInvoiceDelay(),
		PhoneRegion:     cfg.GetPhoneRegion(),
	}, log, m)
}

// QueueDecoder decodes queued payloads with the receive time of the original
// HTTP request, so both paths derive the same audit row.
func QueueDecoder(val *validator.Validator) scheduler.DecodeFunc {
	return func(raw []byte, payload scheduler.ProcessTransactionPayload) (domain.Request, error) {
		receivedAt := payload.ReceivedAt
		if receivedAt.IsZero() {
			receivedAt = time.Now()
		}
		return transport.Decode(raw, val, receivedAt)
	}
}
