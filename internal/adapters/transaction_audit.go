package adapters

import (
	"context"

	"pasbridge/internal/transactions/domain"
	"pasbridge/internal/transactions/ports"
	"pasbridge/platform/logger"
	"pasbridge/platform/metrics"
)

// AuditRepository is the durable audit sink.
type AuditRepository interface {
	SavePayload(ctx context.Context, req domain.Request, archiveKey string) error
	RecordOutcome(ctx context.Context, req domain.Request, outcome domain.Outcome) error
}

// PayloadArchiver copies the raw payload to object storage.
type PayloadArchiver interface {
	Archive(ctx context.Context, req domain.Request) (string, error)
}

// TransactionAudit fans the audit port out to the Postgres audit table and,
// when configured, the payload archive. An archive failure never blocks the
// database write.
type TransactionAudit struct {
	repo    AuditRepository
	archive PayloadArchiver
	log     *logger.Logger
	metrics *metrics.Metrics
}

// NewTransactionAudit creates the audit adapter. archive may be nil.
func NewTransactionAudit(repo AuditRepository, archive PayloadArchiver, log *logger.Logger, m *metrics.Metrics) *TransactionAudit {
	return &TransactionAudit{repo: repo, archive: archive, log: log, metrics: m}
}

// SavePayload archives the payload and inserts the audit row.
func (a *TransactionAudit) SavePayload(ctx context.Context, req domain.Request) error {
	var key string
	if a.archive != nil {
		archived, err := a.archive.Archive(ctx, req)
		if err != nil {
			a.metrics.IncrementAuditFailure("archive")
			a.log.WithContext(ctx).Warn("audit: payload archive failed", "transactionId", req.Meta().TransactionID, "error", err)
		} else {
			key = archived
		}
	}

	return a.repo.SavePayload(ctx, req, key)
}

// RecordOutcome stores the terminal outcome on the audit row.
func (a *TransactionAudit) RecordOutcome(ctx context.Context, req domain.Request, outcome domain.Outcome) error {
	return a.repo.RecordOutcome(ctx, req, outcome)
}

// Compile-time check that TransactionAudit implements ports.AuditStore.
var _ ports.AuditStore = (*TransactionAudit)(nil)
