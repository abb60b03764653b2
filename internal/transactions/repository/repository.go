package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"pasbridge/internal/transactions/domain"
	"pasbridge/platform/apperr"
)

// auditNamespace seeds the deterministic ids of audit rows.
var auditNamespace = uuid.MustParse("6f1d8a52-3c4e-4b9b-9a51-2f7d0c8e5b14")

// AuditRecord is the database model of one processing attempt.
type AuditRecord struct {
	ID              uuid.UUID       `db:"id"`
	TransactionID   string          `db:"transaction_id"`
	TransactionType string          `db:"transaction_type"`
	OpportunityID   *int64          `db:"opportunity_id"`
	OptionID        *int64          `db:"option_id"`
	PolicyNumber    *string         `db:"policy_number"`
	RawPayload      json.RawMessage `db:"raw_payload"`
	ArchiveKey      *string         `db:"archive_key"`
	ReceivedAt      time.Time       `db:"received_at"`
	CompletedAt     *time.Time      `db:"completed_at"`
	Success         *bool           `db:"success"`
	ErrorKind       *string         `db:"error_kind"`
	Message         *string         `db:"message"`
	Result          json.RawMessage `db:"result"`
}

const auditNotFoundMsg = "transaction not found"

// Repository stores transaction audit rows.
type Repository struct {
	pool *pgxpool.Pool
}

// New creates a new audit repository.
func New(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// AuditID derives the row id of an attempt from its transaction id and
// receive time, so the payload and the outcome land on the same row.
func AuditID(env *domain.Envelope) uuid.UUID {
	return uuid.NewSHA1(auditNamespace, []byte(env.TransactionID+"|"+env.ReceivedAt.UTC().Format(time.RFC3339Nano)))
}

// SavePayload inserts the raw payload of a new attempt.
func (r *Repository) SavePayload(ctx context.Context, req domain.Request, archiveKey string) error {
	env := req.Meta()
	raw := env.Raw
	if len(raw) == 0 {
		raw = json.RawMessage("{}")
	}

	_, err := r.pool.Exec(ctx, `
		INSERT INTO transaction_audit (
			id, transaction_id, transaction_type, opportunity_id, option_id,
			policy_number, raw_payload, archive_key, received_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (id) DO UPDATE SET
			raw_payload = EXCLUDED.raw_payload,
			archive_key = COALESCE(EXCLUDED.archive_key, transaction_audit.archive_key)`,
		AuditID(env), env.TransactionID, string(env.Type), env.Keys.OpportunityID, env.Keys.OptionID,
		nullIfEmpty(env.Keys.PolicyNumber), []byte(raw), nullIfEmpty(archiveKey), receivedAt(env),
	)
	if err != nil {
		return fmt.Errorf("failed to save transaction payload: %w", err)
	}
	return nil
}

// RecordOutcome stores the terminal state. It creates the row when the
// payload insert was lost.
func (r *Repository) RecordOutcome(ctx context.Context, req domain.Request, outcome domain.Outcome) error {
	env := req.Meta()
	raw := env.Raw
	if len(raw) == 0 {
		raw = json.RawMessage("{}")
	}

	var result []byte
	if outcome.Result != nil {
		encoded, err := json.Marshal(outcome.Result)
		if err != nil {
			return fmt.Errorf("failed to encode workflow result: %w", err)
		}
		result = encoded
	}

	_, err := r.pool.Exec(ctx, `
		INSERT INTO transaction_audit (
			id, transaction_id, transaction_type, opportunity_id, option_id,
			policy_number, raw_payload, received_at,
			completed_at, success, error_kind, message, result
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, now(), $9, $10, $11, $12)
		ON CONFLICT (id) DO UPDATE SET
			completed_at = now(),
			success = EXCLUDED.success,
			error_kind = EXCLUDED.error_kind,
			message = EXCLUDED.message,
			result = EXCLUDED.result`,
		AuditID(env), env.TransactionID, string(env.Type), env.Keys.OpportunityID, env.Keys.OptionID,
		nullIfEmpty(env.Keys.PolicyNumber), []byte(raw), receivedAt(env),
		outcome.Success, nullIfEmpty(outcome.ErrorKind()), outcome.Message, result,
	)
	if err != nil {
		return fmt.Errorf("failed to record transaction outcome: %w", err)
	}
	return nil
}

const selectAudit = `
	SELECT id, transaction_id, transaction_type, opportunity_id, option_id, policy_number,
		raw_payload, archive_key, received_at, completed_at, success, error_kind, message, result
	FROM transaction_audit`

// GetLatest returns the most recent attempt for a transaction id.
func (r *Repository) GetLatest(ctx context.Context, transactionID string) (AuditRecord, error) {
	row := r.pool.QueryRow(ctx, selectAudit+`
		WHERE transaction_id = $1
		ORDER BY received_at DESC
		LIMIT 1`, transactionID)

	rec, err := scanAudit(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return AuditRecord{}, apperr.NotFound(auditNotFoundMsg)
		}
		return AuditRecord{}, fmt.Errorf("failed to get transaction audit: %w", err)
	}
	return rec, nil
}

// ListByOpportunity returns the newest attempts for one policy lineage.
func (r *Repository) ListByOpportunity(ctx context.Context, opportunityID int64, limit int) ([]AuditRecord, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	rows, err := r.pool.Query(ctx, selectAudit+`
		WHERE opportunity_id = $1
		ORDER BY received_at DESC
		LIMIT $2`, opportunityID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list transaction audit: %w", err)
	}
	defer rows.Close()

	records := make([]AuditRecord, 0)
	for rows.Next() {
		rec, err := scanAudit(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan transaction audit: %w", err)
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to list transaction audit: %w", err)
	}
	return records, nil
}

// DeleteFinishedBefore removes completed attempts older than the cutoffs.
// Attempts without an outcome are kept.
func (r *Repository) DeleteFinishedBefore(ctx context.Context, succeededBefore, failedBefore time.Time) (int64, error) {
	tag, err := r.pool.Exec(ctx, `
		DELETE FROM transaction_audit
		WHERE completed_at IS NOT NULL
		  AND ((success AND completed_at < $1) OR (NOT success AND completed_at < $2))`,
		succeededBefore, failedBefore)
	if err != nil {
		return 0, fmt.Errorf("failed to prune transaction audit: %w", err)
	}
	return tag.RowsAffected(), nil
}

func scanAudit(row pgx.Row) (AuditRecord, error) {
	var rec AuditRecord
	var raw, result []byte
	err := row.Scan(
		&rec.ID, &rec.TransactionID, &rec.TransactionType, &rec.OpportunityID, &rec.OptionID, &rec.PolicyNumber,
		&raw, &rec.ArchiveKey, &rec.ReceivedAt, &rec.CompletedAt, &rec.Success, &rec.ErrorKind, &rec.Message, &result,
	)
	if err != nil {
		return AuditRecord{}, err
	}
	rec.RawPayload = raw
	rec.Result = result
	return rec, nil
}

func receivedAt(env *domain.Envelope) time.Time {
	if env.ReceivedAt.IsZero() {
		return time.Now().UTC()
	}
	return env.ReceivedAt
}

func nullIfEmpty(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
