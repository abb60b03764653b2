// Package email renders and delivers operator alert mails.
package email

import (
	"context"
	"time"

	"pasbridge/platform/config"
)

// TransactionAlert describes a transaction that needs manual follow-up.
type TransactionAlert struct {
	TransactionID   string
	TransactionType string
	ErrorKind       string
	Message         string
	PolicyNumber    string
	OpportunityID   *int64
	OccurredAt      time.Time
	Result          map[string]any
	Warnings        []string
}

type Sender interface {
	SendTransactionAlert(ctx context.Context, to []string, alert TransactionAlert) error
}

type NoopSender struct{}

func (NoopSender) SendTransactionAlert(context.Context, []string, TransactionAlert) error {
	return nil
}

// NewSender returns an SMTP sender, or a no-op sender when alerting is disabled.
func NewSender(cfg config.SMTPConfig) Sender {
	if !cfg.IsAlertingEnabled() {
		return NoopSender{}
	}
	return NewSMTPSender(cfg.GetSMTPHost(), cfg.GetSMTPPort(), cfg.GetSMTPUsername(), cfg.GetSMTPPassword(), cfg.GetSMTPFromAddress(), cfg.GetSMTPFromName())
}
