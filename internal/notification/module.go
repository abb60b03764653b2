// Package notification subscribes to transaction events and alerts operators
// when a transaction left records in the PAS that need manual follow-up.
package notification

import (
	"context"
	"encoding/json"

	"pasbridge/internal/email"
	"pasbridge/internal/events"
	"pasbridge/platform/config"
	"pasbridge/platform/logger"
)

// Module handles transaction events. It is not HTTP-facing.
type Module struct {
	sender     email.Sender
	recipients []string
	log        *logger.Logger
}

// New creates the notification module.
func New(sender email.Sender, cfg config.SMTPConfig, log *logger.Logger) *Module {
	return &Module{
		sender:     sender,
		recipients: cfg.GetAlertRecipients(),
		log:        log,
	}
}

// RegisterHandlers subscribes to the transaction events on the bus.
func (m *Module) RegisterHandlers(bus events.Bus) {
	bus.Subscribe(events.TransactionProcessedName, m)
}

// Handle routes events to the appropriate handler method.
func (m *Module) Handle(ctx context.Context, event events.Event) error {
	switch e := event.(type) {
	case events.TransactionProcessed:
		return m.handleTransactionProcessed(ctx, e)
	default:
		return nil
	}
}

func (m *Module) handleTransactionProcessed(ctx context.Context, e events.TransactionProcessed) error {
	if !e.PartialState {
		return nil
	}

	log := m.log.WithTransaction(e.TransactionID, e.TransactionType)
	log.Warn("notification: transaction left partial state in PAS",
		"error_kind", e.ErrorKind,
		"message", e.Message,
	)
	if len(m.recipients) == 0 {
		return nil
	}

	if err := m.sender.SendTransactionAlert(ctx, m.recipients, alertFromEvent(e)); err != nil {
		log.Error("notification: failed to send transaction alert", "error", err)
		return err
	}
	log.Info("notification: transaction alert sent", "recipients", len(m.recipients))
	return nil
}

func alertFromEvent(e events.TransactionProcessed) email.TransactionAlert {
	var result map[string]any
	if len(e.Result) > 0 {
		_ = json.Unmarshal(e.Result, &result)
		delete(result, "warnings")
	}
	return email.TransactionAlert{
		TransactionID:   e.TransactionID,
		TransactionType: e.TransactionType,
		ErrorKind:       e.ErrorKind,
		Message:         e.Message,
		PolicyNumber:    e.PolicyNumber,
		OpportunityID:   e.OpportunityID,
		OccurredAt:      e.OccurredAt(),
		Result:          result,
		Warnings:        e.Warnings,
	}
}
