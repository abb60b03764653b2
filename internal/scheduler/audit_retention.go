package scheduler

import (
	"context"
	"time"

	"pasbridge/platform/config"
	"pasbridge/platform/logger"
)

const (
	defaultAuditCleanupInterval  = time.Hour
	defaultAuditSuccessRetention = 90 * 24 * time.Hour
	defaultAuditFailureRetention = 365 * 24 * time.Hour
)

// AuditPruner deletes finished audit rows.
type AuditPruner interface {
	DeleteFinishedBefore(ctx context.Context, succeededBefore, failedBefore time.Time) (int64, error)
}

// AuditRetention periodically removes old finished transaction audit rows.
// Failed attempts are kept longer for manual follow-up.
type AuditRetention struct {
	repo             AuditPruner
	log              *logger.Logger
	interval         time.Duration
	successRetention time.Duration
	failureRetention time.Duration
	now              func() time.Time
}

func NewAuditRetention(repo AuditPruner, cfg config.AuditConfig, log *logger.Logger) *AuditRetention {
	interval := cfg.GetAuditCleanupInterval()
	if interval <= 0 {
		interval = defaultAuditCleanupInterval
	}
	successRetention := cfg.GetAuditSuccessRetention()
	if successRetention <= 0 {
		successRetention = defaultAuditSuccessRetention
	}
	failureRetention := cfg.GetAuditFailureRetention()
	if failureRetention <= 0 {
		failureRetention = defaultAuditFailureRetention
	}

	return &AuditRetention{
		repo:             repo,
		log:              log,
		interval:         interval,
		successRetention: successRetention,
		failureRetention: failureRetention,
		now:              time.Now,
	}
}

func (c *AuditRetention) Run(ctx context.Context) {
	if c == nil || c.repo == nil {
		return
	}

	c.cleanup(ctx)

	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			c.cleanup(ctx)
		}
	}
}

func (c *AuditRetention) cleanup(ctx context.Context) {
	now := c.now()
	deleted, err := c.repo.DeleteFinishedBefore(ctx, now.Add(-c.successRetention), now.Add(-c.failureRetention))
	if err != nil {
		c.log.Warn("audit retention cleanup failed", "error", err)
		return
	}

	if deleted > 0 {
		c.log.Info("audit retention cleanup deleted finished transactions", "deleted", deleted)
	}
}
