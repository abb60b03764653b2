package scheduler

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"time"

	"github.com/hibiken/asynq"
	"github.com/redis/go-redis/v9"

	"pasbridge/platform/apperr"
	"pasbridge/platform/config"
)

const (
	processTimeout = 10 * time.Minute
	taskRetention  = 24 * time.Hour
)

type Client struct {
	client *asynq.Client
	queue  string
}

func NewClient(cfg config.SchedulerConfig) (*Client, error) {
	redisURL := cfg.GetRedisURL()
	if redisURL == "" {
		return nil, fmt.Errorf("redis url not configured")
	}

	opt, err := redisClientOpt(redisURL, cfg.GetRedisTLSInsecure())
	if err != nil {
		return nil, err
	}

	return newClient(asynq.NewClient(opt), cfg.GetAsynqQueueName()), nil
}

func newClient(client *asynq.Client, queue string) *Client {
	if queue == "" {
		queue = "default"
	}
	return &Client{client: client, queue: queue}
}

func (c *Client) Close() error {
	if c == nil || c.client == nil {
		return nil
	}
	return c.client.Close()
}

// EnqueueTransaction queues a transaction for the worker. The task id is
// derived from the transaction id, so a transaction can be queued once per
// retention window. Tasks are never retried: PAS mutations are not idempotent.
func (c *Client) EnqueueTransaction(ctx context.Context, payload ProcessTransactionPayload) error {
	if c == nil || c.client == nil {
		return apperr.Internal("async processing is not configured")
	}

	task, err := NewProcessTransactionTask(payload)
	if err != nil {
		return err
	}

	_, err = c.client.EnqueueContext(ctx, task,
		asynq.Queue(c.queue),
		asynq.TaskID(TaskIDFor(payload.TransactionID)),
		asynq.MaxRetry(0),
		asynq.Timeout(processTimeout),
		asynq.Retention(taskRetention),
	)
	if errors.Is(err, asynq.ErrTaskIDConflict) {
		return apperr.Conflict(fmt.Sprintf("transaction %s is already queued", payload.TransactionID))
	}
	return err
}

// TaskIDFor is the asynq task id used for a transaction.
func TaskIDFor(transactionID string) string {
	return "txn:" + transactionID
}

// NewRedisClient opens a go-redis client on the scheduler's Redis, for
// components that share it outside of asynq.
func NewRedisClient(cfg config.SchedulerConfig) (*redis.Client, error) {
	if cfg.GetRedisURL() == "" {
		return nil, fmt.Errorf("redis url not configured")
	}
	opt, err := redisOptions(cfg.GetRedisURL(), cfg.GetRedisTLSInsecure())
	if err != nil {
		return nil, err
	}
	return redis.NewClient(opt), nil
}

func redisOptions(redisURL string, tlsInsecure bool) (*redis.Options, error) {
	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, err
	}

	if opt.TLSConfig != nil {
		clone := opt.TLSConfig.Clone()
		if tlsInsecure {
			clone.InsecureSkipVerify = true
		}
		opt.TLSConfig = clone
	} else if tlsInsecure {
		opt.TLSConfig = &tls.Config{InsecureSkipVerify: true}
	}
	return opt, nil
}

func redisClientOpt(redisURL string, tlsInsecure bool) (asynq.RedisClientOpt, error) {
	opt, err := redisOptions(redisURL, tlsInsecure)
	if err != nil {
		return asynq.RedisClientOpt{}, err
	}

	return asynq.RedisClientOpt{
		Addr:      opt.Addr,
		Password:  opt.Password,
		DB:        opt.DB,
		TLSConfig: opt.TLSConfig,
	}, nil
}
