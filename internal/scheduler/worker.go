package scheduler

import (
	"context"
	"fmt"

	"github.com/hibiken/asynq"

	"pasbridge/internal/transactions/domain"
	"pasbridge/platform/config"
	"pasbridge/platform/logger"
)

// TransactionProcessor runs one decoded transaction.
type TransactionProcessor interface {
	Process(ctx context.Context, req domain.Request) domain.Outcome
}

// DecodeFunc turns a queued raw payload back into a request variant.
type DecodeFunc func(raw []byte, payload ProcessTransactionPayload) (domain.Request, error)

type Worker struct {
	server    *asynq.Server
	mux       *asynq.ServeMux
	processor TransactionProcessor
	decode    DecodeFunc
	log       *logger.Logger
}

func NewWorker(cfg config.SchedulerConfig, processor TransactionProcessor, decode DecodeFunc, log *logger.Logger) (*Worker, error) {
	redisURL := cfg.GetRedisURL()
	if redisURL == "" {
		return nil, fmt.Errorf("redis url not configured")
	}

	opt, err := redisClientOpt(redisURL, cfg.GetRedisTLSInsecure())
	if err != nil {
		return nil, err
	}

	queue := cfg.GetAsynqQueueName()
	if queue == "" {
		queue = "default"
	}

	concurrency := cfg.GetAsynqConcurrency()
	if concurrency < 1 {
		concurrency = 4
	}

	server := asynq.NewServer(opt, asynq.Config{
		Concurrency: concurrency,
		Queues: map[string]int{
			queue: 1,
		},
	})

	mux := asynq.NewServeMux()
	w := &Worker{
		server:    server,
		mux:       mux,
		processor: processor,
		decode:    decode,
		log:       log,
	}

	mux.HandleFunc(TaskProcessTransaction, w.handleProcessTransaction)

	return w, nil
}

func (w *Worker) Run(ctx context.Context) {
	if w == nil || w.server == nil {
		return
	}

	go func() {
		<-ctx.Done()
		w.server.Shutdown()
	}()

	if err := w.server.Run(w.mux); err != nil {
		w.log.Error("scheduler worker stopped", "error", err)
	}
}

// handleProcessTransaction never asks asynq to retry. A business failure is
// a terminal outcome already recorded by the orchestrator.
func (w *Worker) handleProcessTransaction(ctx context.Context, task *asynq.Task) error {
	payload, err := ParseProcessTransactionPayload(task)
	if err != nil {
		return fmt.Errorf("decode task payload: %v: %w", err, asynq.SkipRetry)
	}

	req, err := w.decode(payload.Payload, payload)
	if err != nil {
		w.log.Warn("scheduler: queued transaction rejected", "transactionId", payload.TransactionID, "error", err)
		return fmt.Errorf("decode transaction %s: %v: %w", payload.TransactionID, err, asynq.SkipRetry)
	}

	ctx = context.WithValue(ctx, logger.TransactionIDKey, payload.TransactionID)
	out := w.processor.Process(ctx, req)
	w.log.Info("scheduler: transaction processed",
		"transactionId", out.TransactionID,
		"taskId", payload.TaskID,
		"success", out.Success,
		"kind", out.ErrorKind(),
	)
	return nil
}
