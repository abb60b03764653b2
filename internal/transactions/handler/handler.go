package handler

import (
	"context"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"pasbridge/internal/scheduler"
	"pasbridge/internal/transactions/domain"
	"pasbridge/internal/transactions/repository"
	"pasbridge/internal/transactions/transport"
	"pasbridge/platform/apperr"
	"pasbridge/platform/httpkit"
	"pasbridge/platform/logger"
	"pasbridge/platform/metrics"
	"pasbridge/platform/validator"
)

const (
	msgInvalidRequest   = "invalid request"
	msgPayloadTooLarge  = "payload too large"
	msgAsyncUnavailable = "async processing is not configured"

	maxBodyBytes = 1 << 20
)

// Processor runs a transaction synchronously.
type Processor interface {
	Process(ctx context.Context, req domain.Request) domain.Outcome
}

// Enqueuer hands a transaction to the background worker.
type Enqueuer interface {
	EnqueueTransaction(ctx context.Context, payload scheduler.ProcessTransactionPayload) error
}

// AuditReader reads recorded attempts.
type AuditReader interface {
	GetLatest(ctx context.Context, transactionID string) (repository.AuditRecord, error)
	ListByOpportunity(ctx context.Context, opportunityID int64, limit int) ([]repository.AuditRecord, error)
}

// Handler handles HTTP requests for transactions.
type Handler struct {
	processor Processor
	queue     Enqueuer
	audit     AuditReader
	val       *validator.Validator
	log       *logger.Logger
	metrics   *metrics.Metrics
	now       func() time.Time
}

// New creates a new transactions handler. queue may be nil.
func New(processor Processor, queue Enqueuer, audit AuditReader, val *validator.Validator, log *logger.Logger, m *metrics.Metrics) *Handler {
	return &Handler{
		processor: processor,
		queue:     queue,
		audit:     audit,
		val:       val,
		log:       log,
		metrics:   m,
		now:       time.Now,
	}
}

// RegisterRoutes registers the transaction routes.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("", h.Process)
	rg.POST("/async", h.Enqueue)
	rg.GET("", h.ListByOpportunity)
	rg.GET("/:id", h.Get)
}

// Process runs the transaction and answers with its outcome. The status code
// follows the error kind of a failed outcome.
func (h *Handler) Process(c *gin.Context) {
	req, ok := h.decode(c)
	if !ok {
		return
	}

	ctx := context.WithValue(c.Request.Context(), logger.TransactionIDKey, req.Meta().TransactionID)
	out := h.processor.Process(ctx, req)

	status := http.StatusOK
	if out.Err != nil {
		status = out.Err.HTTPStatus()
	}
	c.JSON(status, transport.FromOutcome(out))
}

// Enqueue validates the payload and queues it for the worker.
func (h *Handler) Enqueue(c *gin.Context) {
	if h.queue == nil {
		httpkit.Error(c, http.StatusServiceUnavailable, msgAsyncUnavailable, nil)
		return
	}

	req, ok := h.decode(c)
	if !ok {
		return
	}
	if httpkit.HandleError(c, req.Validate()) {
		return
	}

	meta := req.Meta()
	taskID := uuid.NewString()
	err := h.queue.EnqueueTransaction(c.Request.Context(), scheduler.ProcessTransactionPayload{
		TaskID:        taskID,
		TransactionID: meta.TransactionID,
		Type:          string(meta.Type),
		Payload:       meta.Raw,
		ReceivedAt:    meta.ReceivedAt,
	})
	if httpkit.HandleError(c, err) {
		return
	}
	h.metrics.IncrementAsyncEnqueued(string(meta.Type))

	c.JSON(http.StatusAccepted, transport.AcceptedResponse{
		TransactionID: meta.TransactionID,
		TaskID:        taskID,
		Status:        "queued",
	})
}

// Get returns the latest recorded attempt for a transaction id.
func (h *Handler) Get(c *gin.Context) {
	rec, err := h.audit.GetLatest(c.Request.Context(), c.Param("id"))
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, transport.FromAuditRecord(rec))
}

// ListByOpportunity lists recorded attempts for ?opportunityId=.
func (h *Handler) ListByOpportunity(c *gin.Context) {
	opportunityID, err := strconv.ParseInt(c.Query("opportunityId"), 10, 64)
	if err != nil || opportunityID <= 0 {
		httpkit.HandleError(c, apperr.Validation("opportunityId query parameter is required"))
		return
	}
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))

	records, err := h.audit.ListByOpportunity(c.Request.Context(), opportunityID, limit)
	if httpkit.HandleError(c, err) {
		return
	}

	items := make([]transport.AuditRecordResponse, 0, len(records))
	for _, rec := range records {
		items = append(items, transport.FromAuditRecord(rec))
	}
	httpkit.OK(c, gin.H{"items": items})
}

func (h *Handler) decode(c *gin.Context) (domain.Request, bool) {
	body, err := io.ReadAll(http.MaxBytesReader(c.Writer, c.Request.Body, maxBodyBytes))
	if err != nil {
		httpkit.Error(c, http.StatusRequestEntityTooLarge, msgPayloadTooLarge, nil)
		return nil, false
	}
	if len(body) == 0 {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return nil, false
	}

	req, err := transport.Decode(body, h.val, h.now())
	if httpkit.HandleError(c, err) {
		return nil, false
	}
	return req, true
}
