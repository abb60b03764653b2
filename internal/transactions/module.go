// Package transactions provides the transaction orchestration bounded context module.
package transactions

import (
	apphttp "pasbridge/internal/http"
	"pasbridge/internal/transactions/handler"
	"pasbridge/platform/httpkit"
	"pasbridge/platform/logger"
	"pasbridge/platform/metrics"
	"pasbridge/platform/validator"
)

const (
	ScopeWrite = "transactions:write"
	ScopeRead  = "transactions:read"
)

// Module is the transactions bounded context module implementing http.Module.
type Module struct {
	handler *handler.Handler
}

// NewModule creates the transactions module. queue may be nil when Redis is
// not configured; the async endpoint then answers 503.
func NewModule(processor handler.Processor, queue handler.Enqueuer, audit handler.AuditReader, val *validator.Validator, log *logger.Logger, m *metrics.Metrics) *Module {
	return &Module{handler: handler.New(processor, queue, audit, val, log, m)}
}

// Name returns the module identifier.
func (m *Module) Name() string {
	return "transactions"
}

// RegisterRoutes mounts transaction routes on the protected group.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	group := ctx.Protected.Group("/transactions")
	group.POST("", httpkit.RequireScope(ScopeWrite), m.handler.Process)
	group.POST("/async", httpkit.RequireScope(ScopeWrite), m.handler.Enqueue)
	group.GET("", httpkit.RequireScope(ScopeRead), m.handler.ListByOpportunity)
	group.GET("/:id", httpkit.RequireScope(ScopeRead), m.handler.Get)
}

// Compile-time check that Module implements http.Module
var _ apphttp.Module = (*Module)(nil)
