package router

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apphttp "pasbridge/internal/http"
	"pasbridge/platform/httpkit"
	"pasbridge/platform/logger"
)

type routerCfg struct{}

func (routerCfg) GetHTTPAddr() string        { return ":0" }
func (routerCfg) GetCORSAllowAll() bool      { return false }
func (routerCfg) GetCORSOrigins() []string   { return []string{"https://crm.example.test"} }
func (routerCfg) GetCORSAllowCreds() bool    { return false }
func (routerCfg) GetAPIRateLimit() float64   { return 0 }
func (routerCfg) GetAPIRateBurst() int       { return 0 }
func (routerCfg) GetJWTAccessSecret() string { return "secret" }

type pinger struct{ err error }

func (p pinger) Ping(context.Context) error { return p.err }

type pingModule struct{}

func (pingModule) Name() string { return "ping" }

func (pingModule) RegisterRoutes(ctx *apphttp.RouterContext) {
	ctx.Protected.GET("/ping", func(c *gin.Context) { c.String(http.StatusOK, "pong") })
}

func newApp(health apphttp.HealthChecker) *apphttp.App {
	gin.SetMode(gin.TestMode)
	reg := prometheus.NewRegistry()
	reg.MustRegister(prometheus.NewCounter(prometheus.CounterOpts{Name: "pasbridge_test_total", Help: "test"}))
	return &apphttp.App{
		Config:  routerCfg{},
		Logger:  logger.Discard(),
		Health:  health,
		Metrics: reg,
		Modules: []apphttp.Module{pingModule{}},
	}
}

func get(engine *gin.Engine, path string) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	engine.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
	return rec
}

func TestHealthReflectsDatabase(t *testing.T) {
	rec := get(New(newApp(pinger{})), "/api/health")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.NotEmpty(t, rec.Header().Get(httpkit.HeaderRequestID))

	rec = get(New(newApp(pinger{err: errors.New("down")})), "/api/health")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestMetricsEndpoint(t *testing.T) {
	rec := get(New(newApp(pinger{})), "/metrics")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "pasbridge_test_total")
}

func TestModuleRoutesRequireAuth(t *testing.T) {
	rec := get(New(newApp(pinger{})), "/api/v1/ping")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}
