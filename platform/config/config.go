// Package config provides application configuration loading.
// This is part of the platform layer and contains no business logic.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// =============================================================================
// Module-Specific Config Interfaces (Principle of Least Privilege)
// =============================================================================

// DatabaseConfig provides database connection settings.
type DatabaseConfig interface {
	GetDatabaseURL() string
}

// JWTConfig provides JWT validation settings for middleware.
type JWTConfig interface {
	GetJWTAccessSecret() string
}

// HTTPConfig provides settings for the HTTP server.
type HTTPConfig interface {
	GetHTTPAddr() string
	GetCORSAllowAll() bool
	GetCORSOrigins() []string
	GetCORSAllowCreds() bool
	GetAPIRateLimit() float64
	GetAPIRateBurst() int
}

// PASConfig provides settings for the policy administration system connection.
type PASConfig interface {
	GetPASURL() string
	GetPASUsername() string
	GetPASPassword() string
	GetPASNamespace() string
	GetPASTimeout() time.Duration
	GetPASSessionTTL() time.Duration
}

// WorkflowConfig provides tuning knobs for the transaction workflows.
type WorkflowConfig interface {
	GetInvoiceAttempts() int
	GetInvoiceDelay() time.Duration
	GetPhoneRegion() string
}

// SchedulerConfig provides Redis/asynq settings for asynchronous processing.
type SchedulerConfig interface {
	GetRedisURL() string
	GetRedisTLSInsecure() bool
	GetAsynqQueueName() string
	GetAsynqConcurrency() int
}

// MinIOConfig provides settings for the raw payload archive.
type MinIOConfig interface {
	GetMinIOEndpoint() string
	GetMinIOAccessKey() string
	GetMinIOSecretKey() string
	GetMinIOUseSSL() bool
	GetMinioBucketPayloadArchive() string
	IsMinIOEnabled() bool
}

// SMTPConfig provides settings for operator alert mails.
type SMTPConfig interface {
	GetSMTPHost() string
	GetSMTPPort() int
	GetSMTPUsername() string
	GetSMTPPassword() string
	GetSMTPFromAddress() string
	GetSMTPFromName() string
	GetAlertRecipients() []string
	IsAlertingEnabled() bool
}

// AuditConfig provides retention settings for the transaction audit table.
type AuditConfig interface {
	GetAuditCleanupInterval() time.Duration
	GetAuditSuccessRetention() time.Duration
	GetAuditFailureRetention() time.Duration
}

// =============================================================================
// Main Config Struct
// =============================================================================

// Config holds all application configuration values.
type Config struct {
	Env               string
	HTTPAddr          string
	WorkerMetricsAddr string
	DatabaseURL       string
	JWTAccessSecret   string
	CORSAllowAll      bool
	CORSOrigins       []string
	CORSAllowCreds    bool
	APIRateLimit      float64
	APIRateBurst      int

	PASURL          string
	PASUsername     string
	PASPassword     string
	PASNamespace    string
	PASTimeout      time.Duration
	PASSessionTTL   time.Duration
	InvoiceAttempts int
	InvoiceDelay    time.Duration
	PhoneRegion     string

	RedisURL         string
	RedisTLSInsecure bool
	AsynqQueueName   string
	AsynqConcurrency int

	MinIOEndpoint             string
	MinIOAccessKey            string
	MinIOSecretKey            string
	MinIOUseSSL               bool
	MinioBucketPayloadArchive string

	AuditCleanupInterval  time.Duration
	AuditSuccessRetention time.Duration
	AuditFailureRetention time.Duration

	SMTPHost        string
	SMTPPort        int
	SMTPUsername    string
	SMTPPassword    string
	SMTPFromAddress string
	SMTPFromName    string
	AlertRecipients []string
}

// =============================================================================
// Interface Implementations
// =============================================================================

// DatabaseConfig implementation
func (c *Config) GetDatabaseURL() string { return c.DatabaseURL }

// JWTConfig implementation
func (c *Config) GetJWTAccessSecret() string { return c.JWTAccessSecret }

// HTTPConfig implementation
func (c *Config) GetHTTPAddr() string      { return c.HTTPAddr }
func (c *Config) GetCORSAllowAll() bool    { return c.CORSAllowAll }
func (c *Config) GetCORSOrigins() []string { return c.CORSOrigins }
func (c *Config) GetCORSAllowCreds() bool  { return c.CORSAllowCreds }
func (c *Config) GetAPIRateLimit() float64 { return c.APIRateLimit }
func (c *Config) GetAPIRateBurst() int     { return c.APIRateBurst }

// PASConfig implementation
func (c *Config) GetPASURL() string               { return c.PASURL }
func (c *Config) GetPASUsername() string          { return c.PASUsername }
func (c *Config) GetPASPassword() string          { return c.PASPassword }
func (c *Config) GetPASNamespace() string         { return c.PASNamespace }
func (c *Config) GetPASTimeout() time.Duration    { return c.PASTimeout }
func (c *Config) GetPASSessionTTL() time.Duration { return c.PASSessionTTL }

// WorkflowConfig implementation
func (c *Config) GetInvoiceAttempts() int        { return c.InvoiceAttempts }
func (c *Config) GetInvoiceDelay() time.Duration { return c.InvoiceDelay }
func (c *Config) GetPhoneRegion() string         { return c.PhoneRegion }

// SchedulerConfig implementation
func (c *Config) GetRedisURL() string       { return c.RedisURL }
func (c *Config) GetRedisTLSInsecure() bool { return c.RedisTLSInsecure }
func (c *Config) GetAsynqQueueName() string { return c.AsynqQueueName }
func (c *Config) GetAsynqConcurrency() int  { return c.AsynqConcurrency }

// MinIOConfig implementation
func (c *Config) GetMinIOEndpoint() string  { return c.MinIOEndpoint }
func (c *Config) GetMinIOAccessKey() string { return c.MinIOAccessKey }
func (c *Config) GetMinIOSecretKey() string { return c.MinIOSecretKey }
func (c *Config) GetMinIOUseSSL() bool      { return c.MinIOUseSSL }
func (c *Config) GetMinioBucketPayloadArchive() string {
	return c.MinioBucketPayloadArchive
}
func (c *Config) IsMinIOEnabled() bool { return c.MinIOEndpoint != "" }

// AuditConfig implementation
func (c *Config) GetAuditCleanupInterval() time.Duration  { return c.AuditCleanupInterval }
func (c *Config) GetAuditSuccessRetention() time.Duration { return c.AuditSuccessRetention }
func (c *Config) GetAuditFailureRetention() time.Duration { return c.AuditFailureRetention }

// SMTPConfig implementation
func (c *Config) GetSMTPHost() string          { return c.SMTPHost }
func (c *Config) GetSMTPPort() int             { return c.SMTPPort }
func (c *Config) GetSMTPUsername() string      { return c.SMTPUsername }
func (c *Config) GetSMTPPassword() string      { return c.SMTPPassword }
func (c *Config) GetSMTPFromAddress() string   { return c.SMTPFromAddress }
func (c *Config) GetSMTPFromName() string      { return c.SMTPFromName }
func (c *Config) GetAlertRecipients() []string { return c.AlertRecipients }
func (c *Config) IsAlertingEnabled() bool {
	return c.SMTPHost != "" && len(c.AlertRecipients) > 0
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	_ = godotenv.Load()
	return fromEnv()
}

func fromEnv() (*Config, error) {
	corsOrigins := splitCSV(getEnv("CORS_ORIGINS", "http://localhost:4200"))
	corsAllowAll := strings.EqualFold(getEnv("CORS_ALLOW_ALL", "false"), "true")
	if containsWildcard(corsOrigins) {
		corsAllowAll = true
	}

	cfg := &Config{
		Env:               getEnv("APP_ENV", "development"),
		HTTPAddr:          getEnv("HTTP_ADDR", ":8080"),
		WorkerMetricsAddr: getEnv("WORKER_METRICS_ADDR", ":9090"),
		DatabaseURL:       getEnv("DATABASE_URL", ""),
		JWTAccessSecret:   getEnv("JWT_ACCESS_SECRET", ""),
		CORSAllowAll:      corsAllowAll,
		CORSOrigins:       corsOrigins,
		CORSAllowCreds:    strings.EqualFold(getEnv("CORS_ALLOW_CREDENTIALS", "false"), "true"),
		APIRateLimit:      mustFloat(getEnv("API_RATE_LIMIT", "10")),
		APIRateBurst:      mustInt(getEnv("API_RATE_BURST", "20")),

		PASURL:          getEnv("PAS_URL", ""),
		PASUsername:     getEnv("PAS_USERNAME", ""),
		PASPassword:     getEnv("PAS_PASSWORD", ""),
		PASNamespace:    getEnv("PAS_NAMESPACE", "http://tempuri.org/IMSWebServices/"),
		PASTimeout:      mustDuration(getEnv("PAS_TIMEOUT", "60s")),
		PASSessionTTL:   mustDuration(getEnv("PAS_SESSION_TTL", "20m")),
		InvoiceAttempts: mustInt(getEnv("PAS_INVOICE_ATTEMPTS", "3")),
		InvoiceDelay:    mustDuration(getEnv("PAS_INVOICE_DELAY", "2s")),
		PhoneRegion:     getEnv("PHONE_DEFAULT_REGION", "US"),

		RedisURL:         getEnv("REDIS_URL", ""),
		RedisTLSInsecure: strings.EqualFold(getEnv("REDIS_TLS_INSECURE", "false"), "true"),
		AsynqQueueName:   getEnv("ASYNQ_QUEUE", "transactions"),
		AsynqConcurrency: mustInt(getEnv("ASYNQ_CONCURRENCY", "4")),

		MinIOEndpoint:             getEnv("MINIO_ENDPOINT", ""),
		MinIOAccessKey:            getEnv("MINIO_ACCESS_KEY", ""),
		MinIOSecretKey:            getEnv("MINIO_SECRET_KEY", ""),
		MinIOUseSSL:               strings.EqualFold(getEnv("MINIO_USE_SSL", "false"), "true"),
		MinioBucketPayloadArchive: getEnv("MINIO_BUCKET_PAYLOAD_ARCHIVE", "transaction-payloads"),

		AuditCleanupInterval:  mustDuration(getEnv("AUDIT_CLEANUP_INTERVAL", "1h")),
		AuditSuccessRetention: mustDuration(getEnv("AUDIT_SUCCESS_RETENTION", "2160h")),
		AuditFailureRetention: mustDuration(getEnv("AUDIT_FAILURE_RETENTION", "8760h")),

		SMTPHost:        getEnv("SMTP_HOST", ""),
		SMTPPort:        mustInt(getEnv("SMTP_PORT", "587")),
		SMTPUsername:    getEnv("SMTP_USERNAME", ""),
		SMTPPassword:    getEnv("SMTP_PASSWORD", ""),
		SMTPFromAddress: getEnv("SMTP_FROM_ADDRESS", ""),
		SMTPFromName:    getEnv("SMTP_FROM_NAME", "PAS Bridge"),
		AlertRecipients: splitCSV(getEnv("ALERT_RECIPIENTS", "")),
	}

	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is required")
	}
	if cfg.PASURL == "" {
		return nil, fmt.Errorf("PAS_URL is required")
	}
	if cfg.PASUsername == "" || cfg.PASPassword == "" {
		return nil, fmt.Errorf("PAS_USERNAME and PAS_PASSWORD are required")
	}
	if cfg.JWTAccessSecret == "" {
		return nil, fmt.Errorf("JWT_ACCESS_SECRET is required")
	}
	if cfg.InvoiceAttempts < 1 {
		return nil, fmt.Errorf("PAS_INVOICE_ATTEMPTS must be at least 1")
	}
	if cfg.IsAlertingEnabled() && cfg.SMTPFromAddress == "" {
		return nil, fmt.Errorf("SMTP_FROM_ADDRESS is required when alerting is enabled")
	}
	if cfg.CORSAllowAll && cfg.CORSAllowCreds {
		return nil, fmt.Errorf("CORS_ALLOW_CREDENTIALS cannot be true when CORS_ALLOW_ALL is true")
	}

	return cfg, nil
}

func getEnv(key, fallback string) string {
	if val, ok := os.LookupEnv(key); ok {
		return val
	}
	return fallback
}

func mustDuration(value string) time.Duration {
	d, err := time.ParseDuration(value)
	if err != nil {
		return 0
	}
	return d
}

func mustInt(value string) int {
	result, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil {
		return 0
	}
	return result
}

func mustFloat(value string) float64 {
	result, err := strconv.ParseFloat(strings.TrimSpace(value), 64)
	if err != nil {
		return 0
	}
	return result
}

func splitCSV(value string) []string {
	parts := strings.Split(value, ",")
	results := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			results = append(results, trimmed)
		}
	}
	return results
}

func containsWildcard(values []string) bool {
	for _, value := range values {
		if value == "*" {
			return true
		}
	}
	return false
}
