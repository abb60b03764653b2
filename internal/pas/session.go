package pas

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"pasbridge/platform/apperr"
	"pasbridge/platform/config"
	"pasbridge/platform/logger"
	"pasbridge/platform/metrics"
)

const (
	logonService = "Logon"
	loginMethod  = "LoginIMSUser"
)

type loginRequest struct {
	UserName string `xml:"userName"`
	Password string `xml:"password"`
}

type loginResponse struct {
	Result struct {
		Token    string `xml:"Token"`
		UserGUID string `xml:"UserGuid"`
	} `xml:"LoginIMSUserResult"`
}

// Session owns the PAS login token. Concurrent callers share one login
// round trip; the token is reused until its TTL elapses or the PAS rejects it.
type Session struct {
	client   *Client
	username string
	password string
	ttl      time.Duration
	cache    TokenCache
	log      *logger.Logger
	metrics  *metrics.Metrics
	now      func() time.Time

	group     singleflight.Group
	mu        sync.RWMutex
	token     string
	expiresAt time.Time
}

// NewSession creates a session. cache may be nil.
func NewSession(client *Client, cfg config.PASConfig, cache TokenCache, log *logger.Logger, m *metrics.Metrics) *Session {
	ttl := cfg.GetPASSessionTTL()
	if ttl <= 0 {
		ttl = 20 * time.Minute
	}
	return &Session{
		client:   client,
		username: cfg.GetPASUsername(),
		password: cfg.GetPASPassword(),
		ttl:      ttl,
		cache:    cache,
		log:      log,
		metrics:  m,
		now:      time.Now,
	}
}

// Authenticate makes sure a usable token exists.
func (s *Session) Authenticate(ctx context.Context) error {
	_, err := s.Token(ctx)
	return err
}

// Token returns the current token, logging in when necessary.
func (s *Session) Token(ctx context.Context) (string, error) {
	if token, ok := s.current(); ok {
		return token, nil
	}

	v, err, _ := s.group.Do("login", func() (any, error) {
		if token, ok := s.current(); ok {
			return token, nil
		}
		if token := s.fromCache(ctx); token != "" {
			s.store(token)
			return token, nil
		}
		token, err := s.login(ctx)
		if err != nil {
			return "", err
		}
		s.store(token)
		if s.cache != nil {
			if err := s.cache.Set(ctx, token, s.ttl); err != nil {
				s.log.Warn("pas: token cache write failed", "error", err)
			}
		}
		return token, nil
	})
	if err != nil {
		return "", err
	}
	return v.(string), nil
}

// Invalidate drops the token so the next call logs in again.
func (s *Session) Invalidate(ctx context.Context) {
	s.mu.Lock()
	s.token = ""
	s.expiresAt = time.Time{}
	s.mu.Unlock()

	if s.cache != nil {
		if err := s.cache.Delete(ctx); err != nil {
			s.log.Warn("pas: token cache delete failed", "error", err)
		}
	}
}

// Invoke performs an authenticated call. A fault that rejects the token
// invalidates the session and surfaces as KindUnauthorized; the call is not
// repeated.
func (s *Session) Invoke(ctx context.Context, service, method string, req, resp any) error {
	token, err := s.Token(ctx)
	if err != nil {
		return err
	}
	err = s.client.Call(ctx, service, method, token, req, resp)
	if fault, ok := AsFault(err); ok && fault.IsSessionExpired() {
		s.Invalidate(ctx)
		return apperr.Wrap(apperr.KindUnauthorized, fault.Error(), fault).WithOp(service + "." + method)
	}
	return err
}

func (s *Session) current() (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.token == "" || !s.now().Before(s.expiresAt) {
		return "", false
	}
	return s.token, true
}

func (s *Session) store(token string) {
	s.mu.Lock()
	s.token = token
	s.expiresAt = s.now().Add(s.ttl)
	s.mu.Unlock()
}

func (s *Session) fromCache(ctx context.Context) string {
	if s.cache == nil {
		return ""
	}
	token, err := s.cache.Get(ctx)
	if err != nil {
		s.log.Warn("pas: token cache read failed", "error", err)
		return ""
	}
	return token
}

func (s *Session) login(ctx context.Context) (string, error) {
	s.metrics.IncrementPASLogins()

	var resp loginResponse
	err := s.client.Call(ctx, logonService, loginMethod, "", loginRequest{
		UserName: s.username,
		Password: s.password,
	}, &resp)
	if err != nil {
		return "", fmt.Errorf("pas login: %w", err)
	}
	token := strings.TrimSpace(resp.Result.Token)
	if token == "" || isNilGUID(token) {
		return "", errors.New("pas login: credentials rejected")
	}
	s.log.Info("pas: session established", "userGuid", resp.Result.UserGUID)
	return token, nil
}
