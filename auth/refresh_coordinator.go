// Package auth coordinates session token exchange against the remote
// authentication endpoints. The coordinator is the only component that
// talks to the refresh endpoint; everything else observes the credential
// store it writes to.
package auth

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	goerrors "github.com/goliatone/go-errors"
	glog "github.com/goliatone/go-logger/glog"
	"golang.org/x/sync/singleflight"

	"github.com/agentplatform/go-apiclient/core"
)

const (
	defaultRefreshPath    = "/auth/refresh"
	defaultRefreshTimeout = 15 * time.Second

	refreshFlightKey = "session.refresh"

	refreshBodyLimit int64 = 1 << 20 // 1 MiB
)

type CoordinatorConfig struct {
	BaseURL        string
	RefreshPath    string
	Client         core.HTTPDoer
	Store          core.CredentialStore
	Logger         core.Logger
	LoggerProvider core.LoggerProvider
	Metrics        core.MetricsRecorder
	Timeout        time.Duration
	Now            func() time.Time
}

// Coordinator exchanges the stored refresh token for a fresh credential
// pair. Concurrent callers share a single in-flight exchange: only one
// refresh request ever reaches the remote endpoint at a time, and every
// waiter receives the same outcome.
type Coordinator struct {
	refreshURL string
	client     core.HTTPDoer
	store      core.CredentialStore
	logger     core.Logger
	metrics    core.MetricsRecorder
	timeout    time.Duration
	now        func() time.Time
	group      singleflight.Group
}

var _ core.SessionRefresher = (*Coordinator)(nil)

func NewCoordinator(cfg CoordinatorConfig) (*Coordinator, error) {
	base := strings.TrimSpace(cfg.BaseURL)
	if base == "" {
		return nil, fmt.Errorf("auth: base url is required")
	}
	parsed, err := url.Parse(base)
	if err != nil {
		return nil, fmt.Errorf("auth: invalid base url: %w", err)
	}
	if parsed.Scheme == "" || parsed.Host == "" {
		return nil, fmt.Errorf("auth: base url must be absolute, got %q", base)
	}
	if cfg.Store == nil {
		return nil, fmt.Errorf("auth: credential store is required")
	}

	refreshPath := strings.TrimSpace(cfg.RefreshPath)
	if refreshPath == "" {
		refreshPath = defaultRefreshPath
	}
	if !strings.HasPrefix(refreshPath, "/") {
		refreshPath = "/" + refreshPath
	}
	parsed.Path = strings.TrimSuffix(parsed.Path, "/") + refreshPath

	client := cfg.Client
	if client == nil {
		client = &http.Client{Timeout: defaultRefreshTimeout}
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultRefreshTimeout
	}

	now := cfg.Now
	if now == nil {
		now = func() time.Time { return time.Now().UTC() }
	}

	_, logger := glog.Resolve("auth", cfg.LoggerProvider, cfg.Logger)
	logger = glog.Ensure(logger)

	metrics := cfg.Metrics
	if metrics == nil {
		metrics = core.NopMetricsRecorder{}
	}

	return &Coordinator{
		refreshURL: parsed.String(),
		client:     client,
		store:      cfg.Store,
		logger:     logger,
		metrics:    metrics,
		timeout:    timeout,
		now:        now,
	}, nil
}

type refreshRequestBody struct {
	RefreshToken string `json:"refresh_token"`
}

type refreshResponseBody struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token,omitempty"`
	TokenType    string `json:"token_type,omitempty"`
}

// RefreshSession performs at most one token exchange regardless of how
// many goroutines request it concurrently. On success the credential
// store holds the new pair before any caller observes the result. When
// the response carries no new refresh token the previous one is kept.
func (c *Coordinator) RefreshSession(ctx context.Context) (core.CredentialPair, error) {
	if c == nil || c.store == nil {
		return core.CredentialPair{}, fmt.Errorf("auth: coordinator is not configured")
	}
	if ctx == nil {
		ctx = context.Background()
	}

	value, err, shared := c.group.Do(refreshFlightKey, func() (any, error) {
		return c.refresh(ctx)
	})
	if err != nil {
		return core.CredentialPair{}, err
	}

	pair, ok := value.(core.CredentialPair)
	if !ok {
		return core.CredentialPair{}, fmt.Errorf("auth: unexpected refresh result type %T", value)
	}
	if shared {
		c.logger.WithContext(ctx).Debug("joined in-flight session refresh")
	}
	return pair, nil
}

func (c *Coordinator) refresh(ctx context.Context) (core.CredentialPair, error) {
	startedAt := c.now()

	current, found, err := c.store.Load(ctx)
	if err != nil {
		return core.CredentialPair{}, err
	}
	if !found || !current.HasRefreshToken() {
		c.metrics.IncCounter(ctx, "apiclient.refresh.total", 1, map[string]string{"status": "no_refresh_token"})
		return core.CredentialPair{}, core.NewAuthRequiredError("no refresh token available")
	}

	next, err := c.exchange(ctx, current)
	status := "success"
	if err != nil {
		status = "failure"
	}
	c.metrics.IncCounter(ctx, "apiclient.refresh.total", 1, map[string]string{"status": status})
	c.metrics.ObserveHistogram(ctx, "apiclient.refresh.duration_ms", float64(time.Since(startedAt).Milliseconds()), map[string]string{"status": status})
	if err != nil {
		c.logger.WithContext(ctx).Error("session refresh failed", "error", err.Error())
		return core.CredentialPair{}, err
	}

	identity, hasIdentity, err := c.store.LoadIdentity(ctx)
	if err != nil {
		return core.CredentialPair{}, err
	}
	var identityRef *core.Identity
	if hasIdentity {
		identityRef = &identity
	}
	if err := c.store.Save(ctx, next, identityRef); err != nil {
		return core.CredentialPair{}, err
	}

	c.logger.WithContext(ctx).Info("session refreshed",
		"rotated_refresh_token", next.RefreshToken != current.RefreshToken,
		"duration_ms", time.Since(startedAt).Milliseconds(),
	)
	return next, nil
}

func (c *Coordinator) exchange(ctx context.Context, current core.CredentialPair) (core.CredentialPair, error) {
	payload, err := json.Marshal(refreshRequestBody{RefreshToken: current.RefreshToken})
	if err != nil {
		return core.CredentialPair{}, goerrors.Wrap(err, goerrors.CategoryInternal, "auth: encode refresh request").
			WithTextCode(core.ClientErrorInternal)
	}

	requestCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	httpReq, err := http.NewRequestWithContext(requestCtx, http.MethodPost, c.refreshURL, bytes.NewReader(payload))
	if err != nil {
		return core.CredentialPair{}, goerrors.Wrap(err, goerrors.CategoryInternal, "auth: create refresh request").
			WithTextCode(core.ClientErrorInternal)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "application/json")

	httpRes, err := c.client.Do(httpReq)
	if err != nil {
		return core.CredentialPair{}, goerrors.Wrap(err, goerrors.CategoryExternal, "auth: execute refresh request").
			WithTextCode(core.ClientErrorTransportFailed)
	}
	defer httpRes.Body.Close()

	body, err := io.ReadAll(io.LimitReader(httpRes.Body, refreshBodyLimit))
	if err != nil {
		return core.CredentialPair{}, goerrors.Wrap(err, goerrors.CategoryExternal, "auth: read refresh response").
			WithTextCode(core.ClientErrorTransportFailed)
	}

	if httpRes.StatusCode < http.StatusOK || httpRes.StatusCode >= http.StatusMultipleChoices {
		return core.CredentialPair{}, goerrors.New(
			fmt.Sprintf("auth: refresh endpoint returned status %d", httpRes.StatusCode),
			goerrors.CategoryAuth,
		).
			WithCode(httpRes.StatusCode).
			WithTextCode(core.ClientErrorAuthRequired).
			WithMetadata(map[string]any{"status_code": httpRes.StatusCode})
	}

	var parsed refreshResponseBody
	if err := json.Unmarshal(body, &parsed); err != nil {
		return core.CredentialPair{}, goerrors.Wrap(err, goerrors.CategoryExternal, "auth: decode refresh response").
			WithTextCode(core.ClientErrorTransportFailed)
	}
	if strings.TrimSpace(parsed.AccessToken) == "" {
		return core.CredentialPair{}, goerrors.New("auth: refresh response missing access token", goerrors.CategoryExternal).
			WithTextCode(core.ClientErrorTransportFailed)
	}

	next := core.CredentialPair{
		AccessToken:  strings.TrimSpace(parsed.AccessToken),
		RefreshToken: strings.TrimSpace(parsed.RefreshToken),
	}
	if next.RefreshToken == "" {
		next.RefreshToken = current.RefreshToken
	}
	return next, nil
}
