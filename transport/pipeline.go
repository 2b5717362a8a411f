// Package transport implements the single funnel through which every
// outbound API call travels: credential attachment on the way out, and
// authentication-failure detection with a bounded refresh-and-replay cycle
// on the way back.
package transport

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	goerrors "github.com/goliatone/go-errors"
	glog "github.com/goliatone/go-logger/glog"
	"github.com/google/uuid"

	"github.com/agentplatform/go-apiclient/core"
	"github.com/agentplatform/go-apiclient/ratelimit"
)

// RateLimitPolicy gates outbound calls per route bucket. BeforeCall may
// reject a call that would exceed the learned remote window; AfterCall folds
// the response's rate-limit headers back into the bucket state.
type RateLimitPolicy interface {
	BeforeCall(ctx context.Context, key ratelimit.Key) error
	AfterCall(ctx context.Context, key ratelimit.Key, res ratelimit.ResponseMeta) error
}

const (
	defaultClientTimeout           = 30 * time.Second
	defaultResponseBodyLimit int64 = 10 << 20 // 10 MiB

	headerAuthorization = "Authorization"
	headerRequestID     = "X-Request-ID"
)

type PipelineConfig struct {
	BaseURL              string
	Client               core.HTTPDoer
	Store                core.CredentialStore
	Refresher            core.SessionRefresher
	Listener             core.SessionListener
	Logger               core.Logger
	LoggerProvider       core.LoggerProvider
	Metrics              core.MetricsRecorder
	RateLimit            RateLimitPolicy
	DefaultHeaders       map[string]string
	MaxResponseBodyBytes int64
	RequestTimeout       time.Duration
}

// Pipeline dispatches APIRequest descriptors against the remote API. The
// replay guarantee: refresh is attempted at most once per original request,
// decided solely by the descriptor's Attempt counter.
type Pipeline struct {
	baseURL        *url.URL
	client         core.HTTPDoer
	store          core.CredentialStore
	refresher      core.SessionRefresher
	listener       core.SessionListener
	logger         core.Logger
	metrics        core.MetricsRecorder
	rateLimit      RateLimitPolicy
	defaultHeaders map[string]string
	maxBodyBytes   int64
	requestTimeout time.Duration
}

func NewPipeline(cfg PipelineConfig) (*Pipeline, error) {
	base := strings.TrimSpace(cfg.BaseURL)
	if base == "" {
		return nil, fmt.Errorf("transport: base url is required")
	}
	parsed, err := url.Parse(base)
	if err != nil {
		return nil, fmt.Errorf("transport: invalid base url: %w", err)
	}
	if parsed.Scheme == "" || parsed.Host == "" {
		return nil, fmt.Errorf("transport: base url must be absolute, got %q", base)
	}
	if cfg.Store == nil {
		return nil, fmt.Errorf("transport: credential store is required")
	}

	client := cfg.Client
	if client == nil {
		client = &http.Client{Timeout: defaultClientTimeout}
	}

	_, logger := glog.Resolve("transport", cfg.LoggerProvider, cfg.Logger)
	logger = glog.Ensure(logger)

	metrics := cfg.Metrics
	if metrics == nil {
		metrics = core.NopMetricsRecorder{}
	}

	maxBodyBytes := cfg.MaxResponseBodyBytes
	if maxBodyBytes <= 0 {
		maxBodyBytes = defaultResponseBodyLimit
	}

	defaultHeaders := map[string]string{
		"Content-Type": "application/json",
		"Accept":       "application/json",
	}
	for key, value := range cfg.DefaultHeaders {
		if strings.TrimSpace(key) == "" {
			continue
		}
		defaultHeaders[strings.TrimSpace(key)] = strings.TrimSpace(value)
	}

	return &Pipeline{
		baseURL:        parsed,
		client:         client,
		store:          cfg.Store,
		refresher:      cfg.Refresher,
		listener:       cfg.Listener,
		logger:         logger,
		metrics:        metrics,
		rateLimit:      cfg.RateLimit,
		defaultHeaders: defaultHeaders,
		maxBodyBytes:   maxBodyBytes,
		requestTimeout: cfg.RequestTimeout,
	}, nil
}

// Do transmits one request descriptor. On a 2xx the response passes through
// unchanged. On the first authentication failure it refreshes the session
// and replays the identical descriptor once with the new token. A second
// authentication failure, or a failed refresh, is terminal: the store is
// cleared, the session listener is notified, and a session-expired error is
// returned.
func (p *Pipeline) Do(ctx context.Context, req core.APIRequest) (core.APIResponse, error) {
	if p == nil || p.client == nil {
		return core.APIResponse{}, transportError(
			"transport: pipeline requires an http client",
			goerrors.CategoryInternal,
			http.StatusInternalServerError,
			nil,
		)
	}
	if ctx == nil {
		ctx = context.Background()
	}
	if err := req.Validate(); err != nil {
		return core.APIResponse{}, transportWrapError(
			err,
			goerrors.CategoryBadInput,
			"transport: invalid request descriptor",
			http.StatusBadRequest,
			map[string]any{"path": req.Path},
		)
	}

	if p.rateLimit != nil {
		key := ratelimit.Key{Method: req.Method, Route: req.Path}
		if gateErr := p.rateLimit.BeforeCall(ctx, key); gateErr != nil {
			var throttled ratelimit.ThrottledError
			if errors.As(gateErr, &throttled) {
				return core.APIResponse{}, throttled.ToClientError()
			}
			return core.APIResponse{}, transportWrapError(
				gateErr,
				goerrors.CategoryInternal,
				"transport: rate limit gate",
				http.StatusInternalServerError,
				map[string]any{"method": req.Method, "path": req.Path},
			)
		}
	}

	requestID := uuid.NewString()
	startedAt := time.Now().UTC()

	res, err := p.send(ctx, req, requestID)
	if err == nil && p.rateLimit != nil {
		key := ratelimit.Key{Method: req.Method, Route: req.Path}
		if stateErr := p.rateLimit.AfterCall(ctx, key, ratelimit.ResponseMeta{
			StatusCode: res.StatusCode,
			Headers:    res.Headers,
		}); stateErr != nil {
			p.logError(ctx, "update rate limit state", "error", stateErr.Error())
		}
	}
	p.observe(ctx, startedAt, req, res, requestID, err)
	if err != nil {
		return core.APIResponse{}, err
	}

	if res.IsSuccess() {
		return res, nil
	}

	if !core.IsAuthFailureStatus(res.StatusCode) || req.Anonymous {
		return core.APIResponse{}, core.NewRemoteError(res.StatusCode, res.Body)
	}

	if req.Attempt > 0 {
		return core.APIResponse{}, p.endSession(ctx, core.NewRemoteError(res.StatusCode, res.Body), "retried request rejected")
	}
	if p.refresher == nil {
		return core.APIResponse{}, p.endSession(ctx, core.NewRemoteError(res.StatusCode, res.Body), "no session refresher configured")
	}

	if _, refreshErr := p.refresher.RefreshSession(ctx); refreshErr != nil {
		return core.APIResponse{}, p.endSession(ctx, refreshErr, "session refresh failed")
	}

	p.logInfo(ctx, "session refreshed, replaying request",
		"request_id", requestID,
		"method", req.Method,
		"path", req.Path,
	)
	return p.Do(ctx, req.NextAttempt())
}

func (p *Pipeline) send(ctx context.Context, req core.APIRequest, requestID string) (core.APIResponse, error) {
	method := strings.TrimSpace(strings.ToUpper(req.Method))
	if method == "" {
		method = http.MethodGet
	}

	target := p.resolveURL(req)

	requestCtx := ctx
	cancel := func() {}
	if p.requestTimeout > 0 {
		requestCtx, cancel = context.WithTimeout(ctx, p.requestTimeout)
	}
	defer cancel()

	httpReq, err := http.NewRequestWithContext(requestCtx, method, target, bytes.NewReader(req.Body))
	if err != nil {
		return core.APIResponse{}, transportWrapError(
			err,
			goerrors.CategoryBadInput,
			"transport: create http request",
			http.StatusBadRequest,
			map[string]any{"method": method, "url": target},
		)
	}

	for key, value := range p.defaultHeaders {
		httpReq.Header.Set(key, value)
	}
	for key, value := range req.Headers {
		if strings.TrimSpace(key) == "" {
			continue
		}
		httpReq.Header.Set(strings.TrimSpace(key), strings.TrimSpace(value))
	}
	httpReq.Header.Set(headerRequestID, requestID)

	if !req.Anonymous {
		pair, found, loadErr := p.store.Load(ctx)
		if loadErr != nil {
			return core.APIResponse{}, loadErr
		}
		if found && pair.HasAccessToken() {
			httpReq.Header.Set(headerAuthorization, "Bearer "+strings.TrimSpace(pair.AccessToken))
		}
	}

	httpRes, err := p.client.Do(httpReq)
	if err != nil {
		return core.APIResponse{}, transportWrapError(
			err,
			goerrors.CategoryExternal,
			"transport: execute http request",
			http.StatusBadGateway,
			map[string]any{"method": method, "url": target},
		)
	}
	defer httpRes.Body.Close()

	body, err := io.ReadAll(io.LimitReader(httpRes.Body, p.maxBodyBytes+1))
	if err != nil {
		return core.APIResponse{}, transportWrapError(
			err,
			goerrors.CategoryExternal,
			"transport: read response body",
			http.StatusBadGateway,
			map[string]any{"status_code": httpRes.StatusCode},
		)
	}
	if int64(len(body)) > p.maxBodyBytes {
		return core.APIResponse{}, transportError(
			fmt.Sprintf("transport: response body exceeds limit of %d bytes", p.maxBodyBytes),
			goerrors.CategoryExternal,
			http.StatusBadGateway,
			map[string]any{"status_code": httpRes.StatusCode, "response_limit_b": p.maxBodyBytes},
		)
	}

	return core.APIResponse{
		StatusCode: httpRes.StatusCode,
		Headers:    flattenHeaders(httpRes.Header),
		Body:       body,
	}, nil
}

// endSession is the terminal authentication path: clear everything, tell the
// host, and hand back a session-expired error that wraps the cause.
func (p *Pipeline) endSession(ctx context.Context, cause error, reason string) error {
	if clearErr := p.store.Clear(ctx); clearErr != nil {
		p.logError(ctx, "clear credential store after terminal auth failure",
			"error", clearErr.Error(),
		)
	}
	if p.listener != nil {
		p.listener.SessionEnded(ctx, reason)
	}
	p.metrics.IncCounter(ctx, "apiclient.session.ended.total", 1, map[string]string{"reason": reason})
	return core.NewSessionExpiredError(cause)
}

func (p *Pipeline) resolveURL(req core.APIRequest) string {
	resolved := *p.baseURL
	resolved.Path = joinPath(p.baseURL.Path, req.Path)

	query := resolved.Query()
	for key, value := range req.Query {
		if strings.TrimSpace(key) == "" {
			continue
		}
		query.Set(strings.TrimSpace(key), strings.TrimSpace(value))
	}
	resolved.RawQuery = query.Encode()
	return resolved.String()
}

func (p *Pipeline) observe(
	ctx context.Context,
	startedAt time.Time,
	req core.APIRequest,
	res core.APIResponse,
	requestID string,
	err error,
) {
	durationMS := time.Since(startedAt).Milliseconds()
	status := "success"
	if err != nil || !res.IsSuccess() {
		status = "failure"
	}
	tags := map[string]string{
		"method": strings.ToUpper(strings.TrimSpace(req.Method)),
		"status": status,
	}
	p.metrics.IncCounter(ctx, "apiclient.request.total", 1, tags)
	p.metrics.ObserveHistogram(ctx, "apiclient.request.duration_ms", float64(durationMS), tags)

	args := []any{
		"request_id", requestID,
		"method", req.Method,
		"path", req.Path,
		"attempt", req.Attempt,
		"duration_ms", durationMS,
	}
	if err != nil {
		args = append(args, "error", err.Error())
		p.logError(ctx, "request failed", args...)
		return
	}
	args = append(args, "status_code", res.StatusCode)
	p.logInfo(ctx, "request completed", args...)
}

func (p *Pipeline) logInfo(ctx context.Context, message string, args ...any) {
	if p.logger == nil {
		return
	}
	logger := p.logger
	if ctx != nil {
		logger = logger.WithContext(ctx)
	}
	logger.Info(message, args...)
}

func (p *Pipeline) logError(ctx context.Context, message string, args ...any) {
	if p.logger == nil {
		return
	}
	logger := p.logger
	if ctx != nil {
		logger = logger.WithContext(ctx)
	}
	logger.Error(message, args...)
}

func joinPath(base string, path string) string {
	base = strings.TrimSuffix(base, "/")
	path = strings.TrimSpace(path)
	if path == "" {
		return base
	}
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	return base + path
}

func flattenHeaders(headers http.Header) map[string]string {
	if len(headers) == 0 {
		return map[string]string{}
	}
	flat := make(map[string]string, len(headers))
	for key, values := range headers {
		if len(values) == 0 {
			flat[key] = ""
			continue
		}
		flat[key] = strings.Join(values, ",")
	}
	return flat
}
