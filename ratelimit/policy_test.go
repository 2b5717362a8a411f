package ratelimit

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"testing"
	"time"

	goerrors "github.com/goliatone/go-errors"

	"github.com/agentplatform/go-apiclient/core"
)

func fixedClock(at time.Time) func() time.Time {
	return func() time.Time { return at }
}

func TestBeforeCallAllowsUnknownRoutes(t *testing.T) {
	policy := NewAdaptivePolicy(NewMemoryStateStore())
	if err := policy.BeforeCall(context.Background(), Key{Method: "GET", Route: "/agents"}); err != nil {
		t.Fatalf("expected unknown route allowed, got %v", err)
	}
}

func TestAfterCall429ThrottlesSubsequentCalls(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	policy := NewAdaptivePolicy(NewMemoryStateStore())
	policy.Now = fixedClock(now)

	key := Key{Method: "get", Route: "/Agents"}
	if err := policy.AfterCall(ctx, key, ResponseMeta{
		StatusCode: http.StatusTooManyRequests,
		Headers:    map[string]string{"Retry-After": "30"},
	}); err != nil {
		t.Fatalf("after call: %v", err)
	}

	err := policy.BeforeCall(ctx, Key{Method: "GET", Route: "/agents"})
	var throttled ThrottledError
	if !errors.As(err, &throttled) {
		t.Fatalf("expected throttled error, got %v", err)
	}
	if throttled.RetryAfter != 30*time.Second {
		t.Fatalf("expected 30s retry hint, got %s", throttled.RetryAfter)
	}

	// Once the window passes the route opens again.
	policy.Now = fixedClock(now.Add(31 * time.Second))
	if err := policy.BeforeCall(ctx, key); err != nil {
		t.Fatalf("expected route open after window, got %v", err)
	}
}

func TestAfterCallLearnsExhaustedWindowFromHeaders(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	reset := now.Add(45 * time.Second)
	policy := NewAdaptivePolicy(NewMemoryStateStore())
	policy.Now = fixedClock(now)

	key := Key{Method: "GET", Route: "/vector/collections"}
	if err := policy.AfterCall(ctx, key, ResponseMeta{
		StatusCode: http.StatusOK,
		Headers: map[string]string{
			"X-RateLimit-Limit":     "100",
			"X-RateLimit-Remaining": "0",
			"X-RateLimit-Reset":     strconv.FormatInt(reset.Unix(), 10),
		},
	}); err != nil {
		t.Fatalf("after call: %v", err)
	}

	err := policy.BeforeCall(ctx, key)
	var throttled ThrottledError
	if !errors.As(err, &throttled) {
		t.Fatalf("expected exhausted window to block, got %v", err)
	}
}

func TestAfterCallSuccessResetsBackoff(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	policy := NewAdaptivePolicy(NewMemoryStateStore())
	policy.Now = fixedClock(now)

	key := Key{Method: "GET", Route: "/agents"}
	if err := policy.AfterCall(ctx, key, ResponseMeta{StatusCode: http.StatusTooManyRequests}); err != nil {
		t.Fatalf("after 429: %v", err)
	}
	if err := policy.AfterCall(ctx, key, ResponseMeta{
		StatusCode: http.StatusOK,
		Headers:    map[string]string{"X-RateLimit-Remaining": "99"},
	}); err != nil {
		t.Fatalf("after success: %v", err)
	}
	if err := policy.BeforeCall(ctx, key); err != nil {
		t.Fatalf("expected cleared throttle after success, got %v", err)
	}

	state, err := policy.Store.Get(ctx, key)
	if err != nil {
		t.Fatalf("get state: %v", err)
	}
	if state.Attempts != 0 || state.ThrottledUntil != nil {
		t.Fatalf("expected reset state, got %+v", state)
	}
}

func TestRepeated429sBackOffExponentially(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	policy := NewAdaptivePolicy(NewMemoryStateStore())
	policy.Now = fixedClock(now)
	policy.InitialBackoff = time.Second
	policy.MaxBackoff = 4 * time.Second

	key := Key{Method: "POST", Route: "/agents"}
	delays := make([]time.Duration, 0, 4)
	for i := 0; i < 4; i++ {
		if err := policy.AfterCall(ctx, key, ResponseMeta{StatusCode: http.StatusTooManyRequests}); err != nil {
			t.Fatalf("after call %d: %v", i, err)
		}
		state, err := policy.Store.Get(ctx, key)
		if err != nil {
			t.Fatalf("get state %d: %v", i, err)
		}
		if state.ThrottledUntil == nil {
			t.Fatalf("expected throttle window after 429 %d", i)
		}
		delays = append(delays, state.ThrottledUntil.Sub(now))
	}

	want := []time.Duration{time.Second, 2 * time.Second, 4 * time.Second, 4 * time.Second}
	for i, d := range delays {
		if d != want[i] {
			t.Fatalf("attempt %d: got backoff %s, want %s", i+1, d, want[i])
		}
	}
}

func TestParseRetryAfterHTTPDate(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	res := ResponseMeta{Headers: map[string]string{
		"Retry-After": now.Add(90 * time.Second).Format(time.RFC1123),
	}}
	delay, ok := parseRetryAfter(res, now)
	if !ok {
		t.Fatalf("expected date-form retry-after parsed")
	}
	if delay != 90*time.Second {
		t.Fatalf("got %s, want 90s", delay)
	}

	if _, ok := parseRetryAfter(ResponseMeta{Headers: map[string]string{"Retry-After": "garbage"}}, now); ok {
		t.Fatalf("expected invalid retry-after ignored")
	}
}

func TestThrottledErrorToClientError(t *testing.T) {
	rich := ThrottledError{Method: "GET", Route: "/agents", RetryAfter: 10 * time.Second}.ToClientError()
	if rich.Code != http.StatusTooManyRequests {
		t.Fatalf("expected 429, got %d", rich.Code)
	}
	if rich.TextCode != core.ClientErrorRateLimited {
		t.Fatalf("expected rate limited text code, got %q", rich.TextCode)
	}
	if rich.Category != goerrors.CategoryRateLimit {
		t.Fatalf("expected rate limit category, got %q", rich.Category)
	}
}

func TestMemoryStateStoreNormalizesKeys(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStateStore()
	if err := store.Upsert(ctx, State{Key: Key{Method: "get", Route: "/Agents"}, Limit: 10}); err != nil {
		t.Fatalf("upsert: %v", err)
	}
	state, err := store.Get(ctx, Key{Method: "GET", Route: "/agents"})
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if state.Limit != 10 {
		t.Fatalf("unexpected state %+v", state)
	}
	if _, err := store.Get(ctx, Key{Method: "GET", Route: "/other"}); !errors.Is(err, ErrStateNotFound) {
		t.Fatalf("expected ErrStateNotFound, got %v", err)
	}
}
