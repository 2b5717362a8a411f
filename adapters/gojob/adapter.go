// Package gojob schedules proactive session refresh through a go-job queue
// so long-running hosts rotate tokens ahead of expiry instead of paying the
// refresh cost on the first rejected request.
package gojob

import (
	"context"
	"fmt"
	"strings"
	"time"

	job "github.com/goliatone/go-job"
	"github.com/goliatone/go-job/queue"
	"github.com/goliatone/go-job/queue/worker"
	glog "github.com/goliatone/go-logger/glog"

	"github.com/agentplatform/go-apiclient/core"
)

const JobIDSessionRefresh = "apiclient.session.refresh"

const defaultIdempotencyKey = "apiclient:session:refresh"

// RetryPolicy defines queue retry bounds to avoid unbounded retry loops.
type RetryPolicy struct {
	MaxAttempts     int
	MaxDelay        time.Duration
	DeadLetterOnMax bool
}

// NormalizeAttempt enforces bounded retry behavior for a nack operation. A
// retry disposition at or past the attempt budget becomes terminal: dead
// letter when the policy asks for it, failed otherwise.
func (p RetryPolicy) NormalizeAttempt(opts queue.NackOptions, attempt int) queue.NackOptions {
	out := opts
	out.Reason = strings.TrimSpace(out.Reason)
	if out.Delay < 0 {
		out.Delay = 0
	}
	if p.MaxDelay > 0 && out.Delay > p.MaxDelay {
		out.Delay = p.MaxDelay
	}
	if out.Disposition == "" {
		out.Disposition = queue.NackDispositionRetry
	}
	if out.Disposition == queue.NackDispositionRetry && p.MaxAttempts > 0 && attempt >= p.MaxAttempts {
		if p.DeadLetterOnMax {
			out.Disposition = queue.NackDispositionDeadLetter
		} else {
			out.Disposition = queue.NackDispositionFailed
		}
		out.Delay = 0
	}
	return out
}

// NewSessionRefreshMessage builds the queue message for one refresh run.
// The fixed idempotency key collapses duplicate enqueues of the same job.
func NewSessionRefreshMessage(idempotencyKey string) *job.ExecutionMessage {
	key := strings.TrimSpace(idempotencyKey)
	if key == "" {
		key = defaultIdempotencyKey
	}
	return &job.ExecutionMessage{
		JobID:          JobIDSessionRefresh,
		Parameters:     map[string]any{},
		IdempotencyKey: key,
	}
}

// JobRuntimeLoggers resolves the logger pair a refresh worker runtime needs,
// bridged into the go-job contracts. Precedence is provider > logger > nop.
func JobRuntimeLoggers(provider glog.LoggerProvider, logger glog.Logger) (job.LoggerProvider, job.Logger) {
	resolvedProvider, resolvedLogger := glog.Resolve("apiclient.jobs", provider, logger)
	return job.GoLoggerProvider(resolvedProvider), job.GoLogger(resolvedLogger)
}

// Scheduler enqueues a session refresh when the stored credentials can
// actually be rotated. Sessions without a refresh token are skipped instead
// of producing a job that is guaranteed to fail.
type Scheduler struct {
	enqueuer queue.Enqueuer
	store    core.CredentialStore
	logger   core.Logger
}

func NewScheduler(enqueuer queue.Enqueuer, store core.CredentialStore, logger core.Logger) *Scheduler {
	return &Scheduler{enqueuer: enqueuer, store: store, logger: logger}
}

func (s *Scheduler) EnqueueRefresh(ctx context.Context) (bool, error) {
	if s == nil || s.enqueuer == nil {
		return false, fmt.Errorf("gojob: enqueuer is not configured")
	}
	if s.store == nil {
		return false, fmt.Errorf("gojob: credential store is not configured")
	}

	pair, found, err := s.store.Load(ctx)
	if err != nil {
		return false, err
	}
	state := core.ResolveSessionTokenState(pair)
	if !found || !core.ShouldRefreshSession(state) {
		if s.logger != nil {
			s.logger.WithContext(ctx).Debug("session refresh skipped, no rotatable credentials")
		}
		return false, nil
	}

	receipt, err := s.enqueuer.Enqueue(ctx, NewSessionRefreshMessage(""))
	if err != nil {
		return false, err
	}
	if s.logger != nil {
		s.logger.WithContext(ctx).Debug("session refresh enqueued", "dispatch_id", receipt.DispatchID)
	}
	return true, nil
}

// SessionRefreshHandler executes a dequeued refresh job against the
// coordinator and translates the outcome into ack/nack decisions.
type SessionRefreshHandler struct {
	refresher core.SessionRefresher
	store     core.CredentialStore
	policy    RetryPolicy
	logger    core.Logger
}

func NewSessionRefreshHandler(
	refresher core.SessionRefresher,
	store core.CredentialStore,
	policy RetryPolicy,
	logger core.Logger,
) *SessionRefreshHandler {
	return &SessionRefreshHandler{
		refresher: refresher,
		store:     store,
		policy:    policy,
		logger:    logger,
	}
}

func (h *SessionRefreshHandler) Execute(ctx context.Context, msg *job.ExecutionMessage) error {
	if h == nil || h.refresher == nil {
		return fmt.Errorf("gojob: session refresher is not configured")
	}
	if msg == nil {
		return fmt.Errorf("gojob: execution message is required")
	}
	if strings.TrimSpace(msg.JobID) != JobIDSessionRefresh {
		return fmt.Errorf("gojob: unexpected job id %q", msg.JobID)
	}

	if h.store != nil {
		pair, found, err := h.store.Load(ctx)
		if err != nil {
			return err
		}
		if !found || !core.ShouldRefreshSession(core.ResolveSessionTokenState(pair)) {
			if h.logger != nil {
				h.logger.WithContext(ctx).Debug("session refresh job skipped, credentials no longer rotatable")
			}
			return nil
		}
	}

	_, err := h.refresher.RefreshSession(ctx)
	return err
}

// HandleDelivery runs one dequeued delivery end to end: execute, ack on
// success, nack within the retry policy on failure. A session already
// expired is acked rather than retried, the refresh token is gone and a
// requeue cannot bring it back.
func (h *SessionRefreshHandler) HandleDelivery(ctx context.Context, delivery queue.Delivery, attempt int) error {
	if h == nil {
		return fmt.Errorf("gojob: handler is not configured")
	}
	if delivery == nil {
		return fmt.Errorf("gojob: delivery is required")
	}

	execErr := h.Execute(ctx, delivery.Message())
	if execErr == nil || core.IsSessionExpired(execErr) {
		if ackErr := delivery.Ack(ctx); ackErr != nil {
			return ackErr
		}
		return execErr
	}

	opts := h.policy.NormalizeAttempt(queue.NackOptions{
		Disposition: queue.NackDispositionRetry,
		Reason:      execErr.Error(),
	}, attempt)
	if nackErr := delivery.Nack(ctx, opts); nackErr != nil {
		return nackErr
	}
	return execErr
}

// MetricsHook reports worker lifecycle events for refresh jobs.
type MetricsHook struct {
	metrics core.MetricsRecorder
}

func NewMetricsHook(metrics core.MetricsRecorder) *MetricsHook {
	if metrics == nil {
		metrics = core.NopMetricsRecorder{}
	}
	return &MetricsHook{metrics: metrics}
}

func (h *MetricsHook) OnStart(ctx context.Context, event worker.Event) {
	h.record(ctx, "start", event)
}

func (h *MetricsHook) OnSuccess(ctx context.Context, event worker.Event) {
	h.record(ctx, "success", event)
	h.metrics.ObserveHistogram(ctx, "apiclient.job.duration_ms", float64(event.Duration.Milliseconds()), map[string]string{
		"job_id": eventJobID(event),
	})
}

func (h *MetricsHook) OnFailure(ctx context.Context, event worker.Event) {
	h.record(ctx, "failure", event)
}

func (h *MetricsHook) OnRetry(ctx context.Context, event worker.Event) {
	h.record(ctx, "retry", event)
}

func (h *MetricsHook) record(ctx context.Context, phase string, event worker.Event) {
	if h == nil || h.metrics == nil {
		return
	}
	h.metrics.IncCounter(ctx, "apiclient.job.events.total", 1, map[string]string{
		"job_id": eventJobID(event),
		"phase":  phase,
	})
}

func eventJobID(event worker.Event) string {
	message := event.Message
	if message == nil && event.Delivery != nil {
		message = event.Delivery.Message()
	}
	if message == nil {
		return "unknown"
	}
	return strings.TrimSpace(message.JobID)
}

var _ worker.Hook = (*MetricsHook)(nil)
