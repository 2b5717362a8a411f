package core

import (
	"context"
	"net/http"

	glog "github.com/goliatone/go-logger/glog"
)

// CredentialStore owns the persisted session state. Every Save is a full
// replace of the stored pair and identity so readers observe either the old
// or the new complete pair, never a mix.
type CredentialStore interface {
	Save(ctx context.Context, pair CredentialPair, identity *Identity) error
	Load(ctx context.Context) (CredentialPair, bool, error)
	LoadIdentity(ctx context.Context) (Identity, bool, error)
	Clear(ctx context.Context) error
	IsAuthenticated(ctx context.Context) bool
}

// SessionRefresher exchanges the stored refresh token for a new credential
// pair and persists it. Implementations must fail without a network call
// when no refresh token is stored.
type SessionRefresher interface {
	RefreshSession(ctx context.Context) (CredentialPair, error)
}

// SessionListener receives the terminal session-ended signal emitted when a
// refresh fails and the stored credentials are cleared. The host application
// reacts to it (for example by navigating to a login entry point); the
// client itself performs no UI side effects.
type SessionListener interface {
	SessionEnded(ctx context.Context, reason string)
}

type SessionListenerFunc func(ctx context.Context, reason string)

func (f SessionListenerFunc) SessionEnded(ctx context.Context, reason string) {
	if f == nil {
		return
	}
	f(ctx, reason)
}

type HTTPDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

type MetricsRecorder interface {
	IncCounter(ctx context.Context, name string, value int64, tags map[string]string)
	ObserveHistogram(ctx context.Context, name string, value float64, tags map[string]string)
}

type Logger = glog.Logger

type LoggerProvider = glog.LoggerProvider

type FieldsLogger = glog.FieldsLogger
