package core

import "time"

// DefaultSessionRefreshInterval is how often a background keepalive should
// rotate the access token ahead of server-side expiry. The remote API does
// not advertise token lifetimes, so the interval is policy, not derived.
const DefaultSessionRefreshInterval = 10 * time.Minute

// SessionTokenState captures the lifecycle flags a scheduler needs to decide
// whether a proactive refresh is possible and useful.
type SessionTokenState struct {
	HasAccessToken  bool
	HasRefreshToken bool
	CanAutoRefresh  bool
}

func ResolveSessionTokenState(pair CredentialPair) SessionTokenState {
	state := SessionTokenState{
		HasAccessToken:  pair.HasAccessToken(),
		HasRefreshToken: pair.HasRefreshToken(),
	}
	state.CanAutoRefresh = state.HasRefreshToken
	return state
}

// ShouldRefreshSession reports whether a scheduled refresh should run. A
// session with no refresh token cannot be rotated; a session missing its
// access token but holding a refresh token should rotate immediately.
func ShouldRefreshSession(state SessionTokenState) bool {
	return state.CanAutoRefresh
}
