// Package memorystore provides the default in-process credential store. It
// is the moral equivalent of browser storage: three fixed keys, synchronous
// full-replace writes, presence-based authentication checks.
package memorystore

import (
	"context"
	"encoding/json"
	"strings"
	"sync"

	"github.com/agentplatform/go-apiclient/core"
)

type Store struct {
	mu     sync.RWMutex
	values map[string]string
}

func New() *Store {
	return &Store{values: make(map[string]string, 3)}
}

// Save persists the full pair and identity, overwriting any prior values.
// The write happens under one lock so concurrent readers never observe a
// half-replaced pair. The identity is stored JSON-encoded under its fixed
// key, which also decouples it from the caller's value.
func (s *Store) Save(_ context.Context, pair core.CredentialPair, identity *core.Identity) error {
	var encoded []byte
	if identity != nil {
		var err error
		encoded, err = json.Marshal(identity)
		if err != nil {
			return core.NewStoreError(err, "memorystore: encode identity")
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.values[core.StorageKeyAccessToken] = pair.AccessToken
	s.values[core.StorageKeyRefreshToken] = pair.RefreshToken
	if encoded != nil {
		s.values[core.StorageKeyUser] = string(encoded)
	} else {
		delete(s.values, core.StorageKeyUser)
	}
	return nil
}

func (s *Store) Load(context.Context) (core.CredentialPair, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	pair := core.CredentialPair{
		AccessToken:  s.values[core.StorageKeyAccessToken],
		RefreshToken: s.values[core.StorageKeyRefreshToken],
	}
	if pair.IsZero() {
		return core.CredentialPair{}, false, nil
	}
	return pair, true, nil
}

func (s *Store) LoadIdentity(context.Context) (core.Identity, bool, error) {
	s.mu.RLock()
	raw, ok := s.values[core.StorageKeyUser]
	s.mu.RUnlock()
	if !ok || raw == "" {
		return core.Identity{}, false, nil
	}
	var identity core.Identity
	if err := json.Unmarshal([]byte(raw), &identity); err != nil {
		return core.Identity{}, false, core.NewStoreError(err, "memorystore: decode identity")
	}
	return identity, true, nil
}

// Clear removes all persisted values. Calling it on an empty store is not an
// error.
func (s *Store) Clear(context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.values, core.StorageKeyAccessToken)
	delete(s.values, core.StorageKeyRefreshToken)
	delete(s.values, core.StorageKeyUser)
	return nil
}

// IsAuthenticated is purely presence-based: it never validates expiry or
// signature.
func (s *Store) IsAuthenticated(context.Context) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return strings.TrimSpace(s.values[core.StorageKeyAccessToken]) != ""
}

var _ core.CredentialStore = (*Store)(nil)