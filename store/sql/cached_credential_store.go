package sqlstore

import (
	"context"
	"fmt"

	repositorycache "github.com/goliatone/go-repository-cache/cache"

	"github.com/agentplatform/go-apiclient/core"
)

const sessionCacheKey = "go-apiclient::session::v1"

// CachedCredentialStore fronts a credential store with a read cache so hot
// request paths do not hit the database on every dispatch. Writes and clears
// invalidate the cached session before returning.
type CachedCredentialStore struct {
	base  core.CredentialStore
	cache repositorycache.CacheService
}

func NewCachedCredentialStore(
	base core.CredentialStore,
	cacheService repositorycache.CacheService,
) (*CachedCredentialStore, error) {
	if base == nil {
		return nil, fmt.Errorf("sqlstore: base credential store is required")
	}
	if cacheService == nil {
		return nil, fmt.Errorf("sqlstore: session cache service is required")
	}
	return &CachedCredentialStore{base: base, cache: cacheService}, nil
}

func (s *CachedCredentialStore) Save(ctx context.Context, pair core.CredentialPair, identity *core.Identity) error {
	if s == nil || s.base == nil || s.cache == nil {
		return core.NewStoreError(nil, "sqlstore: cached credential store is not configured")
	}
	if err := s.base.Save(ctx, pair, identity); err != nil {
		return err
	}
	if err := s.cache.Delete(ctx, sessionCacheKey); err != nil {
		return core.NewStoreError(err, "sqlstore: invalidate session cache")
	}
	return nil
}

func (s *CachedCredentialStore) Load(ctx context.Context) (core.CredentialPair, bool, error) {
	if s == nil || s.base == nil || s.cache == nil {
		return core.CredentialPair{}, false, core.NewStoreError(nil, "sqlstore: cached credential store is not configured")
	}
	cached, err := repositorycache.GetOrFetch(ctx, s.cache, sessionCacheKey, func(ctx context.Context) (cachedSession, error) {
		pair, found, loadErr := s.base.Load(ctx)
		if loadErr != nil {
			return cachedSession{}, loadErr
		}
		return cachedSession{Pair: pair, Found: found}, nil
	})
	if err != nil {
		return core.CredentialPair{}, false, err
	}
	return cached.Pair, cached.Found, nil
}

func (s *CachedCredentialStore) LoadIdentity(ctx context.Context) (core.Identity, bool, error) {
	if s == nil || s.base == nil {
		return core.Identity{}, false, core.NewStoreError(nil, "sqlstore: cached credential store is not configured")
	}
	return s.base.LoadIdentity(ctx)
}

func (s *CachedCredentialStore) Clear(ctx context.Context) error {
	if s == nil || s.base == nil || s.cache == nil {
		return core.NewStoreError(nil, "sqlstore: cached credential store is not configured")
	}
	if err := s.base.Clear(ctx); err != nil {
		return err
	}
	if err := s.cache.Delete(ctx, sessionCacheKey); err != nil {
		return core.NewStoreError(err, "sqlstore: invalidate session cache")
	}
	return nil
}

func (s *CachedCredentialStore) IsAuthenticated(ctx context.Context) bool {
	pair, found, err := s.Load(ctx)
	if err != nil || !found {
		return false
	}
	return pair.HasAccessToken()
}

type cachedSession struct {
	Pair  core.CredentialPair
	Found bool
}

var _ core.CredentialStore = (*CachedCredentialStore)(nil)
