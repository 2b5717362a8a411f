package sqlstore_test

import (
	"context"
	"fmt"
	"testing"
	"time"

	repositorycache "github.com/goliatone/go-repository-cache/cache"
	"github.com/uptrace/bun"

	"github.com/agentplatform/go-apiclient/core"
	sqlstore "github.com/agentplatform/go-apiclient/store/sql"
)

func newSQLiteStore(t *testing.T) (*sqlstore.CredentialStore, *bun.DB) {
	t.Helper()

	dsn := fmt.Sprintf(
		"file:apiclient-test-%d?mode=memory&cache=shared&_foreign_keys=on",
		time.Now().UnixNano(),
	)
	db, err := sqlstore.OpenSQLite(dsn)
	if err != nil {
		t.Fatalf("open sqlite db: %v", err)
	}
	t.Cleanup(func() {
		_ = db.Close()
	})

	ctx := context.Background()
	if err := sqlstore.EnsureSchema(ctx, db); err != nil {
		t.Fatalf("ensure schema: %v", err)
	}

	store, err := sqlstore.NewCredentialStore(db)
	if err != nil {
		t.Fatalf("new credential store: %v", err)
	}
	return store, db
}

func TestSQLStoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	store, _ := newSQLiteStore(t)

	if _, found, err := store.Load(ctx); err != nil || found {
		t.Fatalf("empty store: found=%v err=%v", found, err)
	}

	identity := core.Identity{ID: 7, Email: "ada@example.com", Username: "ada"}
	pair := core.CredentialPair{AccessToken: "access-1", RefreshToken: "refresh-1"}
	if err := store.Save(ctx, pair, &identity); err != nil {
		t.Fatalf("save: %v", err)
	}

	loaded, found, err := store.Load(ctx)
	if err != nil || !found {
		t.Fatalf("load: found=%v err=%v", found, err)
	}
	if loaded != pair {
		t.Fatalf("got %+v, want %+v", loaded, pair)
	}

	gotIdentity, hasIdentity, err := store.LoadIdentity(ctx)
	if err != nil || !hasIdentity {
		t.Fatalf("load identity: found=%v err=%v", hasIdentity, err)
	}
	if gotIdentity.Email != identity.Email || gotIdentity.ID != identity.ID {
		t.Fatalf("unexpected identity %+v", gotIdentity)
	}
	if !store.IsAuthenticated(ctx) {
		t.Fatalf("expected authenticated store")
	}
}

func TestSQLStoreSaveKeepsSingleRow(t *testing.T) {
	ctx := context.Background()
	store, db := newSQLiteStore(t)

	if err := store.Save(ctx, core.CredentialPair{AccessToken: "a1", RefreshToken: "r1"}, &core.Identity{ID: 1}); err != nil {
		t.Fatalf("first save: %v", err)
	}
	if err := store.Save(ctx, core.CredentialPair{AccessToken: "a2", RefreshToken: "r2"}, nil); err != nil {
		t.Fatalf("second save: %v", err)
	}

	var rows int
	if err := db.NewRaw("SELECT COUNT(*) FROM client_sessions").Scan(ctx, &rows); err != nil {
		t.Fatalf("count rows: %v", err)
	}
	if rows != 1 {
		t.Fatalf("expected one session row, got %d", rows)
	}

	loaded, found, err := store.Load(ctx)
	if err != nil || !found {
		t.Fatalf("load: found=%v err=%v", found, err)
	}
	if loaded.AccessToken != "a2" || loaded.RefreshToken != "r2" {
		t.Fatalf("expected latest pair, got %+v", loaded)
	}
	// Identity was not part of the second save, so it is gone with the row.
	if _, hasIdentity, _ := store.LoadIdentity(ctx); hasIdentity {
		t.Fatalf("expected identity replaced away")
	}
}

func TestSQLStoreClearIsIdempotent(t *testing.T) {
	ctx := context.Background()
	store, _ := newSQLiteStore(t)

	if err := store.Clear(ctx); err != nil {
		t.Fatalf("clear empty store: %v", err)
	}
	if err := store.Save(ctx, core.CredentialPair{AccessToken: "a", RefreshToken: "r"}, nil); err != nil {
		t.Fatalf("save: %v", err)
	}
	if err := store.Clear(ctx); err != nil {
		t.Fatalf("clear: %v", err)
	}
	if err := store.Clear(ctx); err != nil {
		t.Fatalf("second clear: %v", err)
	}
	if _, found, _ := store.Load(ctx); found {
		t.Fatalf("expected nothing after clear")
	}
	if store.IsAuthenticated(ctx) {
		t.Fatalf("cleared store reported authenticated")
	}
}

func TestCachedCredentialStoreServesReadsFromCache(t *testing.T) {
	ctx := context.Background()
	base, db := newSQLiteStore(t)

	cacheService := newTestSessionCacheService(t)
	cached, err := sqlstore.NewCachedCredentialStore(base, cacheService)
	if err != nil {
		t.Fatalf("new cached store: %v", err)
	}

	pair := core.CredentialPair{AccessToken: "cached-access", RefreshToken: "cached-refresh"}
	if err := cached.Save(ctx, pair, nil); err != nil {
		t.Fatalf("save: %v", err)
	}
	if _, found, err := cached.Load(ctx); err != nil || !found {
		t.Fatalf("prime cache: found=%v err=%v", found, err)
	}

	// A read served from cache survives the row disappearing underneath.
	if _, err := db.NewRaw("DELETE FROM client_sessions").Exec(ctx); err != nil {
		t.Fatalf("delete behind cache: %v", err)
	}
	loaded, found, err := cached.Load(ctx)
	if err != nil || !found {
		t.Fatalf("cached load: found=%v err=%v", found, err)
	}
	if loaded != pair {
		t.Fatalf("unexpected cached pair %+v", loaded)
	}

	// Writes invalidate, so the next read reflects the database again.
	newPair := core.CredentialPair{AccessToken: "new-access", RefreshToken: "new-refresh"}
	if err := cached.Save(ctx, newPair, nil); err != nil {
		t.Fatalf("save after cache: %v", err)
	}
	loaded, found, err = cached.Load(ctx)
	if err != nil || !found {
		t.Fatalf("load after invalidation: found=%v err=%v", found, err)
	}
	if loaded != newPair {
		t.Fatalf("expected fresh pair after invalidation, got %+v", loaded)
	}
}

func TestCachedCredentialStoreClearInvalidates(t *testing.T) {
	ctx := context.Background()
	base, _ := newSQLiteStore(t)

	cached, err := sqlstore.NewCachedCredentialStore(base, newTestSessionCacheService(t))
	if err != nil {
		t.Fatalf("new cached store: %v", err)
	}

	if err := cached.Save(ctx, core.CredentialPair{AccessToken: "a", RefreshToken: "r"}, nil); err != nil {
		t.Fatalf("save: %v", err)
	}
	if _, found, err := cached.Load(ctx); err != nil || !found {
		t.Fatalf("prime cache: found=%v err=%v", found, err)
	}
	if err := cached.Clear(ctx); err != nil {
		t.Fatalf("clear: %v", err)
	}
	if _, found, _ := cached.Load(ctx); found {
		t.Fatalf("expected cleared session gone from cache too")
	}
	if cached.IsAuthenticated(ctx) {
		t.Fatalf("cleared cached store reported authenticated")
	}
}

func newTestSessionCacheService(t *testing.T) repositorycache.CacheService {
	t.Helper()
	config := repositorycache.DefaultConfig()
	config.TTL = time.Minute
	service, err := repositorycache.NewCacheService(config)
	if err != nil {
		t.Fatalf("new cache service: %v", err)
	}
	return service
}
