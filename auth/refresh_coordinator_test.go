package auth_test

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"runtime"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/agentplatform/go-apiclient/auth"
	"github.com/agentplatform/go-apiclient/core"
	memorystore "github.com/agentplatform/go-apiclient/store/memory"
)

func newCoordinator(t *testing.T, baseURL string, store core.CredentialStore) *auth.Coordinator {
	t.Helper()
	coordinator, err := auth.NewCoordinator(auth.CoordinatorConfig{
		BaseURL: baseURL,
		Store:   store,
	})
	if err != nil {
		t.Fatalf("new coordinator: %v", err)
	}
	return coordinator
}

func TestCoordinatorFailsFastWithoutRefreshToken(t *testing.T) {
	ctx := context.Background()
	store := memorystore.New()

	var requests int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		atomic.AddInt32(&requests, 1)
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	coordinator := newCoordinator(t, server.URL, store)
	if _, err := coordinator.RefreshSession(ctx); err == nil {
		t.Fatalf("expected error without stored refresh token")
	}
	if got := atomic.LoadInt32(&requests); got != 0 {
		t.Fatalf("refresh without token reached the server %d times", got)
	}
}

func TestCoordinatorExchangePersistsNewPair(t *testing.T) {
	ctx := context.Background()
	store := memorystore.New()
	identity := core.Identity{ID: 42, Email: "ada@example.com"}
	if err := store.Save(ctx, core.CredentialPair{AccessToken: "old-access", RefreshToken: "old-refresh"}, &identity); err != nil {
		t.Fatalf("seed store: %v", err)
	}

	var gotBody map[string]string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/auth/refresh" {
			t.Errorf("unexpected refresh path %q", r.URL.Path)
		}
		if err := json.NewDecoder(r.Body).Decode(&gotBody); err != nil {
			t.Errorf("decode refresh body: %v", err)
		}
		fmt.Fprint(w, `{"access_token":"new-access","refresh_token":"new-refresh","token_type":"bearer"}`)
	}))
	defer server.Close()

	coordinator := newCoordinator(t, server.URL, store)
	pair, err := coordinator.RefreshSession(ctx)
	if err != nil {
		t.Fatalf("refresh session: %v", err)
	}
	if pair.AccessToken != "new-access" || pair.RefreshToken != "new-refresh" {
		t.Fatalf("unexpected pair %+v", pair)
	}
	if gotBody["refresh_token"] != "old-refresh" {
		t.Fatalf("exchange sent wrong refresh token: %v", gotBody)
	}

	stored, found, err := store.Load(ctx)
	if err != nil || !found {
		t.Fatalf("load after refresh: found=%v err=%v", found, err)
	}
	if stored.AccessToken != "new-access" {
		t.Fatalf("store not updated, got %+v", stored)
	}
	storedIdentity, hasIdentity, err := store.LoadIdentity(ctx)
	if err != nil || !hasIdentity {
		t.Fatalf("identity lost across refresh: found=%v err=%v", hasIdentity, err)
	}
	if storedIdentity.ID != identity.ID {
		t.Fatalf("identity changed across refresh: %+v", storedIdentity)
	}
}

func TestCoordinatorKeepsRefreshTokenWhenResponseOmitsIt(t *testing.T) {
	ctx := context.Background()
	store := memorystore.New()
	if err := store.Save(ctx, core.CredentialPair{AccessToken: "old-access", RefreshToken: "sticky-refresh"}, nil); err != nil {
		t.Fatalf("seed store: %v", err)
	}

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprint(w, `{"access_token":"new-access"}`)
	}))
	defer server.Close()

	coordinator := newCoordinator(t, server.URL, store)
	pair, err := coordinator.RefreshSession(ctx)
	if err != nil {
		t.Fatalf("refresh session: %v", err)
	}
	if pair.RefreshToken != "sticky-refresh" {
		t.Fatalf("expected previous refresh token kept, got %q", pair.RefreshToken)
	}
}

func TestCoordinatorRejectsRemoteFailure(t *testing.T) {
	ctx := context.Background()
	store := memorystore.New()
	if err := store.Save(ctx, core.CredentialPair{AccessToken: "old-access", RefreshToken: "old-refresh"}, nil); err != nil {
		t.Fatalf("seed store: %v", err)
	}

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer server.Close()

	coordinator := newCoordinator(t, server.URL, store)
	if _, err := coordinator.RefreshSession(ctx); err == nil {
		t.Fatalf("expected error for rejected refresh")
	}

	stored, found, err := store.Load(ctx)
	if err != nil || !found {
		t.Fatalf("load after failed refresh: found=%v err=%v", found, err)
	}
	if stored.AccessToken != "old-access" {
		t.Fatalf("failed refresh mutated stored credentials: %+v", stored)
	}
}

func TestCoordinatorDeduplicatesConcurrentRefreshes(t *testing.T) {
	ctx := context.Background()
	store := memorystore.New()
	if err := store.Save(ctx, core.CredentialPair{AccessToken: "old-access", RefreshToken: "old-refresh"}, nil); err != nil {
		t.Fatalf("seed store: %v", err)
	}

	var requests int32
	release := make(chan struct{})
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		atomic.AddInt32(&requests, 1)
		<-release
		fmt.Fprint(w, `{"access_token":"new-access","refresh_token":"new-refresh"}`)
	}))
	defer server.Close()

	coordinator := newCoordinator(t, server.URL, store)

	const callers = 8
	var wg sync.WaitGroup
	results := make([]core.CredentialPair, callers)
	errs := make([]error, callers)
	wg.Add(callers)
	for i := 0; i < callers; i++ {
		go func(i int) {
			defer wg.Done()
			results[i], errs[i] = coordinator.RefreshSession(ctx)
		}(i)
	}

	// Let every caller queue up behind the in-flight exchange before
	// the server responds.
	for atomic.LoadInt32(&requests) == 0 {
		runtime.Gosched()
	}
	time.Sleep(50 * time.Millisecond)
	close(release)
	wg.Wait()

	for i := 0; i < callers; i++ {
		if errs[i] != nil {
			t.Fatalf("caller %d: %v", i, errs[i])
		}
		if results[i].AccessToken != "new-access" {
			t.Fatalf("caller %d got pair %+v", i, results[i])
		}
	}
	if got := atomic.LoadInt32(&requests); got != 1 {
		t.Fatalf("expected a single exchange, server saw %d", got)
	}
}
