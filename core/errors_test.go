package core_test

import (
	"fmt"
	"net/http"
	"testing"

	goerrors "github.com/goliatone/go-errors"

	"github.com/agentplatform/go-apiclient/core"
)

func TestIsSessionExpired(t *testing.T) {
	if core.IsSessionExpired(nil) {
		t.Fatalf("nil error reported as session expired")
	}
	if core.IsSessionExpired(fmt.Errorf("boom")) {
		t.Fatalf("plain error reported as session expired")
	}
	if !core.IsSessionExpired(core.NewSessionExpiredError(nil)) {
		t.Fatalf("terminal error not recognized")
	}

	wrapped := fmt.Errorf("dispatch failed: %w", core.NewSessionExpiredError(fmt.Errorf("refresh rejected")))
	if !core.IsSessionExpired(wrapped) {
		t.Fatalf("wrapped terminal error not recognized")
	}
	if core.IsSessionExpired(core.NewAuthRequiredError("")) {
		t.Fatalf("auth-required error must not read as session expired")
	}
}

func TestNewRemoteErrorCarriesStatusAndBody(t *testing.T) {
	err := core.NewRemoteError(http.StatusConflict, []byte(`{"detail":"duplicate"}`))
	if err.Code != http.StatusConflict {
		t.Fatalf("expected code 409, got %d", err.Code)
	}
	if err.TextCode != core.ClientErrorRemote {
		t.Fatalf("expected remote text code, got %q", err.TextCode)
	}
	if got := err.Metadata["response_body"]; got != `{"detail":"duplicate"}` {
		t.Fatalf("body not preserved in metadata: %v", got)
	}
}

func TestRemoteErrorCategories(t *testing.T) {
	cases := []struct {
		status int
		want   goerrors.Category
	}{
		{http.StatusUnauthorized, goerrors.CategoryAuth},
		{http.StatusForbidden, goerrors.CategoryAuthz},
		{http.StatusNotFound, goerrors.CategoryNotFound},
		{http.StatusConflict, goerrors.CategoryConflict},
		{http.StatusTooManyRequests, goerrors.CategoryRateLimit},
		{http.StatusUnprocessableEntity, goerrors.CategoryBadInput},
		{http.StatusInternalServerError, goerrors.CategoryExternal},
		{http.StatusBadGateway, goerrors.CategoryExternal},
	}
	for _, tc := range cases {
		err := core.NewRemoteError(tc.status, nil)
		if err.Category != tc.want {
			t.Fatalf("status %d: got category %q, want %q", tc.status, err.Category, tc.want)
		}
	}
}

func TestMapErrorNormalizesPlainErrors(t *testing.T) {
	err := core.MapError(fmt.Errorf("core: email is required"))
	if err.TextCode != core.ClientErrorBadInput {
		t.Fatalf("expected bad input text code, got %q", err.TextCode)
	}
	if err.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", err.Code)
	}

	authErr := core.MapError(fmt.Errorf("apiclient: not authenticated"))
	if authErr.TextCode != core.ClientErrorAuthRequired {
		t.Fatalf("expected auth text code, got %q", authErr.TextCode)
	}
}

func TestMapErrorPreservesRichErrors(t *testing.T) {
	original := core.NewSessionExpiredError(nil)
	mapped := core.MapError(original)
	if mapped.TextCode != core.ClientErrorSessionExpired {
		t.Fatalf("rich error text code rewritten to %q", mapped.TextCode)
	}
	if core.MapError(nil) != nil {
		t.Fatalf("mapping nil must return nil")
	}
}
