package core_test

import (
	"testing"

	"github.com/agentplatform/go-apiclient/core"
)

func TestAPIRequestNextAttemptDoesNotMutateOriginal(t *testing.T) {
	original := core.APIRequest{
		Method:  "POST",
		Path:    "/agents",
		Query:   map[string]string{"page": "1"},
		Headers: map[string]string{"X-Trace": "abc"},
		Body:    []byte(`{"name":"writer"}`),
	}

	replay := original.NextAttempt()
	if replay.Attempt != 1 {
		t.Fatalf("expected attempt 1, got %d", replay.Attempt)
	}
	if original.Attempt != 0 {
		t.Fatalf("original attempt mutated to %d", original.Attempt)
	}

	replay.Query["page"] = "2"
	replay.Headers["X-Trace"] = "xyz"
	replay.Body[0] = '['
	if original.Query["page"] != "1" {
		t.Fatalf("query map shared between original and replay")
	}
	if original.Headers["X-Trace"] != "abc" {
		t.Fatalf("header map shared between original and replay")
	}
	if original.Body[0] != '{' {
		t.Fatalf("body slice shared between original and replay")
	}
}

func TestAPIRequestValidateRequiresPath(t *testing.T) {
	if err := (core.APIRequest{Method: "GET"}).Validate(); err == nil {
		t.Fatalf("expected error for empty path")
	}
	if err := (core.APIRequest{Path: "/users/me"}).Validate(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestVectorSearchQueryNormalizeDefaultsK(t *testing.T) {
	cases := []struct {
		name  string
		in    core.VectorSearchQuery
		wantK int
	}{
		{"zero k", core.VectorSearchQuery{Query: "hello"}, core.DefaultVectorSearchK},
		{"negative k", core.VectorSearchQuery{Query: "hello", K: -3}, core.DefaultVectorSearchK},
		{"explicit k", core.VectorSearchQuery{Query: "hello", K: 12}, 12},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			out := tc.in.Normalize()
			if out.K != tc.wantK {
				t.Fatalf("got k=%d, want %d", out.K, tc.wantK)
			}
		})
	}
}

func TestVectorSearchQueryNormalizeTrimsQuery(t *testing.T) {
	out := core.VectorSearchQuery{Query: "  hello  ", K: 3}.Normalize()
	if out.Query != "hello" {
		t.Fatalf("expected trimmed query, got %q", out.Query)
	}
	if err := (core.VectorSearchQuery{Query: "   "}).Validate(); err == nil {
		t.Fatalf("expected error for blank query")
	}
}

func TestCredentialPairPredicates(t *testing.T) {
	if !(core.CredentialPair{}).IsZero() {
		t.Fatalf("empty pair should be zero")
	}
	pair := core.CredentialPair{AccessToken: "a", RefreshToken: " "}
	if !pair.HasAccessToken() {
		t.Fatalf("expected access token present")
	}
	if pair.HasRefreshToken() {
		t.Fatalf("whitespace refresh token should not count")
	}
}

func TestLoginInputValidate(t *testing.T) {
	if err := (core.LoginInput{Email: "ada@example.com", Password: "secret"}).Validate(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := (core.LoginInput{Password: "secret"}).Validate(); err == nil {
		t.Fatalf("expected error for missing email")
	}
	if err := (core.LoginInput{Email: "ada@example.com"}).Validate(); err == nil {
		t.Fatalf("expected error for missing password")
	}
}

func TestAgentCreateInputValidate(t *testing.T) {
	if err := (core.AgentCreateInput{Name: "writer"}).Validate(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := (core.AgentCreateInput{Name: "   "}).Validate(); err == nil {
		t.Fatalf("expected error for blank name")
	}
	long := make([]byte, 101)
	for i := range long {
		long[i] = 'a'
	}
	if err := (core.AgentCreateInput{Name: string(long)}).Validate(); err == nil {
		t.Fatalf("expected error for overlong name")
	}
}
