package gocommand_test

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/goliatone/go-command"
	jobqueuecommand "github.com/goliatone/go-job/queue/command"

	apiclient "github.com/agentplatform/go-apiclient"
	"github.com/agentplatform/go-apiclient/adapters/gocommand"
	clientcommand "github.com/agentplatform/go-apiclient/command"
	"github.com/agentplatform/go-apiclient/core"
	clientquery "github.com/agentplatform/go-apiclient/query"
)

type pingMessage struct{}

func (pingMessage) Type() string { return "apiclient.bus.ping" }

type blankTypeMessage struct{}

func (blankTypeMessage) Type() string { return "   " }

func TestValidateMessageContract(t *testing.T) {
	msg := clientcommand.LoginMessage{
		Input: core.LoginInput{Email: "ada@example.com", Password: "correct horse"},
	}
	if err := gocommand.ValidateMessageContract(msg); err != nil {
		t.Fatalf("valid message rejected: %v", err)
	}
	if err := gocommand.ValidateMessageContract(blankTypeMessage{}); err == nil {
		t.Fatalf("expected blank message type to be rejected")
	}
}

func TestRegistryAdapterMirrorsCommandsIntoQueueRegistry(t *testing.T) {
	queueRegistry := jobqueuecommand.NewRegistry()
	adapter := gocommand.NewRegistryAdapter(command.NewRegistry())

	if err := adapter.AddQueueResolver("queue", queueRegistry); err != nil {
		t.Fatalf("add queue resolver: %v", err)
	}
	if !adapter.HasResolver("queue") {
		t.Fatalf("expected queue resolver to be registered")
	}

	if err := adapter.RegisterCommand(command.CommandFunc[pingMessage](func(context.Context, pingMessage) error {
		return nil
	})); err != nil {
		t.Fatalf("register command: %v", err)
	}
	if err := adapter.Initialize(); err != nil {
		t.Fatalf("initialize command registry: %v", err)
	}
	if _, ok := queueRegistry.Get("apiclient.bus.ping"); !ok {
		t.Fatalf("expected resolver hook to mirror command into queue registry")
	}
}

func TestRegistryAdapterRejectsNilQueueRegistry(t *testing.T) {
	adapter := gocommand.NewRegistryAdapter(nil)
	if err := adapter.AddQueueResolver("queue", nil); err == nil {
		t.Fatalf("expected nil queue registry to be rejected")
	}
}

func TestRegisterClientHandlersRequiresAdapterAndFacade(t *testing.T) {
	facade := newBusFacade(t, newBusServer(t).URL)

	if _, err := gocommand.RegisterClientHandlers(nil, facade); err == nil {
		t.Fatalf("expected nil adapter to be rejected")
	}
	adapter := gocommand.NewRegistryAdapter(command.NewRegistry())
	if _, err := gocommand.RegisterClientHandlers(adapter, nil); err == nil {
		t.Fatalf("expected nil facade to be rejected")
	}
}

func TestRegisterClientHandlersDispatchesThroughBus(t *testing.T) {
	ctx := context.Background()
	server := newBusServer(t)
	facade := newBusFacade(t, server.URL)

	queueRegistry := jobqueuecommand.NewRegistry()
	adapter := gocommand.NewRegistryAdapter(command.NewRegistry())
	if err := adapter.AddQueueResolver("queue", queueRegistry); err != nil {
		t.Fatalf("add queue resolver: %v", err)
	}

	subscriptions, err := gocommand.RegisterClientHandlers(adapter, facade)
	if err != nil {
		t.Fatalf("register client handlers: %v", err)
	}
	defer func() {
		for _, subscription := range subscriptions {
			subscription.Unsubscribe()
		}
	}()
	if len(subscriptions) != 17 {
		t.Fatalf("expected 17 subscriptions, got %d", len(subscriptions))
	}

	if err := adapter.Initialize(); err != nil {
		t.Fatalf("initialize adapter: %v", err)
	}
	if _, ok := queueRegistry.Get(clientcommand.TypeLogin); !ok {
		t.Fatalf("expected login command mirrored into queue registry")
	}
	if _, ok := queueRegistry.Get(clientcommand.TypeExecuteAgent); !ok {
		t.Fatalf("expected execute-agent command mirrored into queue registry")
	}
	// Queries answer on the dispatcher; a queue worker has nowhere to send
	// their results, so they must not be mirrored.
	if _, ok := queueRegistry.Get(clientquery.TypeSearchVectorCollection); ok {
		t.Fatalf("query mirrored into queue registry")
	}

	collector := command.NewResult[core.Session]()
	loginCtx := command.ContextWithResult(ctx, collector)
	if err := gocommand.Dispatch(loginCtx, clientcommand.LoginMessage{
		Input: core.LoginInput{Email: "ada@example.com", Password: "correct horse"},
	}); err != nil {
		t.Fatalf("dispatch login: %v", err)
	}
	session, ok := collector.Load()
	if !ok {
		t.Fatalf("expected login session in result collector")
	}
	if session.Credentials.AccessToken != "bus-access" {
		t.Fatalf("unexpected access token %q", session.Credentials.AccessToken)
	}

	identity, err := gocommand.Query[clientquery.CurrentUserMessage, core.Identity](ctx, clientquery.CurrentUserMessage{})
	if err != nil {
		t.Fatalf("query current user: %v", err)
	}
	if identity.ID != 7 || identity.Username != "ada" {
		t.Fatalf("unexpected identity %+v", identity)
	}
}

func newBusServer(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("POST /auth/login", func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprint(w, `{"access_token":"bus-access","refresh_token":"bus-refresh","token_type":"bearer","user":{"id":7,"email":"ada@example.com","username":"ada"}}`)
	})
	mux.HandleFunc("GET /users/me", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer bus-access" {
			http.Error(w, `{"detail":"not authenticated"}`, http.StatusUnauthorized)
			return
		}
		fmt.Fprint(w, `{"id":7,"email":"ada@example.com","username":"ada"}`)
	})
	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)
	return server
}

func newBusFacade(t *testing.T, baseURL string) *apiclient.Facade {
	t.Helper()
	cfg := apiclient.DefaultConfig()
	cfg.BaseURL = baseURL
	client, err := apiclient.NewClient(cfg)
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	facade, err := apiclient.NewFacade(client)
	if err != nil {
		t.Fatalf("new facade: %v", err)
	}
	return facade
}
