// Package gocommand registers the client's command and query handlers on a
// go-command registry and dispatcher so hosts drive the API client through
// their existing message bus.
package gocommand

import (
	"context"
	"fmt"
	"strings"

	"github.com/goliatone/go-command"
	commanddispatcher "github.com/goliatone/go-command/dispatcher"
	"github.com/goliatone/go-command/runner"
	jobqueuecommand "github.com/goliatone/go-job/queue/command"

	apiclient "github.com/agentplatform/go-apiclient"
)

// ValidateMessageContract enforces Type() plus optional Validate() contract.
func ValidateMessageContract(msg any) error {
	if err := command.ValidateMessage(msg); err != nil {
		return err
	}
	m, ok := msg.(command.Message)
	if !ok {
		return fmt.Errorf("gocommand: message must implement Type() string")
	}
	if strings.TrimSpace(m.Type()) == "" {
		return fmt.Errorf("gocommand: message type is required")
	}
	return nil
}

type RegistryAdapter struct {
	registry *command.Registry
}

func NewRegistryAdapter(registry *command.Registry) *RegistryAdapter {
	if registry == nil {
		registry = command.NewRegistry()
	}
	return &RegistryAdapter{registry: registry}
}

func (a *RegistryAdapter) Registry() *command.Registry {
	if a == nil {
		return nil
	}
	return a.registry
}

func (a *RegistryAdapter) RegisterCommand(cmd any) error {
	if a == nil || a.registry == nil {
		return fmt.Errorf("gocommand: registry is not configured")
	}
	return a.registry.RegisterCommand(cmd)
}

func (a *RegistryAdapter) AddResolver(key string, resolver command.Resolver) error {
	if a == nil || a.registry == nil {
		return fmt.Errorf("gocommand: registry is not configured")
	}
	return a.registry.AddResolver(strings.TrimSpace(key), resolver)
}

// AddQueueResolver routes commands through a go-job queue registry so
// session-refresh and agent commands can run on queue workers.
func (a *RegistryAdapter) AddQueueResolver(key string, queueRegistry *jobqueuecommand.Registry) error {
	if queueRegistry == nil {
		return fmt.Errorf("gocommand: queue registry is required")
	}
	return a.AddResolver(key, jobqueuecommand.QueueResolver(queueRegistry))
}

func (a *RegistryAdapter) HasResolver(key string) bool {
	if a == nil || a.registry == nil {
		return false
	}
	return a.registry.HasResolver(strings.TrimSpace(key))
}

func (a *RegistryAdapter) Initialize() error {
	if a == nil || a.registry == nil {
		return fmt.Errorf("gocommand: registry is not configured")
	}
	return a.registry.Initialize()
}

func SubscribeCommand[T any](cmd command.Commander[T], runnerOpts ...runner.Option) commanddispatcher.Subscription {
	return commanddispatcher.SubscribeCommand(cmd, runnerOpts...)
}

func SubscribeQuery[T any, R any](qry command.Querier[T, R], runnerOpts ...runner.Option) commanddispatcher.Subscription {
	return commanddispatcher.SubscribeQuery(qry, runnerOpts...)
}

func Dispatch[T any](ctx context.Context, msg T) error {
	return commanddispatcher.Dispatch(ctx, msg)
}

func Query[T any, R any](ctx context.Context, msg T) (R, error) {
	return commanddispatcher.Query[T, R](ctx, msg)
}

// RegisterClientHandlers wires every handler of a client façade onto the
// dispatcher. Commands are additionally registered on the command registry
// so its resolvers (queue mirroring, cron, RPC) see them; queries stay
// dispatcher-only because registry resolvers require fire-and-forget
// Execute handlers and a query's answer cannot ride a queue. The returned
// subscriptions stay active until unsubscribed by the host.
func RegisterClientHandlers(
	adapter *RegistryAdapter,
	facade *apiclient.Facade,
	runnerOpts ...runner.Option,
) ([]commanddispatcher.Subscription, error) {
	if adapter == nil || adapter.registry == nil {
		return nil, fmt.Errorf("gocommand: registry is not configured")
	}
	if facade == nil {
		return nil, fmt.Errorf("gocommand: client facade is required")
	}

	commands := facade.Commands()
	queries := facade.Queries()

	subscriptions := make([]commanddispatcher.Subscription, 0, 17)
	unsubscribeAll := func() {
		for _, subscription := range subscriptions {
			if subscription != nil {
				subscription.Unsubscribe()
			}
		}
	}

	register := func(handler any, subscribe func() commanddispatcher.Subscription) error {
		subscription := subscribe()
		if err := adapter.RegisterCommand(handler); err != nil {
			if subscription != nil {
				subscription.Unsubscribe()
			}
			return err
		}
		subscriptions = append(subscriptions, subscription)
		return nil
	}

	steps := []func() error{
		func() error {
			return register(commands.Login, func() commanddispatcher.Subscription {
				return SubscribeCommand(commands.Login, runnerOpts...)
			})
		},
		func() error {
			return register(commands.Register, func() commanddispatcher.Subscription {
				return SubscribeCommand(commands.Register, runnerOpts...)
			})
		},
		func() error {
			return register(commands.Logout, func() commanddispatcher.Subscription {
				return SubscribeCommand(commands.Logout, runnerOpts...)
			})
		},
		func() error {
			return register(commands.RefreshSession, func() commanddispatcher.Subscription {
				return SubscribeCommand(commands.RefreshSession, runnerOpts...)
			})
		},
		func() error {
			return register(commands.CreateAgent, func() commanddispatcher.Subscription {
				return SubscribeCommand(commands.CreateAgent, runnerOpts...)
			})
		},
		func() error {
			return register(commands.UpdateAgent, func() commanddispatcher.Subscription {
				return SubscribeCommand(commands.UpdateAgent, runnerOpts...)
			})
		},
		func() error {
			return register(commands.DeleteAgent, func() commanddispatcher.Subscription {
				return SubscribeCommand(commands.DeleteAgent, runnerOpts...)
			})
		},
		func() error {
			return register(commands.ExecuteAgent, func() commanddispatcher.Subscription {
				return SubscribeCommand(commands.ExecuteAgent, runnerOpts...)
			})
		},
		func() error {
			return register(commands.ConnectSocialAccount, func() commanddispatcher.Subscription {
				return SubscribeCommand(commands.ConnectSocialAccount, runnerOpts...)
			})
		},
		func() error {
			return register(commands.DisconnectSocialAccount, func() commanddispatcher.Subscription {
				return SubscribeCommand(commands.DisconnectSocialAccount, runnerOpts...)
			})
		},
	}

	for _, step := range steps {
		if err := step(); err != nil {
			unsubscribeAll()
			return nil, err
		}
	}

	subscriptions = append(subscriptions,
		SubscribeQuery(queries.CurrentUser, runnerOpts...),
		SubscribeQuery(queries.ListAgents, runnerOpts...),
		SubscribeQuery(queries.GetAgent, runnerOpts...),
		SubscribeQuery(queries.ListAgentExecutions, runnerOpts...),
		SubscribeQuery(queries.ListSocialAccounts, runnerOpts...),
		SubscribeQuery(queries.ListVectorCollections, runnerOpts...),
		SubscribeQuery(queries.SearchVectorCollection, runnerOpts...),
	)
	return subscriptions, nil
}
