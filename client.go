// Package apiclient is a resilient client for the agent platform API. It
// attaches the stored bearer token to every call, detects expired sessions,
// coordinates a single refresh-token exchange across concurrent callers,
// and replays each rejected request exactly once with the new token.
package apiclient

import (
	"context"
	"fmt"
	"time"

	glog "github.com/goliatone/go-logger/glog"

	"github.com/agentplatform/go-apiclient/auth"
	"github.com/agentplatform/go-apiclient/core"
	memorystore "github.com/agentplatform/go-apiclient/store/memory"
	"github.com/agentplatform/go-apiclient/transport"
)

type Config = core.Config

type RefreshConfig = core.RefreshConfig

type CredentialPair = core.CredentialPair
type Identity = core.Identity
type Session = core.Session
type LoginInput = core.LoginInput
type RegisterInput = core.RegisterInput

type Agent = core.Agent
type AgentCreateInput = core.AgentCreateInput
type AgentUpdateInput = core.AgentUpdateInput
type AgentExecution = core.AgentExecution
type ExecuteAgentInput = core.ExecuteAgentInput

type SocialAccount = core.SocialAccount
type SocialPlatform = core.SocialPlatform
type ConnectSocialAccountInput = core.ConnectSocialAccountInput

type VectorCollection = core.VectorCollection
type VectorSearchQuery = core.VectorSearchQuery
type VectorSearchResult = core.VectorSearchResult

func DefaultConfig() Config {
	return core.DefaultConfig()
}

type clientBuilder struct {
	runtimeConfig   core.Config
	httpClient      core.HTTPDoer
	store           core.CredentialStore
	listener        core.SessionListener
	refresher       core.SessionRefresher
	logger          core.Logger
	loggerProvider  core.LoggerProvider
	metricsRecorder core.MetricsRecorder
	configProvider  core.ConfigProvider
	optionsResolver core.OptionsResolver
	rateLimit       transport.RateLimitPolicy
	now             func() time.Time
}

type Option func(*clientBuilder)

func WithHTTPClient(client core.HTTPDoer) Option {
	return func(b *clientBuilder) {
		b.httpClient = client
	}
}

func WithCredentialStore(store core.CredentialStore) Option {
	return func(b *clientBuilder) {
		b.store = store
	}
}

func WithSessionListener(listener core.SessionListener) Option {
	return func(b *clientBuilder) {
		b.listener = listener
	}
}

func WithSessionRefresher(refresher core.SessionRefresher) Option {
	return func(b *clientBuilder) {
		b.refresher = refresher
	}
}

func WithLogger(logger core.Logger) Option {
	return func(b *clientBuilder) {
		b.logger = logger
	}
}

func WithLoggerProvider(provider core.LoggerProvider) Option {
	return func(b *clientBuilder) {
		b.loggerProvider = provider
	}
}

func WithMetricsRecorder(recorder core.MetricsRecorder) Option {
	return func(b *clientBuilder) {
		b.metricsRecorder = recorder
	}
}

func WithConfigProvider(provider core.ConfigProvider) Option {
	return func(b *clientBuilder) {
		b.configProvider = provider
	}
}

func WithOptionsResolver(resolver core.OptionsResolver) Option {
	return func(b *clientBuilder) {
		b.optionsResolver = resolver
	}
}

func WithRateLimitPolicy(policy transport.RateLimitPolicy) Option {
	return func(b *clientBuilder) {
		b.rateLimit = policy
	}
}

func WithNow(now func() time.Time) Option {
	return func(b *clientBuilder) {
		b.now = now
	}
}

func defaultClientBuilder(runtime core.Config) clientBuilder {
	loggerProvider, logger := glog.Resolve("apiclient", nil, nil)
	return clientBuilder{
		runtimeConfig:   runtime,
		loggerProvider:  loggerProvider,
		logger:          logger,
		metricsRecorder: core.NopMetricsRecorder{},
		configProvider:  core.NewCfgxConfigProvider(nil),
		optionsResolver: core.GoOptionsResolver{},
	}
}

// Client is the typed façade over the request pipeline. All methods are safe
// for concurrent use.
type Client struct {
	config    core.Config
	store     core.CredentialStore
	refresher core.SessionRefresher
	pipeline  *transport.Pipeline
	logger    core.Logger
	metrics   core.MetricsRecorder
	now       func() time.Time
}

func NewClient(cfg Config, options ...Option) (*Client, error) {
	builder := defaultClientBuilder(cfg)
	for _, opt := range options {
		if opt == nil {
			continue
		}
		opt(&builder)
	}

	provider, logger := glog.Resolve("apiclient", builder.loggerProvider, builder.logger)
	logger = glog.Ensure(logger)
	if provider != nil {
		if named := provider.GetLogger("apiclient"); named != nil {
			logger = named
		}
	}

	if builder.configProvider == nil {
		builder.configProvider = core.NewCfgxConfigProvider(nil)
	}
	if builder.optionsResolver == nil {
		builder.optionsResolver = core.GoOptionsResolver{}
	}
	if builder.metricsRecorder == nil {
		builder.metricsRecorder = core.NopMetricsRecorder{}
	}
	if builder.now == nil {
		builder.now = func() time.Time { return time.Now().UTC() }
	}

	defaults := core.DefaultConfig()
	loaded, err := builder.configProvider.Load(context.Background(), defaults)
	if err != nil {
		return nil, core.MapError(err)
	}
	finalConfig, err := builder.optionsResolver.Resolve(defaults, loaded, builder.runtimeConfig)
	if err != nil {
		return nil, core.MapError(err)
	}

	store := builder.store
	if store == nil {
		store = memorystore.New()
	}

	refresher := builder.refresher
	if refresher == nil {
		refresher, err = auth.NewCoordinator(auth.CoordinatorConfig{
			BaseURL:        finalConfig.BaseURL,
			RefreshPath:    finalConfig.Refresh.Path,
			Client:         builder.httpClient,
			Store:          store,
			Logger:         logger,
			LoggerProvider: builder.loggerProvider,
			Metrics:        builder.metricsRecorder,
			Timeout:        finalConfig.Refresh.Timeout,
			Now:            builder.now,
		})
		if err != nil {
			return nil, core.MapError(err)
		}
	}

	pipeline, err := transport.NewPipeline(transport.PipelineConfig{
		BaseURL:              finalConfig.BaseURL,
		Client:               builder.httpClient,
		Store:                store,
		Refresher:            refresher,
		Listener:             builder.listener,
		Logger:               logger,
		LoggerProvider:       builder.loggerProvider,
		Metrics:              builder.metricsRecorder,
		RateLimit:            builder.rateLimit,
		MaxResponseBodyBytes: finalConfig.MaxResponseBodyBytes,
		RequestTimeout:       finalConfig.RequestTimeout,
	})
	if err != nil {
		return nil, core.MapError(err)
	}

	return &Client{
		config:    finalConfig,
		store:     store,
		refresher: refresher,
		pipeline:  pipeline,
		logger:    logger,
		metrics:   builder.metricsRecorder,
		now:       builder.now,
	}, nil
}

// Setup is an alias for NewClient kept for composition-root call sites.
func Setup(cfg Config, options ...Option) (*Client, error) {
	return NewClient(cfg, options...)
}

func (c *Client) Config() core.Config {
	if c == nil {
		return core.Config{}
	}
	return c.config
}

func (c *Client) CredentialStore() core.CredentialStore {
	if c == nil {
		return nil
	}
	return c.store
}

func (c *Client) guard() error {
	if c == nil || c.pipeline == nil {
		return fmt.Errorf("apiclient: client is not initialized")
	}
	return nil
}
