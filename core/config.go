package core

import (
	"fmt"
	"net/url"
	"strings"
	"time"
)

const (
	defaultRequestTimeout       = 30 * time.Second
	defaultMaxResponseBodyBytes = 10 << 20 // 10 MiB
	defaultRefreshPath          = "/auth/refresh"
	defaultRefreshTimeout       = 15 * time.Second
)

type Config struct {
	BaseURL              string        `koanf:"base_url" mapstructure:"base_url"`
	RequestTimeout       time.Duration `koanf:"request_timeout" mapstructure:"request_timeout"`
	MaxResponseBodyBytes int64         `koanf:"max_response_body_bytes" mapstructure:"max_response_body_bytes"`
	Refresh              RefreshConfig `koanf:"refresh" mapstructure:"refresh"`
}

type RefreshConfig struct {
	Path    string        `koanf:"path" mapstructure:"path"`
	Timeout time.Duration `koanf:"timeout" mapstructure:"timeout"`
}

func DefaultConfig() Config {
	return Config{
		RequestTimeout:       defaultRequestTimeout,
		MaxResponseBodyBytes: defaultMaxResponseBodyBytes,
		Refresh: RefreshConfig{
			Path:    defaultRefreshPath,
			Timeout: defaultRefreshTimeout,
		},
	}
}

func (c Config) Validate() error {
	base := strings.TrimSpace(c.BaseURL)
	if base == "" {
		return fmt.Errorf("core: base_url is required")
	}
	parsed, err := url.Parse(base)
	if err != nil {
		return fmt.Errorf("core: base_url is not a valid url: %w", err)
	}
	if parsed.Scheme == "" || parsed.Host == "" {
		return fmt.Errorf("core: base_url must be absolute, got %q", base)
	}
	if c.RequestTimeout < 0 {
		return fmt.Errorf("core: request_timeout must not be negative")
	}
	if c.MaxResponseBodyBytes < 0 {
		return fmt.Errorf("core: max_response_body_bytes must not be negative")
	}
	if strings.TrimSpace(c.Refresh.Path) == "" {
		return fmt.Errorf("core: refresh.path is required")
	}
	return nil
}
