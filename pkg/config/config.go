package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"
)

// Config holds all cascade proxy configuration.
type Config struct {
	Listen   string         `yaml:"listen" env:"CASCADE_LISTEN"`
	Upstream UpstreamConfig `yaml:"upstream"`
	Cascade  CascadeConfig  `yaml:"cascade"`
	Limits   LimitsConfig   `yaml:"limits"`
	Log      LogConfig      `yaml:"log"`
	Metrics  MetricsConfig  `yaml:"metrics"`
	Stats    StatsConfig    `yaml:"stats"`
}

// UpstreamConfig defines the completion backend.
// Format is "openai" (default) or "gemini".
type UpstreamConfig struct {
	URL          string        `yaml:"url" env:"CASCADE_UPSTREAM_URL"`
	APIKey       string        `yaml:"api_key" env:"CASCADE_API_KEY"`
	Format       string        `yaml:"format" env:"CASCADE_UPSTREAM_FORMAT"`
	Timeout      time.Duration `yaml:"timeout" env:"CASCADE_UPSTREAM_TIMEOUT"`
	SystemPrompt string        `yaml:"system_prompt"`
	Temperature  float64       `yaml:"temperature"`
	TopP         float64       `yaml:"top_p"`
	MaxTokens    int           `yaml:"max_tokens"`
	Referer      string        `yaml:"referer" env:"CASCADE_UPSTREAM_REFERER"`
	Title        string        `yaml:"title"`
}

// CascadeConfig controls where the ordered model list comes from.
type CascadeConfig struct {
	URL          string        `yaml:"url" env:"CASCADE_CONFIG_URL"`
	TTL          time.Duration `yaml:"ttl"`
	FetchTimeout time.Duration `yaml:"fetch_timeout"`
	Fallback     []string      `yaml:"fallback" env:"CASCADE_FALLBACK_MODELS" envSeparator:","`
}

// LimitsConfig bounds request admission and cascade pacing.
type LimitsConfig struct {
	RequestsPerMinute int           `yaml:"requests_per_minute" env:"CASCADE_REQUESTS_PER_MINUTE"`
	Window            time.Duration `yaml:"window"`
	Cooldown          time.Duration `yaml:"cooldown"`
	RetryDelay        time.Duration `yaml:"retry_delay"`
	RequestDeadline   time.Duration `yaml:"request_deadline" env:"CASCADE_REQUEST_DEADLINE"`
}

// LogConfig controls the process logger.
type LogConfig struct {
	Level  string `yaml:"level" env:"CASCADE_LOG_LEVEL"`
	Format string `yaml:"format" env:"CASCADE_LOG_FORMAT"`
}

// MetricsConfig controls the Prometheus endpoint.
type MetricsConfig struct {
	Enabled bool   `yaml:"enabled" env:"CASCADE_METRICS_ENABLED"`
	Path    string `yaml:"path"`
}

// StatsConfig controls the per-attempt SQLite ledger.
type StatsConfig struct {
	Enabled bool   `yaml:"enabled" env:"CASCADE_STATS_ENABLED"`
	DBPath  string `yaml:"db_path" env:"CASCADE_STATS_DB"`
}

// Default returns a Config with sensible defaults.
func Default() *Config {
	return &Config{
		Listen: ":8080",
		Upstream: UpstreamConfig{
			URL:          "https://openrouter.ai/api/v1/chat/completions",
			Format:       FormatOpenAI,
			Timeout:      30 * time.Second,
			SystemPrompt: DefaultSystemPrompt,
			Temperature:  0.7,
			TopP:         0.9,
			MaxTokens:    1024,
			Title:        "Elunari Studio",
		},
		Cascade: CascadeConfig{
			TTL:          5 * time.Minute,
			FetchTimeout: 3 * time.Second,
		},
		Limits: LimitsConfig{
			RequestsPerMinute: 10,
			Window:            time.Minute,
			Cooldown:          5 * time.Minute,
			RetryDelay:        200 * time.Millisecond,
			RequestDeadline:   60 * time.Second,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "console",
		},
		Metrics: MetricsConfig{
			Enabled: true,
			Path:    "/metrics",
		},
		Stats: StatsConfig{
			Enabled: false,
			DBPath:  "cascade.db",
		},
	}
}

// Upstream wire formats.
const (
	FormatOpenAI = "openai"
	FormatGemini = "gemini"
)

// Load reads a YAML config file, expands environment variables and applies
// CASCADE_* overrides. An empty path yields defaults plus the environment.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config: %w", err)
		}

		expanded := os.ExpandEnv(string(data))
		if err := yaml.Unmarshal([]byte(expanded), cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse environment: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate rejects settings the proxy cannot run with. A missing API key is
// not an error here; the chat endpoint reports it per request.
func (c *Config) Validate() error {
	var errs []error
	switch c.Upstream.Format {
	case FormatOpenAI, FormatGemini:
	default:
		errs = append(errs, fmt.Errorf("upstream.format: unknown format %q", c.Upstream.Format))
	}
	if c.Upstream.URL == "" {
		errs = append(errs, errors.New("upstream.url: required"))
	}
	if c.Limits.RequestsPerMinute <= 0 {
		errs = append(errs, errors.New("limits.requests_per_minute: must be positive"))
	}
	if c.Limits.Window <= 0 {
		errs = append(errs, errors.New("limits.window: must be positive"))
	}
	if c.Limits.Cooldown < 0 || c.Limits.RetryDelay < 0 || c.Limits.RequestDeadline < 0 {
		errs = append(errs, errors.New("limits: durations must not be negative"))
	}
	if len(errs) > 0 {
		return fmt.Errorf("invalid config: %w", errors.Join(errs...))
	}
	return nil
}

// Configured reports whether the upstream credential is present.
func (c *Config) Configured() bool {
	return c.Upstream.APIKey != ""
}
