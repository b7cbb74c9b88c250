package featureflow

import (
	"errors"
	"fmt"
	"log/slog"
	"maps"
	"net/http"
	"os"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/featureflow/featureflow-go/pkg/metrics"
	"github.com/featureflow/featureflow-go/pkg/storage"
)

// Default service endpoints and tunables.
const (
	DefaultBaseURL       = "https://app.featureflow.io"
	DefaultEventsURL     = "https://events.featureflow.io"
	DefaultTimeout       = 10 * time.Second
	DefaultCacheTTL      = 10 * time.Second
	DefaultFlushInterval = 2 * time.Second
)

// Config holds the client's tunables. The zero value is not usable;
// start from DefaultConfig or LoadConfig and override with options.
type Config struct {
	// BaseURL is the feature service endpoint.
	BaseURL string `env:"FEATUREFLOW_BASE_URL" envDefault:"https://app.featureflow.io"`

	// EventsURL is the analytics events endpoint.
	EventsURL string `env:"FEATUREFLOW_EVENTS_URL" envDefault:"https://events.featureflow.io"`

	// Timeout bounds each network call.
	Timeout time.Duration `env:"FEATUREFLOW_TIMEOUT" envDefault:"10s"`

	// CacheTTL is the freshness window for cached features. Within the
	// window initialization skips the network entirely; zero disables the
	// shortcut while keeping the cached value as fallback data.
	CacheTTL time.Duration `env:"FEATUREFLOW_CACHE_TTL" envDefault:"10s"`

	// FlushInterval is the debounce delay before queued analytics events
	// are delivered.
	FlushInterval time.Duration `env:"FEATUREFLOW_FLUSH_INTERVAL" envDefault:"2s"`

	// Offline disables all network activity; evaluation resolves strictly
	// against DefaultFeatures.
	Offline bool `env:"FEATUREFLOW_OFFLINE" envDefault:"false"`

	// InitOnCache makes initialization reach the ready state on stale
	// cached data before the network refresh completes.
	InitOnCache bool `env:"FEATUREFLOW_INIT_ON_CACHE" envDefault:"false"`

	// UniqueEvals deduplicates evaluation events per feature key for the
	// client's lifetime.
	UniqueEvals bool `env:"FEATUREFLOW_UNIQUE_EVALS" envDefault:"true"`

	// DefaultFeatures maps feature keys to variants used when offline or
	// when no other feature data is available.
	DefaultFeatures map[string]string `env:"-"`
}

// DefaultConfig returns the built-in configuration.
func DefaultConfig() Config {
	return Config{
		BaseURL:       DefaultBaseURL,
		EventsURL:     DefaultEventsURL,
		Timeout:       DefaultTimeout,
		CacheTTL:      DefaultCacheTTL,
		FlushInterval: DefaultFlushInterval,
		UniqueEvals:   true,
	}
}

// LoadConfig builds a configuration from environment variables, loading a
// .env file first when one exists.
func LoadConfig() (Config, error) {
	// The .env file is optional.
	_ = godotenv.Load()

	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, errors.Join(ErrInvalidConfig, err)
	}
	return cfg, nil
}

// DefaultFeaturesFromFile reads a YAML mapping of feature keys to variants,
// letting deployments ship an offline fallback feature set alongside the
// binary.
func DefaultFeaturesFromFile(path string) (map[string]string, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Join(ErrInvalidConfig, err)
	}

	var features map[string]string
	if err := yaml.Unmarshal(raw, &features); err != nil {
		return nil, errors.Join(ErrInvalidConfig, fmt.Errorf("parse %s: %w", path, err))
	}
	return features, nil
}

type clientOptions struct {
	config     Config
	store      storage.Storage
	httpClient *http.Client
	log        *slog.Logger
	metrics    *metrics.Metrics
	now        func() time.Time
}

// Option is a functional option for configuring a Client.
type Option func(*clientOptions)

// WithConfig replaces the entire configuration.
func WithConfig(cfg Config) Option {
	return func(o *clientOptions) {
		o.config = cfg
	}
}

// WithBaseURL overrides the feature service endpoint.
func WithBaseURL(url string) Option {
	return func(o *clientOptions) {
		if url != "" {
			o.config.BaseURL = url
		}
	}
}

// WithEventsURL overrides the analytics events endpoint.
func WithEventsURL(url string) Option {
	return func(o *clientOptions) {
		if url != "" {
			o.config.EventsURL = url
		}
	}
}

// WithTimeout overrides the network call timeout.
func WithTimeout(timeout time.Duration) Option {
	return func(o *clientOptions) {
		if timeout > 0 {
			o.config.Timeout = timeout
		}
	}
}

// WithCacheTTL sets the freshness window for cached features. Zero is
// honoured and disables the freshness shortcut.
func WithCacheTTL(ttl time.Duration) Option {
	return func(o *clientOptions) {
		if ttl >= 0 {
			o.config.CacheTTL = ttl
		}
	}
}

// WithFlushInterval overrides the analytics flush debounce delay.
func WithFlushInterval(interval time.Duration) Option {
	return func(o *clientOptions) {
		if interval > 0 {
			o.config.FlushInterval = interval
		}
	}
}

// WithOffline toggles offline mode.
func WithOffline(offline bool) Option {
	return func(o *clientOptions) {
		o.config.Offline = offline
	}
}

// WithInitOnCache toggles ready-on-stale-cache initialization.
func WithInitOnCache(enabled bool) Option {
	return func(o *clientOptions) {
		o.config.InitOnCache = enabled
	}
}

// WithUniqueEvals toggles per-key deduplication of evaluation events.
func WithUniqueEvals(enabled bool) Option {
	return func(o *clientOptions) {
		o.config.UniqueEvals = enabled
	}
}

// WithDefaultFeatures sets the fallback feature set.
func WithDefaultFeatures(features map[string]string) Option {
	return func(o *clientOptions) {
		o.config.DefaultFeatures = maps.Clone(features)
	}
}

// WithStorage injects the persistent key-value capability used for feature
// caching and anonymous identity. Defaults to in-memory storage.
func WithStorage(store storage.Storage) Option {
	return func(o *clientOptions) {
		if store != nil {
			o.store = store
		}
	}
}

// WithHTTPClient injects the HTTP client used for all network calls.
func WithHTTPClient(httpClient *http.Client) Option {
	return func(o *clientOptions) {
		if httpClient != nil {
			o.httpClient = httpClient
		}
	}
}

// WithLogger injects the logger for the client's diagnostics. Defaults to
// a discard logger.
func WithLogger(log *slog.Logger) Option {
	return func(o *clientOptions) {
		if log != nil {
			o.log = log
		}
	}
}

// WithMetrics injects Prometheus instrumentation. Without it the client
// records nothing.
func WithMetrics(m *metrics.Metrics) Option {
	return func(o *clientOptions) {
		o.metrics = m
	}
}
