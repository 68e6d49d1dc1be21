package main

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
)

// Config holds all feedsim configuration.
//
// Tags:
//
//	env: Environment variable name
//	envDefault: Default value if not set
type Config struct {
	// HTTP surface: Prometheus /metrics and /healthz.
	Addr string `env:"FEEDSIM_ADDR" envDefault:":9102"`

	// Channel layer: which of the three wrapper packages drives the demo.
	ChannelMode string `env:"FEEDSIM_CHANNEL_MODE" envDefault:"sync"` // bare | sync | async
	ChannelSize int    `env:"FEEDSIM_CHANNEL_SIZE" envDefault:"1024"`

	// Feed source: where published items come from.
	FeedSource string `env:"FEEDSIM_FEED_SOURCE" envDefault:"synthetic"` // synthetic | nats | kafka

	NATSURL     string `env:"FEEDSIM_NATS_URL" envDefault:"nats://127.0.0.1:4222"`
	NATSSubject string `env:"FEEDSIM_NATS_SUBJECT" envDefault:"feedsim.ticks"`

	KafkaBrokers       string `env:"FEEDSIM_KAFKA_BROKERS" envDefault:"localhost:9092"`
	KafkaTopics        string `env:"FEEDSIM_KAFKA_TOPICS" envDefault:"ticks"`
	KafkaConsumerGroup string `env:"FEEDSIM_KAFKA_CONSUMER_GROUP" envDefault:"feedsim"`

	// SyntheticRate is the target publish rate, in items per second, for the
	// synthetic feed source.
	SyntheticRate int `env:"FEEDSIM_SYNTHETIC_RATE" envDefault:"200"`

	// SubscriberCount is how many simulated subscribers clone off the
	// channel's first subscriber and drain it concurrently.
	SubscriberCount int `env:"FEEDSIM_SUBSCRIBER_COUNT" envDefault:"50"`

	// WorkerQueueSize bounds the fan-out pool's pending job queue (bare-mode
	// subscriber polling only; sync and async subscribers run their own
	// blocking/suspending loop instead of a bounded worker).
	WorkerQueueSize int `env:"FEEDSIM_WORKER_QUEUE_SIZE" envDefault:"4096"`

	// Resource limits (from container), used to size the bare-mode polling
	// pool when WorkerPoolSize is left at its zero default.
	CPULimit       float64 `env:"FEEDSIM_CPU_LIMIT" envDefault:"1.0"`
	MemoryLimit    int64   `env:"FEEDSIM_MEMORY_LIMIT" envDefault:"536870912"` // 512MB
	WorkerPoolSize int     `env:"FEEDSIM_WORKER_POOL_SIZE" envDefault:"0"`     // 0 = auto (cgroup-aware)

	// Monitoring
	MetricsInterval time.Duration `env:"FEEDSIM_METRICS_INTERVAL" envDefault:"5s"`

	// Logging
	LogLevel  string `env:"LOG_LEVEL" envDefault:"info"`
	LogFormat string `env:"LOG_FORMAT" envDefault:"json"`

	// Environment
	Environment string `env:"ENVIRONMENT" envDefault:"development"`
}

// LoadConfig reads configuration from a .env file (if present) and from the
// environment. Priority: real env vars > .env file > struct defaults.
func LoadConfig(logger *zerolog.Logger) (*Config, error) {
	if err := godotenv.Load(); err != nil {
		if logger != nil {
			logger.Info().Msg("no .env file found, using environment variables only")
		}
	} else if logger != nil {
		logger.Info().Msg("loaded configuration from .env file")
	}

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// Validate checks configuration for internally-inconsistent or out-of-range
// values before the demo binary acts on them.
func (c *Config) Validate() error {
	if c.Addr == "" {
		return fmt.Errorf("FEEDSIM_ADDR is required")
	}
	if c.ChannelSize < 1 {
		return fmt.Errorf("FEEDSIM_CHANNEL_SIZE must be > 0, got %d", c.ChannelSize)
	}
	if c.SubscriberCount < 1 {
		return fmt.Errorf("FEEDSIM_SUBSCRIBER_COUNT must be > 0, got %d", c.SubscriberCount)
	}
	if c.SyntheticRate < 0 {
		return fmt.Errorf("FEEDSIM_SYNTHETIC_RATE must be >= 0, got %d", c.SyntheticRate)
	}

	validModes := map[string]bool{"bare": true, "sync": true, "async": true}
	if !validModes[c.ChannelMode] {
		return fmt.Errorf("FEEDSIM_CHANNEL_MODE must be one of: bare, sync, async (got: %s)", c.ChannelMode)
	}

	validSources := map[string]bool{"synthetic": true, "nats": true, "kafka": true}
	if !validSources[c.FeedSource] {
		return fmt.Errorf("FEEDSIM_FEED_SOURCE must be one of: synthetic, nats, kafka (got: %s)", c.FeedSource)
	}

	validLogLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLogLevels[c.LogLevel] {
		return fmt.Errorf("LOG_LEVEL must be one of: debug, info, warn, error (got: %s)", c.LogLevel)
	}

	validLogFormats := map[string]bool{"json": true, "pretty": true}
	if !validLogFormats[c.LogFormat] {
		return fmt.Errorf("LOG_FORMAT must be one of: json, pretty (got: %s)", c.LogFormat)
	}

	return nil
}

// Print logs configuration for debugging in a human-readable form, used at
// startup before the structured logger is configured.
func (c *Config) Print() {
	fmt.Println("=== Feedsim Configuration ===")
	fmt.Printf("Environment:      %s\n", c.Environment)
	fmt.Printf("Addr:             %s\n", c.Addr)
	fmt.Printf("Channel mode:     %s (size %d)\n", c.ChannelMode, c.ChannelSize)
	fmt.Printf("Feed source:      %s\n", c.FeedSource)
	fmt.Printf("Subscribers:      %d\n", c.SubscriberCount)
	fmt.Printf("Synthetic rate:   %d/sec\n", c.SyntheticRate)
	fmt.Println("=============================")
}

// LogConfig logs configuration using structured logging.
func (c *Config) LogConfig(logger zerolog.Logger) {
	logger.Info().
		Str("environment", c.Environment).
		Str("addr", c.Addr).
		Str("channel_mode", c.ChannelMode).
		Int("channel_size", c.ChannelSize).
		Str("feed_source", c.FeedSource).
		Int("subscriber_count", c.SubscriberCount).
		Int("synthetic_rate", c.SyntheticRate).
		Dur("metrics_interval", c.MetricsInterval).
		Str("log_level", c.LogLevel).
		Str("log_format", c.LogFormat).
		Msg("feedsim configuration loaded")
}
