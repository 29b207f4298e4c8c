package recorder

import (
	"errors"
	"fmt"
	"time"

	"github.com/kelseyhightower/envconfig"
	"go.uber.org/zap"

	"github.com/jonwraymond/tracewire/event"
)

// Config holds all configuration for a Core. The zero value plus a Service
// name is usable; unset fields fall back to the listed defaults.
type Config struct {
	// Service is the logical service name sent at registration.
	Service string `envconfig:"SERVICE"`

	// MinLevel is the lowest log level emitted: debug|info|warn|error.
	// Default: "debug"
	MinLevel string `envconfig:"MIN_LEVEL"`

	// MaxQueueRows is the row capacity of each stream queue.
	// Default: 512
	MaxQueueRows int `envconfig:"MAX_QUEUE_ROWS"`

	// MaxQueueBytes is the approximate byte capacity of each stream queue.
	// Default: 65536
	MaxQueueBytes int `envconfig:"MAX_QUEUE_BYTES"`

	// FlushInterval, when positive, drives a periodic flush of every live
	// stream so low-traffic contexts still ship telemetry promptly. Zero
	// disables the internal ticker; the owner may call FlushAll itself.
	// Default: 0
	FlushInterval time.Duration `envconfig:"FLUSH_INTERVAL"`

	// MaxLocals bounds the stream registry. Past it, acquiring a new Local
	// flushes and unregisters the least-recently-used one instead of
	// failing.
	// Default: 1024
	MaxLocals int `envconfig:"MAX_LOCALS"`

	// MaxSendAttempts is the per-block delivery attempt budget.
	// Default: 4
	MaxSendAttempts int `envconfig:"MAX_SEND_ATTEMPTS"`

	// RetryInitialDelay is the backoff before the first send retry.
	// Default: 50ms
	RetryInitialDelay time.Duration `envconfig:"RETRY_INITIAL_DELAY"`

	// RetryMaxDelay caps the backoff between send retries.
	// Default: 2s
	RetryMaxDelay time.Duration `envconfig:"RETRY_MAX_DELAY"`

	// SendDeadline bounds a single send attempt.
	// Default: 5s
	SendDeadline time.Duration `envconfig:"SEND_DEADLINE"`

	// Diag receives the core's own diagnostics (unbalanced span ends,
	// failed registration). Nil keeps degradation silent.
	Diag *zap.Logger `ignored:"true"`
}

// ConfigFromEnv builds a Config from TRACEWIRE_* environment variables.
func ConfigFromEnv() (Config, error) {
	var c Config
	if err := envconfig.Process("tracewire", &c); err != nil {
		return Config{}, fmt.Errorf("recorder: reading environment: %w", err)
	}
	return c, nil
}

// Valid log levels.
var validLevels = map[string]bool{
	"debug": true,
	"info":  true,
	"warn":  true,
	"error": true,
	"":      true, // Empty falls back to the default
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if c.Service == "" {
		return errors.New("recorder: service name is required")
	}
	if !validLevels[c.MinLevel] {
		return fmt.Errorf("recorder: unknown level: %q", c.MinLevel)
	}
	if c.MaxQueueRows < 0 || c.MaxQueueBytes < 0 {
		return errors.New("recorder: queue capacities must not be negative")
	}
	if c.FlushInterval < 0 {
		return errors.New("recorder: flush interval must not be negative")
	}
	if c.MaxLocals < 0 {
		return errors.New("recorder: max locals must not be negative")
	}
	return nil
}

func (c Config) withDefaults() Config {
	if c.MinLevel == "" {
		c.MinLevel = "debug"
	}
	if c.MaxQueueRows == 0 {
		c.MaxQueueRows = 512
	}
	if c.MaxQueueBytes == 0 {
		c.MaxQueueBytes = 64 * 1024
	}
	if c.MaxLocals == 0 {
		c.MaxLocals = 1024
	}
	return c
}

func (c Config) minLevel() event.Level {
	return event.ParseLevel(c.MinLevel)
}
