package relayer

import (
	"fmt"
	"math"
	"time"

	"go.uber.org/multierr"
)

const (
	DefaultMaxConcurrentMessages = 1
	DefaultMaxRetryAttempts      = 3
	DefaultRetryDelaySecs        = 5
	DefaultMessageHistoryHours   = 24
	DefaultPollInterval          = 1 * time.Second
	DefaultListenRetryAttempts   = 1

	// Largest values that still fit a time.Duration.
	MaxMessageHistoryHours = uint64(math.MaxInt64 / int64(time.Hour))
	MaxDurationSecs        = uint64(math.MaxInt64 / int64(time.Second))
)

// Config holds the static tunables of a Service.
// It is read-only once the service has been constructed.
type Config struct {
	// MaxConcurrentMessages bounds how many messages one processor iteration
	// dequeues and relays in parallel.
	MaxConcurrentMessages int `yaml:"max-concurrent-messages" json:"max-concurrent-messages"`

	// MaxRetryAttempts is the number of failed attempts after which a message
	// is given up on.
	MaxRetryAttempts uint32 `yaml:"max-retry-attempts" json:"max-retry-attempts"`

	// RetryDelaySecs is how long a failed message waits before it is requeued.
	RetryDelaySecs uint64 `yaml:"retry-delay-secs" json:"retry-delay-secs"`

	EnableAutoPruning   bool   `yaml:"enable-auto-pruning" json:"enable-auto-pruning"`
	MessageHistoryHours uint64 `yaml:"message-history-hours" json:"message-history-hours"`

	// PollInterval is the fixed sleep between iterations of both loops.
	PollInterval time.Duration `yaml:"poll-interval" json:"poll-interval"`

	// AdapterTimeoutSecs bounds every adapter call. Zero disables the timeout.
	AdapterTimeoutSecs uint64 `yaml:"adapter-timeout-secs" json:"adapter-timeout-secs"`

	// ListenRetryAttempts is the number of times the watcher tries to list
	// events in a single iteration before giving up until the next one.
	ListenRetryAttempts uint `yaml:"listen-retry-attempts" json:"listen-retry-attempts"`
}

// DefaultConfig returns the configuration used when none is provided.
func DefaultConfig() Config {
	return Config{
		MaxConcurrentMessages: DefaultMaxConcurrentMessages,
		MaxRetryAttempts:      DefaultMaxRetryAttempts,
		RetryDelaySecs:        DefaultRetryDelaySecs,
		EnableAutoPruning:     true,
		MessageHistoryHours:   DefaultMessageHistoryHours,
		PollInterval:          DefaultPollInterval,
		ListenRetryAttempts:   DefaultListenRetryAttempts,
	}
}

// Validate returns every problem found in c, combined.
func (c Config) Validate() error {
	var err error
	if c.MaxConcurrentMessages < 1 {
		err = multierr.Append(err, NewConfigurationError(
			fmt.Sprintf("max-concurrent-messages must be at least 1, got %d", c.MaxConcurrentMessages),
		))
	}
	if c.PollInterval <= 0 {
		err = multierr.Append(err, NewConfigurationError(
			fmt.Sprintf("poll-interval must be positive, got %s", c.PollInterval),
		))
	}
	if c.ListenRetryAttempts < 1 {
		err = multierr.Append(err, NewConfigurationError("listen-retry-attempts must be at least 1"))
	}
	if c.EnableAutoPruning && c.MessageHistoryHours == 0 {
		err = multierr.Append(err, NewConfigurationError(
			"message-history-hours must be positive when auto pruning is enabled",
		))
	}
	if c.MessageHistoryHours > MaxMessageHistoryHours {
		err = multierr.Append(err, NewConfigurationError(
			fmt.Sprintf("message-history-hours must be at most %d, got %d", MaxMessageHistoryHours, c.MessageHistoryHours),
		))
	}
	if c.RetryDelaySecs > MaxDurationSecs {
		err = multierr.Append(err, NewConfigurationError(
			fmt.Sprintf("retry-delay-secs must be at most %d, got %d", MaxDurationSecs, c.RetryDelaySecs),
		))
	}
	if c.AdapterTimeoutSecs > MaxDurationSecs {
		err = multierr.Append(err, NewConfigurationError(
			fmt.Sprintf("adapter-timeout-secs must be at most %d, got %d", MaxDurationSecs, c.AdapterTimeoutSecs),
		))
	}
	return err
}

// durationOf returns n units, saturating at the largest time.Duration.
func durationOf(n uint64, unit time.Duration) time.Duration {
	if n > uint64(math.MaxInt64/int64(unit)) {
		return time.Duration(math.MaxInt64)
	}
	return time.Duration(n) * unit
}

// RetryDelay returns RetryDelaySecs as a duration.
func (c Config) RetryDelay() time.Duration {
	return durationOf(c.RetryDelaySecs, time.Second)
}

// AdapterTimeout returns AdapterTimeoutSecs as a duration.
func (c Config) AdapterTimeout() time.Duration {
	return durationOf(c.AdapterTimeoutSecs, time.Second)
}
