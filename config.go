package redisub

import (
	"fmt"
	"time"
)

// Config holds the runtime configuration for a Subscriber.
//
// Zero values are replaced with defaults by SetDefaults (called from
// NewSubscriber), so an empty Config is valid:
//
//	sub, err := redisub.NewSubscriber(&redisub.Config{}, conn)
//
// Fields carry yaml tags so the configuration can be embedded in a larger
// application config file.
type Config struct {
	// StartTimeout bounds how long RunAsync blocks on the
	// start-confirmation barrier. The barrier is released as soon as the
	// receive loop is live (or the worker has failed), so this only trips
	// when a subscribe command itself stalls. Set to a negative value to
	// disable the bound.
	//
	// Default: 30 seconds
	StartTimeout time.Duration `yaml:"startTimeout"`

	// StopTimeout bounds how long Stop with wait=true blocks for the
	// receive loop to exit. Set to a negative value to disable the bound.
	//
	// Default: 30 seconds
	StopTimeout time.Duration `yaml:"stopTimeout"`
}

// Default configuration values.
const (
	DefaultStartTimeout = 30 * time.Second
	DefaultStopTimeout  = 30 * time.Second
)

// DefaultConfig returns a Config populated with default values.
func DefaultConfig() Config {
	return Config{
		StartTimeout: DefaultStartTimeout,
		StopTimeout:  DefaultStopTimeout,
	}
}

// SetDefaults fills unset fields of cfg with default values.
//
// A zero duration means "use the default"; a negative duration means
// "no bound" and is preserved.
func SetDefaults(cfg *Config) {
	defaults := DefaultConfig()

	if cfg.StartTimeout == 0 {
		cfg.StartTimeout = defaults.StartTimeout
	}
	if cfg.StopTimeout == 0 {
		cfg.StopTimeout = defaults.StopTimeout
	}
}

// Validate checks the configuration for consistency.
//
// Returns:
//   - error: wraps ErrInvalidConfig describing the first problem found, or nil
func (c *Config) Validate() error {
	// Negative durations are the documented "unbounded" escape hatch; only
	// sub-millisecond positive bounds are rejected as almost certainly a
	// units mistake.
	if c.StartTimeout > 0 && c.StartTimeout < time.Millisecond {
		return fmt.Errorf("%w: startTimeout %v is below 1ms", ErrInvalidConfig, c.StartTimeout)
	}
	if c.StopTimeout > 0 && c.StopTimeout < time.Millisecond {
		return fmt.Errorf("%w: stopTimeout %v is below 1ms", ErrInvalidConfig, c.StopTimeout)
	}

	return nil
}
