package types

import "errors"

// Sentinel errors for the redisub library.
//
// These errors provide type-safe error checking using errors.Is() and
// errors.As(). All components use these sentinels for known error
// conditions and wrap external errors with context using
// fmt.Errorf("...: %w", err).

// Configuration errors - returned synchronously, before any network I/O.
var (
	// ErrInvalidConfig is returned when the configuration is invalid.
	ErrInvalidConfig = errors.New("invalid configuration")

	// ErrConnRequired is returned when the connection is nil.
	ErrConnRequired = errors.New("connection is required")

	// ErrHandlerRequired is returned when a registration call is missing a handler.
	ErrHandlerRequired = errors.New("handler is required")

	// ErrChannelRequired is returned when a registration call names no channels or patterns.
	ErrChannelRequired = errors.New("at least one channel or pattern is required")

	// ErrNoSubscriptions is returned when Run or RunAsync is invoked with an
	// empty registry.
	ErrNoSubscriptions = errors.New("no subscriptions registered")

	// ErrAlreadyStarted is returned when Run, RunAsync, or a registration
	// method is called after the subscriber has started.
	ErrAlreadyStarted = errors.New("subscriber already started")
)

// Runtime errors - surfaced from the receive loop or the worker handle.
var (
	// ErrHandlerPanic wraps a panic raised by an application handler. The
	// runtime does not isolate handler panics; the receive loop dies and the
	// wrapped panic value is retrievable from the worker handle.
	ErrHandlerPanic = errors.New("handler panicked")

	// ErrConnClosed indicates the connection was closed underneath the
	// receive loop. Observed after Stop has begun it is a clean exit;
	// otherwise it propagates.
	ErrConnClosed = errors.New("connection closed")

	// ErrStartTimeout is returned by RunAsync when the start-confirmation
	// barrier is not released within Config.StartTimeout.
	ErrStartTimeout = errors.New("timed out waiting for subscriber to start")

	// ErrStopTimeout is returned by Stop when the receive loop does not exit
	// within Config.StopTimeout.
	ErrStopTimeout = errors.New("timed out waiting for receive loop to exit")
)
