package redisub

import "github.com/bsbodden/redis-ruby-sub007/types"

// Sentinel errors returned by the Subscriber.
//
// These are aliases of the definitions in the types subpackage so that
// application code can use errors.Is against redisub.Err* without
// importing types.
var (
	// ErrInvalidConfig is returned when the configuration is invalid.
	ErrInvalidConfig = types.ErrInvalidConfig

	// ErrConnRequired is returned when the connection is nil.
	ErrConnRequired = types.ErrConnRequired

	// ErrHandlerRequired is returned when a registration call is missing a handler.
	ErrHandlerRequired = types.ErrHandlerRequired

	// ErrChannelRequired is returned when a registration call names no channels or patterns.
	ErrChannelRequired = types.ErrChannelRequired

	// ErrNoSubscriptions is returned when Run or RunAsync is invoked with an empty registry.
	ErrNoSubscriptions = types.ErrNoSubscriptions

	// ErrAlreadyStarted is returned when Run, RunAsync, or a registration
	// method is called after the subscriber has started.
	ErrAlreadyStarted = types.ErrAlreadyStarted

	// ErrHandlerPanic wraps a panic raised by an application handler on the
	// async path, retrievable from the worker handle.
	ErrHandlerPanic = types.ErrHandlerPanic

	// ErrConnClosed indicates the connection was closed underneath the receive loop.
	ErrConnClosed = types.ErrConnClosed

	// ErrStartTimeout is returned by RunAsync when the start barrier is not
	// released within Config.StartTimeout.
	ErrStartTimeout = types.ErrStartTimeout

	// ErrStopTimeout is returned by Stop when the receive loop does not exit
	// within Config.StopTimeout.
	ErrStopTimeout = types.ErrStopTimeout
)
