package redisub

import "github.com/bsbodden/redis-ruby-sub007/types"

// Re-export types from the internal types package.
//
// This file provides a stable public API for the library's core types and
// interfaces. It uses type aliases to re-export definitions from the
// `types` subpackage, which contains the actual implementations.
//
// This pattern solves the "import cycle" problem by allowing internal
// packages to depend on `types` without depending on the root `redisub`
// package, while still providing a convenient `redisub.State`,
// `redisub.Logger`, etc. for users.
type (
	State     = types.State
	Event     = types.Event
	EventKind = types.EventKind
)

// Re-export interfaces and callback types from the internal types package
// for convenience.
type (
	Conn             = types.Conn
	Logger           = types.Logger
	MetricsCollector = types.MetricsCollector
	Hooks            = types.Hooks
	MessageHandler   = types.MessageHandler
	PatternHandler   = types.PatternHandler
)

// Re-export State constants from the internal types package.
const (
	StateNotStarted = types.StateNotStarted
	StateStarting   = types.StateStarting
	StateRunning    = types.StateRunning
	StateStopped    = types.StateStopped
)

// Re-export EventKind constants from the internal types package.
const (
	EventSubscribe    = types.EventSubscribe
	EventUnsubscribe  = types.EventUnsubscribe
	EventMessage      = types.EventMessage
	EventPSubscribe   = types.EventPSubscribe
	EventPUnsubscribe = types.EventPUnsubscribe
	EventPMessage     = types.EventPMessage
	EventSSubscribe   = types.EventSSubscribe
	EventSUnsubscribe = types.EventSUnsubscribe
	EventSMessage     = types.EventSMessage
)
