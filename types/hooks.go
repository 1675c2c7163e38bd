package types

import "context"

// Hooks defines callbacks for subscriber lifecycle events.
//
// All hooks are optional and called asynchronously in background goroutines
// to avoid blocking the receive loop. The context passed to hooks is the
// context the subscriber is running under and is cancelled when it stops.
//
// Best practices for hook implementation:
//   - Complete quickly (< 1 second recommended)
//   - Respect context cancellation
//   - Make hooks idempotent (may be called multiple times)
//   - Handle errors gracefully (return error for logging)
//
// Example:
//
//	hooks := &redisub.Hooks{
//	    OnStateChanged: func(ctx context.Context, from, to redisub.State) error {
//	        log.Printf("subscriber: %s -> %s", from, to)
//	        return nil
//	    },
//	}
type Hooks struct {
	// OnStateChanged is called when the runtime state transitions.
	OnStateChanged func(ctx context.Context, from, to State) error

	// OnSubscriptionChange is called for every subscribe/unsubscribe
	// confirmation the server pushes. ev.Kind is one of the ack kinds and
	// ev.Count carries the server-reported remaining subscription count.
	OnSubscriptionChange func(ctx context.Context, ev Event) error

	// OnError is called when the receive loop is about to terminate with an
	// error (connection failure or handler panic on the async path).
	OnError func(ctx context.Context, err error) error
}
