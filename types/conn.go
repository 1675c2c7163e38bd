package types

import "context"

// Conn is the contract the subscriber runtime consumes from the wire layer.
//
// Implementations wrap a single push-capable connection: subscribe and
// unsubscribe commands are issued on it, and Receive blocks until the
// server pushes the next event. The runtime never opens, pools, or
// reconnects connections; that is the connection layer's job.
//
// The redisconn package provides the production implementation on top of
// go-redis. The testing package provides an in-memory broker-backed
// implementation for tests.
//
// All methods must be safe to call from the goroutine driving Receive and
// from one other goroutine issuing unsubscribe commands during shutdown.
type Conn interface {
	// Subscribe issues SUBSCRIBE for the given channels.
	Subscribe(ctx context.Context, channels ...string) error

	// PSubscribe issues PSUBSCRIBE for the given glob patterns.
	PSubscribe(ctx context.Context, patterns ...string) error

	// SSubscribe issues SSUBSCRIBE for the given shard channels.
	SSubscribe(ctx context.Context, channels ...string) error

	// Unsubscribe issues UNSUBSCRIBE for the given channels.
	Unsubscribe(ctx context.Context, channels ...string) error

	// PUnsubscribe issues PUNSUBSCRIBE for the given patterns.
	PUnsubscribe(ctx context.Context, patterns ...string) error

	// SUnsubscribe issues SUNSUBSCRIBE for the given shard channels.
	SUnsubscribe(ctx context.Context, channels ...string) error

	// Receive blocks until the server pushes the next event, the context is
	// cancelled, or the connection is closed. A closed connection returns an
	// error wrapping ErrConnClosed.
	Receive(ctx context.Context) (Event, error)
}
