// Package redisconn adapts a go-redis PubSub connection to the
// types.Conn contract consumed by the redisub runtime.
//
// The adapter owns exactly one push-capable connection. Subscribe and
// unsubscribe calls map one-to-one onto the corresponding go-redis
// methods; Receive maps the pushed frames back into typed events.
//
// One wrinkle: go-redis delivers shard-channel messages as plain
// *redis.Message values, indistinguishable from regular channel messages,
// so the adapter tracks the set of shard-subscribed channel names itself
// and classifies inbound messages by membership.
package redisconn

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/redis/go-redis/v9"

	"github.com/bsbodden/redis-ruby-sub007/types"
)

// Conn is a types.Conn backed by a single go-redis PubSub connection.
type Conn struct {
	ps *redis.PubSub

	mu    sync.Mutex
	shard map[string]struct{}
}

// Compile-time assertion that Conn implements types.Conn.
var _ types.Conn = (*Conn)(nil)

// New creates a Conn on a fresh PubSub connection from client.
//
// The PubSub is allocated without subscribing to anything; the runtime
// issues the subscribe commands itself when it starts.
//
// Parameters:
//   - ctx: Context for the connection handshake
//   - client: Any go-redis client (single-node, cluster, or sentinel)
//
// Returns:
//   - *Conn: Adapter ready to hand to redisub.NewSubscriber
func New(ctx context.Context, client redis.UniversalClient) *Conn {
	return &Conn{
		ps:    client.Subscribe(ctx),
		shard: make(map[string]struct{}),
	}
}

// Subscribe issues SUBSCRIBE for the given channels.
func (c *Conn) Subscribe(ctx context.Context, channels ...string) error {
	return c.ps.Subscribe(ctx, channels...)
}

// PSubscribe issues PSUBSCRIBE for the given glob patterns.
func (c *Conn) PSubscribe(ctx context.Context, patterns ...string) error {
	return c.ps.PSubscribe(ctx, patterns...)
}

// SSubscribe issues SSUBSCRIBE for the given shard channels.
func (c *Conn) SSubscribe(ctx context.Context, channels ...string) error {
	c.mu.Lock()
	for _, name := range channels {
		c.shard[name] = struct{}{}
	}
	c.mu.Unlock()

	return c.ps.SSubscribe(ctx, channels...)
}

// Unsubscribe issues UNSUBSCRIBE for the given channels.
func (c *Conn) Unsubscribe(ctx context.Context, channels ...string) error {
	return c.ps.Unsubscribe(ctx, channels...)
}

// PUnsubscribe issues PUNSUBSCRIBE for the given patterns.
func (c *Conn) PUnsubscribe(ctx context.Context, patterns ...string) error {
	return c.ps.PUnsubscribe(ctx, patterns...)
}

// SUnsubscribe issues SUNSUBSCRIBE for the given shard channels.
//
// The channel names stay in the shard classification set: a message still
// in flight for a just-unsubscribed shard channel must keep classifying
// as smessage, and a stale entry is harmless once nothing is subscribed.
func (c *Conn) SUnsubscribe(ctx context.Context, channels ...string) error {
	return c.ps.SUnsubscribe(ctx, channels...)
}

// Receive blocks until the server pushes the next mappable event. Pong
// frames from keep-alive pings are skipped. A closed connection returns an
// error wrapping types.ErrConnClosed.
func (c *Conn) Receive(ctx context.Context) (types.Event, error) {
	for {
		msg, err := c.ps.Receive(ctx)
		if err != nil {
			if errors.Is(err, redis.ErrClosed) {
				return types.Event{}, fmt.Errorf("%w: %s", types.ErrConnClosed, err)
			}

			return types.Event{}, err
		}

		ev, ok := c.mapEvent(msg)
		if !ok {
			continue
		}

		return ev, nil
	}
}

// Close tears down the underlying PubSub connection. Any blocked Receive
// returns an error wrapping types.ErrConnClosed.
func (c *Conn) Close() error {
	return c.ps.Close()
}

// mapEvent converts a go-redis push value into a typed event. The second
// return is false for frames the runtime has no use for (pongs, unknown
// subscription kinds).
func (c *Conn) mapEvent(msg any) (types.Event, bool) {
	switch m := msg.(type) {
	case *redis.Subscription:
		kind, ok := ackKind(m.Kind)
		if !ok {
			return types.Event{}, false
		}

		ev := types.Event{Kind: kind, Count: int64(m.Count)}
		// go-redis reuses the Channel field for the pattern on p-acks.
		if kind == types.EventPSubscribe || kind == types.EventPUnsubscribe {
			ev.Pattern = m.Channel
		} else {
			ev.Channel = m.Channel
		}

		return ev, true

	case *redis.Message:
		ev := types.Event{Channel: m.Channel, Payload: m.Payload}
		switch {
		case m.Pattern != "":
			ev.Kind = types.EventPMessage
			ev.Pattern = m.Pattern
		case c.isShard(m.Channel):
			ev.Kind = types.EventSMessage
		default:
			ev.Kind = types.EventMessage
		}

		return ev, true

	default:
		return types.Event{}, false
	}
}

func (c *Conn) isShard(channel string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.shard[channel]

	return ok
}

func ackKind(kind string) (types.EventKind, bool) {
	switch kind {
	case "subscribe":
		return types.EventSubscribe, true
	case "unsubscribe":
		return types.EventUnsubscribe, true
	case "psubscribe":
		return types.EventPSubscribe, true
	case "punsubscribe":
		return types.EventPUnsubscribe, true
	case "ssubscribe":
		return types.EventSSubscribe, true
	case "sunsubscribe":
		return types.EventSUnsubscribe, true
	default:
		return 0, false
	}
}
