package testing

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/puzpuzpuz/xsync/v4"
	"github.com/tidwall/match"

	"github.com/bsbodden/redis-ruby-sub007/types"
)

// Broker is an in-memory Pub/Sub backend for tests.
//
// It reproduces the server behavior the subscription runtime depends on:
// one push event per subscribe/unsubscribe command with a running count,
// exact-match channel routing, glob-pattern routing (Redis glob and
// tidwall/match agree on *, ?, [] and backslash escapes), and a separate
// shard-channel namespace published via SPublish.
//
// Benefits over a real server:
//   - Zero external dependencies (no Redis required)
//   - Fast startup (no I/O at all)
//   - Perfect for parallel test execution
//
// Publish and SPublish are safe to call from any goroutine; per
// connection, delivery order matches publish order.
type Broker struct {
	nextID atomic.Uint64
	conns  *xsync.Map[uint64, *BrokerConn]
}

// NewBroker creates an empty in-memory broker.
func NewBroker() *Broker {
	return &Broker{conns: xsync.NewMap[uint64, *BrokerConn]()}
}

// Conn creates a new connection to the broker.
//
// Each connection has its own subscription state and event queue, like a
// dedicated TCP connection to a real server.
func (b *Broker) Conn() *BrokerConn {
	c := &BrokerConn{
		broker:   b,
		id:       b.nextID.Add(1),
		channels: make(map[string]struct{}),
		patterns: make(map[string]struct{}),
		shards:   make(map[string]struct{}),
		events:   make(chan types.Event, 256),
		closed:   make(chan struct{}),
	}
	b.conns.Store(c.id, c)

	return c
}

// Publish delivers payload to every connection subscribed to channel,
// exactly or via a matching glob pattern.
//
// Returns:
//   - int: Number of deliveries (one per matching subscription, like the
//     reply of the Redis PUBLISH command)
func (b *Broker) Publish(channel, payload string) int {
	n := 0
	b.conns.Range(func(_ uint64, c *BrokerConn) bool {
		n += c.deliver(channel, payload)

		return true
	})

	return n
}

// SPublish delivers payload to every connection shard-subscribed to channel.
func (b *Broker) SPublish(channel, payload string) int {
	n := 0
	b.conns.Range(func(_ uint64, c *BrokerConn) bool {
		n += c.deliverShard(channel, payload)

		return true
	})

	return n
}

// BrokerConn is one connection to a Broker, implementing types.Conn.
type BrokerConn struct {
	broker *Broker
	id     uint64

	mu       sync.Mutex
	channels map[string]struct{}
	patterns map[string]struct{}
	shards   map[string]struct{}

	events    chan types.Event
	closeOnce sync.Once
	closed    chan struct{}
}

// Compile-time assertion that BrokerConn implements types.Conn.
var _ types.Conn = (*BrokerConn)(nil)

// Subscribe registers the channels and queues one subscribe ack per name.
func (c *BrokerConn) Subscribe(_ context.Context, channels ...string) error {
	for _, name := range channels {
		c.mu.Lock()
		c.channels[name] = struct{}{}
		count := int64(len(c.channels) + len(c.patterns))
		c.mu.Unlock()

		c.push(types.Event{Kind: types.EventSubscribe, Channel: name, Count: count})
	}

	return nil
}

// PSubscribe registers the patterns and queues one psubscribe ack per pattern.
func (c *BrokerConn) PSubscribe(_ context.Context, patterns ...string) error {
	for _, pattern := range patterns {
		c.mu.Lock()
		c.patterns[pattern] = struct{}{}
		count := int64(len(c.channels) + len(c.patterns))
		c.mu.Unlock()

		c.push(types.Event{Kind: types.EventPSubscribe, Pattern: pattern, Count: count})
	}

	return nil
}

// SSubscribe registers the shard channels and queues one ssubscribe ack per name.
func (c *BrokerConn) SSubscribe(_ context.Context, channels ...string) error {
	for _, name := range channels {
		c.mu.Lock()
		c.shards[name] = struct{}{}
		count := int64(len(c.shards))
		c.mu.Unlock()

		c.push(types.Event{Kind: types.EventSSubscribe, Channel: name, Count: count})
	}

	return nil
}

// Unsubscribe removes the channels (all currently subscribed channels when
// none are named, like the bare UNSUBSCRIBE command) and queues one ack per name.
func (c *BrokerConn) Unsubscribe(_ context.Context, channels ...string) error {
	if len(channels) == 0 {
		channels = c.subscribedChannels()
	}
	for _, name := range channels {
		c.mu.Lock()
		delete(c.channels, name)
		count := int64(len(c.channels) + len(c.patterns))
		c.mu.Unlock()

		c.push(types.Event{Kind: types.EventUnsubscribe, Channel: name, Count: count})
	}

	return nil
}

// PUnsubscribe removes the patterns (all when none are named) and queues
// one ack per pattern.
func (c *BrokerConn) PUnsubscribe(_ context.Context, patterns ...string) error {
	if len(patterns) == 0 {
		patterns = c.subscribedPatterns()
	}
	for _, pattern := range patterns {
		c.mu.Lock()
		delete(c.patterns, pattern)
		count := int64(len(c.channels) + len(c.patterns))
		c.mu.Unlock()

		c.push(types.Event{Kind: types.EventPUnsubscribe, Pattern: pattern, Count: count})
	}

	return nil
}

// SUnsubscribe removes the shard channels (all when none are named) and
// queues one ack per name.
func (c *BrokerConn) SUnsubscribe(_ context.Context, channels ...string) error {
	if len(channels) == 0 {
		channels = c.subscribedShards()
	}
	for _, name := range channels {
		c.mu.Lock()
		delete(c.shards, name)
		count := int64(len(c.shards))
		c.mu.Unlock()

		c.push(types.Event{Kind: types.EventSUnsubscribe, Channel: name, Count: count})
	}

	return nil
}

// Receive blocks until the next queued event, context cancellation, or
// connection close.
func (c *BrokerConn) Receive(ctx context.Context) (types.Event, error) {
	select {
	case ev := <-c.events:
		return ev, nil
	case <-ctx.Done():
		return types.Event{}, ctx.Err()
	case <-c.closed:
		return types.Event{}, fmt.Errorf("%w: broker connection closed", types.ErrConnClosed)
	}
}

// Close disconnects from the broker. Blocked Receive calls return an error
// wrapping types.ErrConnClosed; queued but undelivered events are dropped.
func (c *BrokerConn) Close() error {
	c.closeOnce.Do(func() {
		close(c.closed)
		c.broker.conns.Delete(c.id)
	})

	return nil
}

func (c *BrokerConn) deliver(channel, payload string) int {
	c.mu.Lock()
	evs := make([]types.Event, 0, 1)
	if _, ok := c.channels[channel]; ok {
		evs = append(evs, types.Event{Kind: types.EventMessage, Channel: channel, Payload: payload})
	}
	for pattern := range c.patterns {
		if match.Match(channel, pattern) {
			evs = append(evs, types.Event{
				Kind:    types.EventPMessage,
				Pattern: pattern,
				Channel: channel,
				Payload: payload,
			})
		}
	}
	c.mu.Unlock()

	for _, ev := range evs {
		c.push(ev)
	}

	return len(evs)
}

func (c *BrokerConn) deliverShard(channel, payload string) int {
	c.mu.Lock()
	_, ok := c.shards[channel]
	c.mu.Unlock()
	if !ok {
		return 0
	}

	c.push(types.Event{Kind: types.EventSMessage, Channel: channel, Payload: payload})

	return 1
}

func (c *BrokerConn) push(ev types.Event) {
	select {
	case c.events <- ev:
	case <-c.closed:
	}
}

func (c *BrokerConn) subscribedChannels() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	names := make([]string, 0, len(c.channels))
	for name := range c.channels {
		names = append(names, name)
	}

	return names
}

func (c *BrokerConn) subscribedPatterns() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	patterns := make([]string, 0, len(c.patterns))
	for pattern := range c.patterns {
		patterns = append(patterns, pattern)
	}

	return patterns
}

func (c *BrokerConn) subscribedShards() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	names := make([]string, 0, len(c.shards))
	for name := range c.shards {
		names = append(names, name)
	}

	return names
}
