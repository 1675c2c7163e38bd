package redisub

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	subtest "github.com/bsbodden/redis-ruby-sub007/testing"
)

// startSubscriber runs sub on a worker and registers cleanup that stops it.
func startSubscriber(t *testing.T, sub *Subscriber) {
	t.Helper()
	w, err := sub.RunAsync(context.Background())
	require.NoError(t, err)
	t.Cleanup(func() {
		require.NoError(t, sub.Stop(context.Background(), true))
		require.NoError(t, w.Wait(context.Background()))
	})
}

func TestDispatch_RawPayloadByDefault(t *testing.T) {
	broker := subtest.NewBroker()
	sub, err := NewSubscriber(&Config{}, broker.Conn())
	require.NoError(t, err)

	got := make(chan any, 1)
	require.NoError(t, sub.On(func(_ string, message any) {
		got <- message
	}, "news"))
	startSubscriber(t, sub)

	// Without JSON decoding even a valid JSON document stays a string.
	require.Equal(t, 1, broker.Publish("news", `{"a":1}`))
	require.Equal(t, `{"a":1}`, waitRecv(t, got))
}

func TestDispatch_JSONDecodeWithRawFallback(t *testing.T) {
	broker := subtest.NewBroker()
	sub, err := NewSubscriber(&Config{}, broker.Conn())
	require.NoError(t, err)

	got := make(chan any, 4)
	require.NoError(t, sub.OnJSON(func(_ string, message any) {
		got <- message
	}, "events"))
	startSubscriber(t, sub)

	broker.Publish("events", `{"type":"created","id":7}`)
	broker.Publish("events", `[1,2,3]`)
	broker.Publish("events", `"plain"`)
	broker.Publish("events", `{not json`)

	require.Equal(t, map[string]any{"type": "created", "id": float64(7)}, waitRecv(t, got))
	require.Equal(t, []any{float64(1), float64(2), float64(3)}, waitRecv(t, got))
	require.Equal(t, "plain", waitRecv(t, got))

	// Undecodable payloads fall back to the raw string; dispatch never fails.
	require.Equal(t, `{not json`, waitRecv(t, got))
}

func TestDispatch_ChannelIsolation(t *testing.T) {
	broker := subtest.NewBroker()
	sub, err := NewSubscriber(&Config{}, broker.Conn())
	require.NoError(t, err)

	gotA := make(chan string, 1)
	gotB := make(chan string, 1)
	require.NoError(t, sub.On(func(_ string, m any) { gotA <- m.(string) }, "alpha"))
	require.NoError(t, sub.On(func(_ string, m any) { gotB <- m.(string) }, "beta"))
	startSubscriber(t, sub)

	broker.Publish("alpha", "a1")
	broker.Publish("beta", "b1")

	require.Equal(t, "a1", waitRecv(t, gotA))
	require.Equal(t, "b1", waitRecv(t, gotB))

	// Neither handler saw the other channel's message.
	require.Empty(t, gotA)
	require.Empty(t, gotB)
}

func TestDispatch_PatternHandlerReceivesPatternAndChannel(t *testing.T) {
	broker := subtest.NewBroker()
	sub, err := NewSubscriber(&Config{}, broker.Conn())
	require.NoError(t, err)

	type delivery struct {
		pattern string
		channel string
		message any
	}
	got := make(chan delivery, 2)
	require.NoError(t, sub.OnPattern(func(pattern, channel string, message any) {
		got <- delivery{pattern, channel, message}
	}, "room:*"))
	startSubscriber(t, sub)

	require.Equal(t, 1, broker.Publish("room:42", "hi"))

	d := waitRecv(t, got)
	require.Equal(t, "room:*", d.pattern)
	require.Equal(t, "room:42", d.channel)
	require.Equal(t, "hi", d.message)

	// Channels outside the glob are not delivered.
	require.Zero(t, broker.Publish("lobby:1", "nope"))
}

func TestDispatch_ExactAndPatternBothFire(t *testing.T) {
	broker := subtest.NewBroker()
	sub, err := NewSubscriber(&Config{}, broker.Conn())
	require.NoError(t, err)

	exact := make(chan string, 1)
	glob := make(chan string, 1)
	require.NoError(t, sub.On(func(_ string, m any) { exact <- m.(string) }, "room:42"))
	require.NoError(t, sub.OnPattern(func(_, _ string, m any) { glob <- m.(string) }, "room:*"))
	startSubscriber(t, sub)

	// One publish, two deliveries: the exact subscription and the glob are
	// independent, exactly like a real server.
	require.Equal(t, 2, broker.Publish("room:42", "hi"))
	require.Equal(t, "hi", waitRecv(t, exact))
	require.Equal(t, "hi", waitRecv(t, glob))
}

func TestDispatch_ShardChannels(t *testing.T) {
	broker := subtest.NewBroker()
	sub, err := NewSubscriber(&Config{}, broker.Conn())
	require.NoError(t, err)

	got := make(chan any, 1)
	require.NoError(t, sub.OnShardJSON(func(_ string, message any) {
		got <- message
	}, "orders"))
	startSubscriber(t, sub)

	// The shard namespace is separate: a regular publish does not reach it.
	require.Zero(t, broker.Publish("orders", "x"))

	require.Equal(t, 1, broker.SPublish("orders", `{"id":1}`))
	require.Equal(t, map[string]any{"id": float64(1)}, waitRecv(t, got))
}

func TestDispatch_UnknownEventDropped(t *testing.T) {
	broker := subtest.NewBroker()
	sub, err := NewSubscriber(&Config{}, broker.Conn())
	require.NoError(t, err)
	require.NoError(t, sub.On(func(string, any) {}, "known"))

	// Events for keys outside the registry are dropped, and dropping never
	// drains the loop-exit accounting.
	require.False(t, sub.dispatch(Event{Kind: EventMessage, Channel: "unknown", Payload: "x"}))
	require.False(t, sub.dispatch(Event{Kind: EventPMessage, Pattern: "u:*", Channel: "u:1"}))
	require.False(t, sub.dispatch(Event{Kind: EventSMessage, Channel: "unknown"}))
}

func TestDispatch_ForeignUnsubscribeDoesNotDrainLoop(t *testing.T) {
	broker := subtest.NewBroker()
	conn := broker.Conn()
	sub, err := NewSubscriber(&Config{}, conn)
	require.NoError(t, err)

	got := make(chan string, 1)
	require.NoError(t, sub.On(func(_ string, m any) { got <- m.(string) }, "mine"))
	startSubscriber(t, sub)

	// Subscribe and unsubscribe a channel this runtime never registered,
	// as a co-tenant of the shared connection would.
	require.NoError(t, conn.Subscribe(context.Background(), "foreign"))
	require.NoError(t, conn.Unsubscribe(context.Background(), "foreign"))

	// The loop is still live and still dispatching.
	broker.Publish("mine", "still here")
	require.Equal(t, "still here", waitRecv(t, got))
	require.True(t, sub.Running())
}
