package redisub

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	subtest "github.com/bsbodden/redis-ruby-sub007/testing"
	"github.com/bsbodden/redis-ruby-sub007/types"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

// waitRecv pulls one value off ch or fails the test.
func waitRecv[T any](t *testing.T, ch <-chan T) T {
	t.Helper()
	select {
	case v := <-ch:
		return v
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for value")
		panic("unreachable")
	}
}

// runningBarrier returns a hooks option and a channel that is closed once
// the subscriber reaches the Running state. Synchronizing on the state
// machine keeps the tests free of sleeps.
func runningBarrier() (Option, <-chan struct{}) {
	running := make(chan struct{})

	return WithHooks(&Hooks{
		OnStateChanged: func(_ context.Context, _, to State) error {
			if to == StateRunning {
				close(running)
			}

			return nil
		},
	}), running
}

func TestNewSubscriber_Validation(t *testing.T) {
	broker := subtest.NewBroker()

	t.Run("nil config", func(t *testing.T) {
		_, err := NewSubscriber(nil, broker.Conn())
		require.ErrorIs(t, err, ErrInvalidConfig)
	})

	t.Run("nil conn", func(t *testing.T) {
		_, err := NewSubscriber(&Config{}, nil)
		require.ErrorIs(t, err, ErrConnRequired)
	})

	t.Run("invalid timeout", func(t *testing.T) {
		_, err := NewSubscriber(&Config{StopTimeout: time.Microsecond}, broker.Conn())
		require.ErrorIs(t, err, ErrInvalidConfig)
	})

	t.Run("defaults applied in place", func(t *testing.T) {
		cfg := &Config{}
		sub, err := NewSubscriber(cfg, broker.Conn())
		require.NoError(t, err)
		require.Equal(t, StateNotStarted, sub.State())
		require.Equal(t, DefaultStartTimeout, cfg.StartTimeout)
	})
}

func TestSubscriber_RegistrationValidation(t *testing.T) {
	broker := subtest.NewBroker()
	sub, err := NewSubscriber(&Config{}, broker.Conn())
	require.NoError(t, err)

	require.ErrorIs(t, sub.On(nil, "news"), ErrHandlerRequired)
	require.ErrorIs(t, sub.On(func(string, any) {}), ErrChannelRequired)
	require.ErrorIs(t, sub.OnPattern(nil, "a:*"), ErrHandlerRequired)
	require.ErrorIs(t, sub.OnShard(func(string, any) {}), ErrChannelRequired)
	require.False(t, sub.HasSubscriptions())

	require.NoError(t, sub.On(func(string, any) {}, "news"))
	require.True(t, sub.HasSubscriptions())
}

func TestSubscriber_RunWithoutSubscriptions(t *testing.T) {
	broker := subtest.NewBroker()
	sub, err := NewSubscriber(&Config{}, broker.Conn())
	require.NoError(t, err)

	require.ErrorIs(t, sub.Run(context.Background()), ErrNoSubscriptions)

	// A failed start leaves the subscriber reusable: no transition happened.
	require.Equal(t, StateNotStarted, sub.State())
	require.NoError(t, sub.On(func(string, any) {}, "news"))
}

func TestSubscriber_RunAsyncConfirmsBeforeReturn(t *testing.T) {
	broker := subtest.NewBroker()
	sub, err := NewSubscriber(&Config{}, broker.Conn())
	require.NoError(t, err)

	got := make(chan string, 1)
	require.NoError(t, sub.On(func(_ string, message any) {
		got <- message.(string)
	}, "news"))

	w, err := sub.RunAsync(context.Background())
	require.NoError(t, err)
	require.True(t, sub.Running())

	// The subscription is already active when RunAsync returns, so a
	// publish issued right now cannot be missed.
	require.Equal(t, 1, broker.Publish("news", "hello"))
	require.Equal(t, "hello", waitRecv(t, got))

	require.NoError(t, sub.Stop(context.Background(), true))
	require.False(t, sub.Running())
	require.Equal(t, StateStopped, sub.State())
	require.NoError(t, w.Wait(context.Background()))
	require.NoError(t, sub.Err())
}

func TestSubscriber_RegistrationRejectedAfterStart(t *testing.T) {
	broker := subtest.NewBroker()
	sub, err := NewSubscriber(&Config{}, broker.Conn())
	require.NoError(t, err)
	require.NoError(t, sub.On(func(string, any) {}, "news"))

	_, err = sub.RunAsync(context.Background())
	require.NoError(t, err)

	require.ErrorIs(t, sub.On(func(string, any) {}, "late"), ErrAlreadyStarted)
	require.ErrorIs(t, sub.OnPatternJSON(func(string, string, any) {}, "l:*"), ErrAlreadyStarted)

	// A second start is rejected too.
	_, err = sub.RunAsync(context.Background())
	require.ErrorIs(t, err, ErrAlreadyStarted)

	require.NoError(t, sub.Stop(context.Background(), true))

	// Stopped is terminal.
	require.ErrorIs(t, sub.Run(context.Background()), ErrAlreadyStarted)
}

func TestSubscriber_StopIsIdempotent(t *testing.T) {
	broker := subtest.NewBroker()
	sub, err := NewSubscriber(&Config{}, broker.Conn())
	require.NoError(t, err)
	require.NoError(t, sub.On(func(string, any) {}, "news"))

	// Stop before start is a no-op.
	require.NoError(t, sub.Stop(context.Background(), true))
	require.Equal(t, StateNotStarted, sub.State())

	_, err = sub.RunAsync(context.Background())
	require.NoError(t, err)

	require.NoError(t, sub.Stop(context.Background(), true))
	require.NoError(t, sub.Stop(context.Background(), true))
	require.Equal(t, StateStopped, sub.State())
}

func TestSubscriber_StopDrainsAllClasses(t *testing.T) {
	broker := subtest.NewBroker()
	sub, err := NewSubscriber(&Config{}, broker.Conn())
	require.NoError(t, err)

	handler := func(string, any) {}
	require.NoError(t, sub.On(handler, "a", "b"))
	require.NoError(t, sub.OnPattern(func(string, string, any) {}, "room:*"))
	require.NoError(t, sub.OnShard(handler, "orders"))

	w, err := sub.RunAsync(context.Background())
	require.NoError(t, err)

	require.NoError(t, sub.Stop(context.Background(), true))
	require.NoError(t, w.Wait(context.Background()))
	require.Equal(t, StateStopped, sub.State())
}

func TestSubscriber_StopFromHandler(t *testing.T) {
	broker := subtest.NewBroker()
	sub, err := NewSubscriber(&Config{}, broker.Conn())
	require.NoError(t, err)

	require.NoError(t, sub.On(func(string, any) {
		// Handlers run on the receive goroutine, so they must not wait
		// for their own exit.
		_ = sub.Stop(context.Background(), false)
	}, "quit"))

	done := make(chan error, 1)
	go func() {
		done <- sub.Run(context.Background())
	}()

	// Wait for the subscription to land, then trigger the stop. Publish
	// reports the delivery count, so a zero means the subscribe command
	// has not been issued yet.
	require.Eventually(t, func() bool {
		return broker.Publish("quit", "now") == 1
	}, 2*time.Second, 5*time.Millisecond)

	require.NoError(t, waitRecv(t, done))
	require.Equal(t, StateStopped, sub.State())
}

func TestSubscriber_HandlerPanicPropagatesOnRun(t *testing.T) {
	broker := subtest.NewBroker()
	opt, running := runningBarrier()
	sub, err := NewSubscriber(&Config{}, broker.Conn(), opt)
	require.NoError(t, err)

	require.NoError(t, sub.On(func(string, any) {
		panic("handler exploded")
	}, "boom"))

	go func() {
		<-running
		broker.Publish("boom", "x")
	}()

	require.PanicsWithValue(t, "handler exploded", func() {
		_ = sub.Run(context.Background())
	})

	// The runtime was marked stopped before the panic propagated.
	require.Equal(t, StateStopped, sub.State())
	require.ErrorIs(t, sub.Err(), ErrHandlerPanic)
}

func TestSubscriber_HandlerPanicSurfacesOnWorker(t *testing.T) {
	broker := subtest.NewBroker()
	sub, err := NewSubscriber(&Config{}, broker.Conn())
	require.NoError(t, err)

	require.NoError(t, sub.On(func(string, any) {
		panic("handler exploded")
	}, "boom"))

	w, err := sub.RunAsync(context.Background())
	require.NoError(t, err)

	require.Equal(t, 1, broker.Publish("boom", "x"))

	err = w.Wait(context.Background())
	require.ErrorIs(t, err, ErrHandlerPanic)
	require.Contains(t, err.Error(), "handler exploded")
	require.Equal(t, StateStopped, sub.State())
	require.False(t, sub.Running())
}

func TestSubscriber_SubscribeWithTimeout(t *testing.T) {
	broker := subtest.NewBroker()
	sub, err := NewSubscriber(&Config{}, broker.Conn())
	require.NoError(t, err)

	got := make(chan string, 1)
	require.NoError(t, sub.On(func(_ string, message any) {
		got <- message.(string)
	}, "diag"))

	done := make(chan error, 1)
	go func() {
		done <- sub.SubscribeWithTimeout(context.Background(), 300*time.Millisecond)
	}()

	require.Eventually(t, func() bool {
		return broker.Publish("diag", "ping") == 1
	}, 2*time.Second, 5*time.Millisecond)
	require.Equal(t, "ping", waitRecv(t, got))

	// The deadline-driven exit is a clean stop.
	require.NoError(t, waitRecv(t, done))
	require.Equal(t, StateStopped, sub.State())
}

func TestSubscriber_RunAsyncStartTimeout(t *testing.T) {
	broker := subtest.NewBroker()
	gate := make(chan struct{})
	conn := &stallConn{Conn: broker.Conn(), gate: gate}

	opt, running := runningBarrier()
	sub, err := NewSubscriber(&Config{StartTimeout: 20 * time.Millisecond}, conn, opt)
	require.NoError(t, err)
	require.NoError(t, sub.On(func(string, any) {}, "slow"))

	w, err := sub.RunAsync(context.Background())
	require.ErrorIs(t, err, ErrStartTimeout)
	require.NotNil(t, w)

	// Release the stalled subscribe; the worker proceeds to Running and a
	// normal shutdown still works.
	close(gate)
	<-running
	require.NoError(t, sub.Stop(context.Background(), true))
	require.NoError(t, w.Wait(context.Background()))
}

// stallConn delays the initial subscribe until the gate is closed.
type stallConn struct {
	Conn
	gate chan struct{}
}

func (c *stallConn) Subscribe(ctx context.Context, channels ...string) error {
	<-c.gate

	return c.Conn.Subscribe(ctx, channels...)
}

func TestSubscriber_ConnCloseWhileRunningIsAnError(t *testing.T) {
	broker := subtest.NewBroker()
	conn := broker.Conn()
	sub, err := NewSubscriber(&Config{}, conn)
	require.NoError(t, err)
	require.NoError(t, sub.On(func(string, any) {}, "news"))

	w, err := sub.RunAsync(context.Background())
	require.NoError(t, err)

	// The connection dying outside of Stop is a failure, not a clean exit.
	require.NoError(t, conn.Close())

	err = w.Wait(context.Background())
	require.ErrorIs(t, err, types.ErrConnClosed)
	require.Equal(t, StateStopped, sub.State())
}

func TestSubscriber_StateTransitionHooks(t *testing.T) {
	broker := subtest.NewBroker()

	transitions := make(chan [2]State, 8)
	sub, err := NewSubscriber(&Config{}, broker.Conn(), WithHooks(&Hooks{
		OnStateChanged: func(_ context.Context, from, to State) error {
			transitions <- [2]State{from, to}

			return nil
		},
	}))
	require.NoError(t, err)
	require.NoError(t, sub.On(func(string, any) {}, "news"))

	_, err = sub.RunAsync(context.Background())
	require.NoError(t, err)
	require.NoError(t, sub.Stop(context.Background(), true))

	seen := map[[2]State]bool{}
	for range 3 {
		seen[waitRecv(t, transitions)] = true
	}
	require.True(t, seen[[2]State{StateNotStarted, StateStarting}])
	require.True(t, seen[[2]State{StateStarting, StateRunning}])
	require.True(t, seen[[2]State{StateRunning, StateStopped}])
}
