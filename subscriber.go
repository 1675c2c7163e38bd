package redisub

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/bsbodden/redis-ruby-sub007/internal/hooks"
	"github.com/bsbodden/redis-ruby-sub007/internal/logging"
	"github.com/bsbodden/redis-ruby-sub007/internal/metrics"
	"github.com/bsbodden/redis-ruby-sub007/types"
)

// Subscriber is the asynchronous Pub/Sub subscription runtime.
//
// A Subscriber registers interest in channels, glob patterns, and
// shard-scoped channels, runs the receive loop either on the calling
// goroutine (Run) or on a background worker (RunAsync), routes inbound
// events to the registered handlers, and performs ordered shutdown (Stop).
//
// Thread safety:
//   - Registration (On, OnPattern, OnShard and the JSON variants) must
//     complete before Run or RunAsync is called; afterwards it is rejected
//     with ErrAlreadyStarted.
//   - Run/RunAsync/Stop/Running/State are safe for concurrent use.
//   - All handlers execute sequentially on the single receive goroutine,
//     in server delivery order. There is no parallel handler invocation
//     and no mid-handler preemption; a blocked handler stalls the loop.
//
// Lifecycle:
//
//	NotStarted --Run/RunAsync--> Starting --subscribes confirmed--> Running
//	    Running --unsubscribe drains the subscription count--> Stopped
//
// Stopped is terminal; create a new Subscriber to subscribe again.
type Subscriber struct {
	cfg     Config
	conn    Conn
	logger  Logger
	metrics MetricsCollector
	hooks   Hooks

	reg *registry

	// State management
	state      atomic.Int32 // State
	stateSince atomic.Int64 // unix nanos of last transition
	stopping   atomic.Bool

	// Start-confirmation barrier and loop-exit signal. started is closed
	// once the state reaches Running, or at worker exit, whichever comes
	// first, so a RunAsync caller is never blocked forever. finished is
	// closed when the receive loop has fully returned.
	started    chan struct{}
	startOnce  sync.Once
	finished   chan struct{}
	finishOnce sync.Once

	mu     sync.Mutex
	ctx    context.Context // context the runtime was started with, for hooks
	runErr error           // set before finished is closed

	// Live subscription counts per class, owned by the receive goroutine.
	// The loop exits cleanly when all three drain to zero.
	chLive  int
	patLive int
	shLive  int
}

// NewSubscriber creates a new Subscriber driving the given connection.
//
// Returns a concrete *Subscriber struct following the "accept interfaces,
// return structs" principle. The connection is the external collaborator
// that issues subscribe commands and yields pushed events; use
// redisconn.New for the go-redis-backed implementation.
//
// Parameters:
//   - cfg: Runtime configuration (defaults applied in place; must be non-nil)
//   - conn: Push-capable connection the runtime will drive
//   - opts: Optional configuration (logger, metrics, hooks)
//
// Returns:
//   - *Subscriber: Initialized subscriber in the NotStarted state
//   - error: Validation error if configuration or connection is invalid
//
// Example:
//
//	conn := redisconn.New(ctx, redis.NewClient(&redis.Options{Addr: addr}))
//	sub, err := redisub.NewSubscriber(&redisub.Config{}, conn)
func NewSubscriber(cfg *Config, conn Conn, opts ...Option) (*Subscriber, error) {
	if cfg == nil {
		return nil, ErrInvalidConfig
	}
	if conn == nil {
		return nil, ErrConnRequired
	}

	SetDefaults(cfg)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	options := &subscriberOptions{}
	for _, opt := range opts {
		opt(options)
	}

	// Provide safe defaults for optional dependencies to avoid nil checks everywhere
	loggerInstance := options.logger
	if loggerInstance == nil {
		loggerInstance = logging.NewNop()
	}

	collector := options.metrics
	if collector == nil {
		collector = metrics.NewNop()
	}

	hooksInstance := options.hooks
	if hooksInstance == nil {
		nopHooks := hooks.NewNop()
		hooksInstance = &nopHooks
	}

	s := &Subscriber{
		cfg:      *cfg,
		conn:     conn,
		logger:   loggerInstance,
		metrics:  collector,
		hooks:    *hooksInstance,
		reg:      newRegistry(),
		started:  make(chan struct{}),
		finished: make(chan struct{}),
	}
	s.state.Store(int32(StateNotStarted))
	s.stateSince.Store(time.Now().UnixNano())

	return s, nil
}

// On registers handler for one or more exact-match channels.
//
// Each named channel becomes an independent entry; registering a channel
// that already has an entry replaces its handler (last registration wins).
// The handler receives the raw payload string.
//
// Returns ErrHandlerRequired for a nil handler, ErrChannelRequired for an
// empty channel list, and ErrAlreadyStarted once the runtime has started.
func (s *Subscriber) On(handler MessageHandler, channels ...string) error {
	return s.register(func() error { return s.reg.addChannels(false, handler, channels) })
}

// OnJSON registers handler for one or more exact-match channels with JSON
// decoding enabled: payloads that parse as JSON are delivered decoded,
// payloads that do not are delivered as the raw string unchanged.
func (s *Subscriber) OnJSON(handler MessageHandler, channels ...string) error {
	return s.register(func() error { return s.reg.addChannels(true, handler, channels) })
}

// OnPattern registers handler for one or more glob patterns. The handler
// receives the subscribed pattern the server reported as matched, the
// concrete channel, and the raw payload.
func (s *Subscriber) OnPattern(handler PatternHandler, patterns ...string) error {
	return s.register(func() error { return s.reg.addPatterns(false, handler, patterns) })
}

// OnPatternJSON registers handler for glob patterns with JSON decoding enabled.
func (s *Subscriber) OnPatternJSON(handler PatternHandler, patterns ...string) error {
	return s.register(func() error { return s.reg.addPatterns(true, handler, patterns) })
}

// OnShard registers handler for one or more shard channels.
func (s *Subscriber) OnShard(handler MessageHandler, channels ...string) error {
	return s.register(func() error { return s.reg.addShards(false, handler, channels) })
}

// OnShardJSON registers handler for shard channels with JSON decoding enabled.
func (s *Subscriber) OnShardJSON(handler MessageHandler, channels ...string) error {
	return s.register(func() error { return s.reg.addShards(true, handler, channels) })
}

func (s *Subscriber) register(add func() error) error {
	if s.State() != StateNotStarted {
		return ErrAlreadyStarted
	}

	return add()
}

// HasSubscriptions reports whether any subscription has been registered.
func (s *Subscriber) HasSubscriptions() bool {
	return s.reg.hasAny()
}

// Run starts the runtime and drives the receive loop on the calling
// goroutine.
//
// It validates that at least one subscription is registered (returning
// ErrNoSubscriptions before any network I/O otherwise), issues
// subscribe/psubscribe/ssubscribe for every registered key, and then
// blocks dispatching events until full unsubscription — normally triggered
// by Stop from another goroutine or from a handler (with wait=false).
//
// Handler panics are not isolated: they terminate the loop and propagate
// to the caller of Run.
//
// Parameters:
//   - ctx: Context for the lifetime of the receive loop
//
// Returns:
//   - error: Configuration error, subscribe error, or receive-loop failure;
//     nil after a clean unsubscribe-driven exit
func (s *Subscriber) Run(ctx context.Context) error {
	if err := s.begin(ctx); err != nil {
		return err
	}

	defer func() {
		if r := recover(); r != nil {
			// Fail loud: mark the runtime stopped, then let the panic
			// reach the caller of Run.
			s.finish(fmt.Errorf("%w: %v", ErrHandlerPanic, r))
			panic(r)
		}
	}()

	err := s.run(ctx)
	s.finish(err)

	return err
}

// RunAsync starts the runtime on a background worker goroutine.
//
// The call blocks on the start-confirmation barrier until the worker has
// reached the Running state (or has already exited), then returns the
// worker handle. This guarantees that no message published after RunAsync
// returns can be missed because the subscription was not yet active.
//
// If the worker fails during setup the barrier is still released — the
// caller is never blocked forever — and the failure is retrievable via the
// returned handle's Err/Wait. Handler panics on the worker are recovered
// only at the top of the goroutine, logged as warnings, and surfaced on
// the handle wrapped in ErrHandlerPanic.
//
// Parameters:
//   - ctx: Context for the lifetime of the receive loop
//
// Returns:
//   - *Worker: Handle for observing the worker's exit (non-nil whenever a
//     worker was spawned, even when an error is also returned)
//   - error: Configuration error, ErrStartTimeout, or ctx.Err()
func (s *Subscriber) RunAsync(ctx context.Context) (*Worker, error) {
	if err := s.begin(ctx); err != nil {
		return nil, err
	}

	w := newWorker()
	go func() {
		defer close(w.done)
		defer func() {
			if r := recover(); r != nil {
				err := fmt.Errorf("%w: %v", ErrHandlerPanic, r)
				s.logger.Warn("receive loop terminated by handler panic", "panic", r)
				s.finish(err)
				w.setErr(err)
			}
		}()

		err := s.run(ctx)
		if err != nil {
			s.logger.Warn("receive loop exited with error", "error", err)
		}
		s.finish(err)
		w.setErr(err)
	}()

	var timeout <-chan time.Time
	if s.cfg.StartTimeout > 0 {
		timer := time.NewTimer(s.cfg.StartTimeout)
		defer timer.Stop()
		timeout = timer.C
	}

	select {
	case <-s.started:
		return w, nil
	case <-ctx.Done():
		return w, ctx.Err()
	case <-timeout:
		return w, ErrStartTimeout
	}
}

// SubscribeWithTimeout is a bounded variant of Run that forcibly stops the
// loop after d elapses even if no unsubscribe occurred, bounding worst-case
// blocking time for diagnostic or bounded-listen use cases.
//
// A deadline-driven exit is a clean stop and returns nil.
func (s *Subscriber) SubscribeWithTimeout(ctx context.Context, d time.Duration) error {
	timer := time.AfterFunc(d, func() {
		if err := s.Stop(context.Background(), false); err != nil {
			s.logger.Warn("deadline-driven stop failed", "error", err)
		}
	})
	defer timer.Stop()

	return s.Run(ctx)
}

// Stop issues unsubscribe across all three subscription classes, which
// causes the receive loop to drain and exit.
//
// Stop is idempotent: calling it when the runtime is not started or has
// already stopped is a no-op. With wait=true it blocks — bounded by ctx
// and Config.StopTimeout — until the receive loop has fully exited;
// Running reports false once a waited Stop returns.
//
// Stop(wait=true) must not be called from inside a handler: the handler
// runs on the very goroutine Stop would wait for. Handlers stop the
// runtime with wait=false.
//
// Parameters:
//   - ctx: Context for the unsubscribe commands and the wait
//   - wait: Block until the receive loop (background worker) has exited
//
// Returns:
//   - error: Unsubscribe failure, ErrStopTimeout, or ctx.Err()
func (s *Subscriber) Stop(ctx context.Context, wait bool) error {
	switch s.State() {
	case StateNotStarted, StateStopped:
		return nil
	}

	var stopErr error
	if s.stopping.CompareAndSwap(false, true) {
		channels, patterns, shards := s.reg.keys()

		if len(channels) > 0 {
			if err := s.conn.Unsubscribe(ctx, channels...); err != nil {
				s.logger.Error("unsubscribe failed", "error", err)
				stopErr = fmt.Errorf("unsubscribe failed: %w", err)
			}
		}
		if len(patterns) > 0 {
			if err := s.conn.PUnsubscribe(ctx, patterns...); err != nil {
				s.logger.Error("punsubscribe failed", "error", err)
				if stopErr == nil {
					stopErr = fmt.Errorf("punsubscribe failed: %w", err)
				}
			}
		}
		if len(shards) > 0 {
			if err := s.conn.SUnsubscribe(ctx, shards...); err != nil {
				s.logger.Error("sunsubscribe failed", "error", err)
				if stopErr == nil {
					stopErr = fmt.Errorf("sunsubscribe failed: %w", err)
				}
			}
		}
	}

	if !wait {
		return stopErr
	}

	var timeout <-chan time.Time
	if s.cfg.StopTimeout > 0 {
		timer := time.NewTimer(s.cfg.StopTimeout)
		defer timer.Stop()
		timeout = timer.C
	}

	select {
	case <-s.finished:
		return stopErr
	case <-ctx.Done():
		if stopErr != nil {
			return fmt.Errorf("%w; additional error: %w", ctx.Err(), stopErr)
		}
		return ctx.Err()
	case <-timeout:
		return ErrStopTimeout
	}
}

// Running reports whether the receive loop is live.
func (s *Subscriber) Running() bool {
	return s.State() == StateRunning
}

// State returns the current runtime state.
func (s *Subscriber) State() State {
	return State(s.state.Load())
}

// Err returns the error the receive loop exited with, or nil. Meaningful
// once the state is Stopped; primarily useful on the synchronous path
// where no worker handle exists.
func (s *Subscriber) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.runErr
}

// begin performs the NotStarted → Starting transition, gating on the
// registry so a configuration error is raised before any network I/O.
func (s *Subscriber) begin(ctx context.Context) error {
	if !s.reg.hasAny() {
		return ErrNoSubscriptions
	}
	if !s.state.CompareAndSwap(int32(StateNotStarted), int32(StateStarting)) {
		return ErrAlreadyStarted
	}

	s.mu.Lock()
	s.ctx = ctx
	s.mu.Unlock()

	s.observeTransition(StateNotStarted, StateStarting)

	return nil
}

// run issues the subscribe commands, confirms startup, and drives the
// receive loop. It executes on whichever goroutine owns the runtime: the
// caller's (Run) or the background worker's (RunAsync).
func (s *Subscriber) run(ctx context.Context) error {
	channels, patterns, shards := s.reg.keys()

	if len(channels) > 0 {
		if err := s.conn.Subscribe(ctx, channels...); err != nil {
			return fmt.Errorf("subscribe failed: %w", err)
		}
	}
	if len(patterns) > 0 {
		if err := s.conn.PSubscribe(ctx, patterns...); err != nil {
			return fmt.Errorf("psubscribe failed: %w", err)
		}
	}
	if len(shards) > 0 {
		if err := s.conn.SSubscribe(ctx, shards...); err != nil {
			return fmt.Errorf("ssubscribe failed: %w", err)
		}
	}

	s.chLive = len(channels)
	s.patLive = len(patterns)
	s.shLive = len(shards)
	s.metrics.SetActiveSubscriptions("channel", s.chLive)
	s.metrics.SetActiveSubscriptions("pattern", s.patLive)
	s.metrics.SetActiveSubscriptions("shard", s.shLive)

	s.logger.Info("subscriptions issued",
		"channels", len(channels),
		"patterns", len(patterns),
		"shards", len(shards),
	)

	// The subscribe commands have been issued on the connection, so any
	// message published from here on will be delivered. Confirm startup
	// before blocking in the first Receive.
	s.transition(StateStarting, StateRunning)
	s.releaseStarted()

	return s.receiveLoop(ctx)
}

func (s *Subscriber) receiveLoop(ctx context.Context) error {
	for {
		ev, err := s.conn.Receive(ctx)
		if err != nil {
			// A connection torn down or context cancelled after Stop began
			// is the expected way for the loop to end when the unsubscribe
			// acks were cut short; everything else propagates.
			if s.stopping.Load() &&
				(errors.Is(err, types.ErrConnClosed) || errors.Is(err, context.Canceled)) {
				return nil
			}

			return fmt.Errorf("receive failed: %w", err)
		}

		if exit := s.dispatch(ev); exit {
			s.logger.Debug("all subscriptions drained, exiting receive loop")

			return nil
		}
	}
}

// transition performs a validated state change. Invalid transitions are
// logged and ignored, matching the single-owner state machine contract.
func (s *Subscriber) transition(from, to State) {
	if !s.state.CompareAndSwap(int32(from), int32(to)) {
		s.logger.Error("invalid state transition attempted",
			"from", from.String(),
			"to", to.String(),
		)

		return
	}

	s.observeTransition(from, to)
}

func (s *Subscriber) observeTransition(from, to State) {
	now := time.Now().UnixNano()
	elapsed := time.Duration(now - s.stateSince.Swap(now))

	s.logger.Info("state transition", "from", from.String(), "to", to.String())
	s.metrics.RecordStateTransition(from, to, elapsed.Seconds())

	if s.hooks.OnStateChanged != nil {
		// Run hook in background to avoid blocking the receive loop
		hctx := s.hookCtx()
		go func() {
			if err := s.hooks.OnStateChanged(hctx, from, to); err != nil {
				s.logger.Error("state change hook error", "from", from, "to", to, "error", err)
			}
		}()
	}
}

// finish records how the receive loop ended. It is safe to call multiple
// times; only the first call takes effect. It always releases the start
// barrier so an async caller can never be left blocked.
func (s *Subscriber) finish(err error) {
	s.finishOnce.Do(func() {
		if from := s.State(); from != StateStopped {
			s.state.Store(int32(StateStopped))
			s.observeTransition(from, StateStopped)
		}

		s.mu.Lock()
		s.runErr = err
		s.mu.Unlock()

		s.metrics.SetActiveSubscriptions("channel", 0)
		s.metrics.SetActiveSubscriptions("pattern", 0)
		s.metrics.SetActiveSubscriptions("shard", 0)

		if err != nil && s.hooks.OnError != nil {
			hctx := s.hookCtx()
			go func() {
				if herr := s.hooks.OnError(hctx, err); herr != nil {
					s.logger.Error("error hook failed", "error", herr)
				}
			}()
		}

		s.releaseStarted()
		close(s.finished)
	})
}

func (s *Subscriber) releaseStarted() {
	s.startOnce.Do(func() { close(s.started) })
}

func (s *Subscriber) hookCtx() context.Context {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ctx != nil {
		return s.ctx
	}

	return context.Background()
}
