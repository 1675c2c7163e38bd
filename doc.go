// Package redisub provides an asynchronous Redis Pub/Sub subscription
// runtime: handler registration for channels, glob patterns, and
// shard-scoped channels, a single-goroutine receive loop run either
// synchronously or on a background worker, and safe, ordered startup and
// shutdown.
//
// # Quick Start
//
// Basic usage with the go-redis-backed connection:
//
//	import (
//	    redisub "github.com/bsbodden/redis-ruby-sub007"
//	    "github.com/bsbodden/redis-ruby-sub007/redisconn"
//	    "github.com/redis/go-redis/v9"
//	)
//
//	client := redis.NewClient(&redis.Options{Addr: "localhost:6379"})
//	conn := redisconn.New(ctx, client)
//
//	sub, err := redisub.NewSubscriber(&redisub.Config{}, conn)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	_ = sub.On(func(channel string, message any) {
//	    fmt.Printf("%s: %v\n", channel, message)
//	}, "news")
//
//	worker, err := sub.RunAsync(ctx)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	// Any message published to "news" from here on will reach the handler.
//
//	defer sub.Stop(context.Background(), true)
//	_ = worker
//
// # Key Guarantees
//
//   - No-miss startup: RunAsync blocks on a start-confirmation barrier and
//     returns only once the subscribe commands have been issued and the
//     receive loop is live, so a publisher sequenced after RunAsync cannot
//     race an unstarted subscription.
//   - Sequential dispatch: all handlers for one Subscriber run on a single
//     goroutine, in server delivery order per channel. No shared locking is
//     needed between handlers.
//   - Graceful JSON decoding: subscriptions registered via the *JSON
//     methods receive decoded values when the payload parses and the raw
//     string unchanged when it does not; a malformed payload never aborts
//     dispatch.
//   - Fail-loud handlers: a panic inside a handler is not swallowed. It
//     terminates the receive loop; on the async path it is logged and
//     surfaced on the worker handle wrapped in ErrHandlerPanic.
//
// # Architecture
//
// A Subscriber progresses through a strict lifecycle:
//
//	NotStarted → Starting → Running → Stopped
//
// Run/RunAsync move the runtime to Starting, issue
// SUBSCRIBE/PSUBSCRIBE/SSUBSCRIBE for every registered key, confirm
// Running, and then block in the connection's receive primitive. Stop
// issues the matching unsubscribe commands; the loop exits once the
// server has confirmed every registered subscription gone, and the state
// becomes Stopped. Stopped is terminal: create a new Subscriber to
// subscribe again.
//
// Reconnection, retry/backoff, and connection pooling are out of scope;
// the runtime drives exactly one push-capable connection supplied by the
// caller (see the redisconn package).
//
// # Observability
//
// Structured logging, metrics, and lifecycle hooks are pluggable via
// options:
//
//	sub, err := redisub.NewSubscriber(&cfg, conn,
//	    redisub.WithLogger(myLogger),   // zap.SugaredLogger-compatible
//	    redisub.WithMetrics(collector), // e.g. a Prometheus-backed collector
//	    redisub.WithHooks(&redisub.Hooks{OnStateChanged: onChange}),
//	)
//
// All three default to no-ops.
package redisub
