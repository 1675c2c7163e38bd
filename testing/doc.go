// Package testing provides test utilities for the redisub library.
//
// This package offers helpers for exercising subscription runtimes without
// a real Redis server. It follows Go's convention of providing testing
// utilities in a dedicated package (similar to net/http/httptest).
//
// Key utilities:
//   - Broker: an in-memory Pub/Sub backend with Redis glob semantics for
//     pattern subscriptions and separate shard-channel routing
//   - Broker.Conn: a types.Conn implementation wired to the broker
//   - NewTestLogger: a types.Logger that writes to the testing.T log
//
// Example usage:
//
//	import (
//	    "testing"
//	    subtest "github.com/bsbodden/redis-ruby-sub007/testing"
//	)
//
//	func TestMySubscriber(t *testing.T) {
//	    broker := subtest.NewBroker()
//	    sub, _ := redisub.NewSubscriber(&redisub.Config{}, broker.Conn())
//	    // register handlers, RunAsync, then broker.Publish(...)
//	}
package testing
