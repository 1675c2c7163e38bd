package redisub

import (
	"encoding/json"
	"time"
)

// dispatch routes one event from the connection to the matching handler or
// bookkeeping path. It runs on the receive goroutine only. The return
// value is true when every live subscription has been confirmed
// unsubscribed and the receive loop should exit.
func (s *Subscriber) dispatch(ev Event) bool {
	switch ev.Kind {
	case EventMessage:
		s.dispatchChannel(ev)
	case EventSMessage:
		s.dispatchShard(ev)
	case EventPMessage:
		s.dispatchPattern(ev)
	case EventSubscribe, EventPSubscribe, EventSSubscribe:
		s.observeAck(ev)
	case EventUnsubscribe, EventPUnsubscribe, EventSUnsubscribe:
		s.observeAck(ev)
		s.ackUnsubscribe(ev)
		if s.chLive+s.patLive+s.shLive == 0 {
			return true
		}
	}

	return false
}

func (s *Subscriber) dispatchChannel(ev Event) {
	entry, ok := s.reg.channel(ev.Channel)
	if !ok {
		s.drop(ev)

		return
	}

	payload := s.payload(entry.decode, ev)
	start := time.Now()
	entry.handler(ev.Channel, payload)
	s.metrics.RecordHandlerDuration("message", time.Since(start).Seconds())
	s.metrics.RecordMessage("message")
}

func (s *Subscriber) dispatchShard(ev Event) {
	entry, ok := s.reg.shard(ev.Channel)
	if !ok {
		s.drop(ev)

		return
	}

	payload := s.payload(entry.decode, ev)
	start := time.Now()
	entry.handler(ev.Channel, payload)
	s.metrics.RecordHandlerDuration("smessage", time.Since(start).Seconds())
	s.metrics.RecordMessage("smessage")
}

func (s *Subscriber) dispatchPattern(ev Event) {
	// Lookup is by the pattern the server reported as matched, never by
	// re-matching channel names locally.
	entry, ok := s.reg.pattern(ev.Pattern)
	if !ok {
		s.drop(ev)

		return
	}

	payload := s.payload(entry.decode, ev)
	start := time.Now()
	entry.handler(ev.Pattern, ev.Channel, payload)
	s.metrics.RecordHandlerDuration("pmessage", time.Since(start).Seconds())
	s.metrics.RecordMessage("pmessage")
}

// payload applies the entry's optional JSON decode step. A payload that
// fails to parse is passed through as the raw string unchanged: decoding
// failure never raises or aborts dispatch.
func (s *Subscriber) payload(decode bool, ev Event) any {
	if !decode {
		return ev.Payload
	}

	var v any
	if err := json.Unmarshal([]byte(ev.Payload), &v); err != nil {
		s.metrics.RecordDecodeFailure(ev.Kind.String())
		s.logger.Debug("payload is not valid JSON, dispatching raw",
			"kind", ev.Kind.String(),
			"channel", ev.Channel,
			"error", err,
		)

		return ev.Payload
	}

	return v
}

// drop records an event for which no handler is registered. The connection
// layer may deliver events for subscriptions issued outside this registry;
// those are dropped silently.
func (s *Subscriber) drop(ev Event) {
	s.metrics.RecordDropped(ev.Kind.String())
	s.logger.Debug("no handler registered, dropping event",
		"kind", ev.Kind.String(),
		"channel", ev.Channel,
		"pattern", ev.Pattern,
	)
}

func (s *Subscriber) observeAck(ev Event) {
	s.logger.Debug("subscription ack",
		"kind", ev.Kind.String(),
		"channel", ev.Channel,
		"pattern", ev.Pattern,
		"count", ev.Count,
	)

	if s.hooks.OnSubscriptionChange != nil {
		hctx := s.hookCtx()
		go func() {
			if err := s.hooks.OnSubscriptionChange(hctx, ev); err != nil {
				s.logger.Error("subscription change hook error", "kind", ev.Kind.String(), "error", err)
			}
		}()
	}
}

// ackUnsubscribe drains the live counters. Only keys present in the
// registry count: unsubscribe confirmations for subscriptions issued
// outside this runtime must not drain the loop-exit accounting.
func (s *Subscriber) ackUnsubscribe(ev Event) {
	switch ev.Kind {
	case EventUnsubscribe:
		if _, ok := s.reg.channel(ev.Channel); ok && s.chLive > 0 {
			s.chLive--
			s.metrics.SetActiveSubscriptions("channel", s.chLive)
		}
	case EventPUnsubscribe:
		key := ev.Pattern
		if key == "" {
			key = ev.Channel
		}
		if _, ok := s.reg.pattern(key); ok && s.patLive > 0 {
			s.patLive--
			s.metrics.SetActiveSubscriptions("pattern", s.patLive)
		}
	case EventSUnsubscribe:
		if _, ok := s.reg.shard(ev.Channel); ok && s.shLive > 0 {
			s.shLive--
			s.metrics.SetActiveSubscriptions("shard", s.shLive)
		}
	}
}
