package types

// MetricsCollector defines methods for recording operational metrics.
//
// Implementations should be non-blocking and handle failures gracefully.
// All methods are called from the receive goroutine and must be thread-safe.
//
// This interface composes smaller, domain-focused interfaces for better modularity.
type MetricsCollector interface {
	SubscriberMetrics
	DispatchMetrics
}

// SubscriberMetrics defines metrics for runtime lifecycle operations.
type SubscriberMetrics interface {
	// RecordStateTransition records a runtime state transition event.
	//
	// Parameters:
	//   - from: Previous state
	//   - to: New state
	//   - duration: Seconds spent in the previous state
	RecordStateTransition(from, to State, duration float64)

	// SetActiveSubscriptions sets the current number of live subscriptions
	// for one class ("channel", "pattern", "shard").
	SetActiveSubscriptions(class string, count int)
}

// DispatchMetrics defines metrics for event dispatch.
type DispatchMetrics interface {
	// RecordMessage records a dispatched message by kind
	// ("message", "pmessage", "smessage").
	RecordMessage(kind string)

	// RecordDropped records a message dropped because no handler was
	// registered for its channel or pattern.
	RecordDropped(kind string)

	// RecordDecodeFailure records a JSON decode failure on a
	// decode-enabled subscription (the raw payload was still dispatched).
	RecordDecodeFailure(kind string)

	// RecordHandlerDuration records handler execution time in seconds by kind.
	RecordHandlerDuration(kind string, duration float64)
}
