package metrics

import "github.com/bsbodden/redis-ruby-sub007/types"

// NopMetrics implements a no-op metrics collector.
//
// All metrics are discarded. Useful for testing or when external
// metrics collection is used.
type NopMetrics struct{}

// Compile-time assertion that NopMetrics implements MetricsCollector.
var _ types.MetricsCollector = (*NopMetrics)(nil)

// NewNop creates a new no-op metrics collector.
//
// Returns:
//   - *NopMetrics: A new no-op metrics collector instance
//
// Example:
//
//	metrics := metrics.NewNop()
//	sub, err := redisub.NewSubscriber(&cfg, conn, redisub.WithMetrics(metrics))
func NewNop() *NopMetrics {
	return &NopMetrics{}
}

// SubscriberMetrics implementation

// RecordStateTransition discards the state transition metric.
func (n *NopMetrics) RecordStateTransition(_ /* from */, _ /* to */ types.State, _ /* duration */ float64) {
	// No-op
}

// SetActiveSubscriptions discards the active subscription gauge.
func (n *NopMetrics) SetActiveSubscriptions(_ /* class */ string, _ /* count */ int) {
	// No-op
}

// DispatchMetrics implementation

// RecordMessage discards the dispatched message counter.
func (n *NopMetrics) RecordMessage(_ /* kind */ string) {
	// No-op
}

// RecordDropped discards the dropped message counter.
func (n *NopMetrics) RecordDropped(_ /* kind */ string) {
	// No-op
}

// RecordDecodeFailure discards the decode failure counter.
func (n *NopMetrics) RecordDecodeFailure(_ /* kind */ string) {
	// No-op
}

// RecordHandlerDuration discards the handler duration metric.
func (n *NopMetrics) RecordHandlerDuration(_ /* kind */ string, _ /* duration */ float64) {
	// No-op
}
