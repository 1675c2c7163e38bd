package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/bsbodden/redis-ruby-sub007/types"
)

// PrometheusCollector implements types.MetricsCollector backed by Prometheus.
//
// Metric registration is lazy and happens once, on first use, so creating a
// collector that is never exercised does not pollute the registry.
type PrometheusCollector struct {
	reg       prometheus.Registerer
	namespace string
	once      sync.Once

	stateTransitions *prometheus.CounterVec
	stateDuration    *prometheus.HistogramVec
	subscriptions    *prometheus.GaugeVec

	messages       *prometheus.CounterVec
	dropped        *prometheus.CounterVec
	decodeFailures *prometheus.CounterVec
	handlerLatency *prometheus.HistogramVec
}

// Compile-time assertion that PrometheusCollector implements MetricsCollector.
var _ types.MetricsCollector = (*PrometheusCollector)(nil)

// NewPrometheus creates a new Prometheus-backed metrics collector.
//
// Parameters:
//   - reg: Prometheus registerer interface (uses prometheus.DefaultRegisterer if nil)
//   - namespace: Prometheus metrics namespace (defaults to "redisub" if empty)
//
// Returns:
//   - *PrometheusCollector: A MetricsCollector implementation using Prometheus
func NewPrometheus(reg prometheus.Registerer, namespace string) *PrometheusCollector {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	if namespace == "" {
		namespace = "redisub"
	}

	return &PrometheusCollector{reg: reg, namespace: namespace}
}

func (p *PrometheusCollector) ensureRegistered() {
	p.once.Do(func() {
		p.stateTransitions = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: p.namespace,
			Subsystem: "subscriber",
			Name:      "state_transitions_total",
			Help:      "Total runtime state transitions by from/to state.",
		}, []string{"from", "to"})

		p.stateDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: p.namespace,
			Subsystem: "subscriber",
			Name:      "state_duration_seconds",
			Help:      "Seconds spent in each runtime state before transitioning.",
			Buckets:   prometheus.ExponentialBuckets(0.001, 4, 10), // 1ms .. ~262s
		}, []string{"state"})

		p.subscriptions = prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: p.namespace,
			Subsystem: "subscriber",
			Name:      "subscriptions_current",
			Help:      "Current live subscriptions by class (channel,pattern,shard).",
		}, []string{"class"})

		p.messages = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: p.namespace,
			Subsystem: "dispatch",
			Name:      "messages_total",
			Help:      "Total messages dispatched to handlers by kind (message,pmessage,smessage).",
		}, []string{"kind"})

		p.dropped = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: p.namespace,
			Subsystem: "dispatch",
			Name:      "dropped_total",
			Help:      "Total messages dropped because no handler was registered.",
		}, []string{"kind"})

		p.decodeFailures = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: p.namespace,
			Subsystem: "dispatch",
			Name:      "decode_failures_total",
			Help:      "Total JSON decode failures on decode-enabled subscriptions.",
		}, []string{"kind"})

		p.handlerLatency = prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: p.namespace,
			Subsystem: "dispatch",
			Name:      "handler_duration_seconds",
			Help:      "Handler execution latency in seconds by kind.",
			Buckets:   prometheus.ExponentialBuckets(0.0001, 4, 10), // 100us .. ~26s
		}, []string{"kind"})

		p.reg.MustRegister(
			p.stateTransitions,
			p.stateDuration,
			p.subscriptions,
			p.messages,
			p.dropped,
			p.decodeFailures,
			p.handlerLatency,
		)
	})
}

// RecordStateTransition records a runtime state transition.
func (p *PrometheusCollector) RecordStateTransition(from, to types.State, duration float64) {
	p.ensureRegistered()
	p.stateTransitions.WithLabelValues(from.String(), to.String()).Inc()
	p.stateDuration.WithLabelValues(from.String()).Observe(duration)
}

// SetActiveSubscriptions sets the live subscription gauge for a class.
func (p *PrometheusCollector) SetActiveSubscriptions(class string, count int) {
	p.ensureRegistered()
	p.subscriptions.WithLabelValues(class).Set(float64(count))
}

// RecordMessage increments the dispatched message counter.
func (p *PrometheusCollector) RecordMessage(kind string) {
	p.ensureRegistered()
	p.messages.WithLabelValues(kind).Inc()
}

// RecordDropped increments the dropped message counter.
func (p *PrometheusCollector) RecordDropped(kind string) {
	p.ensureRegistered()
	p.dropped.WithLabelValues(kind).Inc()
}

// RecordDecodeFailure increments the decode failure counter.
func (p *PrometheusCollector) RecordDecodeFailure(kind string) {
	p.ensureRegistered()
	p.decodeFailures.WithLabelValues(kind).Inc()
}

// RecordHandlerDuration observes handler execution latency.
func (p *PrometheusCollector) RecordHandlerDuration(kind string, duration float64) {
	p.ensureRegistered()
	p.handlerLatency.WithLabelValues(kind).Observe(duration)
}
