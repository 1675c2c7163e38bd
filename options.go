package redisub

// Option configures a Subscriber with optional dependencies.
type Option func(*subscriberOptions)

// subscriberOptions holds optional Subscriber configuration.
type subscriberOptions struct {
	logger  Logger
	metrics MetricsCollector
	hooks   *Hooks
}

// WithLogger sets a logger.
//
// Parameters:
//   - logger: Logger implementation (compatible with zap.SugaredLogger)
//
// Example:
//
//	logger := logging.NewSlog(slog.Default())
//	sub, err := redisub.NewSubscriber(&cfg, conn, redisub.WithLogger(logger))
func WithLogger(logger Logger) Option {
	return func(o *subscriberOptions) {
		o.logger = logger
	}
}

// WithMetrics sets a metrics collector.
//
// Parameters:
//   - metrics: MetricsCollector implementation
//
// Example:
//
//	collector := metrics.NewPrometheus(nil, "myapp")
//	sub, err := redisub.NewSubscriber(&cfg, conn, redisub.WithMetrics(collector))
func WithMetrics(metrics MetricsCollector) Option {
	return func(o *subscriberOptions) {
		o.metrics = metrics
	}
}

// WithHooks sets lifecycle event hooks.
//
// Parameters:
//   - hooks: Hooks structure with callback functions
//
// Example:
//
//	hooks := &redisub.Hooks{
//	    OnStateChanged: func(ctx context.Context, from, to redisub.State) error {
//	        return notify(from, to)
//	    },
//	}
//	sub, err := redisub.NewSubscriber(&cfg, conn, redisub.WithHooks(hooks))
func WithHooks(hooks *Hooks) Option {
	return func(o *subscriberOptions) {
		o.hooks = hooks
	}
}
