package apartment

import (
	"log/slog"
	"time"
)

// DefaultRunTimeout bounds one pumped run. A workload that never settles its
// completion surfaces as a timeout failure instead of a hung test.
const DefaultRunTimeout = 1000 * time.Millisecond

// DefaultStartupWait bounds how long the caller waits for the dedicated
// worker to become ready before reporting a startup failure.
const DefaultStartupWait = 1 * time.Second

// defaultQueueCapacity pre-allocates the callback queue for typical
// re-posting workloads.
const defaultQueueCapacity = 64

type config struct {
	logger        *slog.Logger
	sink          TraceSink
	runTimeout    time.Duration
	startupWait   time.Duration
	queueCapacity int
}

func newConfig(opts []Option) config {
	cfg := config{
		logger:        slog.Default(),
		runTimeout:    DefaultRunTimeout,
		startupWait:   DefaultStartupWait,
		queueCapacity: defaultQueueCapacity,
	}
	for _, opt := range opts {
		opt(&cfg)
	}
	return cfg
}

// Option configures an apartment or a directly constructed pump.
type Option func(*config)

// WithLogger sets the structured logger. Defaults to slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(c *config) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithTraceSink attaches a sink that receives pump lifecycle events.
// The sink must be safe for concurrent use.
func WithTraceSink(sink TraceSink) Option {
	return func(c *config) {
		c.sink = sink
	}
}

// WithRunTimeout sets the bound for one pumped run and for joining the
// worker. Zero disables the bound entirely.
//
// Default: DefaultRunTimeout.
// Use WithRunTimeout(0) for measurement loops that manage their own bounds.
func WithRunTimeout(d time.Duration) Option {
	return func(c *config) {
		c.runTimeout = d
	}
}

// WithStartupWait sets how long to wait for worker readiness.
//
// Default: DefaultStartupWait.
func WithStartupWait(d time.Duration) Option {
	return func(c *config) {
		if d > 0 {
			c.startupWait = d
		}
	}
}
