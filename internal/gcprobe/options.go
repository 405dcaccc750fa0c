package gcprobe

import (
	"log/slog"
	"time"

	"github.com/roach88/soloist/internal/apartment"
)

// Defaults trade measurement cost against precision. One hundred iterations
// smooths per-call variance; five attempts tolerate the collector's timing
// jitter without letting a real leak through.
const (
	DefaultIterations  = 100
	DefaultMaxAttempts = 5

	defaultCooldown = 10 * time.Millisecond

	// pumpedRunBound caps the wall time of one whole pumped measurement,
	// warm-up and every attempt included. Generous on purpose: a stuck
	// workload still surfaces as a reported timeout, not a hang.
	pumpedRunBound = 30 * time.Second
)

type config struct {
	iterations    int
	maxAttempts   int
	cooldown      time.Duration
	logger        *slog.Logger
	apartmentOpts []apartment.Option
}

func newConfig(opts []Option) config {
	cfg := config{
		iterations:  DefaultIterations,
		maxAttempts: DefaultMaxAttempts,
		cooldown:    defaultCooldown,
		logger:      slog.Default(),
	}
	for _, opt := range opts {
		opt(&cfg)
	}
	return cfg
}

// Option configures a measurement.
type Option func(*config)

// WithIterations sets how many times the workload runs per attempt.
//
// Default: DefaultIterations.
func WithIterations(n int) Option {
	return func(c *config) {
		if n > 0 {
			c.iterations = n
		}
	}
}

// WithMaxAttempts sets how many samples may be taken before the measurement
// is reported as failed.
//
// Default: DefaultMaxAttempts.
func WithMaxAttempts(n int) Option {
	return func(c *config) {
		if n > 0 {
			c.maxAttempts = n
		}
	}
}

// WithCooldown sets the pause between failed attempts.
//
// Default: 10ms.
func WithCooldown(d time.Duration) Option {
	return func(c *config) {
		if d >= 0 {
			c.cooldown = d
		}
	}
}

// WithLogger sets the structured logger. Defaults to slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(c *config) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithApartmentOptions forwards options to the dedicated worker that
// MeasurePumped runs its workload on. Measure ignores them.
func WithApartmentOptions(opts ...apartment.Option) Option {
	return func(c *config) {
		c.apartmentOpts = append(c.apartmentOpts, opts...)
	}
}
