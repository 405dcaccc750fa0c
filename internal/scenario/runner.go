package scenario

import (
	"fmt"
	"log/slog"

	"github.com/roach88/soloist/internal/apartment"
	"github.com/roach88/soloist/internal/gcprobe"
	"github.com/roach88/soloist/internal/trace"
)

// Runner drives scenarios. Each run gets a fresh workload build, a fresh
// trace recorder, and a fresh apartment worker, so scenarios are isolated
// from each other and can run in any order.
type Runner struct {
	logger *slog.Logger
	tokens TokenGenerator
	aopts  []apartment.Option
	popts  []gcprobe.Option
}

// RunnerOption configures a Runner.
type RunnerOption func(*Runner)

// WithLogger sets the structured logger. Defaults to slog.Default().
func WithLogger(logger *slog.Logger) RunnerOption {
	return func(r *Runner) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// WithTokenGenerator sets the run token source. Defaults to UUIDv7 tokens;
// tests substitute fixed tokens for byte-stable goldens.
func WithTokenGenerator(g TokenGenerator) RunnerOption {
	return func(r *Runner) {
		if g != nil {
			r.tokens = g
		}
	}
}

// WithApartmentOptions appends options for the workers the runner spawns.
func WithApartmentOptions(opts ...apartment.Option) RunnerOption {
	return func(r *Runner) {
		r.aopts = append(r.aopts, opts...)
	}
}

// WithProbeOptions appends options for measure-mode probes.
func WithProbeOptions(opts ...gcprobe.Option) RunnerOption {
	return func(r *Runner) {
		r.popts = append(r.popts, opts...)
	}
}

// NewRunner creates a runner.
func NewRunner(opts ...RunnerOption) *Runner {
	r := &Runner{
		logger: slog.Default(),
		tokens: UUIDv7Generator{},
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Run executes one scenario and returns its result.
//
// The returned error covers infrastructure problems only: unknown workload,
// missing form for the mode. Everything the scenario is about, workload
// failures and violated assertions included, lands in the Result.
func (r *Runner) Run(s *Scenario) (*Result, error) {
	entry, ok := Lookup(s.Workload)
	if !ok {
		return nil, fmt.Errorf("unknown workload %q", s.Workload)
	}
	forms := entry.Make()

	token := s.RunToken
	if token == "" {
		token = r.tokens.Generate()
	}

	rec := trace.NewRecorder()
	res := NewResult(s.Name, token)

	var runErr error
	switch s.Mode {
	case ModePumped:
		if forms.Pumped == nil {
			return nil, fmt.Errorf("workload %q has no pumped form", s.Workload)
		}
		runErr = apartment.RunToCompletion(forms.Pumped, r.apartmentOptions(rec)...)

	case ModeApartment:
		if forms.Action == nil {
			return nil, fmt.Errorf("workload %q has no apartment form", s.Workload)
		}
		runErr = apartment.Run(forms.Action, r.apartmentOptions(rec)...)

	case ModeMeasure:
		var rep gcprobe.Report
		var err error
		switch {
		case forms.Sync != nil:
			rep, err = gcprobe.Measure(forms.Sync, s.Budget, r.probeOptions(s, rec)...)
		case forms.Pumped != nil:
			rep, err = gcprobe.MeasurePumped(forms.Pumped, s.Budget, r.probeOptions(s, rec)...)
		default:
			return nil, fmt.Errorf("workload %q has no measurable form", s.Workload)
		}
		res.Report = &rep
		runErr = err

	default:
		return nil, fmt.Errorf("unknown mode %q", s.Mode)
	}

	res.observe(runErr)
	res.Trace = trace.NormalizeGoroutines(rec.Snapshot())
	digest, err := trace.Digest(res.Trace)
	if err != nil {
		return nil, fmt.Errorf("trace digest: %w", err)
	}
	res.Digest = digest

	checkExpectation(s, res)
	for _, msg := range EvaluateAssertions(res.Trace, s.Assertions) {
		res.AddError(msg)
	}

	r.logger.Info("scenario finished",
		"scenario", s.Name,
		"mode", s.Mode,
		"outcome", res.Outcome,
		"pass", res.Pass,
		"events", len(res.Trace),
	)
	return res, nil
}

// RunAll executes scenarios in order and returns every result. A scenario
// that cannot even be driven stops the batch.
func (r *Runner) RunAll(scenarios []*Scenario) ([]*Result, error) {
	results := make([]*Result, 0, len(scenarios))
	for _, s := range scenarios {
		res, err := r.Run(s)
		if err != nil {
			return results, fmt.Errorf("scenario %q: %w", s.Name, err)
		}
		results = append(results, res)
	}
	return results, nil
}

func (r *Runner) apartmentOptions(rec *trace.Recorder) []apartment.Option {
	opts := []apartment.Option{
		apartment.WithLogger(r.logger),
		apartment.WithTraceSink(rec),
	}
	return append(opts, r.aopts...)
}

func (r *Runner) probeOptions(s *Scenario, rec *trace.Recorder) []gcprobe.Option {
	opts := []gcprobe.Option{
		gcprobe.WithLogger(r.logger),
		gcprobe.WithApartmentOptions(r.apartmentOptions(rec)...),
	}
	if s.Iterations > 0 {
		opts = append(opts, gcprobe.WithIterations(s.Iterations))
	}
	if s.MaxAttempts > 0 {
		opts = append(opts, gcprobe.WithMaxAttempts(s.MaxAttempts))
	}
	return append(opts, r.popts...)
}

// checkExpectation compares the observed outcome with the expect clause.
// A scenario without one expects a clean pass.
func checkExpectation(s *Scenario, res *Result) {
	want := s.Expect
	if want == nil {
		want = &ExpectClause{Outcome: OutcomePass}
	}

	switch want.Outcome {
	case OutcomePass:
		if res.Outcome != OutcomePass {
			res.AddError(fmt.Sprintf("expected pass, workload failed: %s", res.FailureText))
		}
	case OutcomeFail:
		if res.Outcome != OutcomeFail {
			res.AddError("expected failure, workload passed")
			return
		}
		if want.FailureCode != "" && res.FailureCode != want.FailureCode {
			got := res.FailureCode
			if got == "" {
				got = "(none)"
			}
			res.AddError(fmt.Sprintf("expected failure code %s, got %s", want.FailureCode, got))
		}
	}
}
