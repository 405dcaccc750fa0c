package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/soloist/internal/gcprobe"
	"github.com/roach88/soloist/internal/scenario"
)

// MeasureOptions holds flags for the measure command.
type MeasureOptions struct {
	*RootOptions
	Budget      int64
	Iterations  int
	MaxAttempts int
}

// MeasureResult holds the outcome of a one-off measurement.
type MeasureResult struct {
	Workload string         `json:"workload"`
	Report   gcprobe.Report `json:"report"`
	Failure  string         `json:"failure,omitempty"`
}

// NewMeasureCommand creates the measure command.
func NewMeasureCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &MeasureOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "measure <workload>",
		Short: "Measure allocation pressure of a registered workload",
		Long: `Measure GC pressure of a registered workload without a scenario file.

Runs the workload repeatedly after a warm-up, reads per-iteration heap
growth against the budget, and verifies that retained memory collects.
Synchronous workloads run directly; pumped workloads are driven to
completion on an apartment worker per iteration.

Exit codes:
  0 - Measurement passed
  1 - Measurement failed (over budget or retained memory)
  2 - Command error (unknown workload, etc.)

Examples:
  soloist measure alloc-release --budget 4096
  soloist measure retain --budget 1048576 --max-attempts 2
  soloist measure noop --iterations 10 --format json`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runMeasure(opts, args[0], cmd)
		},
	}

	cmd.Flags().Int64Var(&opts.Budget, "budget", 0, "allocation budget in bytes per iteration")
	cmd.Flags().IntVar(&opts.Iterations, "iterations", 0, "iterations per attempt (default 100)")
	cmd.Flags().IntVar(&opts.MaxAttempts, "max-attempts", 0, "attempts before giving up (default 5)")

	return cmd
}

func runMeasure(opts *MeasureOptions, workload string, cmd *cobra.Command) error {
	entry, ok := scenario.Lookup(workload)
	if !ok {
		return NewExitError(ExitCommandError,
			fmt.Sprintf("unknown workload %q (registered: %v)", workload, scenario.Names()))
	}
	forms := entry.Make()

	probeOpts := []gcprobe.Option{gcprobe.WithLogger(newLogger(opts.RootOptions, cmd))}
	if opts.Iterations > 0 {
		probeOpts = append(probeOpts, gcprobe.WithIterations(opts.Iterations))
	}
	if opts.MaxAttempts > 0 {
		probeOpts = append(probeOpts, gcprobe.WithMaxAttempts(opts.MaxAttempts))
	}

	var rep gcprobe.Report
	var err error
	switch {
	case forms.Sync != nil:
		rep, err = gcprobe.Measure(forms.Sync, opts.Budget, probeOpts...)
	case forms.Pumped != nil:
		rep, err = gcprobe.MeasurePumped(forms.Pumped, opts.Budget, probeOpts...)
	default:
		return NewExitError(ExitCommandError, fmt.Sprintf("workload %q has no measurable form", workload))
	}

	result := MeasureResult{Workload: workload, Report: rep}
	if err != nil {
		result.Failure = err.Error()
	}

	if opts.Format == "json" {
		return outputMeasureJSON(cmd, result)
	}
	return outputMeasureText(cmd, result)
}

// outputMeasureJSON outputs the measurement result as JSON.
func outputMeasureJSON(cmd *cobra.Command, result MeasureResult) error {
	status := "ok"
	if !result.Report.Passed {
		status = "error"
	}

	response := CLIResponse{
		Status: status,
		Data:   result,
	}
	if !result.Report.Passed {
		response.Error = &CLIError{
			Code:    "E_MEASUREMENT_FAILED",
			Message: result.Failure,
		}
	}

	encoder := json.NewEncoder(cmd.OutOrStdout())
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(response); err != nil {
		return err
	}

	if !result.Report.Passed {
		return NewExitError(ExitFailure, fmt.Sprintf("measurement of %q failed", result.Workload))
	}
	return nil
}

// outputMeasureText outputs the measurement result as text.
func outputMeasureText(cmd *cobra.Command, result MeasureResult) error {
	w := cmd.OutOrStdout()

	fmt.Fprintf(w, "Measuring %s (budget %d B/iter, iterations %d)\n", result.Workload, result.Report.Budget, result.Report.Iterations)
	fmt.Fprintln(w)
	for _, s := range result.Report.Samples {
		fmt.Fprintf(w, "  attempt %d: allocated %d B/iter, retained %d B/iter\n", s.Attempt, s.Allocated, s.Retained)
	}
	fmt.Fprintln(w)

	if !result.Report.Passed {
		fmt.Fprintf(w, "✗ %s\n", result.Failure)
		return NewExitError(ExitFailure, fmt.Sprintf("measurement of %q failed", result.Workload))
	}

	fmt.Fprintln(w, "✓ within budget")
	return nil
}
