package cli

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/soloist/internal/store"
)

// RecordOptions holds flags for the record command.
type RecordOptions struct {
	*RootOptions
	Database string
	Filter   string
}

// RecordSummary holds the batch result plus persistence figures.
type RecordSummary struct {
	RunSummary
	Recorded   int `json:"recorded"`
	Duplicates int `json:"duplicates"`
}

// NewRecordCommand creates the record command.
func NewRecordCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &RecordOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "record <scenarios-path>",
		Short: "Run scenarios and persist the results",
		Long: `Run YAML scenario files and write each result to the run log.

Every driven scenario is persisted: token, outcome, trace digest and any
allocation samples. Writing the same run token twice is a no-op, so a
re-recorded batch only adds what is new. Recorded passing runs serve as
baselines for the compare command.

Exit codes:
  0 - All scenarios passed and were recorded
  1 - One or more scenarios failed (still recorded)
  2 - Command error (invalid paths, database errors, etc.)

Examples:
  soloist record --db ./runs.db ./scenarios
  soloist record --db ./runs.db ./scenarios --filter "measure-*"`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRecord(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "path to SQLite run log (required)")
	_ = cmd.MarkFlagRequired("db")
	cmd.Flags().StringVar(&opts.Filter, "filter", "", "filter scenarios by glob pattern")

	return cmd
}

func runRecord(opts *RecordOptions, path string, cmd *cobra.Command) error {
	files, err := collectScenarioFiles(path, opts.Filter)
	if err != nil {
		return err
	}
	if len(files) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "No scenarios found.")
		return nil
	}

	st, err := store.Open(opts.Database)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to open run log", err)
	}
	defer st.Close()

	runner := newRunner(opts.RootOptions, cmd)
	batch, runs := driveScenarios(runner, files, opts.RootOptions, cmd)
	summary := RecordSummary{RunSummary: batch}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	for _, run := range runs {
		inserted, err := st.WriteRun(ctx, storedRun(run))
		if err != nil {
			return WrapExitError(ExitCommandError,
				fmt.Sprintf("failed to record %q", run.Result.Scenario), err)
		}
		if inserted {
			summary.Recorded++
		} else {
			summary.Duplicates++
		}
	}

	if opts.Format == "json" {
		return outputRecordJSON(cmd, summary)
	}
	return outputRecordText(cmd, opts.Database, summary)
}

// storedRun converts a driven scenario into its persisted form. The stored
// outcome is what the workload did; expectations stay in the scenario file.
func storedRun(run scenarioRun) store.Run {
	rec := store.Run{
		Token:       run.Result.RunToken,
		Scenario:    run.Result.Scenario,
		Mode:        run.Scenario.Mode,
		Outcome:     run.Result.Outcome,
		FailureCode: run.Result.FailureCode,
		TraceDigest: run.Result.Digest,
	}
	if rep := run.Result.Report; rep != nil {
		rec.Budget = rep.Budget
		rec.Iterations = rep.Iterations
		rec.Samples = rep.Samples
	}
	return rec
}

// outputRecordJSON outputs the record summary as JSON.
func outputRecordJSON(cmd *cobra.Command, summary RecordSummary) error {
	status := "ok"
	if summary.Failed > 0 {
		status = "error"
	}

	response := CLIResponse{
		Status: status,
		Data:   summary,
	}
	if summary.Failed > 0 {
		response.Error = &CLIError{
			Code:    "E_RUN_FAILED",
			Message: fmt.Sprintf("%d scenario(s) failed", summary.Failed),
		}
	}

	encoder := json.NewEncoder(cmd.OutOrStdout())
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(response); err != nil {
		return err
	}

	if summary.Failed > 0 {
		return NewExitError(ExitFailure, fmt.Sprintf("%d scenario(s) failed", summary.Failed))
	}
	return nil
}

// outputRecordText outputs the record summary as text.
func outputRecordText(cmd *cobra.Command, database string, summary RecordSummary) error {
	w := cmd.OutOrStdout()

	fmt.Fprintln(w)
	fmt.Fprintf(w, "Recorded %d run(s) to %s", summary.Recorded, database)
	if summary.Duplicates > 0 {
		fmt.Fprintf(w, " (%d duplicate)", summary.Duplicates)
	}
	fmt.Fprintln(w)
	fmt.Fprintf(w, "Run Summary: %d passed, %d failed, %d total\n", summary.Passed, summary.Failed, summary.Total)

	if summary.Failed > 0 {
		return NewExitError(ExitFailure, fmt.Sprintf("%d scenario(s) failed", summary.Failed))
	}
	return nil
}
