package cli

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/soloist/internal/store"
)

// CompareOptions holds flags for the compare command.
type CompareOptions struct {
	*RootOptions
	Database string
	Filter   string
}

// ComparisonOutcome reports one scenario held against its baseline.
type ComparisonOutcome struct {
	Scenario      string   `json:"scenario"`
	CurrentToken  string   `json:"current_token"`
	BaselineToken string   `json:"baseline_token,omitempty"`
	HasBaseline   bool     `json:"has_baseline"`
	Regressed     bool     `json:"regressed"`
	Regressions   []string `json:"regressions,omitempty"`
}

// CompareSummary holds the whole comparison batch.
type CompareSummary struct {
	Scenarios  []ComparisonOutcome `json:"scenarios"`
	Compared   int                 `json:"compared"`
	Regressed  int                 `json:"regressed"`
	NoBaseline int                 `json:"no_baseline"`
}

// NewCompareCommand creates the compare command.
func NewCompareCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &CompareOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "compare <scenarios-path>",
		Short: "Run scenarios and diff against recorded baselines",
		Long: `Run YAML scenario files and hold each result against its baseline.

The baseline is the scenario's most recent recorded passing run. Drift
is an outcome flip, a changed trace digest, or grown allocation figures.
Scenarios with no baseline yet are reported but do not fail the batch;
record one first.

Nothing is written; use record to refresh baselines.

Exit codes:
  0 - No drift against any baseline
  1 - Drift detected (or a scenario failed outright)
  2 - Command error (invalid paths, database errors, etc.)

Examples:
  soloist compare --db ./runs.db ./scenarios
  soloist compare --db ./runs.db ./scenarios --filter "repost-*" --format json`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCompare(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "path to SQLite run log (required)")
	_ = cmd.MarkFlagRequired("db")
	cmd.Flags().StringVar(&opts.Filter, "filter", "", "filter scenarios by glob pattern")

	return cmd
}

func runCompare(opts *CompareOptions, path string, cmd *cobra.Command) error {
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

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	summary := CompareSummary{Scenarios: make([]ComparisonOutcome, 0, len(runs))}
	w := cmd.OutOrStdout()

	for _, run := range runs {
		current := storedRun(run)
		cmp, err := st.CompareAgainstBaseline(ctx, current)
		if errors.Is(err, sql.ErrNoRows) {
			summary.NoBaseline++
			summary.Scenarios = append(summary.Scenarios, ComparisonOutcome{
				Scenario:     current.Scenario,
				CurrentToken: current.Token,
				HasBaseline:  false,
			})
			if opts.Format != "json" {
				fmt.Fprintf(w, "- %s: no baseline recorded\n", current.Scenario)
			}
			continue
		}
		if err != nil {
			return WrapExitError(ExitCommandError,
				fmt.Sprintf("failed to compare %q", current.Scenario), err)
		}

		summary.Compared++
		outcome := ComparisonOutcome{
			Scenario:      cmp.Scenario,
			CurrentToken:  cmp.CurrentToken,
			BaselineToken: cmp.BaselineToken,
			HasBaseline:   true,
			Regressed:     cmp.Regressed(),
			Regressions:   cmp.Regressions,
		}
		summary.Scenarios = append(summary.Scenarios, outcome)

		if outcome.Regressed {
			summary.Regressed++
			if opts.Format != "json" {
				fmt.Fprintf(w, "✗ %s drifted from baseline %s\n", cmp.Scenario, cmp.BaselineToken)
				for _, finding := range cmp.Regressions {
					fmt.Fprintf(w, "  %s\n", finding)
				}
			}
		} else if opts.Format != "json" {
			fmt.Fprintf(w, "✓ %s matches baseline %s\n", cmp.Scenario, cmp.BaselineToken)
		}
	}

	failure := ""
	if summary.Regressed > 0 {
		failure = fmt.Sprintf("%d scenario(s) drifted", summary.Regressed)
	} else if batch.Failed > 0 {
		failure = fmt.Sprintf("%d scenario(s) failed", batch.Failed)
	}

	if opts.Format == "json" {
		return outputCompareJSON(cmd, summary, failure)
	}
	return outputCompareText(cmd, summary, failure)
}

// outputCompareJSON outputs the comparison summary as JSON. A non-empty
// failure message marks the batch as failed.
func outputCompareJSON(cmd *cobra.Command, summary CompareSummary, failure string) error {
	status := "ok"
	if failure != "" {
		status = "error"
	}

	response := CLIResponse{
		Status: status,
		Data:   summary,
	}
	if failure != "" {
		response.Error = &CLIError{
			Code:    "E_BASELINE_DRIFT",
			Message: failure,
		}
	}

	encoder := json.NewEncoder(cmd.OutOrStdout())
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(response); err != nil {
		return err
	}

	if failure != "" {
		return NewExitError(ExitFailure, failure)
	}
	return nil
}

// outputCompareText outputs the comparison summary as text.
func outputCompareText(cmd *cobra.Command, summary CompareSummary, failure string) error {
	w := cmd.OutOrStdout()

	fmt.Fprintln(w)
	fmt.Fprintf(w, "Compare Summary: %d compared, %d drifted, %d without baseline\n",
		summary.Compared, summary.Regressed, summary.NoBaseline)

	if failure != "" {
		return NewExitError(ExitFailure, failure)
	}

	fmt.Fprintln(w, "✓ No drift")
	return nil
}
