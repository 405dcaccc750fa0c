package cli

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/soloist/internal/scenario"
	"github.com/roach88/soloist/internal/trace"
)

// ScenarioOutcome holds the reported result of a single scenario run.
type ScenarioOutcome struct {
	Name     string   `json:"name"`
	RunToken string   `json:"run_token,omitempty"`
	Mode     string   `json:"mode,omitempty"`
	Outcome  string   `json:"outcome,omitempty"`
	Pass     bool     `json:"pass"`
	Errors   []string `json:"errors,omitempty"`
}

// RunSummary holds the overall result of a scenario batch.
type RunSummary struct {
	Scenarios []ScenarioOutcome `json:"scenarios"`
	Passed    int               `json:"passed"`
	Failed    int               `json:"failed"`
	Total     int               `json:"total"`
}

// scenarioRun pairs a loaded scenario with the result of driving it.
// Scenarios that failed to load or to drive have no entry.
type scenarioRun struct {
	Scenario *scenario.Scenario
	Result   *scenario.Result
}

// collectScenarioFiles resolves a path argument to concrete scenario files.
// A directory is walked for .yaml/.yml files; a file is taken as is.
func collectScenarioFiles(path, filter string) ([]string, error) {
	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		return nil, NewExitError(ExitCommandError, fmt.Sprintf("scenarios path not found: %s", path))
	}
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "failed to access scenarios path", err)
	}

	if !info.IsDir() {
		return []string{path}, nil
	}

	files, err := findScenarioFiles(path, filter)
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "failed to find scenarios", err)
	}
	return files, nil
}

// findScenarioFiles finds all YAML scenario files in a directory.
func findScenarioFiles(dir string, filter string) ([]string, error) {
	var files []string

	err := filepath.Walk(dir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}

		if info.IsDir() {
			return nil
		}

		// Only process .yaml and .yml files
		ext := filepath.Ext(path)
		if ext != ".yaml" && ext != ".yml" {
			return nil
		}

		// Apply filter if specified
		if filter != "" {
			base := filepath.Base(path)
			name := strings.TrimSuffix(base, ext)
			matched, err := filepath.Match(filter, name)
			if err != nil {
				return fmt.Errorf("invalid filter pattern: %w", err)
			}
			if !matched {
				return nil
			}
		}

		files = append(files, path)
		return nil
	})

	return files, err
}

// newLogger builds the structured logger for a command invocation. Logs go
// to the command's error stream so JSON output stays parseable.
func newLogger(opts *RootOptions, cmd *cobra.Command) *slog.Logger {
	logLevel := slog.LevelWarn
	if opts.Verbose {
		logLevel = slog.LevelDebug
	}
	handler := slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{
		Level: logLevel,
	})
	return slog.New(handler)
}

// newRunner builds the scenario runner for a command invocation.
func newRunner(opts *RootOptions, cmd *cobra.Command) *scenario.Runner {
	return scenario.NewRunner(scenario.WithLogger(newLogger(opts, cmd)))
}

// driveScenarios loads and runs every scenario file, printing per-scenario
// progress in text mode. A scenario that cannot be loaded or driven counts
// as failed rather than aborting the batch.
func driveScenarios(r *scenario.Runner, files []string, opts *RootOptions, cmd *cobra.Command) (RunSummary, []scenarioRun) {
	summary := RunSummary{
		Scenarios: make([]ScenarioOutcome, 0, len(files)),
		Total:     len(files),
	}
	runs := make([]scenarioRun, 0, len(files))
	w := cmd.OutOrStdout()

	for _, file := range files {
		s, err := scenario.Load(file)
		if err != nil {
			if opts.Format != "json" {
				fmt.Fprintf(w, "✗ %s\n", filepath.Base(file))
				fmt.Fprintf(w, "  Load error: %v\n", err)
			}
			summary.add(ScenarioOutcome{
				Name:   filepath.Base(file),
				Pass:   false,
				Errors: []string{fmt.Sprintf("failed to load scenario: %v", err)},
			})
			continue
		}

		res, err := r.Run(s)
		if err != nil {
			if opts.Format != "json" {
				fmt.Fprintf(w, "✗ %s\n", s.Name)
				fmt.Fprintf(w, "  Execution error: %v\n", err)
			}
			summary.add(ScenarioOutcome{
				Name:   s.Name,
				Mode:   s.Mode,
				Pass:   false,
				Errors: []string{fmt.Sprintf("execution failed: %v", err)},
			})
			continue
		}

		runs = append(runs, scenarioRun{Scenario: s, Result: res})
		if opts.Format != "json" {
			printScenarioResult(w, res, opts.Verbose)
		}
		summary.add(ScenarioOutcome{
			Name:     s.Name,
			RunToken: res.RunToken,
			Mode:     s.Mode,
			Outcome:  res.Outcome,
			Pass:     res.Pass,
			Errors:   res.Errors,
		})
	}

	return summary, runs
}

func (s *RunSummary) add(o ScenarioOutcome) {
	s.Scenarios = append(s.Scenarios, o)
	if o.Pass {
		s.Passed++
	} else {
		s.Failed++
	}
}

// printScenarioResult renders one result for text output.
func printScenarioResult(w io.Writer, res *scenario.Result, verbose bool) {
	if res.Pass {
		fmt.Fprintf(w, "✓ %s\n", res.Scenario)
	} else {
		fmt.Fprintf(w, "✗ %s\n", res.Scenario)
		for _, e := range res.Errors {
			fmt.Fprintf(w, "  %s\n", e)
		}
	}

	if verbose {
		fmt.Fprintf(w, "  run: %s\n", res.RunToken)
		printTrace(w, res.Trace)
	}
}

// printTrace renders the recorded pump events, one per line.
func printTrace(w io.Writer, events []trace.Event) {
	for _, event := range events {
		if event.Note != "" {
			fmt.Fprintf(w, "  [%d] %s g%d (%s)\n", event.Seq, event.Kind, event.Goroutine, event.Note)
			continue
		}
		fmt.Fprintf(w, "  [%d] %s g%d\n", event.Seq, event.Kind, event.Goroutine)
	}
}
