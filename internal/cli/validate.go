package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/soloist/internal/scenario"
)

// ValidationIssue names one file that failed to parse or validate.
type ValidationIssue struct {
	File    string `json:"file"`
	Message string `json:"message"`
}

// ValidationResult holds validation results.
type ValidationResult struct {
	Valid  bool              `json:"valid"`
	Files  int               `json:"files"`
	Issues []ValidationIssue `json:"issues,omitempty"`
}

// NewValidateCommand creates the validate command.
func NewValidateCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate <scenarios-path>",
		Short: "Validate scenario files without running them",
		Long: `Validate YAML scenario files without driving any workload.

Checks strict field decoding, required fields, mode constraints and the
expect/assertion clauses. Also verifies that each scenario names a
registered workload. Faster than run for development feedback.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true, // Don't print usage on errors
		SilenceErrors: true, // Don't print errors - we handle our own error output
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(rootOpts, args[0], cmd)
		},
	}

	return cmd
}

func runValidate(opts *RootOptions, path string, cmd *cobra.Command) error {
	formatter := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(), // Verbose logs go to stderr to avoid corrupting JSON
		Verbose:   opts.Verbose,
	}

	files, err := collectScenarioFiles(path, "")
	if err != nil {
		return err
	}
	if len(files) == 0 {
		_ = formatter.Error("E003", fmt.Sprintf("no scenario files found in %s", path), nil)
		return NewExitError(ExitCommandError, fmt.Sprintf("no scenario files found in %s", path))
	}

	formatter.VerboseLog("Found %d scenario file(s) in %s", len(files), path)

	var issues []ValidationIssue
	for _, file := range files {
		formatter.VerboseLog("Validating: %s", file)

		s, err := scenario.Load(file)
		if err != nil {
			issues = append(issues, ValidationIssue{File: file, Message: err.Error()})
			continue
		}
		if _, ok := scenario.Lookup(s.Workload); !ok {
			issues = append(issues, ValidationIssue{
				File:    file,
				Message: fmt.Sprintf("unknown workload %q (registered: %v)", s.Workload, scenario.Names()),
			})
		}
	}

	result := ValidationResult{
		Valid:  len(issues) == 0,
		Files:  len(files),
		Issues: issues,
	}

	if len(issues) > 0 {
		return outputValidationIssues(formatter, result)
	}
	return outputValidateSuccess(formatter, result)
}

// outputValidateSuccess outputs successful validation results.
func outputValidateSuccess(formatter *OutputFormatter, result ValidationResult) error {
	if formatter.Format == "json" {
		return formatter.Success(result)
	}

	fmt.Fprintf(formatter.Writer, "✓ All %d scenario(s) valid\n", result.Files)
	return nil
}

// outputValidationIssues outputs the files that failed validation.
func outputValidationIssues(formatter *OutputFormatter, result ValidationResult) error {
	if formatter.Format == "json" {
		response := CLIResponse{
			Status: "error",
			Data:   result,
			Error: &CLIError{
				Code:    "E_INVALID_SCENARIO",
				Message: result.Issues[0].Message,
			},
		}

		encoder := json.NewEncoder(formatter.Writer)
		encoder.SetIndent("", "  ")
		if err := encoder.Encode(response); err != nil {
			return err
		}

		// Invalid scenarios = exit code 1 (validation failure)
		return NewExitError(ExitFailure, fmt.Sprintf("validation failed with %d issue(s)", len(result.Issues)))
	}

	// Text format
	fmt.Fprintln(formatter.Writer, "✗ Validation failed")
	fmt.Fprintln(formatter.Writer)

	for _, issue := range result.Issues {
		fmt.Fprintf(formatter.Writer, "%s\n", issue.File)
		fmt.Fprintf(formatter.Writer, "  %s\n\n", issue.Message)
	}

	// Invalid scenarios = exit code 1 (validation failure)
	return NewExitError(ExitFailure, fmt.Sprintf("validation failed with %d issue(s)", len(result.Issues)))
}
