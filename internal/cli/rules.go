package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/soloist/internal/rulespec"
)

// RuleView is one compiled rule as reported by the rules command.
type RuleView struct {
	Target string `json:"target"`
	Advice string `json:"advice"`
}

// PackView is one compiled rule pack.
type PackView struct {
	Name    string     `json:"name"`
	Block   []RuleView `json:"block,omitempty"`
	Handoff []RuleView `json:"handoff,omitempty"`
}

// RulesResult holds every pack the rules command compiled.
type RulesResult struct {
	Packs []PackView `json:"packs"`
	Files int        `json:"files,omitempty"`
}

// NewRulesCommand creates the rules command.
func NewRulesCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "rules [rules-dir]",
		Short: "Compile and list rule packs",
		Long: `Compile CUE rule packs and list their rules.

With a directory argument, every .cue file in it compiles on its own
and all problems are reported. Without one, the embedded default pack
is listed: the rules the soloistvet analyzers enforce out of the box.

Exit codes:
  0 - All packs compiled
  1 - One or more packs failed to compile
  2 - Command error (directory not found, no CUE files, etc.)

Examples:
  soloist rules
  soloist rules ./rulepacks
  soloist rules ./rulepacks --format json`,
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			dir := ""
			if len(args) == 1 {
				dir = args[0]
			}
			return runRules(rootOpts, dir, cmd)
		},
	}

	return cmd
}

func runRules(opts *RootOptions, dir string, cmd *cobra.Command) error {
	formatter := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}

	if dir == "" {
		pack, err := rulespec.DefaultPack()
		if err != nil {
			return WrapExitError(ExitCommandError, "failed to compile embedded default pack", err)
		}
		return outputRules(formatter, RulesResult{Packs: []PackView{packView(*pack)}})
	}

	result, errs := rulespec.LoadDir(dir, rulespec.LoadModeCollectAll)
	if result == nil {
		// Nothing loadable at all: bad path, scan failure, no files
		_ = formatter.Error(loadErrorCode(errs[0]), errs[0].Error(), nil)
		return WrapExitError(ExitCommandError, "failed to load rule packs", errs[0])
	}

	formatter.VerboseLog("Compiled %d CUE file(s) in %s", result.FileCount, dir)

	if len(errs) > 0 {
		messages := make([]string, 0, len(errs))
		for _, err := range errs {
			messages = append(messages, err.Error())
		}

		if formatter.Format == "json" {
			_ = formatter.Error(loadErrorCode(errs[0]), errs[0].Error(), messages)
		} else {
			fmt.Fprintln(formatter.Writer, "✗ Rule pack compilation failed")
			fmt.Fprintln(formatter.Writer)
			for _, msg := range messages {
				fmt.Fprintf(formatter.Writer, "  %s\n", msg)
			}
		}
		return NewExitError(ExitFailure, fmt.Sprintf("rule pack compilation failed with %d error(s)", len(errs)))
	}

	view := RulesResult{Files: result.FileCount}
	for _, pack := range result.Packs {
		view.Packs = append(view.Packs, packView(pack))
	}
	return outputRules(formatter, view)
}

// loadErrorCode extracts the rulespec error code, E001 when absent.
func loadErrorCode(err error) string {
	if le, ok := err.(*rulespec.LoadError); ok {
		return le.Code
	}
	return rulespec.ErrCodeGeneric
}

// packView converts a compiled pack to its reported form.
func packView(pack rulespec.Pack) PackView {
	view := PackView{Name: pack.Name}
	for _, r := range pack.Block {
		view.Block = append(view.Block, RuleView{Target: r.Target(), Advice: r.Advice})
	}
	for _, r := range pack.Handoff {
		view.Handoff = append(view.Handoff, RuleView{Target: r.Target(), Advice: r.Advice})
	}
	return view
}

// outputRules renders the compiled packs.
func outputRules(formatter *OutputFormatter, result RulesResult) error {
	if formatter.Format == "json" {
		return formatter.Success(result)
	}

	w := formatter.Writer
	for i, pack := range result.Packs {
		if i > 0 {
			fmt.Fprintln(w)
		}
		fmt.Fprintf(w, "Pack: %s (%d block rule(s), %d handoff rule(s))\n", pack.Name, len(pack.Block), len(pack.Handoff))

		if len(pack.Block) > 0 {
			fmt.Fprintln(w)
			fmt.Fprintln(w, "Block:")
			printRules(formatter, pack.Block)
		}
		if len(pack.Handoff) > 0 {
			fmt.Fprintln(w)
			fmt.Fprintln(w, "Handoff:")
			printRules(formatter, pack.Handoff)
		}
	}
	return nil
}

// printRules lists rule targets, with advice in verbose mode.
func printRules(formatter *OutputFormatter, rules []RuleView) {
	for _, r := range rules {
		fmt.Fprintf(formatter.Writer, "  %s\n", r.Target)
		if formatter.Verbose {
			fmt.Fprintf(formatter.Writer, "    advice: %s\n", r.Advice)
		}
	}
}
