// Package rulespec compiles analyzer rule packs written in CUE.
//
// A pack names the calls the analyzers flag:
//
//	pack: {
//		name: "default"
//		block: [{pkg: "time", func: "Sleep", advice: "..."}]
//		handoff: [{pkg: "time", func: "AfterFunc", advice: "..."}]
//	}
//
// Block rules mark calls that stall a pump owner thread. Handoff rules mark
// calls whose callback runs on a foreign goroutine and has to post back.
package rulespec

import (
	"fmt"
	"strings"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/errors"
	"cuelang.org/go/cue/token"
)

// Rule names one flagged call.
type Rule struct {
	// Pkg is the import path of the package that owns the call.
	Pkg string

	// Recv is the receiver type for methods (e.g. "*WaitGroup").
	// Empty for package-level functions.
	Recv string

	// Func is the function or method name.
	Func string

	// Advice is the fix-it text reported alongside the diagnostic.
	Advice string
}

// Target renders the rule's call the way diagnostics print it, e.g.
// "time.Sleep" or "(*sync.WaitGroup).Wait".
func (r *Rule) Target() string {
	if r.Recv == "" {
		return r.Pkg + "." + r.Func
	}
	if strings.HasPrefix(r.Recv, "*") {
		return fmt.Sprintf("(*%s.%s).%s", r.Pkg, r.Recv[1:], r.Func)
	}
	return fmt.Sprintf("(%s.%s).%s", r.Pkg, r.Recv, r.Func)
}

// Pack is a compiled rule pack.
type Pack struct {
	Name    string
	Block   []Rule
	Handoff []Rule
}

// CompilePack parses a CUE value into a Pack.
// Uses CUE SDK's Go API directly (not CLI subprocess).
//
// The CUE value should be the pack struct itself, e.g.:
//
//	ctx := cuecontext.New()
//	v := ctx.CompileString(`pack: { name: "mine", ... }`)
//	pack, err := CompilePack(v.LookupPath(cue.ParsePath("pack")))
func CompilePack(v cue.Value) (*Pack, error) {
	if err := v.Err(); err != nil {
		return nil, formatCUEError(err)
	}

	pack := &Pack{}

	// Parse name (required)
	nameVal := v.LookupPath(cue.ParsePath("name"))
	if !nameVal.Exists() {
		return nil, &CompileError{
			Field:   "name",
			Message: "pack name is required",
			Pos:     v.Pos(),
		}
	}
	name, err := nameVal.String()
	if err != nil {
		return nil, formatCUEError(err)
	}
	pack.Name = name

	// Parse rule lists (each optional, at least one rule overall)
	pack.Block, err = compileRules(v, "block")
	if err != nil {
		return nil, err
	}
	pack.Handoff, err = compileRules(v, "handoff")
	if err != nil {
		return nil, err
	}

	if len(pack.Block) == 0 && len(pack.Handoff) == 0 {
		return nil, &CompileError{
			Field:   "rules",
			Message: "at least one block or handoff rule is required",
			Pos:     v.Pos(),
		}
	}

	return pack, nil
}

// compileRules extracts one of the pack's rule lists.
func compileRules(v cue.Value, list string) ([]Rule, error) {
	listVal := v.LookupPath(cue.ParsePath(list))
	if !listVal.Exists() {
		return nil, nil
	}

	iter, err := listVal.List()
	if err != nil {
		return nil, formatCUEError(err)
	}

	var rules []Rule
	for i := 0; iter.Next(); i++ {
		rule, err := compileRule(iter.Value(), fmt.Sprintf("%s[%d]", list, i))
		if err != nil {
			return nil, err
		}
		rules = append(rules, rule)
	}

	return rules, nil
}

// compileRule parses a single rule. pkg, func and advice are required;
// recv is optional.
func compileRule(v cue.Value, field string) (Rule, error) {
	var rule Rule

	for _, req := range []struct {
		name string
		dst  *string
	}{
		{"pkg", &rule.Pkg},
		{"func", &rule.Func},
		{"advice", &rule.Advice},
	} {
		val := v.LookupPath(cue.ParsePath(req.name))
		if !val.Exists() {
			return rule, &CompileError{
				Field:   field + "." + req.name,
				Message: req.name + " is required",
				Pos:     v.Pos(),
			}
		}
		s, err := val.String()
		if err != nil {
			return rule, formatCUEError(err)
		}
		*req.dst = s
	}

	recvVal := v.LookupPath(cue.ParsePath("recv"))
	if recvVal.Exists() {
		recv, err := recvVal.String()
		if err != nil {
			return rule, formatCUEError(err)
		}
		rule.Recv = recv
	}

	return rule, nil
}

// CompileError represents a compilation error with source position.
type CompileError struct {
	Field   string
	Message string
	Pos     token.Pos
}

func (e *CompileError) Error() string {
	if e.Pos.IsValid() {
		return fmt.Sprintf("%s:%d:%d: %s: %s",
			e.Pos.Filename(), e.Pos.Line(), e.Pos.Column(),
			e.Field, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// formatCUEError extracts position info from CUE errors.
func formatCUEError(err error) error {
	if err == nil {
		return nil
	}

	// CUE errors may contain multiple errors
	errs := errors.Errors(err)
	if len(errs) == 0 {
		return err
	}

	// Return first error with position info
	firstErr := errs[0]
	positions := errors.Positions(firstErr)
	if len(positions) > 0 {
		return &CompileError{
			Field:   "cue",
			Message: firstErr.Error(),
			Pos:     positions[0],
		}
	}

	return err
}
