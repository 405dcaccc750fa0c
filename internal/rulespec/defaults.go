package rulespec

import (
	_ "embed"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
)

//go:embed defaults.cue
var defaultsCUE []byte

// DefaultPack compiles the rule pack embedded in the binary.
// The embedded source is fixed at build time, so failure here is a bug.
func DefaultPack() (*Pack, error) {
	ctx := cuecontext.New()
	v := ctx.CompileBytes(defaultsCUE, cue.Filename("defaults.cue"))
	if err := v.Err(); err != nil {
		return nil, formatCUEError(err)
	}
	return CompilePack(v.LookupPath(cue.ParsePath("pack")))
}
