// Package handoff reports callback registrations that fire off the
// owning thread.
//
// APIs like time.AfterFunc invoke their callback on a goroutine of
// their own, so state owned by a pumped worker must not be touched
// there directly. The analyzer flags each registration named by a
// handoff rule so the callback can be rewritten as a post back to
// the pump.
package handoff

import (
	"go/ast"

	"golang.org/x/tools/go/analysis"
	"golang.org/x/tools/go/analysis/passes/inspect"
	"golang.org/x/tools/go/ast/inspector"
	"golang.org/x/tools/go/types/typeutil"

	"github.com/roach88/soloist/internal/rules"
	"github.com/roach88/soloist/internal/rulespec"
)

// Analyzer flags foreign-goroutine callbacks using the embedded default rule pack.
var Analyzer = New(defaultPack())

// New builds an analyzer that enforces the pack's handoff rules.
func New(pack *rulespec.Pack) *analysis.Analyzer {
	matcher := rules.NewMatcher(pack.Handoff)
	return &analysis.Analyzer{
		Name:     "handoff",
		Doc:      "report callbacks that run on a goroutine other than the pumped worker",
		Requires: []*analysis.Analyzer{inspect.Analyzer},
		Run: func(pass *analysis.Pass) (interface{}, error) {
			insp := pass.ResultOf[inspect.Analyzer].(*inspector.Inspector)

			nodeFilter := []ast.Node{
				(*ast.CallExpr)(nil),
			}
			insp.Preorder(nodeFilter, func(n ast.Node) {
				call := n.(*ast.CallExpr)
				fn := typeutil.StaticCallee(pass.TypesInfo, call)
				rule, ok := matcher.Match(fn)
				if !ok {
					return
				}
				pass.Reportf(call.Pos(), "callback of %s runs off the worker thread: %s", rule.Target(), rule.Advice)
			})
			return nil, nil
		},
	}
}

func defaultPack() *rulespec.Pack {
	pack, err := rulespec.DefaultPack()
	if err != nil {
		panic("handoff: compiling default rule pack: " + err.Error())
	}
	return pack
}
