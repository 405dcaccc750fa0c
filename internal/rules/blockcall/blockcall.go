// Package blockcall reports calls that block the thread they run on.
//
// Code that executes on a pumped worker must never park its goroutine:
// a blocked worker stops draining the queue and every posted callback
// behind it stalls. The analyzer walks call expressions, resolves the
// static callee, and flags any target named by a block rule along with
// the rule's advice for rewriting the call.
package blockcall

import (
	"go/ast"

	"golang.org/x/tools/go/analysis"
	"golang.org/x/tools/go/analysis/passes/inspect"
	"golang.org/x/tools/go/ast/inspector"
	"golang.org/x/tools/go/types/typeutil"

	"github.com/roach88/soloist/internal/rules"
	"github.com/roach88/soloist/internal/rulespec"
)

// Analyzer flags blocking calls using the embedded default rule pack.
var Analyzer = New(defaultPack())

// New builds an analyzer that enforces the pack's block rules.
func New(pack *rulespec.Pack) *analysis.Analyzer {
	matcher := rules.NewMatcher(pack.Block)
	return &analysis.Analyzer{
		Name:     "blockcall",
		Doc:      "report calls that would block a pumped worker thread",
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
				pass.Reportf(call.Pos(), "call to %s blocks the worker thread: %s", rule.Target(), rule.Advice)
			})
			return nil, nil
		},
	}
}

func defaultPack() *rulespec.Pack {
	pack, err := rulespec.DefaultPack()
	if err != nil {
		panic("blockcall: compiling default rule pack: " + err.Error())
	}
	return pack
}
