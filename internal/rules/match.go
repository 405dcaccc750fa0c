// Package rules matches resolved call targets against compiled rule packs.
//
// The blockcall and handoff analyzers share the matcher; each feeds it one
// of the pack's rule lists.
package rules

import (
	"go/types"

	"github.com/roach88/soloist/internal/rulespec"
)

// Matcher answers whether a resolved callee is named by a rule.
type Matcher struct {
	rules map[string]rulespec.Rule
}

// NewMatcher indexes rules by their call target.
func NewMatcher(rules []rulespec.Rule) *Matcher {
	m := &Matcher{rules: make(map[string]rulespec.Rule, len(rules))}
	for _, r := range rules {
		m.rules[r.Pkg+"|"+r.Recv+"|"+r.Func] = r
	}
	return m
}

// Match looks up the rule naming fn. A nil fn or a builtin (no package)
// never matches.
func (m *Matcher) Match(fn *types.Func) (rulespec.Rule, bool) {
	if fn == nil || fn.Pkg() == nil {
		return rulespec.Rule{}, false
	}

	sig, ok := fn.Type().(*types.Signature)
	if !ok {
		return rulespec.Rule{}, false
	}

	key := fn.Pkg().Path() + "|" + receiverString(sig) + "|" + fn.Name()
	rule, ok := m.rules[key]
	return rule, ok
}

// receiverString renders a method receiver the way rules spell it,
// without the package prefix: "*WaitGroup", "Conn".
func receiverString(sig *types.Signature) string {
	recv := sig.Recv()
	if recv == nil {
		return ""
	}
	return types.TypeString(recv.Type(), func(*types.Package) string { return "" })
}
