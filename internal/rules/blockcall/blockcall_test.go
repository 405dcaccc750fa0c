package blockcall_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"golang.org/x/tools/go/analysis/analysistest"

	"github.com/roach88/soloist/internal/rules/blockcall"
	"github.com/roach88/soloist/internal/rulespec"
)

func TestAnalyzer_DefaultPack(t *testing.T) {
	analysistest.Run(t, analysistest.TestData(), blockcall.Analyzer, "a")
}

func TestNew_CustomPack(t *testing.T) {
	pack := &rulespec.Pack{
		Name: "custom",
		Block: []rulespec.Rule{
			{Pkg: "time", Func: "Sleep", Advice: "no sleeping"},
		},
	}

	a := blockcall.New(pack)
	assert.Equal(t, "blockcall", a.Name)
	assert.NotEmpty(t, a.Doc)
	assert.Len(t, a.Requires, 1)
}
