// Command soloistvet runs the pump-affinity analyzers over Go packages.
//
// It is a standard multichecker: point it at packages the way go vet is
// pointed at them.
//
//	soloistvet ./...
//
// blockcall flags calls that would park a pumped worker thread; handoff
// flags callback registrations that fire on a foreign goroutine. Both
// enforce the embedded default rule pack.
package main

import (
	"golang.org/x/tools/go/analysis/multichecker"

	"github.com/roach88/soloist/internal/rules/blockcall"
	"github.com/roach88/soloist/internal/rules/handoff"
)

func main() {
	multichecker.Main(
		blockcall.Analyzer,
		handoff.Analyzer,
	)
}
