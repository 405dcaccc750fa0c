package inlining

import (
	"testing"

	"go.uber.org/goleak"
)

// Detached continuations run on short-lived goroutines; every test waits
// for its verdict, so nothing should outlive the run.
func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}
