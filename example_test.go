package soloist_test

import (
	"fmt"
	"log"

	"github.com/roach88/soloist"
)

// ExampleRunToCompletion drives a workload that finishes through a posted
// callback. The worker pumps until the completion settles, so waiting never
// deadlocks against the callbacks that need the same goroutine.
func ExampleRunToCompletion() {
	err := soloist.RunToCompletion(func(p *soloist.Pump) *soloist.Completion {
		done := soloist.NewCompletion(soloist.Inline)
		p.Post(func() {
			fmt.Println("ran on the worker")
			done.Complete()
		})
		return done
	})
	fmt.Println("err:", err)
	// Output:
	// ran on the worker
	// err: <nil>
}

// ExampleAssertNotInlined checks that a detached completion defers its
// continuation instead of running it on the completing call's stack.
func ExampleAssertNotInlined() {
	done := soloist.NewCompletion(soloist.Detached)
	err := soloist.AssertNotInlined(done, func() { done.Complete() })
	fmt.Println("deferred:", err == nil)
	// Output:
	// deferred: true
}

// ExampleMeasure holds a workload to an allocation budget of zero bytes per
// iteration.
func ExampleMeasure() {
	report, err := soloist.Measure(func() {}, 0, soloist.WithIterations(10))
	if err != nil {
		log.Fatal(err)
	}
	fmt.Println("passed:", report.Passed)
	// Output:
	// passed: true
}
