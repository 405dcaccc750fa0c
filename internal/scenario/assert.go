package scenario

import (
	"fmt"
	"strings"

	"github.com/roach88/soloist/internal/trace"
)

// AssertionError is returned when a trace assertion fails.
// It includes the full trace so the failure can be debugged from the
// message alone.
type AssertionError struct {
	Type     string        // Assertion type for categorization
	Expected string        // Human-readable expected outcome
	Actual   string        // Human-readable actual outcome
	Trace    []trace.Event // Full trace for debugging context
}

// Error implements the error interface.
func (e *AssertionError) Error() string {
	var buf strings.Builder

	fmt.Fprintf(&buf, "Assertion failed: %s\n", e.Type)
	fmt.Fprintf(&buf, "  Expected: %s\n", e.Expected)
	fmt.Fprintf(&buf, "  Actual: %s\n", e.Actual)

	fmt.Fprintf(&buf, "\nFull trace:\n")
	for _, event := range e.Trace {
		if event.Note != "" {
			fmt.Fprintf(&buf, "  [%d] %s g%d (%s)\n", event.Seq, event.Kind, event.Goroutine, event.Note)
			continue
		}
		fmt.Fprintf(&buf, "  [%d] %s g%d\n", event.Seq, event.Kind, event.Goroutine)
	}

	return buf.String()
}

// assertTraceContains checks that the trace holds at least one event of the
// asserted kind, optionally restricted to events carrying the given note.
func assertTraceContains(events []trace.Event, assertion Assertion) error {
	for _, event := range events {
		if event.Kind != assertion.Kind {
			continue
		}
		if assertion.Note == "" || event.Note == assertion.Note {
			return nil
		}
	}

	expected := fmt.Sprintf("event of kind %q", assertion.Kind)
	if assertion.Note != "" {
		expected = fmt.Sprintf("event of kind %q with note %q", assertion.Kind, assertion.Note)
	}
	return &AssertionError{
		Type:     AssertTraceContains,
		Expected: expected,
		Actual:   "not found in trace",
		Trace:    events,
	}
}

// assertTraceOrder checks that the first occurrences of the asserted kinds
// appear in the given order. Intervening events are allowed.
func assertTraceOrder(events []trace.Event, assertion Assertion) error {
	// Step 1: find the first position of each expected kind
	positions := make(map[string]int)
	for i, event := range events {
		for _, expectedKind := range assertion.Kinds {
			if event.Kind == expectedKind && positions[expectedKind] == 0 {
				positions[expectedKind] = i + 1 // 1-indexed for readability
			}
		}
	}

	// Step 2: verify all kinds found
	for _, kind := range assertion.Kinds {
		if positions[kind] == 0 {
			return &AssertionError{
				Type:     AssertTraceOrder,
				Expected: fmt.Sprintf("all kinds present: %v", assertion.Kinds),
				Actual:   fmt.Sprintf("missing kind: %s", kind),
				Trace:    events,
			}
		}
	}

	// Step 3: verify order
	for i := 1; i < len(assertion.Kinds); i++ {
		prev := assertion.Kinds[i-1]
		curr := assertion.Kinds[i]

		if positions[prev] >= positions[curr] {
			return &AssertionError{
				Type:     AssertTraceOrder,
				Expected: fmt.Sprintf("kinds in order: %v", assertion.Kinds),
				Actual: fmt.Sprintf("%s (pos %d) should be before %s (pos %d)",
					prev, positions[prev], curr, positions[curr]),
				Trace: events,
			}
		}
	}

	return nil
}

// assertTraceCount checks that exactly Count events of the asserted kind
// were recorded.
func assertTraceCount(events []trace.Event, assertion Assertion) error {
	count := 0
	for _, event := range events {
		if event.Kind == assertion.Kind {
			count++
		}
	}

	if count != assertion.Count {
		return &AssertionError{
			Type:     AssertTraceCount,
			Expected: fmt.Sprintf("%d occurrences of %s", assertion.Count, assertion.Kind),
			Actual:   fmt.Sprintf("%d occurrences", count),
			Trace:    events,
		}
	}

	return nil
}

// EvaluateAssertions evaluates all assertions against the recorded trace.
// Returns a slice of error messages for failed assertions.
func EvaluateAssertions(events []trace.Event, assertions []Assertion) []string {
	var errs []string

	for i, assertion := range assertions {
		var err error

		switch assertion.Type {
		case AssertTraceContains:
			err = assertTraceContains(events, assertion)
		case AssertTraceOrder:
			err = assertTraceOrder(events, assertion)
		case AssertTraceCount:
			err = assertTraceCount(events, assertion)
		default:
			err = fmt.Errorf("assertion[%d]: unknown assertion type %q", i, assertion.Type)
		}

		if err != nil {
			errs = append(errs, err.Error())
		}
	}

	return errs
}
