package trace

// NormalizeGoroutines rewrites raw goroutine IDs as small stable numbers
// assigned in order of first appearance: the first goroutine seen becomes
// 1, the next distinct one 2, and so on.
//
// Raw IDs depend on how many goroutines the process has ever started, so
// two runs of the same scenario produce different raw traces. After
// normalization, equivalent executions produce byte-identical canonical
// JSON, which is what golden files and stored digests compare.
func NormalizeGoroutines(events []Event) []Event {
	assigned := make(map[uint64]uint64)
	out := make([]Event, len(events))
	for i, e := range events {
		id, ok := assigned[e.Goroutine]
		if !ok {
			id = uint64(len(assigned) + 1)
			assigned[e.Goroutine] = id
		}
		e.Goroutine = id
		out[i] = e
	}
	return out
}
