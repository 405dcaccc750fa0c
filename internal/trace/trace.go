// Package trace records pump lifecycle events with logical timestamps and
// renders them canonically for assertions, golden files, and digests.
package trace

import (
	"sync"
)

// Event is one recorded pump lifecycle occurrence.
type Event struct {
	// Seq is the logical timestamp, unique and increasing per recorder.
	Seq int64 `json:"seq"`

	// Kind is the event kind (post, execute, frame_push, ...).
	Kind string `json:"kind"`

	// Goroutine is the ID of the goroutine that produced the event.
	// Raw IDs vary run to run; normalize before comparing or snapshotting.
	Goroutine uint64 `json:"goroutine"`

	// Note carries optional context, empty for most events.
	Note string `json:"note,omitempty"`
}

// Recorder collects events from a pump. It implements the pump's TraceSink
// interface and is safe for concurrent use: posts are recorded from
// arbitrary goroutines while the owner records executions.
type Recorder struct {
	mu     sync.Mutex
	clock  *Clock
	events []Event
}

// NewRecorder creates an empty recorder with a fresh clock.
func NewRecorder() *Recorder {
	return &Recorder{clock: NewClock()}
}

// Record appends an event stamped with the next logical timestamp.
// Stamping happens under the same lock as the append so the slice is always
// in seq order.
func (r *Recorder) Record(kind string, goroutine uint64, note string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, Event{
		Seq:       r.clock.Next(),
		Kind:      kind,
		Goroutine: goroutine,
		Note:      note,
	})
}

// Snapshot returns a copy of the recorded events in seq order.
func (r *Recorder) Snapshot() []Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Event, len(r.events))
	copy(out, r.events)
	return out
}

// Len returns the number of recorded events.
func (r *Recorder) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.events)
}

// CountKind returns how many recorded events have the given kind.
func (r *Recorder) CountKind(kind string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, e := range r.events {
		if e.Kind == kind {
			n++
		}
	}
	return n
}

// Kinds returns the recorded event kinds in seq order.
func (r *Recorder) Kinds() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, len(r.events))
	for i, e := range r.events {
		out[i] = e.Kind
	}
	return out
}
