package apartment

import (
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// recordingSink collects trace kinds for assertions. Safe for concurrent use.
type recordingSink struct {
	mu    sync.Mutex
	kinds []string
}

func (s *recordingSink) Record(kind string, goroutine uint64, note string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.kinds = append(s.kinds, kind)
}

func (s *recordingSink) count(kind string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, k := range s.kinds {
		if k == kind {
			n++
		}
	}
	return n
}

func TestPump_ExecutesInPostOrder(t *testing.T) {
	p := NewPump(WithLogger(quietLogger()))
	f := p.NewFrame()

	var order []int
	for i := 1; i <= 5; i++ {
		i := i
		p.Post(func() {
			order = append(order, i)
			if i == 5 {
				f.Stop()
			}
		})
	}

	require.NoError(t, p.Push(f))
	assert.Equal(t, []int{1, 2, 3, 4, 5}, order)
}

func TestPump_Push_NotOwner(t *testing.T) {
	p := NewPump(WithLogger(quietLogger()))
	f := p.NewFrame()

	errC := make(chan error, 1)
	go func() {
		errC <- p.Push(f)
	}()

	select {
	case err := <-errC:
		require.Error(t, err)
		assert.True(t, IsNotOwnerError(err), "push from a foreign goroutine should fail: %v", err)
	case <-time.After(time.Second):
		t.Fatal("push did not return")
	}
}

func TestPump_Push_ForeignFrame(t *testing.T) {
	p1 := NewPump(WithLogger(quietLogger()))
	p2 := NewPump(WithLogger(quietLogger()))

	err := p1.Push(p2.NewFrame())
	require.Error(t, err)
	assert.True(t, IsWorkloadError(err))
}

func TestPump_Push_ReentrantFrame(t *testing.T) {
	p := NewPump(WithLogger(quietLogger()))
	f := p.NewFrame()

	var nestedErr error
	p.Post(func() {
		// Pushing the already-active frame again must be rejected.
		nestedErr = p.Push(f)
		f.Stop()
	})

	require.NoError(t, p.Push(f))
	require.Error(t, nestedErr)
	assert.True(t, IsWorkloadError(nestedErr))
}

func TestPump_NestedFrames(t *testing.T) {
	p := NewPump(WithLogger(quietLogger()))
	outer := p.NewFrame()

	var depthAtInner int
	var innerParent *Frame
	var innerErr error

	p.Post(func() {
		inner := p.NewFrame()
		p.Post(func() {
			depthAtInner = p.Depth()
			inner.Stop()
		})
		innerErr = p.Push(inner)
		innerParent = inner.Parent()
		outer.Stop()
	})

	require.NoError(t, p.Push(outer))
	require.NoError(t, innerErr)
	assert.Equal(t, 2, depthAtInner, "inner callback should observe both frames active")
	assert.Same(t, outer, innerParent)
	assert.Equal(t, 0, p.Depth())
}

func TestPump_StopFromAnotherGoroutine(t *testing.T) {
	p := NewPump(WithRunTimeout(0), WithLogger(quietLogger()))
	f := p.NewFrame()

	go func() {
		// Give the owner time to block on the empty queue
		time.Sleep(20 * time.Millisecond)
		f.Stop()
	}()

	require.NoError(t, p.Push(f))
	assert.True(t, f.Stopped())
}

func TestPump_DeadlineElapsed(t *testing.T) {
	p := NewPump(WithRunTimeout(50*time.Millisecond), WithLogger(quietLogger()))
	f := p.NewFrame()

	start := time.Now()
	err := p.Push(f)
	elapsed := time.Since(start)

	require.Error(t, err)
	assert.True(t, IsTimeoutError(err), "expected timeout, got %v", err)
	assert.Less(t, elapsed, time.Second, "deadline should fire promptly")
	assert.True(t, f.Stopped(), "deadline should stop active frames")
}

func TestPump_DeadlineSpansNestedFrames(t *testing.T) {
	p := NewPump(WithRunTimeout(50*time.Millisecond), WithLogger(quietLogger()))
	outer := p.NewFrame()

	var innerErr error
	p.Post(func() {
		// The inner frame is never stopped; the shared deadline must
		// unwind it and the outer frame together.
		innerErr = p.Push(p.NewFrame())
	})

	err := p.Push(outer)
	require.NoError(t, err, "outer frame is stopped by the deadline, error surfaces on the inner push")
	require.Error(t, innerErr)
	assert.True(t, IsTimeoutError(innerErr))
}

func TestPump_ConcurrentPosters(t *testing.T) {
	const posters = 8
	const perPoster = 50

	p := NewPump(WithRunTimeout(5*time.Second), WithLogger(quietLogger()))
	f := p.NewFrame()

	type mark struct{ poster, seq int }
	var got []mark

	var start sync.WaitGroup
	start.Add(1)
	for pid := 0; pid < posters; pid++ {
		pid := pid
		go func() {
			start.Wait()
			for i := 0; i < perPoster; i++ {
				pid, i := pid, i
				p.Post(func() {
					got = append(got, mark{pid, i})
					if len(got) == posters*perPoster {
						f.Stop()
					}
				})
			}
		}()
	}

	start.Done()
	require.NoError(t, p.Push(f))

	// Exactly once: no duplication, no loss.
	require.Len(t, got, posters*perPoster)
	seen := make(map[mark]bool, len(got))
	for _, m := range got {
		require.False(t, seen[m], "callback %+v executed twice", m)
		seen[m] = true
	}

	// Per-poster order is preserved even though posters interleave.
	next := make([]int, posters)
	for _, m := range got {
		assert.Equal(t, next[m.poster], m.seq, "poster %d out of order", m.poster)
		next[m.poster]++
	}
}

func TestPump_PostAfterClose(t *testing.T) {
	sink := &recordingSink{}
	p := NewPump(WithTraceSink(sink), WithLogger(quietLogger()))
	p.Close()

	ok := p.Post(func() { t.Fatal("dropped callback must not run") })
	assert.False(t, ok)
	assert.Equal(t, 1, sink.count(TracePostDrop))
}

func TestPump_Drain(t *testing.T) {
	p := NewPump(WithLogger(quietLogger()))

	ran := 0
	for i := 0; i < 3; i++ {
		p.Post(func() { ran++ })
	}

	require.NoError(t, p.Drain())
	assert.Equal(t, 3, ran)
	assert.Equal(t, 0, p.Pending())
}

func TestPump_Drain_NotOwner(t *testing.T) {
	p := NewPump(WithLogger(quietLogger()))

	errC := make(chan error, 1)
	go func() { errC <- p.Drain() }()

	select {
	case err := <-errC:
		assert.True(t, IsNotOwnerError(err))
	case <-time.After(time.Second):
		t.Fatal("drain did not return")
	}
}

func TestPump_TraceKinds(t *testing.T) {
	sink := &recordingSink{}
	p := NewPump(WithTraceSink(sink), WithLogger(quietLogger()))
	f := p.NewFrame()

	p.Post(func() { f.Stop() })
	require.NoError(t, p.Push(f))

	assert.Equal(t, 1, sink.count(TracePost))
	assert.Equal(t, 1, sink.count(TraceExecute))
	assert.Equal(t, 1, sink.count(TraceFramePush))
	assert.Equal(t, 1, sink.count(TraceFrameStop))
	assert.Equal(t, 1, sink.count(TraceFramePop))
}

func TestPump_PendingCountsQueuedCallbacks(t *testing.T) {
	p := NewPump(WithLogger(quietLogger()))

	for i := 0; i < 4; i++ {
		p.Post(func() {})
	}
	assert.Equal(t, 4, p.Pending())

	require.NoError(t, p.Drain())
	assert.Equal(t, 0, p.Pending())
}
