package apartment

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCallbackQueue_EnqueueDequeue(t *testing.T) {
	q := newCallbackQueue(defaultQueueCapacity)

	ran := false
	ok := q.Enqueue(func() { ran = true })
	require.True(t, ok, "enqueue should succeed")

	fn, ok := q.TryDequeue()
	require.True(t, ok, "dequeue should succeed")
	fn()
	assert.True(t, ran)
}

func TestCallbackQueue_FIFO(t *testing.T) {
	q := newCallbackQueue(defaultQueueCapacity)

	var order []int
	for i := 1; i <= 3; i++ {
		i := i
		q.Enqueue(func() { order = append(order, i) })
	}

	for i := 0; i < 3; i++ {
		fn, ok := q.TryDequeue()
		require.True(t, ok)
		fn()
	}

	assert.Equal(t, []int{1, 2, 3}, order)
}

func TestCallbackQueue_TryDequeue_Empty(t *testing.T) {
	q := newCallbackQueue(defaultQueueCapacity)

	_, ok := q.TryDequeue()
	assert.False(t, ok, "dequeue from empty queue should return false")
}

func TestCallbackQueue_Enqueue_AfterClose(t *testing.T) {
	q := newCallbackQueue(defaultQueueCapacity)
	q.Close()

	ok := q.Enqueue(func() {})
	assert.False(t, ok, "enqueue after close should return false")
}

func TestCallbackQueue_Close_DropsQueued(t *testing.T) {
	q := newCallbackQueue(defaultQueueCapacity)

	q.Enqueue(func() {})
	q.Enqueue(func() {})
	require.Equal(t, 2, q.Len())

	q.Close()

	assert.Equal(t, 0, q.Len(), "close should drop queued callbacks")
	assert.True(t, q.Closed())

	_, ok := q.TryDequeue()
	assert.False(t, ok)
}

func TestCallbackQueue_Wait_SignalsOnEnqueue(t *testing.T) {
	q := newCallbackQueue(defaultQueueCapacity)

	woke := make(chan struct{})
	go func() {
		<-q.Wait()
		close(woke)
	}()

	// Give the waiter time to block
	time.Sleep(10 * time.Millisecond)

	q.Enqueue(func() {})

	select {
	case <-woke:
	case <-time.After(100 * time.Millisecond):
		t.Fatal("wait did not signal after enqueue")
	}
}

func TestCallbackQueue_Poke_WakesWaiter(t *testing.T) {
	q := newCallbackQueue(defaultQueueCapacity)

	woke := make(chan struct{})
	go func() {
		<-q.Wait()
		close(woke)
	}()

	// Give the waiter time to block
	time.Sleep(10 * time.Millisecond)

	q.Poke()

	select {
	case <-woke:
	case <-time.After(100 * time.Millisecond):
		t.Fatal("wait did not signal after poke")
	}

	// Poke after close must not panic on the closed signal channel.
	q.Close()
	q.Poke()
}

func TestCallbackQueue_Len(t *testing.T) {
	q := newCallbackQueue(defaultQueueCapacity)

	assert.Equal(t, 0, q.Len())

	q.Enqueue(func() {})
	assert.Equal(t, 1, q.Len())

	q.Enqueue(func() {})
	assert.Equal(t, 2, q.Len())

	q.TryDequeue()
	assert.Equal(t, 1, q.Len())

	q.TryDequeue()
	assert.Equal(t, 0, q.Len())
}

func TestCallbackQueue_ThreadSafe(t *testing.T) {
	q := newCallbackQueue(defaultQueueCapacity)

	const producers = 10
	const callbacksPerProducer = 100

	var wg sync.WaitGroup

	// Start producers
	for p := 0; p < producers; p++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < callbacksPerProducer; i++ {
				q.Enqueue(func() {})
			}
		}()
	}

	// Start consumer
	received := 0
	consumerDone := make(chan struct{})
	go func() {
		for received < producers*callbacksPerProducer {
			_, ok := q.TryDequeue()
			if !ok {
				// Queue might be temporarily empty
				time.Sleep(1 * time.Millisecond)
				continue
			}
			received++
		}
		close(consumerDone)
	}()

	// Wait for all producers
	wg.Wait()

	// Wait for consumer to finish
	select {
	case <-consumerDone:
		// Success
	case <-time.After(5 * time.Second):
		t.Fatalf("consumer timeout: received %d callbacks", received)
	}
}
