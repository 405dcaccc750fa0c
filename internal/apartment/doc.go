// Package apartment implements the single-threaded execution core of the
// harness: a dedicated, OS-thread-pinned worker goroutine that owns a
// message pump and runs asynchronous workloads to completion on it.
//
// ARCHITECTURE:
//
// One Worker Per Invocation:
// Run and RunToCompletion spawn a fresh worker for every call. Workers are
// never pooled or shared, so concurrent invocations cannot interfere and
// re-entrancy behavior is exactly reproducible. The worker pins itself with
// runtime.LockOSThread before any user code runs.
//
// Pumped Execution Flow:
// 1. The worker binds a Pump (FIFO callback queue, frame stack)
// 2. The workload starts and returns a Completion
// 3. Continuations post back into the pump from any goroutine
// 4. The worker drains the queue inside a Frame, strictly in post order
// 5. The completion's continuation records any failure and stops the frame
// 6. The caller joins the worker and receives the first captured failure
//
// Blocking the worker on the completion would deadlock, because the
// workload's continuations need that same worker to run. Pumping is the
// synchronous-wait-without-deadlock primitive.
//
// CRITICAL PATTERNS:
//
// Owner Confinement:
// Only the pump's owning goroutine dequeues and executes. Post is the only
// cross-goroutine operation on a pump; Frame.Stop is safe from any
// goroutine and wakes the owner.
//
// First Failure Wins:
// The fault slot is write-once. Secondary failures are dropped so the error
// the caller sees is the one that actually broke the run, with its original
// identity intact for errors.Is and errors.As.
//
// Bounded Waits:
// Every wait in this package is bounded by default. A workload that never
// completes becomes a timeout failure, never a hung test process.
package apartment
