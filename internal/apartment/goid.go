package apartment

import (
	"bytes"
	"runtime"
	"strconv"
)

// GoroutineID returns the numeric ID of the calling goroutine, parsed from
// the runtime stack header ("goroutine N [running]:").
//
// The runtime deliberately hides goroutine IDs from programs; the harness
// needs them anyway because apartment affinity is an identity constraint,
// not a scheduling hint. IDs are used only for ownership checks and for
// probe observations, never for scheduling decisions.
func GoroutineID() uint64 {
	var buf [64]byte
	n := runtime.Stack(buf[:], false)
	fields := bytes.Fields(buf[:n])
	if len(fields) < 2 {
		return 0
	}
	id, err := strconv.ParseUint(string(fields[1]), 10, 64)
	if err != nil {
		return 0
	}
	return id
}
