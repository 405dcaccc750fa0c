package apartment

import (
	"errors"
	"fmt"
)

// Error represents a failure detected by the harness itself, as opposed to a
// failure produced by the workload under test.
//
// Harness errors include:
//   - Timeout: a bounded wait elapsed before the expected signal
//   - Startup: the dedicated worker goroutine never became ready
//   - Not owner: a pump operation was attempted off the owning goroutine
//   - Closed: a pump or apartment was used after teardown
//   - Assertion: a probe observed a thread-affinity or ordering violation
//
// Workload failures are never re-typed: they are captured once and returned
// with their original identity intact so errors.Is/As reach the value the
// workload produced.
type Error struct {
	// Code identifies the error category.
	Code ErrorCode

	// Message is a human-readable description.
	Message string

	// Goroutine identifies the worker goroutine involved, when known.
	Goroutine uint64

	// Cause is the underlying error, if any.
	Cause error
}

// ErrorCode categorizes harness errors.
type ErrorCode string

const (
	// ErrCodeWorkload indicates the workload broke the harness contract
	// (for example, returned a nil completion).
	ErrCodeWorkload ErrorCode = "WORKLOAD_INVALID"

	// ErrCodeAssertion indicates a probe expectation was violated.
	ErrCodeAssertion ErrorCode = "ASSERTION_FAILED"

	// ErrCodeTimeout indicates a bounded wait elapsed without the expected
	// signal. Timeouts are reported, never silently absorbed.
	ErrCodeTimeout ErrorCode = "TIMEOUT"

	// ErrCodeMeasurement indicates the allocation probe exhausted its
	// attempts without a passing sample.
	ErrCodeMeasurement ErrorCode = "MEASUREMENT_FAILED"

	// ErrCodeStartup indicates the dedicated worker failed to become ready.
	ErrCodeStartup ErrorCode = "STARTUP_FAILED"

	// ErrCodeNotOwner indicates an owner-confined pump operation was called
	// from a foreign goroutine.
	ErrCodeNotOwner ErrorCode = "NOT_OWNER"

	// ErrCodeClosed indicates a pump or apartment was used after teardown.
	ErrCodeClosed ErrorCode = "CLOSED"
)

// Error implements the error interface.
func (e *Error) Error() string {
	msg := fmt.Sprintf("%s: %s", e.Code, e.Message)
	if e.Goroutine != 0 {
		msg = fmt.Sprintf("%s (goroutine=%d)", msg, e.Goroutine)
	}
	if e.Cause != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Cause)
	}
	return msg
}

// Unwrap returns the underlying cause, if any.
func (e *Error) Unwrap() error {
	return e.Cause
}

// IsTimeoutError returns true if the error is a harness timeout.
// Uses errors.As to handle wrapped errors.
func IsTimeoutError(err error) bool {
	var he *Error
	if errors.As(err, &he) {
		return he.Code == ErrCodeTimeout
	}
	return false
}

// IsAssertionError returns true if the error is a probe assertion failure.
// Uses errors.As to handle wrapped errors.
func IsAssertionError(err error) bool {
	var he *Error
	if errors.As(err, &he) {
		return he.Code == ErrCodeAssertion
	}
	return false
}

// IsWorkloadError returns true if the error reports a workload contract
// violation. Uses errors.As to handle wrapped errors.
func IsWorkloadError(err error) bool {
	var he *Error
	if errors.As(err, &he) {
		return he.Code == ErrCodeWorkload
	}
	return false
}

// IsMeasurementError returns true if the error reports an exhausted
// allocation measurement. Uses errors.As to handle wrapped errors.
func IsMeasurementError(err error) bool {
	var he *Error
	if errors.As(err, &he) {
		return he.Code == ErrCodeMeasurement
	}
	return false
}

// IsStartupError returns true if the error is a worker startup failure.
// Uses errors.As to handle wrapped errors.
func IsStartupError(err error) bool {
	var he *Error
	if errors.As(err, &he) {
		return he.Code == ErrCodeStartup
	}
	return false
}

// IsNotOwnerError returns true if the error is an ownership violation.
// Uses errors.As to handle wrapped errors.
func IsNotOwnerError(err error) bool {
	var he *Error
	if errors.As(err, &he) {
		return he.Code == ErrCodeNotOwner
	}
	return false
}

// IsClosedError returns true if the error reports use after teardown.
// Uses errors.As to handle wrapped errors.
func IsClosedError(err error) bool {
	var he *Error
	if errors.As(err, &he) {
		return he.Code == ErrCodeClosed
	}
	return false
}

// NewWorkloadError creates an Error for a workload contract violation.
func NewWorkloadError(message string, cause error) *Error {
	return &Error{
		Code:    ErrCodeWorkload,
		Message: message,
		Cause:   cause,
	}
}

// NewAssertionError creates an Error for a violated probe expectation.
func NewAssertionError(message string, cause error) *Error {
	return &Error{
		Code:    ErrCodeAssertion,
		Message: message,
		Cause:   cause,
	}
}

// NewTimeoutError creates an Error for an elapsed bounded wait.
func NewTimeoutError(message string) *Error {
	return &Error{
		Code:    ErrCodeTimeout,
		Message: message,
	}
}

// NewMeasurementError creates an Error for an allocation measurement that
// never produced a passing sample.
func NewMeasurementError(message string) *Error {
	return &Error{
		Code:    ErrCodeMeasurement,
		Message: message,
	}
}

// NewStartupError creates an Error for a worker that never became ready.
func NewStartupError(message string) *Error {
	return &Error{
		Code:    ErrCodeStartup,
		Message: message,
	}
}

// NewNotOwnerError creates an Error for an owner-confined operation called
// from the wrong goroutine.
func NewNotOwnerError(op string, owner, caller uint64) *Error {
	return &Error{
		Code:      ErrCodeNotOwner,
		Message:   fmt.Sprintf("%s confined to owning goroutine %d, called from %d", op, owner, caller),
		Goroutine: caller,
	}
}

// NewClosedError creates an Error for use after teardown.
func NewClosedError(message string) *Error {
	return &Error{
		Code:    ErrCodeClosed,
		Message: message,
	}
}
