package inlining

import (
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/soloist/internal/apartment"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestObserve_InlineRunsOnCallerBeforeReturn(t *testing.T) {
	c := apartment.NewCompletion(apartment.Inline)

	obs, err := Observe(c, func() { c.Complete() }, WithLogger(quietLogger()))
	require.NoError(t, err)

	assert.True(t, obs.BeforeReturn)
	assert.Equal(t, apartment.GoroutineID(), obs.ScheduledOn)
	assert.Equal(t, obs.ScheduledOn, obs.RanOn)
}

func TestObserve_PumpPolicyDefersContinuation(t *testing.T) {
	p := apartment.NewPump(apartment.WithLogger(quietLogger()))
	defer p.Close()
	c := apartment.NewCompletion(p)

	// Nothing pumps, so the continuation stays queued.
	obs, err := Observe(c, func() { c.Complete() }, WithLogger(quietLogger()))
	require.NoError(t, err)

	assert.False(t, obs.BeforeReturn)
	assert.Zero(t, obs.RanOn)
	assert.Equal(t, 1, p.Pending())
}

func TestAssertInlined_InlinePolicy(t *testing.T) {
	c := apartment.NewCompletion(apartment.Inline)

	err := AssertInlined(c, func() { c.Complete() }, WithLogger(quietLogger()))
	require.NoError(t, err)
}

func TestAssertInlined_DetachedPolicyFails(t *testing.T) {
	c := apartment.NewCompletion(apartment.Detached)

	err := AssertInlined(c, func() { c.Complete() }, WithLogger(quietLogger()))
	require.Error(t, err)
	assert.True(t, apartment.IsAssertionError(err))
}

func TestAssertInlined_PumpPolicyFails(t *testing.T) {
	p := apartment.NewPump(apartment.WithLogger(quietLogger()))
	defer p.Close()
	c := apartment.NewCompletion(p)

	err := AssertInlined(c, func() { c.Complete() }, WithLogger(quietLogger()))
	require.Error(t, err)
	assert.True(t, apartment.IsAssertionError(err))
	assert.Contains(t, err.Error(), "had not run")
}

func TestAssertNotInlined_DetachedPolicy(t *testing.T) {
	c := apartment.NewCompletion(apartment.Detached)

	err := AssertNotInlined(c, func() { c.Complete() }, WithLogger(quietLogger()))
	require.NoError(t, err)
}

func TestAssertNotInlined_InlinePolicyFails(t *testing.T) {
	c := apartment.NewCompletion(apartment.Inline)

	start := time.Now()
	err := AssertNotInlined(c, func() { c.Complete() },
		WithWait(40*time.Millisecond),
		WithLogger(quietLogger()),
	)
	elapsed := time.Since(start)

	require.Error(t, err)
	assert.True(t, apartment.IsAssertionError(err))
	assert.Contains(t, err.Error(), "before the completing action returned")

	// The inlined continuation sat out the full wait on the completing
	// call's stack.
	assert.GreaterOrEqual(t, elapsed, 40*time.Millisecond)
}

func TestAssertNotInlined_PumpDeferredContinuation(t *testing.T) {
	err := apartment.Run(func(a *apartment.Apartment) error {
		p := a.Pump()
		c := apartment.NewCompletion(p)
		f := p.NewFrame()

		// The probe blocks on its verdict, so it runs off the owner while
		// the owner pumps the deferred continuation.
		probeErr := make(chan error, 1)
		go func() {
			probeErr <- AssertNotInlined(c, func() { c.Complete() }, WithLogger(quietLogger()))
			f.Stop()
		}()

		if err := p.Push(f); err != nil {
			return err
		}
		return <-probeErr
	}, apartment.WithLogger(quietLogger()))

	require.NoError(t, err)
}

func TestAssertNotInlined_NeverDispatchedReportsTimeout(t *testing.T) {
	p := apartment.NewPump(apartment.WithLogger(quietLogger()))
	defer p.Close()
	c := apartment.NewCompletion(p)

	start := time.Now()
	err := AssertNotInlined(c, func() { c.Complete() },
		WithWait(30*time.Millisecond),
		WithRunTimeout(80*time.Millisecond),
		WithLogger(quietLogger()),
	)

	require.Error(t, err)
	assert.True(t, apartment.IsTimeoutError(err))
	assert.Less(t, time.Since(start), 2*time.Second)
}

func TestAssertNotInlined_AntecedentFailureIsNotAProbeFailure(t *testing.T) {
	sentinel := errors.New("workload exploded")
	c := apartment.NewCompletion(apartment.Detached)

	// The probe asserts scheduling, not outcome: a failed antecedent with a
	// correctly deferred continuation still passes.
	err := AssertNotInlined(c, func() { c.Fail(sentinel) }, WithLogger(quietLogger()))
	require.NoError(t, err)
	assert.True(t, errors.Is(c.Err(), sentinel))
}

func TestProbe_NilArguments(t *testing.T) {
	c := apartment.NewCompletion(apartment.Inline)

	_, err := Observe(nil, func() {})
	assert.True(t, apartment.IsWorkloadError(err))

	_, err = Observe(c, nil)
	assert.True(t, apartment.IsWorkloadError(err))

	assert.True(t, apartment.IsWorkloadError(AssertInlined(nil, func() {})))
	assert.True(t, apartment.IsWorkloadError(AssertNotInlined(c, nil)))
}
