package unittest

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// AssertReturnsBefore asserts that the given function returns before the
// duration expires.
func AssertReturnsBefore(t *testing.T, f func(), duration time.Duration) {
	done := make(chan struct{})

	go func() {
		f()
		close(done)
	}()

	select {
	case <-time.After(duration):
		t.Log("function did not return in time")
		t.Fail()
	case <-done:
		return
	}
}

// RequireReturnsBefore requires that the given function returns before the
// duration expires.
func RequireReturnsBefore(t testing.TB, f func(), duration time.Duration) {
	done := make(chan struct{})

	go func() {
		f()
		close(done)
	}()

	select {
	case <-time.After(duration):
		require.Fail(t, "function did not return in time")
	case <-done:
		return
	}
}

// RequireCloseBefore requires that the given channel closes before the
// duration expires.
func RequireCloseBefore(t testing.TB, c <-chan struct{}, duration time.Duration, message string) {
	select {
	case <-time.After(duration):
		require.Fail(t, "could not close done channel on time: "+message)
	case <-c:
		return
	}
}

// AssertNotClosed asserts the channel is still open.
func AssertNotClosed(t testing.TB, c <-chan struct{}, message string) {
	select {
	case <-c:
		assert.Fail(t, "channel closed unexpectedly: "+message)
	default:
	}
}

// RequireReceiveBefore requires a value to arrive on the channel before the
// duration expires and returns it.
func RequireReceiveBefore[T any](t testing.TB, c <-chan T, duration time.Duration, message string) T {
	select {
	case <-time.After(duration):
		require.Fail(t, "nothing received on time: "+message)
	case v := <-c:
		return v
	}
	var zero T
	return zero
}

// RequireNoReceive requires that nothing arrives on the channel during the duration.
func RequireNoReceive[T any](t testing.TB, c <-chan T, duration time.Duration, message string) {
	select {
	case v := <-c:
		require.Failf(t, "unexpected value received", "%s: %v", message, v)
	case <-time.After(duration):
	}
}
