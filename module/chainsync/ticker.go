package chainsync

import (
	"context"
	"time"

	"github.com/benbjohnson/clock"
)

// Ticker limits how often an action is performed. It guarantees a tick at
// least every maxTimeout (via WaitAndTick) while allowing opportunistic ticks
// (via TryTick) no more often than every minTimeout.
//
// Ticker is not safe for concurrent use.
type Ticker struct {
	clock      clock.Clock
	lastTick   time.Time
	maxTimeout time.Duration
	minTimeout time.Duration
}

// NewTicker returns a ticker whose last tick happened at creation time.
func NewTicker(clk clock.Clock, maxTimeout, minTimeout time.Duration) *Ticker {
	return &Ticker{
		clock:      clk,
		lastTick:   clk.Now(),
		maxTimeout: maxTimeout,
		minTimeout: minTimeout,
	}
}

// TryTick ticks and returns true if at least minTimeout passed since the last tick.
func (t *Ticker) TryTick() bool {
	now := t.clock.Now()
	if now.Sub(t.lastTick) >= t.minTimeout {
		t.lastTick = now
		return true
	}
	return false
}

// Until returns how long it takes until the next mandatory tick, zero if it is due.
func (t *Ticker) Until() time.Duration {
	remaining := t.lastTick.Add(t.maxTimeout).Sub(t.clock.Now())
	if remaining < 0 {
		return 0
	}
	return remaining
}

// Tick records a tick at the current time.
func (t *Ticker) Tick() {
	t.lastTick = t.clock.Now()
}

// WaitAndTick blocks until maxTimeout passed since the last tick and then ticks.
// It returns the context error if the context is cancelled first.
func (t *Ticker) WaitAndTick(ctx context.Context) error {
	if remaining := t.Until(); remaining > 0 {
		timer := t.clock.Timer(remaining)
		defer timer.Stop()
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-timer.C:
		}
	}
	t.Tick()
	return nil
}
