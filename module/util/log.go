package util

import (
	"sync"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/rs/zerolog"
	"go.uber.org/atomic"
)

// ProgressFunc adds done units of work to a progress report. It can be called
// concurrently; negative values are ignored.
type ProgressFunc func(done int)

type ProgressConfig struct {
	// Message prefixes every logged line.
	Message string
	// Total is the amount of work that makes up 100%.
	Total int
	// Steps is the number of evenly spaced reports, not counting the one at 0%.
	Steps int
	// Idle triggers an extra report when work arrives after this long without any.
	Idle time.Duration
}

// DefaultProgressConfig reports every 10% and after a minute without progress.
func DefaultProgressConfig(message string, total int) ProgressConfig {
	return ProgressConfig{
		Message: message,
		Total:   total,
		Steps:   10,
		Idle:    time.Minute,
	}
}

// LogProgress logs the progress of a long running job. The estimated time left
// assumes progress is linear.
func LogProgress(log zerolog.Logger, clk clock.Clock, config ProgressConfig) ProgressFunc {
	start := clk.Now()
	total := uint64(0)
	if config.Total > 0 {
		total = uint64(config.Total)
	}
	steps := uint64(1)
	if config.Steps > 1 {
		steps = uint64(config.Steps)
	}
	step := total / steps
	if step == 0 {
		step = 1
	}

	var mu sync.Mutex
	report := func(current uint64) {
		mu.Lock()
		defer mu.Unlock()

		elapsed := clk.Since(start)
		percent := float64(100)
		if total > 0 {
			percent = float64(current) / float64(total) * 100
		}
		event := log.Info().
			Uint64("done", current).
			Uint64("total", total).
			Str("elapsed", elapsed.Round(time.Second).String())
		if current < total && percent > 0 {
			eta := time.Duration(float64(elapsed) / percent * (100 - percent))
			event = event.Str("eta", eta.Round(time.Second).String())
		}
		event.Msgf("%s %.1f%%", config.Message, percent)
	}
	report(0)

	current := atomic.NewUint64(0)
	lastWork := atomic.NewInt64(start.UnixNano())
	return func(done int) {
		if done <= 0 {
			return
		}
		now := clk.Now().UnixNano()
		idle := time.Duration(now - lastWork.Swap(now))

		after := current.Add(uint64(done))
		before := after - uint64(done)
		reached := after / step
		if after >= total {
			reached = steps
		}
		passed := before / step

		switch {
		case reached > passed && (after >= total || reached < steps):
			report(after)
		case config.Idle > 0 && idle > config.Idle:
			report(after)
		}
	}
}
