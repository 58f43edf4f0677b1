package chaintracker

import (
	"context"
	"sync"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/rs/zerolog"
	"go.uber.org/atomic"

	"github.com/selendra/selendra-finality/model/chain"
	"github.com/selendra/selendra-finality/module"
	"github.com/selendra/selendra-finality/module/util"
)

// DefaultRefreshInterval is how often the best block is refreshed.
const DefaultRefreshInterval = 100 * time.Millisecond

// Tracker keeps the best block of the local chain available to the BFT
// engine, which proposes it as session data.
type Tracker struct {
	log             zerolog.Logger
	selectChain     module.SelectChain
	clock           clock.Clock
	refreshInterval time.Duration
	best            *atomic.Pointer[chain.Header]
}

func NewTracker(log zerolog.Logger, selectChain module.SelectChain, clk clock.Clock, refreshInterval time.Duration) *Tracker {
	return &Tracker{
		log:             log.With().Str("component", "chain_tracker").Logger(),
		selectChain:     selectChain,
		clock:           clk,
		refreshInterval: refreshInterval,
		best:            atomic.NewPointer[chain.Header](nil),
	}
}

// Best returns the last known best block, nil before the first refresh.
func (t *Tracker) Best() *chain.Header {
	return t.best.Load()
}

func (t *Tracker) refresh() {
	best, err := t.selectChain.BestChain()
	if err != nil {
		t.log.Warn().Err(err).Msg("could not get best block")
		return
	}
	previous := t.best.Swap(best)
	if previous == nil || previous.Hash() != best.Hash() {
		t.log.Trace().Str("best", best.ID().String()).Msg("best block changed")
	}
}

// Run refreshes the best block every refresh interval until the context is done.
func (t *Tracker) Run(ctx context.Context) {
	ticker := t.clock.Ticker(t.refreshInterval)
	defer ticker.Stop()

	t.refresh()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			t.refresh()
		}
	}
}

// Task is a tracker running in its own goroutine, stopped through an
// explicit stop channel.
type Task struct {
	stop     chan struct{}
	done     chan struct{}
	stopOnce sync.Once
}

// Spawn starts running the tracker for the given session.
func Spawn(log zerolog.Logger, tracker *Tracker, session chain.SessionID) *Task {
	task := &Task{
		stop: make(chan struct{}),
		done: make(chan struct{}),
	}
	ctx, cancel := util.WithDone(context.Background(), task.stop)
	go func() {
		defer close(task.done)
		defer cancel()
		log.Debug().Uint32("session", uint32(session)).Msg("running the chain refresh task")
		tracker.Run(ctx)
		log.Debug().Uint32("session", uint32(session)).Msg("chain refresh task stopped")
	}()
	return task
}

// Stop signals the task to stop and waits until it did.
func (t *Task) Stop() {
	t.stopOnce.Do(func() {
		close(t.stop)
	})
	<-t.done
}

// Done is closed once the task stopped.
func (t *Task) Done() <-chan struct{} {
	return t.done
}
