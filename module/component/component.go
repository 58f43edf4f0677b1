package component

import (
	"context"
	"sync"

	"go.uber.org/atomic"

	"github.com/selendra/selendra-finality/module"
	"github.com/selendra/selendra-finality/module/irrecoverable"
	"github.com/selendra/selendra-finality/module/util"
)

// Component can be started once and stopped by cancelling its start context.
// Done closes eventually after Start, on graceful shutdown as well as after an
// irrecoverable error.
type Component interface {
	module.Startable
	module.ReadyDoneAware
}

// ReadyFunc is called by a worker once it is ready.
type ReadyFunc func()

// ComponentWorker is a long running routine of a component. It returns when
// ctx is cancelled and reports irrecoverable errors with ctx.Throw.
type ComponentWorker func(ctx irrecoverable.SignalerContext, ready ReadyFunc)

type ComponentManagerBuilder interface {
	AddWorker(ComponentWorker) ComponentManagerBuilder
	Build() *ComponentManager
}

type componentManagerBuilder struct {
	workers []ComponentWorker
}

func NewComponentManagerBuilder() ComponentManagerBuilder {
	return &componentManagerBuilder{}
}

// AddWorker registers a worker. Not safe for concurrent use.
func (b *componentManagerBuilder) AddWorker(worker ComponentWorker) ComponentManagerBuilder {
	b.workers = append(b.workers, worker)
	return b
}

func (b *componentManagerBuilder) Build() *ComponentManager {
	return &ComponentManager{
		started:     atomic.NewBool(false),
		ready:       make(chan struct{}),
		done:        make(chan struct{}),
		workersDone: make(chan struct{}),
		workers:     b.workers,
	}
}

var _ Component = (*ComponentManager)(nil)

// ComponentManager runs the workers of a component. Ready closes once every
// worker called its ReadyFunc, Done once every worker returned. The first error
// thrown by a worker cancels the others and is passed on to the parent context.
type ComponentManager struct {
	started     *atomic.Bool
	ready       chan struct{}
	done        chan struct{}
	workersDone chan struct{}

	workers []ComponentWorker
}

// Start launches the workers. It panics when called twice.
func (c *ComponentManager) Start(parent irrecoverable.SignalerContext) {
	if !c.started.CompareAndSwap(false, true) {
		panic(module.ErrMultipleStartup)
	}

	ctx, cancel := context.WithCancel(parent)
	signalerCtx, errChan := irrecoverable.WithSignaler(ctx)

	go func() {
		err := util.WaitError(errChan, c.workersDone)
		cancel()
		if err != nil {
			parent.Throw(err)
		}
		<-c.workersDone
		close(c.done)
	}()

	var ready, finished sync.WaitGroup
	ready.Add(len(c.workers))
	finished.Add(len(c.workers))
	for _, worker := range c.workers {
		worker := worker
		go func() {
			defer finished.Done()
			var once sync.Once
			worker(signalerCtx, func() { once.Do(ready.Done) })
		}()
	}

	go func() {
		ready.Wait()
		close(c.ready)
	}()
	go func() {
		finished.Wait()
		close(c.workersDone)
	}()
}

// Ready never closes if a worker returns before signalling readiness.
func (c *ComponentManager) Ready() <-chan struct{} {
	return c.ready
}

func (c *ComponentManager) Done() <-chan struct{} {
	return c.done
}
