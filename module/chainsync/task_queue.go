package chainsync

import (
	"container/heap"
	"context"
	"time"

	"github.com/benbjohnson/clock"

	"github.com/selendra/selendra-finality/model/chain"
)

type scheduledTask struct {
	id     chain.BlockID
	fireAt time.Time
	seq    uint64
}

// taskHeap orders tasks by fire time, ties broken by scheduling order.
type taskHeap []scheduledTask

func (h taskHeap) Len() int { return len(h) }
func (h taskHeap) Less(i, j int) bool {
	if h[i].fireAt.Equal(h[j].fireAt) {
		return h[i].seq < h[j].seq
	}
	return h[i].fireAt.Before(h[j].fireAt)
}
func (h taskHeap) Swap(i, j int)       { h[i], h[j] = h[j], h[i] }
func (h *taskHeap) Push(x interface{}) { *h = append(*h, x.(scheduledTask)) }
func (h *taskHeap) Pop() interface{} {
	old := *h
	n := len(old)
	task := old[n-1]
	*h = old[:n-1]
	return task
}

// TaskQueue holds block identifiers that should be acted upon at a given
// time. Scheduling the same identifier several times results in several
// firings, the request path tolerates duplicates.
//
// TaskQueue is not safe for concurrent use.
type TaskQueue struct {
	clock clock.Clock
	tasks taskHeap
	seq   uint64
}

// NewTaskQueue creates an empty queue.
func NewTaskQueue(clk clock.Clock) *TaskQueue {
	return &TaskQueue{clock: clk}
}

// ScheduleIn schedules the id to fire after the given delay.
func (q *TaskQueue) ScheduleIn(id chain.BlockID, delay time.Duration) {
	q.seq++
	heap.Push(&q.tasks, scheduledTask{
		id:     id,
		fireAt: q.clock.Now().Add(delay),
		seq:    q.seq,
	})
}

// NextDue returns the time remaining until the earliest task fires (zero if
// it is already due), or false if the queue is empty.
func (q *TaskQueue) NextDue() (time.Duration, bool) {
	if len(q.tasks) == 0 {
		return 0, false
	}
	remaining := q.tasks[0].fireAt.Sub(q.clock.Now())
	if remaining < 0 {
		remaining = 0
	}
	return remaining, true
}

// PopDue removes and returns the earliest task if its time has come.
func (q *TaskQueue) PopDue() (chain.BlockID, bool) {
	if len(q.tasks) == 0 || q.tasks[0].fireAt.After(q.clock.Now()) {
		return chain.BlockID{}, false
	}
	task := heap.Pop(&q.tasks).(scheduledTask)
	return task.id, true
}

// Pop waits for the earliest task and returns it. With an empty queue it
// waits until the context is cancelled, since nobody else can schedule.
func (q *TaskQueue) Pop(ctx context.Context) (chain.BlockID, error) {
	for {
		if id, ok := q.PopDue(); ok {
			return id, nil
		}
		remaining, ok := q.NextDue()
		if !ok {
			<-ctx.Done()
			return chain.BlockID{}, ctx.Err()
		}
		timer := q.clock.Timer(remaining)
		select {
		case <-ctx.Done():
			timer.Stop()
			return chain.BlockID{}, ctx.Err()
		case <-timer.C:
		}
	}
}

// Len returns the number of scheduled tasks.
func (q *TaskQueue) Len() int {
	return len(q.tasks)
}
