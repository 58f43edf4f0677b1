package fifoqueue

import (
	"errors"

	"go.uber.org/atomic"

	"github.com/selendra/selendra-finality/module"
)

// ErrClosed is returned when sending into a closed Unbounded channel.
var ErrClosed = errors.New("channel closed")

// Unbounded is a multi-producer single-consumer channel without a capacity
// limit. Producers never block. The consumer waits on Channel() and then
// drains elements with Pop, one at a time.
type Unbounded[T any] struct {
	queue    *FifoQueue[T]
	notifier module.Notifier
	closed   *atomic.Bool
}

// NewUnbounded creates an empty unbounded channel.
func NewUnbounded[T any]() *Unbounded[T] {
	// constructing a queue without options cannot fail
	queue, _ := NewFifoQueue[T]()
	return &Unbounded[T]{
		queue:    queue,
		notifier: module.NewNotifier(),
		closed:   atomic.NewBool(false),
	}
}

// Send enqueues the element and wakes up the consumer.
// Expected errors during normal operations:
//   - ErrClosed if the channel was closed
func (u *Unbounded[T]) Send(element T) error {
	if u.closed.Load() {
		return ErrClosed
	}
	u.queue.Push(element)
	u.notifier.Notify()
	return nil
}

// Channel returns the notification channel of the consumer. A notification
// means at least one element may be available.
func (u *Unbounded[T]) Channel() <-chan struct{} {
	return u.notifier.Channel()
}

// Pop dequeues the oldest element. If more elements remain, the consumer is
// notified again, so a consumer handling one element per wake-up never misses one.
func (u *Unbounded[T]) Pop() (T, bool) {
	element, ok := u.queue.Pop()
	if ok && u.queue.Len() > 0 {
		u.notifier.Notify()
	}
	return element, ok
}

// Len returns the number of queued elements.
func (u *Unbounded[T]) Len() int {
	return u.queue.Len()
}

// Close makes all further sends fail. Queued elements can still be popped.
func (u *Unbounded[T]) Close() {
	u.closed.Store(true)
}

// Closed returns true once Close was called.
func (u *Unbounded[T]) Closed() bool {
	return u.closed.Load()
}
