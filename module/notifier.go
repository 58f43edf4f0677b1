package module

// Notifier wakes up a single worker routine when new work arrives. Notifying
// an already notified Notifier is a no-op, and a notification sent while
// nobody waits is remembered until the next receive. Notifiers can be passed
// by value and still share their internal state.
type Notifier struct {
	notifier chan struct{} // buffered channel with capacity 1
}

// NewNotifier instantiates a Notifier.
func NewNotifier() Notifier {
	return Notifier{make(chan struct{}, 1)}
}

// Notify sends a notification without blocking.
func (n Notifier) Notify() {
	select {
	case n.notifier <- struct{}{}:
	default:
	}
}

// Channel returns a channel for receiving notifications
func (n Notifier) Channel() <-chan struct{} {
	return n.notifier
}
