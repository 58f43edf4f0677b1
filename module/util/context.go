package util

import (
	"context"
	"errors"

	"go.uber.org/atomic"
)

// ErrChannelClosed is the error of a context from WithDone cancelled by its channel.
var ErrChannelClosed = errors.New("channel closed")

// WithDone derives a context that is cancelled once done closes. Its Err is
// ErrChannelClosed in that case, the parent's error otherwise.
func WithDone(parent context.Context, done <-chan struct{}) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(parent)
	c := &doneCtx{Context: ctx, err: atomic.NewError(nil)}
	go func() {
		select {
		case <-done:
			c.err.Store(ErrChannelClosed)
			cancel()
		case <-ctx.Done():
		}
	}()
	return c, cancel
}

type doneCtx struct {
	context.Context
	err *atomic.Error
}

func (c *doneCtx) Err() error {
	if err := c.err.Load(); err != nil {
		return err
	}
	return c.Context.Err()
}
