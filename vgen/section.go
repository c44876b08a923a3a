package vgen

import (
	"context"
)

// section is a mutual exclusion primitive admitting both a blocking and
// a context-aware acquisition over the same underlying state. A
// 1-buffered channel carries the ownership token, so a waiter parks on
// the channel send instead of holding an OS thread in a spin.
type section chan struct{}

func newSection() section {
	return make(section, 1)
}

func (s section) lock() {
	s <- struct{}{}
}

func (s section) lockContext(ctx context.Context) error {
	select {
	case s <- struct{}{}:
		return noErr
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s section) unlock() {
	<-s
}
