package helpers

import (
	"time"

	"github.com/pslkit/psl-test-adapter/framework/opt"
)

// NonBlockingSend is a shortcut for using select to do a non-blocking send. It returns
// true on success or false if the channel was full.
func NonBlockingSend[V any](ch chan<- V, value V) bool {
	select {
	case ch <- value:
		return true
	default:
		return false
	}
}

// TryReceive is a shortcut for using select to do a receive with timeout. It returns a
// Maybe that has a value if one was available, or no value if it timed out or the channel
// was closed.
func TryReceive[V any](ch <-chan V, timeout time.Duration) opt.Maybe[V] {
	deadline := time.NewTimer(timeout)
	defer deadline.Stop()
	select {
	case value, ok := <-ch:
		if !ok {
			return opt.None[V]()
		}
		return opt.Some(value)
	case <-deadline.C:
		return opt.None[V]()
	}
}
