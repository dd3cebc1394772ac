// Package queue provides an unbounded FIFO channel pair.
//
// Producers call Send and never block beyond the hand-off to the pump goroutine;
// the consumer receives on Out. Values accumulate in memory while the consumer is
// slow, there is no backpressure signaling.
//
// Close is the disconnect signal: the pump drains the backlog to Out and then
// closes Out, so a consumer observes every value sent before the close followed by
// a closed channel.
package queue

import (
	"sync/atomic"

	"github.com/lixenwraith/termloop/core"
)

// Unbounded is a channel with an unlimited buffer
type Unbounded[T any] struct {
	in      chan T
	out     chan T
	pending atomic.Int64
}

// NewUnbounded creates the channel pair and starts its pump goroutine
func NewUnbounded[T any]() *Unbounded[T] {
	u := &Unbounded[T]{
		in:  make(chan T),
		out: make(chan T),
	}
	core.Go(u.pump)
	return u
}

// Out returns the receive side, closed after Close and a drained backlog
func (u *Unbounded[T]) Out() <-chan T {
	return u.out
}

// Send enqueues v
// Panics after Close, same as a send on a closed channel
func (u *Unbounded[T]) Send(v T) {
	u.pending.Add(1)
	u.in <- v
}

// Close closes the send side
func (u *Unbounded[T]) Close() {
	close(u.in)
}

// Len reports values sent but not yet received
func (u *Unbounded[T]) Len() int {
	return int(u.pending.Load())
}

// pump moves values from in to out through a slice backlog
func (u *Unbounded[T]) pump() {
	defer close(u.out)

	var backlog []T
	in := u.in

	for in != nil || len(backlog) > 0 {
		// Only offer a value on out when one is queued; a nil channel never fires
		var out chan T
		var next T
		if len(backlog) > 0 {
			out = u.out
			next = backlog[0]
		}

		select {
		case v, ok := <-in:
			if !ok {
				in = nil
				continue
			}
			backlog = append(backlog, v)

		case out <- next:
			var zero T
			backlog[0] = zero
			backlog = backlog[1:]
			u.pending.Add(-1)
			if len(backlog) == 0 {
				// Release the grown array once the consumer catches up
				backlog = nil
			}
		}
	}
}
