// Package notify carries "state changed, please refresh" signals from background
// producers to the loop.
//
// Delivery is at-least-once without coalescing: every Notify produces exactly one
// receive on C, so n sends before the loop drains anything result in n separate
// refresh iterations. Refresh handlers must be idempotent and cheap.
package notify

import (
	"sync"

	"github.com/lixenwraith/termloop/queue"
)

// Sender is the producer handle given to background work
// Any number of goroutines may share one Sender
type Sender interface {
	Notify()
}

// Notifier is the multi-producer, single-consumer async refresh channel
type Notifier struct {
	q *queue.Unbounded[struct{}]

	mu     sync.RWMutex
	closed bool
}

// New creates a notifier with an unbounded backlog
func New() *Notifier {
	return &Notifier{q: queue.NewUnbounded[struct{}]()}
}

// Sender returns the producer handle
func (n *Notifier) Sender() Sender {
	return n
}

// Notify enqueues one refresh signal, never blocks on the consumer
// Signals sent after Close are dropped
func (n *Notifier) Notify() {
	n.mu.RLock()
	defer n.mu.RUnlock()

	if n.closed {
		return
	}
	n.q.Send(struct{}{})
}

// C returns the consumer side, closed after Close once pending signals are drained
func (n *Notifier) C() <-chan struct{} {
	return n.q.Out()
}

// Close disconnects all producers
// The consumer sees a closed channel after the backlog, which the loop treats as fatal
func (n *Notifier) Close() {
	n.mu.Lock()
	defer n.mu.Unlock()

	if n.closed {
		return
	}
	n.closed = true
	n.q.Close()
}

// Pending reports signals sent but not yet received
func (n *Notifier) Pending() int {
	return n.q.Len()
}

// Func adapts a function to Sender
type Func func()

// Notify calls f
func (f Func) Notify() {
	f()
}
