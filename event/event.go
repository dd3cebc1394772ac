// Package event defines the logical events dispatched by the loop.
package event

import "github.com/gdamore/tcell/v2"

// Kind classifies a logical event
type Kind uint8

const (
	// KindInput carries one raw terminal event
	// Producer: poll sampler | Handler: Application.Event | Payload: tcell.Event
	KindInput Kind = iota

	// KindTick is the periodic refresh emitted when no input arrived in an interval
	// Producer: poll sampler | Handler: Application.Update | Payload: none
	KindTick

	// KindAsync signals that background work changed state
	// Producer: notify.Notifier | Handler: Application.UpdateDiff | Payload: none
	KindAsync
)

func (k Kind) String() string {
	switch k {
	case KindInput:
		return "input"
	case KindTick:
		return "tick"
	case KindAsync:
		return "async"
	default:
		return "unknown"
	}
}

// Event is one logical event, immutable once produced
type Event struct {
	Kind  Kind
	Input tcell.Event // Set only for KindInput
}

// Input wraps a raw terminal event
func Input(ev tcell.Event) Event {
	return Event{Kind: KindInput, Input: ev}
}

// Tick returns a tick event
func Tick() Event {
	return Event{Kind: KindTick}
}

// Async returns an async refresh event
func Async() Event {
	return Event{Kind: KindAsync}
}

// Batch is the ordered group of events produced by one sampling cycle
// Order is significant and preserved through dispatch
type Batch []Event

// Kinds lists the kind of each event in order
func (b Batch) Kinds() []Kind {
	kinds := make([]Kind, len(b))
	for i, ev := range b {
		kinds[i] = ev.Kind
	}
	return kinds
}
