package engine

import "github.com/gdamore/tcell/v2"

// Application is the business logic driven by the loop
// All methods are invoked from the loop goroutine only; no locking is required
// for state they own
type Application interface {
	// Event handles one raw input event
	Event(ev tcell.Event) error

	// Update handles a Tick
	Update() error

	// UpdateDiff handles an async refresh
	// Signals are not coalesced, so it must be idempotent and cheap to repeat
	UpdateDiff() error

	// Draw paints current state onto the screen; the loop calls Show afterwards
	Draw(screen tcell.Screen) error

	// IsQuit reports termination, read once per iteration after rendering
	IsQuit() bool
}
