// Package engine runs the event loop that keeps the screen in sync with input,
// timer ticks and background refresh signals.
//
// Loop state machine:
//
//	Idle --batch/async--> Dispatching --all events--> Rendering --!quit--> Idle
//	                                                       |
//	                                                     quit --> Terminated
//
// Idle blocks in a select over the poll and async channels. Go picks uniformly
// among ready cases, so neither source is prioritized and no ordering exists
// between them; ordering only exists within a delivered batch. Every event of a
// batch is dispatched before the single render of that iteration.
//
// The loop goroutine is the only one touching Application state and the screen.
package engine

import (
	"context"
	"sync/atomic"

	"github.com/gdamore/tcell/v2"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"

	"github.com/lixenwraith/termloop/event"
	"github.com/lixenwraith/termloop/scope"
)

// State is the loop state machine position
type State uint32

const (
	StateIdle State = iota
	StateDispatching
	StateRendering
	StateTerminated
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateDispatching:
		return "dispatching"
	case StateRendering:
		return "rendering"
	case StateTerminated:
		return "terminated"
	default:
		return "unknown"
	}
}

// Option configures a Loop
type Option func(*Loop)

// WithInitialUpdate runs one Update and render before the first wait
// so the screen is populated before any input arrives
func WithInitialUpdate() Option {
	return func(l *Loop) {
		l.initialUpdate = true
	}
}

// WithLogger sets the logger entry, used to tag a session id
func WithLogger(entry *log.Entry) Option {
	return func(l *Loop) {
		l.logger = entry
	}
}

// Loop dispatches logical events to an Application and renders after each batch
type Loop struct {
	app    Application
	screen tcell.Screen
	input  <-chan event.Batch
	async  <-chan struct{}

	initialUpdate bool
	logger        *log.Entry

	state      atomic.Uint32
	iterations atomic.Uint64
	renders    atomic.Uint64
}

// New creates a loop over the poll channel and async channel
func New(app Application, screen tcell.Screen, input <-chan event.Batch, async <-chan struct{}, opts ...Option) *Loop {
	l := &Loop{
		app:    app,
		screen: screen,
		input:  input,
		async:  async,
		logger: log.WithField("component", "engine"),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Run blocks until the Application quits, a channel disconnects, a handler fails or ctx is done
// Returns nil on quit, ctx.Err() on cancellation, ErrChannelDisconnected or a *HandlerError otherwise
func (l *Loop) Run(ctx context.Context) error {
	defer l.setState(StateTerminated)

	l.logger.Info("loop started")

	if l.initialUpdate {
		quit, err := l.process(event.Batch{event.Tick()})
		if err != nil {
			return err
		}
		if quit {
			l.logger.Info("quit before first input")
			return nil
		}
	}

	for {
		quit, err := l.iterate(ctx)
		if err != nil {
			l.logger.WithError(err).Error("loop stopped")
			return err
		}
		if quit {
			l.logger.WithField("iterations", l.Iterations()).Info("loop finished")
			return nil
		}
	}
}

// iterate waits for one source and processes what it delivered
func (l *Loop) iterate(ctx context.Context) (bool, error) {
	l.setState(StateIdle)

	var batch event.Batch

	select {
	case b, ok := <-l.input:
		if !ok {
			return false, errors.Wrap(ErrChannelDisconnected, "poll channel")
		}
		batch = b

	case _, ok := <-l.async:
		if !ok {
			return false, errors.Wrap(ErrChannelDisconnected, "async channel")
		}
		batch = event.Batch{event.Async()}

	case <-ctx.Done():
		return false, ctx.Err()
	}

	// Nothing dispatched means nothing to render
	if len(batch) == 0 {
		return false, nil
	}

	return l.process(batch)
}

// process dispatches the batch in order, renders once and reads the quit flag
func (l *Loop) process(batch event.Batch) (bool, error) {
	defer scope.Enter("loop").Exit()

	l.setState(StateDispatching)
	for _, ev := range batch {
		if err := l.dispatch(ev); err != nil {
			return false, err
		}
	}

	l.setState(StateRendering)
	if err := l.render(); err != nil {
		return false, err
	}

	l.iterations.Add(1)
	return l.app.IsQuit(), nil
}

// dispatch routes one event to its handler
func (l *Loop) dispatch(ev event.Event) error {
	var err error
	switch ev.Kind {
	case event.KindInput:
		err = l.app.Event(ev.Input)
	case event.KindTick:
		err = l.app.Update()
	case event.KindAsync:
		err = l.app.UpdateDiff()
	default:
		l.logger.WithField("kind", ev.Kind).Warn("unknown event kind dropped")
		return nil
	}

	if err != nil {
		return &HandlerError{Op: ev.Kind.String(), Err: err}
	}
	return nil
}

// render performs the single render pass of an iteration
func (l *Loop) render() error {
	if err := l.app.Draw(l.screen); err != nil {
		return &HandlerError{Op: "draw", Err: err}
	}
	l.screen.Show()
	l.renders.Add(1)
	return nil
}

func (l *Loop) setState(s State) {
	l.state.Store(uint32(s))
}

// State returns the current state machine position
func (l *Loop) State() State {
	return State(l.state.Load())
}

// Iterations returns completed dispatch and render cycles
func (l *Loop) Iterations() uint64 {
	return l.iterations.Load()
}

// Renders returns the number of render passes issued
func (l *Loop) Renders() uint64 {
	return l.renders.Load()
}
