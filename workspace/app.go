// Package workspace is a directory status viewer driven by the engine loop.
//
// Ticks and filesystem events request background scans; a scan that changes the
// listing sends one async refresh, and UpdateDiff reconciles the displayed rows
// with the newest snapshot, marking added and modified entries.
package workspace

import (
	"context"
	"os"
	"time"

	"github.com/gdamore/tcell/v2"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"

	"github.com/lixenwraith/termloop/notify"
)

// headerRows and footerRows frame the entry list
const (
	headerRows = 1
	footerRows = 1
)

// Mark flags an entry changed by the last applied refresh
type Mark uint8

const (
	MarkNone Mark = iota
	MarkAdded
	MarkModified
)

// Player sounds a cue, satisfied by *audio.Chime
type Player interface {
	Play()
}

// Config holds viewer settings
type Config struct {
	Root         string
	ScanInterval time.Duration
	Watch        bool
	ShowHidden   bool
}

// Option configures an App
type Option func(*App)

// WithPlayer sounds p when a refresh changes the listing
func WithPlayer(p Player) Option {
	return func(a *App) {
		a.player = p
	}
}

// App implements engine.Application
type App struct {
	cfg     Config
	scanner *Scanner
	watcher *Watcher
	player  Player
	cancel  context.CancelFunc

	entries  []Entry
	marks    map[string]Mark
	lastDiff Diff
	seq      uint64

	selected int
	offset   int
	height   int // Last drawn screen height

	refreshes int
	quit      bool
}

// New creates the viewer and starts its background producers
// sender receives one signal per scan that changed the listing
func New(ctx context.Context, sender notify.Sender, cfg Config, opts ...Option) (*App, error) {
	info, err := os.Stat(cfg.Root)
	if err != nil {
		return nil, errors.Wrap(err, "workspace root")
	}
	if !info.IsDir() {
		return nil, errors.Errorf("workspace root %s is not a directory", cfg.Root)
	}

	ctx, cancel := context.WithCancel(ctx)

	a := &App{
		cfg:     cfg,
		cancel:  cancel,
		marks:   make(map[string]Mark),
		scanner: NewScanner(cfg.Root, cfg.ShowHidden, cfg.ScanInterval, sender),
	}
	for _, opt := range opts {
		opt(a)
	}

	a.scanner.Start(ctx)

	if cfg.Watch {
		w, err := Watch(ctx, cfg.Root, a.scanner.Request)
		if err != nil {
			// Ticks still refresh the listing
			log.WithField("component", "workspace").WithError(err).Warn("watch disabled")
		} else {
			a.watcher = w
		}
	}

	return a, nil
}

// Close stops background producers
func (a *App) Close() {
	a.cancel()
	if a.watcher != nil {
		a.watcher.Close()
	}
}

// Event handles one raw input event
func (a *App) Event(ev tcell.Event) error {
	switch ev := ev.(type) {
	case *tcell.EventKey:
		a.handleKey(ev)
	case *tcell.EventMouse:
		a.handleMouse(ev)
	case *tcell.EventResize:
		// Size is read on the next Draw
	}
	return nil
}

func (a *App) handleKey(ev *tcell.EventKey) {
	switch ev.Key() {
	case tcell.KeyEscape, tcell.KeyCtrlC:
		a.quit = true
	case tcell.KeyUp:
		a.move(-1)
	case tcell.KeyDown:
		a.move(1)
	case tcell.KeyHome:
		a.selectRow(0)
	case tcell.KeyEnd:
		a.selectRow(len(a.entries) - 1)
	case tcell.KeyRune:
		switch ev.Rune() {
		case 'q':
			a.quit = true
		case 'k':
			a.move(-1)
		case 'j':
			a.move(1)
		case 'g':
			a.selectRow(0)
		case 'G':
			a.selectRow(len(a.entries) - 1)
		case 'r':
			a.scanner.Request()
		}
	}
}

func (a *App) handleMouse(ev *tcell.EventMouse) {
	buttons := ev.Buttons()
	switch {
	case buttons&tcell.WheelUp != 0:
		a.move(-1)
	case buttons&tcell.WheelDown != 0:
		a.move(1)
	case buttons&tcell.Button1 != 0:
		_, y := ev.Position()
		row := y - headerRows
		if row >= 0 && a.offset+row < len(a.entries) {
			a.selectRow(a.offset + row)
		}
	}
}

// Update handles a Tick by requesting a scan
func (a *App) Update() error {
	a.scanner.Request()
	return nil
}

// UpdateDiff applies the newest snapshot, if one arrived since the last call
func (a *App) UpdateDiff() error {
	a.refreshes++

	snap, ok := a.scanner.Latest()
	if !ok || snap.Seq <= a.seq {
		return nil
	}

	var selectedName string
	if a.selected < len(a.entries) {
		selectedName = a.entries[a.selected].Name
	}

	first := a.seq == 0
	diff := Compare(a.entries, snap.Entries)

	a.entries = snap.Entries
	a.seq = snap.Seq
	a.lastDiff = diff
	a.marks = make(map[string]Mark, len(diff.Added)+len(diff.Modified))

	// The initial listing is not a change
	if !first {
		for _, name := range diff.Added {
			a.marks[name] = MarkAdded
		}
		for _, name := range diff.Modified {
			a.marks[name] = MarkModified
		}
		if !diff.Empty() && a.player != nil {
			a.player.Play()
		}
	} else {
		a.lastDiff = Diff{}
	}

	// Keep the cursor on the same entry when it survived
	a.selected = 0
	for i, e := range a.entries {
		if e.Name == selectedName {
			a.selected = i
			break
		}
	}
	a.clampSelection()
	return nil
}

// IsQuit reports whether a quit key was pressed
func (a *App) IsQuit() bool {
	return a.quit
}

func (a *App) move(delta int) {
	a.selectRow(a.selected + delta)
}

func (a *App) selectRow(i int) {
	a.selected = i
	a.clampSelection()
}

// clampSelection keeps selected within entries and visible within the list area
func (a *App) clampSelection() {
	if a.selected >= len(a.entries) {
		a.selected = len(a.entries) - 1
	}
	if a.selected < 0 {
		a.selected = 0
	}

	rows := a.height - headerRows - footerRows
	if rows < 1 {
		return
	}
	if a.selected < a.offset {
		a.offset = a.selected
	}
	if a.selected >= a.offset+rows {
		a.offset = a.selected - rows + 1
	}
}

// Entries returns the displayed rows
func (a *App) Entries() []Entry {
	return a.entries
}

// Selected returns the selected row index
func (a *App) Selected() int {
	return a.selected
}

// MarkOf returns the change mark of an entry
func (a *App) MarkOf(name string) Mark {
	return a.marks[name]
}

// LastDiff returns the diff applied by the last effective refresh
func (a *App) LastDiff() Diff {
	return a.lastDiff
}
