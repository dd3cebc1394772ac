package main

import (
	"bytes"
	"errors"
	"os"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gdamore/tcell/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lixenwraith/termloop/core"
)

// scriptedScreen is a simulation device that replays input after Init and counts renders
type scriptedScreen struct {
	tcell.SimulationScreen
	script  []tcell.Event
	initErr error
	panicAt int32 // Show call that panics, 0 never

	shows atomic.Int32
	finis atomic.Int32
}

func newScriptedScreen(script ...tcell.Event) *scriptedScreen {
	return &scriptedScreen{
		SimulationScreen: tcell.NewSimulationScreen("UTF-8"),
		script:           script,
	}
}

func (s *scriptedScreen) Init() error {
	if s.initErr != nil {
		return s.initErr
	}
	if err := s.SimulationScreen.Init(); err != nil {
		return err
	}
	s.SetSize(80, 24)

	go func() {
		// Let the first frame render before input arrives
		time.Sleep(50 * time.Millisecond)
		for _, ev := range s.script {
			s.PostEvent(ev)
		}
	}()
	return nil
}

func (s *scriptedScreen) Show() {
	if n := s.shows.Add(1); n == s.panicAt {
		panic("render failed")
	}
	s.SimulationScreen.Show()
}

func (s *scriptedScreen) Fini() {
	s.finis.Add(1)
	s.SimulationScreen.Fini()
}

func (s *scriptedScreen) factory() func() (tcell.Screen, error) {
	return func() (tcell.Screen, error) { return s, nil }
}

// isolateEnv keeps the user's config and home out of the test
func isolateEnv(t *testing.T) {
	t.Helper()
	t.Setenv("HOME", t.TempDir())
	t.Setenv("TERMLOOP_CONFIG", "")
	t.Setenv("TERMLOOP_LOGGING", "")
	os.Unsetenv("TERMLOOP_CONFIG")
	os.Unsetenv("TERMLOOP_LOGGING")
	t.Setenv("TERMLOOP_WORKSPACE_WATCH", "false")
}

// runWithTimeout runs fn and fails if it does not return in time
func runWithTimeout(t *testing.T, fn func() int) int {
	t.Helper()
	done := make(chan int, 1)
	go func() { done <- fn() }()
	select {
	case code := <-done:
		return code
	case <-time.After(5 * time.Second):
		t.Fatal("run did not return")
		return -1
	}
}

func TestRunQuitKeyExitsCleanly(t *testing.T) {
	isolateEnv(t)
	screen := newScriptedScreen(
		tcell.NewEventKey(tcell.KeyRune, 'j', tcell.ModNone),
		tcell.NewEventKey(tcell.KeyRune, 'q', tcell.ModNone),
	)

	code := runWithTimeout(t, func() int { return run(screen.factory(), "", t.TempDir()) })

	assert.Equal(t, 0, code)
	assert.Equal(t, int32(1), screen.finis.Load(), "terminal released exactly once")
	assert.GreaterOrEqual(t, screen.shows.Load(), int32(2), "initial frame plus the quit batch")
}

func TestRunDeviceFailureExitsBeforeLoop(t *testing.T) {
	isolateEnv(t)
	screen := newScriptedScreen()
	screen.initErr = errors.New("unsupported terminal")

	code := runWithTimeout(t, func() int { return run(screen.factory(), "", t.TempDir()) })

	assert.Equal(t, 1, code)
	assert.Equal(t, int32(0), screen.shows.Load(), "no render without a terminal")
}

func TestRunMissingRootReleasesTerminal(t *testing.T) {
	isolateEnv(t)
	screen := newScriptedScreen()

	code := runWithTimeout(t, func() int { return run(screen.factory(), "", t.TempDir()+"/missing") })

	assert.Equal(t, 1, code)
	assert.Equal(t, int32(1), screen.finis.Load())
	assert.Equal(t, int32(0), screen.shows.Load())
}

func TestRunBadConfigFile(t *testing.T) {
	isolateEnv(t)
	screen := newScriptedScreen()

	code := run(screen.factory(), t.TempDir()+"/absent.toml", "")

	require.Equal(t, 1, code)
	assert.Equal(t, int32(0), screen.finis.Load(), "terminal never acquired")
}

func TestRunPanicReleasesOnceWithoutReset(t *testing.T) {
	isolateEnv(t)

	var crashOut, resetOut bytes.Buffer
	exits := make(chan int, 1)
	restore := core.Redirect(&crashOut, &resetOut, func(code int) { exits <- code })
	t.Cleanup(func() {
		restore()
		core.RegisterSession(nil)
	})

	// First Show is the initial frame, the second follows the 'j' batch
	screen := newScriptedScreen(tcell.NewEventKey(tcell.KeyRune, 'j', tcell.ModNone))
	screen.panicAt = 2

	code := runWithTimeout(t, func() int { return runRecovered(screen.factory(), "", t.TempDir()) })

	assert.Equal(t, 1, code)
	assert.Equal(t, 1, <-exits)
	assert.Equal(t, int32(1), screen.finis.Load(), "terminal released exactly once")
	assert.Zero(t, resetOut.Len(), "no emergency reset after release")
	assert.Contains(t, crashOut.String(), "CRASH DETECTED: render failed")
}
