package terminal

import (
	"fmt"
	"sync"

	"github.com/gdamore/tcell/v2"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
)

// ErrDevice marks a failure to put the terminal into the requested mode
var ErrDevice = errors.New("terminal device error")

// State is the device mode owned by a Session
type State uint8

const (
	StateNormal State = iota
	StateRawAltScreenMouseCaptured
)

func (s State) String() string {
	switch s {
	case StateNormal:
		return "normal"
	case StateRawAltScreenMouseCaptured:
		return "raw+altscreen+mouse"
	default:
		return "unknown"
	}
}

// ScreenFactory creates the device screen, tcell.NewScreen in production
type ScreenFactory func() (tcell.Screen, error)

// Session is the acquire/release guard around the terminal device mode
// Every successful Acquire is paired with exactly one effective Release
type Session struct {
	screen tcell.Screen

	mu       sync.Mutex
	state    State
	releases int

	releaseOnce sync.Once
}

// Acquire enters raw mode and the alternate screen, enables mouse capture and hides the cursor
// Failure is fatal to the caller and wraps ErrDevice; nothing is left half-acquired
func Acquire(factory ScreenFactory) (*Session, error) {
	if factory == nil {
		factory = tcell.NewScreen
	}

	screen, err := factory()
	if err != nil {
		return nil, errors.Wrapf(ErrDevice, "create screen: %v", err)
	}

	// tcell Init covers raw mode and the alternate screen buffer
	if err := screen.Init(); err != nil {
		return nil, errors.Wrapf(ErrDevice, "init screen: %v", err)
	}

	s := &Session{screen: screen}

	if err := s.capture(); err != nil {
		screen.Fini()
		return nil, errors.Wrapf(ErrDevice, "capture: %v", err)
	}

	s.mu.Lock()
	s.state = StateRawAltScreenMouseCaptured
	s.mu.Unlock()

	log.WithField("component", "terminal").Debug("session acquired")
	return s, nil
}

// capture enables mouse reporting and hides the cursor, converting device panics to errors
func (s *Session) capture() (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%v", r)
		}
	}()

	s.screen.EnableMouse()
	s.screen.HideCursor()
	s.screen.Clear()
	return nil
}

// Release restores the device to normal mode
// Best-effort: device errors are logged, never returned. Safe to call any number of times
func (s *Session) Release() {
	if s == nil {
		return
	}

	s.releaseOnce.Do(func() {
		logger := log.WithField("component", "terminal")

		defer func() {
			if r := recover(); r != nil {
				logger.WithField("panic", r).Error("release failed")
			}

			s.mu.Lock()
			s.state = StateNormal
			s.releases++
			s.mu.Unlock()

			logger.Debug("session released")
		}()

		// Disable mouse before Fini; Fini leaves the alternate screen, shows the cursor and restores termios
		s.screen.DisableMouse()
		s.screen.Fini()
	})
}

// Screen returns the device screen, the render target for the loop
func (s *Session) Screen() tcell.Screen {
	return s.screen
}

// State returns the current device mode
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Releases reports how many releases took effect, 0 or 1
func (s *Session) Releases() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.releases
}
