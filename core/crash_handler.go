// Package core holds process-wide crash handling.
//
// A panic in any goroutine must still return the terminal to normal mode before
// the process exits. The running Session is registered here once acquired;
// HandleCrash releases it (or falls back to terminal.EmergencyReset), prints the
// stack trace and exits non-zero.
package core

import (
	"fmt"
	"io"
	"os"
	"runtime/debug"
	"sync"

	log "github.com/sirupsen/logrus"

	"github.com/lixenwraith/termloop/terminal"
)

var (
	crashMu      sync.Mutex
	crashSession *terminal.Session

	// Replaced in tests
	crashOut  io.Writer = os.Stderr
	resetOut  io.Writer = os.Stdout
	crashExit           = os.Exit
)

// RegisterSession sets the session released on crash, nil clears it
// Keep a released session registered until exit so a later crash does not reset the device again
func RegisterSession(s *terminal.Session) {
	crashMu.Lock()
	crashSession = s
	crashMu.Unlock()
}

// Redirect swaps the crash report writer, the emergency reset writer and the exit func
// Returns a func restoring the previous values; for tests driving a crash end to end
func Redirect(out, reset io.Writer, exit func(int)) (restore func()) {
	crashMu.Lock()
	defer crashMu.Unlock()

	prevOut, prevReset, prevExit := crashOut, resetOut, crashExit
	crashOut, resetOut, crashExit = out, reset, exit

	return func() {
		crashMu.Lock()
		defer crashMu.Unlock()
		crashOut, resetOut, crashExit = prevOut, prevReset, prevExit
	}
}

// HandleCrash is the unified panic handler that resets the terminal and prints the stack trace
func HandleCrash(r any) {
	if r == nil {
		return
	}

	crashMu.Lock()
	s := crashSession
	out, reset, exit := crashOut, resetOut, crashExit
	crashMu.Unlock()

	// Terminal cleanup if available; Release is a no-op if the loop already released
	if s != nil {
		s.Release()
	} else {
		terminal.EmergencyReset(reset)
	}

	log.WithField("panic", r).Error("crash")

	// Use \r\n in case the device is still in raw mode
	fmt.Fprintf(out, "\r\n\x1b[31mCRASH DETECTED: %v\x1b[0m\r\n", r)
	fmt.Fprintf(out, "Stack Trace:\r\n%s\r\n", debug.Stack())

	if f, ok := out.(*os.File); ok {
		f.Sync()
	}

	exit(1)
}

// Go runs a function in a new goroutine with panic recovery.
// Use this instead of the 'go' keyword to ensure terminal cleanup on crash.
func Go(fn func()) {
	go func() {
		defer func() {
			if r := recover(); r != nil {
				HandleCrash(r)
			}
		}()
		fn()
	}()
}
