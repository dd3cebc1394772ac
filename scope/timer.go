// Package scope measures the wall-clock time spent inside a code scope.
//
//	func iteration() {
//		defer scope.Enter("loop").Exit()
//		...
//	}
//
// Exit runs from a defer, so the elapsed time is logged on every exit path of the
// scope, including a returned error or a panic unwinding through it.
package scope

import (
	"sync"
	"time"

	log "github.com/sirupsen/logrus"
)

// now is swapped in tests
var now = time.Now

// Timer is a started scope measurement
type Timer struct {
	label string
	start time.Time

	once    sync.Once
	elapsed time.Duration
}

// Enter starts timing the scope named label
func Enter(label string) *Timer {
	return &Timer{label: label, start: now()}
}

// Exit records the elapsed time and logs it at trace level
// Only the first call records; later calls return the same duration
func (t *Timer) Exit() time.Duration {
	t.once.Do(func() {
		t.elapsed = now().Sub(t.start)
		log.WithFields(log.Fields{
			"scope":   t.label,
			"elapsed": t.elapsed,
		}).Trace("scope time")
	})
	return t.elapsed
}

// Label returns the scope name
func (t *Timer) Label() string {
	return t.label
}

// Time is the one-line form of Enter/Exit: defer scope.Time("label")()
func Time(label string) func() {
	t := Enter(label)
	return func() { t.Exit() }
}
