package engine

import (
	"fmt"

	"github.com/pkg/errors"
)

// ErrChannelDisconnected reports a producer that terminated; the loop cannot continue
var ErrChannelDisconnected = errors.New("event channel disconnected")

// HandlerError wraps an error returned by an Application callback
// It is not caught by the loop: Run returns it and the process exits
type HandlerError struct {
	Op  string // "input", "tick", "async" or "draw"
	Err error
}

func (e *HandlerError) Error() string {
	return fmt.Sprintf("%s handler: %v", e.Op, e.Err)
}

func (e *HandlerError) Unwrap() error {
	return e.Err
}
