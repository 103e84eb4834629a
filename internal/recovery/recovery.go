// Package recovery wraps the per-datagram decode callback with panic
// recovery.
package recovery

import (
	"fmt"
	"runtime/debug"

	"github.com/flowforge/netflow9collector/ingest"
)

// ErrPanic is the sentinel every recovered panic wraps.
var ErrPanic = fmt.Errorf("panic")

// PanicError carries the recovered value and a stack trace.
type PanicError struct {
	Value      any
	Stacktrace []byte
}

func (e *PanicError) Error() string {
	return fmt.Sprintf("recovered panic: %v", e.Value)
}

func (e *PanicError) Unwrap() error {
	return ErrPanic
}

// WrapHandler returns a Handler that recovers panics from wrapped and
// reports them to onPanic instead of crashing the ingest goroutine.
func WrapHandler(wrapped ingest.Handler, onPanic func(error)) ingest.Handler {
	return func(p ingest.Payload) {
		defer func() {
			if r := recover(); r != nil {
				onPanic(&PanicError{Value: r, Stacktrace: debug.Stack()})
			}
		}()
		wrapped(p)
	}
}
