package harness

import (
	"errors"
	"fmt"
)

// errRunInProgress is returned when a replay is requested while another
// script is still draining.
var errRunInProgress = errors.New("a run is already in progress")

// EngineError represents an engine-boundary failure: a call that returned
// an error or an event the classifier does not recognize. Boundary failures
// are fatal to the current run - dispatch halts, the controller returns to
// idle, and the verdict log up to the failure point is preserved for
// inspection.
type EngineError struct {
	// Op names the boundary operation that failed: "submit", "cancel",
	// "quote", "snapshot", "sequence" or "reset".
	Op string

	// Cursor is the character offset of the directive being dispatched.
	Cursor int

	Err error
}

// Error implements the error interface.
func (e *EngineError) Error() string {
	return fmt.Sprintf("engine %s failed at offset %d: %v", e.Op, e.Cursor, e.Err)
}

func (e *EngineError) Unwrap() error {
	return e.Err
}

// IsEngineError reports whether err is an engine-boundary failure.
// Uses errors.As to handle wrapped errors.
func IsEngineError(err error) bool {
	var ee *EngineError
	return errors.As(err, &ee)
}
