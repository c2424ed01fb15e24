package execution

import (
	"errors"
	"fmt"
)

// ErrNoDevice is returned when the device provider reports no reachable device.
var ErrNoDevice = errors.New("no ADB device detected")

// FatalError is a run-level failure. By the time Run returns it, the
// matching error event has already been emitted.
type FatalError struct {
	Err error
}

func (e *FatalError) Error() string {
	return fmt.Sprintf("task execution failed: %v", e.Err)
}

func (e *FatalError) Unwrap() error {
	return e.Err
}
