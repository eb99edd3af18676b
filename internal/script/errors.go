package script

import (
	"errors"
	"fmt"
)

// Errors for script compilation and execution.
var (
	// ErrCompile is returned when a script does not parse or compile.
	ErrCompile = errors.New("script: compile failed")

	// ErrRuntime is returned when a script raises a Lua error.
	ErrRuntime = errors.New("script: runtime error")

	// ErrTimeout is returned when a script exceeds its timeout.
	ErrTimeout = errors.New("script: execution timeout")

	// ErrNoForwarder is returned by forward() when no forwarder is configured.
	ErrNoForwarder = errors.New("script: forward not available")
)

// Error records which script failed.
type Error struct {
	Script string
	Err    error
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %v", e.Script, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}
