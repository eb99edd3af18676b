package execctx

import (
	"errors"
	"fmt"
)

// Execution errors.
var (
	// ErrDeepRecursion indicates the execution stack hit its depth limit.
	ErrDeepRecursion = errors.New("execution context: deep recursion detected")

	// ErrPanic indicates a component panicked and the panic was recovered.
	ErrPanic = errors.New("execution context: component panicked")
)

// MessageError is a plain user-visible error recorded with Error.
type MessageError struct {
	Message string
}

func (e *MessageError) Error() string {
	return e.Message
}

// PanicError describes a recovered panic.
type PanicError struct {
	Reverse string
	Value   interface{}
	Stack   string
}

func (e *PanicError) Error() string {
	return fmt.Sprintf("execution context: panic in %s: %v", e.Reverse, e.Value)
}

// Unwrap allows errors.Is(err, ErrPanic).
func (e *PanicError) Unwrap() error {
	return ErrPanic
}
