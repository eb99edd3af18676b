package dispatcher

import (
	"errors"
	"fmt"
)

// Dispatcher errors.
var (
	// ErrActionConflict indicates two actions share a reverse id.
	ErrActionConflict = errors.New("dispatcher: conflicting action")

	// ErrAlreadySetup indicates Setup was called more than once.
	ErrAlreadySetup = errors.New("dispatcher: already set up")

	// ErrSetupFailed indicates an earlier Setup failed after populating the
	// strategies. The dispatcher cannot be set up again.
	ErrSetupFailed = errors.New("dispatcher: setup failed")

	// ErrActionNotFound indicates a name could not be resolved to an action.
	ErrActionNotFound = errors.New("dispatcher: action not found")

	// ErrNoMatch indicates no strategy resolved the request path.
	ErrNoMatch = errors.New("dispatcher: no action matched")

	// ErrActionCancelled indicates a pre-dispatch hook cancelled the request.
	ErrActionCancelled = errors.New("dispatcher: action cancelled by hook")
)

// ConflictError describes a reverse id registered twice.
type ConflictError struct {
	// Reverse is the contested reverse id.
	Reverse string

	// Controller declared the rejected action.
	Controller string

	// Existing declared the action already registered.
	Existing string
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("dispatcher: action %q of controller %q conflicts with controller %q",
		e.Reverse, e.Controller, e.Existing)
}

// Unwrap allows errors.Is(err, ErrActionConflict).
func (e *ConflictError) Unwrap() error {
	return ErrActionConflict
}
