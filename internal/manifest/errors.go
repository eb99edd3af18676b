package manifest

import (
	"errors"
	"strings"
)

// Errors for manifest loading and building.
var (
	// ErrParse indicates the manifest is not valid YAML or has unknown keys.
	ErrParse = errors.New("parse error")

	// ErrInvalid indicates a declaration that cannot be built.
	ErrInvalid = errors.New("invalid declaration")
)

// Error locates a manifest failure.
type Error struct {
	File       string
	Controller string
	Action     string
	Err        error
}

func (e *Error) Error() string {
	var b strings.Builder
	b.WriteString("manifest")
	if e.File != "" {
		b.WriteString(" ")
		b.WriteString(e.File)
	}
	if e.Controller != "" {
		b.WriteString(": controller ")
		b.WriteString(e.Controller)
	}
	if e.Action != "" {
		b.WriteString(" action ")
		b.WriteString(e.Action)
	}
	b.WriteString(": ")
	b.WriteString(e.Err.Error())
	return b.String()
}

func (e *Error) Unwrap() error {
	return e.Err
}
