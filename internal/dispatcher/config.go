package dispatcher

import "github.com/dshills/switchyard/internal/dispatcher/execctx"

// Config holds dispatcher configuration options.
type Config struct {
	// ShowInternalActions lists reserved lifecycle actions in the setup
	// tables and turns duplicate reverse ids into a setup error.
	ShowInternalActions bool

	// EnableMetrics enables dispatch timing and statistics collection.
	EnableMetrics bool

	// RecoverFromPanic converts handler panics into context errors.
	RecoverFromPanic bool

	// MaxRecursion limits the execution stack depth of a request.
	MaxRecursion int
}

// DefaultConfig returns a configuration with sensible defaults.
func DefaultConfig() Config {
	return Config{
		ShowInternalActions: false,
		EnableMetrics:       false,
		RecoverFromPanic:    true,
		MaxRecursion:        execctx.DefaultMaxDepth,
	}
}

// WithShowInternalActions returns a copy of the config with internal
// actions shown and conflicts made fatal.
func (c Config) WithShowInternalActions(show bool) Config {
	c.ShowInternalActions = show
	return c
}

// WithMetrics returns a copy of the config with metrics enabled.
func (c Config) WithMetrics() Config {
	c.EnableMetrics = true
	return c
}

// WithPanicRecovery returns a copy of the config with panic recovery set.
func (c Config) WithPanicRecovery(recover bool) Config {
	c.RecoverFromPanic = recover
	return c
}

// WithMaxRecursion returns a copy of the config with the stack depth limit set.
func (c Config) WithMaxRecursion(depth int) Config {
	if depth > 0 {
		c.MaxRecursion = depth
	}
	return c
}
