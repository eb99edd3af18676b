package dispatcher

import (
	"log/slog"

	"github.com/dshills/switchyard/internal/dispatcher/hook"
	"github.com/dshills/switchyard/internal/dispatcher/strategy"
)

// Option configures a Dispatcher.
type Option func(*Dispatcher)

// WithLogger sets the logger used for setup and dispatch diagnostics.
func WithLogger(logger *slog.Logger) Option {
	return func(d *Dispatcher) {
		if logger != nil {
			d.logger = logger
		}
	}
}

// WithStrategies replaces the default strategies. Order is consultation order.
func WithStrategies(strategies ...strategy.Strategy) Option {
	return func(d *Dispatcher) {
		d.strategies = append([]strategy.Strategy(nil), strategies...)
	}
}

// WithHookManager shares a hook manager, e.g. across dispatchers swapped on reload.
func WithHookManager(m *hook.Manager) Option {
	return func(d *Dispatcher) {
		if m != nil {
			d.hookManager = m
		}
	}
}

// WithMetrics records into m instead of a collector of the dispatcher's own.
// Passing a collector enables metrics regardless of Config.EnableMetrics.
func WithMetrics(m *Metrics) Option {
	return func(d *Dispatcher) {
		d.metrics = m
	}
}
