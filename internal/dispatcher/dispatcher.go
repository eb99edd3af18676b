package dispatcher

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/dshills/switchyard/internal/dispatcher/action"
	"github.com/dshills/switchyard/internal/dispatcher/execctx"
	"github.com/dshills/switchyard/internal/dispatcher/hook"
	"github.com/dshills/switchyard/internal/dispatcher/strategy"
)

// Controller contributes actions to the dispatcher.
type Controller interface {
	// Name returns the controller name.
	Name() string

	// Actions returns the actions the controller declares, in declaration order.
	Actions() []*action.Action

	// SetupFinished is called once the registry is frozen.
	SetupFinished(lookup action.Lookup) error
}

// Dispatcher resolves request paths to actions and coordinates execution.
//
// Setup is single-threaded. Once it returns, the registry, the strategy list
// and the actions are read-only and every request-time method is safe for
// concurrent use without locking.
type Dispatcher struct {
	// Configuration
	config Config
	logger *slog.Logger

	// Core components
	strategies  []strategy.Strategy
	registry    *Registry
	controllers map[string]Controller
	setupDone   bool
	setupErr    error

	// Hook manager for priority-based hooks
	hookManager *hook.Manager

	// Metrics
	metrics *Metrics
}

// New creates a new dispatcher with the given configuration. Without
// WithStrategies the Path strategy is consulted first, then Chained.
func New(config Config, opts ...Option) *Dispatcher {
	d := &Dispatcher{
		config:      config,
		logger:      slog.Default(),
		registry:    NewRegistryBuilder().Freeze(),
		controllers: make(map[string]Controller),
	}
	for _, opt := range opts {
		opt(d)
	}

	if d.strategies == nil {
		d.strategies = []strategy.Strategy{strategy.NewPath(), strategy.NewChained()}
	}
	if d.hookManager == nil {
		d.hookManager = hook.NewManager()
	}
	if d.metrics == nil && config.EnableMetrics {
		d.metrics = NewMetrics()
	}
	return d
}

// NewWithDefaults creates a new dispatcher with default configuration.
func NewWithDefaults() *Dispatcher {
	return New(DefaultConfig())
}

// Setup registers the actions of every controller, freezes the registry and
// prepares the strategies. It may only run once. A conflict leaves the
// dispatcher untouched, so Setup can be retried with corrected controllers;
// a failure after the strategies were populated is final.
func (d *Dispatcher) Setup(controllers []Controller) error {
	if d.setupDone {
		return ErrAlreadySetup
	}
	if d.setupErr != nil {
		return fmt.Errorf("%w: %w", ErrSetupFailed, d.setupErr)
	}

	type declared struct {
		action     *action.Action
		controller string
	}

	builder := NewRegistryBuilder()
	used := make(map[string]Controller)
	var accepted []declared

	for _, c := range controllers {
		for _, a := range c.Actions() {
			if existing, ok := builder.Lookup(a.Reverse()); ok {
				if d.config.ShowInternalActions {
					return &ConflictError{
						Reverse:    a.Reverse(),
						Controller: c.Name(),
						Existing:   existing.Controller(),
					}
				}
				d.logger.Debug("skipping duplicate action",
					"action", a.Reverse(),
					"controller", c.Name(),
					"registered_by", existing.Controller(),
				)
				continue
			}

			builder.Register(a)
			accepted = append(accepted, declared{action: a, controller: c.Name()})
			used[c.Name()] = c
		}
	}

	// Strategies only see the action set once it is known to be conflict free.
	for _, e := range accepted {
		a := e.action
		if a.IsPrivate() {
			continue
		}
		registered := false
		for _, s := range d.strategies {
			if s.RegisterAction(a) {
				registered = true
			}
		}
		if !registered && !action.IsReserved(a.Name()) {
			d.logger.Debug("action not registered in any strategy",
				"action", a.Reverse(),
				"controller", e.controller,
			)
		}
	}

	d.registry = builder.Freeze()
	d.controllers = used

	for _, c := range controllers {
		if err := c.SetupFinished(d); err != nil {
			d.setupErr = fmt.Errorf("dispatcher: setup of controller %s: %w", c.Name(), err)
			return d.setupErr
		}
	}

	active := make([]strategy.Strategy, 0, len(d.strategies))
	for _, s := range d.strategies {
		if !s.InUse() {
			d.logger.Debug("dropping unused strategy", "strategy", s.Name())
			continue
		}
		if v, ok := s.(strategy.Validator); ok {
			for _, err := range v.Validate() {
				d.logger.Warn("strategy validation", "strategy", s.Name(), "error", err)
			}
		}
		active = append(active, s)
	}
	d.strategies = active
	d.setupDone = true

	if d.logger.Enabled(context.Background(), slog.LevelDebug) {
		d.logger.Debug("dispatcher ready\n" + d.Describe())
	}
	return nil
}

// NewContext creates an execution context configured for this dispatcher.
func (d *Dispatcher) NewContext(ctx context.Context, req *execctx.Request, resp execctx.Response) *execctx.ExecutionContext {
	return execctx.NewWithContext(ctx, req, resp).
		WithMaxDepth(d.config.MaxRecursion).
		WithPanicRecovery(d.config.RecoverFromPanic)
}

// Controllers returns the controllers that contributed at least one action,
// keyed by name.
func (d *Dispatcher) Controllers() map[string]Controller {
	out := make(map[string]Controller, len(d.controllers))
	for k, v := range d.controllers {
		out[k] = v
	}
	return out
}

// Strategies returns the strategies in consultation order.
func (d *Dispatcher) Strategies() []strategy.Strategy {
	out := make([]strategy.Strategy, len(d.strategies))
	copy(out, d.strategies)
	return out
}

// Registry returns the action registry.
func (d *Dispatcher) Registry() *Registry {
	return d.registry
}

// Metrics returns the metrics collector (nil if metrics disabled).
func (d *Dispatcher) Metrics() *Metrics {
	return d.metrics
}

// Config returns the dispatcher configuration.
func (d *Dispatcher) Config() Config {
	return d.config
}

// HookManager returns the hook manager.
func (d *Dispatcher) HookManager() *hook.Manager {
	return d.hookManager
}

// IsSetup reports whether Setup completed.
func (d *Dispatcher) IsSetup() bool {
	return d.setupDone
}
