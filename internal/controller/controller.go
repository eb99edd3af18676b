// Package controller groups actions under a namespace and supplies the
// lifecycle actions the dispatcher forwards through.
//
// Every controller owns five private actions. _DISPATCH runs _BEGIN, _AUTO
// and _ACTION in order, stopping at the first failure, and then always runs
// _END. _BEGIN and _END run the most specific Begin/End hook visible from
// the controller namespace; _AUTO runs every visible Auto hook from the root
// down; _ACTION runs the resolved action.
package controller

import (
	"github.com/dshills/switchyard/internal/dispatcher/action"
	"github.com/dshills/switchyard/internal/dispatcher/execctx"
	"github.com/dshills/switchyard/internal/dispatcher/handler"
	"github.com/dshills/switchyard/internal/dispatcher/namespace"
)

// Hook action names looked up at setup.
const (
	BeginName = "Begin"
	AutoName  = "Auto"
	EndName   = "End"
)

// Controller declares actions inside one namespace.
type Controller struct {
	name      string
	namespace string
	actions   []*action.Action
	internal  []*action.Action

	begin *action.Action
	autos []*action.Action
	end   *action.Action
}

// New creates a controller named name serving namespace ns.
func New(name, ns string) *Controller {
	c := &Controller{
		name:      name,
		namespace: namespace.Trim(ns),
	}
	c.internal = []*action.Action{
		c.newInternal(action.NameDispatch, c.dispatch),
		c.newInternal(action.NameBegin, c.runBegin),
		c.newInternal(action.NameAuto, c.runAuto),
		c.newInternal(action.NameAction, c.runAction),
		c.newInternal(action.NameEnd, c.runEnd),
	}
	return c
}

func (c *Controller) newInternal(name string, fn handler.BoolFunc) *action.Action {
	return action.New(name, c.namespace, fn, action.WithController(c.name), action.Private())
}

// Name returns the controller name.
func (c *Controller) Name() string { return c.name }

// Namespace returns the controller namespace.
func (c *Controller) Namespace() string { return c.namespace }

// Handle declares an action in the controller namespace.
func (c *Controller) Handle(name string, h handler.Handler, opts ...action.Option) *action.Action {
	opts = append([]action.Option{action.WithController(c.name)}, opts...)
	a := action.New(name, c.namespace, h, opts...)
	c.actions = append(c.actions, a)
	return a
}

// HandleFunc declares an action backed by fn.
func (c *Controller) HandleFunc(name string, fn handler.Func, opts ...action.Option) *action.Action {
	return c.Handle(name, fn, opts...)
}

// Begin declares the Begin hook, run before Auto and the action.
func (c *Controller) Begin(h handler.Handler) *action.Action {
	return c.Handle(BeginName, h, action.Private())
}

// Auto declares the Auto hook. Every visible Auto runs, root first; a
// failing Auto skips the action.
func (c *Controller) Auto(h handler.Handler) *action.Action {
	return c.Handle(AutoName, h, action.Private())
}

// End declares the End hook, run after the action even when it failed.
func (c *Controller) End(h handler.Handler) *action.Action {
	return c.Handle(EndName, h, action.Private())
}

// Actions returns the declared actions followed by the lifecycle actions.
func (c *Controller) Actions() []*action.Action {
	out := make([]*action.Action, 0, len(c.actions)+len(c.internal))
	out = append(out, c.actions...)
	return append(out, c.internal...)
}

// SetupFinished resolves the Begin, Auto and End hooks visible from the
// controller namespace.
func (c *Controller) SetupFinished(lookup action.Lookup) error {
	if begins := lookup.GetActions(BeginName, c.namespace); len(begins) > 0 {
		c.begin = begins[0]
	}

	autos := lookup.GetActions(AutoName, c.namespace)
	c.autos = make([]*action.Action, 0, len(autos))
	for i := len(autos) - 1; i >= 0; i-- {
		c.autos = append(c.autos, autos[i])
	}

	if ends := lookup.GetActions(EndName, c.namespace); len(ends) > 0 {
		c.end = ends[0]
	}
	return nil
}

// dispatch runs _BEGIN, _AUTO and _ACTION, stopping at the first failure,
// then _END.
func (c *Controller) dispatch(ctx *execctx.ExecutionContext) bool {
	ok := true
	for _, a := range c.internal[1:4] {
		if !ctx.Execute(a) {
			ok = false
			break
		}
	}
	endOK := ctx.Execute(c.internal[4])
	return ok && endOK
}

func (c *Controller) runBegin(ctx *execctx.ExecutionContext) bool {
	if c.begin == nil {
		return true
	}
	return ctx.Execute(c.begin)
}

func (c *Controller) runAuto(ctx *execctx.ExecutionContext) bool {
	for _, a := range c.autos {
		if !ctx.Execute(a) {
			return false
		}
	}
	return true
}

func (c *Controller) runAction(ctx *execctx.ExecutionContext) bool {
	a := ctx.Action()
	if a == nil {
		return false
	}
	return ctx.Execute(a)
}

func (c *Controller) runEnd(ctx *execctx.ExecutionContext) bool {
	if c.end == nil {
		return true
	}
	return ctx.Execute(c.end)
}
