// Package action defines the actions the dispatcher registers, matches and runs.
//
// An action is an immutable record: a name inside a namespace, the name of
// the controller that declared it, a set of string attributes that tell
// dispatch strategies how to match it, and the handler that does the work.
// Its reverse id, namespace + "/" + name, is unique across a dispatcher.
package action

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/dshills/switchyard/internal/dispatcher/execctx"
	"github.com/dshills/switchyard/internal/dispatcher/handler"
	"github.com/dshills/switchyard/internal/dispatcher/namespace"
)

// Attribute names understood by the dispatcher and its strategies.
const (
	AttrPath        = "Path"
	AttrChained     = "Chained"
	AttrPathPart    = "PathPart"
	AttrCaptureArgs = "CaptureArgs"
	AttrArgs        = "Args"
	AttrPrivate     = "Private"
)

// Reserved lifecycle action names generated for every controller.
const (
	NameDispatch = "_DISPATCH"
	NameBegin    = "_BEGIN"
	NameAuto     = "_AUTO"
	NameAction   = "_ACTION"
	NameEnd      = "_END"
)

// Unlimited is the argument count of an action without an Args limit.
const Unlimited = -1

// ErrArgumentCount indicates a resolved action was invoked with a number of
// arguments its Args attribute does not accept.
var ErrArgumentCount = errors.New("action: wrong number of arguments")

// IsReserved reports whether name is a lifecycle action name.
func IsReserved(name string) bool {
	switch name {
	case NameDispatch, NameBegin, NameAuto, NameAction, NameEnd:
		return true
	}
	return false
}

// Attributes maps an attribute name to its values.
type Attributes map[string][]string

// Has reports whether the attribute is present, with or without values.
func (a Attributes) Has(name string) bool {
	_, ok := a[name]
	return ok
}

// Value returns the first value of the attribute, or "".
func (a Attributes) Value(name string) string {
	if v := a[name]; len(v) > 0 {
		return v[0]
	}
	return ""
}

// Values returns a copy of the attribute values.
func (a Attributes) Values(name string) []string {
	v, ok := a[name]
	if !ok {
		return nil
	}
	out := make([]string, len(v))
	copy(out, v)
	return out
}

// Clone returns a deep copy.
func (a Attributes) Clone() Attributes {
	out := make(Attributes, len(a))
	for k, v := range a {
		vv := make([]string, len(v))
		copy(vv, v)
		out[k] = vv
	}
	return out
}

// Option configures an action at construction.
type Option func(*Action)

// WithController records the name of the declaring controller.
func WithController(name string) Option {
	return func(a *Action) {
		a.controller = name
	}
}

// WithAttribute appends values to an attribute. Calling it without values
// marks the attribute as present.
func WithAttribute(name string, values ...string) Option {
	return func(a *Action) {
		a.attrs[name] = append(a.attrs[name], values...)
	}
}

// WithPath adds Path attribute values.
func WithPath(paths ...string) Option {
	return WithAttribute(AttrPath, paths...)
}

// WithArgs limits the action to exactly n arguments.
func WithArgs(n int) Option {
	return WithAttribute(AttrArgs, strconv.Itoa(n))
}

// WithChained chains the action to parent, given as a private path
// ("/users/base"), a name relative to the action namespace, or "/" for the root.
func WithChained(parent string) Option {
	return WithAttribute(AttrChained, parent)
}

// WithPathPart sets the path segment(s) the action consumes in a chain.
func WithPathPart(part string) Option {
	return WithAttribute(AttrPathPart, part)
}

// WithCaptureArgs makes the action a chain link capturing n segments.
func WithCaptureArgs(n int) Option {
	return WithAttribute(AttrCaptureArgs, strconv.Itoa(n))
}

// Private hides the action from every strategy; it is reachable by name only.
func Private() Option {
	return WithAttribute(AttrPrivate)
}

// Action is an immutable dispatch target.
type Action struct {
	name       string
	namespace  string
	controller string
	attrs      Attributes
	handler    handler.Handler

	numArgs     int
	numCaptures int
}

// New creates an action named name inside ns. A nil handler succeeds
// without doing anything.
func New(name, ns string, h handler.Handler, opts ...Option) *Action {
	a := &Action{
		name:      name,
		namespace: namespace.Trim(ns),
		attrs:     make(Attributes),
		handler:   h,
		numArgs:   Unlimited,
	}
	for _, opt := range opts {
		opt(a)
	}

	if v := a.attrs.Value(AttrArgs); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 0 {
			a.numArgs = n
		}
	}
	if v := a.attrs.Value(AttrCaptureArgs); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 0 {
			a.numCaptures = n
		}
	}
	return a
}

// Name returns the action name.
func (a *Action) Name() string { return a.name }

// Namespace returns the action namespace without leading or trailing separator.
func (a *Action) Namespace() string { return a.namespace }

// Controller returns the name of the declaring controller.
func (a *Action) Controller() string { return a.controller }

// Reverse returns namespace + "/" + name.
func (a *Action) Reverse() string {
	return namespace.Join(a.namespace, a.name)
}

// PrivatePath returns the reverse id with exactly one leading separator.
func (a *Action) PrivatePath() string {
	if a.namespace == "" {
		return a.Reverse()
	}
	return "/" + a.Reverse()
}

// Attributes returns a copy of the attributes.
func (a *Action) Attributes() Attributes {
	return a.attrs.Clone()
}

// Attribute returns the first value of an attribute and whether it is present.
func (a *Action) Attribute(name string) (string, bool) {
	if !a.attrs.Has(name) {
		return "", false
	}
	return a.attrs.Value(name), true
}

// AttributeValues returns a copy of all values of an attribute.
func (a *Action) AttributeValues(name string) []string {
	return a.attrs.Values(name)
}

// HasAttribute reports whether the attribute is present.
func (a *Action) HasAttribute(name string) bool {
	return a.attrs.Has(name)
}

// IsPrivate reports whether the action carries the Private attribute.
func (a *Action) IsPrivate() bool {
	return a.attrs.Has(AttrPrivate)
}

// NumberOfArgs returns the accepted argument count, or Unlimited.
func (a *Action) NumberOfArgs() int { return a.numArgs }

// NumberOfCaptures returns how many segments a chain link captures.
func (a *Action) NumberOfCaptures() int { return a.numCaptures }

// Match reports whether the action accepts n arguments.
func (a *Action) Match(n int) bool {
	return a.numArgs == Unlimited || a.numArgs == n
}

// Call runs the handler. When the action is the context's resolved action
// its argument count is checked first.
func (a *Action) Call(ctx *execctx.ExecutionContext) bool {
	if ctx.Action() == execctx.Component(a) && !a.checkArgs(ctx) {
		return false
	}
	if a.handler == nil {
		return true
	}

	result := a.handler.Handle(ctx)
	if result.Error != nil {
		ctx.AddError(result.Error)
	}
	return result.Succeeded()
}

func (a *Action) checkArgs(ctx *execctx.ExecutionContext) bool {
	if n := len(ctx.Args()); !a.Match(n) {
		ctx.AddError(fmt.Errorf("%w: %s takes %d, got %d", ErrArgumentCount, a.Reverse(), a.numArgs, n))
		return false
	}
	return true
}

// Dispatch executes the action through the context's execution stack.
func (a *Action) Dispatch(ctx *execctx.ExecutionContext) bool {
	return ctx.Execute(a)
}

// String returns the reverse id.
func (a *Action) String() string {
	return a.Reverse()
}

// Lookup resolves actions by name. The dispatcher implements it and hands it
// to controllers once setup is done.
type Lookup interface {
	// GetAction returns the action named name in exactly namespace ns.
	GetAction(name, ns string) (*Action, bool)

	// GetActions returns every action named name visible from ns, most
	// specific namespace first.
	GetActions(name, ns string) []*Action
}
