package dispatcher

import (
	"errors"
	"fmt"
	"strings"

	"github.com/dshills/switchyard/internal/dispatcher/action"
	"github.com/dshills/switchyard/internal/dispatcher/execctx"
	"github.com/dshills/switchyard/internal/dispatcher/namespace"
)

// CleanNamespace collapses separator runs and strips a leading separator.
func CleanNamespace(ns string) string {
	return namespace.Clean(ns)
}

// Forward resolves name and executes it on the current context.
// A name that is not a reverse id is treated as a path, relative to the
// namespace of the running component unless it starts with "/".
func (d *Dispatcher) Forward(ctx *execctx.ExecutionContext, name string) bool {
	a, err := d.ActionFor(ctx, name)
	if err != nil {
		d.logger.Error("action not found",
			"request_id", ctx.ID.String(),
			"name", name,
		)
		ctx.AddError(err)
		return false
	}
	return ctx.Execute(a)
}

// ForwardTo executes c on the current context.
func (d *Dispatcher) ForwardTo(ctx *execctx.ExecutionContext, c execctx.Component) bool {
	if c == nil {
		return false
	}
	return ctx.Execute(c)
}

// ActionFor resolves name without executing it.
func (d *Dispatcher) ActionFor(ctx *execctx.ExecutionContext, name string) (*action.Action, error) {
	if name == "" {
		return nil, fmt.Errorf("%w: empty name", ErrActionNotFound)
	}
	if a, ok := d.registry.Lookup(name); ok {
		return a, nil
	}
	if a, ok := d.invokeAsPath(ctx, name); ok {
		return a, nil
	}
	return nil, fmt.Errorf("%w: %s", ErrActionNotFound, name)
}

// invokeAsPath tries the last segment of the absolute path as the action
// name and the rest as its namespace, dropping trailing segments until a
// lookup succeeds or nothing is left.
func (d *Dispatcher) invokeAsPath(ctx *execctx.ExecutionContext, rel string) (*action.Action, bool) {
	path := d.rel2abs(ctx, rel)
	for path != "" {
		pos := strings.LastIndexByte(path, '/')
		if pos < 0 {
			return d.GetAction(path, "")
		}
		if a, ok := d.GetAction(path[pos+1:], path[:pos]); ok {
			return a, true
		}
		path = path[:pos]
	}
	return nil, false
}

// rel2abs makes path absolute against the namespace of the component on top
// of the stack (or the resolved action) and strips the leading separator.
func (d *Dispatcher) rel2abs(ctx *execctx.ExecutionContext, path string) string {
	if !strings.HasPrefix(path, "/") {
		ns := ""
		if c := ctx.Current(); c != nil {
			ns = c.Namespace()
		} else if a := ctx.Action(); a != nil {
			ns = a.Namespace()
		}
		path = ns + "/" + path
	}
	return strings.TrimPrefix(path, "/")
}

// GetAction returns the action named name in exactly namespace ns.
// There is no fallback to ancestor namespaces.
func (d *Dispatcher) GetAction(name, ns string) (*action.Action, bool) {
	if name == "" {
		return nil, false
	}
	return d.registry.Lookup(namespace.Join(namespace.Clean(ns), name))
}

// GetActionByPath returns the action with the given private path, e.g.
// "/users/list". A path without separator names a root action.
func (d *Dispatcher) GetActionByPath(path string) (*action.Action, bool) {
	ns, name := namespace.Split(path)
	return d.GetAction(name, ns)
}

// GetActions returns every action named name visible from ns, most specific
// namespace first and the root last.
func (d *Dispatcher) GetActions(name, ns string) []*action.Action {
	if name == "" {
		return nil
	}
	var out []*action.Action
	for _, a := range d.registry.Containers(namespace.Clean(ns)) {
		if a.Name() == name {
			out = append(out, a)
		}
	}
	return out
}

func isPanic(err error) bool {
	return errors.Is(err, execctx.ErrPanic)
}
