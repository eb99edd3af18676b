package dispatcher

import (
	"fmt"
	"strings"
	"time"

	"github.com/dshills/switchyard/internal/dispatcher/action"
	"github.com/dshills/switchyard/internal/dispatcher/execctx"
	"github.com/dshills/switchyard/internal/dispatcher/strategy"
)

// PrepareAction resolves the request path to an action.
//
// The cursor starts at the end of the raw path and walks left one separator
// at a time. At each step every strategy is asked, in order, to match the
// prefix with the segments peeled so far as arguments; the first ExactMatch
// wins. Peeled segments are percent-decoded. If nothing matches, the
// context action stays nil.
func (d *Dispatcher) PrepareAction(ctx *execctx.ExecutionContext) {
	path := ctx.Request().Path
	segments := strings.Split(path, "/")

	var args []string
	for pos := len(path); ; {
		if d.match(ctx, path[:pos], args) {
			break
		}
		if pos <= 0 {
			break
		}

		pos = strings.LastIndexByte(path[:pos], '/')
		if pos < 0 {
			pos = 0
		}
		last := segments[len(segments)-1]
		segments = segments[:len(segments)-1]
		args = append([]string{strategy.Unescape(last)}, args...)
	}

	if a := ctx.Action(); a != nil {
		req := ctx.Request()
		d.logger.Debug("path resolved",
			"request_id", ctx.ID.String(),
			"path", path,
			"match", req.Match,
			"action", a.Reverse(),
			"args", req.Args,
			"captures", req.Captures,
		)
	}
}

func (d *Dispatcher) match(ctx *execctx.ExecutionContext, path string, args []string) bool {
	if !d.setupDone {
		return false
	}
	for _, s := range d.strategies {
		if s.Match(ctx, path, args) == strategy.ExactMatch {
			return true
		}
	}
	return false
}

// Resolve runs PrepareAction and returns the resolved component, or
// ErrNoMatch.
func (d *Dispatcher) Resolve(ctx *execctx.ExecutionContext) (execctx.Component, error) {
	d.PrepareAction(ctx)
	if a := ctx.Action(); a != nil {
		return a, nil
	}
	return nil, fmt.Errorf("%w: %q", ErrNoMatch, ctx.Request().Path)
}

// Dispatch runs the resolved action through its controller's lifecycle
// chain by forwarding to the namespace's _DISPATCH action. Pre-dispatch
// hooks may cancel the request; post-dispatch hooks always run.
func (d *Dispatcher) Dispatch(ctx *execctx.ExecutionContext) bool {
	start := time.Now()

	ok := false
	if d.hookManager.RunPreDispatch(ctx) {
		ok = d.dispatchResolved(ctx)
	} else if !ctx.HasErrors() {
		ctx.AddError(ErrActionCancelled)
	}

	d.hookManager.RunPostDispatch(ctx, ok)
	d.recordMetrics(ctx, time.Since(start), ok)
	return ok
}

func (d *Dispatcher) dispatchResolved(ctx *execctx.ExecutionContext) bool {
	if a := ctx.Action(); a != nil {
		return d.Forward(ctx, "/"+a.Namespace()+"/"+action.NameDispatch)
	}

	if path := ctx.Request().Path; path != "" {
		ctx.Error(fmt.Sprintf("Unknown resource \"%s\".", path))
	} else {
		ctx.Error("No default action defined")
	}
	return false
}

func (d *Dispatcher) recordMetrics(ctx *execctx.ExecutionContext, elapsed time.Duration, ok bool) {
	if d.metrics == nil {
		return
	}

	a := ctx.Action()
	if a == nil {
		d.metrics.recordNoMatch(elapsed)
		return
	}

	panics := 0
	for _, err := range ctx.Errors() {
		if isPanic(err) {
			panics++
		}
	}
	d.metrics.record(a.Reverse(), elapsed, ok, panics)
}
