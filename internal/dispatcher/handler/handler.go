// Package handler provides the handler interface and result types for
// dispatched actions.
package handler

import (
	"github.com/dshills/switchyard/internal/dispatcher/execctx"
)

// Handler runs the body of an action.
type Handler interface {
	// Handle executes the action and returns a result.
	Handle(ctx *execctx.ExecutionContext) Result
}

// Func is a function adapter for the Handler interface.
type Func func(ctx *execctx.ExecutionContext) Result

// Handle implements Handler.Handle.
func (f Func) Handle(ctx *execctx.ExecutionContext) Result {
	if f == nil {
		return Errorf("handler function is nil")
	}
	return f(ctx)
}

// BoolFunc adapts a function reporting plain success.
type BoolFunc func(ctx *execctx.ExecutionContext) bool

// Handle implements Handler.Handle.
func (f BoolFunc) Handle(ctx *execctx.ExecutionContext) Result {
	if f == nil {
		return Errorf("handler function is nil")
	}
	return FromBool(f(ctx))
}

// Nop returns a handler that does nothing and succeeds.
func Nop() Handler {
	return Func(func(*execctx.ExecutionContext) Result {
		return NoOp()
	})
}

// Respond returns a handler that writes body with the given status code.
// A zero status leaves the response status untouched.
func Respond(status int, body string) Handler {
	return Func(func(ctx *execctx.ExecutionContext) Result {
		resp := ctx.Response()
		if resp == nil {
			return NoOp()
		}
		if status != 0 {
			resp.SetStatus(status)
		}
		if _, err := resp.Write([]byte(body)); err != nil {
			return Error(err)
		}
		return Success()
	})
}
