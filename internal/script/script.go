package script

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"sync"
	"time"

	lua "github.com/yuin/gopher-lua"
	"github.com/yuin/gopher-lua/parse"

	"github.com/dshills/switchyard/internal/dispatcher/execctx"
	"github.com/dshills/switchyard/internal/dispatcher/handler"
)

// Forwarder runs another action by name on the same execution context.
type Forwarder interface {
	Forward(ctx *execctx.ExecutionContext, name string) bool
}

// Option configures a Script.
type Option func(*Script)

// WithTimeout bounds each run. Zero disables the bound; the request
// context still cancels the run.
func WithTimeout(d time.Duration) Option {
	return func(s *Script) {
		s.timeout = d
	}
}

// WithForwarder enables forward(name) inside the script.
func WithForwarder(f Forwarder) Option {
	return func(s *Script) {
		s.forwarder = f
	}
}

// WithLogger sets the logger behind log(msg).
func WithLogger(logger *slog.Logger) Option {
	return func(s *Script) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// Script is a compiled Lua chunk usable as an action handler.
//
// The chunk is compiled once. Each run takes a Lua state from a pool and
// executes the chunk with a fresh global environment, so assignments made by
// one request are not visible to the next. A Script is safe for concurrent use.
type Script struct {
	name      string
	proto     *lua.FunctionProto
	timeout   time.Duration
	forwarder Forwarder
	logger    *slog.Logger
	states    sync.Pool
}

// Compile parses and compiles the Lua source read from r.
func Compile(name string, r io.Reader, opts ...Option) (*Script, error) {
	chunk, err := parse.Parse(r, name)
	if err != nil {
		return nil, &Error{Script: name, Err: fmt.Errorf("%w: %v", ErrCompile, err)}
	}
	proto, err := lua.Compile(chunk, name)
	if err != nil {
		return nil, &Error{Script: name, Err: fmt.Errorf("%w: %v", ErrCompile, err)}
	}

	s := &Script{
		name:    name,
		proto:   proto,
		timeout: DefaultTimeout,
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.states.New = func() any {
		return newState()
	}
	return s, nil
}

// CompileString compiles inline Lua source.
func CompileString(name, src string, opts ...Option) (*Script, error) {
	return Compile(name, strings.NewReader(src), opts...)
}

// CompileFile compiles the Lua file at path.
func CompileFile(path string, opts ...Option) (*Script, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, &Error{Script: path, Err: err}
	}
	defer f.Close()

	return Compile(path, bufio.NewReader(f), opts...)
}

// Name returns the chunk name used in error messages.
func (s *Script) Name() string {
	return s.name
}

// Handle implements handler.Handler.
//
// The chunk sees method, path, match, args, captures, query and request_id,
// plus the functions write, status, forward, log, get and set. Returning
// false cancels the action; returning a string writes it to the response.
func (s *Script) Handle(ctx *execctx.ExecutionContext) handler.Result {
	L := s.states.Get().(*lua.LState)

	runCtx := ctx.Context()
	if s.timeout > 0 {
		var cancel context.CancelFunc
		runCtx, cancel = context.WithTimeout(runCtx, s.timeout)
		defer cancel()
	}
	L.SetContext(runCtx)

	fn := L.NewFunctionFromProto(s.proto)
	fn.Env = s.environment(L, ctx)

	L.Push(fn)
	err := L.PCall(0, 1, nil)
	L.RemoveContext()

	if err != nil {
		// A state interrupted mid-call is not reused.
		L.Close()
		return handler.Error(&Error{Script: s.name, Err: s.runError(runCtx, err)})
	}

	ret := L.Get(-1)
	L.SetTop(0)
	s.states.Put(L)

	switch v := ret.(type) {
	case lua.LBool:
		if !bool(v) {
			return handler.Cancelled()
		}
	case lua.LString:
		if resp := ctx.Response(); resp != nil {
			if _, err := io.WriteString(resp, string(v)); err != nil {
				return handler.Error(&Error{Script: s.name, Err: err})
			}
		}
	}
	return handler.Success()
}

func (s *Script) runError(runCtx context.Context, err error) error {
	switch cerr := runCtx.Err(); {
	case errors.Is(cerr, context.DeadlineExceeded):
		return ErrTimeout
	case cerr != nil:
		return fmt.Errorf("%w: %w", ErrRuntime, cerr)
	}
	return fmt.Errorf("%w: %v", ErrRuntime, err)
}

// environment builds the per-run globals table. It starts as a copy of the
// state's globals with every library table copied one level deep, so writes
// through _G or a library table stay inside the run.
func (s *Script) environment(L *lua.LState, ctx *execctx.ExecutionContext) *lua.LTable {
	req := ctx.Request()

	env := L.CreateTable(0, 64)
	L.G.Global.ForEach(func(k, v lua.LValue) {
		if t, ok := v.(*lua.LTable); ok && t != L.G.Global {
			v = copyTable(L, t)
		}
		env.RawSet(k, v)
	})
	env.RawSetString("_G", env)

	env.RawSetString("method", lua.LString(req.Method))
	env.RawSetString("path", lua.LString(req.Path))
	env.RawSetString("match", lua.LString(req.Match))
	env.RawSetString("args", stringTable(L, ctx.Args()))
	env.RawSetString("captures", stringTable(L, req.Captures))
	env.RawSetString("query", queryTable(L, req.Query))
	env.RawSetString("request_id", lua.LString(ctx.ID.String()))

	env.RawSetString("write", L.NewFunction(func(L *lua.LState) int {
		resp := ctx.Response()
		if resp == nil {
			return 0
		}
		for i := 1; i <= L.GetTop(); i++ {
			if _, err := io.WriteString(resp, L.ToStringMeta(L.Get(i)).String()); err != nil {
				L.RaiseError("write: %v", err)
			}
		}
		return 0
	}))

	env.RawSetString("status", L.NewFunction(func(L *lua.LState) int {
		code := L.CheckInt(1)
		if resp := ctx.Response(); resp != nil {
			resp.SetStatus(code)
		}
		return 0
	}))

	env.RawSetString("forward", L.NewFunction(func(L *lua.LState) int {
		name := L.CheckString(1)
		if s.forwarder == nil {
			L.RaiseError("%v", ErrNoForwarder)
			return 0
		}
		L.Push(lua.LBool(s.forwarder.Forward(ctx, name)))
		return 1
	}))

	env.RawSetString("log", L.NewFunction(func(L *lua.LState) int {
		s.logger.Info(L.CheckString(1),
			"script", s.name,
			"request_id", ctx.ID.String(),
		)
		return 0
	}))

	env.RawSetString("get", L.NewFunction(func(L *lua.LState) int {
		v, ok := ctx.GetData(L.CheckString(1))
		if !ok {
			L.Push(lua.LNil)
			return 1
		}
		switch val := v.(type) {
		case string:
			L.Push(lua.LString(val))
		case int:
			L.Push(lua.LNumber(val))
		case float64:
			L.Push(lua.LNumber(val))
		case bool:
			L.Push(lua.LBool(val))
		default:
			L.Push(lua.LString(fmt.Sprint(val)))
		}
		return 1
	}))

	env.RawSetString("set", L.NewFunction(func(L *lua.LState) int {
		key := L.CheckString(1)
		switch v := L.Get(2).(type) {
		case lua.LString:
			ctx.SetData(key, string(v))
		case lua.LNumber:
			ctx.SetData(key, float64(v))
		case lua.LBool:
			ctx.SetData(key, bool(v))
		default:
			ctx.SetData(key, L.ToStringMeta(v).String())
		}
		return 0
	}))

	return env
}
