package script_test

import (
	"context"
	"errors"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/dshills/switchyard/internal/dispatcher/execctx"
	"github.com/dshills/switchyard/internal/dispatcher/handler"
	"github.com/dshills/switchyard/internal/script"
)

type stubForwarder struct {
	names  []string
	result bool
}

func (f *stubForwarder) Forward(_ *execctx.ExecutionContext, name string) bool {
	f.names = append(f.names, name)
	return f.result
}

func newCtx(path string, args ...string) (*execctx.ExecutionContext, *execctx.Recorder) {
	req := execctx.NewRequest("GET", path)
	req.Args = args
	rec := execctx.NewRecorder()
	return execctx.NewWithContext(context.Background(), req, rec), rec
}

func mustCompile(t *testing.T, src string, opts ...script.Option) *script.Script {
	t.Helper()
	s, err := script.CompileString(t.Name(), src, opts...)
	if err != nil {
		t.Fatalf("CompileString: %v", err)
	}
	return s
}

func TestCompileError(t *testing.T) {
	_, err := script.CompileString("broken", `this is not lua (`)
	if !errors.Is(err, script.ErrCompile) {
		t.Fatalf("expected ErrCompile, got %v", err)
	}

	var se *script.Error
	if !errors.As(err, &se) || se.Script != "broken" {
		t.Errorf("expected *Error naming the script, got %v", err)
	}
}

func TestCompileFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "hello.lua")
	if err := os.WriteFile(path, []byte(`return "hi"`), 0o644); err != nil {
		t.Fatal(err)
	}

	s, err := script.CompileFile(path)
	if err != nil {
		t.Fatalf("CompileFile: %v", err)
	}
	if s.Name() != path {
		t.Errorf("Name() = %q, want %q", s.Name(), path)
	}

	if _, err := script.CompileFile(filepath.Join(t.TempDir(), "missing.lua")); err == nil {
		t.Error("expected an error for a missing file")
	}
}

func TestResults(t *testing.T) {
	tests := []struct {
		name   string
		src    string
		status handler.ResultStatus
		body   string
	}{
		{"no return", `local x = 1`, handler.StatusOK, ""},
		{"true", `return true`, handler.StatusOK, ""},
		{"string", `return "hello " .. args[1]`, handler.StatusOK, "hello world"},
		{"false", `return false`, handler.StatusCancelled, ""},
		{"number", `return 42`, handler.StatusOK, ""},
		{"error", `error("boom")`, handler.StatusError, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := mustCompile(t, tt.src)
			ctx, rec := newCtx("hello/world", "world")

			result := s.Handle(ctx)
			if result.Status != tt.status {
				t.Errorf("status = %v, want %v (%v)", result.Status, tt.status, result.Error)
			}
			if rec.String() != tt.body {
				t.Errorf("body = %q, want %q", rec.String(), tt.body)
			}
		})
	}
}

func TestRuntimeError(t *testing.T) {
	s := mustCompile(t, `error("boom")`)
	ctx, _ := newCtx("")

	result := s.Handle(ctx)
	if !errors.Is(result.Error, script.ErrRuntime) {
		t.Fatalf("expected ErrRuntime, got %v", result.Error)
	}
	if !strings.Contains(result.Error.Error(), "boom") {
		t.Errorf("error should carry the Lua message: %v", result.Error)
	}

	// The pool must still hand out usable states after a failure.
	ok := mustCompile(t, `return "ok"`)
	ctx, rec := newCtx("")
	if r := ok.Handle(ctx); !r.IsOK() || rec.String() != "ok" {
		t.Errorf("follow-up run failed: %v %q", r.Error, rec.String())
	}
}

func TestRequestGlobals(t *testing.T) {
	s := mustCompile(t, `
		write(method, " ", path, " ", match, "|")
		write(#args, ":", args[1], ",", args[2], "|")
		write(captures[1], "|")
		write(query.q, "|")
		write(request_id)
	`)

	req := execctx.NewRequest("POST", "users/7/view/a/b")
	req.Match = "users/7/view"
	req.Args = []string{"a", "b"}
	req.Captures = []string{"7"}
	req.Query = url.Values{"q": {"search", "ignored"}}
	rec := execctx.NewRecorder()
	ctx := execctx.NewWithContext(context.Background(), req, rec)

	if r := s.Handle(ctx); !r.IsOK() {
		t.Fatalf("Handle: %v", r.Error)
	}

	want := "POST users/7/view/a/b users/7/view|2:a,b|7|search|" + ctx.ID.String()
	if rec.String() != want {
		t.Errorf("body = %q, want %q", rec.String(), want)
	}
}

func TestArgsFollowExecutionFrame(t *testing.T) {
	s := mustCompile(t, `return table.concat(args, ",")`)
	ctx, rec := newCtx("", "real")

	comp := &scriptComponent{s: s}
	if !ctx.ExecuteWithArgs(comp, []string{"c1", "c2"}) {
		t.Fatalf("execute failed: %v", ctx.Errors())
	}
	if rec.String() != "c1,c2" {
		t.Errorf("body = %q, want captures as args", rec.String())
	}
}

type scriptComponent struct {
	s *script.Script
}

func (c *scriptComponent) Name() string      { return "link" }
func (c *scriptComponent) Namespace() string { return "" }
func (c *scriptComponent) Reverse() string   { return "/link" }
func (c *scriptComponent) Call(ctx *execctx.ExecutionContext) bool {
	return c.s.Handle(ctx).Succeeded()
}

func TestStatus(t *testing.T) {
	s := mustCompile(t, `status(201)`)
	ctx, rec := newCtx("")

	s.Handle(ctx)
	if rec.Code != 201 {
		t.Errorf("Code = %d, want 201", rec.Code)
	}
}

func TestForward(t *testing.T) {
	fwd := &stubForwarder{result: true}
	s := mustCompile(t, `if forward("/users/list") then return "forwarded" end return false`,
		script.WithForwarder(fwd))
	ctx, rec := newCtx("")

	if r := s.Handle(ctx); !r.IsOK() {
		t.Fatalf("Handle: %v", r.Error)
	}
	if len(fwd.names) != 1 || fwd.names[0] != "/users/list" {
		t.Errorf("forwarded names = %v", fwd.names)
	}
	if rec.String() != "forwarded" {
		t.Errorf("body = %q", rec.String())
	}

	noFwd := mustCompile(t, `forward("x")`)
	ctx, _ = newCtx("")
	if r := noFwd.Handle(ctx); !errors.Is(r.Error, script.ErrRuntime) ||
		!strings.Contains(r.Error.Error(), script.ErrNoForwarder.Error()) {
		t.Errorf("expected forward without forwarder to fail, got %v", r.Error)
	}
}

func TestData(t *testing.T) {
	set := mustCompile(t, `set("user", "alice") set("visits", 3) set("admin", true)`)
	get := mustCompile(t, `return get("user") .. ":" .. get("visits") .. ":" .. tostring(get("admin")) .. ":" .. tostring(get("missing"))`)

	ctx, rec := newCtx("")
	set.Handle(ctx)

	if ctx.GetDataString("user") != "alice" {
		t.Errorf("user = %q", ctx.GetDataString("user"))
	}
	if r := get.Handle(ctx); !r.IsOK() {
		t.Fatalf("Handle: %v", r.Error)
	}
	if rec.String() != "alice:3:true:nil" {
		t.Errorf("body = %q", rec.String())
	}
}

func TestGlobalsDoNotLeakBetweenRuns(t *testing.T) {
	tests := []struct {
		name string
		src  string
	}{
		{"global", `
			if leaked then return "leaked" end
			leaked = true
			return "clean"`},
		{"_G", `
			if _G.leaked or leaked then return "leaked" end
			_G.leaked = true
			return "clean"`},
		{"rawset _G", `
			if leaked then return "leaked" end
			rawset(_G, "leaked", true)
			return "clean"`},
		{"string library", `
			if string.upper("a") ~= "A" or ("a"):upper() ~= "A" then return "leaked" end
			string.upper = function() return "x" end
			rawset(string, "lower", nil)
			return "clean"`},
		{"table library", `
			if table.concat({"a", "b"}) ~= "ab" then return "leaked" end
			table.concat = nil
			return "clean"`},
		{"math library", `
			if math.pi ~= math.pi or type(math.floor) ~= "function" then return "leaked" end
			math.floor = nil
			math.pi = 3
			return "clean"`},
		{"base function", `
			if type(print) ~= "function" then return "leaked" end
			print = nil
			return "clean"`},
		{"string metatable", `
			if getmetatable("") ~= false then return "leaked" end
			return "clean"`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := mustCompile(t, tt.src)
			for i := 0; i < 3; i++ {
				ctx, rec := newCtx("")
				if result := s.Handle(ctx); !result.Succeeded() {
					t.Fatalf("run %d: %v", i, result.Error)
				}
				if rec.String() != "clean" {
					t.Fatalf("run %d: body = %q", i, rec.String())
				}
			}
		})
	}
}

func TestLibraryWritesDoNotReachOtherScripts(t *testing.T) {
	writer := mustCompile(t, `string.upper = function() return "x" end; _G.shared = 1`)
	reader := mustCompile(t, `return string.upper("a") .. tostring(shared)`)

	for i := 0; i < 3; i++ {
		ctx, _ := newCtx("")
		writer.Handle(ctx)

		ctx, rec := newCtx("")
		reader.Handle(ctx)
		if rec.String() != "Anil" {
			t.Fatalf("run %d: body = %q", i, rec.String())
		}
	}
}

func TestSandbox(t *testing.T) {
	for _, name := range []string{"dofile", "loadfile", "load", "loadstring", "require", "getfenv", "setfenv", "os", "io", "debug"} {
		t.Run(name, func(t *testing.T) {
			s := mustCompile(t, `return tostring(`+name+` == nil)`)
			ctx, rec := newCtx("")
			s.Handle(ctx)
			if rec.String() != "true" {
				t.Errorf("%s should not be available", name)
			}
		})
	}
}

func TestTimeout(t *testing.T) {
	s := mustCompile(t, `while true do end`, script.WithTimeout(20*time.Millisecond))
	ctx, _ := newCtx("")

	result := s.Handle(ctx)
	if !errors.Is(result.Error, script.ErrTimeout) {
		t.Errorf("expected ErrTimeout, got %v", result.Error)
	}
}

func TestRequestCancellation(t *testing.T) {
	s := mustCompile(t, `while true do end`, script.WithTimeout(0))

	cctx, cancel := context.WithCancel(context.Background())
	ctx := execctx.NewWithContext(cctx, execctx.NewRequest("GET", ""), nil)
	time.AfterFunc(20*time.Millisecond, cancel)

	result := s.Handle(ctx)
	if !errors.Is(result.Error, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", result.Error)
	}
}
