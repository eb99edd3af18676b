// Package execctx provides the per-request execution context for dispatched actions.
package execctx

import (
	"context"
	"fmt"
	"net/url"
	"runtime"

	"github.com/google/uuid"
)

// DefaultMaxDepth is the execution stack depth at which Execute refuses to
// go deeper.
const DefaultMaxDepth = 1000

// Component is anything the execution context can run: a single action or a
// chain of actions.
type Component interface {
	// Name returns the component name.
	Name() string

	// Namespace returns the namespace the component lives in.
	Namespace() string

	// Reverse returns the unique "namespace/name" identifier.
	Reverse() string

	// Call runs the component and reports success.
	Call(ctx *ExecutionContext) bool
}

// Request holds the request-scoped resolution state.
// Resolution writes Match, Args and Captures once; they are read-only afterwards.
type Request struct {
	// Method is the transport verb, if any.
	Method string

	// Path is the raw request path without a leading separator.
	Path string

	// Match is the path prefix the resolved action consumed.
	Match string

	// Args are the decoded trailing segments, left to right.
	Args []string

	// Captures are the decoded chain captures, root-most first.
	Captures []string

	// Query holds the decoded query string.
	Query url.Values
}

// NewRequest creates a request for the given method and raw path.
func NewRequest(method, path string) *Request {
	return &Request{
		Method: method,
		Path:   path,
		Query:  url.Values{},
	}
}

// Response is the output collaborator handlers write to.
type Response interface {
	Write(p []byte) (int, error)
	SetStatus(code int)
}

type frame struct {
	component Component
	args      []string
	override  bool
}

// ExecutionContext carries one request through resolution and execution.
// It is owned by a single goroutine.
type ExecutionContext struct {
	// ID identifies the request in logs and traces.
	ID uuid.UUID

	// Data holds handler-specific context data.
	Data map[string]interface{}

	ctx      context.Context
	request  *Request
	response Response
	action   Component
	stack    []frame
	errors   []error
	state    bool

	maxDepth      int
	recoverPanics bool
}

// New creates an execution context for req with a background context and
// no response writer.
func New(req *Request) *ExecutionContext {
	return NewWithContext(context.Background(), req, nil)
}

// NewWithContext creates an execution context bound to ctx.
func NewWithContext(ctx context.Context, req *Request, resp Response) *ExecutionContext {
	if ctx == nil {
		ctx = context.Background()
	}
	if req == nil {
		req = NewRequest("", "")
	}
	return &ExecutionContext{
		ID:       uuid.New(),
		Data:     make(map[string]interface{}),
		ctx:      ctx,
		request:  req,
		response: resp,
		maxDepth: DefaultMaxDepth,
	}
}

// WithMaxDepth sets the execution stack depth limit.
func (ec *ExecutionContext) WithMaxDepth(depth int) *ExecutionContext {
	if depth > 0 {
		ec.maxDepth = depth
	}
	return ec
}

// WithPanicRecovery makes Execute convert handler panics into errors.
func (ec *ExecutionContext) WithPanicRecovery(enabled bool) *ExecutionContext {
	ec.recoverPanics = enabled
	return ec
}

// Context returns the standard context for cancellation and tracing.
func (ec *ExecutionContext) Context() context.Context {
	return ec.ctx
}

// SetContext replaces the standard context, e.g. to attach a trace span.
func (ec *ExecutionContext) SetContext(ctx context.Context) {
	if ctx != nil {
		ec.ctx = ctx
	}
}

// Request returns the request state.
func (ec *ExecutionContext) Request() *Request {
	return ec.request
}

// Response returns the response writer, which may be nil.
func (ec *ExecutionContext) Response() Response {
	return ec.response
}

// Action returns the resolved component, or nil if nothing matched.
func (ec *ExecutionContext) Action() Component {
	return ec.action
}

// SetAction records the resolved component.
func (ec *ExecutionContext) SetAction(c Component) {
	ec.action = c
}

// Stack returns a copy of the execution stack, outermost first.
func (ec *ExecutionContext) Stack() []Component {
	out := make([]Component, len(ec.stack))
	for i, f := range ec.stack {
		out[i] = f.component
	}
	return out
}

// Current returns the component on top of the execution stack.
func (ec *ExecutionContext) Current() Component {
	if len(ec.stack) == 0 {
		return nil
	}
	return ec.stack[len(ec.stack)-1].component
}

// Depth returns the execution stack depth.
func (ec *ExecutionContext) Depth() int {
	return len(ec.stack)
}

// Args returns the arguments visible to the running component: the
// captures of a chain link while it executes, the request args otherwise.
func (ec *ExecutionContext) Args() []string {
	for i := len(ec.stack) - 1; i >= 0; i-- {
		if ec.stack[i].override {
			return ec.stack[i].args
		}
	}
	return ec.request.Args
}

// Execute runs c on top of the execution stack and records its outcome as
// the context state.
func (ec *ExecutionContext) Execute(c Component) bool {
	return ec.execute(frame{component: c})
}

// ExecuteWithArgs runs c with args replacing the request args for the
// duration of the call.
func (ec *ExecutionContext) ExecuteWithArgs(c Component, args []string) bool {
	return ec.execute(frame{component: c, args: args, override: true})
}

func (ec *ExecutionContext) execute(f frame) bool {
	if f.component == nil {
		ec.state = false
		return false
	}
	if len(ec.stack) >= ec.maxDepth {
		ec.AddError(fmt.Errorf("%w: %s", ErrDeepRecursion, f.component.Reverse()))
		ec.state = false
		return false
	}

	ec.stack = append(ec.stack, f)
	ok := ec.call(f.component)
	ec.stack = ec.stack[:len(ec.stack)-1]

	ec.state = ok
	return ok
}

func (ec *ExecutionContext) call(c Component) (ok bool) {
	if !ec.recoverPanics {
		return c.Call(ec)
	}

	defer func() {
		if r := recover(); r != nil {
			buf := make([]byte, 4096)
			n := runtime.Stack(buf, false)
			ec.AddError(&PanicError{
				Reverse: c.Reverse(),
				Value:   r,
				Stack:   string(buf[:n]),
			})
			ok = false
		}
	}()
	return c.Call(ec)
}

// Error records a user-visible error message.
func (ec *ExecutionContext) Error(msg string) {
	ec.errors = append(ec.errors, &MessageError{Message: msg})
}

// AddError records err.
func (ec *ExecutionContext) AddError(err error) {
	if err != nil {
		ec.errors = append(ec.errors, err)
	}
}

// Errors returns a copy of the recorded errors.
func (ec *ExecutionContext) Errors() []error {
	out := make([]error, len(ec.errors))
	copy(out, ec.errors)
	return out
}

// HasErrors reports whether any error was recorded.
func (ec *ExecutionContext) HasErrors() bool {
	return len(ec.errors) > 0
}

// State returns the outcome of the last executed component.
func (ec *ExecutionContext) State() bool {
	return ec.state
}

// SetState overrides the context state.
func (ec *ExecutionContext) SetState(state bool) {
	ec.state = state
}

// SetData sets a context data value.
func (ec *ExecutionContext) SetData(key string, value interface{}) {
	if ec.Data == nil {
		ec.Data = make(map[string]interface{})
	}
	ec.Data[key] = value
}

// GetData retrieves a context data value.
func (ec *ExecutionContext) GetData(key string) (interface{}, bool) {
	if ec.Data == nil {
		return nil, false
	}
	v, ok := ec.Data[key]
	return v, ok
}

// GetDataString retrieves a string value from context data.
func (ec *ExecutionContext) GetDataString(key string) string {
	if v, ok := ec.GetData(key); ok {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return ""
}

// GetDataInt retrieves an int value from context data.
func (ec *ExecutionContext) GetDataInt(key string) int {
	if v, ok := ec.GetData(key); ok {
		switch n := v.(type) {
		case int:
			return n
		case int64:
			return int(n)
		case float64:
			return int(n)
		}
	}
	return 0
}

// GetDataBool retrieves a bool value from context data.
func (ec *ExecutionContext) GetDataBool(key string) bool {
	if v, ok := ec.GetData(key); ok {
		if b, ok := v.(bool); ok {
			return b
		}
	}
	return false
}
