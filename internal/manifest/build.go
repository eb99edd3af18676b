package manifest

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/dshills/switchyard/internal/controller"
	"github.com/dshills/switchyard/internal/dispatcher/action"
	"github.com/dshills/switchyard/internal/dispatcher/execctx"
	"github.com/dshills/switchyard/internal/dispatcher/handler"
	"github.com/dshills/switchyard/internal/script"
)

// Forwarder runs an action by name. The dispatcher implements it.
type Forwarder = script.Forwarder

// BuildOption configures Build.
type BuildOption func(*builder)

// WithLogger sets the logger handed to scripts.
func WithLogger(logger *slog.Logger) BuildOption {
	return func(b *builder) {
		b.logger = logger
	}
}

// WithScriptTimeout bounds every script run.
func WithScriptTimeout(d time.Duration) BuildOption {
	return func(b *builder) {
		b.scriptTimeout = d
	}
}

type builder struct {
	manifest      *Manifest
	forwarder     Forwarder
	logger        *slog.Logger
	scriptTimeout time.Duration
}

// Build turns the manifest into controllers. fwd backs forward handlers and
// the forward() script function; it may be nil when neither is used.
func (m *Manifest) Build(fwd Forwarder, opts ...BuildOption) ([]*controller.Controller, error) {
	b := &builder{
		manifest:      m,
		forwarder:     fwd,
		logger:        slog.Default(),
		scriptTimeout: script.DefaultTimeout,
	}
	for _, opt := range opts {
		opt(b)
	}

	seen := make(map[string]bool, len(m.Controllers))
	out := make([]*controller.Controller, 0, len(m.Controllers))
	for _, spec := range m.Controllers {
		if spec.Name == "" {
			return nil, b.fail(spec.Name, "", "controller name is required")
		}
		if seen[spec.Name] {
			return nil, b.fail(spec.Name, "", "duplicate controller")
		}
		seen[spec.Name] = true

		c, err := b.controller(spec)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, nil
}

func (b *builder) controller(spec ControllerSpec) (*controller.Controller, error) {
	c := controller.New(spec.Name, spec.Namespace)

	hooks := []struct {
		name    string
		spec    *HandlerSpec
		declare func(handler.Handler) *action.Action
	}{
		{controller.BeginName, spec.Begin, c.Begin},
		{controller.AutoName, spec.Auto, c.Auto},
		{controller.EndName, spec.End, c.End},
	}
	for _, hook := range hooks {
		if hook.spec == nil {
			continue
		}
		h, err := b.handler(spec.Name, hook.name, *hook.spec)
		if err != nil {
			return nil, err
		}
		hook.declare(h)
	}

	for _, as := range spec.Actions {
		if err := b.action(c, spec.Name, as); err != nil {
			return nil, err
		}
	}
	return c, nil
}

func (b *builder) action(c *controller.Controller, ctrl string, spec ActionSpec) error {
	switch {
	case spec.Name == "":
		return b.fail(ctrl, "", "action name is required")
	case strings.HasPrefix(spec.Name, "_"):
		return b.fail(ctrl, spec.Name, "names starting with _ are reserved")
	case spec.Name == controller.BeginName || spec.Name == controller.AutoName || spec.Name == controller.EndName:
		return b.fail(ctrl, spec.Name, "declare lifecycle hooks with begin, auto or end")
	}

	opts, err := b.options(ctrl, spec)
	if err != nil {
		return err
	}
	h, err := b.handler(ctrl, spec.Name, spec.HandlerSpec)
	if err != nil {
		return err
	}
	c.Handle(spec.Name, h, opts...)
	return nil
}

func (b *builder) options(ctrl string, spec ActionSpec) ([]action.Option, error) {
	var opts []action.Option

	if spec.Path != nil {
		opts = append(opts, action.WithPath(spec.Path...))
	}
	if spec.Args != nil {
		if *spec.Args < 0 {
			return nil, b.fail(ctrl, spec.Name, "args must not be negative")
		}
		opts = append(opts, action.WithArgs(*spec.Args))
	}
	if spec.Chained != nil {
		opts = append(opts, action.WithChained(*spec.Chained))
	}
	if spec.PathPart != nil {
		if spec.Chained == nil {
			return nil, b.fail(ctrl, spec.Name, "path_part requires chained")
		}
		opts = append(opts, action.WithPathPart(*spec.PathPart))
	}
	if spec.CaptureArgs != nil {
		if spec.Chained == nil {
			return nil, b.fail(ctrl, spec.Name, "capture_args requires chained")
		}
		if *spec.CaptureArgs < 0 {
			return nil, b.fail(ctrl, spec.Name, "capture_args must not be negative")
		}
		if spec.Args != nil {
			return nil, b.fail(ctrl, spec.Name, "a chain link takes capture_args, not args")
		}
		opts = append(opts, action.WithCaptureArgs(*spec.CaptureArgs))
	}
	if spec.Private {
		if spec.Path != nil || spec.Chained != nil {
			return nil, b.fail(ctrl, spec.Name, "private actions cannot declare path or chained")
		}
		opts = append(opts, action.Private())
	}
	for name, values := range spec.Attributes {
		if reservedAttribute(name) {
			return nil, b.fail(ctrl, spec.Name, fmt.Sprintf("attribute %q has its own key", name))
		}
		opts = append(opts, action.WithAttribute(name, values...))
	}
	return opts, nil
}

// reservedAttribute reports whether name is an attribute the dispatcher
// interprets. Those are only set through their dedicated keys so the checks
// above cover them.
func reservedAttribute(name string) bool {
	for _, attr := range []string{
		action.AttrPath,
		action.AttrChained,
		action.AttrPathPart,
		action.AttrCaptureArgs,
		action.AttrArgs,
		action.AttrPrivate,
	} {
		if strings.EqualFold(name, attr) {
			return true
		}
	}
	return false
}

func (b *builder) handler(ctrl, name string, spec HandlerSpec) (handler.Handler, error) {
	kinds := 0
	for _, set := range []bool{spec.Respond != nil, spec.Script != "", spec.ScriptFile != "", spec.Forward != ""} {
		if set {
			kinds++
		}
	}
	if kinds > 1 {
		return nil, b.fail(ctrl, name, "respond, script, script_file and forward are mutually exclusive")
	}
	if spec.Status != 0 && kinds == 1 && spec.Respond == nil {
		return nil, b.fail(ctrl, name, "status only applies to respond")
	}

	switch {
	case spec.Respond != nil:
		return handler.Respond(spec.Status, *spec.Respond), nil

	case spec.Script != "" || spec.ScriptFile != "":
		return b.script(ctrl, name, spec)

	case spec.Forward != "":
		if b.forwarder == nil {
			return nil, b.fail(ctrl, name, "forward needs a dispatcher")
		}
		target, fwd := spec.Forward, b.forwarder
		return handler.BoolFunc(func(ctx *execctx.ExecutionContext) bool {
			return fwd.Forward(ctx, target)
		}), nil

	case spec.Status != 0:
		return handler.Respond(spec.Status, ""), nil
	}
	return nil, nil
}

func (b *builder) script(ctrl, name string, spec HandlerSpec) (handler.Handler, error) {
	opts := []script.Option{
		script.WithTimeout(b.scriptTimeout),
		script.WithLogger(b.logger),
	}
	if b.forwarder != nil {
		opts = append(opts, script.WithForwarder(b.forwarder))
	}

	var (
		s   *script.Script
		err error
	)
	if spec.ScriptFile != "" {
		s, err = script.CompileFile(b.manifest.resolve(spec.ScriptFile), opts...)
	} else {
		s, err = script.CompileString(ctrl+"."+name, spec.Script, opts...)
	}
	if err != nil {
		return nil, &Error{File: b.manifest.file, Controller: ctrl, Action: name, Err: err}
	}
	return s, nil
}

func (b *builder) fail(ctrl, name, msg string) error {
	return &Error{
		File:       b.manifest.file,
		Controller: ctrl,
		Action:     name,
		Err:        fmt.Errorf("%w: %s", ErrInvalid, msg),
	}
}
