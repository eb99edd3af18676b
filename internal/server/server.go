package server

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	"github.com/dshills/switchyard/internal/config"
	"github.com/dshills/switchyard/internal/dispatcher"
	"github.com/dshills/switchyard/internal/dispatcher/action"
	"github.com/dshills/switchyard/internal/dispatcher/execctx"
	"github.com/dshills/switchyard/internal/dispatcher/hook"
	"github.com/dshills/switchyard/internal/manifest"
)

// RequestIDHeader carries the request id. A valid incoming UUID is reused.
const RequestIDHeader = "X-Request-Id"

// ErrNoRoutes is returned when no dispatcher has ever been loaded.
var ErrNoRoutes = errors.New("server: no routes loaded")

// Option configures a Server.
type Option func(*Server)

// WithLogger sets the logger for the server, its dispatchers and scripts.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithHooks registers extra dispatch hooks next to the configured ones.
func WithHooks(hooks ...hook.Hook) Option {
	return func(s *Server) {
		s.extraHooks = append(s.extraHooks, hooks...)
	}
}

// WithTracerProvider sets the provider behind the tracing hook. Without it
// the global otel provider is used, which records nothing until the
// embedding program installs an SDK provider with otel.SetTracerProvider.
func WithTracerProvider(tp trace.TracerProvider) Option {
	return func(s *Server) {
		s.tracerProvider = tp
	}
}

// Server serves a route manifest over HTTP. The dispatcher is rebuilt on
// Reload and swapped atomically; in-flight requests finish on the one they
// started with.
type Server struct {
	cfg        *config.Config
	logger     *slog.Logger
	hooks      *hook.Manager
	extraHooks []hook.Hook
	metrics    *dispatcher.Metrics

	tracerProvider trace.TracerProvider

	current  atomic.Pointer[dispatcher.Dispatcher]
	reloads  atomic.Uint64
	reloadMu sync.Mutex
}

// New creates a server and loads the route manifest named by cfg.
func New(cfg *config.Config, opts ...Option) (*Server, error) {
	s := &Server{
		cfg:    cfg,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.hooks = s.newHookManager()
	if cfg.Dispatcher.Metrics {
		s.metrics = dispatcher.NewMetrics()
	}

	if err := s.Reload(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *Server) newHookManager() *hook.Manager {
	m := hook.NewManager()
	m.Register(hook.NewAuditHook(s.logger))
	if s.cfg.Limits.Enabled() {
		m.Register(hook.NewRateLimitHook(s.cfg.Limits.Limit(), s.cfg.Limits.Burst))
	}
	if s.cfg.Tracing.Enabled {
		tp := s.tracerProvider
		if tp == nil {
			tp = otel.GetTracerProvider()
		}
		m.Register(hook.NewTracingHook(tp.Tracer(s.cfg.Tracing.ServiceName)))
	}
	for _, h := range s.extraHooks {
		m.Register(h)
	}
	return m
}

// Dispatcher returns the dispatcher serving new requests.
func (s *Server) Dispatcher() *dispatcher.Dispatcher {
	return s.current.Load()
}

// Metrics returns the dispatch counters, kept across reloads. It is nil
// unless dispatcher metrics are enabled.
func (s *Server) Metrics() *dispatcher.Metrics {
	return s.metrics
}

// Reloads returns how many times the routes were loaded successfully.
func (s *Server) Reloads() uint64 {
	return s.reloads.Load()
}

// Reload reads the manifest, builds and sets up a fresh dispatcher and
// swaps it in. On failure the previous dispatcher keeps serving.
func (s *Server) Reload() error {
	s.reloadMu.Lock()
	defer s.reloadMu.Unlock()

	d, err := s.build()
	if err != nil {
		if s.current.Load() != nil {
			s.logger.Error("route reload failed, keeping previous routes",
				"file", s.cfg.Routes.File,
				"error", err,
			)
		}
		return err
	}

	s.current.Store(d)
	n := s.reloads.Add(1)
	s.logger.Info("routes loaded",
		"file", s.cfg.Routes.File,
		"actions", d.Registry().Len(),
		"generation", n,
	)
	return nil
}

func (s *Server) build() (*dispatcher.Dispatcher, error) {
	m, err := manifest.Load(s.cfg.Routes.File)
	if err != nil {
		return nil, err
	}

	opts := []dispatcher.Option{
		dispatcher.WithLogger(s.logger),
		dispatcher.WithHookManager(s.hooks),
	}
	if s.metrics != nil {
		opts = append(opts, dispatcher.WithMetrics(s.metrics))
	}
	d := dispatcher.New(s.cfg.Dispatcher.Options(), opts...)

	controllers, err := m.Build(d,
		manifest.WithLogger(s.logger),
		manifest.WithScriptTimeout(s.cfg.Routes.ScriptTimeout.Duration),
	)
	if err != nil {
		return nil, err
	}

	cs := make([]dispatcher.Controller, len(controllers))
	for i, c := range controllers {
		cs[i] = c
	}
	if err := d.Setup(cs); err != nil {
		return nil, fmt.Errorf("server: %s: %w", s.cfg.Routes.File, err)
	}
	return d, nil
}

// ServeHTTP resolves the request path and dispatches it.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	d := s.current.Load()
	if d == nil {
		http.Error(w, ErrNoRoutes.Error(), http.StatusServiceUnavailable)
		return
	}

	req := execctx.NewRequest(r.Method, strings.TrimPrefix(r.URL.EscapedPath(), "/"))
	req.Query = r.URL.Query()

	resp := newResponse()
	ctx := d.NewContext(r.Context(), req, resp)
	if id, err := uuid.Parse(r.Header.Get(RequestIDHeader)); err == nil {
		ctx.ID = id
	}

	d.PrepareAction(ctx)
	ok := d.Dispatch(ctx)

	code := statusCode(ctx, resp, ok)
	body := resp.body.Bytes()
	if !ok && len(body) == 0 {
		body = errorBody(code, ctx.Errors())
	}

	h := w.Header()
	h.Set(RequestIDHeader, ctx.ID.String())
	h.Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(code)
	if r.Method != http.MethodHead {
		_, _ = w.Write(body)
	}
}

// statusCode maps the dispatch outcome to an HTTP status. A status set by
// the handler wins unless the dispatch failed with a success status.
func statusCode(ctx *execctx.ExecutionContext, resp *response, ok bool) int {
	if ok {
		return resp.code
	}
	if resp.explicit && resp.code >= http.StatusBadRequest {
		return resp.code
	}

	for _, err := range ctx.Errors() {
		switch {
		case errors.Is(err, hook.ErrRateLimited):
			return http.StatusTooManyRequests
		case errors.Is(err, action.ErrArgumentCount):
			return http.StatusNotFound
		case errors.Is(err, dispatcher.ErrActionCancelled):
			return http.StatusForbidden
		}
	}

	switch {
	case ctx.Action() == nil:
		return http.StatusNotFound
	case !ctx.HasErrors():
		// A handler declined without saying why.
		return http.StatusForbidden
	default:
		return http.StatusInternalServerError
	}
}

func errorBody(code int, errs []error) []byte {
	var b strings.Builder
	b.WriteString(http.StatusText(code))
	for _, err := range errs {
		b.WriteByte('\n')
		if errors.Is(err, execctx.ErrPanic) {
			b.WriteString("internal error")
			continue
		}
		b.WriteString(err.Error())
	}
	b.WriteByte('\n')
	return []byte(b.String())
}
