package hook

import (
	"errors"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/time/rate"

	"github.com/dshills/switchyard/internal/dispatcher/execctx"
)

// Standard hook priorities.
const (
	PriorityTracing    = 1100 // Outermost: span opens first and closes last
	PriorityRateLimit  = 1000 // Reject early
	PriorityAudit      = 900  // Log what passed the limiter
	PriorityValidation = 800  // Validate before processing
)

// ErrRateLimited is recorded on the context when the rate limiter rejects a request.
var ErrRateLimited = errors.New("hook: rate limit exceeded")

const auditStartKey = "hook.audit.start"

// AuditHook logs every dispatched request.
type AuditHook struct {
	logger *slog.Logger
}

// NewAuditHook creates an audit hook. A nil logger uses slog.Default().
func NewAuditHook(logger *slog.Logger) *AuditHook {
	if logger == nil {
		logger = slog.Default()
	}
	return &AuditHook{logger: logger}
}

// Name implements Hook.
func (h *AuditHook) Name() string { return "audit" }

// Priority implements Hook.
func (h *AuditHook) Priority() int { return PriorityAudit }

// PreDispatch logs the request being dispatched.
func (h *AuditHook) PreDispatch(ctx *execctx.ExecutionContext) bool {
	ctx.SetData(auditStartKey, time.Now())
	h.logger.Debug("dispatch start",
		"request_id", ctx.ID.String(),
		"path", ctx.Request().Path,
		"action", reverseOf(ctx),
	)
	return true
}

// PostDispatch logs the dispatch outcome.
func (h *AuditHook) PostDispatch(ctx *execctx.ExecutionContext, ok bool) {
	var elapsed time.Duration
	if v, found := ctx.GetData(auditStartKey); found {
		if start, isTime := v.(time.Time); isTime {
			elapsed = time.Since(start)
		}
	}

	if !ok {
		h.logger.Warn("dispatch failed",
			"request_id", ctx.ID.String(),
			"path", ctx.Request().Path,
			"action", reverseOf(ctx),
			"errors", errors.Join(ctx.Errors()...),
			"duration", elapsed,
		)
		return
	}
	h.logger.Debug("dispatch complete",
		"request_id", ctx.ID.String(),
		"action", reverseOf(ctx),
		"duration", elapsed,
	)
}

// RateLimitHook rejects requests once the limiter runs dry.
type RateLimitHook struct {
	limiter *rate.Limiter
}

// NewRateLimitHook creates a hook allowing r requests per second with the given burst.
func NewRateLimitHook(r rate.Limit, burst int) *RateLimitHook {
	return &RateLimitHook{limiter: rate.NewLimiter(r, burst)}
}

// Name implements Hook.
func (h *RateLimitHook) Name() string { return "rate-limit" }

// Priority implements Hook.
func (h *RateLimitHook) Priority() int { return PriorityRateLimit }

// PreDispatch takes a token or cancels the request with ErrRateLimited.
func (h *RateLimitHook) PreDispatch(ctx *execctx.ExecutionContext) bool {
	if h.limiter.Allow() {
		return true
	}
	ctx.AddError(ErrRateLimited)
	return false
}

// TracingHook wraps each dispatch in an OpenTelemetry span. The span
// context replaces the execution context's standard context so handlers
// can start child spans.
type TracingHook struct {
	tracer trace.Tracer
}

// NewTracingHook creates a tracing hook.
func NewTracingHook(tracer trace.Tracer) *TracingHook {
	return &TracingHook{tracer: tracer}
}

// Name implements Hook.
func (h *TracingHook) Name() string { return "tracing" }

// Priority implements Hook.
func (h *TracingHook) Priority() int { return PriorityTracing }

// PreDispatch starts the span.
func (h *TracingHook) PreDispatch(ctx *execctx.ExecutionContext) bool {
	req := ctx.Request()
	spanCtx, _ := h.tracer.Start(ctx.Context(), "dispatch",
		trace.WithSpanKind(trace.SpanKindServer),
		trace.WithAttributes(
			attribute.String("switchyard.request_id", ctx.ID.String()),
			attribute.String("switchyard.path", req.Path),
			attribute.String("switchyard.match", req.Match),
			attribute.String("switchyard.action", reverseOf(ctx)),
		),
	)
	ctx.SetContext(spanCtx)
	return true
}

// PostDispatch records errors and ends the span.
func (h *TracingHook) PostDispatch(ctx *execctx.ExecutionContext, ok bool) {
	span := trace.SpanFromContext(ctx.Context())
	if !ok {
		for _, err := range ctx.Errors() {
			span.RecordError(err)
		}
		span.SetStatus(codes.Error, "dispatch failed")
	} else {
		span.SetStatus(codes.Ok, "")
	}
	span.End()
}

// ValidationHook validates requests before dispatch using a custom function.
type ValidationHook struct {
	name     string
	priority int
	validate func(*execctx.ExecutionContext) error
}

// NewValidationHook creates a validation hook.
func NewValidationHook(name string, priority int, validate func(*execctx.ExecutionContext) error) *ValidationHook {
	return &ValidationHook{
		name:     name,
		priority: priority,
		validate: validate,
	}
}

// Name implements Hook.
func (h *ValidationHook) Name() string { return h.name }

// Priority implements Hook.
func (h *ValidationHook) Priority() int { return h.priority }

// PreDispatch records the validation error and cancels on failure.
func (h *ValidationHook) PreDispatch(ctx *execctx.ExecutionContext) bool {
	if h.validate == nil {
		return true
	}
	if err := h.validate(ctx); err != nil {
		ctx.AddError(err)
		return false
	}
	return true
}

func reverseOf(ctx *execctx.ExecutionContext) string {
	if a := ctx.Action(); a != nil {
		return a.Reverse()
	}
	return ""
}
