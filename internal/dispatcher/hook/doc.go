// Package hook provides extensible pre/post dispatch hooks for the dispatcher.
//
// Hooks intercept request dispatch for logging, tracing, rate limiting,
// validation and other cross-cutting concerns. They run after the request
// path has been resolved, so ctx.Action() is already set (or nil when no
// strategy matched).
//
// # Hook Types
//
//   - PreDispatchHook: Called before the lifecycle chain runs. Can cancel the request.
//   - PostDispatchHook: Called after dispatch with its outcome, including
//     requests cancelled by a pre-hook.
//
// # Priority System
//
//   - Pre-hooks: Higher priority runs first.
//   - Post-hooks: Lower priority runs first, higher runs last.
//
// Standard priority constants are provided:
//
//	PriorityTracing    = 1100
//	PriorityRateLimit  = 1000
//	PriorityAudit      = 900
//	PriorityValidation = 800
//
// # Built-in Hooks
//
//   - AuditHook: slog request logging with duration
//   - TracingHook: OpenTelemetry span per request
//   - RateLimitHook: token bucket admission (golang.org/x/time/rate)
//   - ValidationHook: custom validation before dispatch
//
// # Thread Safety
//
// The Manager is safe for concurrent use. Hooks run on the request goroutine.
package hook
