// Package dispatcher resolves request paths to actions and coordinates execution.
//
// The dispatcher is the central hub between a transport and the actions
// controllers declare. It owns the action registry, the ordered list of
// dispatch strategies and the hook manager.
//
// # Architecture
//
// Resolution uses three cooperating parts:
//
//  1. Registry: Maps reverse ids ("users/list", "/index") to actions and
//     namespaces to the actions declared in them. Built during Setup and
//     frozen afterwards.
//
//  2. Strategies: Pluggable matchers (Path, Chained) that map a path prefix
//     plus trailing args to an action and back to a URI.
//
//  3. Lifecycle: Every controller contributes private _DISPATCH, _BEGIN,
//     _AUTO, _ACTION and _END actions; dispatch forwards to the _DISPATCH
//     action of the resolved action's namespace.
//
// # Request Flow
//
// When a request is handled:
//
//  1. PrepareAction walks the path from its full length down to "",
//     peeling one segment at a time into args, until a strategy reports
//     ExactMatch
//  2. Pre-dispatch hooks are called (can cancel the request)
//  3. Dispatch forwards to "/<namespace>/_DISPATCH", which runs Begin, the
//     Auto chain, the action and End
//  4. Post-dispatch hooks are called
//  5. Metrics are recorded (if enabled)
//
// # Forwarding
//
// Forward resolves a name first as a reverse id, then as a path relative to
// the namespace of the running component, and executes the action on the
// same context. The execution stack is bounded by Config.MaxRecursion.
//
// # Usage
//
//	d := dispatcher.New(dispatcher.DefaultConfig(), dispatcher.WithLogger(logger))
//	if err := d.Setup(controllers); err != nil {
//	    return err
//	}
//
//	ctx := d.NewContext(r.Context(), execctx.NewRequest("GET", "users/42/view"), resp)
//	d.PrepareAction(ctx)
//	ok := d.Dispatch(ctx)
//
// # Thread Safety
//
// Setup must complete before the dispatcher is shared. Afterwards
// PrepareAction, Dispatch, Forward and URIForAction take no locks; each
// request owns its ExecutionContext.
package dispatcher
