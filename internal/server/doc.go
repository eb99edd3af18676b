// Package server exposes a route manifest over HTTP.
//
// Each request path, minus its leading slash, is resolved by the dispatcher
// and run through the owning controller's lifecycle. Handler output is
// buffered and written once dispatch completes.
//
// # Status Codes
//
//	200   dispatch succeeded (or the status the handler set)
//	403   a hook or handler declined the request
//	404   no action matched, or the argument count was wrong
//	429   the rate limiter rejected the request
//	500   any other failure
//
// # Reloading
//
// Reload rebuilds the dispatcher from the manifest and swaps it in
// atomically. Watch does this on file changes. A manifest that fails to
// load or set up leaves the previous routes serving.
//
// # Observability
//
// With dispatcher metrics enabled the server keeps one collector across
// reloads and logs its summary on shutdown. Tracing uses the provider given
// to WithTracerProvider, else the global otel provider.
//
// # Usage
//
//	srv, err := server.New(cfg, server.WithLogger(logger))
//	if err != nil {
//	    return err
//	}
//	return srv.Run(ctx)
package server
