// Package shutdown coordinates graceful process termination.
//
// WithSignals turns SIGINT and SIGTERM into context cancellation, which the
// RESP server treats as its shutdown notification. A Handler runs cleanup
// hooks (admin server, config watcher, store) in reverse registration order
// under a shared timeout once the server has drained.
//
// Usage:
//
//	ctx, stop := shutdown.WithSignals(context.Background())
//	defer stop()
//
//	h := shutdown.NewHandler(30 * time.Second)
//	h.OnShutdown("store", func(context.Context) error { return store.Close() })
//	...
//	err := h.Wait(ctx)
package shutdown
