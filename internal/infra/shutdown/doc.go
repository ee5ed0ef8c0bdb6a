// Package shutdown coordinates process exit for the CLI:
//
//   - Signal handling (SIGINT, SIGTERM) cancels in-flight engine calls
//   - Cleanup hooks run once, newest first, under a timeout
//
// Usage:
//
//	ctx, stop := shutdown.WithSignals(context.Background())
//	defer stop()
//	h := shutdown.NewHandler(5 * time.Second)
//	defer h.Shutdown()
package shutdown
