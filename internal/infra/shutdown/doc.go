// Package shutdown coordinates graceful termination of long-running
// redpipectl commands.
//
// Hooks run in reverse registration order once SIGINT or SIGTERM arrives,
// the parent context is cancelled, or Trigger is called:
//
//	h := shutdown.NewHandler(5 * time.Second)
//	h.OnShutdown("metrics server", srv.Shutdown)
//	err := h.Wait(ctx)
package shutdown
