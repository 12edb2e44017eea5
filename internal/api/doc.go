// Package api serves the adapter's small HTTP operations surface.
//
// Routes:
//
//	GET  /health             200 when the broker session and dependencies are healthy, 503 otherwise
//	GET  /metrics            Prometheus exposition of the dispatch counters
//	GET  /api/v1/status      connection state, binding counts and dispatch counters
//	PUT  /api/v1/log-level   change the log level at runtime
//
// The server follows the same lifecycle pattern as other infrastructure components:
//
//	server, err := api.New(deps)
//	server.Start(ctx)
//	defer server.Close()
//
// Thread Safety: All methods are safe for concurrent use from multiple goroutines.
package api
