// Package server provides the HTTP server: a Gin engine mounted on a
// ServeMux behind h2c, wrapped in a net/http middleware chain so that
// streaming and hijacked connections (SSE, WebSocket) pass through the same
// recovery, request-ID, CORS and logging layers as REST routes.
//
// # Middleware
//
//   - Recovery: panic recovery with structured logging
//   - RequestID: X-Request-Id generation and propagation
//   - CORS: cross-origin headers and preflight
//   - BodySizeLimit: request body cap
//   - RequestLogger: one log line per request, level by status
//   - RateLimit: per-client token buckets for selected Gin routes
//
// # Endpoints
//
//   - /health: component health aggregation
//   - /info: service and build information
//   - /metrics: runtime memory and goroutine figures
//   - /version: build version
package server
