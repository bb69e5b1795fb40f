// Package http provides the HTTP REST API implementation.
//
// The HTTP server exposes endpoints for:
//   - The greeting (GET /hello)
//   - Item creation (POST /items)
//   - Health checks
//   - Prometheus metrics
package http
