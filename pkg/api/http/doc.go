// Package http provides the HTTP site server.
//
// The server exposes:
//   - The site pages: /, /advice, /apod and /params
//   - Static assets under /static
//   - The live clock stream at /ws/clock
//   - Health checks and Prometheus metrics
//
// Handlers push errors onto the gin context; a single middleware turns them
// into error pages (502 for upstream failures, 500 otherwise).
package http
