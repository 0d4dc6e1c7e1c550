// Package upstream provides the shared outbound HTTP client used to fetch
// JSON from third-party APIs.
//
// A Client owns its own connection pool. It is created once when serving
// starts and released with Close when serving stops; every request handler
// shares the same instance. Calls are never retried. Network failures,
// non-2xx statuses and malformed bodies are all reported as *Error values
// matching ErrUnavailable.
package upstream
