// Package pages declares the site's pages and builds the data each one is
// rendered with.
//
// The Service is stateless apart from its read-only configuration and the
// shared upstream Fetcher, so it is safe to call from concurrent requests.
package pages
