package upstream

import (
	"errors"
	"fmt"
	"net/url"
)

var (
	// ErrUnavailable matches every failure to obtain a usable upstream response
	ErrUnavailable = errors.New("upstream unavailable")

	// ErrClosed is returned when the client is used after Close
	ErrClosed = errors.New("upstream client closed")
)

// Error represents a failed upstream call
type Error struct {
	Upstream   string
	URL        string // redacted
	StatusCode int
	Message    string
	Err        error
}

// Error implements the error interface
func (e *Error) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("upstream %s (status %d): %s", e.Upstream, e.StatusCode, e.Message)
	}
	return fmt.Sprintf("upstream %s: %s", e.Upstream, e.Message)
}

// Unwrap implements errors.Unwrap
func (e *Error) Unwrap() error {
	return e.Err
}

// Is implements errors.Is support
func (e *Error) Is(target error) bool {
	return target == ErrUnavailable
}

// secretParams lists query parameters whose values never reach logs or errors
var secretParams = []string{"api_key", "apikey", "key", "token"}

// RedactURL replaces the values of secret query parameters with "REDACTED".
// Unparseable input is replaced entirely.
func RedactURL(raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return "<unparseable url>"
	}

	q := u.Query()
	changed := false
	for _, p := range secretParams {
		if _, ok := q[p]; ok {
			q.Set(p, "REDACTED")
			changed = true
		}
	}
	if changed {
		u.RawQuery = q.Encode()
	}
	u.User = nil

	return u.String()
}
