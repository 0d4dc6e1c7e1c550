package render

import (
	"errors"
	"fmt"
)

var (
	// ErrUnknownPage is returned for a page name that was never declared
	ErrUnknownPage = errors.New("unknown page")

	// ErrMissingKey is returned when a declared context key is absent
	ErrMissingKey = errors.New("missing context key")

	// ErrExecute is returned when the template engine fails
	ErrExecute = errors.New("template execution failed")
)

// RenderError represents a failure to render a page
type RenderError struct {
	Page   string
	Reason error // one of the sentinel errors above
	Err    error
}

// Error implements the error interface
func (e *RenderError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("render %s: %v: %v", e.Page, e.Reason, e.Err)
	}
	return fmt.Sprintf("render %s: %v", e.Page, e.Reason)
}

// Unwrap implements errors.Unwrap
func (e *RenderError) Unwrap() error {
	return e.Err
}

// Is implements errors.Is support
func (e *RenderError) Is(target error) bool {
	return target == e.Reason
}
