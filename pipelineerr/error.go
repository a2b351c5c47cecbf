package pipelineerr

import (
	"fmt"
	"time"
)

// Error is the wrapper every component returns once it has classified a
// failure by Kind. Component is the short package name that raised it
// (e.g. "extract", "load", "coordinator") for log correlation.
type Error struct {
	Kind      Kind
	Component string
	Message   string
	Err       error

	// RetryAfter is a server-suggested minimum delay before the next
	// retry (e.g. parsed from an HTTP Retry-After header). Zero means
	// the caller has no opinion and the retry policy picks its own
	// delay.
	RetryAfter time.Duration
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %s: %v", e.Component, e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s: %s", e.Component, e.Kind, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// New constructs an *Error with no wrapped cause.
func New(kind Kind, component, message string) *Error {
	return &Error{Kind: kind, Component: component, Message: message}
}

// Wrap constructs an *Error around an existing error, classifying it
// with kind.
func Wrap(kind Kind, component, message string, err error) *Error {
	return &Error{Kind: kind, Component: component, Message: message, Err: err}
}

// WithRetryAfter sets RetryAfter on e and returns it, for chaining at the
// call site that raised the error.
func (e *Error) WithRetryAfter(d time.Duration) *Error {
	e.RetryAfter = d
	return e
}
