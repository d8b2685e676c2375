package catalog

import (
	"errors"
	"fmt"
)

// Sentinel errors for errors.Is checks.
var (
	// ErrUpstream matches any *UpstreamError.
	ErrUpstream = errors.New("catalog upstream error")
	// ErrNotFound matches any *NotFoundError.
	ErrNotFound = errors.New("movie not found")
	// ErrSchema matches any *SchemaError.
	ErrSchema = errors.New("unexpected catalog response")
)

// tmdbResourceNotFound is the TMDb status_code for a missing resource.
const tmdbResourceNotFound = 34

// UpstreamError is a non-2xx response or a network failure.
// StatusCode is 0 when no response was received.
type UpstreamError struct {
	Op         string
	StatusCode int
	Code       int // TMDb status_code from the error body, if any
	Message    string
	Err        error
}

func (e *UpstreamError) Error() string {
	switch {
	case e.StatusCode == 0 && e.Err != nil:
		return fmt.Sprintf("%s: request failed: %v", e.Op, e.Err)
	case e.Message != "":
		return fmt.Sprintf("%s: catalog API error %d: %s", e.Op, e.StatusCode, e.Message)
	default:
		return fmt.Sprintf("%s: catalog API error %d", e.Op, e.StatusCode)
	}
}

func (e *UpstreamError) Unwrap() error { return e.Err }

// Is reports whether target is ErrUpstream.
func (e *UpstreamError) Is(target error) bool { return target == ErrUpstream }

// IsNotFound reports whether the upstream said the resource does not exist.
func (e *UpstreamError) IsNotFound() bool {
	return e.StatusCode == 404 || e.Code == tmdbResourceNotFound
}

// NotFoundError is returned by GetDetail when the upstream has no such movie.
type NotFoundError struct {
	ID int
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("movie %d not found", e.ID)
}

// Is reports whether target is ErrNotFound.
func (e *NotFoundError) Is(target error) bool { return target == ErrNotFound }

// SchemaError is returned when a response body does not match the expected shape.
type SchemaError struct {
	Op  string
	Err error
}

func (e *SchemaError) Error() string {
	return fmt.Sprintf("%s: unexpected response shape: %v", e.Op, e.Err)
}

func (e *SchemaError) Unwrap() error { return e.Err }

// Is reports whether target is ErrSchema.
func (e *SchemaError) Is(target error) bool { return target == ErrSchema }
