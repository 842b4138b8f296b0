package api

import (
	"errors"
	"fmt"
)

// Client error taxonomy. Every gateway call fails with exactly one of these
// types so callers can branch on the failure class without string matching.
type (
	// ValidationError indicates invalid input caught before any network call.
	ValidationError struct {
		Message string
	}

	// NetworkError indicates the request never produced an HTTP response.
	NetworkError struct {
		Err error
	}

	// ServerError is a non-2xx response with the server's detail message,
	// when it provided one.
	ServerError struct {
		Status int
		Detail string
	}

	// NotFoundError indicates the referenced resource does not exist.
	NotFoundError struct {
		Resource string
		ID       int64
	}
)

func (e *ValidationError) Error() string { return e.Message }

func (e *NetworkError) Error() string { return fmt.Sprintf("network error: %v", e.Err) }

func (e *NetworkError) Unwrap() error { return e.Err }

func (e *ServerError) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("server error (status %d): %s", e.Status, e.Detail)
	}
	return fmt.Sprintf("server error (status %d)", e.Status)
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %d not found", e.Resource, e.ID)
}

// UserMessage converts a gateway failure into the single string shown to the
// user: the server-provided detail when present, otherwise the transport
// message, otherwise a generic fallback.
func UserMessage(err error) string {
	if err == nil {
		return ""
	}

	var serverErr *ServerError
	if errors.As(err, &serverErr) && serverErr.Detail != "" {
		return serverErr.Detail
	}

	var notFound *NotFoundError
	if errors.As(err, &notFound) {
		return notFound.Error()
	}

	var netErr *NetworkError
	if errors.As(err, &netErr) && netErr.Err != nil {
		return netErr.Err.Error()
	}

	if msg := err.Error(); msg != "" {
		return msg
	}
	return "Something went wrong, please try again"
}
