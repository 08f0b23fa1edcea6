package client

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
)

// Kind classifies a failed request.
type Kind string

const (
	// Timeout means the request exceeded its deadline.
	Timeout Kind = "Timeout"
	// NotFound means the endpoint answered 404.
	NotFound Kind = "NotFound"
	// ServerError means the endpoint answered 5xx.
	ServerError Kind = "ServerError"
	// Unreachable means no response was received.
	Unreachable Kind = "Unreachable"
	// Unknown covers everything else.
	Unknown Kind = "Unknown"
)

// Message returns the user-facing text for the kind.
func (k Kind) Message() string {
	switch k {
	case Timeout:
		return "Request timeout. Please check your connection and try again."
	case NotFound:
		return "Songs not found. The backend server might not be running."
	case ServerError:
		return "Server error. Please try again later."
	case Unreachable:
		return "Cannot connect to server. Please check if the backend is running."
	}
	return "Failed to fetch songs. Please try again."
}

// Error is a classified request failure.
type Error struct {
	Kind   Kind
	Status int
	Err    error
}

func (e *Error) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("%s (status %d): %v", e.Kind, e.Status, e.Err)
	}
	return fmt.Sprintf("%s: %v", e.Kind, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Message returns the user-facing text for the failure.
func (e *Error) Message() string {
	return e.Kind.Message()
}

// KindOf classifies err. Errors not produced by this package are classified
// by inspecting them directly.
func KindOf(err error) Kind {
	if err == nil {
		return ""
	}
	var ce *Error
	if errors.As(err, &ce) {
		return ce.Kind
	}
	return classifyTransport(err)
}

// classifyTransport classifies an error returned before any response arrived.
func classifyTransport(err error) Kind {
	if errors.Is(err, context.DeadlineExceeded) {
		return Timeout
	}
	var ne net.Error
	if errors.As(err, &ne) && ne.Timeout() {
		return Timeout
	}
	if errors.Is(err, context.Canceled) {
		return Unknown
	}
	return Unreachable
}

// classifyStatus classifies a non-2xx response.
func classifyStatus(status int) Kind {
	switch {
	case status == http.StatusNotFound:
		return NotFound
	case status >= 500:
		return ServerError
	}
	return Unknown
}
