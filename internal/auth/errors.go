package auth

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	// ErrUnauthorized matches an APIError carrying a 401.
	ErrUnauthorized = errors.New("credentials rejected")

	// ErrServerUnavailable matches 5xx responses and transport failures.
	ErrServerUnavailable = errors.New("server unavailable")
)

// APIError is a non-2xx answer from the login endpoint. Message is the
// server-provided text and is shown to the user as-is.
type APIError struct {
	StatusCode int
	Message    string
	RequestID  string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("login failed with status %d", e.StatusCode)
	}
	return fmt.Sprintf("login failed with status %d: %s", e.StatusCode, e.Message)
}

func (e *APIError) Is(target error) bool {
	switch target {
	case ErrUnauthorized:
		return e.StatusCode == http.StatusUnauthorized
	case ErrServerUnavailable:
		return e.StatusCode >= 500
	}
	return false
}

// TransportError wraps a failure to reach the server at all.
type TransportError struct {
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("failed to reach login endpoint: %v", e.Err)
}

func (e *TransportError) Unwrap() []error {
	return []error{e.Err, ErrServerUnavailable}
}
