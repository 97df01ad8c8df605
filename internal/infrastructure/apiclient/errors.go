package apiclient

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/imene253/AI-TECH-DZ2/internal/core/domain"
)

// Synthetic statuses for failures where no HTTP response was received.
// Both lie outside the range of real HTTP status codes.
const (
	StatusNetwork = 0
	StatusTimeout = -1
)

// APIError is the uniform failure shape of every remote call.
type APIError struct {
	Status  int
	Message string
	Data    any
	cause   error
}

func (e *APIError) Error() string {
	switch e.Status {
	case StatusTimeout:
		return "request timed out"
	case StatusNetwork:
		if e.cause != nil {
			return fmt.Sprintf("network failure: %v", e.cause)
		}
		return "network failure"
	}
	return fmt.Sprintf("http %d: %s", e.Status, e.Message)
}

func (e *APIError) Unwrap() error { return e.cause }

// Is maps the status onto the domain failure taxonomy.
func (e *APIError) Is(target error) bool {
	switch target {
	case domain.ErrTimeout:
		return e.Status == StatusTimeout
	case domain.ErrNetwork:
		return e.Status == StatusNetwork || e.Status == StatusTimeout
	case domain.ErrAuthExpired:
		return e.Status == http.StatusUnauthorized || e.Status == http.StatusForbidden
	case domain.ErrNotFound:
		return e.Status == http.StatusNotFound
	case domain.ErrParse:
		return errors.Is(e.cause, domain.ErrParse)
	}
	return false
}

// StatusOf returns the status carried by err, or StatusNetwork when err is
// not an *APIError.
func StatusOf(err error) int {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Status
	}
	return StatusNetwork
}
