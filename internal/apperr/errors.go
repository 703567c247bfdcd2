// Package apperr classifies failures of external services into the small
// taxonomy the answer path reports to users.
package apperr

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
)

// ErrAuthentication marks credential or permission failures from any
// external service.
var ErrAuthentication = errors.New("authentication failed")

// StatusError is a non-2xx response from an external HTTP service.
type StatusError struct {
	Service    string
	StatusCode int
	Message    string
}

func (e *StatusError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("%s: http %d", e.Service, e.StatusCode)
	}
	return fmt.Sprintf("%s: http %d: %s", e.Service, e.StatusCode, e.Message)
}

// Is lets errors.Is(err, ErrAuthentication) match 401 and 403 responses.
func (e *StatusError) Is(target error) bool {
	return target == ErrAuthentication &&
		(e.StatusCode == http.StatusUnauthorized || e.StatusCode == http.StatusForbidden)
}

// NewStatusError builds a StatusError for the given service.
func NewStatusError(service string, status int, message string) error {
	return &StatusError{Service: service, StatusCode: status, Message: message}
}

type Class int

const (
	ClassNone Class = iota
	ClassAuthentication
	ClassHTTP
	ClassUnknown
)

func (c Class) String() string {
	switch c {
	case ClassNone:
		return "none"
	case ClassAuthentication:
		return "authentication"
	case ClassHTTP:
		return "http"
	default:
		return "unknown"
	}
}

// Classify maps err onto the taxonomy. Transport failures (dial, DNS,
// timeouts) count as HTTP failures.
func Classify(err error) Class {
	if err == nil {
		return ClassNone
	}
	if errors.Is(err, ErrAuthentication) {
		return ClassAuthentication
	}

	var se *StatusError
	if errors.As(err, &se) {
		return ClassHTTP
	}

	var netErr net.Error
	if errors.As(err, &netErr) || errors.Is(err, context.DeadlineExceeded) {
		return ClassHTTP
	}

	return ClassUnknown
}
