package booking

import (
	"errors"
	"fmt"
)

// ErrorKind classifies a failure so callers can map it to user-visible
// behavior: 401 re-auth prompt, degraded aggregation, swallowed delivery
// failure, or a generic 500.
type ErrorKind string

const (
	ErrUnauthorized ErrorKind = "unauthorized"
	ErrUpstream     ErrorKind = "upstream"
	ErrDelivery     ErrorKind = "delivery"
	ErrInternal     ErrorKind = "internal"
)

// Error is the typed failure carried across component boundaries.
type Error struct {
	Kind    ErrorKind
	Status  int // upstream HTTP status when known, zero otherwise
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error { return e.Err }

// NewUnauthorized reports a missing or rejected auth token.
func NewUnauthorized(message string) *Error {
	return &Error{Kind: ErrUnauthorized, Status: 401, Message: message}
}

// NewUpstream reports a transport, status, or decode failure from the booking API.
func NewUpstream(status int, message string, err error) *Error {
	return &Error{Kind: ErrUpstream, Status: status, Message: message, Err: err}
}

// IsUnauthorized checks if an error indicates a missing or invalid token.
func IsUnauthorized(err error) bool {
	var be *Error
	return errors.As(err, &be) && be.Kind == ErrUnauthorized
}

// IsUpstream checks if an error came from the booking API.
func IsUpstream(err error) bool {
	var be *Error
	return errors.As(err, &be) && be.Kind == ErrUpstream
}
