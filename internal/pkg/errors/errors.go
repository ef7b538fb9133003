package errors

import "errors"

var (
	ErrUnauthorized  = errors.New("unauthorized")
	ErrInvalid       = errors.New("invalid")
	ErrConflict      = errors.New("conflict")
	ErrTooMany       = errors.New("too many requests")
	ErrUnavailable   = errors.New("service unavailable")
	ErrMisconfigured = errors.New("service misconfigured")
)
