package domain

import "errors"

var (
	ErrNotFound              = errors.New("not found")
	ErrInvalidInput          = errors.New("invalid input")
	ErrConflict              = errors.New("conflict")
	ErrUnauthorized          = errors.New("unauthorized")
	ErrUnknownDestination    = errors.New("unknown postback destination")
	ErrDependencyUnavailable = errors.New("dependency unavailable")
)
