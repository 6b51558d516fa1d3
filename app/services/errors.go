package services

import "errors"

var (
	// ErrForbidden is returned when a user changes content they do not own.
	ErrForbidden = errors.New("permission denied")
	// ErrSelfFollow is returned when a user tries to follow themselves.
	ErrSelfFollow = errors.New("cannot follow yourself")
	// ErrInvalidCredentials is returned for an unknown username or wrong password.
	ErrInvalidCredentials = errors.New("invalid username or password")
)
