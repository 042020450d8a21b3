package common

import "errors"

var (
	// Repository-level errors.
	ErrorNotFound = errors.New("not found")

	// ErrConflict reports a uniqueness violation: duplicate url, duplicate
	// (photo, width, height) or an already registered file stem.
	ErrConflict = errors.New("already exists")

	// ErrValidation reports a value outside the allowed domain (dimension,
	// height offset, empty file stem ...).
	ErrValidation = errors.New("validation error")

	// ErrReference reports a row pointing at a photo that does not exist.
	ErrReference = errors.New("referenced photo does not exist")

	// Service-level errors.
	ErrorInternal     = errors.New("internal error")
	ErrorUnauthorized = errors.New("unauthorized")
	ErrorForbidden    = errors.New("forbidden")

	// Auth errors (invalid, malformed or expired token).
	ErrInvalidToken = errors.New("invalid token")
	ErrTokenExpired = errors.New("token expired")
)
