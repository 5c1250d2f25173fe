// Package errs contains sentinel errors used across layers for stable error mapping.
package errs

import "errors"

// Common sentinels across repo/service layers.
var (
	// ErrNotFound indicates the requested entity does not exist.
	ErrNotFound = errors.New("not found")

	// ErrForbidden indicates the caller is known but may not touch the entity.
	ErrForbidden = errors.New("forbidden")

	// ErrConflict indicates a unique constraint violation (card code, user email).
	ErrConflict = errors.New("conflict")

	// ErrValidation indicates malformed input; details are wrapped around it.
	ErrValidation = errors.New("validation")

	// ErrUnauthorized indicates failed authentication.
	ErrUnauthorized = errors.New("unauthorized")

	// ErrRateLimited indicates temporary sign-in lock due to rate limiting.
	ErrRateLimited = errors.New("rate limited")
)
