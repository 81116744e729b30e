package domain

import "errors"

// ErrNotFound is returned by repo and service functions when the requested
// resource does not exist in the database.
// Handlers should map this to HTTP 404.
var ErrNotFound = errors.New("not found")

// ErrValidation is returned by service functions when input fails business
// rule validation (e.g. age out of range, expiry date in the past).
// Handlers should map this to HTTP 422 Unprocessable Entity.
var ErrValidation = errors.New("validation error")

// ErrConflict is returned when a write would break a uniqueness rule
// (duplicate license plate, second active driver on a fleet) or when a record
// cannot be deleted because dependent records still reference it.
// Handlers should map this to HTTP 409.
var ErrConflict = errors.New("conflict")

// ErrForbidden is returned when the caller's area scope does not cover the
// requested record. Handlers should map this to HTTP 403.
var ErrForbidden = errors.New("forbidden")

// ErrUnauthorized is returned for bad credentials or an inactive account.
// Handlers should map this to HTTP 401.
var ErrUnauthorized = errors.New("unauthorized")
