package domain

import "errors"

// ErrConstraintViolation is returned by repo functions when a write breaks
// referential integrity, such as an itinerary item whose TripID references no
// existing trip. The write is rejected and storage is left unchanged.
// Handlers should map this to HTTP 422.
var ErrConstraintViolation = errors.New("constraint violation")

// ErrValidation is returned when input fails a request-level check before
// reaching storage (e.g. a malformed ID in the URL).
// Handlers should map this to HTTP 422 Unprocessable Entity.
var ErrValidation = errors.New("validation error")

// Absence of a row is not an error: by-id queries emit a nil pointer when no
// matching row exists, and deletes of missing rows are silent no-ops.
