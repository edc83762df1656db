// Package apperr collects the sentinel error kinds shared by the store,
// index and service layers, and maps them to HTTP status codes at the
// server boundary.
package apperr

import (
	"errors"
	"net/http"
)

// Sentinel error kinds, per spec §7.
var (
	ErrNotFound          = errors.New("entity not found")
	ErrValidation        = errors.New("validation failed")
	ErrForeignKeyMissing = errors.New("referenced parent does not exist")
	ErrDimensionMismatch = errors.New("vector dimension mismatch")
	ErrUnknownIndex      = errors.New("unknown index name")
	ErrStoreFailure      = errors.New("store failure")
)

// StatusFor maps an error produced anywhere in the core to the HTTP status
// code the server should return. Errors that don't match any sentinel kind
// are treated as opaque 500s.
func StatusFor(err error) int {
	switch {
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrValidation):
		return http.StatusUnprocessableEntity
	case errors.Is(err, ErrForeignKeyMissing):
		return http.StatusNotFound
	case errors.Is(err, ErrDimensionMismatch):
		return http.StatusBadRequest
	case errors.Is(err, ErrUnknownIndex):
		return http.StatusBadRequest
	case errors.Is(err, ErrStoreFailure):
		return http.StatusInternalServerError
	default:
		return http.StatusInternalServerError
	}
}
