package errors

import (
	"net/http"

	"github.com/cockroachdb/errors"
)

// Sentinel marks. Every error leaving a package boundary is marked with one of
// these so callers can branch on class without string matching.
var (
	ErrValidation       = errors.New("validation_error")
	ErrInvalidDateRange = errors.New("invalid_date_range")
	ErrNotFound         = errors.New("not_found")
	ErrAlreadyExists    = errors.New("already_exists")
	ErrDatabase         = errors.New("database_error")
	ErrHTTPClient       = errors.New("http_client_error")
	ErrPermissionDenied = errors.New("permission_denied")
	ErrInternal         = errors.New("internal_error")
)

// New creates a plain error without hints or marks. Prefer NewError + Mark
// for anything that crosses a package boundary.
func New(msg string) error {
	return errors.New(msg)
}

// Is reports whether err carries the given mark anywhere in its chain.
func Is(err, mark error) bool {
	return errors.Is(err, mark)
}

func IsValidation(err error) bool {
	return errors.Is(err, ErrValidation) || errors.Is(err, ErrInvalidDateRange)
}

func IsInvalidDateRange(err error) bool {
	return errors.Is(err, ErrInvalidDateRange)
}

func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

func IsDatabase(err error) bool {
	return errors.Is(err, ErrDatabase)
}

// HTTPStatusFromErr maps marked errors to HTTP status codes for the REST layer.
func HTTPStatusFromErr(err error) int {
	switch {
	case errors.Is(err, ErrValidation), errors.Is(err, ErrInvalidDateRange):
		return http.StatusBadRequest
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrAlreadyExists):
		return http.StatusConflict
	case errors.Is(err, ErrPermissionDenied):
		return http.StatusForbidden
	default:
		return http.StatusInternalServerError
	}
}
