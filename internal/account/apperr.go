package account

import (
	"errors"

	"github.com/estokealo/estokealo/internal/apperr"
)

// AsAppError maps store errors onto the application error taxonomy.
// notFound is reported as the field details of a NotFound error.
// Errors that already are *apperr.Error pass through unchanged.
func AsAppError(err error, notFound map[string]string) error {
	if err == nil {
		return nil
	}
	var appErr *apperr.Error
	var conflict *ConflictError
	switch {
	case errors.As(err, &appErr):
		return appErr
	case errors.Is(err, ErrNotFound):
		return apperr.NotFound(notFound)
	case errors.As(err, &conflict):
		return apperr.Conflict(map[string]string{conflict.Field: "already exists"})
	case errors.Is(err, ErrConflict):
		return apperr.Conflict(nil)
	case errors.Is(err, ErrUnavailable):
		return apperr.ServiceUnavailable(err, map[string]string{"store": "credential store unavailable"})
	default:
		return apperr.From(err)
	}
}
