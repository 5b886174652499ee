package apperr

import (
	"errors"

	validation "github.com/go-ozzo/ozzo-validation"
)

// Validation converts per-field validation results into a BadRequest. It
// returns nil when every field passed.
func Validation(errs validation.Errors) error {
	err := errs.Filter()
	if err == nil {
		return nil
	}
	var verrs validation.Errors
	if !errors.As(err, &verrs) {
		return BadRequest(map[string]string{"body": err.Error()})
	}
	fields := make(map[string]string, len(verrs))
	for field, e := range verrs {
		fields[field] = e.Error()
	}
	return BadRequest(fields)
}
