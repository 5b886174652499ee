package validation

import (
	"errors"
	"net/url"
	"strconv"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"

	"github.com/estokealo/estokealo/internal/account"
	"github.com/estokealo/estokealo/internal/apperr"
)

// PathID parses a positive integer path parameter.
func PathID(name, raw string) (int64, error) {
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, apperr.BadRequest(map[string]string{name: "must be a positive integer"})
	}
	if err := validation.Validate(id,
		validation.Required.Error("must be a positive integer"),
		validation.Min(int64(1)).Error("must be a positive integer"),
	); err != nil {
		return 0, apperr.BadRequest(map[string]string{name: err.Error()})
	}
	return id, nil
}

// EmailQuery reads a required email query parameter.
func EmailQuery(q url.Values) (string, error) {
	email := q.Get("email")
	if err := apperr.Validation(validation.Errors{
		"email": validation.Validate(email, validation.Required, is.Email),
	}); err != nil {
		return "", err
	}
	return email, nil
}

// RoleFilterQuery reads the status, page and limit query parameters.
func RoleFilterQuery(q url.Values) (account.RoleFilter, error) {
	var f account.RoleFilter
	errs := validation.Errors{}

	if raw := q.Get("page"); raw != "" {
		page, err := strconv.Atoi(raw)
		if err != nil {
			err = errors.New("must be an integer")
		} else {
			err = validation.Validate(page, validation.Required, validation.Min(1))
		}
		errs["page"] = err
		f.Page = page
	}
	if raw := q.Get("limit"); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil {
			err = errors.New("must be an integer")
		} else {
			err = validation.Validate(limit, validation.Required, validation.Min(1), validation.Max(100))
		}
		errs["limit"] = err
		f.Limit = limit
	}
	if raw := q.Get("status"); raw != "" {
		errs["status"] = validation.Validate(raw, validation.In(
			string(account.InvitationPending),
			string(account.InvitationAccepted),
			string(account.InvitationRejected),
		))
		status := account.InvitationStatus(raw)
		f.Status = &status
	}

	if err := apperr.Validation(errs); err != nil {
		return account.RoleFilter{}, err
	}
	return f.Normalize(), nil
}
