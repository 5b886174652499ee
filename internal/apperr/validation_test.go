package apperr_test

import (
	"errors"
	"testing"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/estokealo/estokealo/internal/apperr"
)

func TestValidation_AllFieldsPass(t *testing.T) {
	err := apperr.Validation(validation.Errors{
		"email": validation.Validate("ana@example.com", validation.Required),
		"name":  nil,
	})

	assert.NoError(t, err)
}

func TestValidation_CollectsFailingFields(t *testing.T) {
	err := apperr.Validation(validation.Errors{
		"email": validation.Validate("", validation.Required),
		"name":  validation.Validate("Ana", validation.Required),
		"page":  errors.New("must be an integer"),
	})

	require.Error(t, err)
	e := apperr.From(err)
	assert.Equal(t, apperr.KindBadRequest, e.Kind)
	assert.Equal(t, map[string]string{
		"email": "cannot be blank",
		"page":  "must be an integer",
	}, e.Fields)
}
