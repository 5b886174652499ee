// Package handler implements the HTTP endpoints. Handlers decode requests,
// call the orchestrators and render their results in the response envelope.
package handler

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/estokealo/estokealo/internal/api/middleware"
	"github.com/estokealo/estokealo/internal/api/response"
	"github.com/estokealo/estokealo/internal/apperr"
	"github.com/estokealo/estokealo/internal/result"
)

const maxBodyBytes = 1 << 20

// validatable is implemented by request bodies with shape rules.
type validatable interface {
	Validate() error
}

// decodeJSON reads a JSON body into dst, rejecting unknown fields, and runs
// its Validate method when it has one.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		var maxErr *http.MaxBytesError
		switch {
		case errors.As(err, &maxErr):
			return apperr.BadRequest(map[string]string{"body": "request body is too large"})
		case errors.Is(err, io.EOF):
			return apperr.BadRequest(map[string]string{"body": "request body is required"})
		default:
			return apperr.BadRequest(map[string]string{"body": "request body must be valid JSON: " + err.Error()})
		}
	}
	if v, ok := dst.(validatable); ok {
		return v.Validate()
	}
	return nil
}

// render writes res with its data converted by view, or err as an error envelope.
func render[T any](w http.ResponseWriter, r *http.Request, res *result.Result[T], err error, view func(T) any) {
	requestID := middleware.GetRequestID(r.Context())
	if err != nil {
		response.AppError(w, err, requestID)
		return
	}
	var data any
	if view != nil {
		data = view(res.Data)
	}
	response.Success(w, res.Status, res.Message, data, requestID)
}

func fail(w http.ResponseWriter, r *http.Request, err error) {
	response.AppError(w, err, middleware.GetRequestID(r.Context()))
}
