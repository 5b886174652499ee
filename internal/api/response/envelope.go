package response

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/estokealo/estokealo/internal/apperr"
)

const (
	resultSuccess = "success"
	resultError   = "error"
)

// Meta holds metadata for every API response.
type Meta struct {
	RequestID string `json:"requestId"`
	Timestamp string `json:"timestamp"`
}

// ListMeta extends Meta with pagination information.
type ListMeta struct {
	Meta
	Total int `json:"total"`
	Page  int `json:"page"`
	Limit int `json:"limit"`
}

// Error represents a structured API error. Details maps request fields to
// the reason they were rejected.
type Error struct {
	Code    string            `json:"code"`
	Message string            `json:"message"`
	Details map[string]string `json:"details,omitempty"`
}

// Envelope is the standard API response wrapper.
type Envelope struct {
	Result  string `json:"result"`
	Message string `json:"message"`
	Data    any    `json:"data"`
	Error   *Error `json:"error"`
	Meta    any    `json:"meta"`
}

// NewMeta creates a Meta with a new UUID and current timestamp.
// If requestID is provided, it uses that instead of generating a new one.
func NewMeta(requestID string) Meta {
	if requestID == "" {
		requestID = uuid.New().String()
	}
	return Meta{
		RequestID: requestID,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	}
}

// JSON writes a JSON response with the given status code and envelope.
func JSON(w http.ResponseWriter, status int, env Envelope) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(env); err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}

// Success writes a successful JSON response.
func Success(w http.ResponseWriter, status int, message string, data any, requestID string) {
	JSON(w, status, Envelope{
		Result:  resultSuccess,
		Message: message,
		Data:    data,
		Meta:    NewMeta(requestID),
	})
}

// SuccessList writes a successful list JSON response with pagination metadata.
func SuccessList(w http.ResponseWriter, status int, message string, data any, total, page, limit int, requestID string) {
	JSON(w, status, Envelope{
		Result:  resultSuccess,
		Message: message,
		Data:    data,
		Meta: ListMeta{
			Meta:  NewMeta(requestID),
			Total: total,
			Page:  page,
			Limit: limit,
		},
	})
}

// Err writes an error JSON response.
func Err(w http.ResponseWriter, status int, code string, message string, requestID string) {
	ErrWithDetails(w, status, code, message, nil, requestID)
}

// ErrWithDetails writes an error JSON response with field details.
func ErrWithDetails(w http.ResponseWriter, status int, code string, message string, details map[string]string, requestID string) {
	JSON(w, status, Envelope{
		Result:  resultError,
		Message: message,
		Error: &Error{
			Code:    code,
			Message: message,
			Details: details,
		},
		Meta: NewMeta(requestID),
	})
}

// AppError writes err using its apperr kind. Internal and unavailable
// errors are logged with their cause; their cause is never sent to clients.
func AppError(w http.ResponseWriter, err error, requestID string) {
	e := apperr.From(err)
	switch e.Kind {
	case apperr.KindInternal:
		slog.Error("request failed", "error", err, "requestId", requestID)
	case apperr.KindServiceUnavailable:
		slog.Warn("dependency unavailable", "error", errors.Unwrap(e), "details", e.Fields, "requestId", requestID)
	}
	ErrWithDetails(w, e.Status(), string(e.Kind), e.Message, e.Fields, requestID)
}
