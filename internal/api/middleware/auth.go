package middleware

import (
	"net/http"
	"strings"

	"github.com/estokealo/estokealo/internal/api/response"
	"github.com/estokealo/estokealo/internal/apperr"
	"github.com/estokealo/estokealo/internal/guard"
	"github.com/estokealo/estokealo/internal/token"
)

// VerificationHandlerFunc handles a request carrying a verification token.
type VerificationHandlerFunc func(w http.ResponseWriter, r *http.Request, v *token.Verification)

// VerifiedHandlerFunc handles a request carrying a verified token.
type VerifiedHandlerFunc func(w http.ResponseWriter, r *http.Request, v *token.Verified)

// UserHandlerFunc handles a request carrying a user or role token.
type UserHandlerFunc func(w http.ResponseWriter, r *http.Request, us *guard.UserSession)

// Auth adapts the stage guards to HTTP handlers. Each adapter reads the
// Authorization bearer token, runs the guard and hands the typed session
// to the wrapped handler. Guard failures are written as error envelopes.
type Auth struct {
	guard *guard.Guard
}

// NewAuth creates an Auth.
func NewAuth(g *guard.Guard) *Auth {
	return &Auth{guard: g}
}

// Verification requires a verification-stage token.
func (a *Auth) Verification(h VerificationHandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		raw, ok := bearer(w, r)
		if !ok {
			return
		}
		v, err := a.guard.Verification(r.Context(), raw)
		if err != nil {
			response.AppError(w, err, GetRequestID(r.Context()))
			return
		}
		h(w, r, v)
	}
}

// Verified requires a verified-stage token.
func (a *Auth) Verified(h VerifiedHandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		raw, ok := bearer(w, r)
		if !ok {
			return
		}
		v, err := a.guard.Verified(r.Context(), raw)
		if err != nil {
			response.AppError(w, err, GetRequestID(r.Context()))
			return
		}
		h(w, r, v)
	}
}

// User requires a user or role token of an enabled user.
func (a *Auth) User(h UserHandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		raw, ok := bearer(w, r)
		if !ok {
			return
		}
		us, err := a.guard.User(r.Context(), raw)
		if err != nil {
			response.AppError(w, err, GetRequestID(r.Context()))
			return
		}
		h(w, r, us)
	}
}

// BearerToken extracts the token from an "Authorization: Bearer" header.
func BearerToken(r *http.Request) (string, bool) {
	scheme, raw, found := strings.Cut(r.Header.Get("Authorization"), " ")
	if !found || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	raw = strings.TrimSpace(raw)
	return raw, raw != ""
}

// bearer writes a 401 when the request carries no bearer token.
func bearer(w http.ResponseWriter, r *http.Request) (string, bool) {
	raw, ok := BearerToken(r)
	if !ok {
		response.AppError(w, apperr.InvalidToken("missing bearer token"), GetRequestID(r.Context()))
		return "", false
	}
	return raw, true
}
