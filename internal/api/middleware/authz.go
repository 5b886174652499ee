package middleware

import (
	"net/http"

	"github.com/estokealo/estokealo/internal/account"
	"github.com/estokealo/estokealo/internal/api/response"
	"github.com/estokealo/estokealo/internal/guard"
)

// RoleHandlerFunc handles a request carrying a role token.
type RoleHandlerFunc func(w http.ResponseWriter, r *http.Request, rs *guard.RoleSession)

// Role requires a role token whose access level is at least as privileged
// as min.
func (a *Auth) Role(min account.AccessLevel, h RoleHandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		raw, ok := bearer(w, r)
		if !ok {
			return
		}
		rs, err := a.guard.Role(r.Context(), raw, min)
		if err != nil {
			response.AppError(w, err, GetRequestID(r.Context()))
			return
		}
		h(w, r, rs)
	}
}

// Viewer requires any enabled role in the company.
func (a *Auth) Viewer(h RoleHandlerFunc) http.HandlerFunc {
	return a.Role(account.LevelViewer, h)
}

// Operator requires an operator role or better.
func (a *Auth) Operator(h RoleHandlerFunc) http.HandlerFunc {
	return a.Role(account.LevelOperator, h)
}

// Admin requires an admin role or better.
func (a *Auth) Admin(h RoleHandlerFunc) http.HandlerFunc {
	return a.Role(account.LevelAdmin, h)
}
