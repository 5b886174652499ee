package handler

import (
	"net/http"

	"github.com/estokealo/estokealo/internal/api/middleware"
	"github.com/estokealo/estokealo/internal/api/validation"
	"github.com/estokealo/estokealo/internal/apperr"
	"github.com/estokealo/estokealo/internal/authflow"
	"github.com/estokealo/estokealo/internal/guard"
	"github.com/estokealo/estokealo/internal/token"
)

// AuthHandler handles the /auth endpoints.
type AuthHandler struct {
	flow *authflow.Service
}

// NewAuthHandler creates a new AuthHandler.
func NewAuthHandler(flow *authflow.Service) *AuthHandler {
	return &AuthHandler{flow: flow}
}

// RequestCode handles GET /auth/email-validation?email=.
func (h *AuthHandler) RequestCode(w http.ResponseWriter, r *http.Request) {
	email, err := validation.EmailQuery(r.URL.Query())
	if err != nil {
		fail(w, r, err)
		return
	}
	res, err := h.flow.RequestVerification(r.Context(), email)
	render(w, r, res, err, func(v authflow.VerificationIssued) any {
		return map[string]string{"verification_token": v.VerificationToken}
	})
}

// ConfirmCode handles PUT /auth/email-validation.
func (h *AuthHandler) ConfirmCode(w http.ResponseWriter, r *http.Request, v *token.Verification) {
	var req validation.ConfirmCodeRequest
	if err := decodeJSON(w, r, &req); err != nil {
		fail(w, r, err)
		return
	}
	res, err := h.flow.ConfirmVerification(r.Context(), v, *req.VerificationCode)
	render(w, r, res, err, func(v authflow.EmailVerified) any {
		return map[string]string{"verified_token": v.VerifiedToken}
	})
}

// Signup handles POST /auth/signup.
func (h *AuthHandler) Signup(w http.ResponseWriter, r *http.Request, v *token.Verified) {
	var req validation.SignupRequest
	if err := decodeJSON(w, r, &req); err != nil {
		fail(w, r, err)
		return
	}
	res, err := h.flow.Signup(r.Context(), v, authflow.SignupInput{
		Password:   req.Password,
		RePassword: req.RePassword,
		FirstName:  req.FirstName,
		LastName:   req.LastName,
	})
	render(w, r, res, err, toSessionResponse)
}

// ResetPassword handles PUT /auth/password-reset.
func (h *AuthHandler) ResetPassword(w http.ResponseWriter, r *http.Request, v *token.Verified) {
	var req validation.PasswordResetRequest
	if err := decodeJSON(w, r, &req); err != nil {
		fail(w, r, err)
		return
	}
	res, err := h.flow.ResetPassword(r.Context(), v, authflow.PasswordResetInput{
		NewPassword: req.NewPassword,
		RePassword:  req.RePassword,
	})
	render(w, r, res, err, nil)
}

// Login handles POST /auth/login.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req validation.LoginRequest
	if err := decodeJSON(w, r, &req); err != nil {
		fail(w, r, err)
		return
	}
	res, err := h.flow.Login(r.Context(), authflow.LoginInput{
		Email:     req.Email,
		Password:  req.Password,
		CompanyID: req.CompanyID,
	})
	render(w, r, res, err, toSessionResponse)
}

// Logout handles DELETE /auth/logout. Expired tokens are accepted.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	raw, ok := middleware.BearerToken(r)
	if !ok {
		fail(w, r, apperr.InvalidToken("missing bearer token"))
		return
	}
	res, err := h.flow.Logout(r.Context(), raw)
	render(w, r, res, err, nil)
}

// Introspect handles GET /auth/test-jwt.
func (h *AuthHandler) Introspect(w http.ResponseWriter, r *http.Request, us *guard.UserSession) {
	res, err := h.flow.Introspect(r.Context(), us)
	render(w, r, res, err, func(i authflow.Introspection) any {
		return sessionResponse{User: toUserResponse(i.User), Role: toRoleResponse(i.Role)}
	})
}

// PublicUserInfo handles GET /auth/user-public-info?email=.
func (h *AuthHandler) PublicUserInfo(w http.ResponseWriter, r *http.Request) {
	email, err := validation.EmailQuery(r.URL.Query())
	if err != nil {
		fail(w, r, err)
		return
	}
	res, err := h.flow.PublicUserInfo(r.Context(), email)
	render(w, r, res, err, func(p authflow.PublicUser) any {
		out := publicUserResponse{userSummary: *toUserSummary(p.User), Companies: []companySummary{}}
		for i := range p.Companies {
			out.Companies = append(out.Companies, *toCompanySummary(&p.Companies[i]))
		}
		return map[string]any{"user_public": out}
	})
}
