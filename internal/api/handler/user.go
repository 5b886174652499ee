package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/estokealo/estokealo/internal/account"
	"github.com/estokealo/estokealo/internal/api/middleware"
	"github.com/estokealo/estokealo/internal/api/response"
	"github.com/estokealo/estokealo/internal/api/validation"
	"github.com/estokealo/estokealo/internal/authflow"
	"github.com/estokealo/estokealo/internal/guard"
	"github.com/estokealo/estokealo/internal/membership"
)

// UserHandler handles the /users/me endpoints.
type UserHandler struct {
	flow    *authflow.Service
	members *membership.Service
}

// NewUserHandler creates a new UserHandler.
func NewUserHandler(flow *authflow.Service, members *membership.Service) *UserHandler {
	return &UserHandler{flow: flow, members: members}
}

// Profile handles GET /users/me.
func (h *UserHandler) Profile(w http.ResponseWriter, r *http.Request, us *guard.UserSession) {
	res := h.members.Profile(r.Context(), us)
	render(w, r, res, nil, func(u *account.User) any { return toUserResponse(u) })
}

// UpdateProfile handles PUT /users/me.
func (h *UserHandler) UpdateProfile(w http.ResponseWriter, r *http.Request, us *guard.UserSession) {
	var req validation.UpdateProfileRequest
	if err := decodeJSON(w, r, &req); err != nil {
		fail(w, r, err)
		return
	}
	res, err := h.members.UpdateProfile(r.Context(), us, req.Update())
	render(w, r, res, err, func(u *account.User) any { return toUserResponse(u) })
}

// ListCompanies handles GET /users/me/companies.
func (h *UserHandler) ListCompanies(w http.ResponseWriter, r *http.Request, us *guard.UserSession) {
	filter, err := validation.RoleFilterQuery(r.URL.Query())
	if err != nil {
		fail(w, r, err)
		return
	}
	res, err := h.members.ListCompanies(r.Context(), us, filter)
	if err != nil {
		fail(w, r, err)
		return
	}
	page := res.Data
	response.SuccessList(w, res.Status, res.Message, toRoleResponses(page.Roles),
		page.Total, page.Page, page.Limit, middleware.GetRequestID(r.Context()))
}

// CreateCompany handles POST /users/me/companies.
func (h *UserHandler) CreateCompany(w http.ResponseWriter, r *http.Request, us *guard.UserSession) {
	var req validation.CreateCompanyRequest
	if err := decodeJSON(w, r, &req); err != nil {
		fail(w, r, err)
		return
	}
	res, err := h.members.CreateCompany(r.Context(), us, membership.CompanyInput{
		Name:     req.Name,
		Logo:     req.Logo,
		TZName:   req.TZName,
		Address:  req.Address,
		Currency: req.Currency,
	})
	render(w, r, res, err, func(role *account.Role) any {
		out := toRoleResponse(role)
		return map[string]any{"role": out, "company": toCompanyResponse(role.Company)}
	})
}

// ResolveInvitation handles PUT /users/me/companies/{company_id}/invitation.
func (h *UserHandler) ResolveInvitation(w http.ResponseWriter, r *http.Request, us *guard.UserSession) {
	companyID, err := validation.PathID("company_id", chi.URLParam(r, "company_id"))
	if err != nil {
		fail(w, r, err)
		return
	}
	var req validation.ResolveInvitationRequest
	if err := decodeJSON(w, r, &req); err != nil {
		fail(w, r, err)
		return
	}
	res, err := h.members.ResolveInvitation(r.Context(), us, companyID, *req.AcceptInvitation)
	render(w, r, res, err, func(role *account.Role) any { return toRoleResponse(role) })
}

// ActivateCompany handles GET /users/me/companies/{company_id}/activate.
func (h *UserHandler) ActivateCompany(w http.ResponseWriter, r *http.Request, us *guard.UserSession) {
	companyID, err := validation.PathID("company_id", chi.URLParam(r, "company_id"))
	if err != nil {
		fail(w, r, err)
		return
	}
	res, err := h.flow.ActivateCompany(r.Context(), us, companyID)
	render(w, r, res, err, func(s authflow.Session) any {
		return sessionResponse{AccessToken: s.AccessToken, Role: toRoleResponse(s.Role)}
	})
}
