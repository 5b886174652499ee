package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/estokealo/estokealo/internal/account"
	"github.com/estokealo/estokealo/internal/api/validation"
	"github.com/estokealo/estokealo/internal/guard"
	"github.com/estokealo/estokealo/internal/membership"
)

// CompanyHandler handles the /company endpoints, scoped to the company of
// the role token.
type CompanyHandler struct {
	members *membership.Service
}

// NewCompanyHandler creates a new CompanyHandler.
func NewCompanyHandler(members *membership.Service) *CompanyHandler {
	return &CompanyHandler{members: members}
}

// Get handles GET /company.
func (h *CompanyHandler) Get(w http.ResponseWriter, r *http.Request, rs *guard.RoleSession) {
	res := h.members.Company(r.Context(), rs)
	render(w, r, res, nil, func(c *account.Company) any { return toCompanyResponse(c) })
}

// ListRoles handles GET /company/roles.
func (h *CompanyHandler) ListRoles(w http.ResponseWriter, r *http.Request, rs *guard.RoleSession) {
	res, err := h.members.ListRoles(r.Context(), rs)
	render(w, r, res, err, func(roles []account.Role) any { return toRoleResponses(roles) })
}

// Invite handles POST /company/roles.
func (h *CompanyHandler) Invite(w http.ResponseWriter, r *http.Request, rs *guard.RoleSession) {
	var req validation.InviteRequest
	if err := decodeJSON(w, r, &req); err != nil {
		fail(w, r, err)
		return
	}
	res, err := h.members.Invite(r.Context(), rs, membership.InviteInput{
		Email:       req.Email,
		AccessLevel: account.AccessLevel(*req.AccessLevel),
	})
	render(w, r, res, err, func(role *account.Role) any { return toRoleResponse(role) })
}

// UpdateRole handles PUT /company/roles/{role_id}.
func (h *CompanyHandler) UpdateRole(w http.ResponseWriter, r *http.Request, rs *guard.RoleSession) {
	roleID, err := validation.PathID("role_id", chi.URLParam(r, "role_id"))
	if err != nil {
		fail(w, r, err)
		return
	}
	var req validation.UpdateRoleRequest
	if err := decodeJSON(w, r, &req); err != nil {
		fail(w, r, err)
		return
	}
	res, err := h.members.UpdateRole(r.Context(), rs, roleID, req.Update())
	render(w, r, res, err, func(role *account.Role) any { return toRoleResponse(role) })
}

// RemoveRole handles DELETE /company/roles/{role_id}.
func (h *CompanyHandler) RemoveRole(w http.ResponseWriter, r *http.Request, rs *guard.RoleSession) {
	roleID, err := validation.PathID("role_id", chi.URLParam(r, "role_id"))
	if err != nil {
		fail(w, r, err)
		return
	}
	res, err := h.members.RemoveRole(r.Context(), rs, roleID)
	render(w, r, res, err, nil)
}
