// Package validation checks the shape of HTTP requests before they reach the
// orchestrators. Business rules such as password strength live with the
// operations themselves.
package validation

import (
	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"

	"github.com/estokealo/estokealo/internal/account"
	"github.com/estokealo/estokealo/internal/apperr"
	"github.com/estokealo/estokealo/internal/token"
)

// ConfirmCodeRequest is the body of PUT /auth/email-validation.
type ConfirmCodeRequest struct {
	VerificationCode *int `json:"verification_code"`
}

// Validate checks the code is present and has six digits.
func (r ConfirmCodeRequest) Validate() error {
	return apperr.Validation(validation.Errors{
		"verification_code": validation.Validate(r.VerificationCode,
			validation.Required,
			validation.Min(token.MinVerificationCode),
			validation.Max(token.MaxVerificationCode),
		),
	})
}

// SignupRequest is the body of POST /auth/signup.
type SignupRequest struct {
	Password   string `json:"password"`
	RePassword string `json:"re_password"`
	FirstName  string `json:"first_name"`
	LastName   string `json:"last_name"`
}

// Validate checks every field is present.
func (r SignupRequest) Validate() error {
	return apperr.Validation(validation.Errors{
		"password":    validation.Validate(r.Password, validation.Required),
		"re_password": validation.Validate(r.RePassword, validation.Required),
		"first_name":  validation.Validate(r.FirstName, validation.Required),
		"last_name":   validation.Validate(r.LastName, validation.Required),
	})
}

// LoginRequest is the body of POST /auth/login.
type LoginRequest struct {
	Email     string `json:"email"`
	Password  string `json:"password"`
	CompanyID *int64 `json:"company_id"`
}

// Validate checks the credentials are present and the company id, when
// given, is positive.
func (r LoginRequest) Validate() error {
	return apperr.Validation(validation.Errors{
		"email":      validation.Validate(r.Email, validation.Required, is.Email),
		"password":   validation.Validate(r.Password, validation.Required),
		"company_id": validation.Validate(r.CompanyID, validation.NilOrNotEmpty, validation.Min(int64(1))),
	})
}

// PasswordResetRequest is the body of PUT /auth/password-reset.
type PasswordResetRequest struct {
	NewPassword string `json:"new_password"`
	RePassword  string `json:"re_password"`
}

// Validate checks both fields are present.
func (r PasswordResetRequest) Validate() error {
	return apperr.Validation(validation.Errors{
		"new_password": validation.Validate(r.NewPassword, validation.Required),
		"re_password":  validation.Validate(r.RePassword, validation.Required),
	})
}

// UpdateProfileRequest is the body of PUT /users/me.
type UpdateProfileRequest struct {
	FirstName    *string          `json:"first_name"`
	LastName     *string          `json:"last_name"`
	Phone        *string          `json:"phone"`
	ProfileImage *string          `json:"profile_image"`
	Address      *account.Address `json:"address"`
}

// Update converts the request into an explicit account update.
func (r UpdateProfileRequest) Update() account.UserUpdate {
	return account.UserUpdate{
		FirstName:    r.FirstName,
		LastName:     r.LastName,
		Phone:        r.Phone,
		ProfileImage: r.ProfileImage,
		Address:      r.Address,
	}
}

// CreateCompanyRequest is the body of POST /users/me/companies.
type CreateCompanyRequest struct {
	Name     string            `json:"name"`
	Logo     string            `json:"logo"`
	TZName   string            `json:"tz_name"`
	Address  *account.Address  `json:"address"`
	Currency *account.Currency `json:"currency"`
}

// Validate checks the company name is present.
func (r CreateCompanyRequest) Validate() error {
	return apperr.Validation(validation.Errors{
		"name": validation.Validate(r.Name, validation.Required),
	})
}

// ResolveInvitationRequest is the body of PUT /users/me/companies/{company_id}/invitation.
type ResolveInvitationRequest struct {
	AcceptInvitation *bool `json:"accept_invitation"`
}

// Validate checks the decision is present.
func (r ResolveInvitationRequest) Validate() error {
	return apperr.Validation(validation.Errors{
		"accept_invitation": validation.Validate(r.AcceptInvitation, validation.NotNil),
	})
}

// InviteRequest is the body of POST /company/roles.
type InviteRequest struct {
	Email       string `json:"email"`
	AccessLevel *int   `json:"access_level"`
}

// Validate checks the email and level are present.
func (r InviteRequest) Validate() error {
	return apperr.Validation(validation.Errors{
		"email":        validation.Validate(r.Email, validation.Required, is.Email),
		"access_level": validation.Validate(r.AccessLevel, validation.NotNil),
	})
}

// UpdateRoleRequest is the body of PUT /company/roles/{role_id}.
type UpdateRoleRequest struct {
	AccessLevel *int  `json:"access_level"`
	IsActive    *bool `json:"is_active"`
}

// Validate checks at least one field is present.
func (r UpdateRoleRequest) Validate() error {
	if r.AccessLevel == nil && r.IsActive == nil {
		return apperr.BadRequest(map[string]string{"body": "access_level or is_active is required"})
	}
	return nil
}

// Update converts the request into an explicit role update.
func (r UpdateRoleRequest) Update() account.RoleUpdate {
	upd := account.RoleUpdate{IsActive: r.IsActive}
	if r.AccessLevel != nil {
		level := account.AccessLevel(*r.AccessLevel)
		upd.AccessLevel = &level
	}
	return upd
}
