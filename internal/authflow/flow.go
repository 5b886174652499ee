package authflow

import (
	"context"
	"errors"
	"fmt"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation"

	"github.com/estokealo/estokealo/internal/account"
	"github.com/estokealo/estokealo/internal/apperr"
	"github.com/estokealo/estokealo/internal/guard"
	"github.com/estokealo/estokealo/internal/mail"
	"github.com/estokealo/estokealo/internal/password"
	"github.com/estokealo/estokealo/internal/result"
	"github.com/estokealo/estokealo/internal/token"
)

// VerificationIssued carries a token embedding the code that was emailed.
type VerificationIssued struct {
	VerificationToken string
}

// EmailVerified carries the token proving email control.
type EmailVerified struct {
	VerifiedToken string
}

// Session is an issued user or role session.
type Session struct {
	AccessToken string
	User        *account.User
	Role        *account.Role
}

// SignupInput holds the signup form.
type SignupInput struct {
	Password   string
	RePassword string
	FirstName  string
	LastName   string
}

// LoginInput holds the login form. CompanyID selects a role session.
type LoginInput struct {
	Email     string
	Password  string
	CompanyID *int64
}

// PasswordResetInput holds the password reset form.
type PasswordResetInput struct {
	NewPassword string
	RePassword  string
}

// RequestVerification emails a fresh code to email and returns a verification
// token embedding it. No token is issued when the email cannot be sent.
func (s *Service) RequestVerification(ctx context.Context, email string) (*result.Result[VerificationIssued], error) {
	res, err := s.requestVerification(ctx, email)
	return res, s.finish("request_verification", err)
}

func (s *Service) requestVerification(ctx context.Context, email string) (*result.Result[VerificationIssued], error) {
	if err := account.ValidateEmail(email); err != nil {
		return nil, apperr.BadRequest(map[string]string{"email": err.Error()})
	}
	email = account.NormalizeEmail(email)

	code, err := s.codes()
	if err != nil {
		return nil, apperr.From(err)
	}

	if err := s.mailer.Send(ctx, mail.VerificationCode(email, code)); err != nil {
		s.logger.Error("failed to send verification code", "email", email, "error", err)
		return nil, apperr.ServiceUnavailable(err, map[string]string{"email_service": "verification code could not be sent"})
	}

	raw, err := s.tokens.IssueVerification(email, code)
	if err != nil {
		return nil, apperr.From(err)
	}

	return result.OK("verification code sent to user", VerificationIssued{VerificationToken: raw}), nil
}

// ConfirmVerification checks code against the one v was issued for. On success
// v is revoked and a verified token is issued.
func (s *Service) ConfirmVerification(ctx context.Context, v *token.Verification, code int) (*result.Result[EmailVerified], error) {
	res, err := s.confirmVerification(ctx, v, code)
	return res, s.finish("confirm_verification", err)
}

func (s *Service) confirmVerification(ctx context.Context, v *token.Verification, code int) (*result.Result[EmailVerified], error) {
	if !s.tokens.CheckCode(v, code) {
		return nil, apperr.BadRequest(map[string]string{"verification_code": "invalid code"})
	}

	if err := s.consume(ctx, v); err != nil {
		return nil, err
	}

	raw, err := s.tokens.IssueVerified(v.Subject)
	if err != nil {
		return nil, apperr.From(err)
	}

	return result.OK("verification process successfully completed", EmailVerified{VerifiedToken: raw}), nil
}

// Signup creates the user for the verified email, or completes the
// placeholder left by an invitation, and issues a user session.
func (s *Service) Signup(ctx context.Context, v *token.Verified, in SignupInput) (*result.Result[Session], error) {
	res, err := s.signup(ctx, v, in)
	return res, s.finish("signup", err)
}

func (s *Service) signup(ctx context.Context, v *token.Verified, in SignupInput) (*result.Result[Session], error) {
	in.FirstName = strings.TrimSpace(in.FirstName)
	in.LastName = strings.TrimSpace(in.LastName)
	if err := apperr.Validation(validation.Errors{
		"password":    password.Validate(in.Password),
		"re_password": password.Confirm(in.Password, in.RePassword),
		"first_name":  validation.Validate(in.FirstName, validation.Required, validation.RuneLength(1, 128)),
		"last_name":   validation.Validate(in.LastName, validation.Required, validation.RuneLength(1, 128)),
	}); err != nil {
		return nil, err
	}

	hash, err := s.hasher.Hash(in.Password)
	if err != nil {
		return nil, apperr.From(err)
	}

	if err := s.consume(ctx, v); err != nil {
		return nil, err
	}

	email := account.NormalizeEmail(v.Subject)
	var (
		user    *account.User
		message string
	)
	err = s.store.WithTx(ctx, func(repo account.Repository) error {
		existing, err := repo.GetUserByEmail(ctx, email)
		switch {
		case errors.Is(err, account.ErrNotFound):
			user = &account.User{
				Email:           email,
				PasswordHash:    hash,
				SignupCompleted: true,
				IsActive:        true,
				FirstName:       in.FirstName,
				LastName:        in.LastName,
			}
			message = "new user has been created"
			return repo.CreateUser(ctx, user)
		case err != nil:
			return err
		case existing.SignupCompleted:
			return apperr.Conflict(map[string]string{"email": email})
		}

		user, err = repo.CompleteSignup(ctx, existing.ID, account.SignupCompletion{
			PasswordHash: hash,
			FirstName:    in.FirstName,
			LastName:     in.LastName,
		})
		message = "user has completed signup process"
		return err
	})
	if err != nil {
		return nil, account.AsAppError(err, map[string]string{"email": email})
	}

	raw, err := s.tokens.IssueUser(user.Email, user.ID)
	if err != nil {
		return nil, apperr.From(err)
	}

	s.logger.Info("user signed up", "userId", user.ID)
	return result.Created(message, Session{AccessToken: raw, User: user}), nil
}

// Login checks the credentials and issues a user session, or a role session
// when CompanyID names a company the user holds an enabled role in.
func (s *Service) Login(ctx context.Context, in LoginInput) (*result.Result[Session], error) {
	res, err := s.login(ctx, in)
	return res, s.finish("login", err)
}

func (s *Service) login(ctx context.Context, in LoginInput) (*result.Result[Session], error) {
	fields := validation.Errors{
		"email":    account.ValidateEmail(in.Email),
		"password": validation.Validate(in.Password, validation.Required),
	}
	if in.CompanyID != nil {
		fields["company_id"] = validation.Validate(*in.CompanyID, validation.Required, validation.Min(int64(1)))
	}
	if err := apperr.Validation(fields); err != nil {
		return nil, err
	}
	email := account.NormalizeEmail(in.Email)

	user, err := s.store.GetUserByEmail(ctx, email)
	if err != nil {
		return nil, account.AsAppError(err, map[string]string{"email": email})
	}
	if !user.Enabled() {
		return nil, apperr.NotActive()
	}
	if !s.hasher.Verify(in.Password, user.PasswordHash) {
		return nil, apperr.WrongPassword()
	}

	session := Session{User: user}
	if in.CompanyID == nil {
		session.AccessToken, err = s.tokens.IssueUser(user.Email, user.ID)
		if err != nil {
			return nil, apperr.From(err)
		}
		return result.OK(fmt.Sprintf("user %q logged in", user.Email), session), nil
	}

	role, err := s.store.GetRoleByMember(ctx, user.ID, *in.CompanyID)
	if err != nil {
		return nil, account.AsAppError(err, map[string]string{"company_id": fmt.Sprint(*in.CompanyID)})
	}
	if !role.Enabled() {
		return nil, apperr.NotActive()
	}

	session.Role = role
	session.AccessToken, err = s.tokens.IssueRole(user.Email, user.ID, role.ID)
	if err != nil {
		return nil, apperr.From(err)
	}
	return result.OK(fmt.Sprintf("user %q logged in", user.Email), session), nil
}

// ActivateCompany swaps the presented session for a role session in companyID.
func (s *Service) ActivateCompany(ctx context.Context, us *guard.UserSession, companyID int64) (*result.Result[Session], error) {
	res, err := s.activateCompany(ctx, us, companyID)
	return res, s.finish("activate_company", err)
}

func (s *Service) activateCompany(ctx context.Context, us *guard.UserSession, companyID int64) (*result.Result[Session], error) {
	if companyID < 1 {
		return nil, apperr.BadRequest(map[string]string{"company_id": "must be a positive integer"})
	}

	role, err := s.store.GetRoleByMember(ctx, us.User.ID, companyID)
	if err != nil {
		return nil, account.AsAppError(err, map[string]string{"company_id": fmt.Sprint(companyID)})
	}
	if !role.Enabled() {
		return nil, apperr.NotActive()
	}

	if err := s.consume(ctx, us.Token); err != nil {
		return nil, err
	}

	raw, err := s.tokens.IssueRole(us.User.Email, us.User.ID, role.ID)
	if err != nil {
		return nil, apperr.From(err)
	}

	return result.OK("company access granted", Session{AccessToken: raw, User: us.User, Role: role}), nil
}

// Logout revokes the presented token. Expired and already revoked tokens
// are accepted, so repeating a logout always succeeds.
func (s *Service) Logout(ctx context.Context, raw string) (*result.Result[result.Empty], error) {
	res, err := s.logout(ctx, raw)
	return res, s.finish("logout", err)
}

func (s *Service) logout(ctx context.Context, raw string) (*result.Result[result.Empty], error) {
	tok, err := s.tokens.DecodeIgnoringExpiry(raw)
	if err != nil {
		return nil, apperr.InvalidToken("token is malformed or has an invalid signature")
	}

	meta := tok.Claims()
	if err := s.revocations.Revoke(ctx, meta.ID, meta.ExpiresAt); err != nil {
		return nil, apperr.ServiceUnavailable(err, map[string]string{"revocation": "token could not be revoked"})
	}

	return result.OK(fmt.Sprintf("user %q has been disconnected", meta.Subject), result.Empty{}), nil
}

// ResetPassword replaces the password of the user owning the verified email.
func (s *Service) ResetPassword(ctx context.Context, v *token.Verified, in PasswordResetInput) (*result.Result[result.Empty], error) {
	res, err := s.resetPassword(ctx, v, in)
	return res, s.finish("reset_password", err)
}

func (s *Service) resetPassword(ctx context.Context, v *token.Verified, in PasswordResetInput) (*result.Result[result.Empty], error) {
	if err := apperr.Validation(validation.Errors{
		"new_password": password.Validate(in.NewPassword),
		"re_password":  password.Confirm(in.NewPassword, in.RePassword),
	}); err != nil {
		return nil, err
	}

	hash, err := s.hasher.Hash(in.NewPassword)
	if err != nil {
		return nil, apperr.From(err)
	}

	if err := s.consume(ctx, v); err != nil {
		return nil, err
	}

	email := account.NormalizeEmail(v.Subject)
	err = s.store.WithTx(ctx, func(repo account.Repository) error {
		user, err := repo.GetUserByEmail(ctx, email)
		if err != nil {
			return err
		}
		return repo.SetPassword(ctx, user.ID, hash)
	})
	if err != nil {
		return nil, account.AsAppError(err, map[string]string{"email": email})
	}

	return result.OK("user password has been updated", result.Empty{}), nil
}
