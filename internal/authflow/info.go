package authflow

import (
	"context"
	"fmt"

	"github.com/estokealo/estokealo/internal/account"
	"github.com/estokealo/estokealo/internal/apperr"
	"github.com/estokealo/estokealo/internal/guard"
	"github.com/estokealo/estokealo/internal/result"
	"github.com/estokealo/estokealo/internal/token"
)

// PublicUser is what anyone may learn about a signed-up user.
type PublicUser struct {
	User      *account.User
	Companies []account.Company
}

// Introspection describes the session behind a valid token.
type Introspection struct {
	User *account.User
	Role *account.Role
}

// PublicUserInfo returns the public profile of a signed-up user and the
// companies where the user holds an enabled role.
func (s *Service) PublicUserInfo(ctx context.Context, email string) (*result.Result[PublicUser], error) {
	if err := account.ValidateEmail(email); err != nil {
		return nil, apperr.BadRequest(map[string]string{"email": err.Error()})
	}
	email = account.NormalizeEmail(email)

	user, err := s.store.GetUserByEmail(ctx, email)
	if err != nil {
		return nil, account.AsAppError(err, map[string]string{"email": email})
	}
	if !user.SignupCompleted {
		return nil, apperr.NotFound(map[string]string{"email": email})
	}

	accepted := account.InvitationAccepted
	page, err := s.store.ListRolesByUser(ctx, user.ID, account.RoleFilter{Status: &accepted, Page: 1, Limit: 100})
	if err != nil {
		return nil, account.AsAppError(err, nil)
	}
	companies := []account.Company{}
	for _, role := range page.Roles {
		if role.Enabled() && role.Company != nil {
			companies = append(companies, *role.Company)
		}
	}

	return result.OK("user public info", PublicUser{User: user, Companies: companies}), nil
}

// Introspect reports the user, and the role for role tokens, behind us.
func (s *Service) Introspect(ctx context.Context, us *guard.UserSession) (*result.Result[Introspection], error) {
	out := Introspection{User: us.User}
	if rt, ok := us.Token.(*token.Role); ok {
		role, err := s.store.GetRole(ctx, rt.RoleID)
		if err != nil {
			return nil, account.AsAppError(err, map[string]string{"role_id": fmt.Sprint(rt.RoleID)})
		}
		out.Role = role
	}
	return result.OK(fmt.Sprintf("token for user %q is valid", us.User.Email), out), nil
}
