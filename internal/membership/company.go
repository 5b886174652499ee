package membership

import (
	"context"
	"fmt"

	validation "github.com/go-ozzo/ozzo-validation"

	"github.com/estokealo/estokealo/internal/account"
	"github.com/estokealo/estokealo/internal/apperr"
	"github.com/estokealo/estokealo/internal/guard"
	"github.com/estokealo/estokealo/internal/mail"
	"github.com/estokealo/estokealo/internal/result"
)

// InviteInput names the user to invite and the level to grant.
type InviteInput struct {
	Email       string
	AccessLevel account.AccessLevel
}

// Company returns the company of the active role.
func (s *Service) Company(_ context.Context, rs *guard.RoleSession) *result.Result[*account.Company] {
	return result.OK("company info", rs.Role.Company)
}

// ListRoles returns every role in the company of the active role.
func (s *Service) ListRoles(ctx context.Context, rs *guard.RoleSession) (*result.Result[[]account.Role], error) {
	roles, err := s.store.ListRolesByCompany(ctx, rs.Role.CompanyID)
	if err != nil {
		return nil, account.AsAppError(err, nil)
	}
	return result.OK("company roles", roles), nil
}

// Invite grants in.Email a pending role in the actor's company and emails an
// invitation. Unknown emails get a placeholder user that completes on signup.
// Nothing is stored when the invitation email cannot be sent.
func (s *Service) Invite(ctx context.Context, rs *guard.RoleSession, in InviteInput) (*result.Result[*account.Role], error) {
	if err := account.ValidateEmail(in.Email); err != nil {
		return nil, apperr.BadRequest(map[string]string{"email": err.Error()})
	}
	if err := grantable(rs.Role, in.AccessLevel); err != nil {
		return nil, err
	}
	email := account.NormalizeEmail(in.Email)
	actor := rs.Role

	var invited *account.Role
	err := s.store.WithTx(ctx, func(repo account.Repository) error {
		user, err := repo.GetUserByEmail(ctx, email)
		switch {
		case err == nil:
			if user.ID == actor.UserID {
				return apperr.Forbidden(map[string]string{"email": "cannot invite yourself"})
			}
			if _, err := repo.GetRoleByMember(ctx, user.ID, actor.CompanyID); err == nil {
				return apperr.Conflict(map[string]string{"email": "user is already a member of the company"})
			} else if !account.IsNotFound(err) {
				return err
			}
		case account.IsNotFound(err):
			user = &account.User{Email: email, IsActive: true}
			if err := repo.CreateUser(ctx, user); err != nil {
				return err
			}
		default:
			return err
		}

		role := &account.Role{
			UserID:           user.ID,
			CompanyID:        actor.CompanyID,
			AccessLevel:      in.AccessLevel,
			InvitationStatus: account.InvitationPending,
			IsActive:         true,
		}
		if err := repo.CreateRole(ctx, role); err != nil {
			return err
		}
		if invited, err = repo.GetRole(ctx, role.ID); err != nil {
			return err
		}

		if err := s.mailer.Send(ctx, mail.Invitation(email, actor.Company.Name, user.FirstName)); err != nil {
			s.logger.Error("failed to send invitation", "email", email, "companyId", actor.CompanyID, "error", err)
			return apperr.ServiceUnavailable(err, map[string]string{"email_service": "invitation could not be sent"})
		}
		return nil
	})
	if err != nil {
		return nil, account.AsAppError(err, nil)
	}

	s.logger.Info("user invited", "roleId", invited.ID, "companyId", actor.CompanyID, "invitedBy", actor.UserID)
	return result.Created("user has been invited", invited), nil
}

// UpdateRole changes the access level or active flag of another member.
func (s *Service) UpdateRole(ctx context.Context, rs *guard.RoleSession, roleID int64, upd account.RoleUpdate) (*result.Result[*account.Role], error) {
	if err := validation.Validate(roleID, validation.Required, validation.Min(int64(1))); err != nil {
		return nil, apperr.BadRequest(map[string]string{"role_id": err.Error()})
	}
	if upd.InvitationStatus != nil {
		return nil, apperr.BadRequest(map[string]string{"invitation_status": "is resolved by the invited user"})
	}
	if upd.Empty() {
		return nil, apperr.BadRequest(map[string]string{"body": "no fields to update"})
	}
	if upd.AccessLevel != nil {
		if err := grantable(rs.Role, *upd.AccessLevel); err != nil {
			return nil, err
		}
	}

	var updated *account.Role
	err := s.store.WithTx(ctx, func(repo account.Repository) error {
		target, err := s.managedRole(ctx, repo, rs.Role, roleID, authorize)
		if err != nil {
			return err
		}
		updated, err = repo.UpdateRole(ctx, target.ID, upd)
		return err
	})
	if err != nil {
		return nil, account.AsAppError(err, map[string]string{"role_id": fmt.Sprint(roleID)})
	}

	return result.OK("role has been updated", updated), nil
}

// RemoveRole deletes another member's role.
func (s *Service) RemoveRole(ctx context.Context, rs *guard.RoleSession, roleID int64) (*result.Result[result.Empty], error) {
	if err := validation.Validate(roleID, validation.Required, validation.Min(int64(1))); err != nil {
		return nil, apperr.BadRequest(map[string]string{"role_id": err.Error()})
	}

	err := s.store.WithTx(ctx, func(repo account.Repository) error {
		target, err := s.managedRole(ctx, repo, rs.Role, roleID, authorizeRemoval)
		if err != nil {
			return err
		}
		return repo.DeleteRole(ctx, target.ID)
	})
	if err != nil {
		return nil, account.AsAppError(err, map[string]string{"role_id": fmt.Sprint(roleID)})
	}

	s.logger.Info("role removed", "roleId", roleID, "companyId", rs.Role.CompanyID, "removedBy", rs.Role.UserID)
	return result.OK("role has been removed", result.Empty{}), nil
}

// managedRole loads roleID and checks actor may manage it with policy.
// Roles of other companies are reported as not found.
func (s *Service) managedRole(ctx context.Context, repo account.Repository, actor *account.Role, roleID int64, policy func(actor, target *account.Role) error) (*account.Role, error) {
	target, err := repo.GetRole(ctx, roleID)
	if err != nil {
		return nil, err
	}
	if target.CompanyID != actor.CompanyID {
		return nil, account.ErrNotFound
	}
	if err := policy(actor, target); err != nil {
		return nil, err
	}
	return target, nil
}
