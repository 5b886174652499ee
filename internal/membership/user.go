package membership

import (
	"context"
	"errors"
	"fmt"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"

	"github.com/estokealo/estokealo/internal/account"
	"github.com/estokealo/estokealo/internal/apperr"
	"github.com/estokealo/estokealo/internal/guard"
	"github.com/estokealo/estokealo/internal/result"
)

// CompanyInput holds the fields of a new company.
type CompanyInput struct {
	Name     string
	Logo     string
	TZName   string
	Address  *account.Address
	Currency *account.Currency
}

// Profile returns the signed-in user.
func (s *Service) Profile(_ context.Context, us *guard.UserSession) *result.Result[*account.User] {
	return result.OK("user profile", us.User)
}

// UpdateProfile applies upd to the signed-in user. Phone numbers are stored
// in E.164 form.
func (s *Service) UpdateProfile(ctx context.Context, us *guard.UserSession, upd account.UserUpdate) (*result.Result[*account.User], error) {
	if upd.Empty() {
		return nil, apperr.BadRequest(map[string]string{"body": "no fields to update"})
	}
	upd.FirstName = trimmed(upd.FirstName)
	upd.LastName = trimmed(upd.LastName)
	upd.Phone = trimmed(upd.Phone)

	errs := validation.Errors{
		"first_name":    validation.Validate(upd.FirstName, validation.NilOrNotEmpty, validation.RuneLength(1, 128)),
		"last_name":     validation.Validate(upd.LastName, validation.NilOrNotEmpty, validation.RuneLength(1, 128)),
		"profile_image": validation.Validate(upd.ProfileImage, validation.Length(0, 256), is.URL),
	}
	if upd.Phone != nil && *upd.Phone != "" {
		phone, err := account.NormalizePhone(*upd.Phone)
		if err != nil {
			errs["phone"] = errors.New("must be a valid phone number")
		} else {
			upd.Phone = &phone
		}
	}
	if upd.Address != nil {
		errs["address"] = validateAddress(upd.Address)
	}
	if err := apperr.Validation(errs); err != nil {
		return nil, err
	}

	user, err := s.store.UpdateUser(ctx, us.User.ID, upd)
	if err != nil {
		return nil, account.AsAppError(err, map[string]string{"user_id": fmt.Sprint(us.User.ID)})
	}
	return result.OK("user has been updated", user), nil
}

// ListCompanies returns a page of the signed-in user's roles, optionally
// filtered by invitation status.
func (s *Service) ListCompanies(ctx context.Context, us *guard.UserSession, f account.RoleFilter) (*result.Result[*account.RolePage], error) {
	if f.Status != nil && !f.Status.Valid() {
		return nil, apperr.BadRequest(map[string]string{"status": "must be one of pending, accepted, rejected"})
	}
	page, err := s.store.ListRolesByUser(ctx, us.User.ID, f.Normalize())
	if err != nil {
		return nil, account.AsAppError(err, nil)
	}
	return result.OK("user companies", page), nil
}

// CreateCompany creates a company owned by the signed-in user. A user owns
// at most one company and names are unique ignoring case and accents.
func (s *Service) CreateCompany(ctx context.Context, us *guard.UserSession, in CompanyInput) (*result.Result[*account.Role], error) {
	in.Name = strings.TrimSpace(in.Name)
	errs := validation.Errors{
		"name":    validation.Validate(in.Name, validation.Required, validation.RuneLength(1, 64)),
		"logo":    validation.Validate(in.Logo, validation.Length(0, 256), is.URL),
		"tz_name": validation.Validate(in.TZName, validation.Length(0, 64)),
	}
	if in.Address != nil {
		errs["address"] = validateAddress(in.Address)
	}
	if in.Currency != nil {
		errs["currency"] = validation.ValidateStruct(in.Currency,
			validation.Field(&in.Currency.Name, validation.Required, validation.RuneLength(1, 64)),
			validation.Field(&in.Currency.ISO, validation.Required, is.CurrencyCode),
			validation.Field(&in.Currency.Symbol, validation.Required, validation.RuneLength(1, 8)),
			validation.Field(&in.Currency.Rate, validation.Required, validation.Min(0.0).Exclusive()),
		)
	}
	if err := apperr.Validation(errs); err != nil {
		return nil, err
	}

	company := &account.Company{Name: in.Name, Logo: in.Logo, TZName: strings.ToLower(in.TZName)}
	if in.Address != nil {
		company.Address = *in.Address
	}
	if in.Currency != nil {
		company.Currency = *in.Currency
	}

	var owner *account.Role
	err := s.store.WithTx(ctx, func(repo account.Repository) error {
		owns, err := repo.OwnsCompany(ctx, us.User.ID)
		if err != nil {
			return err
		}
		if owns {
			return apperr.Conflict(map[string]string{"user": "user already has a company on their name"})
		}
		if err := repo.CreateCompany(ctx, company); err != nil {
			return err
		}
		role := &account.Role{
			UserID:           us.User.ID,
			CompanyID:        company.ID,
			AccessLevel:      account.LevelOwner,
			InvitationStatus: account.InvitationAccepted,
			IsActive:         true,
		}
		if err := repo.CreateRole(ctx, role); err != nil {
			return err
		}
		owner, err = repo.GetRole(ctx, role.ID)
		return err
	})
	if err != nil {
		return nil, account.AsAppError(err, nil)
	}

	s.logger.Info("company created", "companyId", owner.CompanyID, "userId", us.User.ID)
	return result.Created("new company has been created", owner), nil
}

// ResolveInvitation accepts or rejects the pending invitation of the
// signed-in user to companyID.
func (s *Service) ResolveInvitation(ctx context.Context, us *guard.UserSession, companyID int64, accept bool) (*result.Result[*account.Role], error) {
	if companyID < 1 {
		return nil, apperr.BadRequest(map[string]string{"company_id": "must be a positive integer"})
	}

	status := account.InvitationRejected
	if accept {
		status = account.InvitationAccepted
	}

	var role *account.Role
	err := s.store.WithTx(ctx, func(repo account.Repository) error {
		current, err := repo.GetRoleByMember(ctx, us.User.ID, companyID)
		if err != nil {
			return err
		}
		if current.InvitationStatus != account.InvitationPending {
			return apperr.Conflict(map[string]string{"invitation": "already resolved"})
		}
		role, err = repo.UpdateRole(ctx, current.ID, account.RoleUpdate{InvitationStatus: &status})
		return err
	})
	if err != nil {
		return nil, account.AsAppError(err, map[string]string{"company_id": fmt.Sprint(companyID)})
	}

	return result.OK("invitation resolved successfully", role), nil
}

func validateAddress(a *account.Address) error {
	return validation.ValidateStruct(a,
		validation.Field(&a.Street, validation.RuneLength(0, 128)),
		validation.Field(&a.Number, validation.RuneLength(0, 32)),
		validation.Field(&a.City, validation.RuneLength(0, 64)),
		validation.Field(&a.State, validation.RuneLength(0, 64)),
		validation.Field(&a.Country, validation.RuneLength(0, 64)),
		validation.Field(&a.ZipCode, validation.RuneLength(0, 16)),
	)
}

func trimmed(s *string) *string {
	if s == nil {
		return nil
	}
	t := strings.TrimSpace(*s)
	return &t
}
