// Package membership manages what a signed-in user does with companies:
// their profile, owned company, invitations and the roles of the members.
package membership

import (
	"log/slog"

	"github.com/estokealo/estokealo/internal/account"
	"github.com/estokealo/estokealo/internal/apperr"
	"github.com/estokealo/estokealo/internal/mail"
)

// Deps are the collaborators of a Service.
type Deps struct {
	Store  account.Store
	Mailer mail.Sender
	Logger *slog.Logger
}

// Service implements the user and company operations.
type Service struct {
	store  account.Store
	mailer mail.Sender
	logger *slog.Logger
}

// New creates a Service.
func New(d Deps) *Service {
	if d.Logger == nil {
		d.Logger = slog.Default()
	}
	return &Service{store: d.Store, mailer: d.Mailer, logger: d.Logger}
}

// authorize applies the role management policy: nobody manages their own
// role and nobody acts on a role more privileged than their own.
func authorize(actor, target *account.Role) error {
	if actor.UserID == target.UserID {
		return apperr.Forbidden(map[string]string{"role_id": "cannot modify own role"})
	}
	if !actor.AccessLevel.Satisfies(target.AccessLevel) {
		return apperr.Unauthorized(map[string]string{"access_level": "target role is more privileged than yours"})
	}
	return nil
}

// authorizeRemoval applies authorize and also protects peers: a role can
// only remove roles strictly less privileged than its own.
func authorizeRemoval(actor, target *account.Role) error {
	if err := authorize(actor, target); err != nil {
		return err
	}
	if actor.AccessLevel == target.AccessLevel {
		return apperr.Unauthorized(map[string]string{"access_level": "cannot remove a role as privileged as yours"})
	}
	return nil
}

// grantable checks that actor may hand out level.
func grantable(actor *account.Role, level account.AccessLevel) error {
	if !level.Valid() {
		return apperr.BadRequest(map[string]string{"access_level": "unknown access level"})
	}
	if !actor.AccessLevel.Satisfies(level) {
		return apperr.Unauthorized(map[string]string{"access_level": "cannot grant a level more privileged than yours"})
	}
	if level == account.LevelOwner {
		return apperr.BadRequest(map[string]string{"access_level": "owner level cannot be assigned"})
	}
	return nil
}
