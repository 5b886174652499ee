// Package guard checks that a presented token is valid for a stage and returns
// the typed session the protected operation needs.
package guard

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/estokealo/estokealo/internal/account"
	"github.com/estokealo/estokealo/internal/apperr"
	"github.com/estokealo/estokealo/internal/revocation"
	"github.com/estokealo/estokealo/internal/token"
)

// UserSession is the result of the user-stage guard. Token is a *token.User
// or a *token.Role.
type UserSession struct {
	Token token.Token
	User  *account.User
}

// RoleSession is the result of the role-stage guard. Role has its User and
// Company loaded.
type RoleSession struct {
	Token *token.Role
	Role  *account.Role
}

// User returns the user holding the role.
func (s *RoleSession) User() *account.User {
	return s.Role.User
}

// Guard validates stage tokens.
type Guard struct {
	tokens      *token.Service
	revocations *revocation.Checker
	store       account.Repository
}

// New creates a Guard.
func New(tokens *token.Service, revocations *revocation.Checker, store account.Repository) *Guard {
	return &Guard{tokens: tokens, revocations: revocations, store: store}
}

// Verification requires a live verification token.
func (g *Guard) Verification(ctx context.Context, raw string) (*token.Verification, error) {
	tok, err := g.decode(ctx, raw)
	if err != nil {
		return nil, err
	}
	v, ok := tok.(*token.Verification)
	if !ok {
		return nil, wrongStage(token.StageVerification, tok)
	}
	return v, nil
}

// Verified requires a live verified token.
func (g *Guard) Verified(ctx context.Context, raw string) (*token.Verified, error) {
	tok, err := g.decode(ctx, raw)
	if err != nil {
		return nil, err
	}
	v, ok := tok.(*token.Verified)
	if !ok {
		return nil, wrongStage(token.StageVerified, tok)
	}
	return v, nil
}

// User requires a user or role token whose user still exists and is enabled.
func (g *Guard) User(ctx context.Context, raw string) (*UserSession, error) {
	tok, err := g.decode(ctx, raw)
	if err != nil {
		return nil, err
	}
	userID, ok := token.UserSession(tok)
	if !ok {
		return nil, wrongStage(token.StageUser, tok)
	}

	u, err := g.store.GetUserByID(ctx, userID)
	if err != nil {
		return nil, lookupError(err, "user_id", userID)
	}
	if !u.Enabled() {
		return nil, apperr.NotActive()
	}

	return &UserSession{Token: tok, User: u}, nil
}

// Role requires a role token whose role and user are enabled and whose access
// level is at least as privileged as min.
func (g *Guard) Role(ctx context.Context, raw string, min account.AccessLevel) (*RoleSession, error) {
	tok, err := g.decode(ctx, raw)
	if err != nil {
		return nil, err
	}
	rt, ok := tok.(*token.Role)
	if !ok {
		return nil, wrongStage(token.StageRole, tok)
	}

	role, err := g.store.GetRole(ctx, rt.RoleID)
	if err != nil {
		return nil, lookupError(err, "role_id", rt.RoleID)
	}
	if role.UserID != rt.UserID {
		return nil, apperr.InvalidToken("role does not belong to token user")
	}
	if !role.Enabled() || !role.User.Enabled() {
		return nil, apperr.NotActive()
	}
	if !role.AccessLevel.Satisfies(min) {
		return nil, apperr.Unauthorized(map[string]string{
			"access_level": fmt.Sprintf("level %d required, role has %d", min, role.AccessLevel),
		})
	}

	return &RoleSession{Token: rt, Role: role}, nil
}

// decode verifies the token and checks the revocation registry.
func (g *Guard) decode(ctx context.Context, raw string) (token.Token, error) {
	tok, err := g.tokens.Decode(raw)
	if err != nil {
		if errors.Is(err, token.ErrExpired) {
			return nil, apperr.InvalidToken("token has expired")
		}
		return nil, apperr.InvalidToken("token is malformed or has an invalid signature")
	}

	revoked, err := g.revocations.IsRevoked(ctx, tok.Claims().ID)
	if err != nil {
		return nil, apperr.ServiceUnavailable(err, map[string]string{"revocation": "cannot verify token status"})
	}
	if revoked {
		return nil, apperr.InvalidToken("token has been revoked")
	}
	return tok, nil
}

func wrongStage(want token.Stage, got token.Token) *apperr.Error {
	return apperr.InvalidToken(fmt.Sprintf("%s token required, got %s token", want, got.Stage()))
}

func lookupError(err error, field string, id int64) *apperr.Error {
	if errors.Is(err, account.ErrNotFound) {
		return apperr.Gone(map[string]string{field: strconv.FormatInt(id, 10)})
	}
	return apperr.ServiceUnavailable(err, map[string]string{"store": "credential store unavailable"})
}
