// Package authflow drives a caller from an unverified email address to a
// user or role session: verification codes, signup, login, company
// activation, logout and password reset.
package authflow

import (
	"context"
	"crypto/rand"
	"fmt"
	"log/slog"
	"math/big"

	"github.com/estokealo/estokealo/internal/account"
	"github.com/estokealo/estokealo/internal/apperr"
	"github.com/estokealo/estokealo/internal/mail"
	"github.com/estokealo/estokealo/internal/revocation"
	"github.com/estokealo/estokealo/internal/token"
)

// Hasher hashes and verifies passwords.
type Hasher interface {
	Hash(plain string) (string, error)
	Verify(plain, hash string) bool
}

// Observer records flow outcomes, typically as metrics.
type Observer interface {
	Observe(operation, outcome string)
}

type nopObserver struct{}

func (nopObserver) Observe(string, string) {}

// Deps are the collaborators of a Service.
type Deps struct {
	Store       account.Store
	Tokens      *token.Service
	Revocations *revocation.Checker
	Hasher      Hasher
	Mailer      mail.Sender
	Logger      *slog.Logger
	Observer    Observer
	// Codes generates verification codes. Defaults to a crypto/rand source.
	Codes func() (int, error)
}

// Service is the Auth Flow Orchestrator.
type Service struct {
	store       account.Store
	tokens      *token.Service
	revocations *revocation.Checker
	hasher      Hasher
	mailer      mail.Sender
	logger      *slog.Logger
	observer    Observer
	codes       func() (int, error)
}

// New creates a Service.
func New(d Deps) *Service {
	if d.Logger == nil {
		d.Logger = slog.Default()
	}
	if d.Observer == nil {
		d.Observer = nopObserver{}
	}
	if d.Codes == nil {
		d.Codes = RandomCode
	}
	return &Service{
		store:       d.Store,
		tokens:      d.Tokens,
		revocations: d.Revocations,
		hasher:      d.Hasher,
		mailer:      d.Mailer,
		logger:      d.Logger,
		observer:    d.Observer,
		codes:       d.Codes,
	}
}

// RandomCode returns a uniformly distributed code in
// [token.MinVerificationCode, token.MaxVerificationCode].
func RandomCode() (int, error) {
	span := big.NewInt(token.MaxVerificationCode - token.MinVerificationCode + 1)
	n, err := rand.Int(rand.Reader, span)
	if err != nil {
		return 0, fmt.Errorf("generating verification code: %w", err)
	}
	return int(n.Int64()) + token.MinVerificationCode, nil
}

// finish records the outcome of operation and passes err through.
func (s *Service) finish(operation string, err error) error {
	if err == nil {
		s.observer.Observe(operation, "success")
		return nil
	}
	s.observer.Observe(operation, string(apperr.KindOf(err)))
	return err
}

// consume revokes a token replaced by a stage transition.
func (s *Service) consume(ctx context.Context, tok token.Token) error {
	meta := tok.Claims()
	if err := s.revocations.Consume(ctx, meta.ID, meta.ExpiresAt); err != nil {
		return apperr.ServiceUnavailable(err, map[string]string{"revocation": "token could not be revoked"})
	}
	return nil
}
