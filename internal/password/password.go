// Package password hashes and verifies user passwords and checks that new
// passwords meet the format rules.
package password

import (
	"errors"
	"fmt"
	"regexp"

	validation "github.com/go-ozzo/ozzo-validation"
	"golang.org/x/crypto/bcrypt"
)

var (
	hasUpper = regexp.MustCompile(`[A-Z]`)
	hasLower = regexp.MustCompile(`[a-z]`)
	hasDigit = regexp.MustCompile(`[0-9]`)
)

// Hasher hashes passwords with bcrypt.
type Hasher struct {
	cost int
}

// NewHasher creates a Hasher. Costs outside bcrypt's range fall back to bcrypt.DefaultCost.
func NewHasher(cost int) *Hasher {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = bcrypt.DefaultCost
	}
	return &Hasher{cost: cost}
}

// Hash returns a salted bcrypt hash of plain.
func (h *Hasher) Hash(plain string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(plain), h.cost)
	if err != nil {
		return "", fmt.Errorf("hashing password: %w", err)
	}
	return string(hash), nil
}

// Verify reports whether plain matches hash. An empty hash never matches.
func (h *Hasher) Verify(plain, hash string) bool {
	if hash == "" {
		return false
	}
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(plain))
	return err == nil
}

// Validate checks the password format: 8 to 72 bytes with at least one
// uppercase letter, one lowercase letter and one digit.
func Validate(plain string) error {
	return validation.Validate(plain,
		validation.Required,
		validation.Length(8, 72).Error("must be between 8 and 72 characters long"),
		validation.Match(hasUpper).Error("must contain an uppercase letter"),
		validation.Match(hasLower).Error("must contain a lowercase letter"),
		validation.Match(hasDigit).Error("must contain a digit"),
	)
}

// ErrMismatch is returned by Confirm when the confirmation differs.
var ErrMismatch = errors.New("no match between passwords")

// Confirm checks that the repeated password equals the original.
func Confirm(plain, repeated string) error {
	if plain != repeated {
		return ErrMismatch
	}
	return nil
}
