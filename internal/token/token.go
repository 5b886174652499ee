// Package token issues and decodes the signed stage tokens that carry a caller
// through email verification, signup and login.
//
// A decoded token is one of four concrete types (*Verification, *Verified,
// *User, *Role); callers switch on the type instead of inspecting flags.
package token

import (
	"time"
)

// Stage names the step of the authentication flow a token was issued for.
type Stage string

const (
	StageVerification Stage = "verification"
	StageVerified     Stage = "verified"
	StageUser         Stage = "user"
	StageRole         Stage = "role"
)

// Code bounds for verification codes.
const (
	MinVerificationCode = 100000
	MaxVerificationCode = 999999
)

// Meta holds the registered claims every token carries.
type Meta struct {
	ID        string
	Subject   string
	IssuedAt  time.Time
	ExpiresAt time.Time
}

// Remaining returns the lifetime left at now. It is never negative.
func (m Meta) Remaining(now time.Time) time.Duration {
	d := m.ExpiresAt.Sub(now)
	if d < 0 {
		return 0
	}
	return d
}

// Token is a decoded stage token.
type Token interface {
	Stage() Stage
	Claims() Meta
	isToken()
}

// Verification proves a caller asked for a code sent to Subject.
// The code is held as a keyed MAC; use Service.CheckCode to compare.
type Verification struct {
	Meta
	CodeMAC string
}

// Verified proves the caller matched the code sent to Subject.
type Verified struct {
	Meta
}

// User is a session for a signed-up user.
type User struct {
	Meta
	UserID int64
}

// Role is a session scoped to one company membership. It is accepted
// wherever a User token is.
type Role struct {
	Meta
	UserID int64
	RoleID int64
}

func (*Verification) Stage() Stage { return StageVerification }
func (*Verified) Stage() Stage     { return StageVerified }
func (*User) Stage() Stage         { return StageUser }
func (*Role) Stage() Stage         { return StageRole }

func (t *Verification) Claims() Meta { return t.Meta }
func (t *Verified) Claims() Meta     { return t.Meta }
func (t *User) Claims() Meta         { return t.Meta }
func (t *Role) Claims() Meta         { return t.Meta }

func (*Verification) isToken() {}
func (*Verified) isToken()     {}
func (*User) isToken()         {}
func (*Role) isToken()         {}

// UserSession returns the user-stage view of a User or Role token.
func UserSession(t Token) (userID int64, ok bool) {
	switch v := t.(type) {
	case *User:
		return v.UserID, true
	case *Role:
		return v.UserID, true
	}
	return 0, false
}
