package account

import (
	"context"
	"errors"
)

var (
	// ErrNotFound is returned when a lookup matches no record.
	ErrNotFound = errors.New("record not found")

	// ErrConflict is returned when a write violates a uniqueness constraint.
	ErrConflict = errors.New("record already exists")

	// ErrUnavailable is returned when the backing store cannot be reached or
	// fails in a way the caller cannot correct.
	ErrUnavailable = errors.New("credential store unavailable")
)

// ConflictError names the field whose uniqueness constraint was violated.
// It matches ErrConflict with errors.Is.
type ConflictError struct {
	Field string
}

func (e *ConflictError) Error() string {
	return e.Field + " already exists"
}

func (e *ConflictError) Is(target error) bool {
	return target == ErrConflict
}

// Repository provides the credential store operations on users, companies
// and roles.
type Repository interface {
	CreateUser(ctx context.Context, u *User) error
	GetUserByID(ctx context.Context, id int64) (*User, error)
	GetUserByEmail(ctx context.Context, email string) (*User, error)
	UpdateUser(ctx context.Context, id int64, upd UserUpdate) (*User, error)
	CompleteSignup(ctx context.Context, id int64, c SignupCompletion) (*User, error)
	SetPassword(ctx context.Context, id int64, passwordHash string) error

	CreateCompany(ctx context.Context, c *Company) error
	GetCompany(ctx context.Context, id int64) (*Company, error)

	CreateRole(ctx context.Context, r *Role) error
	GetRole(ctx context.Context, id int64) (*Role, error)
	GetRoleByMember(ctx context.Context, userID, companyID int64) (*Role, error)
	ListRolesByUser(ctx context.Context, userID int64, f RoleFilter) (*RolePage, error)
	ListRolesByCompany(ctx context.Context, companyID int64) ([]Role, error)
	UpdateRole(ctx context.Context, id int64, upd RoleUpdate) (*Role, error)
	DeleteRole(ctx context.Context, id int64) error
	OwnsCompany(ctx context.Context, userID int64) (bool, error)

	// SeedRoleFunctions inserts functions whose codes are absent and never
	// overwrites an existing one.
	SeedRoleFunctions(ctx context.Context, fns []RoleFunction) error
	ListRoleFunctions(ctx context.Context) ([]RoleFunction, error)
}

// Store is a Repository that can group operations into one transaction.
// When fn returns an error every write made through the given Repository is
// discarded.
type Store interface {
	Repository
	WithTx(ctx context.Context, fn func(repo Repository) error) error
	Ping(ctx context.Context) error
}

// IsNotFound reports whether err means the record does not exist.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}
