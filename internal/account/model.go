package account

import (
	"time"
)

// AccessLevel ranks a role inside a company. Lower values carry more privilege.
type AccessLevel int

const (
	LevelOwner    AccessLevel = 0
	LevelAdmin    AccessLevel = 1
	LevelOperator AccessLevel = 2
	LevelClient   AccessLevel = 3
	LevelViewer   AccessLevel = 99
)

// Satisfies reports whether l is privileged enough for a requirement of min.
func (l AccessLevel) Satisfies(min AccessLevel) bool {
	return l <= min
}

// Valid reports whether l is one of the seeded role functions.
func (l AccessLevel) Valid() bool {
	switch l {
	case LevelOwner, LevelAdmin, LevelOperator, LevelClient, LevelViewer:
		return true
	}
	return false
}

// InvitationStatus tracks the lifecycle of a role invitation.
type InvitationStatus string

const (
	InvitationPending  InvitationStatus = "pending"
	InvitationAccepted InvitationStatus = "accepted"
	InvitationRejected InvitationStatus = "rejected"
)

// Valid reports whether s is a known status.
func (s InvitationStatus) Valid() bool {
	switch s {
	case InvitationPending, InvitationAccepted, InvitationRejected:
		return true
	}
	return false
}

// Address is a free-form postal address stored as JSON.
type Address struct {
	Street  string `json:"street,omitempty"`
	Number  string `json:"number,omitempty"`
	City    string `json:"city,omitempty"`
	State   string `json:"state,omitempty"`
	Country string `json:"country,omitempty"`
	ZipCode string `json:"zipCode,omitempty"`
}

// Currency is the base currency a company operates in.
type Currency struct {
	Name   string  `json:"name"`
	ISO    string  `json:"iso"`
	Symbol string  `json:"symbol"`
	Rate   float64 `json:"rate"`
}

// DefaultCurrency is assigned to companies created without one.
var DefaultCurrency = Currency{
	Name:   "Dólar Estadounidense",
	ISO:    "USD",
	Symbol: "$",
	Rate:   1.0,
}

// DefaultTimezone is assigned to companies created without one.
const DefaultTimezone = "america/caracas"

// User represents a row in the users table. A user created by an invitation
// is a placeholder: it has an email but no password and SignupCompleted is false.
type User struct {
	ID              int64
	Email           string
	PasswordHash    string
	SignupCompleted bool
	IsActive        bool
	SignupDate      time.Time
	ProfileImage    string
	FirstName       string
	LastName        string
	Phone           string
	Address         Address
}

// Enabled reports whether the user may authenticate.
func (u *User) Enabled() bool {
	return u != nil && u.SignupCompleted && u.IsActive
}

// Company represents a row in the companies table.
type Company struct {
	ID        int64
	Name      string
	Logo      string
	TZName    string
	Address   Address
	Currency  Currency
	CreatedAt time.Time
}

// Role links a user to a company with an access level. User and Company are
// populated by lookups that join them.
type Role struct {
	ID               int64
	UserID           int64
	CompanyID        int64
	AccessLevel      AccessLevel
	InvitationStatus InvitationStatus
	IsActive         bool
	RelationDate     time.Time

	User    *User
	Company *Company
}

// Enabled reports whether the role may be used to act inside its company.
func (r *Role) Enabled() bool {
	return r != nil && r.IsActive && r.InvitationStatus == InvitationAccepted
}

// RoleFunction describes what an access level is called.
type RoleFunction struct {
	ID          int64
	Code        string
	Name        string
	Description string
	AccessLevel AccessLevel
}

// DefaultRoleFunctions are seeded at startup.
var DefaultRoleFunctions = []RoleFunction{
	{Code: "owner", Name: "Owner", Description: "Full control of the company, including its ownership.", AccessLevel: LevelOwner},
	{Code: "admin", Name: "Administrator", Description: "Manages members and company settings.", AccessLevel: LevelAdmin},
	{Code: "operator", Name: "Operator", Description: "Runs day to day operations.", AccessLevel: LevelOperator},
	{Code: "client", Name: "Client", Description: "External party with limited access.", AccessLevel: LevelClient},
	{Code: "viewer", Name: "Viewer", Description: "Read-only access.", AccessLevel: LevelViewer},
}

// UserUpdate lists the profile fields a user may change. Nil fields are left untouched.
type UserUpdate struct {
	FirstName    *string
	LastName     *string
	Phone        *string
	ProfileImage *string
	Address      *Address
}

// Empty reports whether the update changes nothing.
func (u UserUpdate) Empty() bool {
	return u.FirstName == nil && u.LastName == nil && u.Phone == nil && u.ProfileImage == nil && u.Address == nil
}

// SignupCompletion carries the fields set when a user finishes signing up.
type SignupCompletion struct {
	PasswordHash string
	FirstName    string
	LastName     string
}

// RoleUpdate lists the role fields that may change. Nil fields are left untouched.
type RoleUpdate struct {
	AccessLevel      *AccessLevel
	IsActive         *bool
	InvitationStatus *InvitationStatus
}

// Empty reports whether the update changes nothing.
func (u RoleUpdate) Empty() bool {
	return u.AccessLevel == nil && u.IsActive == nil && u.InvitationStatus == nil
}

// RoleFilter narrows and paginates role listings. Page starts at 1.
type RoleFilter struct {
	Status *InvitationStatus
	Page   int
	Limit  int
}

// Normalize fills pagination defaults.
func (f RoleFilter) Normalize() RoleFilter {
	if f.Page < 1 {
		f.Page = 1
	}
	if f.Limit < 1 {
		f.Limit = 10
	}
	if f.Limit > 100 {
		f.Limit = 100
	}
	return f
}

// Offset returns the number of rows to skip.
func (f RoleFilter) Offset() int {
	return (f.Page - 1) * f.Limit
}

// RolePage is one page of roles with the total number of matches.
type RolePage struct {
	Roles []Role
	Total int
	Page  int
	Limit int
}
