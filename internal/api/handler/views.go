package handler

import (
	"time"

	"github.com/estokealo/estokealo/internal/account"
	"github.com/estokealo/estokealo/internal/authflow"
)

const timeFormat = "2006-01-02T15:04:05Z"

type userResponse struct {
	ID              int64           `json:"id"`
	Email           string          `json:"email"`
	FirstName       string          `json:"first_name"`
	LastName        string          `json:"last_name"`
	SignupCompleted bool            `json:"signup_completed"`
	IsActive        bool            `json:"is_active"`
	SignupDate      string          `json:"signup_date"`
	Phone           string          `json:"phone"`
	ProfileImage    string          `json:"profile_image"`
	Address         account.Address `json:"address"`
}

type userSummary struct {
	ID        int64  `json:"id"`
	Email     string `json:"email"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
}

type companySummary struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
	Logo string `json:"logo"`
}

type companyResponse struct {
	companySummary
	TZName    string           `json:"tz_name"`
	Address   account.Address  `json:"address"`
	Currency  account.Currency `json:"currency"`
	CreatedAt string           `json:"created_at"`
}

type roleResponse struct {
	ID               int64           `json:"id"`
	AccessLevel      int             `json:"access_level"`
	InvitationStatus string          `json:"invitation_status"`
	IsActive         bool            `json:"is_active"`
	RelationDate     string          `json:"relation_date"`
	Company          *companySummary `json:"company,omitempty"`
	User             *userSummary    `json:"user,omitempty"`
}

type publicUserResponse struct {
	userSummary
	Companies []companySummary `json:"companies"`
}

type sessionResponse struct {
	AccessToken string        `json:"access_token,omitempty"`
	User        *userResponse `json:"user,omitempty"`
	Role        *roleResponse `json:"role,omitempty"`
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(timeFormat)
}

func toUserResponse(u *account.User) *userResponse {
	if u == nil {
		return nil
	}
	return &userResponse{
		ID:              u.ID,
		Email:           u.Email,
		FirstName:       u.FirstName,
		LastName:        u.LastName,
		SignupCompleted: u.SignupCompleted,
		IsActive:        u.IsActive,
		SignupDate:      formatTime(u.SignupDate),
		Phone:           u.Phone,
		ProfileImage:    u.ProfileImage,
		Address:         u.Address,
	}
}

func toUserSummary(u *account.User) *userSummary {
	if u == nil {
		return nil
	}
	return &userSummary{ID: u.ID, Email: u.Email, FirstName: u.FirstName, LastName: u.LastName}
}

func toCompanySummary(c *account.Company) *companySummary {
	if c == nil {
		return nil
	}
	return &companySummary{ID: c.ID, Name: c.Name, Logo: c.Logo}
}

func toCompanyResponse(c *account.Company) *companyResponse {
	if c == nil {
		return nil
	}
	return &companyResponse{
		companySummary: *toCompanySummary(c),
		TZName:         c.TZName,
		Address:        c.Address,
		Currency:       c.Currency,
		CreatedAt:      formatTime(c.CreatedAt),
	}
}

func toRoleResponse(r *account.Role) *roleResponse {
	if r == nil {
		return nil
	}
	return &roleResponse{
		ID:               r.ID,
		AccessLevel:      int(r.AccessLevel),
		InvitationStatus: string(r.InvitationStatus),
		IsActive:         r.IsActive,
		RelationDate:     formatTime(r.RelationDate),
		Company:          toCompanySummary(r.Company),
		User:             toUserSummary(r.User),
	}
}

func toRoleResponses(roles []account.Role) []roleResponse {
	items := make([]roleResponse, 0, len(roles))
	for i := range roles {
		items = append(items, *toRoleResponse(&roles[i]))
	}
	return items
}

func toSessionResponse(s authflow.Session) any {
	return sessionResponse{
		AccessToken: s.AccessToken,
		User:        toUserResponse(s.User),
		Role:        toRoleResponse(s.Role),
	}
}
