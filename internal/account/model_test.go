package account_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/estokealo/estokealo/internal/account"
)

func TestAccessLevel_Satisfies(t *testing.T) {
	tests := []struct {
		name  string
		level account.AccessLevel
		min   account.AccessLevel
		want  bool
	}{
		{"owner meets admin", account.LevelOwner, account.LevelAdmin, true},
		{"admin meets admin", account.LevelAdmin, account.LevelAdmin, true},
		{"operator misses admin", account.LevelOperator, account.LevelAdmin, false},
		{"viewer meets viewer", account.LevelViewer, account.LevelViewer, true},
		{"viewer misses operator", account.LevelViewer, account.LevelOperator, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.level.Satisfies(tt.min))
		})
	}
}

func TestAccessLevel_Valid(t *testing.T) {
	assert.True(t, account.LevelViewer.Valid())
	assert.True(t, account.LevelClient.Valid())
	assert.False(t, account.AccessLevel(50).Valid())
	assert.False(t, account.AccessLevel(-1).Valid())
}

func TestUser_Enabled(t *testing.T) {
	var nilUser *account.User
	assert.False(t, nilUser.Enabled())
	assert.False(t, (&account.User{IsActive: true}).Enabled())
	assert.False(t, (&account.User{SignupCompleted: true}).Enabled())
	assert.True(t, (&account.User{SignupCompleted: true, IsActive: true}).Enabled())
}

func TestRole_Enabled(t *testing.T) {
	assert.False(t, (&account.Role{IsActive: true, InvitationStatus: account.InvitationPending}).Enabled())
	assert.False(t, (&account.Role{IsActive: false, InvitationStatus: account.InvitationAccepted}).Enabled())
	assert.True(t, (&account.Role{IsActive: true, InvitationStatus: account.InvitationAccepted}).Enabled())
}

func TestCompanyNameKey(t *testing.T) {
	assert.Equal(t, "panaderia la esquina", account.CompanyNameKey("  Panadería  La Esquina "))
	assert.Equal(t, account.CompanyNameKey("Café Ñandú"), account.CompanyNameKey("cafe nandu"))
}

func TestNormalizeEmail(t *testing.T) {
	assert.Equal(t, "a@b.com", account.NormalizeEmail("  A@B.com "))
}

func TestRoleFilter_Normalize(t *testing.T) {
	f := account.RoleFilter{}.Normalize()
	assert.Equal(t, 1, f.Page)
	assert.Equal(t, 10, f.Limit)
	assert.Equal(t, 0, f.Offset())

	f = account.RoleFilter{Page: 3, Limit: 500}.Normalize()
	assert.Equal(t, 100, f.Limit)
	assert.Equal(t, 200, f.Offset())
}

func TestUpdates_Empty(t *testing.T) {
	assert.True(t, account.UserUpdate{}.Empty())
	name := "Ana"
	assert.False(t, account.UserUpdate{FirstName: &name}.Empty())

	assert.True(t, account.RoleUpdate{}.Empty())
	active := false
	assert.False(t, account.RoleUpdate{IsActive: &active}.Empty())
}

func TestValidateEmail(t *testing.T) {
	assert.NoError(t, account.ValidateEmail("a@b.com"))
	assert.NoError(t, account.ValidateEmail(" ana.perez@example.com "))
	assert.Error(t, account.ValidateEmail(""))
	assert.Error(t, account.ValidateEmail("not-an-email"))
}

func TestNormalizePhone(t *testing.T) {
	got, err := account.NormalizePhone("0414-123-4567")
	assert.NoError(t, err)
	assert.Equal(t, "+584141234567", got)

	got, err = account.NormalizePhone("+1 650 253 0000")
	assert.NoError(t, err)
	assert.Equal(t, "+16502530000", got)

	_, err = account.NormalizePhone("12")
	assert.Error(t, err)
}
