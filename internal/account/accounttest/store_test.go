package accounttest_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/estokealo/estokealo/internal/account"
	"github.com/estokealo/estokealo/internal/account/accounttest"
)

func TestStore_WithTx_DiscardsWritesOnError(t *testing.T) {
	store := accounttest.NewStore()
	ctx := context.Background()

	err := store.WithTx(ctx, func(repo account.Repository) error {
		require.NoError(t, repo.CreateUser(ctx, &account.User{Email: "ghost@example.com"}))
		return errors.New("abort")
	})
	require.Error(t, err)

	_, err = store.GetUserByEmail(ctx, "ghost@example.com")
	assert.ErrorIs(t, err, account.ErrNotFound)
}

func TestStore_WithTx_CommitsOnSuccess(t *testing.T) {
	store := accounttest.NewStore()
	ctx := context.Background()

	err := store.WithTx(ctx, func(repo account.Repository) error {
		return repo.CreateUser(ctx, &account.User{Email: "ana@example.com"})
	})
	require.NoError(t, err)

	u, err := store.GetUserByEmail(ctx, "ANA@example.com")
	require.NoError(t, err)
	assert.Equal(t, "ana@example.com", u.Email)
}

func TestStore_UniqueRules(t *testing.T) {
	store := accounttest.NewStore()
	ctx := context.Background()

	u := &account.User{Email: "ana@example.com"}
	require.NoError(t, store.CreateUser(ctx, u))
	assert.ErrorIs(t, store.CreateUser(ctx, &account.User{Email: "Ana@Example.com"}), account.ErrConflict)

	c := &account.Company{Name: "Café Ñandú"}
	require.NoError(t, store.CreateCompany(ctx, c))
	assert.ErrorIs(t, store.CreateCompany(ctx, &account.Company{Name: "cafe nandu"}), account.ErrConflict)
	assert.Equal(t, account.DefaultCurrency, c.Currency)

	require.NoError(t, store.CreateRole(ctx, &account.Role{UserID: u.ID, CompanyID: c.ID, AccessLevel: account.LevelOwner}))
	assert.ErrorIs(t, store.CreateRole(ctx, &account.Role{UserID: u.ID, CompanyID: c.ID}), account.ErrConflict)

	other := &account.Company{Name: "Globex"}
	require.NoError(t, store.CreateCompany(ctx, other))
	err := store.CreateRole(ctx, &account.Role{UserID: u.ID, CompanyID: other.ID, AccessLevel: account.LevelOwner})
	var conflict *account.ConflictError
	require.True(t, errors.As(err, &conflict))
	assert.Equal(t, "user_id", conflict.Field)
}

func TestStore_ListRolesByUser_Paginates(t *testing.T) {
	store := accounttest.NewStore()
	ctx := context.Background()
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	tick := 0
	store.Now = func() time.Time {
		tick++
		return base.Add(time.Duration(tick) * time.Minute)
	}

	u := &account.User{Email: "ana@example.com"}
	require.NoError(t, store.CreateUser(ctx, u))
	for _, name := range []string{"A", "B", "C"} {
		c := &account.Company{Name: name}
		require.NoError(t, store.CreateCompany(ctx, c))
		require.NoError(t, store.CreateRole(ctx, &account.Role{UserID: u.ID, CompanyID: c.ID, AccessLevel: account.LevelViewer}))
	}

	page, err := store.ListRolesByUser(ctx, u.ID, account.RoleFilter{Page: 1, Limit: 2})
	require.NoError(t, err)
	assert.Equal(t, 3, page.Total)
	require.Len(t, page.Roles, 2)
	assert.Equal(t, "C", page.Roles[0].Company.Name)

	page, err = store.ListRolesByUser(ctx, u.ID, account.RoleFilter{Page: 2, Limit: 2})
	require.NoError(t, err)
	require.Len(t, page.Roles, 1)
	assert.Equal(t, "A", page.Roles[0].Company.Name)
}

func TestStore_FailWith(t *testing.T) {
	store := accounttest.NewStore()
	store.FailWith(errors.New("connection refused"))

	_, err := store.GetUserByID(context.Background(), 1)
	assert.ErrorIs(t, err, account.ErrUnavailable)
	assert.ErrorIs(t, store.Ping(context.Background()), account.ErrUnavailable)

	store.FailWith(nil)
	assert.NoError(t, store.Ping(context.Background()))
}

func TestStore_SeedRoleFunctions_KeepsExisting(t *testing.T) {
	store := accounttest.NewStore()
	ctx := context.Background()

	require.NoError(t, store.SeedRoleFunctions(ctx, []account.RoleFunction{
		{Code: "owner", Name: "Dueña", AccessLevel: account.LevelOwner},
	}))
	require.NoError(t, store.SeedRoleFunctions(ctx, account.DefaultRoleFunctions))

	fns, err := store.ListRoleFunctions(ctx)
	require.NoError(t, err)
	require.Len(t, fns, len(account.DefaultRoleFunctions))
	assert.Equal(t, "owner", fns[0].Code)
	assert.Equal(t, "Dueña", fns[0].Name)
}
