// Package accounttest provides an in-memory account.Store for tests. It
// enforces the same uniqueness rules as the Postgres schema and discards every
// write of a failed WithTx call.
package accounttest

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/estokealo/estokealo/internal/account"
)

type state struct {
	users     map[int64]account.User
	companies map[int64]account.Company
	roles     map[int64]account.Role
	functions map[string]account.RoleFunction
	nextID    int64
}

func newState() *state {
	return &state{
		users:     map[int64]account.User{},
		companies: map[int64]account.Company{},
		roles:     map[int64]account.Role{},
		functions: map[string]account.RoleFunction{},
	}
}

func (s *state) clone() *state {
	c := &state{
		users:     make(map[int64]account.User, len(s.users)),
		companies: make(map[int64]account.Company, len(s.companies)),
		roles:     make(map[int64]account.Role, len(s.roles)),
		functions: make(map[string]account.RoleFunction, len(s.functions)),
		nextID:    s.nextID,
	}
	for k, v := range s.users {
		c.users[k] = v
	}
	for k, v := range s.companies {
		c.companies[k] = v
	}
	for k, v := range s.roles {
		c.roles[k] = v
	}
	for k, v := range s.functions {
		c.functions[k] = v
	}
	return c
}

// Store is a concurrency-safe in-memory account.Store.
type Store struct {
	mu    sync.Mutex
	st    *state
	fail  error
	Now   func() time.Time
	calls int
}

// NewStore returns an empty Store.
func NewStore() *Store {
	return &Store{st: newState(), Now: time.Now}
}

// FailWith makes every following call return err wrapped in
// account.ErrUnavailable. Passing nil restores normal behaviour.
func (s *Store) FailWith(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.fail = err
}

// Calls returns how many repository calls the store has served.
func (s *Store) Calls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}

func (s *Store) do(fn func(r *repo) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	if s.fail != nil {
		return fmt.Errorf("%w: %w", account.ErrUnavailable, s.fail)
	}
	return fn(&repo{st: s.st, now: s.Now})
}

// WithTx runs fn against a snapshot and publishes it only when fn succeeds.
func (s *Store) WithTx(ctx context.Context, fn func(repo account.Repository) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	if s.fail != nil {
		return fmt.Errorf("%w: %w", account.ErrUnavailable, s.fail)
	}
	snapshot := s.st.clone()
	if err := fn(&repo{st: snapshot, now: s.Now}); err != nil {
		return err
	}
	s.st = snapshot
	return nil
}

// Ping reports the injected failure, if any.
func (s *Store) Ping(ctx context.Context) error {
	return s.do(func(*repo) error { return nil })
}

func (s *Store) CreateUser(ctx context.Context, u *account.User) error {
	return s.do(func(r *repo) error { return r.CreateUser(ctx, u) })
}

func (s *Store) GetUserByID(ctx context.Context, id int64) (u *account.User, err error) {
	err = s.do(func(r *repo) error { u, err = r.GetUserByID(ctx, id); return err })
	return u, err
}

func (s *Store) GetUserByEmail(ctx context.Context, email string) (u *account.User, err error) {
	err = s.do(func(r *repo) error { u, err = r.GetUserByEmail(ctx, email); return err })
	return u, err
}

func (s *Store) UpdateUser(ctx context.Context, id int64, upd account.UserUpdate) (u *account.User, err error) {
	err = s.do(func(r *repo) error { u, err = r.UpdateUser(ctx, id, upd); return err })
	return u, err
}

func (s *Store) CompleteSignup(ctx context.Context, id int64, c account.SignupCompletion) (u *account.User, err error) {
	err = s.do(func(r *repo) error { u, err = r.CompleteSignup(ctx, id, c); return err })
	return u, err
}

func (s *Store) SetPassword(ctx context.Context, id int64, passwordHash string) error {
	return s.do(func(r *repo) error { return r.SetPassword(ctx, id, passwordHash) })
}

func (s *Store) CreateCompany(ctx context.Context, c *account.Company) error {
	return s.do(func(r *repo) error { return r.CreateCompany(ctx, c) })
}

func (s *Store) GetCompany(ctx context.Context, id int64) (c *account.Company, err error) {
	err = s.do(func(r *repo) error { c, err = r.GetCompany(ctx, id); return err })
	return c, err
}

func (s *Store) CreateRole(ctx context.Context, role *account.Role) error {
	return s.do(func(r *repo) error { return r.CreateRole(ctx, role) })
}

func (s *Store) GetRole(ctx context.Context, id int64) (role *account.Role, err error) {
	err = s.do(func(r *repo) error { role, err = r.GetRole(ctx, id); return err })
	return role, err
}

func (s *Store) GetRoleByMember(ctx context.Context, userID, companyID int64) (role *account.Role, err error) {
	err = s.do(func(r *repo) error { role, err = r.GetRoleByMember(ctx, userID, companyID); return err })
	return role, err
}

func (s *Store) ListRolesByUser(ctx context.Context, userID int64, f account.RoleFilter) (p *account.RolePage, err error) {
	err = s.do(func(r *repo) error { p, err = r.ListRolesByUser(ctx, userID, f); return err })
	return p, err
}

func (s *Store) ListRolesByCompany(ctx context.Context, companyID int64) (roles []account.Role, err error) {
	err = s.do(func(r *repo) error { roles, err = r.ListRolesByCompany(ctx, companyID); return err })
	return roles, err
}

func (s *Store) UpdateRole(ctx context.Context, id int64, upd account.RoleUpdate) (role *account.Role, err error) {
	err = s.do(func(r *repo) error { role, err = r.UpdateRole(ctx, id, upd); return err })
	return role, err
}

func (s *Store) DeleteRole(ctx context.Context, id int64) error {
	return s.do(func(r *repo) error { return r.DeleteRole(ctx, id) })
}

func (s *Store) OwnsCompany(ctx context.Context, userID int64) (owns bool, err error) {
	err = s.do(func(r *repo) error { owns, err = r.OwnsCompany(ctx, userID); return err })
	return owns, err
}

func (s *Store) SeedRoleFunctions(ctx context.Context, fns []account.RoleFunction) error {
	return s.do(func(r *repo) error { return r.SeedRoleFunctions(ctx, fns) })
}

func (s *Store) ListRoleFunctions(ctx context.Context) (fns []account.RoleFunction, err error) {
	err = s.do(func(r *repo) error { fns, err = r.ListRoleFunctions(ctx); return err })
	return fns, err
}

// repo operates on a state without locking. The owning Store holds the lock.
type repo struct {
	st  *state
	now func() time.Time
}

func (r *repo) id() int64 {
	r.st.nextID++
	return r.st.nextID
}

func (r *repo) CreateUser(_ context.Context, u *account.User) error {
	u.Email = account.NormalizeEmail(u.Email)
	for _, existing := range r.st.users {
		if existing.Email == u.Email {
			return &account.ConflictError{Field: "email"}
		}
	}
	u.ID = r.id()
	u.SignupDate = r.now().UTC()
	r.st.users[u.ID] = *u
	return nil
}

func (r *repo) GetUserByID(_ context.Context, id int64) (*account.User, error) {
	u, ok := r.st.users[id]
	if !ok {
		return nil, account.ErrNotFound
	}
	return &u, nil
}

func (r *repo) GetUserByEmail(_ context.Context, email string) (*account.User, error) {
	email = account.NormalizeEmail(email)
	for _, u := range r.st.users {
		if u.Email == email {
			return &u, nil
		}
	}
	return nil, account.ErrNotFound
}

func (r *repo) UpdateUser(_ context.Context, id int64, upd account.UserUpdate) (*account.User, error) {
	u, ok := r.st.users[id]
	if !ok {
		return nil, account.ErrNotFound
	}
	if upd.FirstName != nil {
		u.FirstName = *upd.FirstName
	}
	if upd.LastName != nil {
		u.LastName = *upd.LastName
	}
	if upd.Phone != nil {
		u.Phone = *upd.Phone
	}
	if upd.ProfileImage != nil {
		u.ProfileImage = *upd.ProfileImage
	}
	if upd.Address != nil {
		u.Address = *upd.Address
	}
	r.st.users[id] = u
	return &u, nil
}

func (r *repo) CompleteSignup(_ context.Context, id int64, c account.SignupCompletion) (*account.User, error) {
	u, ok := r.st.users[id]
	if !ok {
		return nil, account.ErrNotFound
	}
	u.PasswordHash = c.PasswordHash
	u.FirstName = c.FirstName
	u.LastName = c.LastName
	u.SignupCompleted = true
	r.st.users[id] = u
	return &u, nil
}

func (r *repo) SetPassword(_ context.Context, id int64, passwordHash string) error {
	u, ok := r.st.users[id]
	if !ok {
		return account.ErrNotFound
	}
	u.PasswordHash = passwordHash
	r.st.users[id] = u
	return nil
}

func (r *repo) CreateCompany(_ context.Context, c *account.Company) error {
	c.Name = strings.TrimSpace(c.Name)
	key := account.CompanyNameKey(c.Name)
	for _, existing := range r.st.companies {
		if account.CompanyNameKey(existing.Name) == key {
			return &account.ConflictError{Field: "name"}
		}
	}
	if c.TZName == "" {
		c.TZName = account.DefaultTimezone
	}
	if c.Currency == (account.Currency{}) {
		c.Currency = account.DefaultCurrency
	}
	c.ID = r.id()
	c.CreatedAt = r.now().UTC()
	r.st.companies[c.ID] = *c
	return nil
}

func (r *repo) GetCompany(_ context.Context, id int64) (*account.Company, error) {
	c, ok := r.st.companies[id]
	if !ok {
		return nil, account.ErrNotFound
	}
	return &c, nil
}

func (r *repo) CreateRole(_ context.Context, role *account.Role) error {
	if _, ok := r.st.users[role.UserID]; !ok {
		return fmt.Errorf("%w: user %d does not exist", account.ErrUnavailable, role.UserID)
	}
	if _, ok := r.st.companies[role.CompanyID]; !ok {
		return fmt.Errorf("%w: company %d does not exist", account.ErrUnavailable, role.CompanyID)
	}
	for _, existing := range r.st.roles {
		if existing.UserID == role.UserID && existing.CompanyID == role.CompanyID {
			return &account.ConflictError{Field: "company_id"}
		}
		if role.AccessLevel == account.LevelOwner && existing.UserID == role.UserID && existing.AccessLevel == account.LevelOwner {
			return &account.ConflictError{Field: "user_id"}
		}
	}
	if role.InvitationStatus == "" {
		role.InvitationStatus = account.InvitationPending
	}
	role.ID = r.id()
	role.RelationDate = r.now().UTC()
	stored := *role
	stored.User, stored.Company = nil, nil
	r.st.roles[role.ID] = stored
	return nil
}

// hydrate returns a copy of the role with its user and company attached.
func (r *repo) hydrate(role account.Role) *account.Role {
	u := r.st.users[role.UserID]
	c := r.st.companies[role.CompanyID]
	role.User = &u
	role.Company = &c
	return &role
}

func (r *repo) GetRole(_ context.Context, id int64) (*account.Role, error) {
	role, ok := r.st.roles[id]
	if !ok {
		return nil, account.ErrNotFound
	}
	return r.hydrate(role), nil
}

func (r *repo) GetRoleByMember(_ context.Context, userID, companyID int64) (*account.Role, error) {
	for _, role := range r.st.roles {
		if role.UserID == userID && role.CompanyID == companyID {
			return r.hydrate(role), nil
		}
	}
	return nil, account.ErrNotFound
}

func (r *repo) ListRolesByUser(_ context.Context, userID int64, f account.RoleFilter) (*account.RolePage, error) {
	f = f.Normalize()

	var matched []account.Role
	for _, role := range r.st.roles {
		if role.UserID != userID {
			continue
		}
		if f.Status != nil && role.InvitationStatus != *f.Status {
			continue
		}
		matched = append(matched, *r.hydrate(role))
	}
	sort.Slice(matched, func(i, j int) bool {
		if !matched[i].RelationDate.Equal(matched[j].RelationDate) {
			return matched[i].RelationDate.After(matched[j].RelationDate)
		}
		return matched[i].ID > matched[j].ID
	})

	page := &account.RolePage{Roles: []account.Role{}, Total: len(matched), Page: f.Page, Limit: f.Limit}
	start := f.Offset()
	if start >= len(matched) {
		return page, nil
	}
	end := start + f.Limit
	if end > len(matched) {
		end = len(matched)
	}
	page.Roles = append(page.Roles, matched[start:end]...)
	return page, nil
}

func (r *repo) ListRolesByCompany(_ context.Context, companyID int64) ([]account.Role, error) {
	roles := []account.Role{}
	for _, role := range r.st.roles {
		if role.CompanyID == companyID {
			roles = append(roles, *r.hydrate(role))
		}
	}
	sort.Slice(roles, func(i, j int) bool {
		if roles[i].AccessLevel != roles[j].AccessLevel {
			return roles[i].AccessLevel < roles[j].AccessLevel
		}
		return roles[i].ID < roles[j].ID
	})
	return roles, nil
}

func (r *repo) UpdateRole(ctx context.Context, id int64, upd account.RoleUpdate) (*account.Role, error) {
	role, ok := r.st.roles[id]
	if !ok {
		return nil, account.ErrNotFound
	}
	if upd.AccessLevel != nil {
		if *upd.AccessLevel == account.LevelOwner && role.AccessLevel != account.LevelOwner {
			for _, other := range r.st.roles {
				if other.UserID == role.UserID && other.AccessLevel == account.LevelOwner {
					return nil, &account.ConflictError{Field: "user_id"}
				}
			}
		}
		role.AccessLevel = *upd.AccessLevel
	}
	if upd.IsActive != nil {
		role.IsActive = *upd.IsActive
	}
	if upd.InvitationStatus != nil {
		role.InvitationStatus = *upd.InvitationStatus
	}
	r.st.roles[id] = role
	return r.GetRole(ctx, id)
}

func (r *repo) DeleteRole(_ context.Context, id int64) error {
	if _, ok := r.st.roles[id]; !ok {
		return account.ErrNotFound
	}
	delete(r.st.roles, id)
	return nil
}

func (r *repo) OwnsCompany(_ context.Context, userID int64) (bool, error) {
	for _, role := range r.st.roles {
		if role.UserID == userID && role.AccessLevel == account.LevelOwner {
			return true, nil
		}
	}
	return false, nil
}

func (r *repo) SeedRoleFunctions(_ context.Context, fns []account.RoleFunction) error {
	for _, fn := range fns {
		if _, ok := r.st.functions[fn.Code]; ok {
			continue
		}
		fn.ID = r.id()
		r.st.functions[fn.Code] = fn
	}
	return nil
}

func (r *repo) ListRoleFunctions(_ context.Context) ([]account.RoleFunction, error) {
	fns := make([]account.RoleFunction, 0, len(r.st.functions))
	for _, fn := range r.st.functions {
		fns = append(fns, fn)
	}
	sort.Slice(fns, func(i, j int) bool { return fns[i].AccessLevel < fns[j].AccessLevel })
	return fns, nil
}

var _ account.Store = (*Store)(nil)
