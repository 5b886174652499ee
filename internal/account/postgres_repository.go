package account

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/estokealo/estokealo/internal/database"
)

// querier is satisfied by *pgxpool.Pool and pgx.Tx.
type querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	SendBatch(ctx context.Context, b *pgx.Batch) pgx.BatchResults
}

// constraintFields maps unique constraints to the request field they guard.
var constraintFields = map[string]string{
	"users_email_key":          "email",
	"companies_name_key_key":   "name",
	"roles_user_company_key":   "company_id",
	"roles_one_owner_per_user": "user_id",
	"role_functions_code_key":  "code",
}

// PostgresStore implements Store using pgxpool.
type PostgresStore struct {
	pool *pgxpool.Pool
	q    querier
	inTx bool
}

// NewStore creates a new Store backed by the given connection pool.
func NewStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool, q: pool}
}

// WithTx runs fn in a transaction. Nested calls reuse the outer transaction.
func (s *PostgresStore) WithTx(ctx context.Context, fn func(repo Repository) error) error {
	if s.inTx {
		return fn(s)
	}
	var fnErr error
	err := database.WithTx(ctx, s.pool, func(tx pgx.Tx) error {
		fnErr = fn(&PostgresStore{pool: s.pool, q: tx, inTx: true})
		return fnErr
	})
	if err != nil && fnErr == nil {
		return translate("committing transaction", err)
	}
	return err
}

// Ping verifies the database connection is alive.
func (s *PostgresStore) Ping(ctx context.Context) error {
	if err := s.pool.Ping(ctx); err != nil {
		return fmt.Errorf("%w: %w", ErrUnavailable, err)
	}
	return nil
}

func isDomainError(err error) bool {
	return errors.Is(err, ErrNotFound) || errors.Is(err, ErrConflict) || errors.Is(err, ErrUnavailable)
}

// translate maps driver errors onto the store's error kinds.
func translate(op string, err error) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrNotFound
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		field, ok := constraintFields[pgErr.ConstraintName]
		if !ok {
			field = pgErr.ConstraintName
		}
		return &ConflictError{Field: field}
	}
	if isDomainError(err) {
		return err
	}
	return fmt.Errorf("%s: %w: %w", op, ErrUnavailable, err)
}

const userColumns = `id, email, password_hash, signup_completed, is_active, signup_date,
		profile_image, first_name, last_name, phone, address`

func scanUser(row pgx.Row) (*User, error) {
	var u User
	err := row.Scan(&u.ID, &u.Email, &u.PasswordHash, &u.SignupCompleted, &u.IsActive, &u.SignupDate,
		&u.ProfileImage, &u.FirstName, &u.LastName, &u.Phone, &u.Address)
	if err != nil {
		return nil, err
	}
	return &u, nil
}

// CreateUser inserts a new user. The email is normalized before insertion.
func (s *PostgresStore) CreateUser(ctx context.Context, u *User) error {
	u.Email = NormalizeEmail(u.Email)
	query := `
		INSERT INTO users (email, password_hash, signup_completed, is_active, profile_image,
			first_name, last_name, phone, address)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id, signup_date`

	err := s.q.QueryRow(ctx, query, u.Email, u.PasswordHash, u.SignupCompleted, u.IsActive,
		u.ProfileImage, u.FirstName, u.LastName, u.Phone, u.Address).Scan(&u.ID, &u.SignupDate)
	if err != nil {
		return translate("inserting user", err)
	}
	return nil
}

// GetUserByID retrieves a single user by id.
func (s *PostgresStore) GetUserByID(ctx context.Context, id int64) (*User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1`

	u, err := scanUser(s.q.QueryRow(ctx, query, id))
	if err != nil {
		return nil, translate("querying user", err)
	}
	return u, nil
}

// GetUserByEmail retrieves a single user by normalized email.
func (s *PostgresStore) GetUserByEmail(ctx context.Context, email string) (*User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE email = $1`

	u, err := scanUser(s.q.QueryRow(ctx, query, NormalizeEmail(email)))
	if err != nil {
		return nil, translate("querying user by email", err)
	}
	return u, nil
}

// UpdateUser applies the non-nil fields of upd.
func (s *PostgresStore) UpdateUser(ctx context.Context, id int64, upd UserUpdate) (*User, error) {
	if upd.Empty() {
		return s.GetUserByID(ctx, id)
	}

	var sets []string
	args := []any{id}
	add := func(column string, value any) {
		args = append(args, value)
		sets = append(sets, fmt.Sprintf("%s = $%d", column, len(args)))
	}
	if upd.FirstName != nil {
		add("first_name", *upd.FirstName)
	}
	if upd.LastName != nil {
		add("last_name", *upd.LastName)
	}
	if upd.Phone != nil {
		add("phone", *upd.Phone)
	}
	if upd.ProfileImage != nil {
		add("profile_image", *upd.ProfileImage)
	}
	if upd.Address != nil {
		add("address", *upd.Address)
	}

	query := `UPDATE users SET ` + strings.Join(sets, ", ") + ` WHERE id = $1 RETURNING ` + userColumns

	u, err := scanUser(s.q.QueryRow(ctx, query, args...))
	if err != nil {
		return nil, translate("updating user", err)
	}
	return u, nil
}

// CompleteSignup stores the password and names and marks signup as completed.
func (s *PostgresStore) CompleteSignup(ctx context.Context, id int64, c SignupCompletion) (*User, error) {
	query := `
		UPDATE users
		SET password_hash = $2, first_name = $3, last_name = $4, signup_completed = TRUE
		WHERE id = $1
		RETURNING ` + userColumns

	u, err := scanUser(s.q.QueryRow(ctx, query, id, c.PasswordHash, c.FirstName, c.LastName))
	if err != nil {
		return nil, translate("completing signup", err)
	}
	return u, nil
}

// SetPassword replaces the stored password hash.
func (s *PostgresStore) SetPassword(ctx context.Context, id int64, passwordHash string) error {
	result, err := s.q.Exec(ctx, `UPDATE users SET password_hash = $2 WHERE id = $1`, id, passwordHash)
	if err != nil {
		return translate("updating password", err)
	}
	if result.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

const companyColumns = `id, name, logo, tz_name, address, currency, created_at`

func scanCompany(row pgx.Row) (*Company, error) {
	var c Company
	if err := row.Scan(&c.ID, &c.Name, &c.Logo, &c.TZName, &c.Address, &c.Currency, &c.CreatedAt); err != nil {
		return nil, err
	}
	return &c, nil
}

// CreateCompany inserts a company. Names are unique once folded by CompanyNameKey.
func (s *PostgresStore) CreateCompany(ctx context.Context, c *Company) error {
	c.Name = strings.TrimSpace(c.Name)
	if c.TZName == "" {
		c.TZName = DefaultTimezone
	}
	if c.Currency == (Currency{}) {
		c.Currency = DefaultCurrency
	}
	query := `
		INSERT INTO companies (name, name_key, logo, tz_name, address, currency)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at`

	err := s.q.QueryRow(ctx, query, c.Name, CompanyNameKey(c.Name), c.Logo, c.TZName, c.Address, c.Currency).
		Scan(&c.ID, &c.CreatedAt)
	if err != nil {
		return translate("inserting company", err)
	}
	return nil
}

// GetCompany retrieves a single company by id.
func (s *PostgresStore) GetCompany(ctx context.Context, id int64) (*Company, error) {
	query := `SELECT ` + companyColumns + ` FROM companies WHERE id = $1`

	c, err := scanCompany(s.q.QueryRow(ctx, query, id))
	if err != nil {
		return nil, translate("querying company", err)
	}
	return c, nil
}

const roleSelect = `
		SELECT r.id, r.user_id, r.company_id, r.access_level, r.invitation_status, r.is_active, r.relation_date,
			u.id, u.email, u.password_hash, u.signup_completed, u.is_active, u.signup_date,
			u.profile_image, u.first_name, u.last_name, u.phone, u.address,
			c.id, c.name, c.logo, c.tz_name, c.address, c.currency, c.created_at
		FROM roles r
		JOIN users u ON u.id = r.user_id
		JOIN companies c ON c.id = r.company_id`

func scanRole(row pgx.Row) (*Role, error) {
	var (
		r Role
		u User
		c Company
	)
	err := row.Scan(&r.ID, &r.UserID, &r.CompanyID, &r.AccessLevel, &r.InvitationStatus, &r.IsActive, &r.RelationDate,
		&u.ID, &u.Email, &u.PasswordHash, &u.SignupCompleted, &u.IsActive, &u.SignupDate,
		&u.ProfileImage, &u.FirstName, &u.LastName, &u.Phone, &u.Address,
		&c.ID, &c.Name, &c.Logo, &c.TZName, &c.Address, &c.Currency, &c.CreatedAt)
	if err != nil {
		return nil, err
	}
	r.User = &u
	r.Company = &c
	return &r, nil
}

func collectRoles(rows pgx.Rows) ([]Role, error) {
	defer rows.Close()

	roles := []Role{}
	for rows.Next() {
		r, err := scanRole(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning role row: %w", err)
		}
		roles = append(roles, *r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating role rows: %w", err)
	}
	return roles, nil
}

// CreateRole inserts a role linking a user to a company.
func (s *PostgresStore) CreateRole(ctx context.Context, r *Role) error {
	if r.InvitationStatus == "" {
		r.InvitationStatus = InvitationPending
	}
	query := `
		INSERT INTO roles (user_id, company_id, access_level, invitation_status, is_active)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, relation_date`

	err := s.q.QueryRow(ctx, query, r.UserID, r.CompanyID, r.AccessLevel, r.InvitationStatus, r.IsActive).
		Scan(&r.ID, &r.RelationDate)
	if err != nil {
		return translate("inserting role", err)
	}
	return nil
}

// GetRole retrieves a role with its user and company.
func (s *PostgresStore) GetRole(ctx context.Context, id int64) (*Role, error) {
	r, err := scanRole(s.q.QueryRow(ctx, roleSelect+` WHERE r.id = $1`, id))
	if err != nil {
		return nil, translate("querying role", err)
	}
	return r, nil
}

// GetRoleByMember retrieves the role a user holds in a company.
func (s *PostgresStore) GetRoleByMember(ctx context.Context, userID, companyID int64) (*Role, error) {
	r, err := scanRole(s.q.QueryRow(ctx, roleSelect+` WHERE r.user_id = $1 AND r.company_id = $2`, userID, companyID))
	if err != nil {
		return nil, translate("querying role by member", err)
	}
	return r, nil
}

// ListRolesByUser returns one page of the user's roles, newest first.
func (s *PostgresStore) ListRolesByUser(ctx context.Context, userID int64, f RoleFilter) (*RolePage, error) {
	f = f.Normalize()

	where := ` WHERE r.user_id = $1`
	args := []any{userID}
	if f.Status != nil {
		args = append(args, *f.Status)
		where += ` AND r.invitation_status = $2`
	}

	var total int
	if err := s.q.QueryRow(ctx, `SELECT COUNT(*) FROM roles r`+where, args...).Scan(&total); err != nil {
		return nil, translate("counting roles", err)
	}

	query := roleSelect + where + fmt.Sprintf(` ORDER BY r.relation_date DESC, r.id DESC LIMIT %d OFFSET %d`, f.Limit, f.Offset())
	rows, err := s.q.Query(ctx, query, args...)
	if err != nil {
		return nil, translate("listing roles", err)
	}
	roles, err := collectRoles(rows)
	if err != nil {
		return nil, translate("listing roles", err)
	}

	return &RolePage{Roles: roles, Total: total, Page: f.Page, Limit: f.Limit}, nil
}

// ListRolesByCompany returns every role in the company ordered by access level.
func (s *PostgresStore) ListRolesByCompany(ctx context.Context, companyID int64) ([]Role, error) {
	rows, err := s.q.Query(ctx, roleSelect+` WHERE r.company_id = $1 ORDER BY r.access_level ASC, r.id ASC`, companyID)
	if err != nil {
		return nil, translate("listing company roles", err)
	}
	roles, err := collectRoles(rows)
	if err != nil {
		return nil, translate("listing company roles", err)
	}
	return roles, nil
}

// UpdateRole applies the non-nil fields of upd.
func (s *PostgresStore) UpdateRole(ctx context.Context, id int64, upd RoleUpdate) (*Role, error) {
	if !upd.Empty() {
		var sets []string
		args := []any{id}
		add := func(column string, value any) {
			args = append(args, value)
			sets = append(sets, fmt.Sprintf("%s = $%d", column, len(args)))
		}
		if upd.AccessLevel != nil {
			add("access_level", *upd.AccessLevel)
		}
		if upd.IsActive != nil {
			add("is_active", *upd.IsActive)
		}
		if upd.InvitationStatus != nil {
			add("invitation_status", *upd.InvitationStatus)
		}

		result, err := s.q.Exec(ctx, `UPDATE roles SET `+strings.Join(sets, ", ")+` WHERE id = $1`, args...)
		if err != nil {
			return nil, translate("updating role", err)
		}
		if result.RowsAffected() == 0 {
			return nil, ErrNotFound
		}
	}
	return s.GetRole(ctx, id)
}

// DeleteRole removes a role by id.
func (s *PostgresStore) DeleteRole(ctx context.Context, id int64) error {
	result, err := s.q.Exec(ctx, `DELETE FROM roles WHERE id = $1`, id)
	if err != nil {
		return translate("deleting role", err)
	}
	if result.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// OwnsCompany reports whether the user already holds an owner role.
func (s *PostgresStore) OwnsCompany(ctx context.Context, userID int64) (bool, error) {
	var owns bool
	err := s.q.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM roles WHERE user_id = $1 AND access_level = $2)`,
		userID, LevelOwner).Scan(&owns)
	if err != nil {
		return false, translate("checking company ownership", err)
	}
	return owns, nil
}

// SeedRoleFunctions inserts the role functions whose codes are absent.
// Existing rows are left as they are.
func (s *PostgresStore) SeedRoleFunctions(ctx context.Context, fns []RoleFunction) error {
	query := `
		INSERT INTO role_functions (code, name, description, access_level)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (code) DO NOTHING`

	batch := &pgx.Batch{}
	for _, fn := range fns {
		batch.Queue(query, fn.Code, fn.Name, fn.Description, fn.AccessLevel)
	}

	results := s.q.SendBatch(ctx, batch)
	defer results.Close()

	for range fns {
		if _, err := results.Exec(); err != nil {
			return translate("seeding role functions", err)
		}
	}
	return nil
}

// ListRoleFunctions returns the role functions ordered by access level.
func (s *PostgresStore) ListRoleFunctions(ctx context.Context) ([]RoleFunction, error) {
	rows, err := s.q.Query(ctx, `SELECT id, code, name, description, access_level FROM role_functions ORDER BY access_level ASC`)
	if err != nil {
		return nil, translate("listing role functions", err)
	}
	defer rows.Close()

	fns := []RoleFunction{}
	for rows.Next() {
		var fn RoleFunction
		if err := rows.Scan(&fn.ID, &fn.Code, &fn.Name, &fn.Description, &fn.AccessLevel); err != nil {
			return nil, translate("scanning role function row", err)
		}
		fns = append(fns, fn)
	}
	if err := rows.Err(); err != nil {
		return nil, translate("iterating role function rows", err)
	}
	return fns, nil
}
