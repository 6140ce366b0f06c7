package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5/pgconn"

	"coffeeshop-backend/internal/auth"
	"coffeeshop-backend/internal/model"
)

const userColumns = "id, email, full_name, role, password_hash, created_at"

// UserRepo provides database operations for user accounts. It also satisfies
// the auth.UserDirectory contract for the session manager.
type UserRepo struct {
	DB *sql.DB
}

// NewUserRepo returns a repo bound to db.
func NewUserRepo(db *sql.DB) *UserRepo {
	return &UserRepo{DB: db}
}

// CreateUserParams are the inputs for UserRepo.Create. PasswordHash must
// already be hashed; the repo never sees plaintext.
type CreateUserParams struct {
	Email        string
	FullName     string
	PasswordHash string
	Role         string
}

// Create inserts a new user. Duplicate emails map to ErrEmailTaken.
func (r *UserRepo) Create(ctx context.Context, p CreateUserParams) (*model.User, error) {
	role := p.Role
	if role == "" {
		role = model.RoleUser
	}

	var u model.User
	err := r.DB.QueryRowContext(ctx, `
		INSERT INTO users (email, full_name, password_hash, role)
		VALUES ($1, $2, $3, $4)
		RETURNING `+userColumns,
		strings.ToLower(strings.TrimSpace(p.Email)), p.FullName, p.PasswordHash, role,
	).Scan(&u.ID, &u.Email, &u.FullName, &u.Role, &u.PasswordHash, &u.CreatedAt)
	if err != nil {
		return nil, mapUserWriteErr(err)
	}
	return &u, nil
}

// GetByID returns the user for id, or (nil, nil) when absent.
func (r *UserRepo) GetByID(ctx context.Context, id int64) (*model.User, error) {
	return r.getByQuery(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id)
}

// GetByEmail returns the user with the given email, or (nil, nil) when absent.
func (r *UserRepo) GetByEmail(ctx context.Context, email string) (*model.User, error) {
	return r.getByQuery(ctx, `SELECT `+userColumns+` FROM users WHERE email = $1`,
		strings.ToLower(strings.TrimSpace(email)))
}

// List returns all users, newest first.
func (r *UserRepo) List(ctx context.Context) ([]model.User, error) {
	rows, err := r.DB.QueryContext(ctx, `SELECT `+userColumns+` FROM users ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	defer rows.Close()

	var out []model.User
	for rows.Next() {
		var u model.User
		if err := rows.Scan(&u.ID, &u.Email, &u.FullName, &u.Role, &u.PasswordHash, &u.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan user: %w", err)
		}
		out = append(out, u)
	}
	return out, rows.Err()
}

// UpdateUserParams carry the optional fields for UserRepo.Update. Nil fields
// are left untouched.
type UpdateUserParams struct {
	Email        *string
	FullName     *string
	PasswordHash *string
	Role         *string
}

// Update applies the non-nil fields and returns the updated user.
// A missing user maps to ErrUserNotFound.
func (r *UserRepo) Update(ctx context.Context, id int64, p UpdateUserParams) (*model.User, error) {
	set := make([]string, 0, 4)
	args := []any{id}
	add := func(col string, v any) {
		args = append(args, v)
		set = append(set, fmt.Sprintf("%s = $%d", col, len(args)))
	}
	if p.Email != nil {
		add("email", strings.ToLower(strings.TrimSpace(*p.Email)))
	}
	if p.FullName != nil {
		add("full_name", *p.FullName)
	}
	if p.PasswordHash != nil {
		add("password_hash", *p.PasswordHash)
	}
	if p.Role != nil {
		add("role", *p.Role)
	}
	if len(set) == 0 {
		return r.mustGet(ctx, id)
	}

	var u model.User
	err := r.DB.QueryRowContext(ctx,
		`UPDATE users SET `+strings.Join(set, ", ")+` WHERE id = $1 RETURNING `+userColumns,
		args...,
	).Scan(&u.ID, &u.Email, &u.FullName, &u.Role, &u.PasswordHash, &u.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, mapUserWriteErr(err)
	}
	return &u, nil
}

// Delete removes the user. A missing user maps to ErrUserNotFound.
func (r *UserRepo) Delete(ctx context.Context, id int64) error {
	res, err := r.DB.ExecContext(ctx, `DELETE FROM users WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete user: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrUserNotFound
	}
	return nil
}

// FindByEmail implements auth.UserDirectory.
func (r *UserRepo) FindByEmail(ctx context.Context, email string) (*auth.Principal, error) {
	u, err := r.GetByEmail(ctx, email)
	if err != nil || u == nil {
		return nil, err
	}
	return principal(u), nil
}

// FindByID implements auth.UserDirectory.
func (r *UserRepo) FindByID(ctx context.Context, id int64) (*auth.Principal, error) {
	u, err := r.GetByID(ctx, id)
	if err != nil || u == nil {
		return nil, err
	}
	return principal(u), nil
}

func principal(u *model.User) *auth.Principal {
	return &auth.Principal{
		ID:           u.ID,
		Email:        u.Email,
		Role:         u.Role,
		PasswordHash: u.PasswordHash,
	}
}

func (r *UserRepo) getByQuery(ctx context.Context, query string, arg any) (*model.User, error) {
	var u model.User
	err := r.DB.QueryRowContext(ctx, query, arg).
		Scan(&u.ID, &u.Email, &u.FullName, &u.Role, &u.PasswordHash, &u.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get user: %w", err)
	}
	return &u, nil
}

func (r *UserRepo) mustGet(ctx context.Context, id int64) (*model.User, error) {
	u, err := r.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if u == nil {
		return nil, ErrUserNotFound
	}
	return u, nil
}

func mapUserWriteErr(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation {
		return ErrEmailTaken
	}
	return fmt.Errorf("write user: %w", err)
}
