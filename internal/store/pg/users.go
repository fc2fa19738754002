package pg

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"tasknest.dev/internal/auth"
	"tasknest.dev/internal/user"
)

var _ user.Store = (*UserStore)(nil)

// UserStore implements user.Store over PostgreSQL. Global roles are
// kept as a jsonb array on the row.
type UserStore struct {
	db *sql.DB
}

func (s *UserStore) Create(ctx context.Context, u *user.User) error {
	roles, err := json.Marshal(u.Roles)
	if err != nil {
		return fmt.Errorf("marshal roles: %w", err)
	}
	row := s.db.QueryRowContext(ctx, `
		insert into users (id, email, password_hash, status, roles)
		values ($1, $2, $3, $4, $5)
		returning created_at, updated_at
	`, u.ID, u.Email, u.PasswordHash, u.Status, roles)
	if err := row.Scan(&u.CreatedAt, &u.UpdatedAt); err != nil {
		if pgErr, ok := maybePgError(err); ok && pgErr.Code == pgErrUniqueViolation {
			return fmt.Errorf("%w: email already registered", user.ErrInvalidInput)
		}
		return err
	}
	return nil
}

func (s *UserStore) Find(ctx context.Context, id string) (*user.User, error) {
	return s.scanUser(s.db.QueryRowContext(ctx, `
		select id, email, password_hash, status, roles, created_at, updated_at
		from users where id=$1
	`, id))
}

func (s *UserStore) FindByEmail(ctx context.Context, email string) (*user.User, error) {
	return s.scanUser(s.db.QueryRowContext(ctx, `
		select id, email, password_hash, status, roles, created_at, updated_at
		from users where email=$1
	`, email))
}

func (s *UserStore) scanUser(row *sql.Row) (*user.User, error) {
	var (
		u     user.User
		roles []byte
	)
	err := row.Scan(&u.ID, &u.Email, &u.PasswordHash, &u.Status, &roles, &u.CreatedAt, &u.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, user.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	if len(roles) > 0 {
		var parsed []auth.Role
		if err := json.Unmarshal(roles, &parsed); err != nil {
			return nil, fmt.Errorf("decode roles: %w", err)
		}
		u.Roles = auth.NormalizeRoles(parsed)
	}
	return &u, nil
}
