package user

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"tasknest.dev/internal/auth"
	"tasknest.dev/internal/ids"
)

// ErrBadCredentials is returned for any authentication failure. The
// caller cannot tell an unknown email from a wrong password or a
// disabled account apart, deliberately.
var ErrBadCredentials = errors.New("user: bad credentials")

// Service validates input and delegates to the store.
type Service struct {
	store Store
}

func NewService(store Store) (*Service, error) {
	if store == nil {
		return nil, errors.New("user store is required")
	}
	return &Service{store: store}, nil
}

// Register creates an active user with a hashed password.
func (s *Service) Register(ctx context.Context, email, password string, roles []auth.Role) (*User, error) {
	email = strings.TrimSpace(strings.ToLower(email))
	if email == "" || !strings.Contains(email, "@") {
		return nil, fmt.Errorf("%w: valid email is required", ErrInvalidInput)
	}
	hash, err := auth.HashPassword(password)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	u := &User{
		ID:           ids.New(),
		Email:        email,
		PasswordHash: hash,
		Status:       StatusActive,
		Roles:        auth.NormalizeRoles(roles),
	}
	if err := s.store.Create(ctx, u); err != nil {
		return nil, err
	}
	return u, nil
}

// Authenticate resolves credentials to an active user.
func (s *Service) Authenticate(ctx context.Context, email, password string) (*User, error) {
	email = strings.TrimSpace(strings.ToLower(email))
	if email == "" || password == "" {
		return nil, ErrBadCredentials
	}
	u, err := s.store.FindByEmail(ctx, email)
	if err != nil {
		return nil, ErrBadCredentials
	}
	if u.Status != StatusActive {
		return nil, ErrBadCredentials
	}
	if err := auth.VerifyPassword(u.PasswordHash, password); err != nil {
		return nil, ErrBadCredentials
	}
	return u, nil
}

// Find loads a user by id.
func (s *Service) Find(ctx context.Context, id string) (*User, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, fmt.Errorf("%w: user id is required", ErrInvalidInput)
	}
	return s.store.Find(ctx, id)
}
