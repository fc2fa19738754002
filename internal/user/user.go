package user

import (
	"context"
	"errors"
	"time"

	"tasknest.dev/internal/auth"
)

var (
	ErrNotFound     = errors.New("user: not found")
	ErrInvalidInput = errors.New("user: invalid input")
)

const (
	StatusActive   = "active"
	StatusDisabled = "disabled"
)

// User is a service account holder. Roles here are global roles baked
// into issued tokens; organization-scoped roles live in memberships.
type User struct {
	ID           string      `json:"id"`
	Email        string      `json:"email"`
	PasswordHash string      `json:"-"`
	Status       string      `json:"status"`
	Roles        []auth.Role `json:"roles,omitempty"`
	CreatedAt    time.Time   `json:"created_at"`
	UpdatedAt    time.Time   `json:"updated_at"`
}

// Store describes user persistence.
type Store interface {
	Create(ctx context.Context, u *User) error
	Find(ctx context.Context, id string) (*User, error)
	FindByEmail(ctx context.Context, email string) (*User, error)
}
