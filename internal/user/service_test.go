package user

import (
	"context"
	"errors"
	"testing"

	"tasknest.dev/internal/auth"
)

type memStore struct {
	byID    map[string]*User
	byEmail map[string]*User
}

func newMemStore() *memStore {
	return &memStore{byID: map[string]*User{}, byEmail: map[string]*User{}}
}

func (m *memStore) Create(_ context.Context, u *User) error {
	cp := *u
	m.byID[u.ID] = &cp
	m.byEmail[u.Email] = &cp
	return nil
}

func (m *memStore) Find(_ context.Context, id string) (*User, error) {
	u, ok := m.byID[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *u
	return &cp, nil
}

func (m *memStore) FindByEmail(_ context.Context, email string) (*User, error) {
	u, ok := m.byEmail[email]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *u
	return &cp, nil
}

func TestRegisterAndAuthenticate(t *testing.T) {
	store := newMemStore()
	svc, err := NewService(store)
	if err != nil {
		t.Fatalf("NewService: %v", err)
	}
	ctx := context.Background()

	u, err := svc.Register(ctx, " Alice@Example.COM ", "correct horse battery", []auth.Role{"Member"})
	if err != nil {
		t.Fatalf("Register: %v", err)
	}
	if u.Email != "alice@example.com" {
		t.Fatalf("email not normalized: %q", u.Email)
	}
	if u.PasswordHash == "correct horse battery" || u.PasswordHash == "" {
		t.Fatalf("password must be stored hashed")
	}
	if len(u.Roles) != 1 || u.Roles[0] != auth.RoleMember {
		t.Fatalf("roles not normalized: %v", u.Roles)
	}

	got, err := svc.Authenticate(ctx, "alice@example.com", "correct horse battery")
	if err != nil {
		t.Fatalf("Authenticate: %v", err)
	}
	if got.ID != u.ID {
		t.Fatalf("wrong user returned")
	}
}

func TestAuthenticateFailures(t *testing.T) {
	store := newMemStore()
	svc, _ := NewService(store)
	ctx := context.Background()

	if _, err := svc.Register(ctx, "bob@example.com", "hunter2hunter2", nil); err != nil {
		t.Fatalf("Register: %v", err)
	}

	tests := []struct {
		name     string
		email    string
		password string
	}{
		{"unknown email", "nobody@example.com", "hunter2hunter2"},
		{"wrong password", "bob@example.com", "wrong-password"},
		{"blank password", "bob@example.com", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := svc.Authenticate(ctx, tt.email, tt.password); !errors.Is(err, ErrBadCredentials) {
				t.Fatalf("expected ErrBadCredentials, got %v", err)
			}
		})
	}
}

func TestAuthenticateRejectsDisabled(t *testing.T) {
	store := newMemStore()
	svc, _ := NewService(store)
	ctx := context.Background()

	u, err := svc.Register(ctx, "carol@example.com", "hunter2hunter2", nil)
	if err != nil {
		t.Fatalf("Register: %v", err)
	}
	store.byEmail[u.Email].Status = StatusDisabled

	if _, err := svc.Authenticate(ctx, "carol@example.com", "hunter2hunter2"); !errors.Is(err, ErrBadCredentials) {
		t.Fatalf("disabled account must not authenticate, got %v", err)
	}
}

func TestRegisterRejectsShortPassword(t *testing.T) {
	svc, _ := NewService(newMemStore())
	if _, err := svc.Register(context.Background(), "dave@example.com", "short", nil); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
}
