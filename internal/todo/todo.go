package todo

import (
	"context"
	"errors"
	"time"
)

var (
	ErrNotFound     = errors.New("todo: not found")
	ErrInvalidInput = errors.New("todo: invalid input")
)

// Todo is a unit of work belonging to one organization. CreatedBy
// records the authoring user so ownership-based authorization can
// compare it against the acting identity.
type Todo struct {
	ID             string    `json:"id"`
	OrganizationID string    `json:"organization_id"`
	Title          string    `json:"title"`
	Description    string    `json:"description,omitempty"`
	Done           bool      `json:"done"`
	CreatedBy      string    `json:"created_by"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// Update carries partial changes; nil fields stay untouched.
type Update struct {
	Title       *string
	Description *string
	Done        *bool
}

// Store describes the persistence operations the service requires.
type Store interface {
	Create(ctx context.Context, t *Todo) error
	Find(ctx context.Context, orgID, id string) (*Todo, error)
	ListByOrg(ctx context.Context, orgID string) ([]*Todo, error)
	Update(ctx context.Context, orgID, id string, upd Update) (*Todo, error)
	Delete(ctx context.Context, orgID, id string) error
}
