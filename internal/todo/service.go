package todo

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"tasknest.dev/internal/ids"
)

const maxTitleLength = 200

// Service validates input and delegates to the store.
type Service struct {
	store Store
}

func NewService(store Store) (*Service, error) {
	if store == nil {
		return nil, errors.New("todo store is required")
	}
	return &Service{store: store}, nil
}

func (s *Service) Create(ctx context.Context, orgID, createdBy, title, description string) (*Todo, error) {
	orgID = strings.TrimSpace(orgID)
	createdBy = strings.TrimSpace(createdBy)
	if orgID == "" || createdBy == "" {
		return nil, fmt.Errorf("%w: organization_id and created_by are required", ErrInvalidInput)
	}
	title, err := normalizeTitle(title)
	if err != nil {
		return nil, err
	}
	t := &Todo{
		ID:             ids.New(),
		OrganizationID: orgID,
		Title:          title,
		Description:    strings.TrimSpace(description),
		CreatedBy:      createdBy,
	}
	if err := s.store.Create(ctx, t); err != nil {
		return nil, err
	}
	return t, nil
}

func (s *Service) Find(ctx context.Context, orgID, id string) (*Todo, error) {
	orgID = strings.TrimSpace(orgID)
	id = strings.TrimSpace(id)
	if orgID == "" || id == "" {
		return nil, fmt.Errorf("%w: organization_id and todo id are required", ErrInvalidInput)
	}
	return s.store.Find(ctx, orgID, id)
}

func (s *Service) ListByOrg(ctx context.Context, orgID string) ([]*Todo, error) {
	orgID = strings.TrimSpace(orgID)
	if orgID == "" {
		return nil, fmt.Errorf("%w: organization_id is required", ErrInvalidInput)
	}
	return s.store.ListByOrg(ctx, orgID)
}

func (s *Service) Apply(ctx context.Context, orgID, id string, upd Update) (*Todo, error) {
	orgID = strings.TrimSpace(orgID)
	id = strings.TrimSpace(id)
	if orgID == "" || id == "" {
		return nil, fmt.Errorf("%w: organization_id and todo id are required", ErrInvalidInput)
	}
	if upd.Title != nil {
		title, err := normalizeTitle(*upd.Title)
		if err != nil {
			return nil, err
		}
		upd.Title = &title
	}
	if upd.Description != nil {
		desc := strings.TrimSpace(*upd.Description)
		upd.Description = &desc
	}
	if upd.Title == nil && upd.Description == nil && upd.Done == nil {
		return nil, fmt.Errorf("%w: nothing to update", ErrInvalidInput)
	}
	return s.store.Update(ctx, orgID, id, upd)
}

func (s *Service) Delete(ctx context.Context, orgID, id string) error {
	orgID = strings.TrimSpace(orgID)
	id = strings.TrimSpace(id)
	if orgID == "" || id == "" {
		return fmt.Errorf("%w: organization_id and todo id are required", ErrInvalidInput)
	}
	return s.store.Delete(ctx, orgID, id)
}

func normalizeTitle(title string) (string, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return "", fmt.Errorf("%w: title is required", ErrInvalidInput)
	}
	if len(title) > maxTitleLength {
		return "", fmt.Errorf("%w: title exceeds %d characters", ErrInvalidInput, maxTitleLength)
	}
	return title, nil
}
