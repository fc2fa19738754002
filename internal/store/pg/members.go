package pg

import (
	"context"
	"database/sql"
	"errors"

	"tasknest.dev/internal/auth"
)

var _ auth.MembershipResolver = (*MembershipStore)(nil)

// MembershipStore resolves a user's role within an organization.
type MembershipStore struct {
	db *sql.DB
}

// Resolve returns the member's role, or auth.ErrNoMembership when the
// user has no standing in the organization.
func (s *MembershipStore) Resolve(ctx context.Context, userID, orgID string) (auth.Role, error) {
	var role string
	err := s.db.QueryRowContext(ctx, `
		select role from org_members where user_id=$1 and organization_id=$2
	`, userID, orgID).Scan(&role)
	if errors.Is(err, sql.ErrNoRows) {
		return "", auth.ErrNoMembership
	}
	if err != nil {
		return "", err
	}
	return auth.NormalizeRole(auth.Role(role)), nil
}

// Grant upserts a user's role within an organization.
func (s *MembershipStore) Grant(ctx context.Context, userID, orgID string, role auth.Role) error {
	_, err := s.db.ExecContext(ctx, `
		insert into org_members (user_id, organization_id, role)
		values ($1, $2, $3)
		on conflict (user_id, organization_id) do update set role = excluded.role
	`, userID, orgID, string(auth.NormalizeRole(role)))
	return err
}

// Revoke removes a user's membership.
func (s *MembershipStore) Revoke(ctx context.Context, userID, orgID string) error {
	_, err := s.db.ExecContext(ctx, `
		delete from org_members where user_id=$1 and organization_id=$2
	`, userID, orgID)
	return err
}
