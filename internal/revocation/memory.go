package revocation

import (
	"context"
	"strings"

	gocache "github.com/patrickmn/go-cache"
)

// Memory is the process-local backend. Both operations are single
// atomic calls into the underlying cache, so a checker racing a
// revoker either sees the entry or runs entirely before the write;
// there is no observable half-written state.
type Memory struct {
	c *gocache.Cache
}

var _ Store = (*Memory)(nil)

// NewMemory constructs an empty in-process store. Entries never expire
// and no janitor runs: the set only grows until the process exits.
func NewMemory() *Memory {
	return &Memory{c: gocache.New(gocache.NoExpiration, 0)}
}

func (m *Memory) Invalidate(_ context.Context, tokenID string) error {
	tokenID = strings.TrimSpace(tokenID)
	if tokenID == "" {
		return ErrEmptyTokenID
	}
	m.c.Set(tokenID, struct{}{}, gocache.NoExpiration)
	return nil
}

func (m *Memory) IsInvalidated(_ context.Context, tokenID string) (bool, error) {
	tokenID = strings.TrimSpace(tokenID)
	if tokenID == "" {
		return false, nil
	}
	_, revoked := m.c.Get(tokenID)
	return revoked, nil
}
