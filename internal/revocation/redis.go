package revocation

import (
	"context"
	"strings"

	rdb "github.com/redis/go-redis/v9"
)

const defaultKeyPrefix = "revoked:"

// Redis is the shared backend for multi-instance deployments. Keys are
// written without a TTL; trimming them after the tokens they name have
// expired is an operational concern, not this store's.
type Redis struct {
	client *rdb.Client
	prefix string
}

var _ Store = (*Redis)(nil)

// NewRedis wraps an existing client. An empty prefix falls back to "revoked:".
func NewRedis(client *rdb.Client, prefix string) *Redis {
	if strings.TrimSpace(prefix) == "" {
		prefix = defaultKeyPrefix
	}
	return &Redis{client: client, prefix: prefix}
}

func (r *Redis) Invalidate(ctx context.Context, tokenID string) error {
	tokenID = strings.TrimSpace(tokenID)
	if tokenID == "" {
		return ErrEmptyTokenID
	}
	return r.client.Set(ctx, r.prefix+tokenID, "1", 0).Err()
}

func (r *Redis) IsInvalidated(ctx context.Context, tokenID string) (bool, error) {
	tokenID = strings.TrimSpace(tokenID)
	if tokenID == "" {
		return false, nil
	}
	n, err := r.client.Exists(ctx, r.prefix+tokenID).Result()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}
