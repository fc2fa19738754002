// Package revocation tracks credentials that were explicitly
// invalidated (logout) before their natural expiry. Expiry itself is
// the token verifier's job; revocation is orthogonal and stricter.
//
// Two backends exist: an in-process memory store (the default) and a
// Redis store for deployments that need revocations visible across
// service instances. With the memory store a revocation recorded by
// one instance is invisible to its peers.
package revocation

import (
	"context"
	"errors"
)

// Store is a monotonic set of revoked token identifiers. Entries are
// never removed for the store's lifetime; a fresh store starts empty.
type Store interface {
	// Invalidate records the identifier as revoked. Idempotent:
	// revoking an already-revoked identifier succeeds and changes
	// nothing. A non-nil error means the write did NOT take effect
	// and the caller must not report the credential as revoked.
	Invalidate(ctx context.Context, tokenID string) error

	// IsInvalidated reports whether the identifier has been revoked.
	// Identifiers never seen report false.
	IsInvalidated(ctx context.Context, tokenID string) (bool, error)
}

// ErrEmptyTokenID is returned when an operation is given a blank identifier.
var ErrEmptyTokenID = errors.New("revocation: empty token id")
