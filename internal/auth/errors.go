package auth

import "errors"

// ErrorKind identifies why a request was refused. The set is closed:
// the HTTP boundary maps each kind to a status code and nothing below
// the boundary reinterprets a kind once it has been assigned.
type ErrorKind string

const (
	KindMissingToken           ErrorKind = "missing_token"
	KindInvalidToken           ErrorKind = "invalid_token"
	KindExpiredToken           ErrorKind = "expired_token"
	KindRevokedToken           ErrorKind = "revoked_token"
	KindMissingOrgContext      ErrorKind = "missing_org_context"
	KindInsufficientPermission ErrorKind = "insufficient_permission"
	KindCreatorMismatch        ErrorKind = "creator_mismatch"
)

// Error is a refusal carried as a value. It crosses component
// boundaries as a return, never as a panic.
type Error struct {
	Kind    ErrorKind
	Message string
}

func NewError(kind ErrorKind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	return string(e.Kind) + ": " + e.Message
}

// Unauthenticated reports whether the kind means identity could not be
// established at all, as opposed to an established identity lacking
// rights.
func (e *Error) Unauthenticated() bool {
	if e == nil {
		return false
	}
	switch e.Kind {
	case KindMissingToken, KindInvalidToken, KindExpiredToken, KindRevokedToken:
		return true
	}
	return false
}

var (
	// ErrTokenInvalid indicates the credential failed structural or signature validation.
	ErrTokenInvalid = errors.New("auth: invalid token")
	// ErrTokenExpired indicates a well-formed credential past its expiry.
	ErrTokenExpired = errors.New("auth: token expired")
	// ErrNoMembership indicates the user has no role in the organization.
	ErrNoMembership = errors.New("auth: no membership")
)
