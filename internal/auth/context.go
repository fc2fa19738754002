package auth

import "context"

// AuthContext is the verified identity for one request. It is built
// once by the extractor and never mutated afterwards.
type AuthContext struct {
	// UserID is the credential subject.
	UserID string
	// Token is the raw bearer credential as presented.
	Token string
	// TokenID is the credential identifier (jti) used as the
	// revocation key. Falls back to the raw token when the
	// credential carries no identifier.
	TokenID string
	// Roles are the global roles carried by the credential.
	Roles []Role
}

// HasRole reports whether the context carries the given global role.
func (a AuthContext) HasRole(role Role) bool {
	role = NormalizeRole(role)
	for _, r := range a.Roles {
		if r == role {
			return true
		}
	}
	return false
}

// OrgContext is the actor's standing within one organization, distinct
// from any global role.
type OrgContext struct {
	OrganizationID string
	Role           Role
}

type authContextKey struct{}
type orgContextKey struct{}

// ContextWithAuth attaches the authenticated identity to the context.
func ContextWithAuth(ctx context.Context, ac AuthContext) context.Context {
	return context.WithValue(ctx, authContextKey{}, &ac)
}

// AuthFromContext extracts the authenticated identity from the context.
func AuthFromContext(ctx context.Context) (AuthContext, bool) {
	if ctx == nil {
		return AuthContext{}, false
	}
	v, ok := ctx.Value(authContextKey{}).(*AuthContext)
	if !ok || v == nil {
		return AuthContext{}, false
	}
	return *v, true
}

// ContextWithOrg attaches the resolved organization standing to the context.
func ContextWithOrg(ctx context.Context, oc OrgContext) context.Context {
	return context.WithValue(ctx, orgContextKey{}, &oc)
}

// OrgFromContext extracts the organization standing from the context.
func OrgFromContext(ctx context.Context) (OrgContext, bool) {
	if ctx == nil {
		return OrgContext{}, false
	}
	v, ok := ctx.Value(orgContextKey{}).(*OrgContext)
	if !ok || v == nil {
		return OrgContext{}, false
	}
	return *v, true
}
