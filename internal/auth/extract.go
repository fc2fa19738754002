package auth

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
)

const (
	authorizationHeader = "Authorization"
	bearerScheme        = "Bearer "
	orgHeader           = "X-Org-ID"
	orgRouteParam       = "orgID"

	// orgBodyPeekLimit caps how much of the body the extractor reads
	// when hunting for an organization id.
	orgBodyPeekLimit = 1 << 20
)

// TokenVerifier is the external credential primitive: it vouches for
// signature and expiry, nothing more.
type TokenVerifier interface {
	Verify(token string) (*Claims, error)
}

// RevocationChecker reports whether a credential identifier has been
// explicitly invalidated.
type RevocationChecker interface {
	IsInvalidated(ctx context.Context, tokenID string) (bool, error)
}

// MembershipResolver resolves the actor's role inside an organization.
// Implementations return ErrNoMembership when the actor has no standing there.
type MembershipResolver interface {
	Resolve(ctx context.Context, userID, orgID string) (Role, error)
}

// Extractor turns an inbound request into typed auth and org contexts.
// All failures come back as *Error with a kind from the closed set.
type Extractor struct {
	verifier    TokenVerifier
	revocations RevocationChecker
	memberships MembershipResolver
}

// NewExtractor wires the extractor's collaborators. The membership
// resolver may be nil when the service runs without org-scoped routes.
func NewExtractor(verifier TokenVerifier, revocations RevocationChecker, memberships MembershipResolver) (*Extractor, error) {
	if verifier == nil {
		return nil, errors.New("token verifier is required")
	}
	if revocations == nil {
		return nil, errors.New("revocation checker is required")
	}
	return &Extractor{verifier: verifier, revocations: revocations, memberships: memberships}, nil
}

// AuthContext locates the bearer credential, verifies it, consults the
// revocation store, and produces the immutable per-request identity.
// A revoked credential is refused even when it is structurally valid
// and unexpired: revocation always wins.
func (e *Extractor) AuthContext(r *http.Request) (AuthContext, *Error) {
	token, ok := bearerToken(r.Header.Get(authorizationHeader))
	if !ok {
		return AuthContext{}, NewError(KindMissingToken, "missing bearer token")
	}
	claims, err := e.verifier.Verify(token)
	if err != nil {
		if errors.Is(err, ErrTokenExpired) {
			return AuthContext{}, NewError(KindExpiredToken, "token expired")
		}
		return AuthContext{}, NewError(KindInvalidToken, "invalid token")
	}
	tokenID := strings.TrimSpace(claims.ID)
	if tokenID == "" {
		tokenID = token
	}
	revoked, err := e.revocations.IsInvalidated(r.Context(), tokenID)
	if err != nil {
		// Fail closed: a credential whose revocation status cannot be
		// confirmed must not be trusted.
		return AuthContext{}, NewError(KindRevokedToken, "revocation status unavailable")
	}
	if revoked {
		return AuthContext{}, NewError(KindRevokedToken, "token has been revoked")
	}
	return AuthContext{
		UserID:  claims.Subject,
		Token:   token,
		TokenID: tokenID,
		Roles:   claims.ClaimRoles(),
	}, nil
}

// OrgContext locates the organization identifier (route parameter,
// then header, then body, in that order) and resolves the actor's
// membership. There is no fallback to a default organization.
func (e *Extractor) OrgContext(r *http.Request, ac AuthContext) (OrgContext, *Error) {
	orgID := orgIDFromRequest(r)
	if orgID == "" {
		return OrgContext{}, NewError(KindMissingOrgContext, "no organization identifier in request")
	}
	if e.memberships == nil {
		return OrgContext{}, NewError(KindMissingOrgContext, "membership resolution is not configured")
	}
	role, err := e.memberships.Resolve(r.Context(), ac.UserID, orgID)
	if err != nil {
		if errors.Is(err, ErrNoMembership) {
			return OrgContext{}, NewError(KindMissingOrgContext, "no membership in organization "+orgID)
		}
		return OrgContext{}, NewError(KindMissingOrgContext, "membership lookup failed")
	}
	return OrgContext{OrganizationID: orgID, Role: NormalizeRole(role)}, nil
}

// AuthAndOrgContext runs auth extraction and then org extraction. The
// first failure short-circuits: membership resolution never runs for a
// request whose identity could not be established.
func (e *Extractor) AuthAndOrgContext(r *http.Request) (AuthContext, OrgContext, *Error) {
	ac, aerr := e.AuthContext(r)
	if aerr != nil {
		return AuthContext{}, OrgContext{}, aerr
	}
	oc, oerr := e.OrgContext(r, ac)
	if oerr != nil {
		return AuthContext{}, OrgContext{}, oerr
	}
	return ac, oc, nil
}

func bearerToken(header string) (string, bool) {
	header = strings.TrimSpace(header)
	if header == "" {
		return "", false
	}
	if !strings.HasPrefix(strings.ToLower(header), strings.ToLower(bearerScheme)) {
		return "", false
	}
	token := strings.TrimSpace(header[len(bearerScheme):])
	if token == "" {
		return "", false
	}
	return token, true
}

func orgIDFromRequest(r *http.Request) string {
	if id := strings.TrimSpace(chi.URLParam(r, orgRouteParam)); id != "" {
		return id
	}
	if id := strings.TrimSpace(r.Header.Get(orgHeader)); id != "" {
		return id
	}
	return orgIDFromBody(r)
}

// orgIDFromBody peeks at a JSON body for an organization_id field and
// restores the body so downstream handlers can read it again.
func orgIDFromBody(r *http.Request) string {
	if r.Body == nil || r.Body == http.NoBody {
		return ""
	}
	data, err := io.ReadAll(io.LimitReader(r.Body, orgBodyPeekLimit))
	_ = r.Body.Close()
	r.Body = io.NopCloser(bytes.NewReader(data))
	if err != nil || len(data) == 0 {
		return ""
	}
	var probe struct {
		OrganizationID string `json:"organization_id"`
	}
	if err := json.Unmarshal(data, &probe); err != nil {
		return ""
	}
	return strings.TrimSpace(probe.OrganizationID)
}
