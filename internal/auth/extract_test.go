package auth

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"

	"tasknest.dev/internal/revocation"
)

type fakeMemberships struct {
	roles map[string]Role // key: userID + "/" + orgID
	calls int
}

func (f *fakeMemberships) Resolve(_ context.Context, userID, orgID string) (Role, error) {
	f.calls++
	role, ok := f.roles[userID+"/"+orgID]
	if !ok {
		return "", ErrNoMembership
	}
	return role, nil
}

type failingChecker struct{}

func (failingChecker) IsInvalidated(context.Context, string) (bool, error) {
	return false, context.DeadlineExceeded
}

func (failingChecker) Invalidate(context.Context, string) error {
	return context.DeadlineExceeded
}

func newTestExtractor(t *testing.T, svc *TokenService, store revocation.Store, members *fakeMemberships) *Extractor {
	t.Helper()
	if store == nil {
		store = revocation.NewMemory()
	}
	var resolver MembershipResolver
	if members != nil {
		resolver = members
	}
	e, err := NewExtractor(svc, store, resolver)
	if err != nil {
		t.Fatalf("NewExtractor: %v", err)
	}
	return e
}

func bearerRequest(token string) *http.Request {
	r := httptest.NewRequest(http.MethodGet, "/v1/todos", nil)
	if token != "" {
		r.Header.Set("Authorization", "Bearer "+token)
	}
	return r
}

func TestAuthContextMissingToken(t *testing.T) {
	e := newTestExtractor(t, newTestTokenService(t), nil, nil)

	tests := []struct {
		name   string
		header string
	}{
		{"no header", ""},
		{"blank header", "   "},
		{"wrong scheme", "Basic dXNlcjpwYXNz"},
		{"bearer with no token", "Bearer   "},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest(http.MethodGet, "/", nil)
			if tt.header != "" {
				r.Header.Set("Authorization", tt.header)
			}
			_, aerr := e.AuthContext(r)
			if aerr == nil || aerr.Kind != KindMissingToken {
				t.Fatalf("expected missing_token, got %v", aerr)
			}
		})
	}
}

func TestAuthContextInvalidAndExpired(t *testing.T) {
	current := time.Now()
	svc := newTestTokenService(t, WithClock(func() time.Time { return current }))
	e := newTestExtractor(t, svc, nil, nil)

	_, aerr := e.AuthContext(bearerRequest("garbage"))
	if aerr == nil || aerr.Kind != KindInvalidToken {
		t.Fatalf("expected invalid_token, got %v", aerr)
	}

	token, _, err := svc.Generate("user-1", []Role{RoleMember})
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	current = current.Add(time.Hour)
	_, aerr = e.AuthContext(bearerRequest(token))
	if aerr == nil || aerr.Kind != KindExpiredToken {
		t.Fatalf("expected expired_token, got %v", aerr)
	}
}

func TestAuthContextSuccess(t *testing.T) {
	svc := newTestTokenService(t)
	e := newTestExtractor(t, svc, nil, nil)

	token, _, err := svc.Generate("user-1", []Role{"Member", "member"})
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	ac, aerr := e.AuthContext(bearerRequest(token))
	if aerr != nil {
		t.Fatalf("AuthContext: %v", aerr)
	}
	if ac.UserID != "user-1" {
		t.Fatalf("unexpected user id %q", ac.UserID)
	}
	if ac.Token != token {
		t.Fatalf("raw token not carried")
	}
	if ac.TokenID == "" || ac.TokenID == token {
		t.Fatalf("expected jti as token id, got %q", ac.TokenID)
	}
	if len(ac.Roles) != 1 || ac.Roles[0] != RoleMember {
		t.Fatalf("unexpected roles %v", ac.Roles)
	}
}

// A structurally valid, unexpired token that has been invalidated must
// never produce a trusted AuthContext.
func TestRevocationWinsOverValidity(t *testing.T) {
	svc := newTestTokenService(t)
	store := revocation.NewMemory()
	e := newTestExtractor(t, svc, store, nil)

	token, _, err := svc.Generate("user-1", []Role{RoleMember})
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	ac, aerr := e.AuthContext(bearerRequest(token))
	if aerr != nil {
		t.Fatalf("pre-revocation extraction failed: %v", aerr)
	}
	if err := store.Invalidate(context.Background(), ac.TokenID); err != nil {
		t.Fatalf("Invalidate: %v", err)
	}

	_, aerr = e.AuthContext(bearerRequest(token))
	if aerr == nil || aerr.Kind != KindRevokedToken {
		t.Fatalf("expected revoked_token, got %v", aerr)
	}
}

func TestRevocationCheckFailureFailsClosed(t *testing.T) {
	svc := newTestTokenService(t)
	e := newTestExtractor(t, svc, failingChecker{}, nil)

	token, _, err := svc.Generate("user-1", nil)
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	_, aerr := e.AuthContext(bearerRequest(token))
	if aerr == nil || aerr.Kind != KindRevokedToken {
		t.Fatalf("unconfirmed revocation status must deny, got %v", aerr)
	}
}

func TestOrgContextPrecedence(t *testing.T) {
	svc := newTestTokenService(t)
	members := &fakeMemberships{roles: map[string]Role{
		"user-1/org-route":  RoleAdmin,
		"user-1/org-header": RoleMember,
		"user-1/org-body":   RoleViewer,
	}}
	e := newTestExtractor(t, svc, nil, members)
	ac := AuthContext{UserID: "user-1"}

	withRouteParam := func(r *http.Request, orgID string) *http.Request {
		rctx := chi.NewRouteContext()
		rctx.URLParams.Add("orgID", orgID)
		return r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rctx))
	}

	t.Run("route param beats header and body", func(t *testing.T) {
		r := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"organization_id":"org-body"}`))
		r.Header.Set("X-Org-ID", "org-header")
		r = withRouteParam(r, "org-route")
		oc, oerr := e.OrgContext(r, ac)
		if oerr != nil {
			t.Fatalf("OrgContext: %v", oerr)
		}
		if oc.OrganizationID != "org-route" || oc.Role != RoleAdmin {
			t.Fatalf("unexpected org context %+v", oc)
		}
	})

	t.Run("header beats body", func(t *testing.T) {
		r := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"organization_id":"org-body"}`))
		r.Header.Set("X-Org-ID", "org-header")
		oc, oerr := e.OrgContext(r, ac)
		if oerr != nil {
			t.Fatalf("OrgContext: %v", oerr)
		}
		if oc.OrganizationID != "org-header" || oc.Role != RoleMember {
			t.Fatalf("unexpected org context %+v", oc)
		}
	})

	t.Run("body as last resort", func(t *testing.T) {
		r := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"organization_id":"org-body"}`))
		oc, oerr := e.OrgContext(r, ac)
		if oerr != nil {
			t.Fatalf("OrgContext: %v", oerr)
		}
		if oc.OrganizationID != "org-body" || oc.Role != RoleViewer {
			t.Fatalf("unexpected org context %+v", oc)
		}
	})

	t.Run("no identifier anywhere", func(t *testing.T) {
		r := httptest.NewRequest(http.MethodGet, "/", nil)
		_, oerr := e.OrgContext(r, ac)
		if oerr == nil || oerr.Kind != KindMissingOrgContext {
			t.Fatalf("expected missing_org_context, got %v", oerr)
		}
	})

	t.Run("no membership", func(t *testing.T) {
		r := httptest.NewRequest(http.MethodGet, "/", nil)
		r.Header.Set("X-Org-ID", "org-unknown")
		_, oerr := e.OrgContext(r, ac)
		if oerr == nil || oerr.Kind != KindMissingOrgContext {
			t.Fatalf("expected missing_org_context, got %v", oerr)
		}
	})
}

func TestOrgContextRestoresBody(t *testing.T) {
	svc := newTestTokenService(t)
	members := &fakeMemberships{roles: map[string]Role{"user-1/org-body": RoleMember}}
	e := newTestExtractor(t, svc, nil, members)

	body := `{"organization_id":"org-body","title":"write spec"}`
	r := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body))
	if _, oerr := e.OrgContext(r, AuthContext{UserID: "user-1"}); oerr != nil {
		t.Fatalf("OrgContext: %v", oerr)
	}

	data := make([]byte, len(body))
	n, _ := r.Body.Read(data)
	if string(data[:n]) != body {
		t.Fatalf("body was consumed by the extractor: %q", string(data[:n]))
	}
}

// Failed auth extraction must short-circuit: membership resolution may
// depend on the authenticated identity and must not run without one.
func TestAuthAndOrgContextShortCircuits(t *testing.T) {
	svc := newTestTokenService(t)
	members := &fakeMemberships{roles: map[string]Role{"user-1/org-1": RoleMember}}
	e := newTestExtractor(t, svc, nil, members)

	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r.Header.Set("X-Org-ID", "org-1")
	_, _, err := e.AuthAndOrgContext(r)
	if err == nil || err.Kind != KindMissingToken {
		t.Fatalf("expected missing_token, got %v", err)
	}
	if members.calls != 0 {
		t.Fatalf("membership resolver must not run after failed auth extraction, ran %d times", members.calls)
	}

	token, _, gerr := svc.Generate("user-1", []Role{RoleMember})
	if gerr != nil {
		t.Fatalf("Generate: %v", gerr)
	}
	r = bearerRequest(token)
	r.Header.Set("X-Org-ID", "org-1")
	ac, oc, err := e.AuthAndOrgContext(r)
	if err != nil {
		t.Fatalf("AuthAndOrgContext: %v", err)
	}
	if ac.UserID != "user-1" || oc.OrganizationID != "org-1" || oc.Role != RoleMember {
		t.Fatalf("unexpected contexts %+v %+v", ac, oc)
	}
	if members.calls != 1 {
		t.Fatalf("expected exactly one membership lookup, got %d", members.calls)
	}
}

func TestContextRoundTrip(t *testing.T) {
	ctx := context.Background()
	if _, ok := AuthFromContext(ctx); ok {
		t.Fatalf("empty context must not carry an identity")
	}

	ac := AuthContext{UserID: "u1", Roles: []Role{RoleMember}}
	oc := OrgContext{OrganizationID: "org-1", Role: RoleAdmin}
	ctx = ContextWithAuth(ctx, ac)
	ctx = ContextWithOrg(ctx, oc)

	gotAuth, ok := AuthFromContext(ctx)
	if !ok || gotAuth.UserID != "u1" {
		t.Fatalf("auth context not preserved: %+v ok=%v", gotAuth, ok)
	}
	gotOrg, ok := OrgFromContext(ctx)
	if !ok || gotOrg.OrganizationID != "org-1" || gotOrg.Role != RoleAdmin {
		t.Fatalf("org context not preserved: %+v ok=%v", gotOrg, ok)
	}
}
