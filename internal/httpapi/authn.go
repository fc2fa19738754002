package httpapi

import (
	"net/http"

	"tasknest.dev/internal/auth"
	"tasknest.dev/internal/obs"
)

// withAuth authenticates the request and stores the caller identity in
// the context. Failures never reach the handler.
func (a *API) withAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ac, aerr := a.extractor.AuthContext(r)
		if aerr != nil {
			obs.AuthzDenied(string(aerr.Kind))
			writeAuthError(w, r, aerr)
			return
		}
		next.ServeHTTP(w, r.WithContext(auth.ContextWithAuth(r.Context(), ac)))
	})
}

// withOrg resolves the organization scope for an already-authenticated
// request. Runs strictly after withAuth.
func (a *API) withOrg(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ac, ok := auth.AuthFromContext(r.Context())
		if !ok {
			writeAuthError(w, r, auth.NewError(auth.KindMissingToken, "authentication required"))
			return
		}
		oc, aerr := a.extractor.OrgContext(r, ac)
		if aerr != nil {
			obs.AuthzDenied(string(aerr.Kind))
			writeAuthError(w, r, aerr)
			return
		}
		next.ServeHTTP(w, r.WithContext(auth.ContextWithOrg(r.Context(), oc)))
	})
}

// requirePolicy gates a route on a policy that needs no resource.
func (a *API) requirePolicy(p auth.Policy) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !a.authorize(w, r, p, nil) {
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// authorize evaluates p against the request identity plus an optional
// loaded resource, writing the denial itself. Returns true if the
// handler may proceed.
func (a *API) authorize(w http.ResponseWriter, r *http.Request, p auth.Policy, resource any) bool {
	ac, ok := auth.AuthFromContext(r.Context())
	if !ok {
		writeAuthError(w, r, auth.NewError(auth.KindMissingToken, "authentication required"))
		return false
	}
	in := auth.Input{Auth: ac, Resource: resource}
	if oc, ok := auth.OrgFromContext(r.Context()); ok {
		in.Org = &oc
	}
	dec := p.Evaluate(in)
	if !dec.Allowed {
		obs.AuthzDenied(string(dec.Err.Kind))
		writeAuthError(w, r, dec.Err)
		return false
	}
	obs.AuthzAllowed()
	return true
}
