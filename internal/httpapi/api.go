// Package httpapi is the HTTP boundary. It owns routing, the
// middleware chain, and the only place where authorization error kinds
// become status codes.
package httpapi

import (
	"context"
	"database/sql"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"tasknest.dev/internal/auth"
	"tasknest.dev/internal/obs"
	"tasknest.dev/internal/revocation"
	"tasknest.dev/internal/todo"
	"tasknest.dev/internal/user"
)

// ReadyProbe checks readiness dependencies (database ping).
type ReadyProbe struct {
	DB *sql.DB
}

func (rp ReadyProbe) Check(ctx context.Context) error {
	if rp.DB == nil {
		return nil
	}
	return rp.DB.PingContext(ctx)
}

// Deps carries everything the API needs from the composition root.
type Deps struct {
	Extractor   *auth.Extractor
	Tokens      *auth.TokenService
	Revocations revocation.Store
	Users       *user.Service
	Todos       *todo.Service
	ReadyProbe  ReadyProbe
	Version     string

	CORSAllowedOrigins []string
	MaxBodyBytes       int64
	RateLimitPerSec    int
	RateLimitBurst     int
}

// API wires handlers to routes.
type API struct {
	mux         *chi.Mux
	extractor   *auth.Extractor
	tokens      *auth.TokenService
	revocations revocation.Store
	users       *user.Service
	todos       *todo.Service
	readyProbe  ReadyProbe
	version     string
}

// New builds the router. Route policies are fixed values shared by all
// requests; resource-bound checks (update/delete) run inside the
// handlers once the resource is loaded.
func New(deps Deps) (*API, error) {
	if deps.Extractor == nil || deps.Tokens == nil || deps.Revocations == nil {
		return nil, errors.New("httpapi: extractor, tokens and revocations are required")
	}
	if deps.Users == nil || deps.Todos == nil {
		return nil, errors.New("httpapi: user and todo services are required")
	}
	a := &API{
		mux:         chi.NewRouter(),
		extractor:   deps.Extractor,
		tokens:      deps.Tokens,
		revocations: deps.Revocations,
		users:       deps.Users,
		todos:       deps.Todos,
		readyProbe:  deps.ReadyProbe,
		version:     deps.Version,
	}

	maxBody := deps.MaxBodyBytes
	if maxBody <= 0 {
		maxBody = 1 << 20
	}
	perSec, burst := deps.RateLimitPerSec, deps.RateLimitBurst
	if perSec <= 0 {
		perSec = 20
	}
	if burst <= 0 {
		burst = 2 * perSec
	}

	r := a.mux
	r.Use(RequestID)
	r.Use(Logging)
	r.Use(SecurityHeaders)
	r.Use(CORS(deps.CORSAllowedOrigins))
	r.Use(MaxBodyBytes(maxBody))
	r.Use(RateLimit(burst, perSec))

	r.Get("/healthz", a.handleHealthz)
	r.Get("/readyz", a.handleReady)
	r.Method(http.MethodGet, "/metrics", obs.Handler())

	r.Post("/v1/auth/login", a.handleLogin)

	r.Group(func(pr chi.Router) {
		pr.Use(a.withAuth)
		pr.Post("/v1/auth/logout", a.handleLogout)

		pr.Route("/v1/orgs/{orgID}", func(or chi.Router) {
			or.Use(a.withOrg)
			or.With(a.requirePolicy(auth.RequirePermission(auth.PermTodoRead))).
				Get("/todos", a.handleListTodos)
			or.With(a.requirePolicy(auth.RequirePermission(auth.PermTodoCreate))).
				Post("/todos", a.handleCreateTodo)
			or.With(a.requirePolicy(auth.RequirePermission(auth.PermTodoRead))).
				Get("/todos/{todoID}", a.handleGetTodo)
			or.Put("/todos/{todoID}", a.handleUpdateTodo)
			or.Delete("/todos/{todoID}", a.handleDeleteTodo)
		})
	})

	return a, nil
}

// Handler returns the full handler chain, metrics outermost.
func (a *API) Handler() http.Handler {
	return obs.Instrument(a.mux)
}

func (a *API) handleHealthz(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":  "ok",
		"service": "tasknest-api",
		"version": a.version,
	})
}

func (a *API) handleReady(w http.ResponseWriter, r *http.Request) {
	if err := a.readyProbe.Check(r.Context()); err != nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]any{
			"status": "not_ready",
			"error":  err.Error(),
		})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"status": "ready"})
}
