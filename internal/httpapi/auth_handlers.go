package httpapi

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"tasknest.dev/internal/audit"
	"tasknest.dev/internal/auth"
	"tasknest.dev/internal/obs"
	"tasknest.dev/internal/user"
)

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginResponse struct {
	AccessToken string    `json:"access_token"`
	TokenType   string    `json:"token_type"`
	ExpiresAt   time.Time `json:"expires_at"`
}

func (a *API) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}
	req.Email = strings.TrimSpace(req.Email)
	if req.Email == "" || req.Password == "" {
		writeError(w, r, http.StatusBadRequest, "invalid_request", "email and password are required")
		return
	}

	u, err := a.users.Authenticate(r.Context(), req.Email, req.Password)
	if err != nil {
		if errors.Is(err, user.ErrBadCredentials) {
			writeError(w, r, http.StatusUnauthorized, "bad_credentials", "invalid email or password")
			return
		}
		writeError(w, r, http.StatusInternalServerError, "internal", "could not authenticate")
		return
	}

	token, expiresAt, err := a.tokens.Generate(u.ID, u.Roles)
	if err != nil {
		writeError(w, r, http.StatusInternalServerError, "internal", "could not issue token")
		return
	}

	_ = audit.LogEvent(r.Context(), "auth.login", zap.String("user_id", u.ID))
	writeJSON(w, http.StatusOK, loginResponse{
		AccessToken: token,
		TokenType:   "Bearer",
		ExpiresAt:   expiresAt,
	})
}

// handleLogout invalidates the presented token. A store failure leaves
// the token live, so it is reported as an error rather than swallowed.
func (a *API) handleLogout(w http.ResponseWriter, r *http.Request) {
	ac, ok := auth.AuthFromContext(r.Context())
	if !ok {
		writeAuthError(w, r, auth.NewError(auth.KindMissingToken, "authentication required"))
		return
	}
	if err := a.revocations.Invalidate(r.Context(), ac.TokenID); err != nil {
		writeError(w, r, http.StatusInternalServerError, "revocation_failed", "could not revoke token")
		return
	}
	obs.TokenRevoked()
	_ = audit.LogEvent(r.Context(), "auth.logout")
	w.WriteHeader(http.StatusNoContent)
}
