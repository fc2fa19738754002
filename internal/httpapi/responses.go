package httpapi

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"tasknest.dev/internal/audit"
	"tasknest.dev/internal/auth"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v == nil {
		return
	}
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, r *http.Request, status int, code, message string) {
	writeJSON(w, status, map[string]any{
		"error": map[string]any{
			"code":    code,
			"message": message,
		},
		"request_id": audit.RequestIDFromContext(r.Context()),
	})
}

// writeAuthError maps the closed error taxonomy onto the wire. Token
// problems are 401, authorization problems are 403.
func writeAuthError(w http.ResponseWriter, r *http.Request, err *auth.Error) {
	writeJSON(w, statusForKind(err.Kind), map[string]any{
		"error": map[string]any{
			"kind":    string(err.Kind),
			"message": err.Message,
		},
		"request_id": audit.RequestIDFromContext(r.Context()),
	})
}

func statusForKind(kind auth.ErrorKind) int {
	switch kind {
	case auth.KindMissingToken, auth.KindInvalidToken, auth.KindExpiredToken, auth.KindRevokedToken:
		return http.StatusUnauthorized
	case auth.KindMissingOrgContext, auth.KindInsufficientPermission, auth.KindCreatorMismatch:
		return http.StatusForbidden
	default:
		return http.StatusForbidden
	}
}

func decodeJSON(r *http.Request, dst any) error {
	defer func() { _, _ = io.Copy(io.Discard, r.Body) }()
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			return fmt.Errorf("body exceeds %d bytes", maxErr.Limit)
		}
		return fmt.Errorf("invalid json: %w", err)
	}
	return nil
}
