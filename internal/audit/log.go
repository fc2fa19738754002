// Package audit writes structured records of security-relevant actions
// (logins, logouts, todo mutations) to the shared logger.
package audit

import (
	"context"
	"errors"
	"strings"

	"go.uber.org/zap"

	"tasknest.dev/internal/auth"
	"tasknest.dev/internal/obs"
)

type ctxKey struct{}

// WithRequestID attaches the request identifier to the context for
// audit correlation.
func WithRequestID(ctx context.Context, requestID string) context.Context {
	requestID = strings.TrimSpace(requestID)
	if requestID == "" {
		return ctx
	}
	return context.WithValue(ctx, ctxKey{}, requestID)
}

// RequestIDFromContext returns the request identifier previously
// attached with WithRequestID, or "".
func RequestIDFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	if v, ok := ctx.Value(ctxKey{}).(string); ok {
		return v
	}
	return ""
}

// LogEvent records an audit event enriched with request and actor context.
func LogEvent(ctx context.Context, event string, fields ...zap.Field) error {
	event = strings.TrimSpace(event)
	if event == "" {
		return errors.New("event name is required")
	}
	entry := append([]zap.Field{zap.String("event", event)}, fields...)
	if rid := RequestIDFromContext(ctx); rid != "" {
		entry = append(entry, zap.String("request_id", rid))
	}
	if ac, ok := auth.AuthFromContext(ctx); ok {
		entry = append(entry, zap.String("user_id", ac.UserID))
	}
	if oc, ok := auth.OrgFromContext(ctx); ok {
		entry = append(entry, zap.String("organization_id", oc.OrganizationID))
	}
	obs.Named("audit").Info("audit", entry...)
	return nil
}
