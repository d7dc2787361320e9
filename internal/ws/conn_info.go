package ws

import (
	"context"
	"time"
)

// ConnInfo is per-connection metadata captured at handshake time, used
// for audit events and error reporting.
type ConnInfo struct {
	ConnID      string
	UserID      string
	IP          string
	RequestID   string
	TraceID     string
	ConnectedAt time.Time
}

type identityKey struct{}

// WithIdentity attaches the handshake-authenticated user id to the
// connection's context.
func WithIdentity(ctx context.Context, userID string) context.Context {
	return context.WithValue(ctx, identityKey{}, userID)
}

// IdentityFromContext returns the handshake-authenticated user id, or
// empty when the context carries none.
func IdentityFromContext(ctx context.Context) string {
	userID, _ := ctx.Value(identityKey{}).(string)
	return userID
}
