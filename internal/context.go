package internal

import (
	"context"
	"time"
)

type ctxKey string

const ContextPrincipalKey ctxKey = "principalID"

func PrincipalIDFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	if id, ok := ctx.Value(ContextPrincipalKey).(string); ok {
		return id
	}
	return ""
}

func ContextWithPrincipalID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, ContextPrincipalKey, id)
}

// WithTimeout returns a context with timeout, defaulting to 5 seconds when
// the duration is zero or negative.
func WithTimeout(ctx context.Context, duration time.Duration) (context.Context, context.CancelFunc) {
	if duration <= 0 {
		duration = 5 * time.Second
	}
	return context.WithTimeout(ctx, duration)
}
