package logging

import (
	"context"

	"github.com/google/uuid"
)

type contextKey string

// InvocationIDKey is the context key for invocation IDs.
const InvocationIDKey = contextKey("invocation-id")

// WithInvocationID stores id in ctx. An empty id is replaced by a new UUID.
func WithInvocationID(ctx context.Context, id string) context.Context {
	if id == "" {
		id = uuid.New().String()
	}
	return context.WithValue(ctx, InvocationIDKey, id)
}

// InvocationID extracts the invocation ID from the context.
// Returns empty string if not found.
func InvocationID(ctx context.Context) string {
	if id, ok := ctx.Value(InvocationIDKey).(string); ok {
		return id
	}
	return ""
}
