package ctxutil

import (
	"context"

	"github.com/google/uuid"
)

type ctxKey string

const (
	contributorIDKey ctxKey = "contributor_id"
	requestIDKey     ctxKey = "request_id"
)

// WithContributorID stores the acting contributor's ID in the context.
func WithContributorID(ctx context.Context, id uuid.UUID) context.Context {
	return context.WithValue(ctx, contributorIDKey, id)
}

// ContributorIDFromCtx extracts the acting contributor's ID from the context.
// Returns uuid.Nil and false if the value is missing, nil UUID, or wrong type.
func ContributorIDFromCtx(ctx context.Context) (uuid.UUID, bool) {
	id, ok := ctx.Value(contributorIDKey).(uuid.UUID)
	if !ok || id == uuid.Nil {
		return uuid.Nil, false
	}
	return id, true
}

// WithRequestID stores the request ID in the context.
func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDKey, id)
}

// RequestIDFromCtx extracts the request ID from the context.
// Returns an empty string if absent.
func RequestIDFromCtx(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey).(string)
	return id
}
