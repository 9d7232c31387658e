package api

import (
	"context"
	"time"
)

// QueryTimeout bounds a single store round trip
const QueryTimeout = 10 * time.Second

// WithQueryTimeout derives a store context from the request context.
// A nil parent is treated as context.Background().
func WithQueryTimeout(parent context.Context) (context.Context, context.CancelFunc) {
	if parent == nil {
		parent = context.Background()
	}
	return context.WithTimeout(parent, QueryTimeout)
}

// WithDetachedTimeout keeps the values of parent (request id, session) but
// not its cancellation, so work such as archiving an export finishes even
// when the client has already gone away.
func WithDetachedTimeout(parent context.Context) (context.Context, context.CancelFunc) {
	if parent == nil {
		parent = context.Background()
	}
	return context.WithTimeout(context.WithoutCancel(parent), QueryTimeout)
}
