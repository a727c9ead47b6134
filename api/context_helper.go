package api

import (
	"context"
	"time"
)

// QueryTimeout bounds a single storage call made while serving a request or at startup
const QueryTimeout = 10 * time.Second

// WithQueryTimeout creates a context with query timeout
func WithQueryTimeout(parent context.Context) (context.Context, context.CancelFunc) {
	return WithTimeout(parent, QueryTimeout)
}

// WithTimeout is WithQueryTimeout with an explicit bound; a nil parent means Background
func WithTimeout(parent context.Context, d time.Duration) (context.Context, context.CancelFunc) {
	if parent == nil {
		parent = context.Background()
	}
	if d <= 0 {
		d = QueryTimeout
	}
	return context.WithTimeout(parent, d)
}
