package utils

import (
	"context"
	"time"
)

// DefaultOperationTimeout bounds an engine operation when no timeout is configured
const DefaultOperationTimeout = 10 * time.Second

// OperationContext returns a context bounded by timeout.
// A nil parent falls back to context.Background; a non-positive timeout
// falls back to DefaultOperationTimeout.
func OperationContext(parent context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	if parent == nil {
		parent = context.Background()
	}
	if timeout <= 0 {
		timeout = DefaultOperationTimeout
	}
	return context.WithTimeout(parent, timeout)
}
