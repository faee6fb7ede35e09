package chat

import (
	"errors"
	"fmt"
)

var (
	// ErrNotConfigured is returned when no upstream credential is set.
	ErrNotConfigured = errors.New("upstream credential not configured")
	// ErrRateLimited is returned when the admission window is full.
	ErrRateLimited = errors.New("too many requests")
	// ErrExhausted is returned when no model in the cascade produced a reply.
	ErrExhausted = errors.New("all models exhausted")
)

// FatalError reports a non-retryable upstream failure that ended the
// cascade. Its detail is for server-side logs only.
type FatalError struct {
	Model      string
	StatusCode int
	Text       string
}

func (e *FatalError) Error() string {
	return fmt.Sprintf("model %s failed with status %d: %s", e.Model, e.StatusCode, e.Text)
}
