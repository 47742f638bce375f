package llm

import (
	"context"
	"errors"
	"fmt"
)

// Completer returns one JSON completion for a system instruction and a
// user message.
type Completer interface {
	Complete(ctx context.Context, system, user string) (string, error)
}

var (
	// ErrTimeout is returned when the provider does not answer in time.
	ErrTimeout = errors.New("llm request timed out")
	// ErrEmptyCompletion is returned when the provider answers without content.
	ErrEmptyCompletion = errors.New("llm returned an empty completion")
	// ErrNotConfigured is returned by a nil or credential-less client.
	ErrNotConfigured = errors.New("llm client is not configured")
)

// StatusError reports a non-2xx provider response.
type StatusError struct {
	Status  int
	Message string
}

func (e *StatusError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("llm http status %d", e.Status)
	}
	return fmt.Sprintf("llm http status %d: %s", e.Status, e.Message)
}
