// Package llm holds the concerns shared by every language-model backend.
package llm

import (
	"context"
	"fmt"
)

// Model is a chat model that turns a system and user prompt into text.
type Model interface {
	Complete(ctx context.Context, system, user string) (string, error)
}

// TransportError means the backend could not be reached or refused the call.
// It is fatal for the call and never retried by the extractor.
type TransportError struct {
	Backend    string
	StatusCode int
	Err        error
}

func (e *TransportError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("%s: status %d: %v", e.Backend, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("%s: %v", e.Backend, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }
