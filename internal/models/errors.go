package models

import (
	"errors"
	"fmt"
)

// Failure kinds for the retrieval and generation pipeline. Provider failures
// are absorbed into degraded-but-valid answers by the callers; only
// validation errors surface to the HTTP layer.
var (
	// ErrCorpusUnavailable means no knowledge source was reachable. Callers
	// fall back to the built-in corpus, so this is never fatal.
	ErrCorpusUnavailable = errors.New("knowledge corpus unavailable")

	// ErrEmbeddingUnavailable means the embedding provider failed or timed
	// out. Callers treat this as "no relevant documents".
	ErrEmbeddingUnavailable = errors.New("embedding provider unavailable")

	// ErrCompletionUnavailable means the completion provider failed or timed
	// out. Callers return the fixed fallback answer.
	ErrCompletionUnavailable = errors.New("completion provider unavailable")
)

// ValidationError reports malformed caller input, rejected before any
// provider call is made.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// AsValidationError returns the wrapped *ValidationError, if any.
func AsValidationError(err error) (*ValidationError, bool) {
	var ve *ValidationError
	if errors.As(err, &ve) {
		return ve, true
	}
	return nil, false
}
