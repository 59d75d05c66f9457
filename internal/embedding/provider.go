// Package embedding provides the embedding provider boundary and the
// fingerprint-keyed vector cache.
package embedding

import "context"

// Provider converts text into a fixed-length vector. Implementations are
// fallible and latency-bearing; callers bound every call with a timeout and
// map failures to models.ErrEmbeddingUnavailable.
type Provider interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}
