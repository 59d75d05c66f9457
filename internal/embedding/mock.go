package embedding

import (
	"context"
	"fmt"
	"hash/fnv"
	"math"
	"sync/atomic"

	"github.com/metalogics/leadchat/internal/models"
)

// MockProvider is a deterministic provider for tests. The same text always
// gets the same unit-length vector, and calls are counted so tests can assert
// cache-hit invariants.
type MockProvider struct {
	dimensions int
	calls      atomic.Int64
	fail       atomic.Bool

	// Fixed, when set, is returned for every text. Lets tests force identical
	// vectors for distinct texts.
	Fixed []float32
}

// NewMockProvider returns a deterministic provider with the given dimensions.
func NewMockProvider(dimensions int) *MockProvider {
	if dimensions <= 0 {
		dimensions = 8
	}
	return &MockProvider{dimensions: dimensions}
}

// Embed returns a deterministic embedding derived from the text hash,
// normalized to unit length.
func (m *MockProvider) Embed(ctx context.Context, text string) ([]float32, error) {
	m.calls.Add(1)
	if m.fail.Load() {
		return nil, fmt.Errorf("%w: mock failure", models.ErrEmbeddingUnavailable)
	}
	if m.Fixed != nil {
		out := make([]float32, len(m.Fixed))
		copy(out, m.Fixed)
		return out, nil
	}

	h := fnv.New64a()
	_, _ = h.Write([]byte(text))
	seed := h.Sum64()

	vec := make([]float32, m.dimensions)
	var sum float64
	for i := range vec {
		vec[i] = float32(math.Sin(float64(seed%1000)*float64(i+1)) + 0.01)
		sum += float64(vec[i]) * float64(vec[i])
	}
	if sum > 0 {
		norm := float32(1.0 / math.Sqrt(sum))
		for i := range vec {
			vec[i] *= norm
		}
	}
	return vec, nil
}

// Calls returns how many times Embed was invoked.
func (m *MockProvider) Calls() int64 {
	return m.calls.Load()
}

// SetFail makes subsequent Embed calls return ErrEmbeddingUnavailable.
func (m *MockProvider) SetFail(fail bool) {
	m.fail.Store(fail)
}
