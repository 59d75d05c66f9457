package generator

import (
	"context"
	"fmt"
	"sync"

	"github.com/metalogics/leadchat/internal/models"
)

// MockCompletion is a scriptable CompletionProvider for tests. It records the
// messages it was called with.
type MockCompletion struct {
	mu       sync.Mutex
	Reply    string
	Err      error
	LastCall []models.Message
	Calls    int
}

// Complete returns the scripted reply or error.
func (m *MockCompletion) Complete(ctx context.Context, messages []models.Message, maxTokens int, temperature float32) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Calls++
	m.LastCall = messages
	if m.Err != nil {
		return "", fmt.Errorf("%w: %v", models.ErrCompletionUnavailable, m.Err)
	}
	if m.Reply == "" {
		return "mock answer", nil
	}
	return m.Reply, nil
}
