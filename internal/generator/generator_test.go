package generator

import (
	"context"
	"errors"
	"strings"
	"testing"

	"go.uber.org/zap"

	"github.com/metalogics/leadchat/internal/models"
)

func retrievedDocs() []models.RetrievalResult {
	return []models.RetrievalResult{
		{
			Document: models.Document{ID: "services", Title: "Our Services", Content: "Custom software development and AI consulting.", URL: "https://example.com/services"},
			Score:    0.91,
		},
	}
}

func TestGenerate_GroundedAnswer(t *testing.T) {
	mock := &MockCompletion{Reply: "We do offer AI consulting."}
	g := NewGenerator(mock, Options{MaxTokens: 500, Temperature: 0.7}, zap.NewNop())

	answer := g.Generate(context.Background(), "Do you do AI work?", nil, retrievedDocs())

	if answer.Text != "We do offer AI consulting." {
		t.Errorf("Text = %q", answer.Text)
	}
	if answer.Confidence != models.ConfidenceHigh {
		t.Errorf("Confidence = %q, want high", answer.Confidence)
	}
	if answer.Degraded {
		t.Error("answer should not be degraded")
	}
	if len(answer.RelevantDocuments) != 1 || answer.RelevantDocuments[0].ID != "services" {
		t.Errorf("RelevantDocuments = %+v", answer.RelevantDocuments)
	}
}

func TestGenerate_PromptEmbedsDocumentsVerbatim(t *testing.T) {
	mock := &MockCompletion{}
	g := NewGenerator(mock, Options{}, zap.NewNop())
	history := []models.Message{
		{Role: models.RoleUser, Content: "hi"},
		{Role: models.RoleAssistant, Content: "hello"},
	}

	g.Generate(context.Background(), "tell me more", history, retrievedDocs())

	if len(mock.LastCall) != 4 {
		t.Fatalf("got %d messages, want system + 2 context + query", len(mock.LastCall))
	}
	system := mock.LastCall[0]
	if system.Role != "system" {
		t.Errorf("first message role = %q", system.Role)
	}
	if !strings.Contains(system.Content, "Our Services: Custom software development and AI consulting.") {
		t.Errorf("system prompt missing verbatim document text:\n%s", system.Content)
	}
	if !strings.Contains(system.Content, "schedule a consultation") {
		t.Error("system prompt missing behavioral guidance")
	}
	last := mock.LastCall[len(mock.LastCall)-1]
	if last.Role != models.RoleUser || last.Content != "tell me more" {
		t.Errorf("last message = %+v", last)
	}
}

func TestGenerate_TruncatesLongDocuments(t *testing.T) {
	mock := &MockCompletion{}
	g := NewGenerator(mock, Options{MaxDocLength: 20}, zap.NewNop())
	long := strings.Repeat("x", 100)
	retrieved := []models.RetrievalResult{
		{Document: models.Document{ID: "d", Title: "Doc", Content: long}},
	}

	g.Generate(context.Background(), "q", nil, retrieved)

	system := mock.LastCall[0].Content
	if strings.Contains(system, long) {
		t.Error("document content not truncated in prompt")
	}
	if !strings.Contains(system, strings.Repeat("x", 20)+"...") {
		t.Error("truncated content missing from prompt")
	}
}

func TestGenerate_EmptyRetrievalIsLowConfidence(t *testing.T) {
	mock := &MockCompletion{Reply: "A perfectly fluent but ungrounded answer."}
	g := NewGenerator(mock, Options{}, zap.NewNop())

	answer := g.Generate(context.Background(), "off topic question", nil, nil)

	// A successful completion with no grounding is still low confidence.
	if answer.Confidence != models.ConfidenceLow {
		t.Errorf("Confidence = %q, want low", answer.Confidence)
	}
	if answer.Degraded {
		t.Error("successful ungrounded answer is not degraded")
	}
	if answer.Text == "" {
		t.Error("answer text should not be empty")
	}
}

func TestGenerate_ProviderFailureReturnsFallback(t *testing.T) {
	mock := &MockCompletion{Err: errors.New("timeout")}
	g := NewGenerator(mock, Options{}, zap.NewNop())

	// Even with high-scoring retrieval, a failed completion degrades to the
	// fixed fallback with low confidence.
	answer := g.Generate(context.Background(), "q", nil, retrievedDocs())

	if answer.Text != FallbackAnswer {
		t.Errorf("Text = %q, want fallback", answer.Text)
	}
	if answer.Confidence != models.ConfidenceLow {
		t.Errorf("Confidence = %q, want low", answer.Confidence)
	}
	if !answer.Degraded {
		t.Error("fallback answer must be marked degraded")
	}
	if len(answer.RelevantDocuments) != 0 {
		t.Errorf("RelevantDocuments = %+v, want empty", answer.RelevantDocuments)
	}
}
