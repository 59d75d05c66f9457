package generator

import (
	"context"

	"go.uber.org/zap"

	"github.com/metalogics/leadchat/internal/models"
)

// FallbackAnswer is the fixed apologetic reply returned when the completion
// provider fails. The Degraded flag on the answer marks it recognizably.
const FallbackAnswer = "I apologize, but I'm experiencing technical difficulties. Please try again or contact our support team directly."

// Options holds the completion tunables. Temperature is the same for every
// call within a deployment so behavior stays testable.
type Options struct {
	MaxTokens    int
	Temperature  float32
	MaxDocLength int
}

// Generator produces grounded answers from retrieved documents and recent
// conversation context.
type Generator struct {
	provider CompletionProvider
	opts     Options
	logger   *zap.Logger
}

// NewGenerator creates a generator using the given provider and options.
func NewGenerator(provider CompletionProvider, opts Options, logger *zap.Logger) *Generator {
	if opts.MaxTokens <= 0 {
		opts.MaxTokens = 500
	}
	if opts.MaxDocLength <= 0 {
		opts.MaxDocLength = 1500
	}
	return &Generator{provider: provider, opts: opts, logger: logger}
}

// Generate obtains an answer grounded in the retrieved documents. Provider
// failures are absorbed: the caller always gets a usable answer, degraded
// with the fixed fallback text when the provider is down. Confidence derives
// solely from whether retrieval produced any documents, never from the
// generated text.
func (g *Generator) Generate(ctx context.Context, query string, history []models.Message, retrieved []models.RetrievalResult) models.GeneratedAnswer {
	confidence := models.ConfidenceLow
	if len(retrieved) > 0 {
		confidence = models.ConfidenceHigh
	}

	system := buildSystemPrompt(retrieved, g.opts.MaxDocLength)
	messages := buildMessages(system, history, query)

	text, err := g.provider.Complete(ctx, messages, g.opts.MaxTokens, g.opts.Temperature)
	if err != nil {
		g.logger.Error("completion failed, returning fallback answer",
			zap.String("query", query),
			zap.String("provider", "completion"),
			zap.Error(err))
		return models.GeneratedAnswer{
			Text:              FallbackAnswer,
			RelevantDocuments: []models.Document{},
			Confidence:        models.ConfidenceLow,
			Degraded:          true,
		}
	}

	docs := make([]models.Document, 0, len(retrieved))
	for _, res := range retrieved {
		docs = append(docs, res.Document)
	}
	return models.GeneratedAnswer{
		Text:              text,
		RelevantDocuments: docs,
		Confidence:        confidence,
	}
}
