package embedding

import (
	"context"
	"fmt"
	"time"

	openai "github.com/sashabaranov/go-openai"

	"github.com/metalogics/leadchat/internal/models"
)

// OpenAIProvider produces embeddings via the OpenAI embeddings API.
type OpenAIProvider struct {
	client  *openai.Client
	model   string
	timeout time.Duration
}

// NewOpenAIProvider creates a provider using the given client and model.
// timeout bounds each Embed call independently of the caller's context.
func NewOpenAIProvider(client *openai.Client, model string, timeout time.Duration) *OpenAIProvider {
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &OpenAIProvider{client: client, model: model, timeout: timeout}
}

// Embed returns the embedding vector for text. Provider errors and timeouts
// are wrapped as models.ErrEmbeddingUnavailable.
func (p *OpenAIProvider) Embed(ctx context.Context, text string) ([]float32, error) {
	if text == "" {
		return nil, fmt.Errorf("%w: empty text", models.ErrEmbeddingUnavailable)
	}
	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	resp, err := p.client.CreateEmbeddings(ctx, openai.EmbeddingRequest{
		Model: openai.EmbeddingModel(p.model),
		Input: []string{text},
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", models.ErrEmbeddingUnavailable, err)
	}
	if len(resp.Data) == 0 || len(resp.Data[0].Embedding) == 0 {
		return nil, fmt.Errorf("%w: no embedding in response", models.ErrEmbeddingUnavailable)
	}
	return resp.Data[0].Embedding, nil
}
