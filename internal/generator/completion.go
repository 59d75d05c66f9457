// Package generator assembles grounded prompts and obtains natural-language
// answers from a completion provider.
package generator

import (
	"context"
	"fmt"
	"time"

	openai "github.com/sashabaranov/go-openai"

	"github.com/metalogics/leadchat/internal/models"
)

// CompletionProvider obtains a chat completion for a message sequence.
// Failures map to models.ErrCompletionUnavailable.
type CompletionProvider interface {
	Complete(ctx context.Context, messages []models.Message, maxTokens int, temperature float32) (string, error)
}

// OpenAICompletion implements CompletionProvider via the OpenAI chat API.
type OpenAICompletion struct {
	client  *openai.Client
	model   string
	timeout time.Duration
}

// NewOpenAICompletion creates a completion provider with a per-call timeout
// independent of the caller's context.
func NewOpenAICompletion(client *openai.Client, model string, timeout time.Duration) *OpenAICompletion {
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &OpenAICompletion{client: client, model: model, timeout: timeout}
}

// Complete sends messages to the chat completion API and returns the answer
// text. The first message's role "system" is preserved; others map directly.
func (c *OpenAICompletion) Complete(ctx context.Context, messages []models.Message, maxTokens int, temperature float32) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	req := openai.ChatCompletionRequest{
		Model:       c.model,
		MaxTokens:   maxTokens,
		Temperature: temperature,
		Messages:    make([]openai.ChatCompletionMessage, 0, len(messages)),
	}
	for _, m := range messages {
		req.Messages = append(req.Messages, openai.ChatCompletionMessage{
			Role:    m.Role,
			Content: m.Content,
		})
	}

	resp, err := c.client.CreateChatCompletion(ctx, req)
	if err != nil {
		return "", fmt.Errorf("%w: %v", models.ErrCompletionUnavailable, err)
	}
	if len(resp.Choices) == 0 || resp.Choices[0].Message.Content == "" {
		return "", fmt.Errorf("%w: empty completion", models.ErrCompletionUnavailable)
	}
	return resp.Choices[0].Message.Content, nil
}
