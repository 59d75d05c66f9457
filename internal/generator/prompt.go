package generator

import (
	"strings"

	"github.com/metalogics/leadchat/internal/models"
	"github.com/metalogics/leadchat/pkg/utils"
)

const systemPromptHeader = `You are a helpful AI assistant for Metalogics, a technology company.

Your role:
- Provide accurate information about Metalogics services and company
- Help users understand how Metalogics can solve their technology needs
- Guide conversations toward scheduling consultations or capturing leads
- Be professional, warm, and trustworthy
- If you don't know something, politely redirect to human support`

const systemPromptGuidelines = `Guidelines:
- Keep responses concise and helpful
- Always offer to schedule a consultation for detailed discussions
- Ask for contact information when appropriate
- Suggest relevant services based on user needs`

// buildSystemPrompt embeds the retrieved documents verbatim (title and
// content, truncated, never paraphrased) between the fixed behavioral
// guidance blocks.
func buildSystemPrompt(retrieved []models.RetrievalResult, maxDocLength int) string {
	var b strings.Builder
	b.WriteString(systemPromptHeader)
	b.WriteString("\n\nCompany Information:\n")
	for i, res := range retrieved {
		if i > 0 {
			b.WriteString("\n\n")
		}
		b.WriteString(res.Document.Title)
		b.WriteString(": ")
		b.WriteString(utils.Truncate(res.Document.Content, maxDocLength))
	}
	b.WriteString("\n\n")
	b.WriteString(systemPromptGuidelines)
	return b.String()
}

// buildMessages assembles [system] + recent context + [current query].
func buildMessages(system string, history []models.Message, query string) []models.Message {
	messages := make([]models.Message, 0, len(history)+2)
	messages = append(messages, models.Message{Role: "system", Content: system})
	messages = append(messages, history...)
	messages = append(messages, models.Message{Role: models.RoleUser, Content: query})
	return messages
}
