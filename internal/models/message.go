package models

import "time"

// Message roles as they appear in conversation history and provider requests.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Message is one turn of a conversation.
type Message struct {
	Role      string    `json:"role"`
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp,omitempty"`
}

// Confidence levels for a generated answer. High means at least one corpus
// document passed the relevance threshold; it says nothing about the quality
// of the generated text itself.
const (
	ConfidenceHigh = "high"
	ConfidenceLow  = "low"
)

// GeneratedAnswer is the output of the response generator.
type GeneratedAnswer struct {
	Text              string     `json:"text"`
	RelevantDocuments []Document `json:"relevant_documents"`
	Confidence        string     `json:"confidence"`
	// Degraded marks the fixed fallback answer returned when the completion
	// provider failed, so higher layers can mark the turn as degraded.
	Degraded bool `json:"degraded"`
}

// ChatTurn is the full result of handling one user message.
type ChatTurn struct {
	SessionID         string        `json:"session_id"`
	AnswerText        string        `json:"answer_text"`
	RelevantDocuments []DocumentRef `json:"relevant_documents"`
	Confidence        string        `json:"confidence"`
	ShouldCaptureLead bool          `json:"should_capture_lead"`
	Degraded          bool          `json:"degraded"`
}
