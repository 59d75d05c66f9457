// Package storage defines the persistence interface for conversations and leads.
package storage

import (
	"context"

	"github.com/metalogics/leadchat/internal/models"
)

// Storage defines conversation and lead persistence operations.
type Storage interface {
	// Conversation operations. The conversation log is append-only history
	// per session, consumed as context input and mutated after each turn.
	CreateConversation(ctx context.Context, conv *models.Conversation) error
	GetConversation(ctx context.Context, sessionID string) (*models.Conversation, error)
	AppendMessages(ctx context.Context, sessionID string, messages ...models.Message) error
	RecentTurns(ctx context.Context, sessionID string, limit int) ([]models.Message, error)
	SetConversationStatus(ctx context.Context, sessionID, status string) error
	MarkLeadCaptured(ctx context.Context, sessionID, leadID string) error

	// Lead operations.
	CreateLead(ctx context.Context, lead *models.Lead) error
	GetLead(ctx context.Context, id string) (*models.Lead, error)
	GetLeadByEmail(ctx context.Context, email string) (*models.Lead, error)
	UpdateLead(ctx context.Context, lead *models.Lead) error
	ListLeads(ctx context.Context, filter models.LeadFilter) ([]*models.Lead, error)

	// Stats
	CountConversations(ctx context.Context) (int64, error)
	CountLeads(ctx context.Context) (int64, error)
	// DatabasePath returns the on-disk database location for disk usage
	// reporting; empty for in-memory databases.
	DatabasePath() string

	Close() error
}
