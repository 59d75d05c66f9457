// Package chat orchestrates one conversation turn: retrieval, generation,
// lead detection, and conversation logging.
package chat

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/metalogics/leadchat/internal/generator"
	"github.com/metalogics/leadchat/internal/lead"
	"github.com/metalogics/leadchat/internal/models"
	"github.com/metalogics/leadchat/internal/retrieval"
	"github.com/metalogics/leadchat/internal/storage"
)

// Options holds pipeline tunables.
type Options struct {
	TopK           int
	Threshold      float64
	ContextTurns   int
	MaxMessageSize int
}

// Pipeline is the single per-process chat service instance, constructed once
// at startup and passed to request handlers.
type Pipeline struct {
	retriever *retrieval.Retriever
	generator *generator.Generator
	detector  *lead.Detector
	storage   storage.Storage
	opts      Options
	logger    *zap.Logger
}

// NewPipeline creates the chat pipeline.
func NewPipeline(
	r *retrieval.Retriever,
	g *generator.Generator,
	d *lead.Detector,
	st storage.Storage,
	opts Options,
	logger *zap.Logger,
) *Pipeline {
	if opts.TopK <= 0 {
		opts.TopK = 3
	}
	if opts.Threshold == 0 {
		opts.Threshold = 0.7
	}
	if opts.ContextTurns <= 0 {
		opts.ContextTurns = 10
	}
	if opts.MaxMessageSize <= 0 {
		opts.MaxMessageSize = 1000
	}
	return &Pipeline{
		retriever: r,
		generator: g,
		detector:  d,
		storage:   st,
		opts:      opts,
		logger:    logger,
	}
}

// ClientInfo carries request metadata recorded on new conversations.
type ClientInfo struct {
	IP        string
	UserAgent string
}

// InitSession creates a fresh conversation and returns its session ID.
func (p *Pipeline) InitSession(ctx context.Context, info ClientInfo) (string, error) {
	sessionID := uuid.NewString()
	conv := &models.Conversation{
		ID:        uuid.NewString(),
		SessionID: sessionID,
		UserIP:    info.IP,
		UserAgent: info.UserAgent,
	}
	if err := p.storage.CreateConversation(ctx, conv); err != nil {
		return "", fmt.Errorf("create conversation: %w", err)
	}
	return sessionID, nil
}

// HandleUserMessage runs one full turn. Provider failures degrade per the
// error policy: embedding failure means empty retrieval, completion failure
// means the fixed fallback answer. The turn always produces user-visible
// text; only validation errors surface to the caller.
func (p *Pipeline) HandleUserMessage(ctx context.Context, sessionID, message string, info ClientInfo) (*models.ChatTurn, error) {
	if strings.TrimSpace(message) == "" {
		return nil, &models.ValidationError{Field: "message", Reason: "must not be empty"}
	}
	if len(message) > p.opts.MaxMessageSize {
		return nil, &models.ValidationError{
			Field:  "message",
			Reason: fmt.Sprintf("must be at most %d characters", p.opts.MaxMessageSize),
		}
	}

	sessionID, err := p.findOrCreateSession(ctx, sessionID, info)
	if err != nil {
		return nil, err
	}

	history, err := p.storage.RecentTurns(ctx, sessionID, p.opts.ContextTurns)
	if err != nil {
		p.logger.Warn("failed to load conversation context",
			zap.String("session_id", sessionID), zap.Error(err))
		history = nil
	}

	retrieved, err := p.retriever.Retrieve(ctx, message, p.opts.TopK, p.opts.Threshold)
	if err != nil {
		// Embedding failure degrades to "no relevant documents"; the turn
		// continues ungrounded.
		p.logger.Error("retrieval failed, continuing with empty context",
			zap.String("query", message),
			zap.String("provider", "embedding"),
			zap.Error(err))
		retrieved = nil
	}

	answer := p.generator.Generate(ctx, message, history, retrieved)

	// Lead detection runs on the raw message, independent of retrieval and
	// generation, even when generation failed.
	shouldCapture := p.detector.ShouldCaptureLead(message)

	now := time.Now()
	if err := p.storage.AppendMessages(ctx, sessionID,
		models.Message{Role: models.RoleUser, Content: message, Timestamp: now},
		models.Message{Role: models.RoleAssistant, Content: answer.Text, Timestamp: now},
	); err != nil {
		p.logger.Error("failed to append conversation turn",
			zap.String("session_id", sessionID), zap.Error(err))
	}

	refs := make([]models.DocumentRef, 0, len(answer.RelevantDocuments))
	for _, doc := range answer.RelevantDocuments {
		refs = append(refs, models.DocumentRef{Title: doc.Title, URL: doc.URL})
	}
	return &models.ChatTurn{
		SessionID:         sessionID,
		AnswerText:        answer.Text,
		RelevantDocuments: refs,
		Confidence:        answer.Confidence,
		ShouldCaptureLead: shouldCapture,
		Degraded:          answer.Degraded,
	}, nil
}

// History returns a conversation's messages and lead state.
func (p *Pipeline) History(ctx context.Context, sessionID string) (*models.Conversation, error) {
	return p.storage.GetConversation(ctx, sessionID)
}

// EndSession marks a conversation completed.
func (p *Pipeline) EndSession(ctx context.Context, sessionID string) error {
	return p.storage.SetConversationStatus(ctx, sessionID, models.ConversationCompleted)
}

func (p *Pipeline) findOrCreateSession(ctx context.Context, sessionID string, info ClientInfo) (string, error) {
	if sessionID != "" {
		_, err := p.storage.GetConversation(ctx, sessionID)
		if err == nil {
			return sessionID, nil
		}
		if !errors.Is(err, sql.ErrNoRows) {
			return "", fmt.Errorf("lookup conversation: %w", err)
		}
	}
	return p.InitSession(ctx, info)
}
