// Package server provides the HTTP API for the leadchat widget backend.
package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/metalogics/leadchat/internal/chat"
	"github.com/metalogics/leadchat/internal/config"
	"github.com/metalogics/leadchat/internal/embedding"
	"github.com/metalogics/leadchat/internal/keyword"
	"github.com/metalogics/leadchat/internal/knowledge"
	"github.com/metalogics/leadchat/internal/lead"
	"github.com/metalogics/leadchat/internal/storage"
)

// Server is the HTTP server for the leadchat API.
type Server struct {
	pipeline  *chat.Pipeline
	leads     *lead.Service
	knowledge *knowledge.Store
	keyword   *keyword.Index
	cache     *embedding.Cache
	storage   storage.Storage
	config    *config.ServerConfig
	logger    *zap.Logger
	server    *http.Server
}

// NewServer creates a server with the given dependencies.
func NewServer(
	pipeline *chat.Pipeline,
	leads *lead.Service,
	kstore *knowledge.Store,
	kwIndex *keyword.Index,
	cache *embedding.Cache,
	st storage.Storage,
	cfg *config.ServerConfig,
	logger *zap.Logger,
) *Server {
	return &Server{
		pipeline:  pipeline,
		leads:     leads,
		knowledge: kstore,
		keyword:   kwIndex,
		cache:     cache,
		storage:   st,
		config:    cfg,
		logger:    logger,
	}
}

// Router builds the chi router with all routes and middleware.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))
	r.Use(middleware.Compress(5))

	r.Post("/api/v1/chat/init", s.handleChatInit)
	r.Post("/api/v1/chat/message", s.handleChatMessage)
	r.Get("/api/v1/chat/history/{sessionID}", s.handleChatHistory)
	r.Post("/api/v1/chat/end/{sessionID}", s.handleChatEnd)

	r.Post("/api/v1/leads", s.handleLeadCapture)
	r.Post("/api/v1/leads/{id}/appointment", s.handleLeadAppointment)
	r.Get("/api/v1/leads", s.handleLeadList)

	r.Get("/api/v1/knowledge/search", s.handleKnowledgeSearch)
	r.Post("/api/v1/knowledge/reload", s.handleKnowledgeReload)

	r.Get("/api/v1/status", s.handleStatus)
	r.Get("/health", s.handleHealth)
	return r
}

// Start starts the HTTP server and blocks until it stops.
func (s *Server) Start() error {
	addr := fmt.Sprintf("%s:%d", s.config.Host, s.config.Port)
	s.server = &http.Server{
		Addr:    addr,
		Handler: s.Router(),
	}
	s.logger.Info("Starting server", zap.String("addr", addr))
	return s.server.ListenAndServe()
}

// Stop gracefully shuts down the server.
func (s *Server) Stop(ctx context.Context) error {
	if s.server != nil {
		return s.server.Shutdown(ctx)
	}
	return nil
}
