package server

import (
	"database/sql"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/metalogics/leadchat/internal/chat"
	"github.com/metalogics/leadchat/internal/lead"
	"github.com/metalogics/leadchat/internal/models"
	"github.com/metalogics/leadchat/internal/storage"
)

type chatMessageRequest struct {
	Message   string `json:"message"`
	SessionID string `json:"sessionId,omitempty"`
}

type chatMessageResponse struct {
	Success           bool                 `json:"success"`
	Response          string               `json:"response"`
	SessionID         string               `json:"sessionId"`
	Confidence        string               `json:"confidence"`
	ShouldCaptureLead bool                 `json:"shouldCaptureLead"`
	Degraded          bool                 `json:"degraded"`
	RelevantContent   []models.DocumentRef `json:"relevantContent"`
}

func (s *Server) clientInfo(r *http.Request) chat.ClientInfo {
	return chat.ClientInfo{IP: r.RemoteAddr, UserAgent: r.UserAgent()}
}

func (s *Server) handleChatInit(w http.ResponseWriter, r *http.Request) {
	sessionID, err := s.pipeline.InitSession(r.Context(), s.clientInfo(r))
	if err != nil {
		s.logger.Error("chat init failed", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, "failed to initialize chat session")
		return
	}
	s.respondJSON(w, http.StatusOK, map[string]interface{}{
		"success":   true,
		"sessionId": sessionID,
	})
}

func (s *Server) handleChatMessage(w http.ResponseWriter, r *http.Request) {
	var req chatMessageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	s.logger.Debug("chat message", zap.String("session_id", req.SessionID))

	turn, err := s.pipeline.HandleUserMessage(r.Context(), req.SessionID, req.Message, s.clientInfo(r))
	if err != nil {
		if ve, ok := models.AsValidationError(err); ok {
			s.respondError(w, http.StatusBadRequest, ve.Error())
			return
		}
		s.logger.Error("chat turn failed", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, "failed to process message")
		return
	}
	s.respondJSON(w, http.StatusOK, chatMessageResponse{
		Success:           true,
		Response:          turn.AnswerText,
		SessionID:         turn.SessionID,
		Confidence:        turn.Confidence,
		ShouldCaptureLead: turn.ShouldCaptureLead,
		Degraded:          turn.Degraded,
		RelevantContent:   turn.RelevantDocuments,
	})
}

func (s *Server) handleChatHistory(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")
	conv, err := s.pipeline.History(r.Context(), sessionID)
	if err != nil {
		s.respondError(w, http.StatusNotFound, "conversation not found")
		return
	}
	s.respondJSON(w, http.StatusOK, map[string]interface{}{
		"success":      true,
		"messages":     conv.Messages,
		"leadCaptured": conv.LeadCaptured,
	})
}

func (s *Server) handleChatEnd(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")
	if err := s.pipeline.EndSession(r.Context(), sessionID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			s.respondError(w, http.StatusNotFound, "conversation not found")
			return
		}
		s.logger.Error("end conversation failed", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, "failed to end conversation")
		return
	}
	s.respondJSON(w, http.StatusOK, map[string]string{"status": "completed"})
}

func (s *Server) handleLeadCapture(w http.ResponseWriter, r *http.Request) {
	var req lead.CaptureRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	captured, err := s.leads.Capture(r.Context(), req)
	if err != nil {
		if ve, ok := models.AsValidationError(err); ok {
			s.respondError(w, http.StatusBadRequest, ve.Error())
			return
		}
		s.logger.Error("lead capture failed", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, "failed to capture lead")
		return
	}
	s.respondJSON(w, http.StatusCreated, map[string]interface{}{
		"success": true,
		"lead":    captured,
	})
}

func (s *Server) handleLeadAppointment(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	var req lead.AppointmentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	updated, err := s.leads.ScheduleAppointment(r.Context(), id, req)
	if err != nil {
		if ve, ok := models.AsValidationError(err); ok {
			s.respondError(w, http.StatusBadRequest, ve.Error())
			return
		}
		if errors.Is(err, sql.ErrNoRows) {
			s.respondError(w, http.StatusNotFound, "lead not found")
			return
		}
		s.logger.Error("appointment scheduling failed", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, "failed to schedule appointment")
		return
	}
	s.respondJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"lead":    updated,
	})
}

func (s *Server) handleLeadList(w http.ResponseWriter, r *http.Request) {
	filter := models.LeadFilter{
		Status: r.URL.Query().Get("status"),
	}
	if v := r.URL.Query().Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			filter.Limit = n
		}
	}
	if v := r.URL.Query().Get("offset"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			filter.Offset = n
		}
	}
	if v := r.URL.Query().Get("from"); v != "" {
		if ts, err := time.Parse("2006-01-02", v); err == nil {
			filter.DateFrom = ts
		}
	}
	if v := r.URL.Query().Get("to"); v != "" {
		if ts, err := time.Parse("2006-01-02", v); err == nil {
			filter.DateTo = ts
		}
	}

	leads, err := s.leads.List(r.Context(), filter)
	if err != nil {
		s.logger.Error("lead list failed", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, "failed to list leads")
		return
	}
	if leads == nil {
		leads = []*models.Lead{}
	}
	s.respondJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"leads":   leads,
	})
}

func (s *Server) handleKnowledgeSearch(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query().Get("q")
	if query == "" {
		s.respondError(w, http.StatusBadRequest, "q is required")
		return
	}
	limit := 10
	if v := r.URL.Query().Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			limit = n
		}
	}
	results, err := s.keyword.Search(query, limit)
	if err != nil {
		s.logger.Error("knowledge search failed", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, "search failed")
		return
	}
	s.respondJSON(w, http.StatusOK, map[string]interface{}{
		"query":   query,
		"results": results,
	})
}

func (s *Server) handleKnowledgeReload(w http.ResponseWriter, r *http.Request) {
	if err := s.knowledge.Reload(); err != nil {
		s.respondError(w, http.StatusServiceUnavailable, err.Error())
		return
	}
	snap := s.knowledge.Snapshot()
	if err := s.keyword.Rebuild(snap.Documents); err != nil {
		s.logger.Error("keyword index rebuild failed", zap.Error(err))
	}
	s.respondJSON(w, http.StatusOK, map[string]interface{}{
		"status":    "reloaded",
		"documents": snap.Len(),
	})
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	convCount, err := s.storage.CountConversations(ctx)
	if err != nil {
		s.logger.Error("status: count conversations failed", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	leadCount, err := s.storage.CountLeads(ctx)
	if err != nil {
		s.logger.Error("status: count leads failed", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	status := map[string]interface{}{
		"documents":      s.knowledge.Snapshot().Len(),
		"cached_vectors": s.cache.Len(),
		"conversations":  convCount,
		"leads":          leadCount,
	}
	if diskBytes, err := storage.DiskUsageBytes(s.storage.DatabasePath()); err == nil && diskBytes > 0 {
		status["disk_usage_bytes"] = diskBytes
	}
	s.respondJSON(w, http.StatusOK, status)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func (s *Server) respondError(w http.ResponseWriter, status int, message string) {
	s.respondJSON(w, status, map[string]string{"error": message})
}
