package lead

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"regexp"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/metalogics/leadchat/internal/mailer"
	"github.com/metalogics/leadchat/internal/models"
	"github.com/metalogics/leadchat/internal/storage"
)

var (
	emailPattern = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`)
	timePattern  = regexp.MustCompile(`^([0-1]?[0-9]|2[0-3]):[0-5][0-9]$`)
)

// Service captures leads and schedules appointments.
type Service struct {
	storage storage.Storage
	mailer  mailer.Mailer
	logger  *zap.Logger
}

// NewService creates a lead service.
func NewService(st storage.Storage, m mailer.Mailer, logger *zap.Logger) *Service {
	return &Service{storage: st, mailer: m, logger: logger}
}

// CaptureRequest is the input to Capture.
type CaptureRequest struct {
	Name      string `json:"name"`
	Email     string `json:"email"`
	Phone     string `json:"phone,omitempty"`
	Company   string `json:"company,omitempty"`
	Message   string `json:"message,omitempty"`
	SessionID string `json:"sessionId,omitempty"`
}

// Capture validates and stores a lead, upserting by email. When a session ID
// is given, the conversation is marked lead-captured. The confirmation email
// is sent on a goroutine; a mail failure never fails the capture.
func (s *Service) Capture(ctx context.Context, req CaptureRequest) (*models.Lead, error) {
	if err := validateCapture(req); err != nil {
		return nil, err
	}

	lead, err := s.storage.GetLeadByEmail(ctx, req.Email)
	switch {
	case err == nil:
		// Existing lead: refresh contact details and conversation linkage.
		lead.Name = req.Name
		if req.Phone != "" {
			lead.Phone = req.Phone
		}
		if req.Company != "" {
			lead.Company = req.Company
		}
		if req.Message != "" {
			lead.Message = req.Message
		}
		if req.SessionID != "" {
			lead.ConversationID = req.SessionID
		}
		if err := s.storage.UpdateLead(ctx, lead); err != nil {
			return nil, fmt.Errorf("update lead: %w", err)
		}
	case errors.Is(err, sql.ErrNoRows):
		lead = &models.Lead{
			ID:             uuid.NewString(),
			Name:           req.Name,
			Email:          req.Email,
			Phone:          req.Phone,
			Company:        req.Company,
			Message:        req.Message,
			ConversationID: req.SessionID,
			Status:         models.LeadStatusNew,
		}
		if err := s.storage.CreateLead(ctx, lead); err != nil {
			return nil, fmt.Errorf("create lead: %w", err)
		}
	default:
		return nil, fmt.Errorf("lookup lead: %w", err)
	}

	if req.SessionID != "" {
		if err := s.storage.MarkLeadCaptured(ctx, req.SessionID, lead.ID); err != nil {
			s.logger.Warn("failed to mark conversation lead-captured",
				zap.String("session_id", req.SessionID), zap.Error(err))
		}
	}

	go func(l models.Lead) {
		if err := s.mailer.SendLeadConfirmation(&l); err != nil {
			s.logger.Error("lead confirmation email failed",
				zap.String("email", l.Email), zap.Error(err))
		}
	}(*lead)

	return lead, nil
}

// AppointmentRequest is the input to ScheduleAppointment.
type AppointmentRequest struct {
	Date string `json:"appointment_date"` // YYYY-MM-DD
	Time string `json:"appointment_time"` // HH:MM
}

// ScheduleAppointment validates a future date/time, marks the lead qualified,
// and fires the confirmation email.
func (s *Service) ScheduleAppointment(ctx context.Context, leadID string, req AppointmentRequest) (*models.Lead, error) {
	if !timePattern.MatchString(req.Time) {
		return nil, &models.ValidationError{Field: "appointment_time", Reason: "must be HH:MM"}
	}
	when, err := time.Parse("2006-01-02 15:04", req.Date+" "+req.Time)
	if err != nil {
		return nil, &models.ValidationError{Field: "appointment_date", Reason: "must be YYYY-MM-DD"}
	}
	if when.Before(time.Now()) {
		return nil, &models.ValidationError{Field: "appointment_date", Reason: "must be in the future"}
	}

	lead, err := s.storage.GetLead(ctx, leadID)
	if err != nil {
		return nil, fmt.Errorf("lead not found: %w", err)
	}
	lead.AppointmentDate = req.Date
	lead.AppointmentTime = req.Time
	lead.Status = models.LeadStatusQualified
	if err := s.storage.UpdateLead(ctx, lead); err != nil {
		return nil, fmt.Errorf("update lead: %w", err)
	}

	go func(l models.Lead) {
		if err := s.mailer.SendAppointmentConfirmation(&l); err != nil {
			s.logger.Error("appointment confirmation email failed",
				zap.String("email", l.Email), zap.Error(err))
		}
	}(*lead)

	return lead, nil
}

// List returns leads matching the filter.
func (s *Service) List(ctx context.Context, filter models.LeadFilter) ([]*models.Lead, error) {
	return s.storage.ListLeads(ctx, filter)
}

func validateCapture(req CaptureRequest) error {
	if len(req.Name) < 2 || len(req.Name) > 100 {
		return &models.ValidationError{Field: "name", Reason: "must be 2-100 characters"}
	}
	if !emailPattern.MatchString(req.Email) {
		return &models.ValidationError{Field: "email", Reason: "must be a valid email address"}
	}
	if len(req.Message) > 1000 {
		return &models.ValidationError{Field: "message", Reason: "must be at most 1000 characters"}
	}
	return nil
}
