package models

import "time"

// Lead statuses, in rough funnel order.
const (
	LeadStatusNew       = "new"
	LeadStatusContacted = "contacted"
	LeadStatusQualified = "qualified"
	LeadStatusConverted = "converted"
)

// Lead is a captured sales lead, optionally with a scheduled appointment.
type Lead struct {
	ID              string    `json:"id"`
	Name            string    `json:"name"`
	Email           string    `json:"email"`
	Phone           string    `json:"phone,omitempty"`
	Company         string    `json:"company,omitempty"`
	Message         string    `json:"message,omitempty"`
	ConversationID  string    `json:"conversation_id,omitempty"`
	Status          string    `json:"status"`
	AppointmentDate string    `json:"appointment_date,omitempty"` // YYYY-MM-DD
	AppointmentTime string    `json:"appointment_time,omitempty"` // HH:MM
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

// Conversation statuses.
const (
	ConversationActive    = "active"
	ConversationCompleted = "completed"
	ConversationAbandoned = "abandoned"
)

// Conversation is the append-only per-session message history plus lead
// linkage.
type Conversation struct {
	ID           string    `json:"id"`
	SessionID    string    `json:"session_id"`
	UserIP       string    `json:"user_ip,omitempty"`
	UserAgent    string    `json:"user_agent,omitempty"`
	Messages     []Message `json:"messages"`
	LeadCaptured bool      `json:"lead_captured"`
	LeadID       string    `json:"lead_id,omitempty"`
	Status       string    `json:"status"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// LeadFilter narrows ListLeads results.
type LeadFilter struct {
	Status   string
	DateFrom time.Time
	DateTo   time.Time
	Limit    int
	Offset   int
}
