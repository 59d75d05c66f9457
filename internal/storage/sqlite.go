package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/metalogics/leadchat/internal/models"
)

// SQLiteStorage implements Storage using SQLite.
type SQLiteStorage struct {
	db   *sql.DB
	path string
}

// NewSQLiteStorage opens or creates a SQLite database at dbPath and initializes the schema.
// Parent directories are created if they do not exist.
func NewSQLiteStorage(dbPath string) (*SQLiteStorage, error) {
	if dir := filepath.Dir(dbPath); dir != "." && dbPath != ":memory:" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to enable WAL: %w", err)
	}

	if err := initSchema(db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return &SQLiteStorage{db: db, path: dbPath}, nil
}

// DatabasePath returns the database file path, or empty for ":memory:".
func (s *SQLiteStorage) DatabasePath() string {
	if s.path == ":memory:" {
		return ""
	}
	return s.path
}

func initSchema(db *sql.DB) error {
	schema := `
	CREATE TABLE IF NOT EXISTS conversations (
		id TEXT PRIMARY KEY,
		session_id TEXT NOT NULL UNIQUE,
		user_ip TEXT,
		user_agent TEXT,
		messages TEXT NOT NULL DEFAULT '[]',
		lead_captured INTEGER NOT NULL DEFAULT 0,
		lead_id TEXT,
		status TEXT NOT NULL DEFAULT 'active',
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
		updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	);

	CREATE INDEX IF NOT EXISTS idx_conversations_session_id ON conversations(session_id);
	CREATE INDEX IF NOT EXISTS idx_conversations_status ON conversations(status);

	CREATE TABLE IF NOT EXISTS leads (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		email TEXT NOT NULL UNIQUE,
		phone TEXT,
		company TEXT,
		message TEXT,
		conversation_id TEXT,
		status TEXT NOT NULL DEFAULT 'new',
		appointment_date TEXT,
		appointment_time TEXT,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
		updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	);

	CREATE INDEX IF NOT EXISTS idx_leads_email ON leads(email);
	CREATE INDEX IF NOT EXISTS idx_leads_status ON leads(status);
	CREATE INDEX IF NOT EXISTS idx_leads_created_at ON leads(created_at);
	`
	_, err := db.Exec(schema)
	return err
}

// CreateConversation inserts a conversation.
func (s *SQLiteStorage) CreateConversation(ctx context.Context, conv *models.Conversation) error {
	if conv.Messages == nil {
		conv.Messages = []models.Message{}
	}
	messagesJSON, err := json.Marshal(conv.Messages)
	if err != nil {
		return fmt.Errorf("failed to marshal messages: %w", err)
	}
	if conv.Status == "" {
		conv.Status = models.ConversationActive
	}

	now := time.Now()
	conv.CreatedAt = now
	conv.UpdatedAt = now

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO conversations (id, session_id, user_ip, user_agent, messages, lead_captured, lead_id, status, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		conv.ID, conv.SessionID, conv.UserIP, conv.UserAgent, string(messagesJSON),
		boolToInt(conv.LeadCaptured), conv.LeadID, conv.Status, conv.CreatedAt, conv.UpdatedAt,
	)
	return err
}

// GetConversation returns a conversation by session ID.
func (s *SQLiteStorage) GetConversation(ctx context.Context, sessionID string) (*models.Conversation, error) {
	var conv models.Conversation
	var messagesJSON string
	var leadCaptured int
	var leadID sql.NullString

	err := s.db.QueryRowContext(ctx,
		`SELECT id, session_id, user_ip, user_agent, messages, lead_captured, lead_id, status, created_at, updated_at
		 FROM conversations WHERE session_id = ?`, sessionID,
	).Scan(&conv.ID, &conv.SessionID, &conv.UserIP, &conv.UserAgent, &messagesJSON,
		&leadCaptured, &leadID, &conv.Status, &conv.CreatedAt, &conv.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(messagesJSON), &conv.Messages); err != nil {
		return nil, fmt.Errorf("failed to unmarshal messages: %w", err)
	}
	conv.LeadCaptured = leadCaptured != 0
	conv.LeadID = leadID.String
	return &conv, nil
}

// AppendMessages appends turns to a conversation's message history.
func (s *SQLiteStorage) AppendMessages(ctx context.Context, sessionID string, messages ...models.Message) error {
	conv, err := s.GetConversation(ctx, sessionID)
	if err != nil {
		return err
	}
	updated := append(conv.Messages, messages...)
	messagesJSON, err := json.Marshal(updated)
	if err != nil {
		return fmt.Errorf("failed to marshal messages: %w", err)
	}
	_, err = s.db.ExecContext(ctx,
		`UPDATE conversations SET messages = ?, updated_at = ? WHERE session_id = ?`,
		string(messagesJSON), time.Now(), sessionID,
	)
	return err
}

// RecentTurns returns the most recent limit messages for a session, oldest
// first. Unknown sessions yield an empty slice, not an error.
func (s *SQLiteStorage) RecentTurns(ctx context.Context, sessionID string, limit int) ([]models.Message, error) {
	conv, err := s.GetConversation(ctx, sessionID)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	messages := conv.Messages
	if limit > 0 && len(messages) > limit {
		messages = messages[len(messages)-limit:]
	}
	return messages, nil
}

// SetConversationStatus updates a conversation's status.
func (s *SQLiteStorage) SetConversationStatus(ctx context.Context, sessionID, status string) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE conversations SET status = ?, updated_at = ? WHERE session_id = ?`,
		status, time.Now(), sessionID,
	)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// MarkLeadCaptured links a captured lead to a conversation.
func (s *SQLiteStorage) MarkLeadCaptured(ctx context.Context, sessionID, leadID string) error {
	_, err := s.db.ExecContext(ctx,
		`UPDATE conversations SET lead_captured = 1, lead_id = ?, updated_at = ? WHERE session_id = ?`,
		leadID, time.Now(), sessionID,
	)
	return err
}

// CreateLead inserts a lead.
func (s *SQLiteStorage) CreateLead(ctx context.Context, lead *models.Lead) error {
	if lead.Status == "" {
		lead.Status = models.LeadStatusNew
	}
	now := time.Now()
	lead.CreatedAt = now
	lead.UpdatedAt = now

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO leads (id, name, email, phone, company, message, conversation_id, status, appointment_date, appointment_time, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		lead.ID, lead.Name, lead.Email, lead.Phone, lead.Company, lead.Message,
		lead.ConversationID, lead.Status, lead.AppointmentDate, lead.AppointmentTime,
		lead.CreatedAt, lead.UpdatedAt,
	)
	return err
}

// GetLead returns a lead by ID.
func (s *SQLiteStorage) GetLead(ctx context.Context, id string) (*models.Lead, error) {
	return s.scanLead(s.db.QueryRowContext(ctx,
		`SELECT id, name, email, phone, company, message, conversation_id, status, appointment_date, appointment_time, created_at, updated_at
		 FROM leads WHERE id = ?`, id))
}

// GetLeadByEmail returns a lead by email.
func (s *SQLiteStorage) GetLeadByEmail(ctx context.Context, email string) (*models.Lead, error) {
	return s.scanLead(s.db.QueryRowContext(ctx,
		`SELECT id, name, email, phone, company, message, conversation_id, status, appointment_date, appointment_time, created_at, updated_at
		 FROM leads WHERE email = ?`, email))
}

func (s *SQLiteStorage) scanLead(row *sql.Row) (*models.Lead, error) {
	var lead models.Lead
	var phone, company, message, convID, apptDate, apptTime sql.NullString
	err := row.Scan(&lead.ID, &lead.Name, &lead.Email, &phone, &company, &message,
		&convID, &lead.Status, &apptDate, &apptTime, &lead.CreatedAt, &lead.UpdatedAt)
	if err != nil {
		return nil, err
	}
	lead.Phone = phone.String
	lead.Company = company.String
	lead.Message = message.String
	lead.ConversationID = convID.String
	lead.AppointmentDate = apptDate.String
	lead.AppointmentTime = apptTime.String
	return &lead, nil
}

// UpdateLead updates all mutable lead fields.
func (s *SQLiteStorage) UpdateLead(ctx context.Context, lead *models.Lead) error {
	lead.UpdatedAt = time.Now()
	res, err := s.db.ExecContext(ctx,
		`UPDATE leads SET name = ?, phone = ?, company = ?, message = ?, conversation_id = ?,
		 status = ?, appointment_date = ?, appointment_time = ?, updated_at = ?
		 WHERE id = ?`,
		lead.Name, lead.Phone, lead.Company, lead.Message, lead.ConversationID,
		lead.Status, lead.AppointmentDate, lead.AppointmentTime, lead.UpdatedAt, lead.ID,
	)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// ListLeads returns leads matching the filter, newest first.
func (s *SQLiteStorage) ListLeads(ctx context.Context, filter models.LeadFilter) ([]*models.Lead, error) {
	query := `SELECT id, name, email, phone, company, message, conversation_id, status, appointment_date, appointment_time, created_at, updated_at
		 FROM leads WHERE 1=1`
	args := []interface{}{}
	if filter.Status != "" {
		query += " AND status = ?"
		args = append(args, filter.Status)
	}
	if !filter.DateFrom.IsZero() {
		query += " AND created_at >= ?"
		args = append(args, filter.DateFrom)
	}
	if !filter.DateTo.IsZero() {
		query += " AND created_at <= ?"
		args = append(args, filter.DateTo)
	}
	query += " ORDER BY created_at DESC"
	limit := filter.Limit
	if limit <= 0 {
		limit = 50
	}
	query += " LIMIT ? OFFSET ?"
	args = append(args, limit, filter.Offset)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var leads []*models.Lead
	for rows.Next() {
		var lead models.Lead
		var phone, company, message, convID, apptDate, apptTime sql.NullString
		if err := rows.Scan(&lead.ID, &lead.Name, &lead.Email, &phone, &company, &message,
			&convID, &lead.Status, &apptDate, &apptTime, &lead.CreatedAt, &lead.UpdatedAt); err != nil {
			return nil, err
		}
		lead.Phone = phone.String
		lead.Company = company.String
		lead.Message = message.String
		lead.ConversationID = convID.String
		lead.AppointmentDate = apptDate.String
		lead.AppointmentTime = apptTime.String
		leads = append(leads, &lead)
	}
	return leads, rows.Err()
}

// CountConversations returns the number of conversations.
func (s *SQLiteStorage) CountConversations(ctx context.Context) (int64, error) {
	var count int64
	err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM conversations").Scan(&count)
	return count, err
}

// CountLeads returns the number of leads.
func (s *SQLiteStorage) CountLeads(ctx context.Context) (int64, error) {
	var count int64
	err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM leads").Scan(&count)
	return count, err
}

// Close closes the database.
func (s *SQLiteStorage) Close() error {
	return s.db.Close()
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
