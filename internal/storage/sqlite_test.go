package storage

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/metalogics/leadchat/internal/models"
)

func newTestStorage(t *testing.T) *SQLiteStorage {
	t.Helper()
	store, err := NewSQLiteStorage(":memory:")
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestConversation_CreateGetAppend(t *testing.T) {
	store := newTestStorage(t)
	ctx := context.Background()

	conv := &models.Conversation{
		ID:        uuid.NewString(),
		SessionID: "sess-1",
		UserIP:    "127.0.0.1",
		UserAgent: "test-agent",
	}
	if err := store.CreateConversation(ctx, conv); err != nil {
		t.Fatal(err)
	}

	got, err := store.GetConversation(ctx, "sess-1")
	if err != nil {
		t.Fatal(err)
	}
	if got.Status != models.ConversationActive {
		t.Errorf("Status = %q, want active", got.Status)
	}
	if len(got.Messages) != 0 {
		t.Errorf("new conversation has %d messages", len(got.Messages))
	}

	err = store.AppendMessages(ctx, "sess-1",
		models.Message{Role: models.RoleUser, Content: "hello", Timestamp: time.Now()},
		models.Message{Role: models.RoleAssistant, Content: "hi there", Timestamp: time.Now()},
	)
	if err != nil {
		t.Fatal(err)
	}

	got, err = store.GetConversation(ctx, "sess-1")
	if err != nil {
		t.Fatal(err)
	}
	if len(got.Messages) != 2 {
		t.Fatalf("got %d messages, want 2", len(got.Messages))
	}
	if got.Messages[0].Role != models.RoleUser || got.Messages[1].Role != models.RoleAssistant {
		t.Errorf("message roles = %q, %q", got.Messages[0].Role, got.Messages[1].Role)
	}
}

func TestRecentTurns(t *testing.T) {
	store := newTestStorage(t)
	ctx := context.Background()

	conv := &models.Conversation{ID: uuid.NewString(), SessionID: "sess-2"}
	if err := store.CreateConversation(ctx, conv); err != nil {
		t.Fatal(err)
	}
	for i := 0; i < 6; i++ {
		role := models.RoleUser
		if i%2 == 1 {
			role = models.RoleAssistant
		}
		if err := store.AppendMessages(ctx, "sess-2", models.Message{Role: role, Content: string(rune('a' + i))}); err != nil {
			t.Fatal(err)
		}
	}

	turns, err := store.RecentTurns(ctx, "sess-2", 4)
	if err != nil {
		t.Fatal(err)
	}
	if len(turns) != 4 {
		t.Fatalf("got %d turns, want 4", len(turns))
	}
	// Most recent turns, oldest first.
	if turns[0].Content != "c" || turns[3].Content != "f" {
		t.Errorf("turns = %v", turns)
	}
}

func TestRecentTurns_UnknownSession(t *testing.T) {
	store := newTestStorage(t)
	turns, err := store.RecentTurns(context.Background(), "no-such-session", 10)
	if err != nil {
		t.Fatalf("unknown session should not error: %v", err)
	}
	if len(turns) != 0 {
		t.Errorf("got %d turns, want 0", len(turns))
	}
}

func TestSetConversationStatus(t *testing.T) {
	store := newTestStorage(t)
	ctx := context.Background()
	conv := &models.Conversation{ID: uuid.NewString(), SessionID: "sess-3"}
	if err := store.CreateConversation(ctx, conv); err != nil {
		t.Fatal(err)
	}

	if err := store.SetConversationStatus(ctx, "sess-3", models.ConversationCompleted); err != nil {
		t.Fatal(err)
	}
	got, err := store.GetConversation(ctx, "sess-3")
	if err != nil {
		t.Fatal(err)
	}
	if got.Status != models.ConversationCompleted {
		t.Errorf("Status = %q, want completed", got.Status)
	}

	if err := store.SetConversationStatus(ctx, "no-such", models.ConversationCompleted); err != sql.ErrNoRows {
		t.Errorf("err = %v, want sql.ErrNoRows", err)
	}
}

func TestLead_CreateGetUpdate(t *testing.T) {
	store := newTestStorage(t)
	ctx := context.Background()

	lead := &models.Lead{
		ID:    uuid.NewString(),
		Name:  "Ada Lovelace",
		Email: "ada@example.com",
		Phone: "+15551234",
	}
	if err := store.CreateLead(ctx, lead); err != nil {
		t.Fatal(err)
	}
	if lead.Status != models.LeadStatusNew {
		t.Errorf("Status = %q, want new", lead.Status)
	}

	got, err := store.GetLeadByEmail(ctx, "ada@example.com")
	if err != nil {
		t.Fatal(err)
	}
	if got.Name != "Ada Lovelace" || got.Phone != "+15551234" {
		t.Errorf("lead = %+v", got)
	}

	got.Status = models.LeadStatusQualified
	got.AppointmentDate = "2030-01-15"
	got.AppointmentTime = "14:30"
	if err := store.UpdateLead(ctx, got); err != nil {
		t.Fatal(err)
	}

	got2, err := store.GetLead(ctx, lead.ID)
	if err != nil {
		t.Fatal(err)
	}
	if got2.Status != models.LeadStatusQualified || got2.AppointmentDate != "2030-01-15" {
		t.Errorf("lead after update = %+v", got2)
	}
}

func TestLead_DuplicateEmailRejected(t *testing.T) {
	store := newTestStorage(t)
	ctx := context.Background()
	if err := store.CreateLead(ctx, &models.Lead{ID: uuid.NewString(), Name: "A", Email: "dup@example.com"}); err != nil {
		t.Fatal(err)
	}
	if err := store.CreateLead(ctx, &models.Lead{ID: uuid.NewString(), Name: "B", Email: "dup@example.com"}); err == nil {
		t.Error("expected unique constraint violation")
	}
}

func TestListLeads_Filters(t *testing.T) {
	store := newTestStorage(t)
	ctx := context.Background()
	for i, status := range []string{models.LeadStatusNew, models.LeadStatusQualified, models.LeadStatusNew} {
		lead := &models.Lead{
			ID:     uuid.NewString(),
			Name:   "Lead",
			Email:  string(rune('a'+i)) + "@example.com",
			Status: status,
		}
		if err := store.CreateLead(ctx, lead); err != nil {
			t.Fatal(err)
		}
	}

	all, err := store.ListLeads(ctx, models.LeadFilter{})
	if err != nil {
		t.Fatal(err)
	}
	if len(all) != 3 {
		t.Errorf("got %d leads, want 3", len(all))
	}

	qualified, err := store.ListLeads(ctx, models.LeadFilter{Status: models.LeadStatusQualified})
	if err != nil {
		t.Fatal(err)
	}
	if len(qualified) != 1 {
		t.Errorf("got %d qualified leads, want 1", len(qualified))
	}

	limited, err := store.ListLeads(ctx, models.LeadFilter{Limit: 2})
	if err != nil {
		t.Fatal(err)
	}
	if len(limited) != 2 {
		t.Errorf("got %d leads with limit 2", len(limited))
	}
}

func TestMarkLeadCaptured(t *testing.T) {
	store := newTestStorage(t)
	ctx := context.Background()
	conv := &models.Conversation{ID: uuid.NewString(), SessionID: "sess-4"}
	if err := store.CreateConversation(ctx, conv); err != nil {
		t.Fatal(err)
	}
	if err := store.MarkLeadCaptured(ctx, "sess-4", "lead-1"); err != nil {
		t.Fatal(err)
	}
	got, err := store.GetConversation(ctx, "sess-4")
	if err != nil {
		t.Fatal(err)
	}
	if !got.LeadCaptured || got.LeadID != "lead-1" {
		t.Errorf("conversation = %+v", got)
	}
}

func TestCounts(t *testing.T) {
	store := newTestStorage(t)
	ctx := context.Background()
	if err := store.CreateConversation(ctx, &models.Conversation{ID: uuid.NewString(), SessionID: "s1"}); err != nil {
		t.Fatal(err)
	}
	if err := store.CreateLead(ctx, &models.Lead{ID: uuid.NewString(), Name: "N", Email: "n@example.com"}); err != nil {
		t.Fatal(err)
	}
	nc, err := store.CountConversations(ctx)
	if err != nil || nc != 1 {
		t.Errorf("CountConversations = %d, %v", nc, err)
	}
	nl, err := store.CountLeads(ctx)
	if err != nil || nl != 1 {
		t.Errorf("CountLeads = %d, %v", nl, err)
	}
}
