// Package integration exercises the full chat-to-lead flow against real
// storage and the in-memory keyword index (providers mocked).
package integration

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"go.uber.org/zap"

	"github.com/metalogics/leadchat/internal/chat"
	"github.com/metalogics/leadchat/internal/embedding"
	"github.com/metalogics/leadchat/internal/generator"
	"github.com/metalogics/leadchat/internal/keyword"
	"github.com/metalogics/leadchat/internal/knowledge"
	"github.com/metalogics/leadchat/internal/lead"
	"github.com/metalogics/leadchat/internal/mailer"
	"github.com/metalogics/leadchat/internal/models"
	"github.com/metalogics/leadchat/internal/retrieval"
	"github.com/metalogics/leadchat/internal/storage"
)

func TestIntegration_ChatToLead(t *testing.T) {
	dir := t.TempDir()
	logger := zap.NewNop()

	kbPath := filepath.Join(dir, "kb.json")
	docs := []models.Document{
		{ID: "services", Title: "Our Services", Content: "We build web platforms, mobile apps, and AI integrations.", URL: "https://example.com/services"},
		{ID: "process", Title: "Our Process", Content: "Every project starts with a discovery call and a fixed-scope proposal.", URL: "https://example.com/process"},
	}
	data, err := json.Marshal(docs)
	if err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(kbPath, data, 0644); err != nil {
		t.Fatal(err)
	}

	kstore := knowledge.NewStore(kbPath, logger)
	if err := kstore.Load(); err != nil {
		t.Fatal(err)
	}
	kwIndex, err := keyword.NewIndex()
	if err != nil {
		t.Fatal(err)
	}
	defer kwIndex.Close()
	if err := kwIndex.Rebuild(kstore.Snapshot().Documents); err != nil {
		t.Fatal(err)
	}

	store, err := storage.NewSQLiteStorage(filepath.Join(dir, "leadchat.db"))
	if err != nil {
		t.Fatal(err)
	}
	defer store.Close()

	embedder := embedding.NewMockProvider(8)
	embedder.Fixed = []float32{0, 1, 0, 0, 0, 0, 0, 0}
	completion := &generator.MockCompletion{Reply: "Yes, we build mobile apps. Want to set up a discovery call?"}

	pipeline := chat.NewPipeline(
		retrieval.NewRetriever(kstore, embedder, embedding.NewCache(), logger),
		generator.NewGenerator(completion, generator.Options{}, logger),
		lead.NewDetector(),
		store,
		chat.Options{},
		logger,
	)
	leads := lead.NewService(store, &mailer.LogMailer{Logger: logger}, logger)
	ctx := context.Background()

	// Visitor chats and trips the lead trigger.
	turn, err := pipeline.HandleUserMessage(ctx, "", "Do you build mobile apps? I'd like to schedule a call.", chat.ClientInfo{IP: "203.0.113.9"})
	if err != nil {
		t.Fatal(err)
	}
	if turn.Confidence != models.ConfidenceHigh {
		t.Errorf("Confidence = %q, want high", turn.Confidence)
	}
	if !turn.ShouldCaptureLead {
		t.Fatal("'schedule' should trip lead capture")
	}

	// Widget captures the lead against the same session.
	captured, err := leads.Capture(ctx, lead.CaptureRequest{
		Name:      "Grace Hopper",
		Email:     "grace@example.com",
		Company:   "Navy Labs",
		SessionID: turn.SessionID,
	})
	if err != nil {
		t.Fatal(err)
	}

	conv, err := store.GetConversation(ctx, turn.SessionID)
	if err != nil {
		t.Fatal(err)
	}
	if !conv.LeadCaptured || conv.LeadID != captured.ID {
		t.Errorf("conversation lead linkage = captured=%t leadID=%q, want %q", conv.LeadCaptured, conv.LeadID, captured.ID)
	}

	// Second turn on the same session keeps the history growing.
	if _, err := pipeline.HandleUserMessage(ctx, turn.SessionID, "great, what does your process look like?", chat.ClientInfo{}); err != nil {
		t.Fatal(err)
	}
	conv, err = store.GetConversation(ctx, turn.SessionID)
	if err != nil {
		t.Fatal(err)
	}
	if len(conv.Messages) != 4 {
		t.Errorf("got %d messages after two turns, want 4", len(conv.Messages))
	}

	// Admin keyword search finds the process document.
	hits, err := kwIndex.Search("discovery proposal", 5)
	if err != nil {
		t.Fatal(err)
	}
	if len(hits) == 0 || hits[0].Document.ID != "process" {
		t.Errorf("keyword hits = %+v, want process first", hits)
	}

	// Everything above survived in real storage.
	leadCount, err := store.CountLeads(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if leadCount != 1 {
		t.Errorf("lead count = %d, want 1", leadCount)
	}
}

func TestIntegration_CorpusReloadKeepsCacheForUnchangedDocs(t *testing.T) {
	dir := t.TempDir()
	logger := zap.NewNop()

	kbPath := filepath.Join(dir, "kb.json")
	write := func(docs []models.Document) {
		t.Helper()
		data, err := json.Marshal(docs)
		if err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(kbPath, data, 0644); err != nil {
			t.Fatal(err)
		}
	}
	write([]models.Document{
		{ID: "a", Title: "A", Content: "alpha content"},
		{ID: "b", Title: "B", Content: "beta content"},
	})

	kstore := knowledge.NewStore(kbPath, logger)
	if err := kstore.Load(); err != nil {
		t.Fatal(err)
	}

	embedder := embedding.NewMockProvider(8)
	embedder.Fixed = []float32{1, 0, 0, 0, 0, 0, 0, 0}
	cache := embedding.NewCache()
	retriever := retrieval.NewRetriever(kstore, embedder, cache, logger)
	ctx := context.Background()

	if _, err := retriever.Retrieve(ctx, "query", 3, 0.5); err != nil {
		t.Fatal(err)
	}
	// Query + both documents.
	if got := embedder.Calls(); got != 3 {
		t.Fatalf("calls after first retrieve = %d, want 3", got)
	}

	// Change only document b; a's cached vector must survive the reload.
	write([]models.Document{
		{ID: "a", Title: "A", Content: "alpha content"},
		{ID: "b", Title: "B", Content: "beta content revised"},
	})
	if err := kstore.Reload(); err != nil {
		t.Fatal(err)
	}
	if _, err := retriever.Retrieve(ctx, "query", 3, 0.5); err != nil {
		t.Fatal(err)
	}
	// One more for the query, one more for the changed document.
	if got := embedder.Calls(); got != 5 {
		t.Errorf("calls after reload = %d, want 5", got)
	}
}
