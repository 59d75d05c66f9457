package keyword

import (
	"testing"

	"github.com/metalogics/leadchat/internal/models"
)

func corpus() []models.Document {
	return []models.Document{
		{ID: "services", Title: "Our Services", Content: "custom software development and machine learning", Category: "services"},
		{ID: "about", Title: "About Us", Content: "a technology company from Lahore", Category: "company"},
		{ID: "contact", Title: "Contact", Content: "free consultations for new clients", Category: "contact"},
	}
}

func TestIndex_RebuildAndSearch(t *testing.T) {
	idx, err := NewIndex()
	if err != nil {
		t.Fatal(err)
	}
	defer idx.Close()

	if err := idx.Rebuild(corpus()); err != nil {
		t.Fatal(err)
	}
	if idx.Size() != 3 {
		t.Errorf("Size = %d, want 3", idx.Size())
	}

	results, err := idx.Search("machine learning", 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(results) == 0 {
		t.Fatal("expected at least one hit")
	}
	if results[0].Document.ID != "services" {
		t.Errorf("top hit = %q, want services", results[0].Document.ID)
	}
}

func TestIndex_RebuildReplacesContents(t *testing.T) {
	idx, err := NewIndex()
	if err != nil {
		t.Fatal(err)
	}
	defer idx.Close()

	if err := idx.Rebuild(corpus()); err != nil {
		t.Fatal(err)
	}
	if err := idx.Rebuild([]models.Document{
		{ID: "only", Title: "Only", Content: "replacement corpus"},
	}); err != nil {
		t.Fatal(err)
	}

	if idx.Size() != 1 {
		t.Errorf("Size after rebuild = %d, want 1", idx.Size())
	}
	results, err := idx.Search("consultations", 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(results) != 0 {
		t.Error("old corpus still searchable after rebuild")
	}
}

func TestIndex_SearchNoMatches(t *testing.T) {
	idx, err := NewIndex()
	if err != nil {
		t.Fatal(err)
	}
	defer idx.Close()
	if err := idx.Rebuild(corpus()); err != nil {
		t.Fatal(err)
	}

	results, err := idx.Search("zebra quantum blockchain", 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(results) != 0 {
		t.Errorf("got %d results for nonsense query", len(results))
	}
}
