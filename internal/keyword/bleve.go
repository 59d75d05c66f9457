// Package keyword provides a Bleve keyword index over the knowledge corpus.
package keyword

import (
	"fmt"
	"sync"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/analysis/analyzer/standard"

	"github.com/metalogics/leadchat/internal/models"
)

// Result is one keyword search hit.
type Result struct {
	Document models.Document `json:"document"`
	Score    float64         `json:"score"`
}

// Index is an in-memory keyword index over the active corpus, rebuilt
// wholesale on corpus reload. It backs the admin knowledge-search endpoint;
// the retrieval pipeline does not use it.
type Index struct {
	mu    sync.RWMutex
	index bleve.Index
	docs  map[string]models.Document
}

// NewIndex creates an empty in-memory index.
func NewIndex() (*Index, error) {
	idx, err := newBleve()
	if err != nil {
		return nil, err
	}
	return &Index{index: idx, docs: make(map[string]models.Document)}, nil
}

func newBleve() (bleve.Index, error) {
	im := bleve.NewIndexMapping()
	docMapping := bleve.NewDocumentMapping()
	textFieldMapping := bleve.NewTextFieldMapping()
	// Standard analyzer (lowercase + tokenize, no stemming) so queries match
	// exact words in titles and content.
	textFieldMapping.Analyzer = standard.Name
	docMapping.AddFieldMappingsAt("content", textFieldMapping)
	docMapping.AddFieldMappingsAt("title", textFieldMapping)
	keywordFieldMapping := bleve.NewKeywordFieldMapping()
	docMapping.AddFieldMappingsAt("category", keywordFieldMapping)
	im.AddDocumentMapping("document", docMapping)
	im.DefaultType = "document"
	im.DefaultMapping = docMapping

	idx, err := bleve.NewMemOnly(im)
	if err != nil {
		return nil, fmt.Errorf("failed to create Bleve index: %w", err)
	}
	return idx, nil
}

// Rebuild replaces the index contents with the given corpus.
func (x *Index) Rebuild(docs []models.Document) error {
	fresh, err := newBleve()
	if err != nil {
		return err
	}
	byID := make(map[string]models.Document, len(docs))
	batch := fresh.NewBatch()
	for _, doc := range docs {
		byID[doc.ID] = doc
		if err := batch.Index(doc.ID, doc); err != nil {
			return fmt.Errorf("failed to index document %q: %w", doc.ID, err)
		}
	}
	if err := fresh.Batch(batch); err != nil {
		return fmt.Errorf("failed to apply index batch: %w", err)
	}

	x.mu.Lock()
	old := x.index
	x.index = fresh
	x.docs = byID
	x.mu.Unlock()
	return old.Close()
}

// Search runs a match query over title and content and returns up to limit
// results.
func (x *Index) Search(query string, limit int) ([]Result, error) {
	if limit <= 0 {
		limit = 10
	}
	x.mu.RLock()
	idx := x.index
	docs := x.docs
	x.mu.RUnlock()

	req := bleve.NewSearchRequest(bleve.NewMatchQuery(query))
	req.Size = limit
	results, err := idx.Search(req)
	if err != nil {
		return nil, fmt.Errorf("Bleve search failed: %w", err)
	}
	out := make([]Result, 0, len(results.Hits))
	for _, hit := range results.Hits {
		doc, ok := docs[hit.ID]
		if !ok {
			continue
		}
		out = append(out, Result{Document: doc, Score: hit.Score})
	}
	return out, nil
}

// Size returns the number of indexed documents.
func (x *Index) Size() int {
	x.mu.RLock()
	defer x.mu.RUnlock()
	return len(x.docs)
}

// Close releases the index.
func (x *Index) Close() error {
	x.mu.Lock()
	defer x.mu.Unlock()
	return x.index.Close()
}
