// Package retrieval scores the knowledge corpus against a query embedding
// and returns the most relevant documents.
package retrieval

import (
	"context"
	"fmt"
	"sort"

	"go.uber.org/zap"

	"github.com/metalogics/leadchat/internal/embedding"
	"github.com/metalogics/leadchat/internal/knowledge"
	"github.com/metalogics/leadchat/internal/models"
	"github.com/metalogics/leadchat/internal/vector"
)

// Retriever finds corpus documents relevant to a free-text query.
//
// Query embeddings are computed per call (distinct free text cannot be cached)
// while document embeddings are filled into the cache lazily on first use and
// reused until the document's content changes. That asymmetry is the cost
// control: the corpus is embedded once, not once per query.
type Retriever struct {
	store    *knowledge.Store
	provider embedding.Provider
	cache    *embedding.Cache
	logger   *zap.Logger
}

// NewRetriever creates a retriever over the given store, provider, and cache.
func NewRetriever(store *knowledge.Store, provider embedding.Provider, cache *embedding.Cache, logger *zap.Logger) *Retriever {
	return &Retriever{store: store, provider: provider, cache: cache, logger: logger}
}

// Retrieve returns up to topK documents scoring above threshold, sorted by
// non-increasing similarity with corpus order breaking ties. An empty result
// is a valid outcome for off-topic queries.
//
// Returns models.ErrEmbeddingUnavailable when the query itself cannot be
// embedded; callers treat that as "no relevant documents", not as a turn
// abort.
func (r *Retriever) Retrieve(ctx context.Context, query string, topK int, threshold float64) ([]models.RetrievalResult, error) {
	queryVec, err := r.provider.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}

	snap := r.store.Snapshot()
	if snap == nil {
		return nil, models.ErrCorpusUnavailable
	}

	results := make([]models.RetrievalResult, 0, snap.Len())
	for _, doc := range snap.Documents {
		docVec, err := r.documentVector(ctx, snap, doc)
		if err != nil {
			// A single unembeddable document is skipped, not fatal.
			r.logger.Warn("skipping document, embedding failed",
				zap.String("document_id", doc.ID), zap.Error(err))
			continue
		}
		results = append(results, models.RetrievalResult{
			Document: doc,
			Score:    vector.CosineSimilarity(queryVec, docVec),
		})
	}

	// Stable sort keeps corpus order for tied scores, so identical inputs
	// produce identical results.
	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Score > results[j].Score
	})

	if topK > 0 && topK < len(results) {
		results = results[:topK]
	}
	filtered := results[:0]
	for _, res := range results {
		if res.Score > threshold {
			filtered = append(filtered, res)
		}
	}
	return filtered, nil
}

// documentVector returns the document's embedding, from cache when its
// content fingerprint still matches, otherwise freshly computed and cached.
func (r *Retriever) documentVector(ctx context.Context, snap *knowledge.Snapshot, doc models.Document) ([]float32, error) {
	fp := snap.Fingerprint(doc.ID)
	if vec, ok := r.cache.Get(doc.ID, fp); ok {
		return vec, nil
	}
	vec, err := r.provider.Embed(ctx, doc.Content)
	if err != nil {
		return nil, err
	}
	r.cache.Put(doc.ID, fp, vec)
	return vec, nil
}
