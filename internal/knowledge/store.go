// Package knowledge loads and serves the knowledge corpus with atomic reload.
package knowledge

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"sync/atomic"

	"github.com/metalogics/leadchat/internal/models"
	"go.uber.org/zap"
)

// Snapshot is an immutable view of the corpus. In-flight retrievals keep the
// snapshot they started with; a reload never exposes a partial corpus.
type Snapshot struct {
	Documents    []models.Document
	fingerprints map[string]string // document ID -> sha256(content)
}

// Fingerprint returns the content fingerprint for a document ID.
func (s *Snapshot) Fingerprint(id string) string {
	return s.fingerprints[id]
}

// Len returns the number of documents in the snapshot.
func (s *Snapshot) Len() int {
	return len(s.Documents)
}

// Store holds the active corpus. Load/Reload swap the snapshot atomically.
type Store struct {
	path     string
	logger   *zap.Logger
	snapshot atomic.Pointer[Snapshot]
}

// NewStore creates a store reading its corpus from the JSON file at path.
func NewStore(path string, logger *zap.Logger) *Store {
	return &Store{path: path, logger: logger}
}

// Load reads the corpus file and installs the first snapshot. When the file
// is missing, unreadable, or invalid, the built-in fallback corpus is
// installed instead so the service can always answer something.
func (s *Store) Load() error {
	snap, err := s.read()
	if err != nil {
		s.logger.Warn("knowledge corpus unavailable, using fallback corpus",
			zap.String("path", s.path), zap.Error(err))
		snap = newSnapshot(FallbackCorpus())
	}
	s.snapshot.Store(snap)
	s.logger.Info("knowledge corpus loaded", zap.Int("documents", snap.Len()))
	return nil
}

// Reload re-reads the corpus file and atomically swaps the active snapshot.
// On failure the previous snapshot stays active and the error is returned.
// Reloading unchanged content yields identical fingerprints, so every cached
// document vector remains valid.
func (s *Store) Reload() error {
	snap, err := s.read()
	if err != nil {
		s.logger.Error("corpus reload failed, keeping previous snapshot",
			zap.String("path", s.path), zap.Error(err))
		return fmt.Errorf("%w: %v", models.ErrCorpusUnavailable, err)
	}
	s.snapshot.Store(snap)
	s.logger.Info("knowledge corpus reloaded", zap.Int("documents", snap.Len()))
	return nil
}

// Snapshot returns the current corpus snapshot. Callers must not mutate it.
func (s *Store) Snapshot() *Snapshot {
	return s.snapshot.Load()
}

func (s *Store) read() (*Snapshot, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		return nil, fmt.Errorf("read corpus file: %w", err)
	}
	var docs []models.Document
	if err := json.Unmarshal(data, &docs); err != nil {
		return nil, fmt.Errorf("parse corpus file: %w", err)
	}
	if err := validate(docs); err != nil {
		return nil, err
	}
	if len(docs) == 0 {
		return nil, fmt.Errorf("corpus file is empty")
	}
	return newSnapshot(docs), nil
}

func validate(docs []models.Document) error {
	seen := make(map[string]bool, len(docs))
	for i, doc := range docs {
		if doc.ID == "" {
			return fmt.Errorf("document %d has empty id", i)
		}
		if doc.Content == "" {
			return fmt.Errorf("document %q has empty content", doc.ID)
		}
		if seen[doc.ID] {
			return fmt.Errorf("duplicate document id %q", doc.ID)
		}
		seen[doc.ID] = true
	}
	return nil
}

func newSnapshot(docs []models.Document) *Snapshot {
	fps := make(map[string]string, len(docs))
	for _, doc := range docs {
		fps[doc.ID] = ContentFingerprint(doc.Content)
	}
	return &Snapshot{Documents: docs, fingerprints: fps}
}

// ContentFingerprint returns the hex sha256 of content. Embedding cache
// entries are keyed by (document ID, fingerprint) so a changed document can
// never be scored against a stale vector.
func ContentFingerprint(content string) string {
	sum := sha256.Sum256([]byte(content))
	return hex.EncodeToString(sum[:])
}
