package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"sync"

	"doc_chat/internal/fsutil"

	"github.com/philippgille/chromem-go"
	"github.com/spf13/afero"
)

// ChromemStore persists entries in a chromem-go database on disk. Vectors are
// stored normalized and compared by cosine similarity.
//
// chromem has no way to list document IDs, so the store keeps a manifest next
// to the database with the collection dimension and every stored ID. If the
// manifest is lost, stored entries stay queryable but are not listed, and
// re-indexing overwrites them in place.
type ChromemStore struct {
	mu           sync.Mutex
	db           *chromem.DB
	coll         *chromem.Collection
	fs           afero.Fs
	manifestPath string
	manifest     manifest
	ids          map[string]struct{}
}

type manifest struct {
	Collection string   `json:"collection"`
	Dimension  int      `json:"dimension"`
	IDs        []string `json:"ids"`
}

// NewChromemStore opens (or creates) the collection under dir.
func NewChromemStore(dir, collection string, compress bool) (*ChromemStore, error) {
	if collection == "" {
		return nil, errors.New("collection name is required")
	}
	dbDir := filepath.Join(dir, "chromem")
	if err := os.MkdirAll(dbDir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create store dir: %w", err)
	}

	db, err := chromem.NewPersistentDB(dbDir, compress)
	if err != nil {
		return nil, fmt.Errorf("failed to open chromem db: %w", err)
	}
	// embeddings are always supplied, so no embedding func is needed
	coll, err := db.GetOrCreateCollection(collection, nil, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to open collection %s: %w", collection, err)
	}

	s := &ChromemStore{
		db:           db,
		coll:         coll,
		fs:           afero.NewOsFs(),
		manifestPath: filepath.Join(dir, collection+".manifest.json"),
		manifest:     manifest{Collection: collection},
		ids:          make(map[string]struct{}),
	}
	if err := s.loadManifest(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *ChromemStore) loadManifest() error {
	data, err := afero.ReadFile(s.fs, s.manifestPath)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to read manifest: %w", err)
	}
	if err := json.Unmarshal(data, &s.manifest); err != nil {
		return fmt.Errorf("failed to decode manifest %s: %w", s.manifestPath, err)
	}
	for _, id := range s.manifest.IDs {
		s.ids[id] = struct{}{}
	}
	return nil
}

func (s *ChromemStore) Upsert(ctx context.Context, entries []Entry) error {
	if len(entries) == 0 {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	dim, err := checkDimensions(entries, s.manifest.Dimension)
	if err != nil {
		return err
	}

	docs := make([]chromem.Document, 0, len(entries))
	for _, e := range entries {
		docs = append(docs, chromem.Document{
			ID:        e.ID,
			Content:   e.Text,
			Embedding: normalized(e.Embedding),
			Metadata:  e.Metadata,
		})
	}
	if err := s.coll.AddDocuments(ctx, docs, runtime.NumCPU()); err != nil {
		return fmt.Errorf("failed to add documents: %w", err)
	}

	for _, e := range entries {
		s.ids[e.ID] = struct{}{}
	}
	s.manifest.Dimension = dim
	s.manifest.IDs = s.sortedIDs()
	if err := fsutil.WriteJSONAtomic(s.fs, s.manifestPath, s.manifest); err != nil {
		return fmt.Errorf("failed to write manifest: %w", err)
	}
	return nil
}

func (s *ChromemStore) IDs(_ context.Context) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sortedIDs(), nil
}

func (s *ChromemStore) sortedIDs() []string {
	ids := make([]string, 0, len(s.ids))
	for id := range s.ids {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

func (s *ChromemStore) Count(_ context.Context) (int, error) {
	return s.coll.Count(), nil
}

func (s *ChromemStore) Nearest(ctx context.Context, query []float32, k int) ([]Match, error) {
	s.mu.Lock()
	dim := s.manifest.Dimension
	s.mu.Unlock()

	count := s.coll.Count()
	if k <= 0 || count == 0 {
		return nil, nil
	}
	if dim > 0 && len(query) != dim {
		return nil, fmt.Errorf("%w: query has %d, collection uses %d", ErrDimensionMismatch, len(query), dim)
	}
	// chromem rejects nResults above the collection size
	if k > count {
		k = count
	}

	results, err := s.coll.QueryEmbedding(ctx, normalized(query), k, nil, nil)
	if err != nil {
		return nil, fmt.Errorf("query failed: %w", err)
	}

	cands := make([]scored, 0, len(results))
	for _, r := range results {
		cands = append(cands, scored{id: r.ID, text: r.Content, distance: 1 - float64(r.Similarity)})
	}
	return topK(cands, k), nil
}

func (s *ChromemStore) Metric() Metric {
	return Cosine
}

func (s *ChromemStore) Close() error {
	return nil
}

