// Package index maps chunk texts to embeddings in a vector store and answers
// nearest-neighbor queries with similarity scores in [0, 1].
package index

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"doc_chat/internal/embed"
	"doc_chat/internal/errs"
	"doc_chat/internal/store"

	"go.uber.org/zap"
)

// Result is one retrieved chunk. Higher Score is more relevant.
type Result struct {
	ID    string
	Text  string
	Score float64
}

// Index combines an embedder with a vector store.
type Index struct {
	store    store.Store
	embedder embed.Embedder
	logger   *zap.Logger
}

func New(s store.Store, e embed.Embedder, logger *zap.Logger) *Index {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Index{store: s, embedder: e, logger: logger}
}

// ChunkID returns the store key of chunk i of the document baseName.
func ChunkID(baseName string, i int) string {
	return baseName + "_" + strconv.Itoa(i)
}

// ContainsDocument reports whether any stored ID starts with baseName + "_".
//
// The check is a prefix match over every ID, so a document named "a" is
// reported as indexed once "a_b" has been indexed. It costs O(N) in the
// number of stored chunks.
func (x *Index) ContainsDocument(ctx context.Context, baseName string) (bool, error) {
	ids, err := x.store.IDs(ctx)
	if err != nil {
		return false, errs.E(errs.KindIndex, "index.contains", err)
	}
	prefix := baseName + "_"
	for _, id := range ids {
		if strings.HasPrefix(id, prefix) {
			return true, nil
		}
	}
	return false, nil
}

// Add embeds all chunks in one batch and stores them under
// baseName_0..baseName_{n-1}. Existing IDs are overwritten.
func (x *Index) Add(ctx context.Context, baseName string, chunks []string) error {
	if len(chunks) == 0 {
		return nil
	}

	vectors, err := x.embedder.EmbedBatch(ctx, chunks)
	if err != nil {
		return errs.E(errs.KindIndex, "index.add", err)
	}
	if len(vectors) != len(chunks) {
		return errs.Errorf(errs.KindIndex, "index.add",
			"embedder returned %d vectors for %d chunks", len(vectors), len(chunks))
	}

	entries := make([]store.Entry, len(chunks))
	for i, text := range chunks {
		if len(vectors[i]) == 0 || len(vectors[i]) != len(vectors[0]) {
			return errs.Errorf(errs.KindIndex, "index.add",
				"inconsistent embedding dimension for chunk %d: %d vs %d", i, len(vectors[i]), len(vectors[0]))
		}
		entries[i] = store.Entry{
			ID:        ChunkID(baseName, i),
			Text:      text,
			Embedding: vectors[i],
			Metadata: map[string]string{
				"source":      baseName,
				"chunk_index": strconv.Itoa(i),
			},
		}
	}

	if err := x.store.Upsert(ctx, entries); err != nil {
		if errors.Is(err, store.ErrDimensionMismatch) {
			x.logger.Warn("embedding dimension differs from stored vectors",
				zap.String("model", x.embedder.Model()),
				zap.Int("dimension", len(vectors[0])),
			)
		}
		return errs.E(errs.KindIndex, "index.add", err)
	}

	x.logger.Debug("chunks indexed",
		zap.String("document", baseName),
		zap.Int("chunks", len(entries)),
		zap.Int("dimension", len(vectors[0])),
	)
	return nil
}

// Query returns up to topK stored chunks closest to text, ordered by
// non-increasing score. An empty index yields an empty result.
func (x *Index) Query(ctx context.Context, text string, topK int) ([]Result, error) {
	if topK <= 0 {
		return nil, errs.Errorf(errs.KindConfiguration, "index.query",
			"top-k must be positive, got %d", topK)
	}

	count, err := x.store.Count(ctx)
	if err != nil {
		return nil, errs.E(errs.KindIndex, "index.query", err)
	}
	if count == 0 {
		return []Result{}, nil
	}

	vec, err := x.embedder.Embed(ctx, text)
	if err != nil {
		return nil, errs.E(errs.KindIndex, "index.query", fmt.Errorf("embedding query: %w", err))
	}

	matches, err := x.store.Nearest(ctx, vec, topK)
	if err != nil {
		return nil, errs.E(errs.KindIndex, "index.query", err)
	}

	metric := x.store.Metric()
	results := make([]Result, 0, len(matches))
	for _, m := range matches {
		results = append(results, Result{
			ID:    m.ID,
			Text:  m.Text,
			Score: metric.Similarity(m.Distance),
		})
	}
	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Score > results[j].Score
	})
	return results, nil
}
