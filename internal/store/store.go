// Package store provides the vector-store capability: a key-value store of
// (text, embedding) pairs keyed by string ID, with bulk upsert, key listing
// and top-k nearest-neighbor queries under a declared distance metric.
//
// Stores are single-writer. Two processes writing the same collection are
// not supported and can break the "already indexed" check built on IDs.
package store

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sort"
)

// ErrDimensionMismatch is returned when a vector's length differs from the
// dimension already used by the collection.
var ErrDimensionMismatch = errors.New("embedding dimension mismatch")

// Entry is one stored chunk.
type Entry struct {
	ID        string
	Text      string
	Embedding []float32
	Metadata  map[string]string
}

// Match is a query hit. Lower Distance means closer.
type Match struct {
	ID       string
	Text     string
	Distance float64
}

// Store is the persistence layer behind the vector index.
type Store interface {
	// Upsert inserts or replaces entries in one operation. Either all entries
	// are written or none are.
	Upsert(ctx context.Context, entries []Entry) error

	// IDs lists every stored ID.
	IDs(ctx context.Context) ([]string, error)

	// Count returns the number of stored entries.
	Count(ctx context.Context) (int, error)

	// Nearest returns up to k entries closest to query, ordered by ascending
	// distance. An empty store yields no matches.
	Nearest(ctx context.Context, query []float32, k int) ([]Match, error)

	// Metric reports how distances are measured.
	Metric() Metric

	Close() error
}

// Backend names accepted by Open.
const (
	BackendChromem = "chromem"
	BackendSQLite  = "sqlite"
	BackendMemory  = "memory"
)

// Options configures Open.
type Options struct {
	Backend    string
	Dir        string
	Collection string
	Compress   bool
}

// Open creates the store selected by opts.Backend.
func Open(opts Options) (Store, error) {
	switch opts.Backend {
	case BackendChromem, "":
		return NewChromemStore(opts.Dir, opts.Collection, opts.Compress)
	case BackendSQLite:
		return NewSQLiteStore(opts.Dir, opts.Collection)
	case BackendMemory:
		return NewMemoryStore(Cosine), nil
	default:
		return nil, fmt.Errorf("unknown store backend: %s", opts.Backend)
	}
}

// checkDimensions verifies all entries have the same non-zero dimension and
// that it equals want when want > 0. It returns the batch dimension.
func checkDimensions(entries []Entry, want int) (int, error) {
	dim := want
	for _, e := range entries {
		if e.ID == "" {
			return 0, errors.New("entry ID must be set")
		}
		if len(e.Embedding) == 0 {
			return 0, fmt.Errorf("entry %s has no embedding", e.ID)
		}
		if dim == 0 {
			dim = len(e.Embedding)
		}
		if len(e.Embedding) != dim {
			return 0, fmt.Errorf("%w: entry %s has %d, collection uses %d",
				ErrDimensionMismatch, e.ID, len(e.Embedding), dim)
		}
	}
	return dim, nil
}

type scored struct {
	id       string
	text     string
	distance float64
}

// topK sorts candidates by ascending distance, breaking ties by ID, and keeps
// the first k.
func topK(cands []scored, k int) []Match {
	sort.SliceStable(cands, func(i, j int) bool {
		if cands[i].distance != cands[j].distance {
			return cands[i].distance < cands[j].distance
		}
		return cands[i].id < cands[j].id
	})
	if k > len(cands) {
		k = len(cands)
	}
	out := make([]Match, 0, k)
	for _, c := range cands[:k] {
		out = append(out, Match{ID: c.id, Text: c.text, Distance: c.distance})
	}
	return out
}

func clamp01(x float64) float64 {
	if math.IsNaN(x) {
		return 0
	}
	return math.Max(0, math.Min(1, x))
}
