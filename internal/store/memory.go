package store

import (
	"context"
	"sort"
	"sync"
)

// MemoryStore keeps entries in process memory and ranks them by brute force.
type MemoryStore struct {
	mu        sync.RWMutex
	metric    Metric
	dimension int
	entries   map[string]Entry
}

func NewMemoryStore(metric Metric) *MemoryStore {
	if metric == "" {
		metric = Cosine
	}
	return &MemoryStore{metric: metric, entries: make(map[string]Entry)}
}

func (s *MemoryStore) Upsert(_ context.Context, entries []Entry) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	dim, err := checkDimensions(entries, s.dimension)
	if err != nil {
		return err
	}
	for _, e := range entries {
		vec := make([]float32, len(e.Embedding))
		copy(vec, e.Embedding)
		e.Embedding = vec
		s.entries[e.ID] = e
	}
	if len(entries) > 0 {
		s.dimension = dim
	}
	return nil
}

func (s *MemoryStore) IDs(_ context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ids := make([]string, 0, len(s.entries))
	for id := range s.entries {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids, nil
}

func (s *MemoryStore) Count(_ context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries), nil
}

func (s *MemoryStore) Nearest(_ context.Context, query []float32, k int) ([]Match, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if k <= 0 || len(s.entries) == 0 {
		return nil, nil
	}
	cands := make([]scored, 0, len(s.entries))
	for _, e := range s.entries {
		d, err := s.metric.Distance(query, e.Embedding)
		if err != nil {
			return nil, err
		}
		cands = append(cands, scored{id: e.ID, text: e.Text, distance: d})
	}
	return topK(cands, k), nil
}

func (s *MemoryStore) Metric() Metric {
	return s.metric
}

func (s *MemoryStore) Close() error {
	return nil
}
