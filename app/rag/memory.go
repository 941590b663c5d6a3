package rag

import (
	"context"
	"fmt"
	"math"
	"sort"
	"sync"
)

// MemoryStore is an in-process vector store with the same observable
// semantics as the Qdrant one. It backs tests and store-less local runs.
type MemoryStore struct {
	mu      sync.RWMutex
	points  []Point
	dim     int
	created bool
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (s *MemoryStore) EnsureCollection(_ context.Context, vectorSize int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.created {
		if s.dim != vectorSize {
			return fmt.Errorf("collection exists with dimension %d, requested %d", s.dim, vectorSize)
		}
		return nil
	}
	s.created = true
	s.dim = vectorSize
	return nil
}

func (s *MemoryStore) Close() error { return nil }

func (s *MemoryStore) UpsertBatch(_ context.Context, points []Point) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.created {
		return fmt.Errorf("collection does not exist")
	}
	s.points = append(s.points, points...)
	return nil
}

func (s *MemoryStore) Query(_ context.Context, vector []float32, limit int) ([]Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.created {
		return nil, nil
	}

	type scored struct {
		doc   Document
		score float64
	}
	results := make([]scored, 0, len(s.points))
	for _, p := range s.points {
		results = append(results, scored{doc: p.Doc, score: cosineSimilarity(vector, p.Vector)})
	}

	sort.SliceStable(results, func(i, j int) bool {
		return results[i].score > results[j].score
	})
	if len(results) > limit {
		results = results[:limit]
	}

	out := make([]Document, len(results))
	for i, r := range results {
		out[i] = r.doc
	}
	return out, nil
}

func cosineSimilarity(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}
	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}
