package rag

import (
	"context"
	"fmt"
	"log"
	"strings"

	"github.com/google/uuid"

	"ManualRAG/app/models"
)

// Store binds a vector store to the encoder shared by the write and read
// paths. Embedding-space compatibility is the one hard invariant here:
// whatever encoded the corpus must encode the queries.
type Store struct {
	vectors vectorStore
	encoder models.Encoder
}

func NewStore(vectors vectorStore, encoder models.Encoder) *Store {
	return &Store{
		vectors: vectors,
		encoder: encoder,
	}
}

// EnsureCollection creates the fixed-schema collection if it is missing.
// Safe to call any number of times; a failure here is fatal for the
// caller since neither indexing nor search can proceed.
func (s *Store) EnsureCollection(ctx context.Context) error {
	return s.vectors.EnsureCollection(ctx, VectorSize)
}

// AddDocuments embeds every document, assigns fresh ids and upserts the
// whole set as one batch. Returns the number of points written.
func (s *Store) AddDocuments(ctx context.Context, docs []Document) (int, error) {
	if len(docs) == 0 {
		return 0, nil
	}

	points := make([]Point, 0, len(docs))
	for _, doc := range docs {
		if strings.TrimSpace(doc.Content) == "" {
			return 0, fmt.Errorf("document with empty content from %s", doc.SourceFile)
		}
		vec, err := s.encoder.EmbedText(ctx, doc.Content)
		if err != nil {
			return 0, fmt.Errorf("embed document from %s: %w", doc.SourceFile, err)
		}
		points = append(points, Point{
			ID:     uuid.New().String(),
			Vector: vec,
			Doc:    doc,
		})
	}

	if err := s.vectors.UpsertBatch(ctx, points); err != nil {
		return 0, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	log.Printf("✅ Indexed %d documents", len(points))
	return len(points), nil
}

// Search embeds the query with the corpus encoder and returns up to
// limit payloads, most similar first.
func (s *Store) Search(ctx context.Context, query string, limit int) ([]Document, error) {
	vec, err := s.encoder.EmbedText(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}
	return s.vectors.Query(ctx, vec, limit)
}

func (s *Store) Close() error {
	return s.vectors.Close()
}
