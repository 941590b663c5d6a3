// Package rag owns the retrievable document model and the vector store
// that embeds, persists and searches it.
package rag

import (
	"context"
	"errors"
)

// ErrStoreUnavailable reports a write the vector store could not accept.
// Callers distinguish it from per-document errors: a store that rejects
// one batch will reject them all, so indexing cannot proceed.
var ErrStoreUnavailable = errors.New("vector store unavailable")

const (
	// VectorSize is the embedding dimensionality shared by the ingest and
	// query paths. The collection schema is fixed to this size with cosine
	// distance.
	VectorSize = 384

	DefaultCollection = "manuals_rag"
)

type Kind string

const (
	KindText             Kind = "text"
	KindImageDescription Kind = "image_desc"
)

// Document is one unit of retrievable content: a text passage or the
// generated description of an extracted diagram.
type Document struct {
	Content    string `json:"content"`
	Kind       Kind   `json:"type"`
	ImagePath  string `json:"path,omitempty"`
	SourceFile string `json:"source_file"`
}

// Point is a Document paired with its embedding, as persisted in the
// vector store.
type Point struct {
	ID     string
	Vector []float32
	Doc    Document
}

type vectorStore interface {
	EnsureCollection(ctx context.Context, vectorSize int) error
	UpsertBatch(ctx context.Context, points []Point) error
	Query(ctx context.Context, vector []float32, limit int) ([]Document, error)
	Close() error
}
