package models

import (
	"context"

	"ManualRAG/app/locales"
)

// Encoder maps arbitrary text to a fixed-length embedding vector. Ingest
// and query paths must share the same Encoder instance.
type Encoder interface {
	EmbedText(ctx context.Context, input string) ([]float32, error)
}

// Vision turns an image into a textual description in the requested
// language. Implementations must return usable text even when the
// underlying model is unreachable.
type Vision interface {
	Describe(ctx context.Context, imagePath string, lang locales.Language) (string, error)
}

// Generator drives the answer model. Probe reports availability before a
// generation attempt; ChatStream restarts per call and is not resumable.
type Generator interface {
	Probe(ctx context.Context) error
	ChatStream(ctx context.Context, model string, messages []Message, fn func(token string)) (string, error)
}

type Message struct {
	Role    string   `json:"role"`
	Content string   `json:"content"`
	Images  []string `json:"images,omitempty"`
}
