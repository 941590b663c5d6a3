// Package storage keeps the ingestion ledger: one record per processed
// manual, so operators can see what made it into the index and when.
package storage

import (
	"context"
	"time"
)

const (
	StatusIndexed     = "indexed"
	StatusPlaceholder = "placeholder"
	StatusFailed      = "failed"
)

type Run struct {
	ID         string    `json:"id" db:"id"`
	SourceFile string    `json:"source_file" db:"source_file"`
	Documents  int       `json:"documents" db:"documents"`
	Status     string    `json:"status" db:"status"`
	Detail     string    `json:"detail" db:"detail"`
	CreatedAt  time.Time `json:"created_at" db:"created_at"`
}

type Interface interface {
	SaveRun(ctx context.Context, run Run) error
	RunsBySource(ctx context.Context, sourceFile string) ([]Run, error)
	History(ctx context.Context, limit int) ([]Run, error)
}
