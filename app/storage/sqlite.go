package storage

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

type SQLiteLedger struct {
	db *sql.DB
}

func NewSQLiteLedger(dbPath string) (*SQLiteLedger, error) {
	if dbPath == "" {
		dbPath = filepath.Join("data", "ingestion.db")
	}
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, fmt.Errorf("create ledger dir: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open ledger at %s: %w", dbPath, err)
	}

	if _, err = db.Exec(`
        CREATE TABLE IF NOT EXISTS ingestion_runs (
            id TEXT NOT NULL PRIMARY KEY,
            source_file TEXT NOT NULL,
            documents INTEGER NOT NULL,
            status TEXT NOT NULL,
            detail TEXT NULL,
            created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
        );
        CREATE INDEX IF NOT EXISTS idx_source_file ON ingestion_runs (source_file);
    `); err != nil {
		return nil, fmt.Errorf("create ledger schema: %w", err)
	}

	log.Printf("📂 Ingestion ledger at %s", dbPath)
	return &SQLiteLedger{db: db}, nil
}

func (s *SQLiteLedger) SaveRun(ctx context.Context, run Run) error {
	if run.ID == "" {
		run.ID = uuid.New().String()
	}
	if run.CreatedAt.IsZero() {
		run.CreatedAt = time.Now()
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO ingestion_runs (id, source_file, documents, status, detail, created_at)
		 VALUES (?, ?, ?, ?, ?, datetime(?))`,
		run.ID, run.SourceFile, run.Documents, run.Status, run.Detail,
		run.CreatedAt.Format("2006-01-02 15:04:05"),
	)
	if err != nil {
		return fmt.Errorf("save run for %s: %w", run.SourceFile, err)
	}
	return nil
}

func (s *SQLiteLedger) RunsBySource(ctx context.Context, sourceFile string) ([]Run, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, source_file, documents, status, detail, created_at
		 FROM ingestion_runs WHERE source_file = ? ORDER BY created_at DESC`, sourceFile)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanRuns(rows)
}

func (s *SQLiteLedger) History(ctx context.Context, limit int) ([]Run, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, source_file, documents, status, detail, created_at
		 FROM ingestion_runs ORDER BY created_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanRuns(rows)
}

func (s *SQLiteLedger) Close() error {
	return s.db.Close()
}

func scanRuns(rows *sql.Rows) ([]Run, error) {
	var runs []Run
	for rows.Next() {
		var r Run
		var detail sql.NullString
		if err := rows.Scan(&r.ID, &r.SourceFile, &r.Documents, &r.Status, &detail, &r.CreatedAt); err != nil {
			return nil, err
		}
		r.Detail = detail.String
		runs = append(runs, r)
	}
	return runs, rows.Err()
}
