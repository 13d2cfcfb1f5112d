// Package history records question/answer exchanges per tenant.
package history

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

// Exchange is one recorded question and answer.
type Exchange struct {
	ID       string
	Tenant   string
	Question string
	Answer   string
	// Document is the active document name, empty for ungrounded answers.
	Document  string
	Quiz      bool
	CreatedAt time.Time
}

const schema = `
CREATE TABLE IF NOT EXISTS exchanges (
    id         TEXT PRIMARY KEY,
    tenant     TEXT NOT NULL,
    question   TEXT NOT NULL,
    answer     TEXT NOT NULL,
    document   TEXT NOT NULL DEFAULT '',
    quiz       INTEGER NOT NULL DEFAULT 0,
    created_at TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS exchanges_tenant_created ON exchanges(tenant, created_at);
`

// timeLayout has fixed width so that created_at sorts lexically.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

// SQLiteStore persists exchanges in a SQLite database.
type SQLiteStore struct {
	db *sql.DB
}

// Open opens or creates the database at path. ":memory:" keeps everything in
// process memory.
func Open(path string) (*SQLiteStore, error) {
	dsn := path
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("history: create directory: %w", err)
		}
		dsn = path + "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)"
	}
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("history: open database: %w", err)
	}
	// a single connection keeps :memory: databases shared and serializes writers
	db.SetMaxOpenConns(1)
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("history: migrate: %w", err)
	}
	return &SQLiteStore{db: db}, nil
}

// Close closes the database.
func (s *SQLiteStore) Close() error { return s.db.Close() }

// Record stores ex, assigning an id and timestamp when they are unset.
func (s *SQLiteStore) Record(ctx context.Context, ex Exchange) (Exchange, error) {
	if ex.ID == "" {
		ex.ID = uuid.NewString()
	}
	if ex.CreatedAt.IsZero() {
		ex.CreatedAt = time.Now()
	}
	ex.CreatedAt = ex.CreatedAt.UTC()
	quiz := 0
	if ex.Quiz {
		quiz = 1
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO exchanges(id, tenant, question, answer, document, quiz, created_at) VALUES(?, ?, ?, ?, ?, ?, ?)`,
		ex.ID, ex.Tenant, ex.Question, ex.Answer, ex.Document, quiz, ex.CreatedAt.Format(timeLayout))
	if err != nil {
		return Exchange{}, fmt.Errorf("history: insert: %w", err)
	}
	return ex, nil
}

// List returns up to limit exchanges of tenant, newest first.
func (s *SQLiteStore) List(ctx context.Context, tenant string, limit int) ([]Exchange, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, tenant, question, answer, document, quiz, created_at FROM exchanges
		 WHERE tenant = ? ORDER BY created_at DESC, rowid DESC LIMIT ?`, tenant, limit)
	if err != nil {
		return nil, fmt.Errorf("history: query: %w", err)
	}
	defer rows.Close()

	var out []Exchange
	for rows.Next() {
		var (
			ex      Exchange
			quiz    int
			created string
		)
		if err := rows.Scan(&ex.ID, &ex.Tenant, &ex.Question, &ex.Answer, &ex.Document, &quiz, &created); err != nil {
			return nil, fmt.Errorf("history: scan: %w", err)
		}
		ex.Quiz = quiz != 0
		if ex.CreatedAt, err = time.Parse(timeLayout, created); err != nil {
			return nil, fmt.Errorf("history: parse created_at %q: %w", created, err)
		}
		out = append(out, ex)
	}
	return out, rows.Err()
}
