package persistence

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/mattn/go-sqlite3"
	"go.uber.org/zap"

	"github.com/spec-kit/civic-intake/internal/config"
)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS issues (
	seq INTEGER PRIMARY KEY AUTOINCREMENT,
	id TEXT NOT NULL UNIQUE,
	ticket_id TEXT NOT NULL UNIQUE,
	category TEXT NOT NULL,
	title TEXT NOT NULL DEFAULT '',
	address TEXT NOT NULL DEFAULT '',
	description TEXT NOT NULL DEFAULT '',
	content_hash TEXT NOT NULL UNIQUE,
	original_text TEXT NOT NULL DEFAULT '',
	latitude REAL,
	longitude REAL,
	language TEXT NOT NULL DEFAULT '',
	photo TEXT NOT NULL DEFAULT '',
	status TEXT NOT NULL DEFAULT 'new',
	users TEXT NOT NULL DEFAULT '[]',
	issue_count INTEGER NOT NULL DEFAULT 1,
	reporter_name TEXT NOT NULL DEFAULT '',
	created_at TEXT NOT NULL DEFAULT '',
	updated_at TEXT NOT NULL DEFAULT '',
	updated_by_email TEXT NOT NULL DEFAULT '',
	in_progress_at TEXT NOT NULL DEFAULT '',
	completed_at TEXT NOT NULL DEFAULT '',
	admin_completed_at TEXT NOT NULL DEFAULT '',
	admin_completed_by TEXT NOT NULL DEFAULT '',
	user_completed_at TEXT NOT NULL DEFAULT '',
	user_completed_by TEXT NOT NULL DEFAULT ''
);

CREATE INDEX IF NOT EXISTS idx_issues_category ON issues(category, seq);
CREATE INDEX IF NOT EXISTS idx_issues_status ON issues(status);

CREATE TABLE IF NOT EXISTS users (
	id TEXT PRIMARY KEY,
	name TEXT NOT NULL DEFAULT '',
	email TEXT NOT NULL UNIQUE,
	phone TEXT NOT NULL DEFAULT '',
	password_hash TEXT NOT NULL,
	role TEXT NOT NULL,
	department_id TEXT NOT NULL DEFAULT '',
	active BOOLEAN NOT NULL DEFAULT 1,
	created_at DATETIME NOT NULL,
	updated_at DATETIME NOT NULL
);
`

// SQLite wraps a database/sql handle on a SQLite file.
type SQLite struct {
	DB *sql.DB
}

// NewSQLite opens (creating if needed) the database at cfg.Path and applies the schema.
func NewSQLite(ctx context.Context, cfg config.SQLiteConfig, logger *zap.Logger) (*SQLite, error) {
	dsn := fmt.Sprintf("file:%s?_busy_timeout=5000&_foreign_keys=on", cfg.Path)
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	// One writer at a time keeps read-modify-write updates serialized.
	db.SetMaxOpenConns(1)

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping sqlite: %w", err)
	}
	if _, err := db.ExecContext(ctx, sqliteSchema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("apply sqlite schema: %w", err)
	}

	logger.Info("opened sqlite database", zap.String("path", cfg.Path))
	return &SQLite{DB: db}, nil
}

// Close releases the database handle.
func (s *SQLite) Close() {
	if s != nil && s.DB != nil {
		_ = s.DB.Close()
	}
}
