package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/lib/pq"
)

const createDocumentsTable = `CREATE TABLE IF NOT EXISTS documents (
	name       TEXT PRIMARY KEY,
	body       TEXT NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL
)`

// PostgresBackend keeps documents as rows of a single documents table. The
// body column is TEXT so that unparsable content is surfaced the same way as
// on the file backend.
type PostgresBackend struct {
	db *sql.DB
}

// NewPostgresBackend connects and ensures the documents table exists
func NewPostgresBackend(ctx context.Context, databaseURL string) (*PostgresBackend, error) {
	db, err := sql.Open("postgres", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(2)
	db.SetConnMaxLifetime(5 * time.Minute)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}
	if _, err := db.ExecContext(ctx, createDocumentsTable); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create documents table: %w", err)
	}

	return &PostgresBackend{db: db}, nil
}

func (b *PostgresBackend) Kind() string { return "postgres" }

func (b *PostgresBackend) Read(ctx context.Context, name string) ([]byte, error) {
	var body string
	err := b.db.QueryRowContext(ctx, "SELECT body FROM documents WHERE name = $1", name).Scan(&body)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read document: %w", err)
	}
	return []byte(body), nil
}

// Write upserts the document in a single statement
func (b *PostgresBackend) Write(ctx context.Context, name string, data []byte) error {
	_, err := b.db.ExecContext(ctx,
		`INSERT INTO documents (name, body, updated_at) VALUES ($1, $2, $3)
		 ON CONFLICT (name) DO UPDATE SET body = EXCLUDED.body, updated_at = EXCLUDED.updated_at`,
		name, string(data), time.Now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("failed to write document: %w", err)
	}
	return nil
}

func (b *PostgresBackend) Stat(ctx context.Context, name string) (Info, error) {
	var updated time.Time
	err := b.db.QueryRowContext(ctx, "SELECT updated_at FROM documents WHERE name = $1", name).Scan(&updated)
	if err == sql.ErrNoRows {
		return Info{}, ErrNotFound
	}
	if err != nil {
		return Info{}, fmt.Errorf("failed to stat document: %w", err)
	}
	return Info{Name: name, Location: "postgres:documents/" + name, Modified: updated}, nil
}

func (b *PostgresBackend) Close() error {
	if b.db != nil {
		return b.db.Close()
	}
	return nil
}
