package utils

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

// ErrNotFound is returned when a document does not exist
var ErrNotFound = errors.New("document not found")

// DocumentStore is the key-value persistence service for structured
// records: one JSON document per (collection, id)
type DocumentStore interface {
	SetDocument(ctx context.Context, collection, id string, record map[string]any) error
	GetDocument(ctx context.Context, collection, id string) (map[string]any, error)
	DeleteDocument(ctx context.Context, collection, id string) error
	ListDocuments(ctx context.Context, collection string) (map[string]map[string]any, error)
	DeleteOlderThan(ctx context.Context, collection string, cutoff time.Time) (int64, error)
	Health(ctx context.Context) error
	Close() error
}

// SQLiteDocumentStore implements DocumentStore using SQLite
type SQLiteDocumentStore struct {
	db   *sql.DB
	path string
}

// NewSQLiteDocumentStore creates a new SQLite-backed document store
func NewSQLiteDocumentStore(dbPath string) (*SQLiteDocumentStore, error) {
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(time.Hour)

	ds := &SQLiteDocumentStore{
		db:   db,
		path: dbPath,
	}

	if err := ds.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return ds, nil
}

// initSchema creates the database schema
func (ds *SQLiteDocumentStore) initSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS documents (
		collection TEXT NOT NULL,
		id TEXT NOT NULL,
		data TEXT NOT NULL,
		created_at TIMESTAMP NOT NULL,
		updated_at TIMESTAMP NOT NULL,
		PRIMARY KEY (collection, id)
	);

	CREATE INDEX IF NOT EXISTS idx_documents_collection ON documents(collection);
	CREATE INDEX IF NOT EXISTS idx_documents_updated_at ON documents(updated_at);
	`

	_, err := ds.db.Exec(schema)
	return err
}

// SetDocument writes a record, replacing any existing document with the
// same collection and id
func (ds *SQLiteDocumentStore) SetDocument(ctx context.Context, collection, id string, record map[string]any) error {
	data, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("failed to serialize document: %w", err)
	}

	now := time.Now().UTC()
	query := `
		INSERT INTO documents (collection, id, data, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(collection, id) DO UPDATE SET data = excluded.data, updated_at = excluded.updated_at
	`

	if _, err := ds.db.ExecContext(ctx, query, collection, id, string(data), now, now); err != nil {
		return fmt.Errorf("failed to save document: %w", err)
	}

	return nil
}

// GetDocument retrieves a record or ErrNotFound
func (ds *SQLiteDocumentStore) GetDocument(ctx context.Context, collection, id string) (map[string]any, error) {
	query := `SELECT data FROM documents WHERE collection = ? AND id = ?`

	var data string
	err := ds.db.QueryRowContext(ctx, query, collection, id).Scan(&data)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get document: %w", err)
	}

	var record map[string]any
	if err := json.Unmarshal([]byte(data), &record); err != nil {
		return nil, fmt.Errorf("failed to deserialize document: %w", err)
	}

	return record, nil
}

// DeleteDocument removes a record; deleting a missing document is not an error
func (ds *SQLiteDocumentStore) DeleteDocument(ctx context.Context, collection, id string) error {
	query := `DELETE FROM documents WHERE collection = ? AND id = ?`
	if _, err := ds.db.ExecContext(ctx, query, collection, id); err != nil {
		return fmt.Errorf("failed to delete document: %w", err)
	}
	return nil
}

// ListDocuments returns all records in a collection keyed by id
func (ds *SQLiteDocumentStore) ListDocuments(ctx context.Context, collection string) (map[string]map[string]any, error) {
	query := `SELECT id, data FROM documents WHERE collection = ?`

	rows, err := ds.db.QueryContext(ctx, query, collection)
	if err != nil {
		return nil, fmt.Errorf("failed to list documents: %w", err)
	}
	defer rows.Close()

	records := make(map[string]map[string]any)
	for rows.Next() {
		var id, data string
		if err := rows.Scan(&id, &data); err != nil {
			return nil, fmt.Errorf("failed to scan document: %w", err)
		}

		var record map[string]any
		if err := json.Unmarshal([]byte(data), &record); err != nil {
			return nil, fmt.Errorf("failed to deserialize document %s: %w", id, err)
		}
		records[id] = record
	}

	return records, rows.Err()
}

// DeleteOlderThan removes documents in a collection not updated since cutoff
func (ds *SQLiteDocumentStore) DeleteOlderThan(ctx context.Context, collection string, cutoff time.Time) (int64, error) {
	query := `DELETE FROM documents WHERE collection = ? AND updated_at < ?`

	result, err := ds.db.ExecContext(ctx, query, collection, cutoff.UTC())
	if err != nil {
		return 0, fmt.Errorf("failed to delete old documents: %w", err)
	}

	return result.RowsAffected()
}

// Health checks database connectivity
func (ds *SQLiteDocumentStore) Health(ctx context.Context) error {
	return ds.db.PingContext(ctx)
}

// Close closes the database connection
func (ds *SQLiteDocumentStore) Close() error {
	return ds.db.Close()
}
