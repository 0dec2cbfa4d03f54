package registry

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"sync"

	"github.com/agentic-research/populate/api"
	_ "modernc.org/sqlite"
)

const contentTypesTable = `
CREATE TABLE IF NOT EXISTS content_types (
	uid TEXT PRIMARY KEY,
	kind TEXT,
	schema JSON NOT NULL
);`

// WriteSQLite stores content types in the content_types table of dbPath,
// replacing rows with the same UID.
func WriteSQLite(ctx context.Context, dbPath string, types []*api.ContentType) error {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return fmt.Errorf("open sqlite %s: %w", dbPath, err)
	}
	defer func() { _ = db.Close() }() // safe to ignore

	if _, err := db.ExecContext(ctx, contentTypesTable); err != nil {
		return fmt.Errorf("create content_types: %w", err)
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer func() { _ = tx.Rollback() }() // no-op after commit

	stmt, err := tx.PrepareContext(ctx, "INSERT OR REPLACE INTO content_types (uid, kind, schema) VALUES (?, ?, ?)")
	if err != nil {
		return fmt.Errorf("prepare insert: %w", err)
	}
	defer func() { _ = stmt.Close() }()

	for _, ct := range types {
		raw, err := json.Marshal(ct)
		if err != nil {
			return fmt.Errorf("encode %s: %w", ct.UID, err)
		}
		if _, err := stmt.ExecContext(ctx, ct.UID, ct.Kind, string(raw)); err != nil {
			return fmt.Errorf("insert %s: %w", ct.UID, err)
		}
	}
	return tx.Commit()
}

// SQLiteRegistry resolves content types from a database written by
// WriteSQLite. Decoded schemas are cached; the database is opened read-only.
type SQLiteRegistry struct {
	db *sql.DB

	mu    sync.Mutex
	cache map[string]*api.ContentType
}

// OpenSQLite opens dbPath for resolving.
func OpenSQLite(dbPath string) (*SQLiteRegistry, error) {
	if _, err := os.Stat(dbPath); err != nil {
		return nil, fmt.Errorf("stat %s: %w", dbPath, err)
	}
	db, err := sql.Open("sqlite", dbPath+"?mode=ro")
	if err != nil {
		return nil, fmt.Errorf("open sqlite %s: %w", dbPath, err)
	}
	db.SetMaxOpenConns(4)
	return &SQLiteRegistry{
		db:    db,
		cache: make(map[string]*api.ContentType),
	}, nil
}

// Resolve implements Resolver.
func (r *SQLiteRegistry) Resolve(ctx context.Context, uid string) (*api.ContentType, error) {
	r.mu.Lock()
	ct, ok := r.cache[uid]
	r.mu.Unlock()
	if ok {
		return ct, nil
	}

	var raw string
	err := r.db.QueryRowContext(ctx, "SELECT schema FROM content_types WHERE uid = ?", uid).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, &UnknownSchemaError{UID: uid}
	}
	if err != nil {
		return nil, fmt.Errorf("resolve content type %s: %w", uid, err)
	}

	ct = &api.ContentType{}
	if err := json.Unmarshal([]byte(raw), ct); err != nil {
		return nil, fmt.Errorf("parse content type %s: %w", uid, err)
	}

	r.mu.Lock()
	r.cache[uid] = ct
	r.mu.Unlock()
	return ct, nil
}

// UIDs implements Catalog.
func (r *SQLiteRegistry) UIDs(ctx context.Context) ([]string, error) {
	rows, err := r.db.QueryContext(ctx, "SELECT uid FROM content_types ORDER BY uid")
	if err != nil {
		return nil, fmt.Errorf("query content_types: %w", err)
	}
	defer func() { _ = rows.Close() }() // safe to ignore

	var uids []string
	for rows.Next() {
		var uid string
		if err := rows.Scan(&uid); err != nil {
			return nil, fmt.Errorf("scan row: %w", err)
		}
		uids = append(uids, uid)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate rows: %w", err)
	}
	return uids, nil
}

// Close closes the database.
func (r *SQLiteRegistry) Close() error {
	return r.db.Close()
}
