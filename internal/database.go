package internal

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"
)

// kvTable is the SQLite table backing local key/value storage
const kvTable = "chatStorageKV"

// OpenDatabase opens (creating if needed) a SQLite database and ensures the key/value table exists
func OpenDatabase(path string) (*sql.DB, error) {
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// a single connection keeps :memory: databases shared and serializes writers
	db.SetMaxOpenConns(1)

	// Test connection
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("database ping failed: %w", err)
	}

	if err := EnsureKVTable(db); err != nil {
		db.Close()
		return nil, err
	}

	return db, nil
}

// EnsureKVTable creates the key/value table when missing
func EnsureKVTable(db *sql.DB) error {
	query := "CREATE TABLE IF NOT EXISTS " + kvTable + " (key TEXT PRIMARY KEY, value TEXT)"
	if _, err := db.Exec(query); err != nil {
		return fmt.Errorf("failed to create %s table: %w", kvTable, err)
	}
	return nil
}

// QueryValue reads a single value. ok is false when the key is absent or NULL
func QueryValue(ctx context.Context, db *sql.DB, key string) (value string, ok bool, err error) {
	var v sql.NullString
	err = db.QueryRowContext(ctx, "SELECT value FROM "+kvTable+" WHERE key = ?", key).Scan(&v)
	if err == sql.ErrNoRows {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("query failed: %w", err)
	}
	if !v.Valid {
		return "", false, nil
	}
	return v.String, true, nil
}

// UpsertValue writes a value, replacing any previous one
func UpsertValue(ctx context.Context, db *sql.DB, key, value string) error {
	query := "INSERT INTO " + kvTable + " (key, value) VALUES (?, ?) ON CONFLICT(key) DO UPDATE SET value = excluded.value"
	if _, err := db.ExecContext(ctx, query, key, value); err != nil {
		return fmt.Errorf("upsert failed: %w", err)
	}
	return nil
}

// QueryKeys lists keys matching a LIKE pattern
func QueryKeys(ctx context.Context, db *sql.DB, pattern string) ([]string, error) {
	rows, err := db.QueryContext(ctx, "SELECT key FROM "+kvTable+" WHERE key LIKE ? AND value IS NOT NULL ORDER BY key", pattern)
	if err != nil {
		return nil, fmt.Errorf("query failed: %w", err)
	}
	defer rows.Close()

	var keys []string
	for rows.Next() {
		var key string
		if err := rows.Scan(&key); err != nil {
			return nil, fmt.Errorf("scan failed: %w", err)
		}
		keys = append(keys, key)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration error: %w", err)
	}

	return keys, nil
}
