package internal

import (
	"context"
	"database/sql"
	"fmt"
)

// KVStore is the local key/value storage the session store persists into
type KVStore interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, value string) error
	Keys(ctx context.Context) ([]string, error)
	Close() error
}

// SQLiteKV stores values in the chatStorageKV table of a SQLite database
type SQLiteKV struct {
	db   *sql.DB
	path string
}

// NewSQLiteKV wraps an already opened database
func NewSQLiteKV(db *sql.DB) *SQLiteKV {
	return &SQLiteKV{db: db, path: ":memory:"}
}

// OpenSQLiteKV opens the database at path
func OpenSQLiteKV(path string) (*SQLiteKV, error) {
	db, err := OpenDatabase(path)
	if err != nil {
		return nil, &StorageError{Backend: "sqlite", Op: "open", Key: path, Err: err}
	}
	return &SQLiteKV{db: db, path: path}, nil
}

// Path returns the database file path
func (s *SQLiteKV) Path() string {
	return s.path
}

// Get reads a value
func (s *SQLiteKV) Get(ctx context.Context, key string) (string, bool, error) {
	value, ok, err := QueryValue(ctx, s.db, key)
	if err != nil {
		return "", false, &StorageError{Backend: "sqlite", Op: "get", Key: key, Err: err}
	}
	return value, ok, nil
}

// Set writes a value
func (s *SQLiteKV) Set(ctx context.Context, key, value string) error {
	if err := UpsertValue(ctx, s.db, key, value); err != nil {
		return &StorageError{Backend: "sqlite", Op: "set", Key: key, Err: err}
	}
	return nil
}

// Keys lists the stored keys
func (s *SQLiteKV) Keys(ctx context.Context) ([]string, error) {
	keys, err := QueryKeys(ctx, s.db, "%")
	if err != nil {
		return nil, &StorageError{Backend: "sqlite", Op: "keys", Key: "%", Err: err}
	}
	return keys, nil
}

// Close closes the database
func (s *SQLiteKV) Close() error {
	return s.db.Close()
}

// OpenKV opens the backend selected by the configuration
func OpenKV(ctx context.Context, cfg *Config) (KVStore, error) {
	switch cfg.Backend {
	case BackendSQLite, "":
		return OpenSQLiteKV(cfg.StoragePath)
	case BackendRedis:
		return NewRedisKV(ctx, cfg.Redis)
	default:
		return nil, fmt.Errorf("unsupported storage backend: %s (supported: sqlite, redis)", cfg.Backend)
	}
}
