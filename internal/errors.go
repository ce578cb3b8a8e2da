package internal

import (
	"errors"
	"fmt"
)

// ErrTransport is the generic failure every reply producer wraps
var ErrTransport = errors.New("transport failure")

// StorageError represents errors accessing the key/value backend
type StorageError struct {
	Backend string // "sqlite", "redis"
	Op      string // "open", "get", "set", "delete"
	Key     string
	Err     error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("storage error: %s %s %s: %v", e.Backend, e.Op, e.Key, e.Err)
}

func (e *StorageError) Unwrap() error {
	return e.Err
}

// ParseError represents errors parsing persisted data
type ParseError struct {
	Source string // "storage", "config"
	Key    string // storage key, session id or file path
	Err    error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse error [%s] %s: %v", e.Source, e.Key, e.Err)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// TransportError represents a failed reply for a session
type TransportError struct {
	SessionID string
	Err       error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("transport error [%s]: %v", e.SessionID, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// ExportError represents errors during export
type ExportError struct {
	Format string
	Path   string
	Err    error
}

func (e *ExportError) Error() string {
	return fmt.Sprintf("export error [%s] %s: %v", e.Format, e.Path, e.Err)
}

func (e *ExportError) Unwrap() error {
	return e.Err
}
