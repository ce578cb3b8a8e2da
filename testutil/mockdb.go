package testutil

import (
	"database/sql"
	"testing"

	_ "modernc.org/sqlite"
)

// SessionsKey is the key the session list is stored under
const SessionsKey = "chat-widget-sessions"

// SampleSessionsBlob holds two sessions as a browser would have written them,
// with millisecond timestamps and the legacy "ai" sender
const SampleSessionsBlob = `[
	{
		"id": "1718000000000",
		"title": "Quelles sont les dernières innovations en AgriTech...",
		"messages": [
			{"id": "1718000000001", "content": "Quelles sont les dernières innovations en AgriTech en France ?", "sender": "user", "timestamp": "2024-06-10T06:13:20.001Z"},
			{"id": "1718000001502", "content": "Les dernières innovations en AgriTech incluent l'agriculture de précision.", "sender": "ai", "timestamp": "2024-06-10T06:13:21.502Z"}
		],
		"createdAt": "2024-06-10T06:13:20.000Z",
		"updatedAt": "2024-06-10T06:13:21.502Z"
	},
	{
		"id": "1717000000000",
		"title": "Startups à suivre",
		"messages": [
			{"id": "1717000000001", "content": "Startups à suivre", "sender": "user", "timestamp": "2024-05-29T16:26:40.001Z"}
		],
		"createdAt": "2024-05-29T16:26:40.000Z",
		"updatedAt": "2024-05-29T16:26:40.001Z"
	}
]`

// CreateInMemoryDB creates an in-memory SQLite database for testing
func CreateInMemoryDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		t.Fatalf("Failed to create in-memory database: %v", err)
	}
	// every connection to :memory: is a separate database
	db.SetMaxOpenConns(1)

	createTableSQL := `
	CREATE TABLE IF NOT EXISTS chatStorageKV (
		key TEXT PRIMARY KEY,
		value TEXT
	)`
	if _, err := db.Exec(createTableSQL); err != nil {
		db.Close()
		t.Fatalf("Failed to create chatStorageKV table: %v", err)
	}

	return db
}

// CreateTestDB creates a test database holding SampleSessionsBlob
func CreateTestDB(t *testing.T) *sql.DB {
	t.Helper()
	db := CreateInMemoryDB(t)
	InsertValue(t, db, SessionsKey, SampleSessionsBlob)
	return db
}

// InsertValue inserts or replaces a key/value pair
func InsertValue(t *testing.T, db *sql.DB, key, value string) {
	t.Helper()
	if _, err := db.Exec("INSERT OR REPLACE INTO chatStorageKV (key, value) VALUES (?, ?)", key, value); err != nil {
		t.Fatalf("Failed to insert %s: %v", key, err)
	}
}

// ReadValue returns the stored value for key, failing the test if it is absent
func ReadValue(t *testing.T, db *sql.DB, key string) string {
	t.Helper()
	var value string
	if err := db.QueryRow("SELECT value FROM chatStorageKV WHERE key = ?", key).Scan(&value); err != nil {
		t.Fatalf("Failed to read %s: %v", key, err)
	}
	return value
}
