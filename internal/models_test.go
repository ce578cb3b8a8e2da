package internal

import (
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"
)

func TestDeriveTitle(t *testing.T) {
	tests := []struct {
		name string
		text string
		want string
	}{
		{"short", "Bonjour", "Bonjour"},
		{"exactly 50", strings.Repeat("A", 50), strings.Repeat("A", 50)},
		{"51 chars", strings.Repeat("A", 51), strings.Repeat("A", 50) + "..."},
		{"60 chars", strings.Repeat("A", 60), strings.Repeat("A", 50) + "..."},
		{"multibyte", strings.Repeat("é", 55), strings.Repeat("é", 50) + "..."},
		{"emoji counted as one character", strings.Repeat("🌾", 30), strings.Repeat("🌾", 30)},
		{"emoji cut by character", strings.Repeat("🌾", 51), strings.Repeat("🌾", 50) + "..."},
		{"keeps whitespace", "  hello  ", "  hello  "},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := DeriveTitle(tt.text); got != tt.want {
				t.Errorf("DeriveTitle() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestEncodeDecodeSessions(t *testing.T) {
	ts := time.Date(2024, 6, 10, 6, 13, 20, 123000000, time.UTC)
	sessions := []*Session{
		CreateTestSessionWithMessages("s1", []Message{
			CreateTestMessage("m1", SenderUser, "Quelles tendances ?", ts),
			CreateTestMessage("m2", SenderAssistant, "L'IA et la durabilité.", ts.Add(1500*time.Millisecond)),
		}),
		CreateTestSessionWithMessages("s2", nil),
	}

	blob, err := EncodeSessions(sessions)
	if err != nil {
		t.Fatalf("EncodeSessions() error = %v", err)
	}

	var raws []RawSession
	if err := json.Unmarshal([]byte(blob), &raws); err != nil {
		t.Fatalf("Blob is not a JSON array: %v", err)
	}
	if raws[0].CreatedAt != "2024-06-10T06:13:20.123Z" {
		t.Errorf("CreatedAt encoded as %q", raws[0].CreatedAt)
	}
	if raws[1].Messages == nil {
		t.Error("Empty message list encoded as null")
	}

	decoded, err := DecodeSessions(StorageKey, blob)
	if err != nil {
		t.Fatalf("DecodeSessions() error = %v", err)
	}
	if len(decoded) != 2 {
		t.Fatalf("Decoded %d sessions, want 2", len(decoded))
	}
	if decoded[0].ID != "s1" || decoded[1].ID != "s2" {
		t.Error("DecodeSessions() did not preserve order")
	}
	got := decoded[0].Messages[1]
	if got.Sender != SenderAssistant || !got.Timestamp.Equal(ts.Add(1500*time.Millisecond)) {
		t.Errorf("Decoded message = %+v", got)
	}
	if !decoded[0].UpdatedAt.Equal(sessions[0].UpdatedAt) {
		t.Errorf("UpdatedAt = %v, want %v", decoded[0].UpdatedAt, sessions[0].UpdatedAt)
	}
}

func TestDecodeSessions_Senders(t *testing.T) {
	tests := []struct {
		sender string
		want   Sender
	}{
		{"user", SenderUser},
		{"assistant", SenderAssistant},
		{"ai", SenderAssistant},
		{"", SenderUser},
	}

	for _, tt := range tests {
		t.Run(tt.sender, func(t *testing.T) {
			blob := `[{"id":"1","title":"t","messages":[{"id":"m","content":"c","sender":"` + tt.sender + `","timestamp":"2024-01-01T00:00:00.000Z"}],"createdAt":"2024-01-01T00:00:00.000Z","updatedAt":"2024-01-01T00:00:00.000Z"}]`
			sessions, err := DecodeSessions(StorageKey, blob)
			if err != nil {
				t.Fatalf("DecodeSessions() error = %v", err)
			}
			if got := sessions[0].Messages[0].Sender; got != tt.want {
				t.Errorf("Sender = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestDecodeSessions_Invalid(t *testing.T) {
	tests := []struct {
		name string
		blob string
	}{
		{"not json", "not valid json"},
		{"object instead of array", `{"id":"1"}`},
		{"bad timestamp", `[{"id":"1","title":"t","messages":[],"createdAt":"yesterday","updatedAt":""}]`},
		{"bad message timestamp", `[{"id":"1","title":"t","messages":[{"id":"m","content":"c","sender":"user","timestamp":"1718000000000"}],"createdAt":"","updatedAt":""}]`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := DecodeSessions(StorageKey, tt.blob)
			var parseErr *ParseError
			if !errors.As(err, &parseErr) {
				t.Errorf("DecodeSessions() error = %v, want ParseError", err)
			}
		})
	}
}

func TestDecodeSessions_Empty(t *testing.T) {
	sessions, err := DecodeSessions(StorageKey, "[]")
	if err != nil {
		t.Fatalf("DecodeSessions() error = %v", err)
	}
	if len(sessions) != 0 {
		t.Errorf("Expected no sessions, got %d", len(sessions))
	}
}

func TestSession_Clone(t *testing.T) {
	original := CreateTestSession("s1")
	clone := original.Clone()
	clone.Messages[0].Content = "changed"
	clone.Messages = append(clone.Messages, Message{ID: "extra"})

	if original.Messages[0].Content == "changed" {
		t.Error("Clone() shares message storage with the original")
	}
	if len(original.Messages) != 2 {
		t.Error("Appending to the clone changed the original")
	}

	var nilSession *Session
	if nilSession.Clone() != nil {
		t.Error("Clone() of nil should be nil")
	}
}

