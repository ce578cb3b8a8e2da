package internal

import (
	"encoding/json"
	"fmt"
	"time"
)

// StorageKey is the single slot holding the serialized session list
const StorageKey = "chat-widget-sessions"

// RawSession is the persisted form of a Session. Timestamps are kept as text
type RawSession struct {
	ID        string       `json:"id"`
	Title     string       `json:"title"`
	Messages  []RawMessage `json:"messages"`
	CreatedAt string       `json:"createdAt"`
	UpdatedAt string       `json:"updatedAt"`
}

// RawMessage is the persisted form of a Message
type RawMessage struct {
	ID        string `json:"id"`
	Content   string `json:"content"`
	Sender    string `json:"sender"` // "user", "assistant" (older blobs use "ai")
	Timestamp string `json:"timestamp"`
}

// EncodeSessions serializes the full session list into one blob
func EncodeSessions(sessions []*Session) (string, error) {
	raws := make([]RawSession, 0, len(sessions))
	for _, s := range sessions {
		raw := RawSession{
			ID:        s.ID,
			Title:     s.Title,
			Messages:  make([]RawMessage, 0, len(s.Messages)),
			CreatedAt: formatTimestamp(s.CreatedAt),
			UpdatedAt: formatTimestamp(s.UpdatedAt),
		}
		for _, m := range s.Messages {
			raw.Messages = append(raw.Messages, RawMessage{
				ID:        m.ID,
				Content:   m.Content,
				Sender:    string(m.Sender),
				Timestamp: formatTimestamp(m.Timestamp),
			})
		}
		raws = append(raws, raw)
	}

	data, err := json.Marshal(raws)
	if err != nil {
		return "", fmt.Errorf("failed to marshal sessions: %w", err)
	}
	return string(data), nil
}

// DecodeSessions parses a blob written by EncodeSessions under key, restoring timestamps
func DecodeSessions(key, blob string) ([]*Session, error) {
	var raws []RawSession
	if err := json.Unmarshal([]byte(blob), &raws); err != nil {
		return nil, &ParseError{Source: "storage", Key: key, Err: err}
	}

	sessions := make([]*Session, 0, len(raws))
	for _, raw := range raws {
		session, err := raw.toSession()
		if err != nil {
			return nil, &ParseError{Source: "storage", Key: raw.ID, Err: err}
		}
		sessions = append(sessions, session)
	}
	return sessions, nil
}

func (rs RawSession) toSession() (*Session, error) {
	createdAt, err := parseTimestamp(rs.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("createdAt: %w", err)
	}
	updatedAt, err := parseTimestamp(rs.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("updatedAt: %w", err)
	}

	session := &Session{
		ID:        rs.ID,
		Title:     rs.Title,
		Messages:  make([]Message, 0, len(rs.Messages)),
		CreatedAt: createdAt,
		UpdatedAt: updatedAt,
	}
	for _, rm := range rs.Messages {
		ts, err := parseTimestamp(rm.Timestamp)
		if err != nil {
			return nil, fmt.Errorf("message %s timestamp: %w", rm.ID, err)
		}
		session.Messages = append(session.Messages, Message{
			ID:        rm.ID,
			Content:   rm.Content,
			Sender:    parseSender(rm.Sender),
			Timestamp: ts,
		})
	}
	return session, nil
}

func parseSender(s string) Sender {
	switch s {
	case "user":
		return SenderUser
	case "assistant", "ai":
		return SenderAssistant
	default:
		return SenderUser
	}
}

// formatTimestamp formats a time as RFC3339 text with nanoseconds
func formatTimestamp(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

// parseTimestamp accepts RFC3339 text, including the millisecond form browsers emit
func parseTimestamp(ts string) (time.Time, error) {
	if ts == "" {
		return time.Time{}, nil
	}
	return time.Parse(time.RFC3339Nano, ts)
}
