package internal

import (
	"time"
)

// CreateTestSession creates a test session with one exchange
func CreateTestSession(id string) *Session {
	now := time.Now().UTC()
	return &Session{
		ID:    id,
		Title: "Quelles sont les tendances du marché ?",
		Messages: []Message{
			{
				ID:        id + "-1",
				Content:   "Quelles sont les tendances du marché ?",
				Sender:    SenderUser,
				Timestamp: now,
			},
			{
				ID:        id + "-2",
				Content:   "Le marché se dirige vers plus de durabilité.",
				Sender:    SenderAssistant,
				Timestamp: now.Add(1500 * time.Millisecond),
			},
		},
		CreatedAt: now,
		UpdatedAt: now.Add(1500 * time.Millisecond),
	}
}

// CreateTestSessionWithMessages creates a test session with custom messages
func CreateTestSessionWithMessages(id string, messages []Message) *Session {
	s := &Session{
		ID:       id,
		Messages: messages,
	}
	if len(messages) > 0 {
		s.Title = DeriveTitle(messages[0].Content)
		s.CreatedAt = messages[0].Timestamp
		s.UpdatedAt = messages[len(messages)-1].Timestamp
	}
	return s
}

// CreateTestMessage creates a message stamped at ts
func CreateTestMessage(id string, sender Sender, content string, ts time.Time) Message {
	return Message{ID: id, Content: content, Sender: sender, Timestamp: ts}
}
