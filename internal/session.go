package internal

import (
	"time"
	"unicode/utf8"
)

// Sender identifies who authored a message
type Sender string

const (
	SenderUser      Sender = "user"
	SenderAssistant Sender = "assistant"
)

// TitleLength is the number of characters kept from the first message when deriving a title
const TitleLength = 50

// Message represents one entry in a session's log
type Message struct {
	ID        string    `json:"id" yaml:"id"`
	Content   string    `json:"content" yaml:"content"`
	Sender    Sender    `json:"sender" yaml:"sender"`
	Timestamp time.Time `json:"timestamp" yaml:"timestamp"`
}

// Session represents one conversation and its ordered messages
type Session struct {
	ID        string    `json:"id" yaml:"id"`
	Title     string    `json:"title" yaml:"title"`
	Messages  []Message `json:"messages" yaml:"messages"`
	CreatedAt time.Time `json:"createdAt" yaml:"created_at"`
	UpdatedAt time.Time `json:"updatedAt" yaml:"updated_at"`
}

// DeriveTitle returns the first TitleLength characters of text, with "..." appended when truncated.
// Characters are runes: an emoji counts once here, where a UTF-16 slice would count it twice
// and could split it
func DeriveTitle(text string) string {
	if utf8.RuneCountInString(text) <= TitleLength {
		return text
	}
	runes := []rune(text)
	return string(runes[:TitleLength]) + "..."
}

// Clone returns a deep copy of the session so callers can't mutate store state
func (s *Session) Clone() *Session {
	if s == nil {
		return nil
	}
	c := *s
	c.Messages = append([]Message(nil), s.Messages...)
	return &c
}
