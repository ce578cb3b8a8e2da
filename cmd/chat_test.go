package cmd

import (
	"strings"
	"testing"

	"github.com/iksnae/agrichat/internal"
	"github.com/iksnae/agrichat/internal/transport"
)

func TestChatCommand_OneShot(t *testing.T) {
	dir := setupStorage(t)

	out, err := runCommand(t, "", "--storage", dir, "chat", "Quelles", "startups", "suivre", "?")
	if err != nil {
		t.Fatalf("chat error = %v", err)
	}
	if !strings.Contains(out, "blockchain") {
		t.Errorf("Expected the startup reply, got:\n%s", out)
	}

	sessions := loadSessions(t, dir)
	if len(sessions) != 1 {
		t.Fatalf("Expected 1 saved session, got %d", len(sessions))
	}
	if sessions[0].Title != "Quelles startups suivre ?" {
		t.Errorf("Title = %q", sessions[0].Title)
	}
	if len(sessions[0].Messages) != 2 || sessions[0].Messages[1].Content != transport.StartupReply {
		t.Errorf("Unexpected messages: %+v", sessions[0].Messages)
	}
}

func TestChatCommand_REPL(t *testing.T) {
	dir := setupStorage(t)

	input := strings.Join([]string{
		"Bonjour",
		"Et les startups ?",
		"   ",
		"/new",
		"Les tendances du marché ?",
		"/history",
		"/bogus",
		"/quit",
		"never sent",
	}, "\n") + "\n"

	out, err := runCommand(t, input, "--storage", dir, "chat")
	if err != nil {
		t.Fatalf("chat error = %v", err)
	}
	if !strings.Contains(out, "Started a new conversation") {
		t.Errorf("Missing /new confirmation in:\n%s", out)
	}
	if !strings.Contains(out, "Found 2 conversation(s)") {
		t.Errorf("Missing /history listing in:\n%s", out)
	}

	sessions := loadSessions(t, dir)
	if len(sessions) != 2 {
		t.Fatalf("Expected 2 sessions, got %d", len(sessions))
	}
	if sessions[0].Title != "Les tendances du marché ?" {
		t.Errorf("Newest session first: got %q", sessions[0].Title)
	}
	if len(sessions[1].Messages) != 4 {
		t.Errorf("First conversation has %d messages, want 4", len(sessions[1].Messages))
	}
}

func TestChatCommand_LoadAndDelete(t *testing.T) {
	dir := setupStorage(t)

	if _, err := runCommand(t, "", "--storage", dir, "chat", "premier"); err != nil {
		t.Fatalf("chat error = %v", err)
	}
	if _, err := runCommand(t, "", "--storage", dir, "chat", "second"); err != nil {
		t.Fatalf("chat error = %v", err)
	}
	sessions := loadSessions(t, dir)
	first, second := sessions[1], sessions[0]

	input := "/load " + first.ID + "\nencore\n/delete " + second.ID + "\n/quit\n"
	out, err := runCommand(t, input, "--storage", dir, "chat")
	if err != nil {
		t.Fatalf("chat error = %v", err)
	}
	if !strings.Contains(out, "premier") {
		t.Errorf("/load did not print the conversation:\n%s", out)
	}

	sessions = loadSessions(t, dir)
	if len(sessions) != 1 || sessions[0].ID != first.ID {
		t.Fatalf("Expected only %s to remain, got %d session(s)", first.ID, len(sessions))
	}
	if len(sessions[0].Messages) != 4 {
		t.Errorf("Loaded conversation has %d messages, want 4", len(sessions[0].Messages))
	}
}

func TestChatCommand_TransportFailure(t *testing.T) {
	dir := setupStorage(t)
	t.Setenv("AGRICHAT_ENDPOINT", "http://127.0.0.1:1/v1/chat/completions")

	out, err := runCommand(t, "", "--storage", dir, "--transport", "http", "chat", "Bonjour")
	if err != nil {
		t.Fatalf("chat error = %v", err)
	}
	if !strings.Contains(out, "Désolé") {
		t.Errorf("Expected the fallback reply, got:\n%s", out)
	}

	sessions := loadSessions(t, dir)
	if len(sessions) != 1 || len(sessions[0].Messages) != 2 {
		t.Fatal("Expected the user message and the fallback to be saved")
	}
	if sessions[0].Messages[1].Content != internal.FallbackReply {
		t.Errorf("Saved reply = %q", sessions[0].Messages[1].Content)
	}
}
