package cmd

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/iksnae/agrichat/internal"
	"github.com/iksnae/agrichat/testutil"
)

// resetFlags restores package-level flag values between command runs
func resetFlags() {
	verbose = false
	configPath = ""
	storagePath = ""
	backendFlag = ""
	transportFlag = ""
	limit = 0
	since = ""
	format = "jsonl"
	outputDir = "./exports"
	sessionID = ""
	healthcheckProbe = false
}

// setupStorage creates an isolated storage directory with instant canned replies
func setupStorage(t *testing.T) string {
	t.Helper()
	for _, key := range []string{
		"AGRICHAT_BACKEND", "AGRICHAT_STORAGE", "AGRICHAT_STORAGE_KEY",
		"AGRICHAT_TRANSPORT", "AGRICHAT_ENDPOINT", "AGRICHAT_MODEL", "AGRICHAT_TIMEOUT",
	} {
		t.Setenv(key, "")
	}
	dir := testutil.CreateTempDir(t)
	testutil.CreateConfigFixture(t, dir, "transport:\n  mode: canned\n  canned_delay: 0s\n")
	return dir
}

// runCommand executes the root command with args and stdin, returning stdout
func runCommand(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	resetFlags()
	t.Cleanup(resetFlags)

	var stdout, stderr bytes.Buffer
	rootCmd.SetArgs(args)
	rootCmd.SetIn(strings.NewReader(stdin))
	rootCmd.SetOut(&stdout)
	rootCmd.SetErr(&stderr)
	t.Cleanup(func() {
		rootCmd.SetIn(nil)
		rootCmd.SetOut(nil)
		rootCmd.SetErr(nil)
	})

	err := rootCmd.ExecuteContext(context.Background())
	return stdout.String(), err
}

// loadSessions reads what a command persisted under dir
func loadSessions(t *testing.T, dir string) []*internal.Session {
	t.Helper()
	kv, err := internal.OpenSQLiteKV(internal.StoragePathsAt(dir).DatabasePath)
	if err != nil {
		t.Fatalf("OpenSQLiteKV() error = %v", err)
	}
	defer kv.Close()

	store := internal.NewStore(kv, nil)
	defer store.Close()
	sessions, err := store.LoadAll(context.Background())
	if err != nil {
		t.Fatalf("LoadAll() error = %v", err)
	}
	return sessions
}

