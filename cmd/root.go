package cmd

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/iksnae/agrichat/internal"
	"github.com/iksnae/agrichat/internal/transport"
	"github.com/spf13/cobra"
)

var (
	verbose       bool
	configPath    string
	storagePath   string
	backendFlag   string
	transportFlag string
	version       string = "dev"
	commit        string = "unknown"
	date          string = "unknown"
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "agrichat",
	Short: "Chat with the AgriTech assistant from your terminal",
	Long: `A terminal chat client for the AgriTech assistant.

Conversations are saved locally and can be resumed, listed, deleted and
exported. Replies come from built-in canned answers or from an
OpenAI-compatible completions endpoint.

Quick Start:
  agrichat chat                        # Start chatting
  agrichat list                        # List saved conversations
  agrichat show <session-id>           # View a conversation
  agrichat export --format md          # Export as Markdown
  agrichat serve                       # Run a local completions endpoint`,
	Version: fmt.Sprintf("%s (commit: %s, built: %s)", version, commit, date),
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		internal.SetVerbose(verbose)
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	defer internal.SyncLogger()
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		internal.SyncLogger()
		os.Exit(1)
	}
}

// resolvePaths returns the storage paths, honoring --storage as either a directory or a database file
func resolvePaths() (internal.StoragePaths, error) {
	if storagePath == "" {
		return internal.DetectStoragePaths()
	}
	if info, err := os.Stat(storagePath); err == nil && info.IsDir() {
		return internal.StoragePathsAt(storagePath), nil
	}
	if strings.HasSuffix(storagePath, ".db") {
		paths := internal.StoragePathsAt(filepath.Dir(storagePath))
		paths.DatabasePath = storagePath
		return paths, nil
	}
	return internal.StoragePathsAt(storagePath), nil
}

// loadConfig merges defaults, the config file, environment and command-line flags
func loadConfig() (*internal.Config, internal.StoragePaths, error) {
	paths, err := resolvePaths()
	if err != nil {
		return nil, paths, fmt.Errorf("failed to get storage paths: %w", err)
	}

	path := configPath
	if path == "" {
		path = paths.ConfigFile
	}
	cfg, err := internal.LoadConfig(path, paths)
	if err != nil {
		return nil, paths, err
	}

	if storagePath != "" {
		cfg.StoragePath = paths.DatabasePath
	}
	if backendFlag != "" {
		cfg.Backend = backendFlag
	}
	if transportFlag != "" {
		cfg.Transport.Mode = transportFlag
	}
	return cfg, paths, cfg.Validate()
}

// app bundles the opened storage backend and the session store
type app struct {
	cfg   *internal.Config
	kv    internal.KVStore
	store *internal.Store
}

// openApp loads the configuration, opens storage and loads the saved sessions
func openApp(ctx context.Context, opts ...internal.Option) (*app, error) {
	cfg, _, err := loadConfig()
	if err != nil {
		return nil, err
	}

	responder, err := transport.New(cfg.Transport)
	if err != nil {
		return nil, err
	}

	kv, err := internal.OpenKV(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize storage: %w", err)
	}
	internal.LogDebug("Using %s storage", cfg.Backend)

	opts = append([]internal.Option{internal.WithStorageKey(cfg.StorageKey)}, opts...)
	store := internal.NewStore(kv, responder, opts...)
	if err := store.Init(ctx); err != nil {
		_ = kv.Close()
		return nil, fmt.Errorf("failed to load sessions: %w", err)
	}

	return &app{cfg: cfg, kv: kv, store: store}, nil
}

// Close waits for pending replies, then closes storage
func (a *app) Close() {
	a.store.Close()
	if err := a.kv.Close(); err != nil {
		internal.LogWarn("Failed to close storage: %v", err)
	}
}

// findSession resolves a full id or a unique id prefix
func findSession(sessions []*internal.Session, id string) (*internal.Session, error) {
	if id == "" {
		return nil, fmt.Errorf("session id is required")
	}
	var match *internal.Session
	for _, session := range sessions {
		if session.ID == id {
			return session, nil
		}
		if strings.HasPrefix(session.ID, id) {
			if match != nil {
				return nil, fmt.Errorf("ambiguous session id: %s (matches %s and %s)", id, match.ID, session.ID)
			}
			match = session
		}
	}
	if match == nil {
		return nil, fmt.Errorf("session not found: %s (use 'agrichat list' to see available sessions)", id)
	}
	return match, nil
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose logging")
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Path to config file (default: <storage dir>/config.yaml)")
	rootCmd.PersistentFlags().StringVar(&storagePath, "storage", "", "Custom storage location (path to database file or storage directory)")
	rootCmd.PersistentFlags().StringVar(&backendFlag, "backend", "", "Storage backend (sqlite, redis)")
	rootCmd.PersistentFlags().StringVar(&transportFlag, "transport", "", "Reply transport (canned, http)")

	// Set version template to ensure --version flag works
	rootCmd.SetVersionTemplate(`{{printf "%s\n" .Version}}`)
}
