package cmd

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/iksnae/agrichat/internal"
	"github.com/iksnae/agrichat/internal/transport"
	"github.com/spf13/cobra"
)

var (
	healthcheckProbe bool
)

var (
	successStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("42")).
			Bold(true)

	warningStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("214")).
			Bold(true)

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("196")).
			Bold(true)

	infoStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("39"))

	sectionStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("62")).
			Bold(true).
			Underline(true)
)

// healthcheckCmd represents the healthcheck command
var healthcheckCmd = &cobra.Command{
	Use:   "healthcheck",
	Short: "Check that agrichat can load its config and reach its storage",
	Long: `Check the health of agrichat by verifying:
  • Configuration loading
  • Storage backend reachability
  • Saved conversations can be decoded
  • Reply transport settings (and, with --probe, a live request)`,
	RunE: func(cmd *cobra.Command, args []string) error {
		out := cmd.OutOrStdout()
		ctx := cmd.Context()

		fmt.Fprintln(out, sectionStyle.Render("🔍 agrichat Health Check"))
		fmt.Fprintln(out)

		// Step 1: Configuration
		fmt.Fprintln(out, infoStyle.Render("Step 1: Loading configuration..."))
		cfg, paths, err := loadConfig()
		if err != nil {
			fmt.Fprintln(out, errorStyle.Render("❌ Failed to load configuration:"), err)
			return fmt.Errorf("health check failed: %w", err)
		}
		fmt.Fprintln(out, successStyle.Render("✅ Configuration loaded"))
		if verbose {
			if paths.ConfigExists() {
				fmt.Fprintf(out, "   Config file: %s\n", paths.ConfigFile)
			} else {
				fmt.Fprintf(out, "   Config file: none (defaults)\n")
			}
			fmt.Fprintf(out, "   Storage key: %s\n", cfg.StorageKey)
		}
		fmt.Fprintln(out)

		// Step 2: Storage
		fmt.Fprintln(out, infoStyle.Render("Step 2: Opening storage..."))
		kv, err := internal.OpenKV(ctx, cfg)
		if err != nil {
			fmt.Fprintln(out, errorStyle.Render("❌ Failed to open storage:"), err)
			return fmt.Errorf("health check failed: %w", err)
		}
		defer kv.Close()
		fmt.Fprintln(out, successStyle.Render(fmt.Sprintf("✅ %s storage reachable", cfg.Backend)))
		if verbose {
			describeStorage(out, cfg)
			keys, err := kv.Keys(ctx)
			if err != nil {
				fmt.Fprintln(out, warningStyle.Render("⚠️  Could not list keys:"), err)
			} else {
				fmt.Fprintf(out, "   Keys: %d\n", len(keys))
				for _, key := range keys {
					marker := ""
					if key == cfg.StorageKey {
						marker = " (sessions)"
					}
					fmt.Fprintf(out, "   • %s%s\n", key, marker)
				}
			}
		}
		fmt.Fprintln(out)

		// Step 3: Sessions
		fmt.Fprintln(out, infoStyle.Render("Step 3: Loading conversations..."))
		store := internal.NewStore(kv, nil, internal.WithStorageKey(cfg.StorageKey))
		defer store.Close()
		sessions, err := store.LoadAll(ctx)
		if err != nil {
			fmt.Fprintln(out, errorStyle.Render("❌ Failed to load conversations:"), err)
			return fmt.Errorf("health check failed: %w", err)
		}
		if len(sessions) > 0 {
			fmt.Fprintln(out, successStyle.Render(fmt.Sprintf("✅ Found %d conversation(s)", len(sessions))))
			if verbose {
				for i, session := range sessions {
					if i == 5 {
						fmt.Fprintf(out, "   ... and %d more\n", len(sessions)-5)
						break
					}
					fmt.Fprintf(out, "   [%d] %s (ID: %s)\n", i+1, session.Title, session.ID)
				}
			}
		} else {
			fmt.Fprintln(out, warningStyle.Render("⚠️  No conversations saved yet"))
		}
		fmt.Fprintln(out)

		// Step 4: Transport
		fmt.Fprintln(out, infoStyle.Render("Step 4: Checking reply transport..."))
		responder, err := transport.New(cfg.Transport)
		if err != nil {
			fmt.Fprintln(out, errorStyle.Render("❌ Invalid transport:"), err)
			return fmt.Errorf("health check failed: %w", err)
		}
		switch cfg.Transport.Mode {
		case internal.TransportHTTP:
			fmt.Fprintf(out, "   Mode: http (%s, model %s)\n", cfg.Transport.Endpoint, cfg.Transport.Model)
		default:
			fmt.Fprintf(out, "   Mode: canned (delay %s)\n", cfg.Transport.CannedDelay)
		}
		if healthcheckProbe {
			if err := probeResponder(ctx, responder); err != nil {
				fmt.Fprintln(out, errorStyle.Render("❌ Probe failed:"), err)
				return fmt.Errorf("health check failed: %w", err)
			}
			fmt.Fprintln(out, successStyle.Render("✅ Probe answered"))
		}
		fmt.Fprintln(out)

		fmt.Fprintln(out, sectionStyle.Render("📊 Summary"))
		fmt.Fprintln(out)
		fmt.Fprintln(out, successStyle.Render("✅ Health check passed!"))
		fmt.Fprintln(out, successStyle.Render(fmt.Sprintf("   • Storage: %s", cfg.Backend)))
		fmt.Fprintln(out, successStyle.Render(fmt.Sprintf("   • Conversations: %d found", len(sessions))))
		return nil
	},
}

func describeStorage(out io.Writer, cfg *internal.Config) {
	switch cfg.Backend {
	case internal.BackendRedis:
		fmt.Fprintf(out, "   Redis: %s db %d (prefix %q)\n", cfg.Redis.Addr, cfg.Redis.DB, cfg.Redis.Prefix)
	default:
		fmt.Fprintf(out, "   Database: %s\n", cfg.StoragePath)
	}
}

func probeResponder(ctx context.Context, responder internal.Responder) error {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()
	reply, err := responder.Reply(ctx, "ping")
	if err != nil {
		return err
	}
	internal.LogDebug("Probe reply: %s", reply)
	return nil
}

func init() {
	rootCmd.AddCommand(healthcheckCmd)
	healthcheckCmd.Flags().BoolVar(&healthcheckProbe, "probe", false, "Send a test message through the configured transport")
}
