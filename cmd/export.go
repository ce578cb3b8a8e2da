package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/iksnae/agrichat/internal"
	"github.com/iksnae/agrichat/internal/export"
	"github.com/spf13/cobra"
)

var (
	format    string
	outputDir string
	sessionID string
)

// exportCmd represents the export command
var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export conversations to file",
	Long: `Export saved conversations as jsonl, md, yaml or json.

Each conversation is written to its own file. Use --session-id to export a
single conversation; 'agrichat list' shows the available ids.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		// Create exporter
		exporter, err := export.NewExporter(format)
		if err != nil {
			return err
		}

		a, err := openApp(cmd.Context())
		if err != nil {
			return err
		}
		defer a.Close()

		sessions := a.store.Sessions()
		if sessionID != "" {
			session, err := findSession(sessions, sessionID)
			if err != nil {
				return err
			}
			sessions = []*internal.Session{session}
		}

		if len(sessions) == 0 {
			internal.PrintInfo("No conversations to export")
			return nil
		}

		// Ensure output directory exists
		if err := os.MkdirAll(outputDir, 0755); err != nil {
			return fmt.Errorf("failed to create output directory: %w", err)
		}

		var failed int
		steps := make([]internal.ProgressStep, 0, len(sessions))
		for _, session := range sessions {
			session := session
			steps = append(steps, internal.ProgressStep{
				Message: fmt.Sprintf("Exporting %s", session.ID),
				Fn: func() error {
					if err := exportSession(exporter, session, outputDir); err != nil {
						internal.LogError("%v", err)
						failed++
					}
					return nil
				},
			})
		}
		if err := internal.ShowProgressWithSteps(cmd.Context(), steps); err != nil {
			return err
		}
		if failed > 0 {
			return fmt.Errorf("%d of %d conversation(s) failed to export", failed, len(sessions))
		}

		internal.PrintSuccess(fmt.Sprintf("Export complete: %d conversation(s) exported to %s", len(sessions), outputDir))
		return nil
	},
}

func exportSession(exporter export.Exporter, session *internal.Session, dir string) error {
	path := filepath.Join(dir, fmt.Sprintf("session_%s.%s", session.ID, exporter.Extension()))

	file, err := os.Create(path)
	if err != nil {
		return &internal.ExportError{Format: exporter.Extension(), Path: path, Err: err}
	}

	if err := exporter.Export(session, file); err != nil {
		_ = file.Close()
		return &internal.ExportError{Format: exporter.Extension(), Path: path, Err: err}
	}

	if err := file.Close(); err != nil {
		return &internal.ExportError{Format: exporter.Extension(), Path: path, Err: err}
	}
	internal.LogDebug("Exported %s", path)
	return nil
}

func init() {
	rootCmd.AddCommand(exportCmd)
	exportCmd.Flags().StringVarP(&format, "format", "f", "jsonl", "Export format (jsonl, md, yaml, json)")
	exportCmd.Flags().StringVarP(&outputDir, "out", "o", "./exports", "Output directory")
	exportCmd.Flags().StringVar(&sessionID, "session-id", "", "Export a specific conversation by ID")
}
