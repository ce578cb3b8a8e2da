package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/iksnae/agrichat/internal"
	"github.com/iksnae/agrichat/internal/mockapi"
	"github.com/iksnae/agrichat/internal/transport"
	"github.com/spf13/cobra"
)

var (
	serveAddr  string
	serveDelay time.Duration
)

// serveCmd represents the serve command
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run a local OpenAI-compatible completions endpoint",
	Long: `Serve POST /v1/chat/completions backed by the canned AgriTech replies.

Point the http transport at it to exercise the full request path locally:
  agrichat serve --addr :8000
  agrichat chat --transport http`,
	RunE: func(cmd *cobra.Command, args []string) error {
		server := mockapi.NewServer(transport.NewCannedResponder(serveDelay))

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		errCh := make(chan error, 1)
		go func() {
			internal.Logger().Infow("Serving completions", "addr", serveAddr, "delay", serveDelay)
			errCh <- server.Start(serveAddr)
		}()

		select {
		case err := <-errCh:
			if errors.Is(err, http.ErrServerClosed) {
				return nil
			}
			return fmt.Errorf("server failed: %w", err)
		case <-ctx.Done():
		}

		internal.LogInfo("Shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().StringVar(&serveAddr, "addr", ":8000", "Listen address")
	serveCmd.Flags().DurationVar(&serveDelay, "delay", internal.DefaultCannedDelay, "Delay before each reply")
}
