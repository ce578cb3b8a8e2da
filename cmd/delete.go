package cmd

import (
	"fmt"

	"github.com/iksnae/agrichat/internal"
	"github.com/spf13/cobra"
)

// deleteCmd represents the delete command
var deleteCmd = &cobra.Command{
	Use:   "delete <session-id>",
	Short: "Delete a saved conversation",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp(cmd.Context())
		if err != nil {
			return err
		}
		defer a.Close()

		session, err := findSession(a.store.Sessions(), args[0])
		if err != nil {
			return err
		}

		a.store.DeleteSession(cmd.Context(), session.ID)
		if err := a.store.PersistErr(); err != nil {
			return fmt.Errorf("failed to save sessions: %w", err)
		}

		internal.PrintSuccess(fmt.Sprintf("Deleted %q (%s)", session.Title, session.ID))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(deleteCmd)
}
