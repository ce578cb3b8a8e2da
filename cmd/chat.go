package cmd

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/iksnae/agrichat/internal"
	"github.com/spf13/cobra"
)

var (
	promptStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("39")).
			Bold(true)

	hintStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("243")).
			Italic(true)
)

const chatHelp = `Commands:
  /new            start a new conversation
  /history        list saved conversations
  /load <id>      resume a saved conversation
  /delete <id>    delete a saved conversation
  /help           show this help
  /quit           exit`

// chatCmd represents the chat command
var chatCmd = &cobra.Command{
	Use:   "chat [message...]",
	Short: "Chat with the assistant",
	Long: `Start an interactive conversation with the AgriTech assistant.

Each line you type is sent as a message. The first message of a conversation
becomes its title. Pass a message as arguments to send it and exit.

` + chatHelp,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
		defer stop()

		a, err := openApp(ctx, internal.WithErrorHandler(reportStoreError))
		if err != nil {
			return err
		}
		defer a.Close()

		out := cmd.OutOrStdout()

		if len(args) > 0 {
			return sendMessage(ctx, a.store, out, strings.Join(args, " "))
		}

		if internal.IsTerminal() {
			fmt.Fprintln(out, hintStyle.Render("Type a message, or /help for commands."))
		}
		return runREPL(ctx, a.store, cmd.InOrStdin(), out)
	},
}

// reportStoreError surfaces persistence failures; transport failures already show as the fallback reply
func reportStoreError(err error) {
	var storageErr *internal.StorageError
	if errors.As(err, &storageErr) {
		internal.PrintWarning(fmt.Sprintf("Conversation could not be saved: %v", err))
	}
}

func runREPL(ctx context.Context, store *internal.Store, in io.Reader, out io.Writer) error {
	scanner := bufio.NewScanner(in)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	for {
		fmt.Fprint(out, promptStyle.Render("> "))
		if !scanner.Scan() {
			fmt.Fprintln(out)
			return scanner.Err()
		}
		line := scanner.Text()

		if strings.HasPrefix(strings.TrimSpace(line), "/") {
			quit, err := runChatCommand(ctx, store, out, strings.Fields(line))
			if err != nil {
				internal.PrintError(err.Error())
			}
			if quit {
				return nil
			}
			continue
		}

		if err := sendMessage(ctx, store, out, line); err != nil {
			if errors.Is(err, context.Canceled) {
				return nil
			}
			return err
		}
	}
}

func runChatCommand(ctx context.Context, store *internal.Store, out io.Writer, fields []string) (quit bool, err error) {
	arg := ""
	if len(fields) > 1 {
		arg = fields[1]
	}

	switch fields[0] {
	case "/quit", "/exit":
		return true, nil
	case "/help":
		fmt.Fprintln(out, chatHelp)
	case "/new":
		store.StartNewConversation()
		fmt.Fprintln(out, hintStyle.Render("Started a new conversation."))
	case "/history":
		displaySessions(out, store.Sessions())
	case "/load":
		session, err := findSession(store.Sessions(), arg)
		if err != nil {
			return false, err
		}
		store.LoadSession(session.ID)
		displaySessionHeader(out, session)
		for i, msg := range store.Displayed() {
			displayMessage(out, i+1, msg, len(session.Messages))
		}
	case "/delete":
		session, err := findSession(store.Sessions(), arg)
		if err != nil {
			return false, err
		}
		store.DeleteSession(ctx, session.ID)
		fmt.Fprintln(out, hintStyle.Render(fmt.Sprintf("Deleted %q.", session.Title)))
	default:
		return false, fmt.Errorf("unknown command: %s (type /help)", fields[0])
	}
	return false, nil
}

// sendMessage submits text and prints the reply once it arrives
func sendMessage(ctx context.Context, store *internal.Store, out io.Writer, text string) error {
	pending, err := store.SubmitMessage(ctx, text)
	if err != nil {
		return err
	}
	if pending == nil {
		return nil
	}

	var reply internal.Message
	var replyErr error
	err = internal.ShowProgress(ctx, "Assistant is typing...", func() error {
		reply, replyErr = pending.Wait(ctx)
		return nil
	})
	if err != nil {
		return err
	}

	switch {
	case errors.Is(replyErr, internal.ErrReplyDiscarded):
		return nil
	case errors.Is(replyErr, internal.ErrTransport):
		internal.LogDebug("Reply failed: %v", replyErr)
	case replyErr != nil:
		return replyErr
	}

	renderMessage(out, reply)
	return nil
}

func init() {
	rootCmd.AddCommand(chatCmd)
}
