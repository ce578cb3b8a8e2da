package cmd

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/iksnae/agrichat/internal"
	"github.com/spf13/cobra"
)

var (
	limit int
	since string
)

var (
	// Styles for show command
	sessionHeaderStyle = lipgloss.NewStyle().
				Bold(true).
				Foreground(lipgloss.Color("212")).
				Padding(0, 1).
				MarginBottom(1)

	sessionMetaStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("243")).
				MarginBottom(1)

	userMessageStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("39")).
				Bold(true).
				Padding(0, 1)

	assistantMessageStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("135")).
				Bold(true).
				Padding(0, 1)

	messageContentStyle = lipgloss.NewStyle().
				Padding(0, 2).
				MarginBottom(1)

	timestampStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("240")).
			Italic(true)
)

// showCmd represents the show command
var showCmd = &cobra.Command{
	Use:   "show <session-id>",
	Short: "Show messages for a specific conversation",
	Long:  `Display the messages of a saved conversation. Any unique id prefix is accepted.`,
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		var sinceTime time.Time
		if since != "" {
			parsed, err := time.Parse(time.RFC3339, since)
			if err != nil {
				return fmt.Errorf("invalid --since timestamp format (expected RFC3339): %w", err)
			}
			sinceTime = parsed
		}

		a, err := openApp(cmd.Context())
		if err != nil {
			return err
		}
		defer a.Close()

		session, err := findSession(a.store.Sessions(), args[0])
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		displaySessionHeader(out, session)

		messagesToShow := filterMessages(session.Messages, sinceTime)
		totalFiltered := len(messagesToShow)
		if limit > 0 && limit < len(messagesToShow) {
			messagesToShow = messagesToShow[:limit]
		}

		for i, msg := range messagesToShow {
			displayMessage(out, i+1, msg, totalFiltered)
		}

		// Show remaining count if limit was applied
		if limit > 0 && limit < totalFiltered {
			fmt.Fprintln(out)
			fmt.Fprintln(out, lipgloss.NewStyle().
				Foreground(lipgloss.Color("243")).
				Italic(true).
				Render(fmt.Sprintf("... (%d more message(s))", totalFiltered-limit)))
		}

		return nil
	},
}

// filterMessages keeps messages at or after since. A zero since keeps everything
func filterMessages(messages []internal.Message, since time.Time) []internal.Message {
	if since.IsZero() {
		return messages
	}
	filtered := make([]internal.Message, 0, len(messages))
	for _, msg := range messages {
		if !msg.Timestamp.Before(since) {
			filtered = append(filtered, msg)
		}
	}
	return filtered
}

func displaySessionHeader(out io.Writer, session *internal.Session) {
	if session == nil {
		return
	}
	fmt.Fprintln(out, sessionHeaderStyle.Render(fmt.Sprintf("💬 %s", session.Title)))

	metaParts := []string{fmt.Sprintf("ID: %s", session.ID)}
	if !session.CreatedAt.IsZero() {
		metaParts = append(metaParts, fmt.Sprintf("Created: %s", session.CreatedAt.Local().Format("2006-01-02 15:04")))
	}
	metaParts = append(metaParts, fmt.Sprintf("Messages: %d", len(session.Messages)))
	fmt.Fprintln(out, sessionMetaStyle.Render(strings.Join(metaParts, " • ")))
	fmt.Fprintln(out)
}

func senderLabel(sender internal.Sender) string {
	switch sender {
	case internal.SenderUser:
		return userMessageStyle.Render("👤 You")
	case internal.SenderAssistant:
		return assistantMessageStyle.Render("🤖 Assistant")
	default:
		return lipgloss.NewStyle().Foreground(lipgloss.Color("243")).Render(string(sender))
	}
}

func displayMessage(out io.Writer, index int, msg internal.Message, total int) {
	header := senderLabel(msg.Sender) + " " + timestampStyle.Render(fmt.Sprintf("[%d/%d]", index, total))
	if !msg.Timestamp.IsZero() {
		header += " " + timestampStyle.Render(msg.Timestamp.Local().Format("15:04:05"))
	}
	fmt.Fprintln(out, header)
	printContent(out, msg.Content)
}

// renderMessage prints a message without its position, as the chat prompt does
func renderMessage(out io.Writer, msg internal.Message) {
	fmt.Fprintln(out, senderLabel(msg.Sender))
	printContent(out, msg.Content)
}

func printContent(out io.Writer, content string) {
	content = strings.TrimSpace(content)
	if content != "" {
		fmt.Fprintln(out, messageContentStyle.Render(wrapText(content, 80)))
	} else {
		fmt.Fprintln(out, messageContentStyle.Foreground(lipgloss.Color("240")).Render("(empty message)"))
	}
	fmt.Fprintln(out)
}

func wrapText(text string, width int) string {
	lines := strings.Split(text, "\n")
	var wrapped []string

	for _, line := range lines {
		if len(line) <= width {
			wrapped = append(wrapped, line)
			continue
		}

		// Wrap long lines
		words := strings.Fields(line)
		currentLine := ""
		for _, word := range words {
			if len(currentLine)+len(word)+1 > width {
				if currentLine != "" {
					wrapped = append(wrapped, currentLine)
					currentLine = word
				} else {
					wrapped = append(wrapped, word)
					currentLine = ""
				}
			} else {
				if currentLine == "" {
					currentLine = word
				} else {
					currentLine += " " + word
				}
			}
		}
		if currentLine != "" {
			wrapped = append(wrapped, currentLine)
		}
	}

	return strings.Join(wrapped, "\n")
}

func init() {
	rootCmd.AddCommand(showCmd)
	showCmd.Flags().IntVarP(&limit, "limit", "n", 0, "Limit number of messages to show")
	showCmd.Flags().StringVar(&since, "since", "", "Show messages since timestamp (RFC3339)")
}
