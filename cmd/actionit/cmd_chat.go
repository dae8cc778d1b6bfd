package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/actionit/actionit/src/theme"
)

// ChatCmd sends one message into a conversation and streams the reply to
// stdout. With no conversation flag a new conversation is created and its
// ID printed, so follow-ups can continue the thread.
type ChatCmd struct {
	Conversation string `short:"c" help:"Conversation ID to continue; a new one is created when omitted"`
	Title        string `help:"Title for a newly created conversation"`
	Project      string `help:"Project ID for a newly created conversation"`

	Message []string `arg:"" optional:"" help:"Message text; read from stdin when omitted"`
}

func (c *ChatCmd) Run(cli *CLI) error {
	env, err := setupEnv(cli)
	if err != nil {
		return err
	}
	defer env.Close()

	text := strings.TrimSpace(strings.Join(c.Message, " "))
	if text == "" {
		text, err = readStdinMessage()
		if err != nil {
			return err
		}
	}
	if text == "" {
		return fmt.Errorf("no message provided")
	}

	// Ctrl-C cancels the in-flight stream; the partial reply stays persisted.
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	conversationID := c.Conversation
	if conversationID == "" {
		conv, err := env.gateway.CreateConversation(ctx, c.Title, c.Project)
		if err != nil {
			return err
		}
		conversationID = conv.ID
		fmt.Fprintf(os.Stderr, "%s %s\n", theme.CurrentTheme.Muted.Render("conversation"), conv.ID)
	}

	service := env.newService()

	fmt.Printf("%s %s\n\n", theme.RoleLabel("user"), text)
	fmt.Printf("%s ", theme.RoleLabel("assistant"))

	_, err = service.Send(ctx, conversationID, text, func(delta string) {
		fmt.Print(delta)
	})
	fmt.Println()
	if err != nil {
		if errors.Is(err, context.Canceled) {
			fmt.Fprintln(os.Stderr, theme.CurrentTheme.Muted.Render("canceled"))
			return nil
		}
		return err
	}
	return nil
}

// readStdinMessage reads the message body from stdin when it is not a
// terminal (piped input).
func readStdinMessage() (string, error) {
	stat, err := os.Stdin.Stat()
	if err != nil {
		return "", err
	}
	if stat.Mode()&os.ModeCharDevice != 0 {
		return "", nil
	}

	data, err := io.ReadAll(bufio.NewReader(os.Stdin))
	if err != nil {
		return "", fmt.Errorf("failed to read stdin: %w", err)
	}
	return strings.TrimSpace(string(data)), nil
}
