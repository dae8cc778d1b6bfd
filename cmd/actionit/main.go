package main

import (
	"fmt"
	"os"

	"github.com/alecthomas/kong"
	"github.com/joho/godotenv"
)

// CLI represents the main CLI structure
type CLI struct {
	APIKey   string `env:"ACTIONIT_API_KEY" help:"Completion service API key"`
	Provider string `help:"Completion provider (openai, deepseek)"`
	BaseURL  string `help:"Custom API base URL"`
	User     string `env:"ACTIONIT_USER" help:"Local user identity"`
	LogLevel string `default:"warn" help:"Log level"`

	Chat          ChatCmd          `cmd:"" help:"Send a message into a conversation and stream the reply"`
	Conversations ConversationsCmd `cmd:"" help:"Manage conversations"`
	Migrate       MigrateCmd       `cmd:"" help:"Database migrations"`
}

func main() {
	// Local development convenience; missing .env is fine.
	_ = godotenv.Load()

	var cli CLI
	ctx := kong.Parse(&cli,
		kong.Name("actionit"),
		kong.Description("Streaming chat with persisted conversations"),
		kong.UsageOnError(),
		kong.ConfigureHelp(kong.HelpOptions{
			Compact: true,
		}),
	)

	err := ctx.Run(&cli)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
