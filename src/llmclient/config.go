package llmclient

import (
	"log/slog"
	"time"

	"github.com/actionit/actionit/src/llm"
)

// Config holds configuration for the completion-service client. It is passed
// explicitly into New; there is no module-level key state.
type Config struct {
	Provider llm.Provider  // Which backend to target; unknown falls back to default
	APIKey   string        // Bearer token for the completion service
	BaseURL  string        // Base URL override; defaults per provider
	Timeout  time.Duration // HTTP timeout for the initial response
	Logger   *slog.Logger  // Logger for debugging
}
