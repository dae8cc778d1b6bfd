package config

import "time"

// DefaultConfig returns a default configuration with sensible defaults
func DefaultConfig() *Config {
	return &Config{
		Version: "1.0",
		API: APIConfig{
			Provider:     "openai",
			APIKeyEnvVar: "OPENAI_API_KEY",
			Timeout:      30 * time.Second,
		},
		Chat: ChatConfig{
			Model:       "gpt-4o-mini",
			Temperature: 0.7,
			MaxTokens:   4096,
			DedupWindow: 5 * time.Second,
			IdleTimeout: 60 * time.Second,
			UserID:      "local",
		},
		Storage: StorageConfig{
			DatabasePath: GetDefaultStoragePaths().DatabasePath,
		},
		Logging: LoggingConfig{
			Level:  "warn",
			Format: "text",
		},
	}
}
