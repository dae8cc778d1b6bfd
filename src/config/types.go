// Package config loads and validates the application configuration from
// layered JSON files, with environment overrides. Configuration is handed to
// components as explicit objects; nothing reads keys from package globals.
package config

import "time"

// Config represents the complete configuration for actionit
type Config struct {
	// Version of the configuration format
	Version string `json:"version"`

	// API configuration for the completion service
	API APIConfig `json:"api"`

	// Chat behavior configuration
	Chat ChatConfig `json:"chat"`

	// Storage configuration
	Storage StorageConfig `json:"storage"`

	// Logging configuration
	Logging LoggingConfig `json:"logging,omitempty"`
}

// APIConfig holds completion-service configuration
type APIConfig struct {
	// Provider selects the backend ("openai" or "deepseek"); unknown names
	// fall back to the default provider at dispatch time
	Provider string `json:"provider" validate:"provider"`

	// BaseURL overrides the default API endpoint
	BaseURL string `json:"base_url,omitempty" validate:"omitempty,url"`

	// APIKey for authentication (can be omitted if using env vars)
	APIKey string `json:"api_key,omitempty"`

	// APIKeyEnvVar specifies the environment variable to read the API key from
	APIKeyEnvVar string `json:"api_key_env_var,omitempty"`

	// Timeout until response headers arrive
	Timeout time.Duration `json:"timeout,omitempty" validate:"min=0"`
}

// ChatConfig holds conversation behavior settings
type ChatConfig struct {
	// Model used for assistant replies
	Model string `json:"model"`

	// TitleModel used for title synthesis; defaults to Model
	TitleModel string `json:"title_model,omitempty"`

	// Temperature for completion requests
	Temperature float64 `json:"temperature" validate:"min=0,max=2"`

	// MaxTokens budget per reply
	MaxTokens int `json:"max_tokens" validate:"min=1"`

	// DedupWindow is the trailing window for duplicate-send suppression
	DedupWindow time.Duration `json:"dedup_window,omitempty" validate:"min=0"`

	// IdleTimeout treats a stream with no delta for this long as errored
	IdleTimeout time.Duration `json:"idle_timeout,omitempty" validate:"min=0"`

	// UserID is the local identity messages are written under
	UserID string `json:"user_id,omitempty"`
}

// StorageConfig holds persistence settings
type StorageConfig struct {
	// DatabasePath overrides the default conversations database location
	DatabasePath string `json:"database_path,omitempty"`
}

// LoggingConfig defines logging configuration
type LoggingConfig struct {
	// Level is the minimum log level (debug, info, warn, error)
	Level string `json:"level,omitempty" validate:"log_level"`

	// Format is the output format (text, json)
	Format string `json:"format,omitempty" validate:"log_format"`
}

// ConfigPrecedence defines the order of configuration loading
type ConfigPrecedence struct {
	// UserConfig path
	UserConfig string

	// ProjectConfig path
	ProjectConfig string

	// LocalConfig path
	LocalConfig string

	// EnvironmentPrefix for env var overrides
	EnvironmentPrefix string
}

// ValidationError represents a configuration validation error
type ValidationError struct {
	Field   string
	Message string
	Value   interface{}
}

func (e ValidationError) Error() string {
	return e.Message
}
