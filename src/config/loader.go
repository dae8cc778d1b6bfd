package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// Loader handles loading and merging configurations from multiple sources
type Loader struct {
	precedence ConfigPrecedence
	validator  *Validator
}

// NewLoader creates a new configuration loader
func NewLoader(precedence ConfigPrecedence) *Loader {
	return &Loader{
		precedence: precedence,
		validator:  NewValidator(),
	}
}

// Load loads configuration from all sources and merges them
func (l *Loader) Load() (*Config, error) {
	config := DefaultConfig()

	sources := []string{
		l.precedence.UserConfig,
		l.precedence.ProjectConfig,
		l.precedence.LocalConfig,
	}

	for _, path := range sources {
		if path == "" {
			continue
		}

		if cfg, err := l.loadFile(path); err == nil {
			config = l.mergeConfigs(config, cfg)
		} else if !os.IsNotExist(err) {
			return nil, fmt.Errorf("failed to load config from %s: %w", path, err)
		}
	}

	if l.precedence.EnvironmentPrefix != "" {
		l.applyEnvironmentOverrides(config)
	}

	if config.API.APIKey == "" && config.API.APIKeyEnvVar != "" {
		config.API.APIKey = os.Getenv(config.API.APIKeyEnvVar)
	}

	if err := l.validator.Validate(config); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return config, nil
}

// loadFile loads a single configuration file
func (l *Loader) loadFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var config Config
	if err := json.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse JSON: %w", err)
	}

	return &config, nil
}

// SaveFile saves configuration to a file
func (l *Loader) SaveFile(config *Config, path string) error {
	if err := l.validator.Validate(config); err != nil {
		return fmt.Errorf("configuration validation failed: %w", err)
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}

	data, err := json.MarshalIndent(config, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write file: %w", err)
	}

	return nil
}

// mergeConfigs merges two configurations with the second taking precedence
func (l *Loader) mergeConfigs(base, override *Config) *Config {
	result := *base

	if override.API.Provider != "" {
		result.API.Provider = override.API.Provider
	}
	if override.API.BaseURL != "" {
		result.API.BaseURL = override.API.BaseURL
	}
	if override.API.APIKey != "" {
		result.API.APIKey = override.API.APIKey
	}
	if override.API.APIKeyEnvVar != "" {
		result.API.APIKeyEnvVar = override.API.APIKeyEnvVar
	}
	if override.API.Timeout != 0 {
		result.API.Timeout = override.API.Timeout
	}

	if override.Chat.Model != "" {
		result.Chat.Model = override.Chat.Model
	}
	if override.Chat.TitleModel != "" {
		result.Chat.TitleModel = override.Chat.TitleModel
	}
	if override.Chat.Temperature != 0 {
		result.Chat.Temperature = override.Chat.Temperature
	}
	if override.Chat.MaxTokens != 0 {
		result.Chat.MaxTokens = override.Chat.MaxTokens
	}
	if override.Chat.DedupWindow != 0 {
		result.Chat.DedupWindow = override.Chat.DedupWindow
	}
	if override.Chat.IdleTimeout != 0 {
		result.Chat.IdleTimeout = override.Chat.IdleTimeout
	}
	if override.Chat.UserID != "" {
		result.Chat.UserID = override.Chat.UserID
	}

	if override.Storage.DatabasePath != "" {
		result.Storage.DatabasePath = override.Storage.DatabasePath
	}

	if override.Logging.Level != "" {
		result.Logging.Level = override.Logging.Level
	}
	if override.Logging.Format != "" {
		result.Logging.Format = override.Logging.Format
	}

	return &result
}

// applyEnvironmentOverrides applies environment variable overrides to config
func (l *Loader) applyEnvironmentOverrides(config *Config) {
	prefix := l.precedence.EnvironmentPrefix

	if apiKey := os.Getenv(prefix + "_API_KEY"); apiKey != "" {
		config.API.APIKey = apiKey
	}
	if provider := os.Getenv(prefix + "_PROVIDER"); provider != "" {
		config.API.Provider = provider
	}
	if baseURL := os.Getenv(prefix + "_BASE_URL"); baseURL != "" {
		config.API.BaseURL = baseURL
	}
	if model := os.Getenv(prefix + "_MODEL"); model != "" {
		config.Chat.Model = model
	}
	if user := os.Getenv(prefix + "_USER"); user != "" {
		config.Chat.UserID = user
	}
	if dbPath := os.Getenv(prefix + "_DATABASE"); dbPath != "" {
		config.Storage.DatabasePath = dbPath
	}
}

// FindConfigFile searches for a configuration file in standard locations
func FindConfigFile() (string, error) {
	paths := GetConfigPaths()

	checkPaths := []string{
		paths.LocalConfig,
		paths.ProjectConfig,
		paths.UserConfig,
	}

	for _, path := range checkPaths {
		if path == "" {
			continue
		}
		if _, err := os.Stat(path); err == nil {
			return path, nil
		}
	}

	return "", fmt.Errorf("no configuration file found")
}
