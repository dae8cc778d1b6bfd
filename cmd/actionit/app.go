package main

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/actionit/actionit/src/chat"
	"github.com/actionit/actionit/src/config"
	"github.com/actionit/actionit/src/llm"
	"github.com/actionit/actionit/src/llmclient"
	"github.com/actionit/actionit/src/storage"
)

// appEnv bundles the wired collaborators every command needs.
type appEnv struct {
	cfg     *config.Config
	logger  *slog.Logger
	store   *storage.DB
	gateway *chat.Gateway
}

// setupEnv loads configuration, applies CLI flag overrides, opens the
// database and builds the identity-scoped gateway.
func setupEnv(cli *CLI) (*appEnv, error) {
	loader := config.NewLoader(config.GetConfigPaths())
	cfg, err := loader.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	// Flags beat files and environment.
	if cli.APIKey != "" {
		cfg.API.APIKey = cli.APIKey
	}
	if cli.Provider != "" {
		cfg.API.Provider = cli.Provider
	}
	if cli.BaseURL != "" {
		cfg.API.BaseURL = cli.BaseURL
	}
	if cli.User != "" {
		cfg.Chat.UserID = cli.User
	}

	logLevel := cfg.Logging.Level
	if cli.LogLevel != "" {
		logLevel = cli.LogLevel
	}
	logger := createCLILogger(cfg.Logging.Format, logLevel)

	dbPath := cfg.Storage.DatabasePath
	if dbPath == "" {
		dbPath = config.GetDefaultStoragePaths().DatabasePath
	}
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("failed to create state directory: %w", err)
	}

	store, err := storage.Open(dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	gateway := chat.NewGateway(chat.GatewayConfig{
		DB:          store.DB(),
		Identity:    chat.StaticIdentity(cfg.Chat.UserID),
		Logger:      logger,
		DedupWindow: cfg.Chat.DedupWindow,
	})

	return &appEnv{
		cfg:     cfg,
		logger:  logger,
		store:   store,
		gateway: gateway,
	}, nil
}

func (e *appEnv) Close() error {
	return e.store.Close()
}

// newService builds the streaming chat service on top of the env's gateway.
func (e *appEnv) newService() *chat.Service {
	client := llmclient.New(llmclient.Config{
		Provider: llm.ParseProvider(e.cfg.API.Provider, e.logger),
		APIKey:   e.cfg.API.APIKey,
		BaseURL:  e.cfg.API.BaseURL,
		Timeout:  e.cfg.API.Timeout,
		Logger:   e.logger,
	})

	return chat.NewService(chat.ServiceConfig{
		Gateway:     e.gateway,
		Client:      client,
		Logger:      e.logger,
		Transcript:  chat.NewTranscript(),
		Model:       e.cfg.Chat.Model,
		TitleModel:  e.cfg.Chat.TitleModel,
		Temperature: e.cfg.Chat.Temperature,
		MaxTokens:   e.cfg.Chat.MaxTokens,
		IdleTimeout: e.cfg.Chat.IdleTimeout,
	})
}
