package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/joho/godotenv"

	"moderated-chat/internal/client"
	"moderated-chat/internal/config"
	"moderated-chat/internal/pipeline"
	"moderated-chat/internal/repl"
	"moderated-chat/internal/storage"
)

func main() {

	// Load .env before reading configuration; a missing file is fine
	_ = godotenv.Load()

	cfg := config.LoadConfig()

	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "Configuration error: %v\n", err)
		os.Exit(1)
	}

	// Logs go to stderr so stdout carries only the conversation
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: cfg.GetLogLevel(),
	}))
	slog.SetDefault(logger)

	moderator, err := client.NewModerator(cfg)
	if err != nil {
		slog.Error("create moderator failed", "error", err)
		os.Exit(1)
	}

	generator, err := client.NewGenerator(context.Background(), cfg)
	if err != nil {
		slog.Error("create generator failed", "error", err)
		os.Exit(1)
	}

	var store storage.Repository
	if cfg.Storage.Driver == config.StorageDriverSQLite {
		store, err = storage.NewSQLiteRepository(cfg.Storage.DSN)
		if err != nil {
			slog.Error("init storage failed", "error", err)
			os.Exit(1)
		}
		defer store.Close()
	} else if cfg.Storage.Driver != "" {
		slog.Warn("unknown storage driver", "driver", cfg.Storage.Driver)
	}

	pipe := pipeline.New(moderator, generator, store)
	pipe.SetAuditTimeout(cfg.Storage.Timeout)
	slog.Debug("pipeline initialized", "backend", generator.Name())

	loop := repl.New(pipe, os.Stdin, os.Stdout, os.Stderr)
	if err := loop.Run(context.Background()); err != nil {
		slog.Error("chat loop failed", "error", err)
		os.Exit(1)
	}
}
