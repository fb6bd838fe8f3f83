package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/MrJamesThe3rd/dunning/internal/app"
	"github.com/MrJamesThe3rd/dunning/internal/config"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	a, err := app.New(cfg)
	if err != nil {
		slog.Error("failed to set up", "error", err)
		os.Exit(1)
	}

	retrier, err := a.Retrier()
	if err != nil {
		a.Logger.Error("failed to set up retry pass", "error", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if _, err := retrier.Run(ctx); err != nil {
		a.Logger.Error("retry pass failed", "error", err)
		stop()
		os.Exit(1)
	}
}
