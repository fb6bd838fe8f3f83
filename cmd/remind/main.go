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

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)

	err = run(ctx, a)

	stop()

	if cerr := a.Close(); cerr != nil {
		a.Logger.Warn("failed to close log backend", "error", cerr)
	}

	if err != nil {
		a.Logger.Error("reminder pass failed", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, a *app.App) error {
	runner, err := a.Runner(ctx)
	if err != nil {
		return err
	}

	res, err := runner.Run(ctx)
	if err != nil {
		return err
	}

	if res.Errors > 0 {
		a.Logger.Warn("some invoices could not be recorded", "errors", res.Errors)
	}

	return nil
}
