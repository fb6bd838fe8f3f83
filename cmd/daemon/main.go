package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/MrJamesThe3rd/dunning/internal/app"
	"github.com/MrJamesThe3rd/dunning/internal/config"
	dunningHttp "github.com/MrJamesThe3rd/dunning/internal/http"
	"github.com/MrJamesThe3rd/dunning/internal/http/auth"
	"github.com/MrJamesThe3rd/dunning/internal/http/logs"
	"github.com/MrJamesThe3rd/dunning/internal/scheduler"
)

const shutdownTimeout = 30 * time.Second

func main() {
	issue := flag.String("issue-token", "", "print a dashboard token for this subject and exit")
	ttl := flag.Duration("token-ttl", 30*24*time.Hour, "lifetime of an issued token")
	flag.Parse()

	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	if *issue != "" {
		token, err := auth.GenerateToken(*issue, cfg.Server.JWTSecret, *ttl, time.Now())
		if err != nil {
			slog.Error("failed to issue token", "error", err)
			os.Exit(1)
		}

		fmt.Println(token)

		return
	}

	a, err := app.New(cfg)
	if err != nil {
		slog.Error("failed to set up", "error", err)
		os.Exit(1)
	}

	if err := serve(a); err != nil {
		a.Logger.Error("daemon stopped", "error", err)
		os.Exit(1)
	}
}

func serve(a *app.App) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	defer func() {
		if err := a.Close(); err != nil {
			a.Logger.Warn("failed to close log backend", "error", err)
		}
	}()

	runner, err := a.Runner(ctx)
	if err != nil {
		return err
	}

	retrier, err := a.Retrier()
	if err != nil {
		return err
	}

	sweeper := a.Sweeper()
	sched := scheduler.New(a.Location, a.Logger)

	jobs := []struct {
		name string
		spec string
		job  scheduler.Job
	}{
		{"run", a.Config.Server.RunCron, func(ctx context.Context) error { _, err := runner.Run(ctx); return err }},
		{"retry", a.Config.Server.RetryCron, func(ctx context.Context) error { _, err := retrier.Run(ctx); return err }},
		{"maintenance", a.Config.Maintenance.Cron, func(ctx context.Context) error { _, err := sweeper.Run(ctx); return err }},
	}

	for _, j := range jobs {
		if err := sched.Add(j.name, j.spec, j.job); err != nil {
			return err
		}
	}

	if a.Config.Server.JWTSecret == "" {
		a.Logger.Warn("DASHBOARD_JWT_SECRET not set, dashboard is unauthenticated")
	}

	router := dunningHttp.New(dunningHttp.Options{
		AllowedOrigins: a.Config.Server.AllowedOrigins,
		JWTSecret:      a.Config.Server.JWTSecret,
		PDFDir:         a.Config.Paths.PDFDir,
	}, logs.NewHandler(a.Export()))

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", a.Config.Server.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       a.Config.Server.Timeout,
		WriteTimeout:      a.Config.Server.Timeout,
	}

	errCh := make(chan error, 1)

	go func() {
		a.Logger.Info("starting server", "addr", srv.Addr)

		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	sched.Start()
	a.Logger.Info("scheduler started", "next", sched.Next(), "location", a.Location.String())

	select {
	case <-ctx.Done():
		a.Logger.Info("shutting down")
	case err = <-errCh:
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if serr := sched.Stop(shutdownCtx); serr != nil {
		a.Logger.Warn("scheduler did not stop cleanly", "error", serr)
	}

	if serr := srv.Shutdown(shutdownCtx); serr != nil {
		a.Logger.Warn("server did not stop cleanly", "error", serr)
	}

	return err
}
