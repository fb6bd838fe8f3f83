package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/MrJamesThe3rd/dunning/internal/config"
	"github.com/MrJamesThe3rd/dunning/internal/deliverylog"
	"github.com/MrJamesThe3rd/dunning/internal/deliverylog/store"
	"github.com/MrJamesThe3rd/dunning/internal/export"
	"github.com/MrJamesThe3rd/dunning/internal/invoice/zoho"
	"github.com/MrJamesThe3rd/dunning/internal/logging"
	"github.com/MrJamesThe3rd/dunning/internal/maintenance"
	"github.com/MrJamesThe3rd/dunning/internal/notify"
	"github.com/MrJamesThe3rd/dunning/internal/notify/email"
	"github.com/MrJamesThe3rd/dunning/internal/notify/twilio"
	"github.com/MrJamesThe3rd/dunning/internal/reminder"
	"github.com/MrJamesThe3rd/dunning/internal/schedule"
	"github.com/MrJamesThe3rd/dunning/internal/storage/oracle"
)

// App holds what every command shares: config, logger, the reporting
// location and the file-backed trails.
type App struct {
	Config   *config.Config
	Logger   *slog.Logger
	Location *time.Location
	Audit    *deliverylog.Audit
	Finals   *deliverylog.FinalFailures

	closers []func() error
}

func New(cfg *config.Config) (*App, error) {
	loc, err := cfg.Location()
	if err != nil {
		return nil, err
	}

	return &App{
		Config:   cfg,
		Logger:   logging.New(cfg),
		Location: loc,
		Audit:    deliverylog.NewAudit(cfg.AuditFile(), loc),
		Finals:   deliverylog.NewFinalFailures(cfg.FinalFailuresFile()),
	}, nil
}

// Now is the clock every pass uses: wall time in the configured zone.
func (a *App) Now() time.Time {
	return time.Now().In(a.Location)
}

// Dispatcher wires the invoice source, PDF upload and both channels. It is
// returned with the source so a pass fetches from the same client.
func (a *App) Dispatcher(logger *slog.Logger) (*notify.Dispatcher, *zoho.Client, error) {
	if err := a.Config.ValidateDispatch(); err != nil {
		return nil, nil, err
	}

	client := zoho.NewClient(a.Config.Zoho)

	var uploader notify.Uploader
	if a.Config.Storage.ParUploadURL != "" {
		uploader = oracle.NewUploader(a.Config.Storage.ParUploadURL)
	} else {
		a.Logger.Warn("ORACLE_PAR_UPLOAD_URL not set, reminders go out without invoice links")
	}

	var fallback notify.Channel
	if a.Config.SMTP.Enabled() {
		fallback = email.NewChannel(a.Config.SMTP)
	}

	d := notify.NewDispatcher(
		notify.Config{
			From:         a.Config.Twilio.From,
			FallbackFrom: a.Config.SMTP.From,
			PDFDir:       a.Config.Paths.PDFDir,
		},
		client,
		uploader,
		twilio.NewChannel(a.Config.Twilio),
		fallback,
		a.Audit,
		a.Now,
		logger,
	)

	return d, client, nil
}

// Runner builds the scheduled pass, opening the membership backend.
func (a *App) Runner(ctx context.Context) (*reminder.Runner, error) {
	d, source, err := a.Dispatcher(a.Logger.With("pass", reminder.PassRun))
	if err != nil {
		return nil, err
	}

	membership, closeFn, err := store.Open(ctx, a.Config)
	if err != nil {
		return nil, fmt.Errorf("opening %s log backend: %w", a.Config.Membership.Backend, err)
	}

	a.closers = append(a.closers, closeFn)

	sched := schedule.New(a.Config.Reminder.Schedule)

	return reminder.NewRunner(source, deliverylog.NewLog(membership), d, sched, a.Now, a.Logger), nil
}

func (a *App) Retrier() (*reminder.Retrier, error) {
	d, source, err := a.Dispatcher(a.Logger.With("pass", reminder.PassRetry))
	if err != nil {
		return nil, err
	}

	return reminder.NewRetrier(
		source, a.Audit, a.Finals, d,
		a.Config.Reminder.RetryLimit, a.Config.Reminder.RetryDelay, a.Logger,
	), nil
}

func (a *App) Sweeper() *maintenance.Sweeper {
	return maintenance.NewSweeper(
		a.Config.Paths.PDFDir,
		a.Audit,
		deliverylog.NewAudit(a.Config.ArchiveFile(), a.Location),
		a.Finals,
		a.Config.Maintenance.MaxAge,
		a.Now,
		a.Logger.With("pass", "maintenance"),
	)
}

func (a *App) Export() *export.Service {
	return export.NewService(a.Audit)
}

// Close releases every backend opened through the app.
func (a *App) Close() error {
	var errs []error

	for _, c := range a.closers {
		if err := c(); err != nil {
			errs = append(errs, err)
		}
	}

	a.closers = nil

	return errors.Join(errs...)
}
