package reminder

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/MrJamesThe3rd/dunning/internal/deliverylog"
	"github.com/MrJamesThe3rd/dunning/internal/invoice"
	"github.com/MrJamesThe3rd/dunning/internal/logging"
	"github.com/MrJamesThe3rd/dunning/internal/metrics"
	"github.com/MrJamesThe3rd/dunning/internal/notify"
	"github.com/MrJamesThe3rd/dunning/internal/schedule"
)

// Result tallies one scheduled pass.
type Result struct {
	Evaluated   int
	Due         int
	AlreadySent int
	Sent        int
	Emailed     int
	Failed      int
	Unreachable int
	Errors      int
	Pruned      int
}

// Runner is the scheduled pass: fetch every invoice once, prune the
// membership log, then remind each invoice that is due and not yet logged.
type Runner struct {
	source     invoice.Source
	log        *deliverylog.Log
	dispatcher Dispatcher
	schedule   schedule.Schedule
	clock      Clock
	logger     *slog.Logger
}

func NewRunner(
	source invoice.Source,
	log *deliverylog.Log,
	dispatcher Dispatcher,
	sched schedule.Schedule,
	clock Clock,
	logger *slog.Logger,
) *Runner {
	if clock == nil {
		clock = time.Now
	}

	if logger == nil {
		logger = slog.Default()
	}

	return &Runner{
		source:     source,
		log:        log,
		dispatcher: dispatcher,
		schedule:   sched,
		clock:      clock,
		logger:     logger,
	}
}

// Run performs one pass. It fails only when the invoices or the membership
// log cannot be read. Write failures, including a failed prune, are logged
// and counted while the pass carries on.
func (r *Runner) Run(ctx context.Context) (res Result, err error) {
	start := time.Now()
	defer func() { metrics.ObservePass(PassRun, start, err) }()

	today := r.clock()
	logger := logging.WithRun(r.logger, PassRun)

	invoices, err := r.source.FetchAll(ctx)
	if err != nil {
		return res, fmt.Errorf("fetching invoices: %w", err)
	}

	if err := r.log.Load(ctx); err != nil {
		return res, err
	}

	res.Pruned, err = r.log.PrunePaid(ctx, invoice.PaidIDs(invoices))
	switch {
	case errors.Is(err, deliverylog.ErrPersistence):
		// The loaded keys still hold; paid keys left behind are pruned next pass.
		res.Errors++
		metrics.PersistenceErrors.Inc()
		logger.Error("failed to prune paid invoices, continuing", "error", err)
	case err != nil:
		return res, fmt.Errorf("pruning paid invoices: %w", err)
	}

	logger.Info("pass started",
		"today", today.Format(time.DateOnly), "invoices", len(invoices), "known_keys", r.log.Len(), "pruned", res.Pruned)

	for _, inv := range invoices {
		if err := ctx.Err(); err != nil {
			return res, err
		}

		res.Evaluated++
		r.process(ctx, logger, today, inv, &res)
	}

	logger.Info("pass finished",
		"evaluated", res.Evaluated, "due", res.Due, "already_sent", res.AlreadySent,
		"sent", res.Sent, "emailed", res.Emailed, "failed", res.Failed,
		"unreachable", res.Unreachable, "errors", res.Errors)

	return res, nil
}

func (r *Runner) process(ctx context.Context, logger *slog.Logger, today time.Time, inv *invoice.Invoice, res *Result) {
	due, interval := schedule.IsDue(inv, today, r.schedule)
	if !due {
		metrics.Skipped.WithLabelValues(PassRun, "not_due").Inc()
		return
	}

	res.Due++

	key := deliverylog.Key(inv.ID, interval)
	log := logger.With("invoice_id", inv.ID, "interval", interval)

	if r.log.Contains(key) {
		res.AlreadySent++
		metrics.Skipped.WithLabelValues(PassRun, "already_sent").Inc()
		log.Debug("already reminded")

		return
	}

	out, err := r.dispatcher.Dispatch(ctx, inv, interval)
	if err != nil {
		res.Errors++
		r.countError(err)
		log.Error("failed to record delivery, invoice abandoned", "error", err)

		return
	}

	tally(out, res)

	if !out.Unreachable {
		metrics.Deliveries.WithLabelValues(PassRun, string(out.Status), string(out.Method)).Inc()
	}

	// The key goes in whatever the outcome; failed sends are the retry pass's job.
	if err := r.log.Append(ctx, key); err != nil {
		res.Errors++
		r.countError(err)
		log.Error("failed to append key", "key", key, "error", err)
	}
}

func (r *Runner) countError(err error) {
	if errors.Is(err, deliverylog.ErrPersistence) {
		metrics.PersistenceErrors.Inc()
	}
}

func tally(out notify.Outcome, res *Result) {
	switch {
	case out.Unreachable:
		res.Unreachable++
	case out.Status == deliverylog.StatusSent:
		res.Sent++
	case out.Status == deliverylog.StatusEmail:
		res.Emailed++
	default:
		res.Failed++
	}
}
