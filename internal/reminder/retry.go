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
)

// AuditReader returns the full audit trail, oldest first.
type AuditReader interface {
	ReadAll() ([]deliverylog.Row, error)
}

// FailureStore holds the keys the retry pass has given up on.
type FailureStore interface {
	Keys() (map[string]struct{}, error)
	Append(f deliverylog.FinalFailure) error
}

type RetryResult struct {
	Candidates   int
	Retried      int
	Recovered    int
	StillFailing int
	GaveUp       int
	Skipped      int
	Errors       int
}

// Retrier re-sends reminders whose only recorded whatsapp attempts failed,
// up to a fixed number of attempts per key.
type Retrier struct {
	source     invoice.Source
	audit      AuditReader
	failures   FailureStore
	dispatcher Dispatcher
	limit      int
	delay      time.Duration
	logger     *slog.Logger
}

func NewRetrier(
	source invoice.Source,
	audit AuditReader,
	failures FailureStore,
	dispatcher Dispatcher,
	limit int,
	delay time.Duration,
	logger *slog.Logger,
) *Retrier {
	if logger == nil {
		logger = slog.Default()
	}

	return &Retrier{
		source:     source,
		audit:      audit,
		failures:   failures,
		dispatcher: dispatcher,
		limit:      limit,
		delay:      delay,
		logger:     logger,
	}
}

// candidate is a key whose attempts so far have all failed.
type candidate struct {
	last     deliverylog.Row
	attempts int
}

// Run performs one retry pass.
func (r *Retrier) Run(ctx context.Context) (res RetryResult, err error) {
	start := time.Now()
	defer func() { metrics.ObservePass(PassRetry, start, err) }()

	logger := logging.WithRun(r.logger, PassRetry)

	rows, err := r.audit.ReadAll()
	if err != nil {
		return res, fmt.Errorf("reading audit trail: %w", err)
	}

	given, err := r.failures.Keys()
	if err != nil {
		return res, fmt.Errorf("reading final failures: %w", err)
	}

	order, candidates := collect(rows, given)
	res.Candidates = len(order)

	if len(order) == 0 {
		logger.Info("nothing to retry")
		return res, nil
	}

	invoices, err := r.source.FetchAll(ctx)
	if err != nil {
		return res, fmt.Errorf("fetching invoices: %w", err)
	}

	byID := invoice.Index(invoices)

	for _, key := range order {
		c := candidates[key]
		log := logger.With("invoice_id", c.last.InvoiceID, "interval", c.last.Interval, "attempts", c.attempts)

		inv, ok := byID[c.last.InvoiceID]
		if !ok {
			res.Skipped++
			metrics.Skipped.WithLabelValues(PassRetry, "not_found").Inc()
			log.Warn("invoice no longer listed, not retrying")

			continue
		}

		if inv.IsPaid() {
			res.Skipped++
			metrics.Skipped.WithLabelValues(PassRetry, "paid").Inc()
			log.Info("invoice paid since last attempt")

			continue
		}

		if c.attempts >= r.limit {
			r.giveUp(log, c.last, c.last.Phone, deliverylog.ReasonRetryLimit, &res)
			continue
		}

		if res.Retried > 0 {
			if err := wait(ctx, r.delay); err != nil {
				return res, err
			}
		}

		res.Retried++

		out, err := r.dispatcher.Dispatch(ctx, inv, c.last.Interval)
		if err != nil {
			res.Errors++

			if errors.Is(err, deliverylog.ErrPersistence) {
				metrics.PersistenceErrors.Inc()
			}

			log.Error("failed to record retry", "error", err)

			continue
		}

		if out.Unreachable {
			r.giveUp(log, c.last, "", deliverylog.ReasonUnreachable, &res)
			continue
		}

		metrics.Deliveries.WithLabelValues(PassRetry, string(out.Status), string(out.Method)).Inc()

		if out.Delivered() {
			res.Recovered++
			log.Info("retry delivered", "status", out.Status, "method", out.Method)
		} else {
			res.StillFailing++
			log.Warn("retry failed", "error", out.Err)
		}
	}

	logger.Info("retry pass finished",
		"candidates", res.Candidates, "retried", res.Retried, "recovered", res.Recovered,
		"still_failing", res.StillFailing, "gave_up", res.GaveUp, "skipped", res.Skipped, "errors", res.Errors)

	return res, nil
}

func (r *Retrier) giveUp(log *slog.Logger, last deliverylog.Row, phone, reason string, res *RetryResult) {
	err := r.failures.Append(deliverylog.FinalFailure{
		InvoiceID:     last.InvoiceID,
		InvoiceNumber: last.InvoiceNumber,
		Interval:      last.Interval,
		DueDate:       last.DueDate,
		Phone:         phone,
		Reason:        reason,
	})
	if err != nil {
		res.Errors++
		metrics.PersistenceErrors.Inc()
		log.Error("failed to record final failure", "error", err)

		return
	}

	res.GaveUp++
	metrics.FinalFailures.Inc()
	log.Warn("giving up", "reason", reason)
}

// collect groups failed whatsapp attempts by key, in order of first failure.
// Keys that were ever delivered or already given up on are left out.
func collect(rows []deliverylog.Row, given map[string]struct{}) ([]string, map[string]*candidate) {
	delivered := make(map[string]struct{})

	for _, row := range rows {
		if row.Delivered() {
			delivered[row.Key()] = struct{}{}
		}
	}

	var order []string

	candidates := make(map[string]*candidate)

	for _, row := range rows {
		if row.Status != deliverylog.StatusFailed || row.Method != deliverylog.MethodWhatsApp {
			continue
		}

		key := row.Key()

		if _, ok := delivered[key]; ok {
			continue
		}

		if _, ok := given[key]; ok {
			continue
		}

		c, ok := candidates[key]
		if !ok {
			c = &candidate{}
			candidates[key] = c
			order = append(order, key)
		}

		c.attempts++
		c.last = row
	}

	return order, candidates
}
