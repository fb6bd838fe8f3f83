package reminder

import (
	"context"
	"time"

	"github.com/MrJamesThe3rd/dunning/internal/invoice"
	"github.com/MrJamesThe3rd/dunning/internal/notify"
)

const (
	PassRun   = "run"
	PassRetry = "retry"
)

//go:generate mockgen -source=reminder.go -destination=reminder_mock.go -package=reminder

// Dispatcher sends one reminder and records the attempt.
type Dispatcher interface {
	Dispatch(ctx context.Context, inv *invoice.Invoice, interval int) (notify.Outcome, error)
}

// Clock returns the current time in the location that defines "today".
type Clock func() time.Time

// wait pauses between dispatches unless the context ends first.
func wait(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}

	t := time.NewTimer(d)
	defer t.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
