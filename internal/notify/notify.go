package notify

import (
	"context"
	"errors"

	"github.com/MrJamesThe3rd/dunning/internal/deliverylog"
)

var (
	// ErrAttachment marks a PDF that could not be fetched, stored or uploaded.
	// The reminder still goes out, without a link.
	ErrAttachment = errors.New("invoice attachment unavailable")

	// ErrDelivery marks a message a channel refused or could not send.
	ErrDelivery = errors.New("message delivery failed")
)

//go:generate mockgen -source=notify.go -destination=notify_mock.go -package=notify

// Channel sends a plain text message and returns the provider's message id.
type Channel interface {
	SendText(ctx context.Context, to, from, body string) (string, error)
}

// Uploader stores a local file and returns a URL it can be downloaded from.
type Uploader interface {
	Upload(ctx context.Context, localPath, objectName string) (string, error)
}

// AuditWriter appends one row per delivery attempt.
type AuditWriter interface {
	AppendAuditRow(row deliverylog.Row) error
}

// Outcome is the result of one dispatch.
type Outcome struct {
	Status      deliverylog.Status
	Method      deliverylog.Method
	Destination string
	MessageID   string

	// Unreachable is set when the invoice carries no phone number. Nothing
	// was sent and nothing was written to the audit trail.
	Unreachable bool

	// Err holds the delivery errors behind a FAILED status.
	Err error
}

func (o Outcome) Delivered() bool {
	return o.Status == deliverylog.StatusSent || o.Status == deliverylog.StatusEmail
}
