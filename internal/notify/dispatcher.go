package notify

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/MrJamesThe3rd/dunning/internal/deliverylog"
	"github.com/MrJamesThe3rd/dunning/internal/invoice"
	"github.com/MrJamesThe3rd/dunning/internal/metrics"
)

type Config struct {
	// From is the sender on the primary channel, e.g. the Twilio WhatsApp number.
	From string
	// FallbackFrom is the sender on the fallback channel.
	FallbackFrom string
	// PDFDir is where fetched invoice PDFs are written before upload.
	PDFDir string
}

// Dispatcher sends one reminder for one invoice and records the attempt.
type Dispatcher struct {
	cfg      Config
	pdfs     invoice.PDFSource
	uploader Uploader
	primary  Channel
	fallback Channel
	audit    AuditWriter
	now      func() time.Time
	logger   *slog.Logger
}

// NewDispatcher wires a dispatcher. pdfs, uploader and fallback may be nil;
// a nil fallback means there is no second channel.
func NewDispatcher(
	cfg Config,
	pdfs invoice.PDFSource,
	uploader Uploader,
	primary Channel,
	fallback Channel,
	audit AuditWriter,
	now func() time.Time,
	logger *slog.Logger,
) *Dispatcher {
	if now == nil {
		now = time.Now
	}

	if logger == nil {
		logger = slog.Default()
	}

	return &Dispatcher{
		cfg:      cfg,
		pdfs:     pdfs,
		uploader: uploader,
		primary:  primary,
		fallback: fallback,
		audit:    audit,
		now:      now,
		logger:   logger,
	}
}

// Dispatch sends the reminder for inv at interval. The returned error is only
// ever a persistence error from the audit trail; delivery problems are
// reported through the outcome.
func (d *Dispatcher) Dispatch(ctx context.Context, inv *invoice.Invoice, interval int) (Outcome, error) {
	log := d.logger.With("invoice_id", inv.ID, "invoice_number", inv.Number, "interval", interval)

	phone := inv.ContactPhone()
	if phone == "" {
		log.Warn("no phone on invoice, skipping")
		metrics.Unreachable.Inc()

		return Outcome{Status: deliverylog.StatusFailed, Method: deliverylog.MethodWhatsApp, Unreachable: true}, nil
	}

	link, err := d.attach(ctx, inv)
	if err != nil {
		log.Warn("sending without invoice link", "error", err)
		metrics.AttachmentFailures.Inc()
	}

	body := Compose(inv, interval, link)
	out := d.send(ctx, log, inv, phone, body)

	row := deliverylog.Row{
		Timestamp:     d.now(),
		InvoiceID:     inv.ID,
		InvoiceNumber: inv.Number,
		Interval:      interval,
		DueDate:       inv.DueDateString(),
		Status:        out.Status,
		Method:        out.Method,
		Phone:         out.Destination,
		Message:       body,
	}

	if err := d.audit.AppendAuditRow(row); err != nil {
		return out, fmt.Errorf("recording delivery of invoice %s: %w", inv.ID, err)
	}

	return out, nil
}

func (d *Dispatcher) send(ctx context.Context, log *slog.Logger, inv *invoice.Invoice, phone, body string) Outcome {
	sid, err := d.primary.SendText(ctx, phone, d.cfg.From, body)
	if err == nil {
		log.Info("reminder sent", "to", phone, "sid", sid)

		return Outcome{
			Status:      deliverylog.StatusSent,
			Method:      deliverylog.MethodWhatsApp,
			Destination: phone,
			MessageID:   sid,
		}
	}

	primaryErr := fmt.Errorf("%w: whatsapp to %s: %v", ErrDelivery, phone, err)
	log.Warn("whatsapp failed", "error", primaryErr)

	failed := Outcome{
		Status:      deliverylog.StatusFailed,
		Method:      deliverylog.MethodWhatsApp,
		Destination: phone,
		Err:         primaryErr,
	}

	if d.fallback == nil || inv.Email == "" {
		return failed
	}

	id, err := d.fallback.SendText(ctx, inv.Email, d.cfg.FallbackFrom, body)
	if err != nil {
		fallbackErr := fmt.Errorf("%w: email to %s: %v", ErrDelivery, inv.Email, err)
		log.Warn("email fallback failed", "error", fallbackErr)

		failed.Err = errors.Join(primaryErr, fallbackErr)

		return failed
	}

	log.Info("reminder sent by email", "to", inv.Email)

	return Outcome{
		Status:      deliverylog.StatusEmail,
		Method:      deliverylog.MethodEmail,
		Destination: inv.Email,
		MessageID:   id,
	}
}

// attach fetches the invoice PDF, keeps a local copy and uploads it.
func (d *Dispatcher) attach(ctx context.Context, inv *invoice.Invoice) (string, error) {
	if d.pdfs == nil {
		return "", fmt.Errorf("%w: no pdf source", ErrAttachment)
	}

	pdf, err := d.pdfs.FetchPDF(ctx, inv.ID)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrAttachment, err)
	}

	if len(pdf) == 0 {
		return "", fmt.Errorf("%w: empty pdf", ErrAttachment)
	}

	name := PDFName(inv.ID)
	path := filepath.Join(d.cfg.PDFDir, name)

	if err := os.MkdirAll(d.cfg.PDFDir, 0o755); err != nil {
		return "", fmt.Errorf("%w: creating pdf dir: %v", ErrAttachment, err)
	}

	if err := os.WriteFile(path, pdf, 0o644); err != nil {
		return "", fmt.Errorf("%w: writing %s: %v", ErrAttachment, path, err)
	}

	if d.uploader == nil {
		return "", fmt.Errorf("%w: no object storage configured", ErrAttachment)
	}

	link, err := d.uploader.Upload(ctx, path, name)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrAttachment, err)
	}

	return link, nil
}

// PDFName is the local and object name of an invoice PDF.
func PDFName(invoiceID string) string {
	safe := strings.Map(func(r rune) rune {
		if (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') || r == '-' || r == '_' {
			return r
		}

		return '_'
	}, invoiceID)

	return "invoice_" + safe + ".pdf"
}
