package invoice

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// ErrFetch marks a failure to retrieve the invoice set; a pass cannot proceed without it.
var ErrFetch = errors.New("fetching invoices")

// Status is the billing provider's lifecycle state of an invoice.
type Status string

const (
	StatusPaid   Status = "paid"
	StatusUnpaid Status = "unpaid"
)

// Address is the subset of a billing or shipping address the reminders care about.
type Address struct {
	Phone string
}

// Invoice is a billing invoice as returned by the provider. It is read-only to the scheduler.
type Invoice struct {
	ID              string
	Number          string
	Status          Status
	DueDate         *time.Time
	InvoiceDate     *time.Time
	Total           decimal.Decimal
	CurrencyCode    string
	CustomerName    string
	Email           string
	Phone           string
	BillingAddress  Address
	ShippingAddress Address
}

// IsPaid compares the status case-insensitively, providers are not consistent about it.
func (inv *Invoice) IsPaid() bool {
	return strings.EqualFold(string(inv.Status), string(StatusPaid))
}

// ContactPhone returns the first phone found on the invoice, then its billing
// address, then its shipping address. Empty when the customer is unreachable.
func (inv *Invoice) ContactPhone() string {
	for _, p := range []string{inv.Phone, inv.BillingAddress.Phone, inv.ShippingAddress.Phone} {
		if p = strings.TrimSpace(p); p != "" {
			return p
		}
	}

	return ""
}

// DueDateString formats the due date the way it is written to the logs.
func (inv *Invoice) DueDateString() string {
	if inv.DueDate == nil {
		return "N/A"
	}

	return inv.DueDate.Format(time.DateOnly)
}

//go:generate mockgen -source=invoice.go -destination=invoice_mock.go -package=invoice

// Source lists every invoice known to the billing provider.
type Source interface {
	FetchAll(ctx context.Context) ([]*Invoice, error)
}

// PDFSource downloads the rendered PDF of a single invoice.
type PDFSource interface {
	FetchPDF(ctx context.Context, invoiceID string) ([]byte, error)
}

// PaidIDs collects the IDs of every paid invoice in the set.
func PaidIDs(invoices []*Invoice) map[string]struct{} {
	paid := make(map[string]struct{})

	for _, inv := range invoices {
		if inv.IsPaid() {
			paid[inv.ID] = struct{}{}
		}
	}

	return paid
}

// Index maps invoices by ID.
func Index(invoices []*Invoice) map[string]*Invoice {
	m := make(map[string]*Invoice, len(invoices))
	for _, inv := range invoices {
		m[inv.ID] = inv
	}

	return m
}
