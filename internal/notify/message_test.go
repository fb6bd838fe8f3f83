package notify_test

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"github.com/MrJamesThe3rd/dunning/internal/invoice"
	"github.com/MrJamesThe3rd/dunning/internal/notify"
)

func TestTierFor(t *testing.T) {
	type testCase struct {
		interval int
		want     notify.Tier
	}

	tests := []testCase{
		{interval: 30, want: notify.TierFriendly},
		{interval: 21, want: notify.TierFriendly},
		{interval: 20, want: notify.TierImportant},
		{interval: 6, want: notify.TierImportant},
		{interval: 5, want: notify.TierFinal},
		{interval: 0, want: notify.TierFinal},
		{interval: -1, want: notify.TierOverdue},
		{interval: -10, want: notify.TierOverdue},
	}

	for _, tt := range tests {
		t.Run(tt.want.String(), func(t *testing.T) {
			assert.Equal(t, tt.want, notify.TierFor(tt.interval), "interval %d", tt.interval)
		})
	}
}

func TestCompose(t *testing.T) {
	due := time.Date(2026, 3, 13, 0, 0, 0, 0, time.UTC)
	inv := &invoice.Invoice{
		ID:           "100",
		Number:       "INV-000100",
		DueDate:      &due,
		Total:        decimal.RequireFromString("1150.5"),
		CurrencyCode: "SAR",
		CustomerName: "Acme Trading",
	}

	got := notify.Compose(inv, 3, "https://objects.example/invoice_100.pdf")

	want := "*Final Reminder*\n" +
		"Dear Acme Trading,\n" +
		"Invoice No: *INV-000100*\n" +
		"Amount Due: *1150.50 SAR*\n" +
		"Due Date: *2026-03-13*\n\n" +
		"📎 Download Invoice: https://objects.example/invoice_100.pdf\n\n" +
		"Payment is due in 3 days. Please settle on or before the due date. Thank you!"

	assert.Equal(t, want, got)
	assert.Equal(t, got, notify.Compose(inv, 3, "https://objects.example/invoice_100.pdf"), "deterministic")
}

func TestCompose_Variants(t *testing.T) {
	inv := &invoice.Invoice{Number: "INV-1", Total: decimal.NewFromInt(20)}

	noLink := notify.Compose(inv, 15, "")
	assert.NotContains(t, noLink, "Download Invoice")
	assert.Contains(t, noLink, "*Important: Invoice Reminder*")
	assert.Contains(t, noLink, "Amount Due: *20.00*")
	assert.Contains(t, noLink, "Due Date: *N/A*")
	assert.NotContains(t, noLink, "Dear")

	assert.Contains(t, notify.Compose(inv, 0, ""), "Payment is due today.")
	assert.Contains(t, notify.Compose(inv, 1, ""), "due in 1 day.")
	assert.Contains(t, notify.Compose(inv, -1, ""), "1 day overdue")
	assert.Contains(t, notify.Compose(inv, -7, ""), "*Overdue Notice*")
	assert.Contains(t, notify.Compose(inv, -7, ""), "7 days overdue")
	assert.Contains(t, notify.Compose(inv, 25, ""), "*Invoice Reminder*")
}

func TestPDFName(t *testing.T) {
	assert.Equal(t, "invoice_100.pdf", notify.PDFName("100"))
	assert.Equal(t, "invoice____etc.pdf", notify.PDFName("../etc"))
}
