package invoice_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/MrJamesThe3rd/dunning/internal/invoice"
)

func TestInvoice_ContactPhone(t *testing.T) {
	type testCase struct {
		name string
		inv  invoice.Invoice
		want string
	}

	tests := []testCase{
		{
			name: "Own Phone Wins",
			inv: invoice.Invoice{
				Phone:          "+966500000001",
				BillingAddress: invoice.Address{Phone: "+966500000002"},
			},
			want: "+966500000001",
		},
		{
			name: "Billing Before Shipping",
			inv: invoice.Invoice{
				BillingAddress:  invoice.Address{Phone: "+966500000002"},
				ShippingAddress: invoice.Address{Phone: "+966500000003"},
			},
			want: "+966500000002",
		},
		{
			name: "Shipping Only",
			inv: invoice.Invoice{
				Phone:           "   ",
				ShippingAddress: invoice.Address{Phone: "+966500000003"},
			},
			want: "+966500000003",
		},
		{
			name: "Unreachable",
			inv:  invoice.Invoice{},
			want: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.inv.ContactPhone())
		})
	}
}

func TestInvoice_IsPaid(t *testing.T) {
	assert.True(t, (&invoice.Invoice{Status: "paid"}).IsPaid())
	assert.True(t, (&invoice.Invoice{Status: "PAID"}).IsPaid())
	assert.False(t, (&invoice.Invoice{Status: invoice.StatusUnpaid}).IsPaid())
	assert.False(t, (&invoice.Invoice{Status: "overdue"}).IsPaid())
}

func TestPaidIDs(t *testing.T) {
	invoices := []*invoice.Invoice{
		{ID: "1", Status: invoice.StatusPaid},
		{ID: "2", Status: invoice.StatusUnpaid},
		{ID: "3", Status: "Paid"},
	}

	paid := invoice.PaidIDs(invoices)
	assert.Len(t, paid, 2)
	assert.Contains(t, paid, "1")
	assert.Contains(t, paid, "3")
	assert.NotContains(t, paid, "2")
}

func TestInvoice_DueDateString(t *testing.T) {
	due := time.Date(2026, 3, 9, 0, 0, 0, 0, time.UTC)

	assert.Equal(t, "2026-03-09", (&invoice.Invoice{DueDate: &due}).DueDateString())
	assert.Equal(t, "N/A", (&invoice.Invoice{}).DueDateString())
}
