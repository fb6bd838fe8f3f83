package notify

import (
	"fmt"
	"strings"

	"github.com/MrJamesThe3rd/dunning/internal/invoice"
)

// Tier is the urgency of a reminder, picked from its interval.
type Tier int

const (
	TierFriendly Tier = iota
	TierImportant
	TierFinal
	TierOverdue
)

func (t Tier) String() string {
	switch t {
	case TierFriendly:
		return "friendly"
	case TierImportant:
		return "important"
	case TierFinal:
		return "final"
	case TierOverdue:
		return "overdue"
	}

	return "unknown"
}

// TierFor maps days-until-due to an urgency tier: more than 20 is friendly,
// 6 to 20 important, 0 to 5 final, anything negative overdue.
func TierFor(interval int) Tier {
	switch {
	case interval > 20:
		return TierFriendly
	case interval >= 6:
		return TierImportant
	case interval >= 0:
		return TierFinal
	default:
		return TierOverdue
	}
}

var headings = map[Tier]string{
	TierFriendly:  "*Invoice Reminder*",
	TierImportant: "*Important: Invoice Reminder*",
	TierFinal:     "*Final Reminder*",
	TierOverdue:   "*Overdue Notice*",
}

// Compose renders the reminder text. It depends only on its arguments; link
// may be empty when the attachment could not be produced.
func Compose(inv *invoice.Invoice, interval int, link string) string {
	var sb strings.Builder

	sb.WriteString(headings[TierFor(interval)])
	sb.WriteString("\n")

	if inv.CustomerName != "" {
		fmt.Fprintf(&sb, "Dear %s,\n", inv.CustomerName)
	}

	fmt.Fprintf(&sb, "Invoice No: *%s*\n", inv.Number)
	fmt.Fprintf(&sb, "Amount Due: *%s*\n", formatAmount(inv))
	fmt.Fprintf(&sb, "Due Date: *%s*\n\n", inv.DueDateString())

	if link != "" {
		fmt.Fprintf(&sb, "📎 Download Invoice: %s\n\n", link)
	}

	sb.WriteString(closing(interval))

	return sb.String()
}

func formatAmount(inv *invoice.Invoice) string {
	amount := inv.Total.StringFixed(2)
	if inv.CurrencyCode != "" {
		return amount + " " + inv.CurrencyCode
	}

	return amount
}

func closing(interval int) string {
	switch TierFor(interval) {
	case TierFinal:
		if interval == 0 {
			return "Payment is due today. Please settle it today. Thank you!"
		}

		return fmt.Sprintf("Payment is due in %s. Please settle on or before the due date. Thank you!", days(interval))
	case TierOverdue:
		return fmt.Sprintf("This invoice is %s overdue. Please settle it as soon as possible. Thank you!", days(-interval))
	default:
		return "Please settle on or before the due date. Thank you!"
	}
}

func days(n int) string {
	if n == 1 {
		return "1 day"
	}

	return fmt.Sprintf("%d days", n)
}
