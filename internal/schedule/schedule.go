package schedule

import (
	"slices"
	"time"

	"github.com/MrJamesThe3rd/dunning/internal/invoice"
)

// Default is the reminder plan used when none is configured. Anything older
// than ten days overdue is no longer chased.
var Default = []int{15, 13, 11, 9, 7, 5, 3, 1, 0, -1, -3, -5, -7, -10}

// Schedule is the set of day offsets, relative to the due date, on which a
// reminder is owed. Positive offsets are upcoming, negative are overdue.
type Schedule struct {
	offsets []int
}

func New(offsets []int) Schedule {
	s := slices.Clone(offsets)
	slices.Sort(s)
	s = slices.Compact(s)
	slices.Reverse(s)

	return Schedule{offsets: s}
}

// Contains is an exact match; there are no ranges.
func (s Schedule) Contains(interval int) bool {
	return slices.Contains(s.offsets, interval)
}

// Offsets returns the offsets from the furthest upcoming to the most overdue.
func (s Schedule) Offsets() []int {
	return slices.Clone(s.offsets)
}

// ComputeInterval returns the number of calendar days from today until due:
// positive when due lies ahead, zero on the day, negative once overdue. Only
// the calendar dates count: today is read in its own location and due is
// taken as the date it carries.
func ComputeInterval(today, due time.Time) int {
	return int(civil(due).Sub(civil(today)).Hours() / 24)
}

// civil drops the clock and the zone so daylight saving never shifts a day.
func civil(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// IsDue reports whether inv owes a reminder today and the interval that
// identifies it. Paid invoices and invoices without a due date are never due.
func IsDue(inv *invoice.Invoice, today time.Time, s Schedule) (bool, int) {
	if inv.DueDate == nil || inv.IsPaid() {
		return false, 0
	}

	interval := ComputeInterval(today, *inv.DueDate)

	return s.Contains(interval), interval
}
