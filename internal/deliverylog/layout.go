package deliverylog

import (
	"strconv"
	"strings"
	"time"
)

// layout describes one column arrangement the audit trail has been written in.
// Older trails were written without a header, a DueDate column or quoting.
type layout struct {
	name    string
	columns []string
}

var layouts = []layout{
	{
		name:    "current",
		columns: Header,
	},
	{
		name:    "legacy",
		columns: []string{"Timestamp", "InvoiceID", "InvoiceNumber", "Interval", "Status", "Method", "Phone", "Message"},
	},
}

func (l *layout) index(name string) int {
	for i, c := range l.columns {
		if c == name {
			return i
		}
	}

	return -1
}

// headerLayout returns the layout whose column names rec carries, if any.
func headerLayout(rec []string) *layout {
	cols := make(map[string]struct{}, len(rec))
	for _, cell := range rec {
		if name := strings.TrimSpace(cell); name != "" {
			cols[name] = struct{}{}
		}
	}

	for i := range layouts {
		if matchesLayout(&layouts[i], cols) {
			return &layouts[i]
		}
	}

	return nil
}

func matchesLayout(l *layout, cols map[string]struct{}) bool {
	for _, name := range l.columns {
		if _, ok := cols[name]; !ok {
			return false
		}
	}

	return true
}

// guessLayout picks a layout for a data row by where the status lands. An
// unquoted message with commas makes the row longer but never moves it.
func guessLayout(rec []string) *layout {
	for i := range layouts {
		l := &layouts[i]

		if len(rec) < len(l.columns) {
			continue
		}

		if isStatus(cell(rec, l.index("Status"))) {
			return l
		}
	}

	return nil
}

func isStatus(s string) bool {
	switch Status(s) {
	case StatusSent, StatusFailed, StatusEmail:
		return true
	}

	return false
}

func (l *layout) parse(rec []string, loc *time.Location) (Row, bool) {
	ts, err := time.ParseInLocation(TimestampLayout, cell(rec, l.index("Timestamp")), loc)
	if err != nil {
		return Row{}, false
	}

	interval, err := strconv.Atoi(cell(rec, l.index("Interval")))
	if err != nil {
		return Row{}, false
	}

	row := Row{
		Timestamp:     ts,
		InvoiceID:     cell(rec, l.index("InvoiceID")),
		InvoiceNumber: cell(rec, l.index("InvoiceNumber")),
		Interval:      interval,
		Status:        Status(cell(rec, l.index("Status"))),
		Method:        Method(cell(rec, l.index("Method"))),
		Phone:         cell(rec, l.index("Phone")),
	}

	if i := l.index("DueDate"); i >= 0 {
		row.DueDate = cell(rec, i)
	}

	if row.InvoiceID == "" {
		return Row{}, false
	}

	// Message is last in every layout; anything past it was split off an unquoted message.
	if i := l.index("Message"); i < len(rec) {
		row.Message = strings.Join(rec[i:], ",")
	}

	return row, true
}

func cell(rec []string, i int) string {
	if i < 0 || i >= len(rec) {
		return ""
	}

	return strings.TrimSpace(rec[i])
}
