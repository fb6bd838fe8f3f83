package deliverylog

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAudit_AppendWritesHeaderOnce(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sent_log.csv")
	a := NewAudit(path, time.UTC)

	ts := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)
	row := Row{
		Timestamp:     ts,
		InvoiceID:     "4711",
		InvoiceNumber: "INV-000123",
		Interval:      3,
		DueDate:       "2026-03-13",
		Status:        StatusSent,
		Method:        MethodWhatsApp,
		Phone:         "+966500000001",
		Message:       "*Invoice Reminder*\nInvoice No: *INV-000123*",
	}

	require.NoError(t, a.AppendAuditRow(row))
	require.NoError(t, a.AppendAuditRow(row))

	raw, err := os.ReadFile(path)
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(string(raw)), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, strings.Join(Header, ","), lines[0])
	assert.Equal(t, "2026-03-10 09:00:00,4711,INV-000123,3,2026-03-13,SENT,whatsapp,+966500000001,*Invoice Reminder* Invoice No: *INV-000123*", lines[1])

	rows, err := a.ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 2)

	want := row
	want.Message = "*Invoice Reminder* Invoice No: *INV-000123*"
	assert.Equal(t, want, rows[0])
}

func TestTruncateMessage(t *testing.T) {
	long := strings.Repeat("ب", 150)

	assert.Equal(t, 100, len([]rune(TruncateMessage(long))))
	assert.Equal(t, "a b c", TruncateMessage("a\nb\r\nc"))
	assert.Equal(t, "short", TruncateMessage("short"))
}

func TestParseAudit_Layouts(t *testing.T) {
	input := strings.Join([]string{
		// legacy, no header, no due date, unquoted message with commas
		"2025-01-05 09:00:01,100,INV-1,3,FAILED,whatsapp,whatsapp:+966500000001,Hello, please pay, thanks",
		"2025-01-05 09:00:02,101,INV-2,0,SENT,whatsapp,+966500000002,Due today",
		// current layout
		`2026-03-10 09:00:00,102,INV-3,-1,2026-03-11,EMAIL,email,+966500000003,"Overdue, settle now"`,
		// junk
		"not,a,row",
		"",
		"2026-03-10 09:00:00,,INV-4,1,2026-03-11,SENT,whatsapp,+9665,x",
	}, "\n")

	rows, err := parseAudit(strings.NewReader(input), time.UTC)
	require.NoError(t, err)
	require.Len(t, rows, 3)

	assert.Equal(t, "100", rows[0].InvoiceID)
	assert.Equal(t, 3, rows[0].Interval)
	assert.Equal(t, "", rows[0].DueDate)
	assert.Equal(t, StatusFailed, rows[0].Status)
	assert.Equal(t, MethodWhatsApp, rows[0].Method)
	assert.Equal(t, "Hello, please pay, thanks", rows[0].Message)

	assert.Equal(t, StatusSent, rows[1].Status)
	assert.Equal(t, "101_0", rows[1].Key())

	assert.Equal(t, "2026-03-11", rows[2].DueDate)
	assert.Equal(t, StatusEmail, rows[2].Status)
	assert.Equal(t, MethodEmail, rows[2].Method)
	assert.Equal(t, "Overdue, settle now", rows[2].Message)
	assert.True(t, rows[2].Delivered())
}

func TestParseAudit_HeaderSkipped(t *testing.T) {
	input := strings.Join(Header, ",") + "\n" +
		"2026-03-10 09:00:00,7,INV-7,5,2026-03-15,SENT,whatsapp,+966500000007,hi\n"

	rows, err := parseAudit(strings.NewReader(input), time.UTC)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "7_5", rows[0].Key())
}

func TestAudit_Rewrite(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sent_log.csv")
	a := NewAudit(path, time.UTC)

	keep := Row{Timestamp: time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC), InvoiceID: "1", Interval: 0, Status: StatusSent, Method: MethodWhatsApp}
	drop := Row{Timestamp: time.Date(2026, 1, 1, 9, 0, 0, 0, time.UTC), InvoiceID: "2", Interval: 0, Status: StatusSent, Method: MethodWhatsApp}

	require.NoError(t, a.AppendRows([]Row{drop, keep}))
	require.NoError(t, a.Rewrite([]Row{keep}))

	rows, err := a.ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "1", rows[0].InvoiceID)
}

func TestAudit_ReadAllMissingFile(t *testing.T) {
	rows, err := NewAudit(filepath.Join(t.TempDir(), "none.csv"), nil).ReadAll()
	require.NoError(t, err)
	assert.Empty(t, rows)
}

func TestFinalFailures(t *testing.T) {
	path := filepath.Join(t.TempDir(), "final_failures.csv")
	s := NewFinalFailures(path)

	keys, err := s.Keys()
	require.NoError(t, err)
	assert.Empty(t, keys)

	require.NoError(t, s.Append(FinalFailure{
		InvoiceID: "9", InvoiceNumber: "INV-9", Interval: -3, DueDate: "2026-03-07", Phone: "+9665", Reason: ReasonRetryLimit,
	}))

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "InvoiceID,InvoiceNumber,Interval,DueDate,Phone,Reason\n9,INV-9,-3,2026-03-07,+9665,Retry limit reached\n", string(raw))

	keys, err = s.Keys()
	require.NoError(t, err)
	assert.Equal(t, map[string]struct{}{"9_-3": {}}, keys)
}
