package export

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/MrJamesThe3rd/dunning/internal/deliverylog"
)

const sheetName = "Reminders"

// AuditReader returns the full audit trail, oldest first.
type AuditReader interface {
	ReadAll() ([]deliverylog.Row, error)
}

// Filter narrows the audit trail. Empty fields match everything.
type Filter struct {
	// Status matches case-insensitively.
	Status string
	// Invoice is a case-insensitive substring of the invoice id or number.
	Invoice string
	// DueDate is a substring of the due date, e.g. "2026-03".
	DueDate string
}

func (f Filter) matches(r deliverylog.Row) bool {
	if f.Status != "" && !strings.EqualFold(string(r.Status), f.Status) {
		return false
	}

	if f.Invoice != "" {
		needle := strings.ToLower(f.Invoice)
		if !strings.Contains(strings.ToLower(r.InvoiceID), needle) && !strings.Contains(strings.ToLower(r.InvoiceNumber), needle) {
			return false
		}
	}

	return f.DueDate == "" || strings.Contains(r.DueDate, f.DueDate)
}

// Entry is an audit row plus how many attempts its key has had in total.
type Entry struct {
	deliverylog.Row
	Attempts int
}

// Service reads the audit trail for the dashboard, the TUI and exports.
type Service struct {
	audit AuditReader
}

func NewService(audit AuditReader) *Service {
	return &Service{audit: audit}
}

// List returns the rows matching filter in file order. Attempts are counted
// over the whole trail, not just the filtered rows.
func (s *Service) List(filter Filter) ([]Entry, error) {
	rows, err := s.audit.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("reading audit trail: %w", err)
	}

	attempts := make(map[string]int, len(rows))
	for _, r := range rows {
		attempts[r.Key()]++
	}

	entries := make([]Entry, 0, len(rows))

	for _, r := range rows {
		if !filter.matches(r) {
			continue
		}

		entries = append(entries, Entry{Row: r, Attempts: attempts[r.Key()]})
	}

	return entries, nil
}

// Workbook renders entries as an xlsx file.
func (s *Service) Workbook(entries []Entry) (*bytes.Buffer, error) {
	xl := excelize.NewFile()
	defer func() { _ = xl.Close() }()

	if err := xl.SetSheetName(xl.GetSheetName(0), sheetName); err != nil {
		return nil, fmt.Errorf("naming sheet: %w", err)
	}

	header := []any{"Timestamp", "Invoice ID", "Invoice No", "Interval", "Due Date", "Status", "Method", "Destination", "Message", "Attempts"}
	if err := xl.SetSheetRow(sheetName, "A1", &header); err != nil {
		return nil, fmt.Errorf("writing header: %w", err)
	}

	for i, e := range entries {
		record := []any{
			e.Timestamp.Format(deliverylog.TimestampLayout),
			e.InvoiceID,
			e.InvoiceNumber,
			e.Interval,
			e.DueDate,
			string(e.Status),
			string(e.Method),
			e.Phone,
			e.Message,
			e.Attempts,
		}

		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return nil, err
		}

		if err := xl.SetSheetRow(sheetName, cell, &record); err != nil {
			return nil, fmt.Errorf("writing row %d: %w", i+2, err)
		}
	}

	if err := xl.SetPanes(sheetName, &excelize.Panes{Freeze: true, YSplit: 1, TopLeftCell: "A2", ActivePane: "bottomLeft"}); err != nil {
		return nil, fmt.Errorf("freezing header: %w", err)
	}

	buf, err := xl.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("writing workbook: %w", err)
	}

	return buf, nil
}

// Export writes the filtered trail as an xlsx file into dir and returns its path.
func (s *Service) Export(filter Filter, dir string, now time.Time) (string, error) {
	entries, err := s.List(filter)
	if err != nil {
		return "", err
	}

	buf, err := s.Workbook(entries)
	if err != nil {
		return "", err
	}

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("creating output directory: %w", err)
	}

	path := filepath.Join(dir, FileName(now))
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		return "", fmt.Errorf("writing file: %w", err)
	}

	return path, nil
}

func FileName(now time.Time) string {
	return fmt.Sprintf("reminders_%s.xlsx", now.Format("20060102_150405"))
}

// GenerateSummary renders one line per entry followed by totals per status.
func (s *Service) GenerateSummary(entries []Entry) string {
	var sb strings.Builder

	counts := make(map[deliverylog.Status]int)

	for _, e := range entries {
		counts[e.Status]++

		fmt.Fprintf(&sb, "* %s | %s | %+d | %s | %s via %s | attempts %d\n",
			e.Timestamp.Format(time.DateOnly), numberOf(e.Row), e.Interval, e.DueDate, e.Status, e.Method, e.Attempts)
	}

	fmt.Fprintf(&sb, "\nTotal: %d  sent: %d  email: %d  failed: %d\n",
		len(entries), counts[deliverylog.StatusSent], counts[deliverylog.StatusEmail], counts[deliverylog.StatusFailed])

	return sb.String()
}

func numberOf(r deliverylog.Row) string {
	if r.InvoiceNumber != "" {
		return r.InvoiceNumber
	}

	return r.InvoiceID
}
