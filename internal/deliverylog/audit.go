package deliverylog

import (
	"bufio"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	enc "github.com/MrJamesThe3rd/dunning/internal/encoding"
)

// TimestampLayout is how audit timestamps are written and read back.
const TimestampLayout = "2006-01-02 15:04:05"

const maxMessageLen = 100

type Status string

const (
	StatusSent   Status = "SENT"
	StatusFailed Status = "FAILED"
	StatusEmail  Status = "EMAIL"
)

type Method string

const (
	MethodWhatsApp Method = "whatsapp"
	MethodEmail    Method = "email"
)

// Row is one delivery attempt in the audit trail.
type Row struct {
	Timestamp     time.Time
	InvoiceID     string
	InvoiceNumber string
	Interval      int
	DueDate       string
	Status        Status
	Method        Method
	Phone         string
	Message       string
}

func (r Row) Key() string {
	return Key(r.InvoiceID, r.Interval)
}

// Delivered reports whether the attempt reached the customer on any channel.
func (r Row) Delivered() bool {
	return r.Status == StatusSent || r.Status == StatusEmail
}

// Header is the column row written at the top of a new audit file.
var Header = []string{"Timestamp", "InvoiceID", "InvoiceNumber", "Interval", "DueDate", "Status", "Method", "Phone", "Message"}

func (r Row) record() []string {
	return []string{
		r.Timestamp.Format(TimestampLayout),
		r.InvoiceID,
		r.InvoiceNumber,
		strconv.Itoa(r.Interval),
		r.DueDate,
		string(r.Status),
		string(r.Method),
		r.Phone,
		TruncateMessage(r.Message),
	}
}

// TruncateMessage flattens newlines and keeps the first 100 characters.
func TruncateMessage(s string) string {
	s = strings.NewReplacer("\r\n", " ", "\n", " ", "\r", " ").Replace(s)

	if r := []rune(s); len(r) > maxMessageLen {
		return string(r[:maxMessageLen])
	}

	return s
}

// Audit is the append-only CSV trail of every delivery attempt.
type Audit struct {
	path string
	loc  *time.Location
}

// NewAudit opens the trail at path. Timestamps without a zone are read in loc.
func NewAudit(path string, loc *time.Location) *Audit {
	if loc == nil {
		loc = time.Local
	}

	return &Audit{path: path, loc: loc}
}

func (a *Audit) Path() string {
	return a.path
}

func (a *Audit) AppendAuditRow(row Row) error {
	return a.AppendRows([]Row{row})
}

// AppendRows writes rows at the end of the trail, adding the header first when
// the file is new or empty, and syncs before returning.
func (a *Audit) AppendRows(rows []Row) error {
	if err := a.appendRows(rows); err != nil {
		return fmt.Errorf("%w: %v", ErrPersistence, err)
	}

	return nil
}

func (a *Audit) appendRows(rows []Row) error {
	if err := os.MkdirAll(filepath.Dir(a.path), 0o755); err != nil {
		return fmt.Errorf("creating log dir: %w", err)
	}

	file, err := os.OpenFile(a.path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("opening %s: %w", a.path, err)
	}
	defer file.Close()

	info, err := file.Stat()
	if err != nil {
		return fmt.Errorf("stat %s: %w", a.path, err)
	}

	w := csv.NewWriter(file)

	if info.Size() == 0 {
		if err := w.Write(Header); err != nil {
			return fmt.Errorf("writing header: %w", err)
		}
	}

	for _, r := range rows {
		if err := w.Write(r.record()); err != nil {
			return fmt.Errorf("writing row: %w", err)
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("flushing %s: %w", a.path, err)
	}

	return file.Sync()
}

// Rewrite replaces the whole trail with rows. Only the maintenance sweep uses it.
func (a *Audit) Rewrite(rows []Row) error {
	err := replaceFile(a.path, func(bw *bufio.Writer) error {
		w := csv.NewWriter(bw)

		if err := w.Write(Header); err != nil {
			return err
		}

		for _, r := range rows {
			if err := w.Write(r.record()); err != nil {
				return err
			}
		}

		w.Flush()

		return w.Error()
	})
	if err != nil {
		return fmt.Errorf("%w: %v", ErrPersistence, err)
	}

	return nil
}

// ReadAll returns every parseable row. A missing file is an empty trail.
func (a *Audit) ReadAll() ([]Row, error) {
	file, err := os.Open(a.path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}

	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", a.path, err)
	}
	defer file.Close()

	return parseAudit(file, a.loc)
}

func parseAudit(r io.Reader, loc *time.Location) ([]Row, error) {
	utf8r, err := enc.NewUTF8Reader(r)
	if err != nil {
		return nil, fmt.Errorf("detect encoding: %w", err)
	}

	reader := csv.NewReader(utf8r)
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read csv: %w", err)
	}

	var rows []Row

	for _, rec := range records {
		if headerLayout(rec) != nil {
			continue
		}

		l := guessLayout(rec)
		if l == nil {
			continue
		}

		row, ok := l.parse(rec, loc)
		if !ok {
			continue
		}

		rows = append(rows, row)
	}

	return rows, nil
}
