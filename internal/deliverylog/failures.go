package deliverylog

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"

	enc "github.com/MrJamesThe3rd/dunning/internal/encoding"
)

const (
	ReasonRetryLimit  = "Retry limit reached"
	ReasonUnreachable = "No phone number"
)

var failureHeader = []string{"InvoiceID", "InvoiceNumber", "Interval", "DueDate", "Phone", "Reason"}

// FinalFailure is a key the retry pass has given up on.
type FinalFailure struct {
	InvoiceID     string
	InvoiceNumber string
	Interval      int
	DueDate       string
	Phone         string
	Reason        string
}

func (f FinalFailure) Key() string {
	return Key(f.InvoiceID, f.Interval)
}

type FinalFailures struct {
	path string
}

func NewFinalFailures(path string) *FinalFailures {
	return &FinalFailures{path: path}
}

func (s *FinalFailures) Append(f FinalFailure) error {
	if err := s.append(f); err != nil {
		return fmt.Errorf("%w: %v", ErrPersistence, err)
	}

	return nil
}

func (s *FinalFailures) append(f FinalFailure) error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return fmt.Errorf("creating log dir: %w", err)
	}

	file, err := os.OpenFile(s.path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("opening %s: %w", s.path, err)
	}
	defer file.Close()

	info, err := file.Stat()
	if err != nil {
		return fmt.Errorf("stat %s: %w", s.path, err)
	}

	w := csv.NewWriter(file)

	if info.Size() == 0 {
		if err := w.Write(failureHeader); err != nil {
			return fmt.Errorf("writing header: %w", err)
		}
	}

	rec := []string{f.InvoiceID, f.InvoiceNumber, strconv.Itoa(f.Interval), f.DueDate, f.Phone, f.Reason}
	if err := w.Write(rec); err != nil {
		return fmt.Errorf("writing row: %w", err)
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("flushing %s: %w", s.path, err)
	}

	return file.Sync()
}

// Keys returns the dedup keys already given up on.
func (s *FinalFailures) Keys() (map[string]struct{}, error) {
	keys := make(map[string]struct{})

	file, err := os.Open(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return keys, nil
	}

	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", s.path, err)
	}
	defer file.Close()

	utf8r, err := enc.NewUTF8Reader(file)
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

	for _, rec := range records {
		if len(rec) < 3 {
			continue
		}

		interval, err := strconv.Atoi(rec[2])
		if err != nil {
			continue
		}

		keys[Key(rec[0], interval)] = struct{}{}
	}

	return keys, nil
}
