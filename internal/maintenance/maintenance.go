package maintenance

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/MrJamesThe3rd/dunning/internal/deliverylog"
)

type Result struct {
	PDFsRemoved  int
	RowsArchived int
	RowsKept     int
}

// Finals lists keys the retry pass has given up on.
type Finals interface {
	Keys() (map[string]struct{}, error)
}

// Sweeper removes stale invoice PDFs and moves old audit rows to the archive.
type Sweeper struct {
	pdfDir  string
	audit   *deliverylog.Audit
	archive *deliverylog.Audit
	finals  Finals
	maxAge  time.Duration
	now     func() time.Time
	logger  *slog.Logger
}

func NewSweeper(
	pdfDir string,
	audit, archive *deliverylog.Audit,
	finals Finals,
	maxAge time.Duration,
	now func() time.Time,
	logger *slog.Logger,
) *Sweeper {
	if now == nil {
		now = time.Now
	}

	if logger == nil {
		logger = slog.Default()
	}

	return &Sweeper{
		pdfDir:  pdfDir,
		audit:   audit,
		archive: archive,
		finals:  finals,
		maxAge:  maxAge,
		now:     now,
		logger:  logger,
	}
}

func (s *Sweeper) Run(ctx context.Context) (Result, error) {
	var res Result

	cutoff := s.now().Add(-s.maxAge)

	removed, err := s.sweepPDFs(ctx, cutoff)
	res.PDFsRemoved = removed

	if err != nil {
		return res, err
	}

	res.RowsArchived, res.RowsKept, err = s.archiveRows(cutoff)
	if err != nil {
		return res, err
	}

	s.logger.Info("maintenance finished",
		"cutoff", cutoff.Format(deliverylog.TimestampLayout),
		"pdfs_removed", res.PDFsRemoved, "rows_archived", res.RowsArchived, "rows_kept", res.RowsKept)

	return res, nil
}

func (s *Sweeper) sweepPDFs(ctx context.Context, cutoff time.Time) (int, error) {
	entries, err := os.ReadDir(s.pdfDir)
	if errors.Is(err, fs.ErrNotExist) {
		return 0, nil
	}

	if err != nil {
		return 0, fmt.Errorf("reading %s: %w", s.pdfDir, err)
	}

	removed := 0

	for _, e := range entries {
		if err := ctx.Err(); err != nil {
			return removed, err
		}

		if e.IsDir() || !strings.EqualFold(filepath.Ext(e.Name()), ".pdf") {
			continue
		}

		info, err := e.Info()
		if err != nil {
			s.logger.Warn("failed to stat pdf", "file", e.Name(), "error", err)
			continue
		}

		if !info.ModTime().Before(cutoff) {
			continue
		}

		if err := os.Remove(filepath.Join(s.pdfDir, e.Name())); err != nil {
			s.logger.Warn("failed to remove pdf", "file", e.Name(), "error", err)
			continue
		}

		removed++
	}

	return removed, nil
}

// archiveRows moves rows older than cutoff into the archive. Rows of keys the
// retry pass still counts attempts for stay put, whatever their age.
func (s *Sweeper) archiveRows(cutoff time.Time) (int, int, error) {
	rows, err := s.audit.ReadAll()
	if err != nil {
		return 0, 0, fmt.Errorf("reading audit trail: %w", err)
	}

	finals, err := s.finals.Keys()
	if err != nil {
		return 0, 0, fmt.Errorf("reading final failures: %w", err)
	}

	settled := make(map[string]struct{}, len(finals))
	for k := range finals {
		settled[k] = struct{}{}
	}

	for _, r := range rows {
		if r.Delivered() {
			settled[r.Key()] = struct{}{}
		}
	}

	var old, kept []deliverylog.Row

	for _, r := range rows {
		_, done := settled[r.Key()]
		if done && r.Timestamp.Before(cutoff) {
			old = append(old, r)
		} else {
			kept = append(kept, r)
		}
	}

	if len(old) == 0 {
		return 0, len(kept), nil
	}

	// Rows must reach the archive before they leave the audit file.
	if err := s.archive.AppendRows(old); err != nil {
		return 0, len(rows), fmt.Errorf("archiving rows: %w", err)
	}

	if err := s.audit.Rewrite(kept); err != nil {
		return 0, len(rows), fmt.Errorf("rewriting audit trail: %w", err)
	}

	return len(old), len(kept), nil
}
