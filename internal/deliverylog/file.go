package deliverylog

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// FileMembership keeps one key per line in a plain text file.
type FileMembership struct {
	path string
}

func NewFileMembership(path string) *FileMembership {
	return &FileMembership{path: path}
}

func (f *FileMembership) Keys(_ context.Context) ([]string, error) {
	file, err := os.Open(f.path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}

	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", f.path, err)
	}
	defer file.Close()

	var keys []string

	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		if line := strings.TrimSpace(scanner.Text()); line != "" {
			keys = append(keys, line)
		}
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading %s: %w", f.path, err)
	}

	return keys, nil
}

func (f *FileMembership) Append(_ context.Context, key string) error {
	if err := os.MkdirAll(filepath.Dir(f.path), 0o755); err != nil {
		return fmt.Errorf("creating log dir: %w", err)
	}

	file, err := os.OpenFile(f.path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("opening %s: %w", f.path, err)
	}
	defer file.Close()

	if _, err := file.WriteString(key + "\n"); err != nil {
		return fmt.Errorf("writing %s: %w", f.path, err)
	}

	return file.Sync()
}

// Rewrite replaces the file through a temp file and a rename, so a crash
// mid-write leaves the previous contents in place.
func (f *FileMembership) Rewrite(_ context.Context, keys []string) error {
	return replaceFile(f.path, func(w *bufio.Writer) error {
		for _, k := range keys {
			if _, err := w.WriteString(k + "\n"); err != nil {
				return err
			}
		}

		return nil
	})
}

func replaceFile(path string, write func(w *bufio.Writer) error) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating log dir: %w", err)
	}

	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	w := bufio.NewWriter(tmp)

	if err := write(w); err != nil {
		tmp.Close()
		return fmt.Errorf("writing temp file: %w", err)
	}

	if err := w.Flush(); err != nil {
		tmp.Close()
		return fmt.Errorf("flushing temp file: %w", err)
	}

	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("syncing temp file: %w", err)
	}

	if err := tmp.Close(); err != nil {
		return fmt.Errorf("closing temp file: %w", err)
	}

	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("replacing %s: %w", path, err)
	}

	return nil
}
