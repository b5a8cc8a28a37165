package storage

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"icecat-sync/models"
)

// OutcomeWriter exports batch outcomes to a CSV file so failed records can
// be reconciled by hand. It is safe for concurrent use.
type OutcomeWriter struct {
	mu     sync.Mutex
	file   *os.File
	writer *csv.Writer
}

// NewOutcomeWriter creates (or truncates) the CSV file at the given path and
// writes the header row. Intermediate directories are created automatically.
func NewOutcomeWriter(path string) (*OutcomeWriter, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("csv: create output dir: %w", err)
	}

	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("csv: create file %q: %w", path, err)
	}

	w := csv.NewWriter(f)

	if err := w.Write([]string{"stage", "key", "error", "recorded_at"}); err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("csv: write header: %w", err)
	}
	w.Flush()

	return &OutcomeWriter{file: f, writer: w}, nil
}

// WriteFailures appends all failed outcomes; successes and skips are not
// exported.
func (o *OutcomeWriter) WriteFailures(outcomes []models.Outcome) error {
	o.mu.Lock()
	defer o.mu.Unlock()

	now := time.Now().Format(time.RFC3339)
	for _, out := range outcomes {
		if out.Err == nil {
			continue
		}
		row := []string{out.Stage, out.Key, out.Err.Error(), now}
		if err := o.writer.Write(row); err != nil {
			return fmt.Errorf("csv: write row: %w", err)
		}
	}

	o.writer.Flush()
	return o.writer.Error()
}

// Close flushes and closes the underlying file.
func (o *OutcomeWriter) Close() error {
	o.writer.Flush()
	return o.file.Close()
}
