package feedback

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"os"
	"sync"
	"time"

	"career-advisor-bot/internal/domain"
)

var csvHeader = []string{"sender", "feedback", "submitted_at"}

// CSVFile реализует domain.FeedbackStore локальным CSV-файлом.
// Заголовок пишется один раз при создании файла.
type CSVFile struct {
	mu   sync.Mutex
	path string
}

var _ domain.FeedbackStore = (*CSVFile)(nil)

// NewCSVFile создаёт файловое хранилище отзывов.
func NewCSVFile(path string) *CSVFile {
	return &CSVFile{path: path}
}

// Append реализует domain.FeedbackStore.
func (c *CSVFile) Append(_ context.Context, rec domain.FeedbackRecord) error {
	if rec.SubmittedAt.IsZero() {
		rec.SubmittedAt = time.Now()
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	_, statErr := os.Stat(c.path)
	writeHeader := errors.Is(statErr, os.ErrNotExist)

	f, err := os.OpenFile(c.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("open feedback file: %w", err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if writeHeader {
		if err := w.Write(csvHeader); err != nil {
			return fmt.Errorf("write feedback header: %w", err)
		}
	}
	if err := w.Write(rec.Row()); err != nil {
		return fmt.Errorf("write feedback row: %w", err)
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("flush feedback file: %w", err)
	}
	return nil
}
