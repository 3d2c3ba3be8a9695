package feedback

import (
	"context"
	"fmt"
	"time"

	"career-advisor-bot/internal/domain"
	"career-advisor-bot/internal/infra/sheets"
)

// Sheets реализует domain.FeedbackStore через Google Sheets API:
// каждая запись добавляется строкой в настроенный диапазон.
type Sheets struct {
	client *sheets.Client
}

var _ domain.FeedbackStore = (*Sheets)(nil)

// NewSheets создаёт хранилище отзывов в таблице.
func NewSheets(client *sheets.Client) *Sheets {
	return &Sheets{client: client}
}

// Append реализует domain.FeedbackStore.
func (s *Sheets) Append(ctx context.Context, rec domain.FeedbackRecord) error {
	if rec.SubmittedAt.IsZero() {
		rec.SubmittedAt = time.Now().UTC()
	}
	if err := s.client.AppendRow(ctx, rec.Row()); err != nil {
		return fmt.Errorf("append to sheet: %w", err)
	}
	return nil
}
