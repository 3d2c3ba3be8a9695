package feedback

import (
	"context"
	"encoding/csv"
	"os"
	"path/filepath"
	"testing"
	"time"

	"career-advisor-bot/internal/domain"
)

func TestCSVAppendWritesHeaderOnce(t *testing.T) {
	path := filepath.Join(t.TempDir(), "feedback.csv")
	store := NewCSVFile(path)

	submitted := time.Date(2024, 5, 1, 12, 30, 0, 0, time.UTC)
	recs := []domain.FeedbackRecord{
		{Sender: "+1555", Text: "this was helpful", SubmittedAt: submitted},
		{Sender: "+1777", Text: "more examples, please", SubmittedAt: submitted.Add(time.Minute)},
	}
	for _, rec := range recs {
		if err := store.Append(context.Background(), rec); err != nil {
			t.Fatalf("append: %v", err)
		}
	}

	f, err := os.Open(path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer f.Close()

	rows, err := csv.NewReader(f).ReadAll()
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if len(rows) != 3 {
		t.Fatalf("expected header and 2 rows, got %d", len(rows))
	}
	if rows[0][0] != "sender" || rows[0][1] != "feedback" || rows[0][2] != "submitted_at" {
		t.Fatalf("unexpected header: %v", rows[0])
	}
	if rows[1][0] != "+1555" || rows[1][1] != "this was helpful" {
		t.Fatalf("unexpected first row: %v", rows[1])
	}
	if rows[1][2] != "2024-05-01 12:30:00" {
		t.Fatalf("unexpected timestamp format: %q", rows[1][2])
	}
	if rows[2][0] != "+1777" {
		t.Fatalf("unexpected second row: %v", rows[2])
	}
}

func TestCSVAppendCreatesMissingFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested.csv")
	store := NewCSVFile(path)

	rec := domain.FeedbackRecord{Sender: "+1555", Text: "ok"}
	if err := store.Append(context.Background(), rec); err != nil {
		t.Fatalf("append: %v", err)
	}
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("file was not created: %v", err)
	}
}
