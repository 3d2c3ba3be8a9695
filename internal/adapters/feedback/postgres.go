package feedback

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"career-advisor-bot/internal/domain"
	"career-advisor-bot/internal/infra/metrics"
)

// Postgres реализует domain.FeedbackStore на основе pgxpool.
type Postgres struct {
	pool *pgxpool.Pool
}

var _ domain.FeedbackStore = (*Postgres)(nil)

// NewPostgres создаёт хранилище отзывов в БД.
func NewPostgres(pool *pgxpool.Pool) *Postgres {
	return &Postgres{pool: pool}
}

func (p *Postgres) connCtx(ctx context.Context) (context.Context, context.CancelFunc) {
	if _, ok := ctx.Deadline(); ok {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, 5*time.Second)
}

// Append реализует domain.FeedbackStore.
func (p *Postgres) Append(ctx context.Context, rec domain.FeedbackRecord) error {
	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}
	if rec.SubmittedAt.IsZero() {
		rec.SubmittedAt = time.Now().UTC()
	}
	ctx, cancel := p.connCtx(ctx)
	defer cancel()

	start := time.Now()
	_, err := p.pool.Exec(ctx, `
INSERT INTO feedback (id, sender, text, submitted_at)
VALUES ($1, $2, $3, $4)
`, rec.ID, rec.Sender, rec.Text, rec.SubmittedAt)
	metrics.ObserveNetworkRequest("postgres", "feedback_insert", "feedback", start, err)
	if err != nil {
		return fmt.Errorf("insert feedback: %w", err)
	}
	return nil
}
