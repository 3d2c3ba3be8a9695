package turn

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"career-advisor-bot/internal/domain"
	"career-advisor-bot/internal/infra/metrics"
)

var ErrNoSender = errors.New("отправитель не указан")

var feedbackRegex = regexp.MustCompile(`(?i)^feedback[:\-]\s*`)

// Исходы обращения для метрик.
const (
	outcomeReply    = "reply"
	outcomeFallback = "fallback"
	outcomeFeedback = "feedback"
	outcomeEmpty    = "empty"
	outcomeError    = "error"
)

const defaultFallback = "Sorry, I could not prepare a reply right now. Please try again in a moment."

// Service обрабатывает одно обращение пользователя: генерация ответа,
// доставка в канал и, при намерении оставить отзыв, запись в хранилище.
// Состояние между обращениями не хранится.
type Service struct {
	generator domain.Generator
	deliverer domain.Deliverer
	feedback  domain.FeedbackStore
	backend   string
	fallback  string
	log       zerolog.Logger
}

// NewService создаёт обработчик обращений для одного канала доставки.
// backend — имя бэкенда отзывов для меток метрик, fallback — текст
// ответа при ошибке генерации.
func NewService(generator domain.Generator, deliverer domain.Deliverer, feedback domain.FeedbackStore, backend, fallback string, logger zerolog.Logger) *Service {
	if strings.TrimSpace(fallback) == "" {
		fallback = defaultFallback
	}
	return &Service{
		generator: generator,
		deliverer: deliverer,
		feedback:  feedback,
		backend:   backend,
		fallback:  fallback,
		log:       logger.With().Str("component", "turn").Logger(),
	}
}

// ParseFeedback определяет намерение оставить отзыв и возвращает его
// текст без префикса.
func ParseFeedback(text string) (string, bool) {
	loc := feedbackRegex.FindStringIndex(text)
	if loc == nil {
		return "", false
	}
	return strings.TrimSpace(text[loc[1]:]), true
}

// Handle обрабатывает входящее сообщение: ровно один вызов генерации и
// ровно одна доставка на непустой текст. Ошибка генерации заменяется
// заглушкой, ошибка доставки завершает обращение с ошибкой, ошибка
// записи отзыва только логируется.
func (s *Service) Handle(ctx context.Context, msg domain.Message) error {
	start := time.Now()
	logger := s.log.With().
		Str("turn_id", uuid.NewString()).
		Str("channel", msg.Channel).
		Str("sender", msg.Sender).
		Logger()

	if strings.TrimSpace(msg.Sender) == "" {
		metrics.ObserveTurn(msg.Channel, outcomeError, start)
		return ErrNoSender
	}

	text := strings.TrimSpace(msg.Text)
	if text == "" {
		logger.Debug().Msg("пустое сообщение, обращение завершено без ответа")
		metrics.ObserveTurn(msg.Channel, outcomeEmpty, start)
		return nil
	}

	outcome := outcomeReply
	reply, err := s.generator.Generate(ctx, text)
	if err != nil {
		logger.Error().Err(err).Msg("генерация не удалась, отправляем заглушку")
		metrics.IncGenerationFallback()
		reply = s.fallback
		outcome = outcomeFallback
	}

	if err := s.deliverer.Deliver(ctx, msg.Sender, reply); err != nil {
		metrics.ObserveTurn(msg.Channel, outcomeError, start)
		return fmt.Errorf("доставка ответа: %w", err)
	}

	if feedbackText, ok := ParseFeedback(text); ok {
		rec := domain.FeedbackRecord{
			ID:          uuid.NewString(),
			Sender:      msg.Sender,
			Text:        feedbackText,
			SubmittedAt: time.Now(),
		}
		appendErr := s.feedback.Append(ctx, rec)
		metrics.IncFeedbackAppend(s.backend, appendErr)
		if appendErr != nil {
			// Отзыв теряется, обращение при этом считается успешным.
			logger.Error().Err(appendErr).Msg("не удалось сохранить отзыв")
		} else if outcome == outcomeReply {
			outcome = outcomeFeedback
		}
	}

	logger.Info().Str("outcome", outcome).Msg("обращение обработано")
	metrics.ObserveTurn(msg.Channel, outcome, start)
	return nil
}
