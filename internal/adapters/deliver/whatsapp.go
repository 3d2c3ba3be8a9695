package deliver

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"career-advisor-bot/internal/infra/twilio"
)

// whatsAppLimit — предел длины одного сообщения WhatsApp, с которым
// работал исходный бот.
const whatsAppLimit = 1500

// WhatsApp доставляет ответы через Twilio, разбивая длинные тексты на
// части и выдерживая паузу между отправками.
type WhatsApp struct {
	client *twilio.Client
	pause  time.Duration
	log    zerolog.Logger
}

// NewWhatsApp создаёт доставщика WhatsApp.
func NewWhatsApp(client *twilio.Client, pause time.Duration, logger zerolog.Logger) *WhatsApp {
	return &WhatsApp{
		client: client,
		pause:  pause,
		log:    logger.With().Str("component", "deliver_whatsapp").Logger(),
	}
}

// Deliver реализует domain.Deliverer.
func (w *WhatsApp) Deliver(ctx context.Context, to, text string) error {
	parts := SplitMessage(text, whatsAppLimit)
	if len(parts) == 0 {
		return fmt.Errorf("whatsapp deliver: empty message")
	}
	for i, part := range parts {
		if i > 0 && w.pause > 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(w.pause):
			}
		}
		resp, err := w.client.SendWhatsApp(ctx, to, part)
		if err != nil {
			return fmt.Errorf("whatsapp deliver: part %d/%d: %w", i+1, len(parts), err)
		}
		w.log.Debug().Str("sid", resp.SID).Int("part", i+1).Int("parts", len(parts)).Msg("сообщение отправлено")
	}
	return nil
}
