package deliver

import (
	"context"
	"fmt"
	"strconv"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog"

	"career-advisor-bot/internal/infra/metrics"
)

// telegramLimit — предел длины одного сообщения Bot API.
const telegramLimit = 4096

// Telegram доставляет ответы через Telegram Bot API.
type Telegram struct {
	bot *tgbotapi.BotAPI
	log zerolog.Logger
}

// NewTelegram создаёт доставщика Telegram.
func NewTelegram(bot *tgbotapi.BotAPI, logger zerolog.Logger) *Telegram {
	return &Telegram{
		bot: bot,
		log: logger.With().Str("component", "deliver_telegram").Logger(),
	}
}

// Deliver реализует domain.Deliverer. Адресом служит chat id.
func (t *Telegram) Deliver(ctx context.Context, to, text string) error {
	chatID, err := strconv.ParseInt(to, 10, 64)
	if err != nil {
		return fmt.Errorf("telegram deliver: bad chat id %q: %w", to, err)
	}
	parts := SplitMessage(text, telegramLimit)
	if len(parts) == 0 {
		return fmt.Errorf("telegram deliver: empty message")
	}
	for i, part := range parts {
		if err := ctx.Err(); err != nil {
			return err
		}
		msg := tgbotapi.NewMessage(chatID, part)
		start := time.Now()
		_, err := t.bot.Send(msg)
		metrics.ObserveNetworkRequest("telegram_bot", "send_message", to, start, err)
		if err != nil {
			return fmt.Errorf("telegram deliver: part %d/%d: %w", i+1, len(parts), err)
		}
	}
	return nil
}
