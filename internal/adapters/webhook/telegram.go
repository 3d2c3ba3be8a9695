package webhook

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog"

	"career-advisor-bot/internal/domain"
	httpinfra "career-advisor-bot/internal/infra/http"
	"career-advisor-bot/internal/infra/metrics"
)

// Telegram принимает вебхуки Bot API. Эндпоинт отвечает 200 на любой
// разобранный апдейт: при других статусах Telegram доставляет его
// повторно, поэтому ошибки обращения только логируются.
type Telegram struct {
	turns    turnHandler
	dedup    domain.Cache
	dedupTTL time.Duration
	secret   string
	log      zerolog.Logger
}

// NewTelegram создаёт обработчик вебхука Telegram. Непустой secret
// сверяется с заголовком X-Telegram-Bot-Api-Secret-Token.
func NewTelegram(turns turnHandler, dedup domain.Cache, dedupTTL time.Duration, secret string, logger zerolog.Logger) *Telegram {
	return &Telegram{
		turns:    turns,
		dedup:    dedup,
		dedupTTL: dedupTTL,
		secret:   secret,
		log:      logger.With().Str("component", "webhook_telegram").Logger(),
	}
}

// Handle обрабатывает POST /webhook/telegram.
func (h *Telegram) Handle(w http.ResponseWriter, r *http.Request) {
	if h.secret != "" && r.Header.Get("X-Telegram-Bot-Api-Secret-Token") != h.secret {
		httpinfra.WriteError(w, http.StatusForbidden, errors.New("invalid secret"))
		return
	}

	var update tgbotapi.Update
	if err := json.NewDecoder(r.Body).Decode(&update); err != nil {
		httpinfra.WriteError(w, http.StatusBadRequest, errors.New("bad update"))
		return
	}
	if update.Message == nil || update.Message.Chat == nil {
		w.WriteHeader(http.StatusOK)
		return
	}

	msg := domain.Message{
		Channel:       domain.ChannelTelegram,
		Sender:        strconv.FormatInt(update.Message.Chat.ID, 10),
		Text:          update.Message.Text,
		ProviderMsgID: strconv.Itoa(update.UpdateID),
	}

	handled, err := handleOnce(r.Context(), h.turns, h.dedup, h.dedupTTL, msg)
	if !handled {
		metrics.IncWebhookDuplicate(msg.Channel)
	} else if err != nil {
		h.log.Error().Err(err).Str("sender", msg.Sender).Msg("обращение не обработано")
	}
	w.WriteHeader(http.StatusOK)
}
