package webhook

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"career-advisor-bot/internal/domain"
	httpinfra "career-advisor-bot/internal/infra/http"
	"career-advisor-bot/internal/infra/metrics"
	"career-advisor-bot/internal/infra/twilio"
	"career-advisor-bot/internal/usecase/turn"
)

// turnHandler — часть usecase/turn, нужная вебхукам.
type turnHandler interface {
	Handle(ctx context.Context, msg domain.Message) error
}

const emptyTwiML = `<?xml version="1.0" encoding="UTF-8"?><Response></Response>`

// Twilio принимает вебхуки входящих сообщений WhatsApp и передаёт их
// обработчику обращений. Повторная доставка того же MessageSid
// отбрасывается через дедуп-кэш.
type Twilio struct {
	turns     turnHandler
	dedup     domain.Cache
	dedupTTL  time.Duration
	authToken string
	validate  bool
	log       zerolog.Logger
}

// NewTwilio создаёт обработчик вебхука Twilio. При validate подпись
// X-Twilio-Signature проверяется токеном authToken до любой обработки.
func NewTwilio(turns turnHandler, dedup domain.Cache, dedupTTL time.Duration, authToken string, validate bool, logger zerolog.Logger) *Twilio {
	return &Twilio{
		turns:     turns,
		dedup:     dedup,
		dedupTTL:  dedupTTL,
		authToken: authToken,
		validate:  validate,
		log:       logger.With().Str("component", "webhook_twilio").Logger(),
	}
}

// Handle обрабатывает POST /webhook/whatsapp.
func (h *Twilio) Handle(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		httpinfra.WriteError(w, http.StatusBadRequest, errors.New("bad form"))
		return
	}

	if h.validate {
		signature := r.Header.Get("X-Twilio-Signature")
		if !twilio.ValidateSignature(h.authToken, requestURL(r), r.PostForm, signature) {
			h.log.Warn().Str("remote", r.RemoteAddr).Str("request_id", httpinfra.RequestID(r)).Msg("неверная подпись вебхука")
			httpinfra.WriteError(w, http.StatusForbidden, errors.New("invalid signature"))
			return
		}
	}

	sender := strings.TrimPrefix(r.PostForm.Get("From"), "whatsapp:")
	if strings.TrimSpace(sender) == "" {
		httpinfra.WriteError(w, http.StatusBadRequest, turn.ErrNoSender)
		return
	}

	msg := domain.Message{
		Channel:       domain.ChannelWhatsApp,
		Sender:        sender,
		Text:          r.PostForm.Get("Body"),
		ProviderMsgID: r.PostForm.Get("MessageSid"),
	}

	handled, err := handleOnce(r.Context(), h.turns, h.dedup, h.dedupTTL, msg)
	if !handled {
		metrics.IncWebhookDuplicate(msg.Channel)
		writeTwiML(w)
		return
	}
	if err != nil {
		if errors.Is(err, turn.ErrNoSender) {
			httpinfra.WriteError(w, http.StatusBadRequest, err)
			return
		}
		h.log.Error().Err(err).Str("sender", sender).Str("request_id", httpinfra.RequestID(r)).Msg("обращение не обработано")
		httpinfra.WriteError(w, http.StatusBadGateway, errors.New("turn failed"))
		return
	}
	writeTwiML(w)
}

// handleOnce прогоняет обращение через дедуп-кэш по идентификатору
// сообщения платформы. Без идентификатора или кэша обращение
// обрабатывается напрямую. Ошибка самого кэша не блокирует обработку.
func handleOnce(ctx context.Context, turns turnHandler, dedup domain.Cache, ttl time.Duration, msg domain.Message) (bool, error) {
	if dedup == nil || msg.ProviderMsgID == "" {
		return true, turns.Handle(ctx, msg)
	}
	key := "webhook:" + msg.Channel + ":" + msg.ProviderMsgID
	ran, err := dedup.Once(key, ttl, func() error {
		return turns.Handle(ctx, msg)
	})
	if !ran && err != nil {
		return true, turns.Handle(ctx, msg)
	}
	return ran, err
}

func writeTwiML(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "text/xml")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(emptyTwiML))
}

// requestURL восстанавливает публичный URL запроса: Twilio подписывает
// именно его. За прокси схема берётся из X-Forwarded-Proto.
func requestURL(r *http.Request) string {
	scheme := r.Header.Get("X-Forwarded-Proto")
	if scheme == "" {
		scheme = "http"
		if r.TLS != nil {
			scheme = "https"
		}
	}
	return scheme + "://" + r.Host + r.URL.RequestURI()
}
