package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"career-advisor-bot/internal/adapters/deliver"
	"career-advisor-bot/internal/adapters/feedback"
	"career-advisor-bot/internal/adapters/generator"
	"career-advisor-bot/internal/adapters/webhook"
	"career-advisor-bot/internal/domain"
	"career-advisor-bot/internal/infra/cache"
	"career-advisor-bot/internal/infra/config"
	"career-advisor-bot/internal/infra/db"
	httpserver "career-advisor-bot/internal/infra/http"
	"career-advisor-bot/internal/infra/log"
	"career-advisor-bot/internal/infra/metrics"
	"career-advisor-bot/internal/infra/openai"
	"career-advisor-bot/internal/infra/sheets"
	"career-advisor-bot/internal/infra/twilio"
	"career-advisor-bot/internal/usecase/turn"
)

func main() {
	cfg := config.Load()
	logger := log.NewLogger(cfg.AppEnv, "relay")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	metrics.MustRegister(prometheus.DefaultRegisterer)
	metrics.StartServer(ctx, logger, cfg.MetricsAddr)

	var gen domain.Generator
	if cfg.OpenAI.APIKey != "" {
		client := openai.NewClient(cfg.OpenAI.APIKey, cfg.OpenAI.BaseURL, cfg.OpenAI.Timeout)
		gen = generator.NewOpenAI(client, generator.Config{
			Model:       cfg.OpenAI.Model,
			Preamble:    cfg.Prompt.Preamble,
			Temperature: cfg.OpenAI.Temperature,
			MaxTokens:   cfg.OpenAI.MaxTokens,
			Timeout:     cfg.OpenAI.Timeout,
		})
	} else {
		logger.Warn().Msg("ключ OpenAI не задан, используется статичный генератор")
		gen = generator.NewStatic("")
	}

	store, backend := buildFeedbackStore(cfg, logger)

	var dedup domain.Cache
	if cfg.RedisAddr != "" {
		dedup = cache.NewRedis(redis.NewClient(&redis.Options{Addr: cfg.RedisAddr}))
	} else {
		dedup = cache.NewMemory()
	}

	srv := httpserver.NewServer(logger)

	whatsappEnabled := cfg.Twilio.AccountSID != "" && cfg.Twilio.AuthToken != ""
	if whatsappEnabled {
		twilioClient := twilio.NewClient(twilio.Config{
			BaseURL:        cfg.Twilio.BaseURL,
			AccountSID:     cfg.Twilio.AccountSID,
			AuthToken:      cfg.Twilio.AuthToken,
			WhatsAppNumber: cfg.Twilio.WhatsAppNumber,
			Timeout:        cfg.Twilio.Timeout,
		})
		whatsappTurns := turn.NewService(
			gen,
			deliver.NewWhatsApp(twilioClient, cfg.Twilio.ChunkPause, logger),
			store, backend, cfg.Prompt.Fallback, logger,
		)
		hook := webhook.NewTwilio(whatsappTurns, dedup, cfg.DedupTTL, cfg.Twilio.AuthToken, cfg.Twilio.ValidateSignature, logger)
		srv.Router.Post("/webhook/whatsapp", hook.Handle)
		logger.Info().Msg("канал WhatsApp включён")
	}

	telegramEnabled := cfg.Telegram.Token != ""
	if telegramEnabled {
		botAPI, err := tgbotapi.NewBotAPI(cfg.Telegram.Token)
		if err != nil {
			logger.Fatal().Err(err).Msg("не удалось создать бота Telegram")
		}
		telegramTurns := turn.NewService(
			gen,
			deliver.NewTelegram(botAPI, logger),
			store, backend, cfg.Prompt.Fallback, logger,
		)
		hook := webhook.NewTelegram(telegramTurns, dedup, cfg.DedupTTL, cfg.Telegram.WebhookSecret, logger)
		srv.Router.Post("/webhook/telegram", hook.Handle)
		logger.Info().Str("bot", botAPI.Self.UserName).Msg("канал Telegram включён")
	}

	if !whatsappEnabled && !telegramEnabled {
		logger.Fatal().Msg("не настроен ни один канал доставки")
	}

	go func() {
		if err := srv.Start(":" + strconv.Itoa(cfg.Port)); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error().Err(err).Msg("HTTP сервер остановлен")
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info().Msg("остановка сервиса")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("не удалось корректно остановить сервер")
	}
}

// buildFeedbackStore выбирает бэкенд отзывов по конфигу. Возвращает
// хранилище и имя бэкенда для меток метрик.
func buildFeedbackStore(cfg config.AppConfig, logger zerolog.Logger) (domain.FeedbackStore, string) {
	switch cfg.Feedback.Backend {
	case "sheets":
		client := sheets.NewClient(sheets.Config{
			BaseURL:       cfg.Sheets.BaseURL,
			SpreadsheetID: cfg.Sheets.SpreadsheetID,
			Range:         cfg.Sheets.Range,
			AccessToken:   cfg.Sheets.AccessToken,
			Timeout:       cfg.Sheets.Timeout,
		})
		return feedback.NewSheets(client), "sheets"
	case "postgres":
		pool, err := db.Connect(cfg.PGDSN)
		if err != nil {
			logger.Fatal().Err(err).Msg("не удалось подключиться к БД")
		}
		return feedback.NewPostgres(pool), "postgres"
	case "csv", "":
		return feedback.NewCSVFile(cfg.Feedback.CSVPath), "csv"
	default:
		logger.Fatal().Str("backend", cfg.Feedback.Backend).Msg("неизвестный бэкенд отзывов")
		return nil, ""
	}
}
