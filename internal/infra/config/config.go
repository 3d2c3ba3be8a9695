package config

import (
	"log"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// AppConfig описывает конфигурацию сервиса.
type AppConfig struct {
	AppEnv      string `envconfig:"APP_ENV" default:"dev"`
	Port        int    `envconfig:"PORT" default:"8080"`
	MetricsAddr string `envconfig:"METRICS_ADDR" default:":9090"`

	OpenAI struct {
		APIKey      string        `envconfig:"OPENAI_API_KEY"`
		BaseURL     string        `envconfig:"OPENAI_BASE_URL" default:"https://api.openai.com/v1"`
		Model       string        `envconfig:"OPENAI_MODEL" default:"gpt-3.5-turbo"`
		Timeout     time.Duration `envconfig:"OPENAI_TIMEOUT" default:"30s"`
		MaxTokens   int           `envconfig:"GEN_MAX_TOKENS" default:"750"`
		Temperature float64       `envconfig:"GEN_TEMPERATURE" default:"0.7"`
	} `envconfig:""`

	Prompt struct {
		Preamble string `envconfig:"PROMPT_PREAMBLE" default:"You're a career counselor helping Pakistani high school students."`
		Fallback string `envconfig:"REPLY_FALLBACK" default:"⚠️ Something went wrong while preparing your reply. Please try again in a moment."`
	} `envconfig:""`

	Twilio struct {
		AccountSID        string        `envconfig:"TWILIO_ACCOUNT_SID"`
		AuthToken         string        `envconfig:"TWILIO_AUTH_TOKEN"`
		WhatsAppNumber    string        `envconfig:"TWILIO_WHATSAPP_NUMBER"`
		BaseURL           string        `envconfig:"TWILIO_BASE_URL" default:"https://api.twilio.com"`
		Timeout           time.Duration `envconfig:"TWILIO_TIMEOUT" default:"10s"`
		ValidateSignature bool          `envconfig:"TWILIO_VALIDATE_SIGNATURE" default:"true"`
		ChunkPause        time.Duration `envconfig:"WA_CHUNK_PAUSE" default:"1s"`
	} `envconfig:""`

	Telegram struct {
		Token         string `envconfig:"TG_BOT_TOKEN"`
		WebhookSecret string `envconfig:"TG_WEBHOOK_SECRET"`
	} `envconfig:""`

	Feedback struct {
		Backend string `envconfig:"FEEDBACK_BACKEND" default:"csv"`
		CSVPath string `envconfig:"FEEDBACK_CSV_PATH" default:"feedback.csv"`
	} `envconfig:""`

	Sheets struct {
		SpreadsheetID string        `envconfig:"SHEETS_SPREADSHEET_ID"`
		Range         string        `envconfig:"SHEETS_RANGE" default:"Feedback!A:C"`
		AccessToken   string        `envconfig:"SHEETS_ACCESS_TOKEN"`
		BaseURL       string        `envconfig:"SHEETS_BASE_URL" default:"https://sheets.googleapis.com"`
		Timeout       time.Duration `envconfig:"SHEETS_TIMEOUT" default:"10s"`
	} `envconfig:""`

	PGDSN string `envconfig:"PG_DSN"`

	RedisAddr string        `envconfig:"REDIS_ADDR"`
	DedupTTL  time.Duration `envconfig:"DEDUP_TTL" default:"24h"`
}

// Load читает опциональный .env и затем окружение процесса.
func Load() AppConfig {
	_ = godotenv.Load()

	var cfg AppConfig
	if err := envconfig.Process("", &cfg); err != nil {
		log.Fatalf("не удалось загрузить конфиг: %v", err)
	}
	return cfg
}
