package config

import "time"

type AppConfig struct {
	APIPort    string `env:"PORT" envDefault:"12222"`
	AppBaseURL string `env:"APP_BASE_URL" envDefault:"http://localhost:3000"`

	// Signs session JWTs and OAuth state tokens
	SessionSecret string        `env:"NEXTAUTH_SECRET,required"`
	SessionTTL    time.Duration `env:"SESSION_TTL" envDefault:"24h"`
	CronSecret    string        `env:"CRON_SECRET"`
	EncryptionKey string        `env:"ENCRYPTION_KEY,required"`
}

type DatabaseConfig struct {
	URL             string `env:"DATABASE_URL,required"`
	MaxConn         int    `env:"POSTGRES_DB_MAX_CONN" envDefault:"25"`
	MaxIdleConn     int    `env:"POSTGRES_DB_MAX_IDLE_CONN" envDefault:"10"`
	ConnMaxLifetime int    `env:"POSTGRES_DB_CONN_MAX_LIFETIME" envDefault:"0"`
	LogLevel        string `env:"POSTGRES_LOG_LEVEL" envDefault:"WARN"`
}

type GoogleConfig struct {
	ClientID     string `env:"GOOGLE_CLIENT_ID"`
	ClientSecret string `env:"GOOGLE_CLIENT_SECRET"`
	RedirectURL  string `env:"GOOGLE_REDIRECT_URL" envDefault:"http://localhost:12222/api/gmail/callback"`

	// Overridable for tests; empty means the Google defaults
	GmailEndpoint string `env:"GMAIL_API_ENDPOINT"`
	TokenURL      string `env:"GOOGLE_TOKEN_URL"`
}

type PollerConfig struct {
	IntervalMinutes int           `env:"GMAIL_POLL_INTERVAL_MINUTES" envDefault:"5"`
	LockTTL         time.Duration `env:"POLL_LOCK_TTL" envDefault:"5m"`
	Query           string        `env:"GMAIL_POLL_QUERY" envDefault:"label:INBOX newer_than:7d"`
	LockBackend     string        `env:"JOB_LOCK_BACKEND" envDefault:"postgres"`
	RedisURL        string        `env:"REDIS_URL"`
	// Unsent webhook replies are saved as Gmail drafts in the thread
	SaveDrafts bool `env:"GMAIL_SAVE_DRAFTS" envDefault:"true"`
}

type WebhookConfig struct {
	URL     string        `env:"N8N_WEBHOOK_URL"`
	Timeout time.Duration `env:"N8N_WEBHOOK_TIMEOUT" envDefault:"10s"`
}

type OpenAIConfig struct {
	ApiKey        string `env:"OPENAI_API_KEY"`
	Model         string `env:"OPENAI_MODEL" envDefault:"gpt-4o-mini"`
	BaseURL       string `env:"OPENAI_BASE_URL"`
	Classifier    string `env:"CLASSIFIER" envDefault:"rules"`
	DraftProvider string `env:"DRAFT_PROVIDER" envDefault:"template"`
}
