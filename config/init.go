package config

import (
	"log"
	"net/url"
	"strings"

	"github.com/caarlos0/env/v6"
	"github.com/joho/godotenv"
	"github.com/pkg/errors"

	cron_config "github.com/hoadesk/inbox/internal/cron/config"
	"github.com/hoadesk/inbox/internal/crypto"
	"github.com/hoadesk/inbox/internal/logger"
	"github.com/hoadesk/inbox/internal/tracing"
)

const (
	LockBackendPostgres = "postgres"
	LockBackendRedis    = "redis"

	ProviderOpenAI = "openai"
)

type Config struct {
	AppConfig      *AppConfig
	Logger         *logger.Config
	Tracing        *tracing.JaegerConfig
	DatabaseConfig *DatabaseConfig
	GoogleConfig   *GoogleConfig
	PollerConfig   *PollerConfig
	WebhookConfig  *WebhookConfig
	OpenAIConfig   *OpenAIConfig
	CronConfig     *cron_config.Config
}

func InitConfig() (*Config, error) {
	err := godotenv.Load()
	if err != nil {
		log.Print("Unable to load .env file")
	}

	config, err := LoadConfig()
	if err != nil {
		return nil, err
	}
	if err := config.Validate(); err != nil {
		return nil, err
	}
	return config, nil
}

// LoadConfig parses the environment without loading .env or validating.
func LoadConfig() (*Config, error) {
	config := &Config{
		AppConfig:      &AppConfig{},
		Logger:         &logger.Config{},
		Tracing:        &tracing.JaegerConfig{},
		DatabaseConfig: &DatabaseConfig{},
		GoogleConfig:   &GoogleConfig{},
		PollerConfig:   &PollerConfig{},
		WebhookConfig:  &WebhookConfig{},
		OpenAIConfig:   &OpenAIConfig{},
		CronConfig:     &cron_config.Config{},
	}

	if err := env.Parse(config); err != nil {
		return nil, errors.Wrap(err, "error loading config")
	}
	return config, nil
}

// Validate fails fast on settings that would only surface during a poll.
func (c *Config) Validate() error {
	if missing := c.missingRequired(); len(missing) > 0 {
		return errors.Errorf("missing required environment variables: %s", strings.Join(missing, ", "))
	}
	if c.PollerConfig.IntervalMinutes < 1 || c.PollerConfig.IntervalMinutes > 1440 {
		return errors.Errorf("GMAIL_POLL_INTERVAL_MINUTES must be between 1 and 1440, got %d", c.PollerConfig.IntervalMinutes)
	}
	if c.PollerConfig.LockTTL <= 0 {
		return errors.New("POLL_LOCK_TTL must be positive")
	}
	switch c.PollerConfig.LockBackend {
	case LockBackendPostgres:
	case LockBackendRedis:
		if c.PollerConfig.RedisURL == "" {
			return errors.New("REDIS_URL is required when JOB_LOCK_BACKEND=redis")
		}
	default:
		return errors.Errorf("unknown JOB_LOCK_BACKEND %q", c.PollerConfig.LockBackend)
	}
	if _, err := crypto.ParseKey(c.AppConfig.EncryptionKey); err != nil {
		return errors.Wrap(err, "ENCRYPTION_KEY")
	}
	if u, err := url.Parse(c.WebhookConfig.URL); err != nil || u.Scheme == "" || u.Host == "" {
		return errors.Errorf("N8N_WEBHOOK_URL is not a valid url: %q", c.WebhookConfig.URL)
	}
	if (c.OpenAIConfig.Classifier == ProviderOpenAI || c.OpenAIConfig.DraftProvider == ProviderOpenAI) && c.OpenAIConfig.ApiKey == "" {
		return errors.New("OPENAI_API_KEY is required when CLASSIFIER or DRAFT_PROVIDER is openai")
	}
	return nil
}

// missingRequired lists unset variables the service cannot run without.
func (c *Config) missingRequired() []string {
	required := []struct {
		name  string
		value string
	}{
		{"GOOGLE_CLIENT_ID", c.GoogleConfig.ClientID},
		{"GOOGLE_CLIENT_SECRET", c.GoogleConfig.ClientSecret},
		{"N8N_WEBHOOK_URL", c.WebhookConfig.URL},
		{"CRON_SECRET", c.AppConfig.CronSecret},
	}
	var missing []string
	for _, r := range required {
		if strings.TrimSpace(r.value) == "" {
			missing = append(missing, r.name)
		}
	}
	return missing
}
