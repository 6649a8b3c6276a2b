package services

import (
	"github.com/pkg/errors"

	"github.com/hoadesk/inbox/config"
	"github.com/hoadesk/inbox/interfaces"
	"github.com/hoadesk/inbox/internal/crypto"
	"github.com/hoadesk/inbox/internal/logger"
	"github.com/hoadesk/inbox/internal/repository"
	"github.com/hoadesk/inbox/services/actions"
	"github.com/hoadesk/inbox/services/ai"
	"github.com/hoadesk/inbox/services/auth"
	"github.com/hoadesk/inbox/services/gmail"
	"github.com/hoadesk/inbox/services/joblock"
	"github.com/hoadesk/inbox/services/mailbox"
	"github.com/hoadesk/inbox/services/pipeline"
	"github.com/hoadesk/inbox/services/poller"
)

type Services struct {
	Tokens          *auth.TokenIssuer
	AuthService     interfaces.AuthService
	GmailService    interfaces.GmailService
	MailboxService  interfaces.MailboxService
	WebhookClient   interfaces.WebhookClient
	AIService       interfaces.AIService
	PipelineService interfaces.PipelineService
	PollerService   interfaces.PollerService
	ActionsService  interfaces.ActionsService
	JobLock         interfaces.JobLock
}

func InitServices(cfg *config.Config, log logger.Logger, repos *repository.Repositories) (*Services, error) {
	encrypter, err := crypto.NewEncrypter(cfg.AppConfig.EncryptionKey)
	if err != nil {
		return nil, errors.Wrap(err, "failed to init token encryption")
	}

	lock, err := newJobLock(cfg.PollerConfig, repos, log)
	if err != nil {
		return nil, err
	}

	tokens := auth.NewTokenIssuer(cfg.AppConfig.SessionSecret, cfg.AppConfig.SessionTTL)
	gmailService := gmail.NewGmailService(cfg.GoogleConfig)
	webhook := ai.NewWebhookClient(cfg.WebhookConfig, log)
	aiService := ai.NewOpenAIService(cfg.OpenAIConfig)

	var classifier interfaces.Classifier = pipeline.NewRuleClassifier()
	if cfg.OpenAIConfig.Classifier == config.ProviderOpenAI {
		classifier = pipeline.NewLLMClassifier(aiService, classifier, log)
	}

	pipelineService := pipeline.NewPipelineService(repos, classifier, log)
	mailboxService := mailbox.NewMailboxService(repos, gmailService, encrypter, tokens, log)

	return &Services{
		Tokens:          tokens,
		AuthService:     auth.NewAuthService(repos, tokens, log),
		GmailService:    gmailService,
		MailboxService:  mailboxService,
		WebhookClient:   webhook,
		AIService:       aiService,
		PipelineService: pipelineService,
		PollerService:   poller.NewPollerService(repos, mailboxService, webhook, pipelineService, lock, cfg.PollerConfig, log),
		ActionsService:  actions.NewActionsService(repos, mailboxService, pipelineService, webhook, aiService, cfg.OpenAIConfig.DraftProvider, log),
		JobLock:         lock,
	}, nil
}

func newJobLock(cfg *config.PollerConfig, repos *repository.Repositories, log logger.Logger) (interfaces.JobLock, error) {
	if cfg.LockBackend != config.LockBackendRedis {
		return joblock.NewDBJobLock(repos.DB(), log), nil
	}
	client, err := joblock.NewRedisClient(cfg.RedisURL)
	if err != nil {
		return nil, errors.Wrap(err, "failed to connect to redis")
	}
	return joblock.NewRedisJobLock(client, log), nil
}
