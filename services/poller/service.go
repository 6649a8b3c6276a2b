package poller

import (
	"context"
	"strings"
	"time"

	"github.com/opentracing/opentracing-go"
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/hoadesk/inbox/config"
	"github.com/hoadesk/inbox/dto"
	"github.com/hoadesk/inbox/interfaces"
	"github.com/hoadesk/inbox/internal/enum"
	inboxerrors "github.com/hoadesk/inbox/internal/errors"
	"github.com/hoadesk/inbox/internal/logger"
	"github.com/hoadesk/inbox/internal/metrics"
	"github.com/hoadesk/inbox/internal/models"
	"github.com/hoadesk/inbox/internal/repository"
	"github.com/hoadesk/inbox/internal/tracing"
	"github.com/hoadesk/inbox/internal/utils"
	"github.com/hoadesk/inbox/services/ai"
	"github.com/hoadesk/inbox/services/gmail"
)

// JobName is the job lock shared by every poll entry point.
const JobName = "poll-gmail"

// errOutgoingNotStored means Gmail accepted the reply but the OUTGOING row was not written.
var errOutgoingNotStored = errors.New("reply sent but not stored")

type pollerService struct {
	repos     *repository.Repositories
	mailboxes interfaces.MailboxService
	webhook   interfaces.WebhookClient
	pipeline  interfaces.PipelineService
	lock      interfaces.JobLock
	cfg       *config.PollerConfig
	log       logger.Logger
	now       func() time.Time
}

func NewPollerService(
	repos *repository.Repositories,
	mailboxes interfaces.MailboxService,
	webhook interfaces.WebhookClient,
	pipeline interfaces.PipelineService,
	lock interfaces.JobLock,
	cfg *config.PollerConfig,
	log logger.Logger,
) interfaces.PollerService {
	return &pollerService{
		repos:     repos,
		mailboxes: mailboxes,
		webhook:   webhook,
		pipeline:  pipeline,
		lock:      lock,
		cfg:       cfg,
		log:       log,
		now:       utils.Now,
	}
}

// PollAll polls every connected account in turn. A run that cannot take the
// lock returns a skipped summary.
func (s *pollerService) PollAll(ctx context.Context) (*dto.PollSummary, error) {
	span, ctx := opentracing.StartSpanFromContext(ctx, "PollerService.PollAll")
	defer span.Finish()
	tracing.SetDefaultServiceSpanTags(ctx, span)

	return s.locked(ctx, span, func(ctx context.Context, summary *dto.PollSummary) error {
		accounts, err := s.repos.GmailAccountRepository.ListConnected(ctx)
		if err != nil {
			return errors.Wrap(err, "failed to list gmail accounts")
		}
		for _, account := range accounts {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			summary.Add(s.pollAccount(ctx, account))
		}
		return nil
	})
}

// PollHOA polls a single HOA's account under the same lock as PollAll.
func (s *pollerService) PollHOA(ctx context.Context, hoaID string) (*dto.PollSummary, error) {
	span, ctx := opentracing.StartSpanFromContext(ctx, "PollerService.PollHOA")
	defer span.Finish()
	tracing.SetDefaultServiceSpanTags(ctx, span)
	tracing.TagHOA(span, hoaID)

	return s.locked(ctx, span, func(ctx context.Context, summary *dto.PollSummary) error {
		account, err := s.repos.GmailAccountRepository.GetByHOA(ctx, hoaID)
		if err != nil {
			return errors.Wrap(err, "failed to load gmail account")
		}
		if account == nil {
			return inboxerrors.NewValidationError(inboxerrors.ErrGmailNotConnected.Error())
		}
		summary.Add(s.pollAccount(ctx, account))
		return nil
	})
}

func (s *pollerService) locked(ctx context.Context, span opentracing.Span, run func(context.Context, *dto.PollSummary) error) (*dto.PollSummary, error) {
	start := time.Now()
	summary := dto.NewPollSummary()

	acquired, err := s.lock.Acquire(ctx, JobName, s.lockTTL())
	if err != nil {
		metrics.PollRunsTotal.WithLabelValues("error").Inc()
		tracing.TraceErr(span, err)
		return nil, errors.Wrap(err, "failed to acquire poll lock")
	}
	if !acquired {
		metrics.PollRunsTotal.WithLabelValues("skipped").Inc()
		span.SetTag("skipped", true)
		s.log.Infof("poll skipped: %v", inboxerrors.ErrLockNotAcquired)
		summary.Skipped = true
		return summary, nil
	}
	defer s.lock.Release(context.WithoutCancel(ctx), JobName)

	err = run(ctx, summary)
	summary.DurationMillis = time.Since(start).Milliseconds()
	metrics.PollDuration.Observe(time.Since(start).Seconds())
	if err != nil {
		metrics.PollRunsTotal.WithLabelValues("error").Inc()
		tracing.TraceErr(span, err)
		return nil, err
	}

	metrics.PollRunsTotal.WithLabelValues("ok").Inc()
	tracing.LogObjectAsJson(span, "summary", summary)
	s.log.Infof("poll finished: accounts=%d fetched=%d skipped=%d failed=%d sent=%d in %dms",
		summary.AccountsPolled, summary.MessagesFetched, summary.MessagesSkipped,
		summary.MessagesFailed, summary.RepliesSent, summary.DurationMillis)
	return summary, nil
}

func (s *pollerService) lockTTL() time.Duration {
	if s.cfg == nil || s.cfg.LockTTL <= 0 {
		return 5 * time.Minute
	}
	return s.cfg.LockTTL
}

func (s *pollerService) query() string {
	if s.cfg == nil || s.cfg.Query == "" {
		return "label:INBOX newer_than:7d"
	}
	return s.cfg.Query
}

// pollAccount never returns an error; account level failures are recorded on
// the summary and on the account row.
func (s *pollerService) pollAccount(ctx context.Context, account *models.GmailAccount) *dto.PollSummary {
	span, ctx := opentracing.StartSpanFromContext(ctx, "PollerService.pollAccount")
	defer span.Finish()
	tracing.TagHOA(span, account.HOAID)

	log := s.log.With(zap.String("hoa_id", account.HOAID), zap.String("account", account.EmailAddress))
	summary := dto.NewPollSummary()
	summary.AccountsPolled = 1

	fail := func(err error) *dto.PollSummary {
		tracing.TraceErr(span, err)
		log.Errorf("poll failed: %v", err)
		summary.AccountErrors[account.HOAID] = err.Error()
		if updateErr := s.repos.GmailAccountRepository.UpdatePollStatus(ctx, account.ID, enum.PollStatusError, err.Error(), s.now()); updateErr != nil {
			log.Errorf("failed to record poll status: %v", updateErr)
		}
		return summary
	}

	hoa, err := s.repos.HOARepository.GetByID(ctx, account.HOAID)
	if err != nil {
		return fail(err)
	}
	if hoa == nil {
		return fail(inboxerrors.NewNotFoundError("hoa", account.HOAID))
	}

	mailbox, err := s.mailboxes.Open(ctx, account)
	if err != nil {
		return fail(err)
	}

	ids, err := mailbox.ListMessageIDs(ctx, s.query())
	if err != nil {
		return fail(err)
	}

	for _, id := range ids {
		exists, err := s.repos.EmailMessageRepository.ExistsByGmailMessageID(ctx, id)
		if err != nil {
			summary.MessagesFailed++
			log.Errorf("dedup check failed for %s: %v", id, err)
			continue
		}
		if exists {
			summary.MessagesSkipped++
			metrics.MessagesTotal.WithLabelValues("skipped").Inc()
			continue
		}

		sent, err := s.processMessage(ctx, log.With(zap.String("gmail_message_id", id)), hoa, account, mailbox, id)
		if err != nil {
			summary.MessagesFailed++
			metrics.MessagesTotal.WithLabelValues("failed").Inc()
			log.Errorf("failed to ingest message %s: %v", id, err)
			continue
		}
		summary.MessagesFetched++
		metrics.MessagesTotal.WithLabelValues("fetched").Inc()
		if sent {
			summary.RepliesSent++
			metrics.MessagesTotal.WithLabelValues("sent").Inc()
		}
	}

	if err := s.repos.GmailAccountRepository.UpdatePollStatus(ctx, account.ID, enum.PollStatusOK, "", s.now()); err != nil {
		log.Errorf("failed to record poll status: %v", err)
	}
	return summary
}

// processMessage ingests one Gmail message. Only fetch and insert failures are
// returned; webhook, send and pipeline failures are recorded and logged.
func (s *pollerService) processMessage(ctx context.Context, log logger.Logger, hoa *models.HOA, account *models.GmailAccount, mailbox interfaces.GmailMailbox, gmailID string) (bool, error) {
	span, ctx := opentracing.StartSpanFromContext(ctx, "PollerService.processMessage")
	defer span.Finish()
	span.SetTag("gmail_message_id", gmailID)

	msg, err := mailbox.GetMessage(ctx, gmailID)
	if err != nil {
		tracing.TraceErr(span, err)
		return false, err
	}

	receivedAt := s.now()
	if msg.Date != nil {
		receivedAt = msg.Date.UTC()
	}
	incoming := !strings.EqualFold(utils.ExtractAddress(msg.From), account.EmailAddress)

	thread, err := s.upsertThread(ctx, hoa.ID, msg, receivedAt, incoming)
	if err != nil {
		tracing.TraceErr(span, err)
		return false, err
	}

	direction := enum.MessageIncoming
	if !incoming {
		direction = enum.MessageOutgoing
	}
	message := &models.EmailMessage{
		ThreadID:       thread.ID,
		GmailMessageID: msg.ID,
		Direction:      direction,
		FromAddress:    msg.From,
		ToAddress:      msg.To,
		Subject:        msg.Subject,
		BodyText:       msg.BodyText,
		BodyHTML:       msg.BodyHTML,
		Snippet:        msg.Snippet,
		ReceivedAt:     &receivedAt,
		Headers: models.JSONMap{
			models.HeaderMessageID:  msg.MessageID,
			models.HeaderReferences: msg.References,
			models.HeaderInReplyTo:  msg.InReplyTo,
		},
	}
	if err := s.repos.EmailMessageRepository.Create(ctx, message); err != nil {
		tracing.TraceErr(span, err)
		return false, errors.Wrap(err, "failed to store message")
	}

	if !incoming {
		log.Debug("message sent by mailbox owner, skipping reply drafting")
		return false, nil
	}

	sent := s.draftReply(ctx, log, hoa, account, mailbox, thread, message)

	if _, err := s.pipeline.ProcessThread(ctx, thread.ID); err != nil {
		tracing.TraceErr(span, err)
		log.Errorf("request pipeline failed for thread %s: %v", thread.ID, err)
	}
	return sent, nil
}

func (s *pollerService) upsertThread(ctx context.Context, hoaID string, msg *dto.GmailMessage, receivedAt time.Time, incoming bool) (*models.EmailThread, error) {
	thread, err := s.repos.EmailThreadRepository.GetByGmailThreadID(ctx, msg.ThreadID)
	if err != nil {
		return nil, err
	}

	if thread == nil {
		thread = &models.EmailThread{
			HOAID:         hoaID,
			GmailThreadID: msg.ThreadID,
			Subject:       utils.NormalizeEmailSubject(msg.Subject),
			Status:        enum.ThreadStatusNew,
			LastMessageAt: &receivedAt,
		}
		if incoming {
			thread.UnreadCount = 1
		}
		return thread, s.repos.EmailThreadRepository.Create(ctx, thread)
	}

	if incoming {
		thread.UnreadCount++
	}
	if thread.LastMessageAt == nil || receivedAt.After(*thread.LastMessageAt) {
		thread.LastMessageAt = &receivedAt
	}
	return thread, s.repos.EmailThreadRepository.Save(ctx, thread)
}

// draftReply calls the webhook and always leaves an AIReply row behind. It
// reports whether the reply was sent automatically.
func (s *pollerService) draftReply(ctx context.Context, log logger.Logger, hoa *models.HOA, account *models.GmailAccount, mailbox interfaces.GmailMailbox, thread *models.EmailThread, message *models.EmailMessage) bool {
	reply := &models.AIReply{MessageID: message.ID}
	defer func() {
		if err := s.repos.AIReplyRepository.Upsert(ctx, reply); err != nil {
			log.Errorf("failed to store ai reply: %v", err)
		}
	}()

	resp, err := s.webhook.DraftReply(ctx, ai.NewWebhookRequest(hoa, thread, message))
	if err != nil {
		log.Warnf("webhook failed: %v", err)
		reply.Error = utils.StringPtr(err.Error())
		return false
	}
	reply.DraftText = resp.ReplyText
	reply.Classification = resp.Classification
	reply.Priority = resp.Priority

	if strings.TrimSpace(resp.ReplyText) == "" {
		return false
	}
	if !resp.Send {
		if s.cfg.SaveDrafts {
			s.saveDraft(ctx, log, hoa, account, mailbox, thread, message, reply)
		}
		return false
	}

	err = s.sendReply(ctx, hoa, account, mailbox, thread, message, resp.ReplyText)
	switch {
	case errors.Is(err, errOutgoingNotStored):
		log.Errorf("auto-send delivered but not stored: %v", err)
		reply.Error = utils.StringPtr(err.Error())
	case err != nil:
		log.Errorf("auto-send failed: %v", err)
		reply.Error = utils.StringPtr("send failed: " + err.Error())
		return false
	}
	reply.Sent = true
	reply.SentAt = utils.TimePtr(s.now())
	return true
}

// saveDraft stores the webhook reply as a Gmail draft in the thread.
func (s *pollerService) saveDraft(ctx context.Context, log logger.Logger, hoa *models.HOA, account *models.GmailAccount, mailbox interfaces.GmailMailbox, thread *models.EmailThread, original *models.EmailMessage, reply *models.AIReply) {
	draft := gmail.NewReply(original, thread.GmailThreadID, hoa.Name, account.EmailAddress, original.FromAddress, reply.DraftText)
	id, err := mailbox.CreateDraft(ctx, draft)
	if err != nil {
		log.Warnf("failed to save gmail draft: %v", err)
		return
	}
	reply.GmailDraftID = utils.StringPtr(id)
}

func (s *pollerService) sendReply(ctx context.Context, hoa *models.HOA, account *models.GmailAccount, mailbox interfaces.GmailMailbox, thread *models.EmailThread, original *models.EmailMessage, body string) error {
	outgoing := gmail.NewReply(original, thread.GmailThreadID, hoa.Name, account.EmailAddress, original.FromAddress, body)

	sent, err := mailbox.SendMessage(ctx, outgoing)
	if err != nil {
		return err
	}

	now := s.now()
	err = s.repos.EmailMessageRepository.Create(ctx, &models.EmailMessage{
		ThreadID:       thread.ID,
		GmailMessageID: sent.ID,
		Direction:      enum.MessageOutgoing,
		FromAddress:    account.EmailAddress,
		ToAddress:      outgoing.To,
		Subject:        utils.ReplySubject(original.Subject),
		BodyText:       body,
		ReceivedAt:     &now,
		Headers: models.JSONMap{
			models.HeaderInReplyTo:  outgoing.InReplyTo,
			models.HeaderReferences: outgoing.References,
		},
	})
	if err != nil {
		return errors.Wrapf(errOutgoingNotStored, "gmail message %s: %v", sent.ID, err)
	}
	return nil
}
