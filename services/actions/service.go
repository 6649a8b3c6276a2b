package actions

import (
	"context"
	"time"

	"github.com/customeros/mailsherpa/mailvalidate"
	"github.com/opentracing/opentracing-go"
	"github.com/pkg/errors"

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

type actionsService struct {
	repos         *repository.Repositories
	mailboxes     interfaces.MailboxService
	pipeline      interfaces.PipelineService
	webhook       interfaces.WebhookClient
	ai            interfaces.AIService
	draftProvider string
	log           logger.Logger
	now           func() time.Time
}

func NewActionsService(
	repos *repository.Repositories,
	mailboxes interfaces.MailboxService,
	pipeline interfaces.PipelineService,
	webhook interfaces.WebhookClient,
	aiService interfaces.AIService,
	draftProvider string,
	log logger.Logger,
) interfaces.ActionsService {
	return &actionsService{
		repos:         repos,
		mailboxes:     mailboxes,
		pipeline:      pipeline,
		webhook:       webhook,
		ai:            aiService,
		draftProvider: draftProvider,
		log:           log,
		now:           utils.Now,
	}
}

// ApproveDraft stamps the approval and moves the request to IN_PROGRESS.
// Resolved and closed requests keep their status.
func (s *actionsService) ApproveDraft(ctx context.Context, userID, draftID string) (*models.ReplyDraft, error) {
	span, ctx := opentracing.StartSpanFromContext(ctx, "ActionsService.ApproveDraft")
	defer span.Finish()
	tracing.SetDefaultServiceSpanTags(ctx, span)
	tracing.TagEntity(span, draftID)

	draft, request, err := s.loadDraft(ctx, userID, draftID)
	if err != nil {
		tracing.TraceErr(span, err)
		return nil, err
	}
	if draft.SentAt != nil {
		return nil, inboxerrors.NewFieldValidationError("draft", "draft has already been sent")
	}

	err = s.repos.WithTransaction(ctx, func(tx *repository.Repositories) error {
		now := s.now()
		draft.ApprovedAt = &now
		draft.ApprovedByID = &userID
		if err := tx.ReplyDraftRepository.Save(ctx, draft); err != nil {
			return err
		}

		if err := audit(ctx, tx, request, userID, enum.AuditApproved, models.JSONMap{
			"draftId": draft.ID,
			"version": draft.Version,
		}); err != nil {
			return err
		}

		next := request.Status
		if !request.Status.IsTerminal() {
			next = enum.RequestStatusInProgress
		}
		return s.transition(ctx, tx, request, next, userID)
	})
	if err != nil {
		tracing.TraceErr(span, err)
		return nil, err
	}

	metrics.DraftActionsTotal.WithLabelValues("approved").Inc()
	return draft, nil
}

// SendDraftReply sends the draft in the original Gmail thread. Drafts that need
// approval are rejected before anything is sent or written.
func (s *actionsService) SendDraftReply(ctx context.Context, userID, draftID string) (*models.ReplyDraft, error) {
	span, ctx := opentracing.StartSpanFromContext(ctx, "ActionsService.SendDraftReply")
	defer span.Finish()
	tracing.SetDefaultServiceSpanTags(ctx, span)
	tracing.TagEntity(span, draftID)

	draft, request, err := s.loadDraft(ctx, userID, draftID)
	if err != nil {
		tracing.TraceErr(span, err)
		return nil, err
	}
	if request.RequiresApproval() && draft.ApprovedAt == nil {
		return nil, inboxerrors.NewFieldValidationError("draft", "this reply must be approved before it can be sent")
	}
	if draft.SentAt != nil {
		return nil, inboxerrors.NewFieldValidationError("draft", "draft has already been sent")
	}

	thread, err := s.repos.EmailThreadRepository.GetByID(ctx, request.ThreadID)
	if err != nil {
		tracing.TraceErr(span, err)
		return nil, err
	}
	if thread == nil {
		return nil, inboxerrors.NewNotFoundError("thread", request.ThreadID)
	}
	original, err := s.repos.EmailMessageRepository.GetLatestIncoming(ctx, thread.ID)
	if err != nil {
		tracing.TraceErr(span, err)
		return nil, err
	}
	if original == nil {
		return nil, inboxerrors.NewValidationError("thread has no incoming message to reply to")
	}

	recipient, err := s.recipient(ctx, request, original)
	if err != nil {
		return nil, err
	}

	account, err := s.repos.GmailAccountRepository.GetByHOA(ctx, request.HOAID)
	if err != nil {
		tracing.TraceErr(span, err)
		return nil, err
	}
	if account == nil {
		return nil, inboxerrors.NewValidationError(inboxerrors.ErrGmailNotConnected.Error())
	}
	hoa, err := s.repos.HOARepository.GetByID(ctx, request.HOAID)
	if err != nil {
		tracing.TraceErr(span, err)
		return nil, err
	}

	mailbox, err := s.mailboxes.Open(ctx, account)
	if err != nil {
		tracing.TraceErr(span, err)
		return nil, err
	}
	outgoing := gmail.NewReply(original, thread.GmailThreadID, hoa.Name, account.EmailAddress, recipient, draft.Content)
	sent, err := mailbox.SendMessage(ctx, outgoing)
	if err != nil {
		tracing.TraceErr(span, err)
		return nil, errors.Wrap(err, "failed to send reply")
	}

	err = s.repos.WithTransaction(ctx, func(tx *repository.Repositories) error {
		now := s.now()
		if err := tx.EmailMessageRepository.Create(ctx, &models.EmailMessage{
			ThreadID:       thread.ID,
			GmailMessageID: sent.ID,
			Direction:      enum.MessageOutgoing,
			FromAddress:    account.EmailAddress,
			ToAddress:      recipient,
			Subject:        utils.ReplySubject(original.Subject),
			BodyText:       draft.Content,
			ReceivedAt:     &now,
			Headers: models.JSONMap{
				models.HeaderInReplyTo:  outgoing.InReplyTo,
				models.HeaderReferences: outgoing.References,
			},
		}); err != nil {
			return err
		}

		draft.SentAt = &now
		draft.SentByID = &userID
		draft.GmailMessageID = &sent.ID
		if err := tx.ReplyDraftRepository.Save(ctx, draft); err != nil {
			return err
		}

		if err := audit(ctx, tx, request, userID, enum.AuditSent, models.JSONMap{
			"draftId":        draft.ID,
			"gmailMessageId": sent.ID,
			"to":             recipient,
		}); err != nil {
			return err
		}
		return s.transition(ctx, tx, request, enum.RequestStatusAwaitingReply, userID)
	})
	if err != nil {
		// the mail is already out; the caller must not resend
		tracing.TraceErr(span, err)
		s.log.Errorf("reply %s sent for draft %s but recording it failed: %v", sent.ID, draft.ID, err)
		return nil, err
	}

	metrics.DraftActionsTotal.WithLabelValues("sent").Inc()
	return draft, nil
}

// UpdateThreadStatus sets the thread status and carries it to the thread's request.
func (s *actionsService) UpdateThreadStatus(ctx context.Context, userID, threadID string, status enum.ThreadStatus) error {
	span, ctx := opentracing.StartSpanFromContext(ctx, "ActionsService.UpdateThreadStatus")
	defer span.Finish()
	tracing.SetDefaultServiceSpanTags(ctx, span)
	tracing.TagEntity(span, threadID)

	if !status.IsValid() {
		return inboxerrors.NewFieldValidationError("status", "unknown status")
	}

	thread, err := s.repos.EmailThreadRepository.GetByID(ctx, threadID)
	if err != nil {
		tracing.TraceErr(span, err)
		return err
	}
	if thread == nil {
		return inboxerrors.NewNotFoundError("thread", threadID)
	}
	if err := s.authorize(ctx, userID, thread.HOAID, "thread", threadID); err != nil {
		return err
	}

	err = s.repos.WithTransaction(ctx, func(tx *repository.Repositories) error {
		request, err := tx.RequestRepository.GetByThreadID(ctx, thread.ID)
		if err != nil {
			return err
		}
		if request == nil {
			return tx.EmailThreadRepository.UpdateStatus(ctx, thread.ID, status)
		}
		return s.transition(ctx, tx, request, enum.RequestStatusFor(status), userID)
	})
	if err != nil {
		tracing.TraceErr(span, err)
	}
	return err
}

// GenerateDraft writes a new draft version for the request, from OpenAI when
// configured and from the template chain otherwise.
func (s *actionsService) GenerateDraft(ctx context.Context, userID, requestID string) (*models.ReplyDraft, error) {
	span, ctx := opentracing.StartSpanFromContext(ctx, "ActionsService.GenerateDraft")
	defer span.Finish()
	tracing.SetDefaultServiceSpanTags(ctx, span)
	tracing.TagEntity(span, requestID)

	request, err := s.repos.RequestRepository.GetByID(ctx, requestID)
	if err != nil {
		tracing.TraceErr(span, err)
		return nil, err
	}
	if request == nil {
		return nil, inboxerrors.NewNotFoundError("request", requestID)
	}
	if err := s.authorize(ctx, userID, request.HOAID, "request", requestID); err != nil {
		return nil, err
	}

	content, templateID, source, err := s.draftContent(ctx, request)
	if err != nil {
		tracing.TraceErr(span, err)
		return nil, err
	}

	var draft *models.ReplyDraft
	err = s.repos.WithTransaction(ctx, func(tx *repository.Repositories) error {
		latest, err := tx.ReplyDraftRepository.GetLatestVersion(ctx, request.ID)
		if err != nil {
			return err
		}
		draft = &models.ReplyDraft{
			RequestID:  request.ID,
			Version:    latest + 1,
			Content:    content,
			TemplateID: templateID,
		}
		if err := tx.ReplyDraftRepository.Create(ctx, draft); err != nil {
			return err
		}
		return audit(ctx, tx, request, userID, enum.AuditDraftCreated, models.JSONMap{
			"draftId": draft.ID,
			"version": draft.Version,
			"source":  source,
		})
	})
	if err != nil {
		tracing.TraceErr(span, err)
		return nil, err
	}

	metrics.DraftActionsTotal.WithLabelValues("created").Inc()
	return draft, nil
}

// RetryAIReply calls the webhook again for an incoming message and replaces
// the stored outcome. A failed call is stored and also returned.
func (s *actionsService) RetryAIReply(ctx context.Context, userID, messageID string) (*models.AIReply, error) {
	span, ctx := opentracing.StartSpanFromContext(ctx, "ActionsService.RetryAIReply")
	defer span.Finish()
	tracing.SetDefaultServiceSpanTags(ctx, span)
	tracing.TagEntity(span, messageID)

	message, err := s.repos.EmailMessageRepository.GetByID(ctx, messageID)
	if err != nil {
		tracing.TraceErr(span, err)
		return nil, err
	}
	if message == nil {
		return nil, inboxerrors.NewNotFoundError("message", messageID)
	}
	thread, err := s.repos.EmailThreadRepository.GetByID(ctx, message.ThreadID)
	if err != nil {
		tracing.TraceErr(span, err)
		return nil, err
	}
	if thread == nil {
		return nil, inboxerrors.NewNotFoundError("message", messageID)
	}
	hoa, err := s.repos.HOARepository.GetForOwner(ctx, userID, thread.HOAID)
	if err != nil {
		tracing.TraceErr(span, err)
		return nil, err
	}
	if hoa == nil {
		return nil, inboxerrors.NewNotFoundError("message", messageID)
	}
	if message.Direction != enum.MessageIncoming {
		return nil, inboxerrors.NewValidationError("only incoming messages have ai replies")
	}

	reply, err := s.repos.AIReplyRepository.GetByMessageID(ctx, message.ID)
	if err != nil {
		tracing.TraceErr(span, err)
		return nil, err
	}
	if reply == nil {
		reply = &models.AIReply{MessageID: message.ID}
	}

	resp, callErr := s.webhook.DraftReply(ctx, ai.NewWebhookRequest(hoa, thread, message))
	if callErr != nil {
		reply.Error = utils.StringPtr(callErr.Error())
	} else {
		reply.DraftText = resp.ReplyText
		reply.Classification = resp.Classification
		reply.Priority = resp.Priority
		reply.Error = nil
	}
	if err := s.repos.AIReplyRepository.Upsert(ctx, reply); err != nil {
		tracing.TraceErr(span, err)
		return nil, err
	}
	if callErr != nil {
		tracing.TraceErr(span, callErr)
		return reply, errors.Wrap(callErr, "webhook retry failed")
	}

	metrics.DraftActionsTotal.WithLabelValues("retried").Inc()
	return reply, nil
}

func (s *actionsService) draftContent(ctx context.Context, request *models.Request) (string, *string, string, error) {
	if s.draftProvider == config.ProviderOpenAI && s.ai != nil {
		content, err := s.aiDraft(ctx, request)
		if err == nil {
			return content, nil, config.ProviderOpenAI, nil
		}
		s.log.Warnf("openai draft failed for request %s, using templates: %v", request.ID, err)
	}

	content, templateID, err := s.pipeline.RenderDraft(ctx, request)
	if err != nil {
		return "", nil, "", err
	}
	return content, templateID, "template", nil
}

func (s *actionsService) aiDraft(ctx context.Context, request *models.Request) (string, error) {
	hoa, err := s.repos.HOARepository.GetByID(ctx, request.HOAID)
	if err != nil {
		return "", err
	}
	message, err := s.repos.EmailMessageRepository.GetLatestIncoming(ctx, request.ThreadID)
	if err != nil {
		return "", err
	}
	if hoa == nil || message == nil {
		return "", errors.New("request has no hoa or incoming message")
	}

	residentName := utils.ExtractDisplayName(message.FromAddress)
	if request.ResidentID != nil {
		resident, err := s.repos.ResidentRepository.GetByID(ctx, *request.ResidentID)
		if err != nil {
			return "", err
		}
		if resident != nil && resident.Name != "" {
			residentName = resident.Name
		}
	}

	return s.ai.DraftReply(ctx, &dto.DraftReplyRequest{
		HOAName:      hoa.Name,
		ResidentName: residentName,
		Subject:      message.Subject,
		Body:         message.BodyText,
		Category:     request.Category,
		Priority:     request.Priority,
		MissingInfo:  request.MissingInfo,
		Signature:    hoa.Signature,
	})
}

// recipient prefers the linked resident's address over the From header.
func (s *actionsService) recipient(ctx context.Context, request *models.Request, original *models.EmailMessage) (string, error) {
	to := original.FromAddress
	if request.ResidentID != nil {
		resident, err := s.repos.ResidentRepository.GetByID(ctx, *request.ResidentID)
		if err != nil {
			return "", err
		}
		if resident != nil && resident.Email != "" {
			to = resident.Email
		}
	}

	validation := mailvalidate.ValidateEmailSyntax(utils.ExtractAddress(to))
	if !validation.IsValid {
		return "", inboxerrors.NewFieldValidationError("recipient", "no valid recipient address for this request")
	}
	return to, nil
}

// loadDraft resolves a draft and its request for a user that owns the HOA.
// Drafts of other owners are reported as not found.
func (s *actionsService) loadDraft(ctx context.Context, userID, draftID string) (*models.ReplyDraft, *models.Request, error) {
	draft, err := s.repos.ReplyDraftRepository.GetByID(ctx, draftID)
	if err != nil {
		return nil, nil, err
	}
	if draft == nil {
		return nil, nil, inboxerrors.NewNotFoundError("draft", draftID)
	}
	request, err := s.repos.RequestRepository.GetByID(ctx, draft.RequestID)
	if err != nil {
		return nil, nil, err
	}
	if request == nil {
		return nil, nil, inboxerrors.NewNotFoundError("draft", draftID)
	}
	if err := s.authorize(ctx, userID, request.HOAID, "draft", draftID); err != nil {
		return nil, nil, err
	}
	return draft, request, nil
}

func (s *actionsService) authorize(ctx context.Context, userID, hoaID, entity, id string) error {
	hoa, err := s.repos.HOARepository.GetForOwner(ctx, userID, hoaID)
	if err != nil {
		return err
	}
	if hoa == nil {
		return inboxerrors.NewNotFoundError(entity, id)
	}
	return nil
}

// transition moves the request to next, mirrors the status onto its thread and
// records STATUS_CHANGED.
func (s *actionsService) transition(ctx context.Context, tx *repository.Repositories, request *models.Request, next enum.RequestStatus, userID string) error {
	from := request.Status
	request.Status = next
	if err := tx.RequestRepository.Save(ctx, request); err != nil {
		return err
	}
	if err := tx.EmailThreadRepository.UpdateStatus(ctx, request.ThreadID, enum.ThreadStatusFor(next)); err != nil {
		return err
	}
	return audit(ctx, tx, request, userID, enum.AuditStatusChanged, models.JSONMap{
		"from": from.String(),
		"to":   next.String(),
	})
}

func audit(ctx context.Context, tx *repository.Repositories, request *models.Request, userID string, action enum.AuditAction, metadata models.JSONMap) error {
	return tx.AuditLogRepository.Create(ctx, &models.AuditLog{
		HOAID:     request.HOAID,
		RequestID: &request.ID,
		UserID:    utils.StringPtrOrNil(userID),
		Action:    action,
		Metadata:  metadata,
	})
}
