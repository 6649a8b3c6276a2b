package pipeline

import (
	"context"
	"time"

	"github.com/opentracing/opentracing-go"
	"github.com/pkg/errors"

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
)

type pipelineService struct {
	repos      *repository.Repositories
	classifier interfaces.Classifier
	log        logger.Logger
	now        func() time.Time
}

func NewPipelineService(repos *repository.Repositories, classifier interfaces.Classifier, log logger.Logger) interfaces.PipelineService {
	return &pipelineService{
		repos:      repos,
		classifier: classifier,
		log:        log,
		now:        utils.Now,
	}
}

// ProcessThread classifies the latest incoming message of the thread, routes
// the request and writes a new draft version. All writes share one transaction.
func (s *pipelineService) ProcessThread(ctx context.Context, threadID string) (*models.Request, error) {
	span, ctx := opentracing.StartSpanFromContext(ctx, "PipelineService.ProcessThread")
	defer span.Finish()
	tracing.SetDefaultServiceSpanTags(ctx, span)
	tracing.TagEntity(span, threadID)

	thread, err := s.repos.EmailThreadRepository.GetByID(ctx, threadID)
	if err != nil {
		tracing.TraceErr(span, err)
		return nil, errors.Wrap(err, "failed to load thread")
	}
	if thread == nil {
		return nil, inboxerrors.NewNotFoundError("thread", threadID)
	}
	tracing.TagHOA(span, thread.HOAID)

	message, err := s.repos.EmailMessageRepository.GetLatestIncoming(ctx, thread.ID)
	if err != nil {
		tracing.TraceErr(span, err)
		return nil, errors.Wrap(err, "failed to load latest message")
	}
	if message == nil {
		return nil, inboxerrors.NewValidationError("thread has no incoming message")
	}

	classification, err := s.classifier.Classify(ctx, message.Subject, messageBody(message))
	if err != nil {
		tracing.TraceErr(span, err)
		return nil, errors.Wrap(err, "failed to classify message")
	}
	routing := Route(classification, s.now())

	var result *models.Request
	err = s.repos.WithTransaction(ctx, func(tx *repository.Repositories) error {
		hoa, err := tx.HOARepository.GetByID(ctx, thread.HOAID)
		if err != nil {
			return err
		}
		if hoa == nil {
			return inboxerrors.NewNotFoundError("hoa", thread.HOAID)
		}

		resident, err := tx.ResidentRepository.GetByEmail(ctx, hoa.ID, utils.ExtractAddress(message.FromAddress))
		if err != nil {
			return err
		}

		request, err := tx.RequestRepository.GetByThreadID(ctx, thread.ID)
		if err != nil {
			return err
		}
		created := request == nil
		previousStatus := enum.RequestStatusNew
		if created {
			request = &models.Request{HOAID: hoa.ID, ThreadID: thread.ID}
		} else {
			previousStatus = request.Status
		}
		if resident != nil {
			request.ResidentID = &resident.ID
		}
		applyClassification(request, classification, routing)

		if created {
			err = tx.RequestRepository.Create(ctx, request)
		} else {
			err = tx.RequestRepository.Save(ctx, request)
		}
		if err != nil {
			return err
		}

		category, priority := request.Category, request.Priority
		thread.Status = enum.ThreadStatusFor(request.Status)
		thread.Category = &category
		thread.Priority = &priority
		if err := tx.EmailThreadRepository.Save(ctx, thread); err != nil {
			return err
		}

		content, templateID, err := s.render(ctx, tx, request, hoa, message, resident)
		if err != nil {
			return err
		}
		draft, err := createNextDraft(ctx, tx, request.ID, content, templateID)
		if err != nil {
			return err
		}

		if created {
			if err := writeAudit(ctx, tx, request, nil, enum.AuditRequestCreated, models.JSONMap{
				"threadId":  thread.ID,
				"messageId": message.ID,
			}); err != nil {
				return err
			}
		}
		if err := writeAudit(ctx, tx, request, nil, enum.AuditClassified, models.JSONMap{
			"category":     request.Category.String(),
			"priority":     request.Priority.String(),
			"missingInfo":  []string(request.MissingInfo),
			"hasLegalRisk": request.HasLegalRisk,
			"from":         previousStatus.String(),
			"to":           request.Status.String(),
		}); err != nil {
			return err
		}
		if err := writeAudit(ctx, tx, request, nil, enum.AuditDraftCreated, models.JSONMap{
			"draftId":    draft.ID,
			"version":    draft.Version,
			"templateId": utils.GetOrDefault(templateID, ""),
		}); err != nil {
			return err
		}

		result = request
		return nil
	})
	if err != nil {
		tracing.TraceErr(span, err)
		return nil, err
	}

	metrics.RequestsClassifiedTotal.WithLabelValues(result.Category.String(), result.Priority.String()).Inc()
	metrics.DraftActionsTotal.WithLabelValues("created").Inc()
	span.SetTag("request_id", result.ID)
	span.SetTag("status", result.Status.String())
	return result, nil
}

// RenderDraft renders the reply for an existing request from its thread's
// latest incoming message. It returns the content and the template used, if any.
func (s *pipelineService) RenderDraft(ctx context.Context, request *models.Request) (string, *string, error) {
	span, ctx := opentracing.StartSpanFromContext(ctx, "PipelineService.RenderDraft")
	defer span.Finish()
	tracing.SetDefaultServiceSpanTags(ctx, span)
	tracing.TagEntity(span, request.ID)

	hoa, err := s.repos.HOARepository.GetByID(ctx, request.HOAID)
	if err != nil {
		tracing.TraceErr(span, err)
		return "", nil, err
	}
	if hoa == nil {
		return "", nil, inboxerrors.NewNotFoundError("hoa", request.HOAID)
	}
	message, err := s.repos.EmailMessageRepository.GetLatestIncoming(ctx, request.ThreadID)
	if err != nil {
		tracing.TraceErr(span, err)
		return "", nil, err
	}
	if message == nil {
		return "", nil, inboxerrors.NewValidationError("thread has no incoming message")
	}

	var resident *models.Resident
	if request.ResidentID != nil {
		if resident, err = s.repos.ResidentRepository.GetByID(ctx, *request.ResidentID); err != nil {
			tracing.TraceErr(span, err)
			return "", nil, err
		}
	}
	return s.render(ctx, s.repos, request, hoa, message, resident)
}

func (s *pipelineService) render(ctx context.Context, repos *repository.Repositories, request *models.Request, hoa *models.HOA, message *models.EmailMessage, resident *models.Resident) (string, *string, error) {
	body, templateID, err := selectTemplate(ctx, repos, request)
	if err != nil {
		return "", nil, err
	}

	manager, err := repos.UserRepository.GetByID(ctx, hoa.OwnerID)
	if err != nil {
		return "", nil, err
	}
	return Render(body, templateValues(request, hoa, message, resident, manager)), templateID, nil
}

// selectTemplate walks the fallback chain: exact priority match, any priority
// for the category, built-in per category, built-in needs-info.
func selectTemplate(ctx context.Context, repos *repository.Repositories, request *models.Request) (string, *string, error) {
	if request.Status == enum.RequestStatusNeedsInfo {
		return needsInfoTemplate, nil, nil
	}

	priority := request.Priority
	for _, p := range []*enum.Priority{&priority, nil} {
		template, err := repos.PolicyTemplateRepository.FindBest(ctx, request.HOAID, request.Category, p)
		if err != nil {
			return "", nil, err
		}
		if template != nil {
			return template.Body, &template.ID, nil
		}
	}
	return BuiltinTemplate(request.Category), nil, nil
}

// templateValues leaves out empty values so their placeholders stay visible
// for the manager to fill in.
func templateValues(request *models.Request, hoa *models.HOA, message *models.EmailMessage, resident *models.Resident, manager *models.User) map[string]string {
	values := map[string]string{
		TokenHOAName:     hoa.Name,
		TokenSubject:     utils.NormalizeEmailSubject(message.Subject),
		TokenCategory:    request.Category.String(),
		TokenPriority:    request.Priority.String(),
		TokenSLADue:      FormatSLA(request.SLADueAt, hoa.Timezone),
		TokenMissingInfo: DescribeMissingInfo(request.MissingInfo),
		TokenSignature:   hoa.Signature,
	}
	if values[TokenSignature] == "" {
		values[TokenSignature] = hoa.Name
	}

	residentName := utils.ExtractDisplayName(message.FromAddress)
	if resident != nil {
		if resident.Name != "" {
			residentName = resident.Name
		}
		values[TokenUnit] = resident.Unit
	}
	if residentName == "" {
		residentName = "there"
	}
	values[TokenResidentName] = residentName

	if manager != nil {
		values[TokenManagerName] = manager.Name
	}

	for k, v := range values {
		if v == "" {
			delete(values, k)
		}
	}
	return values
}

func applyClassification(request *models.Request, c *dto.Classification, routing dto.Routing) {
	request.Category = c.Category
	request.Priority = c.Priority
	request.MissingInfo = c.MissingInfo
	request.HasLegalRisk = c.HasLegalRisk
	request.Summary = c.Summary
	request.Status = routing.Status
	request.SLADueAt = routing.SLADueAt
}

func createNextDraft(ctx context.Context, repos *repository.Repositories, requestID, content string, templateID *string) (*models.ReplyDraft, error) {
	latest, err := repos.ReplyDraftRepository.GetLatestVersion(ctx, requestID)
	if err != nil {
		return nil, err
	}
	draft := &models.ReplyDraft{
		RequestID:  requestID,
		Version:    latest + 1,
		Content:    content,
		TemplateID: templateID,
	}
	if err := repos.ReplyDraftRepository.Create(ctx, draft); err != nil {
		return nil, err
	}
	return draft, nil
}

func writeAudit(ctx context.Context, repos *repository.Repositories, request *models.Request, userID *string, action enum.AuditAction, metadata models.JSONMap) error {
	return repos.AuditLogRepository.Create(ctx, &models.AuditLog{
		HOAID:     request.HOAID,
		RequestID: &request.ID,
		UserID:    userID,
		Action:    action,
		Metadata:  metadata,
	})
}

func messageBody(message *models.EmailMessage) string {
	if message.BodyText != "" {
		return message.BodyText
	}
	return message.Snippet
}
