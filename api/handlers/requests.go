package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/opentracing/opentracing-go"

	api_errors "github.com/hoadesk/inbox/api/errors"
	"github.com/hoadesk/inbox/dto"
	"github.com/hoadesk/inbox/interfaces"
	"github.com/hoadesk/inbox/internal/enum"
	inboxerrors "github.com/hoadesk/inbox/internal/errors"
	"github.com/hoadesk/inbox/internal/models"
	"github.com/hoadesk/inbox/internal/repository"
	"github.com/hoadesk/inbox/internal/tracing"
	"github.com/hoadesk/inbox/internal/utils"
)

const defaultPageSize = 50

type RequestHandler struct {
	actions interfaces.ActionsService
	repos   *repository.Repositories
}

func NewRequestHandler(actions interfaces.ActionsService, repos *repository.Repositories) *RequestHandler {
	return &RequestHandler{actions: actions, repos: repos}
}

func (h *RequestHandler) List() gin.HandlerFunc {
	return func(c *gin.Context) {
		span, ctx := opentracing.StartSpanFromContext(c.Request.Context(), "RequestHandler.List")
		defer span.Finish()
		tracing.SetDefaultRestSpanTags(ctx, span)

		hoa, err := ownedHOA(ctx, h.repos, utils.GetUserIdFromContext(ctx), c.Param("id"))
		if err != nil {
			api_errors.RespondError(c, err)
			return
		}

		var query dto.ListRequestsQuery
		if err := c.ShouldBindQuery(&query); err != nil {
			api_errors.RespondError(c, api_errors.BindingError(err))
			return
		}
		if query.Limit == 0 {
			query.Limit = defaultPageSize
		}
		var status *enum.RequestStatus
		if query.Status != "" {
			s := enum.RequestStatus(query.Status)
			if !s.IsValid() {
				api_errors.RespondError(c, inboxerrors.NewFieldValidationError("status", "unknown status"))
				return
			}
			status = &s
		}

		requests, total, err := h.repos.RequestRepository.ListByHOA(ctx, hoa.ID, status, query.Limit, query.Offset)
		if err != nil {
			tracing.TraceErr(span, err)
			api_errors.RespondError(c, err)
			return
		}
		c.JSON(http.StatusOK, dto.Page[*models.Request]{
			Items:  requests,
			Total:  total,
			Limit:  query.Limit,
			Offset: query.Offset,
		})
	}
}

// Get returns the request with its messages, ai replies, drafts and audit trail.
func (h *RequestHandler) Get() gin.HandlerFunc {
	return func(c *gin.Context) {
		span, ctx := opentracing.StartSpanFromContext(c.Request.Context(), "RequestHandler.Get")
		defer span.Finish()
		tracing.SetDefaultRestSpanTags(ctx, span)

		detail, err := h.loadDetail(c, c.Param("id"))
		if err != nil {
			tracing.TraceErr(span, err)
			api_errors.RespondError(c, err)
			return
		}
		c.JSON(http.StatusOK, detail)
	}
}

func (h *RequestHandler) loadDetail(c *gin.Context, requestID string) (*dto.RequestDetail, error) {
	ctx := c.Request.Context()

	request, err := h.repos.RequestRepository.GetByID(ctx, requestID)
	if err != nil {
		return nil, err
	}
	if request == nil {
		return nil, inboxerrors.NewNotFoundError("request", requestID)
	}
	if _, err := ownedHOA(ctx, h.repos, utils.GetUserIdFromContext(ctx), request.HOAID); err != nil {
		return nil, inboxerrors.NewNotFoundError("request", requestID)
	}

	detail := &dto.RequestDetail{Request: request, AIReplies: map[string]*models.AIReply{}}
	if detail.Thread, err = h.repos.EmailThreadRepository.GetByID(ctx, request.ThreadID); err != nil {
		return nil, err
	}
	if detail.Messages, err = h.repos.EmailMessageRepository.ListByThread(ctx, request.ThreadID); err != nil {
		return nil, err
	}
	for _, message := range detail.Messages {
		if message.Direction != enum.MessageIncoming {
			continue
		}
		reply, err := h.repos.AIReplyRepository.GetByMessageID(ctx, message.ID)
		if err != nil {
			return nil, err
		}
		if reply != nil {
			detail.AIReplies[message.ID] = reply
		}
	}
	if detail.Drafts, err = h.repos.ReplyDraftRepository.ListByRequest(ctx, request.ID); err != nil {
		return nil, err
	}
	if detail.AuditLog, err = h.repos.AuditLogRepository.ListByRequest(ctx, request.ID); err != nil {
		return nil, err
	}
	return detail, nil
}

func (h *RequestHandler) GenerateDraft() gin.HandlerFunc {
	return func(c *gin.Context) {
		span, ctx := opentracing.StartSpanFromContext(c.Request.Context(), "RequestHandler.GenerateDraft")
		defer span.Finish()
		tracing.SetDefaultRestSpanTags(ctx, span)

		draft, err := h.actions.GenerateDraft(ctx, utils.GetUserIdFromContext(ctx), c.Param("id"))
		if err != nil {
			tracing.TraceErr(span, err)
			api_errors.RespondError(c, err)
			return
		}
		c.JSON(http.StatusCreated, draft)
	}
}

func (h *RequestHandler) ApproveDraft() gin.HandlerFunc {
	return func(c *gin.Context) {
		span, ctx := opentracing.StartSpanFromContext(c.Request.Context(), "RequestHandler.ApproveDraft")
		defer span.Finish()
		tracing.SetDefaultRestSpanTags(ctx, span)

		draft, err := h.actions.ApproveDraft(ctx, utils.GetUserIdFromContext(ctx), c.Param("id"))
		if err != nil {
			tracing.TraceErr(span, err)
			api_errors.RespondError(c, err)
			return
		}
		c.JSON(http.StatusOK, draft)
	}
}

func (h *RequestHandler) SendDraft() gin.HandlerFunc {
	return func(c *gin.Context) {
		span, ctx := opentracing.StartSpanFromContext(c.Request.Context(), "RequestHandler.SendDraft")
		defer span.Finish()
		tracing.SetDefaultRestSpanTags(ctx, span)

		draft, err := h.actions.SendDraftReply(ctx, utils.GetUserIdFromContext(ctx), c.Param("id"))
		if err != nil {
			tracing.TraceErr(span, err)
			api_errors.RespondError(c, err)
			return
		}
		c.JSON(http.StatusOK, draft)
	}
}

// RetryMessage re-runs the webhook for an incoming message. A failed retry
// answers 502 with the stored reply so the caller can show the error.
func (h *RequestHandler) RetryMessage() gin.HandlerFunc {
	return func(c *gin.Context) {
		span, ctx := opentracing.StartSpanFromContext(c.Request.Context(), "RequestHandler.RetryMessage")
		defer span.Finish()
		tracing.SetDefaultRestSpanTags(ctx, span)

		reply, err := h.actions.RetryAIReply(ctx, utils.GetUserIdFromContext(ctx), c.Param("id"))
		if err != nil {
			tracing.TraceErr(span, err)
			if reply != nil {
				c.JSON(http.StatusBadGateway, gin.H{"error": utils.GetOrDefault(reply.Error, err.Error()), "aiReply": reply})
				return
			}
			api_errors.RespondError(c, err)
			return
		}
		c.JSON(http.StatusOK, reply)
	}
}
