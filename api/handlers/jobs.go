package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/opentracing/opentracing-go"

	api_errors "github.com/hoadesk/inbox/api/errors"
	"github.com/hoadesk/inbox/dto"
	"github.com/hoadesk/inbox/interfaces"
	"github.com/hoadesk/inbox/internal/repository"
	"github.com/hoadesk/inbox/internal/tracing"
	"github.com/hoadesk/inbox/internal/utils"
)

type JobsHandler struct {
	poller interfaces.PollerService
	repos  *repository.Repositories
}

func NewJobsHandler(poller interfaces.PollerService, repos *repository.Repositories) *JobsHandler {
	return &JobsHandler{poller: poller, repos: repos}
}

// PollAll is the external cron trigger.
func (h *JobsHandler) PollAll() gin.HandlerFunc {
	return func(c *gin.Context) {
		span, ctx := opentracing.StartSpanFromContext(c.Request.Context(), "JobsHandler.PollAll")
		defer span.Finish()
		tracing.SetDefaultRestSpanTags(ctx, span)
		tracing.TagComponentCronJob(span)

		summary, err := h.poller.PollAll(ctx)
		if err != nil {
			tracing.TraceErr(span, err)
			api_errors.RespondError(c, err)
			return
		}
		respondPoll(c, summary)
	}
}

// PollHOA polls a single HOA the caller owns.
func (h *JobsHandler) PollHOA() gin.HandlerFunc {
	return func(c *gin.Context) {
		span, ctx := opentracing.StartSpanFromContext(c.Request.Context(), "JobsHandler.PollHOA")
		defer span.Finish()
		tracing.SetDefaultRestSpanTags(ctx, span)

		hoa, err := ownedHOA(ctx, h.repos, utils.GetUserIdFromContext(ctx), c.Param("id"))
		if err != nil {
			api_errors.RespondError(c, err)
			return
		}

		summary, err := h.poller.PollHOA(ctx, hoa.ID)
		if err != nil {
			tracing.TraceErr(span, err)
			api_errors.RespondError(c, err)
			return
		}
		respondPoll(c, summary)
	}
}

// respondPoll answers 409 when another run holds the lock.
func respondPoll(c *gin.Context, summary *dto.PollSummary) {
	if summary.Skipped {
		c.JSON(http.StatusConflict, summary)
		return
	}
	c.JSON(http.StatusOK, summary)
}
