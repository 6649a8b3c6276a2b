package handlers

import (
	"net/http"
	"net/url"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/opentracing/opentracing-go"

	api_errors "github.com/hoadesk/inbox/api/errors"
	"github.com/hoadesk/inbox/dto"
	"github.com/hoadesk/inbox/interfaces"
	"github.com/hoadesk/inbox/internal/enum"
	"github.com/hoadesk/inbox/internal/tracing"
	"github.com/hoadesk/inbox/internal/utils"
)

type ThreadHandler struct {
	actions    interfaces.ActionsService
	appBaseURL string
}

func NewThreadHandler(actions interfaces.ActionsService, appBaseURL string) *ThreadHandler {
	return &ThreadHandler{actions: actions, appBaseURL: strings.TrimRight(appBaseURL, "/")}
}

// UpdateStatus handles the thread page's status form and always redirects
// back to the thread, with ?error= on failure.
func (h *ThreadHandler) UpdateStatus() gin.HandlerFunc {
	return func(c *gin.Context) {
		span, ctx := opentracing.StartSpanFromContext(c.Request.Context(), "ThreadHandler.UpdateStatus")
		defer span.Finish()
		tracing.SetDefaultRestSpanTags(ctx, span)

		threadID := c.Param("id")
		target := h.appBaseURL + "/threads/" + url.PathEscape(threadID)

		var form dto.ThreadStatusForm
		if err := c.ShouldBind(&form); err != nil {
			c.Redirect(http.StatusSeeOther, target+"?error="+url.QueryEscape("status is required"))
			return
		}

		err := h.actions.UpdateThreadStatus(ctx, utils.GetUserIdFromContext(ctx), threadID, enum.ThreadStatus(form.Status))
		if err != nil {
			tracing.TraceErr(span, err)
			_, body := api_errors.Translate(err)
			c.Redirect(http.StatusSeeOther, target+"?error="+url.QueryEscape(body.Error))
			return
		}
		c.Redirect(http.StatusSeeOther, target)
	}
}
