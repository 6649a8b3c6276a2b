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
	"github.com/hoadesk/inbox/internal/tracing"
	"github.com/hoadesk/inbox/internal/utils"
)

type GmailHandler struct {
	mailboxes  interfaces.MailboxService
	appBaseURL string
}

func NewGmailHandler(mailboxes interfaces.MailboxService, appBaseURL string) *GmailHandler {
	return &GmailHandler{mailboxes: mailboxes, appBaseURL: strings.TrimRight(appBaseURL, "/")}
}

// Connect returns the Google consent URL for the HOA.
func (h *GmailHandler) Connect() gin.HandlerFunc {
	return func(c *gin.Context) {
		span, ctx := opentracing.StartSpanFromContext(c.Request.Context(), "GmailHandler.Connect")
		defer span.Finish()
		tracing.SetDefaultRestSpanTags(ctx, span)

		consentURL, err := h.mailboxes.ConnectURL(ctx, utils.GetUserIdFromContext(ctx), c.Param("id"))
		if err != nil {
			tracing.TraceErr(span, err)
			api_errors.RespondError(c, err)
			return
		}
		c.JSON(http.StatusOK, dto.GmailConnectResponse{URL: consentURL})
	}
}

// Callback is Google's redirect target. The browser is sent back to the app
// with either the connected HOA or an error message.
func (h *GmailHandler) Callback() gin.HandlerFunc {
	return func(c *gin.Context) {
		span, ctx := opentracing.StartSpanFromContext(c.Request.Context(), "GmailHandler.Callback")
		defer span.Finish()
		tracing.SetDefaultRestSpanTags(ctx, span)

		if denied := c.Query("error"); denied != "" {
			c.Redirect(http.StatusSeeOther, h.appBaseURL+"/?error="+url.QueryEscape("Google consent failed: "+denied))
			return
		}

		account, err := h.mailboxes.HandleCallback(ctx, c.Query("code"), c.Query("state"))
		if err != nil {
			tracing.TraceErr(span, err)
			_, body := api_errors.Translate(err)
			c.Redirect(http.StatusSeeOther, h.appBaseURL+"/?error="+url.QueryEscape(body.Error))
			return
		}
		c.Redirect(http.StatusSeeOther, h.appBaseURL+"/hoas/"+account.HOAID+"?gmail=connected")
	}
}
