package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/opentracing/opentracing-go"

	api_errors "github.com/hoadesk/inbox/api/errors"
	"github.com/hoadesk/inbox/api/middleware"
	"github.com/hoadesk/inbox/dto"
	"github.com/hoadesk/inbox/interfaces"
	"github.com/hoadesk/inbox/internal/tracing"
)

type AuthHandler struct {
	auth interfaces.AuthService
}

func NewAuthHandler(auth interfaces.AuthService) *AuthHandler {
	return &AuthHandler{auth: auth}
}

// Login exchanges credentials for a session token, returned in the body and
// as an http-only cookie.
func (h *AuthHandler) Login() gin.HandlerFunc {
	return func(c *gin.Context) {
		span, ctx := opentracing.StartSpanFromContext(c.Request.Context(), "AuthHandler.Login")
		defer span.Finish()
		tracing.SetDefaultRestSpanTags(ctx, span)

		var req dto.LoginRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			tracing.TraceErr(span, err)
			api_errors.RespondError(c, api_errors.BindingError(err))
			return
		}

		resp, err := h.auth.Login(ctx, req.Email, req.Password)
		if err != nil {
			tracing.TraceErr(span, err)
			api_errors.RespondError(c, err)
			return
		}

		maxAge := int(time.Until(time.Unix(resp.ExpiresAt, 0)).Seconds())
		c.SetSameSite(http.SameSiteLaxMode)
		c.SetCookie(middleware.SessionCookieName, resp.Token, maxAge, "/", "", c.Request.TLS != nil, true)
		c.JSON(http.StatusOK, resp)
	}
}
