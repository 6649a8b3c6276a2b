package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"

	api_errors "github.com/hoadesk/inbox/api/errors"
	inboxerrors "github.com/hoadesk/inbox/internal/errors"
	"github.com/hoadesk/inbox/services/auth"
)

const (
	SessionCookieName = "session"

	ContextKeyUserId    = "UserId"
	ContextKeyUserEmail = "UserEmail"
)

// SessionAuthMiddleware accepts a session JWT from the Authorization header or
// the session cookie and stores the user on the gin context.
func SessionAuthMiddleware(tokens *auth.TokenIssuer) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := bearerToken(c)
		if token == "" {
			if cookie, err := c.Cookie(SessionCookieName); err == nil {
				token = cookie
			}
		}
		if token == "" {
			api_errors.RespondError(c, inboxerrors.ErrInvalidToken)
			return
		}

		claims, err := tokens.ParseSession(token)
		if err != nil {
			api_errors.RespondError(c, err)
			return
		}

		c.Set(ContextKeyUserId, claims.Subject)
		c.Set(ContextKeyUserEmail, claims.Email)
		c.Next()
	}
}

func bearerToken(c *gin.Context) string {
	header := strings.TrimSpace(c.GetHeader("Authorization"))
	if len(header) > 7 && strings.EqualFold(header[:7], "bearer ") {
		return strings.TrimSpace(header[7:])
	}
	return ""
}
