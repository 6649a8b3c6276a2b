package middleware

import (
	"crypto/subtle"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

const CronSecretHeader = "x-cron-secret"

// CronSecretMiddleware guards job triggers with the shared cron secret, sent
// either as x-cron-secret or as a bearer token. An empty secret rejects every call.
func CronSecretMiddleware(secret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		provided := strings.TrimSpace(c.GetHeader(CronSecretHeader))
		if provided == "" {
			provided = bearerToken(c)
		}

		if provided == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Missing cron secret"})
			return
		}
		if secret == "" || subtle.ConstantTimeCompare([]byte(provided), []byte(secret)) != 1 {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Invalid cron secret"})
			return
		}

		c.Next()
	}
}
