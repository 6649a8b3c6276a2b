package middleware

import (
	"github.com/gin-gonic/gin"

	"github.com/hoadesk/inbox/internal/utils"
)

// CustomContextMiddleware copies the caller identity onto the request context.
func CustomContextMiddleware(appSource string) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := utils.WithCustomContextFromGinRequest(c, appSource)
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}
