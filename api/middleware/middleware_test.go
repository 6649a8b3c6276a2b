package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hoadesk/inbox/internal/utils"
	"github.com/hoadesk/inbox/services/auth"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func sessionRouter(tokens *auth.TokenIssuer) *gin.Engine {
	r := gin.New()
	r.GET("/me",
		SessionAuthMiddleware(tokens),
		CustomContextMiddleware("test"),
		func(c *gin.Context) {
			ctx := c.Request.Context()
			c.JSON(http.StatusOK, gin.H{
				"userId": utils.GetUserIdFromContext(ctx),
				"email":  utils.GetUserEmailFromContext(ctx),
			})
		})
	return r
}

func TestSessionAuthMiddleware(t *testing.T) {
	tokens := auth.NewTokenIssuer("secret", time.Hour)
	session, _, err := tokens.SignSession("user_1", "manager@oakhoa.org")
	require.NoError(t, err)
	state, err := tokens.SignState("user_1", "hoa_1")
	require.NoError(t, err)

	tests := []struct {
		name    string
		prepare func(r *http.Request)
		status  int
	}{
		{"no token", func(r *http.Request) {}, http.StatusUnauthorized},
		{"bearer", func(r *http.Request) { r.Header.Set("Authorization", "Bearer "+session) }, http.StatusOK},
		{"cookie", func(r *http.Request) { r.AddCookie(&http.Cookie{Name: SessionCookieName, Value: session}) }, http.StatusOK},
		{"state token", func(r *http.Request) { r.Header.Set("Authorization", "Bearer "+state) }, http.StatusUnauthorized},
		{"garbage", func(r *http.Request) { r.Header.Set("Authorization", "Bearer abc.def.ghi") }, http.StatusUnauthorized},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/me", nil)
			tt.prepare(req)
			w := httptest.NewRecorder()

			sessionRouter(tokens).ServeHTTP(w, req)

			assert.Equal(t, tt.status, w.Code)
			if tt.status == http.StatusOK {
				assert.JSONEq(t, `{"userId":"user_1","email":"manager@oakhoa.org"}`, w.Body.String())
			} else {
				assert.JSONEq(t, `{"error":"invalid or expired token"}`, w.Body.String())
			}
		})
	}
}

func TestCronSecretMiddleware(t *testing.T) {
	tests := []struct {
		name   string
		secret string
		header string
		value  string
		status int
	}{
		{"header", "s3cret", CronSecretHeader, "s3cret", http.StatusOK},
		{"bearer", "s3cret", "Authorization", "Bearer s3cret", http.StatusOK},
		{"missing", "s3cret", "", "", http.StatusUnauthorized},
		{"wrong", "s3cret", CronSecretHeader, "guess", http.StatusUnauthorized},
		{"not configured", "", CronSecretHeader, "anything", http.StatusUnauthorized},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := gin.New()
			r.POST("/job", CronSecretMiddleware(tt.secret), func(c *gin.Context) {
				c.Status(http.StatusOK)
			})

			req := httptest.NewRequest(http.MethodPost, "/job", nil)
			if tt.header != "" {
				req.Header.Set(tt.header, tt.value)
			}
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)

			assert.Equal(t, tt.status, w.Code)
		})
	}
}
