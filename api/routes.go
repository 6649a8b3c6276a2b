package api

import (
	"reflect"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"github.com/opentracing/opentracing-go"

	"github.com/hoadesk/inbox/api/handlers"
	"github.com/hoadesk/inbox/api/middleware"
	"github.com/hoadesk/inbox/config"
	"github.com/hoadesk/inbox/internal/logger"
	"github.com/hoadesk/inbox/internal/metrics"
	"github.com/hoadesk/inbox/internal/repository"
	"github.com/hoadesk/inbox/internal/tracing"
	"github.com/hoadesk/inbox/services"
)

const appSource = "hoa-inbox"

// RegisterRoutes sets up all API endpoints
func RegisterRoutes(r *gin.Engine, cfg *config.Config, s *services.Services, repos *repository.Repositories, log logger.Logger) {
	if s == nil {
		panic("Services cannot be nil")
	}
	if repos == nil {
		panic("Repositories cannot be nil")
	}

	useJSONFieldNames()

	r.Use(tracing.RecoveryWithJaeger(opentracing.GlobalTracer(), log))
	r.Use(metrics.GinMiddleware())

	apiHandlers := handlers.InitHandlers(s, repos, cfg.AppConfig.AppBaseURL)

	r.GET("/health", handlers.HealthCheck)
	r.GET("/metrics", gin.WrapH(metrics.Handler()))

	api := r.Group("/api")
	api.Use(middleware.CustomContextMiddleware(appSource))
	api.Use(middleware.TracingMiddleware())
	{
		api.POST("/auth/login", apiHandlers.Auth.Login())
		api.GET("/gmail/callback", apiHandlers.Gmail.Callback())
		api.POST("/jobs/poll-gmail", middleware.CronSecretMiddleware(cfg.AppConfig.CronSecret), apiHandlers.Jobs.PollAll())
	}

	// session routes resolve the user before the request context is built
	session := r.Group("/api")
	session.Use(middleware.SessionAuthMiddleware(s.Tokens))
	session.Use(middleware.CustomContextMiddleware(appSource))
	session.Use(middleware.TracingMiddleware())
	{
		hoas := session.Group("/hoas")
		{
			hoas.GET("", apiHandlers.HOAs.List())
			hoas.POST("", apiHandlers.HOAs.Create())
			hoas.GET("/:id", apiHandlers.HOAs.Get())
			hoas.GET("/:id/policies", apiHandlers.HOAs.ListPolicies())
			hoas.POST("/:id/policies", apiHandlers.HOAs.CreatePolicy())
			hoas.GET("/:id/residents", apiHandlers.HOAs.ListResidents())
			hoas.POST("/:id/residents", apiHandlers.HOAs.CreateResident())
			hoas.GET("/:id/gmail/connect", apiHandlers.Gmail.Connect())
			hoas.POST("/:id/poll", apiHandlers.Jobs.PollHOA())
			hoas.GET("/:id/requests", apiHandlers.Requests.List())
		}

		session.GET("/requests/:id", apiHandlers.Requests.Get())
		session.POST("/requests/:id/drafts", apiHandlers.Requests.GenerateDraft())
		session.POST("/drafts/:id/approve", apiHandlers.Requests.ApproveDraft())
		session.POST("/drafts/:id/send", apiHandlers.Requests.SendDraft())
		session.POST("/messages/:id/retry", apiHandlers.Requests.RetryMessage())
		session.POST("/threads/:id/status", apiHandlers.Threads.UpdateStatus())
		session.GET("/ai/smoke", apiHandlers.AI.Smoke())
	}
}

// useJSONFieldNames makes validation errors report json field names.
func useJSONFieldNames() {
	v, ok := binding.Validator.Engine().(*validator.Validate)
	if !ok {
		return
	}
	v.RegisterTagNameFunc(func(field reflect.StructField) string {
		for _, tag := range []string{"json", "form"} {
			name := strings.SplitN(field.Tag.Get(tag), ",", 2)[0]
			if name == "-" {
				return ""
			}
			if name != "" {
				return name
			}
		}
		return field.Name
	})
}
