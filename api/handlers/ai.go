package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/opentracing/opentracing-go"
	"github.com/pkg/errors"

	api_errors "github.com/hoadesk/inbox/api/errors"
	"github.com/hoadesk/inbox/dto"
	"github.com/hoadesk/inbox/interfaces"
	inboxerrors "github.com/hoadesk/inbox/internal/errors"
	"github.com/hoadesk/inbox/internal/tracing"
)

type AIHandler struct {
	ai interfaces.AIService
}

func NewAIHandler(ai interfaces.AIService) *AIHandler {
	return &AIHandler{ai: ai}
}

// Smoke sends a one-line prompt to OpenAI to check the key and model.
func (h *AIHandler) Smoke() gin.HandlerFunc {
	return func(c *gin.Context) {
		span, ctx := opentracing.StartSpanFromContext(c.Request.Context(), "AIHandler.Smoke")
		defer span.Finish()
		tracing.SetDefaultRestSpanTags(ctx, span)

		reply, err := h.ai.SmokeTest(ctx)
		if errors.Is(err, inboxerrors.ErrOpenAINotConfigured) {
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": err.Error()})
			return
		}
		if err != nil {
			tracing.TraceErr(span, err)
			api_errors.RespondError(c, err)
			return
		}
		c.JSON(http.StatusOK, dto.SmokeTestResponse{Reply: reply})
	}
}
