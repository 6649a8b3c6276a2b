package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/opentracing/opentracing-go"

	api_errors "github.com/hoadesk/inbox/api/errors"
	"github.com/hoadesk/inbox/dto"
	inboxerrors "github.com/hoadesk/inbox/internal/errors"
	"github.com/hoadesk/inbox/internal/models"
	"github.com/hoadesk/inbox/internal/repository"
	"github.com/hoadesk/inbox/internal/tracing"
	"github.com/hoadesk/inbox/internal/utils"
)

const defaultTimezone = "UTC"

type HOAHandler struct {
	repos *repository.Repositories
}

func NewHOAHandler(repos *repository.Repositories) *HOAHandler {
	return &HOAHandler{repos: repos}
}

func (h *HOAHandler) List() gin.HandlerFunc {
	return func(c *gin.Context) {
		span, ctx := opentracing.StartSpanFromContext(c.Request.Context(), "HOAHandler.List")
		defer span.Finish()
		tracing.SetDefaultRestSpanTags(ctx, span)

		hoas, err := h.repos.HOARepository.ListByOwner(ctx, utils.GetUserIdFromContext(ctx))
		if err != nil {
			tracing.TraceErr(span, err)
			api_errors.RespondError(c, err)
			return
		}
		c.JSON(http.StatusOK, hoas)
	}
}

func (h *HOAHandler) Create() gin.HandlerFunc {
	return func(c *gin.Context) {
		span, ctx := opentracing.StartSpanFromContext(c.Request.Context(), "HOAHandler.Create")
		defer span.Finish()
		tracing.SetDefaultRestSpanTags(ctx, span)

		var req dto.CreateHOARequest
		if err := c.ShouldBindJSON(&req); err != nil {
			tracing.TraceErr(span, err)
			api_errors.RespondError(c, api_errors.BindingError(err))
			return
		}

		timezone := req.Timezone
		if timezone == "" {
			timezone = defaultTimezone
		}
		if _, err := time.LoadLocation(timezone); err != nil {
			api_errors.RespondError(c, inboxerrors.NewFieldValidationError("timezone", "unknown timezone"))
			return
		}

		hoa := &models.HOA{
			OwnerID:      utils.GetUserIdFromContext(ctx),
			Name:         req.Name,
			ContactEmail: req.ContactEmail,
			Timezone:     timezone,
			Signature:    req.Signature,
		}
		if err := h.repos.HOARepository.Create(ctx, hoa); err != nil {
			tracing.TraceErr(span, err)
			api_errors.RespondError(c, err)
			return
		}
		c.JSON(http.StatusCreated, hoa)
	}
}

// Get returns the HOA with its Gmail connection state.
func (h *HOAHandler) Get() gin.HandlerFunc {
	return func(c *gin.Context) {
		span, ctx := opentracing.StartSpanFromContext(c.Request.Context(), "HOAHandler.Get")
		defer span.Finish()
		tracing.SetDefaultRestSpanTags(ctx, span)

		hoa, err := ownedHOA(ctx, h.repos, utils.GetUserIdFromContext(ctx), c.Param("id"))
		if err != nil {
			tracing.TraceErr(span, err)
			api_errors.RespondError(c, err)
			return
		}
		account, err := h.repos.GmailAccountRepository.GetByHOA(ctx, hoa.ID)
		if err != nil {
			tracing.TraceErr(span, err)
			api_errors.RespondError(c, err)
			return
		}
		c.JSON(http.StatusOK, dto.HOADetail{HOA: hoa, GmailAccount: account})
	}
}

func (h *HOAHandler) ListPolicies() gin.HandlerFunc {
	return func(c *gin.Context) {
		span, ctx := opentracing.StartSpanFromContext(c.Request.Context(), "HOAHandler.ListPolicies")
		defer span.Finish()
		tracing.SetDefaultRestSpanTags(ctx, span)

		hoa, err := ownedHOA(ctx, h.repos, utils.GetUserIdFromContext(ctx), c.Param("id"))
		if err != nil {
			api_errors.RespondError(c, err)
			return
		}
		templates, err := h.repos.PolicyTemplateRepository.ListByHOA(ctx, hoa.ID)
		if err != nil {
			tracing.TraceErr(span, err)
			api_errors.RespondError(c, err)
			return
		}
		c.JSON(http.StatusOK, templates)
	}
}

func (h *HOAHandler) CreatePolicy() gin.HandlerFunc {
	return func(c *gin.Context) {
		span, ctx := opentracing.StartSpanFromContext(c.Request.Context(), "HOAHandler.CreatePolicy")
		defer span.Finish()
		tracing.SetDefaultRestSpanTags(ctx, span)

		hoa, err := ownedHOA(ctx, h.repos, utils.GetUserIdFromContext(ctx), c.Param("id"))
		if err != nil {
			api_errors.RespondError(c, err)
			return
		}

		var req dto.CreatePolicyTemplateRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			tracing.TraceErr(span, err)
			api_errors.RespondError(c, api_errors.BindingError(err))
			return
		}
		if !req.Category.IsValid() {
			api_errors.RespondError(c, inboxerrors.NewFieldValidationError("category", "unknown category"))
			return
		}
		if req.Priority != nil && !req.Priority.IsValid() {
			api_errors.RespondError(c, inboxerrors.NewFieldValidationError("priority", "unknown priority"))
			return
		}

		template := &models.PolicyTemplate{
			HOAID:     hoa.ID,
			Name:      req.Name,
			Category:  req.Category,
			Priority:  req.Priority,
			Body:      req.Body,
			IsDefault: req.IsDefault,
		}
		if err := h.repos.PolicyTemplateRepository.Create(ctx, template); err != nil {
			tracing.TraceErr(span, err)
			api_errors.RespondError(c, err)
			return
		}
		c.JSON(http.StatusCreated, template)
	}
}

func (h *HOAHandler) ListResidents() gin.HandlerFunc {
	return func(c *gin.Context) {
		span, ctx := opentracing.StartSpanFromContext(c.Request.Context(), "HOAHandler.ListResidents")
		defer span.Finish()
		tracing.SetDefaultRestSpanTags(ctx, span)

		hoa, err := ownedHOA(ctx, h.repos, utils.GetUserIdFromContext(ctx), c.Param("id"))
		if err != nil {
			api_errors.RespondError(c, err)
			return
		}
		residents, err := h.repos.ResidentRepository.ListByHOA(ctx, hoa.ID)
		if err != nil {
			tracing.TraceErr(span, err)
			api_errors.RespondError(c, err)
			return
		}
		c.JSON(http.StatusOK, residents)
	}
}

func (h *HOAHandler) CreateResident() gin.HandlerFunc {
	return func(c *gin.Context) {
		span, ctx := opentracing.StartSpanFromContext(c.Request.Context(), "HOAHandler.CreateResident")
		defer span.Finish()
		tracing.SetDefaultRestSpanTags(ctx, span)

		hoa, err := ownedHOA(ctx, h.repos, utils.GetUserIdFromContext(ctx), c.Param("id"))
		if err != nil {
			api_errors.RespondError(c, err)
			return
		}

		var req dto.CreateResidentRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			tracing.TraceErr(span, err)
			api_errors.RespondError(c, api_errors.BindingError(err))
			return
		}

		existing, err := h.repos.ResidentRepository.GetByEmail(ctx, hoa.ID, req.Email)
		if err != nil {
			tracing.TraceErr(span, err)
			api_errors.RespondError(c, err)
			return
		}
		if existing != nil {
			api_errors.RespondError(c, inboxerrors.NewFieldValidationError("email", "a resident with this email already exists"))
			return
		}

		resident := &models.Resident{
			HOAID: hoa.ID,
			Name:  req.Name,
			Email: req.Email,
			Unit:  req.Unit,
		}
		if err := h.repos.ResidentRepository.Create(ctx, resident); err != nil {
			tracing.TraceErr(span, err)
			api_errors.RespondError(c, err)
			return
		}
		c.JSON(http.StatusCreated, resident)
	}
}
