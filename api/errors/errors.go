package errors

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"

	inboxerrors "github.com/hoadesk/inbox/internal/errors"
)

type ErrorResponse struct {
	Error  string            `json:"error"`
	Fields map[string]string `json:"fields,omitempty"`
}

// RespondError writes the JSON error body for err and aborts the chain.
func RespondError(c *gin.Context, err error) {
	status, body := Translate(err)
	c.AbortWithStatusJSON(status, body)
}

// Translate maps service errors onto an HTTP status and response body.
// Unknown errors become a 500 without leaking their message.
func Translate(err error) (int, ErrorResponse) {
	var validationErr *inboxerrors.ValidationError
	var notFoundErr *inboxerrors.NotFoundError
	var forbiddenErr *inboxerrors.ForbiddenError

	switch {
	case errors.As(err, &validationErr):
		return http.StatusBadRequest, ErrorResponse{Error: validationErr.Message, Fields: validationErr.Fields}
	case errors.As(err, &notFoundErr):
		return http.StatusNotFound, ErrorResponse{Error: notFoundErr.Error()}
	case errors.As(err, &forbiddenErr):
		return http.StatusForbidden, ErrorResponse{Error: forbiddenErr.Error()}
	case errors.Is(err, inboxerrors.ErrInvalidCredentials), errors.Is(err, inboxerrors.ErrInvalidToken):
		return http.StatusUnauthorized, ErrorResponse{Error: errors.Cause(err).Error()}
	default:
		return http.StatusInternalServerError, ErrorResponse{Error: "internal server error"}
	}
}

// BindingError converts a gin binding failure into a ValidationError with a
// message per offending field.
func BindingError(err error) *inboxerrors.ValidationError {
	var validationErrs validator.ValidationErrors
	if !errors.As(err, &validationErrs) {
		return inboxerrors.NewValidationError("invalid request body")
	}

	fields := make(map[string]string, len(validationErrs))
	for _, fe := range validationErrs {
		fields[fe.Field()] = fieldMessage(fe)
	}
	return &inboxerrors.ValidationError{Message: "invalid request", Fields: fields}
}

func fieldMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "email":
		return "must be a valid email address"
	case "max":
		return fmt.Sprintf("must be at most %s characters", fe.Param())
	case "min":
		return fmt.Sprintf("must be at least %s characters", fe.Param())
	case "oneof":
		return "must be one of " + strings.ReplaceAll(fe.Param(), " ", ", ")
	default:
		return "is invalid"
	}
}
