package errors

import (
	"net/http"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	inboxerrors "github.com/hoadesk/inbox/internal/errors"
)

func TestTranslate(t *testing.T) {
	tests := []struct {
		name    string
		err     error
		status  int
		message string
	}{
		{"validation", inboxerrors.NewFieldValidationError("status", "unknown status"), http.StatusBadRequest, "unknown status"},
		{"wrapped not found", errors.Wrap(inboxerrors.NewNotFoundError("hoa", "hoa_1"), "load"), http.StatusNotFound, "hoa hoa_1 not found"},
		{"forbidden", inboxerrors.NewForbiddenError("nope"), http.StatusForbidden, "nope"},
		{"credentials", inboxerrors.ErrInvalidCredentials, http.StatusUnauthorized, "invalid email or password"},
		{"token", errors.Wrap(inboxerrors.ErrInvalidToken, "session"), http.StatusUnauthorized, "invalid or expired token"},
		{"unknown", errors.New("pq: connection refused"), http.StatusInternalServerError, "internal server error"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, body := Translate(tt.err)
			assert.Equal(t, tt.status, status)
			assert.Equal(t, tt.message, body.Error)
		})
	}
}

func TestTranslate_KeepsFields(t *testing.T) {
	_, body := Translate(inboxerrors.NewFieldValidationError("draft", "must be approved"))
	assert.Equal(t, map[string]string{"draft": "must be approved"}, body.Fields)
}

func TestBindingError(t *testing.T) {
	type payload struct {
		Email string `json:"email" validate:"required,email"`
		Name  string `json:"name" validate:"max=3"`
	}
	v := validator.New()
	err := v.Struct(payload{Email: "nope", Name: "toolong"})
	require.Error(t, err)

	verr := BindingError(err)
	assert.Equal(t, "must be a valid email address", verr.Fields["Email"])
	assert.Equal(t, "must be at most 3 characters", verr.Fields["Name"])
}

func TestBindingError_MalformedBody(t *testing.T) {
	verr := BindingError(errors.New("unexpected EOF"))
	assert.Equal(t, "invalid request body", verr.Message)
	assert.Empty(t, verr.Fields)
}
