package errors

import (
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
)

func TestValidationError_Error(t *testing.T) {
	assert.Equal(t, "bad input", NewValidationError("bad input").Error())

	err := &ValidationError{
		Message: "invalid request",
		Fields: map[string]string{
			"name":  "is required",
			"email": "must be a valid email address",
		},
	}
	assert.Equal(t, "invalid request (email: must be a valid email address, name: is required)", err.Error())
}

func TestNewFieldValidationError(t *testing.T) {
	err := NewFieldValidationError("timezone", "unknown timezone")

	assert.Equal(t, "unknown timezone", err.Message)
	assert.Equal(t, map[string]string{"timezone": "unknown timezone"}, err.Fields)
}

func TestNotFoundError_Error(t *testing.T) {
	assert.Equal(t, "request r-1 not found", NewNotFoundError("request", "r-1").Error())
}

func TestIsHelpers_Wrapped(t *testing.T) {
	validation := errors.Wrap(NewValidationError("draft already sent"), "send draft")
	notFound := errors.Wrap(NewNotFoundError("hoa", "h-1"), "load hoa")

	assert.True(t, IsValidationError(validation))
	assert.False(t, IsNotFoundError(validation))
	assert.True(t, IsNotFoundError(notFound))
	assert.False(t, IsValidationError(notFound))
	assert.False(t, IsValidationError(ErrInvalidToken))
	assert.False(t, IsNotFoundError(nil))
}
