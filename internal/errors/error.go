package errors

import (
	"fmt"
	"sort"
	"strings"

	"github.com/pkg/errors"
)

var (
	// common errors
	ErrLockNotAcquired = errors.New("job lock held by another run")

	// crypto errors
	ErrInvalidEncryptionKey = errors.New("encryption key must be 32 bytes, base64 or hex encoded")
	ErrMalformedCiphertext  = errors.New("malformed encrypted value")

	// gmail errors
	ErrGmailNotConnected = errors.New("gmail account not connected")
	ErrTokenRefresh      = errors.New("gmail token refresh failed")
	ErrNoRefreshToken    = errors.New("gmail account has no refresh token")

	// webhook errors
	ErrWebhookNotConfigured = errors.New("webhook url not configured")
	ErrWebhookEmptyReply    = errors.New("webhook response has no replyText")

	// openai errors
	ErrOpenAINotConfigured = errors.New("openai api key not configured")

	// auth errors
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrInvalidToken       = errors.New("invalid or expired token")
)

// ValidationError is a client error with optional per-field messages.
type ValidationError struct {
	Message string
	Fields  map[string]string
}

func NewValidationError(message string) *ValidationError {
	return &ValidationError{Message: message}
}

func NewFieldValidationError(field, message string) *ValidationError {
	return &ValidationError{Message: message, Fields: map[string]string{field: message}}
}

func (e *ValidationError) Error() string {
	if len(e.Fields) == 0 {
		return e.Message
	}
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s: %s", k, e.Fields[k]))
	}
	return fmt.Sprintf("%s (%s)", e.Message, strings.Join(parts, ", "))
}

// NotFoundError is returned for missing entities and for entities the caller does not own.
type NotFoundError struct {
	Entity string
	ID     string
}

func NewNotFoundError(entity, id string) *NotFoundError {
	return &NotFoundError{Entity: entity, ID: id}
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %s not found", e.Entity, e.ID)
}

type ForbiddenError struct {
	Message string
}

func NewForbiddenError(message string) *ForbiddenError {
	return &ForbiddenError{Message: message}
}

func (e *ForbiddenError) Error() string {
	return e.Message
}

func IsValidationError(err error) bool {
	var target *ValidationError
	return errors.As(err, &target)
}

func IsNotFoundError(err error) bool {
	var target *NotFoundError
	return errors.As(err, &target)
}
