package auth

import (
	"context"
	"strings"

	"github.com/opentracing/opentracing-go"
	"github.com/pkg/errors"
	"golang.org/x/crypto/bcrypt"

	"github.com/hoadesk/inbox/dto"
	"github.com/hoadesk/inbox/interfaces"
	inboxerrors "github.com/hoadesk/inbox/internal/errors"
	"github.com/hoadesk/inbox/internal/logger"
	"github.com/hoadesk/inbox/internal/models"
	"github.com/hoadesk/inbox/internal/repository"
	"github.com/hoadesk/inbox/internal/tracing"
)

const minPasswordLength = 8

type authService struct {
	repos  *repository.Repositories
	tokens *TokenIssuer
	log    logger.Logger
}

func NewAuthService(repos *repository.Repositories, tokens *TokenIssuer, log logger.Logger) interfaces.AuthService {
	return &authService{repos: repos, tokens: tokens, log: log}
}

func (s *authService) Login(ctx context.Context, email, password string) (*dto.LoginResponse, error) {
	span, ctx := opentracing.StartSpanFromContext(ctx, "AuthService.Login")
	defer span.Finish()
	tracing.SetDefaultServiceSpanTags(ctx, span)

	user, err := s.repos.UserRepository.GetByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
	if err != nil {
		tracing.TraceErr(span, err)
		return nil, err
	}
	if user == nil || user.PasswordHash == "" {
		return nil, inboxerrors.ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, inboxerrors.ErrInvalidCredentials
	}

	token, expiresAt, err := s.tokens.SignSession(user.ID, user.Email)
	if err != nil {
		tracing.TraceErr(span, err)
		return nil, err
	}
	span.SetTag(tracing.SpanTagUserId, user.ID)
	return &dto.LoginResponse{Token: token, ExpiresAt: expiresAt.Unix(), UserID: user.ID}, nil
}

func (s *authService) CreateUser(ctx context.Context, email, name, password string) (*models.User, error) {
	span, ctx := opentracing.StartSpanFromContext(ctx, "AuthService.CreateUser")
	defer span.Finish()
	tracing.SetDefaultServiceSpanTags(ctx, span)

	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" {
		return nil, inboxerrors.NewFieldValidationError("email", "email is required")
	}
	if len(password) < minPasswordLength {
		return nil, inboxerrors.NewFieldValidationError("password", "password must be at least 8 characters")
	}

	existing, err := s.repos.UserRepository.GetByEmail(ctx, email)
	if err != nil {
		tracing.TraceErr(span, err)
		return nil, err
	}
	if existing != nil {
		return nil, inboxerrors.NewFieldValidationError("email", "a user with this email already exists")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		tracing.TraceErr(span, err)
		return nil, errors.Wrap(err, "failed to hash password")
	}

	user := &models.User{Email: email, Name: name, PasswordHash: string(hash)}
	if err := s.repos.UserRepository.Create(ctx, user); err != nil {
		tracing.TraceErr(span, err)
		return nil, err
	}
	s.log.Infof("created user %s", user.ID)
	return user, nil
}
