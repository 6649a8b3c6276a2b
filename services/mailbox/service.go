package mailbox

import (
	"context"
	"time"

	"github.com/opentracing/opentracing-go"
	"github.com/pkg/errors"

	"github.com/hoadesk/inbox/interfaces"
	"github.com/hoadesk/inbox/internal/crypto"
	"github.com/hoadesk/inbox/internal/enum"
	inboxerrors "github.com/hoadesk/inbox/internal/errors"
	"github.com/hoadesk/inbox/internal/logger"
	"github.com/hoadesk/inbox/internal/models"
	"github.com/hoadesk/inbox/internal/repository"
	"github.com/hoadesk/inbox/internal/tracing"
	"github.com/hoadesk/inbox/internal/utils"
	"github.com/hoadesk/inbox/services/auth"
)

// RefreshThreshold is how close to expiry an access token may get before it is refreshed.
const RefreshThreshold = 60 * time.Second

type mailboxService struct {
	repos     *repository.Repositories
	gmail     interfaces.GmailService
	encrypter *crypto.Encrypter
	tokens    *auth.TokenIssuer
	log       logger.Logger
	now       func() time.Time
}

func NewMailboxService(repos *repository.Repositories, gmail interfaces.GmailService, encrypter *crypto.Encrypter, tokens *auth.TokenIssuer, log logger.Logger) interfaces.MailboxService {
	return &mailboxService{
		repos:     repos,
		gmail:     gmail,
		encrypter: encrypter,
		tokens:    tokens,
		log:       log,
		now:       utils.Now,
	}
}

func (s *mailboxService) ConnectURL(ctx context.Context, userID, hoaID string) (string, error) {
	span, ctx := opentracing.StartSpanFromContext(ctx, "MailboxService.ConnectURL")
	defer span.Finish()
	tracing.SetDefaultServiceSpanTags(ctx, span)
	tracing.TagHOA(span, hoaID)

	hoa, err := s.repos.HOARepository.GetForOwner(ctx, userID, hoaID)
	if err != nil {
		tracing.TraceErr(span, err)
		return "", err
	}
	if hoa == nil {
		return "", inboxerrors.NewNotFoundError("hoa", hoaID)
	}

	state, err := s.tokens.SignState(userID, hoa.ID)
	if err != nil {
		tracing.TraceErr(span, err)
		return "", err
	}
	return s.gmail.AuthCodeURL(state), nil
}

// HandleCallback finishes the consent flow and stores the encrypted tokens
// on the HOA's account row.
func (s *mailboxService) HandleCallback(ctx context.Context, code, state string) (*models.GmailAccount, error) {
	span, ctx := opentracing.StartSpanFromContext(ctx, "MailboxService.HandleCallback")
	defer span.Finish()
	tracing.SetDefaultServiceSpanTags(ctx, span)

	if code == "" {
		return nil, inboxerrors.NewFieldValidationError("code", "missing authorization code")
	}
	claims, err := s.tokens.ParseState(state)
	if err != nil {
		return nil, inboxerrors.NewFieldValidationError("state", "invalid or expired state")
	}
	tracing.TagHOA(span, claims.HOAID)

	hoa, err := s.repos.HOARepository.GetForOwner(ctx, claims.Subject, claims.HOAID)
	if err != nil {
		tracing.TraceErr(span, err)
		return nil, err
	}
	if hoa == nil {
		return nil, inboxerrors.NewNotFoundError("hoa", claims.HOAID)
	}

	token, err := s.gmail.Exchange(ctx, code)
	if err != nil {
		tracing.TraceErr(span, err)
		return nil, err
	}

	mailbox, err := s.gmail.Mailbox(ctx, token.AccessToken)
	if err != nil {
		tracing.TraceErr(span, err)
		return nil, err
	}
	emailAddress, err := mailbox.GetProfile(ctx)
	if err != nil {
		tracing.TraceErr(span, err)
		return nil, err
	}

	accessToken, err := s.encrypter.EncryptString(token.AccessToken)
	if err != nil {
		tracing.TraceErr(span, err)
		return nil, err
	}
	var refreshToken string
	if token.RefreshToken != "" {
		if refreshToken, err = s.encrypter.EncryptString(token.RefreshToken); err != nil {
			tracing.TraceErr(span, err)
			return nil, err
		}
	}

	expiry := token.Expiry
	account := &models.GmailAccount{
		HOAID:          hoa.ID,
		EmailAddress:   emailAddress,
		AccessToken:    accessToken,
		RefreshToken:   refreshToken,
		ExpiryDate:     &expiry,
		LastPollStatus: enum.PollStatusOK,
	}
	if err := s.repos.GmailAccountRepository.Upsert(ctx, account); err != nil {
		tracing.TraceErr(span, err)
		return nil, err
	}

	s.log.Infof("gmail account %s connected for hoa %s", emailAddress, hoa.ID)
	return account, nil
}

// EnsureAccessToken returns a plaintext access token, refreshing and persisting
// a new one when the stored token is within RefreshThreshold of expiry.
func (s *mailboxService) EnsureAccessToken(ctx context.Context, account *models.GmailAccount) (string, error) {
	span, ctx := opentracing.StartSpanFromContext(ctx, "MailboxService.EnsureAccessToken")
	defer span.Finish()
	tracing.SetDefaultServiceSpanTags(ctx, span)
	tracing.TagHOA(span, account.HOAID)

	accessToken, err := s.encrypter.DecryptString(account.AccessToken)
	if err != nil {
		tracing.TraceErr(span, err)
		return "", errors.Wrap(err, "failed to decrypt access token")
	}
	if accessToken != "" && account.ExpiryDate != nil && account.ExpiryDate.Sub(s.now()) >= RefreshThreshold {
		return accessToken, nil
	}

	refreshToken, err := s.encrypter.DecryptString(account.RefreshToken)
	if err != nil {
		tracing.TraceErr(span, err)
		return "", errors.Wrap(err, "failed to decrypt refresh token")
	}
	span.LogKV("refresh", true)

	token, err := s.gmail.Refresh(ctx, refreshToken)
	if err != nil {
		tracing.TraceErr(span, err)
		return "", err
	}

	encrypted, err := s.encrypter.EncryptString(token.AccessToken)
	if err != nil {
		tracing.TraceErr(span, err)
		return "", err
	}
	expiry := token.Expiry
	if err := s.repos.GmailAccountRepository.UpdateAccessToken(ctx, account.ID, encrypted, &expiry); err != nil {
		tracing.TraceErr(span, err)
		return "", errors.Wrap(err, "failed to store refreshed token")
	}
	account.AccessToken = encrypted
	account.ExpiryDate = &expiry

	return token.AccessToken, nil
}

func (s *mailboxService) Open(ctx context.Context, account *models.GmailAccount) (interfaces.GmailMailbox, error) {
	accessToken, err := s.EnsureAccessToken(ctx, account)
	if err != nil {
		return nil, err
	}
	return s.gmail.Mailbox(ctx, accessToken)
}
