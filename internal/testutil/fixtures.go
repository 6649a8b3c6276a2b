package testutil

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/hoadesk/inbox/internal/crypto"
	"github.com/hoadesk/inbox/internal/enum"
	"github.com/hoadesk/inbox/internal/models"
	"github.com/hoadesk/inbox/internal/repository"
	"github.com/hoadesk/inbox/internal/utils"
)

func CreateUser(t *testing.T, repos *repository.Repositories, email string) *models.User {
	t.Helper()
	user := &models.User{Email: email, Name: "Manager"}
	require.NoError(t, repos.UserRepository.Create(context.Background(), user))
	return user
}

func CreateHOA(t *testing.T, repos *repository.Repositories, ownerID, name string) *models.HOA {
	t.Helper()
	hoa := &models.HOA{OwnerID: ownerID, Name: name, Signature: "The " + name + " Board"}
	require.NoError(t, repos.HOARepository.Create(context.Background(), hoa))
	return hoa
}

func CreateThread(t *testing.T, repos *repository.Repositories, hoaID, gmailThreadID, subject string) *models.EmailThread {
	t.Helper()
	thread := &models.EmailThread{
		HOAID:         hoaID,
		GmailThreadID: gmailThreadID,
		Subject:       subject,
		Status:        enum.ThreadStatusNew,
		LastMessageAt: utils.NowPtr(),
	}
	require.NoError(t, repos.EmailThreadRepository.Create(context.Background(), thread))
	return thread
}

func CreateIncomingMessage(t *testing.T, repos *repository.Repositories, threadID, gmailMessageID, from, subject, body string) *models.EmailMessage {
	t.Helper()
	message := &models.EmailMessage{
		ThreadID:       threadID,
		GmailMessageID: gmailMessageID,
		Direction:      enum.MessageIncoming,
		FromAddress:    from,
		ToAddress:      "board@oakhoa.org",
		Subject:        subject,
		BodyText:       body,
		ReceivedAt:     utils.NowPtr(),
		Headers: models.JSONMap{
			models.HeaderMessageID: "<" + gmailMessageID + "@mail.gmail.com>",
		},
	}
	require.NoError(t, repos.EmailMessageRepository.Create(context.Background(), message))
	return message
}

// EncryptionKey is a fixed 32 byte base64 key for tests.
const EncryptionKey = "MDEyMzQ1Njc4OWFiY2RlZjAxMjM0NTY3ODlhYmNkZWY="

func NewEncrypter(t *testing.T) *crypto.Encrypter {
	t.Helper()
	e, err := crypto.NewEncrypter(EncryptionKey)
	require.NoError(t, err)
	return e
}

// CreateGmailAccount stores an account with encrypted tokens expiring at expiry.
func CreateGmailAccount(t *testing.T, repos *repository.Repositories, hoaID, email, accessToken, refreshToken string, expiry time.Time) *models.GmailAccount {
	t.Helper()
	e := NewEncrypter(t)
	access, err := e.EncryptString(accessToken)
	require.NoError(t, err)
	refresh, err := e.EncryptString(refreshToken)
	require.NoError(t, err)

	account := &models.GmailAccount{
		HOAID:        hoaID,
		EmailAddress: email,
		AccessToken:  access,
		RefreshToken: refresh,
		ExpiryDate:   &expiry,
	}
	require.NoError(t, repos.GmailAccountRepository.Upsert(context.Background(), account))
	return account
}
