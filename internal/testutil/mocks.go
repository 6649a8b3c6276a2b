package testutil

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/hoadesk/inbox/dto"
	"github.com/hoadesk/inbox/interfaces"
)

type MockGmailService struct {
	mock.Mock
}

func (m *MockGmailService) AuthCodeURL(state string) string {
	return m.Called(state).String(0)
}

func (m *MockGmailService) Exchange(ctx context.Context, code string) (*dto.OAuthToken, error) {
	args := m.Called(ctx, code)
	token, _ := args.Get(0).(*dto.OAuthToken)
	return token, args.Error(1)
}

func (m *MockGmailService) Refresh(ctx context.Context, refreshToken string) (*dto.OAuthToken, error) {
	args := m.Called(ctx, refreshToken)
	token, _ := args.Get(0).(*dto.OAuthToken)
	return token, args.Error(1)
}

func (m *MockGmailService) Mailbox(ctx context.Context, accessToken string) (interfaces.GmailMailbox, error) {
	args := m.Called(ctx, accessToken)
	mailbox, _ := args.Get(0).(interfaces.GmailMailbox)
	return mailbox, args.Error(1)
}

type MockGmailMailbox struct {
	mock.Mock
}

func (m *MockGmailMailbox) GetProfile(ctx context.Context) (string, error) {
	args := m.Called(ctx)
	return args.String(0), args.Error(1)
}

func (m *MockGmailMailbox) ListMessageIDs(ctx context.Context, query string) ([]string, error) {
	args := m.Called(ctx, query)
	ids, _ := args.Get(0).([]string)
	return ids, args.Error(1)
}

func (m *MockGmailMailbox) GetMessage(ctx context.Context, id string) (*dto.GmailMessage, error) {
	args := m.Called(ctx, id)
	message, _ := args.Get(0).(*dto.GmailMessage)
	return message, args.Error(1)
}

func (m *MockGmailMailbox) SendMessage(ctx context.Context, email *dto.OutgoingEmail) (*dto.SentMessage, error) {
	args := m.Called(ctx, email)
	sent, _ := args.Get(0).(*dto.SentMessage)
	return sent, args.Error(1)
}

func (m *MockGmailMailbox) CreateDraft(ctx context.Context, email *dto.OutgoingEmail) (string, error) {
	args := m.Called(ctx, email)
	return args.String(0), args.Error(1)
}

type MockWebhookClient struct {
	mock.Mock
}

func (m *MockWebhookClient) DraftReply(ctx context.Context, request *dto.WebhookRequest) (*dto.WebhookResponse, error) {
	args := m.Called(ctx, request)
	resp, _ := args.Get(0).(*dto.WebhookResponse)
	return resp, args.Error(1)
}

type MockAIService struct {
	mock.Mock
}

func (m *MockAIService) SmokeTest(ctx context.Context) (string, error) {
	args := m.Called(ctx)
	return args.String(0), args.Error(1)
}

func (m *MockAIService) DraftReply(ctx context.Context, request *dto.DraftReplyRequest) (string, error) {
	args := m.Called(ctx, request)
	return args.String(0), args.Error(1)
}

func (m *MockAIService) Classify(ctx context.Context, subject, body string) (*dto.Classification, error) {
	args := m.Called(ctx, subject, body)
	c, _ := args.Get(0).(*dto.Classification)
	return c, args.Error(1)
}
