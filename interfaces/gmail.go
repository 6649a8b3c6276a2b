package interfaces

import (
	"context"

	"github.com/hoadesk/inbox/dto"
)

// GmailService covers Google OAuth and opens per-account Gmail clients.
type GmailService interface {
	AuthCodeURL(state string) string
	Exchange(ctx context.Context, code string) (*dto.OAuthToken, error)
	Refresh(ctx context.Context, refreshToken string) (*dto.OAuthToken, error)
	Mailbox(ctx context.Context, accessToken string) (GmailMailbox, error)
}

type GmailMailbox interface {
	GetProfile(ctx context.Context) (string, error)
	ListMessageIDs(ctx context.Context, query string) ([]string, error)
	GetMessage(ctx context.Context, id string) (*dto.GmailMessage, error)
	SendMessage(ctx context.Context, email *dto.OutgoingEmail) (*dto.SentMessage, error)
	CreateDraft(ctx context.Context, email *dto.OutgoingEmail) (string, error)
}
