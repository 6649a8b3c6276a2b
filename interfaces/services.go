package interfaces

import (
	"context"

	"github.com/hoadesk/inbox/dto"
	"github.com/hoadesk/inbox/internal/enum"
	"github.com/hoadesk/inbox/internal/models"
)

type AuthService interface {
	Login(ctx context.Context, email, password string) (*dto.LoginResponse, error)
	CreateUser(ctx context.Context, email, name, password string) (*models.User, error)
}

type MailboxService interface {
	ConnectURL(ctx context.Context, userID, hoaID string) (string, error)
	HandleCallback(ctx context.Context, code, state string) (*models.GmailAccount, error)
	EnsureAccessToken(ctx context.Context, account *models.GmailAccount) (string, error)
	Open(ctx context.Context, account *models.GmailAccount) (GmailMailbox, error)
}

type PipelineService interface {
	ProcessThread(ctx context.Context, threadID string) (*models.Request, error)
	RenderDraft(ctx context.Context, request *models.Request) (string, *string, error)
}

type PollerService interface {
	PollAll(ctx context.Context) (*dto.PollSummary, error)
	PollHOA(ctx context.Context, hoaID string) (*dto.PollSummary, error)
}

type ActionsService interface {
	ApproveDraft(ctx context.Context, userID, draftID string) (*models.ReplyDraft, error)
	SendDraftReply(ctx context.Context, userID, draftID string) (*models.ReplyDraft, error)
	UpdateThreadStatus(ctx context.Context, userID, threadID string, status enum.ThreadStatus) error
	GenerateDraft(ctx context.Context, userID, requestID string) (*models.ReplyDraft, error)
	RetryAIReply(ctx context.Context, userID, messageID string) (*models.AIReply, error)
}
