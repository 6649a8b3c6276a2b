package interfaces

import (
	"context"
	"time"

	"github.com/hoadesk/inbox/internal/enum"
	"github.com/hoadesk/inbox/internal/models"
)

// Get* lookups return (nil, nil) when the row does not exist.

type UserRepository interface {
	Create(ctx context.Context, user *models.User) error
	GetByID(ctx context.Context, id string) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
}

type HOARepository interface {
	Create(ctx context.Context, hoa *models.HOA) error
	GetByID(ctx context.Context, id string) (*models.HOA, error)
	GetForOwner(ctx context.Context, ownerID, id string) (*models.HOA, error)
	ListByOwner(ctx context.Context, ownerID string) ([]*models.HOA, error)
}

type ResidentRepository interface {
	Create(ctx context.Context, resident *models.Resident) error
	GetByID(ctx context.Context, id string) (*models.Resident, error)
	GetByEmail(ctx context.Context, hoaID, email string) (*models.Resident, error)
	ListByHOA(ctx context.Context, hoaID string) ([]*models.Resident, error)
}

type GmailAccountRepository interface {
	GetByHOA(ctx context.Context, hoaID string) (*models.GmailAccount, error)
	ListConnected(ctx context.Context) ([]*models.GmailAccount, error)
	Upsert(ctx context.Context, account *models.GmailAccount) error
	UpdateAccessToken(ctx context.Context, id, accessToken string, expiry *time.Time) error
	UpdatePollStatus(ctx context.Context, id string, status enum.PollStatus, pollErr string, polledAt time.Time) error
}

type EmailThreadRepository interface {
	Create(ctx context.Context, thread *models.EmailThread) error
	GetByID(ctx context.Context, id string) (*models.EmailThread, error)
	GetByGmailThreadID(ctx context.Context, gmailThreadID string) (*models.EmailThread, error)
	Save(ctx context.Context, thread *models.EmailThread) error
	UpdateStatus(ctx context.Context, id string, status enum.ThreadStatus) error
	ListByHOA(ctx context.Context, hoaID string, limit, offset int) ([]*models.EmailThread, error)
}

type EmailMessageRepository interface {
	Create(ctx context.Context, message *models.EmailMessage) error
	GetByID(ctx context.Context, id string) (*models.EmailMessage, error)
	ExistsByGmailMessageID(ctx context.Context, gmailMessageID string) (bool, error)
	GetLatestIncoming(ctx context.Context, threadID string) (*models.EmailMessage, error)
	ListByThread(ctx context.Context, threadID string) ([]*models.EmailMessage, error)
}

type AIReplyRepository interface {
	Upsert(ctx context.Context, reply *models.AIReply) error
	GetByMessageID(ctx context.Context, messageID string) (*models.AIReply, error)
}

type RequestRepository interface {
	Create(ctx context.Context, request *models.Request) error
	GetByID(ctx context.Context, id string) (*models.Request, error)
	GetByThreadID(ctx context.Context, threadID string) (*models.Request, error)
	Save(ctx context.Context, request *models.Request) error
	ListByHOA(ctx context.Context, hoaID string, status *enum.RequestStatus, limit, offset int) ([]*models.Request, int64, error)
}

type ReplyDraftRepository interface {
	Create(ctx context.Context, draft *models.ReplyDraft) error
	GetByID(ctx context.Context, id string) (*models.ReplyDraft, error)
	Save(ctx context.Context, draft *models.ReplyDraft) error
	GetLatestVersion(ctx context.Context, requestID string) (int, error)
	ListByRequest(ctx context.Context, requestID string) ([]*models.ReplyDraft, error)
}

type PolicyTemplateRepository interface {
	Create(ctx context.Context, template *models.PolicyTemplate) error
	ListByHOA(ctx context.Context, hoaID string) ([]*models.PolicyTemplate, error)
	// FindBest returns the default-first, most recently updated template for the
	// category. A nil priority matches templates of any priority.
	FindBest(ctx context.Context, hoaID string, category enum.Category, priority *enum.Priority) (*models.PolicyTemplate, error)
}

type AuditLogRepository interface {
	Create(ctx context.Context, entry *models.AuditLog) error
	ListByRequest(ctx context.Context, requestID string) ([]*models.AuditLog, error)
}

type JobLock interface {
	Acquire(ctx context.Context, jobName string, ttl time.Duration) (bool, error)
	Release(ctx context.Context, jobName string)
}
