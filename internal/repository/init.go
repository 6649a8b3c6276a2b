package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/hoadesk/inbox/interfaces"
	"github.com/hoadesk/inbox/internal/models"
)

type Repositories struct {
	db *gorm.DB

	UserRepository           interfaces.UserRepository
	HOARepository            interfaces.HOARepository
	ResidentRepository       interfaces.ResidentRepository
	GmailAccountRepository   interfaces.GmailAccountRepository
	EmailThreadRepository    interfaces.EmailThreadRepository
	EmailMessageRepository   interfaces.EmailMessageRepository
	AIReplyRepository        interfaces.AIReplyRepository
	RequestRepository        interfaces.RequestRepository
	ReplyDraftRepository     interfaces.ReplyDraftRepository
	PolicyTemplateRepository interfaces.PolicyTemplateRepository
	AuditLogRepository       interfaces.AuditLogRepository
}

func InitRepositories(db *gorm.DB) *Repositories {
	return &Repositories{
		db: db,

		UserRepository:           NewUserRepository(db),
		HOARepository:            NewHOARepository(db),
		ResidentRepository:       NewResidentRepository(db),
		GmailAccountRepository:   NewGmailAccountRepository(db),
		EmailThreadRepository:    NewEmailThreadRepository(db),
		EmailMessageRepository:   NewEmailMessageRepository(db),
		AIReplyRepository:        NewAIReplyRepository(db),
		RequestRepository:        NewRequestRepository(db),
		ReplyDraftRepository:     NewReplyDraftRepository(db),
		PolicyTemplateRepository: NewPolicyTemplateRepository(db),
		AuditLogRepository:       NewAuditLogRepository(db),
	}
}

// DB exposes the underlying handle for components that manage their own queries.
func (r *Repositories) DB() *gorm.DB {
	return r.db
}

// WithTransaction runs fn with repositories bound to a single transaction.
// Returning an error rolls everything back.
func (r *Repositories) WithTransaction(ctx context.Context, fn func(txRepos *Repositories) error) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(InitRepositories(tx))
	})
}

func MigrateDB(db *gorm.DB) error {
	return db.AutoMigrate(
		&models.User{},
		&models.HOA{},
		&models.Resident{},
		&models.GmailAccount{},
		&models.EmailThread{},
		&models.EmailMessage{},
		&models.AIReply{},
		&models.Request{},
		&models.ReplyDraft{},
		&models.PolicyTemplate{},
		&models.AuditLog{},
		&models.JobLock{},
	)
}
