package models

import (
	"time"

	"gorm.io/gorm"

	"github.com/hoadesk/inbox/internal/enum"
	"github.com/hoadesk/inbox/internal/utils"
)

type EmailThread struct {
	ID            string             `gorm:"column:id;type:varchar(50);primaryKey" json:"id"`
	HOAID         string             `gorm:"column:hoa_id;type:varchar(50);index;not null" json:"hoaId"`
	GmailThreadID string             `gorm:"column:gmail_thread_id;type:varchar(255);uniqueIndex;not null" json:"gmailThreadId"`
	Subject       string             `gorm:"column:subject;type:varchar(1000)" json:"subject"`
	Status        enum.ThreadStatus  `gorm:"column:status;type:varchar(30);index;not null" json:"status"`
	Category      *enum.Category     `gorm:"column:category;type:varchar(30)" json:"category"`
	Priority      *enum.Priority     `gorm:"column:priority;type:varchar(30)" json:"priority"`
	UnreadCount   int                `gorm:"column:unread_count;default:0" json:"unreadCount"`
	LastMessageAt *time.Time         `gorm:"column:last_message_at;type:timestamp" json:"lastMessageAt"`
	CreatedAt     time.Time          `gorm:"column:created_at;type:timestamp" json:"createdAt"`
	UpdatedAt     time.Time          `gorm:"column:updated_at;type:timestamp" json:"updatedAt"`
	Messages      []EmailMessage     `gorm:"foreignKey:ThreadID" json:"messages,omitempty"`
}

func (EmailThread) TableName() string {
	return "email_threads"
}

func (e *EmailThread) BeforeCreate(tx *gorm.DB) error {
	if e.ID == "" {
		e.ID = utils.GenerateNanoIDWithPrefix("thread", 16)
	}
	return nil
}
