package models

import (
	"time"

	"gorm.io/gorm"

	"github.com/hoadesk/inbox/internal/enum"
	"github.com/hoadesk/inbox/internal/utils"
)

type AuditLog struct {
	ID        string           `gorm:"column:id;type:varchar(50);primaryKey" json:"id"`
	HOAID     string           `gorm:"column:hoa_id;type:varchar(50);index;not null" json:"hoaId"`
	RequestID *string          `gorm:"column:request_id;type:varchar(50);index" json:"requestId"`
	UserID    *string          `gorm:"column:user_id;type:varchar(50)" json:"userId"`
	Action    enum.AuditAction `gorm:"column:action;type:varchar(30);not null" json:"action"`
	Metadata  JSONMap          `gorm:"column:metadata;type:jsonb" json:"metadata"`
	CreatedAt time.Time        `gorm:"column:created_at;type:timestamp;index" json:"createdAt"`
}

func (AuditLog) TableName() string {
	return "audit_logs"
}

func (a *AuditLog) BeforeCreate(tx *gorm.DB) error {
	if a.ID == "" {
		a.ID = utils.GenerateNanoIDWithPrefix("audit", 16)
	}
	if a.CreatedAt.IsZero() {
		a.CreatedAt = utils.Now()
	}
	return nil
}

// JobLock is the advisory lock row for a named job.
type JobLock struct {
	Name        string    `gorm:"column:name;type:varchar(100);primaryKey"`
	LockedUntil time.Time `gorm:"column:locked_until;type:timestamp;not null"`
	UpdatedAt   time.Time `gorm:"column:updated_at;type:timestamp"`
}

func (JobLock) TableName() string {
	return "job_locks"
}
