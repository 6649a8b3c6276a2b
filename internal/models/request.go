package models

import (
	"time"

	"gorm.io/gorm"

	"github.com/hoadesk/inbox/internal/enum"
	"github.com/hoadesk/inbox/internal/utils"
)

// Request is the tracked resident issue derived from a thread.
type Request struct {
	ID           string             `gorm:"column:id;type:varchar(50);primaryKey" json:"id"`
	HOAID        string             `gorm:"column:hoa_id;type:varchar(50);index;not null" json:"hoaId"`
	ThreadID     string             `gorm:"column:thread_id;type:varchar(50);uniqueIndex;not null" json:"threadId"`
	ResidentID   *string            `gorm:"column:resident_id;type:varchar(50)" json:"residentId"`
	Category     enum.Category      `gorm:"column:category;type:varchar(30);index" json:"category"`
	Priority     enum.Priority      `gorm:"column:priority;type:varchar(30)" json:"priority"`
	Status       enum.RequestStatus `gorm:"column:status;type:varchar(30);index;not null" json:"status"`
	SLADueAt     *time.Time         `gorm:"column:sla_due_at;type:timestamp" json:"slaDueAt"`
	MissingInfo  StringList         `gorm:"column:missing_info;type:text" json:"missingInfo"`
	HasLegalRisk bool               `gorm:"column:has_legal_risk;default:false" json:"hasLegalRisk"`
	Summary      string             `gorm:"column:summary;type:text" json:"summary"`
	CreatedAt    time.Time          `gorm:"column:created_at;type:timestamp" json:"createdAt"`
	UpdatedAt    time.Time          `gorm:"column:updated_at;type:timestamp" json:"updatedAt"`
	Drafts       []ReplyDraft       `gorm:"foreignKey:RequestID" json:"drafts,omitempty"`
}

func (Request) TableName() string {
	return "requests"
}

func (r *Request) BeforeCreate(tx *gorm.DB) error {
	if r.ID == "" {
		r.ID = utils.GenerateNanoIDWithPrefix("req", 16)
	}
	return nil
}

// RequiresApproval reports whether a draft must be approved before it can be sent.
func (r *Request) RequiresApproval() bool {
	return r.Category.RequiresApproval() || r.HasLegalRisk
}

// ReplyDraft is one version of the reply for a request.
type ReplyDraft struct {
	ID             string     `gorm:"column:id;type:varchar(50);primaryKey" json:"id"`
	RequestID      string     `gorm:"column:request_id;type:varchar(50);index;not null" json:"requestId"`
	Version        int        `gorm:"column:version;not null" json:"version"`
	Content        string     `gorm:"column:content;type:text" json:"content"`
	TemplateID     *string    `gorm:"column:template_id;type:varchar(50)" json:"templateId"`
	ApprovedAt     *time.Time `gorm:"column:approved_at;type:timestamp" json:"approvedAt"`
	ApprovedByID   *string    `gorm:"column:approved_by_id;type:varchar(50)" json:"approvedById"`
	SentAt         *time.Time `gorm:"column:sent_at;type:timestamp" json:"sentAt"`
	SentByID       *string    `gorm:"column:sent_by_id;type:varchar(50)" json:"sentById"`
	GmailMessageID *string    `gorm:"column:gmail_message_id;type:varchar(255)" json:"gmailMessageId"`
	CreatedAt      time.Time  `gorm:"column:created_at;type:timestamp" json:"createdAt"`
	UpdatedAt      time.Time  `gorm:"column:updated_at;type:timestamp" json:"updatedAt"`
}

func (ReplyDraft) TableName() string {
	return "reply_drafts"
}

func (d *ReplyDraft) BeforeCreate(tx *gorm.DB) error {
	if d.ID == "" {
		d.ID = utils.GenerateNanoIDWithPrefix("draft", 16)
	}
	return nil
}

type PolicyTemplate struct {
	ID        string         `gorm:"column:id;type:varchar(50);primaryKey" json:"id"`
	HOAID     string         `gorm:"column:hoa_id;type:varchar(50);index;not null" json:"hoaId"`
	Name      string         `gorm:"column:name;type:varchar(255)" json:"name"`
	Category  enum.Category  `gorm:"column:category;type:varchar(30);index" json:"category"`
	Priority  *enum.Priority `gorm:"column:priority;type:varchar(30)" json:"priority"`
	Body      string         `gorm:"column:body;type:text" json:"body"`
	IsDefault bool           `gorm:"column:is_default;default:false" json:"isDefault"`
	CreatedAt time.Time      `gorm:"column:created_at;type:timestamp" json:"createdAt"`
	UpdatedAt time.Time      `gorm:"column:updated_at;type:timestamp" json:"updatedAt"`
}

func (PolicyTemplate) TableName() string {
	return "policy_templates"
}

func (p *PolicyTemplate) BeforeCreate(tx *gorm.DB) error {
	if p.ID == "" {
		p.ID = utils.GenerateNanoIDWithPrefix("tpl", 16)
	}
	return nil
}
