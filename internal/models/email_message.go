package models

import (
	"time"

	"gorm.io/gorm"

	"github.com/hoadesk/inbox/internal/enum"
	"github.com/hoadesk/inbox/internal/utils"
)

// Header keys stored in EmailMessage.Headers for reply threading.
const (
	HeaderMessageID  = "messageId"
	HeaderReferences = "references"
	HeaderInReplyTo  = "inReplyTo"
)

// EmailMessage is a single Gmail message mirrored into the database. Rows are
// append-only within a thread.
type EmailMessage struct {
	ID             string                `gorm:"column:id;type:varchar(50);primaryKey" json:"id"`
	ThreadID       string                `gorm:"column:thread_id;type:varchar(50);index;not null" json:"threadId"`
	GmailMessageID string                `gorm:"column:gmail_message_id;type:varchar(255);uniqueIndex;not null" json:"gmailMessageId"`
	Direction      enum.MessageDirection `gorm:"column:direction;type:varchar(20);not null" json:"direction"`
	FromAddress    string                `gorm:"column:from_address;type:varchar(500)" json:"from"`
	ToAddress      string                `gorm:"column:to_address;type:varchar(1000)" json:"to"`
	Subject        string                `gorm:"column:subject;type:varchar(1000)" json:"subject"`
	BodyText       string                `gorm:"column:body_text;type:text" json:"bodyText"`
	BodyHTML       string                `gorm:"column:body_html;type:text" json:"bodyHtml"`
	Snippet        string                `gorm:"column:snippet;type:text" json:"snippet"`
	ReceivedAt     *time.Time            `gorm:"column:received_at;type:timestamp;index" json:"receivedAt"`
	Headers        JSONMap               `gorm:"column:headers;type:jsonb" json:"headers"`
	CreatedAt      time.Time             `gorm:"column:created_at;type:timestamp" json:"createdAt"`
	AIReply        *AIReply              `gorm:"foreignKey:MessageID" json:"aiReply,omitempty"`
}

func (EmailMessage) TableName() string {
	return "email_messages"
}

func (m *EmailMessage) BeforeCreate(tx *gorm.DB) error {
	if m.ID == "" {
		m.ID = utils.GenerateNanoIDWithPrefix("msg", 16)
	}
	if m.CreatedAt.IsZero() {
		m.CreatedAt = utils.Now()
	}
	return nil
}

// AIReply is the webhook outcome for one incoming message. Error is set when the
// webhook call failed; the row is written either way.
type AIReply struct {
	ID             string     `gorm:"column:id;type:varchar(50);primaryKey" json:"id"`
	MessageID      string     `gorm:"column:message_id;type:varchar(50);uniqueIndex;not null" json:"messageId"`
	DraftText      string     `gorm:"column:draft_text;type:text" json:"draftText"`
	Classification string     `gorm:"column:classification;type:varchar(100)" json:"classification"`
	Priority       string     `gorm:"column:priority;type:varchar(50)" json:"priority"`
	Sent           bool       `gorm:"column:sent;default:false" json:"sent"`
	SentAt         *time.Time `gorm:"column:sent_at;type:timestamp" json:"sentAt"`
	GmailDraftID   *string    `gorm:"column:gmail_draft_id;type:varchar(100)" json:"gmailDraftId"`
	Error          *string    `gorm:"column:error;type:text" json:"error"`
	CreatedAt      time.Time  `gorm:"column:created_at;type:timestamp" json:"createdAt"`
	UpdatedAt      time.Time  `gorm:"column:updated_at;type:timestamp" json:"updatedAt"`
}

func (AIReply) TableName() string {
	return "ai_replies"
}

func (r *AIReply) BeforeCreate(tx *gorm.DB) error {
	if r.ID == "" {
		r.ID = utils.GenerateNanoIDWithPrefix("air", 16)
	}
	return nil
}
