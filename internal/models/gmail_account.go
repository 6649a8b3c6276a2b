package models

import (
	"time"

	"gorm.io/gorm"

	"github.com/hoadesk/inbox/internal/enum"
	"github.com/hoadesk/inbox/internal/utils"
)

// GmailAccount is the mailbox connected to an HOA. Tokens are stored encrypted.
type GmailAccount struct {
	ID             string          `gorm:"column:id;type:varchar(50);primaryKey" json:"id"`
	HOAID          string          `gorm:"column:hoa_id;type:varchar(50);uniqueIndex;not null" json:"hoaId"`
	EmailAddress   string          `gorm:"column:email_address;type:varchar(255)" json:"emailAddress"`
	AccessToken    string          `gorm:"column:access_token;type:text" json:"-"`
	RefreshToken   string          `gorm:"column:refresh_token;type:text" json:"-"`
	ExpiryDate     *time.Time      `gorm:"column:expiry_date;type:timestamp" json:"expiryDate"`
	LastPolledAt   *time.Time      `gorm:"column:last_polled_at;type:timestamp" json:"lastPolledAt"`
	LastPollStatus enum.PollStatus `gorm:"column:last_poll_status;type:varchar(20)" json:"lastPollStatus"`
	LastPollError  string          `gorm:"column:last_poll_error;type:text" json:"lastPollError"`
	CreatedAt      time.Time       `gorm:"column:created_at;type:timestamp" json:"createdAt"`
	UpdatedAt      time.Time       `gorm:"column:updated_at;type:timestamp" json:"updatedAt"`
}

func (GmailAccount) TableName() string {
	return "gmail_accounts"
}

func (a *GmailAccount) BeforeCreate(tx *gorm.DB) error {
	if a.ID == "" {
		a.ID = utils.GenerateNanoIDWithPrefix("gacc", 16)
	}
	return nil
}
