package models

import (
	"time"

	"gorm.io/gorm"

	"github.com/hoadesk/inbox/internal/utils"
)

type User struct {
	ID           string    `gorm:"column:id;type:varchar(50);primaryKey" json:"id"`
	Email        string    `gorm:"column:email;type:varchar(255);uniqueIndex;not null" json:"email"`
	Name         string    `gorm:"column:name;type:varchar(255)" json:"name"`
	PasswordHash string    `gorm:"column:password_hash;type:varchar(255)" json:"-"`
	CreatedAt    time.Time `gorm:"column:created_at;type:timestamp" json:"createdAt"`
	UpdatedAt    time.Time `gorm:"column:updated_at;type:timestamp" json:"updatedAt"`
}

func (User) TableName() string {
	return "users"
}

func (u *User) BeforeCreate(tx *gorm.DB) error {
	if u.ID == "" {
		u.ID = utils.GenerateNanoIDWithPrefix("user", 16)
	}
	return nil
}
