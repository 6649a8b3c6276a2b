package models

import (
	"time"

	"gorm.io/gorm"

	"github.com/hoadesk/inbox/internal/utils"
)

// HOA is the tenant unit. Every mailbox, request and template belongs to one.
type HOA struct {
	ID           string    `gorm:"column:id;type:varchar(50);primaryKey" json:"id"`
	OwnerID      string    `gorm:"column:owner_id;type:varchar(50);index;not null" json:"ownerId"`
	Name         string    `gorm:"column:name;type:varchar(255);not null" json:"name"`
	ContactEmail string    `gorm:"column:contact_email;type:varchar(255)" json:"contactEmail"`
	Timezone     string    `gorm:"column:timezone;type:varchar(64)" json:"timezone"`
	Signature    string    `gorm:"column:signature;type:text" json:"signature"`
	CreatedAt    time.Time `gorm:"column:created_at;type:timestamp" json:"createdAt"`
	UpdatedAt    time.Time `gorm:"column:updated_at;type:timestamp" json:"updatedAt"`
}

func (HOA) TableName() string {
	return "hoas"
}

func (h *HOA) BeforeCreate(tx *gorm.DB) error {
	if h.ID == "" {
		h.ID = utils.GenerateNanoIDWithPrefix("hoa", 16)
	}
	return nil
}

type Resident struct {
	ID        string    `gorm:"column:id;type:varchar(50);primaryKey" json:"id"`
	HOAID     string    `gorm:"column:hoa_id;type:varchar(50);index;not null" json:"hoaId"`
	Name      string    `gorm:"column:name;type:varchar(255)" json:"name"`
	Email     string    `gorm:"column:email;type:varchar(255);index" json:"email"`
	Unit      string    `gorm:"column:unit;type:varchar(50)" json:"unit"`
	CreatedAt time.Time `gorm:"column:created_at;type:timestamp" json:"createdAt"`
	UpdatedAt time.Time `gorm:"column:updated_at;type:timestamp" json:"updatedAt"`
}

func (Resident) TableName() string {
	return "residents"
}

func (r *Resident) BeforeCreate(tx *gorm.DB) error {
	if r.ID == "" {
		r.ID = utils.GenerateNanoIDWithPrefix("res", 16)
	}
	return nil
}
