package dto

import (
	"github.com/hoadesk/inbox/internal/enum"
	"github.com/hoadesk/inbox/internal/models"
)

type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

type LoginResponse struct {
	Token     string `json:"token"`
	ExpiresAt int64  `json:"expiresAt"`
	UserID    string `json:"userId"`
}

type CreateHOARequest struct {
	Name         string `json:"name" binding:"required,max=255"`
	ContactEmail string `json:"contactEmail" binding:"omitempty,email"`
	Timezone     string `json:"timezone" binding:"omitempty,max=64"`
	Signature    string `json:"signature"`
}

type CreatePolicyTemplateRequest struct {
	Name      string         `json:"name" binding:"required,max=255"`
	Category  enum.Category  `json:"category" binding:"required"`
	Priority  *enum.Priority `json:"priority"`
	Body      string         `json:"body" binding:"required"`
	IsDefault bool           `json:"isDefault"`
}

type CreateResidentRequest struct {
	Name  string `json:"name" binding:"required,max=255"`
	Email string `json:"email" binding:"required,email"`
	Unit  string `json:"unit" binding:"omitempty,max=50"`
}

type GmailConnectResponse struct {
	URL string `json:"url"`
}

type ThreadStatusForm struct {
	Status string `form:"status" binding:"required"`
}

type ListRequestsQuery struct {
	Status string `form:"status"`
	Limit  int    `form:"limit" binding:"omitempty,min=1,max=200"`
	Offset int    `form:"offset" binding:"omitempty,min=0"`
}

type Page[T any] struct {
	Items  []T   `json:"items"`
	Total  int64 `json:"total"`
	Limit  int   `json:"limit"`
	Offset int   `json:"offset"`
}

type HOADetail struct {
	*models.HOA
	GmailAccount *models.GmailAccount `json:"gmailAccount"`
}

// RequestDetail is a request with its thread history, drafts and audit trail.
type RequestDetail struct {
	Request   *models.Request            `json:"request"`
	Thread    *models.EmailThread        `json:"thread"`
	Messages  []*models.EmailMessage     `json:"messages"`
	AIReplies map[string]*models.AIReply `json:"aiReplies"`
	Drafts    []*models.ReplyDraft       `json:"drafts"`
	AuditLog  []*models.AuditLog         `json:"auditLog"`
}

type SmokeTestResponse struct {
	Reply string `json:"reply"`
}
