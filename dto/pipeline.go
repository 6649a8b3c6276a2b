package dto

import (
	"time"

	"github.com/hoadesk/inbox/internal/enum"
)

type Classification struct {
	Category     enum.Category `json:"category"`
	Priority     enum.Priority `json:"priority"`
	MissingInfo  []string      `json:"missingInfo"`
	HasLegalRisk bool          `json:"hasLegalRisk"`
	Summary      string        `json:"summary,omitempty"`
}

type Routing struct {
	Status   enum.RequestStatus
	SLADueAt *time.Time
}

// PollSummary reports the outcome of one poll run.
type PollSummary struct {
	Skipped         bool              `json:"skipped"`
	AccountsPolled  int               `json:"accountsPolled"`
	MessagesFetched int               `json:"messagesFetched"`
	MessagesSkipped int               `json:"messagesSkipped"`
	MessagesFailed  int               `json:"messagesFailed"`
	RepliesSent     int               `json:"repliesSent"`
	AccountErrors   map[string]string `json:"accountErrors,omitempty"`
	DurationMillis  int64             `json:"durationMs"`
}

func NewPollSummary() *PollSummary {
	return &PollSummary{AccountErrors: map[string]string{}}
}

func (s *PollSummary) Add(other *PollSummary) {
	if other == nil {
		return
	}
	s.AccountsPolled += other.AccountsPolled
	s.MessagesFetched += other.MessagesFetched
	s.MessagesSkipped += other.MessagesSkipped
	s.MessagesFailed += other.MessagesFailed
	s.RepliesSent += other.RepliesSent
	for k, v := range other.AccountErrors {
		s.AccountErrors[k] = v
	}
}

// DraftReplyRequest is the context handed to an LLM when drafting a reply.
type DraftReplyRequest struct {
	HOAName      string
	ResidentName string
	Subject      string
	Body         string
	Category     enum.Category
	Priority     enum.Priority
	MissingInfo  []string
	Signature    string
}
