package pipeline

import (
	"time"

	"github.com/hoadesk/inbox/dto"
	"github.com/hoadesk/inbox/internal/enum"
)

// SLAFor returns the response window for a priority.
func SLAFor(priority enum.Priority) time.Duration {
	switch priority {
	case enum.PriorityUrgent:
		return 24 * time.Hour
	case enum.PriorityHigh:
		return 48 * time.Hour
	case enum.PriorityLow:
		return 120 * time.Hour
	default:
		return 72 * time.Hour
	}
}

// Route maps a classification to the request status and SLA deadline.
// Missing information always wins over category.
func Route(c *dto.Classification, now time.Time) dto.Routing {
	if len(c.MissingInfo) > 0 {
		return dto.Routing{Status: enum.RequestStatusNeedsInfo}
	}
	if c.Category == enum.CategorySpam {
		return dto.Routing{Status: enum.RequestStatusClosed}
	}
	due := now.Add(SLAFor(c.Priority))
	return dto.Routing{Status: enum.RequestStatusAwaitingReply, SLADueAt: &due}
}
