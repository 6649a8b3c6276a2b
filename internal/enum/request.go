package enum

type RequestStatus string

const (
	RequestStatusNew           RequestStatus = "NEW"
	RequestStatusNeedsInfo     RequestStatus = "NEEDS_INFO"
	RequestStatusAwaitingReply RequestStatus = "AWAITING_REPLY"
	RequestStatusInProgress    RequestStatus = "IN_PROGRESS"
	RequestStatusResolved      RequestStatus = "RESOLVED"
	RequestStatusClosed        RequestStatus = "CLOSED"
)

func (t RequestStatus) String() string {
	return string(t)
}

func (t RequestStatus) IsValid() bool {
	switch t {
	case RequestStatusNew, RequestStatusNeedsInfo, RequestStatusAwaitingReply,
		RequestStatusInProgress, RequestStatusResolved, RequestStatusClosed:
		return true
	}
	return false
}

// IsTerminal reports whether the request no longer moves through the workflow.
func (t RequestStatus) IsTerminal() bool {
	return t == RequestStatusResolved || t == RequestStatusClosed
}

// ThreadStatusFor mirrors a request status onto its email thread.
func ThreadStatusFor(status RequestStatus) ThreadStatus {
	switch status {
	case RequestStatusNeedsInfo:
		return ThreadStatusNeedsInfo
	case RequestStatusAwaitingReply:
		return ThreadStatusAwaitingReply
	case RequestStatusInProgress:
		return ThreadStatusInProgress
	case RequestStatusResolved:
		return ThreadStatusResolved
	case RequestStatusClosed:
		return ThreadStatusClosed
	default:
		return ThreadStatusNew
	}
}

// RequestStatusFor is the inverse of ThreadStatusFor.
func RequestStatusFor(status ThreadStatus) RequestStatus {
	switch status {
	case ThreadStatusNeedsInfo:
		return RequestStatusNeedsInfo
	case ThreadStatusAwaitingReply:
		return RequestStatusAwaitingReply
	case ThreadStatusInProgress:
		return RequestStatusInProgress
	case ThreadStatusResolved:
		return RequestStatusResolved
	case ThreadStatusClosed:
		return RequestStatusClosed
	default:
		return RequestStatusNew
	}
}

type Category string

const (
	CategoryLegal       Category = "LEGAL"
	CategoryBoard       Category = "BOARD"
	CategoryViolation   Category = "VIOLATION"
	CategoryMaintenance Category = "MAINTENANCE"
	CategoryBilling     Category = "BILLING"
	CategorySpam        Category = "SPAM"
	CategoryGeneral     Category = "GENERAL"
)

func (t Category) String() string {
	return string(t)
}

func (t Category) IsValid() bool {
	switch t {
	case CategoryLegal, CategoryBoard, CategoryViolation, CategoryMaintenance,
		CategoryBilling, CategorySpam, CategoryGeneral:
		return true
	}
	return false
}

// RequiresApproval reports whether replies in this category must be approved before sending.
func (t Category) RequiresApproval() bool {
	return t == CategoryLegal || t == CategoryBoard
}

type Priority string

const (
	PriorityUrgent Priority = "URGENT"
	PriorityHigh   Priority = "HIGH"
	PriorityNormal Priority = "NORMAL"
	PriorityLow    Priority = "LOW"
)

func (t Priority) String() string {
	return string(t)
}

func (t Priority) IsValid() bool {
	switch t {
	case PriorityUrgent, PriorityHigh, PriorityNormal, PriorityLow:
		return true
	}
	return false
}

type AuditAction string

const (
	AuditRequestCreated AuditAction = "REQUEST_CREATED"
	AuditClassified     AuditAction = "CLASSIFIED"
	AuditDraftCreated   AuditAction = "DRAFT_CREATED"
	AuditApproved       AuditAction = "APPROVED"
	AuditSent           AuditAction = "SENT"
	AuditStatusChanged  AuditAction = "STATUS_CHANGED"
)

func (t AuditAction) String() string {
	return string(t)
}
