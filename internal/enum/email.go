package enum

type MessageDirection string

const (
	MessageIncoming MessageDirection = "INCOMING"
	MessageOutgoing MessageDirection = "OUTGOING"
)

func (t MessageDirection) String() string {
	return string(t)
}

type ThreadStatus string

const (
	ThreadStatusNew           ThreadStatus = "NEW"
	ThreadStatusNeedsInfo     ThreadStatus = "NEEDS_INFO"
	ThreadStatusAwaitingReply ThreadStatus = "AWAITING_REPLY"
	ThreadStatusInProgress    ThreadStatus = "IN_PROGRESS"
	ThreadStatusResolved      ThreadStatus = "RESOLVED"
	ThreadStatusClosed        ThreadStatus = "CLOSED"
)

func (t ThreadStatus) String() string {
	return string(t)
}

func (t ThreadStatus) IsValid() bool {
	switch t {
	case ThreadStatusNew, ThreadStatusNeedsInfo, ThreadStatusAwaitingReply,
		ThreadStatusInProgress, ThreadStatusResolved, ThreadStatusClosed:
		return true
	}
	return false
}

type PollStatus string

const (
	PollStatusOK    PollStatus = "OK"
	PollStatusError PollStatus = "ERROR"
)

func (t PollStatus) String() string {
	return string(t)
}
