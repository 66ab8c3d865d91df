package accesslog

import "time"

// Entry is one raw badge scan as received from a reader.
type Entry struct {
	ID           string
	BadgeUID     string
	ReceivedAt   time.Time
	Registered   bool
	EmployeeType *string
	EmployeeID   *string
	SessionID    *string
	EventType    *string
	Outcome      string
}

const (
	OutcomeRecorded = "recorded"
	OutcomeUnknown  = "unknown_badge"
	OutcomeRejected = "rejected"
	OutcomeFailed   = "failed"
)
