package domain

import "time"

// AuditEntry records one successful lifecycle mutation of a borrow request.
type AuditEntry struct {
	EventID    string
	RequestID  int64
	From       RequestStatus
	To         RequestStatus
	ActorID    int64
	ActorRole  Role
	ItemIDs    []int64
	Note       string
	RecordedAt time.Time
}
