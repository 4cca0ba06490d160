package ports

import (
	"context"
	"time"

	"github.com/dtc-ibs/borrowing-api/internal/core/domain"
)

// Message is a rendered email.
type Message struct {
	To      string
	Subject string
	HTML    string
}

// Mailer delivers a message synchronously.
type Mailer interface {
	Send(ctx context.Context, msg Message) error
}

// Notifier queues a message for best-effort background delivery.
type Notifier interface {
	Notify(msg Message)
}

// AuditRecorder stores lifecycle audit entries. Callers treat failures as non-fatal.
type AuditRecorder interface {
	Record(ctx context.Context, entry domain.AuditEntry) error
}

// SubmissionGuard is a short-lived lock against double submissions.
type SubmissionGuard interface {
	// Acquire returns false when key is already held.
	Acquire(ctx context.Context, key string, ttl time.Duration) (bool, error)
	Release(ctx context.Context, key string) error
}

// AuditHistory reads back the audit trail of one request, oldest first.
type AuditHistory interface {
	History(ctx context.Context, requestID int64) ([]domain.AuditEntry, error)
}
