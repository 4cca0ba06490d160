package ports

import (
	"context"
	"time"

	"github.com/dtc-ibs/borrowing-api/internal/core/domain"
)

// AccountRepository persists accounts and the signups waiting on email verification.
type AccountRepository interface {
	FindByEmail(ctx context.Context, email string) (*domain.Account, error)
	FindByID(ctx context.Context, id int64) (*domain.Account, error)
	UpdatePassword(ctx context.Context, id int64, passwordHash string) error
	// SaveAdmin creates a verified admin account, or promotes and re-keys an
	// existing one with the same email.
	SaveAdmin(ctx context.Context, email, passwordHash string) (*domain.Account, error)

	CreatePending(ctx context.Context, p *domain.PendingSignup) error
	FindPendingByEmail(ctx context.Context, email string) (*domain.PendingSignup, error)
	FindPendingByToken(ctx context.Context, token string) (*domain.PendingSignup, error)
	ReplacePendingToken(ctx context.Context, email, token string, expiresAt time.Time) error
	DeletePending(ctx context.Context, email string) error
	// ActivatePending creates the verified account for p and removes the
	// pending row in one transaction. It fails with domain.ErrInvalidToken if
	// the row was already consumed.
	ActivatePending(ctx context.Context, p *domain.PendingSignup) (*domain.Account, error)
}
