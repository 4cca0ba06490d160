package ports

import (
	"context"

	"github.com/dtc-ibs/borrowing-api/internal/core/domain"
)

// LoginMeta describes where a login came from; it only feeds the notification email.
type LoginMeta struct {
	IP        string
	UserAgent string
}

type AuthService interface {
	Signup(ctx context.Context, email, password string) error
	Verify(ctx context.Context, token string) (*domain.Account, error)
	Login(ctx context.Context, email, password string, meta LoginMeta) (string, *domain.Account, error)
	ChangePassword(ctx context.Context, accountID int64, currentPassword, newPassword string) error
	ResendVerification(ctx context.Context, email string) error
}

// SessionAuthorizer validates session tokens and enforces roles.
type SessionAuthorizer interface {
	Authorize(token string, required domain.Role) (*domain.Session, error)
}
