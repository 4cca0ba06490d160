package ports

import (
	"context"

	"github.com/dtc-ibs/borrowing-api/internal/core/domain"
)

// Transition is a compare-and-swap status change plus the item writes that
// must commit with it.
type Transition struct {
	RequestID int64
	From      domain.RequestStatus
	To        domain.RequestStatus
	// OwnerID restricts the swap to requests owned by this account when non-zero.
	OwnerID int64
	// Items computes the item writes from the request's stored item ids. An
	// error aborts the whole transition.
	Items func(itemIDs []int64) ([]domain.ItemUpdate, error)
}

// BorrowRepository persists borrow requests. Every method that writes more
// than one row does so in a single transaction.
type BorrowRepository interface {
	// Create inserts req and holds its items. It fails with
	// domain.ErrDuplicateRequest, a validation error for unknown items, or
	// domain.ErrStateConflict when an item is not available.
	Create(ctx context.Context, req *domain.BorrowRequest) (int64, error)
	// Apply fails with domain.ErrStateConflict when no request matches
	// RequestID, From and OwnerID.
	Apply(ctx context.Context, t Transition) (*domain.BorrowRequest, error)
	// Delete removes a request and releases its items if it was still open.
	Delete(ctx context.Context, id int64) (*domain.BorrowRequest, error)
	EditLog(ctx context.Context, id int64, patch domain.LogPatch) (*domain.BorrowRequest, error)
	ListByAccount(ctx context.Context, accountID int64) ([]*domain.BorrowRequest, error)
	// ListByStatus returns newest first; an empty status lists everything.
	ListByStatus(ctx context.Context, status domain.RequestStatus) ([]*domain.BorrowRequest, error)
}
