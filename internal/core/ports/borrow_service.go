package ports

import (
	"context"

	"github.com/dtc-ibs/borrowing-api/internal/core/domain"
)

// CreateBorrowInput is the DTO passed from the transport layer to BorrowService.
type CreateBorrowInput struct {
	AccountID  int64
	ItemIDs    []int64
	PickupDate string
	ReturnDate string

	// Role is the caller's session role; empty means user.
	Role domain.Role
}

// ChecklistInput is one scanned line as submitted by an admin.
type ChecklistInput struct {
	ItemID    int64
	Condition string
	Remarks   string
}

// LogPatchInput carries the raw fields of an admin log edit.
type LogPatchInput struct {
	Status     *string
	PickupDate *string
	ReturnDate *string
	Remarks    *string
}

type BorrowService interface {
	Create(ctx context.Context, in CreateBorrowInput) (int64, error)
	Approve(ctx context.Context, actor domain.Session, requestID int64) error
	Decline(ctx context.Context, actor domain.Session, requestID int64) error
	Cancel(ctx context.Context, actor domain.Session, requestID int64) error
	ScanToBorrow(ctx context.Context, actor domain.Session, requestID int64, checklist []ChecklistInput) error
	ScanToReturn(ctx context.Context, actor domain.Session, requestID int64, checklist []ChecklistInput) error
	EditLog(ctx context.Context, actor domain.Session, requestID int64, patch LogPatchInput) error
	List(ctx context.Context, accountID int64) ([]*domain.BorrowRequest, error)
	ListByStatus(ctx context.Context, status domain.RequestStatus) ([]*domain.BorrowRequest, error)
	ListAll(ctx context.Context) ([]*domain.BorrowRequest, error)
}
