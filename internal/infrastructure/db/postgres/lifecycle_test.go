package postgres

import (
	"context"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dtc-ibs/borrowing-api/internal/core/domain"
	"github.com/dtc-ibs/borrowing-api/internal/core/ports"
	"github.com/dtc-ibs/borrowing-api/internal/core/service"
)

// TestBorrowLifecycle_ServiceOverRepository drives a request from creation to
// return through the service and reads it back through every listing.
func TestBorrowLifecycle_ServiceOverRepository(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	svc := service.NewBorrowService(NewBorrowRepository(db), nil, nil, zerolog.Nop())

	userID := seedAccount(t, db, "student@example.com", domain.RoleUser)
	adminID := seedAccount(t, db, "admin@example.com", domain.RoleAdmin)
	items := seedItems(t, db, 2)
	admin := domain.Session{AccountID: adminID, Email: "admin@example.com", Role: domain.RoleAdmin}

	id, err := svc.Create(ctx, ports.CreateBorrowInput{
		AccountID:  userID,
		ItemIDs:    items,
		PickupDate: "2025-03-01",
		ReturnDate: "2025-03-04",
		Role:       domain.RoleUser,
	})
	require.NoError(t, err)

	pending, err := svc.ListByStatus(ctx, domain.StatusToBeBorrowed)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, id, pending[0].ID)
	assert.Equal(t, "student@example.com", pending[0].AccountEmail)

	require.NoError(t, svc.Approve(ctx, admin, id))
	require.NoError(t, svc.ScanToBorrow(ctx, admin, id, []ports.ChecklistInput{{ItemID: items[0]}}))
	assert.Equal(t, domain.ItemBorrowed, itemStatus(t, db, items[0]))

	require.NoError(t, svc.ScanToReturn(ctx, admin, id, []ports.ChecklistInput{
		{ItemID: items[0], Condition: string(domain.ConditionGood)},
		{ItemID: items[1], Condition: string(domain.ConditionBad), Remarks: "cracked screen"},
	}))
	assert.Equal(t, domain.ItemAvailable, itemStatus(t, db, items[0]))
	assert.Equal(t, domain.ItemBadCondition, itemStatus(t, db, items[1]))

	mine, err := svc.List(ctx, userID)
	require.NoError(t, err)
	require.Len(t, mine, 1)
	assert.Equal(t, id, mine[0].ID)
	assert.Equal(t, items, mine[0].ItemIDs)
	assert.Equal(t, domain.StatusReturned, mine[0].Status)
	assert.Equal(t, "student@example.com", mine[0].AccountEmail)

	returned, err := svc.ListByStatus(ctx, domain.StatusReturned)
	require.NoError(t, err)
	require.Len(t, returned, 1)
	assert.Equal(t, id, returned[0].ID)

	logs, err := svc.ListAll(ctx)
	require.NoError(t, err)
	require.Len(t, logs, 1)
	assert.Equal(t, "2025-03-01", logs[0].PickupDate.Format(domain.DateLayout))
	assert.Equal(t, "2025-03-04", logs[0].ReturnDate.Format(domain.DateLayout))

	err = svc.ScanToReturn(ctx, admin, id, []ports.ChecklistInput{{ItemID: items[0]}})
	assert.ErrorIs(t, err, domain.ErrStateConflict)
}
