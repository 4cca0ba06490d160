package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/dtc-ibs/borrowing-api/internal/core/domain"
	"github.com/dtc-ibs/borrowing-api/internal/core/ports"
)

// stubBorrowRepo keeps requests and item flags in memory and applies every
// write under one lock, the same all-or-nothing contract as the SQL repository.
type stubBorrowRepo struct {
	mu       sync.Mutex
	nextID   int64
	requests map[int64]*domain.BorrowRequest
	items    map[int64]*domain.Item
}

func newStubBorrowRepo(itemIDs ...int64) *stubBorrowRepo {
	r := &stubBorrowRepo{
		requests: make(map[int64]*domain.BorrowRequest),
		items:    make(map[int64]*domain.Item),
	}
	for _, id := range itemIDs {
		r.items[id] = &domain.Item{ID: id, Status: domain.ItemAvailable}
	}
	return r
}

func cloneRequest(r *domain.BorrowRequest) *domain.BorrowRequest {
	clone := *r
	clone.ItemIDs = append([]int64(nil), r.ItemIDs...)
	return &clone
}

func (r *stubBorrowRepo) itemStatus(id int64) domain.ItemStatus {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.items[id].Status
}

func (r *stubBorrowRepo) requestStatus(id int64) domain.RequestStatus {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.requests[id].Status
}

func (r *stubBorrowRepo) Create(_ context.Context, req *domain.BorrowRequest) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.requests {
		if existing.AccountID == req.AccountID && existing.Status.IsOpen() &&
			domain.ItemSetKey(existing.ItemIDs) == domain.ItemSetKey(req.ItemIDs) &&
			existing.PickupDate.Equal(req.PickupDate) && existing.ReturnDate.Equal(req.ReturnDate) {
			return 0, domain.ErrDuplicateRequest
		}
	}
	for _, id := range req.ItemIDs {
		it, ok := r.items[id]
		if !ok {
			return 0, domain.Validationf("item %d does not exist", id)
		}
		if it.Status != domain.ItemAvailable {
			return 0, domain.ErrStateConflict
		}
	}
	r.nextID++
	stored := cloneRequest(req)
	stored.ID = r.nextID
	r.requests[stored.ID] = stored
	for _, id := range req.ItemIDs {
		r.items[id].Status = domain.ItemToBeBorrowed
	}
	return stored.ID, nil
}

func (r *stubBorrowRepo) Apply(_ context.Context, t ports.Transition) (*domain.BorrowRequest, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	req, ok := r.requests[t.RequestID]
	if !ok || req.Status != t.From || (t.OwnerID != 0 && req.AccountID != t.OwnerID) {
		return nil, domain.ErrStateConflict
	}
	var updates []domain.ItemUpdate
	if t.Items != nil {
		var err error
		if updates, err = t.Items(req.ItemIDs); err != nil {
			return nil, err
		}
	}
	req.Status = t.To
	for _, u := range updates {
		r.items[u.ItemID].Status = u.Status
		if u.Remarks != nil {
			r.items[u.ItemID].Remarks = *u.Remarks
		}
	}
	return cloneRequest(req), nil
}

func (r *stubBorrowRepo) Delete(_ context.Context, id int64) (*domain.BorrowRequest, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	req, ok := r.requests[id]
	if !ok {
		return nil, domain.ErrStateConflict
	}
	delete(r.requests, id)
	if req.Status.IsOpen() {
		for _, itemID := range req.ItemIDs {
			r.items[itemID].Status = domain.ItemAvailable
		}
	}
	return req, nil
}

func (r *stubBorrowRepo) EditLog(_ context.Context, id int64, patch domain.LogPatch) (*domain.BorrowRequest, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	req, ok := r.requests[id]
	if !ok {
		return nil, domain.ErrStateConflict
	}
	before := cloneRequest(req)
	if patch.Status != nil {
		req.Status = *patch.Status
	}
	if patch.Remarks != nil {
		req.Remarks = *patch.Remarks
	}
	return before, nil
}

func (r *stubBorrowRepo) ListByAccount(_ context.Context, accountID int64) ([]*domain.BorrowRequest, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*domain.BorrowRequest
	for _, req := range r.requests {
		if req.AccountID == accountID {
			out = append(out, cloneRequest(req))
		}
	}
	return out, nil
}

func (r *stubBorrowRepo) ListByStatus(_ context.Context, status domain.RequestStatus) ([]*domain.BorrowRequest, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*domain.BorrowRequest
	for _, req := range r.requests {
		if status == "" || req.Status == status {
			out = append(out, cloneRequest(req))
		}
	}
	return out, nil
}

type stubAudit struct {
	mu      sync.Mutex
	entries []domain.AuditEntry
	err     error
}

func (a *stubAudit) Record(_ context.Context, e domain.AuditEntry) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.err != nil {
		return a.err
	}
	a.entries = append(a.entries, e)
	return nil
}

type stubGuard struct {
	held map[string]bool
	err  error
}

func (g *stubGuard) Acquire(_ context.Context, key string, _ time.Duration) (bool, error) {
	if g.err != nil {
		return false, g.err
	}
	if g.held[key] {
		return false, nil
	}
	g.held[key] = true
	return true, nil
}

func (g *stubGuard) Release(_ context.Context, key string) error {
	delete(g.held, key)
	return nil
}

var (
	student  = domain.Session{AccountID: 10, Email: "s@example.com", Role: domain.RoleUser}
	stranger = domain.Session{AccountID: 11, Email: "x@example.com", Role: domain.RoleUser}
	admin    = domain.Session{AccountID: 1, Email: "admin@example.com", Role: domain.RoleAdmin}
)

func createRequest(t *testing.T, svc *BorrowService, itemIDs ...int64) int64 {
	t.Helper()
	id, err := svc.Create(context.Background(), ports.CreateBorrowInput{
		AccountID:  student.AccountID,
		ItemIDs:    itemIDs,
		PickupDate: "2025-01-10",
		ReturnDate: "2025-01-12",
	})
	if err != nil {
		t.Fatalf("Create returned error: %v", err)
	}
	return id
}

func TestBorrowService_FullLifecycle(t *testing.T) {
	repo := newStubBorrowRepo(3, 7)
	audit := &stubAudit{}
	svc := NewBorrowService(repo, audit, nil, zerolog.Nop())
	ctx := context.Background()

	id := createRequest(t, svc, 3, 7)
	if repo.requestStatus(id) != domain.StatusToBeBorrowed {
		t.Fatalf("unexpected initial status %q", repo.requestStatus(id))
	}
	if repo.itemStatus(3) != domain.ItemToBeBorrowed || repo.itemStatus(7) != domain.ItemToBeBorrowed {
		t.Fatalf("items should be held after create")
	}

	if err := svc.Approve(ctx, admin, id); err != nil {
		t.Fatalf("Approve: %v", err)
	}
	if repo.itemStatus(3) != domain.ItemToBeBorrowed {
		t.Fatalf("approve must not touch items")
	}

	err := svc.ScanToBorrow(ctx, admin, id, []ports.ChecklistInput{
		{ItemID: 3, Remarks: "ok"},
		{ItemID: 7, Remarks: "scratch on lid"},
	})
	if err != nil {
		t.Fatalf("ScanToBorrow: %v", err)
	}
	if repo.itemStatus(3) != domain.ItemBorrowed || repo.itemStatus(7) != domain.ItemBorrowed {
		t.Fatalf("items should be Borrowed")
	}
	if repo.items[7].Remarks != "scratch on lid" {
		t.Fatalf("remarks not written: %q", repo.items[7].Remarks)
	}

	err = svc.ScanToReturn(ctx, admin, id, []ports.ChecklistInput{
		{ItemID: 3, Condition: "Good"},
		{ItemID: 7, Condition: "Bad", Remarks: "cracked"},
	})
	if err != nil {
		t.Fatalf("ScanToReturn: %v", err)
	}
	if repo.requestStatus(id) != domain.StatusReturned {
		t.Fatalf("expected returned, got %q", repo.requestStatus(id))
	}
	if repo.itemStatus(3) != domain.ItemAvailable || repo.itemStatus(7) != domain.ItemBadCondition {
		t.Fatalf("unexpected item statuses %q / %q", repo.itemStatus(3), repo.itemStatus(7))
	}

	if len(audit.entries) != 4 {
		t.Fatalf("expected 4 audit entries, got %d", len(audit.entries))
	}
	last := audit.entries[3]
	if last.From != domain.StatusBorrowed || last.To != domain.StatusReturned || last.ActorID != admin.AccountID {
		t.Fatalf("unexpected audit entry %+v", last)
	}
}

func TestBorrowService_ReplayedTransitionsConflict(t *testing.T) {
	repo := newStubBorrowRepo(1)
	svc := NewBorrowService(repo, nil, nil, zerolog.Nop())
	ctx := context.Background()
	id := createRequest(t, svc, 1)

	if err := svc.Approve(ctx, admin, id); err != nil {
		t.Fatalf("Approve: %v", err)
	}
	if err := svc.Approve(ctx, admin, id); !errors.Is(err, domain.ErrStateConflict) {
		t.Fatalf("expected ErrStateConflict on replay, got %v", err)
	}
	if err := svc.Decline(ctx, admin, id); !errors.Is(err, domain.ErrStateConflict) {
		t.Fatalf("approved request cannot be declined, got %v", err)
	}
	if err := svc.ScanToReturn(ctx, admin, id, []ports.ChecklistInput{{ItemID: 1}}); !errors.Is(err, domain.ErrStateConflict) {
		t.Fatalf("approved request cannot be returned, got %v", err)
	}
	if err := svc.Approve(ctx, admin, 999); !errors.Is(err, domain.ErrStateConflict) {
		t.Fatalf("unknown request should conflict, got %v", err)
	}
}

func TestBorrowService_ConcurrentApproveSucceedsOnce(t *testing.T) {
	repo := newStubBorrowRepo(1)
	svc := NewBorrowService(repo, nil, nil, zerolog.Nop())
	id := createRequest(t, svc, 1)

	const admins = 16
	var wg sync.WaitGroup
	var mu sync.Mutex
	ok, conflicts := 0, 0
	for range admins {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := svc.Approve(context.Background(), admin, id)
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				ok++
			case errors.Is(err, domain.ErrStateConflict):
				conflicts++
			}
		}()
	}
	wg.Wait()

	if ok != 1 || conflicts != admins-1 {
		t.Fatalf("expected 1 success and %d conflicts, got %d / %d", admins-1, ok, conflicts)
	}
}

func TestBorrowService_DeclineReleasesItems(t *testing.T) {
	repo := newStubBorrowRepo(1, 2)
	svc := NewBorrowService(repo, nil, nil, zerolog.Nop())
	id := createRequest(t, svc, 1, 2)

	if err := svc.Decline(context.Background(), admin, id); err != nil {
		t.Fatalf("Decline: %v", err)
	}
	if repo.requestStatus(id) != domain.StatusDeclined {
		t.Fatalf("expected declined")
	}
	if repo.itemStatus(1) != domain.ItemAvailable || repo.itemStatus(2) != domain.ItemAvailable {
		t.Fatalf("items must be released")
	}
}

func TestBorrowService_Create_Validation(t *testing.T) {
	repo := newStubBorrowRepo(1)
	svc := NewBorrowService(repo, nil, nil, zerolog.Nop())
	ctx := context.Background()

	cases := []ports.CreateBorrowInput{
		{AccountID: 10, ItemIDs: nil, PickupDate: "2025-01-10", ReturnDate: "2025-01-12"},
		{AccountID: 10, ItemIDs: []int64{1, 1}, PickupDate: "2025-01-10", ReturnDate: "2025-01-12"},
		{AccountID: 10, ItemIDs: []int64{1}, PickupDate: "", ReturnDate: "2025-01-12"},
		{AccountID: 10, ItemIDs: []int64{1}, PickupDate: "2025-01-10", ReturnDate: "soon"},
		{AccountID: 10, ItemIDs: []int64{1}, PickupDate: "2025-01-12", ReturnDate: "2025-01-10"},
		{AccountID: 10, ItemIDs: []int64{404}, PickupDate: "2025-01-10", ReturnDate: "2025-01-12"},
	}
	for i, in := range cases {
		if _, err := svc.Create(ctx, in); !errors.Is(err, domain.ErrValidation) {
			t.Fatalf("case %d: expected validation error, got %v", i, err)
		}
	}
	if len(repo.requests) != 0 {
		t.Fatalf("no request should have been stored")
	}
	if repo.itemStatus(1) != domain.ItemAvailable {
		t.Fatalf("item must stay available")
	}
}

func TestBorrowService_Create_DuplicateRejected(t *testing.T) {
	repo := newStubBorrowRepo(1, 2)
	svc := NewBorrowService(repo, nil, nil, zerolog.Nop())
	createRequest(t, svc, 1, 2)

	_, err := svc.Create(context.Background(), ports.CreateBorrowInput{
		AccountID:  student.AccountID,
		ItemIDs:    []int64{2, 1},
		PickupDate: "2025-01-10",
		ReturnDate: "2025-01-12",
	})
	if !errors.Is(err, domain.ErrDuplicateRequest) {
		t.Fatalf("expected ErrDuplicateRequest, got %v", err)
	}
}

func TestBorrowService_Create_HeldItemConflicts(t *testing.T) {
	repo := newStubBorrowRepo(1)
	svc := NewBorrowService(repo, nil, nil, zerolog.Nop())
	createRequest(t, svc, 1)

	_, err := svc.Create(context.Background(), ports.CreateBorrowInput{
		AccountID:  stranger.AccountID,
		ItemIDs:    []int64{1},
		PickupDate: "2025-02-01",
		ReturnDate: "2025-02-02",
	})
	if !errors.Is(err, domain.ErrStateConflict) {
		t.Fatalf("expected ErrStateConflict, got %v", err)
	}
}

func TestBorrowService_Create_SubmissionGuard(t *testing.T) {
	repo := newStubBorrowRepo(1)
	guard := &stubGuard{held: map[string]bool{}}
	svc := NewBorrowService(repo, nil, guard, zerolog.Nop())
	in := ports.CreateBorrowInput{AccountID: 10, ItemIDs: []int64{1}, PickupDate: "2025-01-10", ReturnDate: "2025-01-12"}

	guard.held["borrow:submit:10:1:2025-01-10:2025-01-12"] = true
	if _, err := svc.Create(context.Background(), in); !errors.Is(err, domain.ErrDuplicateRequest) {
		t.Fatalf("expected ErrDuplicateRequest while lock is held, got %v", err)
	}

	delete(guard.held, "borrow:submit:10:1:2025-01-10:2025-01-12")
	if _, err := svc.Create(context.Background(), in); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if len(guard.held) != 0 {
		t.Fatalf("lock should be released after create")
	}
}

func TestBorrowService_Create_GuardFailureFallsBackToDatabase(t *testing.T) {
	repo := newStubBorrowRepo(1)
	svc := NewBorrowService(repo, nil, &stubGuard{err: errors.New("redis down")}, zerolog.Nop())

	if _, err := svc.Create(context.Background(), ports.CreateBorrowInput{
		AccountID: 10, ItemIDs: []int64{1}, PickupDate: "2025-01-10", ReturnDate: "2025-01-12",
	}); err != nil {
		t.Fatalf("Create should proceed without the lock, got %v", err)
	}
}

func TestBorrowService_Cancel(t *testing.T) {
	ctx := context.Background()

	t.Run("owner cancels waiting request", func(t *testing.T) {
		repo := newStubBorrowRepo(1)
		svc := NewBorrowService(repo, nil, nil, zerolog.Nop())
		id := createRequest(t, svc, 1)

		if err := svc.Cancel(ctx, student, id); err != nil {
			t.Fatalf("Cancel: %v", err)
		}
		if repo.requestStatus(id) != domain.StatusCancelled || repo.itemStatus(1) != domain.ItemAvailable {
			t.Fatalf("expected cancelled request with released item")
		}
	})

	t.Run("other user is rejected", func(t *testing.T) {
		repo := newStubBorrowRepo(1)
		svc := NewBorrowService(repo, nil, nil, zerolog.Nop())
		id := createRequest(t, svc, 1)

		if err := svc.Cancel(ctx, stranger, id); !errors.Is(err, domain.ErrStateConflict) {
			t.Fatalf("expected ErrStateConflict, got %v", err)
		}
		if repo.requestStatus(id) != domain.StatusToBeBorrowed {
			t.Fatalf("request must be untouched")
		}
	})

	t.Run("owner cannot cancel approved request", func(t *testing.T) {
		repo := newStubBorrowRepo(1)
		svc := NewBorrowService(repo, nil, nil, zerolog.Nop())
		id := createRequest(t, svc, 1)
		if err := svc.Approve(ctx, admin, id); err != nil {
			t.Fatalf("Approve: %v", err)
		}

		if err := svc.Cancel(ctx, student, id); !errors.Is(err, domain.ErrStateConflict) {
			t.Fatalf("expected ErrStateConflict, got %v", err)
		}
	})

	t.Run("admin hard deletes and releases items", func(t *testing.T) {
		repo := newStubBorrowRepo(1)
		audit := &stubAudit{}
		svc := NewBorrowService(repo, audit, nil, zerolog.Nop())
		id := createRequest(t, svc, 1)
		if err := svc.Approve(ctx, admin, id); err != nil {
			t.Fatalf("Approve: %v", err)
		}

		if err := svc.Cancel(ctx, admin, id); err != nil {
			t.Fatalf("Cancel: %v", err)
		}
		if _, ok := repo.requests[id]; ok {
			t.Fatalf("request should be deleted")
		}
		if repo.itemStatus(1) != domain.ItemAvailable {
			t.Fatalf("item must be released")
		}
		if got := audit.entries[len(audit.entries)-1]; got.Note != "deleted by admin" || got.From != domain.StatusApproved {
			t.Fatalf("unexpected audit entry %+v", got)
		}
		if err := svc.Cancel(ctx, admin, id); !errors.Is(err, domain.ErrStateConflict) {
			t.Fatalf("second delete should conflict, got %v", err)
		}
	})
}

func TestBorrowService_ScanRejectsForeignItemAtomically(t *testing.T) {
	repo := newStubBorrowRepo(1, 2, 9)
	svc := NewBorrowService(repo, nil, nil, zerolog.Nop())
	ctx := context.Background()
	id := createRequest(t, svc, 1, 2)
	if err := svc.Approve(ctx, admin, id); err != nil {
		t.Fatalf("Approve: %v", err)
	}

	err := svc.ScanToBorrow(ctx, admin, id, []ports.ChecklistInput{{ItemID: 1}, {ItemID: 9}})
	if !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if repo.requestStatus(id) != domain.StatusApproved {
		t.Fatalf("status must not change, got %q", repo.requestStatus(id))
	}
	if repo.itemStatus(1) != domain.ItemToBeBorrowed || repo.itemStatus(9) != domain.ItemAvailable {
		t.Fatalf("items must not change")
	}
}

func TestBorrowService_ScanChecklistValidation(t *testing.T) {
	repo := newStubBorrowRepo(1)
	svc := NewBorrowService(repo, nil, nil, zerolog.Nop())
	ctx := context.Background()
	id := createRequest(t, svc, 1)
	if err := svc.Approve(ctx, admin, id); err != nil {
		t.Fatalf("Approve: %v", err)
	}

	if err := svc.ScanToBorrow(ctx, admin, id, nil); !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("expected validation error for missing checklist, got %v", err)
	}
	if err := svc.ScanToBorrow(ctx, admin, id, []ports.ChecklistInput{{ItemID: 1}, {ItemID: 1}}); !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("expected validation error for repeated item, got %v", err)
	}
	if err := svc.ScanToBorrow(ctx, admin, id, []ports.ChecklistInput{{ItemID: 1}}); err != nil {
		t.Fatalf("ScanToBorrow: %v", err)
	}
	if err := svc.ScanToReturn(ctx, admin, id, []ports.ChecklistInput{{ItemID: 1, Condition: "Broken"}}); !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("expected validation error for unknown condition, got %v", err)
	}
	if repo.requestStatus(id) != domain.StatusBorrowed {
		t.Fatalf("failed return must leave request borrowed")
	}
}

func TestBorrowService_ScanToReturn_UnlistedItemsBecomeAvailable(t *testing.T) {
	repo := newStubBorrowRepo(1, 2)
	svc := NewBorrowService(repo, nil, nil, zerolog.Nop())
	ctx := context.Background()
	id := createRequest(t, svc, 1, 2)
	_ = svc.Approve(ctx, admin, id)
	_ = svc.ScanToBorrow(ctx, admin, id, []ports.ChecklistInput{{ItemID: 1}, {ItemID: 2}})

	if err := svc.ScanToReturn(ctx, admin, id, []ports.ChecklistInput{{ItemID: 2, Condition: "Bad"}}); err != nil {
		t.Fatalf("ScanToReturn: %v", err)
	}
	if repo.itemStatus(1) != domain.ItemAvailable || repo.itemStatus(2) != domain.ItemBadCondition {
		t.Fatalf("unexpected item statuses %q / %q", repo.itemStatus(1), repo.itemStatus(2))
	}
}

func TestBorrowService_EditLog(t *testing.T) {
	repo := newStubBorrowRepo(1)
	audit := &stubAudit{}
	svc := NewBorrowService(repo, audit, nil, zerolog.Nop())
	ctx := context.Background()
	id := createRequest(t, svc, 1)

	if err := svc.EditLog(ctx, admin, id, ports.LogPatchInput{}); !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("expected validation error for empty patch, got %v", err)
	}
	bogus := "pending"
	if err := svc.EditLog(ctx, admin, id, ports.LogPatchInput{Status: &bogus}); !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("expected validation error for unknown status, got %v", err)
	}

	returned := "returned"
	remarks := "fixed by hand"
	if err := svc.EditLog(ctx, admin, id, ports.LogPatchInput{Status: &returned, Remarks: &remarks}); err != nil {
		t.Fatalf("EditLog: %v", err)
	}
	if repo.requestStatus(id) != domain.StatusReturned || repo.requests[id].Remarks != remarks {
		t.Fatalf("patch not applied: %+v", repo.requests[id])
	}
	if last := audit.entries[len(audit.entries)-1]; last.From != domain.StatusToBeBorrowed || last.To != domain.StatusReturned {
		t.Fatalf("unexpected audit entry %+v", last)
	}

	if err := svc.EditLog(ctx, admin, 999, ports.LogPatchInput{Remarks: &remarks}); !errors.Is(err, domain.ErrStateConflict) {
		t.Fatalf("expected ErrStateConflict, got %v", err)
	}
}

func TestBorrowService_AuditFailureIsNonFatal(t *testing.T) {
	repo := newStubBorrowRepo(1)
	svc := NewBorrowService(repo, &stubAudit{err: errors.New("mongo down")}, nil, zerolog.Nop())
	id := createRequest(t, svc, 1)

	if err := svc.Approve(context.Background(), admin, id); err != nil {
		t.Fatalf("Approve should succeed despite audit failure, got %v", err)
	}
}

func TestBorrowService_Lists(t *testing.T) {
	repo := newStubBorrowRepo(1, 2)
	svc := NewBorrowService(repo, nil, nil, zerolog.Nop())
	ctx := context.Background()
	a := createRequest(t, svc, 1)
	createRequest(t, svc, 2)
	_ = svc.Approve(ctx, admin, a)

	mine, err := svc.List(ctx, student.AccountID)
	if err != nil || len(mine) != 2 {
		t.Fatalf("List: %v %d", err, len(mine))
	}
	approved, err := svc.ListByStatus(ctx, domain.StatusApproved)
	if err != nil || len(approved) != 1 || approved[0].ID != a {
		t.Fatalf("ListByStatus: %v %+v", err, approved)
	}
	if _, err := svc.ListByStatus(ctx, "pending"); !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
	all, err := svc.ListAll(ctx)
	if err != nil || len(all) != 2 {
		t.Fatalf("ListAll: %v %d", err, len(all))
	}
}

func TestBorrowService_CreateAuditsCallerRole(t *testing.T) {
	cases := []struct {
		name string
		role domain.Role
		want domain.Role
	}{
		{"admin caller", domain.RoleAdmin, domain.RoleAdmin},
		{"user caller", domain.RoleUser, domain.RoleUser},
		{"role omitted", "", domain.RoleUser},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			audit := &stubAudit{}
			svc := NewBorrowService(newStubBorrowRepo(3), audit, nil, zerolog.Nop())
			_, err := svc.Create(context.Background(), ports.CreateBorrowInput{
				AccountID:  admin.AccountID,
				ItemIDs:    []int64{3},
				PickupDate: "2025-01-10",
				ReturnDate: "2025-01-12",
				Role:       tc.role,
			})
			if err != nil {
				t.Fatalf("Create: %v", err)
			}
			if len(audit.entries) != 1 || audit.entries[0].ActorRole != tc.want {
				t.Fatalf("expected actor role %q, got %+v", tc.want, audit.entries)
			}
		})
	}
}
