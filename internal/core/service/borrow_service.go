package service

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/dtc-ibs/borrowing-api/internal/core/domain"
	"github.com/dtc-ibs/borrowing-api/internal/core/ports"
)

const submitLockTTL = 10 * time.Second

// BorrowService runs the borrow request lifecycle. Status changes are
// compare-and-swap writes; the item flags they imply commit in the same
// transaction.
type BorrowService struct {
	repo  ports.BorrowRepository
	audit ports.AuditRecorder
	guard ports.SubmissionGuard
	log   zerolog.Logger
	now   func() time.Time
}

// NewBorrowService wires the lifecycle service. audit and guard are optional.
func NewBorrowService(repo ports.BorrowRepository, audit ports.AuditRecorder, guard ports.SubmissionGuard, log zerolog.Logger) *BorrowService {
	return &BorrowService{repo: repo, audit: audit, guard: guard, log: log, now: time.Now}
}

// Create validates and stores a new request, holding its items.
func (s *BorrowService) Create(ctx context.Context, in ports.CreateBorrowInput) (int64, error) {
	if in.AccountID <= 0 {
		return 0, domain.ErrUnauthenticated
	}
	if err := domain.ValidateItemIDs(in.ItemIDs); err != nil {
		return 0, err
	}
	pickup, err := domain.ParseDate("pickup_date", in.PickupDate)
	if err != nil {
		return 0, err
	}
	ret, err := domain.ParseDate("return_date", in.ReturnDate)
	if err != nil {
		return 0, err
	}
	if ret.Before(pickup) {
		return 0, domain.Validationf("return_date must not be before pickup_date")
	}

	req := &domain.BorrowRequest{
		AccountID:  in.AccountID,
		ItemIDs:    in.ItemIDs,
		Status:     domain.StatusToBeBorrowed,
		PickupDate: pickup,
		ReturnDate: ret,
		CreatedAt:  s.now().UTC(),
	}

	if s.guard != nil {
		key := fmt.Sprintf("borrow:submit:%d:%s:%s:%s", req.AccountID, domain.ItemSetKey(req.ItemIDs),
			pickup.Format(domain.DateLayout), ret.Format(domain.DateLayout))
		acquired, err := s.guard.Acquire(ctx, key, submitLockTTL)
		switch {
		case err != nil:
			s.log.Warn().Err(err).Int64("account_id", req.AccountID).Msg("submission lock unavailable, relying on database check")
		case !acquired:
			return 0, domain.ErrDuplicateRequest
		default:
			defer func() {
				if err := s.guard.Release(context.WithoutCancel(ctx), key); err != nil {
					s.log.Warn().Err(err).Msg("failed to release submission lock")
				}
			}()
		}
	}

	id, err := s.repo.Create(ctx, req)
	if err != nil {
		return 0, err
	}

	actorRole := in.Role
	if actorRole == "" {
		actorRole = domain.RoleUser
	}
	s.record(ctx, domain.AuditEntry{
		RequestID: id,
		To:        domain.StatusToBeBorrowed,
		ActorID:   req.AccountID,
		ActorRole: actorRole,
		ItemIDs:   req.ItemIDs,
		Note:      "request created",
	})
	s.log.Info().Int64("request_id", id).Int64("account_id", req.AccountID).Int("items", len(req.ItemIDs)).Msg("borrow request created")
	return id, nil
}

// Approve moves a waiting request to approved. Items stay held.
func (s *BorrowService) Approve(ctx context.Context, actor domain.Session, requestID int64) error {
	return s.transition(ctx, actor, ports.Transition{
		RequestID: requestID,
		From:      domain.StatusToBeBorrowed,
		To:        domain.StatusApproved,
	}, "approved")
}

// Decline rejects a waiting request and releases its items.
func (s *BorrowService) Decline(ctx context.Context, actor domain.Session, requestID int64) error {
	return s.transition(ctx, actor, ports.Transition{
		RequestID: requestID,
		From:      domain.StatusToBeBorrowed,
		To:        domain.StatusDeclined,
		Items:     releaseItems,
	}, "declined")
}

// Cancel lets the owner withdraw a waiting request. Admins hard-delete the
// request instead, whatever its state.
func (s *BorrowService) Cancel(ctx context.Context, actor domain.Session, requestID int64) error {
	if actor.IsAdmin() {
		req, err := s.repo.Delete(ctx, requestID)
		if err != nil {
			return err
		}
		s.record(ctx, domain.AuditEntry{
			RequestID: requestID,
			From:      req.Status,
			To:        domain.StatusCancelled,
			ActorID:   actor.AccountID,
			ActorRole: actor.Role,
			ItemIDs:   req.ItemIDs,
			Note:      "deleted by admin",
		})
		s.log.Info().Int64("request_id", requestID).Int64("admin_id", actor.AccountID).Str("from", string(req.Status)).Msg("borrow request deleted")
		return nil
	}

	return s.transition(ctx, actor, ports.Transition{
		RequestID: requestID,
		From:      domain.StatusToBeBorrowed,
		To:        domain.StatusCancelled,
		OwnerID:   actor.AccountID,
		Items:     releaseItems,
	}, "cancelled by owner")
}

// ScanToBorrow hands the items of an approved request to the borrower.
func (s *BorrowService) ScanToBorrow(ctx context.Context, actor domain.Session, requestID int64, checklist []ports.ChecklistInput) error {
	entries, err := parseChecklist(checklist)
	if err != nil {
		return err
	}

	return s.transition(ctx, actor, ports.Transition{
		RequestID: requestID,
		From:      domain.StatusApproved,
		To:        domain.StatusBorrowed,
		Items: func(itemIDs []int64) ([]domain.ItemUpdate, error) {
			return checklistUpdates(requestID, itemIDs, entries, func(domain.ChecklistEntry) domain.ItemStatus {
				return domain.ItemBorrowed
			}, domain.ItemBorrowed)
		},
	}, "scanned out")
}

// ScanToReturn closes a borrowed request, recording each item's condition.
func (s *BorrowService) ScanToReturn(ctx context.Context, actor domain.Session, requestID int64, checklist []ports.ChecklistInput) error {
	entries, err := parseChecklist(checklist)
	if err != nil {
		return err
	}

	return s.transition(ctx, actor, ports.Transition{
		RequestID: requestID,
		From:      domain.StatusBorrowed,
		To:        domain.StatusReturned,
		Items: func(itemIDs []int64) ([]domain.ItemUpdate, error) {
			return checklistUpdates(requestID, itemIDs, entries, func(e domain.ChecklistEntry) domain.ItemStatus {
				return e.Condition.ReturnStatus()
			}, domain.ItemAvailable)
		},
	}, "scanned in")
}

// EditLog overwrites fields of a stored request without lifecycle checks.
func (s *BorrowService) EditLog(ctx context.Context, actor domain.Session, requestID int64, in ports.LogPatchInput) error {
	var patch domain.LogPatch
	if in.Status != nil {
		st, err := domain.ParseRequestStatus(*in.Status)
		if err != nil {
			return err
		}
		patch.Status = &st
	}
	if in.PickupDate != nil {
		d, err := domain.ParseDate("pickup_date", *in.PickupDate)
		if err != nil {
			return err
		}
		patch.PickupDate = &d
	}
	if in.ReturnDate != nil {
		d, err := domain.ParseDate("return_date", *in.ReturnDate)
		if err != nil {
			return err
		}
		patch.ReturnDate = &d
	}
	patch.Remarks = in.Remarks
	if patch.Empty() {
		return domain.Validationf("no fields to update")
	}

	before, err := s.repo.EditLog(ctx, requestID, patch)
	if err != nil {
		return err
	}

	to := before.Status
	if patch.Status != nil {
		to = *patch.Status
	}
	s.record(ctx, domain.AuditEntry{
		RequestID: requestID,
		From:      before.Status,
		To:        to,
		ActorID:   actor.AccountID,
		ActorRole: actor.Role,
		ItemIDs:   before.ItemIDs,
		Note:      "log edited",
	})
	s.log.Warn().Int64("request_id", requestID).Int64("admin_id", actor.AccountID).Str("from", string(before.Status)).Str("to", string(to)).Msg("borrow log edited")
	return nil
}

func (s *BorrowService) List(ctx context.Context, accountID int64) ([]*domain.BorrowRequest, error) {
	return s.repo.ListByAccount(ctx, accountID)
}

func (s *BorrowService) ListByStatus(ctx context.Context, status domain.RequestStatus) ([]*domain.BorrowRequest, error) {
	if _, err := domain.ParseRequestStatus(string(status)); err != nil {
		return nil, err
	}
	return s.repo.ListByStatus(ctx, status)
}

func (s *BorrowService) ListAll(ctx context.Context) ([]*domain.BorrowRequest, error) {
	return s.repo.ListByStatus(ctx, "")
}

func (s *BorrowService) transition(ctx context.Context, actor domain.Session, t ports.Transition, note string) error {
	if !t.From.CanTransitionTo(t.To) {
		return fmt.Errorf("%w: %s -> %s", domain.ErrStateConflict, t.From, t.To)
	}

	req, err := s.repo.Apply(ctx, t)
	if err != nil {
		return err
	}

	s.record(ctx, domain.AuditEntry{
		RequestID: t.RequestID,
		From:      t.From,
		To:        t.To,
		ActorID:   actor.AccountID,
		ActorRole: actor.Role,
		ItemIDs:   req.ItemIDs,
		Note:      note,
	})
	s.log.Info().
		Int64("request_id", t.RequestID).
		Int64("actor_id", actor.AccountID).
		Str("from", string(t.From)).
		Str("to", string(t.To)).
		Msg("borrow request transitioned")
	return nil
}

// record writes to the audit trail; failures never fail the operation.
func (s *BorrowService) record(ctx context.Context, entry domain.AuditEntry) {
	if s.audit == nil {
		return
	}
	entry.RecordedAt = s.now().UTC()
	if err := s.audit.Record(ctx, entry); err != nil {
		s.log.Warn().Err(err).Int64("request_id", entry.RequestID).Msg("failed to record audit entry")
	}
}

func releaseItems(itemIDs []int64) ([]domain.ItemUpdate, error) {
	updates := make([]domain.ItemUpdate, len(itemIDs))
	for i, id := range itemIDs {
		updates[i] = domain.ItemUpdate{ItemID: id, Status: domain.ItemAvailable}
	}
	return updates, nil
}

func parseChecklist(in []ports.ChecklistInput) ([]domain.ChecklistEntry, error) {
	if len(in) == 0 {
		return nil, domain.Validationf("checklist is required")
	}
	entries := make([]domain.ChecklistEntry, 0, len(in))
	seen := make(map[int64]struct{}, len(in))
	for _, c := range in {
		if _, dup := seen[c.ItemID]; dup {
			return nil, domain.Validationf("item %d appears more than once in the checklist", c.ItemID)
		}
		seen[c.ItemID] = struct{}{}
		cond, err := domain.ParseItemCondition(c.Condition)
		if err != nil {
			return nil, err
		}
		entries = append(entries, domain.ChecklistEntry{ItemID: c.ItemID, Condition: cond, Remarks: c.Remarks})
	}
	return entries, nil
}

// checklistUpdates maps every item of the request to its new status. Listed
// items take statusOf(entry) and the entry's remarks; unlisted items take
// fallback. A checklist line for an item outside the request is rejected.
func checklistUpdates(
	requestID int64,
	itemIDs []int64,
	entries []domain.ChecklistEntry,
	statusOf func(domain.ChecklistEntry) domain.ItemStatus,
	fallback domain.ItemStatus,
) ([]domain.ItemUpdate, error) {
	byItem := make(map[int64]domain.ChecklistEntry, len(entries))
	for _, e := range entries {
		byItem[e.ItemID] = e
	}
	inRequest := make(map[int64]struct{}, len(itemIDs))
	for _, id := range itemIDs {
		inRequest[id] = struct{}{}
	}
	for _, e := range entries {
		if _, ok := inRequest[e.ItemID]; !ok {
			return nil, domain.Validationf("item %d is not part of request %d", e.ItemID, requestID)
		}
	}

	updates := make([]domain.ItemUpdate, 0, len(itemIDs))
	for _, id := range itemIDs {
		e, listed := byItem[id]
		if !listed {
			updates = append(updates, domain.ItemUpdate{ItemID: id, Status: fallback})
			continue
		}
		remarks := e.Remarks
		updates = append(updates, domain.ItemUpdate{ItemID: id, Status: statusOf(e), Remarks: &remarks})
	}
	return updates, nil
}
