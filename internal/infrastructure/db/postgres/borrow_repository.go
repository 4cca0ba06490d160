package postgres

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/dtc-ibs/borrowing-api/internal/core/domain"
	"github.com/dtc-ibs/borrowing-api/internal/core/ports"
)

// BorrowRepository implements ports.BorrowRepository. Every mutation runs in
// one transaction; status changes are compare-and-swap updates on the request
// row and item rows are locked before they are read.
type BorrowRepository struct {
	db *gorm.DB
}

func NewBorrowRepository(db *gorm.DB) *BorrowRepository {
	return &BorrowRepository{db: db}
}

func openStatuses() []string {
	out := make([]string, len(domain.OpenStatuses))
	for i, s := range domain.OpenStatuses {
		out[i] = string(s)
	}
	return out
}

func (r *BorrowRepository) Create(ctx context.Context, req *domain.BorrowRequest) (int64, error) {
	raw, err := domain.EncodeItemIDs(req.ItemIDs)
	if err != nil {
		return 0, err
	}
	m := borrowRequestModel{
		UserID:     req.AccountID,
		ItemIDs:    raw,
		ItemKey:    domain.ItemSetKey(req.ItemIDs),
		Status:     string(domain.StatusToBeBorrowed),
		PickupDate: req.PickupDate,
		ReturnDate: req.ReturnDate,
		CreatedAt:  req.CreatedAt,
	}

	err = r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var dup int64
		if err := tx.Model(&borrowRequestModel{}).
			Where("user_id = ? AND item_key = ? AND pickup_date = ? AND return_date = ? AND status IN ?",
				m.UserID, m.ItemKey, m.PickupDate, m.ReturnDate, openStatuses()).
			Count(&dup).Error; err != nil {
			return err
		}
		if dup > 0 {
			return domain.ErrDuplicateRequest
		}

		items, err := lockItems(tx, req.ItemIDs)
		if err != nil {
			return err
		}
		for _, it := range items {
			if domain.ItemStatus(it.Status) != domain.ItemAvailable {
				return fmt.Errorf("%w: item %d is %s", domain.ErrStateConflict, it.ID, it.Status)
			}
		}

		if err := tx.Create(&m).Error; err != nil {
			return err
		}
		return tx.Model(&itemModel{}).
			Where("id IN ?", req.ItemIDs).
			Update("item_status", string(domain.ItemToBeBorrowed)).Error
	})
	if err != nil {
		return 0, wrapTxError("create borrow request", err)
	}
	return m.ID, nil
}

func (r *BorrowRepository) Apply(ctx context.Context, t ports.Transition) (*domain.BorrowRequest, error) {
	var out *domain.BorrowRequest
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		q := tx.Model(&borrowRequestModel{}).Where("id = ? AND status = ?", t.RequestID, string(t.From))
		if t.OwnerID != 0 {
			q = q.Where("user_id = ?", t.OwnerID)
		}
		res := q.Update("status", string(t.To))
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return domain.ErrStateConflict
		}

		var m borrowRequestModel
		if err := tx.First(&m, "id = ?", t.RequestID).Error; err != nil {
			return err
		}
		req, err := m.toDomain()
		if err != nil {
			return err
		}

		if t.Items != nil {
			updates, err := t.Items(req.ItemIDs)
			if err != nil {
				return err
			}
			if _, err := lockItems(tx, req.ItemIDs); err != nil {
				return err
			}
			if err := applyItemUpdates(tx, updates); err != nil {
				return err
			}
		}
		out = req
		return nil
	})
	if err != nil {
		return nil, wrapTxError("apply transition", err)
	}
	return out, nil
}

func (r *BorrowRepository) Delete(ctx context.Context, id int64) (*domain.BorrowRequest, error) {
	var out *domain.BorrowRequest
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		req, err := lockRequest(tx, id)
		if err != nil {
			return err
		}
		if err := tx.Delete(&borrowRequestModel{}, "id = ?", id).Error; err != nil {
			return err
		}
		if req.Status.IsOpen() {
			if _, err := lockItems(tx, req.ItemIDs); err != nil {
				return err
			}
			if err := tx.Model(&itemModel{}).
				Where("id IN ?", req.ItemIDs).
				Update("item_status", string(domain.ItemAvailable)).Error; err != nil {
				return err
			}
		}
		out = req
		return nil
	})
	if err != nil {
		return nil, wrapTxError("delete borrow request", err)
	}
	return out, nil
}

// EditLog returns the request as it was before the patch.
func (r *BorrowRepository) EditLog(ctx context.Context, id int64, patch domain.LogPatch) (*domain.BorrowRequest, error) {
	fields := make(map[string]any, 4)
	if patch.Status != nil {
		fields["status"] = string(*patch.Status)
	}
	if patch.PickupDate != nil {
		fields["pickup_date"] = *patch.PickupDate
	}
	if patch.ReturnDate != nil {
		fields["return_date"] = *patch.ReturnDate
	}
	if patch.Remarks != nil {
		fields["remarks"] = *patch.Remarks
	}
	if len(fields) == 0 {
		return nil, domain.Validationf("no fields to update")
	}

	var before *domain.BorrowRequest
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		req, err := lockRequest(tx, id)
		if err != nil {
			return err
		}
		if err := tx.Model(&borrowRequestModel{}).Where("id = ?", id).Updates(fields).Error; err != nil {
			return err
		}
		before = req
		return nil
	})
	if err != nil {
		return nil, wrapTxError("edit borrow log", err)
	}
	return before, nil
}

func (r *BorrowRepository) ListByAccount(ctx context.Context, accountID int64) ([]*domain.BorrowRequest, error) {
	return r.list(r.listQuery(ctx).Where("br.user_id = ?", accountID))
}

func (r *BorrowRepository) ListByStatus(ctx context.Context, status domain.RequestStatus) ([]*domain.BorrowRequest, error) {
	q := r.listQuery(ctx)
	if status != "" {
		q = q.Where("br.status = ?", string(status))
	}
	return r.list(q)
}

func (r *BorrowRepository) listQuery(ctx context.Context) *gorm.DB {
	return r.db.WithContext(ctx).
		Table("borrow_requests AS br").
		Select("br.*, s.email AS user_email").
		Joins("JOIN students s ON s.id = br.user_id").
		Order("br.created_at DESC, br.id DESC")
}

func (r *BorrowRepository) list(q *gorm.DB) ([]*domain.BorrowRequest, error) {
	var rows []borrowRow
	if err := q.Scan(&rows).Error; err != nil {
		return nil, fmt.Errorf("list borrow requests: %w", err)
	}
	out := make([]*domain.BorrowRequest, 0, len(rows))
	for i := range rows {
		req, err := rows[i].Request.toDomain()
		if err != nil {
			return nil, fmt.Errorf("borrow request %d: %w", rows[i].Request.ID, err)
		}
		req.AccountEmail = rows[i].UserEmail
		out = append(out, req)
	}
	return out, nil
}

func lockRequest(tx *gorm.DB, id int64) (*domain.BorrowRequest, error) {
	var m borrowRequestModel
	if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&m, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrStateConflict
		}
		return nil, err
	}
	return m.toDomain()
}

// lockItems locks the rows of ids in id order and fails with a validation
// error if any of them does not exist.
func lockItems(tx *gorm.DB, ids []int64) ([]itemModel, error) {
	var items []itemModel
	if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id IN ?", ids).
		Order("id").
		Find(&items).Error; err != nil {
		return nil, err
	}
	if len(items) == len(ids) {
		return items, nil
	}
	found := make(map[int64]struct{}, len(items))
	for _, it := range items {
		found[it.ID] = struct{}{}
	}
	for _, id := range ids {
		if _, ok := found[id]; !ok {
			return nil, domain.Validationf("item %d does not exist", id)
		}
	}
	return items, nil
}

func applyItemUpdates(tx *gorm.DB, updates []domain.ItemUpdate) error {
	for _, u := range updates {
		if !u.Status.Valid() {
			return domain.Validationf("unknown item status %q", u.Status)
		}
		fields := map[string]any{"item_status": string(u.Status)}
		if u.Remarks != nil {
			fields["remarks"] = *u.Remarks
		}
		if err := tx.Model(&itemModel{}).Where("id = ?", u.ItemID).Updates(fields).Error; err != nil {
			return err
		}
	}
	return nil
}

// wrapTxError keeps domain errors as they are and annotates driver errors.
func wrapTxError(op string, err error) error {
	if domain.Kind(err) != "internal" {
		return err
	}
	return fmt.Errorf("%s: %w", op, err)
}
