package postgres

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/dtc-ibs/borrowing-api/internal/core/domain"
)

type ItemRepository struct {
	db *gorm.DB
}

func NewItemRepository(db *gorm.DB) *ItemRepository {
	return &ItemRepository{db: db}
}

func (r *ItemRepository) List(ctx context.Context) ([]*domain.Item, error) {
	var rows []itemModel
	if err := r.db.WithContext(ctx).Order("id").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("list items: %w", err)
	}
	return itemsToDomain(rows), nil
}

func (r *ItemRepository) FindByIDs(ctx context.Context, ids []int64) ([]*domain.Item, error) {
	var rows []itemModel
	if err := r.db.WithContext(ctx).Where("id IN ?", ids).Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("find items: %w", err)
	}
	return itemsToDomain(rows), nil
}

func (r *ItemRepository) Create(ctx context.Context, it *domain.Item) error {
	m := itemFromDomain(it)
	if err := r.db.WithContext(ctx).Create(m).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return fmt.Errorf("%w: property number %s already exists", domain.ErrConflict, it.PropertyNo)
		}
		return fmt.Errorf("create item: %w", err)
	}
	it.ID = m.ID
	it.Status = domain.ItemStatus(m.Status)
	return nil
}

func itemsToDomain(rows []itemModel) []*domain.Item {
	out := make([]*domain.Item, len(rows))
	for i := range rows {
		out[i] = rows[i].toDomain()
	}
	return out
}
