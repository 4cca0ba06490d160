package ports

import (
	"context"

	"github.com/dtc-ibs/borrowing-api/internal/core/domain"
)

type ItemRepository interface {
	List(ctx context.Context) ([]*domain.Item, error)
	FindByIDs(ctx context.Context, ids []int64) ([]*domain.Item, error)
	Create(ctx context.Context, item *domain.Item) error
}

type ItemService interface {
	List(ctx context.Context) ([]*domain.Item, error)
	// GetByIDs accepts loosely typed ids straight from a JSON array.
	GetByIDs(ctx context.Context, raw []any) ([]*domain.Item, error)
}
