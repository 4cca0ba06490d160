package service

import (
	"context"
	"math"
	"strconv"
	"strings"

	"github.com/dtc-ibs/borrowing-api/internal/core/domain"
	"github.com/dtc-ibs/borrowing-api/internal/core/ports"
)

type ItemService struct {
	repo ports.ItemRepository
}

func NewItemService(repo ports.ItemRepository) *ItemService {
	return &ItemService{repo: repo}
}

func (s *ItemService) List(ctx context.Context) ([]*domain.Item, error) {
	return s.repo.List(ctx)
}

// GetByIDs returns the items named in raw, ignoring entries that are not
// usable ids. At least one usable id is required.
func (s *ItemService) GetByIDs(ctx context.Context, raw []any) ([]*domain.Item, error) {
	ids := NormalizeItemIDs(raw)
	if len(ids) == 0 {
		return nil, domain.Validationf("ids must contain at least one valid item id")
	}
	return s.repo.FindByIDs(ctx, ids)
}

// NormalizeItemIDs keeps positive integral numbers and numeric strings,
// dropping falsy and non-numeric values and repeats.
func NormalizeItemIDs(raw []any) []int64 {
	ids := make([]int64, 0, len(raw))
	seen := make(map[int64]struct{}, len(raw))
	for _, v := range raw {
		id, ok := toItemID(v)
		if !ok {
			continue
		}
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		ids = append(ids, id)
	}
	return ids
}

func toItemID(v any) (int64, bool) {
	var id int64
	switch x := v.(type) {
	case float64:
		if x != math.Trunc(x) || x >= math.MaxInt64 {
			return 0, false
		}
		id = int64(x)
	case int:
		id = int64(x)
	case int64:
		id = x
	case string:
		n, err := strconv.ParseInt(strings.TrimSpace(x), 10, 64)
		if err != nil {
			return 0, false
		}
		id = n
	default:
		return 0, false
	}
	return id, id > 0
}
