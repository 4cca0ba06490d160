package service

import (
	"context"
	"errors"
	"math"
	"slices"
	"testing"

	"github.com/dtc-ibs/borrowing-api/internal/core/domain"
)

type stubItemRepo struct {
	items   []*domain.Item
	lastIDs []int64
}

func (r *stubItemRepo) List(context.Context) ([]*domain.Item, error) { return r.items, nil }

func (r *stubItemRepo) FindByIDs(_ context.Context, ids []int64) ([]*domain.Item, error) {
	r.lastIDs = ids
	var out []*domain.Item
	for _, it := range r.items {
		if slices.Contains(ids, it.ID) {
			out = append(out, it)
		}
	}
	return out, nil
}

func (r *stubItemRepo) Create(_ context.Context, it *domain.Item) error {
	r.items = append(r.items, it)
	return nil
}

func TestNormalizeItemIDs(t *testing.T) {
	got := NormalizeItemIDs([]any{float64(3), "7", nil, float64(0), "", false, "abc", 2.5, float64(-1), float64(3), " 9 "})
	want := []int64{3, 7, 9}
	if !slices.Equal(got, want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
}

func TestToItemID_FloatBounds(t *testing.T) {
	cases := []struct {
		in   float64
		want int64
		ok   bool
	}{
		{in: 1 << 62, want: 1 << 62, ok: true},
		{in: 1 << 63, ok: false},
		{in: 1e19, ok: false},
		{in: math.Inf(1), ok: false},
	}
	for _, tc := range cases {
		got, ok := toItemID(tc.in)
		if ok != tc.ok || (ok && got != tc.want) {
			t.Errorf("toItemID(%g) = %d, %v; want %d, %v", tc.in, got, ok, tc.want, tc.ok)
		}
	}
}

func TestItemService_GetByIDs(t *testing.T) {
	repo := &stubItemRepo{items: []*domain.Item{{ID: 3}, {ID: 7}, {ID: 8}}}
	svc := NewItemService(repo)

	items, err := svc.GetByIDs(context.Background(), []any{float64(3), "7", "nope"})
	if err != nil {
		t.Fatalf("GetByIDs returned error: %v", err)
	}
	if len(items) != 2 {
		t.Fatalf("expected 2 items, got %d", len(items))
	}
	if !slices.Equal(repo.lastIDs, []int64{3, 7}) {
		t.Fatalf("unexpected ids passed to repo: %v", repo.lastIDs)
	}
}

func TestItemService_GetByIDs_NoUsableIDs(t *testing.T) {
	svc := NewItemService(&stubItemRepo{})

	for _, raw := range [][]any{nil, {}, {nil, "", float64(0), "x"}} {
		if _, err := svc.GetByIDs(context.Background(), raw); !errors.Is(err, domain.ErrValidation) {
			t.Fatalf("%v: expected validation error, got %v", raw, err)
		}
	}
}
