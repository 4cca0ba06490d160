package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/dtc-ibs/borrowing-api/internal/core/domain"
)

func TestObserveBorrow(t *testing.T) {
	before := testutil.ToFloat64(BorrowTransitionsTotal.WithLabelValues("approve"))
	conflicts := testutil.ToFloat64(BorrowErrorsTotal.WithLabelValues("approve", "state_conflict"))

	ObserveBorrow("approve", nil)
	ObserveBorrow("approve", domain.ErrStateConflict)

	if got := testutil.ToFloat64(BorrowTransitionsTotal.WithLabelValues("approve")); got != before+1 {
		t.Errorf("expected %v transitions, got %v", before+1, got)
	}
	if got := testutil.ToFloat64(BorrowErrorsTotal.WithLabelValues("approve", "state_conflict")); got != conflicts+1 {
		t.Errorf("expected %v conflicts, got %v", conflicts+1, got)
	}
}

func TestObserveAuth(t *testing.T) {
	before := testutil.ToFloat64(AuthEventsTotal.WithLabelValues("login", "invalid_credentials"))
	ObserveAuth("login", domain.ErrInvalidCredentials)
	if got := testutil.ToFloat64(AuthEventsTotal.WithLabelValues("login", "invalid_credentials")); got != before+1 {
		t.Errorf("expected %v, got %v", before+1, got)
	}
}
