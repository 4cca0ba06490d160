// Package metrics defines the custom Prometheus metrics of the borrowing API.
// HTTP request metrics come from echoprometheus; these count domain outcomes.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/dtc-ibs/borrowing-api/internal/core/domain"
)

const namespace = "ibs"

// BorrowTransitionsTotal counts successful lifecycle mutations.
// Labels:
//   - operation: create, approve, decline, cancel, scan_borrow, scan_return, edit_log
var BorrowTransitionsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "borrow_transitions_total",
		Help:      "Total number of successful borrow request lifecycle operations.",
	},
	[]string{"operation"},
)

// BorrowErrorsTotal counts failed lifecycle operations by error kind
// (state_conflict, validation_error, ...).
var BorrowErrorsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "borrow_errors_total",
		Help:      "Total number of failed borrow request lifecycle operations.",
	},
	[]string{"operation", "kind"},
)

// AuthEventsTotal counts account flow outcomes.
// Labels:
//   - event: signup, verify, login, change_password, resend_verification
//   - result: ok or the error kind
var AuthEventsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "auth_events_total",
		Help:      "Total number of account flow attempts, by outcome.",
	},
	[]string{"event", "result"},
)

// ItemLookupsTotal counts item detail lookups by outcome.
var ItemLookupsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "item_lookups_total",
		Help:      "Total number of item detail lookups.",
	},
	[]string{"result"},
)

// Collectors returns the domain metrics. promauto registers them on the
// default registry; callers serving a custom registry must register them too.
func Collectors() []prometheus.Collector {
	return []prometheus.Collector{BorrowTransitionsTotal, BorrowErrorsTotal, AuthEventsTotal, ItemLookupsTotal}
}

// ObserveBorrow records the outcome of one lifecycle operation.
func ObserveBorrow(operation string, err error) {
	if err != nil {
		BorrowErrorsTotal.WithLabelValues(operation, domain.Kind(err)).Inc()
		return
	}
	BorrowTransitionsTotal.WithLabelValues(operation).Inc()
}

// ObserveAuth records the outcome of one account flow.
func ObserveAuth(event string, err error) {
	AuthEventsTotal.WithLabelValues(event, result(err)).Inc()
}

func ObserveItemLookup(err error) {
	ItemLookupsTotal.WithLabelValues(result(err)).Inc()
}

func result(err error) string {
	if err == nil {
		return "ok"
	}
	return domain.Kind(err)
}
