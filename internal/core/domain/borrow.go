package domain

import (
	"encoding/json"
	"slices"
	"strconv"
	"strings"
	"time"
)

// RequestStatus is the lifecycle state of a borrow request.
type RequestStatus string

const (
	StatusToBeBorrowed RequestStatus = "To be Borrowed"
	StatusApproved     RequestStatus = "approved"
	StatusBorrowed     RequestStatus = "borrowed"
	StatusReturned     RequestStatus = "returned"
	StatusDeclined     RequestStatus = "declined"
	StatusCancelled    RequestStatus = "cancelled"
)

// validTransitions defines the allowed state machine transitions.
var validTransitions = map[RequestStatus][]RequestStatus{
	StatusToBeBorrowed: {StatusApproved, StatusDeclined, StatusCancelled},
	StatusApproved:     {StatusBorrowed},
	StatusBorrowed:     {StatusReturned},
}

// OpenStatuses are the states in which a request still holds its items.
var OpenStatuses = []RequestStatus{StatusToBeBorrowed, StatusApproved, StatusBorrowed}

// ParseRequestStatus rejects anything outside the closed set of statuses.
func ParseRequestStatus(s string) (RequestStatus, error) {
	st := RequestStatus(s)
	switch st {
	case StatusToBeBorrowed, StatusApproved, StatusBorrowed, StatusReturned, StatusDeclined, StatusCancelled:
		return st, nil
	}
	return "", Validationf("unknown request status %q", s)
}

// CanTransitionTo reports whether a transition from current status to next is valid.
func (s RequestStatus) CanTransitionTo(next RequestStatus) bool {
	return slices.Contains(validTransitions[s], next)
}

func (s RequestStatus) IsOpen() bool {
	return slices.Contains(OpenStatuses, s)
}

func (s RequestStatus) IsTerminal() bool {
	return s == StatusReturned || s == StatusDeclined || s == StatusCancelled
}

// DateLayout is the wire and storage format of pickup and return dates.
const DateLayout = "2006-01-02"

// ParseDate parses a calendar date and normalises it to UTC midnight.
func ParseDate(field, s string) (time.Time, error) {
	if strings.TrimSpace(s) == "" {
		return time.Time{}, Validationf("%s is required", field)
	}
	d, err := time.Parse(DateLayout, strings.TrimSpace(s))
	if err != nil {
		return time.Time{}, Validationf("%s must be a date formatted as YYYY-MM-DD", field)
	}
	return d.UTC(), nil
}

// BorrowRequest asks for a set of items over a date range.
type BorrowRequest struct {
	ID           int64
	AccountID    int64
	AccountEmail string
	ItemIDs      []int64
	Status       RequestStatus
	PickupDate   time.Time
	ReturnDate   time.Time
	Remarks      string
	CreatedAt    time.Time
}

// ChecklistEntry is one line of an admin scan at pickup or return.
type ChecklistEntry struct {
	ItemID    int64
	Condition ItemCondition
	Remarks   string
}

// LogPatch is a partial admin edit of a stored request. Nil fields are kept.
type LogPatch struct {
	Status     *RequestStatus
	PickupDate *time.Time
	ReturnDate *time.Time
	Remarks    *string
}

func (p LogPatch) Empty() bool {
	return p.Status == nil && p.PickupDate == nil && p.ReturnDate == nil && p.Remarks == nil
}

// ValidateItemIDs checks a requested item list: non-empty, positive, no repeats.
func ValidateItemIDs(ids []int64) error {
	if len(ids) == 0 {
		return Validationf("item_ids must contain at least one item")
	}
	seen := make(map[int64]struct{}, len(ids))
	for _, id := range ids {
		if id <= 0 {
			return Validationf("item id %d is not valid", id)
		}
		if _, dup := seen[id]; dup {
			return Validationf("item %d is listed more than once", id)
		}
		seen[id] = struct{}{}
	}
	return nil
}

// EncodeItemIDs serialises item ids into the JSON array stored with a request.
func EncodeItemIDs(ids []int64) (string, error) {
	if err := ValidateItemIDs(ids); err != nil {
		return "", err
	}
	b, err := json.Marshal(ids)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// DecodeItemIDs parses a stored JSON item array and rejects malformed content.
func DecodeItemIDs(raw string) ([]int64, error) {
	var ids []int64
	if err := json.Unmarshal([]byte(raw), &ids); err != nil {
		return nil, Validationf("stored item_ids are malformed: %v", err)
	}
	if err := ValidateItemIDs(ids); err != nil {
		return nil, err
	}
	return ids, nil
}

// ItemSetKey is an order independent fingerprint of an item list.
func ItemSetKey(ids []int64) string {
	sorted := slices.Clone(ids)
	slices.Sort(sorted)
	parts := make([]string, len(sorted))
	for i, id := range sorted {
		parts[i] = strconv.FormatInt(id, 10)
	}
	return strings.Join(parts, ",")
}
