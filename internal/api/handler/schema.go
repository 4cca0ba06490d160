package handler

import (
	"time"

	"github.com/dtc-ibs/borrowing-api/internal/core/domain"
	"github.com/dtc-ibs/borrowing-api/internal/core/ports"
)

// errorResponse documents the envelope written by api.NewHTTPErrorHandler.
type errorResponse struct {
	Error string `json:"error"`
	Kind  string `json:"kind"`
}

type messageResponse struct {
	Message string `json:"message"`
}

type successResponse struct {
	Success bool `json:"success"`
}

type idResponse struct {
	ID int64 `json:"id"`
}

// --- auth ---

type credentialsRequest struct {
	Email    string `json:"email" validate:"required"`
	Password string `json:"password" validate:"required"`
}

type changePasswordRequest struct {
	CurrentPassword string `json:"currentPassword" validate:"required"`
	NewPassword     string `json:"newPassword" validate:"required"`
}

type resendRequest struct {
	Email string `json:"email" validate:"required"`
}

type userResponse struct {
	ID    int64       `json:"id"`
	Email string      `json:"email"`
	Role  domain.Role `json:"role"`
}

type loginResponse struct {
	Token string       `json:"token"`
	User  userResponse `json:"user"`
}

// --- items ---

// itemDetailsRequest keeps ids loosely typed; the service drops unusable entries.
type itemDetailsRequest struct {
	IDs []any `json:"ids"`
}

// --- borrow requests ---

type createBorrowRequest struct {
	ItemIDs    []int64 `json:"item_ids" validate:"required,min=1,dive,gt=0"`
	PickupDate string  `json:"pickup_date" validate:"required,date"`
	ReturnDate string  `json:"return_date" validate:"required,date"`
}

type checklistItem struct {
	ItemID    int64  `json:"itemId" validate:"gt=0"`
	Condition string `json:"condition,omitempty" validate:"omitempty,oneof=Good Bad"`
	Remarks   string `json:"remarks,omitempty"`
}

type scanRequest struct {
	Checklist []checklistItem `json:"checklist" validate:"required,min=1,dive"`
}

func (r scanRequest) toInput() []ports.ChecklistInput {
	out := make([]ports.ChecklistInput, len(r.Checklist))
	for i, it := range r.Checklist {
		out[i] = ports.ChecklistInput{ItemID: it.ItemID, Condition: it.Condition, Remarks: it.Remarks}
	}
	return out
}

type editLogRequest struct {
	Status     *string `json:"status,omitempty"`
	PickupDate *string `json:"pickup_date,omitempty" validate:"omitempty,date"`
	ReturnDate *string `json:"return_date,omitempty" validate:"omitempty,date"`
	Remarks    *string `json:"remarks,omitempty"`
}

func (r editLogRequest) toInput() ports.LogPatchInput {
	return ports.LogPatchInput{Status: r.Status, PickupDate: r.PickupDate, ReturnDate: r.ReturnDate, Remarks: r.Remarks}
}

type borrowRequestResponse struct {
	ID         int64                `json:"id"`
	UserID     int64                `json:"user_id"`
	UserEmail  string               `json:"user_email,omitempty"`
	ItemIDs    []int64              `json:"item_ids"`
	Status     domain.RequestStatus `json:"status"`
	PickupDate string               `json:"pickup_date"`
	ReturnDate string               `json:"return_date"`
	Remarks    string               `json:"remarks,omitempty"`
	CreatedAt  time.Time            `json:"created_at"`
}

func toBorrowResponses(reqs []*domain.BorrowRequest) []borrowRequestResponse {
	out := make([]borrowRequestResponse, len(reqs))
	for i, r := range reqs {
		out[i] = borrowRequestResponse{
			ID:         r.ID,
			UserID:     r.AccountID,
			UserEmail:  r.AccountEmail,
			ItemIDs:    r.ItemIDs,
			Status:     r.Status,
			PickupDate: r.PickupDate.Format(domain.DateLayout),
			ReturnDate: r.ReturnDate.Format(domain.DateLayout),
			Remarks:    r.Remarks,
			CreatedAt:  r.CreatedAt,
		}
	}
	return out
}

type auditEntryResponse struct {
	EventID    string               `json:"event_id"`
	From       domain.RequestStatus `json:"from,omitempty"`
	To         domain.RequestStatus `json:"to"`
	ActorID    int64                `json:"actor_id"`
	ActorRole  domain.Role          `json:"actor_role"`
	ItemIDs    []int64              `json:"item_ids"`
	Note       string               `json:"note,omitempty"`
	RecordedAt time.Time            `json:"recorded_at"`
}

func toAuditResponses(entries []domain.AuditEntry) []auditEntryResponse {
	out := make([]auditEntryResponse, len(entries))
	for i, e := range entries {
		out[i] = auditEntryResponse{
			EventID:    e.EventID,
			From:       e.From,
			To:         e.To,
			ActorID:    e.ActorID,
			ActorRole:  e.ActorRole,
			ItemIDs:    e.ItemIDs,
			Note:       e.Note,
			RecordedAt: e.RecordedAt,
		}
	}
	return out
}
