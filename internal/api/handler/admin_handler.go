package handler

import (
	"context"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/dtc-ibs/borrowing-api/internal/api/metrics"
	"github.com/dtc-ibs/borrowing-api/internal/core/domain"
	"github.com/dtc-ibs/borrowing-api/internal/core/ports"
)

// AdminHandler serves the /admin routes. RBAC has already admitted the caller.
type AdminHandler struct {
	service ports.BorrowService
	// audit is nil when no document store is configured.
	audit ports.AuditHistory
}

func NewAdminHandler(service ports.BorrowService, audit ports.AuditHistory) *AdminHandler {
	return &AdminHandler{service: service, audit: audit}
}

// Pending lists requests awaiting a decision.
//
// @Summary      Pending requests
// @Tags         admin
// @Security     BearerAuth
// @Produce      json
// @Success      200  {array}   borrowRequestResponse
// @Failure      403  {object}  errorResponse
// @Router       /admin/pending [get]
func (h *AdminHandler) Pending(c echo.Context) error {
	return h.listByStatus(c, domain.StatusToBeBorrowed)
}

// Approved lists requests ready for pickup.
//
// @Summary      Approved requests
// @Tags         admin
// @Security     BearerAuth
// @Produce      json
// @Success      200  {array}   borrowRequestResponse
// @Router       /admin/approved [get]
func (h *AdminHandler) Approved(c echo.Context) error {
	return h.listByStatus(c, domain.StatusApproved)
}

// Borrowed lists requests whose items are out.
//
// @Summary      Borrowed requests
// @Tags         admin
// @Security     BearerAuth
// @Produce      json
// @Success      200  {array}   borrowRequestResponse
// @Router       /admin/borrowed [get]
func (h *AdminHandler) Borrowed(c echo.Context) error {
	return h.listByStatus(c, domain.StatusBorrowed)
}

// Logs lists every request, newest first.
//
// @Summary      Borrow log
// @Tags         admin
// @Security     BearerAuth
// @Produce      json
// @Success      200  {array}   borrowRequestResponse
// @Router       /admin/logs [get]
func (h *AdminHandler) Logs(c echo.Context) error {
	reqs, err := h.service.ListAll(c.Request().Context())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toBorrowResponses(reqs))
}

func (h *AdminHandler) listByStatus(c echo.Context, status domain.RequestStatus) error {
	reqs, err := h.service.ListByStatus(c.Request().Context(), status)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toBorrowResponses(reqs))
}

// Approve accepts a pending request.
//
// @Summary      Approve request
// @Tags         admin
// @Security     BearerAuth
// @Produce      json
// @Param        id   path      int  true  "Request id"
// @Success      200  {object}  successResponse
// @Failure      404  {object}  errorResponse
// @Router       /admin/approve/{id} [put]
func (h *AdminHandler) Approve(c echo.Context) error {
	return h.decide(c, "approve", h.service.Approve)
}

// Decline rejects a pending request and releases its items.
//
// @Summary      Decline request
// @Tags         admin
// @Security     BearerAuth
// @Produce      json
// @Param        id   path      int  true  "Request id"
// @Success      200  {object}  successResponse
// @Failure      404  {object}  errorResponse
// @Router       /admin/decline/{id} [put]
func (h *AdminHandler) Decline(c echo.Context) error {
	return h.decide(c, "decline", h.service.Decline)
}

func (h *AdminHandler) decide(c echo.Context, op string, fn func(ctx context.Context, actor domain.Session, id int64) error) error {
	session, err := ctxSession(c)
	if err != nil {
		return err
	}
	id, err := pathID(c)
	if err != nil {
		return err
	}
	err = fn(c.Request().Context(), *session, id)
	metrics.ObserveBorrow(op, err)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, successResponse{Success: true})
}

// ScanBorrow hands out the items of an approved request.
//
// @Summary      Scan items out
// @Tags         admin
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        id    path      int          true  "Request id"
// @Param        body  body      scanRequest  true  "Checklist"
// @Success      200   {object}  successResponse
// @Failure      400   {object}  errorResponse
// @Failure      404   {object}  errorResponse
// @Router       /admin/scan-borrow/{id} [put]
func (h *AdminHandler) ScanBorrow(c echo.Context) error {
	return h.scan(c, "scan_borrow", h.service.ScanToBorrow)
}

// ScanReturn takes back the items of a borrowed request.
//
// @Summary      Scan items in
// @Tags         admin
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        id    path      int          true  "Request id"
// @Param        body  body      scanRequest  true  "Checklist with conditions"
// @Success      200   {object}  successResponse
// @Failure      400   {object}  errorResponse
// @Failure      404   {object}  errorResponse
// @Router       /admin/scan-return/{id} [put]
func (h *AdminHandler) ScanReturn(c echo.Context) error {
	return h.scan(c, "scan_return", h.service.ScanToReturn)
}

func (h *AdminHandler) scan(c echo.Context, op string, fn func(ctx context.Context, actor domain.Session, id int64, checklist []ports.ChecklistInput) error) error {
	session, err := ctxSession(c)
	if err != nil {
		return err
	}
	id, err := pathID(c)
	if err != nil {
		return err
	}
	var req scanRequest
	if err := bind(c, &req); err != nil {
		return err
	}

	err = fn(c.Request().Context(), *session, id, req.toInput())
	metrics.ObserveBorrow(op, err)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, successResponse{Success: true})
}

// EditLog overwrites fields of a stored request.
//
// @Summary      Edit borrow log entry
// @Tags         admin
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        id    path      int             true  "Request id"
// @Param        body  body      editLogRequest  true  "Fields to change"
// @Success      200   {object}  successResponse
// @Failure      400   {object}  errorResponse
// @Failure      404   {object}  errorResponse
// @Router       /admin/logs/{id} [put]
func (h *AdminHandler) EditLog(c echo.Context) error {
	session, err := ctxSession(c)
	if err != nil {
		return err
	}
	id, err := pathID(c)
	if err != nil {
		return err
	}
	var req editLogRequest
	if err := bind(c, &req); err != nil {
		return err
	}

	err = h.service.EditLog(c.Request().Context(), *session, id, req.toInput())
	metrics.ObserveBorrow("edit_log", err)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, successResponse{Success: true})
}

// AuditTrail returns the recorded lifecycle history of one request.
//
// @Summary      Request audit trail
// @Tags         admin
// @Security     BearerAuth
// @Produce      json
// @Param        id   path      int  true  "Request id"
// @Success      200  {array}   auditEntryResponse
// @Failure      503  {object}  errorResponse
// @Router       /admin/logs/{id}/audit [get]
func (h *AdminHandler) AuditTrail(c echo.Context) error {
	if h.audit == nil {
		return echo.NewHTTPError(http.StatusServiceUnavailable, "audit trail is not configured")
	}
	id, err := pathID(c)
	if err != nil {
		return err
	}
	entries, err := h.audit.History(c.Request().Context(), id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toAuditResponses(entries))
}
