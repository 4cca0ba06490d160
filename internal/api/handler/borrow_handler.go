package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/dtc-ibs/borrowing-api/internal/api/metrics"
	"github.com/dtc-ibs/borrowing-api/internal/core/ports"
)

// BorrowHandler serves the borrower's own requests.
type BorrowHandler struct {
	service ports.BorrowService
}

func NewBorrowHandler(service ports.BorrowService) *BorrowHandler {
	return &BorrowHandler{service: service}
}

// List returns the caller's borrow requests.
//
// @Summary      My borrow requests
// @Tags         borrow
// @Security     BearerAuth
// @Produce      json
// @Success      200  {array}   borrowRequestResponse
// @Failure      401  {object}  errorResponse
// @Router       /borrow [get]
func (h *BorrowHandler) List(c echo.Context) error {
	session, err := ctxSession(c)
	if err != nil {
		return err
	}
	reqs, err := h.service.List(c.Request().Context(), session.AccountID)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toBorrowResponses(reqs))
}

// Create submits a borrow request and holds its items.
//
// @Summary      Create borrow request
// @Tags         borrow
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        body  body      createBorrowRequest  true  "Items and dates"
// @Success      200   {object}  idResponse
// @Failure      400   {object}  errorResponse
// @Failure      404   {object}  errorResponse
// @Failure      409   {object}  errorResponse
// @Router       /borrow [post]
func (h *BorrowHandler) Create(c echo.Context) error {
	session, err := ctxSession(c)
	if err != nil {
		return err
	}
	var req createBorrowRequest
	if err := bind(c, &req); err != nil {
		return err
	}

	id, err := h.service.Create(c.Request().Context(), ports.CreateBorrowInput{
		AccountID:  session.AccountID,
		Role:       session.Role,
		ItemIDs:    req.ItemIDs,
		PickupDate: req.PickupDate,
		ReturnDate: req.ReturnDate,
	})
	metrics.ObserveBorrow("create", err)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, idResponse{ID: id})
}

// Cancel withdraws the caller's request; admins delete any request.
//
// @Summary      Cancel borrow request
// @Tags         borrow
// @Security     BearerAuth
// @Produce      json
// @Param        id   path      int  true  "Request id"
// @Success      200  {object}  successResponse
// @Failure      404  {object}  errorResponse
// @Router       /borrow/{id} [delete]
func (h *BorrowHandler) Cancel(c echo.Context) error {
	session, err := ctxSession(c)
	if err != nil {
		return err
	}
	id, err := pathID(c)
	if err != nil {
		return err
	}

	err = h.service.Cancel(c.Request().Context(), *session, id)
	metrics.ObserveBorrow("cancel", err)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, successResponse{Success: true})
}
