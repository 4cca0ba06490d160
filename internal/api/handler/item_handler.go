package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/dtc-ibs/borrowing-api/internal/api/metrics"
	"github.com/dtc-ibs/borrowing-api/internal/core/domain"
	"github.com/dtc-ibs/borrowing-api/internal/core/ports"
)

type ItemHandler struct {
	service ports.ItemService
}

func NewItemHandler(service ports.ItemService) *ItemHandler {
	return &ItemHandler{service: service}
}

// List returns the whole catalogue.
//
// @Summary      List items
// @Tags         items
// @Produce      json
// @Success      200  {array}   domain.Item
// @Router       /items [get]
func (h *ItemHandler) List(c echo.Context) error {
	items, err := h.service.List(c.Request().Context())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, nonNil(items))
}

// Details resolves a loosely typed id list into items.
//
// @Summary      Item details
// @Tags         items
// @Accept       json
// @Produce      json
// @Param        body  body      itemDetailsRequest  true  "Item ids"
// @Success      200   {array}   domain.Item
// @Failure      400   {object}  errorResponse
// @Router       /items/details [post]
func (h *ItemHandler) Details(c echo.Context) error {
	var req itemDetailsRequest
	if err := c.Bind(&req); err != nil {
		return domain.Validationf("invalid payload")
	}

	items, err := h.service.GetByIDs(c.Request().Context(), req.IDs)
	metrics.ObserveItemLookup(err)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, nonNil(items))
}

// nonNil keeps empty results rendering as [] rather than null.
func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
