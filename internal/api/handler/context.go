package handler

import (
	"fmt"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/dtc-ibs/borrowing-api/internal/api/middleware"
	"github.com/dtc-ibs/borrowing-api/internal/core/domain"
)

// ctxSession returns the session stored by the Auth middleware. Its absence
// means the route was registered without Auth.
func ctxSession(c echo.Context) (*domain.Session, error) {
	s, ok := middleware.SessionFrom(c)
	if !ok {
		return nil, fmt.Errorf("%w: missing session", domain.ErrUnauthenticated)
	}
	return s, nil
}

// pathID parses the :id path parameter as a positive request id.
func pathID(c echo.Context) (int64, error) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, domain.Validationf("request id %q is not valid", c.Param("id"))
	}
	return id, nil
}

// bind decodes and validates the request body.
func bind(c echo.Context, dst any) error {
	if err := c.Bind(dst); err != nil {
		return domain.Validationf("invalid payload")
	}
	return c.Validate(dst)
}
