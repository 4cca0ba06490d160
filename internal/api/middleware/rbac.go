package middleware

import (
	"fmt"
	"slices"

	"github.com/labstack/echo/v4"

	"github.com/dtc-ibs/borrowing-api/internal/core/domain"
)

// RBAC enforces role-based access control. It must run after Auth.
func RBAC(allowedRoles ...domain.Role) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			session, ok := SessionFrom(c)
			if !ok {
				return fmt.Errorf("%w: no session", domain.ErrUnauthenticated)
			}
			if !slices.Contains(allowedRoles, session.Role) {
				return fmt.Errorf("%w: role %s may not access %s", domain.ErrForbidden, session.Role, c.Path())
			}
			return next(c)
		}
	}
}
