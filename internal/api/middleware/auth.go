package middleware

import (
	"fmt"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/dtc-ibs/borrowing-api/internal/core/domain"
	"github.com/dtc-ibs/borrowing-api/internal/core/ports"
)

const sessionKey = "session"

// Auth validates the bearer token through the gate and stores the session in
// the echo context. Role checks are left to RBAC.
func Auth(gate ports.SessionAuthorizer) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			authHeader := c.Request().Header.Get(echo.HeaderAuthorization)
			if authHeader == "" {
				return fmt.Errorf("%w: missing authorization header", domain.ErrUnauthenticated)
			}

			parts := strings.SplitN(authHeader, " ", 2)
			if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
				return fmt.Errorf("%w: invalid authorization header", domain.ErrUnauthenticated)
			}

			session, err := gate.Authorize(strings.TrimSpace(parts[1]), "")
			if err != nil {
				return err
			}

			SetSession(c, session)
			return next(c)
		}
	}
}

func SetSession(c echo.Context, s *domain.Session) {
	c.Set(sessionKey, s)
}

// SessionFrom returns the session stored by Auth.
func SessionFrom(c echo.Context) (*domain.Session, bool) {
	s, ok := c.Get(sessionKey).(*domain.Session)
	return s, ok && s != nil
}
