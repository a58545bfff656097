package middleware

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/reelbase/reelbase-api/internal/core/ports"
)

// ContextUserID is the echo context key holding the authenticated user id.
const ContextUserID = "user_id"

// Auth verifies the bearer token and stores its subject under ContextUserID.
func Auth(tokens ports.TokenService) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			authHeader := c.Request().Header.Get(echo.HeaderAuthorization)
			if authHeader == "" {
				return echo.NewHTTPError(http.StatusUnauthorized, "Not authorized, no token")
			}

			parts := strings.SplitN(authHeader, " ", 2)
			if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") || strings.TrimSpace(parts[1]) == "" {
				return echo.NewHTTPError(http.StatusUnauthorized, "Not authorized, no token")
			}

			userID, err := tokens.Verify(strings.TrimSpace(parts[1]))
			if err != nil {
				return echo.NewHTTPError(http.StatusUnauthorized, "Not authorized, token failed")
			}

			c.Set(ContextUserID, userID)
			return next(c)
		}
	}
}
