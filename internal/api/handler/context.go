package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/reelbase/reelbase-api/internal/api/middleware"
)

// ctxUserID returns the user id stored by the Auth middleware. An empty value
// means the route was mounted without it.
func ctxUserID(c echo.Context) (string, error) {
	userID, _ := c.Get(middleware.ContextUserID).(string)
	if userID == "" {
		return "", echo.NewHTTPError(http.StatusUnauthorized, "Not authorized, no token")
	}
	return userID, nil
}
