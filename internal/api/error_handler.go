package api

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/reelbase/reelbase-api/internal/core/domain"
)

// errorResponse is the error envelope of every API failure.
type errorResponse struct {
	Message string `json:"message"`
}

// NewHTTPErrorHandler maps domain errors to status codes and renders
// {"message": "..."}. Unexpected errors are logged and reported as a generic
// server error.
func NewHTTPErrorHandler(log zerolog.Logger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		code, msg := resolveError(err, log, c)
		if c.Request().Method == http.MethodHead {
			_ = c.NoContent(code)
			return
		}
		_ = c.JSON(code, errorResponse{Message: msg})
	}
}

func resolveError(err error, log zerolog.Logger, c echo.Context) (int, string) {
	var he *echo.HTTPError
	if errors.As(err, &he) {
		return he.Code, fmt.Sprintf("%v", he.Message)
	}

	var ve *domain.ValidationError
	if errors.As(err, &ve) {
		return http.StatusBadRequest, ve.Message
	}

	switch {
	case errors.Is(err, domain.ErrInvalidCredentials):
		return http.StatusUnauthorized, "Invalid email or password"
	case errors.Is(err, domain.ErrUnauthorized):
		return http.StatusUnauthorized, "Not authorized, token failed"
	case errors.Is(err, domain.ErrUserNotFound):
		return http.StatusNotFound, "User not found"
	case errors.Is(err, domain.ErrEmailTaken):
		return http.StatusConflict, "Email already in use"
	case errors.Is(err, domain.ErrUsernameTaken):
		return http.StatusConflict, "Username already taken"
	case errors.Is(err, domain.ErrNoChanges):
		return http.StatusBadRequest, "No changes to update"
	case errors.Is(err, domain.ErrInvalidVerificationToken):
		return http.StatusBadRequest, "Invalid or expired verification token"
	case errors.Is(err, domain.ErrAlreadyVerified):
		return http.StatusBadRequest, "Email is already verified"
	case errors.Is(err, domain.ErrMailDelivery):
		log.Error().Err(err).Str("path", c.Path()).Msg("verification mail failed")
		return http.StatusInternalServerError, "Could not send verification email. Please try again later."
	case errors.Is(err, domain.ErrWatchlistDuplicate):
		return http.StatusBadRequest, "Item already in watchlist"
	case errors.Is(err, domain.ErrReviewExists):
		return http.StatusBadRequest, "You have already reviewed this title"
	case errors.Is(err, domain.ErrReviewNotFound):
		return http.StatusNotFound, "Review not found"
	}

	log.Error().
		Err(err).
		Str("method", c.Request().Method).
		Str("path", c.Path()).
		Msg("unhandled error")

	return http.StatusInternalServerError, "Server error"
}
