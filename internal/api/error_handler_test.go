package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/reelbase/reelbase-api/internal/core/domain"
)

func TestHTTPErrorHandler(t *testing.T) {
	cases := []struct {
		err  error
		code int
		msg  string
	}{
		{domain.NewValidationError("username", "Username is required"), http.StatusBadRequest, "Username is required"},
		{domain.ErrInvalidCredentials, http.StatusUnauthorized, "Invalid email or password"},
		{domain.ErrUserNotFound, http.StatusNotFound, "User not found"},
		{fmt.Errorf("update: %w", domain.ErrEmailTaken), http.StatusConflict, "Email already in use"},
		{domain.ErrUsernameTaken, http.StatusConflict, "Username already taken"},
		{domain.ErrNoChanges, http.StatusBadRequest, "No changes to update"},
		{domain.ErrInvalidVerificationToken, http.StatusBadRequest, "Invalid or expired verification token"},
		{domain.ErrAlreadyVerified, http.StatusBadRequest, "Email is already verified"},
		{fmt.Errorf("%w: smtp down", domain.ErrMailDelivery), http.StatusInternalServerError, "Could not send verification email. Please try again later."},
		{domain.ErrWatchlistDuplicate, http.StatusBadRequest, "Item already in watchlist"},
		{domain.ErrReviewExists, http.StatusBadRequest, "You have already reviewed this title"},
		{echo.NewHTTPError(http.StatusUnauthorized, "Not authorized, no token"), http.StatusUnauthorized, "Not authorized, no token"},
		{errors.New("mongo exploded"), http.StatusInternalServerError, "Server error"},
	}

	e := echo.New()
	handler := NewHTTPErrorHandler(zerolog.Nop())

	for _, tc := range cases {
		rec := httptest.NewRecorder()
		c := e.NewContext(httptest.NewRequest(http.MethodGet, "/", nil), rec)

		handler(tc.err, c)

		if rec.Code != tc.code {
			t.Fatalf("%v: expected %d, got %d", tc.err, tc.code, rec.Code)
		}
		var body map[string]string
		if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
			t.Fatalf("invalid json: %v", err)
		}
		if body["message"] != tc.msg {
			t.Fatalf("%v: expected message %q, got %q", tc.err, tc.msg, body["message"])
		}
	}
}
