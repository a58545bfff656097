package handler

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/reelbase/reelbase-api/internal/api/metrics"
	"github.com/reelbase/reelbase-api/internal/core/domain"
	"github.com/reelbase/reelbase-api/internal/core/ports"
)

// AccountHandler serves the /api/users account routes.
type AccountHandler struct {
	service ports.AccountService
}

func NewAccountHandler(service ports.AccountService) *AccountHandler {
	return &AccountHandler{service: service}
}

// Register creates a new account and returns a token for it.
//
// @Summary      Register a new user
// @Tags         users
// @Accept       json
// @Produce      json
// @Param        body  body      registerRequest  true  "Account details"
// @Success      201   {object}  accountResponse
// @Failure      400   {object}  messageResponse
// @Failure      500   {object}  messageResponse
// @Router       /api/users/register [post]
func (h *AccountHandler) Register(c echo.Context) error {
	var req registerRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid user data")
	}

	res, err := h.service.Register(c.Request().Context(), ports.RegisterInput{
		Username: req.Username,
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		// Signup reports taken identifiers as a plain bad request.
		switch {
		case errors.Is(err, domain.ErrEmailTaken):
			return echo.NewHTTPError(http.StatusBadRequest, "Email already in use")
		case errors.Is(err, domain.ErrUsernameTaken):
			return echo.NewHTTPError(http.StatusBadRequest, "Username already taken")
		}
		return err
	}

	metrics.AccountEventsTotal.WithLabelValues("registered").Inc()
	body := toAccountResponse(res)
	verified := res.User.IsEmailVerified
	body.IsEmailVerified = &verified
	return c.JSON(http.StatusCreated, body)
}

// Login exchanges credentials for a token.
//
// @Summary      Login
// @Tags         users
// @Accept       json
// @Produce      json
// @Param        body  body      loginRequest  true  "Credentials"
// @Success      200   {object}  accountResponse
// @Failure      401   {object}  messageResponse
// @Router       /api/users/login [post]
func (h *AccountHandler) Login(c echo.Context) error {
	var req loginRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request body")
	}

	res, err := h.service.Login(c.Request().Context(), req.Email, req.Password)
	if err != nil {
		if errors.Is(err, domain.ErrInvalidCredentials) {
			metrics.AccountEventsTotal.WithLabelValues("login_failed").Inc()
		}
		return err
	}

	metrics.AccountEventsTotal.WithLabelValues("login").Inc()
	body := toAccountResponse(res)
	body.Message = ""
	return c.JSON(http.StatusOK, body)
}

// Profile returns the caller's account and watchlist.
//
// @Summary      Current user profile
// @Tags         users
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  profileResponse
// @Failure      401  {object}  messageResponse
// @Failure      404  {object}  messageResponse
// @Router       /api/users/profile [get]
func (h *AccountHandler) Profile(c echo.Context) error {
	userID, err := ctxUserID(c)
	if err != nil {
		return err
	}

	user, err := h.service.Profile(c.Request().Context(), userID)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toProfileResponse(user))
}

// UpdateProfile changes username, password and/or email. A new email only
// becomes pending until it is verified.
//
// @Summary      Update profile
// @Tags         users
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body  body      updateProfileRequest  true  "Fields to change"
// @Success      200   {object}  accountResponse
// @Failure      400   {object}  messageResponse
// @Failure      409   {object}  messageResponse
// @Failure      500   {object}  messageResponse
// @Router       /api/users/profile [put]
func (h *AccountHandler) UpdateProfile(c echo.Context) error {
	userID, err := ctxUserID(c)
	if err != nil {
		return err
	}

	var req updateProfileRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request body")
	}

	res, err := h.service.UpdateProfile(c.Request().Context(), userID, req.toInput())
	if err != nil {
		return err
	}

	if res.User.HasPendingEmail() {
		metrics.AccountEventsTotal.WithLabelValues("email_change_requested").Inc()
	} else {
		metrics.AccountEventsTotal.WithLabelValues("profile_updated").Inc()
	}
	return c.JSON(http.StatusOK, toAccountResponse(res))
}

// VerifyEmail redeems a verification token from an emailed link.
//
// @Summary      Verify email
// @Tags         users
// @Produce      json
// @Param        token  path      string  true  "Verification token"
// @Success      200    {object}  verifyEmailResponse
// @Failure      400    {object}  messageResponse
// @Router       /api/users/verify-email/{token} [get]
func (h *AccountHandler) VerifyEmail(c echo.Context) error {
	res, err := h.service.VerifyEmail(c.Request().Context(), c.Param("token"))
	if err != nil {
		return err
	}

	metrics.AccountEventsTotal.WithLabelValues("email_verified").Inc()
	return c.JSON(http.StatusOK, verifyEmailResponse{
		Message: res.Message,
		Email:   res.User.Email,
		Token:   res.Token,
	})
}

// ResendVerification mails a fresh verification link.
//
// @Summary      Resend verification email
// @Tags         users
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  messageResponse
// @Failure      400  {object}  messageResponse
// @Failure      500  {object}  messageResponse
// @Router       /api/users/resend-verification [post]
func (h *AccountHandler) ResendVerification(c echo.Context) error {
	userID, err := ctxUserID(c)
	if err != nil {
		return err
	}

	msg, err := h.service.ResendVerification(c.Request().Context(), userID)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, messageResponse{Message: msg})
}
