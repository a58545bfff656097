package domain

import "errors"

// Account errors.
var (
	ErrUserNotFound             = errors.New("user not found")
	ErrEmailTaken               = errors.New("email already in use")
	ErrUsernameTaken            = errors.New("username already taken")
	ErrInvalidCredentials       = errors.New("invalid email or password")
	ErrUnauthorized             = errors.New("not authorized")
	ErrInvalidVerificationToken = errors.New("invalid or expired verification token")
	ErrNoChanges                = errors.New("no changes to update")
	ErrAlreadyVerified          = errors.New("email is already verified")
	ErrMailDelivery             = errors.New("could not send verification email")
)

// Watchlist and review errors.
var (
	ErrWatchlistDuplicate = errors.New("item already in watchlist")
	ErrReviewNotFound     = errors.New("review not found")
	ErrReviewExists       = errors.New("review already exists")
)

// ValidationError reports malformed input. Message is safe to show to clients.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

// NewValidationError builds a ValidationError for field.
func NewValidationError(field, msg string) *ValidationError {
	return &ValidationError{Field: field, Message: msg}
}

