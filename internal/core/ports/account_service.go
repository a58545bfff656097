package ports

import (
	"context"
	"time"

	"github.com/reelbase/reelbase-api/internal/core/domain"
)

// RegisterInput carries the fields of a signup request.
type RegisterInput struct {
	Username string
	Email    string
	Password string
}

// UpdateProfileInput carries an optional change per field. A nil or empty
// value means "leave as is".
type UpdateProfileInput struct {
	Username *string
	Email    *string
	Password *string
}

// Empty reports whether no field was supplied.
func (in UpdateProfileInput) Empty() bool {
	return blank(in.Username) && blank(in.Email) && blank(in.Password)
}

func blank(s *string) bool {
	return s == nil || *s == ""
}

// AuthResult is returned by every account operation that mints a fresh token.
type AuthResult struct {
	User    *domain.User
	Token   string
	Message string
}

// AccountService drives the account lifecycle.
type AccountService interface {
	Register(ctx context.Context, in RegisterInput) (*AuthResult, error)
	Login(ctx context.Context, email, password string) (*AuthResult, error)
	Profile(ctx context.Context, userID string) (*domain.User, error)
	UpdateProfile(ctx context.Context, userID string, in UpdateProfileInput) (*AuthResult, error)
	VerifyEmail(ctx context.Context, token string) (*AuthResult, error)
	ResendVerification(ctx context.Context, userID string) (string, error)
}

// TokenService issues and checks bearer tokens bound to a user id.
type TokenService interface {
	Issue(userID string) (string, error)
	Verify(token string) (string, error)
}

// VerificationTokenGenerator produces single-use email verification tokens.
type VerificationTokenGenerator interface {
	Generate() (token string, expiresAt time.Time, err error)
}

// VerificationMailer delivers the verification link for token to address.
type VerificationMailer interface {
	SendVerification(ctx context.Context, user *domain.User, token, address string) error
}
