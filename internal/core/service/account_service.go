package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"

	"github.com/reelbase/reelbase-api/internal/core/domain"
	"github.com/reelbase/reelbase-api/internal/core/ports"
	"github.com/reelbase/reelbase-api/internal/core/validation"
)

const (
	MsgRegistered       = "Registration successful. Please check your email to verify your account."
	MsgRegisteredNoMail = "Registration successful, but we could not send a verification email. Please try requesting a new verification email from your profile page."
	MsgProfileUpdated   = "Profile updated successfully"
	MsgPendingEmail     = "Verification email sent to your new email address. Please verify to complete the update."
	MsgEmailVerified    = "Email verified successfully"
	MsgVerificationSent = "Verification email has been sent"
	MsgLoggedIn         = "Login successful"
)

// AccountService implements registration, login, profile management and
// email verification.
type AccountService struct {
	repo   ports.UserRepository
	tokens ports.TokenService
	verify ports.VerificationTokenGenerator
	mailer ports.VerificationMailer
	log    zerolog.Logger
	now    func() time.Time
}

func NewAccountService(
	repo ports.UserRepository,
	tokens ports.TokenService,
	verify ports.VerificationTokenGenerator,
	mailer ports.VerificationMailer,
	log zerolog.Logger,
) *AccountService {
	return &AccountService{
		repo:   repo,
		tokens: tokens,
		verify: verify,
		mailer: mailer,
		log:    log,
		now:    time.Now,
	}
}

// Register creates an unverified account and tries to mail its verification
// link. A mail failure does not fail the registration; it only changes the
// returned message.
func (s *AccountService) Register(ctx context.Context, in ports.RegisterInput) (*ports.AuthResult, error) {
	email := validation.NormalizeEmail(in.Email)
	if err := validation.Username(in.Username); err != nil {
		return nil, err
	}
	if err := validation.Email(email); err != nil {
		return nil, err
	}
	if err := validation.Password(in.Password); err != nil {
		return nil, err
	}

	// The unique indexes are authoritative; these lookups only pick the message.
	if err := s.ensureEmailFree(ctx, email); err != nil {
		return nil, err
	}
	if err := s.ensureUsernameFree(ctx, in.Username); err != nil {
		return nil, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("register: hash password: %w", err)
	}

	token, expires, err := s.verify.Generate()
	if err != nil {
		return nil, fmt.Errorf("register: %w", err)
	}

	now := s.now().UTC()
	user := &domain.User{
		Username:     in.Username,
		Email:        email,
		PasswordHash: string(hash),
		Watchlist:    []domain.WatchlistEntry{},
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	user.SetVerification(token, expires)

	created, err := s.repo.Create(ctx, user)
	if err != nil {
		return nil, err
	}

	msg := MsgRegistered
	if err := s.mailer.SendVerification(ctx, created, token, created.Email); err != nil {
		s.log.Warn().Err(err).Str("user_id", created.ID).Msg("verification email not sent during registration")
		msg = MsgRegisteredNoMail
	}

	signed, err := s.tokens.Issue(created.ID)
	if err != nil {
		return nil, fmt.Errorf("register: %w", err)
	}

	s.log.Info().Str("user_id", created.ID).Str("username", created.Username).Msg("user registered")
	return &ports.AuthResult{User: created, Token: signed, Message: msg}, nil
}

// Login returns domain.ErrInvalidCredentials for both an unknown email and a
// wrong password.
func (s *AccountService) Login(ctx context.Context, email, password string) (*ports.AuthResult, error) {
	email = validation.NormalizeEmail(email)
	if email == "" || password == "" {
		return nil, domain.ErrInvalidCredentials
	}

	user, err := s.repo.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return nil, domain.ErrInvalidCredentials
		}
		return nil, err
	}

	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)) != nil {
		return nil, domain.ErrInvalidCredentials
	}

	signed, err := s.tokens.Issue(user.ID)
	if err != nil {
		return nil, fmt.Errorf("login: %w", err)
	}
	return &ports.AuthResult{User: user, Token: signed, Message: MsgLoggedIn}, nil
}

func (s *AccountService) Profile(ctx context.Context, userID string) (*domain.User, error) {
	return s.repo.FindByID(ctx, userID)
}

// UpdateProfile validates every supplied field before applying any of them.
// An email change is not applied directly: the new address and its token are
// saved as pending, then a verification mail is sent to it. If that mail
// cannot be sent the account is restored and nothing from the call is kept.
func (s *AccountService) UpdateProfile(ctx context.Context, userID string, in ports.UpdateProfileInput) (*ports.AuthResult, error) {
	if in.Empty() {
		return nil, domain.ErrNoChanges
	}

	user, err := s.repo.FindByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	original := *user

	if in.Username != nil && *in.Username != "" && *in.Username != user.Username {
		if err := validation.Username(*in.Username); err != nil {
			return nil, err
		}
		if err := s.ensureUsernameFree(ctx, *in.Username); err != nil {
			return nil, err
		}
		user.Username = *in.Username
	}

	var newEmail string
	if in.Email != nil {
		candidate := validation.NormalizeEmail(*in.Email)
		if candidate != "" && candidate != user.Email {
			if err := validation.Email(candidate); err != nil {
				return nil, err
			}
			if err := s.ensureEmailFree(ctx, candidate); err != nil {
				return nil, err
			}
			newEmail = candidate
		}
	}

	if in.Password != nil && *in.Password != "" {
		if err := validation.Password(*in.Password); err != nil {
			return nil, err
		}
		hash, err := bcrypt.GenerateFromPassword([]byte(*in.Password), bcrypt.DefaultCost)
		if err != nil {
			return nil, fmt.Errorf("update profile: hash password: %w", err)
		}
		user.PasswordHash = string(hash)
	}

	user.UpdatedAt = s.now().UTC()
	msg := MsgProfileUpdated

	if newEmail != "" {
		token, expires, err := s.verify.Generate()
		if err != nil {
			return nil, fmt.Errorf("update profile: %w", err)
		}
		user.PendingEmail = &newEmail
		user.SetVerification(token, expires)
	}

	if err := s.repo.Update(ctx, user); err != nil {
		return nil, err
	}

	if newEmail != "" {
		if err := s.mailer.SendVerification(ctx, user, *user.EmailVerificationToken, newEmail); err != nil {
			s.log.Error().Err(err).Str("user_id", user.ID).Msg("verification email not sent for email change")
			s.rollbackPendingEmail(ctx, &original)
			return nil, fmt.Errorf("%w: %w", domain.ErrMailDelivery, err)
		}
		msg = MsgPendingEmail
	}

	signed, err := s.tokens.Issue(user.ID)
	if err != nil {
		return nil, fmt.Errorf("update profile: %w", err)
	}
	return &ports.AuthResult{User: user, Token: signed, Message: msg}, nil
}

// rollbackPendingEmail restores the account as it was before the call, minus
// any outstanding pending email and token.
func (s *AccountService) rollbackPendingEmail(ctx context.Context, original *domain.User) {
	original.PendingEmail = nil
	original.ClearVerification()
	if err := s.repo.Update(ctx, original); err != nil {
		s.log.Error().Err(err).Str("user_id", original.ID).Msg("failed to roll back pending email")
	}
}

// VerifyEmail consumes token. Unknown and expired tokens are reported the same way.
func (s *AccountService) VerifyEmail(ctx context.Context, token string) (*ports.AuthResult, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return nil, domain.ErrInvalidVerificationToken
	}

	user, err := s.repo.ConsumeVerificationToken(ctx, token, s.now().UTC())
	if err != nil {
		return nil, err
	}

	signed, err := s.tokens.Issue(user.ID)
	if err != nil {
		return nil, fmt.Errorf("verify email: %w", err)
	}

	s.log.Info().Str("user_id", user.ID).Msg("email verified")
	return &ports.AuthResult{User: user, Token: signed, Message: MsgEmailVerified}, nil
}

// ResendVerification issues a new token and mails it to the pending address
// when there is one, otherwise to the current address.
func (s *AccountService) ResendVerification(ctx context.Context, userID string) (string, error) {
	user, err := s.repo.FindByID(ctx, userID)
	if err != nil {
		return "", err
	}
	if user.IsEmailVerified && !user.HasPendingEmail() {
		return "", domain.ErrAlreadyVerified
	}

	token, expires, err := s.verify.Generate()
	if err != nil {
		return "", fmt.Errorf("resend verification: %w", err)
	}
	user.SetVerification(token, expires)
	user.UpdatedAt = s.now().UTC()
	if err := s.repo.Update(ctx, user); err != nil {
		return "", err
	}

	if err := s.mailer.SendVerification(ctx, user, token, user.VerificationTarget()); err != nil {
		s.log.Error().Err(err).Str("user_id", user.ID).Msg("verification email not resent")
		return "", fmt.Errorf("%w: %w", domain.ErrMailDelivery, err)
	}
	return MsgVerificationSent, nil
}

func (s *AccountService) ensureEmailFree(ctx context.Context, email string) error {
	taken, err := s.repo.EmailExists(ctx, email)
	if err != nil {
		return err
	}
	if taken {
		return domain.ErrEmailTaken
	}
	return nil
}

func (s *AccountService) ensureUsernameFree(ctx context.Context, username string) error {
	taken, err := s.repo.UsernameExists(ctx, username)
	if err != nil {
		return err
	}
	if taken {
		return domain.ErrUsernameTaken
	}
	return nil
}
