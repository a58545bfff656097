package ports

import (
	"context"
	"time"

	"github.com/reelbase/reelbase-api/internal/core/domain"
)

// UserRepository is the credential store. Uniqueness of username and email is
// enforced by the store itself; Create and Update report violations as
// domain.ErrUsernameTaken or domain.ErrEmailTaken.
type UserRepository interface {
	Create(ctx context.Context, user *domain.User) (*domain.User, error)
	FindByID(ctx context.Context, id string) (*domain.User, error)
	FindByEmail(ctx context.Context, email string) (*domain.User, error)
	UsernameExists(ctx context.Context, username string) (bool, error)
	EmailExists(ctx context.Context, email string) (bool, error)

	// Update persists the mutable account fields of user (everything but the watchlist).
	Update(ctx context.Context, user *domain.User) error

	// ConsumeVerificationToken atomically finds the account holding token with an
	// expiry after now, promotes any pending email, marks the email verified and
	// clears the token. Returns domain.ErrInvalidVerificationToken when no account matches.
	ConsumeVerificationToken(ctx context.Context, token string, now time.Time) (*domain.User, error)

	// AddToWatchlist appends entry unless an entry with the same media type and
	// id exists, in a single atomic update. Returns the resulting list.
	AddToWatchlist(ctx context.Context, userID string, entry domain.WatchlistEntry) ([]domain.WatchlistEntry, error)

	// RemoveFromWatchlist pulls every entry whose media id equals mediaID.
	RemoveFromWatchlist(ctx context.Context, userID, mediaID string) ([]domain.WatchlistEntry, error)
}
