package domain

import "time"

// User models a registered account together with its email verification state.
//
// An account is in one of three states:
//   - unverified: IsEmailVerified is false and no PendingEmail is set.
//   - verified: IsEmailVerified is true and no PendingEmail is set.
//   - pending change: PendingEmail is set and awaits confirmation; Email stays authoritative.
type User struct {
	ID                       string           `json:"_id"`
	Username                 string           `json:"username"`
	Email                    string           `json:"email"`
	PasswordHash             string           `json:"-"`
	IsEmailVerified          bool             `json:"isEmailVerified"`
	PendingEmail             *string          `json:"pendingEmail,omitempty"`
	EmailVerificationToken   *string          `json:"-"`
	EmailVerificationExpires *time.Time       `json:"-"`
	Watchlist                []WatchlistEntry `json:"watchlist"`
	CreatedAt                time.Time        `json:"createdAt"`
	UpdatedAt                time.Time        `json:"updatedAt"`
}

// HasPendingEmail reports whether an email change is awaiting confirmation.
func (u *User) HasPendingEmail() bool {
	return u.PendingEmail != nil && *u.PendingEmail != ""
}

// VerificationTarget is the address a verification mail must be sent to:
// the pending address when one exists, the confirmed one otherwise.
func (u *User) VerificationTarget() string {
	if u.HasPendingEmail() {
		return *u.PendingEmail
	}
	return u.Email
}

// SetVerification records an outstanding verification token.
func (u *User) SetVerification(token string, expires time.Time) {
	u.EmailVerificationToken = &token
	u.EmailVerificationExpires = &expires
}

// ClearVerification drops the outstanding token. Tokens are single-use.
func (u *User) ClearVerification() {
	u.EmailVerificationToken = nil
	u.EmailVerificationExpires = nil
}

