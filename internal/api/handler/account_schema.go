package handler

import (
	"github.com/reelbase/reelbase-api/internal/core/domain"
	"github.com/reelbase/reelbase-api/internal/core/ports"
)

// --- Request types ---

type registerRequest struct {
	Username string `json:"username" example:"alice"`
	Email    string `json:"email" example:"a@x.com"`
	Password string `json:"password" example:"secret1"`
}

type loginRequest struct {
	Email    string `json:"email" example:"a@x.com"`
	Password string `json:"password" example:"secret1"`
}

// updateProfileRequest leaves a field unchanged when it is absent or empty.
type updateProfileRequest struct {
	Username *string `json:"username,omitempty"`
	Email    *string `json:"email,omitempty"`
	Password *string `json:"password,omitempty"`
}

func (r updateProfileRequest) toInput() ports.UpdateProfileInput {
	return ports.UpdateProfileInput{Username: r.Username, Email: r.Email, Password: r.Password}
}

// --- Response types ---

type messageResponse struct {
	Message string `json:"message"`
}

type accountResponse struct {
	ID              string  `json:"_id"`
	Username        string  `json:"username"`
	Email           string  `json:"email"`
	IsEmailVerified *bool   `json:"isEmailVerified,omitempty"`
	PendingEmail    *string `json:"pendingEmail,omitempty"`
	Token           string  `json:"token"`
	Message         string  `json:"message,omitempty"`
}

type profileResponse struct {
	ID              string                  `json:"_id"`
	Username        string                  `json:"username"`
	Email           string                  `json:"email"`
	IsEmailVerified bool                    `json:"isEmailVerified"`
	PendingEmail    *string                 `json:"pendingEmail,omitempty"`
	Watchlist       []domain.WatchlistEntry `json:"watchlist"`
}

type verifyEmailResponse struct {
	Message string `json:"message"`
	Email   string `json:"email"`
	Token   string `json:"token"`
}

func toAccountResponse(res *ports.AuthResult) accountResponse {
	return accountResponse{
		ID:           res.User.ID,
		Username:     res.User.Username,
		Email:        res.User.Email,
		PendingEmail: res.User.PendingEmail,
		Token:        res.Token,
		Message:      res.Message,
	}
}

func toProfileResponse(u *domain.User) profileResponse {
	watchlist := u.Watchlist
	if watchlist == nil {
		watchlist = []domain.WatchlistEntry{}
	}
	return profileResponse{
		ID:              u.ID,
		Username:        u.Username,
		Email:           u.Email,
		IsEmailVerified: u.IsEmailVerified,
		PendingEmail:    u.PendingEmail,
		Watchlist:       watchlist,
	}
}
