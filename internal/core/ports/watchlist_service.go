package ports

import (
	"context"

	"github.com/reelbase/reelbase-api/internal/core/domain"
)

// AddWatchlistInput is the DTO passed from the transport layer to WatchlistService.
type AddWatchlistInput struct {
	MediaType  string
	MediaID    string
	Title      string
	PosterPath string
}

// WatchlistService manages the media references saved by one user.
type WatchlistService interface {
	Add(ctx context.Context, userID string, in AddWatchlistInput) ([]domain.WatchlistEntry, error)
	Remove(ctx context.Context, userID, mediaID string) ([]domain.WatchlistEntry, error)
	List(ctx context.Context, userID string) ([]domain.WatchlistEntry, error)
}
