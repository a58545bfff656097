package service

import (
	"context"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/reelbase/reelbase-api/internal/core/domain"
	"github.com/reelbase/reelbase-api/internal/core/ports"
)

type watchlistService struct {
	repo ports.UserRepository
	log  zerolog.Logger
	now  func() time.Time
}

// NewWatchlistService returns a WatchlistService backed by the user store.
func NewWatchlistService(repo ports.UserRepository, log zerolog.Logger) ports.WatchlistService {
	return &watchlistService{repo: repo, log: log, now: time.Now}
}

// Add appends a media reference; the store rejects a second entry with the
// same media type and id. Title and poster are cached for display and may be empty.
func (s *watchlistService) Add(ctx context.Context, userID string, in ports.AddWatchlistInput) ([]domain.WatchlistEntry, error) {
	mediaType := domain.MediaType(strings.TrimSpace(in.MediaType))
	if !mediaType.Valid() {
		return nil, domain.NewValidationError("mediaType", "Media type must be movie or tv")
	}
	mediaID := strings.TrimSpace(in.MediaID)
	if mediaID == "" {
		return nil, domain.NewValidationError("mediaId", "Media id is required")
	}
	entry := domain.WatchlistEntry{
		MediaType:  mediaType,
		MediaID:    mediaID,
		Title:      strings.TrimSpace(in.Title),
		PosterPath: in.PosterPath,
		AddedAt:    s.now().UTC(),
	}

	list, err := s.repo.AddToWatchlist(ctx, userID, entry)
	if err != nil {
		return nil, err
	}
	s.log.Debug().Str("user_id", userID).Str("media", entry.Key()).Msg("watchlist entry added")
	return list, nil
}

// Remove drops every entry with mediaID, whatever its media type. Removing an
// absent id is not an error.
func (s *watchlistService) Remove(ctx context.Context, userID, mediaID string) ([]domain.WatchlistEntry, error) {
	mediaID = strings.TrimSpace(mediaID)
	if mediaID == "" {
		return nil, domain.NewValidationError("mediaId", "Media id is required")
	}
	return s.repo.RemoveFromWatchlist(ctx, userID, mediaID)
}

func (s *watchlistService) List(ctx context.Context, userID string) ([]domain.WatchlistEntry, error) {
	user, err := s.repo.FindByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user.Watchlist == nil {
		return []domain.WatchlistEntry{}, nil
	}
	return user.Watchlist, nil
}
