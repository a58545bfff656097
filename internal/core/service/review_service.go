package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/reelbase/reelbase-api/internal/core/domain"
	"github.com/reelbase/reelbase-api/internal/core/ports"
)

type reviewService struct {
	reviews ports.ReviewRepository
	users   ports.UserRepository
	log     zerolog.Logger
	now     func() time.Time
}

// NewReviewService returns a ReviewService implementation.
func NewReviewService(reviews ports.ReviewRepository, users ports.UserRepository, log zerolog.Logger) ports.ReviewService {
	return &reviewService{reviews: reviews, users: users, log: log, now: time.Now}
}

func (s *reviewService) Create(ctx context.Context, userID string, in ports.CreateReviewInput) (*domain.Review, error) {
	mediaType := domain.MediaType(in.MediaType)
	if !mediaType.Valid() {
		return nil, domain.NewValidationError("mediaType", "Media type must be movie or tv")
	}
	if strings.TrimSpace(in.MediaID) == "" {
		return nil, domain.NewValidationError("mediaId", "Media id is required")
	}
	if strings.TrimSpace(in.MediaTitle) == "" {
		return nil, domain.NewValidationError("mediaTitle", "Media title is required")
	}
	if err := checkRating(in.Rating); err != nil {
		return nil, err
	}
	content := strings.TrimSpace(in.Content)
	if content == "" {
		return nil, domain.NewValidationError("content", "Review content is required")
	}

	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	now := s.now().UTC()
	created, err := s.reviews.Create(ctx, &domain.Review{
		UserID:      user.ID,
		Username:    user.Username,
		MediaID:     strings.TrimSpace(in.MediaID),
		MediaType:   mediaType,
		MediaTitle:  strings.TrimSpace(in.MediaTitle),
		MediaPoster: in.MediaPoster,
		Rating:      in.Rating,
		Content:     content,
		CreatedAt:   now,
		UpdatedAt:   now,
	})
	if err != nil {
		return nil, err
	}

	s.log.Info().Str("user_id", userID).Str("review_id", created.ID).Msg("review created")
	return created, nil
}

func (s *reviewService) ListForMedia(ctx context.Context, mediaType, mediaID string) ([]*domain.Review, error) {
	mt := domain.MediaType(mediaType)
	if !mt.Valid() {
		return nil, domain.NewValidationError("mediaType", "Media type must be movie or tv")
	}
	return s.reviews.ListByMedia(ctx, mt, mediaID)
}

func (s *reviewService) ListMine(ctx context.Context, userID string) ([]*domain.Review, error) {
	return s.reviews.ListByUser(ctx, userID)
}

// Update changes rating and/or content of a review owned by userID.
func (s *reviewService) Update(ctx context.Context, userID, reviewID string, in ports.UpdateReviewInput) (*domain.Review, error) {
	review, err := s.reviews.FindOwned(ctx, reviewID, userID)
	if err != nil {
		return nil, err
	}

	if in.Rating != nil {
		if err := checkRating(*in.Rating); err != nil {
			return nil, err
		}
		review.Rating = *in.Rating
	}
	if in.Content != nil {
		content := strings.TrimSpace(*in.Content)
		if content == "" {
			return nil, domain.NewValidationError("content", "Review content is required")
		}
		review.Content = content
	}
	review.UpdatedAt = s.now().UTC()

	if err := s.reviews.Update(ctx, review); err != nil {
		return nil, fmt.Errorf("update review: %w", err)
	}
	return review, nil
}

func (s *reviewService) Delete(ctx context.Context, userID, reviewID string) error {
	return s.reviews.DeleteOwned(ctx, reviewID, userID)
}

func checkRating(r int) error {
	if r < domain.MinRating || r > domain.MaxRating {
		return domain.NewValidationError("rating", fmt.Sprintf("Rating must be between %d and %d", domain.MinRating, domain.MaxRating))
	}
	return nil
}
