package ports

import (
	"context"

	"github.com/reelbase/reelbase-api/internal/core/domain"
)

// ReviewRepository persists reviews. Create reports a second review of the
// same title by the same user as domain.ErrReviewExists.
type ReviewRepository interface {
	Create(ctx context.Context, r *domain.Review) (*domain.Review, error)
	// FindOwned returns the review only when it belongs to userID.
	FindOwned(ctx context.Context, id, userID string) (*domain.Review, error)
	ListByMedia(ctx context.Context, mediaType domain.MediaType, mediaID string) ([]*domain.Review, error)
	ListByUser(ctx context.Context, userID string) ([]*domain.Review, error)
	Update(ctx context.Context, r *domain.Review) error
	DeleteOwned(ctx context.Context, id, userID string) error
}

// CreateReviewInput carries a new review.
type CreateReviewInput struct {
	MediaID     string
	MediaType   string
	MediaTitle  string
	MediaPoster *string
	Rating      int
	Content     string
}

// UpdateReviewInput carries optional changes to a review.
type UpdateReviewInput struct {
	Rating  *int
	Content *string
}

// ReviewService defines use-case operations for reviews.
type ReviewService interface {
	Create(ctx context.Context, userID string, in CreateReviewInput) (*domain.Review, error)
	ListForMedia(ctx context.Context, mediaType, mediaID string) ([]*domain.Review, error)
	ListMine(ctx context.Context, userID string) ([]*domain.Review, error)
	Update(ctx context.Context, userID, reviewID string, in UpdateReviewInput) (*domain.Review, error)
	Delete(ctx context.Context, userID, reviewID string) error
}
