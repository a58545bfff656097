package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/reelbase/reelbase-api/internal/core/domain"
)

const collectionReviews = "reviews"

// ReviewRepository implements ports.ReviewRepository.
type ReviewRepository struct {
	col *mongo.Collection
}

func NewReviewRepository(db *mongo.Database) *ReviewRepository {
	return &ReviewRepository{col: db.Collection(collectionReviews)}
}

type reviewDoc struct {
	ID          primitive.ObjectID `bson:"_id,omitempty"`
	User        primitive.ObjectID `bson:"user"`
	Username    string             `bson:"username"`
	MediaID     string             `bson:"mediaId"`
	MediaType   string             `bson:"mediaType"`
	MediaTitle  string             `bson:"mediaTitle"`
	MediaPoster *string            `bson:"mediaPoster"`
	Rating      int                `bson:"rating"`
	Content     string             `bson:"content"`
	CreatedAt   time.Time          `bson:"createdAt"`
	UpdatedAt   time.Time          `bson:"updatedAt"`
}

func (d reviewDoc) toDomain() *domain.Review {
	return &domain.Review{
		ID:          d.ID.Hex(),
		UserID:      d.User.Hex(),
		Username:    d.Username,
		MediaID:     d.MediaID,
		MediaType:   domain.MediaType(d.MediaType),
		MediaTitle:  d.MediaTitle,
		MediaPoster: d.MediaPoster,
		Rating:      d.Rating,
		Content:     d.Content,
		CreatedAt:   d.CreatedAt,
		UpdatedAt:   d.UpdatedAt,
	}
}

func (r *ReviewRepository) Create(ctx context.Context, rv *domain.Review) (*domain.Review, error) {
	userOID, ok := objectID(rv.UserID)
	if !ok {
		return nil, domain.ErrUserNotFound
	}

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	doc := reviewDoc{
		ID:          primitive.NewObjectID(),
		User:        userOID,
		Username:    rv.Username,
		MediaID:     rv.MediaID,
		MediaType:   string(rv.MediaType),
		MediaTitle:  rv.MediaTitle,
		MediaPoster: rv.MediaPoster,
		Rating:      rv.Rating,
		Content:     rv.Content,
		CreatedAt:   rv.CreatedAt,
		UpdatedAt:   rv.UpdatedAt,
	}
	if _, err := r.col.InsertOne(ctx, doc); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return nil, domain.ErrReviewExists
		}
		return nil, fmt.Errorf("insert review: %w", err)
	}
	return doc.toDomain(), nil
}

func ownedFilter(id, userID string) (bson.M, bool) {
	oid, ok := objectID(id)
	if !ok {
		return nil, false
	}
	uid, ok := objectID(userID)
	if !ok {
		return nil, false
	}
	return bson.M{"_id": oid, "user": uid}, true
}

func (r *ReviewRepository) FindOwned(ctx context.Context, id, userID string) (*domain.Review, error) {
	filter, ok := ownedFilter(id, userID)
	if !ok {
		return nil, domain.ErrReviewNotFound
	}

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var doc reviewDoc
	if err := r.col.FindOne(ctx, filter).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrReviewNotFound
		}
		return nil, fmt.Errorf("find review: %w", err)
	}
	return doc.toDomain(), nil
}

func (r *ReviewRepository) find(ctx context.Context, filter bson.M) ([]*domain.Review, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	cur, err := r.col.Find(ctx, filter, options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}}))
	if err != nil {
		return nil, fmt.Errorf("list reviews: %w", err)
	}
	defer cur.Close(ctx)

	var docs []reviewDoc
	if err := cur.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("decode reviews: %w", err)
	}

	out := make([]*domain.Review, 0, len(docs))
	for _, d := range docs {
		out = append(out, d.toDomain())
	}
	return out, nil
}

func (r *ReviewRepository) ListByMedia(ctx context.Context, mediaType domain.MediaType, mediaID string) ([]*domain.Review, error) {
	return r.find(ctx, bson.M{"mediaType": string(mediaType), "mediaId": mediaID})
}

func (r *ReviewRepository) ListByUser(ctx context.Context, userID string) ([]*domain.Review, error) {
	uid, ok := objectID(userID)
	if !ok {
		return []*domain.Review{}, nil
	}
	return r.find(ctx, bson.M{"user": uid})
}

func (r *ReviewRepository) Update(ctx context.Context, rv *domain.Review) error {
	filter, ok := ownedFilter(rv.ID, rv.UserID)
	if !ok {
		return domain.ErrReviewNotFound
	}

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	res, err := r.col.UpdateOne(ctx, filter, bson.M{"$set": bson.M{
		"rating":    rv.Rating,
		"content":   rv.Content,
		"updatedAt": rv.UpdatedAt,
	}})
	if err != nil {
		return fmt.Errorf("update review: %w", err)
	}
	if res.MatchedCount == 0 {
		return domain.ErrReviewNotFound
	}
	return nil
}

func (r *ReviewRepository) DeleteOwned(ctx context.Context, id, userID string) error {
	filter, ok := ownedFilter(id, userID)
	if !ok {
		return domain.ErrReviewNotFound
	}

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	res, err := r.col.DeleteOne(ctx, filter)
	if err != nil {
		return fmt.Errorf("delete review: %w", err)
	}
	if res.DeletedCount == 0 {
		return domain.ErrReviewNotFound
	}
	return nil
}

// EnsureIndexes makes one review per user and title unique and indexes the per-title listing.
func (r *ReviewRepository) EnsureIndexes(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	indexes := []mongo.IndexModel{
		{
			Keys: bson.D{
				{Key: "user", Value: 1},
				{Key: "mediaId", Value: 1},
				{Key: "mediaType", Value: 1},
			},
			Options: options.Index().SetName("uniq_user_media").SetUnique(true),
		},
		{Keys: bson.D{{Key: "mediaType", Value: 1}, {Key: "mediaId", Value: 1}, {Key: "createdAt", Value: -1}}},
	}

	_, err := r.col.Indexes().CreateMany(ctx, indexes)
	return err
}
