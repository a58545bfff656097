package mongo

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/reelbase/reelbase-api/internal/core/domain"
)

const (
	collectionUsers = "users"

	usernameIndex = "uniq_username"
	emailIndex    = "uniq_email"
	tokenIndex    = "verification_token"
)

// UserRepository implements ports.UserRepository on the users collection.
type UserRepository struct {
	col *mongo.Collection
}

func NewUserRepository(db *mongo.Database) *UserRepository {
	return &UserRepository{col: db.Collection(collectionUsers)}
}

type watchlistDoc struct {
	MediaType  string    `bson:"mediaType"`
	MediaID    string    `bson:"mediaId"`
	Title      string    `bson:"title"`
	PosterPath string    `bson:"poster_path,omitempty"`
	AddedAt    time.Time `bson:"added_at"`
}

type userDoc struct {
	ID                       primitive.ObjectID `bson:"_id,omitempty"`
	Username                 string             `bson:"username"`
	Email                    string             `bson:"email"`
	Password                 string             `bson:"password"`
	IsEmailVerified          bool               `bson:"isEmailVerified"`
	PendingEmail             *string            `bson:"pendingEmail,omitempty"`
	EmailVerificationToken   *string            `bson:"emailVerificationToken,omitempty"`
	EmailVerificationExpires *time.Time         `bson:"emailVerificationExpires,omitempty"`
	Watchlist                []watchlistDoc     `bson:"watchlist"`
	CreatedAt                time.Time          `bson:"createdAt"`
	UpdatedAt                time.Time          `bson:"updatedAt"`
}

func toUserDoc(u *domain.User) userDoc {
	doc := userDoc{
		Username:                 u.Username,
		Email:                    u.Email,
		Password:                 u.PasswordHash,
		IsEmailVerified:          u.IsEmailVerified,
		PendingEmail:             u.PendingEmail,
		EmailVerificationToken:   u.EmailVerificationToken,
		EmailVerificationExpires: u.EmailVerificationExpires,
		Watchlist:                toWatchlistDocs(u.Watchlist),
		CreatedAt:                u.CreatedAt,
		UpdatedAt:                u.UpdatedAt,
	}
	if oid, ok := objectID(u.ID); ok {
		doc.ID = oid
	}
	return doc
}

func (d userDoc) toDomain() *domain.User {
	return &domain.User{
		ID:                       d.ID.Hex(),
		Username:                 d.Username,
		Email:                    d.Email,
		PasswordHash:             d.Password,
		IsEmailVerified:          d.IsEmailVerified,
		PendingEmail:             d.PendingEmail,
		EmailVerificationToken:   d.EmailVerificationToken,
		EmailVerificationExpires: d.EmailVerificationExpires,
		Watchlist:                fromWatchlistDocs(d.Watchlist),
		CreatedAt:                d.CreatedAt,
		UpdatedAt:                d.UpdatedAt,
	}
}

func toWatchlistDocs(entries []domain.WatchlistEntry) []watchlistDoc {
	docs := make([]watchlistDoc, 0, len(entries))
	for _, e := range entries {
		docs = append(docs, toWatchlistDoc(e))
	}
	return docs
}

func toWatchlistDoc(e domain.WatchlistEntry) watchlistDoc {
	return watchlistDoc{
		MediaType:  string(e.MediaType),
		MediaID:    e.MediaID,
		Title:      e.Title,
		PosterPath: e.PosterPath,
		AddedAt:    e.AddedAt,
	}
}

func fromWatchlistDocs(docs []watchlistDoc) []domain.WatchlistEntry {
	entries := make([]domain.WatchlistEntry, 0, len(docs))
	for _, d := range docs {
		entries = append(entries, domain.WatchlistEntry{
			MediaType:  domain.MediaType(d.MediaType),
			MediaID:    d.MediaID,
			Title:      d.Title,
			PosterPath: d.PosterPath,
			AddedAt:    d.AddedAt,
		})
	}
	return entries
}

func objectID(id string) (primitive.ObjectID, bool) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return primitive.NilObjectID, false
	}
	return oid, true
}

// duplicateKeyError maps a unique index violation to the matching domain error.
func duplicateKeyError(err error) error {
	msg := err.Error()
	switch {
	case strings.Contains(msg, emailIndex):
		return domain.ErrEmailTaken
	case strings.Contains(msg, usernameIndex):
		return domain.ErrUsernameTaken
	}
	return fmt.Errorf("duplicate key: %w", err)
}

func (r *UserRepository) Create(ctx context.Context, user *domain.User) (*domain.User, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	doc := toUserDoc(user)
	doc.ID = primitive.NewObjectID()

	if _, err := r.col.InsertOne(ctx, doc); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return nil, duplicateKeyError(err)
		}
		return nil, fmt.Errorf("insert user: %w", err)
	}
	return doc.toDomain(), nil
}

func (r *UserRepository) findOne(ctx context.Context, filter bson.M) (*domain.User, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var doc userDoc
	if err := r.col.FindOne(ctx, filter).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrUserNotFound
		}
		return nil, fmt.Errorf("find user: %w", err)
	}
	return doc.toDomain(), nil
}

func (r *UserRepository) FindByID(ctx context.Context, id string) (*domain.User, error) {
	oid, ok := objectID(id)
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	return r.findOne(ctx, bson.M{"_id": oid})
}

func (r *UserRepository) FindByEmail(ctx context.Context, email string) (*domain.User, error) {
	return r.findOne(ctx, bson.M{"email": email})
}

func (r *UserRepository) exists(ctx context.Context, filter bson.M) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	n, err := r.col.CountDocuments(ctx, filter, options.Count().SetLimit(1))
	if err != nil {
		return false, fmt.Errorf("count users: %w", err)
	}
	return n > 0, nil
}

func (r *UserRepository) UsernameExists(ctx context.Context, username string) (bool, error) {
	return r.exists(ctx, bson.M{"username": username})
}

func (r *UserRepository) EmailExists(ctx context.Context, email string) (bool, error) {
	return r.exists(ctx, bson.M{"email": email})
}

// Update writes the account fields. Nil optional fields are unset so the
// document never carries a stale pending email or token.
func (r *UserRepository) Update(ctx context.Context, user *domain.User) error {
	oid, ok := objectID(user.ID)
	if !ok {
		return domain.ErrUserNotFound
	}

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	set := bson.M{
		"username":        user.Username,
		"email":           user.Email,
		"password":        user.PasswordHash,
		"isEmailVerified": user.IsEmailVerified,
		"updatedAt":       user.UpdatedAt,
	}
	unset := bson.M{}
	if user.PendingEmail != nil {
		set["pendingEmail"] = *user.PendingEmail
	} else {
		unset["pendingEmail"] = ""
	}
	if user.EmailVerificationToken != nil && user.EmailVerificationExpires != nil {
		set["emailVerificationToken"] = *user.EmailVerificationToken
		set["emailVerificationExpires"] = *user.EmailVerificationExpires
	} else {
		unset["emailVerificationToken"] = ""
		unset["emailVerificationExpires"] = ""
	}

	update := bson.M{"$set": set}
	if len(unset) > 0 {
		update["$unset"] = unset
	}

	res, err := r.col.UpdateOne(ctx, bson.M{"_id": oid}, update)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return duplicateKeyError(err)
		}
		return fmt.Errorf("update user: %w", err)
	}
	if res.MatchedCount == 0 {
		return domain.ErrUserNotFound
	}
	return nil
}

// ConsumeVerificationToken finds and confirms in one round trip, so a token
// can only ever be redeemed once.
func (r *UserRepository) ConsumeVerificationToken(ctx context.Context, token string, now time.Time) (*domain.User, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	filter := bson.M{
		"emailVerificationToken":   token,
		"emailVerificationExpires": bson.M{"$gt": now},
	}
	update := mongo.Pipeline{
		{{Key: "$set", Value: bson.D{
			{Key: "email", Value: bson.D{{Key: "$ifNull", Value: bson.A{"$pendingEmail", "$email"}}}},
			{Key: "isEmailVerified", Value: true},
			{Key: "updatedAt", Value: now},
		}}},
		{{Key: "$unset", Value: bson.A{"pendingEmail", "emailVerificationToken", "emailVerificationExpires"}}},
	}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var doc userDoc
	if err := r.col.FindOneAndUpdate(ctx, filter, update, opts).Decode(&doc); err != nil {
		switch {
		case errors.Is(err, mongo.ErrNoDocuments):
			return nil, domain.ErrInvalidVerificationToken
		case mongo.IsDuplicateKeyError(err):
			return nil, duplicateKeyError(err)
		}
		return nil, fmt.Errorf("consume verification token: %w", err)
	}
	return doc.toDomain(), nil
}

// AddToWatchlist pushes entry only when no element with the same media type
// and id is present. A miss is either an unknown user or a duplicate.
func (r *UserRepository) AddToWatchlist(ctx context.Context, userID string, entry domain.WatchlistEntry) ([]domain.WatchlistEntry, error) {
	oid, ok := objectID(userID)
	if !ok {
		return nil, domain.ErrUserNotFound
	}

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	filter := bson.M{
		"_id": oid,
		"watchlist": bson.M{"$not": bson.M{"$elemMatch": bson.M{
			"mediaType": string(entry.MediaType),
			"mediaId":   entry.MediaID,
		}}},
	}
	update := bson.M{"$push": bson.M{"watchlist": toWatchlistDoc(entry)}}
	opts := options.FindOneAndUpdate().
		SetReturnDocument(options.After).
		SetProjection(bson.M{"watchlist": 1})

	var doc userDoc
	err := r.col.FindOneAndUpdate(ctx, filter, update, opts).Decode(&doc)
	if err == nil {
		return fromWatchlistDocs(doc.Watchlist), nil
	}
	if !errors.Is(err, mongo.ErrNoDocuments) {
		return nil, fmt.Errorf("add to watchlist: %w", err)
	}

	found, err := r.exists(ctx, bson.M{"_id": oid})
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, domain.ErrUserNotFound
	}
	return nil, domain.ErrWatchlistDuplicate
}

func (r *UserRepository) RemoveFromWatchlist(ctx context.Context, userID, mediaID string) ([]domain.WatchlistEntry, error) {
	oid, ok := objectID(userID)
	if !ok {
		return nil, domain.ErrUserNotFound
	}

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	update := bson.M{"$pull": bson.M{"watchlist": bson.M{"mediaId": mediaID}}}
	opts := options.FindOneAndUpdate().
		SetReturnDocument(options.After).
		SetProjection(bson.M{"watchlist": 1})

	var doc userDoc
	if err := r.col.FindOneAndUpdate(ctx, bson.M{"_id": oid}, update, opts).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrUserNotFound
		}
		return nil, fmt.Errorf("remove from watchlist: %w", err)
	}
	return fromWatchlistDocs(doc.Watchlist), nil
}

// EnsureIndexes creates the unique username and email indexes and the token lookup index.
func (r *UserRepository) EnsureIndexes(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	indexes := []mongo.IndexModel{
		{Keys: bson.D{{Key: "username", Value: 1}}, Options: options.Index().SetName(usernameIndex).SetUnique(true)},
		{Keys: bson.D{{Key: "email", Value: 1}}, Options: options.Index().SetName(emailIndex).SetUnique(true)},
		{Keys: bson.D{{Key: "emailVerificationToken", Value: 1}}, Options: options.Index().SetName(tokenIndex).SetSparse(true)},
	}

	_, err := r.col.Indexes().CreateMany(ctx, indexes)
	return err
}
