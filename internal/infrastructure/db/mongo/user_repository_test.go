package mongo

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo/integration/mtest"

	"github.com/reelbase/reelbase-api/internal/core/domain"
)

func newMockRepo(mt *mtest.T) *UserRepository {
	return &UserRepository{col: mt.Coll}
}

func namespace(mt *mtest.T) string {
	return mt.Coll.Database().Name() + "." + mt.Coll.Name()
}

func TestUserRepository_ConsumeVerificationToken(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	mt.Run("promotes pending email in one update", func(mt *mtest.T) {
		oid := primitive.NewObjectID()
		mt.AddMockResponses(mtest.CreateSuccessResponse(bson.E{Key: "value", Value: bson.D{
			{Key: "_id", Value: oid},
			{Key: "username", Value: "neo"},
			{Key: "email", Value: "new@x.com"},
			{Key: "isEmailVerified", Value: true},
		}}))

		user, err := newMockRepo(mt).ConsumeVerificationToken(context.Background(), "tok", now)
		require.NoError(mt, err)
		assert.Equal(mt, oid.Hex(), user.ID)
		assert.Equal(mt, "new@x.com", user.Email)
		assert.True(mt, user.IsEmailVerified)
		assert.Nil(mt, user.PendingEmail)

		cmd := mt.GetStartedEvent().Command
		assert.Equal(mt, "tok", cmd.Lookup("query", "emailVerificationToken").StringValue())
		assert.Equal(mt, now, cmd.Lookup("query", "emailVerificationExpires", "$gt").Time().UTC())

		stages, err := cmd.Lookup("update").Array().Values()
		require.NoError(mt, err)
		require.Len(mt, stages, 2)
		ifNull, err := stages[0].Document().LookupErr("$set", "email", "$ifNull")
		require.NoError(mt, err)
		args, err := ifNull.Array().Values()
		require.NoError(mt, err)
		require.Len(mt, args, 2)
		assert.Equal(mt, "$pendingEmail", args[0].StringValue())
		assert.Equal(mt, "$email", args[1].StringValue())
		assert.True(mt, stages[0].Document().Lookup("$set", "isEmailVerified").Boolean())

		unset, err := stages[1].Document().Lookup("$unset").Array().Values()
		require.NoError(mt, err)
		var fields []string
		for _, v := range unset {
			fields = append(fields, v.StringValue())
		}
		assert.ElementsMatch(mt, []string{"pendingEmail", "emailVerificationToken", "emailVerificationExpires"}, fields)
	})

	mt.Run("unknown or expired token", func(mt *mtest.T) {
		mt.AddMockResponses(mtest.CreateSuccessResponse())

		_, err := newMockRepo(mt).ConsumeVerificationToken(context.Background(), "tok", now)
		assert.ErrorIs(mt, err, domain.ErrInvalidVerificationToken)
	})
}

func TestUserRepository_AddToWatchlist(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))
	added := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	entry := domain.WatchlistEntry{
		MediaType: domain.MediaMovie,
		MediaID:   "603",
		Title:     "The Matrix",
		AddedAt:   added,
	}

	mt.Run("pushes when absent", func(mt *mtest.T) {
		oid := primitive.NewObjectID()
		mt.AddMockResponses(mtest.CreateSuccessResponse(bson.E{Key: "value", Value: bson.D{
			{Key: "_id", Value: oid},
			{Key: "watchlist", Value: bson.A{bson.D{
				{Key: "mediaType", Value: "movie"},
				{Key: "mediaId", Value: "603"},
				{Key: "title", Value: "The Matrix"},
				{Key: "added_at", Value: added},
			}}},
		}}))

		list, err := newMockRepo(mt).AddToWatchlist(context.Background(), oid.Hex(), entry)
		require.NoError(mt, err)
		require.Len(mt, list, 1)
		assert.Equal(mt, "603", list[0].MediaID)
		assert.Equal(mt, domain.MediaMovie, list[0].MediaType)

		cmd := mt.GetStartedEvent().Command
		assert.Equal(mt, oid, cmd.Lookup("query", "_id").ObjectID())
		assert.Equal(mt, "movie", cmd.Lookup("query", "watchlist", "$not", "$elemMatch", "mediaType").StringValue())
		assert.Equal(mt, "603", cmd.Lookup("query", "watchlist", "$not", "$elemMatch", "mediaId").StringValue())
		assert.Equal(mt, "603", cmd.Lookup("update", "$push", "watchlist", "mediaId").StringValue())
		assert.Equal(mt, "The Matrix", cmd.Lookup("update", "$push", "watchlist", "title").StringValue())
	})

	mt.Run("duplicate", func(mt *mtest.T) {
		oid := primitive.NewObjectID()
		mt.AddMockResponses(
			mtest.CreateSuccessResponse(),
			mtest.CreateCursorResponse(0, namespace(mt), mtest.FirstBatch, bson.D{{Key: "n", Value: int32(1)}}),
		)

		_, err := newMockRepo(mt).AddToWatchlist(context.Background(), oid.Hex(), entry)
		assert.ErrorIs(mt, err, domain.ErrWatchlistDuplicate)
	})

	mt.Run("unknown user", func(mt *mtest.T) {
		mt.AddMockResponses(
			mtest.CreateSuccessResponse(),
			mtest.CreateCursorResponse(0, namespace(mt), mtest.FirstBatch),
		)

		_, err := newMockRepo(mt).AddToWatchlist(context.Background(), primitive.NewObjectID().Hex(), entry)
		assert.ErrorIs(mt, err, domain.ErrUserNotFound)
	})

	mt.Run("malformed id never reaches the server", func(mt *mtest.T) {
		_, err := newMockRepo(mt).AddToWatchlist(context.Background(), "nope", entry)
		assert.ErrorIs(mt, err, domain.ErrUserNotFound)
		assert.Nil(mt, mt.GetStartedEvent())
	})
}

func TestUserRepository_RemoveFromWatchlist(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))

	mt.Run("pulls by media id", func(mt *mtest.T) {
		oid := primitive.NewObjectID()
		mt.AddMockResponses(mtest.CreateSuccessResponse(bson.E{Key: "value", Value: bson.D{
			{Key: "_id", Value: oid},
			{Key: "watchlist", Value: bson.A{}},
		}}))

		list, err := newMockRepo(mt).RemoveFromWatchlist(context.Background(), oid.Hex(), "603")
		require.NoError(mt, err)
		assert.Empty(mt, list)

		cmd := mt.GetStartedEvent().Command
		assert.Equal(mt, oid, cmd.Lookup("query", "_id").ObjectID())
		pull := cmd.Lookup("update", "$pull", "watchlist").Document()
		assert.Equal(mt, "603", pull.Lookup("mediaId").StringValue())
		_, err = pull.LookupErr("mediaType")
		assert.Error(mt, err)
	})

	mt.Run("unknown user", func(mt *mtest.T) {
		mt.AddMockResponses(mtest.CreateSuccessResponse())

		_, err := newMockRepo(mt).RemoveFromWatchlist(context.Background(), primitive.NewObjectID().Hex(), "603")
		assert.ErrorIs(mt, err, domain.ErrUserNotFound)
	})
}

func TestUserRepository_CreateDuplicateKey(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))

	tests := []struct {
		name    string
		message string
		wantErr error
	}{
		{
			name:    "email",
			message: "E11000 duplicate key error collection: reelbase.users index: uniq_email dup key: { email: \"a@x.com\" }",
			wantErr: domain.ErrEmailTaken,
		},
		{
			name:    "username",
			message: "E11000 duplicate key error collection: reelbase.users index: uniq_username dup key: { username: \"neo\" }",
			wantErr: domain.ErrUsernameTaken,
		},
	}

	for _, tt := range tests {
		mt.Run(tt.name, func(mt *mtest.T) {
			mt.AddMockResponses(mtest.CreateWriteErrorsResponse(mtest.WriteError{
				Index:   0,
				Code:    11000,
				Message: tt.message,
			}))

			_, err := newMockRepo(mt).Create(context.Background(), &domain.User{Username: "neo", Email: "a@x.com"})
			assert.ErrorIs(mt, err, tt.wantErr)
		})
	}
}
