package auth

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo/integration/mtest"

	"github.com/FACorreiaa/shophub-api/internal/types"
)

func newMockMongoUserRepo(mt *mtest.T) *MongoUserRepo {
	mt.AddMockResponses(mtest.CreateSuccessResponse())
	repo, err := NewMongoUserRepo(context.Background(), mt.DB, testLogger())
	require.NoError(mt, err)
	return repo
}

func TestMongoUserRepo(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))
	ns := func(mt *mtest.T) string { return mt.DB.Name() + ".users" }

	mt.Run("get by id", func(mt *mtest.T) {
		repo := newMockMongoUserRepo(mt)
		id := primitive.NewObjectID()
		mt.AddMockResponses(mtest.CreateCursorResponse(1, ns(mt), mtest.FirstBatch, bson.D{
			{Key: "_id", Value: id},
			{Key: "email", Value: "jane@example.com"},
			{Key: "username", Value: "jane"},
			{Key: "password", Value: "$2a$10$digest"},
			{Key: "firstname", Value: "Jane"},
			{Key: "lastname", Value: "Doe"},
			{Key: "address", Value: bson.D{{Key: "city", Value: "Lisbon"}}},
			{Key: "createdAt", Value: time.Now()},
		}))

		user, err := repo.GetUserByID(context.Background(), id.Hex())
		require.NoError(mt, err)
		assert.Equal(mt, id.Hex(), user.ID)
		assert.Equal(mt, "$2a$10$digest", user.PasswordHash)
		require.NotNil(mt, user.Address)
		assert.Equal(mt, "Lisbon", user.Address.City)
	})

	mt.Run("malformed id is not found", func(mt *mtest.T) {
		repo := newMockMongoUserRepo(mt)
		_, err := repo.GetUserByID(context.Background(), "not-an-object-id")
		assert.Equal(mt, types.ErrNotFound, err)
	})

	mt.Run("unknown email", func(mt *mtest.T) {
		repo := newMockMongoUserRepo(mt)
		mt.AddMockResponses(mtest.CreateCursorResponse(0, ns(mt), mtest.FirstBatch))

		_, err := repo.GetUserByEmail(context.Background(), "ghost@example.com")
		assert.Equal(mt, types.ErrNotFound, err)
	})

	mt.Run("find falls back to username", func(mt *mtest.T) {
		repo := newMockMongoUserRepo(mt)
		mt.AddMockResponses(
			mtest.CreateCursorResponse(0, ns(mt), mtest.FirstBatch),
			mtest.CreateCursorResponse(1, ns(mt), mtest.FirstBatch, bson.D{
				{Key: "_id", Value: primitive.NewObjectID()},
				{Key: "email", Value: "other@example.com"},
				{Key: "username", Value: "jane"},
			}),
		)

		user, err := repo.FindByEmailOrUsername(context.Background(), "jane@example.com", "jane")
		require.NoError(mt, err)
		assert.Equal(mt, "other@example.com", user.Email)
	})

	mt.Run("create", func(mt *mtest.T) {
		repo := newMockMongoUserRepo(mt)
		mt.AddMockResponses(mtest.CreateSuccessResponse())

		user, err := repo.CreateUser(context.Background(), types.NewUserParams{Email: "jane@example.com", Username: "jane"})
		require.NoError(mt, err)
		_, err = primitive.ObjectIDFromHex(user.ID)
		assert.NoError(mt, err)
	})

	duplicates := map[string]string{
		"email":    "E11000 duplicate key error collection: shophub.users index: email_1 dup key: { email: \"jane@example.com\" }",
		"username": "E11000 duplicate key error collection: shophub.users index: username_1 dup key: { username: \"jane\" }",
	}
	for field, msg := range duplicates {
		mt.Run("duplicate "+field, func(mt *mtest.T) {
			repo := newMockMongoUserRepo(mt)
			mt.AddMockResponses(mtest.CreateWriteErrorsResponse(mtest.WriteError{Index: 0, Code: 11000, Message: msg}))

			_, err := repo.CreateUser(context.Background(), types.NewUserParams{Email: "jane@example.com", Username: "jane"})
			var conflict *types.ConflictError
			require.ErrorAs(mt, err, &conflict)
			assert.Equal(mt, field, conflict.Field)
		})
	}
}
