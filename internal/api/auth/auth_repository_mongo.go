package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/FACorreiaa/shophub-api/app/observability/metrics"
	"github.com/FACorreiaa/shophub-api/internal/types"
)

var _ UserRepo = (*MongoUserRepo)(nil)

type mongoUser struct {
	ID           primitive.ObjectID `bson:"_id,omitempty"`
	Email        string             `bson:"email"`
	Username     string             `bson:"username"`
	PasswordHash string             `bson:"password"`
	Firstname    string             `bson:"firstname"`
	Lastname     string             `bson:"lastname"`
	Phone        string             `bson:"phone"`
	Address      *types.Address     `bson:"address,omitempty"`
	CreatedAt    time.Time          `bson:"createdAt"`
	UpdatedAt    time.Time          `bson:"updatedAt"`
}

func (m *mongoUser) toUser() *types.UserAuth {
	return &types.UserAuth{
		ID:           m.ID.Hex(),
		Email:        m.Email,
		Username:     m.Username,
		PasswordHash: m.PasswordHash,
		Firstname:    m.Firstname,
		Lastname:     m.Lastname,
		Phone:        m.Phone,
		Address:      m.Address,
		CreatedAt:    m.CreatedAt,
		UpdatedAt:    m.UpdatedAt,
	}
}

type MongoUserRepo struct {
	logger     *slog.Logger
	collection *mongo.Collection
}

// NewMongoUserRepo returns a repository on the "users" collection and makes
// sure the unique indexes on email and username exist.
func NewMongoUserRepo(ctx context.Context, db *mongo.Database, logger *slog.Logger) (*MongoUserRepo, error) {
	collection := db.Collection("users")

	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	_, err := collection.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "email", Value: 1}}, Options: options.Index().SetUnique(true).SetName("email_1")},
		{Keys: bson.D{{Key: "username", Value: 1}}, Options: options.Index().SetUnique(true).SetName("username_1")},
	})
	if err != nil {
		return nil, fmt.Errorf("create user indexes: %w", err)
	}

	return &MongoUserRepo{
		logger:     logger,
		collection: collection,
	}, nil
}

func (r *MongoUserRepo) FindByEmailOrUsername(ctx context.Context, email, username string) (*types.UserAuth, error) {
	// email first, so the caller reports the email collision when both match
	user, err := r.findOne(ctx, "FindByEmailOrUsername", bson.M{"email": email})
	if !errors.Is(err, types.ErrNotFound) {
		return user, err
	}
	return r.findOne(ctx, "FindByEmailOrUsername", bson.M{"username": username})
}

func (r *MongoUserRepo) GetUserByEmail(ctx context.Context, email string) (*types.UserAuth, error) {
	return r.findOne(ctx, "GetUserByEmail", bson.M{"email": email})
}

func (r *MongoUserRepo) GetUserByID(ctx context.Context, userID string) (*types.UserAuth, error) {
	objectID, err := primitive.ObjectIDFromHex(userID)
	if err != nil {
		return nil, types.ErrNotFound
	}
	return r.findOne(ctx, "GetUserByID", bson.M{"_id": objectID})
}

func (r *MongoUserRepo) CreateUser(ctx context.Context, params types.NewUserParams) (*types.UserAuth, error) {
	now := time.Now().UTC()
	doc := mongoUser{
		ID:           primitive.NewObjectID(),
		Email:        params.Email,
		Username:     params.Username,
		PasswordHash: params.PasswordHash,
		Firstname:    params.Firstname,
		Lastname:     params.Lastname,
		Phone:        params.Phone,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	start := time.Now()
	_, err := r.collection.InsertOne(ctx, doc)
	metrics.Get().RecordQuery(ctx, "users.create", time.Since(start), err)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return nil, duplicateKeyConflict(err)
		}
		r.logger.ErrorContext(ctx, "Failed to insert user", slog.Any("error", err))
		return nil, fmt.Errorf("failed to insert user: %w", err)
	}
	return doc.toUser(), nil
}

func (r *MongoUserRepo) findOne(ctx context.Context, op string, filter bson.M) (*types.UserAuth, error) {
	start := time.Now()
	var doc mongoUser
	err := r.collection.FindOne(ctx, filter).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		metrics.Get().RecordQuery(ctx, "users."+op, time.Since(start), nil)
		return nil, types.ErrNotFound
	}
	metrics.Get().RecordQuery(ctx, "users."+op, time.Since(start), err)
	if err != nil {
		r.logger.ErrorContext(ctx, "User query failed", slog.String("op", op), slog.Any("error", err))
		return nil, fmt.Errorf("%s: query failed: %w", op, err)
	}
	return doc.toUser(), nil
}

// duplicateKeyConflict names the field whose unique index rejected the write.
func duplicateKeyConflict(err error) error {
	msg := err.Error()
	var we mongo.WriteException
	if errors.As(err, &we) && len(we.WriteErrors) > 0 {
		msg = we.WriteErrors[0].Message
	}
	switch {
	case strings.Contains(msg, "email"):
		return &types.ConflictError{Field: "email"}
	case strings.Contains(msg, "username"):
		return &types.ConflictError{Field: "username"}
	default:
		return &types.ConflictError{Field: "user"}
	}
}
