package products

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/FACorreiaa/shophub-api/app/observability/metrics"
	"github.com/FACorreiaa/shophub-api/internal/types"
)

var _ ProductRepo = (*MongoProductRepo)(nil)

type mongoProduct struct {
	ID          primitive.ObjectID  `bson:"_id,omitempty"`
	Title       string              `bson:"title"`
	Price       float64             `bson:"price"`
	Description string              `bson:"description"`
	Category    string              `bson:"category"`
	Image       string              `bson:"image"`
	Rating      types.Rating        `bson:"rating"`
	CreatedBy   *primitive.ObjectID `bson:"createdBy,omitempty"`
	CreatedAt   time.Time           `bson:"createdAt"`
	UpdatedAt   time.Time           `bson:"updatedAt"`
}

func (m *mongoProduct) toProduct() types.Product {
	p := types.Product{
		ID:          m.ID.Hex(),
		Title:       m.Title,
		Price:       m.Price,
		Description: m.Description,
		Category:    m.Category,
		Image:       m.Image,
		Rating:      m.Rating,
		CreatedAt:   m.CreatedAt,
		UpdatedAt:   m.UpdatedAt,
	}
	if m.CreatedBy != nil {
		p.CreatedBy = m.CreatedBy.Hex()
	}
	return p
}

type MongoProductRepo struct {
	logger     *slog.Logger
	collection *mongo.Collection
}

// NewMongoProductRepo returns a repository on the "products" collection.
func NewMongoProductRepo(ctx context.Context, db *mongo.Database, logger *slog.Logger) (*MongoProductRepo, error) {
	collection := db.Collection("products")

	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	_, err := collection.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "category", Value: 1}}},
		{Keys: bson.D{{Key: "createdAt", Value: -1}}},
	})
	if err != nil {
		return nil, fmt.Errorf("create product indexes: %w", err)
	}
	return &MongoProductRepo{logger: logger, collection: collection}, nil
}

func (r *MongoProductRepo) List(ctx context.Context, filter types.ProductFilter) ([]types.Product, error) {
	query := bson.M{}
	if filter.Category != "" {
		query["category"] = filter.Category
	}
	direction := -1
	if filter.Sort == types.SortAsc {
		direction = 1
	}
	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: direction}, {Key: "_id", Value: direction}})
	if filter.Limit > 0 {
		opts.SetLimit(int64(filter.Limit))
	}

	start := time.Now()
	cursor, err := r.collection.Find(ctx, query, opts)
	if err != nil {
		metrics.Get().RecordQuery(ctx, "products.list", time.Since(start), err)
		r.logger.ErrorContext(ctx, "Failed to list products", slog.Any("error", err))
		return nil, fmt.Errorf("failed to list products: %w", err)
	}
	defer cursor.Close(ctx)

	var docs []mongoProduct
	err = cursor.All(ctx, &docs)
	metrics.Get().RecordQuery(ctx, "products.list", time.Since(start), err)
	if err != nil {
		return nil, fmt.Errorf("failed to decode products: %w", err)
	}
	products := make([]types.Product, 0, len(docs))
	for i := range docs {
		products = append(products, docs[i].toProduct())
	}
	return products, nil
}

func (r *MongoProductRepo) Categories(ctx context.Context) ([]string, error) {
	start := time.Now()
	values, err := r.collection.Distinct(ctx, "category", bson.D{})
	metrics.Get().RecordQuery(ctx, "products.categories", time.Since(start), err)
	if err != nil {
		return nil, fmt.Errorf("failed to list categories: %w", err)
	}
	categories := make([]string, 0, len(values))
	for _, v := range values {
		if s, ok := v.(string); ok {
			categories = append(categories, s)
		}
	}
	sort.Strings(categories)
	return categories, nil
}

func (r *MongoProductRepo) GetByID(ctx context.Context, id string) (*types.Product, error) {
	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, types.ErrInvalidID
	}
	start := time.Now()
	var doc mongoProduct
	err = r.collection.FindOne(ctx, bson.M{"_id": objectID}).Decode(&doc)
	return r.result(ctx, "products.get", start, &doc, err)
}

func (r *MongoProductRepo) Create(ctx context.Context, createdBy string, params types.ProductParams) (*types.Product, error) {
	now := time.Now().UTC()
	doc := mongoProduct{
		ID:          primitive.NewObjectID(),
		Title:       params.Title,
		Price:       params.Price,
		Description: params.Description,
		Category:    params.Category,
		Image:       params.Image,
		Rating:      params.Rating,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if owner, err := primitive.ObjectIDFromHex(createdBy); err == nil {
		doc.CreatedBy = &owner
	}

	start := time.Now()
	_, err := r.collection.InsertOne(ctx, doc)
	metrics.Get().RecordQuery(ctx, "products.create", time.Since(start), err)
	if err != nil {
		r.logger.ErrorContext(ctx, "Failed to insert product", slog.Any("error", err))
		return nil, fmt.Errorf("failed to insert product: %w", err)
	}
	p := doc.toProduct()
	return &p, nil
}

func (r *MongoProductRepo) Replace(ctx context.Context, id string, params types.ProductParams) (*types.Product, error) {
	return r.update(ctx, "products.replace", id, bson.M{
		"title":       params.Title,
		"price":       params.Price,
		"description": params.Description,
		"category":    params.Category,
		"image":       params.Image,
		"rating":      params.Rating,
	})
}

func (r *MongoProductRepo) Patch(ctx context.Context, id string, patch types.ProductPatch) (*types.Product, error) {
	set := bson.M{}
	if patch.Title != nil {
		set["title"] = *patch.Title
	}
	if patch.Price != nil {
		set["price"] = *patch.Price
	}
	if patch.Description != nil {
		set["description"] = *patch.Description
	}
	if patch.Category != nil {
		set["category"] = *patch.Category
	}
	if patch.Image != nil {
		set["image"] = *patch.Image
	}
	if patch.Rating != nil {
		set["rating"] = *patch.Rating
	}
	return r.update(ctx, "products.patch", id, set)
}

func (r *MongoProductRepo) Delete(ctx context.Context, id string) error {
	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return types.ErrInvalidID
	}
	start := time.Now()
	res, err := r.collection.DeleteOne(ctx, bson.M{"_id": objectID})
	metrics.Get().RecordQuery(ctx, "products.delete", time.Since(start), err)
	if err != nil {
		r.logger.ErrorContext(ctx, "Failed to delete product", slog.String("id", id), slog.Any("error", err))
		return fmt.Errorf("failed to delete product: %w", err)
	}
	if res.DeletedCount == 0 {
		return types.ErrNotFound
	}
	return nil
}

func (r *MongoProductRepo) update(ctx context.Context, op, id string, set bson.M) (*types.Product, error) {
	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, types.ErrInvalidID
	}
	set["updatedAt"] = time.Now().UTC()

	start := time.Now()
	var doc mongoProduct
	err = r.collection.FindOneAndUpdate(ctx,
		bson.M{"_id": objectID},
		bson.M{"$set": set},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&doc)
	return r.result(ctx, op, start, &doc, err)
}

func (r *MongoProductRepo) result(ctx context.Context, op string, start time.Time, doc *mongoProduct, err error) (*types.Product, error) {
	if errors.Is(err, mongo.ErrNoDocuments) {
		metrics.Get().RecordQuery(ctx, op, time.Since(start), nil)
		return nil, types.ErrNotFound
	}
	metrics.Get().RecordQuery(ctx, op, time.Since(start), err)
	if err != nil {
		r.logger.ErrorContext(ctx, "Product query failed", slog.String("op", op), slog.Any("error", err))
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	p := doc.toProduct()
	return &p, nil
}
