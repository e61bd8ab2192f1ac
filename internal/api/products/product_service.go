package products

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/patrickmn/go-cache"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/FACorreiaa/shophub-api/internal/types"
)

var _ ProductService = (*ProductServiceImpl)(nil)

type ProductService interface {
	ListProducts(ctx context.Context, filter types.ProductFilter) ([]types.Product, error)
	ListCategories(ctx context.Context) ([]string, error)
	GetProduct(ctx context.Context, id string) (*types.Product, error)
	CreateProduct(ctx context.Context, createdBy string, params types.ProductParams) (*types.Product, error)
	ReplaceProduct(ctx context.Context, id string, params types.ProductParams) (*types.Product, error)
	PatchProduct(ctx context.Context, id string, patch types.ProductPatch) (*types.Product, error)
	DeleteProduct(ctx context.Context, id string) error
}

// ProductServiceImpl serves catalogue reads from a cache that every write
// flushes. A read only fills the cache if no write finished while it was
// reading from the store.
type ProductServiceImpl struct {
	logger *slog.Logger
	repo   ProductRepo
	cache  *cache.Cache

	mu         sync.RWMutex
	generation uint64
}

func NewProductService(repo ProductRepo, c *cache.Cache, logger *slog.Logger) *ProductServiceImpl {
	return &ProductServiceImpl{
		logger: logger,
		repo:   repo,
		cache:  c,
	}
}

func (s *ProductServiceImpl) ListProducts(ctx context.Context, filter types.ProductFilter) ([]types.Product, error) {
	ctx, span := otel.Tracer("ProductService").Start(ctx, "ListProducts", trace.WithAttributes(
		attribute.String("category", filter.Category),
		attribute.Int("limit", filter.Limit),
		attribute.String("sort", string(filter.Sort)),
	))
	defer span.End()

	cacheKey := fmt.Sprintf("products:%s:%d:%s", filter.Category, filter.Limit, filter.Sort)
	if cached, found := s.cache.Get(cacheKey); found {
		span.SetStatus(codes.Ok, "Served from cache")
		return cached.([]types.Product), nil
	}

	gen := s.currentGeneration()
	products, err := s.repo.List(ctx, filter)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "list failed")
		return nil, fmt.Errorf("failed to list products: %w", err)
	}
	s.fill(gen, cacheKey, products)
	span.SetStatus(codes.Ok, "Served from database")
	return products, nil
}

func (s *ProductServiceImpl) ListCategories(ctx context.Context) ([]string, error) {
	ctx, span := otel.Tracer("ProductService").Start(ctx, "ListCategories")
	defer span.End()

	const cacheKey = "categories"
	if cached, found := s.cache.Get(cacheKey); found {
		span.SetStatus(codes.Ok, "Served from cache")
		return cached.([]string), nil
	}

	gen := s.currentGeneration()
	categories, err := s.repo.Categories(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "categories failed")
		return nil, fmt.Errorf("failed to list categories: %w", err)
	}
	s.fill(gen, cacheKey, categories)
	span.SetStatus(codes.Ok, "Served from database")
	return categories, nil
}

func (s *ProductServiceImpl) GetProduct(ctx context.Context, id string) (*types.Product, error) {
	ctx, span := otel.Tracer("ProductService").Start(ctx, "GetProduct", trace.WithAttributes(
		attribute.String("product.id", id),
	))
	defer span.End()

	cacheKey := "product:" + id
	if cached, found := s.cache.Get(cacheKey); found {
		p := cached.(types.Product)
		span.SetStatus(codes.Ok, "Served from cache")
		return &p, nil
	}

	gen := s.currentGeneration()
	p, err := s.repo.GetByID(ctx, id)
	if err != nil {
		span.SetStatus(codes.Error, "get failed")
		return nil, fmt.Errorf("failed to get product: %w", err)
	}
	s.fill(gen, cacheKey, *p)
	span.SetStatus(codes.Ok, "Served from database")
	return p, nil
}

func (s *ProductServiceImpl) CreateProduct(ctx context.Context, createdBy string, params types.ProductParams) (*types.Product, error) {
	ctx, span := otel.Tracer("ProductService").Start(ctx, "CreateProduct", trace.WithAttributes(
		attribute.String("user.id", createdBy),
	))
	defer span.End()

	p, err := s.repo.Create(ctx, createdBy, params)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "create failed")
		return nil, fmt.Errorf("failed to create product: %w", err)
	}
	s.invalidate()
	s.logger.InfoContext(ctx, "Product created", slog.String("productID", p.ID), slog.String("createdBy", createdBy))
	span.SetStatus(codes.Ok, "created")
	return p, nil
}

func (s *ProductServiceImpl) ReplaceProduct(ctx context.Context, id string, params types.ProductParams) (*types.Product, error) {
	ctx, span := otel.Tracer("ProductService").Start(ctx, "ReplaceProduct", trace.WithAttributes(
		attribute.String("product.id", id),
	))
	defer span.End()

	p, err := s.repo.Replace(ctx, id, params)
	if err != nil {
		span.SetStatus(codes.Error, "replace failed")
		return nil, fmt.Errorf("failed to replace product: %w", err)
	}
	s.invalidate()
	span.SetStatus(codes.Ok, "replaced")
	return p, nil
}

func (s *ProductServiceImpl) PatchProduct(ctx context.Context, id string, patch types.ProductPatch) (*types.Product, error) {
	ctx, span := otel.Tracer("ProductService").Start(ctx, "PatchProduct", trace.WithAttributes(
		attribute.String("product.id", id),
	))
	defer span.End()

	p, err := s.repo.Patch(ctx, id, patch)
	if err != nil {
		span.SetStatus(codes.Error, "patch failed")
		return nil, fmt.Errorf("failed to patch product: %w", err)
	}
	s.invalidate()
	span.SetStatus(codes.Ok, "patched")
	return p, nil
}

func (s *ProductServiceImpl) DeleteProduct(ctx context.Context, id string) error {
	ctx, span := otel.Tracer("ProductService").Start(ctx, "DeleteProduct", trace.WithAttributes(
		attribute.String("product.id", id),
	))
	defer span.End()

	if err := s.repo.Delete(ctx, id); err != nil {
		span.SetStatus(codes.Error, "delete failed")
		return fmt.Errorf("failed to delete product: %w", err)
	}
	s.invalidate()
	s.logger.InfoContext(ctx, "Product deleted", slog.String("productID", id))
	span.SetStatus(codes.Ok, "deleted")
	return nil
}

func (s *ProductServiceImpl) currentGeneration() uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.generation
}

// fill caches v unless a write has invalidated the cache since gen was read.
func (s *ProductServiceImpl) fill(gen uint64, key string, v any) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.generation == gen {
		s.cache.Set(key, v, cache.DefaultExpiration)
	}
}

func (s *ProductServiceImpl) invalidate() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.generation++
	s.cache.Flush()
}
