package products

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	database "github.com/FACorreiaa/shophub-api/app/db"
	"github.com/FACorreiaa/shophub-api/app/observability/metrics"
	"github.com/FACorreiaa/shophub-api/internal/types"
)

var _ ProductRepo = (*PostgresProductRepo)(nil)

// ProductRepo persists the catalogue. A malformed id is types.ErrInvalidID,
// a well-formed id with no product behind it is types.ErrNotFound.
type ProductRepo interface {
	List(ctx context.Context, filter types.ProductFilter) ([]types.Product, error)
	Categories(ctx context.Context) ([]string, error)
	GetByID(ctx context.Context, id string) (*types.Product, error)
	Create(ctx context.Context, createdBy string, params types.ProductParams) (*types.Product, error)
	Replace(ctx context.Context, id string, params types.ProductParams) (*types.Product, error)
	Patch(ctx context.Context, id string, patch types.ProductPatch) (*types.Product, error)
	Delete(ctx context.Context, id string) error
}

const productColumns = `id::text, title, price, description, category, image, rating_rate, rating_count,
	COALESCE(created_by::text, ''), created_at, updated_at`

type PostgresProductRepo struct {
	logger *slog.Logger
	pgpool database.Querier
}

func NewPostgresProductRepo(pgpool database.Querier, logger *slog.Logger) *PostgresProductRepo {
	return &PostgresProductRepo{
		logger: logger,
		pgpool: pgpool,
	}
}

func (r *PostgresProductRepo) List(ctx context.Context, filter types.ProductFilter) ([]types.Product, error) {
	var (
		query strings.Builder
		args  []any
	)
	query.WriteString(`SELECT ` + productColumns + ` FROM products`)
	if filter.Category != "" {
		args = append(args, filter.Category)
		fmt.Fprintf(&query, ` WHERE category = $%d`, len(args))
	}
	if filter.Sort == types.SortAsc {
		query.WriteString(` ORDER BY created_at ASC`)
	} else {
		query.WriteString(` ORDER BY created_at DESC`)
	}
	if filter.Limit > 0 {
		args = append(args, filter.Limit)
		fmt.Fprintf(&query, ` LIMIT $%d`, len(args))
	}

	start := time.Now()
	rows, err := r.pgpool.Query(ctx, query.String(), args...)
	if err != nil {
		metrics.Get().RecordQuery(ctx, "products.list", time.Since(start), err)
		r.logger.ErrorContext(ctx, "Failed to list products", slog.Any("error", err))
		return nil, fmt.Errorf("failed to list products: %w", err)
	}
	defer rows.Close()

	products := []types.Product{}
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan product row: %w", err)
		}
		products = append(products, *p)
	}
	err = rows.Err()
	metrics.Get().RecordQuery(ctx, "products.list", time.Since(start), err)
	if err != nil {
		return nil, fmt.Errorf("error iterating product rows: %w", err)
	}
	return products, nil
}

func (r *PostgresProductRepo) Categories(ctx context.Context) ([]string, error) {
	start := time.Now()
	rows, err := r.pgpool.Query(ctx, `SELECT DISTINCT category FROM products ORDER BY category`)
	if err != nil {
		metrics.Get().RecordQuery(ctx, "products.categories", time.Since(start), err)
		return nil, fmt.Errorf("failed to list categories: %w", err)
	}
	categories, err := pgx.CollectRows(rows, pgx.RowTo[string])
	metrics.Get().RecordQuery(ctx, "products.categories", time.Since(start), err)
	if err != nil {
		return nil, fmt.Errorf("failed to collect categories: %w", err)
	}
	return categories, nil
}

func (r *PostgresProductRepo) GetByID(ctx context.Context, id string) (*types.Product, error) {
	if err := checkUUID(id); err != nil {
		return nil, err
	}
	return r.queryOne(ctx, "products.get", `SELECT `+productColumns+` FROM products WHERE id = $1`, id)
}

func (r *PostgresProductRepo) Create(ctx context.Context, createdBy string, params types.ProductParams) (*types.Product, error) {
	var owner any
	if _, err := uuid.Parse(createdBy); err == nil {
		owner = createdBy
	}
	return r.queryOne(ctx, "products.create",
		`INSERT INTO products (title, price, description, category, image, rating_rate, rating_count, created_by)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		 RETURNING `+productColumns,
		params.Title, params.Price, params.Description, params.Category, params.Image,
		params.Rating.Rate, params.Rating.Count, owner)
}

func (r *PostgresProductRepo) Replace(ctx context.Context, id string, params types.ProductParams) (*types.Product, error) {
	if err := checkUUID(id); err != nil {
		return nil, err
	}
	return r.queryOne(ctx, "products.replace",
		`UPDATE products
		 SET title = $2, price = $3, description = $4, category = $5, image = $6,
		     rating_rate = $7, rating_count = $8, updated_at = NOW()
		 WHERE id = $1
		 RETURNING `+productColumns,
		id, params.Title, params.Price, params.Description, params.Category, params.Image,
		params.Rating.Rate, params.Rating.Count)
}

func (r *PostgresProductRepo) Patch(ctx context.Context, id string, patch types.ProductPatch) (*types.Product, error) {
	if err := checkUUID(id); err != nil {
		return nil, err
	}
	var rate *float64
	var count *int
	if patch.Rating != nil {
		rate, count = &patch.Rating.Rate, &patch.Rating.Count
	}
	return r.queryOne(ctx, "products.patch",
		`UPDATE products
		 SET title        = COALESCE($2, title),
		     price        = COALESCE($3, price),
		     description  = COALESCE($4, description),
		     category     = COALESCE($5, category),
		     image        = COALESCE($6, image),
		     rating_rate  = COALESCE($7, rating_rate),
		     rating_count = COALESCE($8, rating_count),
		     updated_at   = NOW()
		 WHERE id = $1
		 RETURNING `+productColumns,
		id, patch.Title, patch.Price, patch.Description, patch.Category, patch.Image, rate, count)
}

func (r *PostgresProductRepo) Delete(ctx context.Context, id string) error {
	if err := checkUUID(id); err != nil {
		return err
	}
	start := time.Now()
	tag, err := r.pgpool.Exec(ctx, `DELETE FROM products WHERE id = $1`, id)
	metrics.Get().RecordQuery(ctx, "products.delete", time.Since(start), err)
	if err != nil {
		r.logger.ErrorContext(ctx, "Failed to delete product", slog.String("id", id), slog.Any("error", err))
		return fmt.Errorf("failed to delete product: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return types.ErrNotFound
	}
	return nil
}

func (r *PostgresProductRepo) queryOne(ctx context.Context, op, query string, args ...any) (*types.Product, error) {
	start := time.Now()
	p, err := scanProduct(r.pgpool.QueryRow(ctx, query, args...))
	if errors.Is(err, pgx.ErrNoRows) {
		metrics.Get().RecordQuery(ctx, op, time.Since(start), nil)
		return nil, types.ErrNotFound
	}
	metrics.Get().RecordQuery(ctx, op, time.Since(start), err)
	if err != nil {
		r.logger.ErrorContext(ctx, "Product query failed", slog.String("op", op), slog.Any("error", err))
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return p, nil
}

func scanProduct(row pgx.Row) (*types.Product, error) {
	var p types.Product
	err := row.Scan(&p.ID, &p.Title, &p.Price, &p.Description, &p.Category, &p.Image,
		&p.Rating.Rate, &p.Rating.Count, &p.CreatedBy, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func checkUUID(id string) error {
	if _, err := uuid.Parse(id); err != nil {
		return types.ErrInvalidID
	}
	return nil
}
