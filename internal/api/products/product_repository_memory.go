package products

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/FACorreiaa/shophub-api/internal/types"
)

var _ ProductRepo = (*MemoryProductRepo)(nil)

type memoryProduct struct {
	product types.Product
	seq     int64
}

// MemoryProductRepo keeps the catalogue in process memory.
type MemoryProductRepo struct {
	mu    sync.RWMutex
	items map[string]*memoryProduct
	seq   int64
	now   func() time.Time
}

func NewMemoryProductRepo() *MemoryProductRepo {
	return &MemoryProductRepo{
		items: make(map[string]*memoryProduct),
		now:   func() time.Time { return time.Now().UTC() },
	}
}

func (r *MemoryProductRepo) List(_ context.Context, filter types.ProductFilter) ([]types.Product, error) {
	r.mu.RLock()
	matched := make([]memoryProduct, 0, len(r.items))
	for _, item := range r.items {
		if filter.Category == "" || item.product.Category == filter.Category {
			matched = append(matched, *item)
		}
	}
	r.mu.RUnlock()

	sort.Slice(matched, func(i, j int) bool {
		a, b := matched[i], matched[j]
		if !a.product.CreatedAt.Equal(b.product.CreatedAt) {
			if filter.Sort == types.SortAsc {
				return a.product.CreatedAt.Before(b.product.CreatedAt)
			}
			return a.product.CreatedAt.After(b.product.CreatedAt)
		}
		if filter.Sort == types.SortAsc {
			return a.seq < b.seq
		}
		return a.seq > b.seq
	})
	if filter.Limit > 0 && len(matched) > filter.Limit {
		matched = matched[:filter.Limit]
	}

	products := make([]types.Product, 0, len(matched))
	for _, item := range matched {
		products = append(products, item.product)
	}
	return products, nil
}

func (r *MemoryProductRepo) Categories(_ context.Context) ([]string, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	set := make(map[string]struct{})
	for _, item := range r.items {
		set[item.product.Category] = struct{}{}
	}
	categories := make([]string, 0, len(set))
	for c := range set {
		categories = append(categories, c)
	}
	sort.Strings(categories)
	return categories, nil
}

func (r *MemoryProductRepo) GetByID(_ context.Context, id string) (*types.Product, error) {
	if err := checkUUID(id); err != nil {
		return nil, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	item, ok := r.items[id]
	if !ok {
		return nil, types.ErrNotFound
	}
	p := item.product
	return &p, nil
}

func (r *MemoryProductRepo) Create(ctx context.Context, createdBy string, params types.ProductParams) (*types.Product, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	now := r.now()
	r.seq++
	item := &memoryProduct{
		seq: r.seq,
		product: types.Product{
			ID:          uuid.NewString(),
			Title:       params.Title,
			Price:       params.Price,
			Description: params.Description,
			Category:    params.Category,
			Image:       params.Image,
			Rating:      params.Rating,
			CreatedBy:   createdBy,
			CreatedAt:   now,
			UpdatedAt:   now,
		},
	}
	r.items[item.product.ID] = item
	p := item.product
	return &p, nil
}

func (r *MemoryProductRepo) Replace(_ context.Context, id string, params types.ProductParams) (*types.Product, error) {
	return r.update(id, func(p *types.Product) {
		p.Title = params.Title
		p.Price = params.Price
		p.Description = params.Description
		p.Category = params.Category
		p.Image = params.Image
		p.Rating = params.Rating
	})
}

func (r *MemoryProductRepo) Patch(_ context.Context, id string, patch types.ProductPatch) (*types.Product, error) {
	return r.update(id, func(p *types.Product) {
		if patch.Title != nil {
			p.Title = *patch.Title
		}
		if patch.Price != nil {
			p.Price = *patch.Price
		}
		if patch.Description != nil {
			p.Description = *patch.Description
		}
		if patch.Category != nil {
			p.Category = *patch.Category
		}
		if patch.Image != nil {
			p.Image = *patch.Image
		}
		if patch.Rating != nil {
			p.Rating = *patch.Rating
		}
	})
}

func (r *MemoryProductRepo) Delete(_ context.Context, id string) error {
	if err := checkUUID(id); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.items[id]; !ok {
		return types.ErrNotFound
	}
	delete(r.items, id)
	return nil
}

func (r *MemoryProductRepo) update(id string, apply func(*types.Product)) (*types.Product, error) {
	if err := checkUUID(id); err != nil {
		return nil, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	item, ok := r.items[id]
	if !ok {
		return nil, types.ErrNotFound
	}
	apply(&item.product)
	item.product.UpdatedAt = r.now()
	p := item.product
	return &p, nil
}
