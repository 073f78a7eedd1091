package memory

import (
	"context"
	"time"

	"commerce-service/internal/domain"
	"commerce-service/internal/repository"
)

type productRepo struct{ s *Store }

func (r productRepo) Create(ctx context.Context, product *domain.Product) error {
	defer r.s.lock(ctx)()
	for _, p := range r.s.t.products {
		if p.SKU == product.SKU || p.Slug == product.Slug {
			return repository.ErrDuplicate
		}
	}
	product.ID = r.s.nextID()
	now := time.Now()
	product.CreatedAt, product.UpdatedAt = now, now

	stored := *product
	stored.Variants = nil
	r.s.t.products[product.ID] = stored
	return nil
}

func (r productRepo) FindByID(ctx context.Context, id uint64) (*domain.Product, error) {
	defer r.s.lock(ctx)()
	p, ok := r.s.t.products[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	for _, v := range r.s.t.variants {
		if v.ProductID == id {
			p.Variants = append(p.Variants, v)
		}
	}
	sortByID(p.Variants, func(v domain.ProductVariant) uint64 { return v.ID })
	return &p, nil
}

func (r productRepo) CreateVariant(ctx context.Context, variant *domain.ProductVariant) error {
	defer r.s.lock(ctx)()
	if _, ok := r.s.t.products[variant.ProductID]; !ok {
		return repository.ErrNotFound
	}
	for _, v := range r.s.t.variants {
		if v.SKU == variant.SKU {
			return repository.ErrDuplicate
		}
	}
	variant.ID = r.s.nextID()
	now := time.Now()
	variant.CreatedAt, variant.UpdatedAt = now, now
	r.s.t.variants[variant.ID] = *variant
	return nil
}

func (r productRepo) FindVariantByID(ctx context.Context, id uint64) (*domain.ProductVariant, error) {
	defer r.s.lock(ctx)()
	v, ok := r.s.t.variants[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &v, nil
}

func (r productRepo) DecrementStock(ctx context.Context, line repository.StockLine) error {
	defer r.s.lock(ctx)()
	return r.move(line, -line.Quantity, !line.AllowBackorder)
}

func (r productRepo) IncrementStock(ctx context.Context, line repository.StockLine) error {
	defer r.s.lock(ctx)()
	err := r.move(line, line.Quantity, false)
	if err == repository.ErrInsufficientStock {
		return repository.ErrNotFound
	}
	return err
}

// move mirrors the conditional UPDATE of the SQL store: a missing row and a
// failed guard both report ErrInsufficientStock.
func (r productRepo) move(line repository.StockLine, delta int, guard bool) error {
	now := time.Now()
	if line.VariantID != nil {
		v, ok := r.s.t.variants[*line.VariantID]
		if !ok || v.ProductID != line.ProductID || (guard && v.StockQuantity+delta < 0) {
			return repository.ErrInsufficientStock
		}
		v.StockQuantity += delta
		v.UpdatedAt = now
		r.s.t.variants[v.ID] = v
		return nil
	}

	p, ok := r.s.t.products[line.ProductID]
	if !ok || (guard && p.StockQuantity+delta < 0) {
		return repository.ErrInsufficientStock
	}
	p.StockQuantity += delta
	p.UpdatedAt = now
	r.s.t.products[p.ID] = p
	return nil
}

type categoryRepo struct{ s *Store }

func (r categoryRepo) Create(ctx context.Context, category *domain.Category) error {
	defer r.s.lock(ctx)()
	for _, c := range r.s.t.categories {
		if c.Slug == category.Slug {
			return repository.ErrDuplicate
		}
	}
	category.ID = r.s.nextID()
	now := time.Now()
	category.CreatedAt, category.UpdatedAt = now, now
	r.s.t.categories[category.ID] = *category
	return nil
}

func (r categoryRepo) FindByID(ctx context.Context, id uint64) (*domain.Category, error) {
	defer r.s.lock(ctx)()
	c, ok := r.s.t.categories[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &c, nil
}

func (r categoryRepo) FindBySlug(ctx context.Context, slug string) (*domain.Category, error) {
	defer r.s.lock(ctx)()
	for _, c := range r.s.t.categories {
		if c.Slug == slug {
			return &c, nil
		}
	}
	return nil, repository.ErrNotFound
}

type couponRepo struct{ s *Store }

func (r couponRepo) FindByCode(ctx context.Context, code string) (*domain.Coupon, error) {
	defer r.s.lock(ctx)()
	for _, c := range r.s.t.coupons {
		if equalFold(c.Code, code) {
			return &c, nil
		}
	}
	return nil, repository.ErrNotFound
}
