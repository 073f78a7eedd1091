package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"

	"commerce-service/internal/domain"
	"commerce-service/internal/repository"
	"commerce-service/internal/validation"

	"github.com/shopspring/decimal"
)

type CreateCategoryInput struct {
	ParentID  *uint64 `json:"parentId,omitempty"`
	Name      string  `json:"name" validate:"required,max=120"`
	Slug      string  `json:"slug,omitempty" validate:"max=140"`
	SortOrder int     `json:"sortOrder"`
}

type CreateProductInput struct {
	CategoryID     *uint64              `json:"categoryId,omitempty"`
	Name           string               `json:"name" validate:"required,max=255"`
	Slug           string               `json:"slug,omitempty" validate:"max=255"`
	Description    string               `json:"description,omitempty"`
	SKU            string               `json:"sku" validate:"required,max=64"`
	Price          decimal.Decimal      `json:"price"`
	CompareAtPrice *decimal.Decimal     `json:"compareAtPrice,omitempty"`
	CostPrice      *decimal.Decimal     `json:"costPrice,omitempty"`
	StockQuantity  int                  `json:"stockQuantity" validate:"min=0"`
	TrackInventory *bool                `json:"trackInventory,omitempty"`
	AllowBackorder bool                 `json:"allowBackorder"`
	Status         domain.ProductStatus `json:"status,omitempty"`
	ImageURL       string               `json:"imageUrl,omitempty" validate:"omitempty,max=512"`
}

type CreateVariantInput struct {
	Name          string           `json:"name" validate:"required,max=255"`
	SKU           string           `json:"sku" validate:"required,max=64"`
	Price         *decimal.Decimal `json:"price,omitempty"`
	StockQuantity int              `json:"stockQuantity" validate:"min=0"`
}

// AdjustStockInput moves stock by Delta; negative values remove units.
type AdjustStockInput struct {
	VariantID *uint64 `json:"variantId,omitempty"`
	Delta     int     `json:"delta" validate:"required"`
	Reason    string  `json:"reason,omitempty" validate:"max=255"`
}

type CatalogService struct {
	repos Repositories
	cache ProductCache
}

func NewCatalogService(repos Repositories, cache ProductCache) *CatalogService {
	return &CatalogService{repos: repos, cache: cache}
}

func (s *CatalogService) CreateCategory(ctx context.Context, in CreateCategoryInput) (*domain.Category, error) {
	if err := validation.Struct(in); err != nil {
		return nil, err
	}

	slug := slugify(in.Slug)
	if slug == "" {
		slug = slugify(in.Name)
	}
	if slug == "" {
		return nil, domain.NewValidationError("slug", "must contain letters or digits")
	}

	if in.ParentID != nil {
		if _, err := s.repos.Categories.FindByID(ctx, *in.ParentID); err != nil {
			return nil, serviceError("create category", notFound("category", *in.ParentID, err))
		}
	}
	if _, err := s.repos.Categories.FindBySlug(ctx, slug); err == nil {
		return nil, &domain.ConflictError{Entity: "category", ID: slug, Reason: "slug already in use"}
	} else if !errors.Is(err, repository.ErrNotFound) {
		return nil, serviceError("create category", err)
	}

	category := &domain.Category{
		ParentID:  in.ParentID,
		Name:      strings.TrimSpace(in.Name),
		Slug:      slug,
		SortOrder: in.SortOrder,
	}
	if err := s.repos.Categories.Create(ctx, category); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, &domain.ConflictError{Entity: "category", ID: slug, Reason: "slug already in use"}
		}
		return nil, serviceError("create category", err)
	}
	return category, nil
}

func (s *CatalogService) CreateProduct(ctx context.Context, in CreateProductInput) (*domain.Product, error) {
	verr := validation.Collect(in)
	if !in.Price.IsPositive() {
		verr.Add("price", "must be greater than 0")
	}
	if in.CompareAtPrice != nil && in.CompareAtPrice.IsNegative() {
		verr.Add("compareAtPrice", "must not be negative")
	}
	if in.CostPrice != nil && in.CostPrice.IsNegative() {
		verr.Add("costPrice", "must not be negative")
	}
	status := in.Status
	if status == "" {
		status = domain.ProductDraft
	}
	if !status.Valid() {
		verr.Add("status", "must be one of: draft active inactive archived")
	}
	if verr.HasErrors() {
		return nil, verr
	}

	if in.CategoryID != nil {
		if _, err := s.repos.Categories.FindByID(ctx, *in.CategoryID); err != nil {
			return nil, serviceError("create product", notFound("category", *in.CategoryID, err))
		}
	}

	slug := slugify(in.Slug)
	if slug == "" {
		slug = slugify(in.Name + " " + in.SKU)
	}
	track := true
	if in.TrackInventory != nil {
		track = *in.TrackInventory
	}

	product := &domain.Product{
		CategoryID:     in.CategoryID,
		Name:           strings.TrimSpace(in.Name),
		Slug:           slug,
		Description:    in.Description,
		SKU:            strings.TrimSpace(in.SKU),
		Price:          in.Price,
		CompareAtPrice: in.CompareAtPrice,
		CostPrice:      in.CostPrice,
		StockQuantity:  in.StockQuantity,
		TrackInventory: track,
		AllowBackorder: in.AllowBackorder,
		Status:         status,
		ImageURL:       in.ImageURL,
	}
	if err := s.repos.Products.Create(ctx, product); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, &domain.ConflictError{Entity: "product", ID: product.SKU, Reason: "sku or slug already in use"}
		}
		return nil, serviceError("create product", err)
	}

	log.Printf("[catalog] created product %d sku=%s", product.ID, product.SKU)
	return product, nil
}

func (s *CatalogService) CreateVariant(ctx context.Context, productID uint64, in CreateVariantInput) (*domain.ProductVariant, error) {
	verr := validation.Collect(in)
	if in.Price != nil && !in.Price.IsPositive() {
		verr.Add("price", "must be greater than 0")
	}
	if verr.HasErrors() {
		return nil, verr
	}

	variant := &domain.ProductVariant{
		ProductID:     productID,
		Name:          strings.TrimSpace(in.Name),
		SKU:           strings.TrimSpace(in.SKU),
		Price:         in.Price,
		StockQuantity: in.StockQuantity,
	}
	err := s.repos.Tx.WithinTransaction(ctx, func(ctx context.Context) error {
		if _, err := s.repos.Products.FindByID(ctx, productID); err != nil {
			return notFound("product", productID, err)
		}
		if err := s.repos.Products.CreateVariant(ctx, variant); err != nil {
			if errors.Is(err, repository.ErrDuplicate) {
				return &domain.ConflictError{Entity: "variant", ID: variant.SKU, Reason: "sku already in use"}
			}
			return notFound("product", productID, err)
		}
		return nil
	})
	if err != nil {
		return nil, serviceError("create variant", err)
	}

	s.invalidate(ctx, productID)
	return variant, nil
}

// GetProduct reads through the product cache when one is configured.
func (s *CatalogService) GetProduct(ctx context.Context, id uint64) (*domain.Product, error) {
	var (
		p   *domain.Product
		err error
	)
	if s.cache != nil {
		p, err = s.cache.FindByID(ctx, id)
	} else {
		p, err = s.repos.Products.FindByID(ctx, id)
	}
	if err != nil {
		return nil, serviceError("get product", notFound("product", id, err))
	}
	return p, nil
}

// AdjustStock is the admin restock / correction path. Removing units obeys the
// same guard as checkout.
func (s *CatalogService) AdjustStock(ctx context.Context, productID uint64, in AdjustStockInput) (*domain.Product, error) {
	if err := validation.Struct(in); err != nil {
		return nil, err
	}

	var product *domain.Product
	err := s.repos.Tx.WithinTransaction(ctx, func(ctx context.Context) error {
		p, err := s.repos.Products.FindByID(ctx, productID)
		if err != nil {
			return notFound("product", productID, err)
		}

		line := repository.StockLine{ProductID: productID, VariantID: in.VariantID, AllowBackorder: p.AllowBackorder}
		if in.Delta > 0 {
			line.Quantity = in.Delta
			err = s.repos.Products.IncrementStock(ctx, line)
			if errors.Is(err, repository.ErrNotFound) && in.VariantID != nil {
				return &domain.NotFoundError{Entity: "variant", ID: *in.VariantID}
			}
		} else {
			line.Quantity = -in.Delta
			err = s.repos.Products.DecrementStock(ctx, line)
			if errors.Is(err, repository.ErrInsufficientStock) {
				if in.VariantID != nil {
					if v, verr := s.repos.Products.FindVariantByID(ctx, *in.VariantID); verr != nil || v.ProductID != productID {
						return &domain.NotFoundError{Entity: "variant", ID: *in.VariantID}
					}
				}
				return &domain.ConflictError{Entity: "product", ID: productID, Reason: fmt.Sprintf("cannot remove %d units", line.Quantity)}
			}
		}
		if err != nil {
			return err
		}

		product, err = s.repos.Products.FindByID(ctx, productID)
		return err
	})
	if err != nil {
		return nil, serviceError("adjust stock", err)
	}

	log.Printf("[catalog] product %d stock adjusted by %d (%s)", productID, in.Delta, in.Reason)
	s.invalidate(ctx, productID)
	return product, nil
}

func (s *CatalogService) invalidate(ctx context.Context, ids ...uint64) {
	if s.cache != nil {
		s.cache.Invalidate(ctx, ids...)
	}
}
