package gormstore

import (
	"context"
	"time"

	"commerce-service/internal/domain"
	"commerce-service/internal/repository"

	"gorm.io/gorm"
)

type productRepo struct {
	db *gorm.DB
}

func NewProductRepository(db *gorm.DB) repository.ProductRepository {
	return &productRepo{db: db}
}

func (r *productRepo) Create(ctx context.Context, product *domain.Product) error {
	return translate(conn(ctx, r.db).Omit("Variants").Create(product).Error)
}

func (r *productRepo) FindByID(ctx context.Context, id uint64) (*domain.Product, error) {
	var p domain.Product
	err := conn(ctx, r.db).
		Preload("Variants", func(db *gorm.DB) *gorm.DB { return db.Order("id") }).
		First(&p, id).Error
	if err != nil {
		return nil, translate(err)
	}
	return &p, nil
}

func (r *productRepo) CreateVariant(ctx context.Context, variant *domain.ProductVariant) error {
	return translate(conn(ctx, r.db).Create(variant).Error)
}

func (r *productRepo) FindVariantByID(ctx context.Context, id uint64) (*domain.ProductVariant, error) {
	var v domain.ProductVariant
	if err := conn(ctx, r.db).First(&v, id).Error; err != nil {
		return nil, translate(err)
	}
	return &v, nil
}

// DecrementStock is a single conditional UPDATE; the row lock it takes
// serialises concurrent checkouts on the same product.
func (r *productRepo) DecrementStock(ctx context.Context, line repository.StockLine) error {
	q := r.stockQuery(ctx, line)
	if !line.AllowBackorder {
		q = q.Where("stock_quantity >= ?", line.Quantity)
	}

	res := q.UpdateColumns(map[string]any{
		"stock_quantity": gorm.Expr("stock_quantity - ?", line.Quantity),
		"updated_at":     time.Now(),
	})
	if res.Error != nil {
		return translate(res.Error)
	}
	if res.RowsAffected == 0 {
		return repository.ErrInsufficientStock
	}
	return nil
}

func (r *productRepo) IncrementStock(ctx context.Context, line repository.StockLine) error {
	res := r.stockQuery(ctx, line).UpdateColumns(map[string]any{
		"stock_quantity": gorm.Expr("stock_quantity + ?", line.Quantity),
		"updated_at":     time.Now(),
	})
	if res.Error != nil {
		return translate(res.Error)
	}
	if res.RowsAffected == 0 {
		return repository.ErrNotFound
	}
	return nil
}

func (r *productRepo) stockQuery(ctx context.Context, line repository.StockLine) *gorm.DB {
	db := conn(ctx, r.db)
	if line.VariantID != nil {
		return db.Model(&domain.ProductVariant{}).
			Where("id = ? AND product_id = ?", *line.VariantID, line.ProductID)
	}
	return db.Model(&domain.Product{}).Where("id = ?", line.ProductID)
}
