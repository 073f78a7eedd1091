package gormstore

import (
	"context"

	"commerce-service/internal/domain"
	"commerce-service/internal/repository"

	"gorm.io/gorm"
)

type categoryRepo struct {
	db *gorm.DB
}

func NewCategoryRepository(db *gorm.DB) repository.CategoryRepository {
	return &categoryRepo{db: db}
}

func (r *categoryRepo) Create(ctx context.Context, category *domain.Category) error {
	return translate(conn(ctx, r.db).Create(category).Error)
}

func (r *categoryRepo) FindByID(ctx context.Context, id uint64) (*domain.Category, error) {
	var c domain.Category
	if err := conn(ctx, r.db).First(&c, id).Error; err != nil {
		return nil, translate(err)
	}
	return &c, nil
}

func (r *categoryRepo) FindBySlug(ctx context.Context, slug string) (*domain.Category, error) {
	var c domain.Category
	if err := conn(ctx, r.db).Where("slug = ?", slug).First(&c).Error; err != nil {
		return nil, translate(err)
	}
	return &c, nil
}
