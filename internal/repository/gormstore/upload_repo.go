package gormstore

import (
	"context"

	"commerce-service/internal/domain"
	"commerce-service/internal/repository"

	"gorm.io/gorm"
)

type uploadRepo struct {
	db *gorm.DB
}

func NewUploadRepository(db *gorm.DB) repository.UploadRepository {
	return &uploadRepo{db: db}
}

func (r *uploadRepo) Create(ctx context.Context, upload *domain.Upload) error {
	return translate(conn(ctx, r.db).Create(upload).Error)
}

func (r *uploadRepo) FindByID(ctx context.Context, id uint64) (*domain.Upload, error) {
	var u domain.Upload
	if err := conn(ctx, r.db).First(&u, id).Error; err != nil {
		return nil, translate(err)
	}
	return &u, nil
}
