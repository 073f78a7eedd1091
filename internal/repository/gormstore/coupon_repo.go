package gormstore

import (
	"context"
	"strings"

	"commerce-service/internal/domain"
	"commerce-service/internal/repository"

	"gorm.io/gorm"
)

type couponRepo struct {
	db *gorm.DB
}

func NewCouponRepository(db *gorm.DB) repository.CouponRepository {
	return &couponRepo{db: db}
}

// FindByCode matches codes case-insensitively; codes are stored upper case.
func (r *couponRepo) FindByCode(ctx context.Context, code string) (*domain.Coupon, error) {
	var c domain.Coupon
	err := conn(ctx, r.db).Where("code = ?", strings.ToUpper(code)).First(&c).Error
	if err != nil {
		return nil, translate(err)
	}
	return &c, nil
}
