package gormstore

import (
	"context"

	"commerce-service/internal/domain"
	"commerce-service/internal/repository"

	"gorm.io/gorm"
)

type customerRepo struct {
	db *gorm.DB
}

func NewCustomerRepository(db *gorm.DB) repository.CustomerRepository {
	return &customerRepo{db: db}
}

func (r *customerRepo) Create(ctx context.Context, customer *domain.Customer) error {
	return translate(conn(ctx, r.db).Create(customer).Error)
}

func (r *customerRepo) FindByID(ctx context.Context, id uint64) (*domain.Customer, error) {
	var c domain.Customer
	err := conn(ctx, r.db).
		Preload("Addresses", func(db *gorm.DB) *gorm.DB { return db.Order("id") }).
		First(&c, id).Error
	if err != nil {
		return nil, translate(err)
	}
	return &c, nil
}

func (r *customerRepo) FindByEmail(ctx context.Context, email string) (*domain.Customer, error) {
	var c domain.Customer
	if err := conn(ctx, r.db).Where("email = ?", email).First(&c).Error; err != nil {
		return nil, translate(err)
	}
	return &c, nil
}

func (r *customerRepo) AddAddress(ctx context.Context, address *domain.CustomerAddress) error {
	err := conn(ctx, r.db).Transaction(func(tx *gorm.DB) error {
		if address.IsDefault {
			err := tx.Model(&domain.CustomerAddress{}).
				Where("customer_id = ? AND is_default = ?", address.CustomerID, true).
				Update("is_default", false).Error
			if err != nil {
				return err
			}
		}
		return tx.Create(address).Error
	})
	return translate(err)
}
