package gormstore

import (
	"context"
	"errors"
	"log"
	"time"

	"commerce-service/internal/domain"
	"commerce-service/internal/repository"

	"gorm.io/gorm"
)

type orderRepo struct {
	db *gorm.DB
}

func NewOrderRepository(db *gorm.DB) repository.OrderRepository {
	return &orderRepo{db: db}
}

// Create inserts the order together with its items.
func (r *orderRepo) Create(ctx context.Context, order *domain.Order) error {
	result := conn(ctx, r.db).Create(order)
	if result.Error != nil {
		log.Printf("[orders] save error: %v", result.Error)
		return translate(result.Error)
	}

	if order.ID == 0 {
		log.Printf("[orders] WARNING: order saved but ID is still 0. Rows affected: %d", result.RowsAffected)
		return errors.New("failed to assign order ID")
	}
	return nil
}

func (r *orderRepo) FindByID(ctx context.Context, id uint64) (*domain.Order, error) {
	var o domain.Order
	err := conn(ctx, r.db).
		Preload("Items", func(db *gorm.DB) *gorm.DB { return db.Order("id") }).
		First(&o, id).Error
	if err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			log.Printf("[orders] FindByID error: %v", err)
		}
		return nil, translate(err)
	}
	return &o, nil
}

func (r *orderRepo) FindByCustomerID(ctx context.Context, customerID uint64) ([]domain.Order, error) {
	var out []domain.Order
	err := conn(ctx, r.db).
		Preload("Items", func(db *gorm.DB) *gorm.DB { return db.Order("id") }).
		Where("customer_id = ?", customerID).
		Order("created_at DESC").
		Find(&out).Error
	if err != nil {
		log.Printf("[orders] FindByCustomerID error: %v", err)
		return nil, translate(err)
	}
	return out, nil
}

func (r *orderRepo) UpdateState(ctx context.Context, id uint64, from, to domain.OrderState) error {
	db := conn(ctx, r.db)
	res := db.Model(&domain.Order{}).
		Where("id = ? AND status = ? AND fulfillment_status = ? AND payment_status = ?",
			id, from.Status, from.FulfillmentStatus, from.PaymentStatus).
		UpdateColumns(map[string]any{
			"status":             to.Status,
			"fulfillment_status": to.FulfillmentStatus,
			"payment_status":     to.PaymentStatus,
			"updated_at":         time.Now(),
		})
	if res.Error != nil {
		return translate(res.Error)
	}
	if res.RowsAffected == 1 {
		return nil
	}

	var n int64
	if err := db.Model(&domain.Order{}).Where("id = ?", id).Count(&n).Error; err != nil {
		return translate(err)
	}
	if n == 0 {
		return repository.ErrNotFound
	}
	return repository.ErrStaleState
}

func (r *orderRepo) UpdateItems(ctx context.Context, items []domain.OrderItem) error {
	db := conn(ctx, r.db)
	for _, it := range items {
		err := db.Model(&domain.OrderItem{}).
			Where("id = ?", it.ID).
			UpdateColumns(map[string]any{
				"fulfilled_quantity": it.FulfilledQuantity,
				"restocked":          it.Restocked,
			}).Error
		if err != nil {
			return translate(err)
		}
	}
	return nil
}

func (r *orderRepo) SetCancelledAt(ctx context.Context, order *domain.Order) error {
	err := conn(ctx, r.db).Model(&domain.Order{}).
		Where("id = ?", order.ID).
		UpdateColumn("cancelled_at", order.CancelledAt).Error
	return translate(err)
}

func (r *orderRepo) AddStatusChange(ctx context.Context, change *domain.StatusChange) error {
	return translate(conn(ctx, r.db).Create(change).Error)
}
