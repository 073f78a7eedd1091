package gormstore

import (
	"context"
	"time"

	"commerce-service/internal/domain"
	"commerce-service/internal/repository"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type paymentRepo struct {
	db *gorm.DB
}

func NewPaymentRepository(db *gorm.DB) repository.PaymentRepository {
	return &paymentRepo{db: db}
}

func (r *paymentRepo) Create(ctx context.Context, payment *domain.Payment) error {
	return translate(conn(ctx, r.db).Create(payment).Error)
}

func (r *paymentRepo) FindByExternalRef(ctx context.Context, gateway, externalRef string) (*domain.Payment, error) {
	var p domain.Payment
	err := conn(ctx, r.db).
		Where("gateway = ? AND external_ref = ?", gateway, externalRef).
		First(&p).Error
	if err != nil {
		return nil, translate(err)
	}
	return &p, nil
}

func (r *paymentRepo) FindByOrderID(ctx context.Context, orderID uint64) ([]domain.Payment, error) {
	var out []domain.Payment
	err := conn(ctx, r.db).Where("order_id = ?", orderID).Order("id").Find(&out).Error
	if err != nil {
		return nil, translate(err)
	}
	return out, nil
}

func (r *paymentRepo) UpdateStatus(ctx context.Context, id uint64, from, to domain.PaymentStatus) error {
	res := conn(ctx, r.db).Model(&domain.Payment{}).
		Where("id = ? AND status = ?", id, from).
		UpdateColumns(map[string]any{"status": to, "updated_at": time.Now()})
	if res.Error != nil {
		return translate(res.Error)
	}
	if res.RowsAffected == 0 {
		return repository.ErrStaleState
	}
	return nil
}

// RecordEvent uses ON CONFLICT DO NOTHING so a replay does not abort the
// surrounding transaction on PostgreSQL.
func (r *paymentRepo) RecordEvent(ctx context.Context, event *domain.PaymentEvent) error {
	res := conn(ctx, r.db).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(event)
	if res.Error != nil {
		return translate(res.Error)
	}
	if res.RowsAffected == 0 {
		return repository.ErrDuplicate
	}
	return nil
}
