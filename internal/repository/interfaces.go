package repository

import (
	"context"

	"commerce-service/internal/domain"
)

// Transactor runs fn in a single transaction. Repositories called with the
// ctx handed to fn join that transaction.
type Transactor interface {
	WithinTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}

// StockLine is one conditional stock movement. When VariantID is set the
// variant's stock moves, otherwise the product's.
type StockLine struct {
	ProductID      uint64
	VariantID      *uint64
	Quantity       int
	AllowBackorder bool
}

type ProductRepository interface {
	Create(ctx context.Context, product *domain.Product) error
	FindByID(ctx context.Context, id uint64) (*domain.Product, error)
	CreateVariant(ctx context.Context, variant *domain.ProductVariant) error
	FindVariantByID(ctx context.Context, id uint64) (*domain.ProductVariant, error)

	// DecrementStock subtracts Quantity only while enough stock remains, unless
	// AllowBackorder is set. A guarded miss returns ErrInsufficientStock.
	DecrementStock(ctx context.Context, line StockLine) error
	IncrementStock(ctx context.Context, line StockLine) error
}

type CategoryRepository interface {
	Create(ctx context.Context, category *domain.Category) error
	FindByID(ctx context.Context, id uint64) (*domain.Category, error)
	FindBySlug(ctx context.Context, slug string) (*domain.Category, error)
}

type CustomerRepository interface {
	Create(ctx context.Context, customer *domain.Customer) error
	FindByID(ctx context.Context, id uint64) (*domain.Customer, error)
	FindByEmail(ctx context.Context, email string) (*domain.Customer, error)
	// AddAddress stores the address; a default address clears the flag on the
	// customer's other addresses.
	AddAddress(ctx context.Context, address *domain.CustomerAddress) error
}

type OrderRepository interface {
	Create(ctx context.Context, order *domain.Order) error
	FindByID(ctx context.Context, id uint64) (*domain.Order, error)
	FindByCustomerID(ctx context.Context, customerID uint64) ([]domain.Order, error)

	// UpdateState writes to only if the row still holds from; otherwise it
	// returns ErrStaleState.
	UpdateState(ctx context.Context, id uint64, from, to domain.OrderState) error
	UpdateItems(ctx context.Context, items []domain.OrderItem) error
	SetCancelledAt(ctx context.Context, order *domain.Order) error
	AddStatusChange(ctx context.Context, change *domain.StatusChange) error
}

type PaymentRepository interface {
	Create(ctx context.Context, payment *domain.Payment) error
	FindByExternalRef(ctx context.Context, gateway, externalRef string) (*domain.Payment, error)
	FindByOrderID(ctx context.Context, orderID uint64) ([]domain.Payment, error)
	UpdateStatus(ctx context.Context, id uint64, from, to domain.PaymentStatus) error

	// RecordEvent inserts the event and returns ErrDuplicate when the same
	// (order, externalRef, status) was recorded before.
	RecordEvent(ctx context.Context, event *domain.PaymentEvent) error
}

type CouponRepository interface {
	FindByCode(ctx context.Context, code string) (*domain.Coupon, error)
}

type UploadRepository interface {
	Create(ctx context.Context, upload *domain.Upload) error
	FindByID(ctx context.Context, id uint64) (*domain.Upload, error)
}
