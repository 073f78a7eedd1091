// Package memory is an in-process implementation of the repositories, used by
// tests and by DB_DRIVER=memory. Every operation is serialised on one mutex and
// transactions snapshot the maps so a failed fn leaves no trace.
package memory

import (
	"context"
	"maps"
	"slices"
	"sync"
	"time"

	"commerce-service/internal/domain"
	"commerce-service/internal/repository"
)

type txKey struct{}

type eventKey struct {
	orderID     uint64
	externalRef string
	status      domain.PaymentStatus
}

type tables struct {
	products   map[uint64]domain.Product
	variants   map[uint64]domain.ProductVariant
	categories map[uint64]domain.Category
	customers  map[uint64]domain.Customer
	addresses  map[uint64]domain.CustomerAddress
	orders     map[uint64]domain.Order
	items      map[uint64]domain.OrderItem
	changes    []domain.StatusChange
	payments   map[uint64]domain.Payment
	events     map[eventKey]domain.PaymentEvent
	coupons    map[string]domain.Coupon
	uploads    map[uint64]domain.Upload
	seq        uint64
}

func (t tables) clone() tables {
	return tables{
		products:   maps.Clone(t.products),
		variants:   maps.Clone(t.variants),
		categories: maps.Clone(t.categories),
		customers:  maps.Clone(t.customers),
		addresses:  maps.Clone(t.addresses),
		orders:     maps.Clone(t.orders),
		items:      maps.Clone(t.items),
		changes:    slices.Clone(t.changes),
		payments:   maps.Clone(t.payments),
		events:     maps.Clone(t.events),
		coupons:    maps.Clone(t.coupons),
		uploads:    maps.Clone(t.uploads),
		seq:        t.seq,
	}
}

type Store struct {
	mu sync.Mutex
	t  tables
}

func NewStore() *Store {
	return &Store{t: tables{
		products:   map[uint64]domain.Product{},
		variants:   map[uint64]domain.ProductVariant{},
		categories: map[uint64]domain.Category{},
		customers:  map[uint64]domain.Customer{},
		addresses:  map[uint64]domain.CustomerAddress{},
		orders:     map[uint64]domain.Order{},
		items:      map[uint64]domain.OrderItem{},
		payments:   map[uint64]domain.Payment{},
		events:     map[eventKey]domain.PaymentEvent{},
		coupons:    map[string]domain.Coupon{},
		uploads:    map[uint64]domain.Upload{},
	}}
}

var _ repository.Transactor = (*Store)(nil)

func (s *Store) WithinTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	if s.inTx(ctx) {
		return fn(ctx)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	snapshot := s.t.clone()
	if err := fn(context.WithValue(ctx, txKey{}, s)); err != nil {
		s.t = snapshot
		return err
	}
	return nil
}

func (s *Store) inTx(ctx context.Context) bool {
	owner, _ := ctx.Value(txKey{}).(*Store)
	return owner == s
}

// lock takes the store mutex unless ctx belongs to a transaction that already
// holds it.
func (s *Store) lock(ctx context.Context) func() {
	if s.inTx(ctx) {
		return func() {}
	}
	s.mu.Lock()
	return s.mu.Unlock
}

func (s *Store) nextID() uint64 {
	s.t.seq++
	return s.t.seq
}

func (s *Store) Products() repository.ProductRepository   { return productRepo{s} }
func (s *Store) Categories() repository.CategoryRepository { return categoryRepo{s} }
func (s *Store) Customers() repository.CustomerRepository  { return customerRepo{s} }
func (s *Store) Orders() repository.OrderRepository        { return orderRepo{s} }
func (s *Store) Payments() repository.PaymentRepository    { return paymentRepo{s} }
func (s *Store) Coupons() repository.CouponRepository      { return couponRepo{s} }
func (s *Store) Uploads() repository.UploadRepository      { return uploadRepo{s} }

// AddCoupon stores a coupon; coupons have no write path in the service.
func (s *Store) AddCoupon(c domain.Coupon) domain.Coupon {
	s.mu.Lock()
	defer s.mu.Unlock()
	c.ID = s.nextID()
	c.CreatedAt = time.Now()
	s.t.coupons[c.Code] = c
	return c
}

// StatusChanges returns the audit rows of an order, oldest first.
func (s *Store) StatusChanges(orderID uint64) []domain.StatusChange {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []domain.StatusChange
	for _, c := range s.t.changes {
		if c.OrderID == orderID {
			out = append(out, c)
		}
	}
	return out
}
