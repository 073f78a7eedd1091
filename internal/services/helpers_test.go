package services

import (
	"context"
	"testing"

	"commerce-service/internal/domain"
	"commerce-service/internal/mocks"
	"commerce-service/internal/notification"
	"commerce-service/internal/pricing"
	"commerce-service/internal/repository/memory"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type fixture struct {
	store    *memory.Store
	repos    Repositories
	pub      *mocks.MockPublisher
	notifier *mocks.MockNotifier
	orders   *OrderService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	store := memory.NewStore()
	f := &fixture{
		store:    store,
		repos:    memoryRepos(store),
		pub:      new(mocks.MockPublisher),
		notifier: new(mocks.MockNotifier),
	}
	f.pub.On("Publish", mock.Anything, mock.Anything, mock.Anything).Return(nil)
	f.notifier.On("Notify", mock.Anything, mock.Anything).Return()
	f.orders = NewOrderService(f.repos, f.pub, f.notifier, pricing.Options{
		Shipping: decimal.RequireFromString("10.00"),
		TaxRate:  decimal.Zero,
	})
	return f
}

func memoryRepos(store *memory.Store) Repositories {
	return Repositories{
		Tx:         store,
		Products:   store.Products(),
		Categories: store.Categories(),
		Customers:  store.Customers(),
		Orders:     store.Orders(),
		Payments:   store.Payments(),
		Coupons:    store.Coupons(),
		Uploads:    store.Uploads(),
	}
}

func (f *fixture) product(t *testing.T, sku, price string, stock int, opts ...func(*domain.Product)) *domain.Product {
	t.Helper()
	p := &domain.Product{
		Name:           "Product " + sku,
		Slug:           "product-" + sku,
		SKU:            sku,
		Price:          decimal.RequireFromString(price),
		StockQuantity:  stock,
		TrackInventory: true,
		Status:         domain.ProductActive,
	}
	for _, opt := range opts {
		opt(p)
	}
	require.NoError(t, f.repos.Products.Create(context.Background(), p))
	return p
}

func (f *fixture) variant(t *testing.T, productID uint64, sku string, price *string, stock int) *domain.ProductVariant {
	t.Helper()
	v := &domain.ProductVariant{ProductID: productID, Name: "Variant " + sku, SKU: sku, StockQuantity: stock}
	if price != nil {
		d := decimal.RequireFromString(*price)
		v.Price = &d
	}
	require.NoError(t, f.repos.Products.CreateVariant(context.Background(), v))
	return v
}

func (f *fixture) customer(t *testing.T, email string) *domain.Customer {
	t.Helper()
	c := &domain.Customer{Name: "Ana Souza", Email: email, Tags: domain.StringList{}}
	require.NoError(t, f.repos.Customers.Create(context.Background(), c))
	return c
}

func (f *fixture) stock(t *testing.T, productID uint64) int {
	t.Helper()
	p, err := f.repos.Products.FindByID(context.Background(), productID)
	require.NoError(t, err)
	return p.StockQuantity
}

func (f *fixture) variantStock(t *testing.T, variantID uint64) int {
	t.Helper()
	v, err := f.repos.Products.FindVariantByID(context.Background(), variantID)
	require.NoError(t, err)
	return v.StockQuantity
}

// order places a guest order and moves it along path.
func (f *fixture) order(t *testing.T, lines []OrderLineInput, path ...domain.OrderStatus) *domain.Order {
	t.Helper()
	o, err := f.orders.CreateOrder(context.Background(), guestOrder(lines...))
	require.NoError(t, err)
	for _, st := range path {
		o, err = f.orders.TransitionStatus(context.Background(), o.ID, st, "test")
		require.NoError(t, err)
	}
	return o
}

func (f *fixture) published(pattern string) int {
	n := 0
	for _, c := range f.pub.Calls {
		if c.Method == "Publish" && c.Arguments.String(1) == pattern {
			n++
		}
	}
	return n
}

func (f *fixture) notified(kind notification.Kind) []notification.Message {
	var out []notification.Message
	for _, c := range f.notifier.Calls {
		if msg := c.Arguments.Get(1).(notification.Message); msg.Kind == kind {
			out = append(out, msg)
		}
	}
	return out
}

func billing() *domain.Address {
	return &domain.Address{
		Street:       "Rua das Flores",
		Number:       "100",
		Neighborhood: "Centro",
		City:         "São Paulo",
		State:        "SP",
		ZipCode:      "01001-000",
	}
}

func line(productID uint64, qty int) OrderLineInput {
	return OrderLineInput{ProductID: productID, Quantity: qty}
}

func variantLine(productID, variantID uint64, qty int) OrderLineInput {
	return OrderLineInput{ProductID: productID, VariantID: &variantID, Quantity: qty}
}

func guestOrder(lines ...OrderLineInput) CreateOrderInput {
	return CreateOrderInput{
		Guest:          domain.GuestContact{Name: "Guest Buyer", Email: "guest@example.com"},
		BillingAddress: billing(),
		Items:          lines,
	}
}

func strPtr(s string) *string { return &s }
