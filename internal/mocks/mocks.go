package mocks

import (
	"context"
	"net/http"

	"commerce-service/internal/domain"
	"commerce-service/internal/infra/gateway"
	"commerce-service/internal/notification"
	"commerce-service/internal/repository"

	"github.com/stretchr/testify/mock"
)

type MockPublisher struct {
	mock.Mock
}

func (m *MockPublisher) Publish(ctx context.Context, pattern string, data any) error {
	args := m.Called(ctx, pattern, data)
	return args.Error(0)
}

type MockNotifier struct {
	mock.Mock
}

func (m *MockNotifier) Notify(ctx context.Context, msg notification.Message) {
	m.Called(ctx, msg)
}

type MockTransport struct {
	mock.Mock
}

func (m *MockTransport) Send(ctx context.Context, msg notification.Message) error {
	args := m.Called(ctx, msg)
	return args.Error(0)
}

type MockGateway struct {
	mock.Mock
}

var _ gateway.Gateway = (*MockGateway)(nil)

func (m *MockGateway) Name() string {
	return m.Called().String(0)
}

func (m *MockGateway) Supports(method domain.PaymentMethod) bool {
	return m.Called(method).Bool(0)
}

func (m *MockGateway) Charge(ctx context.Context, order *domain.Order, method domain.PaymentMethod) (string, error) {
	args := m.Called(ctx, order, method)
	return args.String(0), args.Error(1)
}

func (m *MockGateway) HandleWebhook(ctx context.Context, header http.Header, payload []byte) (*gateway.WebhookResult, error) {
	args := m.Called(ctx, header, payload)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*gateway.WebhookResult), args.Error(1)
}

// MockTransactor runs fn directly and lets tests inject a transaction error
// in front of it.
type MockTransactor struct {
	mock.Mock
}

func (m *MockTransactor) WithinTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	args := m.Called(ctx)
	if err := args.Error(0); err != nil {
		return err
	}
	return fn(ctx)
}

type MockProductRepository struct {
	mock.Mock
}

var _ repository.ProductRepository = (*MockProductRepository)(nil)

func (m *MockProductRepository) Create(ctx context.Context, product *domain.Product) error {
	return m.Called(ctx, product).Error(0)
}

func (m *MockProductRepository) FindByID(ctx context.Context, id uint64) (*domain.Product, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Product), args.Error(1)
}

func (m *MockProductRepository) CreateVariant(ctx context.Context, variant *domain.ProductVariant) error {
	return m.Called(ctx, variant).Error(0)
}

func (m *MockProductRepository) FindVariantByID(ctx context.Context, id uint64) (*domain.ProductVariant, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.ProductVariant), args.Error(1)
}

func (m *MockProductRepository) DecrementStock(ctx context.Context, line repository.StockLine) error {
	return m.Called(ctx, line).Error(0)
}

func (m *MockProductRepository) IncrementStock(ctx context.Context, line repository.StockLine) error {
	return m.Called(ctx, line).Error(0)
}

type MockOrderRepository struct {
	mock.Mock
}

var _ repository.OrderRepository = (*MockOrderRepository)(nil)

func (m *MockOrderRepository) Create(ctx context.Context, order *domain.Order) error {
	return m.Called(ctx, order).Error(0)
}

func (m *MockOrderRepository) FindByID(ctx context.Context, id uint64) (*domain.Order, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Order), args.Error(1)
}

func (m *MockOrderRepository) FindByCustomerID(ctx context.Context, customerID uint64) ([]domain.Order, error) {
	args := m.Called(ctx, customerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Order), args.Error(1)
}

func (m *MockOrderRepository) UpdateState(ctx context.Context, id uint64, from, to domain.OrderState) error {
	return m.Called(ctx, id, from, to).Error(0)
}

func (m *MockOrderRepository) UpdateItems(ctx context.Context, items []domain.OrderItem) error {
	return m.Called(ctx, items).Error(0)
}

func (m *MockOrderRepository) SetCancelledAt(ctx context.Context, order *domain.Order) error {
	return m.Called(ctx, order).Error(0)
}

func (m *MockOrderRepository) AddStatusChange(ctx context.Context, change *domain.StatusChange) error {
	return m.Called(ctx, change).Error(0)
}
