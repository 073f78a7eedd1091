package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

const (
	EventOrderCreated       = "order.created"
	EventOrderStatusChanged = "order.status_changed"
	EventPaymentUpdated     = "payment.updated"
)

type OrderCreatedEvent struct {
	OrderID    uint64          `json:"orderId"`
	Number     string          `json:"number"`
	CustomerID *uint64         `json:"customerId,omitempty"`
	Total      decimal.Decimal `json:"total"`
	ItemCount  int             `json:"itemCount"`
	CreatedAt  time.Time       `json:"createdAt"`
}

type OrderStatusChangedEvent struct {
	OrderID   uint64      `json:"orderId"`
	From      OrderStatus `json:"from"`
	To        OrderStatus `json:"to"`
	Source    string      `json:"source"`
	ChangedAt time.Time   `json:"changedAt"`
}

type PaymentUpdatedEvent struct {
	OrderID     uint64        `json:"orderId"`
	ExternalRef string        `json:"externalRef"`
	Status      PaymentStatus `json:"status"`
	UpdatedAt   time.Time     `json:"updatedAt"`
}
