package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

type OrderStatus string

const (
	StatusPending    OrderStatus = "pending"
	StatusConfirmed  OrderStatus = "confirmed"
	StatusProcessing OrderStatus = "processing"
	StatusShipped    OrderStatus = "shipped"
	StatusDelivered  OrderStatus = "delivered"
	StatusCancelled  OrderStatus = "cancelled"
	StatusRefunded   OrderStatus = "refunded"
)

type FulfillmentStatus string

const (
	FulfillmentUnfulfilled FulfillmentStatus = "unfulfilled"
	FulfillmentPartial     FulfillmentStatus = "partial"
	FulfillmentFulfilled   FulfillmentStatus = "fulfilled"
	FulfillmentRestocked   FulfillmentStatus = "restocked"
)

// GuestContact is filled for checkouts without a customer account.
type GuestContact struct {
	Name  string `json:"name,omitempty" gorm:"size:150" validate:"omitempty,max=150"`
	Email string `json:"email,omitempty" gorm:"size:255" validate:"omitempty,email"`
	Phone string `json:"phone,omitempty" gorm:"size:32" validate:"omitempty,max=32"`
}

type Order struct {
	ID                uint64            `json:"id" gorm:"primaryKey;autoIncrement"`
	Number            string            `json:"number" gorm:"size:36;uniqueIndex;not null"`
	CustomerID        *uint64           `json:"customerId,omitempty" gorm:"index"`
	Guest             GuestContact      `json:"guest" gorm:"embedded;embeddedPrefix:guest_"`
	BillingAddress    Address           `json:"billingAddress" gorm:"embedded;embeddedPrefix:billing_"`
	ShippingAddress   *Address          `json:"shippingAddress,omitempty" gorm:"serializer:json"`
	Items             []OrderItem       `json:"items" gorm:"foreignKey:OrderID"`
	Subtotal          decimal.Decimal   `json:"subtotal" gorm:"type:decimal(12,2);not null"`
	DiscountTotal     decimal.Decimal   `json:"discountTotal" gorm:"type:decimal(12,2);not null"`
	ShippingTotal     decimal.Decimal   `json:"shippingTotal" gorm:"type:decimal(12,2);not null"`
	TaxTotal          decimal.Decimal   `json:"taxTotal" gorm:"type:decimal(12,2);not null"`
	Total             decimal.Decimal   `json:"total" gorm:"type:decimal(12,2);not null"`
	CouponCode        string            `json:"couponCode,omitempty" gorm:"size:64"`
	Status            OrderStatus       `json:"status" gorm:"size:20;not null;index"`
	FulfillmentStatus FulfillmentStatus `json:"fulfillmentStatus" gorm:"size:20;not null"`
	PaymentStatus     PaymentStatus     `json:"paymentStatus" gorm:"size:20;not null"`
	Notes             string            `json:"notes,omitempty" gorm:"type:text"`
	CreatedAt         time.Time         `json:"createdAt" gorm:"autoCreateTime"`
	UpdatedAt         time.Time         `json:"updatedAt" gorm:"autoUpdateTime"`
	CancelledAt       *time.Time        `json:"cancelledAt,omitempty"`
}

// OrderItem is a snapshot of the product at checkout time. Catalog edits never
// touch it.
type OrderItem struct {
	ID                uint64          `json:"id" gorm:"primaryKey;autoIncrement"`
	OrderID           uint64          `json:"orderId" gorm:"not null;index"`
	ProductID         uint64          `json:"productId" gorm:"not null;index"`
	VariantID         *uint64         `json:"variantId,omitempty"`
	ProductName       string          `json:"productName" gorm:"size:255;not null"`
	VariantName       string          `json:"variantName,omitempty" gorm:"size:255"`
	SKU               string          `json:"sku" gorm:"size:64"`
	UnitPrice         decimal.Decimal `json:"unitPrice" gorm:"type:decimal(12,3);not null"`
	Quantity          int             `json:"quantity" gorm:"not null"`
	LineTotal         decimal.Decimal `json:"lineTotal" gorm:"type:decimal(14,3);not null"`
	FulfilledQuantity int             `json:"fulfilledQuantity" gorm:"not null;default:0"`
	StockReserved     bool            `json:"-" gorm:"not null;default:false"`
	Restocked         bool            `json:"restocked" gorm:"not null;default:false"`
	CreatedAt         time.Time       `json:"createdAt" gorm:"autoCreateTime"`
}

// Unfulfilled is the quantity not yet handed to a carrier.
func (i OrderItem) Unfulfilled() int {
	return i.Quantity - i.FulfilledQuantity
}

// OrderState is the triple guarded by compare-and-swap writes.
type OrderState struct {
	Status            OrderStatus
	FulfillmentStatus FulfillmentStatus
	PaymentStatus     PaymentStatus
}

func (o *Order) State() OrderState {
	return OrderState{
		Status:            o.Status,
		FulfillmentStatus: o.FulfillmentStatus,
		PaymentStatus:     o.PaymentStatus,
	}
}

func (o *Order) Apply(s OrderState) {
	o.Status = s.Status
	o.FulfillmentStatus = s.FulfillmentStatus
	o.PaymentStatus = s.PaymentStatus
}

// ContactEmail returns the address transactional emails go to.
func (o *Order) ContactEmail(customer *Customer) string {
	if customer != nil && customer.Email != "" {
		return customer.Email
	}
	return o.Guest.Email
}

// StatusChange is the audit trail of order transitions.
type StatusChange struct {
	ID        uint64      `json:"id" gorm:"primaryKey;autoIncrement"`
	OrderID   uint64      `json:"orderId" gorm:"not null;index"`
	From      OrderStatus `json:"from" gorm:"column:from_status;size:20;not null"`
	To        OrderStatus `json:"to" gorm:"column:to_status;size:20;not null"`
	Source    string      `json:"source" gorm:"size:64"`
	CreatedAt time.Time   `json:"createdAt" gorm:"autoCreateTime"`
}
