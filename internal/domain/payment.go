package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

type PaymentStatus string

const (
	PaymentPending   PaymentStatus = "pending"
	PaymentPaid      PaymentStatus = "paid"
	PaymentFailed    PaymentStatus = "failed"
	PaymentRefunded  PaymentStatus = "refunded"
	PaymentCancelled PaymentStatus = "cancelled"
)

type PaymentMethod string

const (
	MethodPix        PaymentMethod = "pix"
	MethodCreditCard PaymentMethod = "credit_card"
	MethodDebitCard  PaymentMethod = "debit_card"
	MethodBoleto     PaymentMethod = "boleto"
	MethodWallet     PaymentMethod = "wallet"
)

func (m PaymentMethod) Valid() bool {
	switch m {
	case MethodPix, MethodCreditCard, MethodDebitCard, MethodBoleto, MethodWallet:
		return true
	}
	return false
}

// Payment is one charge attempt; an order may have several.
type Payment struct {
	ID          uint64          `json:"id" gorm:"primaryKey;autoIncrement"`
	OrderID     uint64          `json:"orderId" gorm:"not null;index"`
	Method      PaymentMethod   `json:"method" gorm:"size:20;not null"`
	Gateway     string          `json:"gateway" gorm:"size:32;not null;uniqueIndex:idx_payment_gateway_ref"`
	ExternalRef string          `json:"externalRef" gorm:"size:128;not null;uniqueIndex:idx_payment_gateway_ref"`
	Amount      decimal.Decimal `json:"amount" gorm:"type:decimal(12,2);not null"`
	Status      PaymentStatus   `json:"status" gorm:"size:20;not null"`
	CreatedAt   time.Time       `json:"createdAt" gorm:"autoCreateTime"`
	UpdatedAt   time.Time       `json:"updatedAt" gorm:"autoUpdateTime"`
}

// PaymentEvent records every payment status applied to an order. The unique
// key makes webhook replays detectable.
type PaymentEvent struct {
	ID          uint64        `json:"id" gorm:"primaryKey;autoIncrement"`
	OrderID     uint64        `json:"orderId" gorm:"not null;uniqueIndex:idx_payment_event"`
	ExternalRef string        `json:"externalRef" gorm:"size:128;not null;uniqueIndex:idx_payment_event"`
	Status      PaymentStatus `json:"status" gorm:"size:20;not null;uniqueIndex:idx_payment_event"`
	Applied     bool          `json:"applied" gorm:"not null"`
	CreatedAt   time.Time     `json:"createdAt" gorm:"autoCreateTime"`
}
