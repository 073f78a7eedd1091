package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

type CouponKind string

const (
	CouponPercentage   CouponKind = "percentage"
	CouponFixed        CouponKind = "fixed"
	CouponFreeShipping CouponKind = "free_shipping"
)

type Coupon struct {
	ID        uint64          `json:"id" gorm:"primaryKey;autoIncrement"`
	Code      string          `json:"code" gorm:"size:64;uniqueIndex;not null"`
	Kind      CouponKind      `json:"kind" gorm:"size:20;not null"`
	Value     decimal.Decimal `json:"value" gorm:"type:decimal(12,2);not null"`
	Active    bool            `json:"active" gorm:"not null;default:true"`
	ExpiresAt *time.Time      `json:"expiresAt,omitempty"`
	CreatedAt time.Time       `json:"createdAt" gorm:"autoCreateTime"`
}

func (c *Coupon) Usable(now time.Time) bool {
	if !c.Active {
		return false
	}
	return c.ExpiresAt == nil || now.Before(*c.ExpiresAt)
}
