// Package pricing computes order totals. All arithmetic is exact decimal; each
// reported amount is rounded once, after summing.
package pricing

import (
	"commerce-service/internal/domain"

	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

type Line struct {
	UnitPrice decimal.Decimal
	Quantity  int
}

// Total is the exact, unrounded line total.
func (l Line) Total() decimal.Decimal {
	return l.UnitPrice.Mul(decimal.NewFromInt(int64(l.Quantity)))
}

type DiscountKind string

const (
	DiscountPercentage   DiscountKind = "percentage"
	DiscountFixed        DiscountKind = "fixed"
	DiscountFreeShipping DiscountKind = "free_shipping"
)

type Discount struct {
	Kind  DiscountKind
	Value decimal.Decimal
}

type Options struct {
	Shipping decimal.Decimal
	TaxRate  decimal.Decimal
}

type Totals struct {
	LineTotals []decimal.Decimal
	Subtotal   decimal.Decimal
	Discount   decimal.Decimal
	Shipping   decimal.Decimal
	Tax        decimal.Decimal
	Total      decimal.Decimal
}

// Round rounds to cents, halves going up. shopspring rounds half away from
// zero, which is the same thing for the non-negative amounts handled here.
func Round(d decimal.Decimal) decimal.Decimal {
	return d.Round(2)
}

// UnitPrice snapshots the price a line is sold at.
func UnitPrice(p *domain.Product, v *domain.ProductVariant) decimal.Decimal {
	if v != nil {
		return v.EffectivePrice(p)
	}
	return p.Price
}

func FromCoupon(c *domain.Coupon) Discount {
	switch c.Kind {
	case domain.CouponPercentage:
		return Discount{Kind: DiscountPercentage, Value: c.Value}
	case domain.CouponFreeShipping:
		return Discount{Kind: DiscountFreeShipping}
	default:
		return Discount{Kind: DiscountFixed, Value: c.Value}
	}
}

// ComputeTotals prices an order. Percentage discounts are applied in order on
// the running amount, then fixed amounts; the discount never exceeds the
// subtotal. Free shipping only zeroes the shipping component.
func ComputeTotals(lines []Line, discounts []Discount, opts Options) Totals {
	t := Totals{LineTotals: make([]decimal.Decimal, len(lines))}

	exact := decimal.Zero
	for i, l := range lines {
		lt := l.Total()
		t.LineTotals[i] = lt
		exact = exact.Add(lt)
	}
	t.Subtotal = Round(exact)

	remaining := t.Subtotal
	freeShipping := false
	for _, d := range discounts {
		switch d.Kind {
		case DiscountPercentage:
			pct := decimal.Min(decimal.Max(d.Value, decimal.Zero), hundred)
			remaining = remaining.Sub(remaining.Mul(pct).Div(hundred))
		case DiscountFreeShipping:
			freeShipping = true
		}
	}
	for _, d := range discounts {
		if d.Kind == DiscountFixed && d.Value.IsPositive() {
			remaining = remaining.Sub(d.Value)
		}
	}
	if remaining.IsNegative() {
		remaining = decimal.Zero
	}
	t.Discount = Round(t.Subtotal.Sub(remaining))

	t.Shipping = Round(opts.Shipping)
	if freeShipping || t.Shipping.IsNegative() {
		t.Shipping = decimal.Zero
	}

	taxable := t.Subtotal.Sub(t.Discount)
	t.Tax = Round(taxable.Mul(opts.TaxRate))

	t.Total = t.Subtotal.Sub(t.Discount).Add(t.Shipping).Add(t.Tax)
	return t
}
