package pricing

import (
	"testing"

	"commerce-service/internal/domain"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func d(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func assertMoney(t *testing.T, expected string, actual decimal.Decimal) {
	t.Helper()
	assert.True(t, d(expected).Equal(actual), "expected %s, got %s", expected, actual)
}

func TestComputeTotals_RoundsOnceAfterSum(t *testing.T) {
	totals := ComputeTotals([]Line{{UnitPrice: d("10.005"), Quantity: 3}}, nil, Options{})

	assertMoney(t, "30.02", totals.Subtotal)
	assertMoney(t, "30.02", totals.Total)
	assertMoney(t, "30.015", totals.LineTotals[0])
}

func TestComputeTotals_OrderIndependent(t *testing.T) {
	a := []Line{
		{UnitPrice: d("0.335"), Quantity: 1},
		{UnitPrice: d("0.335"), Quantity: 1},
		{UnitPrice: d("19.99"), Quantity: 2},
	}
	b := []Line{a[2], a[0], a[1]}

	ta := ComputeTotals(a, nil, Options{})
	tb := ComputeTotals(b, nil, Options{})

	assertMoney(t, "40.65", ta.Subtotal)
	assert.True(t, ta.Total.Equal(tb.Total))
}

func TestComputeTotals_Discounts(t *testing.T) {
	lines := []Line{{UnitPrice: d("50.00"), Quantity: 2}}

	tests := []struct {
		name      string
		discounts []Discount
		shipping  string
		discount  string
		ship      string
		total     string
	}{
		{
			name:      "percentage before fixed regardless of input order",
			discounts: []Discount{{Kind: DiscountFixed, Value: d("10")}, {Kind: DiscountPercentage, Value: d("10")}},
			shipping:  "15.00",
			discount:  "20.00",
			ship:      "15.00",
			total:     "95.00",
		},
		{
			name:      "free shipping zeroes shipping only",
			discounts: []Discount{{Kind: DiscountFreeShipping}},
			shipping:  "15.00",
			discount:  "0",
			ship:      "0",
			total:     "100.00",
		},
		{
			name:      "fixed discount clamped to subtotal",
			discounts: []Discount{{Kind: DiscountFixed, Value: d("250")}},
			shipping:  "15.00",
			discount:  "100.00",
			ship:      "15.00",
			total:     "15.00",
		},
		{
			name:      "percentage rounded once",
			discounts: []Discount{{Kind: DiscountPercentage, Value: d("33.333")}},
			shipping:  "0",
			discount:  "33.33",
			ship:      "0",
			total:     "66.67",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			totals := ComputeTotals(lines, tt.discounts, Options{Shipping: d(tt.shipping)})

			assertMoney(t, "100.00", totals.Subtotal)
			assertMoney(t, tt.discount, totals.Discount)
			assertMoney(t, tt.ship, totals.Shipping)
			assertMoney(t, tt.total, totals.Total)
		})
	}
}

func TestComputeTotals_Tax(t *testing.T) {
	totals := ComputeTotals(
		[]Line{{UnitPrice: d("10.00"), Quantity: 1}},
		[]Discount{{Kind: DiscountFixed, Value: d("1.00")}},
		Options{Shipping: d("5.00"), TaxRate: d("0.175")},
	)

	// (10 - 1) * 0.175 = 1.575
	assertMoney(t, "1.58", totals.Tax)
	assertMoney(t, "15.58", totals.Total)
}

func TestUnitPrice(t *testing.T) {
	override := d("12.50")
	product := &domain.Product{Price: d("10.00")}

	assertMoney(t, "10.00", UnitPrice(product, nil))
	assertMoney(t, "10.00", UnitPrice(product, &domain.ProductVariant{}))
	assertMoney(t, "12.50", UnitPrice(product, &domain.ProductVariant{Price: &override}))
}

func TestFromCoupon(t *testing.T) {
	assert.Equal(t, DiscountPercentage, FromCoupon(&domain.Coupon{Kind: domain.CouponPercentage, Value: d("5")}).Kind)
	assert.Equal(t, DiscountFixed, FromCoupon(&domain.Coupon{Kind: domain.CouponFixed, Value: d("5")}).Kind)
	assert.Equal(t, DiscountFreeShipping, FromCoupon(&domain.Coupon{Kind: domain.CouponFreeShipping}).Kind)
}
