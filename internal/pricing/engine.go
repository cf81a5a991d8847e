package pricing

import (
	"github.com/shopspring/decimal"
)

var (
	hundred = decimal.NewFromInt(100)

	// Tolerance absorbs rounding drift when comparing a derived money or
	// percent value against a submitted one.
	Tolerance = decimal.New(1, -2)
)

// Tier is one row of a product's quantity discount table.
type Tier struct {
	MinQty          int
	DiscountPercent decimal.Decimal
}

// DiscountForQuantity returns the discount of the largest tier whose MinQty
// does not exceed quantity. With no matching tier the discount is zero.
func DiscountForQuantity(tiers []Tier, quantity int) decimal.Decimal {
	best := decimal.Zero
	bestQty := 0
	found := false
	for _, tier := range tiers {
		if tier.MinQty > quantity {
			continue
		}
		if !found || tier.MinQty > bestQty {
			best = tier.DiscountPercent
			bestQty = tier.MinQty
			found = true
		}
	}
	return best
}

// PriceForQuantity resolves the effective unit price for the given quantity.
// Pure and total: any quantity yields a price, falling back to the MRP when no
// tier applies.
func PriceForQuantity(tiers []Tier, mrp decimal.Decimal, quantity int) decimal.Decimal {
	return UnitPrice(mrp, DiscountForQuantity(tiers, quantity))
}

// UnitPrice applies a percent discount to the MRP, rounded half-up to 2
// decimal places.
func UnitPrice(mrp, discountPercent decimal.Decimal) decimal.Decimal {
	return mrp.Mul(hundred.Sub(discountPercent)).Div(hundred).Round(2)
}

// DiscountForPrice back-derives the discount percent a unit price represents
// against the MRP, rounded half-up to 2 decimal places. Both directions agree
// within Tolerance for any mrp > 0 and discount in [0,100].
func DiscountForPrice(mrp, price decimal.Decimal) decimal.Decimal {
	if !mrp.IsPositive() {
		return decimal.Zero
	}
	return hundred.Mul(mrp.Sub(price)).Div(mrp).Round(2)
}

// WithinTolerance reports whether two values differ by at most Tolerance.
func WithinTolerance(a, b decimal.Decimal) bool {
	return a.Sub(b).Abs().Cmp(Tolerance) <= 0
}
