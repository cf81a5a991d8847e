package cart

import (
	"github.com/shopspring/decimal"

	"github.com/localkart/localkart-backend/internal/pricing"
)

// Line is one (product, quantity) pair priced against a live offer table.
type Line struct {
	MRP   decimal.Decimal
	Tiers []pricing.Tier
	Qty   int
}

// Totals is the money summary of a priced cart.
type Totals struct {
	Subtotal decimal.Decimal `json:"subtotal"`
	Discount decimal.Decimal `json:"discount"`
	Total    decimal.Decimal `json:"total"`
}

// ComputeTotals prices every line from the current offer tables. The cart is
// never a snapshot: subtotal is MRP-based, total applies the tier discounts,
// discount is the difference.
func ComputeTotals(lines []Line) Totals {
	subtotal := decimal.Zero
	total := decimal.Zero
	for _, line := range lines {
		qty := decimal.NewFromInt(int64(line.Qty))
		subtotal = subtotal.Add(line.MRP.Mul(qty))
		total = total.Add(pricing.PriceForQuantity(line.Tiers, line.MRP, line.Qty).Mul(qty))
	}
	subtotal = subtotal.Round(2)
	total = total.Round(2)
	return Totals{
		Subtotal: subtotal,
		Discount: subtotal.Sub(total).Round(2),
		Total:    total,
	}
}
