package cart

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ItemInput is one submitted cart line.
type ItemInput struct {
	ProductID uuid.UUID `json:"product_id" validate:"required"`
	Qty       int       `json:"qty" validate:"required,min=1"`
}

// PutInput replaces the cart's whole item list.
type PutInput struct {
	Items []ItemInput `json:"items" validate:"max=100,dive"`
}

// PricedItem is a cart line priced against the current offer table.
type PricedItem struct {
	ProductID       uuid.UUID       `json:"product_id"`
	Name            string          `json:"name"`
	Slug            string          `json:"slug"`
	Qty             int             `json:"qty"`
	MRP             decimal.Decimal `json:"mrp"`
	UnitPrice       decimal.Decimal `json:"unit_price"`
	DiscountPercent decimal.Decimal `json:"discount_percent"`
	LineSubtotal    decimal.Decimal `json:"line_subtotal"`
	LineTotal       decimal.Decimal `json:"line_total"`
	PiecesLeft      *int            `json:"pieces_left,omitempty"`
}

// View is the customer-facing cart projection.
type View struct {
	CartID uuid.UUID    `json:"cart_id"`
	Items  []PricedItem `json:"items"`
	Totals Totals       `json:"totals"`
}
