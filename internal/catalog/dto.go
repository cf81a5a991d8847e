package catalog

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/localkart/localkart-backend/internal/pricing"
)

// ProductFilters describe the inputs supported by the product list.
type ProductFilters struct {
	BrandID         *uuid.UUID
	Tag             string
	Query           string
	IncludeInactive bool
}

// BrandInput carries the admin create/update payload for a brand.
type BrandInput struct {
	Name        string  `json:"name" validate:"required,min=1,max=120"`
	Slug        string  `json:"slug" validate:"required,min=1,max=120"`
	Description *string `json:"description,omitempty" validate:"omitempty,max=2000"`
	IsActive    *bool   `json:"is_active,omitempty"`
}

// ProductInput carries the admin create payload for a product. MRP is only
// honored at creation; updates never touch it.
type ProductInput struct {
	BrandID     uuid.UUID          `json:"brand_id" validate:"required"`
	Name        string             `json:"name" validate:"required,min=1,max=200"`
	Slug        string             `json:"slug" validate:"required,min=1,max=200"`
	Description *string            `json:"description,omitempty" validate:"omitempty,max=5000"`
	Tags        []string           `json:"tags,omitempty" validate:"max=20,dive,min=1,max=50"`
	MRP         decimal.Decimal    `json:"mrp"`
	PiecesLeft  *int               `json:"pieces_left,omitempty" validate:"omitempty,min=0"`
	Offers      []pricing.OfferRow `json:"offers,omitempty"`
}

// ProductUpdateInput carries the admin update payload.
type ProductUpdateInput struct {
	Name        *string  `json:"name,omitempty" validate:"omitempty,min=1,max=200"`
	Slug        *string  `json:"slug,omitempty" validate:"omitempty,min=1,max=200"`
	Description *string  `json:"description,omitempty" validate:"omitempty,max=5000"`
	Tags        []string `json:"tags,omitempty" validate:"max=20,dive,min=1,max=50"`
	IsActive    *bool    `json:"is_active,omitempty"`
}

// StockInput replaces a product's stock counter. Null clears tracking.
type StockInput struct {
	PiecesLeft *int `json:"pieces_left" validate:"omitempty,min=0"`
}

// OfferTableInput is the full-table replacement payload.
type OfferTableInput struct {
	Offers []pricing.OfferRow `json:"offers" validate:"required,min=1,max=50"`
}

// OfferPreview is the admin edit-session round trip: normalized rows plus the
// field errors keyed by row quantity.
type OfferPreview struct {
	Offers []pricing.NormalizedOffer `json:"offers"`
	Errors pricing.ErrorMap          `json:"errors,omitempty"`
	Valid  bool                      `json:"valid"`
}

// PricePreview resolves a quantity against the live offer table.
type PricePreview struct {
	ProductID       uuid.UUID       `json:"product_id"`
	Quantity        int             `json:"quantity"`
	UnitPrice       decimal.Decimal `json:"unit_price"`
	DiscountPercent decimal.Decimal `json:"discount_percent"`
	LineTotal       decimal.Decimal `json:"line_total"`
}

// ProductSummary is the public list projection.
type ProductSummary struct {
	ID         uuid.UUID       `json:"id"`
	BrandID    uuid.UUID       `json:"brand_id"`
	Name       string          `json:"name"`
	Slug       string          `json:"slug"`
	Tags       []string        `json:"tags"`
	MRP        decimal.Decimal `json:"mrp"`
	PiecesLeft *int            `json:"pieces_left,omitempty"`
	IsActive   bool            `json:"is_active"`
	CreatedAt  time.Time       `json:"created_at"`
}

// ProductList wraps the paginated products plus the next page cursor.
type ProductList struct {
	Products   []ProductSummary `json:"products"`
	NextCursor string           `json:"next_cursor,omitempty"`
}
