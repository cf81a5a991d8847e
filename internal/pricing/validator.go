package pricing

import (
	"fmt"
	"sort"

	"github.com/shopspring/decimal"
)

// Offer field names used in validation errors.
const (
	FieldMinQty          = "min_qty"
	FieldDiscountPercent = "discount_percent"
	FieldUnitPrice       = "unit_price"
)

// OfferRow is a submitted tier. During an admin edit session either money
// field may still be absent, meaning it is being derived from the other one.
type OfferRow struct {
	MinQty          int              `json:"min_qty"`
	DiscountPercent *decimal.Decimal `json:"discount_percent,omitempty"`
	UnitPrice       *decimal.Decimal `json:"unit_price,omitempty"`
}

// NormalizedOffer is an OfferRow with both money fields resolved.
type NormalizedOffer struct {
	MinQty          int             `json:"min_qty"`
	DiscountPercent decimal.Decimal `json:"discount_percent"`
	UnitPrice       decimal.Decimal `json:"unit_price"`
}

// FieldError is a field-scoped validation failure. Implied carries the value
// the field would need for the row to become consistent, when one exists.
type FieldError struct {
	Field   string           `json:"field"`
	Message string           `json:"message"`
	Implied *decimal.Decimal `json:"implied_value,omitempty"`
}

// ErrorMap collects row errors keyed by the row's min_qty.
type ErrorMap map[int][]FieldError

// ValidateOffer runs the structural and cross-field checks for a single tier.
func ValidateOffer(row OfferRow, mrp decimal.Decimal) []FieldError {
	var errs []FieldError

	if row.MinQty < 1 {
		errs = append(errs, FieldError{
			Field:   FieldMinQty,
			Message: "quantity must be a positive integer",
		})
	}

	if row.DiscountPercent == nil && row.UnitPrice == nil {
		errs = append(errs, FieldError{
			Field:   FieldDiscountPercent,
			Message: "either discount_percent or unit_price is required",
		})
		return errs
	}

	if d := row.DiscountPercent; d != nil {
		if d.IsNegative() || d.Cmp(hundred) > 0 {
			errs = append(errs, FieldError{
				Field:   FieldDiscountPercent,
				Message: "discount must be between 0 and 100",
			})
		}
	}
	if p := row.UnitPrice; p != nil {
		if p.IsNegative() || p.Cmp(mrp) > 0 {
			errs = append(errs, FieldError{
				Field:   FieldUnitPrice,
				Message: fmt.Sprintf("price must be between 0 and %s", mrp.StringFixed(2)),
			})
		}
	}
	if len(errs) > 0 {
		return errs
	}

	// Cross-field consistency. When both values are present, the price the
	// discount implies must agree with the submitted price within Tolerance.
	// On disagreement both fields get an error carrying the value the other
	// field implies, so a caller can surface both corrections.
	if row.DiscountPercent != nil && row.UnitPrice != nil {
		impliedPrice := UnitPrice(mrp, *row.DiscountPercent)
		if !WithinTolerance(impliedPrice, *row.UnitPrice) {
			impliedDiscount := DiscountForPrice(mrp, *row.UnitPrice)
			errs = append(errs,
				FieldError{
					Field:   FieldDiscountPercent,
					Message: fmt.Sprintf("inconsistent with unit_price; implied discount is %s", impliedDiscount.StringFixed(2)),
					Implied: &impliedDiscount,
				},
				FieldError{
					Field:   FieldUnitPrice,
					Message: fmt.Sprintf("inconsistent with discount_percent; implied price is %s", impliedPrice.StringFixed(2)),
					Implied: &impliedPrice,
				},
			)
		}
	}

	return errs
}

// Normalize resolves the missing money field of a structurally valid row.
func Normalize(row OfferRow, mrp decimal.Decimal) NormalizedOffer {
	out := NormalizedOffer{MinQty: row.MinQty}
	switch {
	case row.DiscountPercent != nil && row.UnitPrice != nil:
		out.DiscountPercent = row.DiscountPercent.Round(2)
		out.UnitPrice = row.UnitPrice.Round(2)
	case row.DiscountPercent != nil:
		out.DiscountPercent = row.DiscountPercent.Round(2)
		out.UnitPrice = UnitPrice(mrp, *row.DiscountPercent)
	case row.UnitPrice != nil:
		out.UnitPrice = row.UnitPrice.Round(2)
		out.DiscountPercent = DiscountForPrice(mrp, *row.UnitPrice)
	}
	return out
}

// ValidateOffers validates a whole offer table. The returned offers are the
// normalized rows in ascending quantity order; the table may be persisted iff
// the error map is empty. requireBaseTier enforces the quantity-1 tier, which
// is mandatory at save time but tolerated as absent on read paths.
func ValidateOffers(rows []OfferRow, mrp decimal.Decimal, requireBaseTier bool) ([]NormalizedOffer, ErrorMap) {
	errs := ErrorMap{}

	seen := map[int]bool{}
	normalized := make([]NormalizedOffer, 0, len(rows))
	for _, row := range rows {
		if rowErrs := ValidateOffer(row, mrp); len(rowErrs) > 0 {
			errs[row.MinQty] = append(errs[row.MinQty], rowErrs...)
			continue
		}
		if seen[row.MinQty] {
			errs[row.MinQty] = append(errs[row.MinQty], FieldError{
				Field:   FieldMinQty,
				Message: fmt.Sprintf("duplicate tier for quantity %d", row.MinQty),
			})
			continue
		}
		seen[row.MinQty] = true
		normalized = append(normalized, Normalize(row, mrp))
	}

	if requireBaseTier && !seen[1] {
		errs[1] = append(errs[1], FieldError{
			Field:   FieldMinQty,
			Message: "a tier for quantity 1 is required",
		})
	}

	sort.Slice(normalized, func(i, j int) bool {
		return normalized[i].MinQty < normalized[j].MinQty
	})

	// Higher commitment never yields a worse deal.
	for i := 1; i < len(normalized); i++ {
		prev, cur := normalized[i-1], normalized[i]
		if cur.DiscountPercent.Cmp(prev.DiscountPercent) < 0 {
			minimum := prev.DiscountPercent
			errs[cur.MinQty] = append(errs[cur.MinQty], FieldError{
				Field:   FieldDiscountPercent,
				Message: fmt.Sprintf("discount must be at least %s to keep tiers non-decreasing", minimum.StringFixed(2)),
				Implied: &minimum,
			})
		}
	}

	if len(errs) > 0 {
		return normalized, errs
	}
	return normalized, errs
}

// Tiers converts normalized offers into engine tiers.
func Tiers(offers []NormalizedOffer) []Tier {
	tiers := make([]Tier, 0, len(offers))
	for _, offer := range offers {
		tiers = append(tiers, Tier{MinQty: offer.MinQty, DiscountPercent: offer.DiscountPercent})
	}
	return tiers
}
