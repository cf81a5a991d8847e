package pricing

import (
	"testing"

	"github.com/shopspring/decimal"
)

func decPtr(value string) *decimal.Decimal {
	d := dec(value)
	return &d
}

func TestValidateOfferStructuralChecks(t *testing.T) {
	mrp := dec("1000")

	errs := ValidateOffer(OfferRow{MinQty: 0, DiscountPercent: decPtr("10")}, mrp)
	if len(errs) != 1 || errs[0].Field != FieldMinQty {
		t.Fatalf("expected min_qty error, got %+v", errs)
	}

	errs = ValidateOffer(OfferRow{MinQty: 2, DiscountPercent: decPtr("101")}, mrp)
	if len(errs) != 1 || errs[0].Field != FieldDiscountPercent {
		t.Fatalf("expected discount bounds error, got %+v", errs)
	}

	errs = ValidateOffer(OfferRow{MinQty: 2, UnitPrice: decPtr("1000.01")}, mrp)
	if len(errs) != 1 || errs[0].Field != FieldUnitPrice {
		t.Fatalf("expected price bounds error, got %+v", errs)
	}

	errs = ValidateOffer(OfferRow{MinQty: 2}, mrp)
	if len(errs) != 1 {
		t.Fatalf("expected missing-values error, got %+v", errs)
	}
}

func TestValidateOfferCrossFieldPairing(t *testing.T) {
	mrp := dec("1000")

	// 10% discount implies 900.00; submitting 850 is inconsistent by 50.
	errs := ValidateOffer(OfferRow{MinQty: 5, DiscountPercent: decPtr("10"), UnitPrice: decPtr("850")}, mrp)
	if len(errs) != 2 {
		t.Fatalf("expected paired errors, got %+v", errs)
	}

	byField := map[string]FieldError{}
	for _, fe := range errs {
		byField[fe.Field] = fe
	}

	de, ok := byField[FieldDiscountPercent]
	if !ok || de.Implied == nil || de.Implied.StringFixed(2) != "15.00" {
		t.Fatalf("expected implied discount 15.00, got %+v", de)
	}
	pe, ok := byField[FieldUnitPrice]
	if !ok || pe.Implied == nil || pe.Implied.StringFixed(2) != "900.00" {
		t.Fatalf("expected implied price 900.00, got %+v", pe)
	}
}

func TestValidateOfferToleratesRoundingDrift(t *testing.T) {
	mrp := dec("333.33")
	discount := dec("33.33")
	price := UnitPrice(mrp, discount)

	errs := ValidateOffer(OfferRow{MinQty: 1, DiscountPercent: &discount, UnitPrice: &price}, mrp)
	if len(errs) != 0 {
		t.Fatalf("expected derived pair to validate, got %+v", errs)
	}
}

func TestValidateOffersMonotonicity(t *testing.T) {
	mrp := dec("1000")
	rows := []OfferRow{
		{MinQty: 1, DiscountPercent: decPtr("0")},
		{MinQty: 2, DiscountPercent: decPtr("10")},
		{MinQty: 3, DiscountPercent: decPtr("5")},
	}

	_, errs := ValidateOffers(rows, mrp, true)
	rowErrs, ok := errs[3]
	if !ok || len(rowErrs) != 1 {
		t.Fatalf("expected single error on quantity 3, got %+v", errs)
	}
	if rowErrs[0].Field != FieldDiscountPercent {
		t.Fatalf("expected discount error, got %+v", rowErrs[0])
	}
	if rowErrs[0].Implied == nil || rowErrs[0].Implied.StringFixed(2) != "10.00" {
		t.Fatalf("expected implied minimum 10.00, got %+v", rowErrs[0])
	}
}

func TestValidateOffersDuplicateQuantity(t *testing.T) {
	mrp := dec("500")
	rows := []OfferRow{
		{MinQty: 1, DiscountPercent: decPtr("0")},
		{MinQty: 5, DiscountPercent: decPtr("10")},
		{MinQty: 5, DiscountPercent: decPtr("12")},
	}

	_, errs := ValidateOffers(rows, mrp, true)
	rowErrs, ok := errs[5]
	if !ok || len(rowErrs) != 1 || rowErrs[0].Field != FieldMinQty {
		t.Fatalf("expected duplicate error on quantity 5, got %+v", errs)
	}
}

func TestValidateOffersRequiresBaseTierAtSave(t *testing.T) {
	mrp := dec("500")
	rows := []OfferRow{
		{MinQty: 5, DiscountPercent: decPtr("10")},
	}

	_, errs := ValidateOffers(rows, mrp, true)
	if _, ok := errs[1]; !ok {
		t.Fatalf("expected missing base tier error, got %+v", errs)
	}

	_, errs = ValidateOffers(rows, mrp, false)
	if len(errs) != 0 {
		t.Fatalf("read paths must tolerate a missing base tier, got %+v", errs)
	}
}

func TestValidateOffersNormalizesBothDirections(t *testing.T) {
	mrp := dec("1000")
	rows := []OfferRow{
		{MinQty: 5, DiscountPercent: decPtr("10")},
		{MinQty: 1, UnitPrice: decPtr("1000")},
		{MinQty: 10, DiscountPercent: decPtr("20"), UnitPrice: decPtr("800")},
	}

	normalized, errs := ValidateOffers(rows, mrp, true)
	if len(errs) != 0 {
		t.Fatalf("expected clean table, got %+v", errs)
	}
	if len(normalized) != 3 {
		t.Fatalf("expected 3 normalized rows, got %d", len(normalized))
	}

	// Ascending by quantity, both fields resolved on every row.
	wants := []struct {
		minQty   int
		discount string
		price    string
	}{
		{1, "0.00", "1000.00"},
		{5, "10.00", "900.00"},
		{10, "20.00", "800.00"},
	}
	for i, want := range wants {
		row := normalized[i]
		if row.MinQty != want.minQty {
			t.Fatalf("row %d: expected min_qty %d, got %d", i, want.minQty, row.MinQty)
		}
		if row.DiscountPercent.StringFixed(2) != want.discount {
			t.Fatalf("row %d: expected discount %s, got %s", i, want.discount, row.DiscountPercent.StringFixed(2))
		}
		if row.UnitPrice.StringFixed(2) != want.price {
			t.Fatalf("row %d: expected price %s, got %s", i, want.price, row.UnitPrice.StringFixed(2))
		}
	}
}

func TestAcceptedTablesAreMonotonic(t *testing.T) {
	mrp := dec("750")
	rows := []OfferRow{
		{MinQty: 1, DiscountPercent: decPtr("0")},
		{MinQty: 3, UnitPrice: decPtr("712.50")},
		{MinQty: 6, DiscountPercent: decPtr("5")},
		{MinQty: 12, UnitPrice: decPtr("600")},
	}

	normalized, errs := ValidateOffers(rows, mrp, true)
	if len(errs) != 0 {
		t.Fatalf("expected clean table, got %+v", errs)
	}
	for i := 1; i < len(normalized); i++ {
		if normalized[i].DiscountPercent.Cmp(normalized[i-1].DiscountPercent) < 0 {
			t.Fatalf("accepted table is not monotonic at row %d: %+v", i, normalized)
		}
	}
}
